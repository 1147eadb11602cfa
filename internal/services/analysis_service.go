package services

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"time"

	"gorm.io/datatypes"

	"github.com/placement-prep/learning-service/internal/config"
	"github.com/placement-prep/learning-service/internal/events"
	"github.com/placement-prep/learning-service/internal/models"
	"github.com/placement-prep/learning-service/internal/repositories"
	"github.com/placement-prep/learning-service/internal/validator"
)

type analysisService struct {
	repo           repositories.Repository
	eventPublisher events.EventPublisher
	logger         *slog.Logger
	validator      *validator.Validator
	thresholds     config.Thresholds
}

func NewAnalysisService(repo repositories.Repository, eventPublisher events.EventPublisher, logger *slog.Logger, validator *validator.Validator, thresholds config.Thresholds) AnalysisService {
	return &analysisService{
		repo:           repo,
		eventPublisher: eventPublisher,
		logger:         logger,
		validator:      validator,
		thresholds:     thresholds,
	}
}

// ===== EXAM ANALYSIS =====

func (s *analysisService) AnalyzeAttempt(ctx context.Context, attemptID uint) (*models.ExamAnalysis, error) {
	s.logger.Info("Analyzing attempt", "attempt_id", attemptID)

	attempt, err := s.repo.Attempt().GetByIDWithAssessment(ctx, nil, attemptID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrAttemptNotFound
		}
		return nil, fmt.Errorf("failed to get attempt: %w", err)
	}

	assessment := &attempt.Assessment
	if !assessment.AssessmentType.Analyzable() {
		return nil, ErrInvalidAssessmentType
	}

	// Duplicate calls for the same attempt return the existing snapshot
	// instead of writing a second one.
	if existing, err := s.repo.Analysis().GetByAttempt(ctx, nil, attemptID); err == nil {
		s.logger.Info("Attempt already analyzed", "attempt_id", attemptID, "analysis_id", existing.ID)
		return existing, nil
	} else if !repositories.IsNotFoundError(err) {
		return nil, fmt.Errorf("failed to check existing analysis: %w", err)
	}

	results := scoreSections(assessment.Sections, attempt.Answers, s.thresholds)

	overallScore := 0
	totalQuestions := 0
	for _, r := range results {
		overallScore += r.Score
		totalQuestions += r.TotalQuestions
	}
	overallPercentage := roundPercentage(overallScore, totalQuestions)
	qualified := overallPercentage >= s.thresholds.QualificationScore

	weakSections := make([]string, 0)
	weakTopics := make([]string, 0)
	seenTopics := make(map[string]bool)
	for _, r := range results {
		if r.Status == models.SectionWeak {
			weakSections = append(weakSections, r.SectionName)
		}
		if (r.Status == models.SectionWeak || r.Status == models.SectionAverage) && !seenTopics[r.Topic] {
			seenTopics[r.Topic] = true
			weakTopics = append(weakTopics, r.Topic)
		}
	}

	// Multi-entity updates are sequential independent writes. A failure
	// partway through leaves earlier writes in place (no rollback).
	path, err := s.updateLearningPath(ctx, attempt, overallScore, overallPercentage, qualified)
	if err != nil {
		return nil, err
	}

	analysis := &models.ExamAnalysis{
		StudentID:         attempt.StudentID,
		CompanyName:       assessment.CompanyName,
		AttemptID:         attempt.ID,
		AssessmentID:      assessment.ID,
		OverallScore:      overallScore,
		TotalQuestions:    totalQuestions,
		OverallPercentage: overallPercentage,
		Qualified:         qualified,
		Sections:          results,
		WeakSections:      weakSections,
		AllWeakTopics:     weakTopics,
		CycleNumber:       path.CurrentCycle,
		AnalyzedAt:        time.Now(),
	}

	if err := s.repo.Analysis().Create(ctx, nil, analysis); err != nil {
		return nil, fmt.Errorf("failed to create analysis: %w", err)
	}

	if err := s.upsertPracticeState(ctx, analysis); err != nil {
		return nil, err
	}

	if err := s.seedTopicStates(ctx, analysis); err != nil {
		return nil, err
	}

	s.publishEvent(ctx, events.EventAnalysisCompleted, events.AnalysisCompletedEvent{
		AnalysisID:        analysis.ID,
		AttemptID:         attempt.ID,
		StudentID:         attempt.StudentID,
		CompanyName:       assessment.CompanyName,
		OverallPercentage: overallPercentage,
		Qualified:         qualified,
		WeakSectionCount:  len(weakSections),
		AnalyzedAt:        analysis.AnalyzedAt,
	})
	if qualified {
		s.publishEvent(ctx, events.EventQualificationAchieved, events.QualificationAchievedEvent{
			StudentID:   attempt.StudentID,
			CompanyName: assessment.CompanyName,
			FinalScore:  overallPercentage,
			AchievedAt:  analysis.AnalyzedAt,
		})
	}

	s.logger.Info("Attempt analyzed",
		"attempt_id", attemptID,
		"analysis_id", analysis.ID,
		"overall_percentage", overallPercentage,
		"qualified", qualified,
		"weak_sections", len(weakSections))

	return analysis, nil
}

// updateLearningPath fetches or creates the per-(student, company) learning
// path and folds this result into it.
func (s *analysisService) updateLearningPath(ctx context.Context, attempt *models.Attempt, score, percentage int, qualified bool) (*models.LearningPath, error) {
	company := attempt.Assessment.CompanyName
	now := time.Now()
	snapshot := models.ScoreSnapshot{
		AttemptID:  attempt.ID,
		Score:      score,
		Percentage: percentage,
		RecordedAt: now,
	}

	path, err := s.repo.LearningPath().GetByStudentAndCompany(ctx, nil, attempt.StudentID, company)
	if err != nil {
		if !repositories.IsNotFoundError(err) {
			return nil, fmt.Errorf("failed to get learning path: %w", err)
		}

		// First analysis for the pair: this result becomes the baseline.
		path = &models.LearningPath{
			StudentID:    attempt.StudentID,
			CompanyName:  company,
			Status:       models.QualificationActive,
			CurrentCycle: 1,
			Baseline:     datatypes.NewJSONType(snapshot),
			Best:         datatypes.NewJSONType(snapshot),
		}
		s.applyQualification(path, attempt.ID, qualified, now)
		path.ProgressHistory = append(path.ProgressHistory, s.progressEntry(attempt.ID, percentage, path))

		if err := s.repo.LearningPath().Create(ctx, nil, path); err != nil {
			return nil, fmt.Errorf("failed to create learning path: %w", err)
		}
		return path, nil
	}

	path.CurrentCycle++
	if percentage > path.Best.Data().Percentage {
		path.Best = datatypes.NewJSONType(snapshot)
	}

	improvement := percentage - path.Baseline.Data().Percentage
	if improvement > path.TotalImprovement {
		path.TotalImprovement = improvement
	}
	if improvement >= s.thresholds.MinImprovement {
		path.RetakeEligible = true
	}

	s.applyQualification(path, attempt.ID, qualified, now)
	path.ProgressHistory = append(path.ProgressHistory, s.progressEntry(attempt.ID, percentage, path))

	if err := s.repo.LearningPath().Update(ctx, nil, path); err != nil {
		return nil, fmt.Errorf("failed to update learning path: %w", err)
	}
	return path, nil
}

// applyQualification flips the path to qualified, one-way only.
func (s *analysisService) applyQualification(path *models.LearningPath, attemptID uint, qualified bool, now time.Time) {
	if !qualified || path.QualificationAchieved {
		return
	}
	path.QualificationAchieved = true
	path.QualifiedAt = &now
	path.QualifyingAttemptID = &attemptID
	path.Status = models.QualificationQualified
}

func (s *analysisService) progressEntry(attemptID uint, percentage int, path *models.LearningPath) models.ProgressEntry {
	return models.ProgressEntry{
		AttemptID:           attemptID,
		Percentage:          percentage,
		QualificationStatus: path.Status,
		CycleNumber:         path.CurrentCycle,
		RecordedAt:          time.Now(),
	}
}

// upsertPracticeState points the live practice loop at the fresh analysis.
// Qualification and difficulty survive across analyses (both monotonic).
func (s *analysisService) upsertPracticeState(ctx context.Context, analysis *models.ExamAnalysis) error {
	state, err := s.repo.PracticeState().GetByStudentAndCompany(ctx, nil, analysis.StudentID, analysis.CompanyName)
	if err != nil {
		if !repositories.IsNotFoundError(err) {
			return fmt.Errorf("failed to get practice state: %w", err)
		}

		state = &models.PracticeState{
			StudentID:           analysis.StudentID,
			CompanyName:         analysis.CompanyName,
			QualificationStatus: models.QualificationActive,
			CurrentDifficulty:   models.DifficultyEasy,
			LatestAnalysisID:    analysis.ID,
		}
		if analysis.Qualified {
			state.QualificationStatus = models.QualificationQualified
		}
		if err := s.repo.PracticeState().Create(ctx, nil, state); err != nil {
			return fmt.Errorf("failed to create practice state: %w", err)
		}
		return nil
	}

	state.LatestAnalysisID = analysis.ID
	state.AssessmentsGenerated = false
	if analysis.Qualified {
		state.QualificationStatus = models.QualificationQualified
	}
	if err := s.repo.PracticeState().Update(ctx, nil, state); err != nil {
		return fmt.Errorf("failed to update practice state: %w", err)
	}
	return nil
}

// seedTopicStates creates or refreshes the per-topic trajectories from the
// analysis sections. Topic difficulty never moves backward.
func (s *analysisService) seedTopicStates(ctx context.Context, analysis *models.ExamAnalysis) error {
	for _, section := range analysis.Sections {
		state, err := s.repo.TopicPracticeState().GetByKey(ctx, nil, analysis.StudentID, analysis.CompanyName, section.Topic)
		if err != nil {
			if !repositories.IsNotFoundError(err) {
				return fmt.Errorf("failed to get topic state for %s: %w", section.Topic, err)
			}

			difficulty := section.Difficulty
			if !difficulty.IsValid() {
				difficulty = models.DifficultyEasy
			}
			state = &models.TopicPracticeState{
				StudentID:          analysis.StudentID,
				CompanyName:        analysis.CompanyName,
				Topic:              section.Topic,
				Subtopic:           section.Subtopic,
				Difficulty:         difficulty,
				BaselinePercentage: section.Percentage,
				Status:             section.Status,
			}
			if err := s.repo.TopicPracticeState().Create(ctx, nil, state); err != nil {
				return fmt.Errorf("failed to create topic state for %s: %w", section.Topic, err)
			}
			continue
		}

		state.BaselinePercentage = section.Percentage
		state.Status = section.Status
		state.RaiseDifficulty(section.Difficulty)
		if err := s.repo.TopicPracticeState().Update(ctx, nil, state); err != nil {
			return fmt.Errorf("failed to update topic state for %s: %w", section.Topic, err)
		}
	}
	return nil
}

// ===== CONTINUOUS PRACTICE =====

func (s *analysisService) RecordPracticeResult(ctx context.Context, attemptID uint) (*PracticeFeedback, error) {
	s.logger.Info("Recording practice result", "attempt_id", attemptID)

	attempt, err := s.repo.Attempt().GetByIDWithAssessment(ctx, nil, attemptID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrAttemptNotFound
		}
		return nil, fmt.Errorf("failed to get attempt: %w", err)
	}

	assessment := &attempt.Assessment
	if !assessment.IsSystemGenerated || assessment.AssessmentType != models.TypePractice {
		return nil, ErrInvalidAssessmentType
	}

	state, err := s.repo.PracticeState().GetByStudentAndCompany(ctx, nil, attempt.StudentID, assessment.CompanyName)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrAnalysisNotFound
		}
		return nil, fmt.Errorf("failed to get practice state: %w", err)
	}

	score := int(math.Round(attempt.Percentage))
	now := time.Now()

	state.PracticeAttempts++
	state.LastPracticeScore = score
	state.LastPracticeAt = &now
	if score > state.BestPracticeScore {
		state.BestPracticeScore = score
	}

	state.ScoreHistory = append(state.ScoreHistory, models.ScoreEntry{
		Score:         score,
		Difficulty:    state.CurrentDifficulty,
		AttemptNumber: state.PracticeAttempts,
		RecordedAt:    now,
	})
	if limit := s.thresholds.ScoreHistoryLimit; limit > 0 && len(state.ScoreHistory) > limit {
		state.ScoreHistory = state.ScoreHistory[len(state.ScoreHistory)-limit:]
	}

	feedback := &PracticeFeedback{
		AttemptID:        attemptID,
		Score:            score,
		PracticeAttempts: state.PracticeAttempts,
	}

	// Topic-level update when the practice assessment names a topic.
	if topic := practiceTopic(assessment); topic != "" {
		feedback.Topic = topic
		if err := s.updateTopicState(ctx, attempt.StudentID, assessment.CompanyName, topic, score, feedback); err != nil {
			return nil, err
		}
	}

	// Global improvement is measured against the originating exam result.
	if analysis, err := s.repo.Analysis().GetByID(ctx, nil, state.LatestAnalysisID); err == nil {
		if improvement := score - analysis.OverallPercentage; improvement > state.ImprovementPercentage {
			state.ImprovementPercentage = improvement
		}
	} else if !repositories.IsNotFoundError(err) {
		return nil, fmt.Errorf("failed to get analysis: %w", err)
	}

	state.RaiseDifficulty(nextDifficulty(state.CurrentDifficulty, score, s.thresholds))

	qualifiedNow := false
	if !state.IsQualified() {
		if state.PracticeAttempts >= s.thresholds.MinPracticeAttempts && score >= s.thresholds.PracticeQualifyScore {
			state.QualificationStatus = models.QualificationQualified
			qualifiedNow = true
		} else {
			// Loop stays open: a new targeted assessment may be generated.
			state.AssessmentsGenerated = false
		}
	}

	if err := s.repo.PracticeState().Update(ctx, nil, state); err != nil {
		return nil, fmt.Errorf("failed to update practice state: %w", err)
	}

	if qualifiedNow {
		s.markPathQualified(ctx, attempt, score)
		s.publishEvent(ctx, events.EventQualificationAchieved, events.QualificationAchievedEvent{
			StudentID:   attempt.StudentID,
			CompanyName: assessment.CompanyName,
			FinalScore:  score,
			AchievedAt:  now,
		})
	}

	feedback.CurrentDifficulty = state.CurrentDifficulty
	feedback.ImprovementPercentage = state.ImprovementPercentage
	feedback.Qualified = state.IsQualified()

	s.logger.Info("Practice result recorded",
		"attempt_id", attemptID,
		"score", score,
		"practice_attempts", state.PracticeAttempts,
		"current_difficulty", state.CurrentDifficulty,
		"qualified", feedback.Qualified)

	return feedback, nil
}

func (s *analysisService) updateTopicState(ctx context.Context, studentID, company, topic string, score int, feedback *PracticeFeedback) error {
	state, err := s.repo.TopicPracticeState().GetByKey(ctx, nil, studentID, company, topic)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			s.logger.Warn("No topic state for practice attempt", "topic", topic, "student_id", studentID)
			return nil
		}
		return fmt.Errorf("failed to get topic state: %w", err)
	}

	state.LastPracticeScore = score
	if improvement := score - state.BaselinePercentage; improvement > state.ImprovementPct {
		state.ImprovementPct = improvement
	}
	state.Status = classifyPracticeScore(score, s.thresholds)
	state.RaiseDifficulty(nextDifficulty(state.Difficulty, score, s.thresholds))

	if err := s.repo.TopicPracticeState().Update(ctx, nil, state); err != nil {
		return fmt.Errorf("failed to update topic state: %w", err)
	}

	feedback.TopicStatus = string(state.Status)
	return nil
}

// markPathQualified mirrors a practice qualification onto the learning path.
// Best-effort: a failure here never fails the practice result.
func (s *analysisService) markPathQualified(ctx context.Context, attempt *models.Attempt, score int) {
	path, err := s.repo.LearningPath().GetByStudentAndCompany(ctx, nil, attempt.StudentID, attempt.Assessment.CompanyName)
	if err != nil {
		s.logger.Error("Failed to load learning path for qualification", "student_id", attempt.StudentID, "error", err)
		return
	}
	if path.QualificationAchieved {
		return
	}
	now := time.Now()
	path.QualificationAchieved = true
	path.QualifiedAt = &now
	path.QualifyingAttemptID = &attempt.ID
	path.Status = models.QualificationQualified
	if err := s.repo.LearningPath().Update(ctx, nil, path); err != nil {
		s.logger.Error("Failed to mark learning path qualified", "student_id", attempt.StudentID, "error", err)
	}
}

// ===== READ HELPERS =====

func (s *analysisService) GetLatestAnalysis(ctx context.Context, studentID, company string) (*models.ExamAnalysis, error) {
	analysis, err := s.repo.Analysis().GetLatest(ctx, nil, studentID, company)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrAnalysisNotFound
		}
		return nil, fmt.Errorf("failed to get latest analysis: %w", err)
	}
	return analysis, nil
}

func (s *analysisService) ListAnalyses(ctx context.Context, studentID string, filters repositories.AnalysisFilters) ([]*models.ExamAnalysis, error) {
	if filters.Limit == 0 {
		filters.Limit = 5
	}
	analyses, err := s.repo.Analysis().ListByStudent(ctx, nil, studentID, filters)
	if err != nil {
		return nil, fmt.Errorf("failed to list analyses: %w", err)
	}
	return analyses, nil
}

// ===== SHARED HELPERS =====

// practiceTopic returns the topic of a single-section practice assessment.
func practiceTopic(assessment *models.Assessment) string {
	if len(assessment.Sections) == 0 {
		return ""
	}
	return assessment.Sections[0].Topic
}

func (s *analysisService) publishEvent(ctx context.Context, eventType string, data interface{}) {
	if s.eventPublisher == nil {
		return
	}
	if err := s.eventPublisher.Publish(ctx, eventType, data); err != nil {
		s.logger.Error("Failed to publish event", "event_type", eventType, "error", err)
	}
}

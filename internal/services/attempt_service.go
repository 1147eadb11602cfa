package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/placement-prep/learning-service/internal/events"
	"github.com/placement-prep/learning-service/internal/models"
	"github.com/placement-prep/learning-service/internal/repositories"
	"github.com/placement-prep/learning-service/internal/validator"
)

type attemptService struct {
	repo           repositories.Repository
	analysis       AnalysisService
	eventPublisher events.EventPublisher
	logger         *slog.Logger
	validator      *validator.Validator
}

func NewAttemptService(
	repo repositories.Repository,
	analysis AnalysisService,
	eventPublisher events.EventPublisher,
	logger *slog.Logger,
	validator *validator.Validator,
) AttemptService {
	return &attemptService{
		repo:           repo,
		analysis:       analysis,
		eventPublisher: eventPublisher,
		logger:         logger,
		validator:      validator,
	}
}

// ===== LIFECYCLE =====

// Start opens an attempt, or resumes the student's in-progress one for the
// same assessment. Questions are served without the answer key.
func (s *attemptService) Start(ctx context.Context, req *StartAttemptRequest) (*AttemptResponse, error) {
	s.logger.Info("Starting attempt",
		"assessment_id", req.AssessmentID,
		"student_id", req.StudentID)

	if err := s.validator.Validate(req); err != nil {
		return nil, fmt.Errorf("validation failed: %w", err)
	}

	assessment, err := s.repo.Assessment().GetByID(ctx, nil, req.AssessmentID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrAssessmentNotFound
		}
		return nil, fmt.Errorf("failed to get assessment: %w", err)
	}

	if !assessment.OwnedBy(req.StudentID) {
		return nil, NewPermissionError(req.StudentID, req.AssessmentID, "assessment", "attempt",
			"student is not allowed to attempt this assessment")
	}

	existing, err := s.repo.Attempt().GetActiveAttempt(ctx, nil, req.StudentID, req.AssessmentID)
	if err == nil {
		s.logger.Info("Resuming in-progress attempt",
			"attempt_id", existing.ID,
			"student_id", req.StudentID)
		return &AttemptResponse{
			Attempt:  existing,
			Resumed:  true,
			Sections: sectionViews(assessment.Sections),
		}, nil
	}
	if !repositories.IsNotFoundError(err) {
		return nil, fmt.Errorf("failed to check active attempt: %w", err)
	}

	attempt := &models.Attempt{
		AssessmentID: req.AssessmentID,
		StudentID:    req.StudentID,
		Status:       models.AttemptInProgress,
		Answers:      []models.AttemptAnswer{},
		StartedAt:    time.Now().UTC(),
	}
	if err := s.repo.Attempt().Create(ctx, nil, attempt); err != nil {
		return nil, fmt.Errorf("failed to create attempt: %w", err)
	}

	s.logger.Info("Attempt started",
		"attempt_id", attempt.ID,
		"assessment_id", req.AssessmentID,
		"student_id", req.StudentID)

	return &AttemptResponse{
		Attempt:  attempt,
		Resumed:  false,
		Sections: sectionViews(assessment.Sections),
	}, nil
}

// SubmitAnswer grades one answer on write. Re-answering a question replaces
// the earlier row.
func (s *attemptService) SubmitAnswer(ctx context.Context, attemptID uint, studentID string, req *SubmitAnswerRequest) error {
	if err := s.validator.Validate(req); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	attempt, err := s.repo.Attempt().GetByIDWithAssessment(ctx, nil, attemptID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return ErrAttemptNotFound
		}
		return fmt.Errorf("failed to get attempt: %w", err)
	}

	if attempt.StudentID != studentID {
		return NewPermissionError(studentID, attemptID, "attempt", "answer",
			"attempt belongs to a different student")
	}
	if attempt.Status != models.AttemptInProgress {
		return ErrAttemptNotActive
	}

	question, ok := attempt.Assessment.FindQuestion(req.QuestionID)
	if !ok {
		return NewValidationError("question_id", "question does not belong to this assessment", req.QuestionID)
	}

	answer := models.AttemptAnswer{
		QuestionID:     req.QuestionID,
		SelectedAnswer: req.SelectedAnswer,
	}
	if req.SelectedAnswer == question.CorrectAnswer {
		answer.IsCorrect = true
		answer.MarksObtained = question.Marks
	}

	if existing, ok := attempt.AnswerFor(req.QuestionID); ok {
		*existing = answer
	} else {
		attempt.Answers = append(attempt.Answers, answer)
	}

	if err := s.repo.Attempt().Update(ctx, nil, attempt); err != nil {
		return fmt.Errorf("failed to save answer: %w", err)
	}
	return nil
}

// Submit finalizes the attempt, totals the pre-graded answers and fans out
// to the practice or analysis pipeline depending on the assessment type.
// The fan-out is best-effort: the submitted attempt stands even when a
// downstream step fails.
func (s *attemptService) Submit(ctx context.Context, attemptID uint, studentID string, req *SubmitAttemptRequest) (*models.Attempt, error) {
	s.logger.Info("Submitting attempt", "attempt_id", attemptID, "student_id", studentID)

	if err := s.validator.Validate(req); err != nil {
		return nil, fmt.Errorf("validation failed: %w", err)
	}

	attempt, err := s.repo.Attempt().GetByIDWithAssessment(ctx, nil, attemptID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrAttemptNotFound
		}
		return nil, fmt.Errorf("failed to get attempt: %w", err)
	}

	if attempt.StudentID != studentID {
		return nil, NewPermissionError(studentID, attemptID, "attempt", "submit",
			"attempt belongs to a different student")
	}
	if attempt.Status == models.AttemptSubmitted {
		return nil, ErrAttemptAlreadySubmitted
	}

	totalScore := 0
	for _, answer := range attempt.Answers {
		totalScore += answer.MarksObtained
	}
	attempt.TotalScore = totalScore
	attempt.Percentage = 0
	if attempt.Assessment.TotalMarks > 0 {
		attempt.Percentage = float64(totalScore) / float64(attempt.Assessment.TotalMarks) * 100
	}

	now := time.Now().UTC()
	attempt.Status = models.AttemptSubmitted
	attempt.SubmittedAt = &now
	attempt.TimeTaken = req.TimeTaken

	if err := s.repo.Attempt().Update(ctx, nil, attempt); err != nil {
		return nil, fmt.Errorf("failed to submit attempt: %w", err)
	}

	s.publishEvent(ctx, events.EventAttemptSubmitted, events.AttemptSubmittedEvent{
		AttemptID:      attempt.ID,
		AssessmentID:   attempt.AssessmentID,
		StudentID:      attempt.StudentID,
		CompanyName:    attempt.Assessment.CompanyName,
		AssessmentType: attempt.Assessment.AssessmentType,
		TotalScore:     attempt.TotalScore,
		Percentage:     attempt.Percentage,
		SubmittedAt:    now,
	})

	s.fanOut(ctx, attempt)

	s.logger.Info("Attempt submitted",
		"attempt_id", attempt.ID,
		"student_id", studentID,
		"total_score", attempt.TotalScore,
		"percentage", attempt.Percentage)

	return attempt, nil
}

// fanOut routes the submitted attempt into the learning loop. Practice
// attempts fold into the practice state; resume attempts are analyzed
// immediately since no separate grading step follows them.
func (s *attemptService) fanOut(ctx context.Context, attempt *models.Attempt) {
	assessment := &attempt.Assessment

	switch {
	case assessment.IsSystemGenerated && assessment.AssessmentType == models.TypePractice:
		if _, err := s.analysis.RecordPracticeResult(ctx, attempt.ID); err != nil {
			s.logger.Error("Failed to record practice result",
				"attempt_id", attempt.ID, "error", err)
		}
		s.completeOnLearningPath(ctx, attempt.StudentID, assessment.CompanyName, assessment.ID)

	case assessment.AssessmentType == models.TypeResume:
		if _, err := s.analysis.AnalyzeAttempt(ctx, attempt.ID); err != nil {
			s.logger.Error("Failed to auto-analyze resume attempt",
				"attempt_id", attempt.ID, "error", err)
		}
	}
}

func (s *attemptService) completeOnLearningPath(ctx context.Context, studentID, company string, assessmentID uint) {
	path, err := s.repo.LearningPath().GetByStudentAndCompany(ctx, nil, studentID, company)
	if err != nil {
		s.logger.Warn("No learning path found for completed practice assessment",
			"student_id", studentID, "company", company, "error", err)
		return
	}
	path.MarkAssessmentCompleted(assessmentID)
	if err := s.repo.LearningPath().Update(ctx, nil, path); err != nil {
		s.logger.Error("Failed to mark assessment completed on learning path",
			"student_id", studentID, "assessment_id", assessmentID, "error", err)
	}
}

// ===== READS =====

func (s *attemptService) GetByID(ctx context.Context, id uint, studentID string) (*models.Attempt, error) {
	attempt, err := s.repo.Attempt().GetByIDWithAssessment(ctx, nil, id)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrAttemptNotFound
		}
		return nil, fmt.Errorf("failed to get attempt: %w", err)
	}
	if attempt.StudentID != studentID {
		return nil, NewPermissionError(studentID, id, "attempt", "read",
			"attempt belongs to a different student")
	}
	return attempt, nil
}

func (s *attemptService) GetByStudent(ctx context.Context, studentID string, filters repositories.AttemptFilters) ([]*models.Attempt, int64, error) {
	filters.StudentID = &studentID
	attempts, total, err := s.repo.Attempt().List(ctx, nil, filters)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list attempts: %w", err)
	}
	return attempts, total, nil
}

// sectionViews strips correct answers before questions leave the service.
func sectionViews(sections []models.Section) []SectionView {
	views := make([]SectionView, 0, len(sections))
	for _, section := range sections {
		view := SectionView{
			SectionName: section.SectionName,
			Topic:       section.Topic,
			Subtopic:    section.Subtopic,
			Difficulty:  section.Difficulty,
			Questions:   make([]QuestionView, 0, len(section.Questions)),
		}
		for _, q := range section.Questions {
			view.Questions = append(view.Questions, QuestionView{
				ID:         q.ID,
				Text:       q.Text,
				Options:    q.Options,
				Difficulty: q.Difficulty,
				Marks:      q.Marks,
			})
		}
		views = append(views, view)
	}
	return views
}

func (s *attemptService) publishEvent(ctx context.Context, eventType string, data interface{}) {
	if s.eventPublisher == nil {
		return
	}
	if err := s.eventPublisher.Publish(ctx, eventType, data); err != nil {
		s.logger.Error("Failed to publish event", "event_type", eventType, "error", err)
	}
}

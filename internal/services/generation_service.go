package services

import (
	"context"
	"fmt"
	"log/slog"
	"math"

	"github.com/placement-prep/learning-service/internal/config"
	"github.com/placement-prep/learning-service/internal/events"
	"github.com/placement-prep/learning-service/internal/models"
	"github.com/placement-prep/learning-service/internal/questions"
	"github.com/placement-prep/learning-service/internal/repositories"
	"github.com/placement-prep/learning-service/internal/validator"
)

// resumeCompany routes question shortfalls to the generation service instead
// of the bank.
const resumeCompany = "Resume-Based"

type generationService struct {
	repo           repositories.Repository
	source         questions.Source
	generator      questions.Generator
	eventPublisher events.EventPublisher
	logger         *slog.Logger
	validator      *validator.Validator
	thresholds     config.Thresholds
	generation     config.Generation
}

func NewGenerationService(
	repo repositories.Repository,
	source questions.Source,
	generator questions.Generator,
	eventPublisher events.EventPublisher,
	logger *slog.Logger,
	validator *validator.Validator,
	thresholds config.Thresholds,
	generation config.Generation,
) GenerationService {
	return &generationService{
		repo:           repo,
		source:         source,
		generator:      generator,
		eventPublisher: eventPublisher,
		logger:         logger,
		validator:      validator,
		thresholds:     thresholds,
		generation:     generation,
	}
}

// topicGroup keeps the sections of one topic in first-seen order.
type topicGroup struct {
	topic    string
	sections []models.SectionResult
}

// ===== TARGETED GENERATION =====

func (s *generationService) GenerateTargetedAssessment(ctx context.Context, req *GenerateAssessmentRequest) (*models.Assessment, error) {
	s.logger.Info("Generating targeted assessment",
		"student_id", req.StudentID,
		"company", req.CompanyName,
		"topic", req.Topic)

	if err := s.validator.Validate(req); err != nil {
		return nil, fmt.Errorf("validation failed: %w", err)
	}

	state, err := s.repo.PracticeState().GetByStudentAndCompany(ctx, nil, req.StudentID, req.CompanyName)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrAnalysisNotFound
		}
		return nil, fmt.Errorf("failed to get practice state: %w", err)
	}
	if state.IsQualified() {
		return nil, ErrAlreadyQualified
	}

	analysis, err := s.repo.Analysis().GetByID(ctx, nil, state.LatestAnalysisID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrAnalysisNotFound
		}
		return nil, fmt.Errorf("failed to get analysis: %w", err)
	}

	targets := analysis.WeakOrAverageSections()
	if len(targets) == 0 {
		return nil, ErrNoWeakAreas
	}

	group := pickTopicGroup(targets, req.Topic)
	if group == nil {
		return nil, ErrNoWeakAreas
	}

	selected := s.collectQuestions(ctx, state, group, true)
	if len(selected) < s.generation.MinQuestions {
		// One relaxed pass: repeats allowed, and the generation service
		// fills the remainder for resume-derived companies.
		s.logger.Warn("Too few fresh questions, relaxing exclusion filter",
			"student_id", req.StudentID,
			"topic", group.topic,
			"collected", len(selected))
		selected = mergeUnique(selected, s.collectQuestions(ctx, state, group, false))

		if req.CompanyName == resumeCompany && len(selected) < s.generation.MinQuestions {
			selected = mergeUnique(selected, s.generateExtra(ctx, state, group, s.generation.MinQuestions-len(selected)))
		}
	}

	if len(selected) > s.generation.MaxQuestions {
		selected = selected[:s.generation.MaxQuestions]
	}
	if len(selected) == 0 {
		return nil, ErrNoQuestionsAvailable
	}

	assessment := s.buildAssessment(req.StudentID, analysis, state, group, selected)
	if err := s.repo.Assessment().Create(ctx, nil, assessment); err != nil {
		return nil, fmt.Errorf("failed to create assessment: %w", err)
	}

	// Record served ids and close the generation window. Runs after the
	// assessment write; a crash in between risks future repeats.
	for _, q := range selected {
		if !state.HasAttemptedQuestion(q.ID) {
			state.AttemptedQuestionIDs = append(state.AttemptedQuestionIDs, q.ID)
		}
	}
	state.AssessmentsGenerated = true
	state.GeneratedAssessmentIDs = append(state.GeneratedAssessmentIDs, assessment.ID)
	if err := s.repo.PracticeState().Update(ctx, nil, state); err != nil {
		return nil, fmt.Errorf("failed to update practice state: %w", err)
	}

	s.attachToLearningPath(ctx, req.StudentID, req.CompanyName, assessment.ID)

	s.publishEvent(ctx, events.EventAssessmentGenerated, events.AssessmentGeneratedEvent{
		AssessmentID:  assessment.ID,
		StudentID:     req.StudentID,
		CompanyName:   req.CompanyName,
		Topic:         group.topic,
		QuestionCount: len(selected),
		Difficulty:    state.CurrentDifficulty,
		GeneratedAt:   assessment.CreatedAt,
	})

	s.logger.Info("Targeted assessment generated",
		"assessment_id", assessment.ID,
		"student_id", req.StudentID,
		"topic", group.topic,
		"question_count", len(selected))

	return assessment, nil
}

// pickTopicGroup groups sections by topic and selects the requested topic,
// or the group with the lowest average percentage. Ties keep the first-seen
// group.
func pickTopicGroup(sections []models.SectionResult, topic string) *topicGroup {
	groups := make([]*topicGroup, 0)
	index := make(map[string]*topicGroup)
	for _, section := range sections {
		g, ok := index[section.Topic]
		if !ok {
			g = &topicGroup{topic: section.Topic}
			index[section.Topic] = g
			groups = append(groups, g)
		}
		g.sections = append(g.sections, section)
	}

	if topic != "" {
		return index[topic]
	}

	var best *topicGroup
	bestAvg := 0.0
	for _, g := range groups {
		sum := 0
		for _, sec := range g.sections {
			sum += sec.Percentage
		}
		avg := float64(sum) / float64(len(g.sections))
		if best == nil || avg < bestAvg {
			best = g
			bestAvg = avg
		}
	}
	return best
}

// collectQuestions pulls up to QuestionsPerWeakArea candidates per section of
// the target group. With excludeAttempted set, previously served questions
// are filtered out.
func (s *generationService) collectQuestions(ctx context.Context, state *models.PracticeState, group *topicGroup, excludeAttempted bool) []models.Question {
	collected := make([]models.Question, 0, s.generation.MaxQuestions)

	for _, section := range group.sections {
		difficulty := state.CurrentDifficulty
		if !difficulty.IsValid() {
			difficulty = section.Difficulty
		}

		pool, err := s.source.Fetch(ctx, state.CompanyName, section.Topic, section.Subtopic, difficulty)
		if err != nil {
			s.logger.Warn("Question fetch failed for section",
				"topic", section.Topic,
				"subtopic", section.Subtopic,
				"error", err)
			continue
		}

		taken := 0
		for _, q := range pool {
			if taken >= s.generation.QuestionsPerWeakArea {
				break
			}
			if excludeAttempted && state.HasAttemptedQuestion(q.ID) {
				continue
			}
			collected = append(collected, q)
			taken++
		}
	}

	return collected
}

// generateExtra asks the external generation service for additional
// questions. Failures degrade to zero questions; generation never aborts on
// this path.
func (s *generationService) generateExtra(ctx context.Context, state *models.PracticeState, group *topicGroup, count int) []models.Question {
	if s.generator == nil || count <= 0 {
		return nil
	}
	generated, err := s.generator.Generate(ctx, group.topic, count, state.CurrentDifficulty)
	if err != nil {
		s.logger.Error("Question generation service failed, continuing without extras",
			"topic", group.topic,
			"count", count,
			"error", err)
		return nil
	}
	return generated
}

func (s *generationService) buildAssessment(studentID string, analysis *models.ExamAnalysis, state *models.PracticeState, group *topicGroup, selected []models.Question) *models.Assessment {
	subtopic := group.sections[0].Subtopic
	title := fmt.Sprintf("%s - %s #%d", group.topic, subtopic, len(state.GeneratedAssessmentIDs)+1)

	for i := range selected {
		if selected[i].Marks == 0 {
			selected[i].Marks = 1
		}
	}

	sourceID := analysis.AssessmentID
	return &models.Assessment{
		Title:             title,
		CompanyName:       state.CompanyName,
		AssessmentType:    models.TypePractice,
		Duration:          len(selected) * s.generation.MinutesPerQuestion,
		TotalMarks:        len(selected),
		IsSystemGenerated: true,
		AssignedStudent:   &studentID,
		AllowedStudents:   []string{studentID},
		Sections: []models.Section{{
			SectionName: "Targeted Practice",
			Topic:       group.topic,
			Subtopic:    subtopic,
			Difficulty:  state.CurrentDifficulty,
			Questions:   selected,
		}},
		SourceAssessmentID: &sourceID,
	}
}

// attachToLearningPath pushes the new assessment onto the path's active list.
// Best-effort: a failure is logged and the generated assessment still stands.
func (s *generationService) attachToLearningPath(ctx context.Context, studentID, company string, assessmentID uint) {
	path, err := s.repo.LearningPath().GetByStudentAndCompany(ctx, nil, studentID, company)
	if err != nil {
		s.logger.Error("Failed to load learning path for generated assessment",
			"student_id", studentID, "company", company, "error", err)
		return
	}
	path.ActiveAssessments = append(path.ActiveAssessments, assessmentID)
	path.RetakeEligible = false
	if err := s.repo.LearningPath().Update(ctx, nil, path); err != nil {
		s.logger.Error("Failed to attach assessment to learning path",
			"student_id", studentID, "assessment_id", assessmentID, "error", err)
	}
}

// mergeUnique appends extras whose id is not already present.
func mergeUnique(base, extras []models.Question) []models.Question {
	seen := make(map[string]bool, len(base))
	for _, q := range base {
		seen[q.ID] = true
	}
	for _, q := range extras {
		if !seen[q.ID] {
			seen[q.ID] = true
			base = append(base, q)
		}
	}
	return base
}

// ===== RECOMMENDATIONS =====

func (s *generationService) GetRecommendedAssessments(ctx context.Context, studentID string) ([]Recommendation, error) {
	states, err := s.repo.PracticeState().ListActiveByStudent(ctx, nil, studentID)
	if err != nil {
		return nil, fmt.Errorf("failed to list practice states: %w", err)
	}

	recommendations := make([]Recommendation, 0)
	for _, state := range states {
		analysis, err := s.repo.Analysis().GetByID(ctx, nil, state.LatestAnalysisID)
		if err != nil {
			if repositories.IsNotFoundError(err) {
				continue
			}
			return nil, fmt.Errorf("failed to get analysis: %w", err)
		}

		targets := analysis.WeakOrAverageSections()
		if len(targets) == 0 {
			continue
		}

		outstanding, activeID := s.outstandingAssessment(ctx, state)

		byTopic := make(map[string]*Recommendation)
		order := make([]string, 0)
		for _, section := range targets {
			rec, ok := byTopic[section.Topic]
			if !ok {
				rec = &Recommendation{
					CompanyName:         state.CompanyName,
					Topic:               section.Topic,
					Difficulty:          state.CurrentDifficulty,
					HasActiveAssessment: outstanding,
					ActiveAssessmentID:  activeID,
				}
				byTopic[section.Topic] = rec
				order = append(order, section.Topic)
			}
			rec.Subtopics = append(rec.Subtopics, section.Subtopic)
			rec.WeakAreasCount++
			rec.AveragePercentage += section.Percentage
		}

		for _, topic := range order {
			rec := byTopic[topic]
			rec.AveragePercentage = int(math.Round(float64(rec.AveragePercentage) / float64(rec.WeakAreasCount)))

			if ts, err := s.repo.TopicPracticeState().GetByKey(ctx, nil, studentID, state.CompanyName, topic); err == nil {
				rec.LastPracticeScore = ts.LastPracticeScore
				rec.Improvement = ts.ImprovementPct
				rec.Difficulty = ts.Difficulty
			}

			recommendations = append(recommendations, *rec)
		}
	}

	return recommendations, nil
}

// outstandingAssessment reports whether the most recently generated
// assessment is still waiting for a submitted attempt.
func (s *generationService) outstandingAssessment(ctx context.Context, state *models.PracticeState) (bool, *uint) {
	if len(state.GeneratedAssessmentIDs) == 0 {
		return false, nil
	}
	lastID := state.GeneratedAssessmentIDs[len(state.GeneratedAssessmentIDs)-1]

	submitted, err := s.repo.Attempt().HasSubmittedAttempt(ctx, nil, lastID)
	if err != nil {
		s.logger.Warn("Failed to check attempts for generated assessment",
			"assessment_id", lastID, "error", err)
		return false, nil
	}
	if submitted {
		return false, nil
	}
	return true, &lastID
}

// ===== GENERATED ASSESSMENT LISTING =====

func (s *generationService) GetTargetedAssessments(ctx context.Context, studentID string) ([]TargetedAssessmentGroup, error) {
	assessments, err := s.repo.Assessment().GetGeneratedForStudent(ctx, nil, studentID)
	if err != nil {
		return nil, fmt.Errorf("failed to get generated assessments: %w", err)
	}
	if len(assessments) == 0 {
		return []TargetedAssessmentGroup{}, nil
	}

	ids := make([]uint, 0, len(assessments))
	for _, a := range assessments {
		ids = append(ids, a.ID)
	}
	attempts, err := s.repo.Attempt().GetSubmittedByAssessments(ctx, nil, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to get submitted attempts: %w", err)
	}

	scoresByAssessment := make(map[uint][]float64)
	for _, attempt := range attempts {
		scoresByAssessment[attempt.AssessmentID] = append(scoresByAssessment[attempt.AssessmentID], attempt.Percentage)
	}

	groupKey := func(a *models.Assessment) uint {
		if a.SourceAssessmentID != nil {
			return *a.SourceAssessmentID
		}
		return 0
	}

	grouped := make(map[uint]*TargetedAssessmentGroup)
	order := make([]uint, 0)
	for _, a := range assessments {
		key := groupKey(a)
		group, ok := grouped[key]
		if !ok {
			group = &TargetedAssessmentGroup{
				SourceAssessmentID: a.SourceAssessmentID,
				CompanyName:        a.CompanyName,
			}
			grouped[key] = group
			order = append(order, key)
		}

		scores := scoresByAssessment[a.ID]
		view := TargetedAssessmentView{
			AssessmentID:  a.ID,
			Title:         a.Title,
			Topic:         practiceTopic(a),
			QuestionCount: a.QuestionCount(),
			Duration:      a.Duration,
			Attempted:     len(scores) > 0,
			CreatedAt:     a.CreatedAt,
		}
		if len(scores) > 0 {
			sum := 0.0
			for _, p := range scores {
				sum += p
			}
			view.AverageScore = math.Round(sum/float64(len(scores))*10) / 10
		}
		group.Assessments = append(group.Assessments, view)
	}

	result := make([]TargetedAssessmentGroup, 0, len(order))
	for _, key := range order {
		result = append(result, *grouped[key])
	}
	return result, nil
}

func (s *generationService) publishEvent(ctx context.Context, eventType string, data interface{}) {
	if s.eventPublisher == nil {
		return
	}
	if err := s.eventPublisher.Publish(ctx, eventType, data); err != nil {
		s.logger.Error("Failed to publish event", "event_type", eventType, "error", err)
	}
}

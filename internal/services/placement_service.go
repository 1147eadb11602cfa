package services

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand"

	"github.com/placement-prep/learning-service/internal/config"
	"github.com/placement-prep/learning-service/internal/models"
	"github.com/placement-prep/learning-service/internal/questions"
	"github.com/placement-prep/learning-service/internal/repositories"
	"github.com/placement-prep/learning-service/internal/validator"
)

type placementService struct {
	repo       repositories.Repository
	source     questions.Source
	generator  questions.Generator
	logger     *slog.Logger
	validator  *validator.Validator
	thresholds config.Thresholds
}

func NewPlacementService(
	repo repositories.Repository,
	source questions.Source,
	generator questions.Generator,
	logger *slog.Logger,
	validator *validator.Validator,
	thresholds config.Thresholds,
) PlacementService {
	return &placementService{
		repo:       repo,
		source:     source,
		generator:  generator,
		logger:     logger,
		validator:  validator,
		thresholds: thresholds,
	}
}

// StartPlacementExam instantiates a placement exam from a stored format.
// Each section draws from the bank, preferring questions the student has not
// seen recently. A pool too small to honor that preference falls back to the
// full pool rather than shorting the section.
func (s *placementService) StartPlacementExam(ctx context.Context, req *StartPlacementExamRequest) (*models.Assessment, error) {
	s.logger.Info("Starting placement exam",
		"student_id", req.StudentID,
		"exam_format_id", req.ExamFormatID)

	if err := s.validator.Validate(req); err != nil {
		return nil, fmt.Errorf("validation failed: %w", err)
	}

	format, err := s.repo.ExamFormat().GetByID(ctx, nil, req.ExamFormatID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrExamFormatNotFound
		}
		return nil, fmt.Errorf("failed to get exam format: %w", err)
	}
	if !format.IsActive {
		return nil, ErrExamFormatNotFound
	}

	history, err := s.loadHistory(ctx, req.StudentID, format.CompanyName)
	if err != nil {
		return nil, err
	}

	sections := make([]models.Section, 0, len(format.Sections))
	servedIDs := make([]string, 0, format.TotalQuestions())
	for _, fs := range format.Sections {
		section, err := s.buildSection(ctx, format.CompanyName, fs, history)
		if err != nil {
			return nil, err
		}
		if len(section.Questions) == 0 {
			return nil, ErrNoQuestionsAvailable
		}
		for _, q := range section.Questions {
			servedIDs = append(servedIDs, q.ID)
		}
		sections = append(sections, section)
	}

	assessment := &models.Assessment{
		Title:           format.ExamName,
		CompanyName:     format.CompanyName,
		AssessmentType:  models.TypePlacement,
		Duration:        format.Duration,
		TotalMarks:      totalMarks(sections),
		AllowedStudents: []string{req.StudentID},
		Sections:        sections,
	}
	if err := s.repo.Assessment().Create(ctx, nil, assessment); err != nil {
		return nil, fmt.Errorf("failed to create placement exam: %w", err)
	}

	history.Append(servedIDs, s.thresholds.QuestionHistoryLimit)
	if err := s.repo.QuestionHistory().Update(ctx, nil, history); err != nil {
		// The exam already exists; a stale history only risks repeats next
		// time.
		s.logger.Error("Failed to update question history",
			"student_id", req.StudentID, "company", format.CompanyName, "error", err)
	}

	s.logger.Info("Placement exam created",
		"assessment_id", assessment.ID,
		"student_id", req.StudentID,
		"company", format.CompanyName,
		"question_count", assessment.QuestionCount())

	return assessment, nil
}

func (s *placementService) loadHistory(ctx context.Context, studentID, company string) (*models.QuestionHistory, error) {
	history, err := s.repo.QuestionHistory().GetByStudentAndCompany(ctx, nil, studentID, company)
	if err == nil {
		return history, nil
	}
	if !repositories.IsNotFoundError(err) {
		return nil, fmt.Errorf("failed to get question history: %w", err)
	}

	history = &models.QuestionHistory{
		StudentID:         studentID,
		CompanyName:       company,
		RecentQuestionIDs: []string{},
	}
	if err := s.repo.QuestionHistory().Create(ctx, nil, history); err != nil {
		return nil, fmt.Errorf("failed to create question history: %w", err)
	}
	return history, nil
}

func (s *placementService) buildSection(ctx context.Context, company string, fs models.FormatSection, history *models.QuestionHistory) (models.Section, error) {
	section := models.Section{
		SectionName: fs.SectionName,
		Topic:       fs.Topic,
		Subtopic:    fs.Subtopic,
		Difficulty:  fs.Difficulty,
	}

	pool, err := s.source.Fetch(ctx, company, fs.Topic, fs.Subtopic, fs.Difficulty)
	if err != nil {
		return section, fmt.Errorf("failed to fetch questions for %s/%s: %w", fs.Topic, fs.Subtopic, err)
	}

	if len(pool) == 0 && s.generator != nil {
		generated, genErr := s.generator.Generate(ctx, fs.Topic, fs.QuestionCount, fs.Difficulty)
		if genErr != nil {
			s.logger.Error("Question generation fallback failed",
				"topic", fs.Topic, "error", genErr)
		} else {
			pool = generated
		}
	}

	fresh := make([]models.Question, 0, len(pool))
	for _, q := range pool {
		if !history.Contains(q.ID) {
			fresh = append(fresh, q)
		}
	}
	if len(fresh) < fs.QuestionCount {
		fresh = pool
	}

	rand.Shuffle(len(fresh), func(i, j int) {
		fresh[i], fresh[j] = fresh[j], fresh[i]
	})
	if len(fresh) > fs.QuestionCount {
		fresh = fresh[:fs.QuestionCount]
	}

	for i := range fresh {
		if fresh[i].Marks == 0 {
			fresh[i].Marks = 1
		}
	}
	section.Questions = fresh
	return section, nil
}

func totalMarks(sections []models.Section) int {
	marks := 0
	for _, section := range sections {
		for _, q := range section.Questions {
			marks += q.Marks
		}
	}
	return marks
}

package services

import (
	"context"
	"time"

	"github.com/placement-prep/learning-service/internal/models"
	"github.com/placement-prep/learning-service/internal/repositories"
)

// ===== REQUEST/RESPONSE DTOs =====

type StartAttemptRequest = models.AttemptStartRequest
type SubmitAnswerRequest = models.SubmitAnswerRequest
type SubmitAttemptRequest = models.SubmitAttemptRequest
type GenerateAssessmentRequest = models.GenerateAssessmentRequest
type StartPlacementExamRequest = models.StartPlacementExamRequest

// QuestionView is a question as served to a student, without the answer key.
type QuestionView struct {
	ID         string            `json:"question_id"`
	Text       string            `json:"text"`
	Options    []string          `json:"options"`
	Difficulty models.Difficulty `json:"difficulty"`
	Marks      int               `json:"marks"`
}

type SectionView struct {
	SectionName string            `json:"section_name"`
	Topic       string            `json:"topic"`
	Subtopic    string            `json:"subtopic"`
	Difficulty  models.Difficulty `json:"difficulty"`
	Questions   []QuestionView    `json:"questions"`
}

type AttemptResponse struct {
	*models.Attempt
	Resumed  bool          `json:"resumed"`
	Sections []SectionView `json:"sections,omitempty"`
}

// PracticeFeedback summarizes the state of the practice loop after one
// practice attempt has been folded in.
type PracticeFeedback struct {
	AttemptID             uint              `json:"attempt_id"`
	Score                 int               `json:"score"`
	PracticeAttempts      int               `json:"practice_attempts"`
	CurrentDifficulty     models.Difficulty `json:"current_difficulty"`
	ImprovementPercentage int               `json:"improvement_percentage"`
	Qualified             bool              `json:"qualified"`
	Topic                 string            `json:"topic,omitempty"`
	TopicStatus           string            `json:"topic_status,omitempty"`
}

// Recommendation is one topic-level practice suggestion derived from a
// student's active analysis.
type Recommendation struct {
	CompanyName         string            `json:"company_name"`
	Topic               string            `json:"topic"`
	Subtopics           []string          `json:"subtopics"`
	WeakAreasCount      int               `json:"weak_areas_count"`
	AveragePercentage   int               `json:"average_percentage"`
	LastPracticeScore   int               `json:"last_practice_score"`
	Improvement         int               `json:"improvement"`
	Difficulty          models.Difficulty `json:"difficulty"`
	HasActiveAssessment bool              `json:"has_active_assessment"`
	ActiveAssessmentID  *uint             `json:"active_assessment_id,omitempty"`
}

// TargetedAssessmentView is one generated assessment with its attempt status.
type TargetedAssessmentView struct {
	AssessmentID  uint      `json:"assessment_id"`
	Title         string    `json:"title"`
	Topic         string    `json:"topic"`
	QuestionCount int       `json:"question_count"`
	Duration      int       `json:"duration"`
	Attempted     bool      `json:"attempted"`
	AverageScore  float64   `json:"average_score"`
	CreatedAt     time.Time `json:"created_at"`
}

type TargetedAssessmentGroup struct {
	SourceAssessmentID *uint                    `json:"source_assessment_id"`
	CompanyName        string                   `json:"company_name"`
	Assessments        []TargetedAssessmentView `json:"assessments"`
}

// TimelinePoint is one entry in a company's progress timeline. Attempt
// number 0 is the baseline exam.
type TimelinePoint struct {
	Score         int               `json:"score"`
	AttemptNumber int               `json:"attempt_number"`
	Difficulty    models.Difficulty `json:"difficulty,omitempty"`
	RecordedAt    *time.Time        `json:"recorded_at,omitempty"`
}

type CompanyProgress struct {
	CompanyName           string                     `json:"company_name"`
	QualificationStatus   models.QualificationStatus `json:"qualification_status"`
	CurrentDifficulty     models.Difficulty          `json:"current_difficulty"`
	PracticeAttempts      int                        `json:"practice_attempts"`
	BestPracticeScore     int                        `json:"best_practice_score"`
	ImprovementPercentage int                        `json:"improvement_percentage"`
	RetakeEligible        bool                       `json:"retake_eligible"`
	Timeline              []TimelinePoint            `json:"timeline"`
}

type ProgressStats struct {
	TotalActive    int     `json:"total_active"`
	TotalQualified int     `json:"total_qualified"`
	AvgImprovement float64 `json:"avg_improvement"`
}

type ProgressReport struct {
	StudentID string            `json:"student_id"`
	Stats     ProgressStats     `json:"stats"`
	Progress  []CompanyProgress `json:"progress"`
}

// ===== SERVICE INTERFACES =====

// AnalysisService runs the weak-area feedback loop over submitted attempts.
type AnalysisService interface {
	// AnalyzeAttempt scores a submitted placement/resume attempt, writes the
	// analysis snapshot, and updates the learning path and practice state.
	AnalyzeAttempt(ctx context.Context, attemptID uint) (*models.ExamAnalysis, error)

	// RecordPracticeResult folds a submitted system-generated practice
	// attempt back into the student's practice state.
	RecordPracticeResult(ctx context.Context, attemptID uint) (*PracticeFeedback, error)

	// Read helpers
	GetLatestAnalysis(ctx context.Context, studentID, company string) (*models.ExamAnalysis, error)
	ListAnalyses(ctx context.Context, studentID string, filters repositories.AnalysisFilters) ([]*models.ExamAnalysis, error)
}

// GenerationService assembles targeted practice assessments.
type GenerationService interface {
	GenerateTargetedAssessment(ctx context.Context, req *GenerateAssessmentRequest) (*models.Assessment, error)
	GetRecommendedAssessments(ctx context.Context, studentID string) ([]Recommendation, error)
	GetTargetedAssessments(ctx context.Context, studentID string) ([]TargetedAssessmentGroup, error)
}

// ProgressService is the read-side projection over analyses and paths.
type ProgressService interface {
	GetLearningProgress(ctx context.Context, studentID string) (*ProgressReport, error)
}

// AttemptService owns the attempt lifecycle.
type AttemptService interface {
	Start(ctx context.Context, req *StartAttemptRequest) (*AttemptResponse, error)
	SubmitAnswer(ctx context.Context, attemptID uint, studentID string, req *SubmitAnswerRequest) error
	Submit(ctx context.Context, attemptID uint, studentID string, req *SubmitAttemptRequest) (*models.Attempt, error)

	GetByID(ctx context.Context, id uint, studentID string) (*models.Attempt, error)
	GetByStudent(ctx context.Context, studentID string, filters repositories.AttemptFilters) ([]*models.Attempt, int64, error)
}

// PlacementService builds placement exam instances from stored formats.
type PlacementService interface {
	StartPlacementExam(ctx context.Context, req *StartPlacementExamRequest) (*models.Assessment, error)
}

// ExportService renders progress reports as xlsx workbooks.
type ExportService interface {
	ExportProgress(ctx context.Context, studentID string) ([]byte, string, error)
}

// ===== SERVICE MANAGER =====

type ServiceManager interface {
	Analysis() AnalysisService
	Generation() GenerationService
	Progress() ProgressService
	Attempt() AttemptService
	Placement() PlacementService
	Export() ExportService

	Initialize(ctx context.Context) error
	HealthCheck(ctx context.Context) error
	Shutdown(ctx context.Context) error
}

package repositories

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/placement-prep/learning-service/internal/models"
)

// ===== SHARED FILTER STRUCTS =====

type AttemptFilters struct {
	Status    *models.AttemptStatus `json:"status"`
	StudentID *string               `json:"student_id"`
	DateFrom  *time.Time            `json:"date_from"`
	DateTo    *time.Time            `json:"date_to"`
	Limit     int                   `json:"limit"`
	Offset    int                   `json:"offset"`
	SortBy    string                `json:"sort_by"`    // "created_at", "submitted_at", "percentage"
	SortOrder string                `json:"sort_order"` // "asc", "desc"
}

type AssessmentFilters struct {
	AssessmentType    *models.AssessmentType `json:"assessment_type"`
	CompanyName       *string                `json:"company_name"`
	IsSystemGenerated *bool                  `json:"is_system_generated"`
	Limit             int                    `json:"limit"`
	Offset            int                    `json:"offset"`
	SortBy            string                 `json:"sort_by"`
	SortOrder         string                 `json:"sort_order"`
}

type AnalysisFilters struct {
	CompanyName *string `json:"company_name"`
	Limit       int     `json:"limit"`
	Offset      int     `json:"offset"`
}

// ===== ENTITY REPOSITORIES =====

// AssessmentRepository persists assessments and their sectioned questions.
type AssessmentRepository interface {
	Create(ctx context.Context, tx *gorm.DB, assessment *models.Assessment) error
	GetByID(ctx context.Context, tx *gorm.DB, id uint) (*models.Assessment, error)
	GetByIDs(ctx context.Context, tx *gorm.DB, ids []uint) ([]*models.Assessment, error)
	Update(ctx context.Context, tx *gorm.DB, assessment *models.Assessment) error
	Delete(ctx context.Context, tx *gorm.DB, id uint) error

	// Query operations
	List(ctx context.Context, tx *gorm.DB, filters AssessmentFilters) ([]*models.Assessment, int64, error)
	GetByStudent(ctx context.Context, tx *gorm.DB, studentID string, filters AssessmentFilters) ([]*models.Assessment, error)
	GetGeneratedForStudent(ctx context.Context, tx *gorm.DB, studentID string) ([]*models.Assessment, error)
}

// AttemptRepository persists student attempts.
type AttemptRepository interface {
	Create(ctx context.Context, tx *gorm.DB, attempt *models.Attempt) error
	GetByID(ctx context.Context, tx *gorm.DB, id uint) (*models.Attempt, error)
	GetByIDWithAssessment(ctx context.Context, tx *gorm.DB, id uint) (*models.Attempt, error)
	Update(ctx context.Context, tx *gorm.DB, attempt *models.Attempt) error

	List(ctx context.Context, tx *gorm.DB, filters AttemptFilters) ([]*models.Attempt, int64, error)
	GetActiveAttempt(ctx context.Context, tx *gorm.DB, studentID string, assessmentID uint) (*models.Attempt, error)
	GetByStudentAndAssessment(ctx context.Context, tx *gorm.DB, studentID string, assessmentID uint) ([]*models.Attempt, error)
	HasSubmittedAttempt(ctx context.Context, tx *gorm.DB, assessmentID uint) (bool, error)
	GetSubmittedByAssessments(ctx context.Context, tx *gorm.DB, assessmentIDs []uint) ([]*models.Attempt, error)
}

// AnalysisRepository persists the write-once exam analysis snapshots.
type AnalysisRepository interface {
	Create(ctx context.Context, tx *gorm.DB, analysis *models.ExamAnalysis) error
	GetByID(ctx context.Context, tx *gorm.DB, id uint) (*models.ExamAnalysis, error)
	GetByAttempt(ctx context.Context, tx *gorm.DB, attemptID uint) (*models.ExamAnalysis, error)
	GetLatest(ctx context.Context, tx *gorm.DB, studentID, company string) (*models.ExamAnalysis, error)
	ListByStudent(ctx context.Context, tx *gorm.DB, studentID string, filters AnalysisFilters) ([]*models.ExamAnalysis, error)
}

// PracticeStateRepository persists the live per-(student, company) loop state.
type PracticeStateRepository interface {
	Create(ctx context.Context, tx *gorm.DB, state *models.PracticeState) error
	Update(ctx context.Context, tx *gorm.DB, state *models.PracticeState) error
	GetByStudentAndCompany(ctx context.Context, tx *gorm.DB, studentID, company string) (*models.PracticeState, error)
	ListByStudent(ctx context.Context, tx *gorm.DB, studentID string) ([]*models.PracticeState, error)
	ListActiveByStudent(ctx context.Context, tx *gorm.DB, studentID string) ([]*models.PracticeState, error)
}

// TopicPracticeStateRepository persists per-topic practice trajectories.
type TopicPracticeStateRepository interface {
	Create(ctx context.Context, tx *gorm.DB, state *models.TopicPracticeState) error
	Update(ctx context.Context, tx *gorm.DB, state *models.TopicPracticeState) error
	GetByKey(ctx context.Context, tx *gorm.DB, studentID, company, topic string) (*models.TopicPracticeState, error)
	ListByStudentAndCompany(ctx context.Context, tx *gorm.DB, studentID, company string) ([]*models.TopicPracticeState, error)
}

// LearningPathRepository persists per-(student, company) learning paths.
type LearningPathRepository interface {
	Create(ctx context.Context, tx *gorm.DB, path *models.LearningPath) error
	Update(ctx context.Context, tx *gorm.DB, path *models.LearningPath) error
	GetByStudentAndCompany(ctx context.Context, tx *gorm.DB, studentID, company string) (*models.LearningPath, error)
	ListByStudent(ctx context.Context, tx *gorm.DB, studentID string) ([]*models.LearningPath, error)
}

// QuestionHistoryRepository persists recently-served question id lists.
type QuestionHistoryRepository interface {
	Create(ctx context.Context, tx *gorm.DB, history *models.QuestionHistory) error
	Update(ctx context.Context, tx *gorm.DB, history *models.QuestionHistory) error
	GetByStudentAndCompany(ctx context.Context, tx *gorm.DB, studentID, company string) (*models.QuestionHistory, error)
}

// QuestionBankRepository reads the difficulty-bucketed question pools.
type QuestionBankRepository interface {
	Create(ctx context.Context, tx *gorm.DB, bank *models.QuestionBank) error
	Update(ctx context.Context, tx *gorm.DB, bank *models.QuestionBank) error
	GetByKey(ctx context.Context, tx *gorm.DB, company, topic, subtopic string) (*models.QuestionBank, error)
	ListByCompany(ctx context.Context, tx *gorm.DB, company string) ([]*models.QuestionBank, error)
}

// ExamFormatRepository reads the admin-defined placement exam templates.
type ExamFormatRepository interface {
	Create(ctx context.Context, tx *gorm.DB, format *models.ExamFormat) error
	GetByID(ctx context.Context, tx *gorm.DB, id uint) (*models.ExamFormat, error)
	ListActiveByCompany(ctx context.Context, tx *gorm.DB, company string) ([]*models.ExamFormat, error)
}

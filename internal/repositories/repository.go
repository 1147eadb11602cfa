package repositories

import (
	"context"
	"errors"

	"gorm.io/gorm"
)

// Repository aggregates every entity repository behind one handle.
type Repository interface {
	// Assessment domain
	Assessment() AssessmentRepository
	Attempt() AttemptRepository

	// Analysis domain
	Analysis() AnalysisRepository
	PracticeState() PracticeStateRepository
	TopicPracticeState() TopicPracticeStateRepository
	LearningPath() LearningPathRepository

	// Question domain
	QuestionHistory() QuestionHistoryRepository
	QuestionBank() QuestionBankRepository
	ExamFormat() ExamFormatRepository

	// Transaction support
	WithTransaction(ctx context.Context, fn func(Repository) error) error

	// Health check
	Ping(ctx context.Context) error

	// Close connections
	Close() error
}

// RepositoryManager interface for managing repository lifecycle
type RepositoryManager interface {
	// Initialize repositories with database connections
	Initialize() error

	// Get repository instance
	GetRepository() Repository

	// Health check for all repositories
	HealthCheck(ctx context.Context) error

	// Graceful shutdown
	Shutdown(ctx context.Context) error
}

// IsNotFoundError reports whether err is a missing-row error from the store.
func IsNotFoundError(err error) bool {
	return errors.Is(err, gorm.ErrRecordNotFound)
}

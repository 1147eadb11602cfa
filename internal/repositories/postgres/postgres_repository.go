package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"github.com/placement-prep/learning-service/internal/cache"
	"github.com/placement-prep/learning-service/internal/repositories"
)

// PostgreSQLRepository implements the main Repository interface
type PostgreSQLRepository struct {
	db           *gorm.DB
	redisClient  *redis.Client
	cacheManager *cache.CacheManager

	// Repository instances
	assessment         repositories.AssessmentRepository
	attempt            repositories.AttemptRepository
	analysis           repositories.AnalysisRepository
	practiceState      repositories.PracticeStateRepository
	topicPracticeState repositories.TopicPracticeStateRepository
	learningPath       repositories.LearningPathRepository
	questionHistory    repositories.QuestionHistoryRepository
	questionBank       repositories.QuestionBankRepository
	examFormat         repositories.ExamFormatRepository
}

// RepositoryConfig holds configuration for repository initialization
type RepositoryConfig struct {
	DB          *gorm.DB
	RedisClient *redis.Client
}

// NewPostgreSQLRepository creates a new repository manager with all sub-repositories
func NewPostgreSQLRepository(config RepositoryConfig) repositories.Repository {
	cacheManager := cache.NewCacheManager(config.RedisClient)

	repo := &PostgreSQLRepository{
		db:           config.DB,
		redisClient:  config.RedisClient,
		cacheManager: cacheManager,
	}

	repo.assessment = NewAssessmentPostgreSQL(config.DB, config.RedisClient)
	repo.attempt = NewAttemptPostgreSQL(config.DB, config.RedisClient)
	repo.analysis = NewAnalysisPostgreSQL(config.DB, config.RedisClient)
	repo.practiceState = NewPracticeStatePostgreSQL(config.DB, config.RedisClient)
	repo.topicPracticeState = NewTopicPracticeStatePostgreSQL(config.DB)
	repo.learningPath = NewLearningPathPostgreSQL(config.DB, config.RedisClient)
	repo.questionHistory = NewQuestionHistoryPostgreSQL(config.DB)
	repo.questionBank = NewQuestionBankRepository(config.DB, config.RedisClient)
	repo.examFormat = NewExamFormatRepository(config.DB)

	return repo
}

func (r *PostgreSQLRepository) Assessment() repositories.AssessmentRepository {
	return r.assessment
}

func (r *PostgreSQLRepository) Attempt() repositories.AttemptRepository {
	return r.attempt
}

func (r *PostgreSQLRepository) Analysis() repositories.AnalysisRepository {
	return r.analysis
}

func (r *PostgreSQLRepository) PracticeState() repositories.PracticeStateRepository {
	return r.practiceState
}

func (r *PostgreSQLRepository) TopicPracticeState() repositories.TopicPracticeStateRepository {
	return r.topicPracticeState
}

func (r *PostgreSQLRepository) LearningPath() repositories.LearningPathRepository {
	return r.learningPath
}

func (r *PostgreSQLRepository) QuestionHistory() repositories.QuestionHistoryRepository {
	return r.questionHistory
}

func (r *PostgreSQLRepository) QuestionBank() repositories.QuestionBankRepository {
	return r.questionBank
}

func (r *PostgreSQLRepository) ExamFormat() repositories.ExamFormatRepository {
	return r.examFormat
}

// WithTransaction executes a function within a database transaction
func (r *PostgreSQLRepository) WithTransaction(ctx context.Context, fn func(repositories.Repository) error) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// Create a new repository instance with the transaction
		txRepo := &PostgreSQLRepository{
			db:           tx,
			redisClient:  r.redisClient,
			cacheManager: r.cacheManager,
		}

		txRepo.assessment = NewAssessmentPostgreSQL(tx, r.redisClient)
		txRepo.attempt = NewAttemptPostgreSQL(tx, r.redisClient)
		txRepo.analysis = NewAnalysisPostgreSQL(tx, r.redisClient)
		txRepo.practiceState = NewPracticeStatePostgreSQL(tx, r.redisClient)
		txRepo.topicPracticeState = NewTopicPracticeStatePostgreSQL(tx)
		txRepo.learningPath = NewLearningPathPostgreSQL(tx, r.redisClient)
		txRepo.questionHistory = NewQuestionHistoryPostgreSQL(tx)
		txRepo.questionBank = NewQuestionBankRepository(tx, r.redisClient)
		txRepo.examFormat = NewExamFormatRepository(tx)

		return fn(txRepo)
	})
}

// Ping checks the health of database and cache connections
func (r *PostgreSQLRepository) Ping(ctx context.Context) error {
	sqlDB, err := r.db.DB()
	if err != nil {
		return fmt.Errorf("failed to get database instance: %w", err)
	}

	if err := sqlDB.PingContext(ctx); err != nil {
		return fmt.Errorf("database ping failed: %w", err)
	}

	if r.redisClient != nil {
		if err := r.cacheManager.HealthCheck(ctx); err != nil {
			return fmt.Errorf("cache ping failed: %w", err)
		}
	}

	return nil
}

// Close closes all connections
func (r *PostgreSQLRepository) Close() error {
	sqlDB, err := r.db.DB()
	if err != nil {
		return fmt.Errorf("failed to get database instance: %w", err)
	}

	if err := sqlDB.Close(); err != nil {
		return fmt.Errorf("failed to close database: %w", err)
	}

	if r.redisClient != nil {
		if err := r.redisClient.Close(); err != nil {
			return fmt.Errorf("failed to close Redis: %w", err)
		}
	}

	return nil
}

// RepositoryManager implements the RepositoryManager interface
type RepositoryManager struct {
	config RepositoryConfig
	repo   repositories.Repository
}

// NewRepositoryManager creates a new repository manager
func NewRepositoryManager(config RepositoryConfig) repositories.RepositoryManager {
	return &RepositoryManager{
		config: config,
	}
}

// Initialize initializes all repositories and connections
func (rm *RepositoryManager) Initialize() error {
	if rm.config.DB == nil {
		return fmt.Errorf("database connection is required")
	}

	sqlDB, err := rm.config.DB.DB()
	if err != nil {
		return fmt.Errorf("failed to get database instance: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := sqlDB.PingContext(ctx); err != nil {
		return fmt.Errorf("database connection failed: %w", err)
	}

	if rm.config.RedisClient != nil {
		if _, err := rm.config.RedisClient.Ping(ctx).Result(); err != nil {
			return fmt.Errorf("Redis connection failed: %w", err)
		}
	}

	rm.repo = NewPostgreSQLRepository(rm.config)

	return nil
}

// GetRepository returns the repository instance
func (rm *RepositoryManager) GetRepository() repositories.Repository {
	return rm.repo
}

// HealthCheck checks the health of all repository connections
func (rm *RepositoryManager) HealthCheck(ctx context.Context) error {
	if rm.repo == nil {
		return fmt.Errorf("repository not initialized")
	}

	return rm.repo.Ping(ctx)
}

// Shutdown gracefully shuts down all repository connections
func (rm *RepositoryManager) Shutdown(ctx context.Context) error {
	if rm.repo == nil {
		return nil
	}

	return rm.repo.Close()
}

package postgres

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"github.com/placement-prep/learning-service/internal/cache"
	"github.com/placement-prep/learning-service/internal/models"
	"github.com/placement-prep/learning-service/internal/repositories"
)

// ===== LEARNING PATH =====

type LearningPathPostgreSQL struct {
	db           *gorm.DB
	cacheManager *cache.CacheManager
}

func NewLearningPathPostgreSQL(db *gorm.DB, redisClient *redis.Client) repositories.LearningPathRepository {
	return &LearningPathPostgreSQL{
		db:           db,
		cacheManager: cache.NewCacheManager(redisClient),
	}
}

func (r *LearningPathPostgreSQL) getDB(tx *gorm.DB) *gorm.DB {
	if tx != nil {
		return tx
	}
	return r.db
}

func (r *LearningPathPostgreSQL) Create(ctx context.Context, tx *gorm.DB, path *models.LearningPath) error {
	db := r.getDB(tx)
	if err := db.WithContext(ctx).Create(path).Error; err != nil {
		return fmt.Errorf("failed to create learning path: %w", err)
	}
	cache.SafeInvalidatePattern(ctx, r.cacheManager.Progress, fmt.Sprintf("student:%s*", path.StudentID))
	return nil
}

func (r *LearningPathPostgreSQL) Update(ctx context.Context, tx *gorm.DB, path *models.LearningPath) error {
	db := r.getDB(tx)
	if err := db.WithContext(ctx).Save(path).Error; err != nil {
		return fmt.Errorf("failed to update learning path: %w", err)
	}
	cache.SafeInvalidatePattern(ctx, r.cacheManager.Progress, fmt.Sprintf("student:%s*", path.StudentID))
	return nil
}

func (r *LearningPathPostgreSQL) GetByStudentAndCompany(ctx context.Context, tx *gorm.DB, studentID, company string) (*models.LearningPath, error) {
	db := r.getDB(tx)
	var path models.LearningPath
	if err := db.WithContext(ctx).
		Where("student_id = ? AND company_name = ?", studentID, company).
		First(&path).Error; err != nil {
		return nil, err
	}
	return &path, nil
}

func (r *LearningPathPostgreSQL) ListByStudent(ctx context.Context, tx *gorm.DB, studentID string) ([]*models.LearningPath, error) {
	db := r.getDB(tx)
	var paths []*models.LearningPath
	if err := db.WithContext(ctx).
		Where("student_id = ?", studentID).
		Order("updated_at DESC").
		Find(&paths).Error; err != nil {
		return nil, fmt.Errorf("failed to list learning paths: %w", err)
	}
	return paths, nil
}

// ===== QUESTION HISTORY =====

type QuestionHistoryPostgreSQL struct {
	db *gorm.DB
}

func NewQuestionHistoryPostgreSQL(db *gorm.DB) repositories.QuestionHistoryRepository {
	return &QuestionHistoryPostgreSQL{db: db}
}

func (r *QuestionHistoryPostgreSQL) getDB(tx *gorm.DB) *gorm.DB {
	if tx != nil {
		return tx
	}
	return r.db
}

func (r *QuestionHistoryPostgreSQL) Create(ctx context.Context, tx *gorm.DB, history *models.QuestionHistory) error {
	db := r.getDB(tx)
	return db.WithContext(ctx).Create(history).Error
}

func (r *QuestionHistoryPostgreSQL) Update(ctx context.Context, tx *gorm.DB, history *models.QuestionHistory) error {
	db := r.getDB(tx)
	return db.WithContext(ctx).Save(history).Error
}

func (r *QuestionHistoryPostgreSQL) GetByStudentAndCompany(ctx context.Context, tx *gorm.DB, studentID, company string) (*models.QuestionHistory, error) {
	db := r.getDB(tx)
	var history models.QuestionHistory
	if err := db.WithContext(ctx).
		Where("student_id = ? AND company_name = ?", studentID, company).
		First(&history).Error; err != nil {
		return nil, err
	}
	return &history, nil
}

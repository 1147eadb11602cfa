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

// ===== QUESTION BANK =====

type questionBankRepository struct {
	db           *gorm.DB
	cacheManager *cache.CacheManager
}

func NewQuestionBankRepository(db *gorm.DB, redisClient *redis.Client) repositories.QuestionBankRepository {
	return &questionBankRepository{
		db:           db,
		cacheManager: cache.NewCacheManager(redisClient),
	}
}

func (r *questionBankRepository) getDB(tx *gorm.DB) *gorm.DB {
	if tx != nil {
		return tx
	}
	return r.db
}

func (r *questionBankRepository) Create(ctx context.Context, tx *gorm.DB, bank *models.QuestionBank) error {
	db := r.getDB(tx)
	if err := db.WithContext(ctx).Create(bank).Error; err != nil {
		return fmt.Errorf("failed to create question bank: %w", err)
	}
	return nil
}

func (r *questionBankRepository) Update(ctx context.Context, tx *gorm.DB, bank *models.QuestionBank) error {
	db := r.getDB(tx)
	if err := db.WithContext(ctx).Save(bank).Error; err != nil {
		return fmt.Errorf("failed to update question bank: %w", err)
	}
	cache.InvalidateQuestionBankCache(ctx, r.cacheManager, bank.CompanyName, bank.Topic, bank.Subtopic)
	return nil
}

func (r *questionBankRepository) GetByKey(ctx context.Context, tx *gorm.DB, company, topic, subtopic string) (*models.QuestionBank, error) {
	db := r.getDB(tx)
	cacheKey := fmt.Sprintf("bank:%s:%s:%s", company, topic, subtopic)
	var bank models.QuestionBank

	err := r.cacheManager.Question.CacheOrExecute(ctx, cacheKey, &bank, cache.QuestionCacheConfig.TTL, func() (interface{}, error) {
		var dbBank models.QuestionBank
		if err := db.WithContext(ctx).
			Where("company_name = ? AND topic = ? AND subtopic = ?", company, topic, subtopic).
			First(&dbBank).Error; err != nil {
			return nil, err
		}
		return &dbBank, nil
	})
	if err != nil {
		return nil, err
	}

	return &bank, nil
}

func (r *questionBankRepository) ListByCompany(ctx context.Context, tx *gorm.DB, company string) ([]*models.QuestionBank, error) {
	db := r.getDB(tx)
	var banks []*models.QuestionBank
	if err := db.WithContext(ctx).
		Where("company_name = ?", company).
		Order("topic ASC, subtopic ASC").
		Find(&banks).Error; err != nil {
		return nil, fmt.Errorf("failed to list question banks: %w", err)
	}
	return banks, nil
}

// ===== EXAM FORMAT =====

type examFormatRepository struct {
	db *gorm.DB
}

func NewExamFormatRepository(db *gorm.DB) repositories.ExamFormatRepository {
	return &examFormatRepository{db: db}
}

func (r *examFormatRepository) getDB(tx *gorm.DB) *gorm.DB {
	if tx != nil {
		return tx
	}
	return r.db
}

func (r *examFormatRepository) Create(ctx context.Context, tx *gorm.DB, format *models.ExamFormat) error {
	db := r.getDB(tx)
	if err := db.WithContext(ctx).Create(format).Error; err != nil {
		return fmt.Errorf("failed to create exam format: %w", err)
	}
	return nil
}

func (r *examFormatRepository) GetByID(ctx context.Context, tx *gorm.DB, id uint) (*models.ExamFormat, error) {
	db := r.getDB(tx)
	var format models.ExamFormat
	if err := db.WithContext(ctx).First(&format, id).Error; err != nil {
		return nil, err
	}
	return &format, nil
}

func (r *examFormatRepository) ListActiveByCompany(ctx context.Context, tx *gorm.DB, company string) ([]*models.ExamFormat, error) {
	db := r.getDB(tx)
	var formats []*models.ExamFormat
	if err := db.WithContext(ctx).
		Where("company_name = ? AND is_active = ?", company, true).
		Order("created_at DESC").
		Find(&formats).Error; err != nil {
		return nil, fmt.Errorf("failed to list exam formats: %w", err)
	}
	return formats, nil
}

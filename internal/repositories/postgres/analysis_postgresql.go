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

// ===== EXAM ANALYSIS =====

type AnalysisPostgreSQL struct {
	db           *gorm.DB
	cacheManager *cache.CacheManager
}

func NewAnalysisPostgreSQL(db *gorm.DB, redisClient *redis.Client) repositories.AnalysisRepository {
	return &AnalysisPostgreSQL{
		db:           db,
		cacheManager: cache.NewCacheManager(redisClient),
	}
}

func (r *AnalysisPostgreSQL) getDB(tx *gorm.DB) *gorm.DB {
	if tx != nil {
		return tx
	}
	return r.db
}

func (r *AnalysisPostgreSQL) Create(ctx context.Context, tx *gorm.DB, analysis *models.ExamAnalysis) error {
	db := r.getDB(tx)
	if err := db.WithContext(ctx).Create(analysis).Error; err != nil {
		return fmt.Errorf("failed to create analysis: %w", err)
	}
	cache.InvalidateAnalysisCache(ctx, r.cacheManager, analysis.StudentID, analysis.CompanyName)
	return nil
}

func (r *AnalysisPostgreSQL) GetByID(ctx context.Context, tx *gorm.DB, id uint) (*models.ExamAnalysis, error) {
	db := r.getDB(tx)
	// Snapshots are immutable, so caching by id is always safe
	cacheKey := fmt.Sprintf("id:%d", id)
	var analysis models.ExamAnalysis

	err := r.cacheManager.Analysis.CacheOrExecute(ctx, cacheKey, &analysis, cache.AnalysisCacheConfig.TTL, func() (interface{}, error) {
		var dbAnalysis models.ExamAnalysis
		if err := db.WithContext(ctx).First(&dbAnalysis, id).Error; err != nil {
			return nil, err
		}
		return &dbAnalysis, nil
	})
	if err != nil {
		return nil, err
	}

	return &analysis, nil
}

func (r *AnalysisPostgreSQL) GetByAttempt(ctx context.Context, tx *gorm.DB, attemptID uint) (*models.ExamAnalysis, error) {
	db := r.getDB(tx)
	var analysis models.ExamAnalysis
	if err := db.WithContext(ctx).
		Where("attempt_id = ?", attemptID).
		First(&analysis).Error; err != nil {
		return nil, err
	}
	return &analysis, nil
}

func (r *AnalysisPostgreSQL) GetLatest(ctx context.Context, tx *gorm.DB, studentID, company string) (*models.ExamAnalysis, error) {
	db := r.getDB(tx)
	cacheKey := fmt.Sprintf("latest:%s:%s", studentID, company)
	var analysis models.ExamAnalysis

	err := r.cacheManager.Analysis.CacheOrExecute(ctx, cacheKey, &analysis, cache.AnalysisCacheConfig.TTL, func() (interface{}, error) {
		var dbAnalysis models.ExamAnalysis
		if err := db.WithContext(ctx).
			Where("student_id = ? AND company_name = ?", studentID, company).
			Order("analyzed_at DESC").
			First(&dbAnalysis).Error; err != nil {
			return nil, err
		}
		return &dbAnalysis, nil
	})
	if err != nil {
		return nil, err
	}

	return &analysis, nil
}

func (r *AnalysisPostgreSQL) ListByStudent(ctx context.Context, tx *gorm.DB, studentID string, filters repositories.AnalysisFilters) ([]*models.ExamAnalysis, error) {
	db := r.getDB(tx)
	var analyses []*models.ExamAnalysis

	query := db.WithContext(ctx).Where("student_id = ?", studentID)
	if filters.CompanyName != nil {
		query = query.Where("company_name = ?", *filters.CompanyName)
	}
	query = query.Order("analyzed_at DESC")
	if filters.Limit > 0 {
		query = query.Limit(filters.Limit)
	}
	if filters.Offset > 0 {
		query = query.Offset(filters.Offset)
	}

	if err := query.Find(&analyses).Error; err != nil {
		return nil, fmt.Errorf("failed to list analyses: %w", err)
	}
	return analyses, nil
}

// ===== PRACTICE STATE =====

type PracticeStatePostgreSQL struct {
	db           *gorm.DB
	cacheManager *cache.CacheManager
}

func NewPracticeStatePostgreSQL(db *gorm.DB, redisClient *redis.Client) repositories.PracticeStateRepository {
	return &PracticeStatePostgreSQL{
		db:           db,
		cacheManager: cache.NewCacheManager(redisClient),
	}
}

func (r *PracticeStatePostgreSQL) getDB(tx *gorm.DB) *gorm.DB {
	if tx != nil {
		return tx
	}
	return r.db
}

func (r *PracticeStatePostgreSQL) Create(ctx context.Context, tx *gorm.DB, state *models.PracticeState) error {
	db := r.getDB(tx)
	if err := db.WithContext(ctx).Create(state).Error; err != nil {
		return fmt.Errorf("failed to create practice state: %w", err)
	}
	cache.InvalidateAnalysisCache(ctx, r.cacheManager, state.StudentID, state.CompanyName)
	return nil
}

func (r *PracticeStatePostgreSQL) Update(ctx context.Context, tx *gorm.DB, state *models.PracticeState) error {
	db := r.getDB(tx)
	if err := db.WithContext(ctx).Save(state).Error; err != nil {
		return fmt.Errorf("failed to update practice state: %w", err)
	}
	cache.InvalidateAnalysisCache(ctx, r.cacheManager, state.StudentID, state.CompanyName)
	return nil
}

func (r *PracticeStatePostgreSQL) GetByStudentAndCompany(ctx context.Context, tx *gorm.DB, studentID, company string) (*models.PracticeState, error) {
	db := r.getDB(tx)
	var state models.PracticeState
	if err := db.WithContext(ctx).
		Where("student_id = ? AND company_name = ?", studentID, company).
		First(&state).Error; err != nil {
		return nil, err
	}
	return &state, nil
}

func (r *PracticeStatePostgreSQL) ListByStudent(ctx context.Context, tx *gorm.DB, studentID string) ([]*models.PracticeState, error) {
	db := r.getDB(tx)
	var states []*models.PracticeState
	if err := db.WithContext(ctx).
		Where("student_id = ?", studentID).
		Order("updated_at DESC").
		Find(&states).Error; err != nil {
		return nil, fmt.Errorf("failed to list practice states: %w", err)
	}
	return states, nil
}

func (r *PracticeStatePostgreSQL) ListActiveByStudent(ctx context.Context, tx *gorm.DB, studentID string) ([]*models.PracticeState, error) {
	db := r.getDB(tx)
	var states []*models.PracticeState
	if err := db.WithContext(ctx).
		Where("student_id = ? AND qualification_status = ?", studentID, models.QualificationActive).
		Order("updated_at DESC").
		Find(&states).Error; err != nil {
		return nil, fmt.Errorf("failed to list active practice states: %w", err)
	}
	return states, nil
}

// ===== TOPIC PRACTICE STATE =====

type TopicPracticeStatePostgreSQL struct {
	db *gorm.DB
}

func NewTopicPracticeStatePostgreSQL(db *gorm.DB) repositories.TopicPracticeStateRepository {
	return &TopicPracticeStatePostgreSQL{db: db}
}

func (r *TopicPracticeStatePostgreSQL) getDB(tx *gorm.DB) *gorm.DB {
	if tx != nil {
		return tx
	}
	return r.db
}

func (r *TopicPracticeStatePostgreSQL) Create(ctx context.Context, tx *gorm.DB, state *models.TopicPracticeState) error {
	db := r.getDB(tx)
	return db.WithContext(ctx).Create(state).Error
}

func (r *TopicPracticeStatePostgreSQL) Update(ctx context.Context, tx *gorm.DB, state *models.TopicPracticeState) error {
	db := r.getDB(tx)
	return db.WithContext(ctx).Save(state).Error
}

func (r *TopicPracticeStatePostgreSQL) GetByKey(ctx context.Context, tx *gorm.DB, studentID, company, topic string) (*models.TopicPracticeState, error) {
	db := r.getDB(tx)
	var state models.TopicPracticeState
	if err := db.WithContext(ctx).
		Where("student_id = ? AND company_name = ? AND topic = ?", studentID, company, topic).
		First(&state).Error; err != nil {
		return nil, err
	}
	return &state, nil
}

func (r *TopicPracticeStatePostgreSQL) ListByStudentAndCompany(ctx context.Context, tx *gorm.DB, studentID, company string) ([]*models.TopicPracticeState, error) {
	db := r.getDB(tx)
	var states []*models.TopicPracticeState
	if err := db.WithContext(ctx).
		Where("student_id = ? AND company_name = ?", studentID, company).
		Order("topic ASC").
		Find(&states).Error; err != nil {
		return nil, fmt.Errorf("failed to list topic practice states: %w", err)
	}
	return states, nil
}

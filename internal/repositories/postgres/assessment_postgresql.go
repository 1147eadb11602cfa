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

type AssessmentPostgreSQL struct {
	db           *gorm.DB
	helpers      *SharedHelpers
	cacheManager *cache.CacheManager
}

func NewAssessmentPostgreSQL(db *gorm.DB, redisClient *redis.Client) repositories.AssessmentRepository {
	return &AssessmentPostgreSQL{
		db:           db,
		helpers:      NewSharedHelpers(db),
		cacheManager: cache.NewCacheManager(redisClient),
	}
}

// getDB returns the transaction DB if provided, otherwise returns the default DB
func (a *AssessmentPostgreSQL) getDB(tx *gorm.DB) *gorm.DB {
	if tx != nil {
		return tx
	}
	return a.db
}

func (a *AssessmentPostgreSQL) Create(ctx context.Context, tx *gorm.DB, assessment *models.Assessment) error {
	db := a.getDB(tx)
	if err := db.WithContext(ctx).Create(assessment).Error; err != nil {
		return fmt.Errorf("failed to create assessment: %w", err)
	}
	return nil
}

// GetByID retrieves an assessment by ID with caching
func (a *AssessmentPostgreSQL) GetByID(ctx context.Context, tx *gorm.DB, id uint) (*models.Assessment, error) {
	db := a.getDB(tx)
	cacheKey := fmt.Sprintf("id:%d", id)
	var assessment models.Assessment

	err := a.cacheManager.Fast.CacheOrExecute(ctx, cacheKey, &assessment, cache.FastCacheConfig.TTL, func() (interface{}, error) {
		var dbAssessment models.Assessment
		if err := db.WithContext(ctx).First(&dbAssessment, id).Error; err != nil {
			return nil, err
		}
		return &dbAssessment, nil
	})
	if err != nil {
		return nil, err
	}

	return &assessment, nil
}

func (a *AssessmentPostgreSQL) GetByIDs(ctx context.Context, tx *gorm.DB, ids []uint) ([]*models.Assessment, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	db := a.getDB(tx)
	var assessments []*models.Assessment
	if err := db.WithContext(ctx).Where("id IN ?", ids).Find(&assessments).Error; err != nil {
		return nil, fmt.Errorf("failed to get assessments by ids: %w", err)
	}
	return assessments, nil
}

func (a *AssessmentPostgreSQL) Update(ctx context.Context, tx *gorm.DB, assessment *models.Assessment) error {
	db := a.getDB(tx)
	if err := db.WithContext(ctx).Save(assessment).Error; err != nil {
		return fmt.Errorf("failed to update assessment: %w", err)
	}
	cache.SafeDelete(ctx, a.cacheManager.Fast, fmt.Sprintf("id:%d", assessment.ID))
	return nil
}

func (a *AssessmentPostgreSQL) Delete(ctx context.Context, tx *gorm.DB, id uint) error {
	db := a.getDB(tx)
	if err := db.WithContext(ctx).Delete(&models.Assessment{}, id).Error; err != nil {
		return fmt.Errorf("failed to delete assessment: %w", err)
	}
	cache.SafeDelete(ctx, a.cacheManager.Fast, fmt.Sprintf("id:%d", id))
	return nil
}

func (a *AssessmentPostgreSQL) List(ctx context.Context, tx *gorm.DB, filters repositories.AssessmentFilters) ([]*models.Assessment, int64, error) {
	db := a.getDB(tx)
	var assessments []*models.Assessment
	var total int64

	// apply filter first
	query := db.WithContext(ctx).Model(&models.Assessment{})
	query = a.helpers.ApplyAssessmentFilters(query, filters)

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	// then apply pagination and sorting
	query = a.helpers.ApplyPaginationAndSort(query, filters.SortBy, filters.SortOrder, filters.Limit, filters.Offset)

	if err := query.Find(&assessments).Error; err != nil {
		return nil, 0, err
	}

	return assessments, total, nil
}

// GetByStudent returns assessments the student owns, either via direct
// assignment or the allowed-students roster.
func (a *AssessmentPostgreSQL) GetByStudent(ctx context.Context, tx *gorm.DB, studentID string, filters repositories.AssessmentFilters) ([]*models.Assessment, error) {
	db := a.getDB(tx)
	var assessments []*models.Assessment

	query := db.WithContext(ctx).Model(&models.Assessment{}).
		Where("assigned_student = ? OR allowed_students @> ?", studentID, fmt.Sprintf(`["%s"]`, studentID))
	query = a.helpers.ApplyAssessmentFilters(query, filters)
	query = a.helpers.ApplyPaginationAndSort(query, filters.SortBy, filters.SortOrder, filters.Limit, filters.Offset)

	if err := query.Find(&assessments).Error; err != nil {
		return nil, fmt.Errorf("failed to get assessments by student: %w", err)
	}
	return assessments, nil
}

// GetGeneratedForStudent returns the machine-generated practice assessments
// assigned to one student, newest first.
func (a *AssessmentPostgreSQL) GetGeneratedForStudent(ctx context.Context, tx *gorm.DB, studentID string) ([]*models.Assessment, error) {
	db := a.getDB(tx)
	var assessments []*models.Assessment
	if err := db.WithContext(ctx).
		Where("assigned_student = ? AND is_system_generated = ?", studentID, true).
		Order("created_at DESC").
		Find(&assessments).Error; err != nil {
		return nil, fmt.Errorf("failed to get generated assessments: %w", err)
	}
	return assessments, nil
}

package pkg

import (
	"fmt"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/placement-prep/learning-service/internal/config"
	"github.com/placement-prep/learning-service/internal/models"
)

// InitDatabase opens the Postgres connection and runs migrations for every
// entity the service owns.
func InitDatabase(cfg *config.Config) (*gorm.DB, error) {
	logMode := logger.Warn
	if cfg.Environment == "development" {
		logMode = logger.Info
	}

	db, err := gorm.Open(postgres.Open(cfg.DatabaseURL), &gorm.Config{
		Logger: logger.Default.LogMode(logMode),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if err := db.AutoMigrate(
		&models.Assessment{},
		&models.Attempt{},
		&models.ExamAnalysis{},
		&models.PracticeState{},
		&models.TopicPracticeState{},
		&models.LearningPath{},
		&models.QuestionHistory{},
		&models.QuestionBank{},
		&models.ExamFormat{},
	); err != nil {
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return db, nil
}

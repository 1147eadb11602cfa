package services

import (
	"context"
	"fmt"
	"log/slog"
	"math"

	"github.com/placement-prep/learning-service/internal/cache"
	"github.com/placement-prep/learning-service/internal/models"
	"github.com/placement-prep/learning-service/internal/repositories"
)

type progressService struct {
	repo   repositories.Repository
	cache  *cache.CacheManager
	logger *slog.Logger
}

func NewProgressService(repo repositories.Repository, cacheManager *cache.CacheManager, logger *slog.Logger) ProgressService {
	return &progressService{
		repo:   repo,
		cache:  cacheManager,
		logger: logger,
	}
}

// GetLearningProgress projects the stored practice states and learning paths
// into a per-company report. Reads only, so repeated calls return the same
// report until new attempts land.
func (s *progressService) GetLearningProgress(ctx context.Context, studentID string) (*ProgressReport, error) {
	s.logger.Info("Building learning progress report", "student_id", studentID)

	if s.cache != nil {
		var cached ProgressReport
		key := fmt.Sprintf("student:%s", studentID)
		err := s.cache.Progress.CacheOrExecute(ctx, key, &cached, cache.ProgressCacheConfig.TTL, func() (interface{}, error) {
			return s.buildReport(ctx, studentID)
		})
		if err != nil {
			return nil, err
		}
		return &cached, nil
	}

	return s.buildReport(ctx, studentID)
}

func (s *progressService) buildReport(ctx context.Context, studentID string) (*ProgressReport, error) {
	states, err := s.repo.PracticeState().ListByStudent(ctx, nil, studentID)
	if err != nil {
		return nil, fmt.Errorf("failed to list practice states: %w", err)
	}

	paths, err := s.repo.LearningPath().ListByStudent(ctx, nil, studentID)
	if err != nil {
		return nil, fmt.Errorf("failed to list learning paths: %w", err)
	}
	pathByCompany := make(map[string]*models.LearningPath, len(paths))
	for _, path := range paths {
		pathByCompany[path.CompanyName] = path
	}

	report := &ProgressReport{
		StudentID: studentID,
		Progress:  make([]CompanyProgress, 0, len(states)),
	}

	improvementSum := 0.0
	for _, state := range states {
		progress := CompanyProgress{
			CompanyName:           state.CompanyName,
			QualificationStatus:   state.QualificationStatus,
			CurrentDifficulty:     state.CurrentDifficulty,
			PracticeAttempts:      state.PracticeAttempts,
			BestPracticeScore:     state.BestPracticeScore,
			ImprovementPercentage: state.ImprovementPercentage,
			Timeline:              buildTimeline(state, pathByCompany[state.CompanyName]),
		}
		if path, ok := pathByCompany[state.CompanyName]; ok {
			progress.RetakeEligible = path.RetakeEligible
		}

		report.Progress = append(report.Progress, progress)

		if state.IsQualified() {
			report.Stats.TotalQualified++
		} else {
			report.Stats.TotalActive++
		}
		improvementSum += float64(state.ImprovementPercentage)
	}

	if len(states) > 0 {
		report.Stats.AvgImprovement = math.Round(improvementSum/float64(len(states))*10) / 10
	}

	return report, nil
}

// buildTimeline prepends the baseline exam score at attempt zero, then
// replays the recorded practice scores in order.
func buildTimeline(state *models.PracticeState, path *models.LearningPath) []TimelinePoint {
	timeline := make([]TimelinePoint, 0, len(state.ScoreHistory)+1)

	if path != nil {
		baseline := path.Baseline.Data()
		timeline = append(timeline, TimelinePoint{
			Score:         baseline.Percentage,
			AttemptNumber: 0,
			Difficulty:    models.DifficultyEasy,
			RecordedAt:    nil,
		})
	}

	for _, entry := range state.ScoreHistory {
		recordedAt := entry.RecordedAt
		timeline = append(timeline, TimelinePoint{
			Score:         entry.Score,
			AttemptNumber: entry.AttemptNumber,
			Difficulty:    entry.Difficulty,
			RecordedAt:    &recordedAt,
		})
	}

	return timeline
}

package questions

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/placement-prep/learning-service/internal/models"
	"github.com/placement-prep/learning-service/internal/repositories"
)

// Source is the question lookup the generator and exam builder depend on.
type Source interface {
	Fetch(ctx context.Context, company, topic, subtopic string, difficulty models.Difficulty) ([]models.Question, error)
}

const defaultMaxPerFetch = 10

// BankSource serves questions out of the stored question bank rows. A
// missing bank row or empty difficulty bucket yields an empty pool, not an
// error; the callers decide whether an empty pool is fatal.
type BankSource struct {
	repo        repositories.QuestionBankRepository
	logger      *slog.Logger
	maxPerFetch int
}

func NewBankSource(repo repositories.QuestionBankRepository, logger *slog.Logger) *BankSource {
	return &BankSource{
		repo:        repo,
		logger:      logger,
		maxPerFetch: defaultMaxPerFetch,
	}
}

func (s *BankSource) Fetch(ctx context.Context, company, topic, subtopic string, difficulty models.Difficulty) ([]models.Question, error) {
	bank, err := s.repo.GetByKey(ctx, nil, company, topic, subtopic)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to load question bank for %s/%s/%s: %w", company, topic, subtopic, err)
	}

	pool := bank.QuestionsAt(difficulty)
	if len(pool) == 0 && difficulty != models.DifficultyMedium {
		// Legacy banks only filled the Medium bucket.
		pool = bank.QuestionsAt(models.DifficultyMedium)
	}
	if len(pool) == 0 {
		return nil, nil
	}
	if len(pool) > s.maxPerFetch {
		pool = pool[:s.maxPerFetch]
	}

	out := make([]models.Question, len(pool))
	copy(out, pool)
	EnsureIDs(out)
	for i := range out {
		if !out[i].Difficulty.IsValid() {
			out[i].Difficulty = difficulty
		}
		if out[i].Marks <= 0 {
			out[i].Marks = 1
		}
	}
	return out, nil
}

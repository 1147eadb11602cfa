package questions

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/placement-prep/learning-service/internal/models"
)

// Generator produces fresh questions when the bank pool runs dry. The HTTP
// client below talks to the interview service's LLM endpoint; callers treat
// failures as "zero questions" and keep going.
type Generator interface {
	Generate(ctx context.Context, topic string, count int, difficulty models.Difficulty) ([]models.Question, error)
}

type generatedResponse struct {
	Success   bool          `json:"success"`
	Questions []RawQuestion `json:"questions"`
	Message   string        `json:"message"`
}

type GeneratorClient struct {
	baseURL string
	client  *http.Client
	logger  *slog.Logger
}

func NewGeneratorClient(baseURL string, timeout time.Duration, logger *slog.Logger) *GeneratorClient {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &GeneratorClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{Timeout: timeout},
		logger:  logger,
	}
}

func (c *GeneratorClient) Generate(ctx context.Context, topic string, count int, difficulty models.Difficulty) ([]models.Question, error) {
	form := url.Values{}
	form.Set("topics", topic)
	form.Set("question_count", strconv.Itoa(count))
	form.Set("difficulty", string(difficulty))

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.baseURL+"/api/resume-assessment/generate-questions",
		strings.NewReader(form.Encode()))
	if err != nil {
		return nil, fmt.Errorf("failed to build question generation request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("question generation request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("question generation service returned status %d", resp.StatusCode)
	}

	var payload generatedResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("failed to decode question generation response: %w", err)
	}
	if !payload.Success {
		return nil, fmt.Errorf("question generation service rejected request: %s", payload.Message)
	}

	generated := NormalizeAll(payload.Questions, difficulty)
	for i := range generated {
		if strings.HasPrefix(generated[i].ID, "q-") || generated[i].ID == "" {
			generated[i].ID = "llm-" + uuid.NewString()
		}
		generated[i].Difficulty = difficulty
	}
	if len(generated) > count {
		generated = generated[:count]
	}

	c.logger.Info("generated questions via interview service",
		"topic", topic, "requested", count, "returned", len(generated))
	return generated, nil
}

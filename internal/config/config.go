package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Thresholds collects the score cutoffs the analysis and practice loops run
// on. Defaults match the values the product team signed off on; override via
// environment only for experiments.
type Thresholds struct {
	// Section classification on exam analysis.
	WeakBelow    int // percentage below this is weak
	AverageBelow int // percentage below this (and >= WeakBelow) is average

	// Overall qualification on a placement or resume exam.
	QualificationScore int

	// Learning path retake eligibility.
	MinImprovement int

	// Practice re-classification uses strict comparisons.
	PracticeStrongAbove  int
	PracticeAverageAbove int

	// Difficulty ratchet on practice scores.
	MasteryScore int // Easy -> Medium
	HardScore    int // Medium -> Hard

	// Qualification through continuous practice.
	MinPracticeAttempts  int
	PracticeQualifyScore int
	ScoreHistoryLimit    int
	QuestionHistoryLimit int
}

// Generation controls targeted assessment sizing.
type Generation struct {
	QuestionsPerWeakArea int
	MinQuestions         int
	MaxQuestions         int
	MinutesPerQuestion   int
}

type KafkaConfig struct {
	Brokers []string
	Topic   string
	Enabled bool
}

type Config struct {
	Port        string
	Environment string
	LogLevel    slog.Level

	DatabaseURL string
	RedisURL    string

	Kafka KafkaConfig

	// Base URL of the resume question generation service. Empty disables
	// LLM generation and resume assessments fall back to the bank alone.
	QuestionGeneratorURL     string
	QuestionGeneratorTimeout time.Duration

	Thresholds Thresholds
	Generation Generation
}

func LoadConfig() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		// .env is optional; environment variables take over.
		slog.Debug("No .env file loaded", "error", err)
	}

	cfg := &Config{
		Port:        getEnv("PORT", "8080"),
		Environment: getEnv("ENVIRONMENT", "development"),
		LogLevel:    parseLogLevel(getEnv("LOG_LEVEL", "info")),

		DatabaseURL: getEnv("DATABASE_URL", ""),
		RedisURL:    getEnv("REDIS_URL", ""),

		Kafka: KafkaConfig{
			Brokers: splitList(getEnv("KAFKA_BROKERS", "")),
			Topic:   getEnv("KAFKA_TOPIC", "learning-events"),
		},

		QuestionGeneratorURL:     getEnv("QUESTION_GENERATOR_URL", ""),
		QuestionGeneratorTimeout: getDurationEnv("QUESTION_GENERATOR_TIMEOUT", 10*time.Second),

		Thresholds: Thresholds{
			WeakBelow:            getIntEnv("THRESHOLD_WEAK_BELOW", 50),
			AverageBelow:         getIntEnv("THRESHOLD_AVERAGE_BELOW", 70),
			QualificationScore:   getIntEnv("THRESHOLD_QUALIFICATION", 60),
			MinImprovement:       getIntEnv("THRESHOLD_MIN_IMPROVEMENT", 15),
			PracticeStrongAbove:  getIntEnv("THRESHOLD_PRACTICE_STRONG_ABOVE", 70),
			PracticeAverageAbove: getIntEnv("THRESHOLD_PRACTICE_AVERAGE_ABOVE", 50),
			MasteryScore:         getIntEnv("THRESHOLD_MASTERY", 80),
			HardScore:            getIntEnv("THRESHOLD_HARD", 90),
			MinPracticeAttempts:  getIntEnv("THRESHOLD_MIN_PRACTICE_ATTEMPTS", 3),
			PracticeQualifyScore: getIntEnv("THRESHOLD_PRACTICE_QUALIFY", 80),
			ScoreHistoryLimit:    getIntEnv("SCORE_HISTORY_LIMIT", 200),
			QuestionHistoryLimit: getIntEnv("QUESTION_HISTORY_LIMIT", 200),
		},
		Generation: Generation{
			QuestionsPerWeakArea: getIntEnv("GEN_QUESTIONS_PER_WEAK_AREA", 5),
			MinQuestions:         getIntEnv("GEN_MIN_QUESTIONS", 5),
			MaxQuestions:         getIntEnv("GEN_MAX_QUESTIONS", 20),
			MinutesPerQuestion:   getIntEnv("GEN_MINUTES_PER_QUESTION", 2),
		},
	}

	cfg.Kafka.Enabled = len(cfg.Kafka.Brokers) > 0

	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is required")
	}

	return cfg, nil
}

func getEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

func getIntEnv(key string, defaultValue int) int {
	value, exists := os.LookupEnv(key)
	if !exists {
		return defaultValue
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		slog.Warn("Invalid integer environment variable, using default",
			"key", key, "value", value, "default", defaultValue)
		return defaultValue
	}
	return n
}

func getDurationEnv(key string, defaultValue time.Duration) time.Duration {
	value, exists := os.LookupEnv(key)
	if !exists {
		return defaultValue
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		slog.Warn("Invalid duration environment variable, using default",
			"key", key, "value", value, "default", defaultValue)
		return defaultValue
	}
	return d
}

func parseLogLevel(value string) slog.Level {
	switch strings.ToLower(value) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func splitList(value string) []string {
	if value == "" {
		return nil
	}
	parts := strings.Split(value, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

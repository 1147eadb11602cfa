package events

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/placement-prep/learning-service/internal/models"
)

const (
	eventSource  = "learning-service"
	eventVersion = "1.0"
)

// Event type names, one per state change the loop announces.
const (
	EventAttemptSubmitted      = "attempt.submitted"
	EventAnalysisCompleted     = "analysis.completed"
	EventAssessmentGenerated   = "assessment.generated"
	EventQualificationAchieved = "qualification.achieved"
)

// Event is the envelope every published message shares.
type Event struct {
	ID        string      `json:"id"`
	Type      string      `json:"type"`
	Source    string      `json:"source"`
	Version   string      `json:"version"`
	Timestamp time.Time   `json:"timestamp"`
	Data      interface{} `json:"data"`
}

// NewEvent builds an envelope for one payload.
func NewEvent(eventType string, data interface{}) Event {
	return Event{
		ID:        uuid.NewString(),
		Type:      eventType,
		Source:    eventSource,
		Version:   eventVersion,
		Timestamp: time.Now().UTC(),
		Data:      data,
	}
}

// EventPublisher delivers domain events. Publishing is best-effort: callers
// log failures and keep going.
type EventPublisher interface {
	Publish(ctx context.Context, eventType string, data interface{}) error
	Close() error
}

// ===== EVENT PAYLOADS =====

type AttemptSubmittedEvent struct {
	AttemptID      uint                  `json:"attempt_id"`
	AssessmentID   uint                  `json:"assessment_id"`
	StudentID      string                `json:"student_id"`
	CompanyName    string                `json:"company_name"`
	AssessmentType models.AssessmentType `json:"assessment_type"`
	TotalScore     int                   `json:"total_score"`
	Percentage     float64               `json:"percentage"`
	SubmittedAt    time.Time             `json:"submitted_at"`
}

type AnalysisCompletedEvent struct {
	AnalysisID        uint      `json:"analysis_id"`
	AttemptID         uint      `json:"attempt_id"`
	StudentID         string    `json:"student_id"`
	CompanyName       string    `json:"company_name"`
	OverallPercentage int       `json:"overall_percentage"`
	Qualified         bool      `json:"qualified"`
	WeakSectionCount  int       `json:"weak_section_count"`
	AnalyzedAt        time.Time `json:"analyzed_at"`
}

type AssessmentGeneratedEvent struct {
	AssessmentID  uint              `json:"assessment_id"`
	StudentID     string            `json:"student_id"`
	CompanyName   string            `json:"company_name"`
	Topic         string            `json:"topic"`
	QuestionCount int               `json:"question_count"`
	Difficulty    models.Difficulty `json:"difficulty"`
	GeneratedAt   time.Time         `json:"generated_at"`
}

type QualificationAchievedEvent struct {
	StudentID   string    `json:"student_id"`
	CompanyName string    `json:"company_name"`
	FinalScore  int       `json:"final_score"`
	AchievedAt  time.Time `json:"achieved_at"`
}

package models

import (
	"time"

	"gorm.io/datatypes"
)

type AttemptStatus string

const (
	AttemptInProgress AttemptStatus = "in_progress"
	AttemptSubmitted  AttemptStatus = "submitted"
)

// AttemptAnswer is one graded answer row inside an attempt. Grading happens
// on write: the answer is compared against the canonical question when it is
// recorded, not at read time.
type AttemptAnswer struct {
	QuestionID     string `json:"question_id"`
	SelectedAnswer string `json:"selected_answer"`
	IsCorrect      bool   `json:"is_correct"`
	MarksObtained  int    `json:"marks_obtained"`
}

type Attempt struct {
	ID           uint          `json:"id" gorm:"primaryKey"`
	AssessmentID uint          `json:"assessment_id" gorm:"not null;index"`
	StudentID    string        `json:"student_id" gorm:"not null;index;size:255"`
	Status       AttemptStatus `json:"status" gorm:"default:in_progress;index"`

	Answers datatypes.JSONSlice[AttemptAnswer] `json:"answers" gorm:"type:jsonb"`

	// Scoring, populated on submit
	TotalScore int     `json:"total_score"`
	Percentage float64 `json:"percentage"`

	// Timing
	StartedAt   time.Time  `json:"started_at"`
	SubmittedAt *time.Time `json:"submitted_at"`
	TimeTaken   int        `json:"time_taken"` // seconds

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// Relations
	Assessment Assessment `json:"assessment,omitempty" gorm:"foreignKey:AssessmentID"`
}

func (Attempt) TableName() string {
	return "attempts"
}

// AnswerFor returns the recorded answer for a question id, if any.
func (a *Attempt) AnswerFor(questionID string) (*AttemptAnswer, bool) {
	for i := range a.Answers {
		if a.Answers[i].QuestionID == questionID {
			return &a.Answers[i], true
		}
	}
	return nil, false
}

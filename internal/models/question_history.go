package models

import (
	"time"

	"gorm.io/datatypes"
)

// QuestionHistory keeps a rolling list of question ids recently served to a
// student for one company's exams, so freshly built placement exams avoid
// immediate repeats. Oldest ids are evicted first.
type QuestionHistory struct {
	ID          uint   `json:"id" gorm:"primaryKey"`
	StudentID   string `json:"student_id" gorm:"not null;size:255;uniqueIndex:idx_question_history_student_company"`
	CompanyName string `json:"company_name" gorm:"not null;size:200;uniqueIndex:idx_question_history_student_company"`

	RecentQuestionIDs datatypes.JSONSlice[string] `json:"recent_question_ids" gorm:"type:jsonb"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (QuestionHistory) TableName() string {
	return "question_histories"
}

// Append adds served question ids and trims from the front to keep at most
// max entries.
func (h *QuestionHistory) Append(questionIDs []string, max int) {
	h.RecentQuestionIDs = append(h.RecentQuestionIDs, questionIDs...)
	if max > 0 && len(h.RecentQuestionIDs) > max {
		h.RecentQuestionIDs = h.RecentQuestionIDs[len(h.RecentQuestionIDs)-max:]
	}
}

// Contains reports whether the question id was served recently.
func (h *QuestionHistory) Contains(questionID string) bool {
	for _, id := range h.RecentQuestionIDs {
		if id == questionID {
			return true
		}
	}
	return false
}

package models

import (
	"time"

	"gorm.io/datatypes"
)

// FormatSection describes one section of a placement exam template: which
// pool to draw from and how many questions to take.
type FormatSection struct {
	SectionName   string     `json:"section_name"`
	Topic         string     `json:"topic" validate:"required"`
	Subtopic      string     `json:"subtopic"`
	Difficulty    Difficulty `json:"difficulty" validate:"omitempty,oneof=Easy Medium Hard"`
	QuestionCount int        `json:"question_count" validate:"required,min=1"`
}

// ExamFormat is an admin-defined placement exam template for a company.
// Exam instances are built from it per student, drawing fresh questions from
// the bank.
type ExamFormat struct {
	ID          uint   `json:"id" gorm:"primaryKey"`
	CompanyName string `json:"company_name" gorm:"not null;size:200;index" validate:"required,max=200"`
	ExamName    string `json:"exam_name" gorm:"not null;size:200" validate:"required,max=200"`
	Duration    int    `json:"duration" gorm:"not null" validate:"required,min=1,max=300"` // minutes
	IsActive    bool   `json:"is_active" gorm:"default:true;index"`

	Sections datatypes.JSONSlice[FormatSection] `json:"sections" gorm:"type:jsonb" validate:"required,min=1,dive"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (ExamFormat) TableName() string {
	return "exam_formats"
}

func (f *ExamFormat) TotalQuestions() int {
	n := 0
	for _, s := range f.Sections {
		n += s.QuestionCount
	}
	return n
}

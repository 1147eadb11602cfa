package models

import (
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type AssessmentType string

const (
	TypeScheduled AssessmentType = "scheduled"
	TypePractice  AssessmentType = "practice"
	TypeRandom    AssessmentType = "random"
	TypePlacement AssessmentType = "placement"
	TypeTargeted  AssessmentType = "targeted"
	TypeResume    AssessmentType = "resume"
)

// AnalyzableTypes are the assessment types whose submitted attempts feed the
// weak-area analyzer.
func (t AssessmentType) Analyzable() bool {
	return t == TypePlacement || t == TypeResume
}

// SingleStudent reports whether the type uses assigned-student ownership
// (machine-generated, one owner) as opposed to an allowed-students roster.
func (t AssessmentType) SingleStudent() bool {
	switch t {
	case TypePractice, TypeRandom, TypeTargeted, TypeResume:
		return true
	default:
		return false
	}
}

type Assessment struct {
	ID             uint           `json:"id" gorm:"primaryKey"`
	Title          string         `json:"title" gorm:"not null;size:200;index" validate:"required,min=1,max=200"`
	CompanyName    string         `json:"company_name" gorm:"not null;size:200;index" validate:"required,max=200"`
	AssessmentType AssessmentType `json:"assessment_type" gorm:"not null;index" validate:"required,oneof=scheduled practice random placement targeted resume"`
	Duration       int            `json:"duration" gorm:"not null" validate:"required,min=1,max=300"` // minutes
	TotalMarks     int            `json:"total_marks" gorm:"not null" validate:"min=0"`

	IsSystemGenerated bool `json:"is_system_generated" gorm:"default:false;index"`

	// Ownership: exactly one mode per type. Single-student types set
	// AssignedStudent (AllowedStudents mirrors it with one entry);
	// roster types leave AssignedStudent nil.
	AssignedStudent *string                     `json:"assigned_student" gorm:"index;size:255"`
	AllowedStudents datatypes.JSONSlice[string] `json:"allowed_students" gorm:"type:jsonb"`

	Sections datatypes.JSONSlice[Section] `json:"sections" gorm:"type:jsonb"`

	// For targeted assessments, the placement/resume attempt's assessment
	// this practice round was generated from.
	SourceAssessmentID *uint `json:"source_assessment_id" gorm:"index"`

	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `json:"-" gorm:"index"`

	// Relations
	Attempts []Attempt `json:"attempts,omitempty" gorm:"foreignKey:AssessmentID"`
}

func (Assessment) TableName() string {
	return "assessments"
}

func (a *Assessment) QuestionCount() int {
	n := 0
	for _, s := range a.Sections {
		n += len(s.Questions)
	}
	return n
}

// FindQuestion returns the first question with the given id across all
// sections. Duplicate ids resolve to the first match.
func (a *Assessment) FindQuestion(questionID string) (*Question, bool) {
	for si := range a.Sections {
		for qi := range a.Sections[si].Questions {
			if a.Sections[si].Questions[qi].ID == questionID {
				return &a.Sections[si].Questions[qi], true
			}
		}
	}
	return nil, false
}

func (a *Assessment) OwnedBy(studentID string) bool {
	if a.AssignedStudent != nil && *a.AssignedStudent == studentID {
		return true
	}
	for _, s := range a.AllowedStudents {
		if s == studentID {
			return true
		}
	}
	return false
}

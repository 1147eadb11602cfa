package models

import (
	"time"

	"gorm.io/datatypes"
)

// ScoreSnapshot pins one attempt's result, used for baseline and best.
type ScoreSnapshot struct {
	AttemptID  uint      `json:"attempt_id"`
	Score      int       `json:"score"`
	Percentage int       `json:"percentage"`
	RecordedAt time.Time `json:"recorded_at"`
}

// ProgressEntry is one append-only row in a learning path's history.
type ProgressEntry struct {
	AttemptID           uint                `json:"attempt_id"`
	Percentage          int                 `json:"percentage"`
	QualificationStatus QualificationStatus `json:"qualification_status"`
	CycleNumber         int                 `json:"cycle_number"`
	RecordedAt          time.Time           `json:"recorded_at"`
}

// LearningPath is the running per-(student, company) record of baseline,
// best score, and improvement across successive placement cycles.
type LearningPath struct {
	ID          uint   `json:"id" gorm:"primaryKey"`
	StudentID   string `json:"student_id" gorm:"not null;size:255;uniqueIndex:idx_learning_path_student_company"`
	CompanyName string `json:"company_name" gorm:"not null;size:200;uniqueIndex:idx_learning_path_student_company"`

	Status       QualificationStatus `json:"status" gorm:"default:active;index"`
	CurrentCycle int                 `json:"current_cycle" gorm:"default:1"`

	Baseline datatypes.JSONType[ScoreSnapshot] `json:"baseline" gorm:"type:jsonb"`
	Best     datatypes.JSONType[ScoreSnapshot] `json:"best" gorm:"type:jsonb"`

	TotalImprovement      int        `json:"total_improvement"`
	QualificationAchieved bool       `json:"qualification_achieved" gorm:"default:false"`
	QualifiedAt           *time.Time `json:"qualified_at"`
	QualifyingAttemptID   *uint      `json:"qualifying_attempt_id"`
	RetakeEligible        bool       `json:"retake_eligible" gorm:"default:false"`

	ProgressHistory      datatypes.JSONSlice[ProgressEntry] `json:"progress_history" gorm:"type:jsonb"`
	ActiveAssessments    datatypes.JSONSlice[uint]          `json:"active_assessments" gorm:"type:jsonb"`
	CompletedAssessments datatypes.JSONSlice[uint]          `json:"completed_assessments" gorm:"type:jsonb"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (LearningPath) TableName() string {
	return "learning_paths"
}

// MarkAssessmentCompleted moves an assessment id from the active list to the
// completed list. Unknown ids only land in completed.
func (lp *LearningPath) MarkAssessmentCompleted(assessmentID uint) {
	active := make([]uint, 0, len(lp.ActiveAssessments))
	for _, id := range lp.ActiveAssessments {
		if id != assessmentID {
			active = append(active, id)
		}
	}
	lp.ActiveAssessments = active
	for _, id := range lp.CompletedAssessments {
		if id == assessmentID {
			return
		}
	}
	lp.CompletedAssessments = append(lp.CompletedAssessments, assessmentID)
}

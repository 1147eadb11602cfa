package models

import (
	"time"

	"gorm.io/datatypes"
)

type SectionStatus string

const (
	SectionWeak    SectionStatus = "weak"
	SectionAverage SectionStatus = "average"
	SectionStrong  SectionStatus = "strong"
)

type QualificationStatus string

const (
	QualificationActive    QualificationStatus = "active"
	QualificationQualified QualificationStatus = "qualified"
)

// SectionResult is the scored outcome for one assessment section.
type SectionResult struct {
	SectionName    string        `json:"section_name"`
	Topic          string        `json:"topic"`
	Subtopic       string        `json:"subtopic"`
	Difficulty     Difficulty    `json:"difficulty"`
	Score          int           `json:"score"`
	TotalQuestions int           `json:"total_questions"`
	Percentage     int           `json:"percentage"`
	Status         SectionStatus `json:"status"`
}

// ExamAnalysis is a write-once snapshot of one placement/resume attempt.
// Mutable follow-up state lives on PracticeState, never here.
type ExamAnalysis struct {
	ID           uint   `json:"id" gorm:"primaryKey"`
	StudentID    string `json:"student_id" gorm:"not null;index;size:255"`
	CompanyName  string `json:"company_name" gorm:"not null;index;size:200"`
	AttemptID    uint   `json:"attempt_id" gorm:"not null;index"`
	AssessmentID uint   `json:"assessment_id" gorm:"not null;index"`

	OverallScore      int  `json:"overall_score"`
	TotalQuestions    int  `json:"total_questions"`
	OverallPercentage int  `json:"overall_percentage"`
	Qualified         bool `json:"qualified"` // qualification outcome at analysis time

	Sections      datatypes.JSONSlice[SectionResult] `json:"sections" gorm:"type:jsonb"`
	WeakSections  datatypes.JSONSlice[string]        `json:"weak_sections" gorm:"type:jsonb"`
	AllWeakTopics datatypes.JSONSlice[string]        `json:"all_weak_topics" gorm:"type:jsonb"`

	CycleNumber int       `json:"cycle_number" gorm:"default:1"`
	AnalyzedAt  time.Time `json:"analyzed_at"`
	CreatedAt   time.Time `json:"created_at"`
}

func (ExamAnalysis) TableName() string {
	return "exam_analyses"
}

// WeakOrAverageSections returns the sections still worth targeting.
func (a *ExamAnalysis) WeakOrAverageSections() []SectionResult {
	out := make([]SectionResult, 0, len(a.Sections))
	for _, s := range a.Sections {
		if s.Status == SectionWeak || s.Status == SectionAverage {
			out = append(out, s)
		}
	}
	return out
}

// ScoreEntry is one practice result appended to a student's score history.
type ScoreEntry struct {
	Score         int        `json:"score"`
	Difficulty    Difficulty `json:"difficulty"`
	AttemptNumber int        `json:"attempt_number"`
	RecordedAt    time.Time  `json:"recorded_at"`
}

// PracticeState is the live per-(student, company) practice loop record.
// Qualification and difficulty only move forward.
type PracticeState struct {
	ID          uint   `json:"id" gorm:"primaryKey"`
	StudentID   string `json:"student_id" gorm:"not null;size:255;uniqueIndex:idx_practice_student_company"`
	CompanyName string `json:"company_name" gorm:"not null;size:200;uniqueIndex:idx_practice_student_company"`

	QualificationStatus QualificationStatus `json:"qualification_status" gorm:"default:active;index"`
	CurrentDifficulty   Difficulty          `json:"current_difficulty" gorm:"default:Easy"`

	PracticeAttempts      int        `json:"practice_attempts"`
	LastPracticeScore     int        `json:"last_practice_score"`
	LastPracticeAt        *time.Time `json:"last_practice_at"`
	BestPracticeScore     int        `json:"best_practice_score"`
	ImprovementPercentage int        `json:"improvement_percentage"`

	ScoreHistory         datatypes.JSONSlice[ScoreEntry] `json:"score_history" gorm:"type:jsonb"`
	AttemptedQuestionIDs datatypes.JSONSlice[string]     `json:"attempted_question_ids" gorm:"type:jsonb"`

	AssessmentsGenerated   bool                      `json:"assessments_generated" gorm:"default:false"`
	GeneratedAssessmentIDs datatypes.JSONSlice[uint] `json:"generated_assessment_ids" gorm:"type:jsonb"`

	// Most recent analysis snapshot for the pair, the generator's input.
	LatestAnalysisID uint `json:"latest_analysis_id" gorm:"index"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (PracticeState) TableName() string {
	return "practice_states"
}

func (p *PracticeState) IsQualified() bool {
	return p.QualificationStatus == QualificationQualified
}

// RaiseDifficulty moves the ratchet up to d if d ranks higher. It never
// moves backward.
func (p *PracticeState) RaiseDifficulty(d Difficulty) {
	if d.Rank() > p.CurrentDifficulty.Rank() {
		p.CurrentDifficulty = d
	}
}

// HasAttemptedQuestion reports whether the question id has been served to
// this student before.
func (p *PracticeState) HasAttemptedQuestion(questionID string) bool {
	for _, id := range p.AttemptedQuestionIDs {
		if id == questionID {
			return true
		}
	}
	return false
}

// TopicPracticeState tracks one topic's practice trajectory for a
// (student, company) pair, seeded from the analysis sections.
type TopicPracticeState struct {
	ID          uint   `json:"id" gorm:"primaryKey"`
	StudentID   string `json:"student_id" gorm:"not null;size:255;uniqueIndex:idx_topic_practice_key"`
	CompanyName string `json:"company_name" gorm:"not null;size:200;uniqueIndex:idx_topic_practice_key"`
	Topic       string `json:"topic" gorm:"not null;size:200;uniqueIndex:idx_topic_practice_key"`

	Subtopic           string        `json:"subtopic" gorm:"size:200"`
	Difficulty         Difficulty    `json:"difficulty" gorm:"default:Easy"`
	BaselinePercentage int           `json:"baseline_percentage"`
	LastPracticeScore  int           `json:"last_practice_score"`
	ImprovementPct     int           `json:"improvement_percentage"`
	Status             SectionStatus `json:"status" gorm:"default:weak"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (TopicPracticeState) TableName() string {
	return "topic_practice_states"
}

// RaiseDifficulty ratchets the topic difficulty upward only.
func (t *TopicPracticeState) RaiseDifficulty(d Difficulty) {
	if d.Rank() > t.Difficulty.Rank() {
		t.Difficulty = d
	}
}

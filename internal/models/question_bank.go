package models

import (
	"time"

	"gorm.io/datatypes"
)

// QuestionBank holds the question pool for one (company, topic, subtopic)
// key, bucketed by difficulty. This is the store the generator and placement
// exam builder draw from.
type QuestionBank struct {
	ID          uint   `json:"id" gorm:"primaryKey"`
	CompanyName string `json:"company_name" gorm:"not null;size:200;uniqueIndex:idx_question_bank_key"`
	Topic       string `json:"topic" gorm:"not null;size:200;uniqueIndex:idx_question_bank_key"`
	Subtopic    string `json:"subtopic" gorm:"size:200;uniqueIndex:idx_question_bank_key"`

	QuestionsByDifficulty datatypes.JSONType[map[Difficulty][]Question] `json:"questions_by_difficulty" gorm:"type:jsonb"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (QuestionBank) TableName() string {
	return "question_banks"
}

// QuestionsAt returns the pool at one difficulty. A missing bucket is an
// empty pool, not an error.
func (b *QuestionBank) QuestionsAt(d Difficulty) []Question {
	byDifficulty := b.QuestionsByDifficulty.Data()
	if byDifficulty == nil {
		return nil
	}
	return byDifficulty[d]
}

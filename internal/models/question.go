package models

type Difficulty string

const (
	DifficultyEasy   Difficulty = "Easy"
	DifficultyMedium Difficulty = "Medium"
	DifficultyHard   Difficulty = "Hard"
)

// Rank orders difficulties for the practice ratchet. Unknown values rank
// below Easy so they never win a monotonic comparison.
func (d Difficulty) Rank() int {
	switch d {
	case DifficultyEasy:
		return 1
	case DifficultyMedium:
		return 2
	case DifficultyHard:
		return 3
	default:
		return 0
	}
}

func (d Difficulty) IsValid() bool {
	return d == DifficultyEasy || d == DifficultyMedium || d == DifficultyHard
}

// Question is the single canonical question shape. Every ingestion boundary
// (question bank rows, generated questions, legacy assessment payloads)
// normalizes into this type before business logic sees it.
type Question struct {
	ID            string     `json:"question_id" validate:"required"`
	Text          string     `json:"text" validate:"required"`
	Options       []string   `json:"options" validate:"required,min=2"`
	CorrectAnswer string     `json:"correct_answer" validate:"required"`
	Difficulty    Difficulty `json:"difficulty" validate:"omitempty,oneof=Easy Medium Hard"`
	Marks         int        `json:"marks"`
}

// Section groups questions under a topic/subtopic at one difficulty.
type Section struct {
	SectionName string     `json:"section_name"`
	Topic       string     `json:"topic" validate:"required"`
	Subtopic    string     `json:"subtopic"`
	Difficulty  Difficulty `json:"difficulty" validate:"omitempty,oneof=Easy Medium Hard"`
	Questions   []Question `json:"questions"`
}

func (s Section) QuestionCount() int {
	return len(s.Questions)
}

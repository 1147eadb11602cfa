package questions

import (
	"encoding/base64"
	"fmt"
	"strings"

	"github.com/placement-prep/learning-service/internal/models"
)

// RawQuestion accepts every spelling found in stored payloads. Older
// documents use question_text/answer, newer ones text/correct_answer.
// Normalize folds them into the canonical models.Question.
type RawQuestion struct {
	QuestionID    string            `json:"question_id"`
	ID            string            `json:"id"`
	Text          string            `json:"text"`
	QuestionText  string            `json:"question_text"`
	Options       []string          `json:"options"`
	Answer        string            `json:"answer"`
	CorrectAnswer string            `json:"correct_answer"`
	Difficulty    models.Difficulty `json:"difficulty"`
	Marks         int               `json:"marks"`
}

// Normalize resolves field aliases and guarantees a stable non-empty id.
// Questions with no text are unusable and rejected.
func Normalize(raw RawQuestion, fallbackDifficulty models.Difficulty) (models.Question, error) {
	text := raw.Text
	if text == "" {
		text = raw.QuestionText
	}
	if text == "" {
		return models.Question{}, fmt.Errorf("question has no text")
	}

	answer := raw.CorrectAnswer
	if answer == "" {
		answer = raw.Answer
	}

	id := raw.QuestionID
	if id == "" {
		id = raw.ID
	}
	if id == "" {
		id = StableID(text)
	}

	difficulty := raw.Difficulty
	if !difficulty.IsValid() {
		difficulty = fallbackDifficulty
	}

	marks := raw.Marks
	if marks <= 0 {
		marks = 1
	}

	return models.Question{
		ID:            id,
		Text:          text,
		Options:       raw.Options,
		CorrectAnswer: answer,
		Difficulty:    difficulty,
		Marks:         marks,
	}, nil
}

// NormalizeAll normalizes a batch, dropping unusable entries.
func NormalizeAll(raws []RawQuestion, fallbackDifficulty models.Difficulty) []models.Question {
	out := make([]models.Question, 0, len(raws))
	for _, raw := range raws {
		q, err := Normalize(raw, fallbackDifficulty)
		if err != nil {
			continue
		}
		out = append(out, q)
	}
	return out
}

// StableID derives a deterministic id from question text so the same bank
// question always carries the same id across exam builds. The encoding keeps
// only alphanumerics of the base64 form of the text prefix.
func StableID(text string) string {
	prefix := text
	if len(prefix) > 50 {
		prefix = prefix[:50]
	}
	encoded := base64.StdEncoding.EncodeToString([]byte(prefix))
	var b strings.Builder
	for _, r := range encoded {
		if (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
		}
		if b.Len() >= 20 {
			break
		}
	}
	return "q-" + b.String()
}

// EnsureIDs fills missing ids on already-canonical questions.
func EnsureIDs(qs []models.Question) {
	for i := range qs {
		if qs[i].ID == "" {
			qs[i].ID = StableID(qs[i].Text)
		}
	}
}

package questions

import (
	"testing"

	"github.com/placement-prep/learning-service/internal/models"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		name string
		raw  RawQuestion
		want models.Question
	}{
		{
			name: "canonical fields pass through",
			raw: RawQuestion{
				QuestionID:    "q1",
				Text:          "What is a goroutine?",
				Options:       []string{"A", "B"},
				CorrectAnswer: "A",
				Difficulty:    models.DifficultyMedium,
				Marks:         2,
			},
			want: models.Question{
				ID:            "q1",
				Text:          "What is a goroutine?",
				Options:       []string{"A", "B"},
				CorrectAnswer: "A",
				Difficulty:    models.DifficultyMedium,
				Marks:         2,
			},
		},
		{
			name: "legacy aliases resolve",
			raw: RawQuestion{
				ID:           "legacy-7",
				QuestionText: "Pick one",
				Options:      []string{"A", "B"},
				Answer:       "B",
			},
			want: models.Question{
				ID:            "legacy-7",
				Text:          "Pick one",
				Options:       []string{"A", "B"},
				CorrectAnswer: "B",
				Difficulty:    models.DifficultyEasy,
				Marks:         1,
			},
		},
		{
			name: "canonical spelling wins over legacy",
			raw: RawQuestion{
				QuestionID:    "q2",
				ID:            "old",
				Text:          "new text",
				QuestionText:  "old text",
				CorrectAnswer: "A",
				Answer:        "B",
			},
			want: models.Question{
				ID:            "q2",
				Text:          "new text",
				CorrectAnswer: "A",
				Difficulty:    models.DifficultyEasy,
				Marks:         1,
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Normalize(tt.raw, models.DifficultyEasy)
			if err != nil {
				t.Fatalf("Normalize: %v", err)
			}
			if got.ID != tt.want.ID || got.Text != tt.want.Text ||
				got.CorrectAnswer != tt.want.CorrectAnswer ||
				got.Difficulty != tt.want.Difficulty || got.Marks != tt.want.Marks {
				t.Errorf("Normalize = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestNormalizeRejectsEmptyText(t *testing.T) {
	if _, err := Normalize(RawQuestion{QuestionID: "q1"}, models.DifficultyEasy); err == nil {
		t.Error("expected an error for a question with no text")
	}
}

func TestNormalizeDerivesStableID(t *testing.T) {
	raw := RawQuestion{Text: "What does CAP stand for?", Answer: "A"}

	first, err := Normalize(raw, models.DifficultyEasy)
	if err != nil {
		t.Fatalf("Normalize: %v", err)
	}
	second, err := Normalize(raw, models.DifficultyEasy)
	if err != nil {
		t.Fatalf("Normalize: %v", err)
	}

	if first.ID == "" || first.ID != second.ID {
		t.Errorf("derived ids %q and %q, want equal and non-empty", first.ID, second.ID)
	}

	other, err := Normalize(RawQuestion{Text: "A different question entirely", Answer: "A"}, models.DifficultyEasy)
	if err != nil {
		t.Fatalf("Normalize: %v", err)
	}
	if other.ID == first.ID {
		t.Errorf("different texts produced the same id %q", other.ID)
	}
}

func TestNormalizeAllDropsUnusable(t *testing.T) {
	out := NormalizeAll([]RawQuestion{
		{Text: "keep me", Answer: "A"},
		{Answer: "B"}, // no text
		{QuestionText: "keep me too", Answer: "C"},
	}, models.DifficultyEasy)

	if len(out) != 2 {
		t.Fatalf("kept %d questions, want 2", len(out))
	}
}

func TestStableID(t *testing.T) {
	id := StableID("Some question text")
	if id == StableID("Other question text") {
		t.Error("distinct texts should not collide")
	}
	if id != StableID("Some question text") {
		t.Error("same text must yield the same id")
	}
	if len(id) > 22 {
		t.Errorf("id %q exceeds the bounded length", id)
	}
}

func TestEnsureIDs(t *testing.T) {
	qs := []models.Question{
		{ID: "keep", Text: "a"},
		{Text: "needs an id"},
	}
	EnsureIDs(qs)

	if qs[0].ID != "keep" {
		t.Errorf("existing id overwritten: %q", qs[0].ID)
	}
	if qs[1].ID == "" {
		t.Error("missing id not filled")
	}
}

package services

import (
	"math"

	"github.com/placement-prep/learning-service/internal/config"
	"github.com/placement-prep/learning-service/internal/models"
)

// scoreSections grades every section of an assessment against the submitted
// answers. An answer matches only on exact string equality with the question's
// correct answer; questions with no submitted answer count as incorrect.
// Duplicate question ids are not de-duplicated: each occurrence is scored
// against the first submitted answer carrying that id.
func scoreSections(sections []models.Section, answers []models.AttemptAnswer, thresholds config.Thresholds) []models.SectionResult {
	selected := make(map[string]string, len(answers))
	for _, a := range answers {
		if _, seen := selected[a.QuestionID]; !seen {
			selected[a.QuestionID] = a.SelectedAnswer
		}
	}

	results := make([]models.SectionResult, 0, len(sections))
	for _, section := range sections {
		correct := 0
		for _, q := range section.Questions {
			answer, found := selected[q.ID]
			if found && answer == q.CorrectAnswer {
				correct++
			}
		}

		total := len(section.Questions)
		percentage := roundPercentage(correct, total)

		results = append(results, models.SectionResult{
			SectionName:    section.SectionName,
			Topic:          section.Topic,
			Subtopic:       section.Subtopic,
			Difficulty:     section.Difficulty,
			Score:          correct,
			TotalQuestions: total,
			Percentage:     percentage,
			Status:         classifySection(percentage, thresholds),
		})
	}

	return results
}

// roundPercentage computes round(correct/total*100), returning 0 for an
// empty section.
func roundPercentage(correct, total int) int {
	if total == 0 {
		return 0
	}
	return int(math.Round(float64(correct) / float64(total) * 100))
}

// classifySection applies the initial-analysis thresholds: below 50 weak,
// below 70 average, otherwise strong.
func classifySection(percentage int, t config.Thresholds) models.SectionStatus {
	switch {
	case percentage < t.WeakBelow:
		return models.SectionWeak
	case percentage < t.AverageBelow:
		return models.SectionAverage
	default:
		return models.SectionStrong
	}
}

// classifyPracticeScore applies the continuous-practice thresholds. These are
// strict comparisons, so exactly 70 classifies as average and exactly 50 as
// weak, unlike classifySection. Both call sites keep their historical
// boundary behavior.
func classifyPracticeScore(score int, t config.Thresholds) models.SectionStatus {
	switch {
	case score > t.PracticeStrongAbove:
		return models.SectionStrong
	case score > t.PracticeAverageAbove:
		return models.SectionAverage
	default:
		return models.SectionWeak
	}
}

// nextDifficulty computes the one-step ratchet for a practice score. The
// ratchet never moves backward and never skips a level.
func nextDifficulty(current models.Difficulty, score int, t config.Thresholds) models.Difficulty {
	switch current {
	case models.DifficultyEasy:
		if score >= t.MasteryScore {
			return models.DifficultyMedium
		}
	case models.DifficultyMedium:
		if score >= t.HardScore {
			return models.DifficultyHard
		}
	}
	return current
}

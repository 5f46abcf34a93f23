package grading

import (
	"math"
	"strings"

	"github.com/quizdeck/assessment-service/internal/models"
)

// Result is the outcome of evaluating one answer set against one question
// list. All fields are derived; nothing here touches storage.
type Result struct {
	CorrectCount          int `json:"correct_count"`
	EarnedPoints          int `json:"earned_points"`
	TotalPoints           int `json:"total_points"`
	RawScorePercentage    int `json:"raw_score_percentage"`
	Base50ScorePercentage int `json:"base50_score_percentage"`
}

// Evaluate scores an answer map against an ordered question list. Missing
// answers count as incorrect and never error. Evaluate is pure and
// deterministic: the recalculator calls it against historical answers with a
// question set that differs from the one originally presented.
func Evaluate(questions []models.Question, answers models.AnswerMap) Result {
	var res Result
	for i, q := range questions {
		points := q.Points
		if points < 1 {
			points = 1
		}
		res.TotalPoints += points

		answer, ok := answers[i]
		if !ok || answer == "" {
			continue
		}
		if IsCorrect(q, answer) {
			res.CorrectCount++
			res.EarnedPoints += points
		}
	}
	if res.EarnedPoints < 0 {
		res.EarnedPoints = 0
	}
	if res.TotalPoints > 0 {
		res.RawScorePercentage = int(math.Round(float64(res.EarnedPoints) / float64(res.TotalPoints) * 100))
	}
	res.Base50ScorePercentage = Transmute(res.RawScorePercentage)
	return res
}

// IsCorrect applies the per-type correctness rule:
// multiple_choice is an exact match against the marked-correct choice text,
// true_false is case-insensitive, identification is case-insensitive and
// whitespace-trimmed.
func IsCorrect(q models.Question, answer string) bool {
	switch q.Type {
	case models.MultipleChoice:
		correct := q.CorrectChoice()
		return correct != nil && answer == correct.Text
	case models.TrueFalse:
		return strings.EqualFold(answer, q.CorrectAnswer)
	case models.Identification:
		return strings.EqualFold(strings.TrimSpace(answer), strings.TrimSpace(q.CorrectAnswer))
	default:
		return false
	}
}

// Transmute maps a 0-100 raw percentage onto the base-50 grading scale.
// The formula is kept exactly as the grading policy defines it, with no
// clamp beyond what round(50 + raw/2) itself implies.
func Transmute(raw int) int {
	return int(math.Round(50 + float64(raw)/2))
}

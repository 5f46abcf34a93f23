package grading

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/quizdeck/assessment-service/internal/models"
)

func sampleQuestions() []models.Question {
	return []models.Question{
		{
			Type:     models.MultipleChoice,
			Question: "Which option is correct?",
			Points:   1,
			Choices: []models.Choice{
				{Text: "A", IsCorrect: false},
				{Text: "B", IsCorrect: true},
				{Text: "C", IsCorrect: false},
			},
		},
		{
			Type:          models.Identification,
			Question:      "Capital of France?",
			Points:        1,
			CorrectAnswer: "Paris",
		},
	}
}

func TestEvaluate(t *testing.T) {
	t.Run("all correct", func(t *testing.T) {
		result := Evaluate(sampleQuestions(), models.AnswerMap{0: "B", 1: "Paris"})

		assert.Equal(t, 2, result.CorrectCount)
		assert.Equal(t, 2, result.EarnedPoints)
		assert.Equal(t, 2, result.TotalPoints)
		assert.Equal(t, 100, result.RawScorePercentage)
		assert.Equal(t, 100, result.Base50ScorePercentage)
	})

	t.Run("half correct with case-insensitive identification", func(t *testing.T) {
		result := Evaluate(sampleQuestions(), models.AnswerMap{0: "A", 1: "paris"})

		assert.Equal(t, 1, result.CorrectCount)
		assert.Equal(t, 1, result.EarnedPoints)
		assert.Equal(t, 50, result.RawScorePercentage)
		assert.Equal(t, 75, result.Base50ScorePercentage)
	})

	t.Run("missing answers count as incorrect", func(t *testing.T) {
		result := Evaluate(sampleQuestions(), models.AnswerMap{})

		assert.Equal(t, 0, result.CorrectCount)
		assert.Equal(t, 2, result.TotalPoints)
		assert.Equal(t, 0, result.RawScorePercentage)
		assert.Equal(t, 50, result.Base50ScorePercentage)
	})

	t.Run("empty string answer is incorrect", func(t *testing.T) {
		result := Evaluate(sampleQuestions(), models.AnswerMap{0: "", 1: ""})
		assert.Equal(t, 0, result.CorrectCount)
	})

	t.Run("answers beyond the question list are ignored", func(t *testing.T) {
		result := Evaluate(sampleQuestions(), models.AnswerMap{0: "B", 5: "Paris"})
		assert.Equal(t, 1, result.CorrectCount)
	})

	t.Run("points below one count as one", func(t *testing.T) {
		questions := []models.Question{
			{Type: models.TrueFalse, Question: "Go is compiled", Points: 0, CorrectAnswer: "true"},
		}
		result := Evaluate(questions, models.AnswerMap{0: "TRUE"})

		assert.Equal(t, 1, result.TotalPoints)
		assert.Equal(t, 1, result.EarnedPoints)
		assert.Equal(t, 100, result.RawScorePercentage)
	})

	t.Run("weighted points", func(t *testing.T) {
		questions := []models.Question{
			{Type: models.TrueFalse, Question: "Q1", Points: 3, CorrectAnswer: "true"},
			{Type: models.TrueFalse, Question: "Q2", Points: 1, CorrectAnswer: "false"},
		}
		result := Evaluate(questions, models.AnswerMap{0: "true", 1: "true"})

		assert.Equal(t, 1, result.CorrectCount)
		assert.Equal(t, 3, result.EarnedPoints)
		assert.Equal(t, 4, result.TotalPoints)
		assert.Equal(t, 75, result.RawScorePercentage)
		assert.Equal(t, 88, result.Base50ScorePercentage)
	})

	t.Run("no questions yields zero scores", func(t *testing.T) {
		result := Evaluate(nil, models.AnswerMap{0: "B"})

		assert.Equal(t, 0, result.TotalPoints)
		assert.Equal(t, 0, result.RawScorePercentage)
		assert.Equal(t, 50, result.Base50ScorePercentage)
	})
}

func TestIsCorrect(t *testing.T) {
	t.Run("multiple choice requires exact text match", func(t *testing.T) {
		q := sampleQuestions()[0]
		assert.True(t, IsCorrect(q, "B"))
		assert.False(t, IsCorrect(q, "b"))
		assert.False(t, IsCorrect(q, "A"))
	})

	t.Run("multiple choice with no marked correct choice never matches", func(t *testing.T) {
		q := models.Question{
			Type:    models.MultipleChoice,
			Points:  1,
			Choices: []models.Choice{{Text: "A"}, {Text: "B"}},
		}
		assert.False(t, IsCorrect(q, "A"))
	})

	t.Run("true_false is case-insensitive", func(t *testing.T) {
		q := models.Question{Type: models.TrueFalse, Points: 1, CorrectAnswer: "true"}
		assert.True(t, IsCorrect(q, "True"))
		assert.True(t, IsCorrect(q, "TRUE"))
		assert.False(t, IsCorrect(q, "false"))
	})

	t.Run("identification trims whitespace", func(t *testing.T) {
		q := sampleQuestions()[1]
		assert.True(t, IsCorrect(q, "  paris "))
		assert.False(t, IsCorrect(q, "pari"))
	})
}

func TestTransmute(t *testing.T) {
	assert.Equal(t, 50, Transmute(0))
	assert.Equal(t, 75, Transmute(50))
	assert.Equal(t, 100, Transmute(100))
	assert.Equal(t, 67, Transmute(33))
	assert.Equal(t, 84, Transmute(67))
}

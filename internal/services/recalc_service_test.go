package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"gorm.io/datatypes"

	"github.com/quizdeck/assessment-service/internal/events"
	"github.com/quizdeck/assessment-service/internal/models"
)

func newRecalcFixture() (*mockRepository, *events.MockEventPublisher, RecalcService) {
	repo := newMockRepository()
	publisher := events.NewMockEventPublisher(testLogger())
	svc := NewRecalcService(repo, publisher, noopInvalidator{}, testLogger())
	return repo, publisher, svc
}

func twoQuestionQuiz() *models.Quiz {
	quiz := &models.Quiz{
		ID:        1,
		Title:     "Geography",
		TeacherID: "teacher-1",
		Questions: datatypes.NewJSONSlice([]models.Question{
			{
				Type: models.MultipleChoice, Question: "Pick B", Points: 1,
				Choices: []models.Choice{
					{Text: "A"}, {Text: "B", IsCorrect: true},
				},
			},
			{Type: models.Identification, Question: "Capital of France?", Points: 1, CorrectAnswer: "Paris"},
		}),
	}
	quiz.RecomputeDerived()
	return quiz
}

func TestRecalculateAfterEdit(t *testing.T) {
	ctx := context.Background()

	t.Run("regrades stored answers against the new question list", func(t *testing.T) {
		repo, publisher, svc := newRecalcFixture()

		// Answer was correct before the edit; the edited question now keys
		// on a different correct choice.
		quiz := twoQuestionQuiz()
		quiz.Questions[0].Choices = []models.Choice{
			{Text: "A", IsCorrect: true}, {Text: "B"},
		}
		submission := &models.Submission{
			ID: 10, AssignmentID: 7, QuizID: 1, AttemptNumber: 1,
			Answers:            datatypes.NewJSONType(models.AnswerMap{0: "B", 1: "Paris"}),
			RawScorePercentage: 100,
		}

		repo.quiz.On("GetByID", ctx, uint(1)).Return(quiz, nil)
		repo.submission.On("GetByQuiz", ctx, uint(1)).Return([]*models.Submission{submission}, nil)
		repo.submission.On("UpdateScores", ctx, submission).Return(nil)
		repo.assignment.On("UpdateScoreMirror", ctx, uint(7), 1, 50, 75).Return(nil)

		swept, err := svc.RecalculateAfterEdit(ctx, 1, 0)

		assert.NoError(t, err)
		assert.Equal(t, 1, swept)
		assert.Equal(t, 1, submission.CorrectCount)
		assert.Equal(t, 50, submission.RawScorePercentage)
		assert.Equal(t, 75, submission.Base50ScorePercentage)

		published := publisher.PublishedEvents()
		assert.Len(t, published, 1)
		assert.Equal(t, events.EventScoresRecalculated, published[0].Type)
	})

	t.Run("rerunning the sweep is idempotent", func(t *testing.T) {
		repo, _, svc := newRecalcFixture()

		submission := &models.Submission{
			ID: 10, AssignmentID: 7, QuizID: 1, AttemptNumber: 1,
			Answers: datatypes.NewJSONType(models.AnswerMap{0: "B", 1: "Paris"}),
		}
		repo.quiz.On("GetByID", ctx, uint(1)).Return(twoQuestionQuiz(), nil)
		repo.submission.On("GetByQuiz", ctx, uint(1)).Return([]*models.Submission{submission}, nil)
		repo.submission.On("UpdateScores", ctx, submission).Return(nil)
		repo.assignment.On("UpdateScoreMirror", ctx, uint(7), 2, 100, 100).Return(nil)

		_, err := svc.RecalculateAfterEdit(ctx, 1, 0)
		assert.NoError(t, err)
		first := submission.RawScorePercentage

		_, err = svc.RecalculateAfterEdit(ctx, 1, 0)
		assert.NoError(t, err)
		assert.Equal(t, first, submission.RawScorePercentage)
	})

	t.Run("only the latest attempt drives the assignment mirror", func(t *testing.T) {
		repo, _, svc := newRecalcFixture()

		first := &models.Submission{
			ID: 10, AssignmentID: 7, QuizID: 1, AttemptNumber: 1,
			Answers: datatypes.NewJSONType(models.AnswerMap{}),
		}
		second := &models.Submission{
			ID: 11, AssignmentID: 7, QuizID: 1, AttemptNumber: 2,
			Answers: datatypes.NewJSONType(models.AnswerMap{0: "B", 1: "Paris"}),
		}
		repo.quiz.On("GetByID", ctx, uint(1)).Return(twoQuestionQuiz(), nil)
		repo.submission.On("GetByQuiz", ctx, uint(1)).Return([]*models.Submission{first, second}, nil)
		repo.submission.On("UpdateScores", ctx, mock.AnythingOfType("*models.Submission")).Return(nil)
		repo.assignment.On("UpdateScoreMirror", ctx, uint(7), 2, 100, 100).Return(nil)

		swept, err := svc.RecalculateAfterEdit(ctx, 1, 1)

		assert.NoError(t, err)
		assert.Equal(t, 2, swept)
		repo.assignment.AssertNumberOfCalls(t, "UpdateScoreMirror", 1)
	})
}

func TestRecalculateAfterDelete(t *testing.T) {
	ctx := context.Background()

	t.Run("shifts stored answer positions past the deleted slot", func(t *testing.T) {
		repo, _, svc := newRecalcFixture()

		// Question 0 was deleted; only the identification question remains.
		// The stored answer map still uses the original positions.
		quiz := twoQuestionQuiz()
		quiz.Questions = quiz.Questions[1:]
		quiz.RecomputeDerived()

		submission := &models.Submission{
			ID: 10, AssignmentID: 7, QuizID: 1, AttemptNumber: 1,
			Answers: datatypes.NewJSONType(models.AnswerMap{0: "B", 1: "paris"}),
		}
		repo.quiz.On("GetByID", ctx, uint(1)).Return(quiz, nil)
		repo.submission.On("GetByQuiz", ctx, uint(1)).Return([]*models.Submission{submission}, nil)
		repo.submission.On("UpdateScores", ctx, submission).Return(nil)
		repo.assignment.On("UpdateScoreMirror", ctx, uint(7), 1, 100, 100).Return(nil)

		swept, err := svc.RecalculateAfterDelete(ctx, 1, 0)

		assert.NoError(t, err)
		assert.Equal(t, 1, swept)
		assert.Equal(t, 1, submission.TotalPoints)
		assert.Equal(t, 100, submission.RawScorePercentage)
		// The stored answer map itself is never rewritten.
		assert.Equal(t, models.AnswerMap{0: "B", 1: "paris"}, submission.Answers.Data())
	})

	t.Run("deleting a later question keeps earlier answers in place", func(t *testing.T) {
		repo, _, svc := newRecalcFixture()

		quiz := twoQuestionQuiz()
		quiz.Questions = quiz.Questions[:1]
		quiz.RecomputeDerived()

		submission := &models.Submission{
			ID: 10, AssignmentID: 7, QuizID: 1, AttemptNumber: 1,
			Answers: datatypes.NewJSONType(models.AnswerMap{0: "A", 1: "Paris"}),
		}
		repo.quiz.On("GetByID", ctx, uint(1)).Return(quiz, nil)
		repo.submission.On("GetByQuiz", ctx, uint(1)).Return([]*models.Submission{submission}, nil)
		repo.submission.On("UpdateScores", ctx, submission).Return(nil)
		repo.assignment.On("UpdateScoreMirror", ctx, uint(7), 0, 0, 50).Return(nil)

		_, err := svc.RecalculateAfterDelete(ctx, 1, 1)

		assert.NoError(t, err)
		assert.Equal(t, 0, submission.CorrectCount)
		assert.Equal(t, 0, submission.RawScorePercentage)
		assert.Equal(t, 50, submission.Base50ScorePercentage)
	})
}

func TestRemapAfterDeletion(t *testing.T) {
	answers := models.AnswerMap{0: "a", 1: "b", 2: "c"}

	t.Run("middle deletion", func(t *testing.T) {
		remapped := remapAfterDeletion(answers, 1)
		assert.Equal(t, models.AnswerMap{0: "a", 1: "c"}, remapped)
	})

	t.Run("first deletion", func(t *testing.T) {
		remapped := remapAfterDeletion(answers, 0)
		assert.Equal(t, models.AnswerMap{0: "b", 1: "c"}, remapped)
	})

	t.Run("last deletion", func(t *testing.T) {
		remapped := remapAfterDeletion(answers, 2)
		assert.Equal(t, models.AnswerMap{0: "a", 1: "b"}, remapped)
	})

	t.Run("input map is untouched", func(t *testing.T) {
		_ = remapAfterDeletion(answers, 1)
		assert.Equal(t, models.AnswerMap{0: "a", 1: "b", 2: "c"}, answers)
	})
}

package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/quizdeck/assessment-service/internal/models"
	"github.com/quizdeck/assessment-service/internal/validator"
)

type MockRecalcService struct {
	mock.Mock
}

func (m *MockRecalcService) RecalculateAfterEdit(ctx context.Context, quizID uint, questionIndex int) (int, error) {
	args := m.Called(ctx, quizID, questionIndex)
	return args.Int(0), args.Error(1)
}

func (m *MockRecalcService) RecalculateAfterDelete(ctx context.Context, quizID uint, deletedIndex int) (int, error) {
	args := m.Called(ctx, quizID, deletedIndex)
	return args.Int(0), args.Error(1)
}

func newQuizFixture() (*mockRepository, *MockRecalcService, QuizService) {
	repo := newMockRepository()
	recalc := new(MockRecalcService)
	svc := NewQuizService(repo, recalc, testLogger(), validator.New())
	return repo, recalc, svc
}

func validQuestion() models.Question {
	return models.Question{
		Type:     models.TrueFalse,
		Question: "Water boils at 100C at sea level",
		Points:   1, CorrectAnswer: "true",
	}
}

func TestQuizCreate(t *testing.T) {
	ctx := context.Background()

	t.Run("creates with derived totals", func(t *testing.T) {
		repo, _, svc := newQuizFixture()

		repo.quiz.On("Create", ctx, mock.AnythingOfType("*models.Quiz")).Return(nil)

		quiz, err := svc.Create(ctx, &CreateQuizRequest{
			Title: "States of Matter",
			Questions: []models.Question{
				validQuestion(),
				{Type: models.Identification, Question: "Chemical symbol for gold?", Points: 3, CorrectAnswer: "Au"},
			},
		}, "teacher-1")

		assert.NoError(t, err)
		assert.Equal(t, "teacher-1", quiz.TeacherID)
		assert.Len(t, quiz.Questions, 2)
		assert.Equal(t, 4, quiz.TotalPoints)
		repo.quiz.AssertExpectations(t)
	})

	t.Run("rejects an empty title", func(t *testing.T) {
		_, _, svc := newQuizFixture()

		_, err := svc.Create(ctx, &CreateQuizRequest{
			Questions: []models.Question{validQuestion()},
		}, "teacher-1")

		assert.True(t, IsValidation(err))
	})

	t.Run("rejects a malformed question", func(t *testing.T) {
		_, _, svc := newQuizFixture()

		_, err := svc.Create(ctx, &CreateQuizRequest{
			Title: "Broken",
			Questions: []models.Question{
				{Type: models.MultipleChoice, Question: "Pick one", Points: 1},
			},
		}, "teacher-1")

		assert.True(t, IsValidation(err))
	})
}

func TestQuizDelete(t *testing.T) {
	ctx := context.Background()

	t.Run("deletes when no submissions exist", func(t *testing.T) {
		repo, _, svc := newQuizFixture()

		repo.quiz.On("GetByID", ctx, uint(1)).Return(testQuiz(), nil)
		repo.submission.On("CountByQuiz", ctx, uint(1)).Return(int64(0), nil)
		repo.quiz.On("Delete", ctx, uint(1)).Return(nil)

		assert.NoError(t, svc.Delete(ctx, 1, "teacher-1"))
		repo.quiz.AssertExpectations(t)
	})

	t.Run("blocks deletion once graded submissions exist", func(t *testing.T) {
		repo, _, svc := newQuizFixture()

		repo.quiz.On("GetByID", ctx, uint(1)).Return(testQuiz(), nil)
		repo.submission.On("CountByQuiz", ctx, uint(1)).Return(int64(3), nil)

		err := svc.Delete(ctx, 1, "teacher-1")

		assert.True(t, IsBusinessRule(err))
		repo.quiz.AssertNotCalled(t, "Delete", ctx, uint(1))
	})

	t.Run("only the owner can delete", func(t *testing.T) {
		repo, _, svc := newQuizFixture()

		repo.quiz.On("GetByID", ctx, uint(1)).Return(testQuiz(), nil)

		err := svc.Delete(ctx, 1, "teacher-2")

		assert.True(t, IsUnauthorized(err))
	})
}

func TestQuestionMutations(t *testing.T) {
	ctx := context.Background()

	t.Run("add triggers a regrade at the new index", func(t *testing.T) {
		repo, recalc, svc := newQuizFixture()

		repo.quiz.On("GetByID", ctx, uint(1)).Return(testQuiz(), nil)
		repo.quiz.On("Update", ctx, mock.AnythingOfType("*models.Quiz")).Return(nil)
		recalc.On("RecalculateAfterEdit", ctx, uint(1), 1).Return(0, nil)

		quiz, err := svc.AddQuestion(ctx, 1, validQuestion(), "teacher-1")

		assert.NoError(t, err)
		assert.Len(t, quiz.Questions, 2)
		recalc.AssertExpectations(t)
	})

	t.Run("edit triggers a regrade at the edited index", func(t *testing.T) {
		repo, recalc, svc := newQuizFixture()

		repo.quiz.On("GetByID", ctx, uint(1)).Return(testQuiz(), nil)
		repo.quiz.On("Update", ctx, mock.AnythingOfType("*models.Quiz")).Return(nil)
		recalc.On("RecalculateAfterEdit", ctx, uint(1), 0).Return(2, nil)

		edited := validQuestion()
		edited.Points = 5
		quiz, err := svc.UpdateQuestion(ctx, 1, 0, edited, "teacher-1")

		assert.NoError(t, err)
		assert.Equal(t, 5, quiz.TotalPoints)
		recalc.AssertExpectations(t)
	})

	t.Run("edit index out of range", func(t *testing.T) {
		repo, _, svc := newQuizFixture()

		repo.quiz.On("GetByID", ctx, uint(1)).Return(testQuiz(), nil)

		_, err := svc.UpdateQuestion(ctx, 1, 4, validQuestion(), "teacher-1")

		assert.ErrorIs(t, err, ErrQuestionNotFound)
	})

	t.Run("delete triggers the deletion remap sweep", func(t *testing.T) {
		repo, recalc, svc := newQuizFixture()

		quiz := testQuiz()
		quiz.Questions = append(quiz.Questions, validQuestion())
		quiz.RecomputeDerived()

		repo.quiz.On("GetByID", ctx, uint(1)).Return(quiz, nil)
		repo.quiz.On("Update", ctx, mock.AnythingOfType("*models.Quiz")).Return(nil)
		recalc.On("RecalculateAfterDelete", ctx, uint(1), 0).Return(2, nil)

		got, err := svc.DeleteQuestion(ctx, 1, 0, "teacher-1")

		assert.NoError(t, err)
		assert.Len(t, got.Questions, 1)
		recalc.AssertExpectations(t)
	})

	t.Run("the last question cannot be deleted", func(t *testing.T) {
		repo, recalc, svc := newQuizFixture()

		repo.quiz.On("GetByID", ctx, uint(1)).Return(testQuiz(), nil)

		_, err := svc.DeleteQuestion(ctx, 1, 0, "teacher-1")

		assert.ErrorIs(t, err, ErrLastQuestion)
		recalc.AssertNotCalled(t, "RecalculateAfterDelete", ctx, uint(1), 0)
	})
}

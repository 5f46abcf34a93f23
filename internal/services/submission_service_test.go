package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/quizdeck/assessment-service/internal/events"
	"github.com/quizdeck/assessment-service/internal/models"
	"github.com/quizdeck/assessment-service/internal/validator"
)

func newSubmissionFixture() (*mockRepository, *MockDraftStore, *events.MockEventPublisher, SubmissionService) {
	repo := newMockRepository()
	drafts := new(MockDraftStore)
	publisher := events.NewMockEventPublisher(testLogger())
	svc := NewSubmissionService(repo, publisher, drafts, noopInvalidator{}, testLogger(), validator.New())
	return repo, drafts, publisher, svc
}

func activeSyncAssignment() *models.Assignment {
	status := models.SessionActive
	return &models.Assignment{
		ID: 7, QuizID: 1, ClassID: 2, StudentID: "student-1",
		QuizMode:      models.ModeSynchronous,
		Status:        models.AssignmentInProgress,
		SessionStatus: &status,
		Settings: datatypes.NewJSONType(models.AssignmentSettings{
			Mode: models.ModeSynchronous, MaxAttempts: 1,
		}),
	}
}

func TestSubmit(t *testing.T) {
	ctx := context.Background()

	t.Run("grades and completes the assignment", func(t *testing.T) {
		repo, drafts, publisher, svc := newSubmissionFixture()
		assignment := activeSyncAssignment()
		repo.assignment.On("GetByID", ctx, uint(7)).Return(assignment, nil)
		repo.quiz.On("GetByID", ctx, uint(1)).Return(testQuiz(), nil)
		repo.submission.On("Create", ctx, mock.AnythingOfType("*models.Submission")).Return(nil)
		repo.assignment.On("Update", ctx, assignment).Return(nil)
		drafts.On("ClearDraft", ctx, uint(7)).Return(nil)

		submission, err := svc.Submit(ctx, &SubmitRequest{
			AssignmentID: 7,
			Answers:      models.AnswerMap{0: "true"},
		}, "student-1")

		assert.NoError(t, err)
		assert.Equal(t, 1, submission.AttemptNumber)
		assert.Equal(t, 1, submission.CorrectCount)
		assert.Equal(t, 100, submission.RawScorePercentage)
		assert.Equal(t, 100, submission.Base50ScorePercentage)

		assert.True(t, assignment.Completed)
		assert.Equal(t, models.AssignmentCompleted, assignment.Status)
		assert.Equal(t, 1, assignment.Attempts)
		assert.Equal(t, 100, *assignment.RawScorePercentage)

		published := publisher.PublishedEvents()
		assert.Len(t, published, 1)
		assert.Equal(t, events.EventSubmissionGraded, published[0].Type)
	})

	t.Run("rejects when the session is not active", func(t *testing.T) {
		repo, _, _, svc := newSubmissionFixture()
		assignment := activeSyncAssignment()
		ended := models.SessionEnded
		assignment.SessionStatus = &ended
		repo.assignment.On("GetByID", ctx, uint(7)).Return(assignment, nil)

		_, err := svc.Submit(ctx, &SubmitRequest{
			AssignmentID: 7, Answers: models.AnswerMap{0: "true"},
		}, "student-1")

		assert.ErrorIs(t, err, ErrSessionNotActive)
	})

	t.Run("rejects another student's assignment", func(t *testing.T) {
		repo, _, _, svc := newSubmissionFixture()
		repo.assignment.On("GetByID", ctx, uint(7)).Return(activeSyncAssignment(), nil)

		_, err := svc.Submit(ctx, &SubmitRequest{
			AssignmentID: 7, Answers: models.AnswerMap{0: "true"},
		}, "student-2")

		var permErr *PermissionError
		assert.ErrorAs(t, err, &permErr)
	})

	t.Run("rejects past the attempt limit", func(t *testing.T) {
		repo, _, _, svc := newSubmissionFixture()
		assignment := activeSyncAssignment()
		assignment.Attempts = 1
		repo.assignment.On("GetByID", ctx, uint(7)).Return(assignment, nil)

		_, err := svc.Submit(ctx, &SubmitRequest{
			AssignmentID: 7, Answers: models.AnswerMap{0: "true"},
		}, "student-1")

		assert.ErrorIs(t, err, ErrAttemptLimitReached)
	})

	t.Run("duplicate attempt maps to a conflict", func(t *testing.T) {
		repo, _, _, svc := newSubmissionFixture()
		assignment := activeSyncAssignment()
		repo.assignment.On("GetByID", ctx, uint(7)).Return(assignment, nil)
		repo.quiz.On("GetByID", ctx, uint(1)).Return(testQuiz(), nil)
		repo.submission.On("Create", ctx, mock.AnythingOfType("*models.Submission")).
			Return(gorm.ErrDuplicatedKey)

		_, err := svc.Submit(ctx, &SubmitRequest{
			AssignmentID: 7, Answers: models.AnswerMap{0: "true"},
		}, "student-1")

		assert.ErrorIs(t, err, ErrDuplicateSubmission)
	})

	t.Run("rejects an expired asynchronous assignment", func(t *testing.T) {
		repo, _, _, svc := newSubmissionFixture()
		past := time.Now().Add(-time.Hour)
		assignment := &models.Assignment{
			ID: 7, QuizID: 1, ClassID: 2, StudentID: "student-1",
			QuizMode: models.ModeAsynchronous,
			DueDate:  &past,
			Settings: datatypes.NewJSONType(models.AssignmentSettings{
				Mode: models.ModeAsynchronous, MaxAttempts: 1,
			}),
		}
		repo.assignment.On("GetByID", ctx, uint(7)).Return(assignment, nil)

		_, err := svc.Submit(ctx, &SubmitRequest{
			AssignmentID: 7, Answers: models.AnswerMap{0: "true"},
		}, "student-1")

		assert.ErrorIs(t, err, ErrAssignmentExpired)
	})

	t.Run("proctoring events flag the submission", func(t *testing.T) {
		repo, drafts, _, svc := newSubmissionFixture()
		assignment := activeSyncAssignment()
		repo.assignment.On("GetByID", ctx, uint(7)).Return(assignment, nil)
		repo.quiz.On("GetByID", ctx, uint(1)).Return(testQuiz(), nil)
		repo.submission.On("Create", ctx, mock.AnythingOfType("*models.Submission")).Return(nil)
		repo.assignment.On("Update", ctx, assignment).Return(nil)
		drafts.On("ClearDraft", ctx, uint(7)).Return(nil)

		submission, err := svc.Submit(ctx, &SubmitRequest{
			AssignmentID: 7,
			Answers:      models.AnswerMap{0: "true"},
			ProctoringEvents: []models.ProctoringEvent{
				{Type: models.EventTabSwitch},
				{Type: models.EventTabSwitch},
				{Type: models.EventTabSwitch},
			},
			DurationSeconds: 300,
		}, "student-1")

		assert.NoError(t, err)
		assert.True(t, submission.AntiCheatData.Data().FlaggedForReview)
		assert.Equal(t, 3, submission.AntiCheatData.Data().TabSwitchCount)
	})
}

func TestSaveDraft(t *testing.T) {
	ctx := context.Background()

	t.Run("marks a fresh assignment in progress", func(t *testing.T) {
		repo, drafts, _, svc := newSubmissionFixture()
		assignment := activeSyncAssignment()
		assignment.Status = models.AssignmentPending
		repo.assignment.On("GetByID", ctx, uint(7)).Return(assignment, nil)
		repo.assignment.On("Update", ctx, assignment).Return(nil)
		drafts.On("SaveDraft", ctx, mock.AnythingOfType("*cache.Draft")).Return(nil)

		err := svc.SaveDraft(ctx, &SaveDraftRequest{
			AssignmentID: 7,
			Answers:      models.AnswerMap{0: "true"},
		}, "student-1")

		assert.NoError(t, err)
		assert.Equal(t, models.AssignmentInProgress, assignment.Status)
		assert.NotNil(t, assignment.StartedAt)
	})

	t.Run("draft writes respect the session window", func(t *testing.T) {
		repo, _, _, svc := newSubmissionFixture()
		assignment := activeSyncAssignment()
		notStarted := models.SessionNotStarted
		assignment.SessionStatus = &notStarted
		repo.assignment.On("GetByID", ctx, uint(7)).Return(assignment, nil)

		err := svc.SaveDraft(ctx, &SaveDraftRequest{
			AssignmentID: 7,
			Answers:      models.AnswerMap{0: "true"},
		}, "student-1")

		assert.ErrorIs(t, err, ErrSessionNotActive)
	})
}

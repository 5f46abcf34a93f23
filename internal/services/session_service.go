package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/quizdeck/assessment-service/internal/cache"
	"github.com/quizdeck/assessment-service/internal/events"
	"github.com/quizdeck/assessment-service/internal/grading"
	"github.com/quizdeck/assessment-service/internal/models"
	"github.com/quizdeck/assessment-service/internal/repositories"
)

// SessionService drives the synchronous session lifecycle for one
// (quiz, class) pair. Session state lives mirrored on every sibling
// assignment row, so every transition is one multi-row update inside a
// transaction. Transitions only move forward: not_started -> active -> ended.
type SessionService interface {
	Start(ctx context.Context, quizID, classID uint, teacherID string) (*SessionState, error)
	End(ctx context.Context, quizID, classID uint, teacherID string) (*SessionState, error)
	GetState(ctx context.Context, quizID, classID uint) (*SessionState, error)
	Subscribe(ctx context.Context, quizID, classID uint) (<-chan events.SessionStatusEvent, error)
}

type SessionState struct {
	QuizID    uint                 `json:"quiz_id"`
	ClassID   uint                 `json:"class_id"`
	Status    models.SessionStatus `json:"status"`
	StartedAt *time.Time           `json:"started_at,omitempty"`
	EndedAt   *time.Time           `json:"ended_at,omitempty"`
	Students  int                  `json:"students"`
}

type sessionService struct {
	repo        repositories.Repository
	broadcaster events.SessionBroadcaster
	publisher   events.EventPublisher
	drafts      cache.DraftStore
	logger      *slog.Logger
}

func NewSessionService(repo repositories.Repository, broadcaster events.SessionBroadcaster, publisher events.EventPublisher, drafts cache.DraftStore, logger *slog.Logger) SessionService {
	return &sessionService{
		repo:        repo,
		broadcaster: broadcaster,
		publisher:   publisher,
		drafts:      drafts,
		logger:      logger,
	}
}

func (s *sessionService) Start(ctx context.Context, quizID, classID uint, teacherID string) (*SessionState, error) {
	assignments, err := s.loadSession(ctx, quizID, classID, teacherID)
	if err != nil {
		return nil, err
	}

	switch sessionStatusOf(assignments) {
	case models.SessionActive:
		return nil, ErrSessionAlreadyStarted
	case models.SessionEnded:
		return nil, ErrSessionAlreadyEnded
	}

	now := time.Now()
	err = s.repo.WithTx(ctx, func(tx repositories.Repository) error {
		updated, err := tx.Assignment().UpdateSessionFields(ctx, quizID, classID, repositories.SessionFields{
			Status:       models.SessionActive,
			StartedAt:    &now,
			ClearEndedAt: true,
		})
		if err != nil {
			return fmt.Errorf("failed to start session: %w", err)
		}
		if updated == 0 {
			return ErrAssignmentNotFound
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("Session started",
		"quiz_id", quizID,
		"class_id", classID,
		"teacher_id", teacherID,
		"students", len(assignments))

	state := &SessionState{
		QuizID:    quizID,
		ClassID:   classID,
		Status:    models.SessionActive,
		StartedAt: &now,
		Students:  len(assignments),
	}
	s.announce(ctx, events.EventSessionStarted, events.SessionStatusEvent{
		QuizID:    quizID,
		ClassID:   classID,
		Status:    models.SessionActive,
		StartedAt: &now,
		TeacherID: teacherID,
	})
	return state, nil
}

func (s *sessionService) End(ctx context.Context, quizID, classID uint, teacherID string) (*SessionState, error) {
	assignments, err := s.loadSession(ctx, quizID, classID, teacherID)
	if err != nil {
		return nil, err
	}

	switch sessionStatusOf(assignments) {
	case models.SessionNotStarted:
		return nil, ErrSessionNotStarted
	case models.SessionEnded:
		return nil, ErrSessionAlreadyEnded
	}

	now := time.Now()
	err = s.repo.WithTx(ctx, func(tx repositories.Repository) error {
		updated, err := tx.Assignment().UpdateSessionFields(ctx, quizID, classID, repositories.SessionFields{
			Status:  models.SessionEnded,
			EndedAt: &now,
		})
		if err != nil {
			return fmt.Errorf("failed to end session: %w", err)
		}
		if updated == 0 {
			return ErrAssignmentNotFound
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("Session ended",
		"quiz_id", quizID,
		"class_id", classID,
		"teacher_id", teacherID)

	startedAt := sessionStartOf(assignments)
	state := &SessionState{
		QuizID:    quizID,
		ClassID:   classID,
		Status:    models.SessionEnded,
		StartedAt: startedAt,
		EndedAt:   &now,
		Students:  len(assignments),
	}
	s.announce(ctx, events.EventSessionEnded, events.SessionStatusEvent{
		QuizID:    quizID,
		ClassID:   classID,
		Status:    models.SessionEnded,
		StartedAt: startedAt,
		EndedAt:   &now,
		TeacherID: teacherID,
	})

	s.finalizeInProgress(ctx, quizID, classID, assignments, now)
	return state, nil
}

func (s *sessionService) GetState(ctx context.Context, quizID, classID uint) (*SessionState, error) {
	assignments, err := s.repo.Assignment().GetByQuizAndClass(ctx, quizID, classID)
	if err != nil {
		return nil, fmt.Errorf("failed to load assignments: %w", err)
	}
	if len(assignments) == 0 {
		return nil, ErrAssignmentNotFound
	}
	return &SessionState{
		QuizID:    quizID,
		ClassID:   classID,
		Status:    sessionStatusOf(assignments),
		StartedAt: sessionStartOf(assignments),
		EndedAt:   sessionEndOf(assignments),
		Students:  len(assignments),
	}, nil
}

func (s *sessionService) Subscribe(ctx context.Context, quizID, classID uint) (<-chan events.SessionStatusEvent, error) {
	return s.broadcaster.Subscribe(ctx, quizID, classID)
}

// loadSession fetches the live assignment batch and checks the caller may
// control its session.
func (s *sessionService) loadSession(ctx context.Context, quizID, classID uint, teacherID string) ([]*models.Assignment, error) {
	ownsQuiz, err := s.repo.Quiz().IsOwner(ctx, quizID, teacherID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrQuizNotFound
		}
		return nil, fmt.Errorf("failed to check quiz ownership: %w", err)
	}
	if !ownsQuiz {
		return nil, NewPermissionError(teacherID, quizID, "quiz", "control_session", "not the quiz owner")
	}

	assignments, err := s.repo.Assignment().GetByQuizAndClass(ctx, quizID, classID)
	if err != nil {
		return nil, fmt.Errorf("failed to load assignments: %w", err)
	}
	if len(assignments) == 0 {
		return nil, ErrAssignmentNotFound
	}
	if assignments[0].QuizMode != models.ModeSynchronous {
		return nil, ErrNotSynchronous
	}
	return assignments, nil
}

// announce pushes the transition to live subscribers and onto the
// notification bus. Neither failure rolls back the transition; the database
// rows are the source of truth and clients reconcile on reconnect.
func (s *sessionService) announce(ctx context.Context, eventType events.EventType, update events.SessionStatusEvent) {
	if err := s.broadcaster.Broadcast(ctx, update); err != nil {
		s.logger.Error("Failed to broadcast session update", "error", err,
			"quiz_id", update.QuizID, "class_id", update.ClassID)
	}
	if err := s.publisher.Publish(ctx, eventType, update); err != nil {
		s.logger.Error("Failed to publish session event", "error", err,
			"quiz_id", update.QuizID, "class_id", update.ClassID)
	}
}

// finalizeInProgress force-submits students who were still answering when the
// teacher ended the session, using whatever draft answers they had saved.
// Best effort per student; one failed row never blocks the rest.
func (s *sessionService) finalizeInProgress(ctx context.Context, quizID, classID uint, assignments []*models.Assignment, endedAt time.Time) {
	quiz, err := s.repo.Quiz().GetByID(ctx, quizID)
	if err != nil {
		s.logger.Error("Failed to load quiz for session finalization", "error", err, "quiz_id", quizID)
		return
	}

	for _, a := range assignments {
		if a.Completed || a.Status != models.AssignmentInProgress {
			continue
		}

		answers := models.AnswerMap{}
		draft, err := s.drafts.LoadDraft(ctx, a.ID)
		if err == nil {
			answers = draft.Answers
		} else if err != cache.ErrDraftNotFound {
			s.logger.Error("Failed to load draft during finalization", "error", err, "assignment_id", a.ID)
		}

		result := grading.Evaluate(quiz.Questions, answers)
		submission := &models.Submission{
			AssignmentID:          a.ID,
			AttemptNumber:         a.Attempts + 1,
			QuizID:                quizID,
			ClassID:               classID,
			StudentID:             a.StudentID,
			QuizMode:              a.QuizMode,
			Answers:               newAnswers(answers),
			CorrectCount:          result.CorrectCount,
			CorrectPoints:         result.EarnedPoints,
			TotalPoints:           result.TotalPoints,
			RawScorePercentage:    result.RawScorePercentage,
			Base50ScorePercentage: result.Base50ScorePercentage,
			SubmittedAt:           endedAt,
		}
		if err := s.repo.Submission().Create(ctx, submission); err != nil {
			if repositories.IsDuplicateError(err) {
				// The student's own submit raced the finalizer and won.
				continue
			}
			s.logger.Error("Failed to auto-submit on session end", "error", err, "assignment_id", a.ID)
			continue
		}

		a.Attempts++
		a.Status = models.AssignmentCompleted
		a.Completed = true
		a.SubmittedAt = &endedAt
		a.Score = &result.EarnedPoints
		a.RawScorePercentage = &result.RawScorePercentage
		a.Base50ScorePercentage = &result.Base50ScorePercentage
		if err := s.repo.Assignment().Update(ctx, a); err != nil {
			s.logger.Error("Failed to update assignment after auto-submit", "error", err, "assignment_id", a.ID)
		}
		if err := s.drafts.ClearDraft(ctx, a.ID); err != nil {
			s.logger.Warn("Failed to clear draft after auto-submit", "error", err, "assignment_id", a.ID)
		}

		s.logger.Info("Auto-submitted in-progress attempt",
			"assignment_id", a.ID,
			"student_id", a.StudentID,
			"raw_score", result.RawScorePercentage)
	}
}

func sessionStatusOf(assignments []*models.Assignment) models.SessionStatus {
	if len(assignments) == 0 {
		return models.SessionNotStarted
	}
	return assignments[0].EffectiveSessionStatus()
}

func sessionStartOf(assignments []*models.Assignment) *time.Time {
	if len(assignments) == 0 {
		return nil
	}
	return assignments[0].SessionStartedAt
}

func sessionEndOf(assignments []*models.Assignment) *time.Time {
	if len(assignments) == 0 {
		return nil
	}
	return assignments[0].SessionEndedAt
}

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
	"github.com/quizdeck/assessment-service/internal/validator"
)

// SubmissionService accepts and grades quiz attempts. Grading is synchronous
// and the submission row is created exactly once per attempt; the database
// unique index backs that guarantee against double-submits.
type SubmissionService interface {
	Submit(ctx context.Context, req *SubmitRequest, studentID string) (*models.Submission, error)
	GetByID(ctx context.Context, submissionID uint, requesterID string) (*models.Submission, error)
	GetByAssignment(ctx context.Context, assignmentID uint, requesterID string) ([]*models.Submission, error)

	SaveDraft(ctx context.Context, req *SaveDraftRequest, studentID string) error
	LoadDraft(ctx context.Context, assignmentID uint, studentID string) (*cache.Draft, error)
}

type SubmitRequest struct {
	AssignmentID     uint                     `json:"assignment_id" validate:"required"`
	Answers          models.AnswerMap         `json:"answers" validate:"required"`
	ProctoringEvents []models.ProctoringEvent `json:"proctoring_events"`
	DurationSeconds  int                      `json:"duration_seconds" validate:"min=0"`
}

type SaveDraftRequest struct {
	AssignmentID    uint             `json:"assignment_id" validate:"required"`
	Answers         models.AnswerMap `json:"answers"`
	CurrentQuestion int              `json:"current_question" validate:"min=0"`
}

type submissionService struct {
	repo      repositories.Repository
	publisher events.EventPublisher
	drafts    cache.DraftStore
	analysis  AnalysisInvalidator
	logger    *slog.Logger
	validator *validator.Validator
}

// AnalysisInvalidator lets the submission path drop stale item analysis
// without importing the full analysis service.
type AnalysisInvalidator interface {
	Invalidate(ctx context.Context, quizID uint)
}

func NewSubmissionService(repo repositories.Repository, publisher events.EventPublisher, drafts cache.DraftStore, analysis AnalysisInvalidator, logger *slog.Logger, v *validator.Validator) SubmissionService {
	return &submissionService{
		repo:      repo,
		publisher: publisher,
		drafts:    drafts,
		analysis:  analysis,
		logger:    logger,
		validator: v,
	}
}

func (s *submissionService) Submit(ctx context.Context, req *SubmitRequest, studentID string) (*models.Submission, error) {
	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}

	assignment, err := s.repo.Assignment().GetByID(ctx, req.AssignmentID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrAssignmentNotFound
		}
		return nil, fmt.Errorf("failed to get assignment: %w", err)
	}
	if assignment.StudentID != studentID {
		return nil, NewPermissionError(studentID, assignment.ID, "assignment", "submit", "assignment belongs to another student")
	}

	if err := s.checkEligibility(assignment); err != nil {
		return nil, err
	}

	quiz, err := s.repo.Quiz().GetByID(ctx, assignment.QuizID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrQuizNotFound
		}
		return nil, fmt.Errorf("failed to get quiz: %w", err)
	}

	result := grading.Evaluate(quiz.Questions, req.Answers)
	antiCheat := grading.AggregateProctoring(req.ProctoringEvents, req.DurationSeconds)
	now := time.Now()

	submission := &models.Submission{
		AssignmentID:          assignment.ID,
		AttemptNumber:         assignment.Attempts + 1,
		QuizID:                assignment.QuizID,
		ClassID:               assignment.ClassID,
		StudentID:             studentID,
		QuizMode:              assignment.QuizMode,
		Answers:               newAnswers(req.Answers),
		CorrectCount:          result.CorrectCount,
		CorrectPoints:         result.EarnedPoints,
		TotalPoints:           result.TotalPoints,
		RawScorePercentage:    result.RawScorePercentage,
		Base50ScorePercentage: result.Base50ScorePercentage,
		AntiCheatData:         newAntiCheat(antiCheat),
		SubmittedAt:           now,
	}

	err = s.repo.WithTx(ctx, func(tx repositories.Repository) error {
		if err := tx.Submission().Create(ctx, submission); err != nil {
			if repositories.IsDuplicateError(err) {
				return ErrDuplicateSubmission
			}
			return fmt.Errorf("failed to create submission: %w", err)
		}

		assignment.Attempts++
		assignment.Status = models.AssignmentCompleted
		assignment.Completed = true
		assignment.SubmittedAt = &now
		assignment.Score = &result.EarnedPoints
		assignment.RawScorePercentage = &result.RawScorePercentage
		assignment.Base50ScorePercentage = &result.Base50ScorePercentage
		if err := tx.Assignment().Update(ctx, assignment); err != nil {
			return fmt.Errorf("failed to update assignment after submit: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if err := s.drafts.ClearDraft(ctx, assignment.ID); err != nil {
		s.logger.Warn("Failed to clear draft after submit", "error", err, "assignment_id", assignment.ID)
	}
	s.analysis.Invalidate(ctx, assignment.QuizID)

	s.logger.Info("Submission graded",
		"submission_id", submission.ID,
		"assignment_id", assignment.ID,
		"student_id", studentID,
		"raw_score", result.RawScorePercentage,
		"base50_score", result.Base50ScorePercentage,
		"flagged", antiCheat.FlaggedForReview)

	if err := s.publisher.Publish(ctx, events.EventSubmissionGraded, events.SubmissionGradedEvent{
		SubmissionID:          submission.ID,
		AssignmentID:          assignment.ID,
		QuizID:                assignment.QuizID,
		StudentID:             studentID,
		QuizMode:              assignment.QuizMode,
		RawScorePercentage:    result.RawScorePercentage,
		Base50ScorePercentage: result.Base50ScorePercentage,
		FlaggedForReview:      antiCheat.FlaggedForReview,
	}); err != nil {
		s.logger.Error("Failed to publish graded event", "error", err, "submission_id", submission.ID)
	}

	return submission, nil
}

// checkEligibility enforces the write boundary: attempt limits, deadlines and
// the synchronous session window are all re-checked here regardless of what
// the client believed when it rendered the quiz.
func (s *submissionService) checkEligibility(assignment *models.Assignment) error {
	settings := assignment.Settings.Data()

	maxAttempts := settings.MaxAttempts
	if maxAttempts < 1 {
		maxAttempts = 1
	}
	if assignment.Attempts >= maxAttempts {
		return ErrAttemptLimitReached
	}

	switch assignment.QuizMode {
	case models.ModeSynchronous:
		if assignment.EffectiveSessionStatus() != models.SessionActive {
			return ErrSessionNotActive
		}
	default:
		if assignment.Status == models.AssignmentExpired {
			return ErrAssignmentExpired
		}
		if assignment.DueDate != nil && time.Now().After(*assignment.DueDate) {
			return ErrAssignmentExpired
		}
	}
	return nil
}

func (s *submissionService) GetByID(ctx context.Context, submissionID uint, requesterID string) (*models.Submission, error) {
	submission, err := s.repo.Submission().GetByID(ctx, submissionID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrSubmissionNotFound
		}
		return nil, fmt.Errorf("failed to get submission: %w", err)
	}
	if err := s.authorizeRead(ctx, submission.QuizID, submission.StudentID, requesterID); err != nil {
		return nil, err
	}
	return submission, nil
}

func (s *submissionService) GetByAssignment(ctx context.Context, assignmentID uint, requesterID string) ([]*models.Submission, error) {
	assignment, err := s.repo.Assignment().GetByID(ctx, assignmentID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrAssignmentNotFound
		}
		return nil, fmt.Errorf("failed to get assignment: %w", err)
	}
	if err := s.authorizeRead(ctx, assignment.QuizID, assignment.StudentID, requesterID); err != nil {
		return nil, err
	}
	return s.repo.Submission().GetByAssignment(ctx, assignmentID)
}

// authorizeRead allows the owning student or the quiz's teacher.
func (s *submissionService) authorizeRead(ctx context.Context, quizID uint, studentID, requesterID string) error {
	if requesterID == studentID {
		return nil
	}
	ownsQuiz, err := s.repo.Quiz().IsOwner(ctx, quizID, requesterID)
	if err != nil {
		return fmt.Errorf("failed to check quiz ownership: %w", err)
	}
	if !ownsQuiz {
		return NewPermissionError(requesterID, quizID, "submission", "read", "neither owner nor quiz teacher")
	}
	return nil
}

func (s *submissionService) SaveDraft(ctx context.Context, req *SaveDraftRequest, studentID string) error {
	if err := s.validator.Validate(req); err != nil {
		return err
	}

	assignment, err := s.repo.Assignment().GetByID(ctx, req.AssignmentID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return ErrAssignmentNotFound
		}
		return fmt.Errorf("failed to get assignment: %w", err)
	}
	if assignment.StudentID != studentID {
		return NewPermissionError(studentID, assignment.ID, "assignment", "save_draft", "assignment belongs to another student")
	}
	if err := s.checkEligibility(assignment); err != nil {
		return err
	}

	if assignment.Status == models.AssignmentPending || assignment.Status == models.AssignmentNotStarted {
		now := time.Now()
		assignment.Status = models.AssignmentInProgress
		assignment.StartedAt = &now
		if err := s.repo.Assignment().Update(ctx, assignment); err != nil {
			return fmt.Errorf("failed to mark assignment in progress: %w", err)
		}
	}

	return s.drafts.SaveDraft(ctx, &cache.Draft{
		AssignmentID:    req.AssignmentID,
		Answers:         req.Answers,
		CurrentQuestion: req.CurrentQuestion,
		SavedAt:         time.Now(),
	})
}

func (s *submissionService) LoadDraft(ctx context.Context, assignmentID uint, studentID string) (*cache.Draft, error) {
	assignment, err := s.repo.Assignment().GetByID(ctx, assignmentID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrAssignmentNotFound
		}
		return nil, fmt.Errorf("failed to get assignment: %w", err)
	}
	if assignment.StudentID != studentID {
		return nil, NewPermissionError(studentID, assignment.ID, "assignment", "load_draft", "assignment belongs to another student")
	}
	return s.drafts.LoadDraft(ctx, assignmentID)
}

package services

import (
	"context"
	"crypto/rand"
	"fmt"
	"log/slog"
	"time"

	"github.com/quizdeck/assessment-service/internal/events"
	"github.com/quizdeck/assessment-service/internal/models"
	"github.com/quizdeck/assessment-service/internal/repositories"
	"github.com/quizdeck/assessment-service/internal/validator"
)

// DistributionService assigns quizzes to classes. Distribution materializes
// one assignment row per linked roster student with an immutable settings
// snapshot; reassignment replaces the whole batch in two phases so no student
// ever sees an empty class while the swap is in flight.
type DistributionService interface {
	Distribute(ctx context.Context, req *DistributeRequest, teacherID string) (*DistributeResult, error)
	GrantRetake(ctx context.Context, req *GrantRetakeRequest, teacherID string) (*models.Assignment, error)
	ExtendDeadline(ctx context.Context, assignmentID uint, newDeadline time.Time, teacherID string) (*models.Assignment, error)
	LookupByCode(ctx context.Context, code, studentID string) (*models.Assignment, *models.Quiz, error)
	ListForStudent(ctx context.Context, studentID string, limit, offset int) ([]*models.Assignment, int64, error)
	ExpireOverdue(ctx context.Context) (int64, error)
}

type DistributeRequest struct {
	QuizID   uint                      `json:"quiz_id" validate:"required"`
	ClassID  uint                      `json:"class_id" validate:"required"`
	Settings models.AssignmentSettings `json:"settings"`
	// Replace confirms overwriting an existing live assignment batch.
	Replace bool `json:"replace"`
}

type DistributeResult struct {
	QuizID       uint            `json:"quiz_id"`
	ClassID      uint            `json:"class_id"`
	Mode         models.QuizMode `json:"mode"`
	QuizCode     *string         `json:"quiz_code,omitempty"`
	AssignedIDs  []string        `json:"assigned_student_ids"`
	SkippedCount int             `json:"skipped_count"`
	Replaced     bool            `json:"replaced"`
}

type GrantRetakeRequest struct {
	SubmissionID uint      `json:"submission_id" validate:"required"`
	Deadline     time.Time `json:"deadline" validate:"required"`
}

type distributionService struct {
	repo      repositories.Repository
	publisher events.EventPublisher
	logger    *slog.Logger
	validator *validator.Validator
}

func NewDistributionService(repo repositories.Repository, publisher events.EventPublisher, logger *slog.Logger, v *validator.Validator) DistributionService {
	return &distributionService{
		repo:      repo,
		publisher: publisher,
		logger:    logger,
		validator: v,
	}
}

func (s *distributionService) Distribute(ctx context.Context, req *DistributeRequest, teacherID string) (*DistributeResult, error) {
	s.logger.Info("Distributing quiz",
		"quiz_id", req.QuizID,
		"class_id", req.ClassID,
		"teacher_id", teacherID,
		"mode", req.Settings.Mode)

	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}
	if req.Settings.Mode != models.ModeSynchronous && req.Settings.Mode != models.ModeAsynchronous {
		return nil, NewValidationError("settings.mode", "mode must be synchronous or asynchronous", req.Settings.Mode)
	}

	quiz, err := s.repo.Quiz().GetByID(ctx, req.QuizID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrQuizNotFound
		}
		return nil, fmt.Errorf("failed to get quiz: %w", err)
	}
	if quiz.TeacherID != teacherID {
		return nil, NewPermissionError(teacherID, req.QuizID, "quiz", "distribute", "not the quiz owner")
	}
	if len(quiz.Questions) == 0 {
		return nil, NewBusinessRuleError("quiz_has_questions",
			"cannot distribute a quiz with no questions",
			map[string]interface{}{"quiz_id": req.QuizID})
	}

	ownsClass, err := s.repo.Class().IsOwner(ctx, req.ClassID, teacherID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrClassNotFound
		}
		return nil, fmt.Errorf("failed to check class ownership: %w", err)
	}
	if !ownsClass {
		return nil, NewPermissionError(teacherID, req.ClassID, "class", "distribute", "not the class owner")
	}

	exists, err := s.repo.Assignment().ExistsLive(ctx, req.QuizID, req.ClassID)
	if err != nil {
		return nil, fmt.Errorf("failed to check existing assignment: %w", err)
	}
	if exists && !req.Replace {
		return nil, ErrAssignmentExists
	}

	roster, err := s.repo.Class().GetRoster(ctx, req.ClassID)
	if err != nil {
		return nil, fmt.Errorf("failed to load class roster: %w", err)
	}

	var studentIDs []string
	for _, entry := range roster {
		if entry.Linked() {
			studentIDs = append(studentIDs, *entry.AuthID)
		}
	}
	skipped := len(roster) - len(studentIDs)
	if len(studentIDs) == 0 {
		return nil, ErrNoValidStudents
	}
	if skipped > 0 {
		s.logger.Warn("Skipping unlinked roster entries",
			"class_id", req.ClassID,
			"skipped", skipped)
	}

	var quizCode *string
	if req.Settings.Mode == models.ModeSynchronous {
		code, err := generateQuizCode()
		if err != nil {
			return nil, fmt.Errorf("failed to generate quiz code: %w", err)
		}
		quizCode = &code
	}

	now := time.Now()
	assignments := make([]*models.Assignment, 0, len(studentIDs))
	for _, studentID := range studentIDs {
		a := &models.Assignment{
			QuizID:     req.QuizID,
			ClassID:    req.ClassID,
			StudentID:  studentID,
			QuizMode:   req.Settings.Mode,
			QuizCode:   quizCode,
			DueDate:    req.Settings.Deadline,
			Settings:   newSettings(req.Settings),
			Status:     models.AssignmentPending,
			AssignedBy: teacherID,
			AssignedAt: now,
		}
		if req.Settings.Mode == models.ModeSynchronous {
			status := models.SessionNotStarted
			a.SessionStatus = &status
		}
		assignments = append(assignments, a)
	}

	err = s.repo.WithTx(ctx, func(tx repositories.Repository) error {
		if exists {
			if _, err := tx.Assignment().MarkSuperseded(ctx, req.QuizID, req.ClassID); err != nil {
				return fmt.Errorf("failed to supersede existing assignments: %w", err)
			}
		}
		if err := tx.Assignment().CreateBatch(ctx, assignments); err != nil {
			return fmt.Errorf("failed to create assignments: %w", err)
		}
		if exists {
			if _, err := tx.Assignment().PurgeSuperseded(ctx, req.QuizID, req.ClassID); err != nil {
				return fmt.Errorf("failed to purge superseded assignments: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	eventType := events.EventAssignmentDistributed
	if exists {
		eventType = events.EventAssignmentReassigned
	}
	if err := s.publisher.Publish(ctx, eventType, events.AssignmentDistributedEvent{
		QuizID:       req.QuizID,
		QuizTitle:    quiz.Title,
		ClassID:      req.ClassID,
		Mode:         req.Settings.Mode,
		StudentIDs:   studentIDs,
		SkippedCount: skipped,
		Replaced:     exists,
		AssignedBy:   teacherID,
	}); err != nil {
		s.logger.Error("Failed to publish distribution event", "error", err, "quiz_id", req.QuizID)
	}

	return &DistributeResult{
		QuizID:       req.QuizID,
		ClassID:      req.ClassID,
		Mode:         req.Settings.Mode,
		QuizCode:     quizCode,
		AssignedIDs:  studentIDs,
		SkippedCount: skipped,
		Replaced:     exists,
	}, nil
}

// GrantRetake creates a fresh asynchronous assignment linked back to the
// submission being retaken. The original submission and its scores stay
// untouched.
func (s *distributionService) GrantRetake(ctx context.Context, req *GrantRetakeRequest, teacherID string) (*models.Assignment, error) {
	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}

	submission, err := s.repo.Submission().GetByID(ctx, req.SubmissionID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrSubmissionNotFound
		}
		return nil, fmt.Errorf("failed to get submission: %w", err)
	}

	ownsQuiz, err := s.repo.Quiz().IsOwner(ctx, submission.QuizID, teacherID)
	if err != nil {
		return nil, fmt.Errorf("failed to check quiz ownership: %w", err)
	}
	if !ownsQuiz {
		return nil, NewPermissionError(teacherID, submission.QuizID, "quiz", "grant_retake", "not the quiz owner")
	}

	original, err := s.repo.Assignment().GetByID(ctx, submission.AssignmentID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrAssignmentNotFound
		}
		return nil, fmt.Errorf("failed to get original assignment: %w", err)
	}

	settings := original.Settings.Data()
	settings.Mode = models.ModeAsynchronous
	settings.Deadline = &req.Deadline
	settings.MaxAttempts = 1

	retake := &models.Assignment{
		QuizID:               submission.QuizID,
		ClassID:              submission.ClassID,
		StudentID:            submission.StudentID,
		QuizMode:             models.ModeAsynchronous,
		DueDate:              &req.Deadline,
		Settings:             newSettings(settings),
		Status:               models.AssignmentPending,
		IsRetake:             true,
		OriginalSubmissionID: &submission.ID,
		AssignedBy:           teacherID,
		AssignedAt:           time.Now(),
	}
	if err := s.repo.Assignment().Create(ctx, retake); err != nil {
		return nil, fmt.Errorf("failed to create retake assignment: %w", err)
	}

	s.logger.Info("Retake granted",
		"submission_id", submission.ID,
		"student_id", submission.StudentID,
		"assignment_id", retake.ID)

	if err := s.publisher.Publish(ctx, events.EventRetakeGranted, events.RetakeGrantedEvent{
		QuizID:       submission.QuizID,
		ClassID:      submission.ClassID,
		StudentID:    submission.StudentID,
		AssignmentID: retake.ID,
		Deadline:     req.Deadline,
	}); err != nil {
		s.logger.Error("Failed to publish retake event", "error", err, "assignment_id", retake.ID)
	}

	return retake, nil
}

func (s *distributionService) ExtendDeadline(ctx context.Context, assignmentID uint, newDeadline time.Time, teacherID string) (*models.Assignment, error) {
	assignment, err := s.repo.Assignment().GetByID(ctx, assignmentID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrAssignmentNotFound
		}
		return nil, fmt.Errorf("failed to get assignment: %w", err)
	}

	ownsQuiz, err := s.repo.Quiz().IsOwner(ctx, assignment.QuizID, teacherID)
	if err != nil {
		return nil, fmt.Errorf("failed to check quiz ownership: %w", err)
	}
	if !ownsQuiz {
		return nil, NewPermissionError(teacherID, assignmentID, "assignment", "extend_deadline", "not the quiz owner")
	}

	if assignment.DueDate != nil && newDeadline.Before(*assignment.DueDate) {
		return nil, NewBusinessRuleError("deadline_extension_forward",
			"new deadline must be after the current one",
			map[string]interface{}{"current": assignment.DueDate, "requested": newDeadline})
	}

	assignment.DueDate = &newDeadline
	if assignment.Status == models.AssignmentExpired {
		assignment.Status = models.AssignmentPending
	}
	if err := s.repo.Assignment().Update(ctx, assignment); err != nil {
		return nil, fmt.Errorf("failed to update assignment deadline: %w", err)
	}

	if err := s.publisher.Publish(ctx, events.EventDeadlineExtended, events.RetakeGrantedEvent{
		QuizID:       assignment.QuizID,
		ClassID:      assignment.ClassID,
		StudentID:    assignment.StudentID,
		AssignmentID: assignment.ID,
		Deadline:     newDeadline,
	}); err != nil {
		s.logger.Error("Failed to publish deadline event", "error", err, "assignment_id", assignment.ID)
	}

	return assignment, nil
}

// LookupByCode resolves a synchronous session join. The code, the student's
// own assignment row and the synchronous mode must all line up; anything else
// is the same invalid-code error so codes cannot be probed.
func (s *distributionService) LookupByCode(ctx context.Context, code, studentID string) (*models.Assignment, *models.Quiz, error) {
	if len(code) != quizCodeLength {
		return nil, nil, ErrInvalidQuizCode
	}

	assignment, err := s.repo.Assignment().GetByCode(ctx, code, studentID, models.ModeSynchronous)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, nil, ErrInvalidQuizCode
		}
		return nil, nil, fmt.Errorf("failed to look up quiz code: %w", err)
	}

	quiz, err := s.repo.Quiz().GetByID(ctx, assignment.QuizID)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to get quiz for code join: %w", err)
	}
	return assignment, quiz, nil
}

func (s *distributionService) ListForStudent(ctx context.Context, studentID string, limit, offset int) ([]*models.Assignment, int64, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	return s.repo.Assignment().GetByStudent(ctx, studentID, limit, offset)
}

func (s *distributionService) ExpireOverdue(ctx context.Context) (int64, error) {
	expired, err := s.repo.Assignment().ExpireOverdue(ctx, time.Now())
	if err != nil {
		return 0, fmt.Errorf("failed to expire overdue assignments: %w", err)
	}
	if expired > 0 {
		s.logger.Info("Expired overdue assignments", "count", expired)
	}
	return expired, nil
}

const quizCodeLength = 6
const quizCodeAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

func generateQuizCode() (string, error) {
	buf := make([]byte, quizCodeLength)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	for i, b := range buf {
		buf[i] = quizCodeAlphabet[int(b)%len(quizCodeAlphabet)]
	}
	return string(buf), nil
}

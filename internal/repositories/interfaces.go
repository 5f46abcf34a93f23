package repositories

import (
	"context"
	"time"

	"github.com/quizdeck/assessment-service/internal/models"
)

// Repository bundles all entity repositories behind one handle. WithTx runs
// fn against a repository bound to a single database transaction; the
// session fan-out and recalculation sweeps depend on that to stay atomic.
type Repository interface {
	Quiz() QuizRepository
	Assignment() AssignmentRepository
	Submission() SubmissionRepository
	User() UserRepository
	Class() ClassRepository

	WithTx(ctx context.Context, fn func(Repository) error) error
}

// QuizRepository covers quiz persistence. Question mutations go through
// Update with the full rewritten question list.
type QuizRepository interface {
	Create(ctx context.Context, quiz *models.Quiz) error
	GetByID(ctx context.Context, id uint) (*models.Quiz, error)
	Update(ctx context.Context, quiz *models.Quiz) error
	Delete(ctx context.Context, id uint) error

	GetByTeacher(ctx context.Context, teacherID string, limit, offset int) ([]*models.Quiz, int64, error)
	IsOwner(ctx context.Context, quizID uint, teacherID string) (bool, error)
}

type AssignmentRepository interface {
	Create(ctx context.Context, assignment *models.Assignment) error
	CreateBatch(ctx context.Context, assignments []*models.Assignment) error
	GetByID(ctx context.Context, id uint) (*models.Assignment, error)
	Update(ctx context.Context, assignment *models.Assignment) error

	// Live rows only; superseded rows are invisible to every caller except
	// the reassignment flow itself.
	GetByQuizAndClass(ctx context.Context, quizID, classID uint) ([]*models.Assignment, error)
	GetByStudent(ctx context.Context, studentID string, limit, offset int) ([]*models.Assignment, int64, error)
	GetByCode(ctx context.Context, code, studentID string, mode models.QuizMode) (*models.Assignment, error)
	ExistsLive(ctx context.Context, quizID, classID uint) (bool, error)

	// Two-phase reassignment support.
	MarkSuperseded(ctx context.Context, quizID, classID uint) (int64, error)
	PurgeSuperseded(ctx context.Context, quizID, classID uint) (int64, error)

	// UpdateSessionFields applies one session transition to every live
	// sibling of a (quiz, class) pair in a single statement.
	UpdateSessionFields(ctx context.Context, quizID, classID uint, fields SessionFields) (int64, error)

	UpdateScoreMirror(ctx context.Context, assignmentID uint, score, raw, base50 int) error
	ExpireOverdue(ctx context.Context, now time.Time) (int64, error)
}

// SessionFields is the batch of session-mirror columns written on a
// transition. A nil timestamp means leave the column alone; ClearEndedAt
// nulls it out, which Start uses so an activated session never carries a
// stale ended mark. Status is always written.
type SessionFields struct {
	Status       models.SessionStatus
	StartedAt    *time.Time
	EndedAt      *time.Time
	ClearEndedAt bool
}

type SubmissionRepository interface {
	// Create fails with a duplicate error when a submission for the same
	// (assignment, attempt number) already exists.
	Create(ctx context.Context, submission *models.Submission) error
	GetByID(ctx context.Context, id uint) (*models.Submission, error)
	GetByQuiz(ctx context.Context, quizID uint) ([]*models.Submission, error)
	GetByQuizAndClass(ctx context.Context, quizID, classID uint) ([]*models.Submission, error)
	GetByAssignment(ctx context.Context, assignmentID uint) ([]*models.Submission, error)

	// UpdateScores rewrites only the recalculated score fields.
	UpdateScores(ctx context.Context, submission *models.Submission) error
	CountByQuiz(ctx context.Context, quizID uint) (int64, error)
}

type UserRepository interface {
	GetByID(ctx context.Context, id string) (*models.User, error)
	GetByIDs(ctx context.Context, ids []string) ([]*models.User, error)
	ExistsByID(ctx context.Context, id string) (bool, error)
	HasRole(ctx context.Context, id string, role models.UserRole) (bool, error)
}

type ClassRepository interface {
	GetByID(ctx context.Context, id uint) (*models.Class, error)
	GetRoster(ctx context.Context, classID uint) ([]models.ClassStudent, error)
	IsOwner(ctx context.Context, classID uint, teacherID string) (bool, error)
}

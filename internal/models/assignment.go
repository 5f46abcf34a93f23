package models

import (
	"time"

	"gorm.io/datatypes"
)

type QuizMode string

const (
	ModeSynchronous  QuizMode = "synchronous"
	ModeAsynchronous QuizMode = "asynchronous"
)

type AssignmentStatus string

const (
	AssignmentPending    AssignmentStatus = "pending"
	AssignmentNotStarted AssignmentStatus = "not_started"
	AssignmentInProgress AssignmentStatus = "in_progress"
	AssignmentCompleted  AssignmentStatus = "completed"
	AssignmentExpired    AssignmentStatus = "expired"
)

type SessionStatus string

const (
	SessionNotStarted SessionStatus = "not_started"
	SessionActive     SessionStatus = "active"
	SessionEnded      SessionStatus = "ended"
)

// AssignmentSettings is the immutable snapshot copied onto every assignment
// at distribution time. Later edits to the quiz's own settings never touch
// already-distributed rows.
type AssignmentSettings struct {
	Mode               QuizMode   `json:"mode"`
	TimeLimit          *int       `json:"time_limit"`
	Deadline           *time.Time `json:"deadline"`
	ShuffleQuestions   bool       `json:"shuffle_questions"`
	ShuffleChoices     bool       `json:"shuffle_choices"`
	ShowResults        bool       `json:"show_results"`
	AllowReview        bool       `json:"allow_review"`
	ShowCorrectAnswers bool       `json:"show_correct_answers"`
	PassingScore       int        `json:"passing_score"`
	MaxAttempts        int        `json:"max_attempts"`
}

// Assignment is one record per (quiz, class, student). Synchronous session
// state is mirrored on every sibling row; there is no separate session table,
// so session updates must cover all siblings in one statement.
type Assignment struct {
	ID        uint   `json:"id" gorm:"primaryKey"`
	QuizID    uint   `json:"quiz_id" gorm:"not null;index:idx_assignments_quiz_class"`
	ClassID   uint   `json:"class_id" gorm:"not null;index:idx_assignments_quiz_class"`
	StudentID string `json:"student_id" gorm:"not null;size:255;index"`

	QuizMode QuizMode `json:"quiz_mode" gorm:"not null" validate:"omitempty,quiz_mode"`
	QuizCode *string  `json:"quiz_code" gorm:"size:6;index"`
	DueDate  *time.Time `json:"due_date"`

	Settings datatypes.JSONType[AssignmentSettings] `json:"settings" gorm:"type:jsonb"`

	// Lifecycle
	Status      AssignmentStatus `json:"status" gorm:"not null;default:pending;index"`
	Completed   bool             `json:"completed" gorm:"default:false"`
	Attempts    int              `json:"attempts" gorm:"default:0"`
	StartedAt   *time.Time       `json:"started_at"`
	SubmittedAt *time.Time       `json:"submitted_at"`

	// Score mirror, rewritten by the recalculator together with the submission.
	Score                 *int `json:"score"`
	RawScorePercentage    *int `json:"raw_score_percentage"`
	Base50ScorePercentage *int `json:"base50_score_percentage"`

	// Synchronous session mirror. Nil for asynchronous assignments.
	SessionStatus    *SessionStatus `json:"session_status" gorm:"index"`
	SessionStartedAt *time.Time     `json:"session_started_at"`
	SessionEndedAt   *time.Time     `json:"session_ended_at"`

	// Retake bookkeeping
	IsRetake             bool  `json:"is_retake" gorm:"default:false"`
	OriginalSubmissionID *uint `json:"original_submission_id"`

	// Two-phase reassignment marker: superseded rows are dead but still
	// present until the replacement batch lands, then purged.
	Superseded bool `json:"-" gorm:"default:false;index"`

	AssignedBy string    `json:"assigned_by" gorm:"not null;size:255"`
	AssignedAt time.Time `json:"assigned_at"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (Assignment) TableName() string {
	return "assignments"
}

// EffectiveSessionStatus treats a missing mirror as not started.
func (a *Assignment) EffectiveSessionStatus() SessionStatus {
	if a.SessionStatus == nil {
		return SessionNotStarted
	}
	return *a.SessionStatus
}

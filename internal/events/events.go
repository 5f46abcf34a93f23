package events

import (
	"time"

	"github.com/quizdeck/assessment-service/internal/models"
)

// EventType represents different types of notification events
type EventType string

const (
	// Distribution events
	EventAssignmentDistributed EventType = "assignment.distributed"
	EventAssignmentReassigned  EventType = "assignment.reassigned"
	EventRetakeGranted         EventType = "assignment.retake_granted"
	EventDeadlineExtended      EventType = "assignment.deadline_extended"

	// Session events
	EventSessionStarted EventType = "session.started"
	EventSessionEnded   EventType = "session.ended"

	// Submission events
	EventSubmissionGraded EventType = "submission.graded"

	// Recalculation events
	EventScoresRecalculated EventType = "scores.recalculated"
)

// NotificationEvent is the base envelope for all outbound events.
type NotificationEvent struct {
	ID        string                 `json:"id"`
	Type      EventType              `json:"type"`
	Timestamp time.Time              `json:"timestamp"`
	Source    string                 `json:"source"`
	Version   string                 `json:"version"`
	Data      interface{}            `json:"data"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
}

type AssignmentDistributedEvent struct {
	QuizID       uint            `json:"quiz_id"`
	QuizTitle    string          `json:"quiz_title"`
	ClassID      uint            `json:"class_id"`
	Mode         models.QuizMode `json:"mode"`
	StudentIDs   []string        `json:"student_ids"`
	SkippedCount int             `json:"skipped_count"`
	Replaced     bool            `json:"replaced"`
	AssignedBy   string          `json:"assigned_by"`
}

type SessionStatusEvent struct {
	QuizID    uint                 `json:"quiz_id"`
	ClassID   uint                 `json:"class_id"`
	Status    models.SessionStatus `json:"status"`
	StartedAt *time.Time           `json:"started_at,omitempty"`
	EndedAt   *time.Time           `json:"ended_at,omitempty"`
	TeacherID string               `json:"teacher_id"`
}

type SubmissionGradedEvent struct {
	SubmissionID          uint            `json:"submission_id"`
	AssignmentID          uint            `json:"assignment_id"`
	QuizID                uint            `json:"quiz_id"`
	StudentID             string          `json:"student_id"`
	QuizMode              models.QuizMode `json:"quiz_mode"`
	RawScorePercentage    int             `json:"raw_score_percentage"`
	Base50ScorePercentage int             `json:"base50_score_percentage"`
	FlaggedForReview      bool            `json:"flagged_for_review"`
}

type ScoresRecalculatedEvent struct {
	QuizID           uint   `json:"quiz_id"`
	Reason           string `json:"reason"` // "question_edited" or "question_deleted"
	QuestionIndex    int    `json:"question_index"`
	SubmissionsSwept int    `json:"submissions_swept"`
}

type RetakeGrantedEvent struct {
	QuizID       uint      `json:"quiz_id"`
	ClassID      uint      `json:"class_id"`
	StudentID    string    `json:"student_id"`
	AssignmentID uint      `json:"assignment_id"`
	Deadline     time.Time `json:"deadline"`
}

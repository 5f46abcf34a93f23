package models

import (
	"time"

	"gorm.io/datatypes"
)

// AnswerMap maps question position to the raw answer string. The map is
// written once at submission time and never rewritten afterwards; question
// deletions only change how positions are interpreted.
type AnswerMap map[int]string

// Submission is created once per attempt. Immutable after the write, except
// for score fields rewritten by the retroactive recalculator. The unique
// index on (assignment_id, attempt_number) is the create-once guard against
// duplicate submissions for the same attempt.
type Submission struct {
	ID            uint `json:"id" gorm:"primaryKey"`
	AssignmentID  uint `json:"assignment_id" gorm:"not null;uniqueIndex:idx_submissions_attempt"`
	AttemptNumber int  `json:"attempt_number" gorm:"not null;default:1;uniqueIndex:idx_submissions_attempt"`

	QuizID    uint     `json:"quiz_id" gorm:"not null;index:idx_submissions_quiz_class"`
	ClassID   uint     `json:"class_id" gorm:"not null;index:idx_submissions_quiz_class"`
	StudentID string   `json:"student_id" gorm:"not null;size:255;index"`
	QuizMode  QuizMode `json:"quiz_mode" gorm:"not null"`

	Answers datatypes.JSONType[AnswerMap] `json:"answers" gorm:"type:jsonb"`

	CorrectCount          int `json:"correct_count"`
	CorrectPoints         int `json:"correct_points"`
	TotalPoints           int `json:"total_points"`
	RawScorePercentage    int `json:"raw_score_percentage"`
	Base50ScorePercentage int `json:"base50_score_percentage"`

	AntiCheatData datatypes.JSONType[AntiCheatData] `json:"anti_cheat_data" gorm:"type:jsonb"`

	SubmittedAt time.Time `json:"submitted_at"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

func (Submission) TableName() string {
	return "quiz_submissions"
}

package models

import (
	"math"
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type QuestionType string

const (
	MultipleChoice QuestionType = "multiple_choice"
	TrueFalse      QuestionType = "true_false"
	Identification QuestionType = "identification"
)

type BloomLevel string

const (
	BloomHOTS BloomLevel = "HOTS"
	BloomLOTS BloomLevel = "LOTS"
)

type Choice struct {
	Text      string `json:"text"`
	IsCorrect bool   `json:"is_correct"`
}

// Question is stored inline on the quiz as an ordered jsonb list; answers and
// item analysis reference questions by position, not by id.
type Question struct {
	Type                QuestionType `json:"type" validate:"required,question_type"`
	Question            string       `json:"question" validate:"required,min=1"`
	Points              int          `json:"points" validate:"required,min=1"`
	CorrectAnswer       string       `json:"correct_answer,omitempty"`
	Choices             []Choice     `json:"choices,omitempty"`
	BloomClassification BloomLevel   `json:"bloom_classification" validate:"omitempty,bloom_level"`
}

// CorrectChoice returns the choice marked correct, or nil when none is marked.
func (q Question) CorrectChoice() *Choice {
	for i := range q.Choices {
		if q.Choices[i].IsCorrect {
			return &q.Choices[i]
		}
	}
	return nil
}

type ClassificationStats struct {
	HOTSCount      int     `json:"hots_count"`
	LOTSCount      int     `json:"lots_count"`
	HOTSPercentage float64 `json:"hots_percentage"`
	LOTSPercentage float64 `json:"lots_percentage"`
}

type Quiz struct {
	ID        uint   `json:"id" gorm:"primaryKey"`
	Title     string `json:"title" gorm:"not null;size:200;index" validate:"required,min=1,max=200"`
	TeacherID string `json:"teacher_id" gorm:"not null;size:255;index"`

	Questions           datatypes.JSONSlice[Question]           `json:"questions" gorm:"type:jsonb"`
	TotalPoints         int                                     `json:"total_points" gorm:"not null;default:0"`
	ClassificationStats datatypes.JSONType[ClassificationStats] `json:"classification_stats" gorm:"type:jsonb"`

	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `json:"-" gorm:"index"`
}

func (Quiz) TableName() string {
	return "quizzes"
}

// RecomputeDerived refreshes total points and HOTS/LOTS stats from the
// current question list. Must be called on every question mutation.
func (q *Quiz) RecomputeDerived() {
	total := 0
	hots := 0
	for _, question := range q.Questions {
		total += question.Points
		if question.BloomClassification == BloomHOTS {
			hots++
		}
	}
	q.TotalPoints = total

	stats := ClassificationStats{HOTSCount: hots, LOTSCount: len(q.Questions) - hots}
	if n := len(q.Questions); n > 0 {
		stats.HOTSPercentage = round1(float64(stats.HOTSCount) / float64(n) * 100)
		stats.LOTSPercentage = round1(float64(stats.LOTSCount) / float64(n) * 100)
	}
	q.ClassificationStats = datatypes.NewJSONType(stats)
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}

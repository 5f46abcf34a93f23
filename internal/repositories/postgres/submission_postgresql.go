package postgres

import (
	"context"

	"github.com/quizdeck/assessment-service/internal/models"
	"github.com/quizdeck/assessment-service/internal/repositories"
	"gorm.io/gorm"
)

type SubmissionPostgreSQL struct {
	db *gorm.DB
}

func NewSubmissionPostgreSQL(db *gorm.DB) repositories.SubmissionRepository {
	return &SubmissionPostgreSQL{db: db}
}

func (s *SubmissionPostgreSQL) Create(ctx context.Context, submission *models.Submission) error {
	return s.db.WithContext(ctx).Create(submission).Error
}

func (s *SubmissionPostgreSQL) GetByID(ctx context.Context, id uint) (*models.Submission, error) {
	var submission models.Submission
	if err := s.db.WithContext(ctx).First(&submission, id).Error; err != nil {
		return nil, err
	}
	return &submission, nil
}

func (s *SubmissionPostgreSQL) GetByQuiz(ctx context.Context, quizID uint) ([]*models.Submission, error) {
	var submissions []*models.Submission
	err := s.db.WithContext(ctx).
		Where("quiz_id = ?", quizID).
		Order("id").
		Find(&submissions).Error
	return submissions, err
}

func (s *SubmissionPostgreSQL) GetByQuizAndClass(ctx context.Context, quizID, classID uint) ([]*models.Submission, error) {
	var submissions []*models.Submission
	err := s.db.WithContext(ctx).
		Where("quiz_id = ? AND class_id = ?", quizID, classID).
		Order("id").
		Find(&submissions).Error
	return submissions, err
}

func (s *SubmissionPostgreSQL) GetByAssignment(ctx context.Context, assignmentID uint) ([]*models.Submission, error) {
	var submissions []*models.Submission
	err := s.db.WithContext(ctx).
		Where("assignment_id = ?", assignmentID).
		Order("attempt_number").
		Find(&submissions).Error
	return submissions, err
}

func (s *SubmissionPostgreSQL) UpdateScores(ctx context.Context, submission *models.Submission) error {
	return s.db.WithContext(ctx).Model(&models.Submission{}).
		Where("id = ?", submission.ID).
		Updates(map[string]interface{}{
			"correct_count":           submission.CorrectCount,
			"correct_points":          submission.CorrectPoints,
			"total_points":            submission.TotalPoints,
			"raw_score_percentage":    submission.RawScorePercentage,
			"base50_score_percentage": submission.Base50ScorePercentage,
		}).Error
}

func (s *SubmissionPostgreSQL) CountByQuiz(ctx context.Context, quizID uint) (int64, error) {
	var count int64
	err := s.db.WithContext(ctx).Model(&models.Submission{}).
		Where("quiz_id = ?", quizID).
		Count(&count).Error
	return count, err
}

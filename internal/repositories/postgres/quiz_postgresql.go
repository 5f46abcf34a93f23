package postgres

import (
	"context"

	"github.com/quizdeck/assessment-service/internal/models"
	"github.com/quizdeck/assessment-service/internal/repositories"
	"gorm.io/gorm"
)

type QuizPostgreSQL struct {
	db *gorm.DB
}

func NewQuizPostgreSQL(db *gorm.DB) repositories.QuizRepository {
	return &QuizPostgreSQL{db: db}
}

func (q *QuizPostgreSQL) Create(ctx context.Context, quiz *models.Quiz) error {
	return q.db.WithContext(ctx).Create(quiz).Error
}

func (q *QuizPostgreSQL) GetByID(ctx context.Context, id uint) (*models.Quiz, error) {
	var quiz models.Quiz
	if err := q.db.WithContext(ctx).First(&quiz, id).Error; err != nil {
		return nil, err
	}
	return &quiz, nil
}

func (q *QuizPostgreSQL) Update(ctx context.Context, quiz *models.Quiz) error {
	return q.db.WithContext(ctx).Save(quiz).Error
}

func (q *QuizPostgreSQL) Delete(ctx context.Context, id uint) error {
	return q.db.WithContext(ctx).Delete(&models.Quiz{}, id).Error
}

func (q *QuizPostgreSQL) GetByTeacher(ctx context.Context, teacherID string, limit, offset int) ([]*models.Quiz, int64, error) {
	var quizzes []*models.Quiz
	var total int64

	query := q.db.WithContext(ctx).Model(&models.Quiz{}).Where("teacher_id = ?", teacherID)
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	if limit > 0 {
		query = query.Limit(limit)
	}
	if err := query.Offset(offset).Order("created_at DESC").Find(&quizzes).Error; err != nil {
		return nil, 0, err
	}
	return quizzes, total, nil
}

func (q *QuizPostgreSQL) IsOwner(ctx context.Context, quizID uint, teacherID string) (bool, error) {
	var count int64
	err := q.db.WithContext(ctx).Model(&models.Quiz{}).
		Where("id = ? AND teacher_id = ?", quizID, teacherID).
		Count(&count).Error
	return count > 0, err
}

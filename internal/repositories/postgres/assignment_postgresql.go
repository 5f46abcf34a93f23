package postgres

import (
	"context"
	"strings"
	"time"

	"github.com/quizdeck/assessment-service/internal/models"
	"github.com/quizdeck/assessment-service/internal/repositories"
	"gorm.io/gorm"
)

type AssignmentPostgreSQL struct {
	db *gorm.DB
}

func NewAssignmentPostgreSQL(db *gorm.DB) repositories.AssignmentRepository {
	return &AssignmentPostgreSQL{db: db}
}

func (a *AssignmentPostgreSQL) Create(ctx context.Context, assignment *models.Assignment) error {
	return a.db.WithContext(ctx).Create(assignment).Error
}

func (a *AssignmentPostgreSQL) CreateBatch(ctx context.Context, assignments []*models.Assignment) error {
	if len(assignments) == 0 {
		return nil
	}
	return a.db.WithContext(ctx).CreateInBatches(assignments, 100).Error
}

func (a *AssignmentPostgreSQL) GetByID(ctx context.Context, id uint) (*models.Assignment, error) {
	var assignment models.Assignment
	if err := a.db.WithContext(ctx).First(&assignment, id).Error; err != nil {
		return nil, err
	}
	return &assignment, nil
}

func (a *AssignmentPostgreSQL) Update(ctx context.Context, assignment *models.Assignment) error {
	return a.db.WithContext(ctx).Save(assignment).Error
}

func (a *AssignmentPostgreSQL) GetByQuizAndClass(ctx context.Context, quizID, classID uint) ([]*models.Assignment, error) {
	var assignments []*models.Assignment
	err := a.live(ctx).
		Where("quiz_id = ? AND class_id = ?", quizID, classID).
		Find(&assignments).Error
	return assignments, err
}

func (a *AssignmentPostgreSQL) GetByStudent(ctx context.Context, studentID string, limit, offset int) ([]*models.Assignment, int64, error) {
	var assignments []*models.Assignment
	var total int64

	query := a.live(ctx).Where("student_id = ?", studentID)
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	if limit > 0 {
		query = query.Limit(limit)
	}
	if err := query.Offset(offset).Order("assigned_at DESC").Find(&assignments).Error; err != nil {
		return nil, 0, err
	}
	return assignments, total, nil
}

// GetByCode resolves a synchronous assignment from an access code. Code,
// identity and mode must all match; codes are stored upper-cased.
func (a *AssignmentPostgreSQL) GetByCode(ctx context.Context, code, studentID string, mode models.QuizMode) (*models.Assignment, error) {
	var assignment models.Assignment
	err := a.live(ctx).
		Where("quiz_code = ? AND student_id = ? AND quiz_mode = ?",
			strings.ToUpper(strings.TrimSpace(code)), studentID, mode).
		First(&assignment).Error
	if err != nil {
		return nil, err
	}
	return &assignment, nil
}

func (a *AssignmentPostgreSQL) ExistsLive(ctx context.Context, quizID, classID uint) (bool, error) {
	var count int64
	err := a.live(ctx).
		Where("quiz_id = ? AND class_id = ?", quizID, classID).
		Count(&count).Error
	return count > 0, err
}

func (a *AssignmentPostgreSQL) MarkSuperseded(ctx context.Context, quizID, classID uint) (int64, error) {
	res := a.db.WithContext(ctx).Model(&models.Assignment{}).
		Where("quiz_id = ? AND class_id = ? AND superseded = false", quizID, classID).
		Update("superseded", true)
	return res.RowsAffected, res.Error
}

func (a *AssignmentPostgreSQL) PurgeSuperseded(ctx context.Context, quizID, classID uint) (int64, error) {
	res := a.db.WithContext(ctx).
		Where("quiz_id = ? AND class_id = ? AND superseded = true", quizID, classID).
		Delete(&models.Assignment{})
	return res.RowsAffected, res.Error
}

// UpdateSessionFields writes the session mirror of every live sibling in one
// UPDATE so a transition is all-or-nothing.
func (a *AssignmentPostgreSQL) UpdateSessionFields(ctx context.Context, quizID, classID uint, fields repositories.SessionFields) (int64, error) {
	updates := map[string]interface{}{
		"session_status": fields.Status,
	}
	if fields.StartedAt != nil {
		updates["session_started_at"] = *fields.StartedAt
	}
	if fields.EndedAt != nil {
		updates["session_ended_at"] = *fields.EndedAt
	} else if fields.ClearEndedAt {
		updates["session_ended_at"] = gorm.Expr("NULL")
	}

	res := a.db.WithContext(ctx).Model(&models.Assignment{}).
		Where("quiz_id = ? AND class_id = ? AND superseded = false", quizID, classID).
		Updates(updates)
	return res.RowsAffected, res.Error
}

func (a *AssignmentPostgreSQL) UpdateScoreMirror(ctx context.Context, assignmentID uint, score, raw, base50 int) error {
	return a.db.WithContext(ctx).Model(&models.Assignment{}).
		Where("id = ?", assignmentID).
		Updates(map[string]interface{}{
			"score":                   score,
			"raw_score_percentage":    raw,
			"base50_score_percentage": base50,
		}).Error
}

func (a *AssignmentPostgreSQL) ExpireOverdue(ctx context.Context, now time.Time) (int64, error) {
	res := a.db.WithContext(ctx).Model(&models.Assignment{}).
		Where("quiz_mode = ? AND status IN ? AND due_date IS NOT NULL AND due_date < ? AND superseded = false",
			models.ModeAsynchronous,
			[]models.AssignmentStatus{models.AssignmentPending, models.AssignmentInProgress},
			now).
		Update("status", models.AssignmentExpired)
	return res.RowsAffected, res.Error
}

func (a *AssignmentPostgreSQL) live(ctx context.Context) *gorm.DB {
	return a.db.WithContext(ctx).Model(&models.Assignment{}).Where("superseded = false")
}

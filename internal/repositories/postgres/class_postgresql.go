package postgres

import (
	"context"

	"github.com/quizdeck/assessment-service/internal/models"
	"github.com/quizdeck/assessment-service/internal/repositories"
	"gorm.io/gorm"
)

type ClassPostgreSQL struct {
	db *gorm.DB
}

func NewClassPostgreSQL(db *gorm.DB) repositories.ClassRepository {
	return &ClassPostgreSQL{db: db}
}

func (c *ClassPostgreSQL) GetByID(ctx context.Context, id uint) (*models.Class, error) {
	var class models.Class
	if err := c.db.WithContext(ctx).Preload("Students").First(&class, id).Error; err != nil {
		return nil, err
	}
	return &class, nil
}

func (c *ClassPostgreSQL) GetRoster(ctx context.Context, classID uint) ([]models.ClassStudent, error) {
	var students []models.ClassStudent
	err := c.db.WithContext(ctx).
		Where("class_id = ?", classID).
		Order("name").
		Find(&students).Error
	return students, err
}

func (c *ClassPostgreSQL) IsOwner(ctx context.Context, classID uint, teacherID string) (bool, error) {
	var count int64
	err := c.db.WithContext(ctx).Model(&models.Class{}).
		Where("id = ? AND teacher_id = ?", classID, teacherID).
		Count(&count).Error
	return count > 0, err
}

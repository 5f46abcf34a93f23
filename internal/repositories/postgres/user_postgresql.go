package postgres

import (
	"context"

	"github.com/quizdeck/assessment-service/internal/models"
	"github.com/quizdeck/assessment-service/internal/repositories"
	"gorm.io/gorm"
)

// idChunkSize caps id-list membership queries. The original backing store
// rejects IN clauses above 10 values, so lookups are chunked and merged.
const idChunkSize = 10

type UserPostgreSQL struct {
	db *gorm.DB
}

func NewUserPostgreSQL(db *gorm.DB) repositories.UserRepository {
	return &UserPostgreSQL{db: db}
}

func (u *UserPostgreSQL) GetByID(ctx context.Context, id string) (*models.User, error) {
	var user models.User
	if err := u.db.WithContext(ctx).First(&user, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

func (u *UserPostgreSQL) GetByIDs(ctx context.Context, ids []string) ([]*models.User, error) {
	users := make([]*models.User, 0, len(ids))
	for _, chunk := range chunkIDs(ids, idChunkSize) {
		var batch []*models.User
		if err := u.db.WithContext(ctx).Where("id IN ?", chunk).Find(&batch).Error; err != nil {
			return nil, err
		}
		users = append(users, batch...)
	}
	return users, nil
}

func (u *UserPostgreSQL) ExistsByID(ctx context.Context, id string) (bool, error) {
	var count int64
	err := u.db.WithContext(ctx).Model(&models.User{}).Where("id = ?", id).Count(&count).Error
	return count > 0, err
}

func (u *UserPostgreSQL) HasRole(ctx context.Context, id string, role models.UserRole) (bool, error) {
	var count int64
	err := u.db.WithContext(ctx).Model(&models.User{}).
		Where("id = ? AND role = ?", id, role).
		Count(&count).Error
	return count > 0, err
}

func chunkIDs(ids []string, size int) [][]string {
	if len(ids) == 0 {
		return nil
	}
	chunks := make([][]string, 0, (len(ids)+size-1)/size)
	for start := 0; start < len(ids); start += size {
		end := start + size
		if end > len(ids) {
			end = len(ids)
		}
		chunks = append(chunks, ids[start:end])
	}
	return chunks
}

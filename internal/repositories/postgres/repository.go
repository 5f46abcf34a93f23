package postgres

import (
	"context"

	"github.com/quizdeck/assessment-service/internal/repositories"
	"gorm.io/gorm"
)

type repository struct {
	db *gorm.DB

	quiz       repositories.QuizRepository
	assignment repositories.AssignmentRepository
	submission repositories.SubmissionRepository
	user       repositories.UserRepository
	class      repositories.ClassRepository
}

func NewRepository(db *gorm.DB) repositories.Repository {
	return &repository{
		db:         db,
		quiz:       NewQuizPostgreSQL(db),
		assignment: NewAssignmentPostgreSQL(db),
		submission: NewSubmissionPostgreSQL(db),
		user:       NewUserPostgreSQL(db),
		class:      NewClassPostgreSQL(db),
	}
}

func (r *repository) Quiz() repositories.QuizRepository             { return r.quiz }
func (r *repository) Assignment() repositories.AssignmentRepository { return r.assignment }
func (r *repository) Submission() repositories.SubmissionRepository { return r.submission }
func (r *repository) User() repositories.UserRepository             { return r.user }
func (r *repository) Class() repositories.ClassRepository           { return r.class }

// WithTx runs fn with every repository bound to one transaction. The closure
// returning an error rolls everything back.
func (r *repository) WithTx(ctx context.Context, fn func(repositories.Repository) error) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(NewRepository(tx))
	})
}

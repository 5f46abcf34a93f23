package services

import (
	"context"
	"fmt"
	"log/slog"

	"gorm.io/datatypes"

	"github.com/quizdeck/assessment-service/internal/models"
	"github.com/quizdeck/assessment-service/internal/repositories"
	"github.com/quizdeck/assessment-service/internal/validator"
)

// QuizService owns the quiz and its inline question list. Question mutations
// rewrite the list, refresh the derived totals and trigger a retroactive
// regrade of every existing submission.
type QuizService interface {
	Create(ctx context.Context, req *CreateQuizRequest, teacherID string) (*models.Quiz, error)
	GetByID(ctx context.Context, quizID uint, requesterID string) (*models.Quiz, error)
	GetByTeacher(ctx context.Context, teacherID string, limit, offset int) ([]*models.Quiz, int64, error)
	Delete(ctx context.Context, quizID uint, teacherID string) error

	AddQuestion(ctx context.Context, quizID uint, question models.Question, teacherID string) (*models.Quiz, error)
	UpdateQuestion(ctx context.Context, quizID uint, index int, question models.Question, teacherID string) (*models.Quiz, error)
	DeleteQuestion(ctx context.Context, quizID uint, index int, teacherID string) (*models.Quiz, error)
}

type CreateQuizRequest struct {
	Title     string            `json:"title" validate:"required,min=1,max=200"`
	Questions []models.Question `json:"questions" validate:"required,min=1"`
}

type quizService struct {
	repo      repositories.Repository
	recalc    RecalcService
	logger    *slog.Logger
	validator *validator.Validator
}

func NewQuizService(repo repositories.Repository, recalc RecalcService, logger *slog.Logger, v *validator.Validator) QuizService {
	return &quizService{
		repo:      repo,
		recalc:    recalc,
		logger:    logger,
		validator: v,
	}
}

func (s *quizService) Create(ctx context.Context, req *CreateQuizRequest, teacherID string) (*models.Quiz, error) {
	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}
	if errs := s.validator.Question().ValidateQuestions(req.Questions); len(errs) > 0 {
		return nil, errs
	}

	quiz := &models.Quiz{
		Title:     req.Title,
		TeacherID: teacherID,
		Questions: datatypes.NewJSONSlice(req.Questions),
	}
	quiz.RecomputeDerived()

	if err := s.repo.Quiz().Create(ctx, quiz); err != nil {
		return nil, fmt.Errorf("failed to create quiz: %w", err)
	}

	s.logger.Info("Quiz created",
		"quiz_id", quiz.ID,
		"teacher_id", teacherID,
		"questions", len(quiz.Questions),
		"total_points", quiz.TotalPoints)
	return quiz, nil
}

// GetByID is not owner-gated; students reach quizzes through assignments.
func (s *quizService) GetByID(ctx context.Context, quizID uint, _ string) (*models.Quiz, error) {
	quiz, err := s.repo.Quiz().GetByID(ctx, quizID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrQuizNotFound
		}
		return nil, fmt.Errorf("failed to get quiz: %w", err)
	}
	return quiz, nil
}

func (s *quizService) GetByTeacher(ctx context.Context, teacherID string, limit, offset int) ([]*models.Quiz, int64, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	return s.repo.Quiz().GetByTeacher(ctx, teacherID, limit, offset)
}

func (s *quizService) Delete(ctx context.Context, quizID uint, teacherID string) error {
	if _, err := s.ownedQuiz(ctx, quizID, teacherID, "delete"); err != nil {
		return err
	}

	count, err := s.repo.Submission().CountByQuiz(ctx, quizID)
	if err != nil {
		return fmt.Errorf("failed to count submissions: %w", err)
	}
	if count > 0 {
		return NewBusinessRuleError("quiz_not_deletable",
			"quiz has graded submissions and cannot be deleted",
			map[string]interface{}{"quiz_id": quizID, "submissions": count})
	}

	if err := s.repo.Quiz().Delete(ctx, quizID); err != nil {
		return fmt.Errorf("failed to delete quiz: %w", err)
	}
	s.logger.Info("Quiz deleted", "quiz_id", quizID, "teacher_id", teacherID)
	return nil
}

func (s *quizService) AddQuestion(ctx context.Context, quizID uint, question models.Question, teacherID string) (*models.Quiz, error) {
	quiz, err := s.ownedQuiz(ctx, quizID, teacherID, "add_question")
	if err != nil {
		return nil, err
	}
	if errs := s.validator.Question().ValidateQuestion(question); len(errs) > 0 {
		return nil, errs
	}

	quiz.Questions = append(quiz.Questions, question)
	quiz.RecomputeDerived()
	if err := s.repo.Quiz().Update(ctx, quiz); err != nil {
		return nil, fmt.Errorf("failed to update quiz: %w", err)
	}

	newIndex := len(quiz.Questions) - 1
	s.logger.Info("Question added", "quiz_id", quizID, "index", newIndex)

	// Total points changed, so every existing score shifts.
	if _, err := s.recalc.RecalculateAfterEdit(ctx, quizID, newIndex); err != nil {
		return nil, fmt.Errorf("question added but recalculation failed: %w", err)
	}
	return quiz, nil
}

func (s *quizService) UpdateQuestion(ctx context.Context, quizID uint, index int, question models.Question, teacherID string) (*models.Quiz, error) {
	quiz, err := s.ownedQuiz(ctx, quizID, teacherID, "edit_question")
	if err != nil {
		return nil, err
	}
	if index < 0 || index >= len(quiz.Questions) {
		return nil, ErrQuestionNotFound
	}
	if errs := s.validator.Question().ValidateQuestion(question); len(errs) > 0 {
		return nil, errs
	}

	quiz.Questions[index] = question
	quiz.RecomputeDerived()
	if err := s.repo.Quiz().Update(ctx, quiz); err != nil {
		return nil, fmt.Errorf("failed to update quiz: %w", err)
	}

	s.logger.Info("Question updated", "quiz_id", quizID, "index", index)

	if _, err := s.recalc.RecalculateAfterEdit(ctx, quizID, index); err != nil {
		return nil, fmt.Errorf("question updated but recalculation failed: %w", err)
	}
	return quiz, nil
}

func (s *quizService) DeleteQuestion(ctx context.Context, quizID uint, index int, teacherID string) (*models.Quiz, error) {
	quiz, err := s.ownedQuiz(ctx, quizID, teacherID, "delete_question")
	if err != nil {
		return nil, err
	}
	if index < 0 || index >= len(quiz.Questions) {
		return nil, ErrQuestionNotFound
	}
	if len(quiz.Questions) == 1 {
		return nil, ErrLastQuestion
	}

	quiz.Questions = append(quiz.Questions[:index], quiz.Questions[index+1:]...)
	quiz.RecomputeDerived()
	if err := s.repo.Quiz().Update(ctx, quiz); err != nil {
		return nil, fmt.Errorf("failed to update quiz: %w", err)
	}

	s.logger.Info("Question deleted", "quiz_id", quizID, "index", index)

	if _, err := s.recalc.RecalculateAfterDelete(ctx, quizID, index); err != nil {
		return nil, fmt.Errorf("question deleted but recalculation failed: %w", err)
	}
	return quiz, nil
}

func (s *quizService) ownedQuiz(ctx context.Context, quizID uint, teacherID, action string) (*models.Quiz, error) {
	quiz, err := s.repo.Quiz().GetByID(ctx, quizID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrQuizNotFound
		}
		return nil, fmt.Errorf("failed to get quiz: %w", err)
	}
	if quiz.TeacherID != teacherID {
		return nil, NewPermissionError(teacherID, quizID, "quiz", action, "not the quiz owner")
	}
	return quiz, nil
}

package services

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/quizdeck/assessment-service/internal/events"
	"github.com/quizdeck/assessment-service/internal/grading"
	"github.com/quizdeck/assessment-service/internal/models"
	"github.com/quizdeck/assessment-service/internal/repositories"
)

// RecalcService retroactively regrades every submission of a quiz after a
// question edit or deletion. Stored answer maps are never rewritten; a
// deletion changes how positions are interpreted, so the sweep reads each
// historical answer through an index remap before regrading it. Sweeps are
// idempotent: rerunning one produces the same scores.
type RecalcService interface {
	RecalculateAfterEdit(ctx context.Context, quizID uint, questionIndex int) (int, error)
	RecalculateAfterDelete(ctx context.Context, quizID uint, deletedIndex int) (int, error)
}

type recalcService struct {
	repo      repositories.Repository
	publisher events.EventPublisher
	analysis  AnalysisInvalidator
	logger    *slog.Logger
}

func NewRecalcService(repo repositories.Repository, publisher events.EventPublisher, analysis AnalysisInvalidator, logger *slog.Logger) RecalcService {
	return &recalcService{
		repo:      repo,
		publisher: publisher,
		analysis:  analysis,
		logger:    logger,
	}
}

func (s *recalcService) RecalculateAfterEdit(ctx context.Context, quizID uint, questionIndex int) (int, error) {
	swept, err := s.sweep(ctx, quizID, func(answers models.AnswerMap) models.AnswerMap {
		return answers
	})
	if err != nil {
		return 0, err
	}
	s.finish(ctx, quizID, "question_edited", questionIndex, swept)
	return swept, nil
}

func (s *recalcService) RecalculateAfterDelete(ctx context.Context, quizID uint, deletedIndex int) (int, error) {
	swept, err := s.sweep(ctx, quizID, func(answers models.AnswerMap) models.AnswerMap {
		return remapAfterDeletion(answers, deletedIndex)
	})
	if err != nil {
		return 0, err
	}
	s.finish(ctx, quizID, "question_deleted", deletedIndex, swept)
	return swept, nil
}

// sweep regrades every submission of the quiz against its current question
// list inside one transaction, keeping each assignment's score mirror in step
// with its latest attempt.
func (s *recalcService) sweep(ctx context.Context, quizID uint, remap func(models.AnswerMap) models.AnswerMap) (int, error) {
	quiz, err := s.repo.Quiz().GetByID(ctx, quizID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return 0, ErrQuizNotFound
		}
		return 0, fmt.Errorf("failed to get quiz: %w", err)
	}

	swept := 0
	err = s.repo.WithTx(ctx, func(tx repositories.Repository) error {
		submissions, err := tx.Submission().GetByQuiz(ctx, quizID)
		if err != nil {
			return fmt.Errorf("failed to load submissions: %w", err)
		}

		// Latest attempt per assignment drives the mirror.
		latest := make(map[uint]*models.Submission, len(submissions))

		for _, sub := range submissions {
			result := grading.Evaluate(quiz.Questions, remap(sub.Answers.Data()))

			sub.CorrectCount = result.CorrectCount
			sub.CorrectPoints = result.EarnedPoints
			sub.TotalPoints = result.TotalPoints
			sub.RawScorePercentage = result.RawScorePercentage
			sub.Base50ScorePercentage = result.Base50ScorePercentage
			if err := tx.Submission().UpdateScores(ctx, sub); err != nil {
				return fmt.Errorf("failed to update submission %d: %w", sub.ID, err)
			}
			swept++

			if prev, ok := latest[sub.AssignmentID]; !ok || sub.AttemptNumber > prev.AttemptNumber {
				latest[sub.AssignmentID] = sub
			}
		}

		for assignmentID, sub := range latest {
			err := tx.Assignment().UpdateScoreMirror(ctx, assignmentID,
				sub.CorrectPoints, sub.RawScorePercentage, sub.Base50ScorePercentage)
			if err != nil {
				return fmt.Errorf("failed to update assignment mirror %d: %w", assignmentID, err)
			}
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return swept, nil
}

func (s *recalcService) finish(ctx context.Context, quizID uint, reason string, questionIndex, swept int) {
	s.analysis.Invalidate(ctx, quizID)

	s.logger.Info("Scores recalculated",
		"quiz_id", quizID,
		"reason", reason,
		"question_index", questionIndex,
		"submissions_swept", swept)

	if err := s.publisher.Publish(ctx, events.EventScoresRecalculated, events.ScoresRecalculatedEvent{
		QuizID:           quizID,
		Reason:           reason,
		QuestionIndex:    questionIndex,
		SubmissionsSwept: swept,
	}); err != nil {
		s.logger.Error("Failed to publish recalculation event", "error", err, "quiz_id", quizID)
	}
}

// remapAfterDeletion reads a stored answer map through the post-deletion
// index shift. Position i of the surviving question list corresponds to
// position i+1 of the original list for every i at or past the deleted slot;
// the deleted question's own answer simply drops out.
func remapAfterDeletion(answers models.AnswerMap, deletedIndex int) models.AnswerMap {
	remapped := make(models.AnswerMap, len(answers))
	for originalIndex, answer := range answers {
		switch {
		case originalIndex == deletedIndex:
			// dropped
		case originalIndex > deletedIndex:
			remapped[originalIndex-1] = answer
		default:
			remapped[originalIndex] = answer
		}
	}
	return remapped
}

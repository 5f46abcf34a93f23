package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/quizdeck/assessment-service/internal/cache"
	"github.com/quizdeck/assessment-service/internal/grading"
	"github.com/quizdeck/assessment-service/internal/models"
	"github.com/quizdeck/assessment-service/internal/repositories"
)

// AnalysisService computes per-question item analysis and class result
// sheets. Reports are cached per (quiz, class) and dropped whenever a new
// submission lands or scores are recalculated.
type AnalysisService interface {
	AnalysisInvalidator

	GetItemAnalysis(ctx context.Context, quizID, classID uint, teacherID string) (*grading.AnalysisReport, error)
	GetClassResults(ctx context.Context, quizID, classID uint, teacherID string) (*ClassResults, error)
}

type ClassResults struct {
	QuizID      uint             `json:"quiz_id"`
	QuizTitle   string           `json:"quiz_title"`
	ClassID     uint             `json:"class_id"`
	TotalPoints int              `json:"total_points"`
	Rows        []ClassResultRow `json:"rows"`
}

type ClassResultRow struct {
	StudentID             string     `json:"student_id"`
	StudentName           string     `json:"student_name"`
	StudentNo             string     `json:"student_no,omitempty"`
	AttemptNumber         int        `json:"attempt_number"`
	CorrectCount          int        `json:"correct_count"`
	CorrectPoints         int        `json:"correct_points"`
	TotalPoints           int        `json:"total_points"`
	RawScorePercentage    int        `json:"raw_score_percentage"`
	Base50ScorePercentage int        `json:"base50_score_percentage"`
	FlaggedForReview      bool       `json:"flagged_for_review"`
	SubmittedAt           *time.Time `json:"submitted_at,omitempty"`
}

const analysisCacheTTL = 10 * time.Minute

type analysisService struct {
	repo   repositories.Repository
	cache  cache.CacheService
	logger *slog.Logger
}

func NewAnalysisService(repo repositories.Repository, cacheService cache.CacheService, logger *slog.Logger) AnalysisService {
	return &analysisService{
		repo:   repo,
		cache:  cacheService,
		logger: logger,
	}
}

func analysisCacheKey(quizID, classID uint) string {
	return fmt.Sprintf("item_analysis:quiz:%d:class:%d", quizID, classID)
}

func (s *analysisService) GetItemAnalysis(ctx context.Context, quizID, classID uint, teacherID string) (*grading.AnalysisReport, error) {
	quiz, err := s.ownedQuiz(ctx, quizID, teacherID)
	if err != nil {
		return nil, err
	}

	key := analysisCacheKey(quizID, classID)
	var cached grading.AnalysisReport
	if err := s.cache.Get(ctx, key, &cached); err == nil {
		return &cached, nil
	} else if err != cache.ErrCacheMiss {
		s.logger.Warn("Item analysis cache read failed", "error", err, "key", key)
	}

	submissions, err := s.repo.Submission().GetByQuizAndClass(ctx, quizID, classID)
	if err != nil {
		return nil, fmt.Errorf("failed to load submissions: %w", err)
	}

	report := grading.Analyze(quiz.Questions, submissions)
	if err := s.cache.Set(ctx, key, report, analysisCacheTTL); err != nil {
		s.logger.Warn("Item analysis cache write failed", "error", err, "key", key)
	}
	return &report, nil
}

func (s *analysisService) GetClassResults(ctx context.Context, quizID, classID uint, teacherID string) (*ClassResults, error) {
	quiz, err := s.ownedQuiz(ctx, quizID, teacherID)
	if err != nil {
		return nil, err
	}

	submissions, err := s.repo.Submission().GetByQuizAndClass(ctx, quizID, classID)
	if err != nil {
		return nil, fmt.Errorf("failed to load submissions: %w", err)
	}

	ids := make([]string, 0, len(submissions))
	seen := make(map[string]bool, len(submissions))
	for _, sub := range submissions {
		if !seen[sub.StudentID] {
			seen[sub.StudentID] = true
			ids = append(ids, sub.StudentID)
		}
	}

	users, err := s.repo.User().GetByIDs(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to load students: %w", err)
	}
	byID := make(map[string]*models.User, len(users))
	for _, u := range users {
		byID[u.ID] = u
	}

	results := &ClassResults{
		QuizID:      quizID,
		QuizTitle:   quiz.Title,
		ClassID:     classID,
		TotalPoints: quiz.TotalPoints,
		Rows:        make([]ClassResultRow, 0, len(submissions)),
	}
	for _, sub := range submissions {
		row := ClassResultRow{
			StudentID:             sub.StudentID,
			AttemptNumber:         sub.AttemptNumber,
			CorrectCount:          sub.CorrectCount,
			CorrectPoints:         sub.CorrectPoints,
			TotalPoints:           sub.TotalPoints,
			RawScorePercentage:    sub.RawScorePercentage,
			Base50ScorePercentage: sub.Base50ScorePercentage,
			FlaggedForReview:      sub.AntiCheatData.Data().FlaggedForReview,
		}
		submittedAt := sub.SubmittedAt
		row.SubmittedAt = &submittedAt
		if u, ok := byID[sub.StudentID]; ok {
			row.StudentName = u.FullName
			if u.StudentNo != nil {
				row.StudentNo = *u.StudentNo
			}
		}
		results.Rows = append(results.Rows, row)
	}
	return results, nil
}

// Invalidate drops every cached report for the quiz across all classes.
func (s *analysisService) Invalidate(ctx context.Context, quizID uint) {
	pattern := fmt.Sprintf("item_analysis:quiz:%d:*", quizID)
	if err := s.cache.DeletePattern(ctx, pattern); err != nil {
		s.logger.Warn("Item analysis cache invalidation failed", "error", err, "quiz_id", quizID)
	}
}

func (s *analysisService) ownedQuiz(ctx context.Context, quizID uint, teacherID string) (*models.Quiz, error) {
	quiz, err := s.repo.Quiz().GetByID(ctx, quizID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrQuizNotFound
		}
		return nil, fmt.Errorf("failed to get quiz: %w", err)
	}
	if quiz.TeacherID != teacherID {
		return nil, NewPermissionError(teacherID, quizID, "quiz", "view_results", "not the quiz owner")
	}
	return quiz, nil
}

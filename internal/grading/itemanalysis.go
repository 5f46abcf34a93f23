package grading

import (
	"fmt"
	"math"
	"sort"

	"github.com/quizdeck/assessment-service/internal/models"
)

type ItemQuality string

const (
	QualityGood    ItemQuality = "good"
	QualityRevise  ItemQuality = "revise"
	QualityDiscard ItemQuality = "discard"
)

// ItemReport is the per-question row of an item analysis.
type ItemReport struct {
	QuestionNumber      int                 `json:"question_number"`
	QuestionText        string              `json:"question_text"`
	Type                models.QuestionType `json:"type"`
	Points              int                 `json:"points"`
	CorrectCount        int                 `json:"correct_count"`
	TotalStudents       int                 `json:"total_students"`
	PercentCorrect      int                 `json:"percent_correct"`
	DifficultyIndex     float64             `json:"difficulty_index"`
	DiscriminationIndex float64             `json:"discrimination_index"`
	Quality             ItemQuality         `json:"quality"`
}

// AnalysisReport is the full per-(quiz, class) item analysis.
type AnalysisReport struct {
	TotalStudents      int          `json:"total_students"`
	AverageRawScore    int          `json:"average_raw_score"`
	AverageBase50Score int          `json:"average_base50_score"`
	Items              []ItemReport `json:"items"`
	LowPerformers      []string     `json:"low_performers"` // questions below 50% correct, as "Qn"
	TopPerformers      []string     `json:"top_performers"` // questions at 100% correct
}

// Analyze computes difficulty, discrimination and a Hopkins & Antes quality
// verdict for every question, given all submissions of one (quiz, class)
// pair. Submissions are taken as-is; callers filter by class beforehand.
func Analyze(questions []models.Question, submissions []*models.Submission) AnalysisReport {
	report := AnalysisReport{
		Items:         make([]ItemReport, 0, len(questions)),
		LowPerformers: []string{},
		TopPerformers: []string{},
		TotalStudents: len(submissions),
	}
	if len(submissions) == 0 {
		return report
	}

	for i, q := range questions {
		correct := 0
		for _, sub := range submissions {
			answer, ok := sub.Answers.Data()[i]
			if !ok || answer == "" {
				continue
			}
			if IsCorrect(q, answer) {
				correct++
			}
		}

		percentCorrect := float64(correct) / float64(len(submissions)) * 100
		difficulty := percentCorrect / 100

		item := ItemReport{
			QuestionNumber:      i + 1,
			QuestionText:        q.Question,
			Type:                q.Type,
			Points:              q.Points,
			CorrectCount:        correct,
			TotalStudents:       len(submissions),
			PercentCorrect:      int(math.Round(percentCorrect)),
			DifficultyIndex:     round2(difficulty),
			DiscriminationIndex: discriminationIndex(submissions, i, q),
			Quality:             classifyItem(difficulty),
		}
		report.Items = append(report.Items, item)

		if item.PercentCorrect < 50 {
			report.LowPerformers = append(report.LowPerformers, fmt.Sprintf("Q%d", item.QuestionNumber))
		}
		if item.PercentCorrect == 100 {
			report.TopPerformers = append(report.TopPerformers, fmt.Sprintf("Q%d", item.QuestionNumber))
		}
	}

	rawSum, base50Sum := 0, 0
	for _, sub := range submissions {
		rawSum += sub.RawScorePercentage
		base50Sum += sub.Base50ScorePercentage
	}
	report.AverageRawScore = int(math.Round(float64(rawSum) / float64(len(submissions))))
	report.AverageBase50Score = int(math.Round(float64(base50Sum) / float64(len(submissions))))

	return report
}

// discriminationIndex splits submissions into an upper and lower half by
// overall raw score (stable sort, ties keep input order; upper half takes
// ceil(n/2)) and returns the difference of per-half correct fractions.
// Requires at least 2 submissions, otherwise 0.
func discriminationIndex(submissions []*models.Submission, questionIndex int, q models.Question) float64 {
	if len(submissions) < 2 {
		return 0
	}

	type scored struct {
		correct  bool
		rawScore int
	}
	scores := make([]scored, 0, len(submissions))
	for _, sub := range submissions {
		answer, ok := sub.Answers.Data()[questionIndex]
		correct := ok && answer != "" && IsCorrect(q, answer)
		scores = append(scores, scored{correct: correct, rawScore: sub.RawScorePercentage})
	}

	sort.SliceStable(scores, func(a, b int) bool {
		return scores[a].rawScore > scores[b].rawScore
	})

	upper := (len(scores) + 1) / 2
	lower := len(scores) - upper

	upperCorrect, lowerCorrect := 0, 0
	for i, s := range scores {
		if !s.correct {
			continue
		}
		if i < upper {
			upperCorrect++
		} else {
			lowerCorrect++
		}
	}

	return round2(float64(upperCorrect)/float64(upper) - float64(lowerCorrect)/float64(lower))
}

// classifyItem places a difficulty index into the Hopkins & Antes bands.
func classifyItem(difficulty float64) ItemQuality {
	switch {
	case difficulty >= 0.86:
		return QualityDiscard // too easy
	case difficulty >= 0.71 && difficulty <= 0.85:
		return QualityRevise
	case difficulty >= 0.30 && difficulty <= 0.70:
		return QualityGood
	case difficulty >= 0.15 && difficulty <= 0.29:
		return QualityRevise
	case difficulty < 0.15:
		return QualityDiscard // too hard
	default:
		return QualityRevise
	}
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

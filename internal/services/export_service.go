package services

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/xuri/excelize/v2"

	"github.com/quizdeck/assessment-service/internal/grading"
)

// ExportService renders class results and item analysis as an Excel
// workbook for offline review.
type ExportService interface {
	ExportClassResults(ctx context.Context, quizID, classID uint, teacherID string) ([]byte, error)
}

type exportService struct {
	analysis AnalysisService
	logger   *slog.Logger
}

func NewExportService(analysis AnalysisService, logger *slog.Logger) ExportService {
	return &exportService{
		analysis: analysis,
		logger:   logger,
	}
}

func (s *exportService) ExportClassResults(ctx context.Context, quizID, classID uint, teacherID string) ([]byte, error) {
	results, err := s.analysis.GetClassResults(ctx, quizID, classID, teacherID)
	if err != nil {
		return nil, err
	}
	report, err := s.analysis.GetItemAnalysis(ctx, quizID, classID, teacherID)
	if err != nil {
		return nil, err
	}

	f := excelize.NewFile()

	if err := s.writeResultsSheet(f, results); err != nil {
		return nil, err
	}
	if err := s.writeAnalysisSheet(f, report); err != nil {
		return nil, err
	}

	// Drop the default sheet left by NewFile.
	if err := f.DeleteSheet("Sheet1"); err != nil {
		return nil, fmt.Errorf("failed to remove default sheet: %w", err)
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("failed to write Excel file: %w", err)
	}

	s.logger.Info("Exported class results",
		"quiz_id", quizID,
		"class_id", classID,
		"rows", len(results.Rows))
	return buf.Bytes(), nil
}

func (s *exportService) writeResultsSheet(f *excelize.File, results *ClassResults) error {
	sheetName := "Results"
	index, err := f.NewSheet(sheetName)
	if err != nil {
		return fmt.Errorf("failed to create Excel sheet: %w", err)
	}
	f.SetActiveSheet(index)

	headers := []string{
		"Student No", "Student Name", "Attempt", "Correct", "Points",
		"Total Points", "Raw Score %", "Base-50 Score %", "Flagged", "Submitted At",
	}
	for i, header := range headers {
		cell := fmt.Sprintf("%c1", 'A'+i)
		f.SetCellValue(sheetName, cell, header)
	}

	for rowIndex, row := range results.Rows {
		submittedAt := ""
		if row.SubmittedAt != nil {
			submittedAt = row.SubmittedAt.Format("2006-01-02 15:04:05")
		}
		values := []interface{}{
			row.StudentNo, row.StudentName, row.AttemptNumber, row.CorrectCount,
			row.CorrectPoints, row.TotalPoints, row.RawScorePercentage,
			row.Base50ScorePercentage, row.FlaggedForReview, submittedAt,
		}
		for colIndex, value := range values {
			cell := fmt.Sprintf("%c%d", 'A'+colIndex, rowIndex+2)
			f.SetCellValue(sheetName, cell, value)
		}
	}
	return nil
}

func (s *exportService) writeAnalysisSheet(f *excelize.File, report *grading.AnalysisReport) error {
	sheetName := "Item Analysis"
	if _, err := f.NewSheet(sheetName); err != nil {
		return fmt.Errorf("failed to create Excel sheet: %w", err)
	}

	headers := []string{
		"Question", "Type", "Points", "Correct", "Students",
		"% Correct", "Difficulty", "Discrimination", "Verdict",
	}
	for i, header := range headers {
		cell := fmt.Sprintf("%c1", 'A'+i)
		f.SetCellValue(sheetName, cell, header)
	}

	for rowIndex, item := range report.Items {
		values := []interface{}{
			fmt.Sprintf("Q%d: %s", item.QuestionNumber, item.QuestionText),
			string(item.Type), item.Points, item.CorrectCount, item.TotalStudents,
			item.PercentCorrect, item.DifficultyIndex, item.DiscriminationIndex,
			string(item.Quality),
		}
		for colIndex, value := range values {
			cell := fmt.Sprintf("%c%d", 'A'+colIndex, rowIndex+2)
			f.SetCellValue(sheetName, cell, value)
		}
	}
	return nil
}

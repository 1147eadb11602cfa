package services

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/xuri/excelize/v2"
)

type exportService struct {
	progress ProgressService
	logger   *slog.Logger
}

func NewExportService(progress ProgressService, logger *slog.Logger) ExportService {
	return &exportService{
		progress: progress,
		logger:   logger,
	}
}

// ExportProgress renders the student's learning progress as an xlsx workbook
// with a summary sheet and one score history sheet per company. Returns the
// file contents and a suggested filename.
func (s *exportService) ExportProgress(ctx context.Context, studentID string) ([]byte, string, error) {
	s.logger.Info("Exporting learning progress", "student_id", studentID)

	report, err := s.progress.GetLearningProgress(ctx, studentID)
	if err != nil {
		return nil, "", fmt.Errorf("failed to build progress report: %w", err)
	}

	f := excelize.NewFile()
	defer func() {
		if err := f.Close(); err != nil {
			s.logger.Warn("Failed to close workbook", "error", err)
		}
	}()

	if err := s.writeSummarySheet(f, report); err != nil {
		return nil, "", err
	}
	for i := range report.Progress {
		if err := s.writeHistorySheet(f, &report.Progress[i], i); err != nil {
			return nil, "", err
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, "", fmt.Errorf("failed to write workbook: %w", err)
	}

	filename := fmt.Sprintf("learning-progress-%s.xlsx", studentID)
	return buf.Bytes(), filename, nil
}

func (s *exportService) writeSummarySheet(f *excelize.File, report *ProgressReport) error {
	const sheet = "Summary"
	if err := f.SetSheetName("Sheet1", sheet); err != nil {
		return fmt.Errorf("failed to rename summary sheet: %w", err)
	}

	headers := []string{"Company", "Status", "Difficulty", "Practice Attempts", "Best Score", "Improvement %", "Retake Eligible"}
	for i, h := range headers {
		cell, err := excelize.CoordinatesToCellName(i+1, 1)
		if err != nil {
			return err
		}
		if err := f.SetCellValue(sheet, cell, h); err != nil {
			return err
		}
	}

	for row, progress := range report.Progress {
		values := []interface{}{
			progress.CompanyName,
			string(progress.QualificationStatus),
			string(progress.CurrentDifficulty),
			progress.PracticeAttempts,
			progress.BestPracticeScore,
			progress.ImprovementPercentage,
			progress.RetakeEligible,
		}
		for col, v := range values {
			cell, err := excelize.CoordinatesToCellName(col+1, row+2)
			if err != nil {
				return err
			}
			if err := f.SetCellValue(sheet, cell, v); err != nil {
				return err
			}
		}
	}

	statsRow := len(report.Progress) + 3
	stats := [][2]interface{}{
		{"Active Companies", report.Stats.TotalActive},
		{"Qualified Companies", report.Stats.TotalQualified},
		{"Average Improvement %", report.Stats.AvgImprovement},
	}
	for i, pair := range stats {
		labelCell, err := excelize.CoordinatesToCellName(1, statsRow+i)
		if err != nil {
			return err
		}
		valueCell, err := excelize.CoordinatesToCellName(2, statsRow+i)
		if err != nil {
			return err
		}
		if err := f.SetCellValue(sheet, labelCell, pair[0]); err != nil {
			return err
		}
		if err := f.SetCellValue(sheet, valueCell, pair[1]); err != nil {
			return err
		}
	}

	return nil
}

func (s *exportService) writeHistorySheet(f *excelize.File, progress *CompanyProgress, index int) error {
	// Sheet names cap at 31 chars; the index keeps truncated names unique.
	sheet := fmt.Sprintf("%d %s", index+1, progress.CompanyName)
	if len(sheet) > 31 {
		sheet = sheet[:31]
	}
	if _, err := f.NewSheet(sheet); err != nil {
		return fmt.Errorf("failed to create sheet for %s: %w", progress.CompanyName, err)
	}

	headers := []string{"Attempt", "Score", "Difficulty", "Recorded At"}
	for i, h := range headers {
		cell, err := excelize.CoordinatesToCellName(i+1, 1)
		if err != nil {
			return err
		}
		if err := f.SetCellValue(sheet, cell, h); err != nil {
			return err
		}
	}

	for row, point := range progress.Timeline {
		recordedAt := ""
		if point.RecordedAt != nil {
			recordedAt = point.RecordedAt.Format("2006-01-02 15:04")
		}
		values := []interface{}{
			point.AttemptNumber,
			point.Score,
			string(point.Difficulty),
			recordedAt,
		}
		for col, v := range values {
			cell, err := excelize.CoordinatesToCellName(col+1, row+2)
			if err != nil {
				return err
			}
			if err := f.SetCellValue(sheet, cell, v); err != nil {
				return err
			}
		}
	}

	return nil
}

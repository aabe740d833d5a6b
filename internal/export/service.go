package export

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/joseph-ayodele/kyc-extractor/internal/entity"
	"github.com/joseph-ayodele/kyc-extractor/internal/repository"
)

const SheetName = "Candidates"

// Headers is the first row of every export.
var Headers = []string{
	"ID",
	"Name",
	"Gender",
	"Date of Birth",
	"Father's Name",
	"Aadhaar Number",
	"PAN Number",
	"Street Address",
	"Updated At",
}

// Service produces XLSX bytes for candidate exports.
type Service struct {
	repo   repository.CandidateRepository
	logger *slog.Logger
}

func NewService(repo repository.CandidateRepository, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{repo: repo, logger: logger}
}

// ExportCandidatesXLSX returns a workbook of stored candidates, filtered on the day
// each row was last updated.
// If only from is provided -> from..today (inclusive).
// If only to is provided   -> beginning..to (inclusive).
// If neither is provided   -> every candidate.
func (s *Service) ExportCandidatesXLSX(ctx context.Context, from, to *time.Time) ([]byte, error) {
	start := time.Now()

	fromDate, toDate := window(from, to)
	all, err := s.repo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("query candidates: %w", err)
	}
	recs := make([]*entity.Candidate, 0, len(all))
	for _, c := range all {
		day := dateOnly(c.UpdatedAt)
		if fromDate != nil && day.Before(*fromDate) {
			continue
		}
		if toDate != nil && day.After(*toDate) {
			continue
		}
		recs = append(recs, c)
	}

	f := excelize.NewFile()
	defer func() { _ = f.Close() }()
	if err := f.SetSheetName("Sheet1", SheetName); err != nil {
		return nil, err
	}

	for i, h := range Headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		_ = f.SetCellValue(SheetName, cell, h)
	}

	row := 2
	for _, c := range recs {
		write := func(col int, v any) {
			cell, _ := excelize.CoordinatesToCellName(col, row)
			_ = f.SetCellValue(SheetName, cell, v)
		}
		write(1, c.ID)
		write(2, deref(c.Name))
		write(3, deref(c.Gender))
		write(4, deref(c.DateOfBirth))
		write(5, deref(c.FathersName))
		write(6, deref(c.AadharNo))
		write(7, deref(c.PanNo))
		write(8, deref(c.StreetAddress))
		write(9, c.UpdatedAt.UTC().Format(time.RFC3339))
		row++
	}

	_ = f.SetColWidth(SheetName, "A", "A", 8)
	_ = f.SetColWidth(SheetName, "B", "B", 28)
	_ = f.SetColWidth(SheetName, "C", "D", 14)
	_ = f.SetColWidth(SheetName, "E", "E", 28)
	_ = f.SetColWidth(SheetName, "F", "G", 18)
	_ = f.SetColWidth(SheetName, "H", "H", 60)
	_ = f.SetColWidth(SheetName, "I", "I", 22)

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("xlsx write: %w", err)
	}

	s.logger.Info("export.xlsx.ok",
		"rows", len(recs),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return buf.Bytes(), nil
}

// window normalizes the bounds to UTC dates and fills in "today" for an open end.
func window(from, to *time.Time) (*time.Time, *time.Time) {
	var fromDate, toDate *time.Time
	if from != nil {
		f := dateOnly(*from)
		fromDate = &f
	}
	if to != nil {
		t := dateOnly(*to)
		toDate = &t
	}
	if fromDate != nil && toDate == nil {
		t := dateOnly(time.Now())
		toDate = &t
	}
	return fromDate, toDate
}

func dateOnly(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

package service

import (
	"bytes"
	"fmt"
	"time"

	"github.com/xuri/excelize/v2"
)

// reportPageSize bounds how many quota records are loaded per page while
// building the export.
const reportPageSize = 500

// ReportService builds the admin xlsx export of quota usage.
type ReportService struct {
	limits *RetrievalLimitService
}

// NewReportService создает новый сервис отчетов
func NewReportService(limits *RetrievalLimitService) (*ReportService, error) {
	if limits == nil {
		return nil, fmt.Errorf("retrieval limit service is required")
	}
	return &ReportService{limits: limits}, nil
}

// BuildQuotaReport renders every quota record plus the aggregate stats into
// a spreadsheet and returns the serialized bytes.
func (s *ReportService) BuildQuotaReport(now time.Time) (*bytes.Buffer, error) {
	f := excelize.NewFile()
	defer f.Close()

	const sheet = "Sheet1"
	headers := []string{"User ID", "Files Retrieved", "Verification Required", "Last Reset", "Updated At"}
	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		if err := f.SetCellValue(sheet, cell, h); err != nil {
			return nil, fmt.Errorf("failed to write report header: %w", err)
		}
	}

	row := 2
	offset := 0
	for {
		records, err := s.limits.ListRecords(reportPageSize, offset)
		if err != nil {
			return nil, fmt.Errorf("failed to list quota records: %w", err)
		}
		if len(records) == 0 {
			break
		}
		for _, record := range records {
			values := []interface{}{
				record.UserID,
				record.FilesRetrieved,
				record.VerificationRequired,
				record.LastReset.Format(time.RFC3339),
				record.UpdatedAt.Format(time.RFC3339),
			}
			for i, v := range values {
				cell, _ := excelize.CoordinatesToCellName(i+1, row)
				if err := f.SetCellValue(sheet, cell, v); err != nil {
					return nil, fmt.Errorf("failed to write report row: %w", err)
				}
			}
			row++
		}
		offset += len(records)
	}

	stats, err := s.limits.Stats()
	if err != nil {
		return nil, fmt.Errorf("failed to load quota stats: %w", err)
	}
	summary := [][2]interface{}{
		{"Generated At", now.Format(time.RFC3339)},
		{"Total Users", stats.TotalUsers},
		{"Users Needing Verification", stats.UsersNeedingVerification},
		{"Average Files Retrieved", stats.AverageFilesRetrieved},
		{"System Enabled", stats.SystemEnabled},
		{"Current File Limit", stats.CurrentFileLimit},
	}
	row++
	for _, pair := range summary {
		keyCell, _ := excelize.CoordinatesToCellName(1, row)
		valCell, _ := excelize.CoordinatesToCellName(2, row)
		if err := f.SetCellValue(sheet, keyCell, pair[0]); err != nil {
			return nil, err
		}
		if err := f.SetCellValue(sheet, valCell, pair[1]); err != nil {
			return nil, err
		}
		row++
	}

	return f.WriteToBuffer()
}

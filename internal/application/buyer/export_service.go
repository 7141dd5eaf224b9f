package buyer

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"strings"
	"time"

	"github.com/crm/backend/internal/domain/buyer"
	"github.com/crm/backend/internal/domain/shared"
	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"
)

// Export formats
const (
	FormatCSV  = "csv"
	FormatXLSX = "xlsx"
)

var exportHeader = []string{
	"Full Name", "Email", "Phone", "City", "Property Type", "BHK", "Purpose",
	"Budget", "Timeline", "Source", "Status", "Notes", "Created At", "Last Updated",
}

// ExportResult is a rendered export file ready to stream to the client
type ExportResult struct {
	FileName    string
	ContentType string
	Data        []byte
}

// ExportService renders filtered lead lists as CSV or XLSX downloads
type ExportService struct {
	buyerRepo buyer.Repository
	logger    *zap.Logger
}

// NewExportService creates a new ExportService
func NewExportService(buyerRepo buyer.Repository, logger *zap.Logger) *ExportService {
	return &ExportService{buyerRepo: buyerRepo, logger: logger}
}

// Export fetches every lead matching the filter and renders it in the
// requested format. An empty result set is an error so the client gets a 404
// instead of an empty file.
func (s *ExportService) Export(ctx context.Context, f buyer.SearchFilter, format string) (*ExportResult, error) {
	if format == "" {
		format = FormatCSV
	}
	if format != FormatCSV && format != FormatXLSX {
		return nil, shared.NewDomainError("INVALID_INPUT", "Unsupported export format: "+format)
	}

	f = f.Normalize()
	leads, err := s.buyerRepo.SearchAll(ctx, f)
	if err != nil {
		return nil, err
	}
	if len(leads) == 0 {
		return nil, shared.NewDomainError("NOT_FOUND", "No leads match the given filters")
	}

	s.logger.Info("Exporting leads",
		zap.Int("count", len(leads)),
		zap.String("format", format),
	)

	stamp := time.Now().UTC().Format("2006-01-02")
	switch format {
	case FormatXLSX:
		data, err := renderXLSX(leads)
		if err != nil {
			return nil, err
		}
		return &ExportResult{
			FileName:    fmt.Sprintf("leads-%s.xlsx", stamp),
			ContentType: "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
			Data:        data,
		}, nil
	default:
		data, err := renderCSV(leads)
		if err != nil {
			return nil, err
		}
		return &ExportResult{
			FileName:    fmt.Sprintf("leads-%s.csv", stamp),
			ContentType: "text/csv",
			Data:        data,
		}, nil
	}
}

func renderCSV(leads []*buyer.Buyer) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)

	if err := w.Write(exportHeader); err != nil {
		return nil, fmt.Errorf("failed to write CSV header: %w", err)
	}
	for _, b := range leads {
		if err := w.Write(exportRow(b)); err != nil {
			return nil, fmt.Errorf("failed to write CSV row: %w", err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, fmt.Errorf("failed to flush CSV: %w", err)
	}
	return buf.Bytes(), nil
}

func renderXLSX(leads []*buyer.Buyer) ([]byte, error) {
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	const sheet = "Leads"
	index, err := f.NewSheet(sheet)
	if err != nil {
		return nil, fmt.Errorf("failed to create sheet: %w", err)
	}
	f.SetActiveSheet(index)
	if err := f.DeleteSheet("Sheet1"); err != nil {
		return nil, fmt.Errorf("failed to drop default sheet: %w", err)
	}

	header := make([]any, len(exportHeader))
	for i, h := range exportHeader {
		header[i] = h
	}
	if err := f.SetSheetRow(sheet, "A1", &header); err != nil {
		return nil, fmt.Errorf("failed to write header row: %w", err)
	}

	for i, b := range leads {
		row := exportRow(b)
		cells := make([]any, len(row))
		for j, v := range row {
			cells[j] = v
		}
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return nil, fmt.Errorf("failed to compute cell name: %w", err)
		}
		if err := f.SetSheetRow(sheet, cell, &cells); err != nil {
			return nil, fmt.Errorf("failed to write row %d: %w", i+2, err)
		}
	}

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, fmt.Errorf("failed to render xlsx: %w", err)
	}
	return buf.Bytes(), nil
}

func exportRow(b *buyer.Buyer) []string {
	return []string{
		b.FullName,
		strValue(b.Email),
		b.Phone,
		string(b.City),
		string(b.PropertyType),
		bhkValue(b.BHK),
		string(b.Purpose),
		formatBudget(b.BudgetMin, b.BudgetMax),
		string(b.Timeline),
		string(b.Source),
		string(b.Status),
		strValue(b.Notes),
		b.CreatedAt.UTC().Format(time.RFC3339),
		b.UpdatedAt.UTC().Format(time.RFC3339),
	}
}

// formatBudget renders the budget window as one display column
func formatBudget(min, max *int64) string {
	switch {
	case min != nil && max != nil:
		return fmt.Sprintf("%d - %d", *min, *max)
	case min != nil:
		return fmt.Sprintf("%d+", *min)
	case max != nil:
		return fmt.Sprintf("Up to %d", *max)
	default:
		return ""
	}
}

func strValue(p *string) string {
	if p == nil {
		return ""
	}
	return strings.TrimSpace(*p)
}

func bhkValue(p *buyer.BHK) string {
	if p == nil {
		return ""
	}
	return string(*p)
}

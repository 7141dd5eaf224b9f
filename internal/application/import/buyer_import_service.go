package importapp

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"sync"

	"github.com/crm/backend/internal/domain/buyer"
	"github.com/crm/backend/internal/domain/shared"
	"github.com/crm/backend/internal/infrastructure/config"
	csvimport "github.com/crm/backend/internal/infrastructure/import"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// buyerColumns is the expected CSV header set. Optional columns may be
// missing entirely; required ones must be present in the header.
var requiredColumns = []string{
	"fullName", "phone", "city", "propertyType", "purpose", "timeline", "source",
}

// timelineCodes maps the CSV shorthand used by exported sheets onto the
// stored vocabulary. The stored values are also accepted as-is.
var timelineCodes = map[string]string{
	"0-3m":      string(buyer.TimelineZeroToThree),
	"3-6m":      string(buyer.TimelineThreeToSix),
	">6m":       string(buyer.TimelineMoreThanSix),
	"exploring": string(buyer.TimelineExploring),
}

// BuyerImportSummary is the partial-success report of one import run
type BuyerImportSummary struct {
	Total        int                  `json:"total"`
	SuccessCount int                  `json:"successCount"`
	ErrorCount   int                  `json:"errorCount"`
	Errors       []csvimport.RowError `json:"errors"`
}

// BuyerImportService imports leads from an uploaded CSV file. Structural
// problems reject the whole file; row-level problems only reject their row.
type BuyerImportService struct {
	buyerRepo buyer.Repository
	cfg       config.ImportConfig
	logger    *zap.Logger
}

// NewBuyerImportService creates a new BuyerImportService
func NewBuyerImportService(buyerRepo buyer.Repository, cfg config.ImportConfig, logger *zap.Logger) *BuyerImportService {
	return &BuyerImportService{
		buyerRepo: buyerRepo,
		cfg:       cfg,
		logger:    logger,
	}
}

// Import parses and imports the file on behalf of ownerID. Every imported
// lead starts as New and belongs to the importer, exactly like the intake
// form. The returned summary reports per-row failures with their original
// file row numbers (header is row 1).
func (s *BuyerImportService) Import(ctx context.Context, ownerID uuid.UUID, data []byte) (*BuyerImportSummary, error) {
	if int64(len(data)) > s.cfg.MaxFileSize {
		return nil, shared.NewDomainError("IMPORT_STRUCTURE",
			fmt.Sprintf("File exceeds the maximum size of %d bytes", s.cfg.MaxFileSize))
	}

	parser, err := csvimport.NewParserFromBytes(data)
	if err != nil {
		return nil, shared.NewDomainError("IMPORT_STRUCTURE", err.Error())
	}
	if err := parser.ParseHeader(); err != nil {
		return nil, shared.NewDomainError("IMPORT_STRUCTURE", err.Error())
	}
	if missing := parser.MissingHeaders(requiredColumns); len(missing) > 0 {
		return nil, shared.NewDomainError("IMPORT_STRUCTURE",
			"Missing required columns: "+strings.Join(missing, ", "))
	}

	rows, err := parser.ReadAllRows()
	if err != nil {
		return nil, shared.NewDomainError("IMPORT_STRUCTURE", err.Error())
	}
	if len(rows) == 0 {
		return nil, shared.NewDomainError("IMPORT_STRUCTURE", "File contains no data rows")
	}
	if len(rows) > s.cfg.MaxRows {
		return nil, shared.NewDomainError("IMPORT_STRUCTURE",
			fmt.Sprintf("File has %d data rows, the maximum is %d", len(rows), s.cfg.MaxRows))
	}

	// One snapshot of stored emails up front; the seen-set then absorbs
	// both DB duplicates and duplicates within the batch itself.
	seenEmails, err := s.buyerRepo.ExistingEmails(ctx)
	if err != nil {
		return nil, err
	}
	var seenMu sync.Mutex

	summary := &BuyerImportSummary{
		Total:  len(rows),
		Errors: []csvimport.RowError{},
	}

	for _, row := range rows {
		if err := s.importRow(ctx, ownerID, row, seenEmails, &seenMu); err != nil {
			summary.ErrorCount++
			summary.Errors = append(summary.Errors, rowError(row, err))
			continue
		}
		summary.SuccessCount++
	}

	s.logger.Info("Import finished",
		zap.String("owner_id", ownerID.String()),
		zap.Int("total", summary.Total),
		zap.Int("success", summary.SuccessCount),
		zap.Int("errors", summary.ErrorCount),
	)

	return summary, nil
}

func (s *BuyerImportService) importRow(ctx context.Context, ownerID uuid.UUID, row *csvimport.Row, seenEmails map[string]bool, seenMu *sync.Mutex) error {
	candidate, err := rowToCandidate(row)
	if err != nil {
		return err
	}

	n, verrs := buyer.Validate(candidate, buyer.ModeImport, nil)
	if len(verrs) > 0 {
		return verrs
	}

	if n.Email != nil {
		email := strings.ToLower(*n.Email)
		seenMu.Lock()
		if seenEmails[email] {
			seenMu.Unlock()
			return shared.NewDomainError("ALREADY_EXISTS", "A lead with this email already exists")
		}
		seenEmails[email] = true
		seenMu.Unlock()
	}

	b := buyer.NewBuyer(n, ownerID)
	entry := buyer.NewHistoryEntry(b.ID, ownerID, buyer.ImportedDiff())

	return s.buyerRepo.Create(ctx, b, entry)
}

// rowToCandidate maps the CSV columns onto a validation candidate, applying
// the CSV-specific conversions: timeline codes, comma-separated tags and
// integer budget columns.
func rowToCandidate(row *csvimport.Row) (buyer.Candidate, error) {
	c := buyer.Candidate{}

	c.FullName = cell(row, "fullName")
	c.Email = cell(row, "email")
	c.Phone = cell(row, "phone")
	c.City = cell(row, "city")
	c.PropertyType = cell(row, "propertyType")
	c.BHK = cell(row, "bhk")
	c.Purpose = cell(row, "purpose")
	c.Status = cell(row, "status")
	c.Notes = cell(row, "notes")
	c.Source = cell(row, "source")

	if v := row.Get("timeline"); v != "" {
		mapped, ok := timelineCodes[v]
		if !ok {
			mapped = v
		}
		c.Timeline = &mapped
	}

	min, err := budgetCell(row, "budgetMin")
	if err != nil {
		return c, err
	}
	c.BudgetMin = min
	c.BudgetMinSet = true

	max, err := budgetCell(row, "budgetMax")
	if err != nil {
		return c, err
	}
	c.BudgetMax = max
	c.BudgetMaxSet = true

	if v := row.Get("tags"); v != "" {
		parts := strings.Split(v, ",")
		tags := make([]string, 0, len(parts))
		for _, p := range parts {
			if p = strings.TrimSpace(p); p != "" {
				tags = append(tags, p)
			}
		}
		c.Tags = tags
		c.TagsSet = true
	}

	return c, nil
}

func cell(row *csvimport.Row, column string) *string {
	v := row.Get(column)
	return &v
}

func budgetCell(row *csvimport.Row, column string) (*int64, error) {
	v := row.Get(column)
	if v == "" {
		return nil, nil
	}
	parsed, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return nil, buyer.ValidationErrors{{Field: column, Message: "must be a whole number"}}
	}
	return &parsed, nil
}

// rowError flattens whatever failed a row into the summary shape, carrying
// the raw row data so the user can fix and re-upload just those rows.
func rowError(row *csvimport.Row, err error) csvimport.RowError {
	re := csvimport.RowError{
		Row:  row.LineNumber,
		Data: row.Data,
	}
	if verrs, ok := err.(buyer.ValidationErrors); ok && len(verrs) > 0 {
		re.Column = verrs[0].Field
		msgs := make([]string, len(verrs))
		for i, ve := range verrs {
			msgs[i] = ve.Field + ": " + ve.Message
		}
		re.Message = strings.Join(msgs, "; ")
		return re
	}
	re.Message = err.Error()
	return re
}

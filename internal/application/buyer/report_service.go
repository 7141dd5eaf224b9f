package buyer

import (
	"context"
	"math"
	"time"

	"github.com/crm/backend/internal/domain/buyer"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// StatusCount is one slice of a breakdown chart
type StatusCount struct {
	Value string `json:"value"`
	Count int64  `json:"count"`
}

// ReportSummary aggregates the dashboard metrics
type ReportSummary struct {
	TotalLeads          int64           `json:"totalLeads"`
	NewThisMonth        int64           `json:"newThisMonth"`
	NewLastMonth        int64           `json:"newLastMonth"`
	MonthlyChange       decimal.Decimal `json:"monthlyChange"`
	ConvertedLeads      int64           `json:"convertedLeads"`
	ConversionRate      decimal.Decimal `json:"conversionRate"`
	AvgConversionDays   int64           `json:"avgConversionDays"`
	AvgDealSize         decimal.Decimal `json:"avgDealSize"`
	LeadsByStatus       []StatusCount   `json:"leadsByStatus"`
	LeadsBySource       []StatusCount   `json:"leadsBySource"`
	LeadsByPropertyType []StatusCount   `json:"leadsByPropertyType"`
}

// ReportService computes dashboard aggregations over the lead store
type ReportService struct {
	buyerRepo buyer.Repository
	logger    *zap.Logger
}

// NewReportService creates a new ReportService
func NewReportService(buyerRepo buyer.Repository, logger *zap.Logger) *ReportService {
	return &ReportService{buyerRepo: buyerRepo, logger: logger}
}

// Summary computes the report metrics as of now
func (s *ReportService) Summary(ctx context.Context) (*ReportSummary, error) {
	return s.summaryAt(ctx, time.Now().UTC())
}

func (s *ReportService) summaryAt(ctx context.Context, now time.Time) (*ReportSummary, error) {
	thisMonth := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)
	lastMonth := thisMonth.AddDate(0, -1, 0)

	total, err := s.buyerRepo.CountAll(ctx)
	if err != nil {
		return nil, err
	}
	newThisMonth, err := s.buyerRepo.CountCreatedBetween(ctx, thisMonth, nil)
	if err != nil {
		return nil, err
	}
	newLastMonth, err := s.buyerRepo.CountCreatedBetween(ctx, lastMonth, &thisMonth)
	if err != nil {
		return nil, err
	}

	byStatus, err := s.buyerRepo.CountByStatus(ctx)
	if err != nil {
		return nil, err
	}
	bySource, err := s.buyerRepo.CountBySource(ctx)
	if err != nil {
		return nil, err
	}
	byPropertyType, err := s.buyerRepo.CountByPropertyType(ctx)
	if err != nil {
		return nil, err
	}

	samples, err := s.buyerRepo.ConversionSamples(ctx)
	if err != nil {
		return nil, err
	}

	var converted int64
	for _, vc := range byStatus {
		if vc.Value == string(buyer.StatusConverted) {
			converted = vc.Count
		}
	}

	summary := &ReportSummary{
		TotalLeads:          total,
		NewThisMonth:        newThisMonth,
		NewLastMonth:        newLastMonth,
		MonthlyChange:       percentChange(newThisMonth, newLastMonth),
		ConvertedLeads:      converted,
		ConversionRate:      percentOf(converted, total),
		AvgConversionDays:   avgConversionDays(samples),
		AvgDealSize:         avgDealSize(samples),
		LeadsByStatus:       toStatusCounts(byStatus),
		LeadsBySource:       toStatusCounts(bySource),
		LeadsByPropertyType: toStatusCounts(byPropertyType),
	}

	return summary, nil
}

// percentChange computes the month-over-month delta. A jump from zero
// reports as 100% rather than dividing by zero.
func percentChange(current, previous int64) decimal.Decimal {
	if previous == 0 {
		if current > 0 {
			return decimal.NewFromInt(100)
		}
		return decimal.Zero
	}
	return decimal.NewFromInt(current - previous).
		Div(decimal.NewFromInt(previous)).
		Mul(decimal.NewFromInt(100)).
		Round(1)
}

func percentOf(part, whole int64) decimal.Decimal {
	if whole == 0 {
		return decimal.Zero
	}
	return decimal.NewFromInt(part).
		Div(decimal.NewFromInt(whole)).
		Mul(decimal.NewFromInt(100)).
		Round(1)
}

// avgConversionDays averages the create-to-convert span, rounding each span
// up to whole days
func avgConversionDays(samples []buyer.ConversionSample) int64 {
	if len(samples) == 0 {
		return 0
	}
	var totalDays int64
	for _, sample := range samples {
		days := int64(math.Ceil(sample.UpdatedAt.Sub(sample.CreatedAt).Hours() / 24))
		if days < 0 {
			days = 0
		}
		totalDays += days
	}
	return totalDays / int64(len(samples))
}

// avgDealSize averages the budget midpoint of converted leads; leads with no
// budget at all are skipped
func avgDealSize(samples []buyer.ConversionSample) decimal.Decimal {
	sum := decimal.Zero
	count := 0
	for _, sample := range samples {
		min, max := sample.BudgetMin, sample.BudgetMax
		if min == nil && max == nil {
			continue
		}
		if min == nil {
			min = max
		}
		if max == nil {
			max = min
		}
		mid := decimal.NewFromInt(*min).Add(decimal.NewFromInt(*max)).Div(decimal.NewFromInt(2))
		sum = sum.Add(mid)
		count++
	}
	if count == 0 {
		return decimal.Zero
	}
	return sum.Div(decimal.NewFromInt(int64(count))).Round(0)
}

func toStatusCounts(values []buyer.ValueCount) []StatusCount {
	out := make([]StatusCount, len(values))
	for i, vc := range values {
		out[i] = StatusCount{Value: vc.Value, Count: vc.Count}
	}
	return out
}

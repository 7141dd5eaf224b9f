package buyer

import (
	"bytes"
	"context"
	"encoding/csv"
	"testing"

	"github.com/crm/backend/internal/domain/buyer"
	"github.com/crm/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"
)

func TestExport(t *testing.T) {
	ctx := context.Background()

	t.Run("CSV carries header and one row per lead", func(t *testing.T) {
		repo := new(MockBuyerRepository)
		svc := NewExportService(repo, zap.NewNop())

		leads := []*buyer.Buyer{storedBuyer(t, uuid.New()), storedBuyer(t, uuid.New())}
		repo.On("SearchAll", mock.Anything, mock.Anything).Return(leads, nil)

		result, err := svc.Export(ctx, buyer.SearchFilter{}, FormatCSV)

		require.NoError(t, err)
		assert.Equal(t, "text/csv", result.ContentType)
		assert.Contains(t, result.FileName, ".csv")

		records, err := csv.NewReader(bytes.NewReader(result.Data)).ReadAll()
		require.NoError(t, err)
		require.Len(t, records, 3)
		assert.Equal(t, exportHeader, records[0])
		assert.Equal(t, "Binod Sharma", records[1][0])
		assert.Equal(t, "5000000 - 7500000", records[1][7])
	})

	t.Run("XLSX round-trips through excelize", func(t *testing.T) {
		repo := new(MockBuyerRepository)
		svc := NewExportService(repo, zap.NewNop())

		leads := []*buyer.Buyer{storedBuyer(t, uuid.New())}
		repo.On("SearchAll", mock.Anything, mock.Anything).Return(leads, nil)

		result, err := svc.Export(ctx, buyer.SearchFilter{}, FormatXLSX)

		require.NoError(t, err)
		assert.Contains(t, result.FileName, ".xlsx")

		f, err := excelize.OpenReader(bytes.NewReader(result.Data))
		require.NoError(t, err)
		defer func() { _ = f.Close() }()

		rows, err := f.GetRows("Leads")
		require.NoError(t, err)
		require.Len(t, rows, 2)
		assert.Equal(t, "Full Name", rows[0][0])
		assert.Equal(t, "Binod Sharma", rows[1][0])
	})

	t.Run("Zero matching rows is not found", func(t *testing.T) {
		repo := new(MockBuyerRepository)
		svc := NewExportService(repo, zap.NewNop())

		repo.On("SearchAll", mock.Anything, mock.Anything).Return([]*buyer.Buyer{}, nil)

		result, err := svc.Export(ctx, buyer.SearchFilter{}, FormatCSV)

		assert.Nil(t, result)
		var domainErr *shared.DomainError
		require.ErrorAs(t, err, &domainErr)
		assert.Equal(t, "NOT_FOUND", domainErr.Code)
	})

	t.Run("Unknown format rejected", func(t *testing.T) {
		repo := new(MockBuyerRepository)
		svc := NewExportService(repo, zap.NewNop())

		result, err := svc.Export(ctx, buyer.SearchFilter{}, "pdf")

		assert.Nil(t, result)
		var domainErr *shared.DomainError
		require.ErrorAs(t, err, &domainErr)
		assert.Equal(t, "INVALID_INPUT", domainErr.Code)
		repo.AssertNotCalled(t, "SearchAll")
	})
}

func TestFormatBudget(t *testing.T) {
	min := int64(5000000)
	max := int64(7500000)

	assert.Equal(t, "5000000 - 7500000", formatBudget(&min, &max))
	assert.Equal(t, "5000000+", formatBudget(&min, nil))
	assert.Equal(t, "Up to 7500000", formatBudget(nil, &max))
	assert.Equal(t, "", formatBudget(nil, nil))
}

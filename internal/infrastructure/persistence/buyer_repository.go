package persistence

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/crm/backend/internal/domain/buyer"
	"github.com/crm/backend/internal/domain/shared"
	"github.com/crm/backend/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// sortColumns maps API sort fields to storage columns
var sortColumns = map[string]string{
	buyer.SortByUpdatedAt: "updated_at",
	buyer.SortByCreatedAt: "created_at",
	buyer.SortByFullName:  "full_name",
	buyer.SortByBudgetMin: "budget_min",
	buyer.SortByBudgetMax: "budget_max",
	buyer.SortByStatus:    "status",
	buyer.SortByCity:      "city",
}

// GormBuyerRepository implements buyer.Repository using GORM. Every mutation
// writes the lead and its history entry inside one transaction.
type GormBuyerRepository struct {
	db *gorm.DB
}

// NewGormBuyerRepository creates a new GormBuyerRepository
func NewGormBuyerRepository(db *gorm.DB) *GormBuyerRepository {
	return &GormBuyerRepository{db: db}
}

// Create stores a new lead and its history entry atomically
func (r *GormBuyerRepository) Create(ctx context.Context, b *buyer.Buyer, entry *buyer.HistoryEntry) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(models.BuyerModelFromDomain(b)).Error; err != nil {
			if isUniqueViolation(err) {
				return shared.ErrAlreadyExists
			}
			return err
		}
		return tx.Create(models.BuyerHistoryModelFromDomain(entry)).Error
	})
}

// Update persists the lead guarded by the updated_at token. On a token
// mismatch nothing is written and the transaction rolls back.
func (r *GormBuyerRepository) Update(ctx context.Context, b *buyer.Buyer, expectedUpdatedAt time.Time, entry *buyer.HistoryEntry) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		model := models.BuyerModelFromDomain(b)
		result := tx.Model(&models.BuyerModel{}).
			Where("id = ? AND updated_at = ?", b.ID, expectedUpdatedAt).
			Select("*").Omit("id", "created_at").
			Updates(model)
		if result.Error != nil {
			if isUniqueViolation(result.Error) {
				return shared.ErrAlreadyExists
			}
			return result.Error
		}
		if result.RowsAffected == 0 {
			var count int64
			if err := tx.Model(&models.BuyerModel{}).Where("id = ?", b.ID).Count(&count).Error; err != nil {
				return err
			}
			if count == 0 {
				return shared.ErrNotFound
			}
			return shared.ErrConcurrencyConflict
		}
		return tx.Create(models.BuyerHistoryModelFromDomain(entry)).Error
	})
}

// SoftDelete marks the lead inactive and appends the history entry
func (r *GormBuyerRepository) SoftDelete(ctx context.Context, b *buyer.Buyer, entry *buyer.HistoryEntry) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Model(&models.BuyerModel{}).
			Where("id = ?", b.ID).
			Select("is_active", "updated_at").
			Updates(map[string]any{"is_active": false, "updated_at": b.UpdatedAt})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return shared.ErrNotFound
		}
		return tx.Create(models.BuyerHistoryModelFromDomain(entry)).Error
	})
}

// HardDelete removes the lead row. The history entry is written in the same
// transaction and deliberately survives the deletion.
func (r *GormBuyerRepository) HardDelete(ctx context.Context, id uuid.UUID, entry *buyer.HistoryEntry) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Delete(&models.BuyerModel{}, "id = ?", id)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return shared.ErrNotFound
		}
		return tx.Create(models.BuyerHistoryModelFromDomain(entry)).Error
	})
}

// FindByID finds a lead by its ID
func (r *GormBuyerRepository) FindByID(ctx context.Context, id uuid.UUID) (*buyer.Buyer, error) {
	var model models.BuyerModel
	if err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// Search executes a normalized filter and returns one page plus the total
// match count
func (r *GormBuyerRepository) Search(ctx context.Context, f buyer.SearchFilter) ([]*buyer.Buyer, int64, error) {
	var total int64
	countQuery := r.applyFilter(r.db.WithContext(ctx).Model(&models.BuyerModel{}), f)
	if err := countQuery.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var rows []models.BuyerModel
	query := r.applyOrder(r.applyFilter(r.db.WithContext(ctx).Model(&models.BuyerModel{}), f), f).
		Offset(f.Offset()).Limit(f.Limit)
	if err := query.Find(&rows).Error; err != nil {
		return nil, 0, err
	}

	return toDomainBuyers(rows), total, nil
}

// SearchAll returns every matching lead without pagination, in filter order
func (r *GormBuyerRepository) SearchAll(ctx context.Context, f buyer.SearchFilter) ([]*buyer.Buyer, error) {
	query := r.applyOrder(r.applyFilter(r.db.WithContext(ctx).Model(&models.BuyerModel{}), f), f)

	var rows []models.BuyerModel
	if err := query.Find(&rows).Error; err != nil {
		return nil, err
	}
	return toDomainBuyers(rows), nil
}

// ExistsByEmail checks if a lead already uses the email
func (r *GormBuyerRepository) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.BuyerModel{}).
		Where("LOWER(email) = ?", strings.ToLower(email)).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// ExistingEmails returns the lowercased set of stored emails
func (r *GormBuyerRepository) ExistingEmails(ctx context.Context) (map[string]bool, error) {
	var emails []string
	err := r.db.WithContext(ctx).
		Model(&models.BuyerModel{}).
		Where("email IS NOT NULL").
		Pluck("email", &emails).Error
	if err != nil {
		return nil, err
	}

	set := make(map[string]bool, len(emails))
	for _, e := range emails {
		set[strings.ToLower(e)] = true
	}
	return set, nil
}

// FilterOptions returns the distinct stored values for every filterable
// dimension, each in ascending order
func (r *GormBuyerRepository) FilterOptions(ctx context.Context) (*buyer.FilterOptions, error) {
	opts := &buyer.FilterOptions{}
	for column, dest := range map[string]*[]string{
		"city":          &opts.Cities,
		"property_type": &opts.PropertyTypes,
		"purpose":       &opts.Purposes,
		"timeline":      &opts.Timelines,
		"source":        &opts.Sources,
		"status":        &opts.Statuses,
	} {
		err := r.db.WithContext(ctx).
			Model(&models.BuyerModel{}).
			Distinct(column).
			Order(column + " ASC").
			Pluck(column, dest).Error
		if err != nil {
			return nil, err
		}
	}
	return opts, nil
}

// CountAll returns the total number of leads
func (r *GormBuyerRepository) CountAll(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.BuyerModel{}).Count(&count).Error
	return count, err
}

// CountCreatedBetween counts leads created in [from, to); a nil upper bound
// means no upper bound
func (r *GormBuyerRepository) CountCreatedBetween(ctx context.Context, from time.Time, to *time.Time) (int64, error) {
	query := r.db.WithContext(ctx).Model(&models.BuyerModel{}).Where("created_at >= ?", from)
	if to != nil {
		query = query.Where("created_at < ?", *to)
	}
	var count int64
	err := query.Count(&count).Error
	return count, err
}

// CountByStatus groups leads by pipeline stage
func (r *GormBuyerRepository) CountByStatus(ctx context.Context) ([]buyer.ValueCount, error) {
	return r.countByColumn(ctx, "status")
}

// CountBySource groups leads by acquisition channel
func (r *GormBuyerRepository) CountBySource(ctx context.Context) ([]buyer.ValueCount, error) {
	return r.countByColumn(ctx, "source")
}

// CountByPropertyType groups leads by property type
func (r *GormBuyerRepository) CountByPropertyType(ctx context.Context) ([]buyer.ValueCount, error) {
	return r.countByColumn(ctx, "property_type")
}

func (r *GormBuyerRepository) countByColumn(ctx context.Context, column string) ([]buyer.ValueCount, error) {
	var results []struct {
		Value string
		Count int64
	}
	err := r.db.WithContext(ctx).
		Model(&models.BuyerModel{}).
		Select(column + " AS value, COUNT(*) AS count").
		Group(column).
		Order("count DESC").
		Scan(&results).Error
	if err != nil {
		return nil, err
	}

	counts := make([]buyer.ValueCount, len(results))
	for i, row := range results {
		counts[i] = buyer.ValueCount{Value: row.Value, Count: row.Count}
	}
	return counts, nil
}

// ConversionSamples returns the timing and budget fields of converted leads
func (r *GormBuyerRepository) ConversionSamples(ctx context.Context) ([]buyer.ConversionSample, error) {
	var rows []models.BuyerModel
	err := r.db.WithContext(ctx).
		Model(&models.BuyerModel{}).
		Select("created_at", "updated_at", "budget_min", "budget_max").
		Where("status = ?", string(buyer.StatusConverted)).
		Find(&rows).Error
	if err != nil {
		return nil, err
	}

	samples := make([]buyer.ConversionSample, len(rows))
	for i, row := range rows {
		samples[i] = buyer.ConversionSample{
			CreatedAt: row.CreatedAt,
			UpdatedAt: row.UpdatedAt,
			BudgetMin: row.BudgetMin,
			BudgetMax: row.BudgetMax,
		}
	}
	return samples, nil
}

// applyFilter applies every filter dimension except ordering and pagination.
// LOWER(...) LIKE keeps the matching portable across postgres and sqlite.
func (r *GormBuyerRepository) applyFilter(query *gorm.DB, f buyer.SearchFilter) *gorm.DB {
	if !f.IncludeDeleted {
		query = query.Where("is_active = ?", true)
	}

	if f.Search != "" {
		pattern := "%" + strings.ToLower(f.Search) + "%"
		query = query.Where("LOWER(full_name) LIKE ? OR LOWER(email) LIKE ? OR phone LIKE ? OR LOWER(notes) LIKE ?",
			pattern, pattern, "%"+f.Search+"%", pattern)
	}

	if len(f.Statuses) > 0 {
		query = query.Where("status IN ?", stringValues(f.Statuses))
	}
	if len(f.Cities) > 0 {
		query = query.Where("city IN ?", stringValues(f.Cities))
	}
	if len(f.PropertyTypes) > 0 {
		query = query.Where("property_type IN ?", stringValues(f.PropertyTypes))
	}
	if len(f.Purposes) > 0 {
		query = query.Where("purpose IN ?", stringValues(f.Purposes))
	}
	if len(f.Timelines) > 0 {
		query = query.Where("timeline IN ?", stringValues(f.Timelines))
	}
	if len(f.Sources) > 0 {
		query = query.Where("source IN ?", stringValues(f.Sources))
	}

	if f.BudgetMin != nil {
		query = query.Where("budget_min IS NOT NULL AND budget_min >= ?", *f.BudgetMin)
	}
	if f.BudgetMax != nil {
		query = query.Where("budget_max IS NOT NULL AND budget_max <= ?", *f.BudgetMax)
	}

	if f.UpdatedAfter != nil {
		query = query.Where("updated_at >= ?", *f.UpdatedAfter)
	}
	if f.UpdatedBefore != nil {
		query = query.Where("updated_at <= ?", *f.UpdatedBefore)
	}

	if len(f.Tags) > 0 {
		// Tags are stored as a JSON array; a quoted-substring match finds
		// leads carrying any of the requested tags.
		conditions := make([]string, len(f.Tags))
		args := make([]any, len(f.Tags))
		for i, tag := range f.Tags {
			conditions[i] = "tags LIKE ?"
			args[i] = `%"` + tag + `"%`
		}
		query = query.Where(strings.Join(conditions, " OR "), args...)
	}

	return query
}

// applyOrder applies the whitelisted sort plus a stable id tiebreak
func (r *GormBuyerRepository) applyOrder(query *gorm.DB, f buyer.SearchFilter) *gorm.DB {
	column, ok := sortColumns[f.SortBy]
	if !ok {
		column = "updated_at"
	}
	direction := "DESC"
	if f.SortOrder == buyer.SortAsc {
		direction = "ASC"
	}
	return query.Order(column + " " + direction).Order("id ASC")
}

func toDomainBuyers(rows []models.BuyerModel) []*buyer.Buyer {
	buyers := make([]*buyer.Buyer, len(rows))
	for i := range rows {
		buyers[i] = rows[i].ToDomain()
	}
	return buyers
}

func stringValues[T ~string](values []T) []string {
	out := make([]string, len(values))
	for i, v := range values {
		out[i] = string(v)
	}
	return out
}

// isUniqueViolation detects unique-constraint errors across the postgres and
// sqlite drivers
func isUniqueViolation(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "duplicate key") || strings.Contains(msg, "unique constraint")
}

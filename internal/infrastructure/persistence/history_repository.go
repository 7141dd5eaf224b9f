package persistence

import (
	"context"

	"github.com/crm/backend/internal/domain/buyer"
	"github.com/crm/backend/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GormBuyerHistoryRepository reads the append-only audit log. History rows
// are only ever written by GormBuyerRepository mutations.
type GormBuyerHistoryRepository struct {
	db *gorm.DB
}

// NewGormBuyerHistoryRepository creates a new GormBuyerHistoryRepository
func NewGormBuyerHistoryRepository(db *gorm.DB) *GormBuyerHistoryRepository {
	return &GormBuyerHistoryRepository{db: db}
}

// ListByBuyer returns the most recent entries for a lead, newest first.
// Entries sharing a timestamp order by id so retrieval is stable.
func (r *GormBuyerHistoryRepository) ListByBuyer(ctx context.Context, buyerID uuid.UUID, limit int) ([]*buyer.HistoryEntry, error) {
	query := r.db.WithContext(ctx).
		Where("buyer_id = ?", buyerID).
		Order("changed_at DESC, id DESC")
	if limit > 0 {
		query = query.Limit(limit)
	}

	var rows []models.BuyerHistoryModel
	if err := query.Find(&rows).Error; err != nil {
		return nil, err
	}

	entries := make([]*buyer.HistoryEntry, len(rows))
	for i := range rows {
		entries[i] = rows[i].ToDomain()
	}
	return entries, nil
}

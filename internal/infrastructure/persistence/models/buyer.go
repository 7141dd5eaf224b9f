package models

import (
	"encoding/json"
	"time"

	"github.com/crm/backend/internal/domain/buyer"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// logger for model conversion errors (silent failures are logged for debugging)
var modelLogger = zap.L().Named("persistence.models")

// BuyerModel is the persistence model for the Buyer aggregate root
type BuyerModel struct {
	BaseModel
	FullName     string  `gorm:"type:varchar(80);not null;index"`
	Email        *string `gorm:"type:varchar(255);uniqueIndex"`
	Phone        string  `gorm:"type:varchar(15);not null;index"`
	City         string  `gorm:"type:varchar(20);not null;index"`
	PropertyType string  `gorm:"type:varchar(20);not null;index"`
	BHK          *string `gorm:"type:varchar(10)"`
	Purpose      string  `gorm:"type:varchar(10);not null"`
	BudgetMin    *int64
	BudgetMax    *int64
	Timeline     string    `gorm:"type:varchar(20);not null"`
	Source       string    `gorm:"type:varchar(20);not null"`
	Status       string    `gorm:"type:varchar(20);not null;index"`
	Notes        *string   `gorm:"type:text"`
	TagsJSON     string    `gorm:"column:tags;type:jsonb;default:'[]'"`
	OwnerID      uuid.UUID `gorm:"type:uuid;not null;index"`
	IsActive     bool      `gorm:"not null;default:true;index"`
}

// TableName returns the table name for GORM
func (BuyerModel) TableName() string {
	return "buyers"
}

// ToDomain converts the persistence model to a domain Buyer entity
func (m *BuyerModel) ToDomain() *buyer.Buyer {
	b := &buyer.Buyer{
		BaseEntity:   m.BaseModel.ToDomain(),
		FullName:     m.FullName,
		Email:        m.Email,
		Phone:        m.Phone,
		City:         buyer.City(m.City),
		PropertyType: buyer.PropertyType(m.PropertyType),
		Purpose:      buyer.Purpose(m.Purpose),
		BudgetMin:    m.BudgetMin,
		BudgetMax:    m.BudgetMax,
		Timeline:     buyer.Timeline(m.Timeline),
		Source:       buyer.Source(m.Source),
		Status:       buyer.Status(m.Status),
		Notes:        m.Notes,
		Tags:         make([]string, 0),
		OwnerID:      m.OwnerID,
		IsActive:     m.IsActive,
	}

	if m.BHK != nil {
		v := buyer.BHK(*m.BHK)
		b.BHK = &v
	}

	if m.TagsJSON != "" && m.TagsJSON != "[]" {
		var tags []string
		if err := json.Unmarshal([]byte(m.TagsJSON), &tags); err != nil {
			modelLogger.Warn("failed to parse tags JSON",
				zap.String("buyer_id", m.ID.String()),
				zap.String("raw_json", m.TagsJSON),
				zap.Error(err))
		} else {
			b.Tags = tags
		}
	}

	return b
}

// BuyerModelFromDomain creates a persistence model from a domain Buyer entity
func BuyerModelFromDomain(b *buyer.Buyer) *BuyerModel {
	m := &BuyerModel{
		FullName:     b.FullName,
		Email:        b.Email,
		Phone:        b.Phone,
		City:         string(b.City),
		PropertyType: string(b.PropertyType),
		Purpose:      string(b.Purpose),
		BudgetMin:    b.BudgetMin,
		BudgetMax:    b.BudgetMax,
		Timeline:     string(b.Timeline),
		Source:       string(b.Source),
		Status:       string(b.Status),
		Notes:        b.Notes,
		OwnerID:      b.OwnerID,
		IsActive:     b.IsActive,
	}
	m.FromDomainBaseEntity(b.BaseEntity)

	if b.BHK != nil {
		v := string(*b.BHK)
		m.BHK = &v
	}

	if len(b.Tags) > 0 {
		if jsonBytes, err := json.Marshal(b.Tags); err == nil {
			m.TagsJSON = string(jsonBytes)
		} else {
			m.TagsJSON = "[]"
		}
	} else {
		m.TagsJSON = "[]"
	}

	return m
}

// BuyerHistoryModel is the persistence model for history entries. Rows are
// append-only and keep no foreign key to buyers so they survive hard deletes.
type BuyerHistoryModel struct {
	ID        uuid.UUID `gorm:"type:uuid;primary_key"`
	BuyerID   uuid.UUID `gorm:"type:uuid;not null;index"`
	ChangedBy uuid.UUID `gorm:"type:uuid;not null"`
	ChangedAt time.Time `gorm:"not null;index"`
	DiffJSON  string    `gorm:"column:diff;type:jsonb;not null"`
}

// TableName returns the table name for GORM
func (BuyerHistoryModel) TableName() string {
	return "buyer_histories"
}

// ToDomain converts the persistence model to a domain HistoryEntry
func (m *BuyerHistoryModel) ToDomain() *buyer.HistoryEntry {
	e := &buyer.HistoryEntry{
		ID:        m.ID,
		BuyerID:   m.BuyerID,
		ChangedBy: m.ChangedBy,
		ChangedAt: m.ChangedAt,
	}

	if m.DiffJSON != "" {
		if err := json.Unmarshal([]byte(m.DiffJSON), &e.Diff); err != nil {
			modelLogger.Warn("failed to parse diff JSON",
				zap.String("history_id", m.ID.String()),
				zap.Error(err))
		}
	}

	return e
}

// BuyerHistoryModelFromDomain creates a persistence model from a domain HistoryEntry
func BuyerHistoryModelFromDomain(e *buyer.HistoryEntry) *BuyerHistoryModel {
	m := &BuyerHistoryModel{
		ID:        e.ID,
		BuyerID:   e.BuyerID,
		ChangedBy: e.ChangedBy,
		ChangedAt: e.ChangedAt,
		DiffJSON:  "{}",
	}

	if jsonBytes, err := json.Marshal(e.Diff); err == nil {
		m.DiffJSON = string(jsonBytes)
	}

	return m
}

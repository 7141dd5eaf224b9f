package buyer

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// ValueCount is one bucket of a group-by aggregation
type ValueCount struct {
	Value string
	Count int64
}

// ConversionSample carries the fields needed to derive conversion metrics
// for one converted lead
type ConversionSample struct {
	CreatedAt time.Time
	UpdatedAt time.Time
	BudgetMin *int64
	BudgetMax *int64
}

// FilterOptions holds the distinct values present in the store for every
// filterable dimension
type FilterOptions struct {
	Cities        []string
	PropertyTypes []string
	Purposes      []string
	Timelines     []string
	Sources       []string
	Statuses      []string
}

// Repository is the transactional store for leads. Every mutation takes the
// history entry it must be paired with; implementations commit or roll back
// both as one unit.
type Repository interface {
	// Create stores a new lead together with its history entry. Returns
	// shared.ErrAlreadyExists when the email is already taken.
	Create(ctx context.Context, b *Buyer, entry *HistoryEntry) error

	// Update persists the lead only if the stored updated_at still equals
	// expectedUpdatedAt. Returns shared.ErrNotFound when the id is absent
	// and shared.ErrConcurrencyConflict on a token mismatch; in both cases
	// nothing is written.
	Update(ctx context.Context, b *Buyer, expectedUpdatedAt time.Time, entry *HistoryEntry) error

	// SoftDelete marks the lead inactive and appends the history entry
	SoftDelete(ctx context.Context, b *Buyer, entry *HistoryEntry) error

	// HardDelete removes the lead row; the history entry is still written
	// and outlives the lead
	HardDelete(ctx context.Context, id uuid.UUID, entry *HistoryEntry) error

	FindByID(ctx context.Context, id uuid.UUID) (*Buyer, error)

	// Search executes a normalized filter and returns the page of matching
	// leads plus the unpaginated match count
	Search(ctx context.Context, f SearchFilter) ([]*Buyer, int64, error)

	// SearchAll returns every lead matching the filter, ignoring pagination.
	// Used by the export pipeline.
	SearchAll(ctx context.Context, f SearchFilter) ([]*Buyer, error)

	// ExistsByEmail checks if a lead already uses the email, case-insensitively
	ExistsByEmail(ctx context.Context, email string) (bool, error)

	// ExistingEmails returns the set of emails already stored, lowercased
	ExistingEmails(ctx context.Context) (map[string]bool, error)

	FilterOptions(ctx context.Context) (*FilterOptions, error)

	// Report aggregations
	CountAll(ctx context.Context) (int64, error)
	CountCreatedBetween(ctx context.Context, from time.Time, to *time.Time) (int64, error)
	CountByStatus(ctx context.Context) ([]ValueCount, error)
	CountBySource(ctx context.Context) ([]ValueCount, error)
	CountByPropertyType(ctx context.Context) ([]ValueCount, error)
	ConversionSamples(ctx context.Context) ([]ConversionSample, error)
}

// HistoryRepository reads the append-only audit log. Writes only happen
// through Repository mutations, inside the same transaction.
type HistoryRepository interface {
	// ListByBuyer returns the most recent entries for a lead, newest first
	ListByBuyer(ctx context.Context, buyerID uuid.UUID, limit int) ([]*HistoryEntry, error)
}

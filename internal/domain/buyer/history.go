package buyer

import (
	"slices"
	"time"

	"github.com/google/uuid"
)

// History diff actions. Every history entry carries exactly one.
const (
	ActionCreated     = "created"
	ActionUpdated     = "updated"
	ActionSoftDeleted = "soft_deleted"
	ActionDeleted     = "deleted"
	ActionImported    = "imported"
)

// FieldChange records one field transition inside a diff. From and To hold
// JSON-representable values; nil means the field was null.
type FieldChange struct {
	From any `json:"from"`
	To   any `json:"to"`
}

// Diff is the structured payload of a history entry: a tagged action plus
// the per-field transitions, when the action carries any.
type Diff struct {
	Action string                 `json:"action"`
	Fields map[string]FieldChange `json:"fields,omitempty"`
}

// HistoryEntry is an append-only audit record of one mutation to a lead.
// Entries are never updated or deleted and deliberately outlive a
// hard-deleted lead.
type HistoryEntry struct {
	ID        uuid.UUID
	BuyerID   uuid.UUID
	ChangedBy uuid.UUID
	ChangedAt time.Time
	Diff      Diff
}

// NewHistoryEntry builds an entry with a server-assigned timestamp
func NewHistoryEntry(buyerID, changedBy uuid.UUID, diff Diff) *HistoryEntry {
	return &HistoryEntry{
		ID:        uuid.New(),
		BuyerID:   buyerID,
		ChangedBy: changedBy,
		ChangedAt: time.Now().UTC(),
		Diff:      diff,
	}
}

// CreatedDiff records every lead field transitioning from null to its
// initial value
func CreatedDiff(b *Buyer) Diff {
	fields := make(map[string]FieldChange, len(diffFields))
	for _, f := range diffFields {
		fields[f] = FieldChange{From: nil, To: b.fieldValue(f)}
	}
	return Diff{Action: ActionCreated, Fields: fields}
}

// UpdatedDiff wraps the field transitions computed by ApplyUpdate
func UpdatedDiff(fields map[string]FieldChange) Diff {
	return Diff{Action: ActionUpdated, Fields: fields}
}

// SoftDeletedDiff records a soft delete
func SoftDeletedDiff() Diff {
	return Diff{Action: ActionSoftDeleted, Fields: map[string]FieldChange{
		"isActive": {From: true, To: false},
	}}
}

// DeletedDiff records a hard delete
func DeletedDiff() Diff {
	return Diff{Action: ActionDeleted}
}

// ImportedDiff tags a lead created by the bulk import pipeline
func ImportedDiff() Diff {
	return Diff{Action: ActionImported}
}

var diffFields = []string{
	"fullName", "email", "phone", "city", "propertyType", "bhk",
	"purpose", "budgetMin", "budgetMax", "timeline", "source",
	"status", "notes", "tags",
}

// ApplyUpdate merges the present fields of a normalized candidate into the
// lead and returns the transitions of the fields that actually changed. An
// empty map means the update was a no-op.
func (b *Buyer) ApplyUpdate(n Normalized) map[string]FieldChange {
	changes := make(map[string]FieldChange)
	for _, f := range diffFields {
		if !n.Has(f) {
			continue
		}
		before := b.fieldValue(f)
		b.setField(f, n)
		after := b.fieldValue(f)
		if !valueEqual(before, after) {
			changes[f] = FieldChange{From: before, To: after}
		}
	}
	return changes
}

// fieldValue returns the JSON-representable value of one lead field
func (b *Buyer) fieldValue(field string) any {
	switch field {
	case "fullName":
		return b.FullName
	case "email":
		return strPtrValue(b.Email)
	case "phone":
		return b.Phone
	case "city":
		return string(b.City)
	case "propertyType":
		return string(b.PropertyType)
	case "bhk":
		if b.BHK == nil {
			return nil
		}
		return string(*b.BHK)
	case "purpose":
		return string(b.Purpose)
	case "budgetMin":
		return intPtrValue(b.BudgetMin)
	case "budgetMax":
		return intPtrValue(b.BudgetMax)
	case "timeline":
		return string(b.Timeline)
	case "source":
		return string(b.Source)
	case "status":
		return string(b.Status)
	case "notes":
		return strPtrValue(b.Notes)
	case "tags":
		return b.Tags
	}
	return nil
}

func (b *Buyer) setField(field string, n Normalized) {
	switch field {
	case "fullName":
		b.FullName = n.FullName
	case "email":
		b.Email = n.Email
	case "phone":
		b.Phone = n.Phone
	case "city":
		b.City = n.City
	case "propertyType":
		b.PropertyType = n.PropertyType
	case "bhk":
		b.BHK = n.BHK
	case "purpose":
		b.Purpose = n.Purpose
	case "budgetMin":
		b.BudgetMin = n.BudgetMin
	case "budgetMax":
		b.BudgetMax = n.BudgetMax
	case "timeline":
		b.Timeline = n.Timeline
	case "source":
		b.Source = n.Source
	case "status":
		b.Status = n.Status
	case "notes":
		b.Notes = n.Notes
	case "tags":
		if n.Tags == nil {
			b.Tags = []string{}
		} else {
			b.Tags = n.Tags
		}
	}
}

func valueEqual(a, b any) bool {
	at, aok := a.([]string)
	bt, bok := b.([]string)
	if aok || bok {
		return aok && bok && slices.Equal(at, bt)
	}
	return a == b
}

func strPtrValue(p *string) any {
	if p == nil {
		return nil
	}
	return *p
}

func intPtrValue(p *int64) any {
	if p == nil {
		return nil
	}
	return *p
}

package buyer

import "time"

// Sortable fields, mapped to their storage columns by the repository
const (
	SortByUpdatedAt = "updatedAt"
	SortByCreatedAt = "createdAt"
	SortByFullName  = "fullName"
	SortByBudgetMin = "budgetMin"
	SortByBudgetMax = "budgetMax"
	SortByStatus    = "status"
	SortByCity      = "city"
)

const (
	SortAsc  = "asc"
	SortDesc = "desc"

	defaultLimit = 10
	maxLimit     = 100
)

var sortableFields = map[string]bool{
	SortByUpdatedAt: true,
	SortByCreatedAt: true,
	SortByFullName:  true,
	SortByBudgetMin: true,
	SortByBudgetMax: true,
	SortByStatus:    true,
	SortByCity:      true,
}

// SearchFilter is an immutable per-request filter object. Empty slices and
// nil bounds leave their dimension unfiltered. Dimensions always combine
// with AND; values within one multi-value dimension combine with OR.
type SearchFilter struct {
	Search         string
	Statuses       []Status
	Cities         []City
	PropertyTypes  []PropertyType
	Purposes       []Purpose
	Timelines      []Timeline
	Sources        []Source
	BudgetMin      *int64
	BudgetMax      *int64
	UpdatedAfter   *time.Time
	UpdatedBefore  *time.Time
	Tags           []string
	IncludeDeleted bool
	SortBy         string
	SortOrder      string
	Page           int
	Limit          int
}

// Normalize clamps pagination, falls back to the default sort and silently
// drops filter values outside the enum vocabularies, tolerating stale
// client-side filter state.
func (f SearchFilter) Normalize() SearchFilter {
	if f.Page < 1 {
		f.Page = 1
	}
	if f.Limit < 1 {
		f.Limit = defaultLimit
	}
	if f.Limit > maxLimit {
		f.Limit = maxLimit
	}
	if !sortableFields[f.SortBy] {
		f.SortBy = SortByUpdatedAt
	}
	if f.SortOrder != SortAsc && f.SortOrder != SortDesc {
		f.SortOrder = SortDesc
	}
	f.Statuses = keepKnown(f.Statuses, Statuses)
	f.Cities = keepKnown(f.Cities, Cities)
	f.PropertyTypes = keepKnown(f.PropertyTypes, PropertyTypes)
	f.Purposes = keepKnown(f.Purposes, Purposes)
	f.Timelines = keepKnown(f.Timelines, Timelines)
	f.Sources = keepKnown(f.Sources, Sources)
	return f
}

// Offset returns the row offset for the normalized page and limit
func (f SearchFilter) Offset() int {
	return (f.Page - 1) * f.Limit
}

func keepKnown[T ~string](values []T, vocabulary []T) []T {
	if len(values) == 0 {
		return values
	}
	known := make(map[T]bool, len(vocabulary))
	for _, v := range vocabulary {
		known[v] = true
	}
	out := values[:0]
	for _, v := range values {
		if known[v] {
			out = append(out, v)
		}
	}
	return out
}

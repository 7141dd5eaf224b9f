package buyer

import (
	"bytes"
	"encoding/json"
	"time"

	"github.com/crm/backend/internal/domain/buyer"
	"github.com/crm/backend/internal/domain/shared"
	"github.com/google/uuid"
)

// Optional wraps a JSON field whose absence, null and value states all carry
// meaning in a partial update: absent leaves the field untouched, null clears
// it, a value replaces it.
type Optional[T any] struct {
	Set   bool
	Value *T
}

// UnmarshalJSON is only invoked for keys present in the payload, which is
// what distinguishes absent from null.
func (o *Optional[T]) UnmarshalJSON(data []byte) error {
	o.Set = true
	if bytes.Equal(data, []byte("null")) {
		o.Value = nil
		return nil
	}
	var v T
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	o.Value = &v
	return nil
}

// MarshalJSON round-trips the wrapped value
func (o Optional[T]) MarshalJSON() ([]byte, error) {
	if o.Value == nil {
		return []byte("null"), nil
	}
	return json.Marshal(*o.Value)
}

// CreateBuyerRequest is the intake-form payload. Status is not accepted:
// new leads always start as New with the creator as owner.
type CreateBuyerRequest struct {
	FullName     string   `json:"fullName" binding:"required"`
	Email        string   `json:"email"`
	Phone        string   `json:"phone" binding:"required"`
	City         string   `json:"city" binding:"required"`
	PropertyType string   `json:"propertyType" binding:"required"`
	BHK          string   `json:"bhk"`
	Purpose      string   `json:"purpose" binding:"required"`
	BudgetMin    *int64   `json:"budgetMin"`
	BudgetMax    *int64   `json:"budgetMax"`
	Timeline     string   `json:"timeline" binding:"required"`
	Source       string   `json:"source" binding:"required"`
	Notes        string   `json:"notes"`
	Tags         []string `json:"tags"`
}

// ToCandidate maps the request onto the validation candidate
func (r CreateBuyerRequest) ToCandidate() buyer.Candidate {
	return buyer.Candidate{
		FullName:     &r.FullName,
		Email:        &r.Email,
		Phone:        &r.Phone,
		City:         &r.City,
		PropertyType: &r.PropertyType,
		BHK:          &r.BHK,
		Purpose:      &r.Purpose,
		BudgetMin:    r.BudgetMin,
		BudgetMinSet: true,
		BudgetMax:    r.BudgetMax,
		BudgetMaxSet: true,
		Timeline:     &r.Timeline,
		Source:       &r.Source,
		Notes:        &r.Notes,
		Tags:         r.Tags,
		TagsSet:      r.Tags != nil,
	}
}

// UpdateBuyerRequest is a partial update. Every field is optional; the
// updatedAt token is required and must equal the stored value exactly.
type UpdateBuyerRequest struct {
	FullName     *string            `json:"fullName"`
	Email        *string            `json:"email"`
	Phone        *string            `json:"phone"`
	City         *string            `json:"city"`
	PropertyType *string            `json:"propertyType"`
	BHK          *string            `json:"bhk"`
	Purpose      *string            `json:"purpose"`
	BudgetMin    Optional[int64]    `json:"budgetMin"`
	BudgetMax    Optional[int64]    `json:"budgetMax"`
	Timeline     *string            `json:"timeline"`
	Source       *string            `json:"source"`
	Status       *string            `json:"status"`
	Notes        *string            `json:"notes"`
	Tags         Optional[[]string] `json:"tags"`
	UpdatedAt    time.Time          `json:"updatedAt" binding:"required"`
}

// ToCandidate maps the request onto the validation candidate
func (r UpdateBuyerRequest) ToCandidate() buyer.Candidate {
	c := buyer.Candidate{
		FullName:     r.FullName,
		Email:        r.Email,
		Phone:        r.Phone,
		City:         r.City,
		PropertyType: r.PropertyType,
		BHK:          r.BHK,
		Purpose:      r.Purpose,
		Timeline:     r.Timeline,
		Source:       r.Source,
		Status:       r.Status,
		Notes:        r.Notes,
	}
	if r.BudgetMin.Set {
		c.BudgetMinSet = true
		c.BudgetMin = r.BudgetMin.Value
	}
	if r.BudgetMax.Set {
		c.BudgetMaxSet = true
		c.BudgetMax = r.BudgetMax.Value
	}
	if r.Tags.Set {
		c.TagsSet = true
		if r.Tags.Value != nil {
			c.Tags = *r.Tags.Value
		} else {
			c.Tags = []string{}
		}
	}
	return c
}

// ListBuyersQuery holds the single-value filters of the list endpoint
type ListBuyersQuery struct {
	Page         int    `form:"page"`
	Limit        int    `form:"limit"`
	Search       string `form:"search"`
	City         string `form:"city"`
	PropertyType string `form:"propertyType"`
	Status       string `form:"status"`
	Purpose      string `form:"purpose"`
	Timeline     string `form:"timeline"`
	SortBy       string `form:"sortBy"`
	SortOrder    string `form:"sortOrder"`
}

// ToFilter converts the query params to a search filter
func (q ListBuyersQuery) ToFilter() buyer.SearchFilter {
	f := buyer.SearchFilter{
		Search:    q.Search,
		SortBy:    q.SortBy,
		SortOrder: q.SortOrder,
		Page:      q.Page,
		Limit:     q.Limit,
	}
	if q.City != "" {
		f.Cities = []buyer.City{buyer.City(q.City)}
	}
	if q.PropertyType != "" {
		f.PropertyTypes = []buyer.PropertyType{buyer.PropertyType(q.PropertyType)}
	}
	if q.Status != "" {
		f.Statuses = []buyer.Status{buyer.Status(q.Status)}
	}
	if q.Purpose != "" {
		f.Purposes = []buyer.Purpose{buyer.Purpose(q.Purpose)}
	}
	if q.Timeline != "" {
		f.Timelines = []buyer.Timeline{buyer.Timeline(q.Timeline)}
	}
	return f
}

// SearchBuyersRequest is the rich filter body of the search endpoint
type SearchBuyersRequest struct {
	Search         string     `json:"search"`
	Statuses       []string   `json:"statuses"`
	Cities         []string   `json:"cities"`
	PropertyTypes  []string   `json:"propertyTypes"`
	Purposes       []string   `json:"purposes"`
	Timelines      []string   `json:"timelines"`
	Sources        []string   `json:"sources"`
	BudgetMin      *int64     `json:"budgetMin"`
	BudgetMax      *int64     `json:"budgetMax"`
	UpdatedAfter   *time.Time `json:"updatedAfter"`
	UpdatedBefore  *time.Time `json:"updatedBefore"`
	Tags           []string   `json:"tags"`
	IncludeDeleted bool       `json:"includeDeleted"`
	SortBy         string     `json:"sortBy"`
	SortOrder      string     `json:"sortOrder"`
	Page           int        `json:"page"`
	Limit          int        `json:"limit"`
}

// ToFilter converts the request body to a search filter
func (r SearchBuyersRequest) ToFilter() buyer.SearchFilter {
	return buyer.SearchFilter{
		Search:         r.Search,
		Statuses:       toEnums[buyer.Status](r.Statuses),
		Cities:         toEnums[buyer.City](r.Cities),
		PropertyTypes:  toEnums[buyer.PropertyType](r.PropertyTypes),
		Purposes:       toEnums[buyer.Purpose](r.Purposes),
		Timelines:      toEnums[buyer.Timeline](r.Timelines),
		Sources:        toEnums[buyer.Source](r.Sources),
		BudgetMin:      r.BudgetMin,
		BudgetMax:      r.BudgetMax,
		UpdatedAfter:   r.UpdatedAfter,
		UpdatedBefore:  r.UpdatedBefore,
		Tags:           r.Tags,
		IncludeDeleted: r.IncludeDeleted,
		SortBy:         r.SortBy,
		SortOrder:      r.SortOrder,
		Page:           r.Page,
		Limit:          r.Limit,
	}
}

func toEnums[T ~string](values []string) []T {
	if len(values) == 0 {
		return nil
	}
	out := make([]T, len(values))
	for i, v := range values {
		out[i] = T(v)
	}
	return out
}

// BuyerResponse represents a lead in API responses
type BuyerResponse struct {
	ID           uuid.UUID `json:"id"`
	FullName     string    `json:"fullName"`
	Email        *string   `json:"email"`
	Phone        string    `json:"phone"`
	City         string    `json:"city"`
	PropertyType string    `json:"propertyType"`
	BHK          *string   `json:"bhk"`
	Purpose      string    `json:"purpose"`
	BudgetMin    *int64    `json:"budgetMin"`
	BudgetMax    *int64    `json:"budgetMax"`
	Timeline     string    `json:"timeline"`
	Source       string    `json:"source"`
	Status       string    `json:"status"`
	Notes        *string   `json:"notes"`
	Tags         []string  `json:"tags"`
	OwnerID      uuid.UUID `json:"ownerId"`
	IsActive     bool      `json:"isActive"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// OwnerSummary identifies the agent a lead belongs to
type OwnerSummary struct {
	ID    uuid.UUID `json:"id"`
	Name  string    `json:"name"`
	Email string    `json:"email"`
}

// HistoryEntryResponse is one audit entry in the detail response
type HistoryEntryResponse struct {
	ID        uuid.UUID  `json:"id"`
	ChangedBy uuid.UUID  `json:"changedBy"`
	ChangedAt time.Time  `json:"changedAt"`
	Diff      buyer.Diff `json:"diff"`
}

// BuyerDetailResponse is the single-lead view: the record, its owner and the
// ten most recent history entries
type BuyerDetailResponse struct {
	BuyerResponse
	Owner   *OwnerSummary          `json:"owner,omitempty"`
	History []HistoryEntryResponse `json:"history"`
}

// PageMeta describes one page of a result set
type PageMeta struct {
	Total      int64 `json:"total"`
	Page       int   `json:"page"`
	Limit      int   `json:"limit"`
	TotalPages int   `json:"totalPages"`
}

// BuyersPage is a paginated list of leads
type BuyersPage struct {
	Data []BuyerResponse `json:"data"`
	Meta PageMeta        `json:"meta"`
}

// BuyersList is the flat envelope of the list endpoint; the structured
// search endpoint keeps the nested meta shape.
type BuyersList struct {
	Data       []BuyerResponse `json:"data"`
	Total      int64           `json:"total"`
	Page       int             `json:"page"`
	TotalPages int             `json:"totalPages"`
}

// Flatten converts a page to the list endpoint's envelope
func (p BuyersPage) Flatten() BuyersList {
	return BuyersList{
		Data:       p.Data,
		Total:      p.Meta.Total,
		Page:       p.Meta.Page,
		TotalPages: p.Meta.TotalPages,
	}
}

// ToBuyerResponse converts a domain lead to its API representation
func ToBuyerResponse(b *buyer.Buyer) BuyerResponse {
	var bhk *string
	if b.BHK != nil {
		s := string(*b.BHK)
		bhk = &s
	}
	tags := b.Tags
	if tags == nil {
		tags = []string{}
	}
	return BuyerResponse{
		ID:           b.ID,
		FullName:     b.FullName,
		Email:        b.Email,
		Phone:        b.Phone,
		City:         string(b.City),
		PropertyType: string(b.PropertyType),
		BHK:          bhk,
		Purpose:      string(b.Purpose),
		BudgetMin:    b.BudgetMin,
		BudgetMax:    b.BudgetMax,
		Timeline:     string(b.Timeline),
		Source:       string(b.Source),
		Status:       string(b.Status),
		Notes:        b.Notes,
		Tags:         tags,
		OwnerID:      b.OwnerID,
		IsActive:     b.IsActive,
		CreatedAt:    b.CreatedAt,
		UpdatedAt:    b.UpdatedAt,
	}
}

// ToBuyersPage converts one page of leads plus its total to the API shape.
// An empty result set still reads as one page.
func ToBuyersPage(items []*buyer.Buyer, total int64, page, limit int) BuyersPage {
	data := make([]BuyerResponse, len(items))
	for i, b := range items {
		data[i] = ToBuyerResponse(b)
	}
	p := shared.NewPaginated(data, total, page, limit)
	return BuyersPage{
		Data: p.Items,
		Meta: PageMeta{Total: p.Total, Page: p.Page, Limit: p.PageSize, TotalPages: p.TotalPages},
	}
}

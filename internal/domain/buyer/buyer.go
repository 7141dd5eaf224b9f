package buyer

import (
	"time"

	"github.com/crm/backend/internal/domain/shared"
	"github.com/google/uuid"
)

// City is the lead's target city
type City string

const (
	CityChandigarh City = "Chandigarh"
	CityMohali     City = "Mohali"
	CityZirakpur   City = "Zirakpur"
	CityPanchkula  City = "Panchkula"
	CityOther      City = "Other"
)

// PropertyType classifies the property the lead is interested in
type PropertyType string

const (
	PropertyApartment PropertyType = "Apartment"
	PropertyVilla     PropertyType = "Villa"
	PropertyPlot      PropertyType = "Plot"
	PropertyOffice    PropertyType = "Office"
	PropertyRetail    PropertyType = "Retail"
)

// IsResidential reports whether the property type carries a bedroom count
func (p PropertyType) IsResidential() bool {
	return p == PropertyApartment || p == PropertyVilla
}

// BHK is the bedroom-count category for residential properties
type BHK string

const (
	BHKStudio BHK = "Studio"
	BHKOne    BHK = "One"
	BHKTwo    BHK = "Two"
	BHKThree  BHK = "Three"
	BHKFour   BHK = "Four"
)

// Purpose is the transaction intent
type Purpose string

const (
	PurposeBuy  Purpose = "Buy"
	PurposeRent Purpose = "Rent"
)

// Timeline is the purchase horizon bucket
type Timeline string

const (
	TimelineZeroToThree Timeline = "ZeroToThree"
	TimelineThreeToSix  Timeline = "ThreeToSix"
	TimelineMoreThanSix Timeline = "MoreThanSix"
	TimelineExploring   Timeline = "Exploring"
)

// Source is the acquisition channel
type Source string

const (
	SourceWebsite  Source = "Website"
	SourceReferral Source = "Referral"
	SourceWalkIn   Source = "WalkIn"
	SourceCall     Source = "Call"
	SourceOther    Source = "Other"
)

// Status is the pipeline stage of a lead
type Status string

const (
	StatusNew         Status = "New"
	StatusQualified   Status = "Qualified"
	StatusContacted   Status = "Contacted"
	StatusVisited     Status = "Visited"
	StatusNegotiation Status = "Negotiation"
	StatusConverted   Status = "Converted"
	StatusDropped     Status = "Dropped"
)

// Enum vocabularies, used by the validation engine and the filter builder.
var (
	Cities        = []City{CityChandigarh, CityMohali, CityZirakpur, CityPanchkula, CityOther}
	PropertyTypes = []PropertyType{PropertyApartment, PropertyVilla, PropertyPlot, PropertyOffice, PropertyRetail}
	BHKs          = []BHK{BHKStudio, BHKOne, BHKTwo, BHKThree, BHKFour}
	Purposes      = []Purpose{PurposeBuy, PurposeRent}
	Timelines     = []Timeline{TimelineZeroToThree, TimelineThreeToSix, TimelineMoreThanSix, TimelineExploring}
	Sources       = []Source{SourceWebsite, SourceReferral, SourceWalkIn, SourceCall, SourceOther}
	Statuses      = []Status{StatusNew, StatusQualified, StatusContacted, StatusVisited, StatusNegotiation, StatusConverted, StatusDropped}
)

// Buyer represents a buyer lead. It is the aggregate root for lead-related
// operations; every mutation goes through the update path so that a history
// entry is written in the same transaction.
type Buyer struct {
	shared.BaseEntity
	FullName     string
	Email        *string
	Phone        string
	City         City
	PropertyType PropertyType
	BHK          *BHK
	Purpose      Purpose
	BudgetMin    *int64
	BudgetMax    *int64
	Timeline     Timeline
	Source       Source
	Status       Status
	Notes        *string
	Tags         []string
	OwnerID      uuid.UUID
	IsActive     bool
}

// NewBuyer creates a new lead from a normalized candidate. Status is always
// forced to New and the creator becomes the owner, regardless of input.
func NewBuyer(n Normalized, ownerID uuid.UUID) *Buyer {
	b := &Buyer{
		BaseEntity:   shared.NewBaseEntity(),
		FullName:     n.FullName,
		Email:        n.Email,
		Phone:        n.Phone,
		City:         n.City,
		PropertyType: n.PropertyType,
		BHK:          n.BHK,
		Purpose:      n.Purpose,
		BudgetMin:    n.BudgetMin,
		BudgetMax:    n.BudgetMax,
		Timeline:     n.Timeline,
		Source:       n.Source,
		Status:       StatusNew,
		Notes:        n.Notes,
		Tags:         n.Tags,
		OwnerID:      ownerID,
		IsActive:     true,
	}
	if b.Tags == nil {
		b.Tags = []string{}
	}
	return b
}

// Touch advances the concurrency token. updated_at must strictly increase on
// every mutation even when the clock has not moved past the previous value.
func (b *Buyer) Touch() {
	now := time.Now().UTC()
	if !now.After(b.UpdatedAt) {
		now = b.UpdatedAt.Add(time.Microsecond)
	}
	b.UpdatedAt = now
}

// Deactivate marks the lead as soft-deleted
func (b *Buyer) Deactivate() {
	b.IsActive = false
	b.Touch()
}

// CanBeEditedBy reports whether the given requester may mutate this lead
func (b *Buyer) CanBeEditedBy(userID uuid.UUID, isAdmin bool) bool {
	return isAdmin || b.OwnerID == userID
}

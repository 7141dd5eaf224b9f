package buyer

import (
	"context"
	"time"

	"github.com/crm/backend/internal/domain/buyer"
	"github.com/crm/backend/internal/domain/identity"
	"github.com/crm/backend/internal/domain/shared"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	historyLimit         = 10
	defaultSearchTimeout = 10 * time.Second
)

// BuyerService handles lead business operations
type BuyerService struct {
	buyerRepo     buyer.Repository
	historyRepo   buyer.HistoryRepository
	userRepo      identity.UserRepository
	searchTimeout time.Duration
	logger        *zap.Logger
}

// NewBuyerService creates a new BuyerService
func NewBuyerService(
	buyerRepo buyer.Repository,
	historyRepo buyer.HistoryRepository,
	userRepo identity.UserRepository,
	logger *zap.Logger,
) *BuyerService {
	return &BuyerService{
		buyerRepo:     buyerRepo,
		historyRepo:   historyRepo,
		userRepo:      userRepo,
		searchTimeout: defaultSearchTimeout,
		logger:        logger,
	}
}

// WithSearchTimeout overrides the bound on search query execution
func (s *BuyerService) WithSearchTimeout(d time.Duration) *BuyerService {
	if d > 0 {
		s.searchTimeout = d
	}
	return s
}

// Create validates and stores a new lead. The creator becomes the owner and
// status always starts as New.
func (s *BuyerService) Create(ctx context.Context, userID uuid.UUID, req CreateBuyerRequest) (*BuyerResponse, error) {
	n, verrs := buyer.Validate(req.ToCandidate(), buyer.ModeCreate, nil)
	if len(verrs) > 0 {
		return nil, verrs
	}

	if n.Email != nil {
		exists, err := s.buyerRepo.ExistsByEmail(ctx, *n.Email)
		if err != nil {
			return nil, err
		}
		if exists {
			return nil, shared.NewDomainError("ALREADY_EXISTS", "A lead with this email already exists")
		}
	}

	b := buyer.NewBuyer(n, userID)
	entry := buyer.NewHistoryEntry(b.ID, userID, buyer.CreatedDiff(b))

	if err := s.buyerRepo.Create(ctx, b, entry); err != nil {
		return nil, err
	}

	s.logger.Info("Lead created",
		zap.String("buyer_id", b.ID.String()),
		zap.String("owner_id", userID.String()),
	)

	resp := ToBuyerResponse(b)
	return &resp, nil
}

// GetByID returns one lead with its owner and the last ten history entries
func (s *BuyerService) GetByID(ctx context.Context, id uuid.UUID) (*BuyerDetailResponse, error) {
	b, err := s.buyerRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	detail := &BuyerDetailResponse{
		BuyerResponse: ToBuyerResponse(b),
		History:       []HistoryEntryResponse{},
	}

	if owner, err := s.userRepo.FindByID(ctx, b.OwnerID); err == nil {
		detail.Owner = &OwnerSummary{ID: owner.ID, Name: owner.Name, Email: owner.Email}
	}

	entries, err := s.historyRepo.ListByBuyer(ctx, id, historyLimit)
	if err != nil {
		s.logger.Warn("Failed to load lead history", zap.String("buyer_id", id.String()), zap.Error(err))
	}
	for _, e := range entries {
		detail.History = append(detail.History, HistoryEntryResponse{
			ID:        e.ID,
			ChangedBy: e.ChangedBy,
			ChangedAt: e.ChangedAt,
			Diff:      e.Diff,
		})
	}

	return detail, nil
}

// Search runs a normalized filter under the configured query timeout
func (s *BuyerService) Search(ctx context.Context, f buyer.SearchFilter) (*BuyersPage, error) {
	f = f.Normalize()

	ctx, cancel := context.WithTimeout(ctx, s.searchTimeout)
	defer cancel()

	items, total, err := s.buyerRepo.Search(ctx, f)
	if err != nil {
		if ctx.Err() == context.DeadlineExceeded {
			return nil, shared.NewDomainError("TIMEOUT", "Search took too long, please retry")
		}
		return nil, err
	}

	page := ToBuyersPage(items, total, f.Page, f.Limit)
	return &page, nil
}

// Update applies a partial update guarded by the updatedAt token. Only the
// owner or an admin may edit a lead; existence is checked before ownership so
// a missing lead is reported as 404 rather than 403.
func (s *BuyerService) Update(ctx context.Context, id, userID uuid.UUID, isAdmin bool, req UpdateBuyerRequest) (*BuyerResponse, error) {
	b, err := s.buyerRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if !b.CanBeEditedBy(userID, isAdmin) {
		return nil, shared.ErrForbidden
	}

	if !req.UpdatedAt.Equal(b.UpdatedAt) {
		return nil, shared.ErrConcurrencyConflict
	}

	n, verrs := buyer.Validate(req.ToCandidate(), buyer.ModeUpdate, b)
	if len(verrs) > 0 {
		return nil, verrs
	}

	changes := b.ApplyUpdate(n)
	if len(changes) == 0 {
		resp := ToBuyerResponse(b)
		return &resp, nil
	}

	expected := b.UpdatedAt
	b.Touch()
	entry := buyer.NewHistoryEntry(b.ID, userID, buyer.UpdatedDiff(changes))

	if err := s.buyerRepo.Update(ctx, b, expected, entry); err != nil {
		return nil, err
	}

	s.logger.Info("Lead updated",
		zap.String("buyer_id", b.ID.String()),
		zap.Int("changed_fields", len(changes)),
	)

	resp := ToBuyerResponse(b)
	return &resp, nil
}

// Delete removes a lead, softly by default. Both paths append a history
// entry; hard deletion leaves the history behind for audit.
func (s *BuyerService) Delete(ctx context.Context, id, userID uuid.UUID, isAdmin, hard bool) error {
	b, err := s.buyerRepo.FindByID(ctx, id)
	if err != nil {
		return err
	}

	if !b.CanBeEditedBy(userID, isAdmin) {
		return shared.ErrForbidden
	}

	if hard {
		entry := buyer.NewHistoryEntry(b.ID, userID, buyer.DeletedDiff())
		if err := s.buyerRepo.HardDelete(ctx, id, entry); err != nil {
			return err
		}
		s.logger.Info("Lead hard deleted", zap.String("buyer_id", id.String()))
		return nil
	}

	b.Deactivate()
	entry := buyer.NewHistoryEntry(b.ID, userID, buyer.SoftDeletedDiff())
	if err := s.buyerRepo.SoftDelete(ctx, b, entry); err != nil {
		return err
	}
	s.logger.Info("Lead soft deleted", zap.String("buyer_id", id.String()))
	return nil
}

// FilterOptions returns the distinct values stored for every filterable field
func (s *BuyerService) FilterOptions(ctx context.Context) (*buyer.FilterOptions, error) {
	return s.buyerRepo.FilterOptions(ctx)
}

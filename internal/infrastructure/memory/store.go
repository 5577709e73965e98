package memory

import (
	"context"
	"sync"
	"time"

	"auction-engine/internal/domain"
)

// AuctionStore is an in-memory AuctionStore with the same optimistic
// versioning contract as the MySQL store. Used by tests and local runs.
type AuctionStore struct {
	mu       sync.RWMutex
	auctions map[string]*domain.Auction
}

func NewAuctionStore() *AuctionStore {
	return &AuctionStore{auctions: make(map[string]*domain.Auction)}
}

func (s *AuctionStore) CreateAuction(ctx context.Context, auction *domain.Auction) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	cp := cloneAuction(auction)
	s.auctions[auction.ID] = cp
	return nil
}

func (s *AuctionStore) GetAuction(ctx context.Context, auctionID string) (*domain.Auction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	a, ok := s.auctions[auctionID]
	if !ok {
		return nil, domain.ErrAuctionNotFound
	}
	return cloneAuction(a), nil
}

func (s *AuctionStore) UpdateAuction(ctx context.Context, auction *domain.Auction) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	stored, ok := s.auctions[auction.ID]
	if !ok {
		return domain.ErrAuctionNotFound
	}
	if stored.Version != auction.Version {
		return domain.ErrVersionConflict
	}

	auction.Version++
	s.auctions[auction.ID] = cloneAuction(auction)
	return nil
}

func (s *AuctionStore) GetEndedAuctions(ctx context.Context, now time.Time) ([]*domain.Auction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []*domain.Auction
	for _, a := range s.auctions {
		if a.Status.Open() && !now.Before(a.EffectiveEndTime()) {
			out = append(out, cloneAuction(a))
		}
	}
	return out, nil
}

func (s *AuctionStore) GetDueScheduled(ctx context.Context, now time.Time) ([]*domain.Auction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []*domain.Auction
	for _, a := range s.auctions {
		if a.Status == domain.AuctionScheduled && !now.Before(a.StartTime) {
			out = append(out, cloneAuction(a))
		}
	}
	return out, nil
}

func cloneAuction(a *domain.Auction) *domain.Auction {
	cp := *a
	if a.ExtendedUntil != nil {
		t := *a.ExtendedUntil
		cp.ExtendedUntil = &t
	}
	return &cp
}

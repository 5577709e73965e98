package memory

import (
	"context"
	"sort"
	"sync"

	"auction-engine/internal/domain"
)

// BidLedger is an in-memory append-only bid ledger for tests and local runs.
type BidLedger struct {
	mu   sync.RWMutex
	bids []*domain.Bid
	byID map[string]*domain.Bid
}

func NewBidLedger() *BidLedger {
	return &BidLedger{byID: make(map[string]*domain.Bid)}
}

func (l *BidLedger) AppendBid(ctx context.Context, bid *domain.Bid) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	cp := *bid
	l.bids = append(l.bids, &cp)
	l.byID[bid.ID] = &cp
	return nil
}

func (l *BidLedger) UpdateBidStatus(ctx context.Context, bidID string, status domain.BidStatus) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	b, ok := l.byID[bidID]
	if !ok {
		return domain.ErrBidNotFound
	}
	b.Status = status
	return nil
}

func (l *BidLedger) GetBid(ctx context.Context, bidID string) (*domain.Bid, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	b, ok := l.byID[bidID]
	if !ok {
		return nil, domain.ErrBidNotFound
	}
	cp := *b
	return &cp, nil
}

func (l *BidLedger) GetBids(ctx context.Context, auctionID string) ([]*domain.Bid, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	var out []*domain.Bid
	for _, b := range l.bids {
		if b.AuctionID == auctionID {
			cp := *b
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].BidTime.Before(out[j].BidTime) })
	return out, nil
}

func (l *BidLedger) GetUserBids(ctx context.Context, bidderID string) ([]*domain.Bid, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	var out []*domain.Bid
	for _, b := range l.bids {
		if b.BidderID == bidderID {
			cp := *b
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].BidTime.After(out[j].BidTime) })
	return out, nil
}

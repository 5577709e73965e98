package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type Auction struct {
	ID            string
	AuctionNumber string
	ProductID     string
	SellerID      string

	Status AuctionStatus

	StartingPrice decimal.Decimal
	BidIncrement  decimal.Decimal
	ReservePrice  decimal.Decimal
	HasReserve    bool
	ReserveMet    bool
	BuyItNowPrice decimal.NullDecimal
	CurrentBid    decimal.Decimal
	Currency      string

	StartTime      time.Time
	EndTime        time.Time
	ExtendedUntil  *time.Time
	ExtensionCount int

	BidCount int
	// LeadingBidID tracks the current top bid while the auction runs;
	// WinningBidID is set only when the outcome is decided.
	LeadingBidID    string
	WinningBidID    string
	HighestBidderID string

	RequiresDeposit bool
	DepositAmount   decimal.Decimal

	WatchCount int

	// Version backs optimistic concurrency on the store; every committed
	// update increments it.
	Version   int64
	CreatedAt time.Time
	UpdatedAt time.Time
}

type AuctionStatus int

const (
	AuctionDraft AuctionStatus = iota
	AuctionScheduled
	AuctionActive
	AuctionEnding
	AuctionSold
	AuctionUnsold
	AuctionCancelled
)

func (s AuctionStatus) String() string {
	switch s {
	case AuctionDraft:
		return "draft"
	case AuctionScheduled:
		return "scheduled"
	case AuctionActive:
		return "active"
	case AuctionEnding:
		return "ending"
	case AuctionSold:
		return "sold"
	case AuctionUnsold:
		return "unsold"
	case AuctionCancelled:
		return "cancelled"
	default:
		return "unknown"
	}
}

// Terminal reports whether the auction has reached a final state.
func (s AuctionStatus) Terminal() bool {
	return s == AuctionSold || s == AuctionUnsold || s == AuctionCancelled
}

// Open reports whether the auction accepts bids in this status.
func (s AuctionStatus) Open() bool {
	return s == AuctionActive || s == AuctionEnding
}

// EffectiveEndTime is EndTime unless an anti-snipe extension pushed it later.
func (a *Auction) EffectiveEndTime() time.Time {
	if a.ExtendedUntil != nil && a.ExtendedUntil.After(a.EndTime) {
		return *a.ExtendedUntil
	}
	return a.EndTime
}

// OpenAt reports whether bids are admissible at the given instant.
func (a *Auction) OpenAt(now time.Time) bool {
	return a.Status.Open() && now.Before(a.EffectiveEndTime())
}

// MinimumBid is the current effective floor: the starting price until the
// first bid lands, then currentBid + bidIncrement.
func (a *Auction) MinimumBid() decimal.Decimal {
	if a.BidCount == 0 {
		return a.StartingPrice
	}
	return a.CurrentBid.Add(a.BidIncrement)
}

// Extend pushes the effective deadline to the given instant. The deadline
// only ever moves forward.
func (a *Auction) Extend(until time.Time) bool {
	if !until.After(a.EffectiveEndTime()) {
		return false
	}
	u := until
	a.ExtendedUntil = &u
	a.ExtensionCount++
	return true
}

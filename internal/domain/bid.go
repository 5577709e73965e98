package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Bid is an immutable ledger record; Status is the only field that changes
// after persistence, and only the owning auction actor flips it.
type Bid struct {
	ID        string
	AuctionID string
	BidderID  string
	Amount    decimal.Decimal
	MaxAmount decimal.NullDecimal
	BidTime   time.Time
	IsAutoBid bool
	Status    BidStatus
}

type BidStatus string

const (
	BidAccepted BidStatus = "accepted"
	BidOutbid   BidStatus = "outbid"
	BidRejected BidStatus = "rejected"
	BidWinning  BidStatus = "winning"
)

// HasProxy reports whether the bidder registered a proxy maximum above the
// standing amount.
func (b *Bid) HasProxy() bool {
	return b.MaxAmount.Valid && b.MaxAmount.Decimal.GreaterThan(b.Amount)
}

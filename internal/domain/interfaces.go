package domain

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

// Repository interfaces
type AuctionStore interface {
	CreateAuction(ctx context.Context, auction *Auction) error
	GetAuction(ctx context.Context, auctionID string) (*Auction, error)
	// UpdateAuction commits only if the stored version matches
	// auction.Version, then increments it. Returns ErrVersionConflict
	// otherwise.
	UpdateAuction(ctx context.Context, auction *Auction) error
	// GetEndedAuctions returns open auctions whose effective end time has
	// passed, for the finalization sweep.
	GetEndedAuctions(ctx context.Context, now time.Time) ([]*Auction, error)
	// GetDueScheduled returns scheduled auctions whose start time has passed.
	GetDueScheduled(ctx context.Context, now time.Time) ([]*Auction, error)
}

type BidLedger interface {
	AppendBid(ctx context.Context, bid *Bid) error
	UpdateBidStatus(ctx context.Context, bidID string, status BidStatus) error
	GetBid(ctx context.Context, bidID string) (*Bid, error)
	GetBids(ctx context.Context, auctionID string) ([]*Bid, error)
	GetUserBids(ctx context.Context, bidderID string) ([]*Bid, error)
}

// Cache interfaces
type AuctionStateCache interface {
	SetAuctionStatus(ctx context.Context, auctionID string, status AuctionStatus) error
	GetAuctionStatus(ctx context.Context, auctionID string) (AuctionStatus, error)
}

// Event interfaces
type EventPublisher interface {
	PublishAuctionEvent(ctx context.Context, event *AuctionEvent) error
}

// Collaborator interfaces. These are external systems; the engine only
// depends on the narrow surface below.
type OrderService interface {
	// CreateFromAuction is keyed by auctionID downstream, so a duplicate
	// call for an already-materialized order is safely ignorable.
	CreateFromAuction(ctx context.Context, auctionID, winningBidID string) (string, error)
}

type NotificationService interface {
	Notify(ctx context.Context, event AuctionEventType, recipientID string, payload map[string]interface{}) error
}

type ListingSnapshot struct {
	ProductID string
	Title     string
	ImageURL  string
	Active    bool
}

type ProductService interface {
	GetListingSnapshot(ctx context.Context, productID string) (*ListingSnapshot, error)
}

type DepositService interface {
	// GetDeposit returns the amount the bidder has on deposit for the
	// auction; zero when none is recorded.
	GetDeposit(ctx context.Context, auctionID, bidderID string) (decimal.Decimal, error)
}

// Leader election interface
type LeaderElection interface {
	BecomeLeader(ctx context.Context, instanceID string) (bool, error)
	IsLeader(ctx context.Context, instanceID string) (bool, error)
	ReleaseLeadership(ctx context.Context, instanceID string) error
}

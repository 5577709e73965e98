package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type AuctionEvent struct {
	Type      AuctionEventType `json:"type"`
	AuctionID string           `json:"auction_id"`
	UserID    string           `json:"user_id,omitempty"`
	BidID     string           `json:"bid_id,omitempty"`
	Amount    decimal.Decimal  `json:"amount"`
	Reason    RejectReason     `json:"reason,omitempty"`
	EndTime   time.Time        `json:"end_time,omitempty"`
	Timestamp time.Time        `json:"timestamp"`
}

type AuctionEventType string

const (
	EventBidAccepted      AuctionEventType = "bid_accepted"
	EventBidRejected      AuctionEventType = "bid_rejected"
	EventBidderOutbid     AuctionEventType = "bidder_outbid"
	EventAuctionStarted   AuctionEventType = "auction_started"
	EventAuctionExtended  AuctionEventType = "auction_extended"
	EventAuctionSold      AuctionEventType = "auction_sold"
	EventAuctionUnsold    AuctionEventType = "auction_unsold"
	EventAuctionCancelled AuctionEventType = "auction_cancelled"
	EventBuyItNow         AuctionEventType = "buy_it_now"
)

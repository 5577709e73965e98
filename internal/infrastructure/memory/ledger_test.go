package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"auction-engine/internal/domain"

	"github.com/peterldowns/testy/assert"
	"github.com/peterldowns/testy/check"
	"github.com/shopspring/decimal"
)

func TestBidLedger_MissingBid(t *testing.T) {
	l := NewBidLedger()

	_, err := l.GetBid(context.Background(), "bid_missing")
	check.True(t, errors.Is(err, domain.ErrBidNotFound))

	err = l.UpdateBidStatus(context.Background(), "bid_missing", domain.BidOutbid)
	check.True(t, errors.Is(err, domain.ErrBidNotFound))
}

func TestBidLedger_AppendAndStatusFlip(t *testing.T) {
	l := NewBidLedger()

	bid := &domain.Bid{
		ID:        "bid_1",
		AuctionID: "auction_1",
		BidderID:  "bidder_a",
		Amount:    decimal.NewFromInt(100),
		BidTime:   time.Date(2026, 8, 1, 10, 0, 0, 0, time.UTC),
		Status:    domain.BidWinning,
	}
	assert.Nil(t, l.AppendBid(context.Background(), bid))
	assert.Nil(t, l.UpdateBidStatus(context.Background(), "bid_1", domain.BidOutbid))

	got, err := l.GetBid(context.Background(), "bid_1")
	assert.Nil(t, err)
	check.Equal(t, domain.BidOutbid, got.Status)
}

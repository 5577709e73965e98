package services

import (
	"testing"
	"time"

	"auction-engine/internal/domain"

	"github.com/peterldowns/testy/check"
	"github.com/shopspring/decimal"
)

func validatorAuction() *domain.Auction {
	start := time.Date(2026, 8, 1, 10, 0, 0, 0, time.UTC)
	return &domain.Auction{
		ID:            "auction_1",
		SellerID:      "seller_1",
		Status:        domain.AuctionActive,
		StartingPrice: decimal.NewFromInt(100),
		BidIncrement:  decimal.NewFromInt(10),
		CurrentBid:    decimal.Zero,
		StartTime:     start,
		EndTime:       start.Add(24 * time.Hour),
	}
}

func TestValidate_IncrementLadder(t *testing.T) {
	v := NewBidValidator()
	auction := validatorAuction()
	now := auction.StartTime.Add(time.Hour)

	// First bid must meet the starting price.
	res := v.Validate(auction, "bidder_a", decimal.NewFromInt(90), decimal.Zero, now)
	check.Equal(t, VerdictReject, res.Verdict)
	check.Equal(t, domain.ReasonBidTooLow, res.Reason)

	res = v.Validate(auction, "bidder_a", decimal.NewFromInt(100), decimal.Zero, now)
	check.Equal(t, VerdictAccept, res.Verdict)

	// With a standing bid of 100 the floor moves to 110.
	auction.CurrentBid = decimal.NewFromInt(100)
	auction.BidCount = 1

	res = v.Validate(auction, "bidder_b", decimal.NewFromInt(105), decimal.Zero, now)
	check.Equal(t, VerdictReject, res.Verdict)
	check.Equal(t, domain.ReasonBidTooLow, res.Reason)

	res = v.Validate(auction, "bidder_b", decimal.NewFromInt(110), decimal.Zero, now)
	check.Equal(t, VerdictAccept, res.Verdict)
}

func TestValidate_AuctionNotOpen(t *testing.T) {
	v := NewBidValidator()
	amount := decimal.NewFromInt(100)

	tests := []struct {
		name   string
		mutate func(a *domain.Auction)
		now    func(a *domain.Auction) time.Time
	}{
		{
			name:   "scheduled",
			mutate: func(a *domain.Auction) { a.Status = domain.AuctionScheduled },
			now:    func(a *domain.Auction) time.Time { return a.StartTime.Add(time.Hour) },
		},
		{
			name:   "sold",
			mutate: func(a *domain.Auction) { a.Status = domain.AuctionSold },
			now:    func(a *domain.Auction) time.Time { return a.StartTime.Add(time.Hour) },
		},
		{
			name:   "cancelled",
			mutate: func(a *domain.Auction) { a.Status = domain.AuctionCancelled },
			now:    func(a *domain.Auction) time.Time { return a.StartTime.Add(time.Hour) },
		},
		{
			name:   "past deadline",
			mutate: func(a *domain.Auction) {},
			now:    func(a *domain.Auction) time.Time { return a.EndTime.Add(time.Second) },
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			auction := validatorAuction()
			tt.mutate(auction)

			res := v.Validate(auction, "bidder_a", amount, decimal.Zero, tt.now(auction))
			check.Equal(t, VerdictReject, res.Verdict)
			check.Equal(t, domain.ReasonAuctionNotOpen, res.Reason)
		})
	}
}

func TestValidate_ExtendedDeadlineKeepsAuctionOpen(t *testing.T) {
	v := NewBidValidator()
	auction := validatorAuction()
	auction.Status = domain.AuctionEnding
	extended := auction.EndTime.Add(2 * time.Minute)
	auction.ExtendedUntil = &extended

	// Past the original end time but inside the extension.
	now := auction.EndTime.Add(time.Minute)
	res := v.Validate(auction, "bidder_a", decimal.NewFromInt(100), decimal.Zero, now)
	check.Equal(t, VerdictAccept, res.Verdict)
}

func TestValidate_SelfBidForbidden(t *testing.T) {
	v := NewBidValidator()
	auction := validatorAuction()
	now := auction.StartTime.Add(time.Hour)

	res := v.Validate(auction, auction.SellerID, decimal.NewFromInt(100), decimal.Zero, now)
	check.Equal(t, VerdictReject, res.Verdict)
	check.Equal(t, domain.ReasonSelfBidForbidden, res.Reason)
}

func TestValidate_DepositRequired(t *testing.T) {
	v := NewBidValidator()
	auction := validatorAuction()
	auction.RequiresDeposit = true
	auction.DepositAmount = decimal.NewFromInt(50)
	now := auction.StartTime.Add(time.Hour)

	res := v.Validate(auction, "bidder_a", decimal.NewFromInt(100), decimal.NewFromInt(20), now)
	check.Equal(t, VerdictReject, res.Verdict)
	check.Equal(t, domain.ReasonDepositRequired, res.Reason)

	res = v.Validate(auction, "bidder_a", decimal.NewFromInt(100), decimal.NewFromInt(50), now)
	check.Equal(t, VerdictAccept, res.Verdict)
}

func TestValidate_BuyItNowRouting(t *testing.T) {
	v := NewBidValidator()
	auction := validatorAuction()
	auction.BuyItNowPrice = decimal.NewNullDecimal(decimal.NewFromInt(500))
	now := auction.StartTime.Add(time.Hour)

	res := v.Validate(auction, "bidder_a", decimal.NewFromInt(500), decimal.Zero, now)
	check.Equal(t, VerdictBuyItNow, res.Verdict)

	res = v.Validate(auction, "bidder_a", decimal.NewFromInt(499), decimal.Zero, now)
	check.Equal(t, VerdictAccept, res.Verdict)
}

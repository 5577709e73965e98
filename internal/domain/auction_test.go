package domain

import (
	"testing"
	"time"

	"github.com/peterldowns/testy/check"
	"github.com/shopspring/decimal"
)

func TestMinimumBid(t *testing.T) {
	a := &Auction{
		StartingPrice: decimal.NewFromInt(100),
		BidIncrement:  decimal.NewFromInt(10),
	}

	check.True(t, a.MinimumBid().Equal(decimal.NewFromInt(100)))

	a.CurrentBid = decimal.NewFromInt(100)
	a.BidCount = 1
	check.True(t, a.MinimumBid().Equal(decimal.NewFromInt(110)))
}

func TestExtendIsForwardOnly(t *testing.T) {
	end := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	a := &Auction{EndTime: end}

	check.True(t, a.EffectiveEndTime().Equal(end))

	// Backward extension is refused.
	check.True(t, !a.Extend(end.Add(-time.Minute)))
	check.Equal(t, 0, a.ExtensionCount)
	check.True(t, a.EffectiveEndTime().Equal(end))

	check.True(t, a.Extend(end.Add(2*time.Minute)))
	check.Equal(t, 1, a.ExtensionCount)
	check.True(t, a.EffectiveEndTime().Equal(end.Add(2*time.Minute)))

	// A shorter extension than the current one is also refused.
	check.True(t, !a.Extend(end.Add(time.Minute)))
	check.Equal(t, 1, a.ExtensionCount)
	check.True(t, a.EffectiveEndTime().Equal(end.Add(2*time.Minute)))
}

func TestStatusPredicates(t *testing.T) {
	open := []AuctionStatus{AuctionActive, AuctionEnding}
	for _, s := range open {
		check.True(t, s.Open())
		check.True(t, !s.Terminal())
	}

	terminal := []AuctionStatus{AuctionSold, AuctionUnsold, AuctionCancelled}
	for _, s := range terminal {
		check.True(t, s.Terminal())
		check.True(t, !s.Open())
	}

	check.True(t, !AuctionScheduled.Open())
	check.True(t, !AuctionScheduled.Terminal())
	check.True(t, !AuctionDraft.Open())
}

func TestOpenAtHonorsExtension(t *testing.T) {
	start := time.Date(2026, 8, 1, 10, 0, 0, 0, time.UTC)
	end := start.Add(time.Hour)
	extended := end.Add(2 * time.Minute)

	a := &Auction{
		Status:        AuctionEnding,
		StartTime:     start,
		EndTime:       end,
		ExtendedUntil: &extended,
	}

	check.True(t, a.OpenAt(end.Add(time.Minute)))
	check.True(t, !a.OpenAt(extended.Add(time.Second)))
}

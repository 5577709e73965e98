package services

import (
	"time"

	"auction-engine/internal/domain"

	"github.com/shopspring/decimal"
)

type Verdict int

const (
	VerdictAccept Verdict = iota
	VerdictReject
	VerdictBuyItNow
)

type ValidationResult struct {
	Verdict Verdict
	Reason  domain.RejectReason
}

// BidValidator decides whether a proposed bid is admissible against the
// current auction state. It is pure: all inputs are passed in, nothing is
// mutated.
type BidValidator struct{}

func NewBidValidator() *BidValidator {
	return &BidValidator{}
}

// Validate applies the admission rules in order:
//  1. auction open and deadline not passed
//  2. bidder is not the seller
//  3. deposit recorded when the auction requires one
//  4. amount meets the effective floor
//  5. amount at or above buy-it-now routes to the buy-it-now path
func (v *BidValidator) Validate(auction *domain.Auction, bidderID string, amount, deposit decimal.Decimal, now time.Time) ValidationResult {
	if !auction.OpenAt(now) {
		return ValidationResult{Verdict: VerdictReject, Reason: domain.ReasonAuctionNotOpen}
	}

	if bidderID == auction.SellerID {
		return ValidationResult{Verdict: VerdictReject, Reason: domain.ReasonSelfBidForbidden}
	}

	if auction.RequiresDeposit && deposit.LessThan(auction.DepositAmount) {
		return ValidationResult{Verdict: VerdictReject, Reason: domain.ReasonDepositRequired}
	}

	if amount.LessThan(auction.MinimumBid()) {
		return ValidationResult{Verdict: VerdictReject, Reason: domain.ReasonBidTooLow}
	}

	if auction.BuyItNowPrice.Valid && amount.GreaterThanOrEqual(auction.BuyItNowPrice.Decimal) {
		return ValidationResult{Verdict: VerdictBuyItNow}
	}

	return ValidationResult{Verdict: VerdictAccept}
}

package domain

import "errors"

var (
	ErrAuctionNotFound  = errors.New("auction not found")
	ErrBidNotFound      = errors.New("bid not found")
	ErrAuctionNotOpen   = errors.New("auction not open for bidding")
	ErrBidTooLow        = errors.New("bid below minimum")
	ErrSelfBidForbidden = errors.New("seller cannot bid on own auction")
	ErrDepositRequired  = errors.New("deposit required before bidding")
	ErrAuctionBusy      = errors.New("auction busy, retry")
	ErrVersionConflict  = errors.New("auction version conflict")
	ErrAlreadyFinalized = errors.New("auction already finalized")
	ErrCancelForbidden  = errors.New("auction with bids cannot be cancelled")
	ErrNoBuyItNowPrice  = errors.New("auction has no buy-it-now price")
	ErrInvalidSchedule  = errors.New("invalid auction schedule")
)

// RejectReason is the machine-readable reason carried on rejected-bid
// responses and events.
type RejectReason string

const (
	ReasonAuctionNotOpen   RejectReason = "auction_not_open"
	ReasonBidTooLow        RejectReason = "bid_too_low"
	ReasonSelfBidForbidden RejectReason = "self_bid_forbidden"
	ReasonDepositRequired  RejectReason = "deposit_required"
)

func (r RejectReason) Err() error {
	switch r {
	case ReasonAuctionNotOpen:
		return ErrAuctionNotOpen
	case ReasonBidTooLow:
		return ErrBidTooLow
	case ReasonSelfBidForbidden:
		return ErrSelfBidForbidden
	case ReasonDepositRequired:
		return ErrDepositRequired
	default:
		return errors.New(string(r))
	}
}

// ReasonForErr maps a validator error back to its wire reason.
func ReasonForErr(err error) RejectReason {
	switch {
	case errors.Is(err, ErrAuctionNotOpen):
		return ReasonAuctionNotOpen
	case errors.Is(err, ErrBidTooLow):
		return ReasonBidTooLow
	case errors.Is(err, ErrSelfBidForbidden):
		return ReasonSelfBidForbidden
	case errors.Is(err, ErrDepositRequired):
		return ReasonDepositRequired
	default:
		return RejectReason(err.Error())
	}
}

package services

import (
	"context"
	"errors"
	"sync"
	"time"

	"auction-engine/internal/domain"
	"auction-engine/pkg/logger"
	"auction-engine/pkg/utils"

	"github.com/shopspring/decimal"
)

// proxyRoundLimit bounds the auto-bid ladder between competing proxies.
const proxyRoundLimit = 1000

type EngineConfig struct {
	AntiSnipeWindow time.Duration
	MaxExtensions   int
	SweepInterval   time.Duration
	ActorIdleTTL    time.Duration
	SubmitTimeout   time.Duration
	VersionRetries  int
}

// Engine owns the per-auction serialization boundary. Every mutation of an
// auction (bids, buy-it-now, cancellation, finalization) is funnelled through
// that auction's actor, which guarantees a total order of accepted bids and
// an atomic read-modify-write of the auction record.
type Engine struct {
	store      domain.AuctionStore
	ledger     domain.BidLedger
	validator  *BidValidator
	deposits   domain.DepositService
	orders     domain.OrderService
	notifier   domain.NotificationService
	events     domain.EventPublisher
	stateCache domain.AuctionStateCache
	log        logger.Logger

	antiSnipeWindow time.Duration
	maxExtensions   int
	actorIdleTTL    time.Duration
	submitTimeout   time.Duration
	versionRetries  int

	now func() time.Time

	actors    map[string]*actor
	actorsMu  sync.Mutex
	runnersWG sync.WaitGroup
	handoffWG sync.WaitGroup
	stop      chan struct{}
	stopOnce  sync.Once
}

func NewEngine(
	store domain.AuctionStore,
	ledger domain.BidLedger,
	validator *BidValidator,
	deposits domain.DepositService,
	orders domain.OrderService,
	notifier domain.NotificationService,
	events domain.EventPublisher,
	stateCache domain.AuctionStateCache,
	cfg EngineConfig,
	log logger.Logger,
) *Engine {
	if cfg.VersionRetries <= 0 {
		cfg.VersionRetries = 3
	}
	if cfg.SubmitTimeout <= 0 {
		cfg.SubmitTimeout = 3 * time.Second
	}
	if cfg.ActorIdleTTL <= 0 {
		cfg.ActorIdleTTL = 5 * time.Minute
	}
	return &Engine{
		store:           store,
		ledger:          ledger,
		validator:       validator,
		deposits:        deposits,
		orders:          orders,
		notifier:        notifier,
		events:          events,
		stateCache:      stateCache,
		log:             log,
		antiSnipeWindow: cfg.AntiSnipeWindow,
		maxExtensions:   cfg.MaxExtensions,
		actorIdleTTL:    cfg.ActorIdleTTL,
		submitTimeout:   cfg.SubmitTimeout,
		versionRetries:  cfg.VersionRetries,
		now:             time.Now,
		actors:          make(map[string]*actor),
		stop:            make(chan struct{}),
	}
}

// SetClock replaces the engine's time source, for tests.
func (e *Engine) SetClock(now func() time.Time) {
	e.now = now
}

// Stop shuts down all actors and waits for in-flight collaborator handoffs.
func (e *Engine) Stop() {
	e.stopOnce.Do(func() { close(e.stop) })
	e.runnersWG.Wait()
	e.handoffWG.Wait()
}

// PlaceBid submits a bid through the auction's actor. On a validator
// rejection the returned bid carries status Rejected and the error carries
// the reason; the caller turns that into a rejected-bid response, not a
// server failure.
func (e *Engine) PlaceBid(ctx context.Context, auctionID, bidderID string, amount decimal.Decimal, maxAmount decimal.NullDecimal) (*domain.Bid, error) {
	var out *domain.Bid
	err := e.submit(ctx, auctionID, func(ctx context.Context, a *actor) error {
		bid, err := e.placeBid(ctx, a, auctionID, bidderID, amount, maxAmount)
		out = bid
		return err
	})
	return out, err
}

// BuyItNow ends the auction immediately in the buyer's favor at the
// buy-it-now price and returns the order id created downstream.
func (e *Engine) BuyItNow(ctx context.Context, auctionID, buyerID string) (string, error) {
	var orderID string
	err := e.submit(ctx, auctionID, func(ctx context.Context, a *actor) error {
		id, err := e.buyItNow(ctx, a, auctionID, buyerID)
		orderID = id
		return err
	})
	return orderID, err
}

// Cancel cancels a bidless auction at the seller's request.
func (e *Engine) Cancel(ctx context.Context, auctionID, reason string) error {
	return e.submit(ctx, auctionID, func(ctx context.Context, a *actor) error {
		return e.cancel(ctx, auctionID, reason)
	})
}

// Finalize decides Sold/Unsold for an auction whose deadline has passed.
// Safe to call repeatedly: an already-terminal auction returns
// ErrAlreadyFinalized without side effects.
func (e *Engine) Finalize(ctx context.Context, auctionID string) error {
	return e.submit(ctx, auctionID, func(ctx context.Context, a *actor) error {
		return e.finalize(ctx, auctionID)
	})
}

// Activate moves a scheduled auction to Active once its start time passed.
func (e *Engine) Activate(ctx context.Context, auctionID string) error {
	return e.submit(ctx, auctionID, func(ctx context.Context, a *actor) error {
		_, err := e.loadAuction(ctx, auctionID, e.now())
		return err
	})
}

// loadAuction reads the auction and lazily applies the Scheduled -> Active
// transition when the start time has passed.
func (e *Engine) loadAuction(ctx context.Context, auctionID string, now time.Time) (*domain.Auction, error) {
	auction, err := e.store.GetAuction(ctx, auctionID)
	if err != nil {
		return nil, err
	}

	if auction.Status == domain.AuctionScheduled && !now.Before(auction.StartTime) {
		auction.Status = domain.AuctionActive
		auction.UpdatedAt = now
		if err := e.store.UpdateAuction(ctx, auction); err != nil {
			if errors.Is(err, domain.ErrVersionConflict) {
				return e.store.GetAuction(ctx, auctionID)
			}
			return nil, err
		}
		e.cacheStatus(ctx, auction)
		e.publish(ctx, &domain.AuctionEvent{
			Type:      domain.EventAuctionStarted,
			AuctionID: auction.ID,
			EndTime:   auction.EffectiveEndTime(),
			Timestamp: now,
		})
	}

	return auction, nil
}

func (e *Engine) placeBid(ctx context.Context, act *actor, auctionID, bidderID string, amount decimal.Decimal, maxAmount decimal.NullDecimal) (*domain.Bid, error) {
	now := e.now()

	auction, err := e.loadAuction(ctx, auctionID, now)
	if err != nil {
		return nil, err
	}

	deposit := decimal.Zero
	if auction.RequiresDeposit {
		deposit, err = e.deposits.GetDeposit(ctx, auctionID, bidderID)
		if err != nil {
			return nil, err
		}
	}

	result := e.validator.Validate(auction, bidderID, amount, deposit, now)
	switch result.Verdict {
	case VerdictReject:
		return e.rejectBid(ctx, act, auction, bidderID, amount, result.Reason, now)

	case VerdictBuyItNow:
		// A bid at or above the buy-it-now price is routed to the buy-now
		// path instead of standing as a regular bid.
		bid, _, err := e.sellAtBuyItNow(ctx, act, auction, bidderID, now)
		return bid, err
	}

	bid, err := e.acceptBid(ctx, act, auction, bidderID, amount, maxAmount, false, now)
	if err != nil {
		return nil, err
	}

	if err := e.runProxyRounds(ctx, act, auction); err != nil {
		// The human bid is already durable; a proxy follow-up failure is
		// logged, not surfaced to the original bidder.
		e.log.Error("proxy bid round failed", "auction_id", auctionID, "error", err)
	}

	// A defending proxy may have overtaken the bid within the same
	// submission; reflect that in the response.
	if auction.LeadingBidID != bid.ID {
		bid.Status = domain.BidOutbid
	}

	return bid, nil
}

func (e *Engine) rejectBid(ctx context.Context, act *actor, auction *domain.Auction, bidderID string, amount decimal.Decimal, reason domain.RejectReason, now time.Time) (*domain.Bid, error) {
	bid := &domain.Bid{
		ID:        utils.GenerateID("bid"),
		AuctionID: auction.ID,
		BidderID:  bidderID,
		Amount:    amount,
		BidTime:   act.nextBidTime(now),
		Status:    domain.BidRejected,
	}

	// Rejections against a closed auction are not ledger-worthy; while the
	// auction is open they are recorded for audit.
	if auction.OpenAt(now) {
		if err := e.ledger.AppendBid(ctx, bid); err != nil {
			return nil, err
		}
	}

	e.publish(ctx, &domain.AuctionEvent{
		Type:      domain.EventBidRejected,
		AuctionID: auction.ID,
		UserID:    bidderID,
		BidID:     bid.ID,
		Amount:    amount,
		Reason:    reason,
		Timestamp: now,
	})

	return bid, reason.Err()
}

// acceptBid applies the serialized read-modify-write for one accepted bid:
// auction counters and deadline first (version-guarded), then the ledger
// append and the previous leader's status flip.
func (e *Engine) acceptBid(ctx context.Context, act *actor, auction *domain.Auction, bidderID string, amount decimal.Decimal, maxAmount decimal.NullDecimal, isAuto bool, now time.Time) (*domain.Bid, error) {
	bid := &domain.Bid{
		ID:        utils.GenerateID("bid"),
		AuctionID: auction.ID,
		BidderID:  bidderID,
		Amount:    amount,
		MaxAmount: maxAmount,
		BidTime:   act.nextBidTime(now),
		IsAutoBid: isAuto,
		Status:    domain.BidWinning,
	}

	var prevLeadingBidID, prevHighBidder string

	extended := false
	commit := func(a *domain.Auction) error {
		// A conflict retry replays this against state another writer
		// committed; the floor may have moved past this bid.
		if !a.OpenAt(now) {
			return domain.ErrAuctionNotOpen
		}
		if amount.LessThan(a.MinimumBid()) {
			return domain.ErrBidTooLow
		}

		prevLeadingBidID = a.LeadingBidID
		prevHighBidder = a.HighestBidderID
		extended = false

		a.CurrentBid = amount
		a.BidCount++
		a.LeadingBidID = bid.ID
		a.HighestBidderID = bidderID
		a.UpdatedAt = now

		if e.antiSnipeWindow > 0 && !now.Before(a.EffectiveEndTime().Add(-e.antiSnipeWindow)) {
			a.Status = domain.AuctionEnding
			if e.maxExtensions <= 0 || a.ExtensionCount < e.maxExtensions {
				extended = a.Extend(now.Add(e.antiSnipeWindow))
			}
		}
		return nil
	}

	if err := e.commitUpdate(ctx, auction, commit); err != nil {
		return nil, err
	}

	if err := e.ledger.AppendBid(ctx, bid); err != nil {
		return nil, err
	}
	if prevLeadingBidID != "" {
		if err := e.ledger.UpdateBidStatus(ctx, prevLeadingBidID, domain.BidOutbid); err != nil {
			e.log.Error("failed to flip outbid status", "bid_id", prevLeadingBidID, "error", err)
		}
	}

	e.cacheStatus(ctx, auction)

	e.publish(ctx, &domain.AuctionEvent{
		Type:      domain.EventBidAccepted,
		AuctionID: auction.ID,
		UserID:    bidderID,
		BidID:     bid.ID,
		Amount:    amount,
		EndTime:   auction.EffectiveEndTime(),
		Timestamp: now,
	})
	if prevHighBidder != "" && prevHighBidder != bidderID {
		e.publish(ctx, &domain.AuctionEvent{
			Type:      domain.EventBidderOutbid,
			AuctionID: auction.ID,
			UserID:    prevHighBidder,
			Amount:    amount,
			Timestamp: now,
		})
		e.notify(ctx, domain.EventBidderOutbid, prevHighBidder, map[string]interface{}{
			"auction_id":  auction.ID,
			"current_bid": amount.String(),
		})
	}
	if extended {
		e.publish(ctx, &domain.AuctionEvent{
			Type:      domain.EventAuctionExtended,
			AuctionID: auction.ID,
			EndTime:   auction.EffectiveEndTime(),
			Timestamp: now,
		})
	}

	return bid, nil
}

// runProxyRounds replays registered proxy maximums after an accepted bid.
// The outbid proxy holder with the highest cap (earliest registration on
// ties) is raised by one increment at a time until no proxy can meet the
// floor. First to reach a price keeps it: a later proxy capped at the
// current bid cannot displace the leader.
func (e *Engine) runProxyRounds(ctx context.Context, act *actor, auction *domain.Auction) error {
	for round := 0; round < proxyRoundLimit; round++ {
		bids, err := e.ledger.GetBids(ctx, auction.ID)
		if err != nil {
			return err
		}

		cand := pickProxyCandidate(bids, auction)
		if cand == nil {
			return nil
		}

		raise := auction.MinimumBid()
		if raise.GreaterThan(cand.MaxAmount.Decimal) {
			return nil
		}

		if _, err := e.acceptBid(ctx, act, auction, cand.BidderID, raise, cand.MaxAmount, true, e.now()); err != nil {
			if errors.Is(err, domain.ErrBidTooLow) || errors.Is(err, domain.ErrAuctionNotOpen) {
				// A conflicting writer settled the price first.
				return nil
			}
			return err
		}
	}
	return nil
}

// pickProxyCandidate returns the proxy registration that should respond to
// the current leader, or nil when the price is settled.
func pickProxyCandidate(bids []*domain.Bid, auction *domain.Auction) *domain.Bid {
	floor := auction.MinimumBid()

	// Highest cap per bidder, keeping the earliest registration for the
	// tie-break.
	best := make(map[string]*domain.Bid)
	for _, b := range bids {
		if b.Status == domain.BidRejected || !b.MaxAmount.Valid {
			continue
		}
		cur, ok := best[b.BidderID]
		if !ok || b.MaxAmount.Decimal.GreaterThan(cur.MaxAmount.Decimal) {
			best[b.BidderID] = b
		}
	}

	var cand *domain.Bid
	for bidder, b := range best {
		if bidder == auction.HighestBidderID {
			continue
		}
		if b.MaxAmount.Decimal.LessThan(floor) {
			continue
		}
		if cand == nil ||
			b.MaxAmount.Decimal.GreaterThan(cand.MaxAmount.Decimal) ||
			(b.MaxAmount.Decimal.Equal(cand.MaxAmount.Decimal) && b.BidTime.Before(cand.BidTime)) {
			cand = b
		}
	}
	return cand
}

func (e *Engine) buyItNow(ctx context.Context, act *actor, auctionID, buyerID string) (string, error) {
	now := e.now()

	auction, err := e.loadAuction(ctx, auctionID, now)
	if err != nil {
		return "", err
	}

	if !auction.OpenAt(now) {
		return "", domain.ErrAuctionNotOpen
	}
	if !auction.BuyItNowPrice.Valid {
		return "", domain.ErrNoBuyItNowPrice
	}
	if buyerID == auction.SellerID {
		return "", domain.ErrSelfBidForbidden
	}
	if auction.RequiresDeposit {
		deposit, err := e.deposits.GetDeposit(ctx, auctionID, buyerID)
		if err != nil {
			return "", err
		}
		if deposit.LessThan(auction.DepositAmount) {
			return "", domain.ErrDepositRequired
		}
	}

	_, orderID, err := e.sellAtBuyItNow(ctx, act, auction, buyerID, now)
	return orderID, err
}

// sellAtBuyItNow runs inside the actor, so a buy-now call racing a rising
// proxy bid resolves deterministically: whichever lands first wins, the
// other sees the updated state.
func (e *Engine) sellAtBuyItNow(ctx context.Context, act *actor, auction *domain.Auction, buyerID string, now time.Time) (*domain.Bid, string, error) {
	price := auction.BuyItNowPrice.Decimal

	bid := &domain.Bid{
		ID:        utils.GenerateID("bid"),
		AuctionID: auction.ID,
		BidderID:  buyerID,
		Amount:    price,
		BidTime:   act.nextBidTime(now),
		Status:    domain.BidWinning,
	}

	var prevLeadingBidID string

	commit := func(a *domain.Auction) error {
		if a.Status.Terminal() {
			return domain.ErrAlreadyFinalized
		}
		if !a.OpenAt(now) {
			return domain.ErrAuctionNotOpen
		}
		if a.CurrentBid.GreaterThan(price) {
			// A rival bid has already passed the buy-it-now price.
			return domain.ErrBidTooLow
		}

		prevLeadingBidID = a.LeadingBidID

		a.CurrentBid = price
		a.BidCount++
		a.LeadingBidID = bid.ID
		a.WinningBidID = bid.ID
		a.HighestBidderID = buyerID
		a.ReserveMet = !a.HasReserve || price.GreaterThanOrEqual(a.ReservePrice)
		a.Status = domain.AuctionSold
		a.UpdatedAt = now
		return nil
	}

	if err := e.commitUpdate(ctx, auction, commit); err != nil {
		return nil, "", err
	}

	if err := e.ledger.AppendBid(ctx, bid); err != nil {
		return nil, "", err
	}
	if prevLeadingBidID != "" {
		if err := e.ledger.UpdateBidStatus(ctx, prevLeadingBidID, domain.BidOutbid); err != nil {
			e.log.Error("failed to flip outbid status", "bid_id", prevLeadingBidID, "error", err)
		}
	}

	e.cacheStatus(ctx, auction)

	e.publish(ctx, &domain.AuctionEvent{
		Type:      domain.EventBuyItNow,
		AuctionID: auction.ID,
		UserID:    buyerID,
		BidID:     bid.ID,
		Amount:    price,
		Timestamp: now,
	})
	e.publish(ctx, &domain.AuctionEvent{
		Type:      domain.EventAuctionSold,
		AuctionID: auction.ID,
		UserID:    buyerID,
		BidID:     bid.ID,
		Amount:    price,
		Timestamp: now,
	})

	// The buyer gets the order id back, so this call is synchronous; the
	// order collaborator is keyed by auction id and ignores duplicates.
	orderID, err := e.orders.CreateFromAuction(ctx, auction.ID, bid.ID)
	if err != nil {
		e.log.Error("order creation failed after buy-it-now", "auction_id", auction.ID, "error", err)
		return bid, "", err
	}

	e.notify(ctx, domain.EventAuctionSold, buyerID, map[string]interface{}{
		"auction_id": auction.ID,
		"order_id":   orderID,
		"amount":     price.String(),
	})
	e.notify(ctx, domain.EventAuctionSold, auction.SellerID, map[string]interface{}{
		"auction_id": auction.ID,
		"order_id":   orderID,
		"amount":     price.String(),
	})

	return bid, orderID, nil
}

func (e *Engine) cancel(ctx context.Context, auctionID, reason string) error {
	now := e.now()

	auction, err := e.store.GetAuction(ctx, auctionID)
	if err != nil {
		return err
	}

	if auction.Status.Terminal() {
		return domain.ErrAlreadyFinalized
	}
	if auction.BidCount > 0 {
		// Cancelling with standing bids escalates to a dispute workflow
		// outside this engine.
		return domain.ErrCancelForbidden
	}

	commit := func(a *domain.Auction) error {
		if a.Status.Terminal() {
			return domain.ErrAlreadyFinalized
		}
		if a.BidCount > 0 {
			return domain.ErrCancelForbidden
		}
		a.Status = domain.AuctionCancelled
		a.UpdatedAt = now
		return nil
	}
	if err := e.commitUpdate(ctx, auction, commit); err != nil {
		return err
	}

	e.cacheStatus(ctx, auction)
	e.publish(ctx, &domain.AuctionEvent{
		Type:      domain.EventAuctionCancelled,
		AuctionID: auction.ID,
		Timestamp: now,
	})
	e.notify(ctx, domain.EventAuctionCancelled, auction.SellerID, map[string]interface{}{
		"auction_id": auction.ID,
		"reason":     reason,
	})

	e.log.Info("auction cancelled", "auction_id", auctionID, "reason", reason)
	return nil
}

func (e *Engine) finalize(ctx context.Context, auctionID string) error {
	// Each attempt re-reads the auction and re-derives the outcome, so a
	// conflicting writer (another instance finalizing, or a late bid through
	// a rival engine) is observed rather than overwritten.
	for attempt := 0; attempt < e.versionRetries; attempt++ {
		err := e.finalizeOnce(ctx, auctionID)
		if errors.Is(err, domain.ErrVersionConflict) {
			continue
		}
		return err
	}
	return domain.ErrAuctionBusy
}

func (e *Engine) finalizeOnce(ctx context.Context, auctionID string) error {
	now := e.now()

	auction, err := e.store.GetAuction(ctx, auctionID)
	if err != nil {
		return err
	}

	if auction.Status.Terminal() {
		return domain.ErrAlreadyFinalized
	}
	if now.Before(auction.EffectiveEndTime()) {
		// A bid extended the deadline after the sweep selected this auction.
		return nil
	}

	reserveMet := !auction.HasReserve || auction.CurrentBid.GreaterThanOrEqual(auction.ReservePrice)
	sold := auction.BidCount > 0 && reserveMet

	var winner *domain.Bid
	if sold {
		bids, err := e.ledger.GetBids(ctx, auctionID)
		if err != nil {
			return err
		}
		winner = pickWinner(bids)
		if winner == nil {
			sold = false
		}
	}

	auction.ReserveMet = auction.BidCount > 0 && reserveMet
	auction.UpdatedAt = now
	if sold {
		auction.Status = domain.AuctionSold
		auction.WinningBidID = winner.ID
		auction.HighestBidderID = winner.BidderID
	} else {
		auction.Status = domain.AuctionUnsold
	}
	if err := e.store.UpdateAuction(ctx, auction); err != nil {
		return err
	}

	e.cacheStatus(ctx, auction)

	if sold {
		if err := e.ledger.UpdateBidStatus(ctx, winner.ID, domain.BidWinning); err != nil {
			e.log.Error("failed to mark winning bid", "bid_id", winner.ID, "error", err)
		}
		e.publish(ctx, &domain.AuctionEvent{
			Type:      domain.EventAuctionSold,
			AuctionID: auction.ID,
			UserID:    winner.BidderID,
			BidID:     winner.ID,
			Amount:    winner.Amount,
			Timestamp: now,
		})
	} else {
		e.publish(ctx, &domain.AuctionEvent{
			Type:      domain.EventAuctionUnsold,
			AuctionID: auction.ID,
			Timestamp: now,
		})
	}

	// Collaborator handoff runs after the terminal commit so a slow order
	// or notification call never blocks the state transition, and a
	// handoff failure never rolls it back.
	snapshot := *auction
	var winnerCopy *domain.Bid
	if winner != nil {
		w := *winner
		winnerCopy = &w
	}
	e.handoffWG.Add(1)
	go func() {
		defer e.handoffWG.Done()
		e.handoff(context.Background(), &snapshot, winnerCopy)
	}()

	e.log.Info("auction finalized",
		"auction_id", auctionID,
		"status", auction.Status.String(),
		"bid_count", auction.BidCount)
	return nil
}

func (e *Engine) handoff(ctx context.Context, auction *domain.Auction, winner *domain.Bid) {
	if auction.Status == domain.AuctionSold && winner != nil {
		orderID, err := e.orders.CreateFromAuction(ctx, auction.ID, winner.ID)
		if err != nil {
			e.log.Error("order creation failed", "auction_id", auction.ID, "error", err)
		} else {
			e.notify(ctx, domain.EventAuctionSold, winner.BidderID, map[string]interface{}{
				"auction_id": auction.ID,
				"order_id":   orderID,
				"amount":     winner.Amount.String(),
			})
		}
	}

	sellerEvent := domain.EventAuctionUnsold
	if auction.Status == domain.AuctionSold {
		sellerEvent = domain.EventAuctionSold
	}
	e.notify(ctx, sellerEvent, auction.SellerID, map[string]interface{}{
		"auction_id": auction.ID,
		"final_bid":  auction.CurrentBid.String(),
	})

	// Losing bidders.
	bids, err := e.ledger.GetBids(ctx, auction.ID)
	if err != nil {
		e.log.Error("failed to load bids for loser notifications", "auction_id", auction.ID, "error", err)
		return
	}
	seen := map[string]bool{auction.SellerID: true}
	if winner != nil {
		seen[winner.BidderID] = true
	}
	for _, b := range bids {
		if seen[b.BidderID] {
			continue
		}
		seen[b.BidderID] = true
		e.notify(ctx, domain.EventBidderOutbid, b.BidderID, map[string]interface{}{
			"auction_id": auction.ID,
			"outcome":    auction.Status.String(),
		})
	}
}

// pickWinner returns the highest-amount bid, tie-broken by earliest bid
// time. Rejected bids never win.
func pickWinner(bids []*domain.Bid) *domain.Bid {
	var winner *domain.Bid
	for _, b := range bids {
		if b.Status == domain.BidRejected {
			continue
		}
		if winner == nil ||
			b.Amount.GreaterThan(winner.Amount) ||
			(b.Amount.Equal(winner.Amount) && b.BidTime.Before(winner.BidTime)) {
			winner = b
		}
	}
	return winner
}

// commitUpdate applies mutate to the auction and commits it under the
// store's version guard, retrying against fresh state a bounded number of
// times before surfacing ErrAuctionBusy. mutate runs once per attempt and
// must re-check its own preconditions: after a conflict it sees state
// another writer committed, where the original decision may no longer hold.
func (e *Engine) commitUpdate(ctx context.Context, auction *domain.Auction, mutate func(*domain.Auction) error) error {
	for attempt := 0; attempt < e.versionRetries; attempt++ {
		if err := mutate(auction); err != nil {
			return err
		}
		err := e.store.UpdateAuction(ctx, auction)
		if err == nil {
			return nil
		}
		if !errors.Is(err, domain.ErrVersionConflict) {
			return err
		}

		fresh, err := e.store.GetAuction(ctx, auction.ID)
		if err != nil {
			return err
		}
		*auction = *fresh
	}
	return domain.ErrAuctionBusy
}

func (e *Engine) cacheStatus(ctx context.Context, auction *domain.Auction) {
	if e.stateCache == nil {
		return
	}
	if err := e.stateCache.SetAuctionStatus(ctx, auction.ID, auction.Status); err != nil {
		e.log.Error("failed to cache auction status", "auction_id", auction.ID, "error", err)
	}
}

func (e *Engine) publish(ctx context.Context, event *domain.AuctionEvent) {
	if e.events == nil {
		return
	}
	if err := e.events.PublishAuctionEvent(ctx, event); err != nil {
		e.log.Error("failed to publish event", "type", event.Type, "auction_id", event.AuctionID, "error", err)
	}
}

func (e *Engine) notify(ctx context.Context, event domain.AuctionEventType, recipientID string, payload map[string]interface{}) {
	if e.notifier == nil {
		return
	}
	if err := e.notifier.Notify(ctx, event, recipientID, payload); err != nil {
		e.log.Error("notification failed", "event", event, "recipient", recipientID, "error", err)
	}
}

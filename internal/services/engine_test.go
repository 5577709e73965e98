package services

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"auction-engine/internal/domain"
	"auction-engine/internal/infrastructure/memory"
	"auction-engine/pkg/logger"
	"auction-engine/pkg/utils"

	"github.com/peterldowns/testy/assert"
	"github.com/peterldowns/testy/check"
	"github.com/shopspring/decimal"
)

// --- test doubles ---

type testClock struct {
	mu sync.Mutex
	t  time.Time
}

func newTestClock(t time.Time) *testClock {
	return &testClock{t: t}
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *testClock) Set(t time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = t
}

func (c *testClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(d)
}

type fakeOrders struct {
	mu    sync.Mutex
	calls []string
}

func (f *fakeOrders) CreateFromAuction(ctx context.Context, auctionID, winningBidID string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, auctionID)
	return "order_" + auctionID, nil
}

func (f *fakeOrders) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

type fakeDeposits struct {
	mu      sync.Mutex
	amounts map[string]decimal.Decimal // bidderID -> deposit
}

func (f *fakeDeposits) GetDeposit(ctx context.Context, auctionID, bidderID string) (decimal.Decimal, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.amounts == nil {
		return decimal.Zero, nil
	}
	return f.amounts[bidderID], nil
}

type fakeNotifier struct {
	mu     sync.Mutex
	events []domain.AuctionEventType
}

func (f *fakeNotifier) Notify(ctx context.Context, event domain.AuctionEventType, recipientID string, payload map[string]interface{}) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, event)
	return nil
}

type testEnv struct {
	engine   *Engine
	store    *memory.AuctionStore
	ledger   *memory.BidLedger
	orders   *fakeOrders
	deposits *fakeDeposits
	clock    *testClock
}

var testBase = time.Date(2026, 8, 1, 10, 0, 0, 0, time.UTC)

func newTestEnv(t *testing.T, cfg EngineConfig) *testEnv {
	t.Helper()

	store := memory.NewAuctionStore()
	ledger := memory.NewBidLedger()
	orders := &fakeOrders{}
	deposits := &fakeDeposits{}
	clock := newTestClock(testBase)

	if cfg.AntiSnipeWindow == 0 {
		cfg.AntiSnipeWindow = 2 * time.Minute
	}
	if cfg.SubmitTimeout == 0 {
		cfg.SubmitTimeout = 2 * time.Second
	}

	engine := NewEngine(
		store, ledger, NewBidValidator(),
		deposits, orders, &fakeNotifier{}, nil, nil,
		cfg, logger.NewNop(),
	)
	engine.SetClock(clock.Now)
	t.Cleanup(engine.Stop)

	return &testEnv{
		engine:   engine,
		store:    store,
		ledger:   ledger,
		orders:   orders,
		deposits: deposits,
		clock:    clock,
	}
}

type auctionOpt func(*domain.Auction)

func withBuyItNow(price int64) auctionOpt {
	return func(a *domain.Auction) {
		a.BuyItNowPrice = decimal.NewNullDecimal(decimal.NewFromInt(price))
	}
}

func withReserve(price int64) auctionOpt {
	return func(a *domain.Auction) {
		a.HasReserve = true
		a.ReservePrice = decimal.NewFromInt(price)
	}
}

func withStatus(s domain.AuctionStatus) auctionOpt {
	return func(a *domain.Auction) { a.Status = s }
}

func activeAuction(opts ...auctionOpt) *domain.Auction {
	auction := &domain.Auction{
		ID:            utils.GenerateID("auction"),
		AuctionNumber: utils.GenerateAuctionNumber(testBase),
		ProductID:     "product_1",
		SellerID:      "seller_1",
		Status:        domain.AuctionActive,
		StartingPrice: decimal.NewFromInt(100),
		BidIncrement:  decimal.NewFromInt(10),
		CurrentBid:    decimal.Zero,
		Currency:      "GBP",
		StartTime:     testBase,
		EndTime:       testBase.Add(time.Hour),
		CreatedAt:     testBase,
		UpdatedAt:     testBase,
	}
	for _, opt := range opts {
		opt(auction)
	}
	return auction
}

func (env *testEnv) createAuction(t *testing.T, opts ...auctionOpt) *domain.Auction {
	t.Helper()

	auction := activeAuction(opts...)
	assert.Nil(t, env.store.CreateAuction(context.Background(), auction))
	return auction
}

func (env *testEnv) bid(auctionID, bidderID string, amount int64) (*domain.Bid, error) {
	return env.engine.PlaceBid(context.Background(), auctionID, bidderID,
		decimal.NewFromInt(amount), decimal.NullDecimal{})
}

func (env *testEnv) proxyBid(auctionID, bidderID string, amount, max int64) (*domain.Bid, error) {
	return env.engine.PlaceBid(context.Background(), auctionID, bidderID,
		decimal.NewFromInt(amount), decimal.NewNullDecimal(decimal.NewFromInt(max)))
}

// --- tests ---

func TestPlaceBid_IncrementLadder(t *testing.T) {
	env := newTestEnv(t, EngineConfig{})
	auction := env.createAuction(t)
	env.clock.Set(testBase.Add(10 * time.Minute))

	_, err := env.bid(auction.ID, "bidder_a", 90)
	check.True(t, errors.Is(err, domain.ErrBidTooLow))

	first, err := env.bid(auction.ID, "bidder_a", 100)
	assert.Nil(t, err)
	check.Equal(t, domain.BidWinning, first.Status)

	_, err = env.bid(auction.ID, "bidder_b", 105)
	check.True(t, errors.Is(err, domain.ErrBidTooLow))

	second, err := env.bid(auction.ID, "bidder_b", 110)
	assert.Nil(t, err)

	stored, err := env.store.GetAuction(context.Background(), auction.ID)
	assert.Nil(t, err)
	check.True(t, stored.CurrentBid.Equal(decimal.NewFromInt(110)))
	check.Equal(t, 2, stored.BidCount)
	check.Equal(t, second.ID, stored.LeadingBidID)
	check.Equal(t, "bidder_b", stored.HighestBidderID)
	check.Equal(t, "", stored.WinningBidID)

	// The first bid was flipped to outbid in the ledger.
	flipped, err := env.ledger.GetBid(context.Background(), first.ID)
	assert.Nil(t, err)
	check.Equal(t, domain.BidOutbid, flipped.Status)
}

func TestPlaceBid_CurrentBidMonotonic(t *testing.T) {
	env := newTestEnv(t, EngineConfig{})
	auction := env.createAuction(t)
	env.clock.Set(testBase.Add(10 * time.Minute))

	for _, amt := range []int64{100, 115, 130, 200, 210} {
		_, err := env.bid(auction.ID, "bidder_a", amt)
		assert.Nil(t, err)
	}

	bids, err := env.ledger.GetBids(context.Background(), auction.ID)
	assert.Nil(t, err)

	prev := decimal.Zero
	var prevTime time.Time
	for _, b := range bids {
		check.True(t, b.Amount.GreaterThanOrEqual(prev))
		check.True(t, b.BidTime.After(prevTime))
		prev = b.Amount
		prevTime = b.BidTime
	}
}

func TestPlaceBid_ConcurrentEqualBids(t *testing.T) {
	env := newTestEnv(t, EngineConfig{})
	auction := env.createAuction(t)
	env.clock.Set(testBase.Add(10 * time.Minute))

	var wg sync.WaitGroup
	results := make([]error, 2)
	bidders := []string{"bidder_a", "bidder_b"}
	for i := range bidders {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, results[i] = env.bid(auction.ID, bidders[i], 100)
		}(i)
	}
	wg.Wait()

	var accepted, tooLow int
	for _, err := range results {
		switch {
		case err == nil:
			accepted++
		case errors.Is(err, domain.ErrBidTooLow):
			tooLow++
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}
	check.Equal(t, 1, accepted)
	check.Equal(t, 1, tooLow)

	stored, err := env.store.GetAuction(context.Background(), auction.ID)
	assert.Nil(t, err)
	check.True(t, stored.CurrentBid.Equal(decimal.NewFromInt(100)))
	check.Equal(t, 1, stored.BidCount)
}

func TestPlaceBid_SelfBidRejected(t *testing.T) {
	env := newTestEnv(t, EngineConfig{})
	auction := env.createAuction(t)
	env.clock.Set(testBase.Add(10 * time.Minute))

	bid, err := env.bid(auction.ID, auction.SellerID, 100)
	check.True(t, errors.Is(err, domain.ErrSelfBidForbidden))
	check.Equal(t, domain.BidRejected, bid.Status)
}

func TestPlaceBid_DepositGate(t *testing.T) {
	env := newTestEnv(t, EngineConfig{})
	auction := env.createAuction(t, func(a *domain.Auction) {
		a.RequiresDeposit = true
		a.DepositAmount = decimal.NewFromInt(50)
	})
	env.clock.Set(testBase.Add(10 * time.Minute))

	_, err := env.bid(auction.ID, "bidder_a", 100)
	check.True(t, errors.Is(err, domain.ErrDepositRequired))

	env.deposits.amounts = map[string]decimal.Decimal{"bidder_a": decimal.NewFromInt(50)}
	_, err = env.bid(auction.ID, "bidder_a", 100)
	check.Nil(t, err)
}

func TestPlaceBid_AntiSnipeExtension(t *testing.T) {
	env := newTestEnv(t, EngineConfig{AntiSnipeWindow: 2 * time.Minute, MaxExtensions: 2})
	auction := env.createAuction(t)

	// 30 seconds before the deadline.
	bidTime := auction.EndTime.Add(-30 * time.Second)
	env.clock.Set(bidTime)

	_, err := env.bid(auction.ID, "bidder_a", 100)
	assert.Nil(t, err)

	stored, err := env.store.GetAuction(context.Background(), auction.ID)
	assert.Nil(t, err)
	check.Equal(t, domain.AuctionEnding, stored.Status)
	assert.NotNil(t, stored.ExtendedUntil)
	check.True(t, stored.ExtendedUntil.Equal(bidTime.Add(2*time.Minute)))
	check.Equal(t, 1, stored.ExtensionCount)

	// A bid near the new deadline extends again.
	secondBidTime := stored.EffectiveEndTime().Add(-10 * time.Second)
	env.clock.Set(secondBidTime)
	_, err = env.bid(auction.ID, "bidder_b", 110)
	assert.Nil(t, err)

	stored, err = env.store.GetAuction(context.Background(), auction.ID)
	assert.Nil(t, err)
	check.Equal(t, 2, stored.ExtensionCount)
	check.True(t, stored.EffectiveEndTime().Equal(secondBidTime.Add(2*time.Minute)))

	// The cap stops a third extension; the deadline stays put.
	capEnd := stored.EffectiveEndTime()
	env.clock.Set(capEnd.Add(-10 * time.Second))
	_, err = env.bid(auction.ID, "bidder_a", 120)
	assert.Nil(t, err)

	stored, err = env.store.GetAuction(context.Background(), auction.ID)
	assert.Nil(t, err)
	check.Equal(t, 2, stored.ExtensionCount)
	check.True(t, stored.EffectiveEndTime().Equal(capEnd))
}

func TestPlaceBid_DeadlineNeverMovesBackward(t *testing.T) {
	env := newTestEnv(t, EngineConfig{AntiSnipeWindow: 2 * time.Minute})
	auction := env.createAuction(t)

	env.clock.Set(auction.EndTime.Add(-90 * time.Second))
	ends := []time.Time{auction.EffectiveEndTime()}

	for i, amt := range []int64{100, 110, 120} {
		_, err := env.bid(auction.ID, "bidder_a", amt)
		assert.Nil(t, err)

		stored, err := env.store.GetAuction(context.Background(), auction.ID)
		assert.Nil(t, err)
		check.True(t, !stored.EffectiveEndTime().Before(ends[i]))
		ends = append(ends, stored.EffectiveEndTime())
		env.clock.Advance(30 * time.Second)
	}
}

func TestPlaceBid_LazyActivation(t *testing.T) {
	env := newTestEnv(t, EngineConfig{})
	auction := env.createAuction(t, withStatus(domain.AuctionScheduled))
	env.clock.Set(testBase.Add(10 * time.Minute))

	_, err := env.bid(auction.ID, "bidder_a", 100)
	assert.Nil(t, err)

	stored, err := env.store.GetAuction(context.Background(), auction.ID)
	assert.Nil(t, err)
	check.Equal(t, domain.AuctionActive, stored.Status)
}

func TestPlaceBid_BeforeStartRejected(t *testing.T) {
	env := newTestEnv(t, EngineConfig{})
	auction := env.createAuction(t, withStatus(domain.AuctionScheduled), func(a *domain.Auction) {
		a.StartTime = testBase.Add(time.Hour)
		a.EndTime = testBase.Add(2 * time.Hour)
	})
	env.clock.Set(testBase.Add(10 * time.Minute))

	_, err := env.bid(auction.ID, "bidder_a", 100)
	check.True(t, errors.Is(err, domain.ErrAuctionNotOpen))
}

func TestBuyItNow_ImmediateSale(t *testing.T) {
	env := newTestEnv(t, EngineConfig{})
	auction := env.createAuction(t, withBuyItNow(500))
	env.clock.Set(testBase.Add(10 * time.Minute))

	_, err := env.bid(auction.ID, "bidder_a", 100)
	assert.Nil(t, err)

	orderID, err := env.engine.BuyItNow(context.Background(), auction.ID, "bidder_b")
	assert.Nil(t, err)
	check.Equal(t, "order_"+auction.ID, orderID)

	stored, err := env.store.GetAuction(context.Background(), auction.ID)
	assert.Nil(t, err)
	check.Equal(t, domain.AuctionSold, stored.Status)
	check.True(t, stored.CurrentBid.Equal(decimal.NewFromInt(500)))
	check.Equal(t, stored.LeadingBidID, stored.WinningBidID)

	winning, err := env.ledger.GetBid(context.Background(), stored.WinningBidID)
	assert.Nil(t, err)
	check.Equal(t, "bidder_b", winning.BidderID)
	check.True(t, winning.Amount.Equal(decimal.NewFromInt(500)))

	// All subsequent bids bounce.
	_, err = env.bid(auction.ID, "bidder_c", 600)
	check.True(t, errors.Is(err, domain.ErrAuctionNotOpen))

	check.Equal(t, 1, env.orders.callCount())
}

func TestBuyItNow_BidAtBuyItNowPriceRoutes(t *testing.T) {
	env := newTestEnv(t, EngineConfig{})
	auction := env.createAuction(t, withBuyItNow(500))
	env.clock.Set(testBase.Add(10 * time.Minute))

	bid, err := env.bid(auction.ID, "bidder_a", 500)
	assert.Nil(t, err)
	check.Equal(t, domain.BidWinning, bid.Status)

	stored, err := env.store.GetAuction(context.Background(), auction.ID)
	assert.Nil(t, err)
	check.Equal(t, domain.AuctionSold, stored.Status)
	check.Equal(t, 1, env.orders.callCount())
}

func TestBuyItNow_WithoutPrice(t *testing.T) {
	env := newTestEnv(t, EngineConfig{})
	auction := env.createAuction(t)
	env.clock.Set(testBase.Add(10 * time.Minute))

	_, err := env.engine.BuyItNow(context.Background(), auction.ID, "bidder_a")
	check.True(t, errors.Is(err, domain.ErrNoBuyItNowPrice))
}

func TestProxyBid_AutoRaiseDefendsLeader(t *testing.T) {
	env := newTestEnv(t, EngineConfig{})
	auction := env.createAuction(t)
	env.clock.Set(testBase.Add(10 * time.Minute))

	// bidder_a stands at 100 with a 200 proxy cap.
	_, err := env.proxyBid(auction.ID, "bidder_a", 100, 200)
	assert.Nil(t, err)

	// bidder_b's 110 is immediately answered by the proxy at 120.
	bBid, err := env.bid(auction.ID, "bidder_b", 110)
	assert.Nil(t, err)
	check.Equal(t, domain.BidOutbid, bBid.Status)

	stored, err := env.store.GetAuction(context.Background(), auction.ID)
	assert.Nil(t, err)
	check.Equal(t, "bidder_a", stored.HighestBidderID)
	check.True(t, stored.CurrentBid.Equal(decimal.NewFromInt(120)))

	bids, err := env.ledger.GetBids(context.Background(), auction.ID)
	assert.Nil(t, err)
	check.Equal(t, 3, len(bids))
	auto := bids[len(bids)-1]
	check.True(t, auto.IsAutoBid)
	check.Equal(t, "bidder_a", auto.BidderID)
}

func TestProxyBid_CapExhausted(t *testing.T) {
	env := newTestEnv(t, EngineConfig{})
	auction := env.createAuction(t)
	env.clock.Set(testBase.Add(10 * time.Minute))

	_, err := env.proxyBid(auction.ID, "bidder_a", 100, 150)
	assert.Nil(t, err)

	// 200 is beyond the proxy's reach: answering needs 210.
	_, err = env.bid(auction.ID, "bidder_b", 200)
	assert.Nil(t, err)

	stored, err := env.store.GetAuction(context.Background(), auction.ID)
	assert.Nil(t, err)
	check.Equal(t, "bidder_b", stored.HighestBidderID)
	check.True(t, stored.CurrentBid.Equal(decimal.NewFromInt(200)))
}

func TestProxyBid_EqualCapsFavorEarlierRegistration(t *testing.T) {
	env := newTestEnv(t, EngineConfig{})
	auction := env.createAuction(t)
	env.clock.Set(testBase.Add(10 * time.Minute))

	_, err := env.proxyBid(auction.ID, "bidder_a", 100, 200)
	assert.Nil(t, err)
	_, err = env.proxyBid(auction.ID, "bidder_b", 110, 200)
	assert.Nil(t, err)

	// The ladder runs until both caps are spent; first to reach the cap
	// price keeps it.
	stored, err := env.store.GetAuction(context.Background(), auction.ID)
	assert.Nil(t, err)
	check.Equal(t, "bidder_a", stored.HighestBidderID)
	check.True(t, stored.CurrentBid.Equal(decimal.NewFromInt(200)))
}

func TestCancel_OnlyWithoutBids(t *testing.T) {
	env := newTestEnv(t, EngineConfig{})
	auction := env.createAuction(t)
	env.clock.Set(testBase.Add(10 * time.Minute))

	assert.Nil(t, env.engine.Cancel(context.Background(), auction.ID, "listing error"))

	stored, err := env.store.GetAuction(context.Background(), auction.ID)
	assert.Nil(t, err)
	check.Equal(t, domain.AuctionCancelled, stored.Status)

	// Cancelled auctions accept no bids.
	_, err = env.bid(auction.ID, "bidder_a", 100)
	check.True(t, errors.Is(err, domain.ErrAuctionNotOpen))

	// An auction with bids cannot be cancelled.
	withBids := env.createAuction(t)
	_, err = env.bid(withBids.ID, "bidder_a", 100)
	assert.Nil(t, err)
	err = env.engine.Cancel(context.Background(), withBids.ID, "changed my mind")
	check.True(t, errors.Is(err, domain.ErrCancelForbidden))
}

// conflictingStore commits a rival mutation just before the first update it
// sees, forcing a version conflict on the caller's commit.
type conflictingStore struct {
	*memory.AuctionStore
	mu      sync.Mutex
	rival   func(*domain.Auction)
	applied bool
}

func (s *conflictingStore) UpdateAuction(ctx context.Context, a *domain.Auction) error {
	s.mu.Lock()
	inject := !s.applied && s.rival != nil
	if inject {
		s.applied = true
	}
	s.mu.Unlock()

	if inject {
		fresh, err := s.AuctionStore.GetAuction(ctx, a.ID)
		if err != nil {
			return err
		}
		s.rival(fresh)
		if err := s.AuctionStore.UpdateAuction(ctx, fresh); err != nil {
			return err
		}
	}
	return s.AuctionStore.UpdateAuction(ctx, a)
}

func TestPlaceBid_ConflictRetryRevalidatesFloor(t *testing.T) {
	store := &conflictingStore{AuctionStore: memory.NewAuctionStore()}
	store.rival = func(a *domain.Auction) {
		a.CurrentBid = decimal.NewFromInt(200)
		a.BidCount = 1
		a.LeadingBidID = "bid_rival"
		a.HighestBidderID = "bidder_rival"
	}

	clock := newTestClock(testBase)
	engine := NewEngine(
		store, memory.NewBidLedger(), NewBidValidator(),
		&fakeDeposits{}, &fakeOrders{}, &fakeNotifier{}, nil, nil,
		EngineConfig{SubmitTimeout: 2 * time.Second}, logger.NewNop(),
	)
	engine.SetClock(clock.Now)
	t.Cleanup(engine.Stop)

	auction := activeAuction()
	assert.Nil(t, store.CreateAuction(context.Background(), auction))
	clock.Set(testBase.Add(10 * time.Minute))

	// 105 clears the stale floor of 100, but the rival's 200 commits first;
	// the retry must reject it against the new floor of 210.
	_, err := engine.PlaceBid(context.Background(), auction.ID, "bidder_a",
		decimal.NewFromInt(105), decimal.NullDecimal{})
	check.True(t, errors.Is(err, domain.ErrBidTooLow))

	stored, err := store.GetAuction(context.Background(), auction.ID)
	assert.Nil(t, err)
	check.True(t, stored.CurrentBid.Equal(decimal.NewFromInt(200)))
	check.Equal(t, 1, stored.BidCount)
	check.Equal(t, "bidder_rival", stored.HighestBidderID)
}

func TestFinalize_ConflictRetrySeesRivalFinalization(t *testing.T) {
	store := &conflictingStore{AuctionStore: memory.NewAuctionStore()}
	store.rival = func(a *domain.Auction) {
		a.Status = domain.AuctionSold
		a.WinningBidID = "bid_rival"
		a.ReserveMet = true
	}

	orders := &fakeOrders{}
	ledger := memory.NewBidLedger()
	clock := newTestClock(testBase)
	engine := NewEngine(
		store, ledger, NewBidValidator(),
		&fakeDeposits{}, orders, &fakeNotifier{}, nil, nil,
		EngineConfig{SubmitTimeout: 2 * time.Second}, logger.NewNop(),
	)
	engine.SetClock(clock.Now)
	t.Cleanup(engine.Stop)

	auction := activeAuction()
	auction.CurrentBid = decimal.NewFromInt(150)
	auction.BidCount = 1
	assert.Nil(t, store.CreateAuction(context.Background(), auction))
	assert.Nil(t, ledger.AppendBid(context.Background(), &domain.Bid{
		ID:        "bid_1",
		AuctionID: auction.ID,
		BidderID:  "bidder_a",
		Amount:    decimal.NewFromInt(150),
		BidTime:   testBase.Add(5 * time.Minute),
		Status:    domain.BidWinning,
	}))

	clock.Set(auction.EndTime.Add(time.Second))
	err := engine.Finalize(context.Background(), auction.ID)
	check.True(t, errors.Is(err, domain.ErrAlreadyFinalized))
	engine.Stop()

	// The rival's terminal state stands and no second order is created.
	check.Equal(t, 0, orders.callCount())
	stored, err := store.GetAuction(context.Background(), auction.ID)
	assert.Nil(t, err)
	check.Equal(t, domain.AuctionSold, stored.Status)
	check.Equal(t, "bid_rival", stored.WinningBidID)
}

func TestSubmit_SurvivesActorEviction(t *testing.T) {
	env := newTestEnv(t, EngineConfig{ActorIdleTTL: time.Nanosecond})
	auction := env.createAuction(t)
	env.clock.Set(testBase.Add(10 * time.Minute))

	// Every submission races actor eviction; each must still be served.
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	for i := 0; i < 500; i++ {
		assert.Nil(t, env.engine.Activate(ctx, auction.ID))
	}
}

func TestSubmit_AfterStopReturnsBusy(t *testing.T) {
	env := newTestEnv(t, EngineConfig{})
	auction := env.createAuction(t)
	env.clock.Set(testBase.Add(10 * time.Minute))

	env.engine.Stop()

	_, err := env.bid(auction.ID, "bidder_a", 100)
	check.True(t, errors.Is(err, domain.ErrAuctionBusy))
}

func TestSubmit_TimeoutWhenActorSaturated(t *testing.T) {
	env := newTestEnv(t, EngineConfig{SubmitTimeout: 50 * time.Millisecond})
	auctionID := "auction_saturated"

	gate := make(chan struct{})
	started := make(chan struct{})
	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		_ = env.engine.submit(context.Background(), auctionID, func(ctx context.Context, a *actor) error {
			close(started)
			<-gate
			return nil
		})
	}()
	<-started

	// With the actor occupied, fill its mailbox to capacity.
	for i := 0; i < mailboxSize; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = env.engine.submit(context.Background(), auctionID, func(ctx context.Context, a *actor) error {
				return nil
			})
		}()
	}

	deadline := time.Now().Add(5 * time.Second)
	for mailboxLen(env.engine, auctionID) < mailboxSize {
		if time.Now().After(deadline) {
			t.Fatal("mailbox never filled")
		}
		time.Sleep(time.Millisecond)
	}

	// One more submission cannot be enqueued and must fail bounded.
	err := env.engine.submit(context.Background(), auctionID, func(ctx context.Context, a *actor) error {
		return nil
	})
	check.True(t, errors.Is(err, domain.ErrAuctionBusy))

	close(gate)
	wg.Wait()
}

func mailboxLen(e *Engine, auctionID string) int {
	e.actorsMu.Lock()
	defer e.actorsMu.Unlock()
	if a, ok := e.actors[auctionID]; ok {
		return len(a.mailbox)
	}
	return 0
}

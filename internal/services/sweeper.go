package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"auction-engine/internal/domain"
	"auction-engine/pkg/logger"

	"github.com/robfig/cron/v3"
)

// Sweeper periodically finds auctions whose deadline has passed and drives
// them through finalization, and promotes scheduled auctions whose start
// time arrived. It runs independently of bid traffic; per-auction work is
// routed through the engine's actors, so a sweep racing a last-moment bid
// resolves deterministically.
type Sweeper struct {
	engine   *Engine
	store    domain.AuctionStore
	leader   domain.LeaderElection
	cron     *cron.Cron
	interval time.Duration
	instance string
	now      func() time.Time
	log      logger.Logger
}

func NewSweeper(
	engine *Engine,
	store domain.AuctionStore,
	leader domain.LeaderElection,
	interval time.Duration,
	instanceID string,
	log logger.Logger,
) *Sweeper {
	if interval <= 0 {
		interval = 15 * time.Second
	}
	return &Sweeper{
		engine:   engine,
		store:    store,
		leader:   leader,
		cron:     cron.New(cron.WithSeconds()),
		interval: interval,
		instance: instanceID,
		now:      time.Now,
		log:      log,
	}
}

func (s *Sweeper) Start(ctx context.Context) error {
	s.log.Info("starting auction sweeper", "interval", s.interval.String())

	_, err := s.cron.AddFunc(fmt.Sprintf("@every %s", s.interval), func() {
		if !s.isLeader(ctx) {
			return
		}
		if err := s.ActivateDueAuctions(ctx); err != nil {
			s.log.Error("activation sweep failed", "error", err)
		}
		if err := s.ProcessEndedAuctions(ctx); err != nil {
			s.log.Error("finalization sweep failed", "error", err)
		}
	})
	if err != nil {
		return err
	}

	s.cron.Start()
	return nil
}

func (s *Sweeper) Stop() error {
	s.log.Info("stopping auction sweeper")
	s.cron.Stop()
	return nil
}

// ProcessEndedAuctions finalizes every open auction whose effective end time
// has passed. Idempotent: already-terminal auctions are skipped, and running
// it twice produces no second order creation.
func (s *Sweeper) ProcessEndedAuctions(ctx context.Context) error {
	ended, err := s.store.GetEndedAuctions(ctx, s.now())
	if err != nil {
		return err
	}

	for _, auction := range ended {
		err := s.engine.Finalize(ctx, auction.ID)
		switch {
		case err == nil:
		case errors.Is(err, domain.ErrAlreadyFinalized):
			// Another sweep (or buy-it-now) got there first.
		case errors.Is(err, domain.ErrAuctionBusy):
			s.log.Warn("auction busy during sweep, will retry next cycle", "auction_id", auction.ID)
		default:
			s.log.Error("failed to finalize auction", "auction_id", auction.ID, "error", err)
		}
	}
	return nil
}

// ActivateDueAuctions promotes scheduled auctions whose start time passed.
// Activation also happens lazily on first access; the sweep covers auctions
// nobody has touched.
func (s *Sweeper) ActivateDueAuctions(ctx context.Context) error {
	due, err := s.store.GetDueScheduled(ctx, s.now())
	if err != nil {
		return err
	}

	for _, auction := range due {
		if err := s.engine.Activate(ctx, auction.ID); err != nil {
			s.log.Error("failed to activate auction", "auction_id", auction.ID, "error", err)
		}
	}
	return nil
}

func (s *Sweeper) isLeader(ctx context.Context) bool {
	if s.leader == nil {
		return true
	}
	ok, err := s.leader.IsLeader(ctx, s.instance)
	if err != nil {
		s.log.Error("leader check failed", "error", err)
		return false
	}
	return ok
}

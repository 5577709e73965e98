package services

import (
	"context"
	"time"

	"auction-engine/internal/domain"
)

const mailboxSize = 64

// submitRetryInterval paces enqueue retries while a mailbox is full.
const submitRetryInterval = time.Millisecond

type task struct {
	fn  func(ctx context.Context, a *actor) error
	err chan error
}

// actor is the per-auction serialization point. One goroutine drains the
// mailbox, so every mutation of one auction is totally ordered. Actors are
// created on demand and evicted after an idle period, so residency tracks
// live bid traffic rather than the auction catalog.
type actor struct {
	auctionID string
	mailbox   chan *task

	// lastBidTime enforces monotonic server-assigned bid times within the
	// actor's lifetime.
	lastBidTime time.Time
}

// nextBidTime returns a server-assigned bid time strictly after every bid
// time this actor has handed out. Only called from the actor goroutine.
func (a *actor) nextBidTime(now time.Time) time.Time {
	if !now.After(a.lastBidTime) {
		now = a.lastBidTime.Add(time.Nanosecond)
	}
	a.lastBidTime = now
	return now
}

// tryEnqueue hands the task to the auction's actor, creating one on demand.
// The enqueue happens under actorsMu, the same lock eviction runs under, so
// a task can never land in the mailbox of an actor that has already been
// evicted. Returns false when the mailbox is full.
func (e *Engine) tryEnqueue(auctionID string, t *task) (bool, error) {
	e.actorsMu.Lock()
	defer e.actorsMu.Unlock()

	select {
	case <-e.stop:
		// The engine is draining; nothing new is admitted.
		return false, domain.ErrAuctionBusy
	default:
	}

	a, ok := e.actors[auctionID]
	if !ok {
		a = &actor{
			auctionID: auctionID,
			mailbox:   make(chan *task, mailboxSize),
		}
		e.actors[auctionID] = a
		e.runnersWG.Add(1)
		go e.runActor(a)
	}

	select {
	case a.mailbox <- t:
		return true, nil
	default:
		return false, nil
	}
}

func (e *Engine) runActor(a *actor) {
	defer e.runnersWG.Done()

	idle := time.NewTimer(e.actorIdleTTL)
	defer idle.Stop()

	for {
		select {
		case t := <-a.mailbox:
			t.err <- t.fn(context.Background(), a)
			if !idle.Stop() {
				<-idle.C
			}
			idle.Reset(e.actorIdleTTL)

		case <-idle.C:
			// Eviction and enqueue share actorsMu: once the map entry is
			// gone and the mailbox was seen empty under the lock, no task
			// can reach this actor.
			e.actorsMu.Lock()
			if len(a.mailbox) > 0 {
				e.actorsMu.Unlock()
				idle.Reset(e.actorIdleTTL)
				continue
			}
			delete(e.actors, a.auctionID)
			e.actorsMu.Unlock()
			return

		case <-e.stop:
			e.actorsMu.Lock()
			delete(e.actors, a.auctionID)
			e.actorsMu.Unlock()
			// Answer anything still queued so no caller waits on a dead
			// actor.
			for {
				select {
				case t := <-a.mailbox:
					t.err <- domain.ErrAuctionBusy
				default:
					return
				}
			}
		}
	}
}

// submit runs fn on the auction's actor and waits for it to finish. A
// submission that cannot be enqueued within the submit timeout fails with
// ErrAuctionBusy rather than queuing indefinitely.
func (e *Engine) submit(ctx context.Context, auctionID string, fn func(ctx context.Context, a *actor) error) error {
	t := &task{fn: fn, err: make(chan error, 1)}

	timeout := time.NewTimer(e.submitTimeout)
	defer timeout.Stop()
	retry := time.NewTicker(submitRetryInterval)
	defer retry.Stop()

	for {
		ok, err := e.tryEnqueue(auctionID, t)
		if err != nil {
			return err
		}
		if ok {
			break
		}
		select {
		case <-timeout.C:
			return domain.ErrAuctionBusy
		case <-ctx.Done():
			return ctx.Err()
		case <-retry.C:
		}
	}

	// Once enqueued the task will run; only the enqueue is bounded. The err
	// channel is buffered so an abandoned caller never blocks the actor.
	select {
	case err := <-t.err:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

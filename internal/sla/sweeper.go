package sla

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/spec-kit/ticket-desk/internal/events"
	"github.com/spec-kit/ticket-desk/internal/observability"
	"github.com/spec-kit/ticket-desk/internal/repository"
)

const (
	// SweepInterval is how often the breach sweep runs. It also runs once at start.
	SweepInterval = 5 * time.Minute

	sweepLockKey = "ticket-desk:sla-sweep"
	sweepLockTTL = SweepInterval - 30*time.Second
)

// Locker grants a short-lived exclusive lease so only one replica sweeps per tick.
type Locker interface {
	TryLock(ctx context.Context, key string, ttl time.Duration) (bool, error)
}

// Sweeper flags tickets whose SLA due instant has passed.
type Sweeper struct {
	tickets    repository.TicketRepository
	locker     Locker
	dispatcher events.Dispatcher
	clock      func() time.Time
	logger     *zap.Logger
	metrics    *observability.Metrics
}

// SweeperDependencies bundles collaborators. Only Tickets is required.
type SweeperDependencies struct {
	Tickets    repository.TicketRepository
	Locker     Locker
	Dispatcher events.Dispatcher
	Clock      func() time.Time
	Logger     *zap.Logger
	Metrics    *observability.Metrics
}

// NewSweeper constructs a sweeper.
func NewSweeper(deps SweeperDependencies) *Sweeper {
	s := &Sweeper{
		tickets:    deps.Tickets,
		locker:     deps.Locker,
		dispatcher: deps.Dispatcher,
		clock:      deps.Clock,
		logger:     deps.Logger,
		metrics:    deps.Metrics,
	}
	if s.clock == nil {
		s.clock = time.Now
	}
	if s.logger == nil {
		s.logger = zap.NewNop()
	}
	return s
}

// Sweep marks every ticket with slaDueAt < now and slaStatus != BREACHED as
// BREACHED in one batched write and returns how many rows changed. Only the
// changed tickets get a ticket.sla_breached event. It does not look at ticket
// status and writes no audit entries.
func (s *Sweeper) Sweep(ctx context.Context) (int64, error) {
	if s.locker != nil {
		ok, err := s.locker.TryLock(ctx, sweepLockKey, sweepLockTTL)
		if err != nil {
			return 0, fmt.Errorf("acquire sweep lock: %w", err)
		}
		if !ok {
			s.logger.Debug("sla sweep skipped; another replica holds the lock")
			return 0, nil
		}
	}

	now := s.clock().UTC()
	ids, err := s.tickets.ListBreachCandidates(ctx, now)
	if err != nil {
		return 0, fmt.Errorf("list breach candidates: %w", err)
	}
	if len(ids) == 0 {
		return 0, nil
	}
	changed, err := s.tickets.MarkBreached(ctx, ids, now)
	if err != nil {
		return 0, fmt.Errorf("mark breached: %w", err)
	}

	s.metrics.Add("sla_breached", int64(len(changed)))
	s.logger.Info("sla sweep flagged tickets",
		zap.Int("selected", len(ids)),
		zap.Int("breached", len(changed)))
	s.publish(ctx, changed, now)
	return int64(len(changed)), nil
}

// Run is the scheduled form of Sweep: failures are logged and left for the next tick.
func (s *Sweeper) Run(ctx context.Context) {
	s.metrics.Inc("sla_sweeps")
	if _, err := s.Sweep(ctx); err != nil {
		s.metrics.Inc("sla_sweep_failures")
		s.logger.Error("sla sweep failed", zap.Error(err))
	}
}

func (s *Sweeper) publish(ctx context.Context, ids []string, now time.Time) {
	if s.dispatcher == nil {
		return
	}
	for _, id := range ids {
		_ = s.dispatcher.Publish(ctx, events.New(events.EventTicketSLABreached, id, events.SystemActor(), now,
			events.TicketSLABreachedPayload{ObservedAt: now}))
	}
}

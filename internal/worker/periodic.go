package worker

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// Task is one unit of scheduled work. Tasks handle their own errors.
type Task func(ctx context.Context)

// Ticker is the tick source a Periodic waits on.
type Ticker interface {
	C() <-chan time.Time
	Stop()
}

// TickerFactory creates a Ticker for an interval.
type TickerFactory func(interval time.Duration) Ticker

type stdTicker struct{ t *time.Ticker }

func (s stdTicker) C() <-chan time.Time { return s.t.C }
func (s stdTicker) Stop()               { s.t.Stop() }

// NewStdTicker wraps time.NewTicker.
func NewStdTicker(interval time.Duration) Ticker {
	return stdTicker{t: time.NewTicker(interval)}
}

// Periodic runs a task once on start and then on every tick until its
// context is cancelled. Runs never overlap.
type Periodic struct {
	name      string
	interval  time.Duration
	task      Task
	newTicker TickerFactory
	logger    *zap.Logger
}

// NewPeriodic builds a runner using the wall-clock ticker.
func NewPeriodic(name string, interval time.Duration, task Task, logger *zap.Logger) *Periodic {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Periodic{
		name:      name,
		interval:  interval,
		task:      task,
		newTicker: NewStdTicker,
		logger:    logger,
	}
}

// WithTicker swaps the tick source.
func (p *Periodic) WithTicker(factory TickerFactory) *Periodic {
	p.newTicker = factory
	return p
}

// Run blocks until ctx is done.
func (p *Periodic) Run(ctx context.Context) {
	ticker := p.newTicker(p.interval)
	defer ticker.Stop()

	p.logger.Info("worker started", zap.String("worker", p.name), zap.Duration("interval", p.interval))
	p.runOnce(ctx)
	for {
		select {
		case <-ctx.Done():
			p.logger.Info("worker stopped", zap.String("worker", p.name))
			return
		case <-ticker.C():
			p.runOnce(ctx)
		}
	}
}

// Start runs the worker in a goroutine. The returned channel closes when it exits.
func (p *Periodic) Start(ctx context.Context) <-chan struct{} {
	done := make(chan struct{})
	go func() {
		defer close(done)
		p.Run(ctx)
	}()
	return done
}

func (p *Periodic) runOnce(ctx context.Context) {
	if ctx.Err() != nil {
		return
	}
	defer func() {
		if r := recover(); r != nil {
			p.logger.Error("worker task panicked", zap.String("worker", p.name), zap.Any("panic", r))
		}
	}()
	p.task(ctx)
}

package worker

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/ningi265/hrms-client-sub001/internal/application/orchestrator"
)

// DeadlineSweeper periodically closes open tenders whose deadline has lapsed.
// Between sweeps a lapsed tender stays OPEN in storage; actor attempts in the
// gap are rejected by the machine's deadline guards, so the sweep interval
// only affects how quickly the stored state catches up.
type DeadlineSweeper struct {
	tenders  *orchestrator.TenderOrchestrator
	interval time.Duration
	logger   *zap.Logger

	stopCh chan struct{}
	wg     sync.WaitGroup
	once   sync.Once
}

// NewDeadlineSweeper creates a deadline sweeper
func NewDeadlineSweeper(tenders *orchestrator.TenderOrchestrator, interval time.Duration, logger *zap.Logger) *DeadlineSweeper {
	return &DeadlineSweeper{
		tenders:  tenders,
		interval: interval,
		logger:   logger,
		stopCh:   make(chan struct{}),
	}
}

// Name implements Worker
func (w *DeadlineSweeper) Name() string {
	return "tender-deadline-sweeper"
}

// Start implements Worker
func (w *DeadlineSweeper) Start(ctx context.Context) error {
	w.wg.Add(1)
	go w.run(ctx)
	return nil
}

// Stop implements Worker
func (w *DeadlineSweeper) Stop() error {
	w.once.Do(func() {
		close(w.stopCh)
	})
	w.wg.Wait()
	return nil
}

func (w *DeadlineSweeper) run(ctx context.Context) {
	defer w.wg.Done()

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	w.sweep(ctx)

	for {
		select {
		case <-ctx.Done():
			return
		case <-w.stopCh:
			return
		case <-ticker.C:
			w.sweep(ctx)
		}
	}
}

func (w *DeadlineSweeper) sweep(ctx context.Context) {
	closed, err := w.tenders.SweepExpired(ctx, time.Now())
	if err != nil {
		w.logger.Error("Tender deadline sweep failed", zap.Error(err))
		return
	}
	if closed > 0 {
		w.logger.Info("Tender deadline sweep finished", zap.Int("closed", closed))
	}
}

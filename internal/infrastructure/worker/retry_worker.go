package worker

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/ningi265/hrms-client-sub001/internal/application/sideeffect"
)

// RetryWorker periodically drains the side-effect retry queue. It also serves
// as crash recovery: pending records scheduled by a previous process become
// due and are picked up here.
type RetryWorker struct {
	dispatcher *sideeffect.Dispatcher
	interval   time.Duration
	batchSize  int
	logger     *zap.Logger

	stopCh chan struct{}
	wg     sync.WaitGroup
	once   sync.Once
}

// NewRetryWorker creates a side-effect retry worker
func NewRetryWorker(dispatcher *sideeffect.Dispatcher, interval time.Duration, batchSize int, logger *zap.Logger) *RetryWorker {
	return &RetryWorker{
		dispatcher: dispatcher,
		interval:   interval,
		batchSize:  batchSize,
		logger:     logger,
		stopCh:     make(chan struct{}),
	}
}

// Name implements Worker
func (w *RetryWorker) Name() string {
	return "sideeffect-retry-worker"
}

// Start implements Worker
func (w *RetryWorker) Start(ctx context.Context) error {
	w.wg.Add(1)
	go w.run(ctx)
	return nil
}

// Stop implements Worker
func (w *RetryWorker) Stop() error {
	w.once.Do(func() {
		close(w.stopCh)
	})
	w.wg.Wait()
	return nil
}

func (w *RetryWorker) run(ctx context.Context) {
	defer w.wg.Done()

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-w.stopCh:
			return
		case <-ticker.C:
			processed, err := w.dispatcher.ProcessDue(ctx, time.Now(), w.batchSize)
			if err != nil {
				w.logger.Error("Side-effect retry pass failed", zap.Error(err))
				continue
			}
			if processed > 0 {
				w.logger.Debug("Side-effect retry pass finished", zap.Int("processed", processed))
			}
		}
	}
}

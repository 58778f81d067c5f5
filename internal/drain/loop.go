package drain

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// Batcher processes up to limit pending items and reports how many.
type Batcher interface {
	ProcessBatch(ctx context.Context, limit int) (int, error)
}

// Config holds drain loop settings.
type Config struct {
	PollInterval time.Duration
	BatchSize    int
}

// Loop is the steady-state consumer: poll the pending queue on a fixed
// interval and process bounded batches. Errors are logged and retried on
// the next poll; an empty queue is reported once, not once per poll.
type Loop struct {
	cfg     Config
	batcher Batcher
	logger  *zap.Logger

	emptyStreak int
}

func NewLoop(cfg Config, batcher Batcher, logger *zap.Logger) *Loop {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = 5 * time.Second
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 100
	}
	return &Loop{cfg: cfg, batcher: batcher, logger: logger}
}

// Run polls until ctx is cancelled. Always returns nil: cancellation is the
// one way out and counts as orderly shutdown.
func (l *Loop) Run(ctx context.Context) error {
	ticker := time.NewTicker(l.cfg.PollInterval)
	defer ticker.Stop()

	for {
		l.tick(ctx)
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
	}
}

func (l *Loop) tick(ctx context.Context) {
	if ctx.Err() != nil {
		return
	}
	processed, err := l.batcher.ProcessBatch(ctx, l.cfg.BatchSize)
	if err != nil {
		l.logger.Error("batch failed, retrying next poll", zap.Error(err))
		return
	}
	if processed == 0 {
		l.emptyStreak++
		if l.emptyStreak == 1 {
			l.logger.Info("pending queue empty")
		}
		return
	}
	l.emptyStreak = 0
	l.logger.Info("batch complete", zap.Int("processed", processed))
}

package intake

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"evmscope/internal/pipeline"
)

// State of the supervised notification connection.
type State int

const (
	StateDisconnected State = iota
	StateConnecting
	StateListening
	StateShuttingDown
)

func (s State) String() string {
	switch s {
	case StateDisconnected:
		return "disconnected"
	case StateConnecting:
		return "connecting"
	case StateListening:
		return "listening"
	case StateShuttingDown:
		return "shutting_down"
	default:
		return "unknown"
	}
}

// Conn is one dedicated notification connection. WaitForNotification blocks
// until a payload arrives or the connection fails.
type Conn interface {
	WaitForNotification(ctx context.Context) (string, error)
	Close(ctx context.Context) error
}

// DialFunc opens a Conn already subscribed to the notification channel.
type DialFunc func(ctx context.Context) (Conn, error)

// Handler processes one notification payload (a tx_id).
type Handler interface {
	ProcessOne(ctx context.Context, txID string) (pipeline.Outcome, error)
}

// Config holds listener settings.
type Config struct {
	Channel        string
	ReconnectDelay time.Duration
}

// Listener is the priority intake: it owns a supervised notification
// connection and runs the decode pipeline for every delivered tx_id.
// On connection failure it schedules exactly one reconnect attempt after a
// fixed delay; shutdown cancels the pending timer and releases the
// connection. Handler failures never tear down the connection.
type Listener struct {
	cfg     Config
	dial    DialFunc
	handler Handler
	logger  *zap.Logger

	mu    sync.Mutex
	state State
	conn  Conn
	timer *time.Timer

	closeOnce sync.Once
	closed    chan struct{}
}

func NewListener(cfg Config, dial DialFunc, handler Handler, logger *zap.Logger) *Listener {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.ReconnectDelay <= 0 {
		cfg.ReconnectDelay = 5 * time.Second
	}
	return &Listener{
		cfg:     cfg,
		dial:    dial,
		handler: handler,
		logger:  logger,
		state:   StateDisconnected,
		closed:  make(chan struct{}),
	}
}

// State returns the current connection state.
func (l *Listener) State() State {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.state
}

// Run connects and listens until ctx is cancelled or Close is called.
// A nil return means orderly shutdown.
func (l *Listener) Run(ctx context.Context) error {
	for {
		if !l.setState(StateConnecting) {
			return nil
		}

		conn, err := l.dial(ctx)
		if err != nil {
			l.setState(StateDisconnected)
			if ctx.Err() != nil {
				return nil
			}
			l.logger.Warn("notification connect failed",
				zap.Duration("retry_in", l.cfg.ReconnectDelay),
				zap.Error(err),
			)
			if !l.awaitReconnect(ctx) {
				return nil
			}
			continue
		}

		l.adoptConn(conn)
		if !l.setState(StateListening) {
			return nil
		}
		l.logger.Info("listening for notifications", zap.String("channel", l.cfg.Channel))

		err = l.listen(ctx, conn)
		l.releaseConn(ctx)
		l.setState(StateDisconnected)

		if ctx.Err() != nil || l.State() == StateShuttingDown {
			return nil
		}
		l.logger.Warn("notification connection lost",
			zap.Duration("retry_in", l.cfg.ReconnectDelay),
			zap.Error(err),
		)
		if !l.awaitReconnect(ctx) {
			return nil
		}
	}
}

// Close begins shutdown: suppresses any pending reconnect and releases the
// connection. Safe to call more than once.
func (l *Listener) Close() {
	l.closeOnce.Do(func() {
		l.mu.Lock()
		l.state = StateShuttingDown
		if l.timer != nil {
			l.timer.Stop()
		}
		conn := l.conn
		l.conn = nil
		l.mu.Unlock()

		close(l.closed)
		if conn != nil {
			_ = conn.Close(context.Background())
		}
	})
}

func (l *Listener) listen(ctx context.Context, conn Conn) error {
	for {
		payload, err := conn.WaitForNotification(ctx)
		if err != nil {
			return err
		}
		l.handle(ctx, payload)
	}
}

func (l *Listener) handle(ctx context.Context, txID string) {
	outcome, err := l.handler.ProcessOne(ctx, txID)
	if err != nil {
		l.logger.Error("priority decode failed", zap.String("tx_id", txID), zap.Error(err))
		return
	}
	switch outcome {
	case pipeline.OutcomeNotFound:
		l.logger.Warn("work item not found", zap.String("tx_id", txID))
	default:
		l.logger.Info("notification processed",
			zap.String("tx_id", txID),
			zap.Stringer("outcome", outcome),
		)
	}
}

// awaitReconnect arms the single reconnect timer and blocks until it fires.
// Returns false when shutdown or cancellation suppressed the attempt.
func (l *Listener) awaitReconnect(ctx context.Context) bool {
	l.mu.Lock()
	if l.state == StateShuttingDown {
		l.mu.Unlock()
		return false
	}
	if l.timer == nil {
		l.timer = time.NewTimer(l.cfg.ReconnectDelay)
	} else {
		l.timer.Reset(l.cfg.ReconnectDelay)
	}
	timer := l.timer
	l.mu.Unlock()

	select {
	case <-ctx.Done():
		timer.Stop()
		return false
	case <-l.closed:
		timer.Stop()
		return false
	case <-timer.C:
		return true
	}
}

// setState moves to next unless shutdown has begun.
func (l *Listener) setState(next State) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.state == StateShuttingDown {
		return false
	}
	l.state = next
	return true
}

func (l *Listener) adoptConn(conn Conn) {
	l.mu.Lock()
	l.conn = conn
	l.mu.Unlock()
}

func (l *Listener) releaseConn(ctx context.Context) {
	l.mu.Lock()
	conn := l.conn
	l.conn = nil
	l.mu.Unlock()
	if conn != nil {
		_ = conn.Close(ctx)
	}
}

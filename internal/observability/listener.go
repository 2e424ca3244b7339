package observability

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/jackc/pgx/v5"
)

// Listener holds a dedicated LISTEN connection and dispatches NOTIFY
// payloads to registered handlers, adapted from the teacher's
// NotifyListener down to a single-connection, single-goroutine receive
// loop (this engine has no WebSocket fan-out to serve).
type Listener struct {
	connString string
	conn       *pgx.Conn

	handlersMu sync.RWMutex
	handlers   map[string][]func(payload string)

	cancel   context.CancelFunc
	loopDone chan struct{}
}

// NewListener builds a Listener over a Postgres connection string.
func NewListener(connString string) *Listener {
	return &Listener{
		connString: connString,
		handlers:   make(map[string][]func(payload string)),
	}
}

// Handle registers fn to run whenever a NOTIFY arrives on channel. Must be
// called before Start.
func (l *Listener) Handle(channel string, fn func(payload string)) {
	l.handlersMu.Lock()
	defer l.handlersMu.Unlock()
	l.handlers[channel] = append(l.handlers[channel], fn)
}

// Start opens the dedicated connection, issues LISTEN for every registered
// channel, and begins the receive loop.
func (l *Listener) Start(ctx context.Context) error {
	conn, err := pgx.Connect(ctx, l.connString)
	if err != nil {
		return fmt.Errorf("connecting for LISTEN: %w", err)
	}
	l.conn = conn

	l.handlersMu.RLock()
	channels := make([]string, 0, len(l.handlers))
	for ch := range l.handlers {
		channels = append(channels, ch)
	}
	l.handlersMu.RUnlock()

	for _, ch := range channels {
		if _, err := conn.Exec(ctx, fmt.Sprintf("LISTEN %q", ch)); err != nil {
			_ = conn.Close(ctx)
			return fmt.Errorf("listening on %s: %w", ch, err)
		}
	}

	loopCtx, cancel := context.WithCancel(ctx)
	l.cancel = cancel
	l.loopDone = make(chan struct{})
	go l.receiveLoop(loopCtx)

	return nil
}

func (l *Listener) receiveLoop(ctx context.Context) {
	defer close(l.loopDone)
	for {
		notification, err := l.conn.WaitForNotification(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			slog.Error("notification wait failed", "error", err)
			return
		}

		l.handlersMu.RLock()
		fns := append([]func(payload string){}, l.handlers[notification.Channel]...)
		l.handlersMu.RUnlock()

		for _, fn := range fns {
			fn(notification.Payload)
		}
	}
}

// Stop cancels the receive loop and closes the dedicated connection.
func (l *Listener) Stop(ctx context.Context) {
	if l.cancel != nil {
		l.cancel()
		<-l.loopDone
	}
	if l.conn != nil {
		_ = l.conn.Close(ctx)
	}
}

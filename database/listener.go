package database

import (
	"context"
	"sync"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// NotificationsChannel is the Postgres NOTIFY channel fed by the notifications trigger.
// The payload is the affected user id.
const NotificationsChannel = "notifications_changed"

// Listener holds one LISTEN connection and fans NOTIFY payloads out to watchers keyed
// by payload.
type Listener struct {
	dsn     string
	channel string
	logger  zerolog.Logger

	mu       sync.Mutex
	watchers map[string]map[uint64]func(context.Context)
	nextID   uint64
}

func NewListener(dsn string) *Listener {
	return &Listener{
		dsn:      dsn,
		channel:  NotificationsChannel,
		logger:   log.With().Str("component", "pgListener").Logger(),
		watchers: make(map[string]map[uint64]func(context.Context)),
	}
}

// Watch registers fn for payload key and returns a func that unregisters it.
func (l *Listener) Watch(key string, fn func(context.Context)) func() {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.nextID++
	id := l.nextID
	if l.watchers[key] == nil {
		l.watchers[key] = make(map[uint64]func(context.Context))
	}
	l.watchers[key][id] = fn

	var once sync.Once
	return func() {
		once.Do(func() {
			l.mu.Lock()
			defer l.mu.Unlock()
			delete(l.watchers[key], id)
			if len(l.watchers[key]) == 0 {
				delete(l.watchers, key)
			}
		})
	}
}

// Watchers reports how many callbacks are registered for key.
func (l *Listener) Watchers(key string) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.watchers[key])
}

// Dispatch invokes every watcher registered for key.
func (l *Listener) Dispatch(ctx context.Context, key string) {
	l.mu.Lock()
	fns := make([]func(context.Context), 0, len(l.watchers[key]))
	for _, fn := range l.watchers[key] {
		fns = append(fns, fn)
	}
	l.mu.Unlock()

	for _, fn := range fns {
		fn(ctx)
	}
}

// Run listens until ctx is done, reconnecting with backoff when the connection drops.
func (l *Listener) Run(ctx context.Context) error {
	backoff := time.Second
	for {
		err := l.listen(ctx)
		if ctx.Err() != nil {
			return nil
		}
		l.logger.Error().Err(err).Dur("retryIn", backoff).Msg("listen connection lost")

		select {
		case <-ctx.Done():
			return nil
		case <-time.After(backoff):
		}
		if backoff < 30*time.Second {
			backoff *= 2
		}
	}
}

func (l *Listener) listen(ctx context.Context) error {
	conn, err := pgx.Connect(ctx, l.dsn)
	if err != nil {
		return err
	}
	defer conn.Close(context.Background())

	if _, err := conn.Exec(ctx, "LISTEN "+pgx.Identifier{l.channel}.Sanitize()); err != nil {
		return err
	}
	l.logger.Info().Str("channel", l.channel).Msg("listening for notification changes")

	for {
		n, err := conn.WaitForNotification(ctx)
		if err != nil {
			return err
		}
		l.Dispatch(ctx, n.Payload)
	}
}

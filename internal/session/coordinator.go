package session

import (
	"context"
	"fmt"
	"log/slog"
	"runtime/debug"
	"time"

	"github.com/mcoot/liveclass/internal/dependencies/clock"
	"github.com/mcoot/liveclass/internal/model"
)

// DefaultInboxSize is the number of pending events the loop buffers
const DefaultInboxSize = 1024

// event is one unit of work for the loop. conn names the connection that
// gets a notice if the work panics.
type event struct {
	conn model.ConnectionID
	name string
	fn   func(*Session)
}

// Coordinator owns a Session and runs every event against it on a single
// goroutine. Transports and admin surfaces post work; nothing else touches
// the session.
type Coordinator struct {
	session *Session
	clock   clock.Clock
	inbox   chan event
	done    chan struct{}
	logger  *slog.Logger
}

// NewCoordinator creates a Coordinator. Call Run to start processing.
func NewCoordinator(config Config, clk clock.Clock, inboxSize int, logger *slog.Logger) *Coordinator {
	if inboxSize <= 0 {
		inboxSize = DefaultInboxSize
	}
	c := &Coordinator{
		clock:  clk,
		inbox:  make(chan event, inboxSize),
		done:   make(chan struct{}),
		logger: logger.With(slog.String("component", "session")),
	}
	c.session = New(config, clk, loopScheduler{c: c}, c.logger)
	return c
}

// Run processes events until ctx is cancelled, then closes every transport
func (c *Coordinator) Run(ctx context.Context) {
	c.logger.Info("session coordinator started")
	for {
		select {
		case ev := <-c.inbox:
			c.exec(ev)
		case <-ctx.Done():
			closed := c.session.CloseAll()
			close(c.done)
			c.logger.Info("session coordinator stopped", slog.Int("closed_connections", closed))
			return
		}
	}
}

// Done is closed once Run has returned
func (c *Coordinator) Done() <-chan struct{} {
	return c.done
}

// Connect registers a newly opened transport
func (c *Coordinator) Connect(conn Conn) error {
	return c.post(event{conn: conn.ID(), name: "connect", fn: func(s *Session) {
		s.Connect(conn)
	}})
}

// Disconnect reports that a transport closed
func (c *Coordinator) Disconnect(id model.ConnectionID) error {
	return c.post(event{conn: id, name: "disconnect", fn: func(s *Session) {
		s.Disconnect(id)
	}})
}

// Deliver hands one inbound frame from a connection to the loop
func (c *Coordinator) Deliver(id model.ConnectionID, frame []byte) error {
	return c.post(event{conn: id, name: "frame", fn: func(s *Session) {
		s.HandleFrame(id, frame)
	}})
}

// ForceEvict evicts an identity and waits for the outcome
func (c *Coordinator) ForceEvict(ctx context.Context, key model.IdentityKey) (EvictOutcome, error) {
	return call(ctx, c, "evict", func(s *Session) EvictOutcome {
		return s.ForceEvict(key)
	})
}

// Snapshot returns the current roster and broadcaster
func (c *Coordinator) Snapshot(ctx context.Context) (Snapshot, error) {
	return call(ctx, c, "snapshot", func(s *Session) Snapshot {
		return s.Snapshot()
	})
}

func call[T any](ctx context.Context, c *Coordinator, name string, fn func(*Session) T) (T, error) {
	var zero T
	if err := ctx.Err(); err != nil {
		return zero, err
	}
	result := make(chan T, 1)
	err := c.postContext(ctx, event{name: name, fn: func(s *Session) {
		result <- fn(s)
	}})
	if err != nil {
		return zero, err
	}
	select {
	case r := <-result:
		return r, nil
	case <-ctx.Done():
		return zero, ctx.Err()
	case <-c.done:
		return zero, model.ErrCoordinatorStopped
	}
}

func (c *Coordinator) post(ev event) error {
	return c.postContext(context.Background(), ev)
}

func (c *Coordinator) postContext(ctx context.Context, ev event) error {
	select {
	case <-c.done:
		return model.ErrCoordinatorStopped
	default:
	}
	select {
	case c.inbox <- ev:
		return nil
	case <-c.done:
		return model.ErrCoordinatorStopped
	case <-ctx.Done():
		return ctx.Err()
	}
}

// exec runs one event, containing any panic to that event
func (c *Coordinator) exec(ev event) {
	defer func() {
		if r := recover(); r != nil {
			c.logger.Error("panic while handling event",
				slog.String("event", ev.name),
				slog.String("connection_id", string(ev.conn)),
				slog.Any("panic", r),
				slog.String("stack", string(debug.Stack())))
			c.notifyFailure(ev)
		}
	}()
	ev.fn(c.session)
}

func (c *Coordinator) notifyFailure(ev event) {
	if ev.conn == "" {
		return
	}
	defer func() {
		if r := recover(); r != nil {
			c.logger.Error("panic while sending failure notice",
				slog.String("connection_id", string(ev.conn)),
				slog.Any("panic", r))
		}
	}()
	c.session.Notify(ev.conn, model.NoticeInternalError, fmt.Sprintf("internal error handling %s", ev.name))
}

// loopScheduler re-posts delayed callbacks into the loop so they run
// serialized with every other event.
type loopScheduler struct {
	c *Coordinator
}

func (l loopScheduler) AfterFunc(d time.Duration, f func()) clock.Timer {
	return l.c.clock.AfterFunc(d, func() {
		if err := l.c.post(event{name: "scheduled", fn: func(*Session) { f() }}); err != nil {
			l.c.logger.Debug("scheduled action dropped", slog.String("error", err.Error()))
		}
	})
}

package mq

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
)

// Dialer opens a transport session to the queue manager named by a Target.
type Dialer interface {
	Dial(ctx context.Context, target Target) (Handle, error)
}

// Handle is an open transport session.
type Handle interface {
	// NewExecutor builds the administrative command context for this session.
	// It is called at most once per Session.
	NewExecutor() (Executor, error)

	Close() error
}

// Executor issues administrative (command and control) queries.
type Executor interface {
	// Ping verifies the queue manager answers commands.
	Ping(ctx context.Context) error

	// QueueDepth returns the current depth of a local queue. A queue the
	// queue manager does not know yields an error matching ErrUnknownObject.
	QueueDepth(ctx context.Context, queue string) (int, error)

	// ListQueues returns the names of local queues matching a generic name
	// such as "APP.*". No match returns an empty slice and no error.
	ListQueues(ctx context.Context, pattern string) ([]string, error)
}

// Session is one live connection to a queue manager.
// It is not safe for concurrent use.
type Session struct {
	target Target
	handle Handle
	admin  func() (Executor, error)
	closed bool
}

// Connect dials the target and pings the queue manager. On failure the
// returned error is a *ConnectionError and nothing is left open.
func Connect(ctx context.Context, d Dialer, t Target) (*Session, error) {
	connErr := func(err error) error {
		return &ConnectionError{
			QueueManager: t.QueueManager,
			ConnName:     t.ConnName(),
			Channel:      t.Channel,
			Err:          err,
		}
	}

	if err := t.Validate(); err != nil {
		return nil, connErr(err)
	}

	h, err := d.Dial(ctx, t)
	if err != nil {
		return nil, connErr(err)
	}
	s := newSession(t, h)

	adm, err := s.Admin()
	if err != nil {
		s.Disconnect()
		return nil, connErr(fmt.Errorf("create command executor: %w", err))
	}
	if err := adm.Ping(ctx); err != nil {
		s.Disconnect()
		return nil, connErr(fmt.Errorf("ping: %w", err))
	}

	_, _, authenticated := t.Credentials()
	slog.Debug("mq: connected",
		"qmgr", t.QueueManager,
		"conn_name", t.ConnName(),
		"channel", t.Channel,
		"authenticated", authenticated,
	)
	return s, nil
}

func newSession(t Target, h Handle) *Session {
	return &Session{
		target: t,
		handle: h,
		admin:  sync.OnceValues(h.NewExecutor),
	}
}

// WithSession connects, runs fn with the open session and disconnects on
// every exit path of fn. Connection failures are returned without calling fn.
func WithSession(ctx context.Context, d Dialer, t Target, fn func(*Session) error) error {
	s, err := Connect(ctx, d, t)
	if err != nil {
		return err
	}
	defer s.Disconnect()
	return fn(s)
}

// Target returns the target the session was opened against.
func (s *Session) Target() Target { return s.target }

// Admin returns the administrative executor, creating it on first use.
func (s *Session) Admin() (Executor, error) {
	if s == nil || s.handle == nil || s.closed {
		return nil, ErrNotConnected
	}
	return s.admin()
}

// QueueDepth queries the current depth of queue. Failures are returned as
// *QueueQueryError.
func (s *Session) QueueDepth(ctx context.Context, queue string) (int, error) {
	adm, err := s.Admin()
	if err != nil {
		return -1, &QueueQueryError{Queue: queue, Err: err}
	}
	depth, err := adm.QueueDepth(ctx, queue)
	if err != nil {
		return -1, &QueueQueryError{Queue: queue, Err: err}
	}
	return depth, nil
}

// ListQueues expands a generic queue name into the matching queue names.
func (s *Session) ListQueues(ctx context.Context, pattern string) ([]string, error) {
	adm, err := s.Admin()
	if err != nil {
		return nil, err
	}
	return adm.ListQueues(ctx, pattern)
}

// Disconnect closes the session. It is a no-op on a nil, never-opened or
// already-closed session, and never fails.
func (s *Session) Disconnect() {
	if s == nil || s.handle == nil || s.closed {
		return
	}
	s.closed = true

	defer func() {
		if r := recover(); r != nil {
			slog.Warn("mq: panic during disconnect", "qmgr", s.target.QueueManager, "panic", r)
		}
	}()
	if err := s.handle.Close(); err != nil {
		slog.Warn("mq: disconnect failed", "qmgr", s.target.QueueManager, "err", err)
		return
	}
	slog.Debug("mq: disconnected", "qmgr", s.target.QueueManager)
}

package collab

import (
	"context"
	"encoding/json"
	"time"

	"github.com/gorilla/websocket"

	"safetycore/pkg/domain"
)

// PatchApplier merges authoritative entity payloads into local state. The core
// service satisfies the interface; stale payloads are dropped internally.
type PatchApplier interface {
	ApplyIncidentPatch(ctx context.Context, in domain.Incident) (bool, error)
	ApplyTaskPatch(ctx context.Context, t domain.Task) (bool, error)
}

type pushLogger interface {
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
}

type noopPushLogger struct{}

func (noopPushLogger) Info(string, ...any) {}
func (noopPushLogger) Warn(string, ...any) {}

// PushSubscriber maintains a WebSocket subscription to the collaborator's
// push feed and applies incoming events through a PatchApplier. Connection
// loss triggers reconnection with exponential backoff.
type PushSubscriber struct {
	url        string
	applier    PatchApplier
	dialer     *websocket.Dialer
	logger     pushLogger
	minBackoff time.Duration
	maxBackoff time.Duration
}

// PushOption customizes PushSubscriber construction.
type PushOption func(*PushSubscriber)

// WithPushLogger attaches a logger for connection lifecycle events.
func WithPushLogger(l pushLogger) PushOption {
	return func(s *PushSubscriber) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithBackoff overrides the reconnect backoff bounds.
func WithBackoff(min, max time.Duration) PushOption {
	return func(s *PushSubscriber) {
		if min > 0 {
			s.minBackoff = min
		}
		if max >= s.minBackoff {
			s.maxBackoff = max
		}
	}
}

// NewPushSubscriber constructs a subscriber for the given ws:// or wss:// URL.
func NewPushSubscriber(url string, applier PatchApplier, opts ...PushOption) *PushSubscriber {
	s := &PushSubscriber{
		url:        url,
		applier:    applier,
		dialer:     websocket.DefaultDialer,
		logger:     noopPushLogger{},
		minBackoff: 500 * time.Millisecond,
		maxBackoff: 30 * time.Second,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Run blocks consuming push events until ctx is canceled. Individual event
// failures are logged and skipped; only context cancellation ends the loop.
func (s *PushSubscriber) Run(ctx context.Context) error {
	backoff := s.minBackoff
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		conn, _, err := s.dialer.DialContext(ctx, s.url, nil)
		if err != nil {
			s.logger.Warn("push subscription dial failed", "url", s.url, "error", err)
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(backoff):
			}
			backoff = min(backoff*2, s.maxBackoff)
			continue
		}
		s.logger.Info("push subscription established", "url", s.url)
		backoff = s.minBackoff
		s.consume(ctx, conn)
		_ = conn.Close()
	}
}

func (s *PushSubscriber) consume(ctx context.Context, conn *websocket.Conn) {
	// Unblock ReadMessage when ctx is canceled.
	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			_ = conn.Close()
		case <-done:
		}
	}()

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			if ctx.Err() == nil {
				s.logger.Warn("push subscription read failed", "error", err)
			}
			return
		}
		var ev Event
		if err := json.Unmarshal(data, &ev); err != nil {
			s.logger.Warn("dropping malformed push event", "error", err)
			continue
		}
		s.apply(ctx, ev)
	}
}

func (s *PushSubscriber) apply(ctx context.Context, ev Event) {
	switch ev.Kind {
	case EventIncidentCreated, EventIncidentUpdated:
		if ev.Incident == nil {
			s.logger.Warn("dropping incident event without payload", "kind", ev.Kind)
			return
		}
		if _, err := s.applier.ApplyIncidentPatch(ctx, *ev.Incident); err != nil {
			s.logger.Warn("incident push event rejected", "id", ev.Incident.ID, "error", err)
		}
	case EventTaskCreated, EventTaskUpdated:
		if ev.Task == nil {
			s.logger.Warn("dropping task event without payload", "kind", ev.Kind)
			return
		}
		if _, err := s.applier.ApplyTaskPatch(ctx, *ev.Task); err != nil {
			s.logger.Warn("task push event rejected", "id", ev.Task.ID, "error", err)
		}
	default:
		s.logger.Warn("dropping push event of unknown kind", "kind", ev.Kind)
	}
}

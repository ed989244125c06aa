package rt

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/rs/zerolog"

	"github.com/vovakirdan/chatscope-server/internal/model"
)

// Role tags a connection with its direction of traffic. It never changes
// after the connection is opened.
type Role string

const (
	// RolePublisher sends events in; publishers are never fanned out to.
	RolePublisher Role = "PUBLISHER"
	// RoleSubscriber receives every published event while open.
	RoleSubscriber Role = "SUBSCRIBER"
)

// ParseRole maps a path segment to a Role, case-insensitively.
func ParseRole(raw string) (Role, error) {
	switch Role(strings.ToUpper(raw)) {
	case RolePublisher:
		return RolePublisher, nil
	case RoleSubscriber:
		return RoleSubscriber, nil
	default:
		return "", fmt.Errorf("unknown connection role %q", raw)
	}
}

// Transport is a live duplex channel to one remote peer. Implementations
// must be safe for concurrent Send and Close; Open reports the state as of
// the last observation.
type Transport interface {
	ID() string
	Send(ctx context.Context, frame []byte) error
	Open() bool
	Close(reason string) error
	DisableIdleTimeout()
}

// Broker owns the set of live subscriber connections and fans published
// events out to all of them. Construct one per process and inject it into
// whatever exposes the realtime endpoint.
type Broker struct {
	mu   sync.Mutex
	subs map[Transport]struct{}
	log  *zerolog.Logger
}

// NewBroker returns a broker with an empty subscriber set.
func NewBroker(logger *zerolog.Logger) *Broker {
	return &Broker{
		subs: make(map[Transport]struct{}),
		log:  logger,
	}
}

// OpenConnection registers a new connection. Subscribers get their idle
// timeout disabled (they are expected to stay connected indefinitely) and
// trigger an opportunistic sweep of entries whose transport has already
// closed. Publishers are accepted but never added to the subscriber set.
func (b *Broker) OpenConnection(tr Transport, role Role) {
	if role != RoleSubscriber {
		b.log.Info().Str("conn_id", tr.ID()).Msg("publisher connected")
		return
	}

	tr.DisableIdleTimeout()

	b.mu.Lock()
	collected := 0
	for sub := range b.subs {
		if !sub.Open() {
			delete(b.subs, sub)
			collected++
		}
	}
	b.subs[tr] = struct{}{}
	total := len(b.subs)
	b.mu.Unlock()

	b.log.Info().
		Str("conn_id", tr.ID()).
		Int("live_subscribers", total).
		Int("collected", collected).
		Msg("subscriber connected")
}

// Publish fans the event out to every open subscriber. Each send is
// independent and fire-and-forget: failures are caught and logged at the
// send site and never unwind into this loop. Connections observed closed
// during the pass are removed once the pass completes. Delivery is
// at-most-once with no replay buffer.
func (b *Broker) Publish(event model.AnalyticsEvent) {
	frame, err := event.Encode()
	if err != nil {
		b.log.Error().Err(err).Str("event_type", event.Type).Msg("failed to encode event, dropping")
		return
	}

	b.mu.Lock()
	targets := make([]Transport, 0, len(b.subs))
	for sub := range b.subs {
		if !sub.Open() {
			delete(b.subs, sub)
			continue
		}
		targets = append(targets, sub)
	}
	b.mu.Unlock()

	for _, sub := range targets {
		go func(sub Transport) {
			if err := sub.Send(context.Background(), frame); err != nil {
				b.log.Warn().Err(err).Str("conn_id", sub.ID()).Msg("event send failed")
			}
		}(sub)
	}
}

// CloseConnection closes the transport if still open and unconditionally
// removes it from the subscriber set. A close failure is logged, never
// raised.
func (b *Broker) CloseConnection(tr Transport, reason string) {
	if tr.Open() {
		if err := tr.Close(reason); err != nil {
			b.log.Warn().Err(err).Str("conn_id", tr.ID()).Msg("transport close failed")
		}
	}

	b.mu.Lock()
	delete(b.subs, tr)
	b.mu.Unlock()

	b.log.Info().Str("conn_id", tr.ID()).Str("reason", reason).Msg("connection closed")
}

// OnTransportError records a transport error. It neither closes the
// affected connection nor touches any other; the connection owner decides
// whether to escalate to a close.
func (b *Broker) OnTransportError(err error) {
	b.log.Error().Err(err).Msg("realtime transport error")
}

// LiveSubscriberCount returns the current size of the subscriber set.
func (b *Broker) LiveSubscriberCount() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.subs)
}

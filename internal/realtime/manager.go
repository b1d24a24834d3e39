// Package realtime maintains one live change-feed channel per group and
// fans typed domain events out to registered handlers.
package realtime

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"sync"

	"github.com/BlandineRdl/EquimApp-sub001/internal/feed"
	"github.com/BlandineRdl/EquimApp-sub001/internal/models"
)

// Feed opens a change-notification channel scoped to one group. Reconnect
// policy belongs to the transport, not to the subscription manager: a
// dropped channel stays dropped until the caller subscribes again.
type Feed interface {
	Open(ctx context.Context, groupID string) (Conn, error)
}

// Conn delivers raw notifications in transport order. Close unblocks a
// pending Next.
type Conn interface {
	Next(ctx context.Context) (feed.Notification, error)
	Close() error
}

// MemberResolver fetches the member payload behind a real-member insert
// notification.
type MemberResolver interface {
	ResolveMember(ctx context.Context, groupID, userID string) (*models.Member, error)
}

// Handler receives translated domain events.
type Handler func(models.DomainEvent)

// SubscriptionManager enforces the at-most-one-channel-per-group invariant:
// subscribing to a group that already has a live channel tears the old one
// down first, preventing duplicate event delivery and connection leaks.
type SubscriptionManager struct {
	feed     Feed
	resolver MemberResolver

	mu   sync.Mutex
	subs map[string]*subscription
}

type subscription struct {
	groupID string
	cancel  context.CancelFunc
	conn    Conn
	done    chan struct{}
	once    sync.Once
}

// NewSubscriptionManager creates a manager with an empty registry. Managers
// are independent; tests instantiate one per case.
func NewSubscriptionManager(f Feed, resolver MemberResolver) *SubscriptionManager {
	return &SubscriptionManager{feed: f, resolver: resolver, subs: make(map[string]*subscription)}
}

// Subscribe opens a channel for the group and delivers translated events to
// handler until the returned unsubscribe function is called or the
// transport drops. Calling unsubscribe twice is a no-op.
func (m *SubscriptionManager) Subscribe(ctx context.Context, groupID string, handler Handler) (func(), error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	// Replace-before-add: never two channels for the same group. The loop
	// covers a concurrent Subscribe sneaking a new channel in while the
	// registry lock is released for teardown.
	for {
		old, ok := m.subs[groupID]
		if !ok {
			break
		}
		delete(m.subs, groupID)
		m.mu.Unlock()
		old.teardown()
		m.mu.Lock()
	}

	connCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	conn, err := m.feed.Open(connCtx, groupID)
	if err != nil {
		cancel()
		return nil, err
	}

	sub := &subscription{groupID: groupID, cancel: cancel, conn: conn, done: make(chan struct{})}
	m.subs[groupID] = sub
	go m.run(connCtx, sub, handler)

	unsubscribe := func() {
		m.mu.Lock()
		if m.subs[groupID] == sub {
			delete(m.subs, groupID)
		}
		m.mu.Unlock()
		sub.teardown()
	}
	return unsubscribe, nil
}

// Close tears down every live channel.
func (m *SubscriptionManager) Close() {
	m.mu.Lock()
	subs := make([]*subscription, 0, len(m.subs))
	for id, sub := range m.subs {
		subs = append(subs, sub)
		delete(m.subs, id)
	}
	m.mu.Unlock()

	for _, sub := range subs {
		sub.teardown()
	}
}

// run reads the channel until it closes, translating each notification and
// delivering it exactly once.
func (m *SubscriptionManager) run(ctx context.Context, sub *subscription, handler Handler) {
	defer close(sub.done)
	for {
		n, err := sub.conn.Next(ctx)
		if err != nil {
			if ctx.Err() == nil && !errors.Is(err, net.ErrClosed) {
				slog.Warn("Feed channel dropped", "group_id", sub.groupID, "error", err)
			}
			return
		}

		evt, ok := Translate(n)
		if !ok {
			continue
		}

		if evt.ResolveUserID != "" {
			// Real-member inserts carry only a user id. The resolve fetch
			// may race a concurrent removal, so delivery is best-effort:
			// on failure no event is emitted and the reconciliation
			// re-fetch converges the snapshot anyway.
			member, err := m.resolver.ResolveMember(ctx, evt.GroupID, evt.ResolveUserID)
			if err != nil || member == nil {
				continue
			}
			evt.Member = member
		}

		handler(evt.DomainEvent)
	}
}

func (s *subscription) teardown() {
	s.once.Do(func() {
		s.cancel()
		s.conn.Close()
		<-s.done
	})
}

package realtime

import (
	"context"
	"encoding/json"
	"errors"
	"net"
	"sync"
	"testing"
	"time"

	"github.com/BlandineRdl/EquimApp-sub001/internal/feed"
	"github.com/BlandineRdl/EquimApp-sub001/internal/models"
)

type fakeConn struct {
	ch        chan feed.Notification
	closed    chan struct{}
	closeOnce sync.Once
}

func newFakeConn() *fakeConn {
	return &fakeConn{ch: make(chan feed.Notification, 8), closed: make(chan struct{})}
}

func (c *fakeConn) Next(ctx context.Context) (feed.Notification, error) {
	select {
	case n := <-c.ch:
		return n, nil
	case <-c.closed:
		return feed.Notification{}, net.ErrClosed
	case <-ctx.Done():
		return feed.Notification{}, ctx.Err()
	}
}

func (c *fakeConn) Close() error {
	c.closeOnce.Do(func() { close(c.closed) })
	return nil
}

func (c *fakeConn) isClosed() bool {
	select {
	case <-c.closed:
		return true
	default:
		return false
	}
}

type fakeFeed struct {
	mu    sync.Mutex
	conns map[string][]*fakeConn
}

func newFakeFeed() *fakeFeed {
	return &fakeFeed{conns: make(map[string][]*fakeConn)}
}

func (f *fakeFeed) Open(ctx context.Context, groupID string) (Conn, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	conn := newFakeConn()
	f.conns[groupID] = append(f.conns[groupID], conn)
	return conn, nil
}

func (f *fakeFeed) opened(groupID string) []*fakeConn {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]*fakeConn(nil), f.conns[groupID]...)
}

type fakeResolver struct {
	member *models.Member
	err    error
	calls  int
}

func (r *fakeResolver) ResolveMember(ctx context.Context, groupID, userID string) (*models.Member, error) {
	r.calls++
	return r.member, r.err
}

func expenseInsert(t *testing.T, groupID, expenseID string) feed.Notification {
	t.Helper()
	raw, err := json.Marshal(feed.ExpenseRow{ID: expenseID, GroupID: groupID, Name: "Loyer", Amount: 1200, Currency: "EUR"})
	if err != nil {
		t.Fatalf("marshaling row: %v", err)
	}
	return feed.Notification{Entity: feed.EntityExpense, Change: feed.ChangeInsert, Row: raw}
}

func collectEvents() (Handler, <-chan models.DomainEvent) {
	events := make(chan models.DomainEvent, 8)
	return func(evt models.DomainEvent) { events <- evt }, events
}

func waitEvent(t *testing.T, events <-chan models.DomainEvent) models.DomainEvent {
	t.Helper()
	select {
	case evt := <-events:
		return evt
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for event")
		return models.DomainEvent{}
	}
}

func TestSubscribeDeliversTranslatedEvents(t *testing.T) {
	f := newFakeFeed()
	m := NewSubscriptionManager(f, &fakeResolver{})
	defer m.Close()

	handler, events := collectEvents()
	unsubscribe, err := m.Subscribe(context.Background(), "group-1", handler)
	if err != nil {
		t.Fatalf("Subscribe() error = %v", err)
	}
	defer unsubscribe()

	f.opened("group-1")[0].ch <- expenseInsert(t, "group-1", "exp-1")

	evt := waitEvent(t, events)
	if evt.Kind != models.ExpenseAdded || evt.EntityID != "exp-1" {
		t.Errorf("event = %+v, want ExpenseAdded exp-1", evt)
	}
}

func TestSubscribeReplacesExistingChannel(t *testing.T) {
	f := newFakeFeed()
	m := NewSubscriptionManager(f, &fakeResolver{})
	defer m.Close()

	handler, events := collectEvents()
	if _, err := m.Subscribe(context.Background(), "group-1", func(models.DomainEvent) {}); err != nil {
		t.Fatalf("first Subscribe() error = %v", err)
	}
	unsubscribe, err := m.Subscribe(context.Background(), "group-1", handler)
	if err != nil {
		t.Fatalf("second Subscribe() error = %v", err)
	}
	defer unsubscribe()

	conns := f.opened("group-1")
	if len(conns) != 2 {
		t.Fatalf("opened %d channels, want 2", len(conns))
	}
	if !conns[0].isClosed() {
		t.Error("first channel still open after resubscribe")
	}
	if conns[1].isClosed() {
		t.Error("second channel closed")
	}

	// Only the surviving channel feeds the handler.
	conns[1].ch <- expenseInsert(t, "group-1", "exp-2")
	if evt := waitEvent(t, events); evt.EntityID != "exp-2" {
		t.Errorf("event = %+v, want exp-2 from the new channel", evt)
	}
}

func TestUnsubscribeIsIdempotent(t *testing.T) {
	f := newFakeFeed()
	m := NewSubscriptionManager(f, &fakeResolver{})
	defer m.Close()

	unsub1, err := m.Subscribe(context.Background(), "group-1", func(models.DomainEvent) {})
	if err != nil {
		t.Fatalf("Subscribe() error = %v", err)
	}
	unsub2, err := m.Subscribe(context.Background(), "group-2", func(models.DomainEvent) {})
	if err != nil {
		t.Fatalf("Subscribe() error = %v", err)
	}
	defer unsub2()

	unsub1()
	unsub1()

	if !f.opened("group-1")[0].isClosed() {
		t.Error("group-1 channel still open after unsubscribe")
	}
	if f.opened("group-2")[0].isClosed() {
		t.Error("unsubscribing group-1 closed group-2's channel")
	}
}

func TestStaleUnsubscribeLeavesReplacementAlone(t *testing.T) {
	f := newFakeFeed()
	m := NewSubscriptionManager(f, &fakeResolver{})
	defer m.Close()

	unsubOld, err := m.Subscribe(context.Background(), "group-1", func(models.DomainEvent) {})
	if err != nil {
		t.Fatalf("Subscribe() error = %v", err)
	}
	unsubNew, err := m.Subscribe(context.Background(), "group-1", func(models.DomainEvent) {})
	if err != nil {
		t.Fatalf("Subscribe() error = %v", err)
	}
	defer unsubNew()

	unsubOld()

	if f.opened("group-1")[1].isClosed() {
		t.Error("stale unsubscribe tore down the replacement channel")
	}
}

func TestRealMemberInsertResolvesBeforeDelivery(t *testing.T) {
	f := newFakeFeed()
	resolver := &fakeResolver{member: &models.Member{ID: "mem-1", GroupID: "group-1", Pseudo: "Bob", Income: 2500}}
	m := NewSubscriptionManager(f, resolver)
	defer m.Close()

	handler, events := collectEvents()
	unsubscribe, err := m.Subscribe(context.Background(), "group-1", handler)
	if err != nil {
		t.Fatalf("Subscribe() error = %v", err)
	}
	defer unsubscribe()

	raw, _ := json.Marshal(feed.MembershipRow{ID: "mem-1", GroupID: "group-1", UserID: "user-2"})
	f.opened("group-1")[0].ch <- feed.Notification{Entity: feed.EntityMembership, Change: feed.ChangeInsert, Row: raw}

	evt := waitEvent(t, events)
	if evt.Kind != models.MemberAdded {
		t.Fatalf("event = %+v, want MemberAdded", evt)
	}
	if evt.Member == nil || evt.Member.Pseudo != "Bob" {
		t.Errorf("Member = %+v, want resolved payload", evt.Member)
	}
	if resolver.calls != 1 {
		t.Errorf("resolver called %d times, want 1", resolver.calls)
	}
}

func TestResolveFailureSuppressesEvent(t *testing.T) {
	f := newFakeFeed()
	resolver := &fakeResolver{err: errors.New("member vanished")}
	m := NewSubscriptionManager(f, resolver)
	defer m.Close()

	handler, events := collectEvents()
	unsubscribe, err := m.Subscribe(context.Background(), "group-1", handler)
	if err != nil {
		t.Fatalf("Subscribe() error = %v", err)
	}
	defer unsubscribe()

	conn := f.opened("group-1")[0]
	raw, _ := json.Marshal(feed.MembershipRow{ID: "mem-1", GroupID: "group-1", UserID: "user-2"})
	conn.ch <- feed.Notification{Entity: feed.EntityMembership, Change: feed.ChangeInsert, Row: raw}
	conn.ch <- expenseInsert(t, "group-1", "exp-3")

	// The failed resolve emits nothing; the next notification still flows.
	evt := waitEvent(t, events)
	if evt.Kind != models.ExpenseAdded || evt.EntityID != "exp-3" {
		t.Errorf("event = %+v, want the expense event only", evt)
	}
}

func TestPhantomInsertSkipsResolver(t *testing.T) {
	f := newFakeFeed()
	resolver := &fakeResolver{}
	m := NewSubscriptionManager(f, resolver)
	defer m.Close()

	handler, events := collectEvents()
	unsubscribe, err := m.Subscribe(context.Background(), "group-1", handler)
	if err != nil {
		t.Fatalf("Subscribe() error = %v", err)
	}
	defer unsubscribe()

	raw, _ := json.Marshal(feed.MembershipRow{ID: "mem-9", GroupID: "group-1", Pseudo: "Mamie", Income: 800, IsPhantom: true})
	f.opened("group-1")[0].ch <- feed.Notification{Entity: feed.EntityMembership, Change: feed.ChangeInsert, Row: raw}

	evt := waitEvent(t, events)
	if evt.Member == nil || !evt.Member.IsPhantom {
		t.Fatalf("event = %+v, want synthesized phantom member", evt)
	}
	if resolver.calls != 0 {
		t.Errorf("resolver called %d times, want 0", resolver.calls)
	}
}

func TestCloseTearsDownAllChannels(t *testing.T) {
	f := newFakeFeed()
	m := NewSubscriptionManager(f, &fakeResolver{})

	for _, g := range []string{"group-1", "group-2"} {
		if _, err := m.Subscribe(context.Background(), g, func(models.DomainEvent) {}); err != nil {
			t.Fatalf("Subscribe(%s) error = %v", g, err)
		}
	}

	m.Close()

	for _, g := range []string{"group-1", "group-2"} {
		if !f.opened(g)[0].isClosed() {
			t.Errorf("%s channel still open after Close", g)
		}
	}
}

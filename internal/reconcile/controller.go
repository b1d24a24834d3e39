// Package reconcile converts "something changed" signals into consistent
// snapshot updates.
//
// The controller never patches local state from event payloads: realtime
// rows cannot rebuild the Shares snapshot (only the authority recomputes it
// from all expenses and members), so every trigger is answered with a full
// group re-fetch applied wholesale.
package reconcile

import (
	"context"
	"log/slog"
	"sync"

	"github.com/BlandineRdl/EquimApp-sub001/internal/models"
	"github.com/BlandineRdl/EquimApp-sub001/internal/state"
)

// Fetcher is the slice of the group port the controller needs.
type Fetcher interface {
	GetGroupByID(ctx context.Context, groupID string) (*models.Group, error)
	ListGroups(ctx context.Context) ([]models.Group, error)
}

// Controller coalesces reconciliation triggers per group and applies
// fetched snapshots to the state store with monotonic sequence gating.
//
// Coalescing bounds request amplification: any burst of triggers while a
// fetch is in flight costs at most one follow-up fetch. Gating guarantees
// the store is never overwritten by a snapshot older than the one it
// already holds.
type Controller struct {
	fetcher Fetcher
	store   state.Store

	mu          sync.Mutex
	seq         uint64
	inflight    map[string]*flight
	lastApplied map[string]uint64
	wg          sync.WaitGroup
}

// flight tracks the single coalesced in-flight fetch for one group.
// pending records that at least one more trigger arrived meanwhile and one
// follow-up fetch is owed.
type flight struct {
	seq     uint64
	pending bool
}

// New creates a controller writing to the given store. Controllers are
// independent; tests instantiate one per case.
func New(fetcher Fetcher, store state.Store) *Controller {
	return &Controller{
		fetcher:     fetcher,
		store:       store,
		inflight:    make(map[string]*flight),
		lastApplied: make(map[string]uint64),
	}
}

// Trigger requests a reconciliation of one group. It returns immediately;
// the fetch runs in the background. If a fetch for the group is already in
// flight, no second fetch starts: one follow-up is marked instead, so a
// burst of N triggers costs at most two fetches.
func (c *Controller) Trigger(groupID string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if f, ok := c.inflight[groupID]; ok {
		f.pending = true
		return
	}

	c.seq++
	f := &flight{seq: c.seq}
	c.inflight[groupID] = f
	c.wg.Add(1)
	go c.run(groupID, f)
}

// ForceRefresh fetches and applies one snapshot synchronously, bypassing
// coalescing. Meant for caller-awaited refreshes (initial load,
// pull-to-refresh); event-driven reconciliation should use Trigger. The
// result is still sequence-gated, so a slow ForceRefresh can never clobber
// a newer snapshot applied meanwhile.
func (c *Controller) ForceRefresh(ctx context.Context, groupID string) error {
	c.mu.Lock()
	c.seq++
	seq := c.seq
	c.mu.Unlock()

	snapshot, err := c.fetcher.GetGroupByID(ctx, groupID)
	if err != nil {
		return err
	}
	c.apply(groupID, seq, snapshot)
	return nil
}

// Handler adapts the controller to the subscription manager: every domain
// event triggers a reconciliation of its group.
func (c *Controller) Handler() func(models.DomainEvent) {
	return func(evt models.DomainEvent) {
		c.Trigger(evt.GroupID)
	}
}

// RefreshGroupList reloads the caller's whole group list, used after an
// invitation acceptance changes which groups the caller belongs to.
func (c *Controller) RefreshGroupList(ctx context.Context) error {
	list, err := c.fetcher.ListGroups(ctx)
	if err != nil {
		return err
	}
	c.store.ReplaceGroupList(list)
	return nil
}

// Wait blocks until no triggered reconciliation is in flight. Intended for
// shutdown and tests.
func (c *Controller) Wait() {
	c.wg.Wait()
}

// apply writes the snapshot to the store unless a newer one has already
// been applied. The store write happens under the controller lock so the
// gate decision and the write cannot interleave with a competing apply.
func (c *Controller) apply(groupID string, seq uint64, snapshot *models.Group) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if seq <= c.lastApplied[groupID] {
		slog.Debug("Discarding stale snapshot", "group_id", groupID, "seq", seq)
		return
	}
	c.lastApplied[groupID] = seq
	c.store.ReplaceGroup(groupID, snapshot)
}

func (c *Controller) run(groupID string, f *flight) {
	defer c.wg.Done()
	for {
		snapshot, err := c.fetcher.GetGroupByID(context.Background(), groupID)
		if err != nil {
			slog.Warn("Reconciliation fetch failed", "group_id", groupID, "error", err)
		} else {
			c.apply(groupID, f.seq, snapshot)
		}

		c.mu.Lock()
		if !f.pending {
			delete(c.inflight, groupID)
			c.mu.Unlock()
			return
		}
		f.pending = false
		c.seq++
		f.seq = c.seq
		c.mu.Unlock()
	}
}

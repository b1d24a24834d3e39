package realtime

import (
	"encoding/json"

	"github.com/BlandineRdl/EquimApp-sub001/internal/feed"
	"github.com/BlandineRdl/EquimApp-sub001/internal/models"
)

// Event is a translated feed notification. ResolveUserID is set for
// real-member inserts, whose rows carry only a user id: the subscription
// manager must fetch the member payload before delivering the event.
type Event struct {
	models.DomainEvent
	ResolveUserID string
}

// Translate converts a raw row-change notification into a typed domain
// event. It is pure (no I/O) so the transport-to-domain mapping stays
// unit-testable without a live channel. Unknown entity/change pairs and
// unparseable rows return ok=false and are dropped by the caller.
func Translate(n feed.Notification) (Event, bool) {
	switch n.Entity {
	case feed.EntityExpense:
		return translateExpense(n)
	case feed.EntityMembership:
		return translateMembership(n)
	default:
		return Event{}, false
	}
}

func translateExpense(n feed.Notification) (Event, bool) {
	var row feed.ExpenseRow
	if err := json.Unmarshal(n.Row, &row); err != nil || row.ID == "" {
		return Event{}, false
	}

	evt := Event{DomainEvent: models.DomainEvent{GroupID: row.GroupID, EntityID: row.ID}}
	switch n.Change {
	case feed.ChangeInsert:
		evt.Kind = models.ExpenseAdded
	case feed.ChangeUpdate:
		evt.Kind = models.ExpenseUpdated
	case feed.ChangeDelete:
		evt.Kind = models.ExpenseDeleted
		return evt, true
	default:
		return Event{}, false
	}

	evt.Expense = &models.Expense{
		ID:           row.ID,
		GroupID:      row.GroupID,
		Name:         row.Name,
		Amount:       row.Amount,
		Currency:     row.Currency,
		CreatorID:    row.CreatorID,
		IsPredefined: row.IsPredefined,
		CreatedAt:    row.CreatedAt,
		UpdatedAt:    row.UpdatedAt,
	}
	return evt, true
}

func translateMembership(n feed.Notification) (Event, bool) {
	var row feed.MembershipRow
	if err := json.Unmarshal(n.Row, &row); err != nil || row.ID == "" {
		return Event{}, false
	}

	evt := Event{DomainEvent: models.DomainEvent{GroupID: row.GroupID, EntityID: row.ID}}
	switch n.Change {
	case feed.ChangeInsert:
		evt.Kind = models.MemberAdded
	case feed.ChangeDelete:
		evt.Kind = models.MemberRemoved
		return evt, true
	default:
		// Membership rows are only ever inserted or deleted.
		return Event{}, false
	}

	if row.IsPhantom {
		// Phantom rows are self-contained; synthesize the member directly.
		evt.Member = &models.Member{
			ID:           row.ID,
			GroupID:      row.GroupID,
			Pseudo:       row.Pseudo,
			Income:       row.Income,
			IncomeShared: row.IncomeShared,
			IsPhantom:    true,
			JoinedAt:     row.JoinedAt,
		}
		return evt, true
	}

	if row.UserID == "" {
		return Event{}, false
	}
	evt.ResolveUserID = row.UserID
	return evt, true
}

package models

// EventKind enumerates the typed change notifications delivered by the
// realtime subscription.
type EventKind string

const (
	ExpenseAdded   EventKind = "expense_added"
	ExpenseUpdated EventKind = "expense_updated"
	ExpenseDeleted EventKind = "expense_deleted"
	MemberAdded    EventKind = "member_added"
	MemberRemoved  EventKind = "member_removed"
)

// DomainEvent is one typed change to a group, translated from a raw feed
// notification. Exactly one of Expense/Member is set depending on Kind;
// deletes carry only EntityID.
//
// Consumers should not patch local state from the payload: the payload is
// informational (toast/UX), the reconciliation re-fetch is what converges
// the snapshot.
type DomainEvent struct {
	Kind    EventKind
	GroupID string

	// EntityID is the id of the changed expense or membership row.
	EntityID string

	// Expense is set for expense kinds on insert/update.
	Expense *Expense

	// Member is set for MemberAdded.
	Member *Member
}

// Package feed defines the wire format of the per-group change-notification
// feed, shared by the server hub and the client subscription transport.
package feed

import "encoding/json"

// Entity names the kind of row a notification is about.
const (
	EntityExpense    = "expense"
	EntityMembership = "membership"
)

// Change names the kind of mutation.
const (
	ChangeInsert = "insert"
	ChangeUpdate = "update"
	ChangeDelete = "delete"
)

// Notification is one server-pushed row change, scoped to a single group.
// Row carries the changed entity fields; for membership inserts it carries
// enough to distinguish phantom from real members.
type Notification struct {
	Entity string          `json:"entity"`
	Change string          `json:"change"`
	Row    json.RawMessage `json:"row"`
}

// ExpenseRow is the row payload for expense notifications. Deletes carry
// only ID and GroupID.
type ExpenseRow struct {
	ID           string  `json:"id"`
	GroupID      string  `json:"group_id"`
	Name         string  `json:"name,omitempty"`
	Amount       float64 `json:"amount,omitempty"`
	Currency     string  `json:"currency,omitempty"`
	CreatorID    string  `json:"creator_id,omitempty"`
	IsPredefined bool    `json:"is_predefined,omitempty"`
	CreatedAt    int64   `json:"created_at,omitempty"`
	UpdatedAt    int64   `json:"updated_at,omitempty"`
}

// MembershipRow is the row payload for membership notifications. Phantom
// inserts are self-contained (pseudo/income on the row); real inserts carry
// only the user id and need one extra fetch client-side.
type MembershipRow struct {
	ID           string  `json:"id"`
	GroupID      string  `json:"group_id"`
	UserID       string  `json:"user_id,omitempty"`
	Pseudo       string  `json:"pseudo,omitempty"`
	Income       float64 `json:"income,omitempty"`
	IncomeShared bool    `json:"income_shared,omitempty"`
	IsPhantom    bool    `json:"is_phantom,omitempty"`
	JoinedAt     int64   `json:"joined_at,omitempty"`
}

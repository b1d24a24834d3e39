package models

// Group represents a household sharing monthly expenses.
type Group struct {
	// ID is the unique identifier for the group (UUID format).
	ID string `json:"id"`

	// Name is the display name of the group (e.g., "Mon Foyer").
	Name string `json:"name"`

	// Currency is the ISO 4217 currency code shared by all expenses
	// in the group (e.g., "EUR"). Expenses in any other currency are
	// rejected by the authority.
	Currency string `json:"currency"`

	// CreatorID is the user ID of the account that created the group.
	CreatorID string `json:"creator_id"`

	// Members is the unordered set of current participants.
	Members []Member `json:"members"`

	// Expenses is the unordered set of current monthly expenses.
	Expenses []Expense `json:"expenses"`

	// Shares is the latest authoritative split snapshot. It satisfies
	// Shares.TotalExpenses == sum of Expenses amounts at the moment the
	// snapshot was computed.
	Shares Shares `json:"shares"`

	// CreatedAt is the Unix timestamp when the group was created.
	CreatedAt int64 `json:"created_at"`

	// UpdatedAt is the Unix timestamp of the last mutation.
	UpdatedAt int64 `json:"updated_at"`
}

// Member represents one participant in a group.
//
// A member is either real (UserID set, phantom fields empty) or phantom
// (UserID empty, pseudo and income carried on the row) — never both.
type Member struct {
	// ID is the unique identifier for the membership row (UUID format).
	ID string `json:"id"`

	// GroupID is the group this membership belongs to.
	GroupID string `json:"group_id"`

	// UserID is the account behind this member, empty for phantom members.
	UserID string `json:"user_id,omitempty"`

	// Pseudo is the display name shown to other members.
	Pseudo string `json:"pseudo"`

	// IncomeShared reports whether the member chose to reveal the income
	// figure to the rest of the group. The share computation uses the
	// value either way.
	IncomeShared bool `json:"income_shared"`

	// Income is the declared monthly income-or-weight value used by the
	// proportional split.
	Income float64 `json:"income"`

	// Capacity is the computed monthly capacity: declared income minus the
	// member's current share amount. Recomputed with every Shares snapshot.
	Capacity float64 `json:"capacity"`

	// IsPhantom marks a placeholder member without an account.
	IsPhantom bool `json:"is_phantom"`

	// JoinedAt is the Unix timestamp when the member joined.
	JoinedAt int64 `json:"joined_at"`
}

// Expense represents one shared monthly expense.
type Expense struct {
	// ID is the unique identifier for the expense (UUID format).
	ID string `json:"id"`

	// GroupID is the owning group.
	GroupID string `json:"group_id"`

	// Name is the expense label (e.g., "Loyer").
	Name string `json:"name"`

	// Amount is the monthly amount, always > 0.
	Amount float64 `json:"amount"`

	// Currency must equal the group currency.
	Currency string `json:"currency"`

	// CreatorID is the user ID of the member who logged the expense.
	CreatorID string `json:"creator_id"`

	// IsPredefined marks expenses created from the catalog of common
	// household charges rather than typed in manually.
	IsPredefined bool `json:"is_predefined"`

	// CreatedAt and UpdatedAt are Unix timestamps.
	CreatedAt int64 `json:"created_at"`
	UpdatedAt int64 `json:"updated_at"`
}

// Shares is the authoritative proportional split of the group total.
//
// Invariants (within a 0.01 rounding epsilon): the per-member percentages sum
// to 100 and the per-member amounts sum to TotalExpenses. Always produced by
// the authority, never computed client-side.
type Shares struct {
	// TotalExpenses is the sum of all current expense amounts.
	TotalExpenses float64 `json:"total_expenses"`

	// Entries is the unordered per-member breakdown.
	Entries []ShareEntry `json:"entries"`
}

// ShareEntry is one member's slice of the split.
type ShareEntry struct {
	MemberID        string  `json:"member_id"`
	UserID          string  `json:"user_id,omitempty"`
	Pseudo          string  `json:"pseudo"`
	SharePercentage float64 `json:"share_percentage"`
	ShareAmount     float64 `json:"share_amount"`
}

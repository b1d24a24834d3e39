package models

// User represents a registered account with its profile.
//
// The profile half (Pseudo, Income, IncomeShared) is what real group members
// inherit; it must exist before an invitation can be accepted, which is why
// the accept flow upserts it first.
type User struct {
	// ID is the unique identifier for the user (UUID format).
	ID string `json:"id"`

	// Email is the login identifier (unique).
	Email string `json:"email"`

	// PasswordHash is the bcrypt hash of the password. Never serialized.
	PasswordHash string `json:"-"`

	// Pseudo is the display name used across groups.
	Pseudo string `json:"pseudo"`

	// Income is the declared monthly income used by the proportional split.
	Income float64 `json:"income"`

	// IncomeShared reports whether the income figure is visible to other
	// group members.
	IncomeShared bool `json:"income_shared"`

	// CreatedAt is the Unix timestamp when the account was created.
	CreatedAt int64 `json:"created_at"`
}

// HasProfile reports whether the onboarding profile has been completed.
func (u *User) HasProfile() bool {
	return u.Pseudo != "" && u.Income > 0
}

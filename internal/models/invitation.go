package models

// Invitation is a single-use credential admitting a new member into a group.
//
// Lifecycle: created by generate, previewed any number of times while
// unconsumed and unexpired, consumed exactly once by a successful accept.
// Multiple outstanding tokens per group are allowed. A consumed or expired
// token can never again be accepted.
type Invitation struct {
	// ID is the unique identifier for the invitation (UUID format).
	ID string `json:"id"`

	// GroupID is the group this invitation admits into.
	GroupID string `json:"group_id"`

	// Token is the opaque, cryptographically unguessable credential.
	Token string `json:"token"`

	// CreatorID is the user ID of the member who generated the invitation.
	CreatorID string `json:"creator_id"`

	// ExpiresAt is the Unix timestamp after which the token is dead,
	// 0 for no expiry. Expiry is checked at preview/accept time, there is
	// no background sweep.
	ExpiresAt int64 `json:"expires_at,omitempty"`

	// ConsumedAt is the Unix timestamp of the successful accept, 0 while
	// the token is still active.
	ConsumedAt int64 `json:"consumed_at,omitempty"`

	// AcceptedBy is the user ID that consumed the token.
	AcceptedBy string `json:"accepted_by,omitempty"`

	// CreatedAt is the Unix timestamp when the invitation was generated.
	CreatedAt int64 `json:"created_at"`
}

// InvitationPreview is the non-mutating view of a token shown before
// acceptance. Safe to request from an unauthenticated context.
type InvitationPreview struct {
	GroupName     string `json:"group_name"`
	CreatorPseudo string `json:"creator_pseudo"`
	ExpiresAt     int64  `json:"expires_at,omitempty"`
	IsConsumed    bool   `json:"is_consumed"`
}

// InvitationLink pairs a freshly generated token with its shareable deep link.
type InvitationLink struct {
	Token string `json:"token"`
	Link  string `json:"link"`
}

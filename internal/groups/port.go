// Package groups defines the Group Access Port — the single surface the
// rest of the client depends on — and its HTTP implementation against the
// group authority.
package groups

import (
	"context"

	"github.com/BlandineRdl/EquimApp-sub001/internal/models"
	"github.com/BlandineRdl/EquimApp-sub001/internal/service"
)

// ExpenseResult pairs a created expense with the recomputed shares returned
// in the same round trip.
type ExpenseResult struct {
	Expense *models.Expense
	Shares  models.Shares
}

// AcceptResult reports a successful invitation acceptance.
type AcceptResult struct {
	GroupID string
	Shares  models.Shares
}

// Port is the client-side contract to the group authority. Every mutating
// call returns the freshly recomputed Shares so callers never compute
// shares themselves. Network failures surface as *models.TransportError;
// domain failures as the models sentinel errors.
type Port interface {
	CreateGroup(ctx context.Context, name, currency string) (string, error)
	GetGroupByID(ctx context.Context, groupID string) (*models.Group, error)
	ListGroups(ctx context.Context) ([]models.Group, error)
	DeleteGroup(ctx context.Context, groupID string) error

	CreateExpense(ctx context.Context, groupID, name string, amount float64, currency string, isPredefined bool) (*ExpenseResult, error)
	UpdateExpense(ctx context.Context, groupID, expenseID string, patch service.ExpensePatch) (models.Shares, error)
	DeleteExpense(ctx context.Context, groupID, expenseID string) (models.Shares, error)

	AddMember(ctx context.Context, groupID, userID string) (models.Shares, error)
	AddPhantomMember(ctx context.Context, groupID, pseudo string, income float64) (models.Shares, error)
	RemoveMember(ctx context.Context, groupID, memberID string) (models.Shares, error)
	// LeaveGroup reports whether the group was deleted because it became
	// empty.
	LeaveGroup(ctx context.Context, groupID string) (bool, error)

	// RefreshGroupShares is an idempotent, side-effect-free recomputation
	// request.
	RefreshGroupShares(ctx context.Context, groupID string) (models.Shares, error)

	GenerateInvitation(ctx context.Context, groupID string) (*models.InvitationLink, error)
	// GetInvitationDetails never mutates and returns (nil, nil) for an
	// unknown token, distinguishing "not found" from "error".
	GetInvitationDetails(ctx context.Context, token string) (*models.InvitationPreview, error)
	AcceptInvitation(ctx context.Context, token string) (*AcceptResult, error)

	// UpsertProfile completes the caller's profile; idempotent.
	UpsertProfile(ctx context.Context, pseudo string, income float64, incomeShared bool) error

	// ResolveMember fetches the membership row behind a user id, used to
	// hydrate real-member feed notifications.
	ResolveMember(ctx context.Context, groupID, userID string) (*models.Member, error)
}

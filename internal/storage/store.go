// Package storage provides abstractions for persistent data storage on the
// authority side.
package storage

import (
	"context"

	"github.com/BlandineRdl/EquimApp-sub001/internal/models"
)

// Store defines the persistence operations the group service depends on.
// This abstraction allows swapping storage backends (SQLite, PostgreSQL,
// etc.) without changing the service layer.
//
// Methods return models.ErrNotFound (possibly wrapped) for missing rows and
// the invitation sentinels for token-state violations, so the service can
// pass them through unchanged.
type Store interface {
	// Users.
	CreateUser(ctx context.Context, user *models.User) error
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	GetUserByID(ctx context.Context, id string) (*models.User, error)
	// UpsertProfile sets pseudo/income/incomeShared on an existing user.
	// Idempotent.
	UpsertProfile(ctx context.Context, userID, pseudo string, income float64, incomeShared bool) error

	// Groups. GetGroup loads members and expenses; Shares is left for the
	// service to compute.
	CreateGroup(ctx context.Context, group *models.Group) error
	GetGroup(ctx context.Context, groupID string) (*models.Group, error)
	ListGroupsForUser(ctx context.Context, userID string) ([]models.Group, error)
	DeleteGroup(ctx context.Context, groupID string) error

	// Members.
	AddMember(ctx context.Context, member *models.Member) error
	RemoveMember(ctx context.Context, groupID, memberID string) error
	GetMemberByUser(ctx context.Context, groupID, userID string) (*models.Member, error)

	// Expenses.
	CreateExpense(ctx context.Context, expense *models.Expense) error
	UpdateExpense(ctx context.Context, expense *models.Expense) error
	DeleteExpense(ctx context.Context, groupID, expenseID string) error
	GetExpense(ctx context.Context, groupID, expenseID string) (*models.Expense, error)

	// Invitations.
	CreateInvitation(ctx context.Context, inv *models.Invitation) error
	GetInvitationByToken(ctx context.Context, token string) (*models.Invitation, error)
	// AcceptInvitation atomically validates the token (existence, expiry,
	// consumption), rejects duplicate membership, inserts the member, and
	// consumes the token. Exactly one of two racing accepts can succeed.
	AcceptInvitation(ctx context.Context, token string, user *models.User, now int64) (*models.Member, error)

	// Close releases any resources held by the store.
	Close() error
}

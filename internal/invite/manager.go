// Package invite orchestrates the invitation lifecycle on the client side:
// previewing tokens, the accept flow, and the two-phase accept-after-
// onboarding saga.
package invite

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/BlandineRdl/EquimApp-sub001/internal/groups"
	"github.com/BlandineRdl/EquimApp-sub001/internal/models"
)

// MinPseudoLength is the shortest display name accepted during the
// pre-validation step.
const MinPseudoLength = 2

// Authority is the slice of the group port the manager needs.
type Authority interface {
	GetInvitationDetails(ctx context.Context, token string) (*models.InvitationPreview, error)
	AcceptInvitation(ctx context.Context, token string) (*groups.AcceptResult, error)
	UpsertProfile(ctx context.Context, pseudo string, income float64, incomeShared bool) error
}

// Identity resolves the currently authenticated user. Implementations
// return models.ErrNotAuthenticated when no session is active.
type Identity interface {
	CurrentUser(ctx context.Context) (*models.User, error)
}

// GroupListRefresher reloads the caller's whole group list after an
// acceptance changes which groups the caller belongs to.
type GroupListRefresher interface {
	RefreshGroupList(ctx context.Context) error
}

// Destination tells the caller where the accept flow must go next.
type Destination int

const (
	// DestinationAccept means the caller can proceed straight to Accept.
	DestinationAccept Destination = iota
	// DestinationLogin means no session is active; the token has been
	// parked as pending.
	DestinationLogin
	// DestinationOnboarding means the identity has no profile yet; the
	// token has been parked as pending and Accept re-enters after
	// onboarding completes.
	DestinationOnboarding
)

// Outcome is the result of resolving an accept whose outcome is unknown
// after a transport failure.
type Outcome int

const (
	// OutcomeConsumed means the token is now consumed; the accept went
	// through and must be treated as a success.
	OutcomeConsumed Outcome = iota
	// OutcomeRetriable means the token is still active; re-invoking Accept
	// is safe.
	OutcomeRetriable
)

// Manager drives the invitation accept flow. Profile creation and
// invitation acceptance are separate remote operations with no combined
// atomic primitive, so the flow that passes through onboarding carries the
// token as explicit pending state on the manager rather than as route
// parameters.
type Manager struct {
	authority Authority
	identity  Identity
	refresher GroupListRefresher

	mu      sync.Mutex
	pending string
}

// NewManager wires the accept flow. refresher may be nil when no group
// list exists yet (pre-login preview screens).
func NewManager(authority Authority, identity Identity, refresher GroupListRefresher) *Manager {
	return &Manager{authority: authority, identity: identity, refresher: refresher}
}

// Preview fetches the non-mutating view of a token. Returns (nil, nil)
// for an unknown token. Safe to call unauthenticated.
func (m *Manager) Preview(ctx context.Context, token string) (*models.InvitationPreview, error) {
	if strings.TrimSpace(token) == "" {
		return nil, fmt.Errorf("%w: empty invitation token", models.ErrValidation)
	}
	return m.authority.GetInvitationDetails(ctx, token)
}

// Route decides where the accept flow goes for a token: straight to
// Accept, or through login/onboarding first. In the latter cases the token
// is parked as pending so the flow can re-enter Accept afterwards.
func (m *Manager) Route(ctx context.Context, token string) (Destination, error) {
	if strings.TrimSpace(token) == "" {
		return DestinationAccept, fmt.Errorf("%w: empty invitation token", models.ErrInvalidToken)
	}

	user, err := m.identity.CurrentUser(ctx)
	if err != nil {
		if errors.Is(err, models.ErrNotAuthenticated) {
			m.SetPendingToken(token)
			return DestinationLogin, nil
		}
		return DestinationAccept, err
	}
	if !user.HasProfile() {
		m.SetPendingToken(token)
		return DestinationOnboarding, nil
	}
	return DestinationAccept, nil
}

// Accept admits the caller into the invited group.
//
// Order matters: local validation fails fast without a remote call, the
// profile upsert happens before the remote accept (acceptance snapshots the
// caller's profile), and the remote accept is a single atomic operation so
// two devices racing on one token can never both succeed. On success the
// caller's group list is reloaded and the pending token, if any, cleared.
func (m *Manager) Accept(ctx context.Context, token, pseudo string, income float64) (*groups.AcceptResult, error) {
	if strings.TrimSpace(token) == "" {
		return nil, fmt.Errorf("%w: empty invitation token", models.ErrInvalidToken)
	}
	pseudo = strings.TrimSpace(pseudo)
	if len(pseudo) < MinPseudoLength {
		return nil, fmt.Errorf("%w: pseudo must be at least %d characters", models.ErrValidation, MinPseudoLength)
	}
	if income <= 0 {
		return nil, fmt.Errorf("%w: income must be positive", models.ErrValidation)
	}

	user, err := m.identity.CurrentUser(ctx)
	if err != nil {
		return nil, err
	}

	if err := m.authority.UpsertProfile(ctx, pseudo, income, user.IncomeShared); err != nil {
		return nil, fmt.Errorf("upserting profile: %w", err)
	}

	result, err := m.authority.AcceptInvitation(ctx, token)
	if err != nil {
		return nil, err
	}

	m.ClearPendingToken()
	m.refreshGroupList(ctx)
	return result, nil
}

// ResolveUnknownOutcome settles an accept that failed with a transport
// error. Re-invoking Accept blindly is unsafe because the remote accept may
// have gone through; the token's consumption state is re-checked instead.
func (m *Manager) ResolveUnknownOutcome(ctx context.Context, token string) (Outcome, error) {
	preview, err := m.Preview(ctx, token)
	if err != nil {
		return OutcomeRetriable, err
	}
	if preview == nil {
		return OutcomeRetriable, fmt.Errorf("%w: token no longer exists", models.ErrInvalidToken)
	}
	if preview.IsConsumed {
		m.ClearPendingToken()
		m.refreshGroupList(ctx)
		return OutcomeConsumed, nil
	}
	return OutcomeRetriable, nil
}

// SetPendingToken parks a token across the onboarding flow.
func (m *Manager) SetPendingToken(token string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.pending = token
}

// PendingToken returns the parked token, or "".
func (m *Manager) PendingToken() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.pending
}

// ClearPendingToken drops the parked token.
func (m *Manager) ClearPendingToken() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.pending = ""
}

// refreshGroupList reloads the group list best-effort: acceptance already
// succeeded, so a failed reload only delays convergence until the next
// reconciliation.
func (m *Manager) refreshGroupList(ctx context.Context) {
	if m.refresher == nil {
		return
	}
	if err := m.refresher.RefreshGroupList(ctx); err != nil {
		slog.Warn("Group list refresh after acceptance failed", "error", err)
	}
}

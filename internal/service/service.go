// Package service implements the group authority: every mutating operation
// is answered with a freshly recomputed Shares snapshot, and every committed
// mutation is published to the per-group change feed.
package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/BlandineRdl/EquimApp-sub001/internal/calculator"
	"github.com/BlandineRdl/EquimApp-sub001/internal/feed"
	"github.com/BlandineRdl/EquimApp-sub001/internal/models"
	"github.com/BlandineRdl/EquimApp-sub001/internal/storage"
)

// Notifier publishes change notifications to a group's feed subscribers.
type Notifier interface {
	Publish(groupID string, n feed.Notification)
}

// NopNotifier discards notifications. Useful in tests that do not exercise
// the feed.
type NopNotifier struct{}

func (NopNotifier) Publish(string, feed.Notification) {}

// GroupService owns group, expense, member, and invitation operations.
type GroupService struct {
	store    storage.Store
	notifier Notifier

	// inviteLinkScheme is the deep-link scheme for generated invitations,
	// e.g. "equimapp" produces equimapp://invite/<token>.
	inviteLinkScheme string

	// inviteTTL bounds invitation validity; zero means no expiry.
	inviteTTL time.Duration
}

// NewGroupService creates a new GroupService with the given storage backend
// and feed notifier.
func NewGroupService(store storage.Store, notifier Notifier, inviteLinkScheme string, inviteTTL time.Duration) *GroupService {
	if notifier == nil {
		notifier = NopNotifier{}
	}
	return &GroupService{
		store:            store,
		notifier:         notifier,
		inviteLinkScheme: inviteLinkScheme,
		inviteTTL:        inviteTTL,
	}
}

// loadGroup fetches a group and fills in the authoritative Shares snapshot
// and per-member capacities.
func (s *GroupService) loadGroup(ctx context.Context, groupID string) (*models.Group, error) {
	group, err := s.store.GetGroup(ctx, groupID)
	if err != nil {
		return nil, err
	}
	group.Shares = calculator.ComputeShares(group.Members, group.Expenses)
	for i := range group.Members {
		group.Members[i].Capacity = calculator.Capacity(group.Members[i], group.Shares)
	}
	return group, nil
}

// requireMember loads the group and verifies the caller belongs to it.
// Outsiders get NotFound rather than a membership hint.
func (s *GroupService) requireMember(ctx context.Context, groupID, callerID string) (*models.Group, error) {
	group, err := s.loadGroup(ctx, groupID)
	if err != nil {
		return nil, err
	}
	for _, m := range group.Members {
		if m.UserID == callerID {
			return group, nil
		}
	}
	return nil, fmt.Errorf("%w: group %s", models.ErrNotFound, groupID)
}

// freshShares recomputes the snapshot after a mutation.
func (s *GroupService) freshShares(ctx context.Context, groupID string) (models.Shares, error) {
	group, err := s.loadGroup(ctx, groupID)
	if err != nil {
		return models.Shares{}, err
	}
	return group.Shares, nil
}

func validationErr(format string, args ...any) error {
	return fmt.Errorf("%w: %s", models.ErrValidation, fmt.Sprintf(format, args...))
}

// isRecoverable reports whether an error belongs to the user-facing
// taxonomy, as opposed to an internal failure worth logging loudly.
func isRecoverable(err error) bool {
	for _, sentinel := range []error{
		models.ErrValidation, models.ErrNotFound, models.ErrCurrencyMismatch,
		models.ErrInvalidToken, models.ErrExpiredToken,
		models.ErrAlreadyConsumed, models.ErrAlreadyMember,
	} {
		if errors.Is(err, sentinel) {
			return true
		}
	}
	return false
}

package service

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/BlandineRdl/EquimApp-sub001/internal/feed"
	"github.com/BlandineRdl/EquimApp-sub001/internal/models"
)

// CreateGroup creates a new group with the caller as first member.
func (s *GroupService) CreateGroup(ctx context.Context, callerID, name, currency string) (*models.Group, error) {
	slog.Info("CreateGroup request", "user_id", callerID, "name", name, "currency", currency)

	if name == "" {
		return nil, validationErr("group name must not be empty")
	}
	if currency == "" {
		return nil, validationErr("currency must not be empty")
	}

	group := &models.Group{Name: name, Currency: currency, CreatorID: callerID}
	if err := s.store.CreateGroup(ctx, group); err != nil {
		slog.Error("CreateGroup failed", "error", err)
		return nil, err
	}

	slog.Info("Group created", "group_id", group.ID)
	return s.loadGroup(ctx, group.ID)
}

// GetGroup retrieves a group with its authoritative shares snapshot.
// Non-members get NotFound.
func (s *GroupService) GetGroup(ctx context.Context, callerID, groupID string) (*models.Group, error) {
	group, err := s.requireMember(ctx, groupID, callerID)
	if err != nil {
		slog.Warn("GetGroup failed", "group_id", groupID, "user_id", callerID, "error", err)
		return nil, err
	}
	return group, nil
}

// ListGroups retrieves every group the caller belongs to.
func (s *GroupService) ListGroups(ctx context.Context, callerID string) ([]models.Group, error) {
	groups, err := s.store.ListGroupsForUser(ctx, callerID)
	if err != nil {
		slog.Error("ListGroups failed", "user_id", callerID, "error", err)
		return nil, err
	}
	for i := range groups {
		loaded, err := s.loadGroup(ctx, groups[i].ID)
		if err != nil {
			return nil, err
		}
		groups[i] = *loaded
	}
	return groups, nil
}

// DeleteGroup removes a group entirely.
func (s *GroupService) DeleteGroup(ctx context.Context, callerID, groupID string) error {
	if _, err := s.requireMember(ctx, groupID, callerID); err != nil {
		return err
	}
	if err := s.store.DeleteGroup(ctx, groupID); err != nil {
		slog.Error("DeleteGroup failed", "group_id", groupID, "error", err)
		return err
	}
	slog.Info("Group deleted", "group_id", groupID, "user_id", callerID)
	return nil
}

// RefreshShares recomputes the snapshot without side effects. Idempotent.
func (s *GroupService) RefreshShares(ctx context.Context, callerID, groupID string) (models.Shares, error) {
	group, err := s.requireMember(ctx, groupID, callerID)
	if err != nil {
		return models.Shares{}, err
	}
	return group.Shares, nil
}

// ExpensePatch carries the mutable expense fields; nil means unchanged.
type ExpensePatch struct {
	Name   *string
	Amount *float64
}

// CreateExpense logs a new expense and returns it with fresh shares.
func (s *GroupService) CreateExpense(ctx context.Context, callerID, groupID, name string, amount float64, currency string, isPredefined bool) (*models.Expense, models.Shares, error) {
	slog.Info("CreateExpense request", "group_id", groupID, "name", name, "amount", amount)

	group, err := s.requireMember(ctx, groupID, callerID)
	if err != nil {
		return nil, models.Shares{}, err
	}
	if name == "" {
		return nil, models.Shares{}, validationErr("expense name must not be empty")
	}
	if amount <= 0 {
		return nil, models.Shares{}, validationErr("expense amount must be > 0")
	}
	if currency != group.Currency {
		return nil, models.Shares{}, fmt.Errorf("%w: got %s, group uses %s", models.ErrCurrencyMismatch, currency, group.Currency)
	}

	expense := &models.Expense{
		GroupID:      groupID,
		Name:         name,
		Amount:       amount,
		Currency:     currency,
		CreatorID:    callerID,
		IsPredefined: isPredefined,
	}
	if err := s.store.CreateExpense(ctx, expense); err != nil {
		slog.Error("CreateExpense failed", "group_id", groupID, "error", err)
		return nil, models.Shares{}, err
	}

	s.publishExpense(groupID, feed.ChangeInsert, expense)

	shares, err := s.freshShares(ctx, groupID)
	if err != nil {
		return nil, models.Shares{}, err
	}
	slog.Info("Expense created", "group_id", groupID, "expense_id", expense.ID)
	return expense, shares, nil
}

// UpdateExpense applies a patch and returns fresh shares.
func (s *GroupService) UpdateExpense(ctx context.Context, callerID, groupID, expenseID string, patch ExpensePatch) (models.Shares, error) {
	if _, err := s.requireMember(ctx, groupID, callerID); err != nil {
		return models.Shares{}, err
	}

	expense, err := s.store.GetExpense(ctx, groupID, expenseID)
	if err != nil {
		return models.Shares{}, err
	}
	if patch.Name != nil {
		if *patch.Name == "" {
			return models.Shares{}, validationErr("expense name must not be empty")
		}
		expense.Name = *patch.Name
	}
	if patch.Amount != nil {
		if *patch.Amount <= 0 {
			return models.Shares{}, validationErr("expense amount must be > 0")
		}
		expense.Amount = *patch.Amount
	}

	if err := s.store.UpdateExpense(ctx, expense); err != nil {
		slog.Error("UpdateExpense failed", "expense_id", expenseID, "error", err)
		return models.Shares{}, err
	}

	s.publishExpense(groupID, feed.ChangeUpdate, expense)
	slog.Info("Expense updated", "group_id", groupID, "expense_id", expenseID)
	return s.freshShares(ctx, groupID)
}

// DeleteExpense removes an expense and returns fresh shares.
func (s *GroupService) DeleteExpense(ctx context.Context, callerID, groupID, expenseID string) (models.Shares, error) {
	if _, err := s.requireMember(ctx, groupID, callerID); err != nil {
		return models.Shares{}, err
	}
	if err := s.store.DeleteExpense(ctx, groupID, expenseID); err != nil {
		slog.Error("DeleteExpense failed", "expense_id", expenseID, "error", err)
		return models.Shares{}, err
	}

	s.publish(groupID, feed.EntityExpense, feed.ChangeDelete, feed.ExpenseRow{ID: expenseID, GroupID: groupID})
	slog.Info("Expense deleted", "group_id", groupID, "expense_id", expenseID)
	return s.freshShares(ctx, groupID)
}

// AddMember adds an existing account to the group and returns fresh shares.
func (s *GroupService) AddMember(ctx context.Context, callerID, groupID, userID string) (models.Shares, error) {
	if _, err := s.requireMember(ctx, groupID, callerID); err != nil {
		return models.Shares{}, err
	}
	if _, err := s.store.GetUserByID(ctx, userID); err != nil {
		return models.Shares{}, err
	}
	if _, err := s.store.GetMemberByUser(ctx, groupID, userID); err == nil {
		return models.Shares{}, models.ErrAlreadyMember
	}

	member := &models.Member{GroupID: groupID, UserID: userID}
	if err := s.store.AddMember(ctx, member); err != nil {
		slog.Error("AddMember failed", "group_id", groupID, "error", err)
		return models.Shares{}, err
	}

	// Real-member rows on the feed carry only the user id; subscribers
	// resolve the profile themselves.
	s.publish(groupID, feed.EntityMembership, feed.ChangeInsert, feed.MembershipRow{
		ID: member.ID, GroupID: groupID, UserID: userID, JoinedAt: member.JoinedAt,
	})
	slog.Info("Member added", "group_id", groupID, "member_id", member.ID)
	return s.freshShares(ctx, groupID)
}

// AddPhantomMember adds a placeholder member without an account.
func (s *GroupService) AddPhantomMember(ctx context.Context, callerID, groupID, pseudo string, income float64) (models.Shares, error) {
	if _, err := s.requireMember(ctx, groupID, callerID); err != nil {
		return models.Shares{}, err
	}
	if pseudo == "" {
		return models.Shares{}, validationErr("phantom pseudo must not be empty")
	}
	if income < 0 {
		return models.Shares{}, validationErr("phantom income must be >= 0")
	}

	member := &models.Member{GroupID: groupID, Pseudo: pseudo, Income: income, IsPhantom: true}
	if err := s.store.AddMember(ctx, member); err != nil {
		slog.Error("AddPhantomMember failed", "group_id", groupID, "error", err)
		return models.Shares{}, err
	}

	// Phantom rows are self-contained: no extra fetch needed client-side.
	s.publish(groupID, feed.EntityMembership, feed.ChangeInsert, feed.MembershipRow{
		ID: member.ID, GroupID: groupID, Pseudo: pseudo, Income: income,
		IsPhantom: true, JoinedAt: member.JoinedAt,
	})
	slog.Info("Phantom member added", "group_id", groupID, "member_id", member.ID)
	return s.freshShares(ctx, groupID)
}

// RemoveMember removes a membership row and returns fresh shares.
func (s *GroupService) RemoveMember(ctx context.Context, callerID, groupID, memberID string) (models.Shares, error) {
	if _, err := s.requireMember(ctx, groupID, callerID); err != nil {
		return models.Shares{}, err
	}
	if err := s.store.RemoveMember(ctx, groupID, memberID); err != nil {
		slog.Error("RemoveMember failed", "member_id", memberID, "error", err)
		return models.Shares{}, err
	}

	s.publish(groupID, feed.EntityMembership, feed.ChangeDelete, feed.MembershipRow{ID: memberID, GroupID: groupID})
	slog.Info("Member removed", "group_id", groupID, "member_id", memberID)
	return s.freshShares(ctx, groupID)
}

// LeaveGroup removes the caller's own membership. When the last member
// leaves, the group is deleted; the returned bool reports that.
func (s *GroupService) LeaveGroup(ctx context.Context, callerID, groupID string) (bool, error) {
	group, err := s.requireMember(ctx, groupID, callerID)
	if err != nil {
		return false, err
	}

	member, err := s.store.GetMemberByUser(ctx, groupID, callerID)
	if err != nil {
		return false, err
	}
	if err := s.store.RemoveMember(ctx, groupID, member.ID); err != nil {
		return false, err
	}

	if len(group.Members) == 1 {
		if err := s.store.DeleteGroup(ctx, groupID); err != nil {
			return false, err
		}
		slog.Info("Group deleted on last leave", "group_id", groupID)
		return true, nil
	}

	s.publish(groupID, feed.EntityMembership, feed.ChangeDelete, feed.MembershipRow{ID: member.ID, GroupID: groupID})
	slog.Info("Member left", "group_id", groupID, "member_id", member.ID)
	return false, nil
}

// ResolveMember returns the membership row a user holds in a group. Used by
// subscribers to hydrate real-member feed notifications.
func (s *GroupService) ResolveMember(ctx context.Context, callerID, groupID, userID string) (*models.Member, error) {
	if _, err := s.requireMember(ctx, groupID, callerID); err != nil {
		return nil, err
	}
	return s.store.GetMemberByUser(ctx, groupID, userID)
}

func (s *GroupService) publishExpense(groupID, change string, e *models.Expense) {
	s.publish(groupID, feed.EntityExpense, change, feed.ExpenseRow{
		ID: e.ID, GroupID: e.GroupID, Name: e.Name, Amount: e.Amount,
		Currency: e.Currency, CreatorID: e.CreatorID, IsPredefined: e.IsPredefined,
		CreatedAt: e.CreatedAt, UpdatedAt: e.UpdatedAt,
	})
}

func (s *GroupService) publish(groupID, entity, change string, row any) {
	raw, err := json.Marshal(row)
	if err != nil {
		slog.Error("Failed to marshal feed row", "entity", entity, "error", err)
		return
	}
	s.notifier.Publish(groupID, feed.Notification{Entity: entity, Change: change, Row: raw})
}

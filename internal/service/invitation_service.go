package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/BlandineRdl/EquimApp-sub001/internal/feed"
	"github.com/BlandineRdl/EquimApp-sub001/internal/models"
)

// GenerateInvitation creates a new single-use token for the group and
// returns it with its shareable deep link. Multiple outstanding tokens per
// group are allowed.
func (s *GroupService) GenerateInvitation(ctx context.Context, callerID, groupID string) (*models.InvitationLink, error) {
	if _, err := s.requireMember(ctx, groupID, callerID); err != nil {
		return nil, err
	}

	inv := &models.Invitation{GroupID: groupID, CreatorID: callerID}
	if s.inviteTTL > 0 {
		inv.ExpiresAt = time.Now().Add(s.inviteTTL).Unix()
	}
	if err := s.store.CreateInvitation(ctx, inv); err != nil {
		slog.Error("GenerateInvitation failed", "group_id", groupID, "error", err)
		return nil, err
	}

	slog.Info("Invitation generated", "group_id", groupID, "invitation_id", inv.ID)
	return &models.InvitationLink{
		Token: inv.Token,
		Link:  fmt.Sprintf("%s://invite/%s", s.inviteLinkScheme, inv.Token),
	}, nil
}

// PreviewInvitation returns the non-mutating view of a token, or nil for an
// unknown token. Never consumes anything and needs no authentication.
func (s *GroupService) PreviewInvitation(ctx context.Context, token string) (*models.InvitationPreview, error) {
	inv, err := s.store.GetInvitationByToken(ctx, token)
	if errors.Is(err, models.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		slog.Error("PreviewInvitation failed", "error", err)
		return nil, err
	}

	group, err := s.store.GetGroup(ctx, inv.GroupID)
	if err != nil {
		// The group vanished from under an outstanding token.
		if errors.Is(err, models.ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}

	creatorPseudo := ""
	if creator, err := s.store.GetUserByID(ctx, inv.CreatorID); err == nil {
		creatorPseudo = creator.Pseudo
	}

	return &models.InvitationPreview{
		GroupName:     group.Name,
		CreatorPseudo: creatorPseudo,
		ExpiresAt:     inv.ExpiresAt,
		IsConsumed:    inv.ConsumedAt != 0,
	}, nil
}

// AcceptInvitation atomically consumes a token and admits the caller into
// its group. The validity check, duplicate-membership check, and member
// insert happen in one storage transaction so two racing devices resolve to
// exactly one success.
func (s *GroupService) AcceptInvitation(ctx context.Context, callerID, token string) (string, models.Shares, error) {
	slog.Info("AcceptInvitation request", "user_id", callerID)

	user, err := s.store.GetUserByID(ctx, callerID)
	if err != nil {
		return "", models.Shares{}, err
	}

	member, err := s.store.AcceptInvitation(ctx, token, user, time.Now().Unix())
	if err != nil {
		if isRecoverable(err) {
			slog.Warn("AcceptInvitation rejected", "user_id", callerID, "error", err)
		} else {
			slog.Error("AcceptInvitation failed", "user_id", callerID, "error", err)
		}
		return "", models.Shares{}, err
	}

	s.publish(member.GroupID, feed.EntityMembership, feed.ChangeInsert, feed.MembershipRow{
		ID: member.ID, GroupID: member.GroupID, UserID: member.UserID, JoinedAt: member.JoinedAt,
	})

	shares, err := s.freshShares(ctx, member.GroupID)
	if err != nil {
		return "", models.Shares{}, err
	}
	slog.Info("Invitation accepted", "group_id", member.GroupID, "member_id", member.ID)
	return member.GroupID, shares, nil
}

// UpsertProfile completes or updates the caller's profile. Idempotent; the
// invitation accept flow runs it before the atomic accept.
func (s *GroupService) UpsertProfile(ctx context.Context, callerID, pseudo string, income float64, incomeShared bool) error {
	if pseudo == "" {
		return validationErr("pseudo must not be empty")
	}
	if income <= 0 {
		return validationErr("income must be > 0")
	}
	if err := s.store.UpsertProfile(ctx, callerID, pseudo, income, incomeShared); err != nil {
		slog.Error("UpsertProfile failed", "user_id", callerID, "error", err)
		return err
	}
	return nil
}

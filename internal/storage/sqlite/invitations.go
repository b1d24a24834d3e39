package sqlite

import (
	"context"
	"crypto/rand"
	"database/sql"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/BlandineRdl/EquimApp-sub001/internal/models"
)

// newToken returns a 32-byte random hex token. Unguessable by construction;
// uniqueness is additionally enforced by the UNIQUE column constraint.
func newToken() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("failed to generate token: %w", err)
	}
	return hex.EncodeToString(buf), nil
}

// CreateInvitation persists a new invitation, generating its token.
func (s *SQLiteStore) CreateInvitation(ctx context.Context, inv *models.Invitation) error {
	if inv.ID == "" {
		inv.ID = uuid.New().String()
	}
	if inv.Token == "" {
		token, err := newToken()
		if err != nil {
			return err
		}
		inv.Token = token
	}
	if inv.CreatedAt == 0 {
		inv.CreatedAt = time.Now().Unix()
	}

	_, err := s.db.ExecContext(ctx,
		"INSERT INTO invitations (id, group_id, token, creator_id, expires_at, consumed_at, accepted_by, created_at) VALUES (?, ?, ?, ?, ?, ?, ?, ?)",
		inv.ID, inv.GroupID, inv.Token, inv.CreatorID, inv.ExpiresAt, inv.ConsumedAt, inv.AcceptedBy, inv.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert invitation: %w", err)
	}
	return nil
}

// GetInvitationByToken retrieves an invitation by its token. Returns
// models.ErrNotFound for unknown tokens; callers decide whether that is an
// error (accept) or a null preview.
func (s *SQLiteStore) GetInvitationByToken(ctx context.Context, token string) (*models.Invitation, error) {
	inv := &models.Invitation{}
	err := s.db.QueryRowContext(ctx,
		"SELECT id, group_id, token, creator_id, expires_at, consumed_at, accepted_by, created_at FROM invitations WHERE token = ?",
		token,
	).Scan(&inv.ID, &inv.GroupID, &inv.Token, &inv.CreatorID, &inv.ExpiresAt, &inv.ConsumedAt, &inv.AcceptedBy, &inv.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("%w: unknown token", models.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get invitation: %w", err)
	}
	return inv, nil
}

// AcceptInvitation performs the token-validity check, the duplicate-member
// check, the member insert, and the token consumption in one transaction.
// The guarded UPDATE (consumed_at = 0) is what makes two racing accepts
// resolve to exactly one success.
func (s *SQLiteStore) AcceptInvitation(ctx context.Context, token string, user *models.User, now int64) (*models.Member, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	inv := &models.Invitation{}
	err = tx.QueryRowContext(ctx,
		"SELECT id, group_id, expires_at, consumed_at FROM invitations WHERE token = ?",
		token,
	).Scan(&inv.ID, &inv.GroupID, &inv.ExpiresAt, &inv.ConsumedAt)
	if err == sql.ErrNoRows {
		return nil, models.ErrInvalidToken
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get invitation: %w", err)
	}

	if inv.ConsumedAt != 0 {
		return nil, models.ErrAlreadyConsumed
	}
	if inv.ExpiresAt != 0 && inv.ExpiresAt < now {
		return nil, models.ErrExpiredToken
	}

	var existing int
	err = tx.QueryRowContext(ctx,
		"SELECT COUNT(1) FROM members WHERE group_id = ? AND user_id = ?",
		inv.GroupID, user.ID,
	).Scan(&existing)
	if err != nil {
		return nil, fmt.Errorf("failed to check membership: %w", err)
	}
	if existing > 0 {
		return nil, models.ErrAlreadyMember
	}

	member := &models.Member{
		ID:           uuid.New().String(),
		GroupID:      inv.GroupID,
		UserID:       user.ID,
		Pseudo:       user.Pseudo,
		Income:       user.Income,
		IncomeShared: user.IncomeShared,
		JoinedAt:     now,
	}
	_, err = tx.ExecContext(ctx,
		"INSERT INTO members (id, group_id, user_id, is_phantom, joined_at) VALUES (?, ?, ?, 0, ?)",
		member.ID, member.GroupID, member.UserID, member.JoinedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to insert member: %w", err)
	}

	res, err := tx.ExecContext(ctx,
		"UPDATE invitations SET consumed_at = ?, accepted_by = ? WHERE id = ? AND consumed_at = 0",
		now, user.ID, inv.ID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to consume invitation: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("failed to read rows affected: %w", err)
	}
	if n == 0 {
		return nil, models.ErrAlreadyConsumed
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}
	return member, nil
}

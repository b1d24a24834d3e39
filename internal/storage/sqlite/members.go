package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/BlandineRdl/EquimApp-sub001/internal/models"
)

// memberColumns selects membership rows with real members hydrated from the
// users table (phantom rows carry their own pseudo/income).
const memberColumns = `
	m.id, m.group_id, COALESCE(m.user_id, ''),
	CASE WHEN m.is_phantom = 1 THEN m.pseudo ELSE COALESCE(u.pseudo, '') END,
	CASE WHEN m.is_phantom = 1 THEN m.income ELSE COALESCE(u.income, 0) END,
	CASE WHEN m.is_phantom = 1 THEN m.income_shared ELSE COALESCE(u.income_shared, 0) END,
	m.is_phantom, m.joined_at
	FROM members m LEFT JOIN users u ON u.id = m.user_id`

func scanMember(row interface{ Scan(...any) error }) (*models.Member, error) {
	m := &models.Member{}
	err := row.Scan(&m.ID, &m.GroupID, &m.UserID, &m.Pseudo, &m.Income, &m.IncomeShared, &m.IsPhantom, &m.JoinedAt)
	if err != nil {
		return nil, err
	}
	return m, nil
}

func (s *SQLiteStore) listMembers(ctx context.Context, groupID string) ([]models.Member, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT "+memberColumns+" WHERE m.group_id = ? ORDER BY m.joined_at",
		groupID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list members: %w", err)
	}
	defer rows.Close()

	var members []models.Member
	for rows.Next() {
		m, err := scanMember(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan member: %w", err)
		}
		members = append(members, *m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate members: %w", err)
	}
	return members, nil
}

// AddMember persists a membership row, real or phantom.
func (s *SQLiteStore) AddMember(ctx context.Context, member *models.Member) error {
	if member.ID == "" {
		member.ID = uuid.New().String()
	}
	if member.JoinedAt == 0 {
		member.JoinedAt = time.Now().Unix()
	}

	var userID any
	if member.UserID != "" {
		userID = member.UserID
	}
	_, err := s.db.ExecContext(ctx,
		"INSERT INTO members (id, group_id, user_id, pseudo, income, income_shared, is_phantom, joined_at) VALUES (?, ?, ?, ?, ?, ?, ?, ?)",
		member.ID, member.GroupID, userID, member.Pseudo, member.Income, member.IncomeShared, member.IsPhantom, member.JoinedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert member: %w", err)
	}
	return nil
}

// RemoveMember deletes a membership row.
func (s *SQLiteStore) RemoveMember(ctx context.Context, groupID, memberID string) error {
	res, err := s.db.ExecContext(ctx,
		"DELETE FROM members WHERE id = ? AND group_id = ?",
		memberID, groupID,
	)
	if err != nil {
		return fmt.Errorf("failed to delete member: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read rows affected: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("%w: member %s", models.ErrNotFound, memberID)
	}
	return nil
}

// GetMemberByUser retrieves the membership row a user holds in a group.
// Used both for access checks and for resolving real-member feed
// notifications into full member payloads.
func (s *SQLiteStore) GetMemberByUser(ctx context.Context, groupID, userID string) (*models.Member, error) {
	m, err := scanMember(s.db.QueryRowContext(ctx,
		"SELECT "+memberColumns+" WHERE m.group_id = ? AND m.user_id = ?",
		groupID, userID,
	))
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("%w: member for user %s", models.ErrNotFound, userID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get member: %w", err)
	}
	return m, nil
}

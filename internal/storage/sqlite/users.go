package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/BlandineRdl/EquimApp-sub001/internal/models"
)

// CreateUser persists a new user account.
func (s *SQLiteStore) CreateUser(ctx context.Context, user *models.User) error {
	if user.ID == "" {
		user.ID = uuid.New().String()
	}
	if user.CreatedAt == 0 {
		user.CreatedAt = time.Now().Unix()
	}

	_, err := s.db.ExecContext(ctx,
		"INSERT INTO users (id, email, password_hash, pseudo, income, income_shared, created_at) VALUES (?, ?, ?, ?, ?, ?, ?)",
		user.ID, user.Email, user.PasswordHash, user.Pseudo, user.Income, user.IncomeShared, user.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert user: %w", err)
	}
	return nil
}

// GetUserByEmail retrieves a user by login email.
func (s *SQLiteStore) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	return s.getUser(ctx, "email = ?", email)
}

// GetUserByID retrieves a user by id.
func (s *SQLiteStore) GetUserByID(ctx context.Context, id string) (*models.User, error) {
	return s.getUser(ctx, "id = ?", id)
}

func (s *SQLiteStore) getUser(ctx context.Context, where string, arg any) (*models.User, error) {
	user := &models.User{}
	err := s.db.QueryRowContext(ctx,
		"SELECT id, email, password_hash, pseudo, income, income_shared, created_at FROM users WHERE "+where,
		arg,
	).Scan(&user.ID, &user.Email, &user.PasswordHash, &user.Pseudo, &user.Income, &user.IncomeShared, &user.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("%w: user", models.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return user, nil
}

// UpsertProfile sets the onboarding profile on an existing user. Calling it
// again with the same values is a no-op, which is what makes the
// profile-then-accept sequence safe to re-run.
func (s *SQLiteStore) UpsertProfile(ctx context.Context, userID, pseudo string, income float64, incomeShared bool) error {
	res, err := s.db.ExecContext(ctx,
		"UPDATE users SET pseudo = ?, income = ?, income_shared = ? WHERE id = ?",
		pseudo, income, incomeShared, userID,
	)
	if err != nil {
		return fmt.Errorf("failed to upsert profile: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read rows affected: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("%w: user %s", models.ErrNotFound, userID)
	}
	return nil
}

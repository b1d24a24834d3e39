package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/BlandineRdl/EquimApp-sub001/internal/models"
)

func (s *SQLiteStore) listExpenses(ctx context.Context, groupID string) ([]models.Expense, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT id, group_id, name, amount, currency, creator_id, is_predefined, created_at, updated_at FROM expenses WHERE group_id = ? ORDER BY created_at",
		groupID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list expenses: %w", err)
	}
	defer rows.Close()

	var expenses []models.Expense
	for rows.Next() {
		var e models.Expense
		if err := rows.Scan(&e.ID, &e.GroupID, &e.Name, &e.Amount, &e.Currency, &e.CreatorID, &e.IsPredefined, &e.CreatedAt, &e.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan expense: %w", err)
		}
		expenses = append(expenses, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate expenses: %w", err)
	}
	return expenses, nil
}

// CreateExpense persists a new expense.
func (s *SQLiteStore) CreateExpense(ctx context.Context, expense *models.Expense) error {
	if expense.ID == "" {
		expense.ID = uuid.New().String()
	}
	now := time.Now().Unix()
	if expense.CreatedAt == 0 {
		expense.CreatedAt = now
	}
	expense.UpdatedAt = expense.CreatedAt

	_, err := s.db.ExecContext(ctx,
		"INSERT INTO expenses (id, group_id, name, amount, currency, creator_id, is_predefined, created_at, updated_at) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)",
		expense.ID, expense.GroupID, expense.Name, expense.Amount, expense.Currency, expense.CreatorID, expense.IsPredefined, expense.CreatedAt, expense.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert expense: %w", err)
	}
	return nil
}

// UpdateExpense applies name/amount changes to an existing expense.
func (s *SQLiteStore) UpdateExpense(ctx context.Context, expense *models.Expense) error {
	expense.UpdatedAt = time.Now().Unix()

	res, err := s.db.ExecContext(ctx,
		"UPDATE expenses SET name = ?, amount = ?, updated_at = ? WHERE id = ? AND group_id = ?",
		expense.Name, expense.Amount, expense.UpdatedAt, expense.ID, expense.GroupID,
	)
	if err != nil {
		return fmt.Errorf("failed to update expense: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read rows affected: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("%w: expense %s", models.ErrNotFound, expense.ID)
	}
	return nil
}

// DeleteExpense removes an expense from a group.
func (s *SQLiteStore) DeleteExpense(ctx context.Context, groupID, expenseID string) error {
	res, err := s.db.ExecContext(ctx,
		"DELETE FROM expenses WHERE id = ? AND group_id = ?",
		expenseID, groupID,
	)
	if err != nil {
		return fmt.Errorf("failed to delete expense: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read rows affected: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("%w: expense %s", models.ErrNotFound, expenseID)
	}
	return nil
}

// GetExpense retrieves one expense scoped to its group.
func (s *SQLiteStore) GetExpense(ctx context.Context, groupID, expenseID string) (*models.Expense, error) {
	e := &models.Expense{}
	err := s.db.QueryRowContext(ctx,
		"SELECT id, group_id, name, amount, currency, creator_id, is_predefined, created_at, updated_at FROM expenses WHERE id = ? AND group_id = ?",
		expenseID, groupID,
	).Scan(&e.ID, &e.GroupID, &e.Name, &e.Amount, &e.Currency, &e.CreatorID, &e.IsPredefined, &e.CreatedAt, &e.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("%w: expense %s", models.ErrNotFound, expenseID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get expense: %w", err)
	}
	return e, nil
}

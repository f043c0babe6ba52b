package repository

import (
	"context"
)

// ExpenseRepo handles expenses.
type ExpenseRepo struct {
	db DBTX
}

func NewExpenseRepo(db DBTX) *ExpenseRepo { return &ExpenseRepo{db: db} }

// ExistsByKey reports whether a row with the natural key is already stored.
func (r *ExpenseRepo) ExistsByKey(ctx context.Context, k ExpenseKey) (bool, error) {
	var n int
	err := r.db.QueryRowContext(ctx, `
	SELECT COUNT(*) FROM expenses WHERE amount = ? AND date = ? AND description = ?
	`, k.AmountCents, k.Date, k.Description).Scan(&n)
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// InsertIfAbsent inserts e unless its natural key is taken. It reports whether a row was written.
func (r *ExpenseRepo) InsertIfAbsent(ctx context.Context, e Expense) (bool, error) {
	res, err := r.db.ExecContext(ctx, `
	INSERT INTO expenses(id, amount, category, subcategory, date, description, notes, account, created_at)
	VALUES(?, ?, ?, ?, ?, ?, ?, ?, CURRENT_TIMESTAMP)
	ON CONFLICT(amount, date, description) DO NOTHING;
	`, e.ID, e.AmountCents, e.Category, e.Subcategory, e.Date, e.Description, e.Notes, e.Account)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}

// Count returns how many expenses are stored.
func (r *ExpenseRepo) Count(ctx context.Context) (int, error) {
	var n int
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM expenses`).Scan(&n)
	return n, err
}

// DeleteAll removes every stored expense and returns how many were removed.
func (r *ExpenseRepo) DeleteAll(ctx context.Context) (int64, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM expenses`)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

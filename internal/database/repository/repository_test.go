package repository

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jask/expensetracker/internal/database"
)

func setupRepoTest(t *testing.T) *sql.DB {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "test.db")
	migrations, err := filepath.Abs("../migrations")
	require.NoError(t, err)
	require.NoError(t, database.RunMigrations(dbPath, migrations))

	db, err := database.Open(dbPath)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func expense(amount int64, date, desc, category string) Expense {
	return Expense{
		ID:          uuid.NewString(),
		AmountCents: amount,
		Category:    category,
		Subcategory: "Unselected",
		Date:        date,
		Description: desc,
		Account:     "Chase Credit",
	}
}

func TestExpenseRepo_InsertIfAbsent(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	repo := NewExpenseRepo(setupRepoTest(t))

	first := expense(4520, "2024-01-15", "ANYTIME FIT", "Health & Wellness")
	inserted, err := repo.InsertIfAbsent(ctx, first)
	require.NoError(t, err)
	require.True(t, inserted)

	exists, err := repo.ExistsByKey(ctx, first.Key())
	require.NoError(t, err)
	require.True(t, exists)

	// same natural key, different category and account
	dup := expense(4520, "2024-01-15", "ANYTIME FIT", "Gym")
	dup.Account = "Chase Checking"
	inserted, err = repo.InsertIfAbsent(ctx, dup)
	require.NoError(t, err)
	require.False(t, inserted)

	n, err := repo.Count(ctx)
	require.NoError(t, err)
	require.Equal(t, 1, n)

	var category, notes string
	require.NoError(t, repo.db.QueryRowContext(ctx,
		`SELECT category, notes FROM expenses WHERE id = ?`, first.ID).Scan(&category, &notes))
	assert.Equal(t, "Health & Wellness", category)
	assert.Equal(t, "", notes)
}

func TestExpenseRepo_CountAndDeleteAll(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	repo := NewExpenseRepo(setupRepoTest(t))

	rows := []Expense{
		expense(100, "2024-01-01", "A", "Groceries"),
		expense(200, "2024-02-01", "B", "Groceries"),
		expense(300, "2024-03-01", "C", "Gas"),
	}
	rows[2].Account = "Chase Checking"
	for _, e := range rows {
		ok, err := repo.InsertIfAbsent(ctx, e)
		require.NoError(t, err)
		require.True(t, ok)
	}

	count, err := repo.Count(ctx)
	require.NoError(t, err)
	require.Equal(t, 3, count)

	n, err := repo.DeleteAll(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(3), n)

	count, err = repo.Count(ctx)
	require.NoError(t, err)
	assert.Zero(t, count)
}

func TestExpenseRepo_WithTxRollback(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	db := setupRepoTest(t)
	repo := NewExpenseRepo(db)

	err := database.WithTx(ctx, db, func(tx *sql.Tx) error {
		_, err := NewExpenseRepo(tx).InsertIfAbsent(ctx, expense(1, "2024-01-01", "X", "Gas"))
		require.NoError(t, err)
		return sql.ErrTxDone
	})
	require.ErrorIs(t, err, sql.ErrTxDone)

	n, err := repo.Count(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestConstraintErrorIsNotBusy(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	db := setupRepoTest(t)

	e := expense(1, "2024-01-01", "X", "Gas")
	_, err := NewExpenseRepo(db).InsertIfAbsent(ctx, e)
	require.NoError(t, err)

	_, err = db.ExecContext(ctx, `INSERT INTO expenses(id, amount, category, date, description, account) VALUES(?, 2, 'Gas', '2024-01-02', 'Y', 'A')`, e.ID)
	require.Error(t, err)
	assert.False(t, database.IsBusy(err))
}

func TestFormatRepo(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	repo := NewFormatRepo(setupRepoTest(t))

	require.NoError(t, repo.Upsert(ctx, FormatRecord{Name: "Zeta", Definition: `{"name":"Zeta"}`}))
	require.NoError(t, repo.Upsert(ctx, FormatRecord{Name: "Amex", Definition: `{"name":"Amex"}`}))
	require.NoError(t, repo.Upsert(ctx, FormatRecord{Name: "Zeta", Definition: `{"name":"Zeta","account":"Z"}`}))

	list, err := repo.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "Zeta", list[0].Name, "upsert keeps registration position")
	assert.Equal(t, `{"name":"Zeta","account":"Z"}`, list[0].Definition)
	assert.Equal(t, "Amex", list[1].Name)

	got, err := repo.Get(ctx, "Amex")
	require.NoError(t, err)
	require.NotNil(t, got)

	assert.Equal(t, `{"name":"Amex"}`, got.Definition)

	removed, err := repo.Delete(ctx, "Amex")
	require.NoError(t, err)
	assert.True(t, removed)
	got, err = repo.Get(ctx, "Amex")
	require.NoError(t, err)
	assert.Nil(t, got)

	removed, err = repo.Delete(ctx, "Amex")
	require.NoError(t, err)
	assert.False(t, removed)
}

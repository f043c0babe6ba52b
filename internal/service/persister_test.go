package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/mattn/go-sqlite3"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jask/expensetracker/internal/classify"
	"github.com/jask/expensetracker/internal/statement"
)

func classified(amount, desc string) classify.ClassifiedTransaction {
	return classify.ClassifiedTransaction{
		CanonicalTransaction: statement.CanonicalTransaction{
			Line:        2,
			Date:        statement.Date{Year: 2024, Month: time.March, Day: 9},
			Amount:      decimal.RequireFromString(amount),
			Description: desc,
			RawCategory: "Groceries",
			Account:     "Chase Credit",
		},
		Category:    "Groceries",
		Subcategory: classify.Needs,
	}
}

func TestPersister_InsertThenSkip(t *testing.T) {
	t.Parallel()
	svc, _ := setupIngestTest(t)
	ctx := context.Background()

	e, inserted, err := svc.Persister.Persist(ctx, classified("-12.34", "TRADER JOE'S"))
	require.NoError(t, err)
	require.True(t, inserted)
	assert.Equal(t, int64(1234), e.AmountCents)
	assert.Equal(t, "2024-03-09", e.Date)
	assert.NotEmpty(t, e.ID)

	// a refund of the same size on the same day collapses onto the stored row
	_, inserted, err = svc.Persister.Persist(ctx, classified("12.34", "TRADER JOE'S"))
	require.NoError(t, err)
	assert.False(t, inserted)
}

func TestPersister_ZeroAmountAccepted(t *testing.T) {
	t.Parallel()
	svc, _ := setupIngestTest(t)

	e, inserted, err := svc.Persister.Persist(context.Background(), classified("0.00", "CARD VERIFICATION"))
	require.NoError(t, err)
	assert.True(t, inserted)
	assert.Zero(t, e.AmountCents)
}

func TestPersister_StorageFailure(t *testing.T) {
	t.Parallel()
	svc, db := setupIngestTest(t)
	require.NoError(t, db.Close())

	_, _, err := svc.Persister.Persist(context.Background(), classified("1.00", "X"))
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrStorageFailure))
}

func TestPersister_RetriesBusy(t *testing.T) {
	t.Parallel()
	busy := sqlite3.Error{Code: sqlite3.ErrBusy}

	p := &Persister{Retries: 3, Backoff: time.Millisecond, Log: zerolog.Nop()}
	calls := 0
	err := p.retry(context.Background(), func() error {
		calls++
		if calls < 3 {
			return busy
		}
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 3, calls)

	p.Retries = 1
	calls = 0
	err = p.retry(context.Background(), func() error {
		calls++
		return busy
	})
	require.Error(t, err)
	assert.Equal(t, 2, calls)

	calls = 0
	err = p.retry(context.Background(), func() error {
		calls++
		return errors.New("disk I/O error")
	})
	require.Error(t, err)
	assert.Equal(t, 1, calls, "only busy errors are retried")
}

func TestMaintenance_Reset(t *testing.T) {
	t.Parallel()
	svc, db := setupIngestTest(t)
	ctx := context.Background()

	_, err := svc.Ingest(ctx, Request{Filename: "chase.csv", Body: chaseCreditFile()})
	require.NoError(t, err)

	m := &MaintenanceService{DB: db}
	stored, err := m.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, stored)

	n, err := m.Reset(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)
	stored, err = m.Count(ctx)
	require.NoError(t, err)
	assert.Zero(t, stored)

	_, err = (&MaintenanceService{}).Reset(ctx)
	assert.Error(t, err)
}

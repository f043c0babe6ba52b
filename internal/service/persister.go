package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/jask/expensetracker/internal/classify"
	"github.com/jask/expensetracker/internal/database"
	"github.com/jask/expensetracker/internal/database/repository"
	"github.com/jask/expensetracker/internal/statement"
)

// ErrStorageFailure marks a row the store could not write.
var ErrStorageFailure = errors.New("storage failure")

const defaultBackoff = 50 * time.Millisecond

// Persister writes classified transactions, skipping any whose natural key is already stored.
type Persister struct {
	DB      *sql.DB
	Retries int           // extra attempts after a busy/locked error
	Backoff time.Duration // grows linearly per attempt
	Log     zerolog.Logger
}

// Persist stores ct unless (amount, date, description) is taken. It reports whether a row was
// written; a duplicate is not an error.
func (p *Persister) Persist(ctx context.Context, ct classify.ClassifiedTransaction) (repository.Expense, bool, error) {
	e := toExpense(ct)
	var inserted bool
	err := p.retry(ctx, func() error {
		inserted = false
		return database.WithTx(ctx, p.DB, func(tx *sql.Tx) error {
			repo := repository.NewExpenseRepo(tx)
			exists, err := repo.ExistsByKey(ctx, e.Key())
			if err != nil {
				return fmt.Errorf("lookup natural key: %w", err)
			}
			if exists {
				return nil
			}
			inserted, err = repo.InsertIfAbsent(ctx, e)
			if err != nil {
				return fmt.Errorf("insert expense: %w", err)
			}
			return nil
		})
	})
	if err != nil {
		return e, false, fmt.Errorf("%w: %w", ErrStorageFailure, err)
	}
	return e, inserted, nil
}

func (p *Persister) retry(ctx context.Context, fn func() error) error {
	backoff := p.Backoff
	if backoff <= 0 {
		backoff = defaultBackoff
	}
	for attempt := 0; ; attempt++ {
		err := fn()
		if err == nil || !database.IsBusy(err) || attempt >= p.Retries {
			return err
		}
		p.Log.Debug().Err(err).Int("attempt", attempt+1).Msg("database busy, retrying")
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(backoff * time.Duration(attempt+1)):
		}
	}
}

func toExpense(ct classify.ClassifiedTransaction) repository.Expense {
	return repository.Expense{
		ID:          uuid.NewString(),
		AmountCents: statement.Cents(ct.Amount),
		Category:    ct.Category,
		Subcategory: ct.Subcategory,
		Date:        ct.Date.String(),
		Description: ct.Description,
		Notes:       ct.Notes,
		Account:     ct.Account,
	}
}

package service

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/jask/expensetracker/internal/database"
	"github.com/jask/expensetracker/internal/database/repository"
)

// MaintenanceService houses destructive actions surfaced through the CLI.
type MaintenanceService struct {
	DB *sql.DB
}

// Count returns how many expenses are stored.
func (s *MaintenanceService) Count(ctx context.Context) (int, error) {
	if s.DB == nil {
		return 0, fmt.Errorf("maintenance: db not configured")
	}
	return repository.NewExpenseRepo(s.DB).Count(ctx)
}

// Reset deletes every stored expense and returns how many were removed. Custom formats and the
// schema are kept.
func (s *MaintenanceService) Reset(ctx context.Context) (int64, error) {
	if s.DB == nil {
		return 0, fmt.Errorf("maintenance: db not configured")
	}
	var removed int64
	if err := database.WithTx(ctx, s.DB, func(tx *sql.Tx) error {
		n, err := repository.NewExpenseRepo(tx).DeleteAll(ctx)
		if err != nil {
			return fmt.Errorf("reset expenses: %w", err)
		}
		removed = n
		return nil
	}); err != nil {
		return 0, err
	}
	_, _ = s.DB.ExecContext(ctx, "VACUUM")
	return removed, nil
}

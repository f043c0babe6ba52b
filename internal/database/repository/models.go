package repository

import (
	"context"
	"database/sql"
	"time"
)

// DBTX is satisfied by *sql.DB and *sql.Tx.
type DBTX interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
}

// Expense represents an expenses row.
type Expense struct {
	ID          string
	AmountCents int64 // absolute value; direction lives in Category/Subcategory
	Category    string
	Subcategory string
	Date        string // YYYY-MM-DD
	Description string
	Notes       string
	Account     string
}

// ExpenseKey is the natural key used to detect re-imported transactions.
type ExpenseKey struct {
	AmountCents int64
	Date        string
	Description string
}

// Key returns the natural key of e.
func (e Expense) Key() ExpenseKey {
	return ExpenseKey{AmountCents: e.AmountCents, Date: e.Date, Description: e.Description}
}

// FormatRecord represents a persisted custom statement format. Definition is JSON.
type FormatRecord struct {
	Name       string
	Definition string
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

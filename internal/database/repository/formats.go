package repository

import (
	"context"
	"database/sql"
)

// FormatRepo stores custom statement formats registered at runtime.
type FormatRepo struct{ db DBTX }

func NewFormatRepo(db DBTX) *FormatRepo { return &FormatRepo{db: db} }

func (r *FormatRepo) Upsert(ctx context.Context, f FormatRecord) error {
	_, err := r.db.ExecContext(ctx, `
	INSERT INTO statement_formats(name, definition, created_at, updated_at)
	VALUES (?, ?, CURRENT_TIMESTAMP, CURRENT_TIMESTAMP)
	ON CONFLICT(name) DO UPDATE SET
	 definition=excluded.definition,
	 updated_at=CURRENT_TIMESTAMP;
	`, f.Name, f.Definition)
	return err
}

// List returns stored formats in registration order.
func (r *FormatRepo) List(ctx context.Context) ([]FormatRecord, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT name, definition, created_at, updated_at FROM statement_formats ORDER BY created_at, rowid`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []FormatRecord
	for rows.Next() {
		var f FormatRecord
		if err := rows.Scan(&f.Name, &f.Definition, &f.CreatedAt, &f.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, f)
	}
	return out, rows.Err()
}

// Get returns the stored format named name, or nil when there is none.
func (r *FormatRepo) Get(ctx context.Context, name string) (*FormatRecord, error) {
	row := r.db.QueryRowContext(ctx, `SELECT name, definition, created_at, updated_at FROM statement_formats WHERE name = ?`, name)
	var f FormatRecord
	if err := row.Scan(&f.Name, &f.Definition, &f.CreatedAt, &f.UpdatedAt); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	return &f, nil
}

// Delete removes the stored format named name and reports whether a row was removed.
func (r *FormatRepo) Delete(ctx context.Context, name string) (bool, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM statement_formats WHERE name = ?`, name)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

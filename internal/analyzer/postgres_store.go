package analyzer

import (
	"context"
	"database/sql"
	"fmt"
)

// Compile-time check that PostgresStore implements Store.
var _ Store = (*PostgresStore)(nil)

// PostgresStore implements Store backed by PostgreSQL.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgresStore creates a PostgreSQL-backed analysis store.
func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (p *PostgresStore) Save(ctx context.Context, r *Record) error {
	_, err := p.db.ExecContext(ctx, `
		INSERT INTO analyses (id, address, network, score, level, result, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, COALESCE(NULLIF($7::TIMESTAMPTZ, '0001-01-01'::TIMESTAMPTZ), NOW()))
	`, r.ID, r.Address, r.Network, r.Score, r.Level, []byte(r.Result), r.CreatedAt)
	if err != nil {
		return fmt.Errorf("save analysis: %w", err)
	}
	return nil
}

func (p *PostgresStore) ListByAddress(ctx context.Context, address string, limit int) ([]*Record, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := p.db.QueryContext(ctx, `
		SELECT id, address, network, score, level, result, created_at
		FROM analyses WHERE address = $1
		ORDER BY created_at DESC LIMIT $2
	`, address, limit)
	if err != nil {
		return nil, fmt.Errorf("list analyses: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []*Record
	for rows.Next() {
		var r Record
		var result []byte
		if err := rows.Scan(&r.ID, &r.Address, &r.Network, &r.Score, &r.Level, &result, &r.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan analysis: %w", err)
		}
		r.Result = result
		out = append(out, &r)
	}
	return out, rows.Err()
}

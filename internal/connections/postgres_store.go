package connections

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/lib/pq"
)

// Compile-time checks that the postgres stores implement their interfaces.
var (
	_ BlacklistStore = (*PostgresBlacklist)(nil)
	_ ReportStore    = (*PostgresReports)(nil)
)

// PostgresBlacklist implements BlacklistStore backed by PostgreSQL.
type PostgresBlacklist struct {
	db *sql.DB
}

// NewPostgresBlacklist creates a PostgreSQL-backed blacklist store.
func NewPostgresBlacklist(db *sql.DB) *PostgresBlacklist {
	return &PostgresBlacklist{db: db}
}

func (p *PostgresBlacklist) Add(ctx context.Context, e *BlacklistEntry) error {
	_, err := p.db.ExecContext(ctx, `
		INSERT INTO blacklist (address, category, reason, active, added_at)
		VALUES ($1, $2, $3, TRUE, COALESCE(NULLIF($4::TIMESTAMPTZ, '0001-01-01'::TIMESTAMPTZ), NOW()))
		ON CONFLICT (address) DO UPDATE
		SET category = EXCLUDED.category,
		    reason   = EXCLUDED.reason,
		    active   = TRUE
	`, e.Address, e.Category, e.Reason, e.AddedAt)
	if err != nil {
		return fmt.Errorf("add blacklist entry: %w", err)
	}
	return nil
}

func (p *PostgresBlacklist) Deactivate(ctx context.Context, address string) error {
	res, err := p.db.ExecContext(ctx, `
		UPDATE blacklist SET active = FALSE WHERE address = $1 AND active
	`, address)
	if err != nil {
		return fmt.Errorf("deactivate blacklist entry: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotBlacklisted
	}
	return nil
}

func (p *PostgresBlacklist) Get(ctx context.Context, address string) (*BlacklistEntry, error) {
	var e BlacklistEntry
	err := p.db.QueryRowContext(ctx, `
		SELECT address, category, reason, active, added_at
		FROM blacklist WHERE address = $1 AND active
	`, address).Scan(&e.Address, &e.Category, &e.Reason, &e.Active, &e.AddedAt)
	if err == sql.ErrNoRows {
		return nil, ErrNotBlacklisted
	}
	if err != nil {
		return nil, fmt.Errorf("get blacklist entry: %w", err)
	}
	return &e, nil
}

func (p *PostgresBlacklist) CheckMany(ctx context.Context, addresses []string) (map[string]*BlacklistEntry, error) {
	if len(addresses) == 0 {
		return map[string]*BlacklistEntry{}, nil
	}
	rows, err := p.db.QueryContext(ctx, `
		SELECT address, category, reason, active, added_at
		FROM blacklist WHERE active AND address = ANY($1)
	`, pq.Array(addresses))
	if err != nil {
		return nil, fmt.Errorf("check blacklist: %w", err)
	}
	defer func() { _ = rows.Close() }()

	out := make(map[string]*BlacklistEntry)
	for rows.Next() {
		var e BlacklistEntry
		if err := rows.Scan(&e.Address, &e.Category, &e.Reason, &e.Active, &e.AddedAt); err != nil {
			return nil, fmt.Errorf("scan blacklist entry: %w", err)
		}
		out[e.Address] = &e
	}
	return out, rows.Err()
}

func (p *PostgresBlacklist) List(ctx context.Context, limit int) ([]*BlacklistEntry, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := p.db.QueryContext(ctx, `
		SELECT address, category, reason, active, added_at
		FROM blacklist WHERE active
		ORDER BY added_at DESC LIMIT $1
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("list blacklist: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []*BlacklistEntry
	for rows.Next() {
		var e BlacklistEntry
		if err := rows.Scan(&e.Address, &e.Category, &e.Reason, &e.Active, &e.AddedAt); err != nil {
			return nil, fmt.Errorf("scan blacklist entry: %w", err)
		}
		out = append(out, &e)
	}
	return out, rows.Err()
}

// PostgresReports implements ReportStore backed by PostgreSQL.
type PostgresReports struct {
	db *sql.DB
}

// NewPostgresReports creates a PostgreSQL-backed report store.
func NewPostgresReports(db *sql.DB) *PostgresReports {
	return &PostgresReports{db: db}
}

func (p *PostgresReports) Create(ctx context.Context, r *ScamReport) error {
	_, err := p.db.ExecContext(ctx, `
		INSERT INTO scam_reports (id, address, category, description, reporter, verified, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, COALESCE(NULLIF($7::TIMESTAMPTZ, '0001-01-01'::TIMESTAMPTZ), NOW()))
	`, r.ID, r.Address, r.Category, r.Description, r.Reporter, r.Verified, r.CreatedAt)
	if err != nil {
		return fmt.Errorf("create report: %w", err)
	}
	return nil
}

func (p *PostgresReports) Verify(ctx context.Context, id string) error {
	res, err := p.db.ExecContext(ctx, `
		UPDATE scam_reports SET verified = TRUE WHERE id = $1
	`, id)
	if err != nil {
		return fmt.Errorf("verify report: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrReportNotFound
	}
	return nil
}

func (p *PostgresReports) CheckManyVerified(ctx context.Context, addresses []string) (map[string]*ScamReport, error) {
	if len(addresses) == 0 {
		return map[string]*ScamReport{}, nil
	}
	// DISTINCT ON keeps the newest verified report per address.
	rows, err := p.db.QueryContext(ctx, `
		SELECT DISTINCT ON (address)
		       id, address, category, description, reporter, verified, created_at
		FROM scam_reports
		WHERE verified AND address = ANY($1)
		ORDER BY address, created_at DESC
	`, pq.Array(addresses))
	if err != nil {
		return nil, fmt.Errorf("check reports: %w", err)
	}
	defer func() { _ = rows.Close() }()

	out := make(map[string]*ScamReport)
	for rows.Next() {
		var r ScamReport
		if err := rows.Scan(&r.ID, &r.Address, &r.Category, &r.Description, &r.Reporter, &r.Verified, &r.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan report: %w", err)
		}
		out[r.Address] = &r
	}
	return out, rows.Err()
}

func (p *PostgresReports) ListByAddress(ctx context.Context, address string) ([]*ScamReport, error) {
	rows, err := p.db.QueryContext(ctx, `
		SELECT id, address, category, description, reporter, verified, created_at
		FROM scam_reports WHERE address = $1
		ORDER BY created_at DESC
	`, address)
	if err != nil {
		return nil, fmt.Errorf("list reports: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []*ScamReport
	for rows.Next() {
		var r ScamReport
		if err := rows.Scan(&r.ID, &r.Address, &r.Category, &r.Description, &r.Reporter, &r.Verified, &r.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan report: %w", err)
		}
		out = append(out, &r)
	}
	return out, rows.Err()
}

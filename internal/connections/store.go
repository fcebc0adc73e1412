package connections

import "context"

// BlacklistStore persists operator-curated scam addresses.
type BlacklistStore interface {
	// Add inserts or reactivates an entry.
	Add(ctx context.Context, e *BlacklistEntry) error
	// Deactivate marks an entry inactive; it stops matching scans but the
	// record is kept for audit.
	Deactivate(ctx context.Context, address string) error
	// Get returns the active entry for an address, or ErrNotBlacklisted.
	Get(ctx context.Context, address string) (*BlacklistEntry, error)
	// CheckMany returns the active entries for any of the addresses,
	// keyed by address. Missing addresses are simply absent.
	CheckMany(ctx context.Context, addresses []string) (map[string]*BlacklistEntry, error)
	// List returns active entries, newest first.
	List(ctx context.Context, limit int) ([]*BlacklistEntry, error)
}

// ReportStore persists community scam reports.
type ReportStore interface {
	// Create inserts a new report (unverified by default).
	Create(ctx context.Context, r *ScamReport) error
	// Verify marks a report verified, or returns ErrReportNotFound.
	Verify(ctx context.Context, id string) error
	// CheckManyVerified returns one verified report per matching address.
	CheckManyVerified(ctx context.Context, addresses []string) (map[string]*ScamReport, error)
	// ListByAddress returns all reports for an address, newest first.
	ListByAddress(ctx context.Context, address string) ([]*ScamReport, error)
}

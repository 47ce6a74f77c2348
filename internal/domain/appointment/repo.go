package appointment

import (
	"context"
	"time"
)

// RecordRepository is the contract for the record store. The engine runs
// single-process, so the shipped implementation is the in-memory store in
// repo_mem.go; the interface exists so services and tests can swap it.
type RecordRepository interface {
	Insert(ctx context.Context, r *Record) error
	GetByID(ctx context.Context, id string) (*Record, error)
	Update(ctx context.Context, r *Record) error
	Delete(ctx context.Context, id string) error

	// ListAll returns every live record.
	ListAll(ctx context.Context) ([]*Record, error)
	// ListByDate returns records scheduled on the given service-local
	// date (DateLayout form).
	ListByDate(ctx context.Context, date string) ([]*Record, error)
	// FindByCredentials returns records whose normalized phone digits and
	// last name match, regardless of status.
	FindByCredentials(ctx context.Context, phoneDigits, lastName string) ([]*Record, error)

	// BulkImport commits parsed CSV candidates under a single lock,
	// deduplicating on (clientId, scheduledDate). Returns how many rows
	// were added (inserts plus content-changing overwrites) and how many
	// were byte-identical duplicates.
	BulkImport(ctx context.Context, recs []*Record, columns []string) (added, duplicates int, err error)
	// ImportColumns returns the column order of the most recent import.
	ImportColumns(ctx context.Context) ([]string, error)

	// Purge removes records created before the retention cutoff relative
	// to now, regardless of status, and returns how many were removed.
	Purge(ctx context.Context, now time.Time) (int, error)

	// Version returns the monotonically increasing data version. It is
	// read-after-write consistent with the mutation that produced it.
	Version(ctx context.Context) (uint64, error)

	// Reset clears all state. Intended for tests and admin maintenance.
	Reset(ctx context.Context) error
}

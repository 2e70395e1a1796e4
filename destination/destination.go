package destination

import (
	"context"
)

// Row is one buffered tuple, values aligned with the owning table's
// Columns. Nullable columns hold nil.
type Row []any

// Table describes one load target: column order, the tables whose rows
// must land first, and how duplicate keys inside a single batch collapse.
type Table struct {
	Name      string
	Columns   []string
	DependsOn []string
	// Key returns the natural key used to collapse a batch before writing;
	// a multi-row upsert cannot touch the same key twice.
	Key func(row Row) string
	// Merge combines two rows that collapsed onto the same key. Nil means
	// the later row simply replaces the earlier one.
	Merge func(existing, incoming Row) Row
}

// Sink receives dependency-ordered batches. Implementations own their
// transaction handling; WriteBatch reports how many rows actually landed
// so the caller can account for per-row fallback losses.
type Sink interface {
	// Setup connects, applies DDL and session tuning; called once before
	// any batch.
	Setup(ctx context.Context) error
	WriteBatch(ctx context.Context, table Table, rows []Row) (int, error)
	// Finalize applies the post-load statements after the final flush.
	Finalize(ctx context.Context) error
	Close(ctx context.Context) error
}

package destination

import (
	"context"
	"fmt"
	"sync/atomic"

	"github.com/mh131105/TP1-BD/constants"
	"github.com/mh131105/TP1-BD/utils/logger"
)

// Stats carries the pool's running totals. Atomics because the periodic
// stats logger reads them from its own goroutine while the pipeline writes.
type Stats struct {
	Enqueued atomic.Int64
	Written  atomic.Int64
	Dropped  atomic.Int64
}

type tableState struct {
	table   Table
	buffer  []Row
	written atomic.Int64
	dropped atomic.Int64
}

// Pool owns one append-only buffer per destination table and flushes a
// table through the sink once its buffer reaches the batch size. The
// pipeline is single threaded, so buffers need no locking.
type Pool struct {
	sink      Sink
	batchSize int
	stats     *Stats
	tables    map[string]*tableState
}

func NewPool(sink Sink, batchSize int) *Pool {
	if batchSize <= 0 {
		batchSize = constants.DefaultBatchSize
	}
	pool := &Pool{
		sink:      sink,
		batchSize: batchSize,
		stats:     &Stats{},
		tables:    make(map[string]*tableState),
	}
	for name, table := range Tables() {
		pool.tables[name] = &tableState{table: table, buffer: make([]Row, 0, batchSize)}
	}
	return pool
}

func (p *Pool) Stats() *Stats {
	return p.stats
}

func (p *Pool) Written(table string) int64 {
	return p.tables[table].written.Load()
}

func (p *Pool) Dropped(table string) int64 {
	return p.tables[table].dropped.Load()
}

// Enqueue appends one row and flushes the table when its buffer crosses
// the batch size threshold.
func (p *Pool) Enqueue(ctx context.Context, table string, row Row) error {
	state, found := p.tables[table]
	if !found {
		return fmt.Errorf("unknown destination table %q", table)
	}
	state.buffer = append(state.buffer, row)
	p.stats.Enqueued.Add(1)
	if len(state.buffer) >= p.batchSize {
		return p.flushTable(ctx, state)
	}
	return nil
}

// Flush force-flushes every table in dependency order; called once after
// the input stream is exhausted.
func (p *Pool) Flush(ctx context.Context) error {
	for _, name := range constants.TableLoadOrder {
		if err := p.flushTable(ctx, p.tables[name]); err != nil {
			return err
		}
	}
	return nil
}

func (p *Pool) flushTable(ctx context.Context, state *tableState) error {
	if len(state.buffer) == 0 {
		return nil
	}

	// parents land first so referential order holds even though the FK
	// constraints are only applied after the load
	for _, dependency := range state.table.DependsOn {
		if err := p.flushTable(ctx, p.tables[dependency]); err != nil {
			return err
		}
	}

	batch := collapse(state.table, state.buffer)
	if len(batch) < len(state.buffer) {
		logger.Debugf("%s: collapsed %d duplicate keys inside the batch", state.table.Name, len(state.buffer)-len(batch))
	}
	state.buffer = state.buffer[:0]

	written, err := p.sink.WriteBatch(ctx, state.table, batch)
	if err != nil {
		return fmt.Errorf("failed to flush table %s: %s", state.table.Name, err)
	}

	state.written.Add(int64(written))
	p.stats.Written.Add(int64(written))
	if dropped := len(batch) - written; dropped > 0 {
		state.dropped.Add(int64(dropped))
		p.stats.Dropped.Add(int64(dropped))
	}
	logger.Infof("%s: wrote %d rows (total %d)", state.table.Name, written, state.written.Load())
	return nil
}

// collapse rewrites a batch so each natural key appears once, keeping
// first-seen order. Later rows replace or merge into earlier ones.
func collapse(table Table, rows []Row) []Row {
	if table.Key == nil {
		return rows
	}
	index := make(map[string]int, len(rows))
	collapsed := make([]Row, 0, len(rows))
	for _, row := range rows {
		key := table.Key(row)
		if at, seen := index[key]; seen {
			if table.Merge != nil {
				collapsed[at] = table.Merge(collapsed[at], row)
			} else {
				collapsed[at] = row
			}
			continue
		}
		index[key] = len(collapsed)
		collapsed = append(collapsed, row)
	}
	return collapsed
}

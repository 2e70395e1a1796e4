package reports

import (
	"context"
	"fmt"
	"sync"

	"github.com/hashicorp/go-multierror"
	"github.com/jmoiron/sqlx"
	"github.com/mh131105/TP1-BD/constants"
	"github.com/mh131105/TP1-BD/destination/postgres"
	"github.com/mh131105/TP1-BD/utils/logger"
	"golang.org/x/sync/errgroup"

	// sqlx driver for the read-only dashboard connection
	_ "github.com/lib/pq"
)

const maxConcurrentQueries = 4

// Result is one executed query: column names plus raw row values, ready
// for the output writers.
type Result struct {
	Name    string
	Columns []string
	Rows    [][]any
}

// Connect opens the read-only dashboard connection. The report stage
// talks to the database directly; it reuses the loader's config only for
// the DSN.
func Connect(ctx context.Context, config *postgres.Config) (*sqlx.DB, error) {
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("failed to validate config: %s", err)
	}
	db, err := sqlx.ConnectContext(ctx, "postgres", config.Connection.String())
	if err != nil {
		return nil, fmt.Errorf("failed to connect to postgres: %s", err)
	}
	return db, nil
}

// Runner executes the dashboard query set concurrently and writes one
// output file per query. A failing query does not stop the others; all
// failures are reported together at the end.
type Runner struct {
	DB     *sqlx.DB
	ASIN   string
	OutDir string
	Format constants.ReportFormat
}

func (r *Runner) Run(ctx context.Context) error {
	group, groupCtx := errgroup.WithContext(ctx)
	group.SetLimit(maxConcurrentQueries)

	var mu sync.Mutex
	var failures *multierror.Error

	for _, query := range Queries {
		if query.NeedsASIN && r.ASIN == "" {
			logger.Warnf("skipping %s: no product asin given", query.Name)
			continue
		}
		group.Go(func() error {
			err := func() error {
				result, err := r.execute(groupCtx, query)
				if err != nil {
					return err
				}
				path, err := Write(result, r.OutDir, r.Format)
				if err != nil {
					return err
				}
				logger.Infof("%s: %d rows written to %s", query.Name, len(result.Rows), path)
				return nil
			}()
			if err != nil {
				mu.Lock()
				failures = multierror.Append(failures, fmt.Errorf("%s: %s", query.Name, err))
				mu.Unlock()
				logger.Errorf("%s: %s", query.Name, err)
			}
			return nil
		})
	}

	if err := group.Wait(); err != nil {
		return err
	}
	return failures.ErrorOrNil()
}

func (r *Runner) execute(ctx context.Context, query Query) (*Result, error) {
	var args []any
	if query.NeedsASIN {
		args = append(args, r.ASIN)
	}

	rows, err := r.DB.QueryxContext(ctx, query.Statement, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to run query: %s", err)
	}
	defer rows.Close()

	columns, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("failed to read columns: %s", err)
	}

	result := &Result{Name: query.Name, Columns: columns}
	for rows.Next() {
		values, err := rows.SliceScan()
		if err != nil {
			return nil, fmt.Errorf("failed to scan row: %s", err)
		}
		result.Rows = append(result.Rows, values)
	}
	return result, rows.Err()
}

package postgres

import (
	"context"
	_ "embed"
	"fmt"
	"net"

	"github.com/jackc/pgx/v5"
	"github.com/mh131105/TP1-BD/constants"
	"github.com/mh131105/TP1-BD/destination"
	"github.com/mh131105/TP1-BD/utils/backoff"
	"github.com/mh131105/TP1-BD/utils/logger"
	"golang.org/x/crypto/ssh"
)

//go:embed schema.sql
var schemaSQL string

// Postgres is the load sink: a single connection shared by DDL and data
// statements, written to synchronously by the flush engine. Batches run
// inside savepoints so one bad row cannot take down its siblings.
type Postgres struct {
	config    *Config
	conn      *pgx.Conn
	sshClient *ssh.Client
}

func New(config *Config) *Postgres {
	return &Postgres{config: config}
}

// Setup connects (retried with backoff), applies the schema and tunes the
// session for bulk loading. Must succeed before any batch is written.
func (p *Postgres) Setup(ctx context.Context) error {
	if err := p.config.Validate(); err != nil {
		return fmt.Errorf("failed to validate config: %s", err)
	}

	conn, err := p.connect(ctx)
	if err != nil {
		return err
	}
	p.conn = conn
	logger.Infof("connected to postgres at %s:%d/%s", p.config.Host, p.config.Port, p.config.Database)

	if _, err := p.conn.Exec(ctx, schemaSQL); err != nil {
		return fmt.Errorf("failed to apply schema: %s", err)
	}

	// relaxed durability is fine here: a failed run is re-run from scratch
	if _, err := p.conn.Exec(ctx, "SET synchronous_commit = OFF"); err != nil {
		return fmt.Errorf("failed to tune session: %s", err)
	}
	if _, err := p.conn.Exec(ctx, fmt.Sprintf("SET maintenance_work_mem = '%s'", p.config.MaintenanceWorkMem)); err != nil {
		return fmt.Errorf("failed to tune session: %s", err)
	}
	return nil
}

// Check validates the configuration and connectivity, nothing else.
func (p *Postgres) Check(ctx context.Context) error {
	if err := p.config.Validate(); err != nil {
		return fmt.Errorf("failed to validate config: %s", err)
	}
	conn, err := p.connect(ctx)
	if err != nil {
		return err
	}
	defer conn.Close(ctx)
	if err := conn.Ping(ctx); err != nil {
		return fmt.Errorf("failed to ping postgres: %s", err)
	}
	return nil
}

func (p *Postgres) connect(ctx context.Context) (*pgx.Conn, error) {
	connConfig, err := pgx.ParseConfig(p.config.Connection.String())
	if err != nil {
		return nil, fmt.Errorf("failed to parse connection url: %s", err)
	}

	if p.config.SSHConfig != nil {
		if p.sshClient == nil {
			client, err := p.config.SSHConfig.Connect()
			if err != nil {
				return nil, fmt.Errorf("failed to establish ssh tunnel: %s", err)
			}
			p.sshClient = client
		}
		connConfig.DialFunc = func(_ context.Context, network, addr string) (net.Conn, error) {
			return p.sshClient.Dial(network, addr)
		}
	}

	var conn *pgx.Conn
	err = backoff.Retry(ctx, p.config.RetryCount, constants.DefaultRetryTimeout, func() error {
		attempt, err := pgx.ConnectConfig(ctx, connConfig)
		if err != nil {
			return fmt.Errorf("failed to connect to postgres: %s", err)
		}
		conn = attempt
		return nil
	})
	if err != nil {
		return nil, err
	}
	return conn, nil
}

// WriteBatch lands one collapsed batch. Fast path: a single multi-row
// upsert under a savepoint. If that statement fails the batch is retried
// row by row, each row under its own savepoint, so exactly the offending
// rows are lost. Returns how many rows were actually written.
func (p *Postgres) WriteBatch(ctx context.Context, table destination.Table, rows []destination.Row) (int, error) {
	if len(rows) == 0 {
		return 0, nil
	}

	tx, err := p.conn.Begin(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %s", err)
	}
	defer tx.Rollback(ctx)

	batchErr := func() error {
		nested, err := tx.Begin(ctx)
		if err != nil {
			return err
		}
		if _, err := nested.Exec(ctx, insertStatement(table, len(rows)), flatten(rows)...); err != nil {
			_ = nested.Rollback(ctx)
			return err
		}
		return nested.Commit(ctx)
	}()
	if batchErr == nil {
		if err := tx.Commit(ctx); err != nil {
			return 0, fmt.Errorf("failed to commit batch: %s", err)
		}
		return len(rows), nil
	}

	logger.Warnf("%s: batch of %d rows failed, retrying row by row: %s", table.Name, len(rows), batchErr)

	written := 0
	singleRow := insertStatement(table, 1)
	for _, row := range rows {
		rowTx, err := tx.Begin(ctx)
		if err != nil {
			return written, fmt.Errorf("failed to open row savepoint: %s", err)
		}
		if _, err := rowTx.Exec(ctx, singleRow, row...); err != nil {
			_ = rowTx.Rollback(ctx)
			logger.Errorf("%s: dropping row %v: %s", table.Name, row, err)
			continue
		}
		if err := rowTx.Commit(ctx); err != nil {
			return written, fmt.Errorf("failed to release row savepoint: %s", err)
		}
		written++
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, fmt.Errorf("failed to commit fallback transaction: %s", err)
	}
	logger.Warnf("%s: row-by-row fallback kept %d of %d rows", table.Name, written, len(rows))
	return written, nil
}

// Finalize applies the post-load statements (deferred FK constraints,
// planner statistics) in one final transaction.
func (p *Postgres) Finalize(ctx context.Context) error {
	tx, err := p.conn.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin finalize transaction: %s", err)
	}
	defer tx.Rollback(ctx)

	for _, statement := range finalizeStatements {
		if _, err := tx.Exec(ctx, statement); err != nil {
			return fmt.Errorf("failed to apply post-load statement: %s", err)
		}
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit finalize transaction: %s", err)
	}
	logger.Info("applied post-load constraints and statistics")
	return nil
}

func (p *Postgres) Close(ctx context.Context) error {
	if p.conn != nil {
		if err := p.conn.Close(ctx); err != nil {
			return fmt.Errorf("failed to close connection: %s", err)
		}
	}
	if p.sshClient != nil {
		return p.sshClient.Close()
	}
	return nil
}

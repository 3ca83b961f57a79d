// Package postgres implements a Postgres-backed storage.Store using pgx v5.
// Table loads use COPY inside a transaction.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	gddl "retailhub/internal/ddl"
	pgddl "retailhub/internal/storage/postgres/ddl"
)

// Config holds Postgres repository configuration.
type Config struct {
	DSN string // connection string for pgxpool
}

// Repository is a Postgres-backed implementation of storage.Store.
type Repository struct {
	pool *pgxpool.Pool
	cfg  Config
}

// NewRepository constructs a Repository and returns a Close function for cleanup.
func NewRepository(ctx context.Context, cfg Config) (*Repository, func(), error) {
	pool, err := pgxpool.New(ctx, cfg.DSN)
	if err != nil {
		return nil, nil, fmt.Errorf("pgxpool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, nil, fmt.Errorf("ping: %w", err)
	}
	closeFn := func() { pool.Close() }
	return &Repository{pool: pool, cfg: cfg}, closeFn, nil
}

// Dialect returns the Postgres DDL dialect.
func (r *Repository) Dialect() gddl.Dialect { return pgddl.Dialect }

// Exec executes a SQL statement against the pool.
func (r *Repository) Exec(ctx context.Context, sql string) error {
	_, err := r.pool.Exec(ctx, sql)
	return pgErr("exec", err)
}

// ExecTx runs stmts inside one transaction. Postgres DDL is transactional.
func (r *Repository) ExecTx(ctx context.Context, stmts []string) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	for i, s := range stmts {
		if strings.TrimSpace(s) == "" {
			continue
		}
		if _, err := tx.Exec(ctx, s); err != nil {
			return pgErr(fmt.Sprintf("statement %d", i), err)
		}
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

// Columns lists the live columns of table from information_schema.
func (r *Repository) Columns(ctx context.Context, table string) ([]string, error) {
	schema, name := splitSchema(table)
	q := `SELECT column_name FROM information_schema.columns
	       WHERE table_schema = COALESCE(NULLIF($1, ''), current_schema()) AND table_name = $2
	       ORDER BY ordinal_position`
	rows, err := r.pool.Query(ctx, q, schema, name)
	if err != nil {
		return nil, pgErr("columns", err)
	}
	cols, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return nil, pgErr("columns", err)
	}
	return cols, nil
}

// CopyFrom streams rows into table with COPY inside one transaction.
func (r *Repository) CopyFrom(ctx context.Context, table string, columns []string, rows [][]any) (int64, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return 0, fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	n, err := tx.CopyFrom(ctx, splitFQN(table), columns, pgx.CopyFromRows(rows))
	if err != nil {
		return 0, pgErr("copy into "+table, err)
	}
	if err := tx.Commit(ctx); err != nil {
		return 0, fmt.Errorf("commit: %w", err)
	}
	return n, nil
}

// Select returns every row of table projected onto columns.
func (r *Repository) Select(ctx context.Context, table string, columns []string) ([][]any, error) {
	rows, err := r.pool.Query(ctx, pgddl.Dialect.Select(table, columns))
	if err != nil {
		return nil, pgErr("select "+table, err)
	}
	defer rows.Close()

	var out [][]any
	for rows.Next() {
		vals, err := rows.Values()
		if err != nil {
			return nil, pgErr("scan "+table, err)
		}
		out = append(out, vals)
	}
	return out, pgErr("select "+table, rows.Err())
}

// pgErr surfaces the server detail and SQLSTATE when available.
func pgErr(op string, err error) error {
	if err == nil {
		return nil
	}
	var pgE *pgconn.PgError
	if errors.As(err, &pgE) && pgE.Detail != "" {
		return fmt.Errorf("%s: %s (%s): %w", op, pgE.Detail, pgE.SQLState(), err)
	}
	return fmt.Errorf("%s: %w", op, err)
}

// splitFQN converts "schema.table" into a pgx.Identifier {"schema","table"}.
// If no dot is present, returns {"table"}.
func splitFQN(fqn string) pgx.Identifier {
	parts := strings.Split(fqn, ".")
	id := make(pgx.Identifier, 0, len(parts))
	for _, p := range parts {
		if p != "" {
			id = append(id, p)
		}
	}
	return id
}

func splitSchema(fqn string) (schema, table string) {
	if i := strings.LastIndexByte(fqn, '.'); i >= 0 {
		return fqn[:i], fqn[i+1:]
	}
	return "", fqn
}

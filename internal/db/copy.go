package db

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/rotisserie/eris"
)

// Column describes one column of a table written by ReplaceTable.
type Column struct {
	Name string
	Type string // Postgres type, e.g. "TEXT" or "DOUBLE PRECISION"
}

// CopyFrom bulk-inserts rows into a table using PostgreSQL COPY protocol.
func CopyFrom(ctx context.Context, pool Pool, table string, columns []string, rows [][]any) (int64, error) {
	if len(rows) == 0 {
		return 0, nil
	}

	n, err := pool.CopyFrom(ctx, pgx.Identifier{table}, columns, pgx.CopyFromRows(rows))
	if err != nil {
		return 0, eris.Wrapf(err, "db: COPY INTO %s", table)
	}
	return n, nil
}

// ReplaceTable creates the table if needed, then truncates it and COPYs rows
// in within one transaction, so a failed load leaves the previous contents.
// Table and column names are quoted as identifiers.
func ReplaceTable(ctx context.Context, pool Pool, table string, columns []Column, rows [][]any) (int64, error) {
	if len(columns) == 0 {
		return 0, eris.Errorf("db: table %s has no columns", table)
	}

	ident := pgx.Identifier{table}.Sanitize()
	defs := make([]string, len(columns))
	names := make([]string, len(columns))
	for i, c := range columns {
		defs[i] = fmt.Sprintf("%s %s", pgx.Identifier{c.Name}.Sanitize(), c.Type)
		names[i] = c.Name
	}

	tx, err := pool.Begin(ctx)
	if err != nil {
		return 0, eris.Wrapf(err, "db: begin tx for %s", table)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	ddl := fmt.Sprintf("CREATE TABLE IF NOT EXISTS %s (%s)", ident, strings.Join(defs, ", "))
	if _, err := tx.Exec(ctx, ddl); err != nil {
		return 0, eris.Wrapf(err, "db: create table %s", table)
	}
	if _, err := tx.Exec(ctx, "TRUNCATE "+ident); err != nil {
		return 0, eris.Wrapf(err, "db: truncate %s", table)
	}

	var n int64
	if len(rows) > 0 {
		n, err = tx.CopyFrom(ctx, pgx.Identifier{table}, names, pgx.CopyFromRows(rows))
		if err != nil {
			return 0, eris.Wrapf(err, "db: COPY INTO %s", table)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, eris.Wrapf(err, "db: commit %s", table)
	}
	return n, nil
}

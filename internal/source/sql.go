package source

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"fmt"
	"strconv"
	"time"

	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"

	"github.com/sells-group/rentrisk/internal/db"
)

// SQLite reads a table or query result from a SQLite database file.
type SQLite struct {
	Path  string
	Table string
	Query string
}

// Name implements Source.
func (s *SQLite) Name() string {
	if s.Query != "" {
		return "sqlite:" + s.Path + "?query"
	}
	return "sqlite:" + s.Path + "#" + s.Table
}

func (s *SQLite) query() string {
	if s.Query != "" {
		return s.Query
	}
	return "SELECT * FROM " + quoteIdent(s.Table)
}

// Open implements Source.
func (s *SQLite) Open(ctx context.Context) (*Stream, error) {
	conn, err := sql.Open("sqlite", s.Path)
	if err != nil {
		return nil, eris.Wrapf(err, "source: open %s", s.Name())
	}

	rows, err := conn.QueryContext(ctx, s.query())
	if err != nil {
		_ = conn.Close()
		return nil, eris.Wrapf(err, "source: query %s", s.Name())
	}

	header, err := rows.Columns()
	if err != nil {
		_ = rows.Close()
		_ = conn.Close()
		return nil, eris.Wrapf(err, "source: columns %s", s.Name())
	}

	rowCh := make(chan []string, 64)
	errCh := make(chan error, 1)
	go func() {
		defer close(rowCh)
		defer close(errCh)

		vals := make([]sql.NullString, len(header))
		ptrs := make([]any, len(header))
		for i := range vals {
			ptrs[i] = &vals[i]
		}
		for rows.Next() {
			if err := rows.Scan(ptrs...); err != nil {
				errCh <- eris.Wrap(err, "sqlite: scan row")
				return
			}
			row := make([]string, len(vals))
			for i, v := range vals {
				row[i] = v.String
			}
			select {
			case rowCh <- row:
			case <-ctx.Done():
				errCh <- eris.Wrap(ctx.Err(), "sqlite: context cancelled")
				return
			}
		}
		if err := rows.Err(); err != nil {
			errCh <- eris.Wrap(err, "sqlite: iterate rows")
		}
	}()

	return &Stream{
		Header: cleanHeader(header),
		rows:   rowCh,
		errs:   errCh,
		closer: func() error {
			_ = rows.Close()
			return conn.Close()
		},
	}, nil
}

// Postgres reads a table or query result through a pgx pool.
type Postgres struct {
	Pool  db.Pool
	Table string
	Query string
}

// Name implements Source.
func (p *Postgres) Name() string {
	if p.Query != "" {
		return "postgres:query"
	}
	return "postgres:" + p.Table
}

func (p *Postgres) query() string {
	if p.Query != "" {
		return p.Query
	}
	return "SELECT * FROM " + quoteIdent(p.Table)
}

// Open implements Source.
func (p *Postgres) Open(ctx context.Context) (*Stream, error) {
	rows, err := p.Pool.Query(ctx, p.query())
	if err != nil {
		return nil, eris.Wrapf(err, "source: query %s", p.Name())
	}

	fields := rows.FieldDescriptions()
	header := make([]string, len(fields))
	for i, f := range fields {
		header[i] = f.Name
	}

	rowCh := make(chan []string, 64)
	errCh := make(chan error, 1)
	go func() {
		defer close(rowCh)
		defer close(errCh)
		defer rows.Close()

		for rows.Next() {
			vals, err := rows.Values()
			if err != nil {
				errCh <- eris.Wrap(err, "postgres: read row values")
				return
			}
			row := make([]string, len(vals))
			for i, v := range vals {
				row[i] = formatValue(v)
			}
			select {
			case rowCh <- row:
			case <-ctx.Done():
				errCh <- eris.Wrap(ctx.Err(), "postgres: context cancelled")
				return
			}
		}
		if err := rows.Err(); err != nil {
			errCh <- eris.Wrap(err, "postgres: iterate rows")
		}
	}()

	return &Stream{Header: cleanHeader(header), rows: rowCh, errs: errCh}, nil
}

// formatValue renders a decoded column value as the text a CSV cell would hold.
func formatValue(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case []byte:
		return string(t)
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(t), 'f', -1, 32)
	case int64:
		return strconv.FormatInt(t, 10)
	case int32:
		return strconv.FormatInt(int64(t), 10)
	case int16:
		return strconv.FormatInt(int64(t), 10)
	case int:
		return strconv.Itoa(t)
	case bool:
		return strconv.FormatBool(t)
	case time.Time:
		return t.Format(time.RFC3339)
	case driver.Valuer:
		inner, err := t.Value()
		if err != nil {
			return ""
		}
		return formatValue(inner)
	default:
		return fmt.Sprint(t)
	}
}

// Package source opens the tabular inputs (CSV, XLSX, SQLite, Postgres) that
// the loaders normalize. File sources may also be fetched from a URL. Every source yields a header row followed by string
// cells, so the loaders stay agnostic of the on-disk format.
package source

import (
	"context"
	"path/filepath"
	"strings"
	"time"

	"github.com/rotisserie/eris"

	"github.com/sells-group/rentrisk/internal/db"
	"github.com/sells-group/rentrisk/internal/fetcher"
)

// Source kinds.
const (
	KindCSV      = "csv"
	KindXLSX     = "xlsx"
	KindSQLite   = "sqlite"
	KindPostgres = "postgres"
)

// Config describes where a tabular source lives. Kind is inferred from the
// path (or URL) extension when empty. A URL replaces Path for csv, xlsx,
// and sqlite sources: the file is downloaded once, on first open.
type Config struct {
	Kind      string `yaml:"kind" mapstructure:"kind"`
	Path      string `yaml:"path" mapstructure:"path"`
	URL       string `yaml:"url" mapstructure:"url"`
	ZipEntry  string `yaml:"zip_entry" mapstructure:"zip_entry"`
	Sheet     string `yaml:"sheet" mapstructure:"sheet"`
	Table     string `yaml:"table" mapstructure:"table"`
	Query     string `yaml:"query" mapstructure:"query"`
	Charset   string `yaml:"charset" mapstructure:"charset"`
	Delimiter string `yaml:"delimiter" mapstructure:"delimiter"`
	// Comment marks csv lines to ignore, e.g. "#".
	Comment string `yaml:"comment" mapstructure:"comment"`
	// SkipRows drops leading csv records or xlsx rows before the header.
	SkipRows  int  `yaml:"skip_rows" mapstructure:"skip_rows"`
	TrimSpace bool `yaml:"trim_space" mapstructure:"trim_space"`
}

// Options carries process-level dependencies for opening sources.
type Options struct {
	BaseDir string  // relative paths are resolved against it
	Pool    db.Pool // required for postgres sources
	// CacheDir receives downloaded files; empty uses the system temp dir.
	CacheDir string
	// FetchTimeout bounds each download request. Zero uses the fetcher default.
	FetchTimeout time.Duration
}

// Source is a readable table.
type Source interface {
	// Name identifies the source in logs and errors.
	Name() string
	// Open starts reading. The returned stream must be consumed with Each.
	Open(ctx context.Context) (*Stream, error)
}

// New builds the Source described by cfg.
func New(cfg Config, opts Options) (Source, error) {
	kind, err := resolveKind(cfg)
	if err != nil {
		return nil, err
	}
	if cfg.SkipRows < 0 {
		return nil, eris.Errorf("source: skip_rows must be >= 0, got %d", cfg.SkipRows)
	}
	if cfg.URL != "" {
		return newRemote(cfg, kind, opts)
	}

	path := cfg.Path
	if path != "" && opts.BaseDir != "" && !filepath.IsAbs(path) {
		path = filepath.Join(opts.BaseDir, path)
	}

	switch kind {
	case KindCSV:
		delim, err := parseRune("delimiter", cfg.Delimiter)
		if err != nil {
			return nil, err
		}
		comment, err := parseRune("comment", cfg.Comment)
		if err != nil {
			return nil, err
		}
		return &CSV{
			Path:      path,
			ZipEntry:  cfg.ZipEntry,
			Charset:   cfg.Charset,
			Delimiter: delim,
			Comment:   comment,
			SkipRows:  cfg.SkipRows,
			TrimSpace: cfg.TrimSpace,
		}, nil
	case KindXLSX:
		return &XLSX{Path: path, Sheet: cfg.Sheet, SkipRows: cfg.SkipRows, TrimSpace: cfg.TrimSpace}, nil
	case KindSQLite:
		if cfg.Table == "" && cfg.Query == "" {
			return nil, eris.Errorf("source: sqlite source %s needs a table or query", cfg.Path)
		}
		return &SQLite{Path: path, Table: cfg.Table, Query: cfg.Query}, nil
	case KindPostgres:
		if opts.Pool == nil {
			return nil, eris.New("source: postgres source requires a database connection (store.database_url)")
		}
		if cfg.Table == "" && cfg.Query == "" {
			return nil, eris.New("source: postgres source needs a table or query")
		}
		return &Postgres{Pool: opts.Pool, Table: cfg.Table, Query: cfg.Query}, nil
	default:
		return nil, eris.Errorf("source: unknown kind %q", kind)
	}
}

func resolveKind(cfg Config) (string, error) {
	if cfg.Kind != "" {
		return strings.ToLower(cfg.Kind), nil
	}
	ext := strings.ToLower(filepath.Ext(cfg.Path))
	if cfg.URL != "" {
		ext = fetcher.URLExt(cfg.URL)
	} else if cfg.Path == "" {
		return "", eris.New("source: path or url is required")
	}
	switch ext {
	case ".csv", ".tsv", ".txt", ".zip":
		return KindCSV, nil
	case ".xlsx":
		return KindXLSX, nil
	case ".db", ".sqlite", ".sqlite3":
		return KindSQLite, nil
	default:
		return "", eris.Errorf("source: cannot infer kind from %q", cfg.Path+cfg.URL)
	}
}

func parseRune(field, s string) (rune, error) {
	switch s {
	case "":
		return 0, nil
	case "tab", `\t`:
		return '\t', nil
	}
	r := []rune(s)
	if len(r) != 1 {
		return 0, eris.Errorf("source: %s %q must be a single character", field, s)
	}
	return r[0], nil
}

// quoteIdent quotes a table name for the SQL sources.
func quoteIdent(name string) string {
	parts := strings.Split(name, ".")
	for i, p := range parts {
		parts[i] = `"` + strings.ReplaceAll(p, `"`, `""`) + `"`
	}
	return strings.Join(parts, ".")
}

package source

import (
	"context"
	"sync"

	"github.com/rotisserie/eris"

	"github.com/sells-group/rentrisk/internal/fetcher"
)

// Remote is a file source fetched from a URL. The file is downloaded on the
// first Open and reused by later opens.
type Remote struct {
	URL     string
	Kind    string
	Fetcher fetcher.Fetcher
	// CacheDir receives the download; empty uses the system temp dir.
	CacheDir string

	cfg  Config
	once sync.Once
	src  Source
	err  error
}

func newRemote(cfg Config, kind string, opts Options) (Source, error) {
	switch kind {
	case KindCSV, KindXLSX, KindSQLite:
	default:
		return nil, eris.Errorf("source: %s sources cannot be fetched from a url", kind)
	}
	if kind == KindSQLite && cfg.Table == "" && cfg.Query == "" {
		return nil, eris.Errorf("source: sqlite source %s needs a table or query", cfg.URL)
	}
	f, err := fetcher.ForURL(cfg.URL, opts.FetchTimeout)
	if err != nil {
		return nil, eris.Wrap(err, "source: remote")
	}

	local := cfg
	local.URL = ""
	local.Kind = kind
	return &Remote{URL: cfg.URL, Kind: kind, Fetcher: f, CacheDir: opts.CacheDir, cfg: local}, nil
}

// Name implements Source.
func (r *Remote) Name() string {
	return r.Kind + ":" + r.URL
}

// Open implements Source.
func (r *Remote) Open(ctx context.Context) (*Stream, error) {
	r.once.Do(func() {
		path, _, err := fetcher.DownloadToFile(ctx, r.Fetcher, r.URL, r.CacheDir)
		if err != nil {
			r.err = eris.Wrapf(err, "source: fetch %s", r.Name())
			return
		}
		cfg := r.cfg
		cfg.Path = path
		r.src, r.err = New(cfg, Options{})
	})
	if r.err != nil {
		return nil, r.err
	}
	return r.src.Open(ctx)
}

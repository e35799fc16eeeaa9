package main

import (
	"context"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/rentrisk/internal/config"
	"github.com/sells-group/rentrisk/internal/db"
	"github.com/sells-group/rentrisk/internal/region"
)

// catalogEnv holds a loaded catalog and the resources behind it.
type catalogEnv struct {
	Catalog *region.Catalog
	Pool    db.Pool
}

// Close releases the database pool, if one was opened.
func (e *catalogEnv) Close() {
	if e.Pool != nil {
		e.Pool.Close()
	}
}

// regionKeys returns the keys to load: explicit arguments win over the
// configured data.regions list.
func regionKeys(c *config.Config, args []string) []string {
	if len(args) > 0 {
		return args
	}
	return c.Data.Regions
}

// loadCatalog reads the region definitions and loads the selected regions.
// A Postgres pool is opened only when store.database_url is set.
func loadCatalog(ctx context.Context, c *config.Config, only []string) (*catalogEnv, error) {
	doc, err := region.LoadDocument(c.Data.RegionsFile)
	if err != nil {
		return nil, err
	}

	env := &catalogEnv{}
	if c.Store.DatabaseURL != "" {
		pool, err := db.Connect(ctx, c.Store.DatabaseURL)
		if err != nil {
			return nil, eris.Wrap(err, "connect store")
		}
		env.Pool = pool
	}

	cat, err := region.LoadCatalog(ctx, doc, region.LoadOptions{
		BaseDir:      c.Data.Dir,
		CacheDir:     c.Data.CacheDir,
		FetchTimeout: c.Data.FetchTimeout,
		Pool:         env.Pool,
		Only:         only,
	})
	if err != nil {
		env.Close()
		return nil, err
	}
	env.Catalog = cat

	zap.L().Info("catalog loaded", zap.Int("regions", len(cat.List())), zap.String("data_dir", c.Data.Dir))
	return env, nil
}

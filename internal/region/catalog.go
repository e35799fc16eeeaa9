package region

import (
	"context"
	"errors"
	"sort"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/sells-group/rentrisk/internal/aggregate"
	"github.com/sells-group/rentrisk/internal/db"
	"github.com/sells-group/rentrisk/internal/filter"
	"github.com/sells-group/rentrisk/internal/geo"
	"github.com/sells-group/rentrisk/internal/loader"
	"github.com/sells-group/rentrisk/internal/model"
	"github.com/sells-group/rentrisk/internal/source"
)

// Region is a fully loaded region. Its tables are built once and never
// modified, so one Region is shared by every page of that region.
type Region struct {
	Definition
	Listings  *model.Listings
	Incidents *model.Incidents
	Geometry  *geo.Index
	Controls  model.Controls
}

// Bounds returns the values its filter state may take.
func (r *Region) Bounds() filter.Bounds {
	return filter.Bounds{
		RoomTypes:      r.Controls.RoomTypes,
		PriceMin:       r.Controls.PriceMin,
		PriceMax:       r.Controls.PriceMax,
		Categories:     r.Controls.Categories,
		DefaultCeiling: r.Controls.DefaultPriceCeiling,
	}
}

// Catalog is the set of loaded regions in definition order.
type Catalog struct {
	Title       string
	Description string
	order       []string
	regions     map[string]*Region
}

// NewCatalog assembles a catalog from already loaded regions.
func NewCatalog(title, description string, regions ...*Region) *Catalog {
	c := &Catalog{Title: title, Description: description, regions: make(map[string]*Region, len(regions))}
	for _, r := range regions {
		c.order = append(c.order, r.Key)
		c.regions[r.Key] = r
	}
	return c
}

// Get returns the region with the given key.
func (c *Catalog) Get(key string) (*Region, bool) {
	r, ok := c.regions[key]
	return r, ok
}

// List returns the regions in definition order.
func (c *Catalog) List() []*Region {
	out := make([]*Region, 0, len(c.order))
	for _, k := range c.order {
		out = append(out, c.regions[k])
	}
	return out
}

// LoadOptions carries process-level inputs for loading.
type LoadOptions struct {
	BaseDir string
	// CacheDir and FetchTimeout apply to sources fetched from a url.
	CacheDir     string
	FetchTimeout time.Duration
	Pool         db.Pool
	// Only restricts loading to these region keys; empty loads all.
	Only []string
}

// LoadCatalog loads every selected region, and every source within a
// region, concurrently. The first failure cancels the rest. Source failures
// are returned as *loader.DataLoadError.
func LoadCatalog(ctx context.Context, doc *Document, opts LoadOptions) (*Catalog, error) {
	defs, err := selectRegions(doc, opts.Only)
	if err != nil {
		return nil, err
	}

	regions := make([]*Region, len(defs))
	g, gCtx := errgroup.WithContext(ctx)
	for i, def := range defs {
		g.Go(func() error {
			r, err := Load(gCtx, def, opts)
			if err != nil {
				return err
			}
			regions[i] = r
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	return NewCatalog(doc.Title, doc.Description, regions...), nil
}

// Load reads one region's listings, incidents, and boundaries.
func Load(ctx context.Context, def Definition, opts LoadOptions) (*Region, error) {
	log := zap.L().With(zap.String("region", def.Key))
	srcOpts := source.Options{
		BaseDir:      opts.BaseDir,
		Pool:         opts.Pool,
		CacheDir:     opts.CacheDir,
		FetchTimeout: opts.FetchTimeout,
	}

	listingSrc, err := source.New(def.ListingInput.Source, srcOpts)
	if err != nil {
		return nil, loader.NewDataLoadError(def.Key+" listings", err)
	}
	incidentSrc, err := source.New(def.IncidentInput.Source, srcOpts)
	if err != nil {
		return nil, loader.NewDataLoadError(def.Key+" incidents", err)
	}

	r := &Region{Definition: def}
	g, gCtx := errgroup.WithContext(ctx)
	g.Go(func() error {
		l, err := loader.LoadListings(gCtx, listingSrc, def.ListingInput.Columns)
		r.Listings = l
		return err
	})
	g.Go(func() error {
		inc, err := loader.LoadIncidents(gCtx, incidentSrc, def.IncidentInput.Columns)
		r.Incidents = inc
		return err
	})
	g.Go(func() error {
		idx, err := geo.Load(gCtx, def.Geometry, opts.BaseDir)
		r.Geometry = idx
		return err
	})
	if err := g.Wait(); err != nil {
		var dle *loader.DataLoadError
		if errors.As(err, &dle) {
			return nil, dle
		}
		return nil, eris.Wrapf(err, "region: load %s", def.Key)
	}

	r.Limits = def.Limits.WithDefaults()
	r.Controls = aggregate.Controls(r.Listings, r.Incidents, r.Limits)

	log.Info("region: loaded",
		zap.Int("listings", r.Listings.Len()),
		zap.Int("incidents", r.Incidents.Len()),
		zap.Int("boundaries", r.Geometry.Len()),
		zap.Strings("room_types", r.Listings.RoomTypes),
	)
	return r, nil
}

func selectRegions(doc *Document, only []string) ([]Definition, error) {
	if doc == nil {
		return nil, eris.New("region: no definitions")
	}
	if len(only) == 0 {
		return doc.Regions, nil
	}
	var defs []Definition
	for _, key := range only {
		def, ok := doc.Find(key)
		if !ok {
			known := make([]string, 0, len(doc.Regions))
			for _, r := range doc.Regions {
				known = append(known, r.Key)
			}
			sort.Strings(known)
			return nil, eris.Errorf("region: unknown region %q (known: %v)", key, known)
		}
		defs = append(defs, def)
	}
	return defs, nil
}

// Package page holds the per-visitor state of a region page: its filters
// and the last computed datasets.
package page

import (
	"sync"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/rentrisk/internal/aggregate"
	"github.com/sells-group/rentrisk/internal/filter"
	"github.com/sells-group/rentrisk/internal/geo"
	"github.com/sells-group/rentrisk/internal/graph"
	"github.com/sells-group/rentrisk/internal/model"
	"github.com/sells-group/rentrisk/internal/region"
)

// Datasets are the derived datasets of a page.
type Datasets struct {
	Histogram      *model.HistogramBins   `json:"histogram"`
	RegionAverages *model.RegionAverages  `json:"region_averages"`
	Points         *model.PointCollection `json:"points"`
}

// View is a consistent snapshot of a page.
type View struct {
	ID       string       `json:"id"`
	Region   string       `json:"region"`
	Filters  filter.State `json:"filters"`
	Datasets Datasets     `json:"datasets"`
}

// Update is the outcome of applying a filter change.
type Update struct {
	Filters    filter.State    `json:"filters"`
	Recomputed []graph.Dataset `json:"recomputed"`
	Datasets   Datasets        `json:"datasets"`
}

// Page is one region page. Events are applied one at a time so every
// returned snapshot reflects the latest applied filter state.
type Page struct {
	ID     string
	Region *region.Region

	mu         sync.Mutex
	state      filter.State
	dispatcher *graph.Dispatcher
	touched    time.Time
}

// New creates a page with the region's default filters and computes every
// dataset once.
func New(id string, r *region.Region, opts ...graph.Option) (*Page, error) {
	if r == nil {
		return nil, eris.New("page: region is required")
	}
	log := zap.L().With(zap.String("page", id), zap.String("region", r.Key))
	opts = append([]graph.Option{graph.WithObserver(func(ds graph.Dataset, elapsed time.Duration, _ any) {
		log.Debug("page: recomputed", zap.String("dataset", string(ds)), zap.Duration("elapsed", elapsed))
	})}, opts...)

	d, err := graph.NewDispatcher(graph.DefaultTable(), Computers(r), opts...)
	if err != nil {
		return nil, eris.Wrap(err, "page: build dispatcher")
	}

	p := &Page{ID: id, Region: r, dispatcher: d, touched: time.Now()}
	p.state = filter.Default(r.Bounds())
	d.Init(p.state)
	return p, nil
}

// Computers binds each dataset to the aggregation over a region's tables.
// Each result is a fresh pointer so callers can tell a reused value from a
// recomputed one.
func Computers(r *region.Region) map[graph.Dataset]graph.Compute {
	year := r.IncidentInput.Year
	return map[graph.Dataset]graph.Compute{
		graph.Histogram: func(s filter.State) any {
			h := aggregate.Histogram(r.Listings, s.RoomType, s.PriceCeiling, r.Limits)
			return &h
		},
		graph.RegionAverages: func(s filter.State) any {
			avg := aggregate.RegionAverages(r.Listings, r.Geometry, s.RoomType, r.Limits)
			return &avg
		},
		graph.Points: func(s filter.State) any {
			pts := aggregate.PointCollection(r.Incidents, s.Category(), year)
			return &pts
		},
	}
}

// View returns the current filters and datasets.
func (p *Page) View() View {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.touched = time.Now()
	return View{ID: p.ID, Region: p.Region.Key, Filters: p.state, Datasets: p.datasets()}
}

// Apply validates and applies a filter change, recomputing only the
// datasets that depend on fields whose value changed. An invalid change
// leaves the page untouched.
func (p *Page) Apply(c filter.Change) (Update, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.touched = time.Now()

	next, changed, err := filter.Apply(p.state, c, p.Region.Bounds())
	if err != nil {
		return Update{}, err
	}
	p.state = next
	recomputed := p.dispatcher.Apply(next, changed)
	return Update{Filters: next, Recomputed: recomputed, Datasets: p.datasets()}, nil
}

// Choropleth renders the current region averages as GeoJSON coloured over
// [0, the region's average cap].
func (p *Page) Choropleth() *geo.Map {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.touched = time.Now()
	avg := p.datasets().RegionAverages
	if avg == nil {
		avg = &model.RegionAverages{}
	}
	return geo.Choropleth(p.Region.Geometry, *avg, p.Region.Limits.AverageCap)
}

// LastUsed returns when the page last served a request.
func (p *Page) LastUsed() time.Time {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.touched
}

func (p *Page) datasets() Datasets {
	var ds Datasets
	if v, ok := p.dispatcher.Output(graph.Histogram); ok {
		ds.Histogram, _ = v.(*model.HistogramBins)
	}
	if v, ok := p.dispatcher.Output(graph.RegionAverages); ok {
		ds.RegionAverages, _ = v.(*model.RegionAverages)
	}
	if v, ok := p.dispatcher.Output(graph.Points); ok {
		ds.Points, _ = v.(*model.PointCollection)
	}
	return ds
}

// IsEmpty reports whether a computed dataset holds no data.
func IsEmpty(result any) bool {
	switch v := result.(type) {
	case *model.HistogramBins:
		return v == nil || v.Total == 0
	case *model.RegionAverages:
		return v == nil || v.Empty()
	case *model.PointCollection:
		return v == nil || len(v.Points) == 0
	default:
		return result == nil
	}
}

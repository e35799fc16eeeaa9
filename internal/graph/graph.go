// Package graph declares which derived datasets depend on which filter
// fields and recomputes exactly the affected ones when filters change.
package graph

import (
	"time"

	"github.com/rotisserie/eris"

	"github.com/sells-group/rentrisk/internal/filter"
)

// Dataset names a derived dataset.
type Dataset string

// Derived datasets of a region page.
const (
	Histogram      Dataset = "histogram"
	RegionAverages Dataset = "region_averages"
	Points         Dataset = "points"
)

// Entry binds a dataset to the filter fields it reads.
type Entry struct {
	Dataset Dataset
	Deps    filter.Field
}

// Table is the declarative dependency table. Order is the recomputation
// order and the order datasets are reported in.
type Table []Entry

// DefaultTable is the dependency table of a region page.
func DefaultTable() Table {
	return Table{
		{Dataset: Histogram, Deps: filter.RoomType | filter.PriceCeiling},
		{Dataset: RegionAverages, Deps: filter.RoomType},
		{Dataset: Points, Deps: filter.CrimeCategory},
	}
}

// Affected returns the datasets whose dependencies intersect changed.
func (t Table) Affected(changed filter.Field) []Dataset {
	var out []Dataset
	for _, e := range t {
		if e.Deps.Intersects(changed) {
			out = append(out, e.Dataset)
		}
	}
	return out
}

// Datasets returns every dataset in table order.
func (t Table) Datasets() []Dataset {
	out := make([]Dataset, len(t))
	for i, e := range t {
		out[i] = e.Dataset
	}
	return out
}

// Compute derives one dataset from a filter snapshot. It must be pure.
type Compute func(s filter.State) any

// Observer is notified after every dataset computation.
type Observer func(ds Dataset, elapsed time.Duration, result any)

// Option configures a Dispatcher.
type Option func(*Dispatcher)

// WithObserver registers an observer called after each computation.
func WithObserver(o Observer) Option {
	return func(d *Dispatcher) {
		d.observers = append(d.observers, o)
	}
}

// Dispatcher holds the last computed value of every dataset and recomputes
// only those affected by a change. It is not safe for concurrent use; the
// owning page serializes events.
type Dispatcher struct {
	table     Table
	compute   map[Dataset]Compute
	outputs   map[Dataset]any
	observers []Observer
}

// NewDispatcher returns a Dispatcher for table. Every dataset in the table
// needs a Compute function.
func NewDispatcher(table Table, compute map[Dataset]Compute, opts ...Option) (*Dispatcher, error) {
	seen := make(map[Dataset]bool, len(table))
	for _, e := range table {
		if seen[e.Dataset] {
			return nil, eris.Errorf("graph: dataset %s declared twice", e.Dataset)
		}
		seen[e.Dataset] = true
		if compute[e.Dataset] == nil {
			return nil, eris.Errorf("graph: no compute function for dataset %s", e.Dataset)
		}
		if e.Deps == 0 {
			return nil, eris.Errorf("graph: dataset %s has no dependencies", e.Dataset)
		}
	}

	d := &Dispatcher{
		table:   table,
		compute: compute,
		outputs: make(map[Dataset]any, len(table)),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d, nil
}

// Init computes every dataset for the initial state.
func (d *Dispatcher) Init(s filter.State) []Dataset {
	return d.run(s, d.table.Datasets())
}

// Apply recomputes the datasets affected by changed against the new state s
// and returns them. Unaffected datasets keep their previous value.
func (d *Dispatcher) Apply(s filter.State, changed filter.Field) []Dataset {
	return d.run(s, d.table.Affected(changed))
}

func (d *Dispatcher) run(s filter.State, datasets []Dataset) []Dataset {
	for _, ds := range datasets {
		start := time.Now()
		out := d.compute[ds](s)
		elapsed := time.Since(start)
		d.outputs[ds] = out
		for _, o := range d.observers {
			o(ds, elapsed, out)
		}
	}
	if datasets == nil {
		return []Dataset{}
	}
	return datasets
}

// Output returns the last computed value of ds.
func (d *Dispatcher) Output(ds Dataset) (any, bool) {
	v, ok := d.outputs[ds]
	return v, ok
}

package page

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/twpayne/go-geom"

	"github.com/sells-group/rentrisk/internal/aggregate"
	"github.com/sells-group/rentrisk/internal/filter"
	"github.com/sells-group/rentrisk/internal/geo"
	"github.com/sells-group/rentrisk/internal/graph"
	"github.com/sells-group/rentrisk/internal/model"
	"github.com/sells-group/rentrisk/internal/region"
)

const entire = "Entire home/apt"

func strPtr(s string) *string     { return &s }
func floatPtr(f float64) *float64 { return &f }

func square(minX, minY, maxX, maxY float64) *geom.Polygon {
	return geom.NewPolygonFlat(geom.XY, []float64{
		minX, minY, maxX, minY, maxX, maxY, minX, maxY, minX, minY,
	}, []int{10})
}

func testRegion(t *testing.T) *region.Region {
	t.Helper()
	idx := geo.NewIndex()
	require.NoError(t, idx.Add("A", square(0, 0, 1, 1)))
	require.NoError(t, idx.Add("B", square(1, 0, 2, 1)))

	listings := model.NewListings([]model.Listing{
		{Neighborhood: "A", RoomType: entire, Price: 100},
		{Neighborhood: "A", RoomType: entire, Price: 120},
		{Neighborhood: "B", RoomType: entire, Price: 140},
		{Neighborhood: "B", RoomType: "Private room", Price: 60},
		{Neighborhood: "A", RoomType: entire, Price: 480},
	}, 0)
	incidents := model.NewIncidents([]model.Incident{
		{Latitude: 40.7, Longitude: -74.0, Category: "ROBBERY"},
		{Latitude: 40.8, Longitude: -74.1, Category: "ASSAULT"},
	}, true, 0)

	lim := aggregate.DefaultLimits()
	return &region.Region{
		Definition: region.Definition{Key: "test", Name: "Test", Limits: lim},
		Listings:   listings,
		Incidents:  incidents,
		Geometry:   idx,
		Controls:   aggregate.Controls(listings, incidents, lim),
	}
}

func TestNew_Defaults(t *testing.T) {
	p, err := New("p1", testRegion(t))
	require.NoError(t, err)

	v := p.View()
	assert.Equal(t, "p1", v.ID)
	assert.Equal(t, "test", v.Region)
	assert.Equal(t, entire, v.Filters.RoomType)
	assert.Equal(t, 480.0, v.Filters.PriceCeiling)
	assert.Nil(t, v.Filters.CrimeCategory)

	require.NotNil(t, v.Datasets.Histogram)
	assert.Equal(t, 4, v.Datasets.Histogram.Total)
	require.NotNil(t, v.Datasets.RegionAverages)
	assert.Equal(t, map[string]float64{"A": 110, "B": 140}, v.Datasets.RegionAverages.Averages)
	require.NotNil(t, v.Datasets.Points)
	assert.Len(t, v.Datasets.Points.Points, 2)
}

func TestNew_NilRegion(t *testing.T) {
	_, err := New("p1", nil)
	assert.Error(t, err)
}

func TestApply_PriceCeilingKeepsAverages(t *testing.T) {
	p, err := New("p1", testRegion(t))
	require.NoError(t, err)
	before := p.View().Datasets

	u, err := p.Apply(filter.Change{PriceCeiling: floatPtr(130)})
	require.NoError(t, err)

	assert.Equal(t, []graph.Dataset{graph.Histogram}, u.Recomputed)
	assert.Equal(t, 2, u.Datasets.Histogram.Total)
	assert.Same(t, before.RegionAverages, u.Datasets.RegionAverages)
	assert.Same(t, before.Points, u.Datasets.Points)
	assert.NotSame(t, before.Histogram, u.Datasets.Histogram)
}

func TestApply_RoomTypeRecomputesListingDatasets(t *testing.T) {
	p, err := New("p1", testRegion(t))
	require.NoError(t, err)
	before := p.View().Datasets

	u, err := p.Apply(filter.Change{RoomType: strPtr("Private room")})
	require.NoError(t, err)

	assert.Equal(t, []graph.Dataset{graph.Histogram, graph.RegionAverages}, u.Recomputed)
	assert.Equal(t, map[string]float64{"B": 60}, u.Datasets.RegionAverages.Averages)
	assert.Equal(t, 1, u.Datasets.Histogram.Total)
	assert.Same(t, before.Points, u.Datasets.Points)
}

func TestApply_Category(t *testing.T) {
	p, err := New("p1", testRegion(t))
	require.NoError(t, err)

	u, err := p.Apply(filter.Change{CrimeCategory: strPtr("ROBBERY")})
	require.NoError(t, err)
	assert.Equal(t, []graph.Dataset{graph.Points}, u.Recomputed)
	require.Len(t, u.Datasets.Points.Points, 1)
	assert.Equal(t, "ROBBERY", u.Datasets.Points.Points[0].Category)

	u, err = p.Apply(filter.Change{ClearCategory: true})
	require.NoError(t, err)
	assert.Len(t, u.Datasets.Points.Points, 2)
}

func TestApply_InvalidLeavesStateUntouched(t *testing.T) {
	p, err := New("p1", testRegion(t))
	require.NoError(t, err)
	before := p.View()

	_, err = p.Apply(filter.Change{RoomType: strPtr("Hotel room")})
	require.Error(t, err)
	assert.True(t, eris.Is(err, filter.ErrUnknownRoomType))

	after := p.View()
	assert.Equal(t, before.Filters, after.Filters)
	assert.Same(t, before.Datasets.Histogram, after.Datasets.Histogram)
}

func TestApply_NoOpChange(t *testing.T) {
	p, err := New("p1", testRegion(t))
	require.NoError(t, err)

	u, err := p.Apply(filter.Change{RoomType: strPtr(entire)})
	require.NoError(t, err)
	assert.Empty(t, u.Recomputed)
}

func TestApply_SerializesConcurrentEvents(t *testing.T) {
	p, err := New("p1", testRegion(t))
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = p.Apply(filter.Change{PriceCeiling: floatPtr(float64(100 + i))})
		}()
	}
	wg.Wait()

	v := p.View()
	assert.Equal(t, v.Filters.PriceCeiling, v.Datasets.Histogram.PriceCeiling)
}

func TestChoropleth(t *testing.T) {
	p, err := New("p1", testRegion(t))
	require.NoError(t, err)

	fc := p.Choropleth()
	require.Len(t, fc.Features, 2)
	assert.Equal(t, "A", fc.Features[0].Properties["neighbourhood"])
	assert.Equal(t, 110.0, fc.Features[0].Properties["price"])
	assert.Equal(t, [2]float64{0, 150}, fc.ColorRange)
}

func TestIsEmpty(t *testing.T) {
	assert.True(t, IsEmpty(&model.HistogramBins{}))
	assert.False(t, IsEmpty(&model.HistogramBins{Total: 1}))
	assert.True(t, IsEmpty(&model.RegionAverages{}))
	assert.True(t, IsEmpty(&model.PointCollection{}))
	assert.False(t, IsEmpty(&model.PointCollection{Points: []model.Point{{}}}))
	assert.True(t, IsEmpty(nil))
	assert.False(t, IsEmpty("other"))
}

func TestRegistry(t *testing.T) {
	var hooked []graph.Dataset
	var sizes []int
	n := 0
	reg := NewRegistry(10,
		WithIDGenerator(func() string { n++; return fmt.Sprintf("page-%d", n) }),
		WithRecomputeHook(func(region string, ds graph.Dataset, _ time.Duration, _ any) {
			assert.Equal(t, "test", region)
			hooked = append(hooked, ds)
		}),
		WithSizeHook(func(size int) { sizes = append(sizes, size) }),
	)

	p, err := reg.Create(testRegion(t))
	require.NoError(t, err)
	assert.Equal(t, "page-1", p.ID)
	assert.Equal(t, []graph.Dataset{graph.Histogram, graph.RegionAverages, graph.Points}, hooked)

	got, err := reg.Get("page-1")
	require.NoError(t, err)
	assert.Same(t, p, got)

	_, err = reg.Get("nope")
	assert.True(t, eris.Is(err, ErrNotFound))

	require.NoError(t, reg.Delete("page-1"))
	assert.True(t, eris.Is(reg.Delete("page-1"), ErrNotFound))
	assert.Equal(t, 0, reg.Len())
	assert.Equal(t, []int{1, 0}, sizes)
}

func TestRegistry_UUIDs(t *testing.T) {
	reg := NewRegistry(10)
	a, err := reg.Create(testRegion(t))
	require.NoError(t, err)
	b, err := reg.Create(testRegion(t))
	require.NoError(t, err)
	assert.Len(t, a.ID, 36)
	assert.NotEqual(t, a.ID, b.ID)
}

func TestRegistry_EvictsLeastRecentlyUsed(t *testing.T) {
	n := 0
	reg := NewRegistry(2, WithIDGenerator(func() string { n++; return fmt.Sprintf("page-%d", n) }))
	r := testRegion(t)

	_, err := reg.Create(r)
	require.NoError(t, err)
	time.Sleep(2 * time.Millisecond)
	second, err := reg.Create(r)
	require.NoError(t, err)
	time.Sleep(2 * time.Millisecond)
	first, err := reg.Get("page-1")
	require.NoError(t, err)
	first.View()
	time.Sleep(2 * time.Millisecond)

	_, err = reg.Create(r)
	require.NoError(t, err)
	assert.Equal(t, 2, reg.Len())

	_, err = reg.Get(second.ID)
	assert.True(t, eris.Is(err, ErrNotFound))
	_, err = reg.Get("page-1")
	assert.NoError(t, err)
}

func TestRegistry_DuplicateID(t *testing.T) {
	reg := NewRegistry(10, WithIDGenerator(func() string { return "same" }))
	_, err := reg.Create(testRegion(t))
	require.NoError(t, err)
	_, err = reg.Create(testRegion(t))
	assert.Error(t, err)
}

package geo

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/jonas-p/go-shp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/twpayne/go-geom"

	"github.com/sells-group/rentrisk/internal/loader"
	"github.com/sells-group/rentrisk/internal/model"
)

const neighbourhoodsGeoJSON = `{
  "type": "FeatureCollection",
  "features": [
    {"type": "Feature", "properties": {"neighbourhood": "Harlem", "neighbourhood_group": "Manhattan"},
     "geometry": {"type": "Polygon", "coordinates": [[[-74.0,40.0],[-73.0,40.0],[-73.0,41.0],[-74.0,41.0],[-74.0,40.0]]]}},
    {"type": "Feature", "properties": {"neighbourhood": "SoHo"},
     "geometry": {"type": "MultiPolygon", "coordinates": [
       [[[-75.0,40.0],[-74.5,40.0],[-74.5,40.5],[-75.0,40.5],[-75.0,40.0]]],
       [[[-76.0,40.0],[-75.5,40.0],[-75.5,40.5],[-76.0,40.5],[-76.0,40.0]]]
     ]}},
    {"type": "Feature", "properties": {"neighbourhood": "Nowhere"}, "geometry": null}
  ]
}`

func square(minX, minY, maxX, maxY float64) *geom.Polygon {
	return geom.NewPolygonFlat(geom.XY, []float64{
		minX, minY, maxX, minY, maxX, maxY, minX, maxY, minX, minY,
	}, []int{10})
}

func TestLoadGeoJSON(t *testing.T) {
	idx, err := LoadGeoJSON(strings.NewReader(neighbourhoodsGeoJSON), "")
	require.NoError(t, err)

	assert.Equal(t, 2, idx.Len())
	assert.Equal(t, []string{"Harlem", "SoHo"}, idx.Names())
	assert.True(t, idx.Contains("Harlem"))
	assert.False(t, idx.Contains("harlem"))
	assert.False(t, idx.Contains("Nowhere"))

	soho, ok := idx.Geometry("SoHo")
	require.True(t, ok)
	assert.Equal(t, 2, soho.NumPolygons())
}

func TestLoadGeoJSON_Malformed(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{name: "not json", input: "{", want: "decode geojson"},
		{name: "wrong type", input: `{"type":"Feature"}`, want: "expected FeatureCollection"},
		{
			name:  "missing name",
			input: `{"type":"FeatureCollection","features":[{"properties":{},"geometry":{"type":"Point","coordinates":[1,2]}}]}`,
			want:  "missing",
		},
		{
			name:  "point geometry",
			input: `{"type":"FeatureCollection","features":[{"properties":{"neighbourhood":"A"},"geometry":{"type":"Point","coordinates":[1,2]}}]}`,
			want:  "unsupported geometry",
		},
		{
			name:  "bad coordinates",
			input: `{"type":"FeatureCollection","features":[{"properties":{"neighbourhood":"A"},"geometry":{"type":"Polygon","coordinates":"x"}}]}`,
			want:  "geometry",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadGeoJSON(strings.NewReader(tt.input), "")
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestIndex_AddMergesDuplicates(t *testing.T) {
	idx := NewIndex()
	require.NoError(t, idx.Add("A", square(0, 0, 1, 1)))
	require.NoError(t, idx.Add("A", square(2, 2, 3, 3)))

	mp, ok := idx.Geometry("A")
	require.True(t, ok)
	assert.Equal(t, 2, mp.NumPolygons())
	assert.Equal(t, 1, idx.Len())
}

func TestIndex_AddRejects(t *testing.T) {
	idx := NewIndex()
	assert.Error(t, idx.Add("", square(0, 0, 1, 1)))
	assert.Error(t, idx.Add("A", nil))
	assert.Error(t, idx.Add("A", geom.NewPointFlat(geom.XY, []float64{1, 2})))
}

func TestIndex_Bounds(t *testing.T) {
	idx := NewIndex()
	require.NoError(t, idx.Add("A", square(0, 0, 1, 1)))
	require.NoError(t, idx.Add("B", square(5, 5, 6, 7)))

	all := idx.Bounds()
	require.NotNil(t, all)
	assert.Equal(t, 0.0, all.Min(0))
	assert.Equal(t, 7.0, all.Max(1))

	onlyA := idx.Bounds("A")
	assert.Equal(t, 1.0, onlyA.Max(0))
	assert.Nil(t, idx.Bounds("missing"))
}

func TestIndex_Locate(t *testing.T) {
	idx := NewIndex()
	withHole := geom.NewPolygonFlat(geom.XY, []float64{
		0, 0, 10, 0, 10, 10, 0, 10, 0, 0,
		4, 4, 4, 6, 6, 6, 6, 4, 4, 4,
	}, []int{10, 20})
	require.NoError(t, idx.Add("Ring", withHole))
	require.NoError(t, idx.Add("Far", square(20, 20, 30, 30)))

	name, ok := idx.Locate(1, 1)
	assert.True(t, ok)
	assert.Equal(t, "Ring", name)

	_, ok = idx.Locate(5, 5)
	assert.False(t, ok, "point inside the hole")

	name, ok = idx.Locate(25, 25)
	assert.True(t, ok)
	assert.Equal(t, "Far", name)

	_, ok = idx.Locate(-1, 50)
	assert.False(t, ok)
}

func TestIndex_NamesStaySorted(t *testing.T) {
	idx := NewIndex()
	require.NoError(t, idx.Add("Venice", square(0, 0, 10, 10)))
	require.NoError(t, idx.Add("Echo Park", square(5, 5, 15, 15)))
	require.NoError(t, idx.Add("Venice", square(40, 40, 41, 41)))
	require.NoError(t, idx.Add("Mar Vista", square(50, 50, 51, 51)))

	names := idx.Names()
	assert.Equal(t, []string{"Echo Park", "Mar Vista", "Venice"}, names)

	names[0] = "Zzz"
	assert.Equal(t, "Echo Park", idx.Names()[0])

	// Both boundaries cover (6, 6); the first in name order wins.
	name, ok := idx.Locate(6, 6)
	require.True(t, ok)
	assert.Equal(t, "Echo Park", name)
}

func TestChoropleth(t *testing.T) {
	idx := NewIndex()
	require.NoError(t, idx.Add("A", square(0, 0, 1, 1)))
	require.NoError(t, idx.Add("B", square(1, 0, 2, 1)))

	fc := Choropleth(idx, model.RegionAverages{
		Averages: map[string]float64{"A": 110, "B": 140, "C": 90},
		Counts:   map[string]int{"A": 2, "B": 1, "C": 4},
	}, 150)
	require.Len(t, fc.Features, 2)
	assert.Equal(t, "A", fc.Features[0].Properties["neighbourhood"])
	assert.Equal(t, 110.0, fc.Features[0].Properties["price"])
	assert.Equal(t, 1, fc.Features[1].Properties["listings"])
	require.NotNil(t, fc.BBox)
	assert.Equal(t, 2.0, fc.BBox.Max(0))
	assert.Equal(t, [2]float64{0, 150}, fc.ColorRange)

	data, err := json.Marshal(fc)
	require.NoError(t, err)

	var decoded struct {
		Type       string            `json:"type"`
		BBox       []float64         `json:"bbox"`
		Features   []json.RawMessage `json:"features"`
		ColorRange []float64         `json:"color_range"`
	}
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, "FeatureCollection", decoded.Type)
	assert.Len(t, decoded.Features, 2)
	assert.Equal(t, []float64{0, 1, 2, 1}, decoded.BBox)
	assert.Equal(t, []float64{0, 150}, decoded.ColorRange)
}

func TestChoropleth_Empty(t *testing.T) {
	fc := Choropleth(NewIndex(), model.RegionAverages{}, 150)
	assert.NotNil(t, fc.Features)
	assert.Empty(t, fc.Features)
	assert.Nil(t, fc.BBox)

	data, err := json.Marshal(fc)
	require.NoError(t, err)
	assert.JSONEq(t, `{"type":"FeatureCollection","features":[],"color_range":[0,150]}`, string(data))
}

func TestLoad_GeoJSONFile(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "neighbourhoods.geojson"), []byte(neighbourhoodsGeoJSON), 0o644))

	idx, err := Load(context.Background(), Config{Path: "neighbourhoods.geojson"}, dir)
	require.NoError(t, err)
	assert.Equal(t, 2, idx.Len())
}

func TestLoad_Errors(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "bad.geojson"), []byte("nope"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "empty.geojson"), []byte(`{"type":"FeatureCollection","features":[]}`), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "shapes.kml"), []byte("<kml/>"), 0o644))

	for _, path := range []string{"", "missing.geojson", "bad.geojson", "empty.geojson", "shapes.kml"} {
		t.Run(path, func(t *testing.T) {
			_, err := Load(context.Background(), Config{Path: path}, dir)
			require.Error(t, err)
			assert.True(t, loader.IsDataLoadError(err))
		})
	}
}

func TestLoadShapefile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "neighbourhoods.shp")
	w, err := shp.Create(path, shp.POLYGON)
	require.NoError(t, err)
	require.NoError(t, w.SetFields([]shp.Field{shp.StringField("NAME", 40)}))

	outer := []shp.Point{{X: 0, Y: 0}, {X: 0, Y: 10}, {X: 10, Y: 10}, {X: 10, Y: 0}, {X: 0, Y: 0}}
	hole := []shp.Point{{X: 4, Y: 4}, {X: 6, Y: 4}, {X: 6, Y: 6}, {X: 4, Y: 6}, {X: 4, Y: 4}}
	n := w.Write(&shp.Polygon{
		NumParts:  2,
		NumPoints: 10,
		Parts:     []int32{0, 5},
		Points:    append(append([]shp.Point{}, outer...), hole...),
	})
	require.NoError(t, w.WriteAttribute(int(n), 0, "Echo Park"))
	closeShapefile(t, w, path)

	idx, err := LoadShapefile(path, "name")
	require.NoError(t, err)
	require.Equal(t, []string{"Echo Park"}, idx.Names())

	mp, _ := idx.Geometry("Echo Park")
	require.Equal(t, 1, mp.NumPolygons())
	assert.Equal(t, 2, mp.Polygon(0).NumLinearRings())

	_, ok := idx.Locate(5, 5)
	assert.False(t, ok)
	_, ok = idx.Locate(1, 1)
	assert.True(t, ok)
}

func TestLoadShapefile_MissingField(t *testing.T) {
	path := filepath.Join(t.TempDir(), "x.shp")
	w, err := shp.Create(path, shp.POLYGON)
	require.NoError(t, err)
	require.NoError(t, w.SetFields([]shp.Field{shp.StringField("OTHER", 10)}))
	closeShapefile(t, w, path)

	_, err = LoadShapefile(path, "NAME")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not found")
}

// closeShapefile flushes w and moves its attribute table to <base>.dbf. The
// writer names it <base>dbf, which shp.Open does not look for.
func closeShapefile(t *testing.T, w *shp.Writer, path string) {
	t.Helper()
	w.Close()
	base := strings.TrimSuffix(path, filepath.Ext(path))
	require.NoError(t, os.Rename(base+"dbf", base+".dbf"))
}

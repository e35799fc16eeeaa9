package geo

import (
	"bytes"
	"encoding/json"

	"github.com/rotisserie/eris"
	"github.com/twpayne/go-geom/encoding/geojson"

	"github.com/sells-group/rentrisk/internal/model"
)

// Map is a choropleth FeatureCollection. ColorRange is the fixed [min, max]
// of its colour scale and is encoded as the "color_range" foreign member.
type Map struct {
	*geojson.FeatureCollection
	ColorRange [2]float64
}

// MarshalJSON implements json.Marshaler.
func (m Map) MarshalJSON() ([]byte, error) {
	fc := m.FeatureCollection
	if fc == nil {
		fc = &geojson.FeatureCollection{Features: []*geojson.Feature{}}
	}
	data, err := json.Marshal(fc)
	if err != nil {
		return nil, eris.Wrap(err, "geo: encode feature collection")
	}
	rng, err := json.Marshal(m.ColorRange)
	if err != nil {
		return nil, eris.Wrap(err, "geo: encode color range")
	}

	end := bytes.LastIndexByte(data, '}')
	if end < 0 {
		return nil, eris.New("geo: feature collection is not a JSON object")
	}
	out := make([]byte, 0, len(data)+len(rng)+16)
	out = append(out, data[:end]...)
	out = append(out, `,"color_range":`...)
	out = append(out, rng...)
	return append(out, '}'), nil
}

// Choropleth renders region averages as a Map, one feature per
// neighbourhood that has both an average and a boundary. Properties carry
// the name, mean price, and listing count. The colour scale spans
// [0, colorMax] whatever the averages are, so it stays stable between
// filter changes.
func Choropleth(idx *Index, avg model.RegionAverages, colorMax float64) *Map {
	fc := &geojson.FeatureCollection{Features: []*geojson.Feature{}}
	var names []string
	for _, name := range avg.Names() {
		mp, ok := idx.Geometry(name)
		if !ok {
			continue
		}
		names = append(names, name)
		fc.Features = append(fc.Features, &geojson.Feature{
			Geometry: mp,
			Properties: map[string]any{
				DefaultNameProperty: name,
				"price":             avg.Averages[name],
				"listings":          avg.Counts[name],
			},
		})
	}
	if len(names) > 0 {
		fc.BBox = idx.Bounds(names...)
	}
	return &Map{FeatureCollection: fc, ColorRange: [2]float64{0, colorMax}}
}

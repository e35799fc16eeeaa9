package geo

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/rotisserie/eris"
	"github.com/twpayne/go-geom"
	"github.com/twpayne/go-geom/encoding/geojson"
	"go.uber.org/zap"
)

// DefaultNameProperty is the feature property holding the neighbourhood name.
const DefaultNameProperty = "neighbourhood"

type rawFeature struct {
	Properties map[string]any  `json:"properties"`
	Geometry   json.RawMessage `json:"geometry"`
}

type rawCollection struct {
	Type     string       `json:"type"`
	Features []rawFeature `json:"features"`
}

// LoadGeoJSON reads a FeatureCollection of Polygon/MultiPolygon features
// keyed by nameProperty. Features with a null geometry are skipped; a
// missing name or any other geometry type fails the whole load.
func LoadGeoJSON(r io.Reader, nameProperty string) (*Index, error) {
	if nameProperty == "" {
		nameProperty = DefaultNameProperty
	}

	var fc rawCollection
	if err := json.NewDecoder(r).Decode(&fc); err != nil {
		return nil, eris.Wrap(err, "geo: decode geojson")
	}
	if fc.Type != "FeatureCollection" {
		return nil, eris.Errorf("geo: expected FeatureCollection, got %q", fc.Type)
	}

	idx := NewIndex()
	skipped := 0
	for n, f := range fc.Features {
		name, err := featureName(f.Properties, nameProperty)
		if err != nil {
			return nil, eris.Wrapf(err, "geo: feature %d", n)
		}
		if len(f.Geometry) == 0 || string(f.Geometry) == "null" {
			skipped++
			continue
		}

		var g geom.T
		if err := geojson.Unmarshal(f.Geometry, &g); err != nil {
			return nil, eris.Wrapf(err, "geo: feature %d (%s) geometry", n, name)
		}
		if err := idx.Add(name, g); err != nil {
			return nil, err
		}
	}

	if skipped > 0 {
		zap.L().Debug("geo: skipped features without geometry", zap.Int("skipped", skipped))
	}
	return idx, nil
}

func featureName(props map[string]any, key string) (string, error) {
	v, ok := props[key]
	if !ok || v == nil {
		return "", eris.Errorf("missing %q property", key)
	}
	switch t := v.(type) {
	case string:
		if t == "" {
			return "", eris.Errorf("empty %q property", key)
		}
		return t, nil
	case float64:
		return fmt.Sprint(t), nil
	default:
		return "", eris.Errorf("%q property has type %T", key, v)
	}
}

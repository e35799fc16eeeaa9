package geo

import (
	"strings"

	"github.com/jonas-p/go-shp"
	"github.com/rotisserie/eris"
	"github.com/twpayne/go-geom"
	"github.com/twpayne/go-geom/xy"
	"go.uber.org/zap"
)

// LoadShapefile reads polygon records from an ESRI shapefile, naming each by
// the nameField attribute (case-insensitive).
func LoadShapefile(path, nameField string) (*Index, error) {
	reader, err := shp.Open(path)
	if err != nil {
		return nil, eris.Wrapf(err, "geo: open shapefile %s", path)
	}
	defer func() { _ = reader.Close() }()

	nameIdx := -1
	for i, f := range reader.Fields() {
		if strings.EqualFold(strings.TrimRight(f.String(), "\x00"), nameField) {
			nameIdx = i
			break
		}
	}
	if nameIdx < 0 {
		return nil, eris.Errorf("geo: shapefile field %q not found", nameField)
	}

	idx := NewIndex()
	skipped := 0
	for reader.Next() {
		n, shape := reader.Shape()
		name := strings.TrimSpace(strings.TrimRight(reader.Attribute(nameIdx), "\x00"))

		poly, ok := shape.(*shp.Polygon)
		if !ok || name == "" {
			skipped++
			continue
		}
		mp := shapeToMultiPolygon(poly)
		if mp == nil {
			skipped++
			continue
		}
		if err := idx.Add(name, mp); err != nil {
			return nil, eris.Wrapf(err, "geo: shapefile record %d", n)
		}
	}

	if skipped > 0 {
		zap.L().Debug("geo: skipped shapefile records", zap.String("path", path), zap.Int("skipped", skipped))
	}
	return idx, nil
}

// shapeToMultiPolygon converts a shapefile polygon to a MultiPolygon.
// Shapefile outer rings run clockwise and holes counter-clockwise; each
// hole is attached to the most recent outer ring.
func shapeToMultiPolygon(p *shp.Polygon) *geom.MultiPolygon {
	if p == nil || p.NumParts == 0 || len(p.Points) == 0 {
		return nil
	}

	mp := geom.NewMultiPolygon(geom.XY).SetSRID(4326)
	var current [][]float64

	flush := func() {
		if len(current) == 0 {
			return
		}
		var flat []float64
		ends := make([]int, 0, len(current))
		for _, ring := range current {
			flat = append(flat, ring...)
			ends = append(ends, len(flat))
		}
		if err := mp.Push(geom.NewPolygonFlat(geom.XY, flat, ends)); err != nil {
			zap.L().Debug("geo: skipping malformed polygon", zap.Error(err))
		}
		current = nil
	}

	for i := int32(0); i < p.NumParts; i++ {
		start := p.Parts[i]
		end := int32(len(p.Points))
		if i+1 < p.NumParts {
			end = p.Parts[i+1]
		}
		if end-start < 4 {
			continue
		}

		ring := make([]float64, 0, (end-start)*2)
		for j := start; j < end; j++ {
			ring = append(ring, p.Points[j].X, p.Points[j].Y)
		}

		if xy.IsRingCounterClockwise(geom.XY, ring) && len(current) > 0 {
			current = append(current, ring)
			continue
		}
		flush()
		current = [][]float64{ring}
	}
	flush()

	if mp.NumPolygons() == 0 {
		return nil
	}
	return mp
}

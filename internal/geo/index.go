// Package geo holds the named neighbourhood boundaries that region averages
// are joined against, and renders joined results as GeoJSON.
package geo

import (
	"sort"

	"github.com/rotisserie/eris"
	"github.com/twpayne/go-geom"
	"github.com/twpayne/go-geom/xy"
)

// Index maps a neighbourhood name to its boundary. Names match listing
// neighbourhoods by exact string comparison. An Index is populated once at
// load time and read-only afterwards, so it is safe for concurrent readers.
type Index struct {
	shapes map[string]*geom.MultiPolygon
	names  []string // sorted keys of shapes
}

// NewIndex returns an empty index.
func NewIndex() *Index {
	return &Index{shapes: make(map[string]*geom.MultiPolygon)}
}

// Add registers a Polygon or MultiPolygon under name. Adding the same name
// twice merges the parts into one MultiPolygon.
func (i *Index) Add(name string, g geom.T) error {
	if name == "" {
		return eris.New("geo: boundary name is empty")
	}

	var polys []*geom.Polygon
	switch t := g.(type) {
	case *geom.Polygon:
		polys = []*geom.Polygon{t}
	case *geom.MultiPolygon:
		for p := 0; p < t.NumPolygons(); p++ {
			polys = append(polys, t.Polygon(p))
		}
	case nil:
		return eris.Errorf("geo: boundary %q has no geometry", name)
	default:
		return eris.Errorf("geo: boundary %q has unsupported geometry %T", name, g)
	}

	mp, ok := i.shapes[name]
	if !ok {
		mp = geom.NewMultiPolygon(geom.XY).SetSRID(4326)
	}
	for _, p := range polys {
		if p.NumLinearRings() == 0 {
			continue
		}
		flat := geom.NewPolygonFlat(geom.XY, xyFlat(p), xyEnds(p))
		if err := mp.Push(flat); err != nil {
			return eris.Wrapf(err, "geo: add boundary %q", name)
		}
	}
	if mp.NumPolygons() == 0 {
		return eris.Errorf("geo: boundary %q is empty", name)
	}
	if !ok {
		at := sort.SearchStrings(i.names, name)
		i.names = append(i.names, "")
		copy(i.names[at+1:], i.names[at:])
		i.names[at] = name
	}
	i.shapes[name] = mp
	return nil
}

// Contains reports whether a boundary exists for name.
func (i *Index) Contains(name string) bool {
	_, ok := i.shapes[name]
	return ok
}

// Geometry returns the boundary for name.
func (i *Index) Geometry(name string) (*geom.MultiPolygon, bool) {
	mp, ok := i.shapes[name]
	return mp, ok
}

// Len returns the number of named boundaries.
func (i *Index) Len() int {
	return len(i.shapes)
}

// Names returns every boundary name, sorted.
func (i *Index) Names() []string {
	return append(make([]string, 0, len(i.names)), i.names...)
}

// Bounds returns the extent of the named boundaries, or of every boundary
// when no names are given. It returns nil when nothing matched.
func (i *Index) Bounds(names ...string) *geom.Bounds {
	if len(names) == 0 {
		names = i.names
	}
	b := geom.NewBounds(geom.XY)
	found := false
	for _, name := range names {
		if mp, ok := i.shapes[name]; ok {
			b.Extend(mp)
			found = true
		}
	}
	if !found {
		return nil
	}
	return b
}

// Locate returns the name of the first boundary (in name order) containing
// the point. Points on a hole are outside.
func (i *Index) Locate(lat, lon float64) (string, bool) {
	pt := geom.Coord{lon, lat}
	for _, name := range i.names {
		mp := i.shapes[name]
		if !mp.Bounds().OverlapsPoint(geom.XY, pt) {
			continue
		}
		for p := 0; p < mp.NumPolygons(); p++ {
			if polygonContains(mp.Polygon(p), pt) {
				return name, true
			}
		}
	}
	return "", false
}

func polygonContains(p *geom.Polygon, pt geom.Coord) bool {
	if p.NumLinearRings() == 0 || !xy.IsPointInRing(geom.XY, pt, p.LinearRing(0).FlatCoords()) {
		return false
	}
	for r := 1; r < p.NumLinearRings(); r++ {
		if xy.IsPointInRing(geom.XY, pt, p.LinearRing(r).FlatCoords()) {
			return false
		}
	}
	return true
}

// xyFlat drops any Z/M ordinates so every stored boundary is plain XY.
func xyFlat(p *geom.Polygon) []float64 {
	stride := p.Stride()
	src := p.FlatCoords()
	if stride == 2 {
		return append([]float64(nil), src...)
	}
	out := make([]float64, 0, len(src)/stride*2)
	for j := 0; j+1 < len(src); j += stride {
		out = append(out, src[j], src[j+1])
	}
	return out
}

func xyEnds(p *geom.Polygon) []int {
	stride := p.Stride()
	ends := make([]int, len(p.Ends()))
	for j, e := range p.Ends() {
		ends[j] = e / stride * 2
	}
	return ends
}

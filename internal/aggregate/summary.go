package aggregate

import (
	"sort"

	"github.com/sells-group/rentrisk/internal/model"
)

// Locator places a coordinate in a named neighbourhood. *geo.Index
// satisfies it.
type Locator interface {
	Locate(lat, lon float64) (string, bool)
}

// NeighborhoodCounts tallies listings per neighbourhood.
func NeighborhoodCounts(listings *model.Listings) []model.Count {
	counts := make(map[string]int)
	if listings != nil {
		for _, l := range listings.Rows {
			counts[l.Neighborhood]++
		}
	}
	return sortCounts(counts)
}

// RoomTypeCounts tallies listings per room type.
func RoomTypeCounts(listings *model.Listings) []model.Count {
	counts := make(map[string]int)
	if listings != nil {
		for _, l := range listings.Rows {
			counts[l.RoomType]++
		}
	}
	return sortCounts(counts)
}

// LabelCounts tallies incidents per label, skipping unlabeled rows.
func LabelCounts(incidents *model.Incidents) []model.Count {
	counts := make(map[string]int)
	if incidents != nil {
		for _, inc := range incidents.Rows {
			if inc.Label != "" {
				counts[inc.Label]++
			}
		}
	}
	return sortCounts(counts)
}

// IncidentNeighborhoods tallies incidents by the neighbourhood boundary that
// contains them. Incidents outside every boundary are not counted.
func IncidentNeighborhoods(incidents *model.Incidents, loc Locator) []model.Count {
	counts := make(map[string]int)
	if incidents != nil && loc != nil {
		for _, inc := range incidents.Rows {
			if name, ok := loc.Locate(inc.Latitude, inc.Longitude); ok {
				counts[name]++
			}
		}
	}
	return sortCounts(counts)
}

// sortCounts orders by count descending, then name.
func sortCounts(counts map[string]int) []model.Count {
	out := make([]model.Count, 0, len(counts))
	for name, n := range counts {
		out = append(out, model.Count{Name: name, Count: n})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Name < out[j].Name
	})
	return out
}

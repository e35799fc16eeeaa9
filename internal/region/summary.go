package region

import (
	"github.com/sells-group/rentrisk/internal/aggregate"
	"github.com/sells-group/rentrisk/internal/model"
)

// Summary describes what was loaded for a region.
type Summary struct {
	Key                    string        `json:"key" yaml:"key"`
	Name                   string        `json:"name" yaml:"name"`
	Listings               int           `json:"listings" yaml:"listings"`
	DroppedListings        int           `json:"dropped_listings" yaml:"dropped_listings"`
	PriceMin               float64       `json:"price_min" yaml:"price_min"`
	PriceMax               float64       `json:"price_max" yaml:"price_max"`
	RoomTypes              []model.Count `json:"room_types" yaml:"room_types"`
	Neighbourhoods         []model.Count `json:"neighbourhoods" yaml:"neighbourhoods"`
	Unmatched              []string      `json:"unmatched_neighbourhoods" yaml:"unmatched_neighbourhoods"`
	Incidents              int           `json:"incidents" yaml:"incidents"`
	DroppedIncidents       int           `json:"dropped_incidents" yaml:"dropped_incidents"`
	Categories             []string      `json:"categories" yaml:"categories"`
	Labels                 []model.Count `json:"labels,omitempty" yaml:"labels,omitempty"`
	IncidentNeighbourhoods []model.Count `json:"incident_neighbourhoods" yaml:"incident_neighbourhoods"`
	Boundaries             int           `json:"boundaries" yaml:"boundaries"`
}

// Summarize tallies a region's tables. top limits each count list; zero
// keeps everything.
func (r *Region) Summarize(top int) Summary {
	s := Summary{
		Key:              r.Key,
		Name:             r.Name,
		Listings:         r.Listings.Len(),
		DroppedListings:  r.Listings.Dropped,
		PriceMin:         r.Listings.MinPrice,
		PriceMax:         r.Listings.MaxPrice,
		RoomTypes:        aggregate.RoomTypeCounts(r.Listings),
		Incidents:        r.Incidents.Len(),
		DroppedIncidents: r.Incidents.Dropped,
		Categories:       r.Incidents.Categories,
		Boundaries:       r.Geometry.Len(),
		Unmatched:        []string{},
	}

	hoods := aggregate.NeighborhoodCounts(r.Listings)
	for _, c := range hoods {
		if !r.Geometry.Contains(c.Name) {
			s.Unmatched = append(s.Unmatched, c.Name)
		}
	}
	s.Neighbourhoods = head(hoods, top)
	s.Labels = head(aggregate.LabelCounts(r.Incidents), top)
	s.IncidentNeighbourhoods = head(aggregate.IncidentNeighborhoods(r.Incidents, r.Geometry), top)
	return s
}

func head(counts []model.Count, n int) []model.Count {
	if n > 0 && len(counts) > n {
		return counts[:n]
	}
	return counts
}

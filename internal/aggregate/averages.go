package aggregate

import (
	"go.uber.org/zap"

	"github.com/sells-group/rentrisk/internal/model"
)

// Joiner reports whether a neighbourhood has a displayable boundary.
// *geo.Index satisfies it.
type Joiner interface {
	Contains(name string) bool
}

// RegionAverages computes the mean price per neighbourhood for roomType:
// listings are capped to 0 < price ≤ AverageCap, Tukey outliers are removed,
// the rest are averaged per neighbourhood, and neighbourhoods without a
// boundary in join are dropped. No matching listings gives an empty,
// non-nil result.
func RegionAverages(listings *model.Listings, join Joiner, roomType string, lim Limits) model.RegionAverages {
	lim = lim.WithDefaults()
	out := model.RegionAverages{
		RoomType:   roomType,
		Averages:   map[string]float64{},
		Counts:     map[string]int{},
		ColorRange: [2]float64{0, lim.AverageCap},
	}
	if listings == nil {
		return out
	}

	var rows []model.Listing
	var prices []float64
	for _, l := range listings.Rows {
		if l.RoomType == roomType && l.Price > 0 && l.Price <= lim.AverageCap {
			rows = append(rows, l)
			prices = append(prices, l.Price)
		}
	}

	lower, upper, ok := Fences(prices, lim.FenceK)
	if !ok {
		return out
	}
	out.LowerFence, out.UpperFence = lower, upper

	sums := make(map[string]float64)
	for _, l := range rows {
		if l.Price < lower || l.Price > upper {
			continue
		}
		sums[l.Neighborhood] += l.Price
		out.Counts[l.Neighborhood]++
	}

	var unmatched int
	for name, sum := range sums {
		if join != nil && !join.Contains(name) {
			delete(out.Counts, name)
			unmatched++
			continue
		}
		out.Averages[name] = sum / float64(out.Counts[name])
	}
	if unmatched > 0 {
		zap.L().Debug("aggregate: neighbourhoods without boundary",
			zap.String("room_type", roomType), zap.Int("unmatched", unmatched))
	}
	return out
}

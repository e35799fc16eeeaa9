package aggregate

import (
	"math"

	"github.com/sells-group/rentrisk/internal/model"
)

// Histogram bins the prices of roomType listings at or below priceCeiling
// into equal-width bins over [0, HistogramMax]. Every bin is emitted, so an
// unknown room type yields all-zero bins rather than an error. Bins are
// half-open except the last, which also holds HistogramMax itself.
func Histogram(listings *model.Listings, roomType string, priceCeiling float64, lim Limits) model.HistogramBins {
	lim = lim.WithDefaults()
	out := model.HistogramBins{
		RoomType:     roomType,
		PriceCeiling: priceCeiling,
		Bins:         make([]model.Bin, lim.HistogramBins),
	}

	n := float64(lim.HistogramBins)
	for i := range out.Bins {
		out.Bins[i] = model.Bin{
			Low:  lim.HistogramMax * float64(i) / n,
			High: lim.HistogramMax * float64(i+1) / n,
		}
	}
	out.Bins[len(out.Bins)-1].High = lim.HistogramMax

	if listings == nil {
		return out
	}
	width := lim.HistogramMax / n
	for _, l := range listings.Rows {
		if l.RoomType != roomType || l.Price > priceCeiling || l.Price > lim.HistogramMax {
			continue
		}
		i := int(math.Floor(l.Price / width))
		if i >= len(out.Bins) {
			i = len(out.Bins) - 1
		}
		// Guard float edges so every price lands in [Low, High).
		for i > 0 && l.Price < out.Bins[i].Low {
			i--
		}
		for i < len(out.Bins)-1 && l.Price >= out.Bins[i].High {
			i++
		}
		out.Bins[i].Count++
		out.Total++
	}
	return out
}

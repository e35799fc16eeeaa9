package aggregate

import (
	"math"

	"github.com/sells-group/rentrisk/internal/model"
)

// markStep is the spacing of price slider marks.
const markStep = 100

// Controls derives the filter widget options for a region: room types in
// first-seen order, a price slider from the floor of the cheapest listing up
// to HistogramMax, and the sorted incident categories.
func Controls(listings *model.Listings, incidents *model.Incidents, lim Limits) model.Controls {
	lim = lim.WithDefaults()
	c := model.Controls{
		RoomTypes:           []string{},
		PriceMax:            lim.HistogramMax,
		DefaultPriceCeiling: lim.HistogramMax,
		Categories:          []string{},
	}

	if listings.Len() > 0 {
		c.RoomTypes = append(c.RoomTypes, listings.RoomTypes...)
		c.DefaultRoomType = listings.RoomTypes[0]
		c.PriceMin = math.Min(math.Floor(listings.MinPrice), lim.HistogramMax)
		c.DefaultPriceCeiling = math.Min(lim.HistogramMax, math.Floor(listings.MaxPrice))
	}
	for p := c.PriceMin; p <= c.PriceMax; p += markStep {
		c.PriceMarks = append(c.PriceMarks, p)
	}

	if incidents != nil {
		c.Categories = append(c.Categories, incidents.Categories...)
	}
	return c
}

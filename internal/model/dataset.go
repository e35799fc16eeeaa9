package model

import "sort"

// Bin is one histogram bucket covering [Low, High). The last bucket of a
// histogram also includes High.
type Bin struct {
	Low   float64 `json:"range_low"`
	High  float64 `json:"range_high"`
	Count int     `json:"count"`
}

// HistogramBins is the price distribution for one room type under a price
// ceiling. Bins always tile the fixed display domain, empty ones included.
type HistogramBins struct {
	RoomType     string  `json:"room_type"`
	PriceCeiling float64 `json:"price_ceiling"`
	Bins         []Bin   `json:"bins"`
	Total        int     `json:"total"`
}

// RegionAverages maps neighbourhood name to the mean listing price after
// outlier exclusion. Only neighbourhoods with a known boundary are present.
type RegionAverages struct {
	RoomType   string             `json:"room_type"`
	Averages   map[string]float64 `json:"averages"`
	Counts     map[string]int     `json:"counts"`
	LowerFence float64            `json:"lower_fence"`
	UpperFence float64            `json:"upper_fence"`
	ColorRange [2]float64         `json:"color_range"`
}

// Names returns the neighbourhood names in sorted order.
func (r RegionAverages) Names() []string {
	names := make([]string, 0, len(r.Averages))
	for name := range r.Averages {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Empty reports whether no neighbourhood survived filtering and joining.
func (r RegionAverages) Empty() bool {
	return len(r.Averages) == 0
}

// Point is one incident ready for a point map.
type Point struct {
	Latitude   float64           `json:"latitude"`
	Longitude  float64           `json:"longitude"`
	Category   string            `json:"category,omitempty"`
	Label      string            `json:"label,omitempty"`
	Attributes map[string]string `json:"attributes,omitempty"`
}

// PointCollection is the filtered set of incidents for the crime map.
// Category is empty when every category is shown; Year is zero when the
// region is not restricted to a calendar year.
type PointCollection struct {
	Category string  `json:"category,omitempty"`
	Year     int     `json:"year,omitempty"`
	Points   []Point `json:"points"`
}

// Controls describes the user-facing filter widgets of a region page.
type Controls struct {
	RoomTypes           []string  `json:"room_types"`
	DefaultRoomType     string    `json:"default_room_type"`
	PriceMin            float64   `json:"price_min"`
	PriceMax            float64   `json:"price_max"`
	DefaultPriceCeiling float64   `json:"default_price_ceiling"`
	PriceMarks          []float64 `json:"price_marks"`
	Categories          []string  `json:"categories"`
}

// Count is a named tally used by source summaries.
type Count struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

package model

import "math"

// HotelRoom is the room type excluded from every listings table at load time.
const HotelRoom = "Hotel room"

// Listing is a single cleaned short-term-rental listing.
type Listing struct {
	ID           string  `json:"id,omitempty"`
	Neighborhood string  `json:"neighbourhood"`
	RoomType     string  `json:"room_type"`
	Price        float64 `json:"price"`
}

// Listings is the normalized listings table for one region. It is built once
// at startup and must be treated as read-only afterwards.
type Listings struct {
	Rows      []Listing `json:"-"`
	RoomTypes []string  `json:"room_types"` // first-seen order
	MinPrice  float64   `json:"min_price"`
	MaxPrice  float64   `json:"max_price"`
	Dropped   int       `json:"dropped"`
}

// NewListings builds a Listings table and derives the distinct room types
// and the observed price range.
func NewListings(rows []Listing, dropped int) *Listings {
	l := &Listings{Rows: rows, Dropped: dropped, RoomTypes: []string{}}
	if len(rows) == 0 {
		return l
	}

	seen := make(map[string]bool)
	l.MinPrice = math.Inf(1)
	l.MaxPrice = math.Inf(-1)
	for _, r := range rows {
		if !seen[r.RoomType] {
			seen[r.RoomType] = true
			l.RoomTypes = append(l.RoomTypes, r.RoomType)
		}
		l.MinPrice = math.Min(l.MinPrice, r.Price)
		l.MaxPrice = math.Max(l.MaxPrice, r.Price)
	}
	return l
}

// Len returns the number of rows.
func (l *Listings) Len() int {
	if l == nil {
		return 0
	}
	return len(l.Rows)
}

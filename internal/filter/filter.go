// Package filter holds the user-controlled parameters of a region page and
// validates changes to them.
package filter

import (
	"math"
	"strings"

	"github.com/rotisserie/eris"
)

// Field identifies one FilterState parameter. Fields combine as a bit set.
type Field uint8

// Filter fields.
const (
	RoomType Field = 1 << iota
	PriceCeiling
	CrimeCategory
)

// AllFields is every field; used for the initial computation of a page.
const AllFields = RoomType | PriceCeiling | CrimeCategory

// Has reports whether f includes every field of other.
func (f Field) Has(other Field) bool { return f&other == other }

// Intersects reports whether f and other share any field.
func (f Field) Intersects(other Field) bool { return f&other != 0 }

func (f Field) String() string {
	if f == 0 {
		return "none"
	}
	var parts []string
	for _, item := range []struct {
		field Field
		name  string
	}{{RoomType, "room_type"}, {PriceCeiling, "price_ceiling"}, {CrimeCategory, "crime_category"}} {
		if f.Has(item.field) {
			parts = append(parts, item.name)
		}
	}
	return strings.Join(parts, ",")
}

// Validation errors returned by Apply.
var (
	ErrUnknownRoomType  = eris.New("filter: unknown room type")
	ErrPriceOutOfRange  = eris.New("filter: price ceiling out of range")
	ErrUnknownCategory  = eris.New("filter: unknown crime category")
	ErrCategoryConflict = eris.New("filter: clear_category conflicts with crime_category")
)

// Bounds is the set of values a region accepts.
type Bounds struct {
	RoomTypes  []string
	PriceMin   float64
	PriceMax   float64
	Categories []string
	// DefaultCeiling is the initial price ceiling.
	DefaultCeiling float64
}

// State is an immutable snapshot of the filters. A nil CrimeCategory means
// every category.
type State struct {
	RoomType      string  `json:"room_type"`
	PriceCeiling  float64 `json:"price_ceiling"`
	CrimeCategory *string `json:"crime_category"`
}

// Category returns the category filter, or "" for all categories.
func (s State) Category() string {
	if s.CrimeCategory == nil {
		return ""
	}
	return *s.CrimeCategory
}

// Default is the state a page starts with: the first room type and the
// default ceiling, with no category filter.
func Default(b Bounds) State {
	s := State{PriceCeiling: b.DefaultCeiling}
	if len(b.RoomTypes) > 0 {
		s.RoomType = b.RoomTypes[0]
	}
	return s
}

// Change carries the fields a user event sets. Nil fields are untouched.
// ClearCategory resets the category filter to all categories and cannot be
// combined with a non-empty CrimeCategory.
type Change struct {
	RoomType      *string  `json:"room_type,omitempty"`
	PriceCeiling  *float64 `json:"price_ceiling,omitempty"`
	CrimeCategory *string  `json:"crime_category,omitempty"`
	ClearCategory bool     `json:"clear_category,omitempty"`
}

// Apply validates c against b and returns the new state together with the
// fields whose value actually changed. On error s is returned unchanged.
func Apply(s State, c Change, b Bounds) (State, Field, error) {
	next := s
	var changed Field

	if c.ClearCategory && c.CrimeCategory != nil && *c.CrimeCategory != "" {
		return s, 0, eris.Wrapf(ErrCategoryConflict, "category %q", *c.CrimeCategory)
	}

	if c.RoomType != nil {
		if !contains(b.RoomTypes, *c.RoomType) {
			return s, 0, eris.Wrapf(ErrUnknownRoomType, "room type %q", *c.RoomType)
		}
		if *c.RoomType != s.RoomType {
			next.RoomType = *c.RoomType
			changed |= RoomType
		}
	}

	if c.PriceCeiling != nil {
		p := *c.PriceCeiling
		if math.IsNaN(p) || p < b.PriceMin || p > b.PriceMax {
			return s, 0, eris.Wrapf(ErrPriceOutOfRange, "%v not in [%v, %v]", p, b.PriceMin, b.PriceMax)
		}
		if p != s.PriceCeiling {
			next.PriceCeiling = p
			changed |= PriceCeiling
		}
	}

	switch {
	case c.ClearCategory || (c.CrimeCategory != nil && *c.CrimeCategory == ""):
		if s.CrimeCategory != nil {
			next.CrimeCategory = nil
			changed |= CrimeCategory
		}
	case c.CrimeCategory != nil:
		cat := *c.CrimeCategory
		if !contains(b.Categories, cat) {
			return s, 0, eris.Wrapf(ErrUnknownCategory, "category %q", cat)
		}
		if s.Category() != cat {
			next.CrimeCategory = &cat
			changed |= CrimeCategory
		}
	}

	return next, changed, nil
}

func contains(values []string, v string) bool {
	for _, x := range values {
		if x == v {
			return true
		}
	}
	return false
}

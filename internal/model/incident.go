package model

import (
	"sort"
	"strconv"
	"strings"
	"time"
)

// Incident is a single geolocated crime record. Both concrete region shapes
// (shooting incidents, categorised crimes) are normalized into this type.
type Incident struct {
	Latitude   float64           `json:"latitude"`
	Longitude  float64           `json:"longitude"`
	Category   string            `json:"category,omitempty"`
	Label      string            `json:"label,omitempty"`
	RawDate    string            `json:"raw_date,omitempty"`
	OccurredAt *time.Time        `json:"occurred_at,omitempty"`
	Attributes map[string]string `json:"attributes,omitempty"`
}

// HasCoordinates reports whether the incident can be placed on a map.
func (i Incident) HasCoordinates() bool {
	return i.Latitude >= -90 && i.Latitude <= 90 &&
		i.Longitude >= -180 && i.Longitude <= 180
}

// InYear reports whether the incident occurred in the given calendar year.
// A parsed timestamp wins; otherwise the raw date text is searched for the year.
func (i Incident) InYear(year int) bool {
	if i.OccurredAt != nil {
		return i.OccurredAt.Year() == year
	}
	return i.RawDate != "" && strings.Contains(i.RawDate, strconv.Itoa(year))
}

// Incidents is the normalized incidents table for one region. Read-only
// after startup.
type Incidents struct {
	Rows        []Incident `json:"-"`
	Categories  []string   `json:"categories"` // sorted, distinct, non-empty
	HasCategory bool       `json:"has_category"`
	Dropped     int        `json:"dropped"`
}

// NewIncidents builds an Incidents table and derives the sorted category list.
func NewIncidents(rows []Incident, hasCategory bool, dropped int) *Incidents {
	inc := &Incidents{Rows: rows, HasCategory: hasCategory, Dropped: dropped, Categories: []string{}}
	if !hasCategory {
		return inc
	}

	seen := make(map[string]bool)
	for _, r := range rows {
		if r.Category == "" || seen[r.Category] {
			continue
		}
		seen[r.Category] = true
		inc.Categories = append(inc.Categories, r.Category)
	}
	sort.Strings(inc.Categories)
	return inc
}

// Len returns the number of rows.
func (inc *Incidents) Len() int {
	if inc == nil {
		return 0
	}
	return len(inc.Rows)
}

// Package aggregate derives display-ready datasets from the normalized
// listings and incidents tables. Every function is pure: identical inputs
// give identical outputs and no input is modified.
package aggregate

import "github.com/rotisserie/eris"

// Limits are the fixed display caps. They are deliberately independent of
// the user's filters so chart and map scales stay stable between events.
type Limits struct {
	// HistogramMax is the upper end of the histogram domain [0, HistogramMax]
	// and the largest accepted price ceiling.
	HistogramMax float64 `yaml:"histogram_max"`
	// HistogramBins is the number of equal-width histogram bins.
	HistogramBins int `yaml:"histogram_bins"`
	// AverageCap excludes listings above it from region averages.
	AverageCap float64 `yaml:"average_cap"`
	// FenceK is the Tukey fence multiplier applied to the IQR.
	FenceK float64 `yaml:"fence_k"`
}

// DefaultLimits returns the standard display caps.
func DefaultLimits() Limits {
	return Limits{
		HistogramMax:  600,
		HistogramBins: 50,
		AverageCap:    150,
		FenceK:        1.5,
	}
}

// WithDefaults fills zero fields from DefaultLimits.
func (l Limits) WithDefaults() Limits {
	d := DefaultLimits()
	if l.HistogramMax == 0 {
		l.HistogramMax = d.HistogramMax
	}
	if l.HistogramBins == 0 {
		l.HistogramBins = d.HistogramBins
	}
	if l.AverageCap == 0 {
		l.AverageCap = d.AverageCap
	}
	if l.FenceK == 0 {
		l.FenceK = d.FenceK
	}
	return l
}

// Validate rejects limits that cannot produce a well-formed dataset.
func (l Limits) Validate() error {
	switch {
	case l.HistogramMax <= 0:
		return eris.Errorf("aggregate: histogram_max must be positive, got %v", l.HistogramMax)
	case l.HistogramBins <= 0:
		return eris.Errorf("aggregate: histogram_bins must be positive, got %d", l.HistogramBins)
	case l.AverageCap <= 0:
		return eris.Errorf("aggregate: average_cap must be positive, got %v", l.AverageCap)
	case l.FenceK < 0:
		return eris.Errorf("aggregate: fence_k must not be negative, got %v", l.FenceK)
	}
	return nil
}

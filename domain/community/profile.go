package community

import (
	"math"

	"github.com/montanaflynn/stats"

	"biodelta/domain/diversity"
)

// sumTolerance is how far a sample's total may drift from 1 before the
// profile flags it as not normalized.
const sumTolerance = 0.01

// Profile describes a loaded sample for status display
type Profile struct {
	Rows      int
	Richness  int // species with a positive proportion
	Total     float64
	Min       float64
	Max       float64
	Evenness  float64
	SumsToOne bool
}

// ProfileOf summarizes the proportions of s. NaN cells are left out of the
// numeric summary.
func ProfileOf(s *Sample) Profile {
	profile := Profile{Rows: s.Len()}

	values := make(stats.Float64Data, 0, len(s.Proportions))
	for _, p := range s.Proportions {
		if !math.IsNaN(p) {
			values = append(values, p)
		}
	}
	profile.Richness = len(diversity.PositiveProportions(values))
	profile.Evenness = diversity.Evenness(values)

	// stats returns EmptyInputErr for an empty sample; zero values stand.
	if total, err := stats.Sum(values); err == nil {
		profile.Total = total
	}
	if lo, err := stats.Min(values); err == nil {
		profile.Min = lo
	}
	if hi, err := stats.Max(values); err == nil {
		profile.Max = hi
	}
	profile.SumsToOne = math.Abs(profile.Total-1) <= sumTolerance
	return profile
}

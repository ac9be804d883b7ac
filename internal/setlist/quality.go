// SPDX-License-Identifier: MIT

package setlist

import "sort"

// Quality scores a candidate in [0,1]:
//
//	0.5*artist_ratio + 0.3*count_term + 0.2*density_term
//
// where count_term saturates at 15 lines and density_term rewards a median
// gap between consecutive offsets that looks like full songs (2-7 minutes),
// decaying linearly to zero outside [30s, 1200s].
func Quality(lines []Line) float64 {
	if len(lines) == 0 {
		return 0
	}

	countTerm := float64(len(lines)) / 15
	if countTerm > 1 {
		countTerm = 1
	}

	return 0.5*ArtistRatio(lines) + 0.3*countTerm + 0.2*densityTerm(lines)
}

func densityTerm(lines []Line) float64 {
	if len(lines) < 2 {
		return 0
	}
	gaps := make([]float64, 0, len(lines)-1)
	for i := 1; i < len(lines); i++ {
		gaps = append(gaps, float64(lines[i].OffsetS-lines[i-1].OffsetS))
	}
	median := medianOf(gaps)

	switch {
	case median >= 120 && median <= 420:
		return 1
	case median >= 30 && median < 120:
		return (median - 30) / 90
	case median > 420 && median <= 1200:
		return (1200 - median) / 780
	default:
		return 0
	}
}

func medianOf(v []float64) float64 {
	sorted := append([]float64(nil), v...)
	sort.Float64s(sorted)
	mid := len(sorted) / 2
	if len(sorted)%2 == 1 {
		return sorted[mid]
	}
	return (sorted[mid-1] + sorted[mid]) / 2
}

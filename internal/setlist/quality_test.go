// SPDX-License-Identifier: MIT

package setlist

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func mkLines(gap, n int, withArtist bool) []Line {
	lines := make([]Line, n)
	for i := range lines {
		lines[i] = Line{OffsetS: i * gap, Song: "song"}
		if withArtist {
			lines[i].Artist = "artist"
		}
	}
	return lines
}

func TestQualityEmpty(t *testing.T) {
	assert.Zero(t, Quality(nil))
}

func TestQualityFullMarks(t *testing.T) {
	// 15+ lines, all with artists, 4-minute gaps: every term saturates.
	q := Quality(mkLines(240, 15, true))
	assert.InDelta(t, 1.0, q, 1e-9)
}

func TestQualityArtistRatioWeight(t *testing.T) {
	withArtists := Quality(mkLines(240, 15, true))
	without := Quality(mkLines(240, 15, false))
	assert.InDelta(t, 0.5, withArtists-without, 1e-9)
}

func TestQualityCountSaturation(t *testing.T) {
	few := Quality(mkLines(240, 5, true))
	many := Quality(mkLines(240, 30, true))
	assert.Less(t, few, many)
	assert.InDelta(t, 1.0, many, 1e-9)
}

func TestDensityTerm(t *testing.T) {
	tests := []struct {
		name string
		gap  int
		want float64
	}{
		{"sweet spot low", 120, 1},
		{"sweet spot high", 420, 1},
		{"too dense boundary", 30, 0},
		{"half decay below", 75, 0.5},
		{"too sparse boundary", 1200, 0},
		{"decaying above", 810, 0.5},
		{"way too dense", 5, 0},
		{"way too sparse", 2000, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, densityTerm(mkLines(tt.gap, 10, true)), 1e-9)
		})
	}
}

func TestDensityNeedsTwoLines(t *testing.T) {
	assert.Zero(t, densityTerm(mkLines(240, 1, true)))
}

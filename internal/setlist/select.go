// SPDX-License-Identifier: MIT

package setlist

import "math"

// minCandidateLines is the floor below which a candidate cannot represent
// a setlist at all.
const minCandidateLines = 3

// Select picks the single authoritative setlist for one video from the
// description candidate (may be nil) and the comment candidates.
//
// A strong description (quality >= 0.6 and at least five lines) wins
// outright. Otherwise comment candidates are ranked by quality plus a like
// bonus; ties break on line count, earlier publish time, then origin tag.
// When no comment qualifies, a description with at least three lines is
// still accepted. Returns nil when no candidate clears the floor.
func Select(description *Candidate, comments []Candidate) *Candidate {
	if description != nil && description.Quality >= 0.6 && len(description.Lines) >= 5 {
		return description
	}

	var best *Candidate
	var bestRank float64
	for i := range comments {
		c := &comments[i]
		if len(c.Lines) < minCandidateLines {
			continue
		}
		rank := c.Quality + 0.1*math.Log10(1+float64(c.Origin.LikeCount))
		if best == nil || rank > bestRank || (rank == bestRank && beats(c, best)) {
			best = c
			bestRank = rank
		}
	}
	if best != nil {
		return best
	}

	if description != nil && len(description.Lines) >= minCandidateLines {
		return description
	}
	return nil
}

// beats resolves rank ties: (a) more lines, (b) earlier comment publish
// time, (c) lexicographically smaller origin tag.
func beats(a, b *Candidate) bool {
	if len(a.Lines) != len(b.Lines) {
		return len(a.Lines) > len(b.Lines)
	}
	if !a.Origin.PublishedAt.Equal(b.Origin.PublishedAt) {
		return a.Origin.PublishedAt.Before(b.Origin.PublishedAt)
	}
	return a.Origin.Tag() < b.Origin.Tag()
}

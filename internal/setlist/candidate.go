// SPDX-License-Identifier: MIT

// Package setlist extracts time-coded song entries from free text and
// selects the single authoritative setlist per video from competing
// candidates.
package setlist

import (
	"fmt"
	"time"
)

// Line is one parsed timestamp entry.
type Line struct {
	OffsetS int
	Song    string
	Artist  string // empty when the payload had no artist part
	Raw     string // the original line, kept for diagnostics
}

// OriginKind tags where a candidate came from.
type OriginKind int

const (
	OriginDescription OriginKind = iota
	OriginComment
)

// Origin identifies a candidate's source. Comment origins carry the
// signals the selector ranks by.
type Origin struct {
	Kind         OriginKind
	CommentIndex int
	LikeCount    int64
	PublishedAt  time.Time
}

// Tag renders a stable origin label, used for diagnostics and as the final
// selector tie-break (lexicographic).
func (o Origin) Tag() string {
	if o.Kind == OriginDescription {
		return "description"
	}
	return fmt.Sprintf("comment:%03d", o.CommentIndex)
}

// Candidate is one extracted setlist with its ranking quality.
// Candidates live only for the duration of one video's processing.
type Candidate struct {
	Origin  Origin
	Lines   []Line
	Quality float64
}

// NewCandidate parses text into a candidate for the given origin.
func NewCandidate(origin Origin, text string) Candidate {
	lines := Extract(text)
	return Candidate{
		Origin:  origin,
		Lines:   lines,
		Quality: Quality(lines),
	}
}

// ArtistRatio is the fraction of lines carrying a non-empty artist.
func ArtistRatio(lines []Line) float64 {
	if len(lines) == 0 {
		return 0
	}
	withArtist := 0
	for _, l := range lines {
		if l.Artist != "" {
			withArtist++
		}
	}
	return float64(withArtist) / float64(len(lines))
}

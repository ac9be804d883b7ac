// SPDX-License-Identifier: MIT

// Package confidence scores how likely a video is a singing stream.
// Signals from the title, the description, the selected setlist and the
// comment corpus are summed into a raw score and clipped to [0, 1].
package confidence

import (
	"math"
	"regexp"

	"github.com/utawakulab/utacatalog/internal/setlist"
)

var (
	titleSingingPattern = regexp.MustCompile(`(?i)歌|歌枠|うた|singing|karaoke`)
	descSetlistPattern  = regexp.MustCompile(`(?i)歌|セトリ|setlist`)
	nonSingingPattern   = regexp.MustCompile(`(?i)ゲーム実況|gameplay|プレイ動画|雑談`)
)

// Weights holds the contribution of each signal. Values are tunable but
// MaxRaw must equal the sum of the maximum achievable positive weights or
// scores lose their [0, 1] anchoring.
type Weights struct {
	TitleSinging   int // title mentions singing
	DescSetlist    int // description mentions a setlist
	ManyLines      int // selected setlist has >= 10 lines
	ArtistHigh     int // artist ratio >= 0.8
	ArtistMid      int // artist ratio >= 0.5
	ArtistLow      int // artist ratio >= 0.2
	LongStream     int // duration >= 30 minutes
	CommentAnchors int // >= 3 timestamp anchors in the comment corpus
	NonSinging     int // title mentions gameplay or chat content

	MaxRaw int
}

// DefaultWeights returns the production weighting. MaxRaw 17 is the sum of
// the positive signals at their strongest.
func DefaultWeights() Weights {
	return Weights{
		TitleSinging:   3,
		DescSetlist:    2,
		ManyLines:      3,
		ArtistHigh:     5,
		ArtistMid:      3,
		ArtistLow:      1,
		LongStream:     2,
		CommentAnchors: 2,
		NonSinging:     5,
		MaxRaw:         17,
	}
}

// Signals carries the per-video inputs the scorer inspects. Selected is the
// winning candidate's lines, nil when no setlist was selected.
// CommentAnchorLines counts timestamp-anchored lines across the whole
// comment corpus, independent of which candidate won.
type Signals struct {
	Title              string
	Description        string
	DurationS          int64
	Selected           []setlist.Line
	CommentAnchorLines int
}

// Score computes the singing-stream confidence for one video, rounded to
// two decimals.
func Score(s Signals, w Weights) float64 {
	raw := 0

	if titleSingingPattern.MatchString(s.Title) {
		raw += w.TitleSinging
	}
	if descSetlistPattern.MatchString(s.Description) {
		raw += w.DescSetlist
	}
	if len(s.Selected) >= 10 {
		raw += w.ManyLines
	}
	switch ratio := setlist.ArtistRatio(s.Selected); {
	case len(s.Selected) == 0:
	case ratio >= 0.8:
		raw += w.ArtistHigh
	case ratio >= 0.5:
		raw += w.ArtistMid
	case ratio >= 0.2:
		raw += w.ArtistLow
	}
	if s.DurationS >= 1800 {
		raw += w.LongStream
	}
	if s.CommentAnchorLines >= 3 {
		raw += w.CommentAnchors
	}
	if nonSingingPattern.MatchString(s.Title) {
		raw -= w.NonSinging
	}

	score := float64(raw) / float64(w.MaxRaw)
	score = math.Max(0, math.Min(1, score))
	return math.Round(score*100) / 100
}

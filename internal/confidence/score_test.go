// SPDX-License-Identifier: MIT

package confidence

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/utawakulab/utacatalog/internal/setlist"
)

func linesWithArtists(total, withArtist int) []setlist.Line {
	lines := make([]setlist.Line, total)
	for i := range lines {
		lines[i] = setlist.Line{OffsetS: i * 240, Song: "song"}
		if i < withArtist {
			lines[i].Artist = "artist"
		}
	}
	return lines
}

func TestScoreFullMarks(t *testing.T) {
	s := Signals{
		Title:              "【歌枠】お昼のカラオケ",
		Description:        "今日のセトリはこちら",
		DurationS:          5400,
		Selected:           linesWithArtists(12, 12),
		CommentAnchorLines: 8,
	}
	assert.Equal(t, 1.0, Score(s, DefaultWeights()))
}

func TestScoreGameplayClipsToZero(t *testing.T) {
	s := Signals{Title: "【ゲーム実況】新作を遊ぶ", DurationS: 600}
	assert.Equal(t, 0.0, Score(s, DefaultWeights()))
}

func TestScorePenaltyReducesScore(t *testing.T) {
	base := Signals{
		Title:     "歌ってみた",
		DurationS: 3600,
		Selected:  linesWithArtists(12, 12),
	}
	penalized := base
	penalized.Title = "歌いながらゲーム実況"

	assert.Greater(t, Score(base, DefaultWeights()), Score(penalized, DefaultWeights()))
}

func TestScoreArtistRatioTiers(t *testing.T) {
	w := DefaultWeights()
	tests := []struct {
		name       string
		withArtist int
		want       float64
	}{
		{"high tier", 10, 0.47},  // 3 (>=10 lines) + 5, /17
		{"mid tier", 6, 0.35},    // 3 + 3
		{"low tier", 3, 0.24},    // 3 + 1
		{"below floor", 1, 0.18}, // 3 + 0
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := Signals{Selected: linesWithArtists(10, tt.withArtist)}
			assert.InDelta(t, tt.want, Score(s, w), 1e-9)
		})
	}
}

func TestScoreNoSetlistSkipsArtistSignal(t *testing.T) {
	s := Signals{Title: "singing stream", DurationS: 3600}
	// 3 (title) + 2 (duration) only.
	assert.InDelta(t, 0.29, Score(s, DefaultWeights()), 1e-9)
}

func TestScoreCommentAnchorBonus(t *testing.T) {
	w := DefaultWeights()
	with := Signals{CommentAnchorLines: 3}
	without := Signals{CommentAnchorLines: 2}
	assert.InDelta(t, float64(w.CommentAnchors)/float64(w.MaxRaw),
		Score(with, w)-Score(without, w), 0.01)
}

func TestScoreEnglishKeywords(t *testing.T) {
	w := DefaultWeights()
	assert.Greater(t, Score(Signals{Title: "Karaoke Night!"}, w), 0.0)
	assert.Greater(t, Score(Signals{Description: "full SETLIST below"}, w), 0.0)
	assert.Equal(t, 0.0, Score(Signals{Title: "Minecraft gameplay"}, w))
}

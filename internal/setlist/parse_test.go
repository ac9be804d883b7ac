// SPDX-License-Identifier: MIT

package setlist

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractSlashSetlist(t *testing.T) {
	text := "0:00 opening\n1:23 夜に駆ける / YOASOBI\n5:47 千本桜 / 初音ミク\n"

	lines := Extract(text)
	require.Len(t, lines, 3)

	assert.Equal(t, Line{OffsetS: 0, Song: "opening", Raw: "0:00 opening"}, lines[0])
	assert.Equal(t, 83, lines[1].OffsetS)
	assert.Equal(t, "夜に駆ける", lines[1].Song)
	assert.Equal(t, "YOASOBI", lines[1].Artist)
	assert.Equal(t, 347, lines[2].OffsetS)
	assert.Equal(t, "千本桜", lines[2].Song)
	assert.Equal(t, "初音ミク", lines[2].Artist)
}

func TestExtractAnchorForms(t *testing.T) {
	tests := []struct {
		name   string
		line   string
		offset int
		song   string
	}{
		{"m:ss", "3:05 曲A", 185, "曲A"},
		{"mm:ss", "59:59 曲B", 3599, "曲B"},
		{"triple-digit minutes", "125:30 曲C", 7530, "曲C"},
		{"h:mm:ss", "1:02:03 曲D", 3723, "曲D"},
		{"hh:mm:ss", "23:59:59 曲E", 86399, "曲E"},
		{"fullwidth separator", "12:34：曲F", 754, "曲F"},
		{"dash separator", "12:34 - 曲G", 754, "曲G"},
		{"paren separator", "12:34）曲H", 754, "曲H"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			lines := Extract(tt.line)
			require.Len(t, lines, 1)
			assert.Equal(t, tt.offset, lines[0].OffsetS)
			assert.Equal(t, tt.song, lines[0].Song)
		})
	}
}

func TestExtractSkipsNonAnchorLines(t *testing.T) {
	text := "今日のセトリ\nありがとう！\n1:23 曲 / 歌手\nまたね"
	lines := Extract(text)
	require.Len(t, lines, 1)
	assert.Equal(t, "曲", lines[0].Song)
}

func TestExtractDropsEmptyPayload(t *testing.T) {
	lines := Extract("1:23\n4:56   \n7:89 not a timestamp")
	assert.Empty(t, lines)
}

func TestSplitSongArtistRules(t *testing.T) {
	tests := []struct {
		name    string
		payload string
		song    string
		artist  string
	}{
		{"single slash", "夜に駆ける / YOASOBI", "夜に駆ける", "YOASOBI"},
		{"slash no spaces", "残酷な天使のテーゼ/高橋洋子", "残酷な天使のテーゼ", "高橋洋子"},
		{"two slashes fall through", "A/B/C", "A/B/C", ""},
		{"spaced hyphen", "Pretender - Official髭男dism", "Pretender", "Official髭男dism"},
		{"by lowercase", "Lemon by 米津玄師", "Lemon", "米津玄師"},
		{"by uppercase", "Lemon BY 米津玄師", "Lemon", "米津玄師"},
		{"paren artist", "白日(King Gnu)", "白日", "King Gnu"},
		{"paren with timestamp is not artist", "メドレー(1:23:45)", "メドレー(1:23:45)", ""},
		{"no separator", "アイドル", "アイドル", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			song, artist := splitSongArtist(tt.payload)
			assert.Equal(t, tt.song, song)
			assert.Equal(t, tt.artist, artist)
		})
	}
}

func TestExtractStripsNumbering(t *testing.T) {
	text := "1:00 01. 曲A / 歌手A\n3:00 (2) 曲B / 歌手B\n5:00 3) 曲C / 歌手C\n7:00 365日の紙飛行機 / AKB48"
	lines := Extract(text)
	require.Len(t, lines, 4)
	assert.Equal(t, "曲A", lines[0].Song)
	assert.Equal(t, "曲B", lines[1].Song)
	assert.Equal(t, "曲C", lines[2].Song)
	// A song title starting with digits is not numbering.
	assert.Equal(t, "365日の紙飛行機", lines[3].Song)
}

func TestExtractMonotonicityFilter(t *testing.T) {
	// The fourth entry jumps 100s backwards and must be dropped.
	text := "1:00 曲A\n5:00 曲B\n9:00 曲C\n7:20 曲X\n12:00 曲D"
	lines := Extract(text)
	require.Len(t, lines, 4)

	prev := -1
	for _, l := range lines {
		assert.Greater(t, l.OffsetS, prev)
		prev = l.OffsetS
	}
	for _, l := range lines {
		assert.NotEqual(t, "曲X", l.Song)
	}
}

func TestExtractCollapsesEqualOffsets(t *testing.T) {
	text := "1:00 曲A\n1:00 曲B\n2:00 曲C"
	lines := Extract(text)
	require.Len(t, lines, 2)
	assert.Equal(t, "曲A", lines[0].Song)
	assert.Equal(t, "曲C", lines[1].Song)
}

func TestExtractFoldsCommentHTML(t *testing.T) {
	text := "0:30 曲A / 歌手A<br>2:45 曲B &amp; 曲C / 歌手B"
	lines := Extract(text)
	require.Len(t, lines, 2)
	assert.Equal(t, "曲B & 曲C", lines[1].Song)
}

func TestAnchorLineCount(t *testing.T) {
	desc := "1:00 a\nno anchor\n2:00 b"
	comment := "3:00 c"
	assert.Equal(t, 3, AnchorLineCount(desc, comment))
}

// SPDX-License-Identifier: MIT

package catalog

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mkRow(videoID string, offset int, song, artist string, conf float64) Row {
	return Row{
		Song:           song,
		Artist:         artist,
		NormalizedSong: NormalizeTitle(song),
		Genre:          "その他",
		OffsetS:        offset,
		StreamDate:     "2026-08-20",
		VideoID:        videoID,
		ChannelID:      "UCabcdefghijklmnopqrstuv",
		Confidence:     conf,
	}
}

func TestSaveLoadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "catalog.csv")
	c := &Catalog{Rows: []Row{
		mkRow("vid1", 83, "夜に駆ける", "YOASOBI", 0.88),
		mkRow("vid1", 5025, "千本桜", "初音ミク", 0.88),
	}}
	require.NoError(t, c.Save(path))

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(raw), "\ufeff"), "missing BOM")
	assert.Contains(t, string(raw), "No,曲,歌手-ユニット,検索用,ジャンル,タイムスタンプ,配信日,動画ID,確度スコア,チャンネルID")
	assert.Contains(t, string(raw), "1:23:45")

	loaded, err := Load(path)
	require.NoError(t, err)
	if diff := cmp.Diff(c.Rows, loaded.Rows); diff != "" {
		t.Fatalf("rows changed across save/load (-want +got):\n%s", diff)
	}
}

func TestLoadMissingFileIsEmpty(t *testing.T) {
	c, err := Load(filepath.Join(t.TempDir(), "nope.csv"))
	require.NoError(t, err)
	assert.Empty(t, c.Rows)
}

func TestLoadRejectsBadHeader(t *testing.T) {
	path := filepath.Join(t.TempDir(), "catalog.csv")
	require.NoError(t, os.WriteFile(path, []byte("a,b,c,d,e,f,g,h,i,j\n"), 0o644))

	_, err := Load(path)
	var ie *IntegrityError
	require.ErrorAs(t, err, &ie)
	assert.Contains(t, ie.Detail, "unexpected header")
}

func TestLoadRejectsDuplicateKey(t *testing.T) {
	path := filepath.Join(t.TempDir(), "catalog.csv")
	c := &Catalog{Rows: []Row{
		mkRow("vid1", 83, "曲A", "", 0.5),
		mkRow("vid1", 200, "曲B", "", 0.5),
	}}
	require.NoError(t, c.Save(path))

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	// Duplicate the first data row to corrupt the key space.
	lines := strings.Split(strings.TrimSpace(string(raw)), "\n")
	lines = append(lines, lines[1])
	require.NoError(t, os.WriteFile(path, []byte(strings.Join(lines, "\n")+"\n"), 0o644))

	_, err = Load(path)
	var ie *IntegrityError
	require.ErrorAs(t, err, &ie)
	assert.Contains(t, ie.Detail, "duplicate key")
}

func TestMergeInsertAndUpdate(t *testing.T) {
	c := &Catalog{Rows: []Row{mkRow("vid1", 83, "曲A", "", 0.50)}}

	ins, upd := c.Merge([]Row{
		mkRow("vid1", 83, "曲A", "歌手A", 0.50),  // fills empty artist
		mkRow("vid1", 200, "曲B", "歌手B", 0.60), // new key
	})
	assert.Equal(t, 1, ins)
	assert.Equal(t, 1, upd)
	require.Len(t, c.Rows, 2)
	assert.Equal(t, "歌手A", c.Rows[0].Artist)
	assert.InDelta(t, 0.50, c.Rows[0].Confidence, 1e-9)

	// Higher confidence replaces the whole row.
	ins, upd = c.Merge([]Row{mkRow("vid1", 83, "曲A改", "歌手A", 0.90)})
	assert.Zero(t, ins)
	assert.Equal(t, 1, upd)
	assert.Equal(t, "曲A改", c.Rows[0].Song)
	assert.InDelta(t, 0.90, c.Rows[0].Confidence, 1e-9)

	// Lower confidence with a non-empty existing artist changes nothing.
	ins, upd = c.Merge([]Row{mkRow("vid1", 83, "下書き", "別人", 0.10)})
	assert.Zero(t, ins)
	assert.Zero(t, upd)
	assert.Equal(t, "曲A改", c.Rows[0].Song)
}

func TestMergeIsIdempotent(t *testing.T) {
	rows := []Row{
		mkRow("vid1", 83, "曲A", "歌手A", 0.7),
		mkRow("vid2", 90, "曲B", "歌手B", 0.8),
	}
	c := &Catalog{}
	c.Merge(rows)
	ins, upd := c.Merge(rows)
	assert.Zero(t, ins)
	assert.Zero(t, upd)
	assert.Len(t, c.Rows, 2)
}

func TestDedupeGlobal(t *testing.T) {
	c := &Catalog{Rows: []Row{
		mkRow("vid1", 83, "夜に駆ける", "YOASOBI", 0.70),
		mkRow("vid1", 500, "ＹＯＡＳＯＢＩの曲", "YOASOBI", 0.70),
		// Same normalized song+artist+video as row 0, higher confidence.
		mkRow("vid1", 900, "夜に駆ける", "yoasobi", 0.90),
		// Same song in a different video survives.
		mkRow("vid2", 83, "夜に駆ける", "YOASOBI", 0.70),
	}}

	removed := c.DedupeGlobal()
	assert.Equal(t, 1, removed)
	require.Len(t, c.Rows, 3)
	assert.Equal(t, 900, c.Rows[1].OffsetS)
	assert.Equal(t, "vid2", c.Rows[2].VideoID)
}

func TestDedupeTieKeepsEarliestOffset(t *testing.T) {
	c := &Catalog{Rows: []Row{
		mkRow("vid1", 900, "曲A", "歌手A", 0.70),
		mkRow("vid1", 83, "曲A", "歌手A", 0.70),
	}}
	removed := c.DedupeGlobal()
	assert.Equal(t, 1, removed)
	require.Len(t, c.Rows, 1)
	assert.Equal(t, 83, c.Rows[0].OffsetS)
}

// SPDX-License-Identifier: MIT

package jobs

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	json "github.com/goccy/go-json"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/utawakulab/utacatalog/internal/catalog"
	"github.com/utawakulab/utacatalog/internal/config"
	"github.com/utawakulab/utacatalog/internal/genre"
	"github.com/utawakulab/utacatalog/internal/publish"
	"github.com/utawakulab/utacatalog/internal/watermark"
)

func newPipeline(t *testing.T, client PlatformClient, channels []config.Channel) *Pipeline {
	t.Helper()
	paths := PathsUnder(t.TempDir())

	// The harvester advances the same store the pipeline persists, mirroring
	// the CLI wiring.
	h := newHarvester(t, client, channels)
	wm, err := watermark.Open(paths.Watermarks)
	require.NoError(t, err)
	h.Watermarks = wm

	return &Pipeline{
		Harvester: h,
		Paths:     paths,
		Channels:  channels,
		Threshold: 0.7,
		Log:       zerolog.Nop(),
	}
}

func TestPipelineRunEndToEnd(t *testing.T) {
	client := newFakeClient()
	client.addVideo(chanA, "vid1", time.Date(2026, 8, 19, 0, 0, 0, 0, time.UTC), "【歌枠】karaoke", descSetlist)

	channels := enabled(chanA)
	p := newPipeline(t, client, channels)

	res, err := p.Run(context.Background(), RunOptions{})
	require.NoError(t, err)
	require.Len(t, res.Rows, 5)

	cat, err := catalog.Load(p.Paths.Catalog)
	require.NoError(t, err)
	assert.Len(t, cat.Rows, 5)

	raw, err := os.ReadFile(filepath.Join(p.Paths.OutDir, publish.AllFile))
	require.NoError(t, err)
	var doc publish.Document
	require.NoError(t, json.Unmarshal(raw, &doc))
	assert.Equal(t, 5, doc.TotalCount)

	raw, err = os.ReadFile(filepath.Join(p.Paths.OutDir, publish.ChannelsFile))
	require.NoError(t, err)
	var chans []publish.Channel
	require.NoError(t, json.Unmarshal(raw, &chans))
	require.Len(t, chans, 1)
	assert.Equal(t, chanA, chans[0].ID)
	assert.NotEmpty(t, chans[0].ThumbnailURL)

	// Watermarks landed on disk too.
	_, err = os.Stat(p.Paths.Watermarks)
	assert.NoError(t, err)
}

func TestPipelineRunIsIdempotent(t *testing.T) {
	client := newFakeClient()
	client.addVideo(chanA, "vid1", time.Date(2026, 8, 19, 0, 0, 0, 0, time.UTC), "【歌枠】karaoke", descSetlist)

	p := newPipeline(t, client, enabled(chanA))
	_, err := p.Run(context.Background(), RunOptions{})
	require.NoError(t, err)

	// A backfill of the same history must not duplicate rows.
	_, err = p.Run(context.Background(), RunOptions{Backfill: true})
	require.NoError(t, err)

	cat, err := catalog.Load(p.Paths.Catalog)
	require.NoError(t, err)
	assert.Len(t, cat.Rows, 5)
}

func TestRecheckChangesOnlyGenres(t *testing.T) {
	client := newFakeClient()
	client.addVideo(chanA, "vid1", time.Date(2026, 8, 19, 0, 0, 0, 0, time.UTC), "【歌枠】karaoke", descSetlist)

	p := newPipeline(t, client, enabled(chanA))
	_, err := p.Run(context.Background(), RunOptions{})
	require.NoError(t, err)

	before, err := catalog.Load(p.Paths.Catalog)
	require.NoError(t, err)

	// New rules map one artist; everything else must stay untouched.
	rules := config.GenreRules{ArtistToGenre: map[string]string{"初音ミク": "Vocaloid"}}
	classifier := genre.NewClassifier(rules, nil, nil, zerolog.Nop())

	changed, err := p.Recheck(context.Background(), classifier)
	require.NoError(t, err)
	assert.Equal(t, 1, changed)

	after, err := catalog.Load(p.Paths.Catalog)
	require.NoError(t, err)
	require.Len(t, after.Rows, len(before.Rows))
	for i, row := range after.Rows {
		if row.Artist == "初音ミク" {
			assert.Equal(t, "Vocaloid", row.Genre)
			continue
		}
		assert.Equal(t, before.Rows[i], row)
	}
}

func TestRecheckNoChangesSkipsWrite(t *testing.T) {
	client := newFakeClient()
	client.addVideo(chanA, "vid1", time.Date(2026, 8, 19, 0, 0, 0, 0, time.UTC), "【歌枠】karaoke", descSetlist)

	p := newPipeline(t, client, enabled(chanA))
	_, err := p.Run(context.Background(), RunOptions{})
	require.NoError(t, err)

	raw, err := os.ReadFile(p.Paths.Catalog)
	require.NoError(t, err)

	classifier := genre.NewClassifier(config.GenreRules{}, nil, nil, zerolog.Nop())
	changed, err := p.Recheck(context.Background(), classifier)
	require.NoError(t, err)
	assert.Zero(t, changed)

	// The stored file is byte-identical.
	again, err := os.ReadFile(p.Paths.Catalog)
	require.NoError(t, err)
	assert.Equal(t, raw, again)
}

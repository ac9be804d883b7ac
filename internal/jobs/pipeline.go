// SPDX-License-Identifier: MIT

package jobs

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"

	"github.com/utawakulab/utacatalog/internal/catalog"
	"github.com/utawakulab/utacatalog/internal/config"
	"github.com/utawakulab/utacatalog/internal/fsutil"
	"github.com/utawakulab/utacatalog/internal/genre"
	"github.com/utawakulab/utacatalog/internal/metrics"
	"github.com/utawakulab/utacatalog/internal/publish"
)

// Paths locates all persisted state under one data directory.
type Paths struct {
	Catalog    string
	Watermarks string
	GenreCache string
	OutDir     string
}

// PathsUnder returns the standard layout below dataDir.
func PathsUnder(dataDir string) Paths {
	return Paths{
		Catalog:    filepath.Join(dataDir, "catalog.csv"),
		Watermarks: filepath.Join(dataDir, "watermarks.json"),
		GenreCache: filepath.Join(dataDir, "genre_cache.json"),
		OutDir:     filepath.Join(dataDir, "out"),
	}
}

// Pipeline composes harvest, merge and publish into the CLI operations.
type Pipeline struct {
	Harvester *Harvester
	Paths     Paths
	Channels  []config.Channel
	Threshold float64
	Log       zerolog.Logger
}

// Run executes a full harvest pass: channels -> rows -> catalog merge ->
// publish. The returned result carries the quota flag the CLI maps to its
// exit code.
func (p *Pipeline) Run(ctx context.Context, opts RunOptions) (*Result, error) {
	res, err := p.Harvester.Harvest(ctx, opts)
	if err != nil {
		return nil, err
	}

	if err := p.mergeAndSave(res); err != nil {
		return res, err
	}
	if err := p.Harvester.Watermarks.Save(); err != nil {
		return res, err
	}
	if err := p.Publish(ctx, res.RunStart); err != nil {
		return res, err
	}

	p.Log.Info().
		Int("rows", len(res.Rows)).
		Int("videos", res.VideosScanned).
		Bool("quota_exhausted", res.QuotaExhausted).
		Str("event", "pipeline.run_done").
		Msg("harvest run complete")
	return res, nil
}

// mergeAndSave folds new rows into the canonical catalog under its
// advisory lock.
func (p *Pipeline) mergeAndSave(res *Result) error {
	lock, err := fsutil.AcquireLock(p.Paths.Catalog + ".lock")
	if err != nil {
		return fmt.Errorf("lock catalog: %w", err)
	}
	defer func() { _ = lock.Release() }()

	cat, err := catalog.Load(p.Paths.Catalog)
	if err != nil {
		return err
	}
	inserted, updated := cat.Merge(res.Rows)
	removed := cat.DedupeGlobal()
	cat.Sort(catalog.OrderDateDesc)
	if err := cat.Save(p.Paths.Catalog); err != nil {
		return err
	}
	metrics.CatalogRows.Set(float64(len(cat.Rows)))

	p.Log.Info().
		Int("inserted", inserted).
		Int("updated", updated).
		Int("deduped", removed).
		Int("total", len(cat.Rows)).
		Str("event", "pipeline.merged").
		Msg("catalog merged")
	return nil
}

// Publish re-derives the front-end JSONs from the stored catalog. Used both
// at the end of a harvest and standalone by the publish subcommand.
func (p *Pipeline) Publish(ctx context.Context, runStart time.Time) error {
	cat, err := catalog.Load(p.Paths.Catalog)
	if err != nil {
		return err
	}

	pub := publish.New(p.Paths.OutDir, p.Log)
	if err := pub.WriteTimestamps(cat, p.Threshold, runStart); err != nil {
		return err
	}
	return pub.WriteChannels(p.channelEntries(ctx))
}

// channelEntries builds channels.json entries in config order, decorating
// them with thumbnails when the platform client is available. Lookup
// failures degrade to name-only entries.
func (p *Pipeline) channelEntries(ctx context.Context) []publish.Channel {
	entries := make([]publish.Channel, 0, len(p.Channels))
	ids := make([]string, 0, len(p.Channels))
	for _, ch := range p.Channels {
		if !ch.Enabled {
			continue
		}
		entries = append(entries, publish.Channel{ID: ch.ChannelID, Name: ch.Name})
		ids = append(ids, ch.ChannelID)
	}

	if p.Harvester == nil || p.Harvester.Client == nil || len(ids) == 0 {
		return entries
	}
	infos, err := p.Harvester.Client.GetChannels(ctx, ids)
	if err != nil {
		p.Log.Warn().Err(err).Str("event", "pipeline.channel_info_failed").
			Msg("channel thumbnails unavailable")
		return entries
	}
	thumbs := make(map[string]string, len(infos))
	for _, info := range infos {
		thumbs[info.ID] = info.ThumbnailURL
	}
	for i := range entries {
		entries[i].ThumbnailURL = thumbs[entries[i].ID]
	}
	return entries
}

// Recheck re-runs genre classification over the stored catalog, e.g. after
// a rules file update. Only the genre column may change; rows whose
// classification is unchanged are written back identically.
func (p *Pipeline) Recheck(ctx context.Context, classifier *genre.Classifier) (int, error) {
	lock, err := fsutil.AcquireLock(p.Paths.Catalog + ".lock")
	if err != nil {
		return 0, fmt.Errorf("lock catalog: %w", err)
	}
	defer func() { _ = lock.Release() }()

	cat, err := catalog.Load(p.Paths.Catalog)
	if err != nil {
		return 0, err
	}

	changed := 0
	for i := range cat.Rows {
		row := &cat.Rows[i]
		g := classifier.Classify(ctx, row.Artist, row.Song)
		if g != row.Genre {
			row.Genre = g
			changed++
		}
	}
	if changed == 0 {
		return 0, nil
	}
	if err := cat.Save(p.Paths.Catalog); err != nil {
		return changed, err
	}
	p.Log.Info().Int("changed", changed).Str("event", "pipeline.recheck_done").
		Msg("genre recheck complete")
	return changed, nil
}

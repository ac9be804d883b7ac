// SPDX-License-Identifier: MIT

package main

import (
	"context"
	"errors"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"

	"github.com/utawakulab/utacatalog/internal/confidence"
	"github.com/utawakulab/utacatalog/internal/config"
	"github.com/utawakulab/utacatalog/internal/genre"
	"github.com/utawakulab/utacatalog/internal/jobs"
	"github.com/utawakulab/utacatalog/internal/log"
	"github.com/utawakulab/utacatalog/internal/watermark"
	"github.com/utawakulab/utacatalog/internal/youtube"
)

// app wires configuration into the pipeline for one CLI invocation.
type app struct {
	cfg        config.Run
	channels   []config.Channel
	classifier *genre.Classifier
	cache      *genre.Cache
	pipeline   *jobs.Pipeline
	log        zerolog.Logger
}

// newApp loads the secondary config files and builds the pipeline. The
// platform client is only constructed for commands that talk to the API;
// publish and classify-recheck work offline.
func newApp(cfg config.Run, configPath, command string) (*app, error) {
	channelsFile := cfg.ChannelsFile
	if channelsFile == "" {
		channelsFile = filepath.Join(filepath.Dir(configPath), "channels.json")
	}
	rulesFile := cfg.GenreRulesFile
	if rulesFile == "" {
		rulesFile = filepath.Join(filepath.Dir(configPath), "genre_rules.json")
	}

	channels, err := config.LoadChannels(channelsFile)
	if err != nil {
		return nil, err
	}
	rules, err := config.LoadGenreRules(rulesFile)
	if err != nil {
		return nil, err
	}

	paths := jobs.PathsUnder(cfg.DataDir)

	cache, err := genre.OpenCache(paths.GenreCache, 0)
	if err != nil {
		return nil, err
	}
	var lookup *genre.Lookup
	if cfg.MetadataLookup {
		lookup = genre.NewLookup(genre.LookupOptions{})
	}
	classifier := genre.NewClassifier(rules, cache, lookup, log.WithComponent("genre"))

	needsAPI := command == "update" || command == "backfill"
	var client *youtube.Client
	if needsAPI {
		key, err := cfg.APIKey()
		if err != nil {
			return nil, err
		}
		client = youtube.New(key, youtube.Options{
			RateUnitsPerSec: cfg.RateUnitsPerSec,
			Quota:           youtube.NewQuotaTracker(cfg.DailyQuotaUnits),
		})
	}

	a := &app{
		cfg:        cfg,
		channels:   channels,
		classifier: classifier,
		cache:      cache,
		log:        log.WithComponent("cli"),
	}
	a.pipeline = &jobs.Pipeline{
		Paths:     paths,
		Channels:  channels,
		Threshold: cfg.ConfidenceThreshold,
		Log:       log.WithComponent("pipeline"),
	}
	if client != nil {
		a.pipeline.Harvester = &jobs.Harvester{
			Client:              client,
			Channels:            channels,
			Classifier:          classifier,
			Weights:             confidence.DefaultWeights(),
			CommentsPerVideo:    cfg.CommentsPerVideo,
			MaxParallelChannels: cfg.MaxParallelChannels,
			Log:                 log.WithComponent("harvest"),
		}
	}
	return a, nil
}

// harvest runs update or backfill and maps the outcome to an exit code.
func (a *app) harvest(ctx context.Context, opts jobs.RunOptions) int {
	wm, err := watermark.Open(a.pipeline.Paths.Watermarks)
	if err != nil {
		return reportError(a.log, err)
	}
	a.pipeline.Harvester.Watermarks = wm

	res, err := a.pipeline.Run(ctx, opts)
	a.saveCache()
	if err != nil {
		return reportError(a.log, err)
	}
	if res.QuotaExhausted {
		a.log.Warn().Str("event", "cli.quota_exhausted").
			Msg("run ended early, daily quota exhausted")
		return exitQuota
	}
	// Channel-level failures stay contained: they are recorded in the
	// watermark statuses and retried next run, the run itself succeeded.
	if res.Failed() {
		a.log.Warn().Str("event", "cli.channels_failed").
			Msg("one or more channels failed, see watermark statuses")
	}
	return exitOK
}

func (a *app) publish(ctx context.Context) int {
	if err := a.pipeline.Publish(ctx, time.Now()); err != nil {
		return reportError(a.log, err)
	}
	return exitOK
}

func (a *app) recheck(ctx context.Context) int {
	changed, err := a.pipeline.Recheck(ctx, a.classifier)
	a.saveCache()
	if err != nil {
		return reportError(a.log, err)
	}
	a.log.Info().Int("changed", changed).Str("event", "cli.recheck_done").
		Msg("classification recheck finished")
	return exitOK
}

func (a *app) saveCache() {
	if err := a.cache.Save(); err != nil {
		a.log.Warn().Err(err).Str("event", "cli.cache_save_failed").
			Msg("genre cache not persisted")
	}
}

// reportError logs err and translates it to the exit code contract.
func reportError(logger zerolog.Logger, err error) int {
	logger.Error().Err(err).Str("event", "cli.failed").Msg("command failed")

	var cfgErr *config.Error
	if errors.As(err, &cfgErr) {
		return exitConfig
	}
	if youtube.IsQuota(err) {
		return exitQuota
	}
	// Everything else, including *catalog.IntegrityError, is an I/O class
	// failure.
	return exitIO
}

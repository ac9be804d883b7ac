// SPDX-License-Identifier: MIT

package jobs

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/utawakulab/utacatalog/internal/catalog"
	"github.com/utawakulab/utacatalog/internal/confidence"
	"github.com/utawakulab/utacatalog/internal/config"
	"github.com/utawakulab/utacatalog/internal/genre"
	"github.com/utawakulab/utacatalog/internal/log"
	"github.com/utawakulab/utacatalog/internal/metrics"
	"github.com/utawakulab/utacatalog/internal/watermark"
	"github.com/utawakulab/utacatalog/internal/youtube"
)

const (
	channelTimeout = 20 * time.Minute
	videoBatchSize = 50
)

// Harvester runs the per-channel harvest stages. One instance serves one
// run; it is safe for its internal goroutines only.
type Harvester struct {
	Client     PlatformClient
	Channels   []config.Channel
	Watermarks *watermark.Store
	Classifier *genre.Classifier
	Weights    confidence.Weights

	CommentsPerVideo    int
	MaxParallelChannels int

	Log zerolog.Logger

	// now is swapped in tests.
	now func() time.Time

	mu       sync.Mutex
	rows     []catalog.Row
	scanned  int
	statuses map[string]watermark.Status
	quotaHit bool
}

// Harvest processes every selected channel with bounded parallelism and
// returns the extracted rows. Watermarks are advanced in memory only;
// the caller persists them together with the catalog.
func (h *Harvester) Harvest(ctx context.Context, opts RunOptions) (*Result, error) {
	if h.now == nil {
		h.now = time.Now
	}
	h.mu.Lock()
	h.rows = nil
	h.scanned = 0
	h.quotaHit = false
	h.statuses = make(map[string]watermark.Status)
	h.mu.Unlock()
	runStart := h.now()

	channels := h.selectChannels(opts)
	if len(channels) == 0 {
		return nil, fmt.Errorf("no enabled channels match the run options")
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(h.MaxParallelChannels)
	for _, ch := range channels {
		g.Go(func() error {
			h.runChannel(gctx, ch, opts, runStart)
			return nil
		})
	}
	// Channel outcomes are recorded in statuses; only context cancellation
	// propagates here.
	if err := g.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	return &Result{
		RunStart:       runStart,
		Rows:           h.rows,
		VideosScanned:  h.scanned,
		QuotaExhausted: h.quotaHit,
		Statuses:       h.statuses,
	}, nil
}

func (h *Harvester) selectChannels(opts RunOptions) []config.Channel {
	var out []config.Channel
	for _, ch := range h.Channels {
		if !ch.Enabled {
			continue
		}
		if opts.OnlyChannel != "" && ch.ChannelID != opts.OnlyChannel {
			continue
		}
		out = append(out, ch)
	}
	return out
}

// runChannel processes one channel end to end and records its outcome.
// Errors never propagate to the errgroup so sibling channels keep going.
func (h *Harvester) runChannel(ctx context.Context, ch config.Channel, opts RunOptions, runStart time.Time) {
	ctx = log.ContextWithChannelID(ctx, ch.ChannelID)
	logger := log.Enrich(ctx, h.Log).With().Str("channel", ch.Name).Logger()

	// Once quota is gone, remaining channels are marked without spending
	// further API calls.
	h.mu.Lock()
	skip := h.quotaHit
	h.mu.Unlock()
	if skip {
		h.finishChannel(ch.ChannelID, watermark.StatusPartial, runStart, fmt.Errorf("quota exhausted before channel started"))
		logger.Warn().Str("event", "harvest.channel_skipped").Msg("skipping channel, quota exhausted")
		return
	}

	ctx, cancel := context.WithTimeout(ctx, channelTimeout)
	defer cancel()

	since := time.Time{}
	if !opts.Backfill {
		since = h.Watermarks.Get(ch.ChannelID).LastPublishedAt
	}

	rows, newest, videos, err := h.harvestChannel(ctx, ch, since, logger)

	h.mu.Lock()
	h.scanned += videos
	h.mu.Unlock()

	// Rows from an interrupted channel are discarded rather than merged; the
	// unchanged watermark re-harvests the whole window next run.
	switch {
	case err == nil:
		h.mu.Lock()
		h.rows = append(h.rows, rows...)
		h.Watermarks.Advance(ch.ChannelID, runStart, newest.PublishedAt, newest.ID)
		h.statuses[ch.ChannelID] = watermark.StatusOK
		h.mu.Unlock()
		metrics.ChannelRunsTotal.WithLabelValues(string(watermark.StatusOK)).Inc()
		logger.Info().Int("videos", videos).Int("rows", len(rows)).
			Str("event", "harvest.channel_done").Msg("channel complete")
	case youtube.IsQuota(err):
		h.mu.Lock()
		h.quotaHit = true
		h.mu.Unlock()
		h.finishChannel(ch.ChannelID, watermark.StatusPartial, runStart, err)
		logger.Warn().Err(err).Str("event", "harvest.quota").Msg("quota exhausted mid-channel")
	case ctx.Err() != nil:
		h.finishChannel(ch.ChannelID, watermark.StatusPartial, runStart, err)
		logger.Warn().Err(err).Str("event", "harvest.channel_interrupted").
			Msg("channel interrupted before completion")
	default:
		h.finishChannel(ch.ChannelID, watermark.StatusFailed, runStart, err)
		logger.Error().Err(err).Str("event", "harvest.channel_failed").Msg("channel failed")
	}
}

func (h *Harvester) finishChannel(channelID string, st watermark.Status, runStart time.Time, cause error) {
	h.mu.Lock()
	h.Watermarks.MarkFailed(channelID, runStart, st, cause)
	h.statuses[channelID] = st
	h.mu.Unlock()
	metrics.ChannelRunsTotal.WithLabelValues(string(st)).Inc()
}

// harvestChannel enumerates and extracts one channel. It returns the most
// recently published processed video so the watermark can advance, and the
// number of videos scanned.
func (h *Harvester) harvestChannel(ctx context.Context, ch config.Channel, since time.Time, logger zerolog.Logger) ([]catalog.Row, youtube.VideoRef, int, error) {
	var newest youtube.VideoRef

	refs, err := h.Client.ListUploads(ctx, ch.ChannelID, since)
	if err != nil {
		return nil, newest, 0, fmt.Errorf("list uploads: %w", err)
	}
	if len(refs) == 0 {
		logger.Debug().Str("event", "harvest.no_new_videos").Msg("channel is up to date")
		return nil, newest, 0, nil
	}

	var rows []catalog.Row
	processed := 0
	for start := 0; start < len(refs); start += videoBatchSize {
		end := min(start+videoBatchSize, len(refs))
		ids := make([]string, 0, end-start)
		for _, ref := range refs[start:end] {
			ids = append(ids, ref.ID)
		}

		videos, err := h.Client.GetVideos(ctx, ids)
		if err != nil {
			return rows, newest, processed, fmt.Errorf("get videos: %w", err)
		}

		for _, video := range videos {
			comments, err := h.Client.ListComments(ctx, video.ID, h.CommentsPerVideo)
			if err != nil {
				// Disabled comments are routine; the description alone can
				// still carry a setlist.
				if !youtube.IsNotFound(err) {
					return rows, newest, processed, fmt.Errorf("list comments for %s: %w", video.ID, err)
				}
				comments = nil
			}

			ext := extractVideo(ctx, video, comments, h.Classifier, h.Weights)
			processed++
			metrics.VideosProcessedTotal.Inc()
			if len(ext.Rows) > 0 {
				rows = append(rows, ext.Rows...)
				metrics.RowsEmittedTotal.Add(float64(len(ext.Rows)))
			}
			if video.PublishedAt.After(newest.PublishedAt) {
				newest = youtube.VideoRef{ID: video.ID, PublishedAt: video.PublishedAt}
			}

			logger.Debug().
				Str("video_id", video.ID).
				Str("origin", ext.OriginTag).
				Int("rows", len(ext.Rows)).
				Float64("confidence", ext.Confidence).
				Str("event", "harvest.video_done").
				Msg("video processed")
		}
	}
	return rows, newest, processed, nil
}

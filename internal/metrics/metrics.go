// SPDX-License-Identifier: MIT

// Package metrics provides Prometheus metrics for the harvest pipeline.
package metrics

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/utawakulab/utacatalog/internal/log"
)

var (
	// APICallsTotal counts platform API calls by endpoint and outcome
	// (ok, quota, transient, not_found, error).
	APICallsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "utacatalog_api_calls_total",
		Help: "Total platform API calls, by endpoint and outcome.",
	}, []string{"endpoint", "outcome"})

	// QuotaUnitsUsed counts estimated platform quota units spent this run.
	QuotaUnitsUsed = promauto.NewCounter(prometheus.CounterOpts{
		Name: "utacatalog_quota_units_used_total",
		Help: "Estimated platform API quota units consumed.",
	})

	// VideosProcessedTotal counts videos that went through the extraction stages.
	VideosProcessedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "utacatalog_videos_processed_total",
		Help: "Total videos fetched and parsed.",
	})

	// RowsEmittedTotal counts catalog rows emitted by the extraction stages.
	RowsEmittedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "utacatalog_rows_emitted_total",
		Help: "Total catalog rows emitted before merge.",
	})

	// ChannelRunsTotal counts per-channel outcomes (ok, partial, failed).
	ChannelRunsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "utacatalog_channel_runs_total",
		Help: "Total channel harvest outcomes, by status.",
	}, []string{"status"})

	// CatalogRows tracks the catalog size after the merge stage.
	CatalogRows = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "utacatalog_catalog_rows",
		Help: "Rows in the canonical catalog after the last merge.",
	})

	// PublishedRows tracks rows in the published JSONs by mode (singing, all).
	PublishedRows = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "utacatalog_published_rows",
		Help: "Rows in the published JSON documents, by mode.",
	}, []string{"mode"})

	// GenreLookupsTotal counts external metadata lookups by result
	// (hit, miss, cache_hit, error).
	GenreLookupsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "utacatalog_genre_lookups_total",
		Help: "External music-metadata lookups, by result.",
	}, []string{"result"})
)

// Serve exposes /metrics on addr until ctx is cancelled. Intended for long
// backfill runs; listen errors are not fatal to the harvest.
func Serve(ctx context.Context, addr string) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger := log.FromContext(ctx)
			logger.Warn().Err(err).
				Str("event", "metrics.listen_failed").Msg("metrics listener stopped")
		}
	}()
}

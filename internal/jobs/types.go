// SPDX-License-Identifier: MIT

// Package jobs drives the harvest pipeline: enumerate new videos per
// channel, extract and score setlists, merge them into the catalog and
// publish the derived documents.
package jobs

import (
	"context"
	"time"

	"github.com/utawakulab/utacatalog/internal/catalog"
	"github.com/utawakulab/utacatalog/internal/watermark"
	"github.com/utawakulab/utacatalog/internal/youtube"
)

// PlatformClient is the slice of the platform API the orchestrator needs.
// *youtube.Client satisfies it; tests substitute a scripted fake.
type PlatformClient interface {
	ListUploads(ctx context.Context, channelID string, since time.Time) ([]youtube.VideoRef, error)
	GetVideos(ctx context.Context, ids []string) ([]youtube.Video, error)
	ListComments(ctx context.Context, videoID string, max int) ([]youtube.Comment, error)
	GetChannels(ctx context.Context, ids []string) ([]youtube.ChannelInfo, error)
}

// RunOptions selects the harvest mode.
type RunOptions struct {
	// Backfill ignores watermarks and re-enumerates full channel histories.
	Backfill bool
	// OnlyChannel restricts the run to one channel id. Empty means all
	// enabled channels.
	OnlyChannel string
}

// Result summarizes one harvest pass over all channels.
type Result struct {
	RunStart       time.Time
	Rows           []catalog.Row
	VideosScanned  int
	QuotaExhausted bool
	Statuses       map[string]watermark.Status
}

// Failed reports whether any channel ended in a failed state.
func (r *Result) Failed() bool {
	for _, st := range r.Statuses {
		if st == watermark.StatusFailed {
			return true
		}
	}
	return false
}

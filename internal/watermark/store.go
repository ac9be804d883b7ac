// SPDX-License-Identifier: MIT

// Package watermark persists per-channel harvest progress so incremental
// runs only touch videos published after the previous successful pass.
package watermark

import (
	"fmt"
	"os"
	"time"

	json "github.com/goccy/go-json"

	"github.com/utawakulab/utacatalog/internal/fsutil"
)

// Status records how a channel's last run ended.
type Status string

const (
	StatusOK      Status = "ok"
	StatusPartial Status = "partial"
	StatusFailed  Status = "failed"
)

// Watermark is one channel's progress record.
type Watermark struct {
	ChannelID       string    `json:"channel_id"`
	LastRunAt       time.Time `json:"last_run_at"`
	LastVideoID     string    `json:"last_video_id,omitempty"`
	LastPublishedAt time.Time `json:"last_published_at"`
	Status          Status    `json:"status"`
	LastError       string    `json:"last_error,omitempty"`
}

// Store holds all channel watermarks and knows how to persist them
// atomically.
type Store struct {
	path  string
	marks map[string]Watermark
}

// Open loads the watermark file at path. Missing file means first run:
// every channel starts from the epoch.
func Open(path string) (*Store, error) {
	s := &Store{path: path, marks: make(map[string]Watermark)}

	raw, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return s, nil
		}
		return nil, fmt.Errorf("read watermarks %s: %w", path, err)
	}
	if err := json.Unmarshal(raw, &s.marks); err != nil {
		return nil, fmt.Errorf("parse watermarks %s: %w", path, err)
	}
	return s, nil
}

// Get returns the channel's watermark. Unknown channels get a zero mark,
// whose LastPublishedAt (zero time) makes every video count as new.
func (s *Store) Get(channelID string) Watermark {
	if wm, ok := s.marks[channelID]; ok {
		return wm
	}
	return Watermark{ChannelID: channelID}
}

// Advance records a completed channel pass. LastPublishedAt never moves
// backwards so a reprocessed old video cannot shrink the incremental
// window.
func (s *Store) Advance(channelID string, runAt, publishedAt time.Time, videoID string) {
	wm := s.Get(channelID)
	wm.LastRunAt = runAt
	wm.Status = StatusOK
	wm.LastError = ""
	if publishedAt.After(wm.LastPublishedAt) {
		wm.LastPublishedAt = publishedAt
		wm.LastVideoID = videoID
	}
	s.marks[channelID] = wm
}

// MarkFailed records an unsuccessful channel pass without touching the
// progress fields, so the next run retries the same window.
func (s *Store) MarkFailed(channelID string, runAt time.Time, status Status, cause error) {
	wm := s.Get(channelID)
	wm.LastRunAt = runAt
	wm.Status = status
	if cause != nil {
		wm.LastError = cause.Error()
	}
	s.marks[channelID] = wm
}

// Save writes all watermarks atomically.
func (s *Store) Save() error {
	raw, err := json.MarshalIndent(s.marks, "", "  ")
	if err != nil {
		return fmt.Errorf("encode watermarks: %w", err)
	}
	return fsutil.WriteFileAtomic(s.path, raw)
}

// SPDX-License-Identifier: MIT

// Package publish projects the catalog into the JSON documents the static
// front-end consumes.
package publish

import (
	"fmt"
	"path/filepath"
	"time"

	json "github.com/goccy/go-json"
	"github.com/rs/zerolog"

	"github.com/utawakulab/utacatalog/internal/catalog"
	"github.com/utawakulab/utacatalog/internal/fsutil"
	"github.com/utawakulab/utacatalog/internal/metrics"
)

const (
	SingingFile  = "timestamps_singing.json"
	AllFile      = "timestamps_all.json"
	ChannelsFile = "channels.json"
)

// Entry mirrors one catalog row under the front-end's Japanese keys.
type Entry struct {
	No         int     `json:"No"`
	Song       string  `json:"曲"`
	Artist     string  `json:"歌手-ユニット"`
	SearchKey  string  `json:"検索用"`
	Genre      string  `json:"ジャンル"`
	Timestamp  string  `json:"タイムスタンプ"`
	StreamDate string  `json:"配信日"`
	VideoID    string  `json:"動画ID"`
	Confidence float64 `json:"確度スコア"`
	ChannelID  string  `json:"チャンネルID"`
}

// Document is the envelope of both timestamp files.
type Document struct {
	LastUpdated string  `json:"last_updated"`
	TotalCount  int     `json:"total_count"`
	Timestamps  []Entry `json:"timestamps"`
}

// Channel is one entry of channels.json, emitted in config order.
type Channel struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	ThumbnailURL string `json:"thumbnail_url,omitempty"`
}

// Publisher writes the derived JSON artifacts into one output directory.
type Publisher struct {
	outDir string
	log    zerolog.Logger
}

func New(outDir string, log zerolog.Logger) *Publisher {
	return &Publisher{outDir: outDir, log: log}
}

// WriteTimestamps derives both timestamp documents from the catalog. The
// singing file carries only rows at or above the confidence threshold; the
// all file carries every row. Entry numbering restarts per document.
func (p *Publisher) WriteTimestamps(c *catalog.Catalog, threshold float64, runStart time.Time) error {
	lastUpdated := runStart.UTC().Format(time.RFC3339)

	all := make([]Entry, 0, len(c.Rows))
	singing := make([]Entry, 0, len(c.Rows))
	for _, row := range c.Rows {
		e := toEntry(row)
		all = append(all, e)
		if row.Confidence >= threshold {
			singing = append(singing, e)
		}
	}
	renumber(all)
	renumber(singing)

	if err := p.writeDocument(SingingFile, Document{
		LastUpdated: lastUpdated,
		TotalCount:  len(singing),
		Timestamps:  singing,
	}); err != nil {
		return err
	}
	metrics.PublishedRows.WithLabelValues("singing").Set(float64(len(singing)))

	if err := p.writeDocument(AllFile, Document{
		LastUpdated: lastUpdated,
		TotalCount:  len(all),
		Timestamps:  all,
	}); err != nil {
		return err
	}
	metrics.PublishedRows.WithLabelValues("all").Set(float64(len(all)))

	p.log.Info().
		Int("singing_rows", len(singing)).
		Int("all_rows", len(all)).
		Str("event", "publish.timestamps").
		Msg("published timestamp documents")
	return nil
}

// WriteChannels emits channels.json preserving the given order.
func (p *Publisher) WriteChannels(channels []Channel) error {
	raw, err := json.MarshalIndent(channels, "", "  ")
	if err != nil {
		return fmt.Errorf("encode %s: %w", ChannelsFile, err)
	}
	return fsutil.WriteFileAtomic(filepath.Join(p.outDir, ChannelsFile), raw)
}

func toEntry(row catalog.Row) Entry {
	return Entry{
		Song:       row.Song,
		Artist:     row.Artist,
		SearchKey:  row.NormalizedSong,
		Genre:      row.Genre,
		Timestamp:  row.TimestampHMS(),
		StreamDate: row.StreamDate,
		VideoID:    row.VideoID,
		Confidence: row.Confidence,
		ChannelID:  row.ChannelID,
	}
}

func renumber(entries []Entry) {
	for i := range entries {
		entries[i].No = i + 1
	}
}

func (p *Publisher) writeDocument(name string, doc Document) error {
	raw, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("encode %s: %w", name, err)
	}
	return fsutil.WriteFileAtomic(filepath.Join(p.outDir, name), raw)
}

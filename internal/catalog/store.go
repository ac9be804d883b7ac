// SPDX-License-Identifier: MIT

package catalog

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/utawakulab/utacatalog/internal/fsutil"
	"github.com/utawakulab/utacatalog/internal/setlist"
)

// csvHeader is the stable schema of the canonical file. The front-end and
// operator spreadsheets key off these exact column names.
var csvHeader = []string{
	"No", "曲", "歌手-ユニット", "検索用", "ジャンル",
	"タイムスタンプ", "配信日", "動画ID", "確度スコア", "チャンネルID",
}

// utf8BOM keeps the file opening correctly in spreadsheet tools that
// mis-detect unmarked UTF-8.
var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// Catalog is the in-memory canonical dataset.
type Catalog struct {
	Rows []Row
}

// Load reads the catalog CSV at path. A missing file yields an empty
// catalog. Schema or key violations return *IntegrityError.
func Load(path string) (*Catalog, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return &Catalog{}, nil
		}
		return nil, fmt.Errorf("read catalog %s: %w", path, err)
	}
	raw = bytes.TrimPrefix(raw, utf8BOM)

	r := csv.NewReader(bytes.NewReader(raw))
	r.FieldsPerRecord = len(csvHeader)
	records, err := r.ReadAll()
	if err != nil {
		return nil, &IntegrityError{Path: path, Detail: err.Error()}
	}
	if len(records) == 0 {
		return &Catalog{}, nil
	}
	if !equalHeader(records[0]) {
		return nil, &IntegrityError{Path: path, Detail: "unexpected header: " + strings.Join(records[0], ",")}
	}

	c := &Catalog{Rows: make([]Row, 0, len(records)-1)}
	seen := make(map[RowKey]struct{}, len(records)-1)
	for i, rec := range records[1:] {
		row, err := parseRecord(rec)
		if err != nil {
			return nil, &IntegrityError{Path: path, Detail: fmt.Sprintf("line %d: %v", i+2, err)}
		}
		if _, dup := seen[row.Key()]; dup {
			return nil, &IntegrityError{
				Path:   path,
				Detail: fmt.Sprintf("duplicate key %s@%d", row.VideoID, row.OffsetS),
			}
		}
		seen[row.Key()] = struct{}{}
		c.Rows = append(c.Rows, row)
	}
	return c, nil
}

func equalHeader(got []string) bool {
	if len(got) != len(csvHeader) {
		return false
	}
	for i := range csvHeader {
		if strings.TrimSpace(got[i]) != csvHeader[i] {
			return false
		}
	}
	return true
}

func parseRecord(rec []string) (Row, error) {
	offset, err := setlist.ParseHMS(rec[5])
	if err != nil {
		return Row{}, fmt.Errorf("timestamp %q: %w", rec[5], err)
	}
	conf, err := strconv.ParseFloat(rec[8], 64)
	if err != nil {
		return Row{}, fmt.Errorf("confidence %q: %w", rec[8], err)
	}
	if conf < 0 || conf > 1 {
		return Row{}, fmt.Errorf("confidence %v out of range", conf)
	}
	if rec[7] == "" {
		return Row{}, fmt.Errorf("empty video id")
	}
	return Row{
		Song:           rec[1],
		Artist:         rec[2],
		NormalizedSong: rec[3],
		Genre:          rec[4],
		OffsetS:        offset,
		StreamDate:     rec[6],
		VideoID:        rec[7],
		ChannelID:      rec[9],
		Confidence:     conf,
	}, nil
}

// Save writes the catalog atomically. Row numbers are assigned here,
// 1-based in current order.
func (c *Catalog) Save(path string) error {
	var buf bytes.Buffer
	buf.Write(utf8BOM)

	w := csv.NewWriter(&buf)
	if err := w.Write(csvHeader); err != nil {
		return fmt.Errorf("write catalog header: %w", err)
	}
	for i, row := range c.Rows {
		rec := []string{
			strconv.Itoa(i + 1),
			row.Song,
			row.Artist,
			row.NormalizedSong,
			row.Genre,
			row.TimestampHMS(),
			row.StreamDate,
			row.VideoID,
			strconv.FormatFloat(row.Confidence, 'f', 2, 64),
			row.ChannelID,
		}
		if err := w.Write(rec); err != nil {
			return fmt.Errorf("write catalog row %d: %w", i+1, err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("flush catalog: %w", err)
	}

	return fsutil.WriteFileAtomic(path, buf.Bytes())
}

// Merge folds newRows into the catalog. Rows with an unseen
// (video_id, offset) key are appended. An existing row is replaced only
// when the incoming row has strictly higher confidence; an incoming artist
// also fills a previously empty one. Returns inserted and updated counts.
func (c *Catalog) Merge(newRows []Row) (inserted, updated int) {
	index := make(map[RowKey]int, len(c.Rows))
	for i, row := range c.Rows {
		index[row.Key()] = i
	}

	for _, nr := range newRows {
		i, ok := index[nr.Key()]
		if !ok {
			index[nr.Key()] = len(c.Rows)
			c.Rows = append(c.Rows, nr)
			inserted++
			continue
		}
		cur := &c.Rows[i]
		switch {
		case nr.Confidence > cur.Confidence:
			*cur = nr
			updated++
		case cur.Artist == "" && nr.Artist != "":
			cur.Artist = nr.Artist
			updated++
		}
	}
	return inserted, updated
}

// DedupeGlobal collapses rows whose (normalized_song, normalized_artist,
// video_id) collide, keeping the highest confidence; ties keep the earliest
// offset. Surviving rows retain their relative order. Returns the number of
// rows removed.
func (c *Catalog) DedupeGlobal() int {
	type dedupeKey struct {
		song, artist, videoID string
	}

	best := make(map[dedupeKey]int, len(c.Rows))
	for i, row := range c.Rows {
		k := dedupeKey{
			song:    row.NormalizedSong,
			artist:  NormalizeTitle(row.Artist),
			videoID: row.VideoID,
		}
		j, ok := best[k]
		if !ok {
			best[k] = i
			continue
		}
		winner := c.Rows[j]
		if row.Confidence > winner.Confidence ||
			(row.Confidence == winner.Confidence && row.OffsetS < winner.OffsetS) {
			best[k] = i
		}
	}

	keep := make(map[int]struct{}, len(best))
	for _, i := range best {
		keep[i] = struct{}{}
	}
	if len(keep) == len(c.Rows) {
		return 0
	}

	kept := make([]Row, 0, len(keep))
	for i, row := range c.Rows {
		if _, ok := keep[i]; ok {
			kept = append(kept, row)
		}
	}
	removed := len(c.Rows) - len(kept)
	c.Rows = kept
	return removed
}

// SPDX-License-Identifier: MIT

// Package catalog owns the canonical tabular dataset: the on-disk CSV
// format, merge and dedupe semantics, and locale-aware ordering.
package catalog

import (
	"fmt"

	"github.com/utawakulab/utacatalog/internal/setlist"
)

// Row is one persisted catalog entry. (VideoID, OffsetS) is the primary
// key after merge; the serialized row number is assigned only when writing.
type Row struct {
	Song           string
	Artist         string
	NormalizedSong string
	Genre          string
	OffsetS        int
	StreamDate     string // ISO-8601 date, JST
	VideoID        string
	ChannelID      string
	Confidence     float64
}

// Key returns the merge identity of the row.
func (r Row) Key() RowKey {
	return RowKey{VideoID: r.VideoID, OffsetS: r.OffsetS}
}

// RowKey identifies a row within one video.
type RowKey struct {
	VideoID string
	OffsetS int
}

// TimestampHMS renders the row's offset in the catalog's display format.
func (r Row) TimestampHMS() string {
	return setlist.RenderHMS(r.OffsetS)
}

// IntegrityError reports a violated catalog invariant, e.g. a duplicate
// primary key in the stored file. The CLI maps it to its own exit code.
type IntegrityError struct {
	Path   string
	Detail string
}

func (e *IntegrityError) Error() string {
	return fmt.Sprintf("catalog integrity: %s: %s", e.Path, e.Detail)
}

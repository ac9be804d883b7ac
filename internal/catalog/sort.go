// SPDX-License-Identifier: MIT

package catalog

import (
	"fmt"
	"sort"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"
)

// Order selects a catalog sort key.
type Order string

const (
	OrderDateDesc  Order = "date-desc"
	OrderDateAsc   Order = "date-asc"
	OrderSongAsc   Order = "song-asc"
	OrderArtistAsc Order = "artist-asc"
)

// ParseOrder validates an order name from config or flags.
func ParseOrder(s string) (Order, error) {
	switch Order(s) {
	case OrderDateDesc, OrderDateAsc, OrderSongAsc, OrderArtistAsc:
		return Order(s), nil
	}
	return "", fmt.Errorf("unknown sort order %q", s)
}

// Sort orders the rows. Song and artist orderings use Japanese collation so
// kana and kanji titles sort the way a Japanese reader expects; date
// orderings fall back to offset within one video for stability.
func (c *Catalog) Sort(order Order) {
	coll := collate.New(language.Japanese)

	sort.SliceStable(c.Rows, func(i, j int) bool {
		a, b := c.Rows[i], c.Rows[j]
		switch order {
		case OrderDateAsc:
			if a.StreamDate != b.StreamDate {
				return a.StreamDate < b.StreamDate
			}
		case OrderSongAsc:
			if cmp := coll.CompareString(a.Song, b.Song); cmp != 0 {
				return cmp < 0
			}
		case OrderArtistAsc:
			if cmp := coll.CompareString(a.Artist, b.Artist); cmp != 0 {
				return cmp < 0
			}
		default: // OrderDateDesc
			if a.StreamDate != b.StreamDate {
				return a.StreamDate > b.StreamDate
			}
		}
		if a.VideoID != b.VideoID {
			return a.VideoID < b.VideoID
		}
		return a.OffsetS < b.OffsetS
	})
}

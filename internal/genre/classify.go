// SPDX-License-Identifier: MIT

// Package genre maps (artist, song) pairs to catalog genre labels using a
// layered rule set: curated exact mappings, keyword categories, then an
// optional cached external metadata lookup.
package genre

import (
	"context"
	"strings"

	"github.com/rs/zerolog"

	"github.com/utawakulab/utacatalog/internal/config"
	"github.com/utawakulab/utacatalog/internal/log"
	"github.com/utawakulab/utacatalog/internal/metrics"
)

// DefaultLabel is the genre of last resort.
const DefaultLabel = "その他"

// nonSongKeywords marks artist-less payloads that are stream segments
// rather than songs (waiting screens, chatting, game sections). Such rows
// keep the default label and never trigger an external lookup.
var nonSongKeywords = []string{
	"待機", "雑談", "ゲーム", "トーク", "挨拶", "休憩",
	"お知らせ", "告知", "コメント返し", "枠",
	"opening", "ending", "intro", "outro", "start", "talk", "chat", "mc",
}

// Classifier applies the ordered genre rules. Cache and Lookup are optional;
// without them rule 4 is skipped and unmatched rows get DefaultLabel.
type Classifier struct {
	rules  config.GenreRules
	cache  *Cache
	lookup *Lookup
	log    zerolog.Logger
}

// NewClassifier builds a classifier over the given rules. cache and lookup
// may be nil to disable external metadata resolution.
func NewClassifier(rules config.GenreRules, cache *Cache, lookup *Lookup, log zerolog.Logger) *Classifier {
	return &Classifier{rules: rules, cache: cache, lookup: lookup, log: log}
}

// fold prepares a string for keyword comparison: lowercase, whitespace
// collapsed to single spaces.
func fold(s string) string {
	return strings.ToLower(strings.Join(strings.Fields(s), " "))
}

// NonSong reports whether an artist-less payload looks like a stream
// segment marker instead of a song title.
func NonSong(song string) bool {
	folded := fold(song)
	for _, kw := range nonSongKeywords {
		if strings.Contains(folded, kw) {
			return true
		}
	}
	return false
}

// Classify resolves the genre label for one row. Rules are tried in order;
// the first match wins.
func (c *Classifier) Classify(ctx context.Context, artist, song string) string {
	artist = strings.TrimSpace(artist)
	song = strings.TrimSpace(song)

	// Rule 1: curated artist mapping.
	if g, ok := c.rules.ArtistToGenre[artist]; ok {
		return g
	}

	// Rule 2: keyword categories, artist checked before song, categories in
	// precedence order.
	foldedArtist, foldedSong := fold(artist), fold(song)
	for _, label := range c.rules.OrderedCategories() {
		if categoryMatches(c.rules.Categories[label], foldedArtist) ||
			categoryMatches(c.rules.Categories[label], foldedSong) {
			return label
		}
	}

	// Rule 3: curated song mapping.
	if g, ok := c.rules.SongToGenre[song]; ok {
		return g
	}

	// Segment markers never go to the external service.
	if artist == "" && NonSong(song) {
		return DefaultLabel
	}

	// Rule 4: cached external lookup.
	if g, ok := c.lookupGenre(ctx, artist, song); ok {
		return g
	}

	return DefaultLabel
}

func categoryMatches(buckets map[string][]string, folded string) bool {
	if folded == "" {
		return false
	}
	for _, words := range buckets {
		for _, w := range words {
			if strings.Contains(folded, fold(w)) {
				return true
			}
		}
	}
	return false
}

func (c *Classifier) lookupGenre(ctx context.Context, artist, song string) (string, bool) {
	if c.cache == nil || c.lookup == nil {
		return "", false
	}

	if g, ok := c.cache.Get(artist, song); ok {
		metrics.GenreLookupsTotal.WithLabelValues("cache_hit").Inc()
		return g, true
	}

	tag, err := c.lookup.GenreTag(ctx, artist, song)
	if err != nil {
		metrics.GenreLookupsTotal.WithLabelValues("error").Inc()
		logger := log.Enrich(ctx, c.log)
		logger.Warn().Err(err).Str("artist", artist).Str("song", song).
			Str("event", "genre.lookup_failed").Msg("external genre lookup failed")
		return "", false
	}
	if tag == "" {
		metrics.GenreLookupsTotal.WithLabelValues("miss").Inc()
		c.cache.Put(artist, song, DefaultLabel)
		return DefaultLabel, true
	}

	label := c.mapTag(tag)
	metrics.GenreLookupsTotal.WithLabelValues("hit").Inc()
	c.cache.Put(artist, song, label)
	return label, true
}

// defaultTagMap translates common service genre tags when the rules file
// does not configure its own mapping.
var defaultTagMap = map[string]string{
	"j-pop":      "J-POP",
	"jpop":       "J-POP",
	"pop":        "J-POP",
	"anime":      "アニメ",
	"アニメ":       "アニメ",
	"soundtrack": "アニメ",
	"vocaloid":   "Vocaloid",
}

func (c *Classifier) mapTag(tag string) string {
	key := fold(tag)
	if label, ok := c.rules.TagMap[key]; ok {
		return label
	}
	for k, label := range c.rules.TagMap {
		if fold(k) == key {
			return label
		}
	}
	if label, ok := defaultTagMap[key]; ok {
		return label
	}
	return DefaultLabel
}

// SPDX-License-Identifier: MIT

package config

import (
	"os"
	"sort"

	json "github.com/goccy/go-json"
)

// GenreRules is the layered rule set for the genre classifier.
//
// Categories maps a genre label to named keyword buckets, e.g.
//
//	{"Vocaloid": {"artists": ["初音ミク"], "keywords": ["ボカロ"]}}
//
// Bucket names are free-form; every bucket of a category is checked.
type GenreRules struct {
	Version       string                         `json:"version,omitempty"`
	Categories    map[string]map[string][]string `json:"categories"`
	CategoryOrder []string                       `json:"category_order,omitempty"`
	ArtistToGenre map[string]string              `json:"artist_to_genre"`
	SongToGenre   map[string]string              `json:"song_to_genre,omitempty"`

	// TagMap translates genre tags returned by the external metadata
	// service (e.g. "j-pop", "anime") into catalog genre labels.
	TagMap map[string]string `json:"genre_tag_map,omitempty"`
}

// defaultCategoryOrder fixes rule precedence when the file does not spell
// one out. Vocaloid must win over アニメ and J-POP for mixed matches.
var defaultCategoryOrder = []string{"Vocaloid", "アニメ", "J-POP"}

// LoadGenreRules reads the genre rules file. A missing file yields an empty
// rule set (every row classifies as その他) rather than an error, so a fresh
// deployment can run before any curation has happened.
func LoadGenreRules(path string) (GenreRules, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return GenreRules{}, nil
		}
		return GenreRules{}, errorf("read genre rules %s: %v", path, err)
	}

	var rules GenreRules
	if err := json.Unmarshal(raw, &rules); err != nil {
		return GenreRules{}, errorf("parse genre rules %s: %v", path, err)
	}
	for label, buckets := range rules.Categories {
		if label == "" {
			return GenreRules{}, errorf("genre rules %s: empty category label", path)
		}
		for bucket, words := range buckets {
			for _, w := range words {
				if w == "" {
					return GenreRules{}, errorf("genre rules %s: empty keyword in %s/%s", path, label, bucket)
				}
			}
		}
	}
	return rules, nil
}

// OrderedCategories returns category labels in rule precedence order:
// the explicit category_order first, then any remaining categories in
// lexicographic order for determinism.
func (r GenreRules) OrderedCategories() []string {
	order := r.CategoryOrder
	if len(order) == 0 {
		order = defaultCategoryOrder
	}

	out := make([]string, 0, len(r.Categories))
	seen := make(map[string]struct{}, len(r.Categories))
	for _, label := range order {
		if _, ok := r.Categories[label]; ok {
			out = append(out, label)
			seen[label] = struct{}{}
		}
	}

	rest := make([]string, 0, len(r.Categories))
	for label := range r.Categories {
		if _, ok := seen[label]; !ok {
			rest = append(rest, label)
		}
	}
	sort.Strings(rest)
	return append(out, rest...)
}

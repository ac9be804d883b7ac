// SPDX-License-Identifier: MIT

package genre

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	json "github.com/goccy/go-json"
	"golang.org/x/time/rate"
)

const (
	defaultLookupBaseURL = "https://itunes.apple.com/search"
	lookupTimeout        = 10 * time.Second
)

// Lookup queries the iTunes Search API for a song's genre tag. It is the
// optional last-resort classifier input, only consulted when every local
// rule missed. Requests are rate limited to stay well under the service's
// unauthenticated allowance.
type Lookup struct {
	base    string
	http    *http.Client
	limiter *rate.Limiter
}

// LookupOptions configures a Lookup. Zero values select production defaults.
type LookupOptions struct {
	BaseURL    string
	HTTPClient *http.Client
}

// NewLookup builds an iTunes search client.
func NewLookup(opts LookupOptions) *Lookup {
	base := opts.BaseURL
	if base == "" {
		base = defaultLookupBaseURL
	}
	hc := opts.HTTPClient
	if hc == nil {
		hc = &http.Client{Timeout: lookupTimeout}
	}
	return &Lookup{
		base:    base,
		http:    hc,
		limiter: rate.NewLimiter(rate.Limit(2), 1),
	}
}

type lookupResponse struct {
	Results []struct {
		TrackName        string `json:"trackName"`
		ArtistName       string `json:"artistName"`
		PrimaryGenreName string `json:"primaryGenreName"`
	} `json:"results"`
}

// GenreTag returns the service's genre tag for (artist, song), or "" when
// the service has no match. The tag is raw (e.g. "J-Pop", "Anime") and
// still needs mapping to a catalog label.
func (l *Lookup) GenreTag(ctx context.Context, artist, song string) (string, error) {
	if err := l.limiter.Wait(ctx); err != nil {
		return "", err
	}

	term := strings.TrimSpace(song + " " + artist)
	q := url.Values{}
	q.Set("term", term)
	q.Set("media", "music")
	q.Set("entity", "song")
	q.Set("limit", "3")
	q.Set("country", "JP")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, l.base+"?"+q.Encode(), nil)
	if err != nil {
		return "", err
	}

	resp, err := l.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("itunes search: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("itunes search: status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return "", fmt.Errorf("itunes search: read body: %w", err)
	}
	var parsed lookupResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return "", fmt.Errorf("itunes search: decode: %w", err)
	}

	// Prefer a result whose artist matches; fall back to the top hit.
	wantArtist := strings.ToLower(strings.TrimSpace(artist))
	for _, r := range parsed.Results {
		if wantArtist != "" && strings.Contains(strings.ToLower(r.ArtistName), wantArtist) {
			return r.PrimaryGenreName, nil
		}
	}
	if len(parsed.Results) > 0 {
		return parsed.Results[0].PrimaryGenreName, nil
	}
	return "", nil
}

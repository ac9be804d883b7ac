// SPDX-License-Identifier: MIT

// Package youtube wraps the video-platform data API: uploads enumeration,
// batched video metadata and top-level comment threads. All calls go through
// a shared token-bucket rate limiter and the advisory quota tracker.
package youtube

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"math/rand/v2"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	json "github.com/goccy/go-json"
	"golang.org/x/time/rate"

	"github.com/utawakulab/utacatalog/internal/metrics"
)

const (
	defaultBaseURL = "https://www.googleapis.com/youtube/v3"
	maxBatchSize   = 50
	maxPageSize    = 100
	perCallTimeout = 30 * time.Second

	retryAttempts = 3
	backoffBase   = 1 * time.Second
	backoffCap    = 30 * time.Second
)

// Client talks to the platform data API.
type Client struct {
	base    string
	key     string
	http    *http.Client
	limiter *rate.Limiter
	quota   *QuotaTracker

	mu        sync.Mutex
	playlists map[string]string // channel id -> uploads playlist id
}

// Options tunes the client; zero values get sensible defaults.
type Options struct {
	BaseURL         string
	HTTPClient      *http.Client
	RateUnitsPerSec float64
	Quota           *QuotaTracker
}

// New creates a client authenticated by apiKey.
func New(apiKey string, opts Options) *Client {
	base := opts.BaseURL
	if base == "" {
		base = defaultBaseURL
	}
	hc := opts.HTTPClient
	if hc == nil {
		hc = &http.Client{Timeout: perCallTimeout}
	}
	unitsPerSec := opts.RateUnitsPerSec
	if unitsPerSec <= 0 {
		unitsPerSec = 4
	}
	quota := opts.Quota
	if quota == nil {
		quota = NewQuotaTracker(0)
	}
	return &Client{
		base:      strings.TrimRight(base, "/"),
		key:       apiKey,
		http:      hc,
		limiter:   rate.NewLimiter(rate.Limit(unitsPerSec), int(unitsPerSec)+1),
		quota:     quota,
		playlists: make(map[string]string),
	}
}

// Quota exposes the shared tracker for run summaries.
func (c *Client) Quota() *QuotaTracker { return c.quota }

// UploadsPlaylistID returns the uploads playlist for a channel. Standard
// UC… ids map to their UU… playlist directly; anything else is resolved
// once via channels.list (1 unit) and cached for the client's lifetime.
func (c *Client) UploadsPlaylistID(ctx context.Context, channelID string) (string, error) {
	if strings.HasPrefix(channelID, "UC") {
		return "UU" + channelID[2:], nil
	}

	c.mu.Lock()
	cached, ok := c.playlists[channelID]
	c.mu.Unlock()
	if ok {
		return cached, nil
	}

	var resp channelsResponse
	params := url.Values{
		"part": {"contentDetails"},
		"id":   {channelID},
	}
	if err := c.call(ctx, "channels.list", "channels", params, &resp); err != nil {
		return "", err
	}
	if len(resp.Items) == 0 {
		return "", &APIError{Kind: KindNotFound, Op: "channels.list", Reason: "channelNotFound"}
	}
	uploads := resp.Items[0].ContentDetails.RelatedPlaylists.Uploads
	if uploads == "" {
		return "", &APIError{Kind: KindNotFound, Op: "channels.list", Reason: "noUploadsPlaylist"}
	}
	c.mu.Lock()
	c.playlists[channelID] = uploads
	c.mu.Unlock()
	return uploads, nil
}

// ListUploads enumerates uploads strictly after since, newest first, and
// stops paging at the first item at or before since. Cost: 1 unit per page;
// resolving the playlist is free for standard channel ids.
func (c *Client) ListUploads(ctx context.Context, channelID string, since time.Time) ([]VideoRef, error) {
	playlistID, err := c.UploadsPlaylistID(ctx, channelID)
	if err != nil {
		return nil, err
	}

	var refs []VideoRef
	pageToken := ""
	for {
		var resp playlistItemsResponse
		params := url.Values{
			"part":       {"snippet,contentDetails"},
			"playlistId": {playlistID},
			"maxResults": {strconv.Itoa(maxBatchSize)},
		}
		if pageToken != "" {
			params.Set("pageToken", pageToken)
		}
		if err := c.call(ctx, "playlistItems.list", "playlistItems", params, &resp); err != nil {
			return nil, err
		}

		for _, item := range resp.Items {
			pub := item.ContentDetails.VideoPublishedAt
			if pub.IsZero() {
				pub = item.Snippet.PublishedAt
			}
			if !pub.After(since) {
				// Watermark sentinel reached; everything older is known.
				return refs, nil
			}
			refs = append(refs, VideoRef{ID: item.Snippet.ResourceID.VideoID, PublishedAt: pub})
		}

		pageToken = resp.NextPageToken
		if pageToken == "" {
			return refs, nil
		}
	}
}

// GetVideos fetches metadata for ids in batches of at most 50. Cost: 1 unit
// per batch. Unknown ids are silently absent from the result.
func (c *Client) GetVideos(ctx context.Context, ids []string) ([]Video, error) {
	videos := make([]Video, 0, len(ids))
	for start := 0; start < len(ids); start += maxBatchSize {
		end := min(start+maxBatchSize, len(ids))

		var resp videosResponse
		params := url.Values{
			"part": {"snippet,contentDetails,statistics"},
			"id":   {strings.Join(ids[start:end], ",")},
		}
		if err := c.call(ctx, "videos.list", "videos", params, &resp); err != nil {
			return nil, err
		}

		for _, item := range resp.Items {
			durationS, err := ParseISODuration(item.ContentDetails.Duration)
			if err != nil {
				durationS = 0
			}
			viewCount, _ := strconv.ParseInt(item.Statistics.ViewCount, 10, 64)
			commentCount, _ := strconv.ParseInt(item.Statistics.CommentCount, 10, 64)
			videos = append(videos, Video{
				ID:           item.ID,
				ChannelID:    item.Snippet.ChannelID,
				Title:        item.Snippet.Title,
				Description:  item.Snippet.Description,
				PublishedAt:  item.Snippet.PublishedAt,
				DurationS:    durationS,
				ViewCount:    viewCount,
				CommentCount: commentCount,
			})
		}
	}
	return videos, nil
}

// ListComments fetches up to max top-level comments by relevance. Cost: 1
// unit per page. Videos with disabled comments surface as KindNotFound.
func (c *Client) ListComments(ctx context.Context, videoID string, max int) ([]Comment, error) {
	if max <= 0 {
		return nil, nil
	}

	var comments []Comment
	pageToken := ""
	for len(comments) < max {
		pageSize := min(maxPageSize, max-len(comments))

		var resp commentThreadsResponse
		params := url.Values{
			"part":       {"snippet"},
			"videoId":    {videoID},
			"order":      {"relevance"},
			"textFormat": {"plainText"},
			"maxResults": {strconv.Itoa(pageSize)},
		}
		if pageToken != "" {
			params.Set("pageToken", pageToken)
		}
		if err := c.call(ctx, "commentThreads.list", "commentThreads", params, &resp); err != nil {
			return nil, err
		}

		for _, item := range resp.Items {
			s := item.Snippet.TopLevelComment.Snippet
			comments = append(comments, Comment{
				VideoID:     videoID,
				AuthorHash:  hashAuthor(s.AuthorChannelID.Value),
				Text:        s.TextOriginal,
				LikeCount:   s.LikeCount,
				PublishedAt: s.PublishedAt,
			})
			if len(comments) == max {
				break
			}
		}

		pageToken = resp.NextPageToken
		if pageToken == "" {
			break
		}
	}
	return comments, nil
}

// GetChannels fetches channel snippets for channels.json. Cost: 1 unit per
// batch of 50.
func (c *Client) GetChannels(ctx context.Context, ids []string) ([]ChannelInfo, error) {
	infos := make([]ChannelInfo, 0, len(ids))
	for start := 0; start < len(ids); start += maxBatchSize {
		end := min(start+maxBatchSize, len(ids))

		var resp channelsResponse
		params := url.Values{
			"part": {"snippet"},
			"id":   {strings.Join(ids[start:end], ",")},
		}
		if err := c.call(ctx, "channels.list", "channels", params, &resp); err != nil {
			return nil, err
		}
		for _, item := range resp.Items {
			infos = append(infos, ChannelInfo{
				ID:           item.ID,
				Title:        item.Snippet.Title,
				ThumbnailURL: item.Snippet.Thumbnails.Default.URL,
			})
		}
	}
	return infos, nil
}

// call performs one API request with quota charge, rate limiting and the
// retry policy: up to 3 attempts on transient failures with jittered
// exponential backoff; quota and not-found failures are never retried.
func (c *Client) call(ctx context.Context, op, resource string, params url.Values, out any) error {
	if err := c.quota.Charge(op, 1); err != nil {
		metrics.APICallsTotal.WithLabelValues(op, "quota").Inc()
		return err
	}
	if err := c.limiter.Wait(ctx); err != nil {
		return err
	}

	var lastErr error
	for attempt := 0; attempt < retryAttempts; attempt++ {
		if attempt > 0 {
			select {
			case <-time.After(backoffDelay(attempt)):
			case <-ctx.Done():
				return ctx.Err()
			}
		}

		err := c.doOnce(ctx, op, resource, params, out)
		if err == nil {
			metrics.APICallsTotal.WithLabelValues(op, "ok").Inc()
			return nil
		}
		lastErr = err
		if !IsTransient(err) {
			metrics.APICallsTotal.WithLabelValues(op, kindLabel(err)).Inc()
			return err
		}
	}
	metrics.APICallsTotal.WithLabelValues(op, "transient").Inc()
	return fmt.Errorf("%s failed after %d attempts: %w", op, retryAttempts, lastErr)
}

func (c *Client) doOnce(ctx context.Context, op, resource string, params url.Values, out any) error {
	reqCtx, cancel := context.WithTimeout(ctx, perCallTimeout)
	defer cancel()

	q := url.Values{}
	for k, vs := range params {
		q[k] = vs
	}
	q.Set("key", c.key)

	req, err := http.NewRequestWithContext(reqCtx, http.MethodGet, c.base+"/"+resource+"?"+q.Encode(), nil)
	if err != nil {
		return fmt.Errorf("%s: build request: %w", op, err)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return &APIError{Kind: KindTransient, Op: op, Reason: "network", Err: err}
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return classifyHTTP(op, resp)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%s: decode response: %w", op, err)
	}
	return nil
}

// classifyHTTP maps a non-200 response onto the error taxonomy. The body is
// consulted for the platform reason; 403 is ambiguous between quota
// exhaustion and per-resource denial.
func classifyHTTP(op string, resp *http.Response) error {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<16))
	reason := extractReason(body)

	switch {
	case resp.StatusCode == http.StatusForbidden:
		switch reason {
		case "quotaExceeded", "dailyLimitExceeded", "rateLimitExceeded", "userRateLimitExceeded":
			return &APIError{Kind: KindQuota, Op: op, StatusCode: resp.StatusCode, Reason: reason}
		default:
			// commentsDisabled, forbidden, etc: per-resource denial.
			return &APIError{Kind: KindNotFound, Op: op, StatusCode: resp.StatusCode, Reason: reason}
		}
	case resp.StatusCode == http.StatusNotFound:
		return &APIError{Kind: KindNotFound, Op: op, StatusCode: resp.StatusCode, Reason: reason}
	case resp.StatusCode >= 500:
		return &APIError{Kind: KindTransient, Op: op, StatusCode: resp.StatusCode, Reason: reason}
	default:
		return &APIError{Op: op, StatusCode: resp.StatusCode, Reason: reason}
	}
}

func extractReason(body []byte) string {
	var parsed struct {
		Error struct {
			Errors []struct {
				Reason string `json:"reason"`
			} `json:"errors"`
		} `json:"error"`
	}
	if err := json.Unmarshal(body, &parsed); err != nil {
		return ""
	}
	if len(parsed.Error.Errors) == 0 {
		return ""
	}
	return parsed.Error.Errors[0].Reason
}

func backoffDelay(attempt int) time.Duration {
	d := backoffBase << (attempt - 1)
	if d > backoffCap {
		d = backoffCap
	}
	// Full jitter on the upper half keeps retries spread out.
	return d/2 + rand.N(d/2)
}

func kindLabel(err error) string {
	switch {
	case IsQuota(err):
		return "quota"
	case IsNotFound(err):
		return "not_found"
	default:
		return "error"
	}
}

// hashAuthor reduces the author channel id to a short stable hash; raw
// author identity never leaves this package.
func hashAuthor(authorChannelID string) string {
	if authorChannelID == "" {
		return ""
	}
	sum := sha256.Sum256([]byte(authorChannelID))
	return hex.EncodeToString(sum[:6])
}

// Wire shapes, trimmed to the fields the pipeline reads.

type channelsResponse struct {
	Items []struct {
		ID      string `json:"id"`
		Snippet struct {
			Title      string `json:"title"`
			Thumbnails struct {
				Default struct {
					URL string `json:"url"`
				} `json:"default"`
			} `json:"thumbnails"`
		} `json:"snippet"`
		ContentDetails struct {
			RelatedPlaylists struct {
				Uploads string `json:"uploads"`
			} `json:"relatedPlaylists"`
		} `json:"contentDetails"`
	} `json:"items"`
}

type playlistItemsResponse struct {
	NextPageToken string `json:"nextPageToken"`
	Items         []struct {
		Snippet struct {
			PublishedAt time.Time `json:"publishedAt"`
			ResourceID  struct {
				VideoID string `json:"videoId"`
			} `json:"resourceId"`
		} `json:"snippet"`
		ContentDetails struct {
			VideoPublishedAt time.Time `json:"videoPublishedAt"`
		} `json:"contentDetails"`
	} `json:"items"`
}

type videosResponse struct {
	Items []struct {
		ID      string `json:"id"`
		Snippet struct {
			ChannelID   string    `json:"channelId"`
			Title       string    `json:"title"`
			Description string    `json:"description"`
			PublishedAt time.Time `json:"publishedAt"`
		} `json:"snippet"`
		ContentDetails struct {
			Duration string `json:"duration"`
		} `json:"contentDetails"`
		Statistics struct {
			ViewCount    string `json:"viewCount"`
			CommentCount string `json:"commentCount"`
		} `json:"statistics"`
	} `json:"items"`
}

type commentThreadsResponse struct {
	NextPageToken string `json:"nextPageToken"`
	Items         []struct {
		Snippet struct {
			TopLevelComment struct {
				Snippet struct {
					TextOriginal    string    `json:"textOriginal"`
					LikeCount       int64     `json:"likeCount"`
					PublishedAt     time.Time `json:"publishedAt"`
					AuthorChannelID struct {
						Value string `json:"value"`
					} `json:"authorChannelId"`
				} `json:"snippet"`
			} `json:"topLevelComment"`
		} `json:"snippet"`
	} `json:"items"`
}

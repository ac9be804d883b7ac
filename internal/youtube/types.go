// SPDX-License-Identifier: MIT

package youtube

import "time"

// VideoRef is a lightweight handle from the uploads enumeration.
type VideoRef struct {
	ID          string
	PublishedAt time.Time
}

// Video is the metadata the extraction stages need.
type Video struct {
	ID           string
	ChannelID    string
	Title        string
	Description  string
	PublishedAt  time.Time
	DurationS    int
	ViewCount    int64
	CommentCount int64
}

// Comment is a retained top-level comment. Author identity is reduced to a
// hash before it leaves this package; only Text and VideoID flow into the
// parser.
type Comment struct {
	VideoID     string
	AuthorHash  string
	Text        string
	LikeCount   int64
	PublishedAt time.Time
}

// ChannelInfo is the channel snippet used for channels.json.
type ChannelInfo struct {
	ID           string
	Title        string
	ThumbnailURL string
}

// SPDX-License-Identifier: MIT

package config

import (
	"os"

	json "github.com/goccy/go-json"
)

// Channel is one curated platform channel. The id is the immutable key;
// name and enabled are operator-editable.
type Channel struct {
	Name      string `json:"name"`
	ChannelID string `json:"channel_id"`
	Enabled   bool   `json:"enabled"`
}

// LoadChannels reads the channel list file (a JSON array) and validates it.
// File order is preserved; the publisher emits channels.json in this order.
func LoadChannels(path string) ([]Channel, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, errorf("read channel list %s: %v", path, err)
	}

	var channels []Channel
	if err := json.Unmarshal(raw, &channels); err != nil {
		return nil, errorf("parse channel list %s: %v", path, err)
	}
	if len(channels) == 0 {
		return nil, errorf("channel list %s is empty", path)
	}

	seen := make(map[string]struct{}, len(channels))
	for i, ch := range channels {
		if !ValidChannelID(ch.ChannelID) {
			return nil, errorf("channel %d (%q): malformed channel_id %q", i, ch.Name, ch.ChannelID)
		}
		if _, dup := seen[ch.ChannelID]; dup {
			return nil, errorf("duplicate channel_id %s", ch.ChannelID)
		}
		seen[ch.ChannelID] = struct{}{}
	}
	return channels, nil
}

// Enabled filters the list down to enabled channels, preserving order.
func Enabled(channels []Channel) []Channel {
	out := make([]Channel, 0, len(channels))
	for _, ch := range channels {
		if ch.Enabled {
			out = append(out, ch)
		}
	}
	return out
}

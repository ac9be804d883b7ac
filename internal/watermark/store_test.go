// SPDX-License-Identifier: MIT

package watermark

import (
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpenMissingFileStartsFromEpoch(t *testing.T) {
	s, err := Open(filepath.Join(t.TempDir(), "watermarks.json"))
	require.NoError(t, err)

	wm := s.Get("UCabcdefghijklmnopqrstuv")
	assert.True(t, wm.LastPublishedAt.IsZero())
	assert.Empty(t, wm.Status)
}

func TestAdvanceAndReload(t *testing.T) {
	path := filepath.Join(t.TempDir(), "watermarks.json")
	s, err := Open(path)
	require.NoError(t, err)

	runAt := time.Date(2026, 8, 20, 3, 0, 0, 0, time.UTC)
	published := time.Date(2026, 8, 19, 12, 0, 0, 0, time.UTC)
	s.Advance("UCabcdefghijklmnopqrstuv", runAt, published, "vid1")
	require.NoError(t, s.Save())

	reopened, err := Open(path)
	require.NoError(t, err)
	wm := reopened.Get("UCabcdefghijklmnopqrstuv")
	assert.Equal(t, StatusOK, wm.Status)
	assert.Equal(t, "vid1", wm.LastVideoID)
	assert.True(t, wm.LastPublishedAt.Equal(published))
	assert.True(t, wm.LastRunAt.Equal(runAt))
}

func TestAdvanceNeverMovesBackwards(t *testing.T) {
	s, err := Open(filepath.Join(t.TempDir(), "watermarks.json"))
	require.NoError(t, err)

	newer := time.Date(2026, 8, 19, 12, 0, 0, 0, time.UTC)
	older := newer.Add(-48 * time.Hour)

	s.Advance("UCabcdefghijklmnopqrstuv", time.Now(), newer, "vid-new")
	s.Advance("UCabcdefghijklmnopqrstuv", time.Now(), older, "vid-old")

	wm := s.Get("UCabcdefghijklmnopqrstuv")
	assert.True(t, wm.LastPublishedAt.Equal(newer))
	assert.Equal(t, "vid-new", wm.LastVideoID)
}

func TestMarkFailedKeepsProgress(t *testing.T) {
	s, err := Open(filepath.Join(t.TempDir(), "watermarks.json"))
	require.NoError(t, err)

	published := time.Date(2026, 8, 19, 12, 0, 0, 0, time.UTC)
	s.Advance("UCabcdefghijklmnopqrstuv", time.Now(), published, "vid1")
	s.MarkFailed("UCabcdefghijklmnopqrstuv", time.Now(), StatusPartial, errors.New("quota exhausted"))

	wm := s.Get("UCabcdefghijklmnopqrstuv")
	assert.Equal(t, StatusPartial, wm.Status)
	assert.Equal(t, "quota exhausted", wm.LastError)
	// The incremental window is untouched.
	assert.True(t, wm.LastPublishedAt.Equal(published))
	assert.Equal(t, "vid1", wm.LastVideoID)
}

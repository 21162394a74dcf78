package main

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kbrannigan/medley/internal/manifest"
	"github.com/kbrannigan/medley/internal/match"
)

func TestPartialGlobalsReflectsOnlyCompletedMatches(t *testing.T) {
	m := match.New(0, "movie.mkv", map[string]any{"input": "movie.mkv"})
	m.Status.Record("probe", match.StatusSuccess)
	m.Status.Finalize(time.Now(), time.Now())

	out := partialGlobals([]match.Match{m}, manifest.Set{}, nil, nil, time.Now())
	require.NotNil(t, out)

	status, ok := out["status"].(map[string]any)
	require.True(t, ok, "globals must decode to a status subtree")
	assert.EqualValues(t, 1, status["matches"])
	assert.EqualValues(t, 0, status["errors"])
	assert.Equal(t, true, status["success"])
}

func TestPartialGlobalsEmptyPrefixHasZeroMatches(t *testing.T) {
	out := partialGlobals(nil, manifest.Set{}, nil, nil, time.Now())
	require.NotNil(t, out)

	status, ok := out["status"].(map[string]any)
	require.True(t, ok)
	assert.EqualValues(t, 0, status["matches"])
}

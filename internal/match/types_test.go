package match

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestPluginStatusClassify(t *testing.T) {
	t.Parallel()

	assert.Equal(t, StatusSuccess, PluginStatus{Success: true}.Classify())
	assert.Equal(t, StatusNotSupported, PluginStatus{NotSupported: true}.Classify())
	assert.Equal(t, StatusFailed, PluginStatus{}.Classify())
}

func TestPluginResultAsMapRoundTrip(t *testing.T) {
	t.Parallel()

	started := time.Now().Add(-time.Second)
	finished := time.Now()

	result := PluginResult{
		Status: PluginStatus{Success: true, StartedAt: started, FinishedAt: finished, DurationMs: 1000},
		Data:   map[string]any{"category": "movie", "duration": 120},
	}

	asMap := result.AsMap()
	assert.Equal(t, "movie", asMap["category"])
	assert.Equal(t, 120, asMap["duration"])

	status, ok := asMap["status"].(map[string]any)
	assert.True(t, ok)
	assert.Equal(t, true, status["success"])

	back := ResultFromMap(asMap)
	assert.True(t, back.Status.Success)
	assert.Equal(t, "movie", back.Data["category"])
	assert.Equal(t, 120, back.Data["duration"])
	_, hasStatusKey := back.Data["status"]
	assert.False(t, hasStatusKey, "status subtree must not leak into Data")
}

func TestPluginResultCategory(t *testing.T) {
	t.Parallel()

	withCategory := PluginResult{Data: map[string]any{"category": "tv"}}
	cat, ok := withCategory.Category()
	assert.True(t, ok)
	assert.Equal(t, "tv", cat)

	without := PluginResult{Data: map[string]any{"duration": 10}}
	_, ok = without.Category()
	assert.False(t, ok)

	empty := PluginResult{}
	_, ok = empty.Category()
	assert.False(t, ok)
}

func TestMatchStatusRecordAndFinalize(t *testing.T) {
	t.Parallel()

	var status MatchStatus
	status.Record("probe", StatusSuccess)
	status.Record("subtitle", StatusNotSupported)
	status.Record("tag", StatusFailed)

	assert.Equal(t, []string{"probe"}, status.SuccessPlugins)
	assert.Equal(t, []string{"subtitle"}, status.NotSupportedPlugins)
	assert.Equal(t, []string{"tag"}, status.FailedPlugins)

	started := time.Now().Add(-time.Second)
	finished := time.Now()
	status.Finalize(started, finished)

	assert.False(t, status.Success, "any failed plugin makes the match unsuccessful")
	assert.Equal(t, started, status.StartedAt)
	assert.Equal(t, finished, status.FinishedAt)
}

func TestMatchStatusSuccessWithOnlyNotSupported(t *testing.T) {
	t.Parallel()

	var status MatchStatus
	status.Record("probe", StatusSuccess)
	status.Record("subtitle", StatusNotSupported)
	status.Finalize(time.Now(), time.Now())

	assert.True(t, status.Success)
}

func TestNewSeedsResultsFlatFromInputPlugin(t *testing.T) {
	t.Parallel()

	seed := map[string]any{
		"input": "movie.mkv",
		"status": map[string]any{
			"success": true,
		},
	}

	m := New(0, "movie.mkv", seed)

	assert.Equal(t, 0, m.Index)
	assert.Equal(t, "movie.mkv", m.InputPath)
	assert.Equal(t, "movie.mkv", m.Results["input"])
	assert.NotNil(t, m.Results["status"])

	// mutating the returned Results must not alias the seed map.
	m.Results["input"] = "other.mkv"
	assert.Equal(t, "movie.mkv", seed["input"])
}

func TestInputPathFromConventionKey(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "movie.mkv", InputPathFrom(map[string]any{"input": "movie.mkv"}))
	assert.Equal(t, "", InputPathFrom(map[string]any{}))
	assert.Equal(t, "", InputPathFrom(nil))
}

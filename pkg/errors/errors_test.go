package errors

import (
	stdErrors "errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestManifestErrorFormatting(t *testing.T) {
	t.Parallel()

	err := NewManifestError("plugins/foo/plugin.json", "missing name", nil)
	assert.Contains(t, err.Error(), "plugins/foo/plugin.json")
	assert.Contains(t, err.Error(), "missing name")
}

func TestLoaderErrorUnwrap(t *testing.T) {
	t.Parallel()

	underlying := fmt.Errorf("no constructor registered")
	err := NewLoaderError("probe", "lookup failed", underlying)

	var loaderErr *LoaderError
	require.True(t, stdErrors.As(err, &loaderErr))
	assert.Equal(t, underlying, stdErrors.Unwrap(err))
}

func TestConfigErrorUnwrap(t *testing.T) {
	t.Parallel()

	underlying := fmt.Errorf("yaml: line 3: mapping values are not allowed")
	err := NewConfigError("medley.yaml", "failed to parse configuration", underlying)

	assert.Contains(t, err.Error(), "medley.yaml")
	assert.Equal(t, underlying, stdErrors.Unwrap(err))
}

func TestCycleErrorListsMembers(t *testing.T) {
	t.Parallel()

	err := NewCycleError([]string{"b", "c"})
	assert.Contains(t, err.Error(), "b")
	assert.Contains(t, err.Error(), "c")
}

func TestDependencyErrorNamesBoth(t *testing.T) {
	t.Parallel()

	err := NewDependencyError("meta", "probe")
	assert.Contains(t, err.Error(), "meta")
	assert.Contains(t, err.Error(), "probe")
}

func TestPluginFaultUnwraps(t *testing.T) {
	t.Parallel()

	underlying := fmt.Errorf("panic: nil pointer")
	err := NewPluginFault("probe", underlying)
	assert.Equal(t, underlying, stdErrors.Unwrap(err))
}

func TestExpectsUnsatisfiedListsMissing(t *testing.T) {
	t.Parallel()

	err := NewExpectsUnsatisfied("probe", []string{"metadata.parsed"})
	assert.Contains(t, err.Error(), "probe")
	assert.Contains(t, err.Error(), "metadata.parsed")
}

func TestAbortWrapsNilGracefully(t *testing.T) {
	t.Parallel()

	err := NewAbort(nil)
	assert.Equal(t, "aborted", err.Error())
}

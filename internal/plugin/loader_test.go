package plugin

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kbrannigan/medley/internal/manifest"
)

type stubPlugin struct{ cfg map[string]any }

func (p *stubPlugin) Execute(ctx context.Context, input map[string]any) (any, error) {
	return map[string]any{"status": map[string]any{"success": true}}, nil
}

type mapConfigSource struct {
	enabled map[string]bool
	configs map[string]map[string]any
}

func (m mapConfigSource) Enabled(name string) bool          { return m.enabled[name] }
func (m mapConfigSource) ConfigFor(name string) map[string]any { return m.configs[name] }

func TestDeriveClassHint(t *testing.T) {
	t.Parallel()

	cases := map[string]string{
		"mock_test":    "MockTestPlugin",
		"mock-test":    "MockTestPlugin",
		"probe":        "ProbePlugin",
		"multi_word_x": "MultiWordXPlugin",
	}

	for name, want := range cases {
		assert.Equal(t, want, deriveClassHint(name), name)
	}
}

func TestLocatorPrefersClassHint(t *testing.T) {
	t.Parallel()

	m := manifest.Manifest{Name: "mock_test", ClassHint: "LegacyAcronymPlugin"}
	assert.Equal(t, "LegacyAcronymPlugin", Locator(m))
}

func TestLoadEnabledConstructsOnlyEnabled(t *testing.T) {
	ResetFactories()
	defer ResetFactories()

	var gotConfig map[string]any
	require.NoError(t, RegisterFactory("ProbePlugin", func(cfg map[string]any) (Plugin, error) {
		gotConfig = cfg
		return &stubPlugin{cfg: cfg}, nil
	}))

	manifests := manifest.Set{
		"probe":  {Name: "probe", Category: manifest.CategoryOutput},
		"hidden": {Name: "hidden", Category: manifest.CategoryOutput},
	}

	cfg := mapConfigSource{
		enabled: map[string]bool{"probe": true, "hidden": false},
		configs: map[string]map[string]any{"probe": {"api_key": "xyz"}},
	}

	registry, err := LoadEnabled(manifests, cfg)
	require.NoError(t, err)

	_, err = registry.Get("probe")
	require.NoError(t, err)
	assert.Equal(t, "xyz", gotConfig["api_key"])

	_, err = registry.Get("hidden")
	assert.Error(t, err)
}

func TestLoadEnabledFailsFastOnMissingFactory(t *testing.T) {
	ResetFactories()
	defer ResetFactories()

	manifests := manifest.Set{
		"probe": {Name: "probe", Category: manifest.CategoryOutput},
	}
	cfg := mapConfigSource{enabled: map[string]bool{"probe": true}}

	_, err := LoadEnabled(manifests, cfg)
	require.Error(t, err)
}

func TestLoadEnabledFailsFastOnConstructionError(t *testing.T) {
	ResetFactories()
	defer ResetFactories()

	require.NoError(t, RegisterFactory("ProbePlugin", func(cfg map[string]any) (Plugin, error) {
		return nil, assertErr
	}))

	manifests := manifest.Set{
		"probe": {Name: "probe", Category: manifest.CategoryOutput},
	}
	cfg := mapConfigSource{enabled: map[string]bool{"probe": true}}

	_, err := LoadEnabled(manifests, cfg)
	require.Error(t, err)
}

var assertErr = &constructionError{}

type constructionError struct{}

func (e *constructionError) Error() string { return "construction boom" }

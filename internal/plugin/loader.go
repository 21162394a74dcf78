package plugin

import (
	"strings"

	"github.com/kbrannigan/medley/internal/manifest"
	streamyerrors "github.com/kbrannigan/medley/pkg/errors"
)

// PluginConfigSource supplies, per plugin name, whether the plugin is
// enabled and its opaque configuration slice (spec §4.2, §6.4
// "plugins.<name>.*").
type PluginConfigSource interface {
	Enabled(name string) bool
	ConfigFor(name string) map[string]any
}

// Locator derives the factory identifier used to look up a constructor for
// a manifest, following the two rules of spec §4.2 exactly — and nothing
// else. The loader must never pattern-match on plugin names beyond this.
func Locator(m manifest.Manifest) string {
	if m.ClassHint != "" {
		return m.ClassHint
	}
	return deriveClassHint(m.Name)
}

// deriveClassHint implements "split on _ or -, capitalize each part,
// append Plugin" (spec §4.2 rule 2), e.g. mock_test -> MockTestPlugin.
func deriveClassHint(name string) string {
	parts := strings.FieldsFunc(name, func(r rune) bool {
		return r == '_' || r == '-'
	})

	var b strings.Builder
	for _, part := range parts {
		if part == "" {
			continue
		}
		b.WriteString(strings.ToUpper(part[:1]))
		b.WriteString(part[1:])
	}
	b.WriteString("Plugin")
	return b.String()
}

// LoadEnabled instantiates every manifest whose configuration marks it
// enabled, using the locator strategy to find a registered Factory (C2,
// spec §4.2). Any lookup or construction failure for an enabled plugin is
// fatal — the loader never partially loads (spec §4.2 failure semantics).
func LoadEnabled(manifests manifest.Set, cfg PluginConfigSource) (*Registry, error) {
	registry := NewRegistry()

	for _, name := range manifests.Names() {
		if !cfg.Enabled(name) {
			continue
		}

		m := manifests[name]
		locator := Locator(m)

		factory, err := LookupFactory(locator)
		if err != nil {
			return nil, streamyerrors.NewLoaderError(name, "locator lookup failed for "+locator, err)
		}

		instance, err := factory(cfg.ConfigFor(name))
		if err != nil {
			return nil, streamyerrors.NewLoaderError(name, "construction failed", err)
		}

		registry.set(name, instance)
	}

	return registry, nil
}

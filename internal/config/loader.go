package config

import (
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	streamyerrors "github.com/kbrannigan/medley/pkg/errors"
)

// DefaultPath is the conventional configuration path used when the CLI's
// --config flag is not supplied (spec §6.5 "default invocation").
const DefaultPath = "medley.yaml"

// Load reads, decodes, and validates the configuration document at path
// (spec §6.4). A missing or malformed document is fatal to startup.
func Load(path string) (*Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, streamyerrors.NewConfigError(path, "failed to read configuration", err)
	}

	var doc Document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, streamyerrors.NewConfigError(path, "failed to parse configuration", err)
	}

	if err := Validate(&doc); err != nil {
		return nil, streamyerrors.NewConfigError(path, "configuration failed validation", err)
	}

	if abs, err := filepath.Abs(path); err == nil {
		doc.ConfigDir = filepath.Dir(abs)
	} else {
		doc.ConfigDir = filepath.Dir(path)
	}

	return &doc, nil
}

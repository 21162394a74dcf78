package manifest

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sync"

	"github.com/go-playground/validator/v10"

	streamyerrors "github.com/kbrannigan/medley/pkg/errors"
)

// FileName is the conventional manifest filename looked for in each plugin
// subdirectory.
const FileName = "plugin.json"

var (
	validatorOnce sync.Once
	validateInst  *validator.Validate

	expectsPathPattern = regexp.MustCompile(`^[A-Za-z0-9_-]+(\.[A-Za-z0-9_-]+)?$`)
)

func validatorInstance() *validator.Validate {
	validatorOnce.Do(func() {
		v := validator.New()
		_ = v.RegisterValidation("expects_path", func(fl validator.FieldLevel) bool {
			return expectsPathPattern.MatchString(fl.Field().String())
		})
		validateInst = v
	})
	return validateInst
}

// Load enumerates immediate subdirectories of root, parses plugin.json in
// each (if present), validates the result, and returns a name-indexed Set.
// Any parse or validation error is fatal: the registry never partially
// loads (spec §4.1 failure semantics).
func Load(root string) (Set, error) {
	entries, err := os.ReadDir(root)
	if err != nil {
		return nil, streamyerrors.NewManifestError(root, "cannot read manifest root", err)
	}

	set := make(Set)

	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}

		dir := filepath.Join(root, entry.Name())
		manifestPath := filepath.Join(dir, FileName)

		data, err := os.ReadFile(manifestPath)
		if err != nil {
			if os.IsNotExist(err) {
				continue
			}
			return nil, streamyerrors.NewManifestError(manifestPath, "cannot read manifest", err)
		}

		var m Manifest
		if err := json.Unmarshal(data, &m); err != nil {
			return nil, streamyerrors.NewManifestError(manifestPath, "cannot parse manifest", err)
		}
		m.SourceDir = dir

		if err := validate(manifestPath, &m); err != nil {
			return nil, err
		}

		if _, exists := set[m.Name]; exists {
			return nil, streamyerrors.NewManifestError(manifestPath, fmt.Sprintf("duplicate plugin name %q", m.Name), nil)
		}

		set[m.Name] = m
	}

	return set, nil
}

func validate(path string, m *Manifest) error {
	if err := validatorInstance().Struct(m); err != nil {
		return streamyerrors.NewManifestError(path, err.Error(), err)
	}

	if m.DependsOn == nil {
		m.DependsOn = []string{}
	}
	if m.Expects == nil {
		m.Expects = []string{}
	}
	if m.CategoriesSupported == nil {
		m.CategoriesSupported = []string{}
	}

	return nil
}

package workspace

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

const settingsFileName = "settings.yaml"

type settings struct {
	SpacePath string `yaml:"space_path"`
}

// ReadSpacePath returns the saved shared-space path, or "" when no
// settings file exists yet.
func ReadSpacePath(baseDir string) (string, error) {
	path := filepath.Join(baseDir, settingsFileName)

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("read settings %q: %w", path, err)
	}

	var s settings
	if err := yaml.Unmarshal(data, &s); err != nil {
		return "", fmt.Errorf("parse settings %q: %w", path, err)
	}

	return s.SpacePath, nil
}

// WriteSpacePath persists the shared-space path for the next run.
func WriteSpacePath(baseDir string, spacePath string) error {
	data, err := yaml.Marshal(settings{SpacePath: spacePath})
	if err != nil {
		return fmt.Errorf("encode settings: %w", err)
	}

	path := filepath.Join(baseDir, settingsFileName)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write settings %q: %w", path, err)
	}

	return nil
}

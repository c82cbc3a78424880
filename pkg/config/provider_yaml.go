package config

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// DefaultFilename is looked up in the working directory when no path is given
const DefaultFilename = "freezecompare.yaml"

// YAMLProvider implements ConfigProvider for YAML configuration files
type YAMLProvider struct {
	filename string
	config   *ConfigData
}

// NewYAMLProvider creates a new YAML configuration provider
func NewYAMLProvider(filename string) *YAMLProvider {
	if filename == "" {
		filename = DefaultFilename
	}
	return &YAMLProvider{
		filename: filename,
	}
}

// LoadConfig reads the file over the defaults. A missing file yields the
// defaults; keys absent from the file keep their default values.
func (y *YAMLProvider) LoadConfig() (*ConfigData, error) {
	if y.config != nil {
		return y.config, nil
	}

	config := DefaultConfig()

	cfgFile, err := os.ReadFile(y.filename)
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	} else if err := yaml.Unmarshal(cfgFile, config); err != nil {
		return nil, fmt.Errorf("failed to parse config file %s: %w", y.filename, err)
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", y.filename, err)
	}

	y.config = config
	return config, nil
}

// IsReadOnly returns true since YAML files are read-only through this interface
func (y *YAMLProvider) IsReadOnly() bool {
	return true
}

// Close is a no-op for YAML provider
func (y *YAMLProvider) Close() error {
	return nil
}

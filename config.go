package sheetproc

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

const (
	// DefaultStatusColumnIndex is the status column used when no header name is configured
	DefaultStatusColumnIndex = 10
	DefaultActiveMarker      = "SI"
	DefaultInactiveMarker    = "NO"

	// CredentialsEnv is consulted when the configuration has no credential path
	CredentialsEnv = "GOOGLE_APPLICATION_CREDENTIALS"
)

// Config represents the settings document read by Create
type Config struct {
	CredentialsPath   string `yaml:"google_credentials_path"`
	ProcessesSheetURL string `yaml:"procesos_sheet_url"`

	// StatusColumn is the header of the column swept by DeactivateAllProcesses.
	// When empty, StatusColumnIndex is used instead.
	StatusColumn      string `yaml:"procesos_status_column,omitempty"`
	StatusColumnIndex int    `yaml:"procesos_status_column_index,omitempty"`
	ActiveMarker      string `yaml:"active_marker,omitempty"`
	InactiveMarker    string `yaml:"inactive_marker,omitempty"`

	// Settings keeps every other key of the document
	Settings map[string]interface{} `yaml:",inline"`
}

// LoadConfig reads a YAML or JSON configuration file
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, newError("LoadConfig", ErrConfig, fmt.Errorf("configuration file %q not found: %w", path, err))
		}
		return nil, newError("LoadConfig", ErrConfig, fmt.Errorf("failed to read configuration file %q: %w", path, err))
	}

	config, err := ParseConfig(data)
	if err != nil {
		return nil, newError("LoadConfig", ErrConfig, fmt.Errorf("configuration file %q: %w", path, err))
	}
	return config, nil
}

// ParseConfig parses a configuration document and applies defaults
func ParseConfig(data []byte) (*Config, error) {
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return nil, fmt.Errorf("empty configuration document")
	}

	// JSON documents may be indented with tabs, which YAML rejects
	if json.Valid(data) {
		var raw interface{}
		if err := json.Unmarshal(data, &raw); err != nil {
			return nil, fmt.Errorf("invalid JSON: %w", err)
		}
		if _, ok := raw.(map[string]interface{}); !ok {
			return nil, fmt.Errorf("configuration must be an object, got %T", raw)
		}
		normalized, err := yaml.Marshal(raw)
		if err != nil {
			return nil, fmt.Errorf("failed to normalize JSON: %w", err)
		}
		data = normalized
	}

	var config Config
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	config.applyDefaults()
	return &config, nil
}

func (c *Config) applyDefaults() {
	if c.StatusColumnIndex <= 0 {
		c.StatusColumnIndex = DefaultStatusColumnIndex
	}
	if c.ActiveMarker == "" {
		c.ActiveMarker = DefaultActiveMarker
	}
	if c.InactiveMarker == "" {
		c.InactiveMarker = DefaultInactiveMarker
	}
	if c.Settings == nil {
		c.Settings = make(map[string]interface{})
	}
}

// Validate checks settings that would make the process operations misbehave
func (c *Config) Validate() error {
	if c.StatusColumnIndex < 1 {
		return newError("Validate", ErrConfig, fmt.Errorf("procesos_status_column_index must be >= 1, got %d", c.StatusColumnIndex))
	}
	if c.ActiveMarker == c.InactiveMarker {
		return newError("Validate", ErrConfig, fmt.Errorf("active_marker and inactive_marker are both %q", c.ActiveMarker))
	}
	return nil
}

// Setting returns a key of the document that has no dedicated field
func (c *Config) Setting(name string) (string, bool) {
	v, ok := c.Settings[name]
	if !ok || v == nil {
		return "", false
	}
	return fmt.Sprintf("%v", v), true
}

// ResolvedCredentialsPath returns the credential path, falling back to CredentialsEnv
func (c *Config) ResolvedCredentialsPath() string {
	if c.CredentialsPath != "" {
		return c.CredentialsPath
	}
	return os.Getenv(CredentialsEnv)
}

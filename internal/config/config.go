package config

import (
	"fmt"
	"os"

	kterrors "github.com/systmms/keyturn/internal/errors"
	"github.com/systmms/keyturn/internal/logging"
	"gopkg.in/yaml.v3"
)

// Config holds the runtime configuration
type Config struct {
	Path     string
	Logger   *logging.Logger
	Defaults Defaults
}

// Defaults mirrors the keyturn.yaml structure. Every field is optional;
// command-line flags take precedence over all of them.
type Defaults struct {
	Profile         string `yaml:"profile"`
	CredentialsFile string `yaml:"credentials_file"`
	User            string `yaml:"user"`
	GracePeriodDays *int   `yaml:"grace_period_days"`
	Force           *bool  `yaml:"force"`
}

// Load reads the defaults file at Path. A missing file is not an error:
// the tool is fully usable from flags alone.
func (c *Config) Load() error {
	data, err := os.ReadFile(c.Path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("failed to read config %s: %w", c.Path, err)
	}

	if err := yaml.Unmarshal(data, &c.Defaults); err != nil {
		return kterrors.ConfigError{
			Message:    fmt.Sprintf("invalid YAML in %s: %v", c.Path, err),
			Suggestion: "Check for indentation errors and missing quotes",
		}
	}

	if c.Defaults.GracePeriodDays != nil && *c.Defaults.GracePeriodDays < 0 {
		return kterrors.ConfigError{
			Field:      "grace_period_days",
			Value:      *c.Defaults.GracePeriodDays,
			Message:    "grace period must be zero or more days",
			Suggestion: "Use 0 to delete superseded keys immediately",
		}
	}

	return nil
}

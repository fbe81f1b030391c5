package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/teambition/rrule-go"
	"gopkg.in/yaml.v3"
)

const (
	DefaultRovingShopName    = "Roving"
	DefaultWeeksAhead        = 4
	DefaultAutoGenerateRRule = "FREQ=WEEKLY;BYDAY=SU"
)

// Config represents the application configuration
type Config struct {
	DatabaseURL    string `yaml:"databaseURL" validate:"required"`
	RovingShopName string `yaml:"rovingShopName,omitempty"`
	WeeksAhead     int    `yaml:"weeksAhead,omitempty" validate:"min=1,max=12"`

	// RandomSeed makes tie-breaks reproducible; zero seeds from the clock
	RandomSeed uint64 `yaml:"randomSeed,omitempty"`

	// AutoGenerateRRule selects the days on which autoGenerate prepares next week
	AutoGenerateRRule string `yaml:"autoGenerateRRule,omitempty"`

	// PublishSheetID is the spreadsheet published weeks are exported to.
	// Export is skipped when empty.
	PublishSheetID string `yaml:"publishSheetID,omitempty"`

	Timezone string `yaml:"timezone,omitempty" validate:"omitempty,timezone"`
}

var validate *validator.Validate

func init() {
	validate = validator.New()
}

// Load loads and validates the configuration from shopduty_config.yaml
// It looks for the config file in the current directory first, then in the user's home directory
func Load() (*Config, error) {
	return LoadWithEnv("")
}

// LoadWithEnv loads the configuration with an environment suffix. For
// example env="test" looks for "shopduty_config.test.yaml" and falls back to
// "shopduty_config.yaml".
func LoadWithEnv(env string) (*Config, error) {
	configPath, err := findConfigFile(env)
	if err != nil {
		return nil, fmt.Errorf("failed to find config file: %w", err)
	}

	return LoadFromPath(configPath)
}

// LoadFromPath loads and validates the configuration from a specific path
func LoadFromPath(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	applyDefaults(&cfg)

	if err := Validate(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func applyDefaults(cfg *Config) {
	if cfg.RovingShopName == "" {
		cfg.RovingShopName = DefaultRovingShopName
	}
	if cfg.WeeksAhead == 0 {
		cfg.WeeksAhead = DefaultWeeksAhead
	}
	if cfg.AutoGenerateRRule == "" {
		cfg.AutoGenerateRRule = DefaultAutoGenerateRRule
	}
	if cfg.Timezone == "" {
		cfg.Timezone = "UTC"
	}
}

// Validate validates the configuration struct and checks rrule syntax
func Validate(cfg *Config) error {
	if err := validate.Struct(cfg); err != nil {
		return fmt.Errorf("config validation failed: %w", err)
	}

	if cfg.AutoGenerateRRule != "" {
		if _, err := rrule.StrToRRule(cfg.AutoGenerateRRule); err != nil {
			return fmt.Errorf("invalid rrule in autoGenerateRRule: %w", err)
		}
	}

	return nil
}

// Location returns the configured time zone, UTC when unset
func (c *Config) Location() *time.Location {
	if c.Timezone == "" {
		return time.UTC
	}
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

func findConfigFile(env string) (string, error) {
	names := []string{"shopduty_config.yaml"}
	if env != "" {
		names = append([]string{"shopduty_config." + env + ".yaml"}, names...)
	}
	return findFile(names)
}

// findFile returns the first of names found in the current directory, then
// the home directory
func findFile(names []string) (string, error) {
	for _, name := range names {
		if _, err := os.Stat(name); err == nil {
			return name, nil
		}
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}

	for _, name := range names {
		homePath := filepath.Join(homeDir, name)
		if _, err := os.Stat(homePath); err == nil {
			return homePath, nil
		}
	}

	return "", fmt.Errorf("%s not found in current directory or home directory", names[0])
}

package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "shopduty_config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestValidate_ValidConfig(t *testing.T) {
	cfg := &Config{
		DatabaseURL:       "postgres://localhost/shopduty",
		RovingShopName:    "Roving",
		WeeksAhead:        4,
		RandomSeed:        42,
		AutoGenerateRRule: "FREQ=WEEKLY;BYDAY=SU",
		PublishSheetID:    "sheet123",
		Timezone:          "Europe/London",
	}

	err := Validate(cfg)
	assert.NoError(t, err)
}

func TestValidate_MissingDatabaseURL(t *testing.T) {
	cfg := &Config{WeeksAhead: 4}

	err := Validate(cfg)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "validation failed")
}

func TestValidate_WeeksAheadOutOfRange(t *testing.T) {
	for _, weeks := range []int{0, 13} {
		cfg := &Config{DatabaseURL: "postgres://localhost/shopduty", WeeksAhead: weeks}

		err := Validate(cfg)
		assert.Error(t, err, "weeksAhead %d", weeks)
	}
}

func TestValidate_InvalidRRule(t *testing.T) {
	cfg := &Config{
		DatabaseURL:       "postgres://localhost/shopduty",
		WeeksAhead:        4,
		AutoGenerateRRule: "INVALID_RRULE_SYNTAX",
	}

	err := Validate(cfg)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "invalid rrule")
}

func TestValidate_InvalidTimezone(t *testing.T) {
	cfg := &Config{
		DatabaseURL: "postgres://localhost/shopduty",
		WeeksAhead:  4,
		Timezone:    "Mars/Olympus_Mons",
	}

	err := Validate(cfg)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "validation failed")
}

func TestLoadFromPath_ValidConfig(t *testing.T) {
	path := writeConfig(t, `
databaseURL: "postgres://localhost/shopduty"
rovingShopName: "Floating"
weeksAhead: 6
randomSeed: 7
autoGenerateRRule: "FREQ=WEEKLY;BYDAY=SA"
publishSheetID: "sheet123"
timezone: "Europe/London"
`)

	cfg, err := LoadFromPath(path)
	require.NoError(t, err)

	assert.Equal(t, "postgres://localhost/shopduty", cfg.DatabaseURL)
	assert.Equal(t, "Floating", cfg.RovingShopName)
	assert.Equal(t, 6, cfg.WeeksAhead)
	assert.Equal(t, uint64(7), cfg.RandomSeed)
	assert.Equal(t, "FREQ=WEEKLY;BYDAY=SA", cfg.AutoGenerateRRule)
	assert.Equal(t, "sheet123", cfg.PublishSheetID)
	assert.Equal(t, "Europe/London", cfg.Location().String())
}

func TestLoadFromPath_MinimalConfigAppliesDefaults(t *testing.T) {
	path := writeConfig(t, `
databaseURL: "postgres://localhost/shopduty"
`)

	cfg, err := LoadFromPath(path)
	require.NoError(t, err)

	assert.Equal(t, DefaultRovingShopName, cfg.RovingShopName)
	assert.Equal(t, DefaultWeeksAhead, cfg.WeeksAhead)
	assert.Equal(t, DefaultAutoGenerateRRule, cfg.AutoGenerateRRule)
	assert.Zero(t, cfg.RandomSeed)
	assert.Empty(t, cfg.PublishSheetID)
	assert.Equal(t, time.UTC, cfg.Location())
}

func TestLoadFromPath_InvalidRRule(t *testing.T) {
	path := writeConfig(t, `
databaseURL: "postgres://localhost/shopduty"
autoGenerateRRule: "INVALID_RRULE_SYNTAX"
`)

	_, err := LoadFromPath(path)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "invalid rrule")
}

func TestLoadFromPath_MissingRequiredField(t *testing.T) {
	path := writeConfig(t, `
weeksAhead: 2
`)

	_, err := LoadFromPath(path)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "validation failed")
}

func TestLoadFromPath_InvalidYAML(t *testing.T) {
	path := writeConfig(t, `
databaseURL: "postgres://localhost/shopduty"
  invalid indentation
weeksAhead: 2
`)

	_, err := LoadFromPath(path)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "failed to parse config file")
}

func TestLoadFromPath_FileNotFound(t *testing.T) {
	_, err := LoadFromPath("/nonexistent/path/config.yaml")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read config file")
}

func TestLoadWithEnv_PrefersEnvFile(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)

	require.NoError(t, os.WriteFile("shopduty_config.yaml", []byte(`databaseURL: "postgres://plain"`), 0644))
	require.NoError(t, os.WriteFile("shopduty_config.test.yaml", []byte(`databaseURL: "postgres://test"`), 0644))

	cfg, err := LoadWithEnv("test")
	require.NoError(t, err)
	assert.Equal(t, "postgres://test", cfg.DatabaseURL)

	cfg, err = LoadWithEnv("staging")
	require.NoError(t, err)
	assert.Equal(t, "postgres://plain", cfg.DatabaseURL)
}

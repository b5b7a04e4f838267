// Package config tests.
package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	os.Clearenv()
	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "development", cfg.Environment)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, 8080, cfg.HTTPPort)
	assert.Equal(t, "claude-3-7-sonnet-20250219", cfg.AnthropicModel)
	assert.Equal(t, 1000, cfg.AnthropicMaxTokens)
	assert.InDelta(t, 0.3, cfg.AnthropicTemperature, 1e-9)
	assert.Equal(t, 10*time.Second, cfg.SuggestTimeout)
	assert.Equal(t, "http://127.0.0.1:8080/api/tasks/categorize", cfg.CategorizeEndpoint())
	assert.Equal(t, 10*time.Minute, cfg.CategorizeCacheTTL)
	assert.False(t, cfg.AnthropicEnabled())
	assert.False(t, cfg.SessionEnabled())
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("ENVIRONMENT", "production")
	t.Setenv("HTTP_PORT", "9090")
	t.Setenv("ANTHROPIC_API_KEY", "sk-test")
	t.Setenv("SUGGEST_ENDPOINT", "http://suggest.internal/api/tasks/categorize")
	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 9090, cfg.HTTPPort)
	assert.Equal(t, ":9090", cfg.ListenAddr())
	assert.True(t, cfg.AnthropicEnabled())
	assert.False(t, cfg.IsDevelopment())
	assert.Equal(t, "http://suggest.internal/api/tasks/categorize", cfg.CategorizeEndpoint())
}

func TestLoad_CategorizeEndpointFollowsPort(t *testing.T) {
	t.Setenv("ENVIRONMENT", "production")
	t.Setenv("HTTP_PORT", "9090")
	cfg, err := Load()
	require.NoError(t, err)
	assert.Empty(t, cfg.SuggestEndpoint)
	assert.Equal(t, "http://127.0.0.1:9090/api/tasks/categorize", cfg.CategorizeEndpoint())
}

func TestLoad_InvalidLevel(t *testing.T) {
	t.Setenv("LOG_LEVEL", "loud")
	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "LOG_LEVEL")
}

func TestLoad_BadNumber(t *testing.T) {
	t.Setenv("HTTP_PORT", "not-a-port")
	_, err := Load()
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	cfg := &Config{LogLevel: "info", HTTPPort: 8080, AnthropicMaxTokens: 10, AnthropicTemperature: 0.3}
	require.NoError(t, cfg.Validate())

	cfg.AnthropicTemperature = 1.5
	cfg.HTTPPort = 0
	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "ANTHROPIC_TEMPERATURE")
	assert.Contains(t, err.Error(), "HTTP_PORT")
}

func TestTaskLimit(t *testing.T) {
	cfg := &Config{Environment: EnvDevelopment}
	assert.Equal(t, 3, cfg.TaskLimit())

	cfg.Environment = EnvProduction
	assert.Equal(t, 100, cfg.TaskLimit())

	cfg.MaxTasksPerProject = 7
	assert.Equal(t, 7, cfg.TaskLimit())
}

const sampleSeed = `
projects:
  - id: work
    name: Work
    description: Tasks for ${TEST_COMPANY}
  - id: personal
    name: Personal
    open: false
`

func TestParseSeed(t *testing.T) {
	t.Setenv("TEST_COMPANY", "Acme")
	seed, err := ParseSeed([]byte(sampleSeed))
	require.NoError(t, err)
	require.Len(t, seed.Projects, 2)

	assert.Equal(t, "work", seed.Projects[0].ID)
	assert.Equal(t, "Tasks for Acme", seed.Projects[0].Description)
	assert.Nil(t, seed.Projects[0].Open)
	require.NotNil(t, seed.Projects[1].Open)
	assert.False(t, *seed.Projects[1].Open)
}

func TestParseSeed_Duplicate(t *testing.T) {
	_, err := ParseSeed([]byte("projects:\n  - {id: a, name: A}\n  - {id: a, name: B}\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "duplicate")
}

func TestParseSeed_MissingName(t *testing.T) {
	_, err := ParseSeed([]byte("projects:\n  - {id: a}\n"))
	assert.Error(t, err)
}

func TestLoadSeed_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "projects.yaml")
	require.NoError(t, os.WriteFile(path, []byte("projects:\n  - {id: x, name: X}\n"), 0o600))

	seed, err := LoadSeed(path)
	require.NoError(t, err)
	assert.Equal(t, "X", seed.Projects[0].Name)

	_, err = LoadSeed(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"codeport-cli/internal/apperrors"
	"codeport-cli/internal/config"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadConfig_Defaults(t *testing.T) {
	path := writeConfig(t, `
gateway:
  api_key: "test-key"
`)

	cfg, err := config.LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, "https://generativelanguage.googleapis.com/v1beta/models", cfg.Gateway.BaseURL)
	assert.Equal(t, "gemini-2.0-flash", cfg.Gateway.Model)
	assert.Equal(t, "auto", cfg.Conversion.Source)
	assert.Equal(t, "java", cfg.Conversion.Target)
	assert.True(t, cfg.Conversion.AllowSplit)
	assert.Equal(t, int64(1024*1024), cfg.Ingest.MaxFileSizeBytes)
	assert.Equal(t, "converted_project.zip", cfg.Output.ArchiveFile)
	assert.Equal(t, 50, cfg.History.Cap)
	assert.Equal(t, 30, cfg.Timeout.RunTimeoutMinutes)
}

func TestLoadConfig_MissingAPIKeyIsConfigurationError(t *testing.T) {
	path := writeConfig(t, `
conversion:
  target: "java"
`)

	cfg, err := config.LoadConfig(path)

	require.Error(t, err)
	assert.Nil(t, cfg)
	assert.Equal(t, apperrors.CodeConfiguration, apperrors.CodeOf(err))
}

func TestLoadConfig_APIKeyFromEnvironment(t *testing.T) {
	t.Setenv("GEMINI_API_KEY", "env-key")

	path := writeConfig(t, `
conversion:
  target: "python"
`)

	cfg, err := config.LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, "env-key", cfg.Gateway.APIKey)
	assert.Equal(t, "python", cfg.Conversion.Target)
}

func TestLoadConfig_FileOverridesDefaults(t *testing.T) {
	path := writeConfig(t, `
gateway:
  api_key: "test-key"
  model: "gemini-2.5-pro"
conversion:
  source: "python"
  target: "go"
  allow_split: false
ingest:
  include:
    - "src/**/*.py"
  exclude:
    - "**/*_test.py"
history:
  cap: 10
logging:
  level: "debug"
`)

	cfg, err := config.LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, "gemini-2.5-pro", cfg.Gateway.Model)
	assert.Equal(t, "python", cfg.Conversion.Source)
	assert.Equal(t, "go", cfg.Conversion.Target)
	assert.False(t, cfg.Conversion.AllowSplit)
	assert.Equal(t, []string{"src/**/*.py"}, cfg.Ingest.Include)
	assert.Equal(t, []string{"**/*_test.py"}, cfg.Ingest.Exclude)
	assert.Equal(t, 10, cfg.History.Cap)
	assert.Equal(t, "debug", cfg.Logging.Level)
}

func TestLoadConfig_UnknownSourceLanguage(t *testing.T) {
	path := writeConfig(t, `
gateway:
  api_key: "test-key"
conversion:
  source: "cobol"
`)

	_, err := config.LoadConfig(path)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "cobol")
}

func TestLoadConfig_UnknownTargetLanguage(t *testing.T) {
	path := writeConfig(t, `
gateway:
  api_key: "test-key"
conversion:
  target: "fortran"
`)

	_, err := config.LoadConfig(path)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "fortran")
}

func TestLoadConfig_InvalidGlobPattern(t *testing.T) {
	path := writeConfig(t, `
gateway:
  api_key: "test-key"
ingest:
  include:
    - "src/[.py"
`)

	_, err := config.LoadConfig(path)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "glob")
}

func TestLoadConfig_MissingFile(t *testing.T) {
	_, err := config.LoadConfig(filepath.Join(t.TempDir(), "absent.yaml"))

	require.Error(t, err)
	assert.Contains(t, err.Error(), "does not exist")
}

func TestLoadConfig_EmptyPath(t *testing.T) {
	_, err := config.LoadConfig("")

	require.Error(t, err)
}

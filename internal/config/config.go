package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/spf13/viper"

	"codeport-cli/internal/apperrors"
	"codeport-cli/internal/domain"
)

// Config is the main configuration structure.
type Config struct {
	Gateway    GatewayConfig    `yaml:"gateway"    mapstructure:"gateway"`
	Conversion ConversionConfig `yaml:"conversion" mapstructure:"conversion"`
	Ingest     IngestConfig     `yaml:"ingest"     mapstructure:"ingest"`
	GitLab     GitLabConfig     `yaml:"gitlab"     mapstructure:"gitlab"`
	Output     OutputConfig     `yaml:"output"     mapstructure:"output"`
	History    HistoryConfig    `yaml:"history"    mapstructure:"history"`
	Logging    LoggingConfig    `yaml:"logging"    mapstructure:"logging"`
	Timeout    TimeoutConfig    `yaml:"timeout"    mapstructure:"timeout"`
}

// LoggingConfig sets the logger verbosity.
type LoggingConfig struct {
	Level string `yaml:"level" mapstructure:"level"`
}

// GatewayConfig holds connection settings for the conversion gateway.
type GatewayConfig struct {
	BaseURL string `yaml:"base_url" mapstructure:"base_url"`
	APIKey  string `yaml:"api_key"  mapstructure:"api_key"`
	Model   string `yaml:"model"    mapstructure:"model"`
}

// ConversionConfig holds the default language pair and splitting policy.
type ConversionConfig struct {
	Source     string `yaml:"source"      mapstructure:"source"` // "auto" or a language tag
	Target     string `yaml:"target"      mapstructure:"target"`
	AllowSplit bool   `yaml:"allow_split" mapstructure:"allow_split"`
}

// IngestConfig controls which files enter the working set.
type IngestConfig struct {
	Include          []string `yaml:"include"             mapstructure:"include"` // doublestar globs
	Exclude          []string `yaml:"exclude"             mapstructure:"exclude"`
	MaxFileSizeBytes int64    `yaml:"max_file_size_bytes" mapstructure:"max_file_size_bytes"`
}

// GitLabConfig is only consulted when loading a project from a repository.
type GitLabConfig struct {
	BaseURL string `yaml:"base_url" mapstructure:"base_url"`
	Token   string `yaml:"token"    mapstructure:"token"`
}

// OutputConfig names the bundle written at the end of a run.
type OutputConfig struct {
	ArchiveFile string `yaml:"archive_file" mapstructure:"archive_file"`
}

// HistoryConfig locates the conversion history store.
type HistoryConfig struct {
	Dir string `yaml:"dir" mapstructure:"dir"`
	Cap int    `yaml:"cap" mapstructure:"cap"`
}

// TimeoutConfig bounds a whole batch run.
type TimeoutConfig struct {
	RunTimeoutMinutes int `yaml:"run_timeout_minutes" mapstructure:"run_timeout_minutes"`
}

// LoadConfig loads configuration from file and environment variables.
func LoadConfig(configPath string) (*Config, error) {
	if configPath == "" {
		return nil, fmt.Errorf("config path is required")
	}

	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		return nil, fmt.Errorf("config file does not exist: %s", configPath)
	}

	// Fresh instance to avoid data races in concurrent tests
	v := viper.New()
	v.SetConfigFile(configPath)
	v.SetConfigType("yaml")

	setDefaultValues(v)

	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	_ = v.BindEnv("gateway.api_key", "GEMINI_API_KEY")
	_ = v.BindEnv("gateway.base_url", "GATEWAY_BASE_URL")
	_ = v.BindEnv("gateway.model", "GATEWAY_MODEL")
	_ = v.BindEnv("gitlab.base_url", "GITLAB_BASE_URL")
	_ = v.BindEnv("gitlab.token", "GITLAB_TOKEN")
	_ = v.BindEnv("output.archive_file", "OUTPUT_ARCHIVE_FILE")

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := validateConfig(config); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &config, nil
}

// setDefaultValues sets default configuration values.
func setDefaultValues(v *viper.Viper) {
	v.SetDefault("gateway.base_url", "https://generativelanguage.googleapis.com/v1beta/models")
	v.SetDefault("gateway.model", "gemini-2.0-flash")

	v.SetDefault("conversion.source", "auto")
	v.SetDefault("conversion.target", "java")
	v.SetDefault("conversion.allow_split", true)

	v.SetDefault("ingest.include", []string{})
	v.SetDefault("ingest.exclude", []string{})
	v.SetDefault("ingest.max_file_size_bytes", int64(1024*1024))

	v.SetDefault("output.archive_file", "converted_project.zip")

	v.SetDefault("history.dir", defaultHistoryDir())
	v.SetDefault("history.cap", 50)

	v.SetDefault("logging.level", "info")

	v.SetDefault("timeout.run_timeout_minutes", 30)
}

func defaultHistoryDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".codeport"
	}
	return home + "/.codeport"
}

// validateConfig validates the configuration. A missing gateway credential
// is a configuration error and must surface before any gateway call.
func validateConfig(config Config) error {
	if config.Gateway.APIKey == "" {
		return apperrors.NewConfiguration("gateway.api_key is required (set GEMINI_API_KEY)")
	}

	if config.Gateway.BaseURL == "" {
		return apperrors.NewConfiguration("gateway.base_url is required")
	}

	if config.Gateway.Model == "" {
		return apperrors.NewConfiguration("gateway.model is required")
	}

	if config.Conversion.Source != "auto" {
		if _, ok := domain.ParseLanguage(config.Conversion.Source); !ok {
			return fmt.Errorf("conversion.source %q is not a recognized language tag", config.Conversion.Source)
		}
	}

	if _, ok := domain.ParseLanguage(config.Conversion.Target); !ok {
		return fmt.Errorf("conversion.target %q is not a recognized language tag", config.Conversion.Target)
	}

	for _, pattern := range append(config.Ingest.Include, config.Ingest.Exclude...) {
		if !doublestar.ValidatePattern(pattern) {
			return fmt.Errorf("invalid ingest glob pattern: %q", pattern)
		}
	}

	if config.History.Cap <= 0 {
		return fmt.Errorf("history.cap must be positive")
	}

	if config.Output.ArchiveFile == "" {
		return fmt.Errorf("output.archive_file is required")
	}

	return nil
}

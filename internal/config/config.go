package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/go-playground/validator/v10"
	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v2"
)

// Config represents the complete application configuration
type Config struct {
	Database DatabaseConfig `yaml:"database" envconfig:"DATABASE"`
	Logging  LoggingConfig  `yaml:"logging" envconfig:"LOGGING"`
	Pipeline PipelineConfig `yaml:"pipeline" envconfig:"PIPELINE"`
}

// DatabaseConfig contains PostgreSQL connection settings for the
// persistence sink.
type DatabaseConfig struct {
	Host     string `yaml:"host" envconfig:"HOST" default:"localhost" validate:"required"`
	Port     int    `yaml:"port" envconfig:"PORT" default:"5432" validate:"min=1,max=65535"`
	User     string `yaml:"user" envconfig:"USER" default:"postgres" validate:"required"`
	Password string `yaml:"password" envconfig:"PASSWORD"`
	Name     string `yaml:"name" envconfig:"NAME" default:"flightops" validate:"required"`
	SSLMode  string `yaml:"ssl_mode" envconfig:"SSL_MODE" default:"disable" validate:"oneof=disable require verify-ca verify-full"`
}

// DSN returns the PostgreSQL connection string
func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s",
		d.User, d.Password, d.Host, d.Port, d.Name, d.SSLMode)
}

// LoggingConfig contains logging configuration
type LoggingConfig struct {
	Level    string `yaml:"level" envconfig:"LEVEL" default:"info" validate:"oneof=debug info warn warning error"`
	Format   string `yaml:"format" envconfig:"FORMAT" default:"json" validate:"oneof=json text"`
	Output   string `yaml:"output" envconfig:"OUTPUT" default:"console" validate:"oneof=console file both"`
	FilePath string `yaml:"file_path" envconfig:"FILE_PATH" default:"logs/flightpulse.log"`
}

// PipelineConfig contains batch pipeline settings
type PipelineConfig struct {
	InputPath        string `yaml:"input_path" envconfig:"INPUT_PATH" default:"flights.csv" validate:"required"`
	OutputDir        string `yaml:"output_dir" envconfig:"OUTPUT_DIR" default:"output" validate:"required"`
	MetricsFile      string `yaml:"metrics_file" envconfig:"METRICS_FILE" default:"metrics.json" validate:"required"`
	CuratedCSVFile   string `yaml:"curated_csv_file" envconfig:"CURATED_CSV_FILE" default:"flights_curated.csv"`
	ExportCuratedCSV bool   `yaml:"export_curated_csv" envconfig:"EXPORT_CURATED_CSV" default:"false"`
}

// MetricsPath returns the full path of the exported metrics document
func (p PipelineConfig) MetricsPath() string {
	return filepath.Join(p.OutputDir, p.MetricsFile)
}

// CuratedCSVPath returns the full path of the curated-set CSV export
func (p PipelineConfig) CuratedCSVPath() string {
	return filepath.Join(p.OutputDir, p.CuratedCSVFile)
}

// envPrefix is the prefix of every configuration environment variable.
const envPrefix = "FLIGHTPULSE"

// Load loads configuration from an optional YAML file and environment
// variables. Precedence: explicitly set environment variables, then file
// values, then struct-tag defaults.
func Load(configFile string) (*Config, error) {
	var cfg Config

	// Defaults and environment come from envconfig struct tags
	if err := envconfig.Process(envPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("failed to load config from env: %w", err)
	}

	if configFile != "" {
		if _, err := os.Stat(configFile); err == nil {
			fileCfg, err := loadFromFile(configFile)
			if err != nil {
				return nil, fmt.Errorf("failed to load config from file: %w", err)
			}
			cfg = mergeConfigs(*fileCfg, cfg)
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &cfg, nil
}

// mergeConfigs overlays file values onto the env-derived config. envconfig
// fills every defaulted field whether or not its variable is set, so a
// file value must win over the tag default and lose only to a variable
// that was set explicitly.
func mergeConfigs(fileCfg, envCfg Config) Config {
	merged := envCfg

	mergeString(&merged.Database.Host, fileCfg.Database.Host, "DATABASE_HOST")
	mergeInt(&merged.Database.Port, fileCfg.Database.Port, "DATABASE_PORT")
	mergeString(&merged.Database.User, fileCfg.Database.User, "DATABASE_USER")
	mergeString(&merged.Database.Password, fileCfg.Database.Password, "DATABASE_PASSWORD")
	mergeString(&merged.Database.Name, fileCfg.Database.Name, "DATABASE_NAME")
	mergeString(&merged.Database.SSLMode, fileCfg.Database.SSLMode, "DATABASE_SSL_MODE")

	mergeString(&merged.Logging.Level, fileCfg.Logging.Level, "LOGGING_LEVEL")
	mergeString(&merged.Logging.Format, fileCfg.Logging.Format, "LOGGING_FORMAT")
	mergeString(&merged.Logging.Output, fileCfg.Logging.Output, "LOGGING_OUTPUT")
	mergeString(&merged.Logging.FilePath, fileCfg.Logging.FilePath, "LOGGING_FILE_PATH")

	mergeString(&merged.Pipeline.InputPath, fileCfg.Pipeline.InputPath, "PIPELINE_INPUT_PATH")
	mergeString(&merged.Pipeline.OutputDir, fileCfg.Pipeline.OutputDir, "PIPELINE_OUTPUT_DIR")
	mergeString(&merged.Pipeline.MetricsFile, fileCfg.Pipeline.MetricsFile, "PIPELINE_METRICS_FILE")
	mergeString(&merged.Pipeline.CuratedCSVFile, fileCfg.Pipeline.CuratedCSVFile, "PIPELINE_CURATED_CSV_FILE")
	if fileCfg.Pipeline.ExportCuratedCSV && !envSet("PIPELINE_EXPORT_CURATED_CSV") {
		merged.Pipeline.ExportCuratedCSV = true
	}

	return merged
}

// mergeString replaces *dst with the file value when one is present and
// the corresponding environment variable is unset.
func mergeString(dst *string, fileVal, envKey string) {
	if fileVal != "" && !envSet(envKey) {
		*dst = fileVal
	}
}

func mergeInt(dst *int, fileVal int, envKey string) {
	if fileVal != 0 && !envSet(envKey) {
		*dst = fileVal
	}
}

// envSet reports whether the prefixed environment variable is set,
// distinguishing an explicit value from an envconfig tag default.
func envSet(key string) bool {
	_, ok := os.LookupEnv(envPrefix + "_" + key)
	return ok
}

// loadFromFile reads configuration from a YAML file
func loadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	return &cfg, nil
}

// Validate checks the configuration against its struct-level constraints
func (c *Config) Validate() error {
	return validator.New().Struct(c)
}

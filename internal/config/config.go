package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"relbench/internal/paths"
)

// CurrentVersion is the config schema version this build writes.
const CurrentVersion = 1

// EnvPrefix prefixes environment overrides, e.g. RELBENCH_DATADIR.
const EnvPrefix = "RELBENCH"

// Config represents the complete relbench configuration
type Config struct {
	Version int    `json:"version" yaml:"version" toml:"version" mapstructure:"version"`
	DataDir string `json:"dataDir" yaml:"dataDir" toml:"dataDir" mapstructure:"dataDir"`

	// Tools is the ordered list of tools to run; empty runs every tool.
	Tools []string `json:"tools" yaml:"tools" toml:"tools" mapstructure:"tools"`

	// Parallel is the number of extractors run concurrently.
	Parallel int `json:"parallel" yaml:"parallel" toml:"parallel" mapstructure:"parallel"`

	Policy  PolicyConfig  `json:"policy" yaml:"policy" toml:"policy" mapstructure:"policy"`
	Eval    EvalConfig    `json:"eval" yaml:"eval" toml:"eval" mapstructure:"eval"`
	Logging LoggingConfig `json:"logging" yaml:"logging" toml:"logging" mapstructure:"logging"`
	Output  OutputConfig  `json:"output" yaml:"output" toml:"output" mapstructure:"output"`
}

// PolicyConfig holds the choices the source data leaves open
type PolicyConfig struct {
	DropMissingMarker bool     `json:"dropMissingMarker" yaml:"dropMissingMarker" toml:"dropMissingMarker" mapstructure:"dropMissingMarker"`
	MissingMarkers    []string `json:"missingMarkers" yaml:"missingMarkers" toml:"missingMarkers" mapstructure:"missingMarkers"`
	NoiseTargets      []string `json:"noiseTargets" yaml:"noiseTargets" toml:"noiseTargets" mapstructure:"noiseTargets"`
	Aggregation       string   `json:"aggregation" yaml:"aggregation" toml:"aggregation" mapstructure:"aggregation"`
}

// EvalConfig configures micro-suite evaluation
type EvalConfig struct {
	ReferenceFile    string `json:"referenceFile" yaml:"referenceFile" toml:"referenceFile" mapstructure:"referenceFile"`
	ExcludeSubstring string `json:"excludeSubstring" yaml:"excludeSubstring" toml:"excludeSubstring" mapstructure:"excludeSubstring"`
}

// ActiveMissingMarkers returns the missing markers in force, or nil when
// dropMissingMarker is off and marker cells are kept as ordinary values.
func (p PolicyConfig) ActiveMissingMarkers() []string {
	if !p.DropMissingMarker {
		return nil
	}
	return p.MissingMarkers
}

// LoggingConfig contains logging configuration
type LoggingConfig struct {
	Format string `json:"format" yaml:"format" toml:"format" mapstructure:"format"`
	Level  string `json:"level" yaml:"level" toml:"level" mapstructure:"level"`
}

// OutputConfig contains report output configuration
type OutputConfig struct {
	Format string `json:"format" yaml:"format" toml:"format" mapstructure:"format"`
}

// DefaultConfig returns the default configuration
func DefaultConfig() *Config {
	return &Config{
		Version:  CurrentVersion,
		DataDir:  "data",
		Tools:    []string{"sonargraph", "dependencyfinder", "jarviz", "refexpo", "pyan", "pycg"},
		Parallel: 0,
		Policy: PolicyConfig{
			DropMissingMarker: true,
			MissingMarkers:    []string{"nan", "NaN", "None"},
			NoiseTargets:      []string{".set", ".print"},
			Aggregation:       "both",
		},
		Eval: EvalConfig{
			ReferenceFile:    "cleaned_callgraph.json",
			ExcludeSubstring: "builtin",
		},
		Logging: LoggingConfig{
			Format: "human",
			Level:  "info",
		},
		Output: OutputConfig{
			Format: "human",
		},
	}
}

func setDefaults(v *viper.Viper) {
	d := DefaultConfig()
	v.SetDefault("version", d.Version)
	v.SetDefault("dataDir", d.DataDir)
	v.SetDefault("tools", d.Tools)
	v.SetDefault("parallel", d.Parallel)
	v.SetDefault("policy.dropMissingMarker", d.Policy.DropMissingMarker)
	v.SetDefault("policy.missingMarkers", d.Policy.MissingMarkers)
	v.SetDefault("policy.noiseTargets", d.Policy.NoiseTargets)
	v.SetDefault("policy.aggregation", d.Policy.Aggregation)
	v.SetDefault("eval.referenceFile", d.Eval.ReferenceFile)
	v.SetDefault("eval.excludeSubstring", d.Eval.ExcludeSubstring)
	v.SetDefault("logging.format", d.Logging.Format)
	v.SetDefault("logging.level", d.Logging.Level)
	v.SetDefault("output.format", d.Output.Format)
}

// LoadConfig loads configuration from .relbench/config.json under root.
// A .env file in root is read first; RELBENCH_* environment variables
// override file values, which override defaults.
func LoadConfig(root string) (*Config, error) {
	_ = godotenv.Load(filepath.Join(root, ".env"))

	v := viper.New()
	setDefaults(v)

	v.SetConfigFile(paths.ConfigPath(root))
	v.SetConfigType("json")
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		// A missing file leaves defaults and environment in place.
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}
	return &cfg, nil
}

// Save writes the configuration to .relbench/config.json under root
func (c *Config) Save(root string) error {
	configPath := paths.ConfigPath(root)
	if err := paths.EnsureDir(filepath.Dir(configPath)); err != nil {
		return err
	}

	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(configPath, data, 0644)
}

var (
	validAggregations = []string{"pooled", "averaged", "both"}
	validFormats      = []string{"human", "json", "yaml", "toml"}
	validLogFormats   = []string{"human", "json"}
	validLogLevels    = []string{"debug", "info", "warn", "warning", "error"}
)

func oneOf(v string, allowed []string) bool {
	for _, a := range allowed {
		if v == a {
			return true
		}
	}
	return false
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.Version != CurrentVersion {
		return &ConfigError{Field: "version", Message: "unsupported config version"}
	}
	if c.DataDir == "" {
		return &ConfigError{Field: "dataDir", Message: "must not be empty"}
	}
	if c.Parallel < 0 {
		return &ConfigError{Field: "parallel", Message: "must not be negative"}
	}
	for _, t := range c.Tools {
		if strings.TrimSpace(t) == "" {
			return &ConfigError{Field: "tools", Message: "contains an empty tool name"}
		}
	}
	if !oneOf(c.Policy.Aggregation, validAggregations) {
		return &ConfigError{Field: "policy.aggregation", Message: "must be one of " + strings.Join(validAggregations, ", ")}
	}
	if !oneOf(c.Output.Format, validFormats) {
		return &ConfigError{Field: "output.format", Message: "must be one of " + strings.Join(validFormats, ", ")}
	}
	if !oneOf(c.Logging.Format, validLogFormats) {
		return &ConfigError{Field: "logging.format", Message: "must be one of " + strings.Join(validLogFormats, ", ")}
	}
	if !oneOf(strings.ToLower(c.Logging.Level), validLogLevels) {
		return &ConfigError{Field: "logging.level", Message: "unknown level " + c.Logging.Level}
	}
	if c.Eval.ReferenceFile == "" {
		return &ConfigError{Field: "eval.referenceFile", Message: "must not be empty"}
	}
	return nil
}

// ConfigError represents a configuration error
type ConfigError struct {
	Field   string
	Message string
}

func (e *ConfigError) Error() string {
	return "config error in field '" + e.Field + "': " + e.Message
}

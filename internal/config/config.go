// Package config loads the planner configuration from files, environment
// variables and command-line flags, and resolves per-profile settings.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/llm-d/llm-d-meal-planner/internal/logging"
	"github.com/llm-d/llm-d-meal-planner/internal/optimizer"
	pkgconfig "github.com/llm-d/llm-d-meal-planner/pkg/config"
)

// EnvPrefix prefixes every environment variable read by Load.
const EnvPrefix = "MEALPLAN"

// Defaults of the top-level settings.
const (
	DefaultDatabasePath = "data/mealplan.db"
	DefaultConcurrency  = 4
	DefaultLogLevel     = "info"
)

// Config is the process configuration.
type Config struct {
	LogLevel string `mapstructure:"logLevel" yaml:"logLevel" json:"logLevel"`
	LogJSON  bool   `mapstructure:"logJSON" yaml:"logJSON" json:"logJSON"`

	// CatalogFile is the YAML food catalog; when empty foods come from the database.
	CatalogFile  string `mapstructure:"catalogFile" yaml:"catalogFile" json:"catalogFile"`
	DatabasePath string `mapstructure:"databasePath" yaml:"databasePath" json:"databasePath"`

	// MetricsTextfile receives the Prometheus metrics after every command when set.
	MetricsTextfile string `mapstructure:"metricsTextfile" yaml:"metricsTextfile" json:"metricsTextfile"`
	// Instance is attached to metrics as the controller_instance label.
	Instance string `mapstructure:"instance" yaml:"instance" json:"instance"`

	// Concurrency bounds the runs of a batch executing at once.
	Concurrency int `mapstructure:"concurrency" yaml:"concurrency" json:"concurrency"`

	Solver   pkgconfig.SolverSpec     `mapstructure:"solver" yaml:"solver" json:"solver"`
	Model    ModelConfig              `mapstructure:"model" yaml:"model" json:"model"`
	Profiles map[string]ProfileConfig `mapstructure:"profiles" yaml:"profiles" json:"profiles"`
}

// ModelConfig selects the model build policies.
type ModelConfig struct {
	ConstraintPolicy optimizer.ErrorPolicy `mapstructure:"constraintPolicy" yaml:"constraintPolicy" json:"constraintPolicy"`
	ObjectivePolicy  optimizer.ErrorPolicy `mapstructure:"objectivePolicy" yaml:"objectivePolicy" json:"objectivePolicy"`
	StrictLinking    bool                  `mapstructure:"strictLinking" yaml:"strictLinking" json:"strictLinking"`
}

// Options returns the optimizer options of the model configuration.
func (m ModelConfig) Options(bigM float64) optimizer.Options {
	return optimizer.Options{
		BigM:             bigM,
		ConstraintPolicy: m.ConstraintPolicy,
		ObjectivePolicy:  m.ObjectivePolicy,
		StrictLinking:    m.StrictLinking,
	}
}

// Validate checks for invalid configuration values.
func (c *Config) Validate() error {
	if _, err := logging.ParseLevel(c.LogLevel); err != nil {
		return err
	}
	if c.Concurrency < 1 {
		return fmt.Errorf("concurrency must be >= 1, got %d", c.Concurrency)
	}
	if c.DatabasePath == "" && c.CatalogFile == "" {
		return errors.New("one of catalogFile or databasePath must be set")
	}
	if err := c.Solver.Validate(); err != nil {
		return fmt.Errorf("invalid solver config: %w", err)
	}
	if err := c.Model.Options(c.Solver.BigM).Validate(); err != nil {
		return fmt.Errorf("invalid model config: %w", err)
	}
	return nil
}

// ProfileData returns the validated profiles.
func (c *Config) ProfileData() ProfileConfigData {
	return NormalizeProfiles(c.Profiles)
}

// flagKeys binds command-line flags to configuration keys.
var flagKeys = map[string]string{
	"log-level":        "logLevel",
	"log-json":         "logJSON",
	"catalog":          "catalogFile",
	"db":               "databasePath",
	"metrics-textfile": "metricsTextfile",
	"instance":         "instance",
	"concurrency":      "concurrency",
	"solver":           "solver.backend",
	"time-limit":       "solver.timeLimit",
	"big-m":            "solver.bigM",
}

// Load reads the configuration. Values are resolved in this order: flags,
// environment (MEALPLAN_ prefix, with a .env file in envFile if present),
// the config file, and defaults.
func Load(configFile, envFile string, flags *pflag.FlagSet) (*Config, error) {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("failed to load env file %s: %w", envFile, err)
		}
	}

	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if configFile != "" {
		v.SetConfigFile(configFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", configFile, err)
		}
	}

	if flags != nil {
		for name, key := range flagKeys {
			if f := flags.Lookup(name); f != nil {
				if err := v.BindPFlag(key, f); err != nil {
					return nil, fmt.Errorf("failed to bind flag %s: %w", name, err)
				}
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}
	cfg.Solver = *cfg.Solver.WithDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	spec := pkgconfig.DefaultSolverSpec()
	opts := optimizer.DefaultOptions()

	v.SetDefault("logLevel", DefaultLogLevel)
	v.SetDefault("logJSON", false)
	v.SetDefault("catalogFile", "")
	v.SetDefault("databasePath", DefaultDatabasePath)
	v.SetDefault("metricsTextfile", "")
	v.SetDefault("instance", "")
	v.SetDefault("concurrency", DefaultConcurrency)
	v.SetDefault("solver.backend", string(spec.Backend))
	v.SetDefault("solver.timeLimit", spec.TimeLimit)
	v.SetDefault("solver.bigM", spec.BigM)
	v.SetDefault("solver.mipGap", spec.Gap())
	v.SetDefault("solver.nodeLimit", spec.NodeLimit)
	v.SetDefault("solver.cbcPath", spec.CBCPath)
	v.SetDefault("model.constraintPolicy", string(opts.ConstraintPolicy))
	v.SetDefault("model.objectivePolicy", string(opts.ObjectivePolicy))
	v.SetDefault("model.strictLinking", false)
}

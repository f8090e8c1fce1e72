// Package config loads server settings from an optional YAML file and
// environment overrides.
//
// Precedence, lowest first: built-in defaults, the YAML file, environment
// variables. The result is validated before use.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// Environment variables read by Load.
const (
	EnvConfig     = "DISCOVERY_SIM_CONFIG"
	EnvSeed       = "DISCOVERY_SIM_SEED"
	EnvLogLevel   = "DISCOVERY_SIM_LOG_LEVEL"
	EnvLogMode    = "DISCOVERY_SIM_LOG_MODE"
	EnvJournalDir = "DISCOVERY_SIM_JOURNAL_DIR"
	EnvScenario   = "DISCOVERY_SIM_SCENARIO"
)

// ErrInvalidConfig wraps every validation failure.
var ErrInvalidConfig = errors.New("invalid config")

// getenv is a package-level var to allow test injection.
var getenv = os.Getenv

// Config is the full server configuration.
type Config struct {
	// Scenario is a YAML scenario file. Empty uses the embedded catalog.
	Scenario string `yaml:"scenario"`
	// CatalogSeed seeds the generated filler personas.
	CatalogSeed int64 `yaml:"catalog_seed"`
	// Seed is the base for session seeds. 0 derives seeds from the clock.
	Seed int64 `yaml:"seed"`
	// Budget overrides the scenario's token budget when > 0.
	Budget int `yaml:"budget"`

	MaxBooked                int     `yaml:"max_booked"`
	MaxQuestions             int     `yaml:"max_questions"`
	GenericAnswerProbability float64 `yaml:"generic_answer_probability"`
	FlashLimit               int     `yaml:"flash_limit"`
	FollowUpLimit            int     `yaml:"follow_up_limit"`

	Journal JournalConfig `yaml:"journal"`
	Log     LogConfig     `yaml:"log"`

	// Source is the file the config was read from, if any.
	Source string `yaml:"-"`
}

// JournalConfig controls the command journal.
type JournalConfig struct {
	Enabled bool `yaml:"enabled"`
	// Dir keeps the journal on disk. Empty keeps it in memory.
	Dir string `yaml:"dir"`
}

// LogConfig controls logging.
type LogConfig struct {
	Mode  string `yaml:"mode"`
	Level string `yaml:"level"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		CatalogSeed:              42,
		MaxBooked:                8,
		MaxQuestions:             12,
		GenericAnswerProbability: 0.4,
		FlashLimit:               5,
		FollowUpLimit:            3,
		Journal:                  JournalConfig{Enabled: true},
		Log:                      LogConfig{Mode: "prod", Level: "info"},
	}
}

// Load builds the configuration. path names the YAML file; when empty the
// DISCOVERY_SIM_CONFIG variable is consulted, and when that is empty too
// only defaults and environment apply.
func Load(path string) (Config, error) {
	cfg := Default()

	if path == "" {
		path = getenv(EnvConfig)
	}
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("reading config: %w", err)
		}
		if err := cfg.decode(data); err != nil {
			return Config{}, fmt.Errorf("parsing %s: %w", path, err)
		}
		cfg.Source = path
	}

	if err := cfg.applyEnv(); err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// decode overlays YAML onto cfg. Unknown keys are rejected.
func (c *Config) decode(data []byte) error {
	if len(bytes.TrimSpace(data)) == 0 {
		return nil
	}
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	return dec.Decode(c)
}

func (c *Config) applyEnv() error {
	if v := getenv(EnvSeed); v != "" {
		seed, err := strconv.ParseInt(strings.TrimSpace(v), 10, 64)
		if err != nil {
			return fmt.Errorf("%w: %s=%q is not an integer", ErrInvalidConfig, EnvSeed, v)
		}
		c.Seed = seed
	}
	if v := getenv(EnvLogLevel); v != "" {
		c.Log.Level = v
	}
	if v := getenv(EnvLogMode); v != "" {
		c.Log.Mode = v
	}
	if v := getenv(EnvJournalDir); v != "" {
		c.Journal.Dir = v
	}
	if v := getenv(EnvScenario); v != "" {
		c.Scenario = v
	}
	return nil
}

// Validate checks ranges and enumerations.
func (c Config) Validate() error {
	var problems []string
	if c.Budget < 0 {
		problems = append(problems, "budget must be >= 0")
	}
	if c.MaxBooked < 1 {
		problems = append(problems, "max_booked must be >= 1")
	}
	if c.MaxQuestions < 0 {
		problems = append(problems, "max_questions must be >= 0")
	}
	if c.GenericAnswerProbability < 0 || c.GenericAnswerProbability > 1 {
		problems = append(problems, "generic_answer_probability must be in [0,1]")
	}
	if c.FlashLimit < 0 {
		problems = append(problems, "flash_limit must be >= 0")
	}
	if c.FollowUpLimit < 0 {
		problems = append(problems, "follow_up_limit must be >= 0")
	}
	switch strings.ToLower(c.Log.Mode) {
	case "", "dev", "prod", "production":
	default:
		problems = append(problems, fmt.Sprintf("log.mode %q must be dev or prod", c.Log.Mode))
	}
	switch strings.ToLower(c.Log.Level) {
	case "", "debug", "info", "warn", "warning", "error":
	default:
		problems = append(problems, fmt.Sprintf("log.level %q is not a level", c.Log.Level))
	}

	if len(problems) > 0 {
		return fmt.Errorf("%w: %s", ErrInvalidConfig, strings.Join(problems, "; "))
	}
	return nil
}

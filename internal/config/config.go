// Package config provides unified configuration loading for tipgen.
// It supports loading from YAML files and environment variables.
package config

import (
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"

	"github.com/caarlos0/env/v11"
	"github.com/nvandessel/tipgen/internal/constants"
	"gopkg.in/yaml.v3"
)

// ErrInvalidConfig marks a configuration error: malformed distribution
// parameters that make generation impossible. It is always wrapped with
// details and should be matched with errors.Is.
var ErrInvalidConfig = errors.New("invalid configuration")

// TipgenConfig contains all tipgen configuration settings.
type TipgenConfig struct {
	// Generator holds the dataset distribution parameters.
	Generator GeneratorConfig `json:"generator" yaml:"generator"`

	// Output controls where generated datasets are written.
	Output OutputConfig `json:"output" yaml:"output"`

	// Logging contains settings for operational and run logging.
	Logging LoggingConfig `json:"logging" yaml:"logging"`
}

// LoggingConfig configures tipgen's logging behavior.
type LoggingConfig struct {
	// Level sets the log verbosity: "info" (default), "debug", or "trace".
	// "debug" enables run logging to <data_dir>/runs.jsonl.
	Level string `json:"level" yaml:"level"`
}

// OutputConfig configures dataset persistence.
type OutputConfig struct {
	// DataDir holds the dataset catalog and run log. Defaults to ~/.tipgen.
	DataDir string `json:"data_dir,omitempty" yaml:"data_dir,omitempty"`

	// Format is the default file format for `tipgen generate`.
	Format constants.Format `json:"format" yaml:"format"`
}

// GeneratorConfig is the immutable parameter record for one dataset
// generation. It is passed by value into the sampler and assembler.
type GeneratorConfig struct {
	// Rows is the default number of simulated orders.
	Rows int `json:"rows" yaml:"rows"`

	// Seed, when set, makes generation reproducible. Nil draws a fresh seed.
	Seed *uint64 `json:"seed,omitempty" yaml:"seed,omitempty"`

	Distance     BoundedNormal `json:"distance" yaml:"distance"`
	Subtotal     LogNormal     `json:"subtotal" yaml:"subtotal"`
	WaitTime     BoundedNormal `json:"wait_time" yaml:"wait_time"`
	Weather      Categorical   `json:"weather" yaml:"weather"`
	TimeOfDay    Categorical   `json:"time_of_day" yaml:"time_of_day"`
	DayOfWeek    Categorical   `json:"day_of_week" yaml:"day_of_week"`
	Rating       IntRange      `json:"rating" yaml:"rating"`
	ItemCount    Poisson       `json:"item_count" yaml:"item_count"`
	MessagesSent Poisson       `json:"messages_sent" yaml:"messages_sent"`
}

// BoundedNormal parameterizes a normal draw clamped into [Min, Max].
type BoundedNormal struct {
	Mean float64 `json:"mean" yaml:"mean"`
	Std  float64 `json:"std" yaml:"std"`
	Min  float64 `json:"min" yaml:"min"`
	Max  float64 `json:"max" yaml:"max"`
}

// LogNormal parameterizes a lognormal draw by its log-space mean and sigma.
type LogNormal struct {
	LogMean  float64 `json:"log_mean" yaml:"log_mean"`
	LogSigma float64 `json:"log_sigma" yaml:"log_sigma"`
}

// Categorical pairs labels with parallel probability weights.
type Categorical struct {
	Choices []string  `json:"choices" yaml:"choices,flow"`
	Probs   []float64 `json:"probs" yaml:"probs,flow"`
}

// IntRange is an inclusive integer range for discrete-uniform draws.
type IntRange struct {
	Min int `json:"min" yaml:"min"`
	Max int `json:"max" yaml:"max"`
}

// Poisson parameterizes a count feature by its rate.
type Poisson struct {
	Rate float64 `json:"rate" yaml:"rate"`
}

// Default returns a TipgenConfig with sensible defaults.
func Default() *TipgenConfig {
	return &TipgenConfig{
		Generator: DefaultGenerator(),
		Output: OutputConfig{
			Format: constants.FormatCSV,
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// DefaultGenerator returns the stock distribution parameters.
func DefaultGenerator() GeneratorConfig {
	return GeneratorConfig{
		Rows: constants.DefaultRows,
		Distance: BoundedNormal{
			Mean: constants.DistanceMean,
			Std:  constants.DistanceStd,
			Min:  constants.DistanceMin,
			Max:  constants.DistanceMax,
		},
		Subtotal: LogNormal{
			LogMean:  constants.SubtotalLogMean,
			LogSigma: constants.SubtotalLogSigma,
		},
		WaitTime: BoundedNormal{
			Mean: constants.WaitTimeMean,
			Std:  constants.WaitTimeStd,
			Min:  constants.WaitTimeMin,
			Max:  constants.WaitTimeMax,
		},
		Weather:      newCategorical(constants.WeatherChoices, constants.WeatherProbs),
		TimeOfDay:    newCategorical(constants.TimeOfDayChoices, constants.TimeOfDayProbs),
		DayOfWeek:    newCategorical(constants.DayOfWeekChoices, constants.DayOfWeekProbs),
		Rating:       IntRange{Min: constants.RatingMin, Max: constants.RatingMax},
		ItemCount:    Poisson{Rate: constants.ItemCountRate},
		MessagesSent: Poisson{Rate: constants.MessagesSentRate},
	}
}

// newCategorical copies the package-level defaults so callers can't mutate them.
func newCategorical(choices []string, probs []float64) Categorical {
	return Categorical{
		Choices: append([]string(nil), choices...),
		Probs:   append([]float64(nil), probs...),
	}
}

// Clone returns a deep copy, so the categorical slices of the copy can be
// modified without affecting the receiver.
func (g GeneratorConfig) Clone() GeneratorConfig {
	out := g
	out.Weather = newCategorical(g.Weather.Choices, g.Weather.Probs)
	out.TimeOfDay = newCategorical(g.TimeOfDay.Choices, g.TimeOfDay.Probs)
	out.DayOfWeek = newCategorical(g.DayOfWeek.Choices, g.DayOfWeek.Probs)
	if g.Seed != nil {
		seed := *g.Seed
		out.Seed = &seed
	}
	return out
}

// DefaultDataDir returns ~/.tipgen.
func DefaultDataDir() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}
	return filepath.Join(homeDir, constants.DataDirName), nil
}

// DefaultPath returns the default config file location, ~/.tipgen/config.yaml.
func DefaultPath() (string, error) {
	dir, err := DefaultDataDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, constants.ConfigFileName), nil
}

// ResolvedDataDir returns Output.DataDir, falling back to DefaultDataDir.
func (c *TipgenConfig) ResolvedDataDir() (string, error) {
	if c.Output.DataDir != "" {
		return c.Output.DataDir, nil
	}
	return DefaultDataDir()
}

// Load loads configuration from path (or the default location when path is
// empty) and then applies environment variables.
// Order: defaults -> config file -> environment variables
func Load(path string) (*TipgenConfig, error) {
	config := Default()

	if path == "" {
		if p, err := DefaultPath(); err == nil {
			if _, statErr := os.Stat(p); statErr == nil {
				path = p
			}
		}
	}

	if path != "" {
		fileConfig, err := LoadFromFile(path)
		if err != nil {
			return nil, fmt.Errorf("loading config file: %w", err)
		}
		config = fileConfig
	}

	if err := applyEnvOverrides(config); err != nil {
		return nil, err
	}

	return config, nil
}

// LoadFromFile loads configuration from a specific YAML file. Keys missing
// from the file keep their default values.
func LoadFromFile(path string) (*TipgenConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	config := Default()
	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	return config, nil
}

// Save writes the configuration as YAML to path, creating parent directories.
func Save(cfg *TipgenConfig, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// Validate checks that the configuration is valid.
func (c *TipgenConfig) Validate() error {
	var errs []error

	if err := c.Generator.Validate(); err != nil {
		errs = append(errs, err)
	}

	if !c.Output.Format.Valid() {
		errs = append(errs, fmt.Errorf("%w: invalid output format: %s (valid: csv, parquet, arrow, snapshot)", ErrInvalidConfig, c.Output.Format))
	}

	validLevels := map[string]bool{"info": true, "debug": true, "trace": true}
	if c.Logging.Level != "" && !validLevels[c.Logging.Level] {
		errs = append(errs, fmt.Errorf("%w: invalid log level: %s (valid: info, debug, trace, or empty for default)", ErrInvalidConfig, c.Logging.Level))
	}

	return errors.Join(errs...)
}

// Validate reports every malformed distribution parameter. All returned
// errors wrap ErrInvalidConfig.
func (g GeneratorConfig) Validate() error {
	var errs []error
	add := func(format string, args ...any) {
		errs = append(errs, fmt.Errorf("%w: "+format, append([]any{ErrInvalidConfig}, args...)...))
	}

	if g.Rows < 0 {
		add("rows must be non-negative, got %d", g.Rows)
	}

	bounded := []struct {
		name string
		bn   BoundedNormal
	}{{"distance", g.Distance}, {"wait_time", g.WaitTime}}
	for _, b := range bounded {
		name, bn := b.name, b.bn
		for _, f := range []struct {
			field string
			v     float64
		}{{"mean", bn.Mean}, {"std", bn.Std}, {"min", bn.Min}, {"max", bn.Max}} {
			if !finite(f.v) {
				add("%s: %s must be finite, got %v", name, f.field, f.v)
			}
		}
		if bn.Std < 0 {
			add("%s: std must be non-negative, got %v", name, bn.Std)
		}
		if bn.Min > bn.Max {
			add("%s: min %v exceeds max %v", name, bn.Min, bn.Max)
		}
	}

	if !finite(g.Subtotal.LogMean) {
		add("subtotal: log_mean must be finite, got %v", g.Subtotal.LogMean)
	}
	if g.Subtotal.LogSigma < 0 || !finite(g.Subtotal.LogSigma) {
		add("subtotal: log_sigma must be non-negative and finite, got %v", g.Subtotal.LogSigma)
	}

	categoricals := []struct {
		name string
		cat  Categorical
	}{{"weather", g.Weather}, {"time_of_day", g.TimeOfDay}, {"day_of_week", g.DayOfWeek}}
	for _, c := range categoricals {
		if err := c.cat.Validate(); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", c.name, err))
		}
	}

	if g.Rating.Min > g.Rating.Max {
		add("rating: min %d exceeds max %d", g.Rating.Min, g.Rating.Max)
	} else if span := uint64(g.Rating.Max) - uint64(g.Rating.Min) + 1; span == 0 || span > math.MaxInt {
		add("rating: range [%d, %d] holds too many values", g.Rating.Min, g.Rating.Max)
	}

	counts := []struct {
		name string
		p    Poisson
	}{{"item_count", g.ItemCount}, {"messages_sent", g.MessagesSent}}
	for _, c := range counts {
		if c.p.Rate < 0 || !finite(c.p.Rate) {
			add("%s: rate must be non-negative and finite, got %v", c.name, c.p.Rate)
		}
	}

	return errors.Join(errs...)
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

// Validate checks that choices and probabilities are parallel, non-empty,
// non-negative, and sum to one.
func (c Categorical) Validate() error {
	if len(c.Choices) == 0 {
		return fmt.Errorf("%w: no choices configured", ErrInvalidConfig)
	}
	if len(c.Choices) != len(c.Probs) {
		return fmt.Errorf("%w: %d choices but %d probabilities", ErrInvalidConfig, len(c.Choices), len(c.Probs))
	}

	seen := make(map[string]bool, len(c.Choices))
	var sum float64
	for i, p := range c.Probs {
		if p < 0 || math.IsNaN(p) {
			return fmt.Errorf("%w: probability for %q must be non-negative, got %v", ErrInvalidConfig, c.Choices[i], p)
		}
		if seen[c.Choices[i]] {
			return fmt.Errorf("%w: duplicate choice %q", ErrInvalidConfig, c.Choices[i])
		}
		seen[c.Choices[i]] = true
		sum += p
	}
	if math.Abs(sum-1) > constants.ProbabilityTolerance {
		return fmt.Errorf("%w: probabilities sum to %v, want 1", ErrInvalidConfig, sum)
	}
	return nil
}

// envOverrides lists the environment variables that override file settings.
// Unset variables leave the pointer nil.
type envOverrides struct {
	Rows     *int    `env:"TIPGEN_ROWS"`
	Seed     *uint64 `env:"TIPGEN_SEED"`
	LogLevel *string `env:"TIPGEN_LOG_LEVEL"`
	DataDir  *string `env:"TIPGEN_DATA_DIR"`
	Format   *string `env:"TIPGEN_OUTPUT_FORMAT"`
}

// applyEnvOverrides applies environment variable overrides to the config.
func applyEnvOverrides(config *TipgenConfig) error {
	var ov envOverrides
	if err := env.Parse(&ov); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}

	if ov.Rows != nil {
		config.Generator.Rows = *ov.Rows
	}
	if ov.Seed != nil {
		seed := *ov.Seed
		config.Generator.Seed = &seed
	}
	if ov.LogLevel != nil {
		config.Logging.Level = *ov.LogLevel
	}
	if ov.DataDir != nil {
		config.Output.DataDir = *ov.DataDir
	}
	if ov.Format != nil {
		config.Output.Format = constants.Format(*ov.Format)
	}
	return nil
}

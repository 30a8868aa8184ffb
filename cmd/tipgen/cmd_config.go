package main

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/nvandessel/tipgen/internal/config"
	"github.com/nvandessel/tipgen/internal/constants"
)

func newConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage tipgen configuration",
		Long: `View and modify tipgen configuration settings.

Configuration is stored in ~/.tipgen/config.yaml unless --config is given.
Environment variables (TIPGEN_ROWS, TIPGEN_SEED, TIPGEN_LOG_LEVEL,
TIPGEN_DATA_DIR, TIPGEN_OUTPUT_FORMAT) override the file.

Examples:
  tipgen config init                                   # Write the defaults
  tipgen config list                                   # Show all settings
  tipgen config get generator.distance.mean            # Get a setting
  tipgen config set generator.rows 5000                # Set a setting
  tipgen config set generator.weather clear=0.6,rain=0.3,snow=0.1`,
	}

	cmd.AddCommand(
		newConfigInitCmd(),
		newConfigListCmd(),
		newConfigGetCmd(),
		newConfigSetCmd(),
	)
	return cmd
}

// configPath returns --config or the default location.
func configPath(cmd *cobra.Command) (string, error) {
	if p, _ := cmd.Flags().GetString("config"); p != "" {
		return p, nil
	}
	return config.DefaultPath()
}

func newConfigInitCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Write a config file with the default settings",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := configPath(cmd)
			if err != nil {
				return err
			}
			force, _ := cmd.Flags().GetBool("force")
			if _, err := os.Stat(path); err == nil && !force {
				return fmt.Errorf("%s already exists (use --force to overwrite)", path)
			}

			if err := config.Save(config.Default(), path); err != nil {
				return err
			}

			if jsonOutput(cmd) {
				return writeJSON(cmd, map[string]string{"status": "initialized", "path": path})
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Wrote default configuration to %s\n", path)
			return nil
		},
	}
	cmd.Flags().Bool("force", false, "Overwrite an existing config file")
	return cmd
}

func newConfigListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List all configuration settings",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			path, _ := cmd.Flags().GetString("config")
			cfg, err := config.Load(path)
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}

			if jsonOutput(cmd) {
				return writeJSON(cmd, cfg)
			}

			out := cmd.OutOrStdout()
			fmt.Fprintln(out, "Output Settings:")
			fmt.Fprintf(out, "  output.data_dir:  %s\n", valueOrDefault(cfg.Output.DataDir, "(default ~/.tipgen)"))
			fmt.Fprintf(out, "  output.format:    %s\n", cfg.Output.Format)
			fmt.Fprintln(out)
			fmt.Fprintln(out, "Logging Settings:")
			fmt.Fprintf(out, "  logging.level:    %s\n", valueOrDefault(cfg.Logging.Level, "info"))
			fmt.Fprintln(out)
			fmt.Fprintln(out, "Generator Settings:")
			printGenerator(out, cfg.Generator)
			return nil
		},
	}
}

func newConfigGetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "get <key>",
		Short: "Get a configuration value",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			key := args[0]
			path, _ := cmd.Flags().GetString("config")
			cfg, err := config.Load(path)
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}

			value, found := getConfigValue(cfg, key)
			if !found {
				return fmt.Errorf("unknown configuration key: %s (valid: %s)", key, strings.Join(configKeys(), ", "))
			}

			if jsonOutput(cmd) {
				return writeJSON(cmd, map[string]any{"key": key, "value": value})
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s = %s\n", key, value)
			return nil
		},
	}
}

func newConfigSetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "set <key> <value>",
		Short: "Set a configuration value",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			key, value := args[0], args[1]
			path, err := configPath(cmd)
			if err != nil {
				return err
			}

			// Start from the file alone so environment overrides are not persisted.
			cfg := config.Default()
			if _, statErr := os.Stat(path); statErr == nil {
				if cfg, err = config.LoadFromFile(path); err != nil {
					return err
				}
			}

			if err := setConfigValue(cfg, key, value); err != nil {
				return err
			}
			if err := cfg.Validate(); err != nil {
				return fmt.Errorf("refusing to save: %w", err)
			}
			if err := config.Save(cfg, path); err != nil {
				return err
			}

			if jsonOutput(cmd) {
				return writeJSON(cmd, map[string]string{"status": "updated", "key": key, "value": value})
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Set %s = %s\n", key, value)
			return nil
		},
	}
}

// configKey describes one dot-notation configuration key.
type configKey struct {
	name string
	get  func(cfg *config.TipgenConfig) string
	set  func(cfg *config.TipgenConfig, value string) error
}

func floatKey(name string, field func(cfg *config.TipgenConfig) *float64) configKey {
	return configKey{
		name: name,
		get:  func(cfg *config.TipgenConfig) string { return strconv.FormatFloat(*field(cfg), 'g', -1, 64) },
		set: func(cfg *config.TipgenConfig, value string) error {
			f, err := strconv.ParseFloat(value, 64)
			if err != nil {
				return fmt.Errorf("invalid number for %s: %s", name, value)
			}
			*field(cfg) = f
			return nil
		},
	}
}

func intKey(name string, field func(cfg *config.TipgenConfig) *int) configKey {
	return configKey{
		name: name,
		get:  func(cfg *config.TipgenConfig) string { return strconv.Itoa(*field(cfg)) },
		set: func(cfg *config.TipgenConfig, value string) error {
			n, err := strconv.Atoi(value)
			if err != nil {
				return fmt.Errorf("invalid integer for %s: %s", name, value)
			}
			*field(cfg) = n
			return nil
		},
	}
}

func categoricalKey(name string, field func(cfg *config.TipgenConfig) *config.Categorical) configKey {
	return configKey{
		name: name,
		get:  func(cfg *config.TipgenConfig) string { return formatCategorical(*field(cfg)) },
		set: func(cfg *config.TipgenConfig, value string) error {
			c, err := parseCategorical(value)
			if err != nil {
				return fmt.Errorf("invalid value for %s: %w", name, err)
			}
			*field(cfg) = c
			return nil
		},
	}
}

var configKeyTable = []configKey{
	intKey("generator.rows", func(c *config.TipgenConfig) *int { return &c.Generator.Rows }),
	{
		name: "generator.seed",
		get: func(c *config.TipgenConfig) string {
			if c.Generator.Seed == nil {
				return ""
			}
			return strconv.FormatUint(*c.Generator.Seed, 10)
		},
		set: func(c *config.TipgenConfig, value string) error {
			if value == "" || value == "none" {
				c.Generator.Seed = nil
				return nil
			}
			seed, err := strconv.ParseUint(value, 10, 64)
			if err != nil {
				return fmt.Errorf("invalid seed: %s (use a non-negative integer, or \"none\")", value)
			}
			c.Generator.Seed = &seed
			return nil
		},
	},
	floatKey("generator.distance.mean", func(c *config.TipgenConfig) *float64 { return &c.Generator.Distance.Mean }),
	floatKey("generator.distance.std", func(c *config.TipgenConfig) *float64 { return &c.Generator.Distance.Std }),
	floatKey("generator.distance.min", func(c *config.TipgenConfig) *float64 { return &c.Generator.Distance.Min }),
	floatKey("generator.distance.max", func(c *config.TipgenConfig) *float64 { return &c.Generator.Distance.Max }),
	floatKey("generator.subtotal.log_mean", func(c *config.TipgenConfig) *float64 { return &c.Generator.Subtotal.LogMean }),
	floatKey("generator.subtotal.log_sigma", func(c *config.TipgenConfig) *float64 { return &c.Generator.Subtotal.LogSigma }),
	floatKey("generator.wait_time.mean", func(c *config.TipgenConfig) *float64 { return &c.Generator.WaitTime.Mean }),
	floatKey("generator.wait_time.std", func(c *config.TipgenConfig) *float64 { return &c.Generator.WaitTime.Std }),
	floatKey("generator.wait_time.min", func(c *config.TipgenConfig) *float64 { return &c.Generator.WaitTime.Min }),
	floatKey("generator.wait_time.max", func(c *config.TipgenConfig) *float64 { return &c.Generator.WaitTime.Max }),
	categoricalKey("generator.weather", func(c *config.TipgenConfig) *config.Categorical { return &c.Generator.Weather }),
	categoricalKey("generator.time_of_day", func(c *config.TipgenConfig) *config.Categorical { return &c.Generator.TimeOfDay }),
	categoricalKey("generator.day_of_week", func(c *config.TipgenConfig) *config.Categorical { return &c.Generator.DayOfWeek }),
	intKey("generator.rating.min", func(c *config.TipgenConfig) *int { return &c.Generator.Rating.Min }),
	intKey("generator.rating.max", func(c *config.TipgenConfig) *int { return &c.Generator.Rating.Max }),
	floatKey("generator.item_count.rate", func(c *config.TipgenConfig) *float64 { return &c.Generator.ItemCount.Rate }),
	floatKey("generator.messages_sent.rate", func(c *config.TipgenConfig) *float64 { return &c.Generator.MessagesSent.Rate }),
	{
		name: "output.data_dir",
		get:  func(c *config.TipgenConfig) string { return c.Output.DataDir },
		set: func(c *config.TipgenConfig, value string) error {
			c.Output.DataDir = value
			return nil
		},
	},
	{
		name: "output.format",
		get:  func(c *config.TipgenConfig) string { return c.Output.Format.String() },
		set: func(c *config.TipgenConfig, value string) error {
			f := constants.Format(value)
			if !f.Valid() {
				return fmt.Errorf("invalid format: %s (valid: csv, parquet, arrow, snapshot)", value)
			}
			c.Output.Format = f
			return nil
		},
	},
	{
		name: "logging.level",
		get:  func(c *config.TipgenConfig) string { return c.Logging.Level },
		set: func(c *config.TipgenConfig, value string) error {
			c.Logging.Level = value
			return nil
		},
	},
}

func configKeys() []string {
	names := make([]string, len(configKeyTable))
	for i, k := range configKeyTable {
		names[i] = k.name
	}
	return names
}

// getConfigValue retrieves a configuration value by dot-notation key.
func getConfigValue(cfg *config.TipgenConfig, key string) (string, bool) {
	for _, k := range configKeyTable {
		if k.name == key {
			return k.get(cfg), true
		}
	}
	return "", false
}

// setConfigValue sets a configuration value by dot-notation key.
func setConfigValue(cfg *config.TipgenConfig, key, value string) error {
	for _, k := range configKeyTable {
		if k.name == key {
			return k.set(cfg, value)
		}
	}
	return fmt.Errorf("unknown configuration key: %s", key)
}

// formatCategorical renders choices and probabilities as "a=0.7,b=0.3".
func formatCategorical(c config.Categorical) string {
	parts := make([]string, len(c.Choices))
	for i, choice := range c.Choices {
		p := "?"
		if i < len(c.Probs) {
			p = strconv.FormatFloat(c.Probs[i], 'g', 6, 64)
		}
		parts[i] = choice + "=" + p
	}
	return strings.Join(parts, ",")
}

// parseCategorical parses "a=0.7,b=0.3". Probabilities are checked by
// config validation, not here.
func parseCategorical(value string) (config.Categorical, error) {
	var c config.Categorical
	for _, part := range strings.Split(value, ",") {
		choice, prob, ok := strings.Cut(strings.TrimSpace(part), "=")
		if !ok || choice == "" {
			return config.Categorical{}, fmt.Errorf("expected label=probability, got %q", part)
		}
		p, err := strconv.ParseFloat(prob, 64)
		if err != nil {
			return config.Categorical{}, fmt.Errorf("invalid probability for %s: %q", choice, prob)
		}
		c.Choices = append(c.Choices, choice)
		c.Probs = append(c.Probs, p)
	}
	return c, nil
}

// printGenerator writes the generator parameters as indented YAML.
func printGenerator(w io.Writer, g config.GeneratorConfig) {
	data, err := yaml.Marshal(g)
	if err != nil {
		fmt.Fprintf(w, "  (unprintable: %v)\n", err)
		return
	}
	for _, line := range strings.Split(strings.TrimRight(string(data), "\n"), "\n") {
		fmt.Fprintf(w, "  %s\n", line)
	}
}

// valueOrDefault returns the value if non-empty, otherwise the default.
func valueOrDefault(value, defaultValue string) string {
	if value == "" {
		return defaultValue
	}
	return value
}

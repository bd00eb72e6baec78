package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/alnah/medreport/internal/config"
	"github.com/alnah/medreport/internal/lang"
)

// ConfigCmd creates the config command with subcommands.
// The env parameter provides injectable dependencies for testing.
func ConfigCmd(env *Env) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage configuration settings",
		Long: `Manage persistent configuration settings.

Configuration is stored in ~/.config/medreport/config.
Unset keys fall back to environment variables.

Supported settings:
` + keyHelp(),
		Example: `  medreport config set provider deepseek
  medreport config set report-language hi
  medreport config set output-dir ~/Documents/reports
  medreport config get primary-model
  medreport config list`,
	}

	cmd.AddCommand(configSetCmd(env))
	cmd.AddCommand(configGetCmd(env))
	cmd.AddCommand(configListCmd(env))

	return cmd
}

// keyDescriptions documents each key in help text.
var keyDescriptions = map[string]string{
	config.KeyProvider:       "Completion provider: openai or deepseek",
	config.KeyPrimaryModel:   "Model tried first",
	config.KeyFallbackModel:  "Model tried when the primary fails",
	config.KeyReportLanguage: "Reporting language (ISO 639-1 code)",
	config.KeyOutputDir:      "Default directory for report files",
}

func keyHelp() string {
	var b strings.Builder
	for _, key := range config.Keys() {
		fmt.Fprintf(&b, "  %-16s %s (env: %s)\n", key, keyDescriptions[key], config.EnvVar(key))
	}
	return strings.TrimRight(b.String(), "\n")
}

// configSetCmd creates the "config set" subcommand.
func configSetCmd(env *Env) *cobra.Command {
	return &cobra.Command{
		Use:   "set <key> <value>",
		Short: "Set a configuration value",
		Long: `Set a configuration value.

Supported keys:
` + keyHelp() + `

Values are validated: provider and language must be known, and
output-dir is created if it doesn't exist.`,
		Example: `  medreport config set provider openai
  medreport config set fallback-model gpt-4o-mini`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			key, value := args[0], args[1]
			return runConfigSet(env, key, value)
		},
	}
}

// configGetCmd creates the "config get" subcommand.
func configGetCmd(env *Env) *cobra.Command {
	return &cobra.Command{
		Use:   "get <key>",
		Short: "Get a configuration value",
		Long: `Get a configuration value.

Prints the value to stdout, or nothing if not set.`,
		Example: `  medreport config get provider`,
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runConfigGet(env, args[0])
		},
	}
}

// configListCmd creates the "config list" subcommand.
func configListCmd(env *Env) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List all configuration values",
		Long: `List all configuration values.

Shows both values from the config file and environment variable fallbacks.`,
		Example: `  medreport config list`,
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runConfigList(env)
		},
	}
}

// runConfigSet handles the "config set" command.
func runConfigSet(env *Env, key, value string) error {
	if err := config.CheckKey(key); err != nil {
		return err
	}

	value, err := normalizeConfigValue(key, value)
	if err != nil {
		return err
	}

	if err := config.Save(key, value); err != nil {
		return err
	}

	fmt.Fprintf(env.Stderr, "Set %s = %s\n", key, value)
	return nil
}

// normalizeConfigValue validates value for key and returns the form to store.
func normalizeConfigValue(key, value string) (string, error) {
	value = strings.TrimSpace(value)

	switch key {
	case config.KeyProvider:
		p, err := ParseProvider(value)
		if err != nil {
			return "", err
		}
		return p.String(), nil

	case config.KeyReportLanguage:
		if value == "" {
			return "", fmt.Errorf("%s cannot be empty: %w", key, lang.ErrInvalid)
		}
		l, err := lang.Parse(value)
		if err != nil {
			return "", err
		}
		return l.String(), nil

	case config.KeyPrimaryModel, config.KeyFallbackModel:
		if value == "" {
			return "", fmt.Errorf("%s cannot be empty: %w", key, config.ErrInvalidValue)
		}
		return value, nil

	case config.KeyOutputDir:
		// Store the expanded path for consistency.
		expanded := config.ExpandPath(value)
		if err := config.EnsureOutputDir(expanded); err != nil {
			return "", fmt.Errorf("invalid output-dir: %w", err)
		}
		return expanded, nil
	}

	return value, nil
}

// runConfigGet handles the "config get" command.
func runConfigGet(env *Env, key string) error {
	if err := config.CheckKey(key); err != nil {
		return err
	}

	value, err := config.Get(key)
	if err != nil {
		return err
	}

	// Check environment variable fallback.
	if value == "" {
		value = env.Getenv(config.EnvVar(key))
	}

	if value != "" {
		fmt.Fprintln(env.Stdout, value)
	}

	return nil
}

// runConfigList handles the "config list" command.
// Keys are listed in display order; unknown keys in the file are skipped.
func runConfigList(env *Env) error {
	data, err := config.List()
	if err != nil {
		return err
	}

	printed := 0
	for _, key := range config.Keys() {
		value, ok := data[key]
		if !ok {
			if envVal := env.Getenv(config.EnvVar(key)); envVal != "" {
				value, ok = envVal+" (from env)", true
			}
		}
		if !ok {
			continue
		}
		fmt.Fprintf(env.Stdout, "%s=%s\n", key, value)
		printed++
	}

	if printed == 0 {
		fmt.Fprintln(env.Stdout, "No configuration set.")
		fmt.Fprintln(env.Stdout, "\nAvailable settings:")
		for _, key := range config.Keys() {
			fmt.Fprintf(env.Stdout, "  %s\n", key)
		}
	}

	return nil
}

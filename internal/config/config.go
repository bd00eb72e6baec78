// Package config persists medreport settings in a key=value file and
// resolves them against MEDREPORT_* environment variables.
package config

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"sort"
	"strings"
)

// Sentinel errors.
var (
	// ErrUnknownKey indicates a configuration key is not supported.
	ErrUnknownKey = errors.New("unknown config key")

	// ErrInvalidKey indicates a key cannot be stored in the key=value format.
	ErrInvalidKey = errors.New("invalid config key")

	// ErrInvalidValue indicates a value cannot be stored in the key=value format.
	ErrInvalidValue = errors.New("invalid config value")

	// ErrInvalidSyntax indicates a config file line is not key=value.
	ErrInvalidSyntax = errors.New("invalid config syntax")

	// ErrNotDirectory indicates output-dir points at a file.
	ErrNotDirectory = errors.New("path is not a directory")

	// ErrNotWritable indicates output-dir cannot be written to.
	ErrNotWritable = errors.New("directory is not writable")
)

// Config keys.
const (
	KeyProvider       = "provider"
	KeyPrimaryModel   = "primary-model"
	KeyFallbackModel  = "fallback-model"
	KeyReportLanguage = "report-language"
	KeyOutputDir      = "output-dir"
)

// Environment variable fallbacks.
const (
	EnvProvider       = "MEDREPORT_PROVIDER"
	EnvPrimaryModel   = "MEDREPORT_PRIMARY_MODEL"
	EnvFallbackModel  = "MEDREPORT_FALLBACK_MODEL"
	EnvReportLanguage = "MEDREPORT_REPORT_LANGUAGE"
	EnvOutputDir      = "MEDREPORT_OUTPUT_DIR"
)

// keys lists supported keys in display order.
var keys = []string{KeyProvider, KeyPrimaryModel, KeyFallbackModel, KeyReportLanguage, KeyOutputDir}

var envVars = map[string]string{
	KeyProvider:       EnvProvider,
	KeyPrimaryModel:   EnvPrimaryModel,
	KeyFallbackModel:  EnvFallbackModel,
	KeyReportLanguage: EnvReportLanguage,
	KeyOutputDir:      EnvOutputDir,
}

// Keys returns the supported configuration keys in display order.
func Keys() []string {
	return slices.Clone(keys)
}

// ValidKey reports whether key is a supported configuration key.
func ValidKey(key string) bool {
	return slices.Contains(keys, key)
}

// CheckKey returns an error wrapping ErrUnknownKey if key is not supported.
func CheckKey(key string) error {
	if !ValidKey(key) {
		return fmt.Errorf("%q (valid keys: %v): %w", key, keys, ErrUnknownKey)
	}
	return nil
}

// EnvVar returns the environment variable that backs key, or "".
func EnvVar(key string) string {
	return envVars[key]
}

// Config holds user configuration loaded from ~/.config/medreport/config.
// Empty fields mean "not set"; callers apply built-in defaults.
type Config struct {
	Provider       string
	PrimaryModel   string
	FallbackModel  string
	ReportLanguage string
	OutputDir      string
}

// Get returns the value of key in c.
func (c Config) Get(key string) string {
	switch key {
	case KeyProvider:
		return c.Provider
	case KeyPrimaryModel:
		return c.PrimaryModel
	case KeyFallbackModel:
		return c.FallbackModel
	case KeyReportLanguage:
		return c.ReportLanguage
	case KeyOutputDir:
		return c.OutputDir
	}
	return ""
}

func (c *Config) set(key, value string) {
	switch key {
	case KeyProvider:
		c.Provider = value
	case KeyPrimaryModel:
		c.PrimaryModel = value
	case KeyFallbackModel:
		c.FallbackModel = value
	case KeyReportLanguage:
		c.ReportLanguage = value
	case KeyOutputDir:
		c.OutputDir = value
	}
}

// dir returns the configuration directory path.
// Uses XDG_CONFIG_HOME if set, otherwise ~/.config/medreport.
func dir() (string, error) {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "medreport"), nil
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("cannot determine home directory: %w", err)
	}
	return filepath.Join(home, ".config", "medreport"), nil
}

// path returns the full path to the config file.
func path() (string, error) {
	d, err := dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(d, "config"), nil
}

// Load reads the configuration file and process environment variables.
func Load() (Config, error) {
	return LoadEnv(os.Getenv)
}

// LoadEnv reads the configuration file, then fills unset keys from getenv.
// Precedence: config file values, then environment variable fallbacks.
// A missing file is not an error.
func LoadEnv(getenv func(string) string) (Config, error) {
	var cfg Config

	p, err := path()
	if err != nil {
		return cfg, err
	}

	if data, err := parseFile(p); err == nil {
		for _, key := range keys {
			cfg.set(key, data[key])
		}
	} else if !os.IsNotExist(err) {
		return cfg, fmt.Errorf("failed to read config: %w", err)
	}

	for _, key := range keys {
		if cfg.Get(key) == "" {
			cfg.set(key, getenv(envVars[key]))
		}
	}

	return cfg, nil
}

// parseFile reads a key=value config file.
// Format: one key=value per line, # comments, empty lines ignored.
func parseFile(p string) (map[string]string, error) {
	f, err := os.Open(p) // #nosec G304 -- config path is constructed from home dir
	if err != nil {
		return nil, err
	}
	defer func() { _ = f.Close() }()

	data := make(map[string]string)
	scanner := bufio.NewScanner(f)
	lineNum := 0

	for scanner.Scan() {
		lineNum++
		line := strings.TrimSpace(scanner.Text())

		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		key, value, ok := strings.Cut(line, "=")
		if !ok {
			return nil, fmt.Errorf("line %d: %q: %w", lineNum, line, ErrInvalidSyntax)
		}
		data[strings.TrimSpace(key)] = strings.TrimSpace(value)
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	return data, nil
}

// Save writes a single key=value to the config file.
// Creates the config directory and file if they don't exist.
// Preserves existing key=value pairs but discards comments.
// Only the format is validated here; callers restrict keys with CheckKey.
func Save(key, value string) error {
	if key == "" || strings.ContainsAny(key, "=\r\n#") {
		return fmt.Errorf("%q: %w", key, ErrInvalidKey)
	}
	if strings.ContainsAny(value, "\r\n") {
		return fmt.Errorf("value for %q contains a line break: %w", key, ErrInvalidValue)
	}

	p, err := path()
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(p), 0750); err != nil { // #nosec G301 -- user config dir
		return fmt.Errorf("cannot create config directory: %w", err)
	}

	existing, _ := parseFile(p)
	if existing == nil {
		existing = make(map[string]string)
	}
	existing[key] = value

	return writeFile(p, existing)
}

// writeFile writes the config map to a file, keys sorted.
func writeFile(p string, data map[string]string) error {
	// #nosec G302 G304 -- config file with standard permissions, path from home dir
	f, err := os.OpenFile(p, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0644)
	if err != nil {
		return fmt.Errorf("cannot write config file: %w", err)
	}
	defer func() { _ = f.Close() }()

	names := make([]string, 0, len(data))
	for key := range data {
		names = append(names, key)
	}
	sort.Strings(names)

	for _, key := range names {
		if _, err := fmt.Fprintf(f, "%s=%s\n", key, data[key]); err != nil {
			return fmt.Errorf("failed to write config: %w", err)
		}
	}

	return nil
}

// Get reads a single value from the config file.
// Returns empty string if the key doesn't exist.
func Get(key string) (string, error) {
	p, err := path()
	if err != nil {
		return "", err
	}

	data, err := parseFile(p)
	if err != nil {
		if os.IsNotExist(err) {
			return "", nil
		}
		return "", err
	}

	return data[key], nil
}

// List returns all config file values as a map.
func List() (map[string]string, error) {
	p, err := path()
	if err != nil {
		return nil, err
	}

	data, err := parseFile(p)
	if err != nil {
		if os.IsNotExist(err) {
			return make(map[string]string), nil
		}
		return nil, err
	}

	return data, nil
}

// ResolveOutputPath resolves the final output path using the following precedence:
//  1. If output is absolute, use it as-is
//  2. If output is relative and outputDir is set, join them
//  3. If output is empty, use defaultName in outputDir (or cwd if no outputDir)
//
// All paths are cleaned using filepath.Clean.
func ResolveOutputPath(output, outputDir, defaultName string) string {
	if output != "" && filepath.IsAbs(output) {
		return filepath.Clean(output)
	}

	if output != "" {
		if outputDir != "" {
			return filepath.Clean(filepath.Join(outputDir, output))
		}
		return filepath.Clean(output)
	}

	if outputDir != "" {
		return filepath.Clean(filepath.Join(outputDir, defaultName))
	}
	return filepath.Clean(defaultName)
}

// EnsureOutputDir checks that d is usable as output-dir, creating it if
// needed. Returns nil if valid, or an error describing the problem.
func EnsureOutputDir(d string) error {
	if d == "" {
		return fmt.Errorf("output-dir cannot be empty")
	}

	d = ExpandPath(d)

	info, err := os.Stat(d)
	if err != nil {
		if os.IsNotExist(err) {
			if err := os.MkdirAll(d, 0750); err != nil { // #nosec G301 -- user output dir
				return fmt.Errorf("cannot create directory: %w", err)
			}
			return nil
		}
		return fmt.Errorf("cannot access directory: %w", err)
	}

	if !info.IsDir() {
		return fmt.Errorf("%s: %w", d, ErrNotDirectory)
	}

	// Check writability by creating a temp file.
	testFile := filepath.Join(d, ".medreport-write-test")
	f, err := os.Create(testFile) // #nosec G304 -- path is constructed from validated dir
	if err != nil {
		return fmt.Errorf("%s: %w: %w", d, ErrNotWritable, err)
	}
	if err := f.Close(); err != nil {
		_ = os.Remove(testFile)
		return fmt.Errorf("%s: %w: %w", d, ErrNotWritable, err)
	}
	_ = os.Remove(testFile)

	return nil
}

// ExpandPath expands a leading ~ to the user's home directory.
func ExpandPath(p string) string {
	if p == "~" || strings.HasPrefix(p, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return p
		}
		return filepath.Join(home, strings.TrimPrefix(p[1:], "/"))
	}
	return p
}

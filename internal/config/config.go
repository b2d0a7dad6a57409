package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/shopspring/decimal"
	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/ianaindex"
	"gopkg.in/yaml.v3"

	"github.com/riconcilia/riconcilia/internal/matching"
)

// DefaultFile is the config file looked up in the working directory.
const DefaultFile = "riconcilia.yaml"

// EncodingNone disables legacy charset decoding of statements.
const EncodingNone = "none"

// Config represents the top-level riconcilia.yaml configuration.
type Config struct {
	Matching MatchingConfig `yaml:"matching"`
	Import   ImportConfig   `yaml:"import"`
	Logging  LoggingConfig  `yaml:"logging"`
}

// MatchingConfig holds the matching thresholds.
type MatchingConfig struct {
	AmountTolerance     decimal.Decimal `yaml:"amount_tolerance"`
	MaxDateDistanceDays int             `yaml:"max_date_distance_days"`
	MinScore            int             `yaml:"min_score"`
	AutoScore           int             `yaml:"auto_score"`
}

// ImportConfig controls statement and invoice import.
type ImportConfig struct {
	FallbackEncoding string `yaml:"fallback_encoding"` // IANA name or "none"
	PreviewRows      int    `yaml:"preview_rows"`
}

// LoggingConfig controls the logger.
type LoggingConfig struct {
	Level  string `yaml:"level"`  // debug, info, warn, error
	Format string `yaml:"format"` // text, json
}

// Load reads a riconcilia.yaml file from disk. ${VAR} references are
// expanded from the environment before parsing. Keys missing from the
// file keep their default values.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}
	cfg := Default()
	if err := yaml.Unmarshal([]byte(os.ExpandEnv(string(data))), cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", path, err)
	}
	return cfg, nil
}

// LoadOrDefault loads path if it exists and returns defaults otherwise.
func LoadOrDefault(path string) (*Config, error) {
	cfg, err := Load(path)
	if errors.Is(err, os.ErrNotExist) {
		return Default(), nil
	}
	return cfg, err
}

// Save writes a Config to a YAML file.
func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}
	return nil
}

// Default returns a Config with sensible defaults.
func Default() *Config {
	opts := matching.DefaultOptions()
	return &Config{
		Matching: MatchingConfig{
			AmountTolerance:     opts.AmountTolerance,
			MaxDateDistanceDays: opts.MaxDateDistanceDays,
			MinScore:            opts.MinScore,
			AutoScore:           opts.AutoScore,
		},
		Import: ImportConfig{
			FallbackEncoding: "windows-1252",
			PreviewRows:      20,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// Validate checks value ranges.
func (c *Config) Validate() error {
	var errs []error
	m := c.Matching
	if m.AmountTolerance.IsNegative() {
		errs = append(errs, fmt.Errorf("matching.amount_tolerance must not be negative"))
	}
	if m.MaxDateDistanceDays < 0 {
		errs = append(errs, fmt.Errorf("matching.max_date_distance_days must not be negative"))
	}
	if m.MinScore < 0 || m.MinScore > 100 {
		errs = append(errs, fmt.Errorf("matching.min_score must be in 0..100, got %d", m.MinScore))
	}
	if m.AutoScore < 0 || m.AutoScore > 100 {
		errs = append(errs, fmt.Errorf("matching.auto_score must be in 0..100, got %d", m.AutoScore))
	}
	if c.Import.PreviewRows < 0 {
		errs = append(errs, fmt.Errorf("import.preview_rows must not be negative"))
	}
	if _, err := c.Import.Fallback(); err != nil {
		errs = append(errs, err)
	}
	switch strings.ToLower(c.Logging.Level) {
	case "", "debug", "info", "warn", "error":
	default:
		errs = append(errs, fmt.Errorf("logging.level %q is not one of debug, info, warn, error", c.Logging.Level))
	}
	switch strings.ToLower(c.Logging.Format) {
	case "", "text", "json":
	default:
		errs = append(errs, fmt.Errorf("logging.format %q is not one of text, json", c.Logging.Format))
	}
	return errors.Join(errs...)
}

// Options converts the matching section to matching.Options.
func (m MatchingConfig) Options() matching.Options {
	return matching.Options{
		AmountTolerance:     m.AmountTolerance,
		MaxDateDistanceDays: m.MaxDateDistanceDays,
		MinScore:            m.MinScore,
		AutoScore:           m.AutoScore,
	}
}

// Fallback resolves the statement fallback charset. "none" and "" yield
// nil.
func (i ImportConfig) Fallback() (encoding.Encoding, error) {
	name := strings.TrimSpace(i.FallbackEncoding)
	if name == "" || strings.EqualFold(name, EncodingNone) {
		return nil, nil
	}
	enc, err := ianaindex.IANA.Encoding(name)
	if err != nil || enc == nil {
		return nil, fmt.Errorf("import.fallback_encoding %q is not a supported charset", name)
	}
	return enc, nil
}

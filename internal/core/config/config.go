package config

import (
	"fmt"
	"time"
	"unicode"
	"unicode/utf8"

	"github.com/tdvu/keyhound/internal/core/domain"
)

// AppConfig represents the top-level configuration.
type AppConfig struct {
	Keystore  KeystoreConfig  `yaml:"keystore"`
	Passwords PasswordConfig  `yaml:"passwords"`
	Search    SearchConfig    `yaml:"search"`
	Grammar   GrammarConfig   `yaml:"grammar"`
	Logging   LoggingConfig   `yaml:"logging"`
	Telemetry TelemetryConfig `yaml:"telemetry"`
}

// KeystoreConfig points at the target keystore file.
type KeystoreConfig struct {
	Path string `yaml:"path"`
}

// PasswordConfig holds the three candidate lists the search space is
// built from. It is immutable once loaded; the engine and generator
// consume it read-only.
type PasswordConfig struct {
	BaseWords     []string `yaml:"base_words"`
	DigitPatterns []string `yaml:"digit_patterns"`
	SpecialChars  []string `yaml:"special_chars"`
}

// SearchConfig holds search tuning knobs.
type SearchConfig struct {
	Workers          int           `yaml:"workers"`
	ProgressInterval time.Duration `yaml:"progress_interval"`
	OutputFile       string        `yaml:"output_file"`
}

// GrammarConfig overrides the default candidate grammar bounds.
// Zero-valued fields fall back to the defaults.
type GrammarConfig struct {
	BaseMinLen int      `yaml:"base_min_len"`
	BaseMaxLen int      `yaml:"base_max_len"`
	Separators []string `yaml:"separators"`
	MinDigits  int      `yaml:"min_digits"`
	MaxDigits  int      `yaml:"max_digits"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	Level  string `yaml:"level"`  // debug, info, warn, error
	Format string `yaml:"format"` // json, text
}

// TelemetryConfig holds the HTTP telemetry endpoint settings.
// Port 0 disables the endpoint.
type TelemetryConfig struct {
	Port int `yaml:"port"`
}

// ToGrammar resolves the overrides against the default grammar.
func (g GrammarConfig) ToGrammar() domain.Grammar {
	out := domain.DefaultGrammar()
	if g.BaseMinLen > 0 {
		out.BaseMinLen = g.BaseMinLen
	}
	if g.BaseMaxLen > 0 {
		out.BaseMaxLen = g.BaseMaxLen
	}
	if len(g.Separators) > 0 {
		out.Separators = g.Separators
	}
	if g.MinDigits > 0 {
		out.MinDigits = g.MinDigits
	}
	if g.MaxDigits > 0 {
		out.MaxDigits = g.MaxDigits
	}
	return out
}

// Validate checks the three candidate lists against the grammar. Any
// violation is a configuration error and must stop a run before any
// worker starts.
func (p PasswordConfig) Validate(g domain.Grammar) error {
	if len(p.BaseWords) == 0 {
		return fmt.Errorf("base_words is empty")
	}
	if len(p.DigitPatterns) == 0 {
		return fmt.Errorf("digit_patterns is empty")
	}
	if len(p.SpecialChars) == 0 {
		return fmt.Errorf("special_chars is empty")
	}

	for _, d := range p.DigitPatterns {
		if len(d) < g.MinDigits || len(d) > g.MaxDigits {
			return fmt.Errorf("digit pattern %q must be %d-%d digits", d, g.MinDigits, g.MaxDigits)
		}
		for _, r := range d {
			if r < '0' || r > '9' {
				return fmt.Errorf("digit pattern %q contains non-digit %q", d, r)
			}
		}
	}

	for _, s := range p.SpecialChars {
		r, size := utf8.DecodeRuneInString(s)
		if size == 0 || size != len(s) {
			return fmt.Errorf("special char %q must be exactly one character", s)
		}
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			return fmt.Errorf("special char %q must be non-alphanumeric", s)
		}
	}

	return nil
}

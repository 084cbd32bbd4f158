// Package config provides configuration types and helpers for logreason.
package config

import (
	"encoding/json"
	"strings"
	"time"
)

// Config holds the application-wide configuration.
type Config struct {
	Format    string          `mapstructure:"format"`
	Verbose   bool            `mapstructure:"verbose"`
	NoColor   bool            `mapstructure:"no_color"`
	Top       int             `mapstructure:"top"`
	MinCount  int             `mapstructure:"min_count"`
	Embedding EmbeddingConfig `mapstructure:"embedding"`
	Watch     WatchConfig     `mapstructure:"watch"`
	Redaction RedactionConfig `mapstructure:"redaction"`
}

// EmbeddingConfig holds settings for the embedding backend.
type EmbeddingConfig struct {
	// Provider selects the embedding backend. Only "ollama" is supported.
	Provider string       `mapstructure:"provider"`
	Ollama   OllamaConfig `mapstructure:"ollama"`
}

// OllamaConfig holds Ollama-specific settings.
type OllamaConfig struct {
	Host      string `mapstructure:"host"`       // API endpoint
	Model     string `mapstructure:"model"`      // Embedding model name
	KeepAlive string `mapstructure:"keep_alive"` // e.g., "5m"
}

// WatchConfig holds settings for --watch mode.
type WatchConfig struct {
	Debounce string `mapstructure:"debounce"` // e.g., "500ms"
}

// RedactionConfig controls masking of sensitive values in output.
type RedactionConfig struct {
	Enabled  bool     `mapstructure:"enabled"`
	Patterns []string `mapstructure:"patterns"` // empty selects the defaults
}

// LogLevel represents a log severity level.
type LogLevel int

const (
	LevelTrace LogLevel = iota
	LevelDebug
	LevelInfo
	LevelWarn
	LevelError
	LevelUnknown
)

// String returns the string representation of a LogLevel.
func (l LogLevel) String() string {
	switch l {
	case LevelTrace:
		return "TRACE"
	case LevelDebug:
		return "DEBUG"
	case LevelInfo:
		return "INFO"
	case LevelWarn:
		return "WARN"
	case LevelError:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}

// Known reports whether the level is one of the five recognized severities.
func (l LogLevel) Known() bool {
	return l >= LevelTrace && l < LevelUnknown
}

// MarshalJSON implements json.Marshaler for LogLevel.
func (l LogLevel) MarshalJSON() ([]byte, error) {
	return json.Marshal(l.String())
}

// UnmarshalJSON implements json.Unmarshaler for LogLevel.
func (l *LogLevel) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	*l = ParseLevel(s)
	return nil
}

// MarshalYAML implements yaml.Marshaler for LogLevel.
func (l LogLevel) MarshalYAML() (interface{}, error) {
	return l.String(), nil
}

// ParseLevel converts a level token to a LogLevel.
func ParseLevel(s string) LogLevel {
	switch strings.ToUpper(s) {
	case "ERROR", "ERR":
		return LevelError
	case "WARN", "WARNING":
		return LevelWarn
	case "INFO":
		return LevelInfo
	case "DEBUG":
		return LevelDebug
	case "TRACE":
		return LevelTrace
	default:
		return LevelUnknown
	}
}

// LogEvent represents a single parsed log line.
//
// A zero Timestamp means no timestamp was recognized and LevelUnknown means
// no level token or status code was found.
type LogEvent struct {
	Raw       string    `json:"raw"`
	Timestamp time.Time `json:"timestamp,omitempty"`
	Level     LogLevel  `json:"level"`
	Message   string    `json:"message"`
	Source    string    `json:"source,omitempty"`
	Line      int       `json:"line"`
}

// HasTimestamp reports whether a timestamp was extracted.
func (e LogEvent) HasTimestamp() bool {
	return !e.Timestamp.IsZero()
}

// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package config provides unified configuration loading and management for ragchat.
//
// Supports TOML, JSON and YAML configuration formats, with sensible defaults,
// environment variable overrides, and validation.
//
// Configuration file locations (in order of precedence):
//   - ~/.ragchat/config.toml
//   - ~/.ragchat/config.json
//   - ~/.ragchat/config.yaml
//   - Built-in defaults
package config

import (
	"encoding"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"reflect"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/BurntSushi/toml"
	"go.uber.org/zap/zapcore"
	"golang.org/x/text/language"
	"gopkg.in/yaml.v3"

	"github.com/jeranaias/ragchat-tui/internal/util"
)

// =============================================================================
// CONFIG STRUCTURES
// =============================================================================

// Config represents the complete ragchat configuration.
type Config struct {
	Version string `toml:"version" json:"version" yaml:"version"`

	// Server is the question-answering backend.
	Server ServerConfig `toml:"server" json:"server" yaml:"server"`

	// Speech configures dictation.
	Speech SpeechConfig `toml:"speech" json:"speech" yaml:"speech"`

	// Compose configures the input box.
	Compose ComposeConfig `toml:"compose" json:"compose" yaml:"compose"`

	// Annotate configures the bracket math pass over replies.
	Annotate AnnotateConfig `toml:"annotate" json:"annotate" yaml:"annotate"`

	UI  UIConfig  `toml:"ui" json:"ui" yaml:"ui"`
	Log LogConfig `toml:"log" json:"log" yaml:"log"`
}

// ServerConfig contains backend connection settings.
type ServerConfig struct {
	// URL is the backend base URL, e.g. "http://localhost:8000"
	URL string `toml:"url" json:"url" yaml:"url"`
	// Timeout bounds a single request
	Timeout Duration `toml:"timeout" json:"timeout" yaml:"timeout"`
}

// Microphone access modes.
const (
	MicrophoneAsk     = "ask"
	MicrophoneGranted = "granted"
	MicrophoneDenied  = "denied"
)

// SpeechConfig contains dictation settings.
type SpeechConfig struct {
	// Language is the BCP 47 tag handed to the recognizer
	Language string `toml:"language" json:"language" yaml:"language"`
	// Command is the recognizer argv; "{lang}" is replaced with Language.
	// Empty disables dictation.
	Command []string `toml:"command" json:"command" yaml:"command"`
	// Microphone is "ask", "granted" or "denied"
	Microphone string `toml:"microphone" json:"microphone" yaml:"microphone"`
	// RestartBurst and RestartInterval bound automatic restarts
	RestartBurst    int      `toml:"restart_burst" json:"restart_burst" yaml:"restart_burst"`
	RestartInterval Duration `toml:"restart_interval" json:"restart_interval" yaml:"restart_interval"`
}

// ComposeConfig contains input box sizing.
type ComposeConfig struct {
	// LineHeight is the nominal height of one input line
	LineHeight int `toml:"line_height" json:"line_height" yaml:"line_height"`
	// MaxLines is the number of lines shown before the input scrolls
	MaxLines int `toml:"max_lines" json:"max_lines" yaml:"max_lines"`
}

// AnnotateConfig contains bracket math settings.
type AnnotateConfig struct {
	// Delay is how long after a reply is committed the pass runs
	Delay Duration `toml:"delay" json:"delay" yaml:"delay"`
	// SkipCode leaves code and pre subtrees untouched
	SkipCode bool `toml:"skip_code" json:"skip_code" yaml:"skip_code"`
}

// UIConfig contains UI configuration.
type UIConfig struct {
	// Theme is the UI theme: "dark", "light", "auto"
	Theme string `toml:"theme" json:"theme" yaml:"theme"`
}

// LogConfig contains logging configuration.
type LogConfig struct {
	// Level is a zap level name: debug, info, warn, error
	Level string `toml:"level" json:"level" yaml:"level"`
	// File is the log destination. The TUI owns stdout, so logs go to a file.
	File string `toml:"file" json:"file" yaml:"file"`
}

// =============================================================================
// DURATION
// =============================================================================

// Duration is a time.Duration that reads and writes as "2s", "300ms" in every
// supported format.
type Duration time.Duration

var (
	_ encoding.TextMarshaler   = Duration(0)
	_ encoding.TextUnmarshaler = (*Duration)(nil)
)

// Std returns the value as a time.Duration.
func (d Duration) Std() time.Duration {
	return time.Duration(d)
}

func (d Duration) String() string {
	return time.Duration(d).String()
}

// MarshalText implements encoding.TextMarshaler.
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler. A bare integer is read
// as milliseconds.
func (d *Duration) UnmarshalText(text []byte) error {
	s := strings.TrimSpace(string(text))
	if ms, err := strconv.ParseInt(s, 10, 64); err == nil {
		*d = Duration(time.Duration(ms) * time.Millisecond)
		return nil
	}
	parsed, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", s, err)
	}
	*d = Duration(parsed)
	return nil
}

// =============================================================================
// DEFAULT CONFIGURATION
// =============================================================================

// Default returns a Config with sensible default values.
func Default() *Config {
	logFile := "ragchat.log"
	if dir, err := ConfigDir(); err == nil {
		logFile = filepath.Join(dir, "ragchat.log")
	}

	return &Config{
		Version: "1.0.0",

		Server: ServerConfig{
			URL:     "http://localhost:8000",
			Timeout: Duration(60 * time.Second),
		},

		Speech: SpeechConfig{
			Language:        "fa-IR",
			Command:         nil, // dictation off until a recognizer is configured
			Microphone:      MicrophoneAsk,
			RestartBurst:    5,
			RestartInterval: Duration(2 * time.Second),
		},

		Compose: ComposeConfig{
			LineHeight: 24,
			MaxLines:   3,
		},

		Annotate: AnnotateConfig{
			Delay:    Duration(100 * time.Millisecond),
			SkipCode: false,
		},

		UI: UIConfig{
			Theme: "dark",
		},

		Log: LogConfig{
			Level: "info",
			File:  logFile,
		},
	}
}

// =============================================================================
// CONFIG PATH HELPERS
// =============================================================================

// ConfigDir returns the ragchat configuration directory path.
// RAGCHAT_HOME overrides the default of ~/.ragchat.
func ConfigDir() (string, error) {
	if dir := os.Getenv("RAGCHAT_HOME"); dir != "" {
		return dir, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("could not determine home directory: %w", err)
	}
	return filepath.Join(home, ".ragchat"), nil
}

func configPath(name string) (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, name), nil
}

// ConfigPathTOML returns the path to the TOML config file.
func ConfigPathTOML() (string, error) { return configPath("config.toml") }

// ConfigPathJSON returns the path to the JSON config file.
func ConfigPathJSON() (string, error) { return configPath("config.json") }

// ConfigPathYAML returns the path to the YAML config file.
func ConfigPathYAML() (string, error) { return configPath("config.yaml") }

// EnsureConfigDir ensures the config directory exists.
func EnsureConfigDir() error {
	dir, err := ConfigDir()
	if err != nil {
		return err
	}
	return os.MkdirAll(dir, 0700)
}

// =============================================================================
// LOAD FUNCTIONS
// =============================================================================

type loader struct {
	path func() (string, error)
	load func(*Config, string) error
}

var loaders = []loader{
	{ConfigPathTOML, LoadTOML},
	{ConfigPathJSON, LoadJSON},
	{ConfigPathYAML, LoadYAML},
}

// Load loads configuration from the config file(s).
// Tries TOML, then JSON, then YAML, and falls back to defaults.
// Environment overrides are applied last.
//
// A file that exists but cannot be decoded is reported alongside the
// defaults so callers can warn and continue.
func Load() (*Config, error) {
	var loadErr error

	for _, l := range loaders {
		path, err := l.path()
		if err != nil {
			continue
		}
		if _, statErr := os.Stat(path); statErr != nil {
			continue
		}
		cfg := Default()
		if err := l.load(cfg, path); err != nil {
			if loadErr == nil {
				loadErr = fmt.Errorf("failed to load %s: %w", filepath.Base(path), err)
			}
			continue
		}
		if err := cfg.finish(); err != nil {
			return nil, err
		}
		return cfg, nil
	}

	cfg := Default()
	if err := cfg.finish(); err != nil {
		return nil, err
	}
	return cfg, loadErr
}

// finish applies env overrides, migration, defaults and validation.
func (c *Config) finish() error {
	c.ApplyEnvOverrides()
	if err := c.Migrate(); err != nil {
		return fmt.Errorf("config migration failed: %w", err)
	}
	c.SetDefaults()
	if err := c.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}

// LoadTOML loads configuration from a TOML file.
func LoadTOML(cfg *Config, path string) error {
	if _, err := toml.DecodeFile(path, cfg); err != nil {
		return fmt.Errorf("failed to decode TOML file: %w", err)
	}
	return fillDefaults(cfg)
}

// LoadJSON loads configuration from a JSON file.
func LoadJSON(cfg *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read JSON file: %w", err)
	}
	if err := json.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("failed to decode JSON file: %w", err)
	}
	return fillDefaults(cfg)
}

// LoadYAML loads configuration from a YAML file.
func LoadYAML(cfg *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read YAML file: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("failed to decode YAML file: %w", err)
	}
	return fillDefaults(cfg)
}

// LoadFromPath loads configuration from a specific file path with full
// validation. The format follows the extension; anything unknown is TOML.
func LoadFromPath(path string) (*Config, error) {
	cfg := &Config{}

	var err error
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		err = LoadJSON(cfg, path)
	case ".yaml", ".yml":
		err = LoadYAML(cfg, path)
	default:
		err = LoadTOML(cfg, path)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load config from %s: %w", path, err)
	}

	if err := cfg.finish(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// fillDefaults fills in any missing values with defaults.
func fillDefaults(cfg *Config) error {
	defaults := Default()

	if cfg.Version == "" {
		cfg.Version = defaults.Version
	}

	// Server
	if cfg.Server.URL == "" {
		cfg.Server.URL = defaults.Server.URL
	}
	if cfg.Server.Timeout == 0 {
		cfg.Server.Timeout = defaults.Server.Timeout
	}

	// Speech
	if cfg.Speech.Language == "" {
		cfg.Speech.Language = defaults.Speech.Language
	}
	if cfg.Speech.Microphone == "" {
		cfg.Speech.Microphone = defaults.Speech.Microphone
	}
	if cfg.Speech.RestartBurst == 0 {
		cfg.Speech.RestartBurst = defaults.Speech.RestartBurst
	}
	if cfg.Speech.RestartInterval == 0 {
		cfg.Speech.RestartInterval = defaults.Speech.RestartInterval
	}

	// Compose
	if cfg.Compose.LineHeight == 0 {
		cfg.Compose.LineHeight = defaults.Compose.LineHeight
	}
	if cfg.Compose.MaxLines == 0 {
		cfg.Compose.MaxLines = defaults.Compose.MaxLines
	}

	// UI
	if cfg.UI.Theme == "" {
		cfg.UI.Theme = defaults.UI.Theme
	}

	// Log
	if cfg.Log.Level == "" {
		cfg.Log.Level = defaults.Log.Level
	}
	if cfg.Log.File == "" {
		cfg.Log.File = defaults.Log.File
	}

	return nil
}

// =============================================================================
// SAVE FUNCTIONS
// =============================================================================

// Save saves the configuration to the default TOML file.
func Save(cfg *Config) error {
	path, err := ConfigPathTOML()
	if err != nil {
		return err
	}
	return SaveTOML(cfg, path)
}

// SaveTOML saves the configuration to a TOML file.
func SaveTOML(cfg *Config, path string) error {
	var b strings.Builder
	b.WriteString("# ragchat configuration\n\n")
	if err := toml.NewEncoder(&b).Encode(cfg); err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	if err := util.AtomicWriteFile(path, []byte(b.String()), 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// SaveJSON saves the configuration to a JSON file.
func SaveJSON(cfg *Config, path string) error {
	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	if err := util.AtomicWriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// SaveYAML saves the configuration to a YAML file.
func SaveYAML(cfg *Config, path string) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	if err := util.AtomicWriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// =============================================================================
// VALIDATION
// =============================================================================

// ValidationError represents a configuration validation error.
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidateErrors is a collection of validation errors.
type ValidateErrors []ValidationError

func (e ValidateErrors) Error() string {
	if len(e) == 0 {
		return "no validation errors"
	}
	var msgs []string
	for _, err := range e {
		msgs = append(msgs, err.Error())
	}
	return strings.Join(msgs, "; ")
}

// Validate validates the configuration and returns any errors.
func (c *Config) Validate() error {
	var errs ValidateErrors

	// ==========================================================================
	// Server
	// ==========================================================================

	if u, err := url.Parse(c.Server.URL); err != nil {
		errs = append(errs, ValidationError{
			Field:   "server.url",
			Message: fmt.Sprintf("invalid URL: %v", err),
		})
	} else if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		errs = append(errs, ValidationError{
			Field:   "server.url",
			Message: fmt.Sprintf("must be an absolute http(s) URL, got '%s'", c.Server.URL),
		})
	}

	if c.Server.Timeout <= 0 {
		errs = append(errs, ValidationError{
			Field:   "server.timeout",
			Message: "must be positive",
		})
	}

	// ==========================================================================
	// Speech
	// ==========================================================================

	if _, err := language.Parse(c.Speech.Language); err != nil {
		errs = append(errs, ValidationError{
			Field:   "speech.language",
			Message: fmt.Sprintf("invalid language tag '%s': %v", c.Speech.Language, err),
		})
	}

	validMic := map[string]bool{MicrophoneAsk: true, MicrophoneGranted: true, MicrophoneDenied: true}
	if !validMic[c.Speech.Microphone] {
		errs = append(errs, ValidationError{
			Field:   "speech.microphone",
			Message: fmt.Sprintf("invalid mode '%s', must be one of: ask, granted, denied", c.Speech.Microphone),
		})
	}

	if c.Speech.RestartBurst < 1 {
		errs = append(errs, ValidationError{
			Field:   "speech.restart_burst",
			Message: fmt.Sprintf("must be at least 1, got %d", c.Speech.RestartBurst),
		})
	}
	if c.Speech.RestartInterval <= 0 {
		errs = append(errs, ValidationError{
			Field:   "speech.restart_interval",
			Message: "must be positive",
		})
	}

	// ==========================================================================
	// Compose / Annotate
	// ==========================================================================

	if c.Compose.LineHeight < 1 {
		errs = append(errs, ValidationError{
			Field:   "compose.line_height",
			Message: fmt.Sprintf("must be at least 1, got %d", c.Compose.LineHeight),
		})
	}
	if c.Compose.MaxLines < 1 {
		errs = append(errs, ValidationError{
			Field:   "compose.max_lines",
			Message: fmt.Sprintf("must be at least 1, got %d", c.Compose.MaxLines),
		})
	}
	if c.Annotate.Delay < 0 {
		errs = append(errs, ValidationError{
			Field:   "annotate.delay",
			Message: "cannot be negative",
		})
	}

	// ==========================================================================
	// UI / Log
	// ==========================================================================

	validThemes := map[string]bool{"dark": true, "light": true, "auto": true}
	if !validThemes[strings.ToLower(c.UI.Theme)] {
		errs = append(errs, ValidationError{
			Field:   "ui.theme",
			Message: fmt.Sprintf("invalid theme '%s', must be one of: dark, light, auto", c.UI.Theme),
		})
	}

	if _, err := zapcore.ParseLevel(c.Log.Level); err != nil {
		errs = append(errs, ValidationError{
			Field:   "log.level",
			Message: fmt.Sprintf("invalid level '%s'", c.Log.Level),
		})
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}

// SetDefaults normalizes values that have a canonical spelling.
func (c *Config) SetDefaults() {
	c.UI.Theme = strings.ToLower(c.UI.Theme)
	c.Log.Level = strings.ToLower(c.Log.Level)
	c.Server.URL = strings.TrimRight(c.Server.URL, "/")
	if tag, err := language.Parse(c.Speech.Language); err == nil {
		c.Speech.Language = tag.String()
	}
}

// Migrate handles migration from older spellings.
func (c *Config) Migrate() error {
	// POSIX-style locale names ("fa_IR", "fa_IR.UTF-8")
	if lang := c.Speech.Language; strings.Contains(lang, "_") || strings.Contains(lang, ".") {
		if i := strings.IndexByte(lang, '.'); i >= 0 {
			lang = lang[:i]
		}
		c.Speech.Language = strings.ReplaceAll(lang, "_", "-")
	}

	switch strings.ToLower(c.Speech.Microphone) {
	case "allow", "allowed", "yes", "true":
		c.Speech.Microphone = MicrophoneGranted
	case "deny", "no", "false":
		c.Speech.Microphone = MicrophoneDenied
	case "prompt":
		c.Speech.Microphone = MicrophoneAsk
	default:
		c.Speech.Microphone = strings.ToLower(c.Speech.Microphone)
	}

	return nil
}

// =============================================================================
// ENVIRONMENT OVERRIDES
// =============================================================================

// ApplyEnvOverrides applies environment variable overrides to the config.
//
// Supported environment variables:
//   - RAGCHAT_SERVER_URL: overrides server.url
//   - RAGCHAT_SPEECH_LANG: overrides speech.language
//   - RAGCHAT_SPEECH_COMMAND: overrides speech.command (split on spaces)
//   - RAGCHAT_MICROPHONE: overrides speech.microphone
//   - RAGCHAT_LOG_LEVEL: overrides log.level
//   - RAGCHAT_THEME: overrides ui.theme
func (c *Config) ApplyEnvOverrides() {
	if v := os.Getenv("RAGCHAT_SERVER_URL"); v != "" {
		c.Server.URL = v
	}
	if v := os.Getenv("RAGCHAT_SPEECH_LANG"); v != "" {
		c.Speech.Language = v
	}
	if v := os.Getenv("RAGCHAT_SPEECH_COMMAND"); v != "" {
		c.Speech.Command = strings.Fields(v)
	}
	if v := os.Getenv("RAGCHAT_MICROPHONE"); v != "" {
		c.Speech.Microphone = v
	}
	if v := os.Getenv("RAGCHAT_LOG_LEVEL"); v != "" {
		c.Log.Level = v
	}
	if v := os.Getenv("RAGCHAT_THEME"); v != "" {
		c.UI.Theme = v
	}
}

// =============================================================================
// GET/SET HELPERS (DOT NOTATION)
// =============================================================================

// Get retrieves a configuration value using dot notation (e.g., "speech.language").
func (c *Config) Get(key string) (interface{}, error) {
	field, err := c.lookup(key)
	if err != nil {
		return nil, err
	}
	return field.Interface(), nil
}

// Set sets a configuration value using dot notation (e.g., "speech.language").
func (c *Config) Set(key string, value interface{}) error {
	field, err := c.lookup(key)
	if err != nil {
		return err
	}
	if !field.CanSet() {
		return fmt.Errorf("cannot set field: %s", key)
	}
	return setFieldValue(field, value)
}

func (c *Config) lookup(key string) (reflect.Value, error) {
	if strings.TrimSpace(key) == "" {
		return reflect.Value{}, errors.New("empty key")
	}
	parts := strings.Split(key, ".")

	v := reflect.ValueOf(c).Elem()
	for i, part := range parts {
		fieldName := normalizeFieldName(part)
		field := v.FieldByNameFunc(func(name string) bool {
			return strings.EqualFold(name, fieldName)
		})
		if !field.IsValid() {
			return reflect.Value{}, fmt.Errorf("unknown field: %s", strings.Join(parts[:i+1], "."))
		}
		if i == len(parts)-1 {
			return field, nil
		}
		if field.Kind() != reflect.Struct {
			return reflect.Value{}, fmt.Errorf("field '%s' is not a struct", strings.Join(parts[:i+1], "."))
		}
		v = field
	}
	return reflect.Value{}, fmt.Errorf("invalid key: %s", key)
}

// normalizeFieldName converts a snake_case or kebab-case name to its Go field
// equivalent ("restart_burst" -> "RestartBurst").
func normalizeFieldName(name string) string {
	parts := strings.FieldsFunc(name, func(r rune) bool {
		return r == '_' || r == '-'
	})

	var result strings.Builder
	for _, part := range parts {
		result.WriteString(strings.ToUpper(part[:1]))
		result.WriteString(strings.ToLower(part[1:]))
	}
	return result.String()
}

// setFieldValue sets a reflect.Value from an interface{} value with type conversion.
func setFieldValue(field reflect.Value, value interface{}) error {
	if strVal, ok := value.(string); ok {
		if u, ok := field.Addr().Interface().(encoding.TextUnmarshaler); ok {
			return u.UnmarshalText([]byte(strVal))
		}
		switch field.Kind() {
		case reflect.String:
			field.SetString(strVal)
			return nil
		case reflect.Int, reflect.Int64:
			intVal, err := strconv.ParseInt(strVal, 10, 64)
			if err != nil {
				return fmt.Errorf("invalid integer value: %v", err)
			}
			field.SetInt(intVal)
			return nil
		case reflect.Bool:
			lower := strings.ToLower(strVal)
			field.SetBool(lower == "1" || lower == "true" || lower == "yes")
			return nil
		case reflect.Slice:
			if field.Type().Elem().Kind() == reflect.String {
				field.Set(reflect.ValueOf(strings.Fields(strVal)))
				return nil
			}
		}
	}

	val := reflect.ValueOf(value)
	if !val.IsValid() {
		return fmt.Errorf("cannot assign nil to %s", field.Type())
	}
	if val.Type().AssignableTo(field.Type()) {
		field.Set(val)
		return nil
	}
	if val.Type().ConvertibleTo(field.Type()) {
		field.Set(val.Convert(field.Type()))
		return nil
	}

	return fmt.Errorf("cannot assign %T to %s", value, field.Type())
}

// =============================================================================
// HELPER FUNCTIONS
// =============================================================================

// GetAllKeys returns all configuration keys in dot notation.
func GetAllKeys() []string {
	return []string{
		"version",
		"server.url",
		"server.timeout",
		"speech.language",
		"speech.command",
		"speech.microphone",
		"speech.restart_burst",
		"speech.restart_interval",
		"compose.line_height",
		"compose.max_lines",
		"annotate.delay",
		"annotate.skip_code",
		"ui.theme",
		"log.level",
		"log.file",
	}
}

// Clone creates a deep copy of the configuration.
func (c *Config) Clone() *Config {
	clone := *c
	if c.Speech.Command != nil {
		clone.Speech.Command = append([]string(nil), c.Speech.Command...)
	}
	return &clone
}

// String returns a string representation of the config for debugging.
func (c *Config) String() string {
	data, _ := json.MarshalIndent(c, "", "  ")
	return string(data)
}

// =============================================================================
// SINGLETON PATTERN (THREAD-SAFE)
// =============================================================================

var (
	globalConfig     *Config
	globalConfigOnce sync.Once
	globalConfigMu   sync.RWMutex
)

// Global returns the global configuration instance.
// Loads configuration on first access. Thread-safe.
func Global() *Config {
	globalConfigOnce.Do(func() {
		cfg, err := Load()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Warning: %v (using defaults)\n", err)
		}
		if cfg == nil {
			cfg = Default()
		}
		globalConfigMu.Lock()
		if globalConfig == nil {
			globalConfig = cfg
		}
		globalConfigMu.Unlock()
	})

	globalConfigMu.RLock()
	defer globalConfigMu.RUnlock()
	return globalConfig
}

// ReloadGlobal reloads the global configuration from disk. Thread-safe.
// On error the current configuration is kept.
func ReloadGlobal() error {
	cfg, err := Load()
	if err != nil {
		return err
	}
	SetGlobal(cfg)
	return nil
}

// SetGlobal sets the global configuration instance. Thread-safe.
func SetGlobal(cfg *Config) {
	globalConfigMu.Lock()
	defer globalConfigMu.Unlock()
	globalConfig = cfg
}

// ResetGlobalForTesting resets the global config state for testing.
// This should only be used in tests to reset state between test runs.
func ResetGlobalForTesting() {
	globalConfigMu.Lock()
	defer globalConfigMu.Unlock()
	globalConfig = nil
	globalConfigOnce = sync.Once{}
}

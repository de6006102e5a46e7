// Package config provides Viper-based configuration loading for the adventure engine.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// LoggingConfig holds structured logging settings.
type LoggingConfig struct {
	// Level is the minimum log level: "debug", "info", "warn", "error".
	Level string `mapstructure:"level"`
	// Format is the log output format: "json" or "console".
	Format string `mapstructure:"format"`
	// Output is a file path, "stderr", or "stdout". The terminal client logs to
	// a file so diagnostics do not interleave with narration.
	Output string `mapstructure:"output"`
}

// NarratorConfig holds language-model provider settings.
type NarratorConfig struct {
	// Provider selects the backend: "openai" (any OpenAI-compatible API) or "anthropic".
	Provider string `mapstructure:"provider"`
	// BaseURL overrides the provider endpoint. Empty uses the provider default
	// (OpenRouter for "openai").
	BaseURL string `mapstructure:"base_url"`
	// APIKeyEnv names the environment variable holding the API key.
	APIKeyEnv string `mapstructure:"api_key_env"`
	// DMModel is the model used for narration when no preference is stored.
	DMModel     string        `mapstructure:"dm_model"`
	Temperature float64       `mapstructure:"temperature"`
	MaxTokens   int           `mapstructure:"max_tokens"`
	Timeout     time.Duration `mapstructure:"timeout"`
	// HTTPReferer and AppTitle are sent as attribution headers to OpenRouter.
	HTTPReferer string `mapstructure:"http_referer"`
	AppTitle    string `mapstructure:"app_title"`
}

// GameConfig holds adventure engine tuning values.
type GameConfig struct {
	// NPCSlots is the number of generated party members.
	NPCSlots int `mapstructure:"npc_slots"`
	// HistoryWindow is how many recent actions/responses feed the next prompt.
	HistoryWindow int `mapstructure:"history_window"`
	// RecapWords caps the length requested for the story recap shown on load.
	RecapWords int `mapstructure:"recap_words"`
	// RulesDir holds house-rule Lua scripts. Empty disables scripting.
	RulesDir string `mapstructure:"rules_dir"`
	// InstructionLimit caps Lua opcodes per hook call; 0 uses the scripting default.
	InstructionLimit int `mapstructure:"instruction_limit"`
}

// StorageConfig selects the document backend.
type StorageConfig struct {
	// Backend is "file" or "postgres".
	Backend string `mapstructure:"backend"`
	// BaseDir is the root directory of the file backend.
	BaseDir string `mapstructure:"base_dir"`
}

// DatabaseConfig holds PostgreSQL connection settings.
type DatabaseConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	User            string        `mapstructure:"user"`
	Password        string        `mapstructure:"password"`
	Name            string        `mapstructure:"name"`
	SSLMode         string        `mapstructure:"sslmode"`
	MaxConns        int32         `mapstructure:"max_conns"`
	MinConns        int32         `mapstructure:"min_conns"`
	MaxConnLifetime time.Duration `mapstructure:"max_conn_lifetime"`
}

// DSN returns the PostgreSQL connection string.
//
// Precondition: Host, Port, User, and Name must be non-empty.
// Postcondition: Returns a valid PostgreSQL DSN string.
func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		d.User, d.Password, d.Host, d.Port, d.Name, d.SSLMode,
	)
}

// RedisConfig holds settings for the Redis model-preference store.
type RedisConfig struct {
	// Enabled routes model preferences to Redis instead of the storage backend.
	Enabled bool   `mapstructure:"enabled"`
	Addr    string `mapstructure:"addr"`
	DB      int    `mapstructure:"db"`
	// KeyPrefix namespaces every key written by the store.
	KeyPrefix string `mapstructure:"key_prefix"`
}

// Config is the top-level application configuration.
type Config struct {
	Logging  LoggingConfig  `mapstructure:"logging"`
	Narrator NarratorConfig `mapstructure:"narrator"`
	Game     GameConfig     `mapstructure:"game"`
	Storage  StorageConfig  `mapstructure:"storage"`
	Database DatabaseConfig `mapstructure:"database"`
	Redis    RedisConfig    `mapstructure:"redis"`
}

// Validate checks all configuration invariants.
//
// Postcondition: Returns nil if configuration is valid, or an error describing all violations.
func (c Config) Validate() error {
	var errs []string

	if err := validateLogging(c.Logging); err != nil {
		errs = append(errs, err.Error())
	}
	if err := validateNarrator(c.Narrator); err != nil {
		errs = append(errs, err.Error())
	}
	if err := validateGame(c.Game); err != nil {
		errs = append(errs, err.Error())
	}
	if err := validateStorage(c.Storage); err != nil {
		errs = append(errs, err.Error())
	}
	if c.Storage.Backend == "postgres" {
		if err := validateDatabase(c.Database); err != nil {
			errs = append(errs, err.Error())
		}
	}
	if c.Redis.Enabled && c.Redis.Addr == "" {
		errs = append(errs, "redis.addr must not be empty when redis.enabled is true")
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration validation failed: %s", strings.Join(errs, "; "))
	}
	return nil
}

func validateLogging(l LoggingConfig) error {
	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[l.Level] {
		return fmt.Errorf("logging.level must be one of [debug, info, warn, error], got %q", l.Level)
	}
	validFormats := map[string]bool{"json": true, "console": true}
	if !validFormats[l.Format] {
		return fmt.Errorf("logging.format must be one of [json, console], got %q", l.Format)
	}
	return nil
}

func validateNarrator(n NarratorConfig) error {
	var errs []string
	validProviders := map[string]bool{"openai": true, "anthropic": true}
	if !validProviders[n.Provider] {
		errs = append(errs, fmt.Sprintf("narrator.provider must be one of [openai, anthropic], got %q", n.Provider))
	}
	if n.APIKeyEnv == "" {
		errs = append(errs, "narrator.api_key_env must not be empty")
	}
	if n.Temperature < 0 || n.Temperature > 2 {
		errs = append(errs, fmt.Sprintf("narrator.temperature must be 0-2, got %v", n.Temperature))
	}
	if n.MaxTokens < 1 {
		errs = append(errs, fmt.Sprintf("narrator.max_tokens must be >= 1, got %d", n.MaxTokens))
	}
	if n.Timeout < 0 {
		errs = append(errs, "narrator.timeout must not be negative")
	}
	if len(errs) > 0 {
		return fmt.Errorf("%s", strings.Join(errs, "; "))
	}
	return nil
}

func validateGame(g GameConfig) error {
	var errs []string
	if g.NPCSlots < 1 {
		errs = append(errs, fmt.Sprintf("game.npc_slots must be >= 1, got %d", g.NPCSlots))
	}
	if g.HistoryWindow < 1 {
		errs = append(errs, fmt.Sprintf("game.history_window must be >= 1, got %d", g.HistoryWindow))
	}
	if g.RecapWords < 0 {
		errs = append(errs, "game.recap_words must not be negative")
	}
	if g.InstructionLimit < 0 {
		errs = append(errs, "game.instruction_limit must not be negative")
	}
	if len(errs) > 0 {
		return fmt.Errorf("%s", strings.Join(errs, "; "))
	}
	return nil
}

func validateStorage(s StorageConfig) error {
	switch s.Backend {
	case "file":
		if s.BaseDir == "" {
			return errors.New("storage.base_dir must not be empty for the file backend")
		}
	case "postgres":
	default:
		return fmt.Errorf("storage.backend must be one of [file, postgres], got %q", s.Backend)
	}
	return nil
}

func validateDatabase(d DatabaseConfig) error {
	var errs []string
	if d.Host == "" {
		errs = append(errs, "database.host must not be empty")
	}
	if d.Port < 1 || d.Port > 65535 {
		errs = append(errs, fmt.Sprintf("database.port must be 1-65535, got %d", d.Port))
	}
	if d.User == "" {
		errs = append(errs, "database.user must not be empty")
	}
	if d.Name == "" {
		errs = append(errs, "database.name must not be empty")
	}
	validSSL := map[string]bool{"disable": true, "require": true, "verify-ca": true, "verify-full": true}
	if !validSSL[d.SSLMode] {
		errs = append(errs, fmt.Sprintf("database.sslmode must be one of [disable, require, verify-ca, verify-full], got %q", d.SSLMode))
	}
	if d.MaxConns < 1 {
		errs = append(errs, fmt.Sprintf("database.max_conns must be >= 1, got %d", d.MaxConns))
	}
	if d.MinConns < 0 {
		errs = append(errs, fmt.Sprintf("database.min_conns must be >= 0, got %d", d.MinConns))
	}
	if d.MinConns > d.MaxConns {
		errs = append(errs, "database.min_conns must not exceed database.max_conns")
	}
	if len(errs) > 0 {
		return fmt.Errorf("%s", strings.Join(errs, "; "))
	}
	return nil
}

// Load reads configuration from the given file path, applies environment variable
// overrides, and validates the result.
//
// Precondition: path must be a valid file path to a YAML configuration file.
// Postcondition: Returns a valid Config or a non-nil error.
func Load(path string) (Config, error) {
	v := viper.New()
	v.SetConfigFile(path)

	// Environment variable overrides with DM_ prefix
	v.SetEnvPrefix("DM")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		return Config{}, fmt.Errorf("reading config file: %w", err)
	}

	return LoadFromViper(v)
}

// LoadFromViper builds a Config from an already-configured Viper instance.
//
// Precondition: v must be non-nil and have configuration values set.
// Postcondition: Returns a valid Config or a non-nil error.
func LoadFromViper(v *viper.Viper) (Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshalling config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Default returns a Config populated only from defaults.
//
// Postcondition: Returns a Config that passes Validate.
func Default() Config {
	v := viper.New()
	setDefaults(v)
	var cfg Config
	// Defaults are static; an unmarshal failure here is a programming error.
	if err := v.Unmarshal(&cfg); err != nil {
		panic(fmt.Sprintf("config: unmarshalling defaults: %v", err))
	}
	return cfg
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "console")
	v.SetDefault("logging.output", "stderr")

	v.SetDefault("narrator.provider", "openai")
	v.SetDefault("narrator.base_url", "")
	v.SetDefault("narrator.api_key_env", "OPENROUTER_API_KEY")
	v.SetDefault("narrator.dm_model", "")
	v.SetDefault("narrator.temperature", 0.7)
	v.SetDefault("narrator.max_tokens", 1000)
	v.SetDefault("narrator.timeout", "90s")
	v.SetDefault("narrator.http_referer", "https://github.com/cory-johannsen/dungeonmaster")
	v.SetDefault("narrator.app_title", "dungeonmaster")

	v.SetDefault("game.npc_slots", 3)
	v.SetDefault("game.history_window", 3)
	v.SetDefault("game.recap_words", 250)
	v.SetDefault("game.rules_dir", "")
	v.SetDefault("game.instruction_limit", 0)

	v.SetDefault("storage.backend", "file")
	v.SetDefault("storage.base_dir", "data")

	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.user", "dm")
	v.SetDefault("database.password", "dm")
	v.SetDefault("database.name", "dungeonmaster")
	v.SetDefault("database.sslmode", "disable")
	v.SetDefault("database.max_conns", 10)
	v.SetDefault("database.min_conns", 1)
	v.SetDefault("database.max_conn_lifetime", "1h")

	v.SetDefault("redis.enabled", false)
	v.SetDefault("redis.addr", "localhost:6379")
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.key_prefix", "dm")
}

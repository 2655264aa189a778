// Package config provides Viper-based configuration loading for the farm
// simulation daemon and tools.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Storage drivers accepted by StorageConfig.Driver.
const (
	DriverMemory   = "memory"
	DriverPostgres = "postgres"
)

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

// StorageConfig selects the character store.
type StorageConfig struct {
	// Driver is "memory" or "postgres".
	Driver   string         `mapstructure:"driver"`
	Database DatabaseConfig `mapstructure:"database"`
}

// LoggingConfig holds structured logging settings.
type LoggingConfig struct {
	// Level is the minimum log level: "debug", "info", "warn", "error".
	Level string `mapstructure:"level"`
	// Format is the log output format: "json" or "console".
	Format string `mapstructure:"format"`
}

// WorldConfig controls world content and generation.
type WorldConfig struct {
	// ContentFile overrides the embedded world definition when set.
	ContentFile string `mapstructure:"content_file"`
	// SkillsDir overrides the embedded skill catalog when set.
	SkillsDir string `mapstructure:"skills_dir"`
	// GridSize is the side length of each zone's farm spot grid.
	GridSize int `mapstructure:"grid_size"`
	// Seed makes generation reproducible; zero uses an unseeded source.
	Seed uint64 `mapstructure:"seed"`
	// BalanceScript is an optional Lua file, or directory with per-zone
	// subdirectories, defining balance_factor(zone_id, level, static).
	BalanceScript string `mapstructure:"balance_script"`
	// ScriptInstructionLimit bounds the VM instructions of one balance call.
	ScriptInstructionLimit int `mapstructure:"script_instruction_limit"`
}

// CombatConfig holds auto-combat encounter options.
type CombatConfig struct {
	MaxRounds       int           `mapstructure:"max_rounds"`
	StopOnLowHealth bool          `mapstructure:"stop_on_low_health"`
	StopOnLowMana   bool          `mapstructure:"stop_on_low_mana"`
	RoundDelay      time.Duration `mapstructure:"round_delay"`
	// RoundDuration is the nominal game time of one round used for
	// cooldowns; zero measures cooldowns on the wall clock.
	RoundDuration time.Duration `mapstructure:"round_duration"`
}

// RegenConfig controls the periodic regeneration ticker.
type RegenConfig struct {
	Enabled  bool          `mapstructure:"enabled"`
	Interval time.Duration `mapstructure:"interval"`
}

// Config is the top-level application configuration.
type Config struct {
	Logging LoggingConfig `mapstructure:"logging"`
	Storage StorageConfig `mapstructure:"storage"`
	World   WorldConfig   `mapstructure:"world"`
	Combat  CombatConfig  `mapstructure:"combat"`
	Regen   RegenConfig   `mapstructure:"regen"`
}

// Validate checks all configuration invariants.
//
// Postcondition: Returns nil if configuration is valid, or an error describing all violations.
func (c Config) Validate() error {
	var errs []string

	if err := validateLogging(c.Logging); err != nil {
		errs = append(errs, err.Error())
	}
	if err := validateStorage(c.Storage); err != nil {
		errs = append(errs, err.Error())
	}
	if err := validateWorld(c.World); err != nil {
		errs = append(errs, err.Error())
	}
	if err := validateCombat(c.Combat); err != nil {
		errs = append(errs, err.Error())
	}
	if err := validateRegen(c.Regen); err != nil {
		errs = append(errs, err.Error())
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration validation failed: %s", strings.Join(errs, "; "))
	}
	return nil
}

func validateStorage(s StorageConfig) error {
	switch s.Driver {
	case DriverMemory:
		return nil
	case DriverPostgres:
		return validateDatabase(s.Database)
	}
	return fmt.Errorf("storage.driver must be one of [memory, postgres], got %q", s.Driver)
}

func validateDatabase(d DatabaseConfig) error {
	var errs []string
	if d.Host == "" {
		errs = append(errs, "storage.database.host must not be empty")
	}
	if d.Port < 1 || d.Port > 65535 {
		errs = append(errs, fmt.Sprintf("storage.database.port must be 1-65535, got %d", d.Port))
	}
	if d.User == "" {
		errs = append(errs, "storage.database.user must not be empty")
	}
	if d.Name == "" {
		errs = append(errs, "storage.database.name must not be empty")
	}
	validSSL := map[string]bool{"disable": true, "require": true, "verify-ca": true, "verify-full": true}
	if !validSSL[d.SSLMode] {
		errs = append(errs, fmt.Sprintf("storage.database.sslmode must be one of [disable, require, verify-ca, verify-full], got %q", d.SSLMode))
	}
	if d.MaxConns < 1 {
		errs = append(errs, fmt.Sprintf("storage.database.max_conns must be >= 1, got %d", d.MaxConns))
	}
	if d.MinConns < 0 {
		errs = append(errs, fmt.Sprintf("storage.database.min_conns must be >= 0, got %d", d.MinConns))
	}
	if d.MinConns > d.MaxConns {
		errs = append(errs, "storage.database.min_conns must not exceed storage.database.max_conns")
	}
	if len(errs) > 0 {
		return fmt.Errorf("%s", strings.Join(errs, "; "))
	}
	return nil
}

func validateWorld(w WorldConfig) error {
	var errs []string
	if w.GridSize < 1 || w.GridSize > 16 {
		errs = append(errs, fmt.Sprintf("world.grid_size must be 1-16, got %d", w.GridSize))
	}
	if w.ScriptInstructionLimit < 0 {
		errs = append(errs, fmt.Sprintf("world.script_instruction_limit must be >= 0, got %d", w.ScriptInstructionLimit))
	}
	if len(errs) > 0 {
		return fmt.Errorf("%s", strings.Join(errs, "; "))
	}
	return nil
}

func validateCombat(c CombatConfig) error {
	var errs []string
	if c.MaxRounds < 1 {
		errs = append(errs, fmt.Sprintf("combat.max_rounds must be >= 1, got %d", c.MaxRounds))
	}
	if c.RoundDelay < 0 {
		errs = append(errs, "combat.round_delay must not be negative")
	}
	if c.RoundDuration < 0 {
		errs = append(errs, "combat.round_duration must not be negative")
	}
	if len(errs) > 0 {
		return fmt.Errorf("%s", strings.Join(errs, "; "))
	}
	return nil
}

func validateRegen(r RegenConfig) error {
	if r.Enabled && r.Interval <= 0 {
		return fmt.Errorf("regen.interval must be > 0 when regen is enabled, got %s", r.Interval)
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

// Load reads configuration from the given file path, applies environment variable
// overrides, and validates the result. An empty path uses defaults and
// environment variables only.
//
// Postcondition: Returns a valid Config or a non-nil error.
func Load(path string) (Config, error) {
	v := viper.New()

	// Environment variable overrides with FARM_ prefix
	v.SetEnvPrefix("FARM")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("reading config file: %w", err)
		}
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

func setDefaults(v *viper.Viper) {
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")

	v.SetDefault("storage.driver", DriverMemory)
	v.SetDefault("storage.database.host", "localhost")
	v.SetDefault("storage.database.port", 5432)
	v.SetDefault("storage.database.user", "farm")
	v.SetDefault("storage.database.password", "farm")
	v.SetDefault("storage.database.name", "farm")
	v.SetDefault("storage.database.sslmode", "disable")
	v.SetDefault("storage.database.max_conns", 10)
	v.SetDefault("storage.database.min_conns", 2)
	v.SetDefault("storage.database.max_conn_lifetime", "1h")

	v.SetDefault("world.content_file", "")
	v.SetDefault("world.skills_dir", "")
	v.SetDefault("world.grid_size", 4)
	v.SetDefault("world.seed", 0)
	v.SetDefault("world.balance_script", "")
	v.SetDefault("world.script_instruction_limit", 100000)

	v.SetDefault("combat.max_rounds", 100)
	v.SetDefault("combat.stop_on_low_health", true)
	v.SetDefault("combat.stop_on_low_mana", false)
	v.SetDefault("combat.round_delay", "0s")
	v.SetDefault("combat.round_duration", "1s")

	v.SetDefault("regen.enabled", true)
	v.SetDefault("regen.interval", "2s")
}

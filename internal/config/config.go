// Package config provides Viper-based configuration loading for the engine
// and its tooling.
package config

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// EngineMaxEnergy is the activation threshold the engine is built around.
const EngineMaxEnergy = 8

// LoggingConfig holds structured logging settings.
type LoggingConfig struct {
	// Level is the minimum log level: "debug", "info", "warn", "error".
	Level string `mapstructure:"level"`
	// Format is the log output format: "json" or "console".
	Format string `mapstructure:"format"`
	// Outputs are zap sink URLs or file paths; empty means stderr.
	Outputs []string `mapstructure:"outputs"`
}

// EngineConfig holds the turn and AI tunables.
type EngineConfig struct {
	MaxEnergy       int     `mapstructure:"max_energy"`
	InputBuffer     int     `mapstructure:"input_buffer"`
	ConfusionChance float64 `mapstructure:"confusion_chance"`
	ThrowRange      int     `mapstructure:"throw_range"`
	FramesPerTick   int     `mapstructure:"frames_per_tick"`

	EnemyAttackRadius      int       `mapstructure:"enemy_attack_radius"`
	EnemySmartPathingRange int       `mapstructure:"enemy_smart_pathing_range"`
	EnemyPathingSkill      []float64 `mapstructure:"enemy_pathing_skill"`
	EnemySpawnChance       float64   `mapstructure:"enemy_spawn_chance"`

	// Seed selects a deterministic dice source; 0 uses crypto randomness.
	Seed uint64 `mapstructure:"seed"`
}

// ContentConfig points at the YAML and Lua content directories.
type ContentConfig struct {
	StatusesDir string `mapstructure:"statuses_dir"`
	ItemsDir    string `mapstructure:"items_dir"`
	EnemiesDir  string `mapstructure:"enemies_dir"`
	ScriptsDir  string `mapstructure:"scripts_dir"`
}

// ScriptingConfig holds Lua VM limits.
type ScriptingConfig struct {
	// InstructionLimit caps opcodes per hook call; 0 uses the VM default.
	InstructionLimit int `mapstructure:"instruction_limit"`
}

// DatabaseConfig holds PostgreSQL connection settings for the kill ledger.
type DatabaseConfig struct {
	Enabled         bool          `mapstructure:"enabled"`
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

// Config is the top-level application configuration.
type Config struct {
	Logging   LoggingConfig   `mapstructure:"logging"`
	Engine    EngineConfig    `mapstructure:"engine"`
	Content   ContentConfig   `mapstructure:"content"`
	Scripting ScriptingConfig `mapstructure:"scripting"`
	Database  DatabaseConfig  `mapstructure:"database"`
}

// Validate checks all configuration invariants.
//
// Postcondition: Returns nil if configuration is valid, or an error describing all violations.
func (c Config) Validate() error {
	var errs []string
	for _, err := range []error{
		validateLogging(c.Logging),
		validateEngine(c.Engine),
		validateContent(c.Content),
		validateScripting(c.Scripting),
		validateDatabase(c.Database),
	} {
		if err != nil {
			errs = append(errs, err.Error())
		}
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

func validateEngine(e EngineConfig) error {
	var errs []string
	if e.MaxEnergy != EngineMaxEnergy {
		errs = append(errs, fmt.Sprintf("engine.max_energy is fixed at %d, got %d", EngineMaxEnergy, e.MaxEnergy))
	}
	if e.InputBuffer < 0 {
		errs = append(errs, fmt.Sprintf("engine.input_buffer must be >= 0, got %d", e.InputBuffer))
	}
	if e.ConfusionChance < 0 || e.ConfusionChance > 1 {
		errs = append(errs, fmt.Sprintf("engine.confusion_chance must be in [0, 1], got %v", e.ConfusionChance))
	}
	if e.EnemySpawnChance < 0 || e.EnemySpawnChance > 1 {
		errs = append(errs, fmt.Sprintf("engine.enemy_spawn_chance must be in [0, 1], got %v", e.EnemySpawnChance))
	}
	if e.ThrowRange < 1 {
		errs = append(errs, fmt.Sprintf("engine.throw_range must be >= 1, got %d", e.ThrowRange))
	}
	if e.FramesPerTick < 1 {
		errs = append(errs, fmt.Sprintf("engine.frames_per_tick must be >= 1, got %d", e.FramesPerTick))
	}
	if e.EnemyAttackRadius < 1 {
		errs = append(errs, fmt.Sprintf("engine.enemy_attack_radius must be >= 1, got %d", e.EnemyAttackRadius))
	}
	if e.EnemySmartPathingRange < 0 {
		errs = append(errs, fmt.Sprintf("engine.enemy_smart_pathing_range must be >= 0, got %d", e.EnemySmartPathingRange))
	}
	if len(e.EnemyPathingSkill) == 0 {
		errs = append(errs, "engine.enemy_pathing_skill must not be empty")
	}
	for i, p := range e.EnemyPathingSkill {
		if p < 0 || p > 1 {
			errs = append(errs, fmt.Sprintf("engine.enemy_pathing_skill[%d] must be in [0, 1], got %v", i, p))
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("%s", strings.Join(errs, "; "))
	}
	return nil
}

func validateContent(c ContentConfig) error {
	var errs []string
	for key, dir := range map[string]string{
		"content.statuses_dir": c.StatusesDir,
		"content.items_dir":    c.ItemsDir,
		"content.enemies_dir":  c.EnemiesDir,
	} {
		if dir == "" {
			errs = append(errs, key+" must not be empty")
		}
	}
	sort.Strings(errs)
	if len(errs) > 0 {
		return fmt.Errorf("%s", strings.Join(errs, "; "))
	}
	return nil
}

func validateScripting(s ScriptingConfig) error {
	if s.InstructionLimit < 0 {
		return fmt.Errorf("scripting.instruction_limit must be >= 0, got %d", s.InstructionLimit)
	}
	return nil
}

func validateDatabase(d DatabaseConfig) error {
	if !d.Enabled {
		return nil
	}
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

	// Environment variable overrides with SKEL_ prefix
	v.SetEnvPrefix("SKEL")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		return Config{}, fmt.Errorf("reading config file: %w", err)
	}
	return LoadFromViper(v)
}

// Default returns the validated built-in configuration.
//
// Postcondition: Returns a Config equal to loading an empty file.
func Default() (Config, error) {
	v := viper.New()
	setDefaults(v)
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

	v.SetDefault("engine.max_energy", EngineMaxEnergy)
	v.SetDefault("engine.input_buffer", 5)
	v.SetDefault("engine.confusion_chance", 0.25)
	v.SetDefault("engine.throw_range", 6)
	v.SetDefault("engine.frames_per_tick", 1)
	v.SetDefault("engine.enemy_attack_radius", 8)
	v.SetDefault("engine.enemy_smart_pathing_range", 12)
	v.SetDefault("engine.enemy_pathing_skill", []float64{0.25, 0.5, 0.75, 0.9, 1.0})
	v.SetDefault("engine.enemy_spawn_chance", 0.3)
	v.SetDefault("engine.seed", 0)

	v.SetDefault("content.statuses_dir", "content/statuses")
	v.SetDefault("content.items_dir", "content/items")
	v.SetDefault("content.enemies_dir", "content/enemies")
	v.SetDefault("content.scripts_dir", "content/scripts")

	v.SetDefault("scripting.instruction_limit", 100_000)

	v.SetDefault("database.enabled", false)
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.user", "skeletris")
	v.SetDefault("database.password", "skeletris")
	v.SetDefault("database.name", "skeletris")
	v.SetDefault("database.sslmode", "disable")
	v.SetDefault("database.max_conns", 10)
	v.SetDefault("database.min_conns", 2)
	v.SetDefault("database.max_conn_lifetime", "1h")
}

// Package config loads the hsregistry configuration.
package config

import "time"

// Config is the root configuration.
type Config struct {
	Server  ServerConfig  `yaml:"server"`
	Data    DataConfig    `yaml:"data"`
	Mapping MappingConfig `yaml:"mapping"`
	Match   MatchConfig   `yaml:"match"`
	Sources SourcesConfig `yaml:"sources"`
	Log     LogConfig     `yaml:"log"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Addr            string        `yaml:"addr"             env:"HSREG_ADDR"             env-default:":8420"`
	ReadTimeout     time.Duration `yaml:"read_timeout"     env:"HSREG_READ_TIMEOUT"     env-default:"10s"`
	WriteTimeout    time.Duration `yaml:"write_timeout"    env:"HSREG_WRITE_TIMEOUT"    env-default:"60s"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" env:"HSREG_SHUTDOWN_TIMEOUT" env-default:"10s"`
	MaxBodyBytes    int64         `yaml:"max_body_bytes"   env:"HSREG_MAX_BODY_BYTES"   env-default:"8388608"`
}

// DataConfig holds on-disk locations.
type DataConfig struct {
	Dir          string `yaml:"dir"           env:"HSREG_DATA_DIR"      env-default:"data"`
	ReferenceDir string `yaml:"reference_dir" env:"HSREG_REFERENCE_DIR" env-default:"data/reference"`
	MappingDB    string `yaml:"mapping_db"    env:"HSREG_MAPPING_DB"    env-default:"data/mappings.db"`
	SourcesDB    string `yaml:"sources_db"    env:"HSREG_SOURCES_DB"    env-default:"data/sources.db"`
}

// MappingConfig holds mapping build settings. The booleans default to
// false because cleanenv re-applies env-default over a zero YAML value.
type MappingConfig struct {
	PrepOverrides   string `yaml:"prep_overrides"   env:"HSREG_PREP_OVERRIDES"`
	CustomOverrides string `yaml:"custom_overrides" env:"HSREG_CUSTOM_OVERRIDES"`
	SkipPrep        bool   `yaml:"skip_prep"        env:"HSREG_SKIP_PREP"`
	IgnoreState     bool   `yaml:"ignore_state"     env:"HSREG_IGNORE_STATE"`
}

// MatchConfig holds NCES matching settings.
type MatchConfig struct {
	Workers    int `yaml:"workers"     env:"HSREG_MATCH_WORKERS"     env-default:"0"`
	BatchLimit int `yaml:"batch_limit" env:"HSREG_MATCH_BATCH_LIMIT" env-default:"10000"`
}

// SourcesConfig controls the source availability checker.
type SourcesConfig struct {
	CheckInterval time.Duration `yaml:"check_interval" env:"HSREG_SOURCE_CHECK_INTERVAL" env-default:"24h"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level  string `yaml:"level"  env:"HSREG_LOG_LEVEL"  env-default:"info"`
	Format string `yaml:"format" env:"HSREG_LOG_FORMAT" env-default:"text"`
}

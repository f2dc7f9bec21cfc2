package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	DefaultUnit          = "endlessh"
	DefaultListen        = ":9314"
	DefaultWindow        = 6 * time.Hour
	DefaultCounterWindow = 5 * time.Minute
	DefaultInterval      = time.Minute
	DefaultFameCap       = 100
	DefaultGeoBudget     = 40
	DefaultFamePath      = "/var/lib/endlesshmon/hall_of_fame.json"
	DefaultGeoCachePath  = "/var/lib/endlesshmon/geocache.db"
	DefaultLogDir        = "/var/log/endlesshmon"
)

// Duration wraps time.Duration so config fields accept values like "6h".
type Duration time.Duration

func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var raw string
	if err := value.Decode(&raw); err != nil {
		return err
	}
	parsed, err := time.ParseDuration(raw)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", raw, err)
	}
	*d = Duration(parsed)
	return nil
}

func (d Duration) MarshalYAML() (interface{}, error) {
	return time.Duration(d).String(), nil
}

func (d Duration) Std() time.Duration {
	return time.Duration(d)
}

// Config holds the exporter settings. Zero values are filled in by
// ApplyDefaults; command-line flags may override individual fields.
type Config struct {
	Unit          string   `yaml:"unit"`
	Listen        string   `yaml:"listen"`
	Window        Duration `yaml:"window"`
	CounterWindow Duration `yaml:"counter_window"`
	Interval      Duration `yaml:"interval"`
	FamePath      string   `yaml:"fame_path"`
	FameCap       int      `yaml:"fame_cap"`
	GeoCachePath  string   `yaml:"geo_cache_path"`
	GeoBudget     int      `yaml:"geo_budget"`
	LogDir        string   `yaml:"log_dir"`
}

// Default returns a config with every field at its default.
func Default() Config {
	cfg := Config{GeoBudget: -1}
	ApplyDefaults(&cfg)
	return cfg
}

// Load reads and parses a YAML config file.
func Load(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, err
	}

	// Zero is a valid budget (never call the lookup API), so "absent"
	// has to be marked with a negative sentinel before decoding.
	cfg := Config{GeoBudget: -1}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, err
	}

	ApplyDefaults(&cfg)
	return cfg, nil
}

// ApplyDefaults fills in default values when empty.
func ApplyDefaults(cfg *Config) {
	if cfg.Unit == "" {
		cfg.Unit = DefaultUnit
	}
	if cfg.Listen == "" {
		cfg.Listen = DefaultListen
	}
	if cfg.Window == 0 {
		cfg.Window = Duration(DefaultWindow)
	}
	if cfg.CounterWindow == 0 {
		cfg.CounterWindow = Duration(DefaultCounterWindow)
	}
	if cfg.Interval == 0 {
		cfg.Interval = Duration(DefaultInterval)
	}
	if cfg.FamePath == "" {
		cfg.FamePath = DefaultFamePath
	}
	if cfg.FameCap == 0 {
		cfg.FameCap = DefaultFameCap
	}
	if cfg.GeoCachePath == "" {
		cfg.GeoCachePath = DefaultGeoCachePath
	}
	if cfg.GeoBudget < 0 {
		cfg.GeoBudget = DefaultGeoBudget
	}
	if cfg.LogDir == "" {
		cfg.LogDir = DefaultLogDir
	}
}

// Validate performs minimal validation for required fields.
func Validate(cfg Config) error {
	if cfg.Unit == "" {
		return fmt.Errorf("unit is required")
	}
	if cfg.Listen == "" {
		return fmt.Errorf("listen is required")
	}
	if cfg.Window <= 0 {
		return fmt.Errorf("window must be positive")
	}
	if cfg.Interval <= 0 {
		return fmt.Errorf("interval must be positive")
	}
	if cfg.CounterWindow <= 0 || cfg.CounterWindow.Std() > cfg.Window.Std() {
		return fmt.Errorf("counter_window must be positive and no longer than window")
	}
	if cfg.FameCap < 1 {
		return fmt.Errorf("fame_cap must be at least 1")
	}
	if cfg.GeoBudget < 0 {
		return fmt.Errorf("geo_budget must not be negative")
	}
	return nil
}

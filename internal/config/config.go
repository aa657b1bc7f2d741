package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"
	"gopkg.in/yaml.v3"

	"github.com/eugenenazirov/stackctl/internal/params"
)

const (
	defaultPort           = "5173"
	defaultRateLimitRPS   = 25.0
	defaultRateLimitBurst = 50
)

// Config aggregates runtime configuration resolved from multiple sources.
// Precedence: CLI flags > YAML config > Environment variables > Defaults
type Config struct {
	Port string `yaml:"port"`
	// Host overrides the dev-server host of the build configuration when set.
	Host                 string        `yaml:"host"`
	Environment          string        `yaml:"environment"`
	ParametersFile       string        `yaml:"parameters_file"`
	CDKJSON              string        `yaml:"cdk_json"`
	BuildConfigFile      string        `yaml:"build_config_file"`
	PublicDir            string        `yaml:"public_dir"`
	OverlaysDir          string        `yaml:"overlays_dir"`
	ProjectRoot          string        `yaml:"project_root"`
	LogLevel             string        `yaml:"log_level"`
	Watch                bool          `yaml:"watch"`
	WatchDebounce        time.Duration `yaml:"watch_debounce"`
	ShutdownGracePeriod  time.Duration `yaml:"shutdown_grace_period"`
	ReadHeaderTimeout    time.Duration `yaml:"read_header_timeout"`
	WriteTimeout         time.Duration `yaml:"write_timeout"`
	IdleTimeout          time.Duration `yaml:"idle_timeout"`
	EnableRequestLogging bool          `yaml:"enable_request_logging"`
	RateLimitRPS         float64       `yaml:"-"`
	RateLimitBurst       int           `yaml:"-"`
}

// yamlConfig represents the YAML configuration file structure. Pointers
// distinguish an explicit zero from an omitted key.
type yamlConfig struct {
	Port                 string        `yaml:"port"`
	Host                 string        `yaml:"host"`
	Environment          string        `yaml:"environment"`
	ParametersFile       string        `yaml:"parameters_file"`
	CDKJSON              string        `yaml:"cdk_json"`
	BuildConfigFile      string        `yaml:"build_config_file"`
	PublicDir            string        `yaml:"public_dir"`
	OverlaysDir          string        `yaml:"overlays_dir"`
	ProjectRoot          string        `yaml:"project_root"`
	LogLevel             string        `yaml:"log_level"`
	Watch                *bool         `yaml:"watch"`
	WatchDebounce        string        `yaml:"watch_debounce"`
	ShutdownGracePeriod  string        `yaml:"shutdown_grace_period"`
	ReadHeaderTimeout    string        `yaml:"read_header_timeout"`
	WriteTimeout         string        `yaml:"write_timeout"`
	IdleTimeout          string        `yaml:"idle_timeout"`
	EnableRequestLogging *bool         `yaml:"enable_request_logging"`
	RateLimit            yamlRateLimit `yaml:"rate_limit"`
}

// yamlRateLimit represents the rate limit section in YAML.
type yamlRateLimit struct {
	RPS   *float64 `yaml:"rps"`
	Burst *int     `yaml:"burst"`
}

// CLIOverrides holds command-line flag overrides.
type CLIOverrides struct {
	ConfigFile     string
	Port           *string
	Host           *string
	Environment    *string
	LogLevel       *string
	Watch          *bool
	RateLimitRPS   *float64
	RateLimitBurst *int
}

// Load extracts configuration from multiple sources with precedence:
// CLI flags > YAML config > Environment variables > Defaults
func Load(overrides *CLIOverrides) (Config, error) {
	cfg := defaultConfig()

	applyEnvConfig(&cfg)

	if overrides != nil && overrides.ConfigFile != "" {
		yamlCfg, err := loadFromFile(overrides.ConfigFile)
		if err != nil {
			return Config{}, fmt.Errorf("load YAML config: %w", err)
		}
		if err := applyYAMLConfig(&cfg, yamlCfg); err != nil {
			return Config{}, fmt.Errorf("apply YAML config: %w", err)
		}
	}

	if overrides != nil {
		applyCLIOverrides(&cfg, overrides)
	}

	if err := validateConfig(cfg); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

// defaultConfig returns a Config with default values.
func defaultConfig() Config {
	return Config{
		Port:                 defaultPort,
		Environment:          params.DefaultEnvironment,
		CDKJSON:              "cdk.json",
		PublicDir:            filepath.Join("frontend", "public"),
		OverlaysDir:          "overlays",
		ProjectRoot:          ".",
		LogLevel:             "info",
		Watch:                true,
		WatchDebounce:        200 * time.Millisecond,
		ShutdownGracePeriod:  10 * time.Second,
		ReadHeaderTimeout:    5 * time.Second,
		WriteTimeout:         15 * time.Second,
		IdleTimeout:          60 * time.Second,
		EnableRequestLogging: true,
		RateLimitRPS:         defaultRateLimitRPS,
		RateLimitBurst:       defaultRateLimitBurst,
	}
}

// Path resolves p against ProjectRoot. Empty and absolute paths are returned
// unchanged.
func (c Config) Path(p string) string {
	if p == "" || filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(c.ProjectRoot, p)
}

// loadFromFile loads configuration from a YAML file.
func loadFromFile(path string) (*yamlConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read file: %w", err)
	}

	var yamlCfg yamlConfig
	if err := yaml.Unmarshal(data, &yamlCfg); err != nil {
		return nil, fmt.Errorf("parse YAML: %w", err)
	}

	return &yamlCfg, nil
}

// applyYAMLConfig applies YAML configuration to the Config struct.
func applyYAMLConfig(cfg *Config, yamlCfg *yamlConfig) error {
	fields := []struct {
		dst *string
		src string
	}{
		{&cfg.Port, yamlCfg.Port},
		{&cfg.Host, yamlCfg.Host},
		{&cfg.Environment, yamlCfg.Environment},
		{&cfg.ParametersFile, yamlCfg.ParametersFile},
		{&cfg.CDKJSON, yamlCfg.CDKJSON},
		{&cfg.BuildConfigFile, yamlCfg.BuildConfigFile},
		{&cfg.PublicDir, yamlCfg.PublicDir},
		{&cfg.OverlaysDir, yamlCfg.OverlaysDir},
		{&cfg.ProjectRoot, yamlCfg.ProjectRoot},
		{&cfg.LogLevel, yamlCfg.LogLevel},
	}
	for _, f := range fields {
		if f.src != "" {
			*f.dst = f.src
		}
	}

	durations := []struct {
		key string
		dst *time.Duration
		src string
	}{
		{"watch_debounce", &cfg.WatchDebounce, yamlCfg.WatchDebounce},
		{"shutdown_grace_period", &cfg.ShutdownGracePeriod, yamlCfg.ShutdownGracePeriod},
		{"read_header_timeout", &cfg.ReadHeaderTimeout, yamlCfg.ReadHeaderTimeout},
		{"write_timeout", &cfg.WriteTimeout, yamlCfg.WriteTimeout},
		{"idle_timeout", &cfg.IdleTimeout, yamlCfg.IdleTimeout},
	}
	for _, d := range durations {
		if d.src == "" {
			continue
		}
		value, err := time.ParseDuration(d.src)
		if err != nil {
			return fmt.Errorf("%s: %w", d.key, err)
		}
		*d.dst = value
	}

	if yamlCfg.Watch != nil {
		cfg.Watch = *yamlCfg.Watch
	}
	if yamlCfg.EnableRequestLogging != nil {
		cfg.EnableRequestLogging = *yamlCfg.EnableRequestLogging
	}
	if yamlCfg.RateLimit.RPS != nil {
		cfg.RateLimitRPS = *yamlCfg.RateLimit.RPS
	}
	if yamlCfg.RateLimit.Burst != nil {
		cfg.RateLimitBurst = *yamlCfg.RateLimit.Burst
	}
	return nil
}

// applyEnvConfig applies environment variable configuration.
func applyEnvConfig(cfg *Config) {
	vars := []struct {
		name string
		dst  *string
	}{
		{"PORT", &cfg.Port},
		{"HOST", &cfg.Host},
		{"STACK_ENV", &cfg.Environment},
		{"PARAMETERS_FILE", &cfg.ParametersFile},
		{"CDK_JSON", &cfg.CDKJSON},
		{"BUILD_CONFIG_FILE", &cfg.BuildConfigFile},
		{"PUBLIC_DIR", &cfg.PublicDir},
		{"OVERLAYS_DIR", &cfg.OverlaysDir},
		{"PROJECT_ROOT", &cfg.ProjectRoot},
		{"LOG_LEVEL", &cfg.LogLevel},
	}
	for _, v := range vars {
		if value := strings.TrimSpace(os.Getenv(v.name)); value != "" {
			*v.dst = value
		}
	}

	if watch := strings.TrimSpace(os.Getenv("WATCH")); watch != "" {
		if value, err := strconv.ParseBool(watch); err == nil {
			cfg.Watch = value
		}
	}

	if rps := strings.TrimSpace(os.Getenv("RATE_LIMIT_RPS")); rps != "" {
		if value, err := strconv.ParseFloat(rps, 64); err == nil && value >= 0 {
			cfg.RateLimitRPS = value
		}
	}

	if burst := strings.TrimSpace(os.Getenv("RATE_LIMIT_BURST")); burst != "" {
		if value, err := strconv.Atoi(burst); err == nil && value >= 0 {
			cfg.RateLimitBurst = value
		}
	}
}

// applyCLIOverrides applies command-line flag overrides.
func applyCLIOverrides(cfg *Config, overrides *CLIOverrides) {
	if overrides.Port != nil && *overrides.Port != "" {
		cfg.Port = *overrides.Port
	}
	if overrides.Host != nil && *overrides.Host != "" {
		cfg.Host = *overrides.Host
	}
	if overrides.Environment != nil && *overrides.Environment != "" {
		cfg.Environment = *overrides.Environment
	}
	if overrides.LogLevel != nil && *overrides.LogLevel != "" {
		cfg.LogLevel = *overrides.LogLevel
	}
	if overrides.Watch != nil {
		cfg.Watch = *overrides.Watch
	}
	if overrides.RateLimitRPS != nil && *overrides.RateLimitRPS >= 0 {
		cfg.RateLimitRPS = *overrides.RateLimitRPS
	}
	if overrides.RateLimitBurst != nil && *overrides.RateLimitBurst >= 0 {
		cfg.RateLimitBurst = *overrides.RateLimitBurst
	}
}

// validateConfig validates the final configuration.
func validateConfig(cfg Config) error {
	err := validation.ValidateStruct(&cfg,
		validation.Field(&cfg.Port, validation.Required, is.Port),
		validation.Field(&cfg.Environment, validation.Required),
		validation.Field(&cfg.ProjectRoot, validation.Required),
		validation.Field(&cfg.LogLevel, validation.In("debug", "info", "warn", "error")),
		validation.Field(&cfg.RateLimitRPS, validation.Min(0.0)),
		validation.Field(&cfg.RateLimitBurst, validation.Min(0)),
		validation.Field(&cfg.WatchDebounce, validation.Min(time.Duration(0))),
		validation.Field(&cfg.ShutdownGracePeriod, validation.Required),
	)
	if err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	return nil
}

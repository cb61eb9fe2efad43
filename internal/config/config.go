// Package config provides configuration management for Dockboard.
//
// This package handles loading configuration from multiple sources:
//   - YAML configuration files
//   - Environment variables (with DOCKBOARD_ prefix)
//   - .env files
//   - Default values
//
// # Configuration Sources Priority
//
// Configuration is loaded in the following order (later sources override earlier ones):
//  1. Default values (hardcoded)
//  2. Configuration files (./config.yaml, ./configs/config.yaml, ~/.dockboard/config.yaml, /etc/dockboard/config.yaml)
//  3. .env files
//  4. Environment variables (DOCKBOARD_ prefix, then the legacy names)
//
// # Environment Variables
//
// Use the DOCKBOARD_ prefix and underscores for nested keys:
//   - DOCKBOARD_SERVER_PORT=5000
//   - DOCKBOARD_DASHBOARD_ENABLE_STATS=true
//   - DOCKBOARD_ENGINE_CALL_TIMEOUT=10s
//
// The unprefixed names used by earlier deployments are still honored when
// the prefixed variable is unset: PORT, HOST_URL, ENABLE_STATS,
// SKIP_INITIAL_STATS, FAST_INITIAL_LOAD, LOG_LEVEL and DOCKER_TIMEOUT.
// A bare number given for a duration is read as seconds.
package config

import (
	"errors"
	"fmt"
	"os"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/mitchellh/mapstructure"
	"github.com/spf13/viper"
)

// EnvPrefix prefixes every environment override.
const EnvPrefix = "DOCKBOARD"

// Config is the root configuration structure for Dockboard.
type Config struct {
	// Server contains HTTP server configuration
	Server ServerConfig `mapstructure:"server" yaml:"server"`

	// Storage locates the host registry file and the app catalog database
	Storage StorageConfig `mapstructure:"storage" yaml:"storage"`

	// Dashboard controls fidelity, stats and link generation
	Dashboard DashboardConfig `mapstructure:"dashboard" yaml:"dashboard"`

	// Engine contains timeouts and transport settings for engine calls
	Engine EngineConfig `mapstructure:"engine" yaml:"engine"`

	// Logging contains logging settings
	Logging LoggingConfig `mapstructure:"logging" yaml:"logging"`

	// Security contains rate limiting and CORS settings
	Security SecurityConfig `mapstructure:"security" yaml:"security"`
}

// ServerConfig contains HTTP server configuration.
type ServerConfig struct {
	// Host is the server bind address (default: 0.0.0.0)
	Host string `mapstructure:"host" yaml:"host"`

	// Port is the server listen port (default: 8080)
	Port int `mapstructure:"port" yaml:"port"`

	// ReadTimeout is the maximum duration for reading requests
	ReadTimeout time.Duration `mapstructure:"read_timeout" yaml:"read_timeout"`

	// WriteTimeout is the maximum duration for writing responses
	WriteTimeout time.Duration `mapstructure:"write_timeout" yaml:"write_timeout"`

	// ShutdownTimeout is the maximum duration for graceful shutdown
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout" yaml:"shutdown_timeout"`

	// Debug enables echo debug mode
	Debug bool `mapstructure:"debug" yaml:"debug"`
}

// StorageConfig locates persistent state.
type StorageConfig struct {
	// HostsFile is the JSON host registry
	HostsFile string `mapstructure:"hosts_file" yaml:"hosts_file"`

	// AppsDB is the SQLite database of the app catalog
	AppsDB string `mapstructure:"apps_db" yaml:"apps_db"`
}

// DashboardConfig controls what a dashboard pass collects.
type DashboardConfig struct {
	// BaseURL is the public URL of the dashboard; its hostname is used
	// for port links of local containers
	BaseURL string `mapstructure:"base_url" yaml:"base_url"`

	// EnableStats allows full fidelity and the stats endpoints
	EnableStats bool `mapstructure:"enable_stats" yaml:"enable_stats"`

	// SkipInitialStats defers stats of full passes to the polling endpoints
	SkipInitialStats bool `mapstructure:"skip_initial_stats" yaml:"skip_initial_stats"`

	// FastInitialLoad serves fast fidelity unless full is requested
	FastInitialLoad bool `mapstructure:"fast_initial_load" yaml:"fast_initial_load"`

	// EnvSampleSize bounds the environment sample of a full view
	EnvSampleSize int `mapstructure:"env_sample_size" yaml:"env_sample_size"`
}

// EngineConfig contains settings for talking to engines.
type EngineConfig struct {
	// CallTimeout bounds each engine call
	CallTimeout time.Duration `mapstructure:"call_timeout" yaml:"call_timeout"`

	// PassTimeout bounds one whole dashboard pass
	PassTimeout time.Duration `mapstructure:"pass_timeout" yaml:"pass_timeout"`

	// DetailWorkers bounds concurrent inspect/stats calls per host
	DetailWorkers int `mapstructure:"detail_workers" yaml:"detail_workers"`

	// TestTimeout bounds a connection test
	TestTimeout time.Duration `mapstructure:"test_timeout" yaml:"test_timeout"`

	// SSH configures the ssh transport
	SSH SSHConfig `mapstructure:"ssh" yaml:"ssh"`
}

// SSHConfig configures ssh:// hosts.
type SSHConfig struct {
	// ConfigFile is the ssh client config (default: ~/.ssh/config)
	ConfigFile string `mapstructure:"config_file" yaml:"config_file"`

	// KnownHostsFile is used for host key checking (default: ~/.ssh/known_hosts)
	KnownHostsFile string `mapstructure:"known_hosts_file" yaml:"known_hosts_file"`

	// IdentityFile is an extra private key to offer
	IdentityFile string `mapstructure:"identity_file" yaml:"identity_file"`

	// InsecureIgnoreHostKey skips host key checking
	InsecureIgnoreHostKey bool `mapstructure:"insecure_ignore_host_key" yaml:"insecure_ignore_host_key"`

	// DialTimeout bounds the ssh connect and handshake
	DialTimeout time.Duration `mapstructure:"dial_timeout" yaml:"dial_timeout"`
}

// LoggingConfig contains logging configuration.
type LoggingConfig struct {
	// Level is the log level (debug, info, warn, error)
	Level string `mapstructure:"level" yaml:"level"`

	// Format is the log format (json, text)
	Format string `mapstructure:"format" yaml:"format"`
}

// SecurityConfig contains rate limiting and CORS settings.
type SecurityConfig struct {
	// RateLimit is the maximum requests per second per client, 0 disables it
	RateLimit int `mapstructure:"rate_limit" yaml:"rate_limit"`

	// AllowedOrigins are the CORS allowed origins
	AllowedOrigins []string `mapstructure:"allowed_origins" yaml:"allowed_origins"`
}

// legacyEnv maps keys to the unprefixed variables older deployments set.
var legacyEnv = map[string]string{
	"server.port":                  "PORT",
	"dashboard.base_url":           "HOST_URL",
	"dashboard.enable_stats":       "ENABLE_STATS",
	"dashboard.skip_initial_stats": "SKIP_INITIAL_STATS",
	"dashboard.fast_initial_load":  "FAST_INITIAL_LOAD",
	"logging.level":                "LOG_LEVEL",
	"engine.call_timeout":          "DOCKER_TIMEOUT",
}

var cfg *Config

// Load reads configuration from a file and environment variables.
// If cfgFile is empty, it searches for config.yaml in standard locations.
func Load(cfgFile string) (*Config, error) {
	v := viper.New()

	setDefaults(v)

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./configs")
		v.AddConfigPath("$HOME/.dockboard")
		v.AddConfigPath("/etc/dockboard")
	}

	if err := v.ReadInConfig(); err != nil {
		if cfgFile != "" {
			if !isFileNotFoundError(err) {
				return nil, fmt.Errorf("error reading config file: %w", err)
			}
		} else {
			if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
				return nil, fmt.Errorf("error reading config file: %w", err)
			}
		}
	}

	v.SetConfigFile(".env")
	v.SetConfigType("env")
	_ = v.MergeInConfig() // Ignore error if .env file doesn't exist

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	for key, legacy := range legacyEnv {
		if err := v.BindEnv(key, envName(key), legacy); err != nil {
			return nil, fmt.Errorf("binding %s: %w", legacy, err)
		}
	}

	c := &Config{}
	hook := viper.DecodeHook(mapstructure.ComposeDecodeHookFunc(
		secondsHook,
		mapstructure.StringToTimeDurationHookFunc(),
		mapstructure.StringToSliceHookFunc(","),
	))
	if err := v.Unmarshal(c, hook); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}

	if err := validate(c); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	cfg = c
	return c, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.read_timeout", "30s")
	v.SetDefault("server.write_timeout", "60s")
	v.SetDefault("server.shutdown_timeout", "10s")
	v.SetDefault("server.debug", false)

	v.SetDefault("storage.hosts_file", "docker_hosts.json")
	v.SetDefault("storage.apps_db", "data/self_hosted_apps.db")

	v.SetDefault("dashboard.base_url", "")
	v.SetDefault("dashboard.enable_stats", false)
	v.SetDefault("dashboard.skip_initial_stats", true)
	v.SetDefault("dashboard.fast_initial_load", true)
	v.SetDefault("dashboard.env_sample_size", 10)

	v.SetDefault("engine.call_timeout", "5s")
	v.SetDefault("engine.pass_timeout", "15s")
	v.SetDefault("engine.detail_workers", 4)
	v.SetDefault("engine.test_timeout", "10s")
	v.SetDefault("engine.ssh.config_file", "")
	v.SetDefault("engine.ssh.known_hosts_file", "")
	v.SetDefault("engine.ssh.identity_file", "")
	v.SetDefault("engine.ssh.insecure_ignore_host_key", false)
	v.SetDefault("engine.ssh.dial_timeout", "10s")

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "text")

	v.SetDefault("security.rate_limit", 100)
	v.SetDefault("security.allowed_origins", []string{"*"})
}

func validate(cfg *Config) error {
	if cfg.Server.Port < 1 || cfg.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", cfg.Server.Port)
	}

	timeouts := []struct {
		name string
		d    time.Duration
	}{
		{"server.read_timeout", cfg.Server.ReadTimeout},
		{"server.write_timeout", cfg.Server.WriteTimeout},
		{"server.shutdown_timeout", cfg.Server.ShutdownTimeout},
		{"engine.call_timeout", cfg.Engine.CallTimeout},
		{"engine.pass_timeout", cfg.Engine.PassTimeout},
		{"engine.test_timeout", cfg.Engine.TestTimeout},
		{"engine.ssh.dial_timeout", cfg.Engine.SSH.DialTimeout},
	}
	for _, t := range timeouts {
		if t.d <= 0 {
			return fmt.Errorf("%s must be positive, got %v", t.name, t.d)
		}
	}

	if cfg.Engine.DetailWorkers < 1 {
		return fmt.Errorf("engine.detail_workers must be at least 1, got %d", cfg.Engine.DetailWorkers)
	}

	if cfg.Dashboard.EnvSampleSize < 0 {
		return fmt.Errorf("dashboard.env_sample_size cannot be negative")
	}

	if cfg.Security.RateLimit < 0 {
		return fmt.Errorf("security.rate_limit cannot be negative")
	}

	if strings.TrimSpace(cfg.Storage.HostsFile) == "" {
		return fmt.Errorf("storage.hosts_file is required")
	}

	if strings.TrimSpace(cfg.Storage.AppsDB) == "" {
		return fmt.Errorf("storage.apps_db is required")
	}

	switch strings.ToLower(cfg.Logging.Format) {
	case "json", "text":
	default:
		return fmt.Errorf("invalid logging format: %q", cfg.Logging.Format)
	}

	return nil
}

// Get returns the configuration of the last successful Load.
func Get() *Config {
	return cfg
}

// Addr is the listen address of the HTTP server.
func (c *ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

func envName(key string) string {
	return EnvPrefix + "_" + strings.ToUpper(strings.ReplaceAll(key, ".", "_"))
}

var durationType = reflect.TypeOf(time.Duration(0))

// secondsHook reads bare numbers given for durations as seconds, the
// unit DOCKER_TIMEOUT has always used.
func secondsHook(from reflect.Type, to reflect.Type, data interface{}) (interface{}, error) {
	if to != durationType || from == durationType {
		return data, nil
	}
	switch from.Kind() {
	case reflect.String:
		s := strings.TrimSpace(data.(string))
		if n, err := strconv.ParseFloat(s, 64); err == nil {
			return time.Duration(n * float64(time.Second)), nil
		}
		return s, nil
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return time.Duration(reflect.ValueOf(data).Int()) * time.Second, nil
	case reflect.Float32, reflect.Float64:
		return time.Duration(reflect.ValueOf(data).Float() * float64(time.Second)), nil
	}
	return data, nil
}

// isFileNotFoundError checks if an error is a file not found error.
func isFileNotFoundError(err error) bool {
	var pathErr *os.PathError
	if errors.As(err, &pathErr) {
		return errors.Is(pathErr, os.ErrNotExist)
	}
	return false
}

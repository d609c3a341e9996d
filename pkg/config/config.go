// Package config provides configuration loading and validation for dendrotime.
package config

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Sentinel validation errors.
var (
	ErrInvalidPort         = errors.New("invalid server port")
	ErrInvalidBackendURL   = errors.New("invalid backend url")
	ErrInvalidPollInterval = errors.New("poll interval must be positive")
	ErrInvalidWidth        = errors.New("dashboard width must be positive")
	ErrInvalidNodeSpacing  = errors.New("node spacing must be positive")
	ErrInvalidMaxLeaves    = errors.New("max leaves must be positive")
	ErrInvalidMaxClients   = errors.New("max clients must be positive")
	ErrInvalidTheme        = errors.New("unknown theme")
	ErrInvalidLogFormat    = errors.New("unknown log format")
	ErrInvalidSampleRatio  = errors.New("sample ratio must be within [0, 1]")
	ErrMissingDirectory    = errors.New("recording directory is required")
)

const (
	envPrefix = "DENDROTIME"
	maxPort   = 65535
)

// Config holds all configuration for dendrotime.
type Config struct {
	Logging   LoggingConfig   `mapstructure:"logging"`
	Backend   BackendConfig   `mapstructure:"backend"`
	Recording RecordingConfig `mapstructure:"recording"`
	Telemetry TelemetryConfig `mapstructure:"telemetry"`
	Server    ServerConfig    `mapstructure:"server"`
	Dashboard DashboardConfig `mapstructure:"dashboard"`
}

// ServerConfig holds the dashboard HTTP server configuration.
type ServerConfig struct {
	Host            string        `mapstructure:"host"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
	Port            int           `mapstructure:"port"`
}

// Addr returns host:port.
func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// BackendConfig holds the clustering server connection settings.
type BackendConfig struct {
	URL            string        `mapstructure:"url"`
	PollInterval   time.Duration `mapstructure:"poll_interval"`
	RequestTimeout time.Duration `mapstructure:"request_timeout"`
	FinishGrace    time.Duration `mapstructure:"finish_grace"`
}

// DashboardConfig holds the view settings.
type DashboardConfig struct {
	Theme             string  `mapstructure:"theme"`
	Width             float64 `mapstructure:"width"`
	NodeSpacing       float64 `mapstructure:"node_spacing"`
	MaxLeaves         int     `mapstructure:"max_leaves"`
	MaxClients        int     `mapstructure:"max_clients"`
	EqualNodeDistance bool    `mapstructure:"equal_node_distance"`
	UseTimestamps     bool    `mapstructure:"use_timestamps"`
	ShowLabelsOnHover bool    `mapstructure:"show_labels_on_hover"`
}

// RecordingConfig controls snapshot recording.
type RecordingConfig struct {
	Directory string `mapstructure:"directory"`
	Enabled   bool   `mapstructure:"enabled"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// TelemetryConfig holds OpenTelemetry export settings.
type TelemetryConfig struct {
	OTLPEndpoint string  `mapstructure:"otlp_endpoint"`
	Environment  string  `mapstructure:"environment"`
	SampleRatio  float64 `mapstructure:"sample_ratio"`
	OTLPInsecure bool    `mapstructure:"otlp_insecure"`
}

// LoadConfig loads configuration from file and environment variables.
// An empty configPath searches ./config.yaml, ./config/ and /etc/dendrotime;
// a missing file there is not an error.
func LoadConfig(configPath string) (*Config, error) {
	viperCfg := viper.New()

	setDefaults(viperCfg)

	if configPath != "" {
		viperCfg.SetConfigFile(configPath)
	} else {
		viperCfg.SetConfigName("config")
		viperCfg.SetConfigType("yaml")
		viperCfg.AddConfigPath(".")
		viperCfg.AddConfigPath("./config")
		viperCfg.AddConfigPath("/etc/dendrotime")
	}

	viperCfg.SetEnvPrefix(envPrefix)
	viperCfg.AutomaticEnv()
	viperCfg.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	readErr := viperCfg.ReadInConfig()
	if readErr != nil {
		var notFoundErr viper.ConfigFileNotFoundError
		if !errors.As(readErr, &notFoundErr) {
			return nil, fmt.Errorf("failed to read config file: %w", readErr)
		}
	}

	var config Config

	unmarshalErr := viperCfg.Unmarshal(&config)
	if unmarshalErr != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", unmarshalErr)
	}

	validateErr := validateConfig(&config)
	if validateErr != nil {
		return nil, fmt.Errorf("invalid configuration: %w", validateErr)
	}

	return &config, nil
}

// setDefaults sets default configuration values.
func setDefaults(viperCfg *viper.Viper) {
	// Server defaults.
	viperCfg.SetDefault("server.host", DefaultHost)
	viperCfg.SetDefault("server.port", DefaultPort)
	viperCfg.SetDefault("server.read_timeout", DefaultReadTimeout)
	viperCfg.SetDefault("server.write_timeout", DefaultWriteTimeout)
	viperCfg.SetDefault("server.shutdown_timeout", DefaultShutdownTimeout)

	// Backend defaults.
	viperCfg.SetDefault("backend.url", DefaultBackendURL)
	viperCfg.SetDefault("backend.poll_interval", DefaultPollInterval)
	viperCfg.SetDefault("backend.request_timeout", DefaultRequestTimeout)
	viperCfg.SetDefault("backend.finish_grace", DefaultFinishGrace)

	// Dashboard defaults.
	viperCfg.SetDefault("dashboard.width", DefaultWidth)
	viperCfg.SetDefault("dashboard.node_spacing", DefaultNodeSpacing)
	viperCfg.SetDefault("dashboard.equal_node_distance", DefaultEqualDistance)
	viperCfg.SetDefault("dashboard.use_timestamps", DefaultUseTimestamps)
	viperCfg.SetDefault("dashboard.show_labels_on_hover", DefaultShowLabelsOnHover)
	viperCfg.SetDefault("dashboard.max_leaves", DefaultMaxLeaves)
	viperCfg.SetDefault("dashboard.theme", DefaultTheme)
	viperCfg.SetDefault("dashboard.max_clients", DefaultMaxClients)

	// Recording defaults.
	viperCfg.SetDefault("recording.enabled", DefaultRecordingEnabled)
	viperCfg.SetDefault("recording.directory", DefaultRecordingDirectory)

	// Logging defaults.
	viperCfg.SetDefault("logging.level", DefaultLogLevel)
	viperCfg.SetDefault("logging.format", DefaultLogFormat)

	// Telemetry defaults.
	viperCfg.SetDefault("telemetry.otlp_endpoint", "")
	viperCfg.SetDefault("telemetry.otlp_insecure", DefaultOTLPInsecure)
	viperCfg.SetDefault("telemetry.sample_ratio", DefaultSampleRatio)
	viperCfg.SetDefault("telemetry.environment", DefaultEnvironment)
}

// validateConfig validates the configuration.
func validateConfig(config *Config) error {
	if config.Server.Port <= 0 || config.Server.Port > maxPort {
		return fmt.Errorf("%w: %d", ErrInvalidPort, config.Server.Port)
	}

	backend, err := url.Parse(config.Backend.URL)
	if err != nil || (backend.Scheme != "http" && backend.Scheme != "https") || backend.Host == "" {
		return fmt.Errorf("%w: %q", ErrInvalidBackendURL, config.Backend.URL)
	}

	if config.Backend.PollInterval <= 0 {
		return fmt.Errorf("%w: %s", ErrInvalidPollInterval, config.Backend.PollInterval)
	}

	err = validateDashboard(&config.Dashboard)
	if err != nil {
		return err
	}

	if config.Recording.Enabled && config.Recording.Directory == "" {
		return ErrMissingDirectory
	}

	switch config.Logging.Format {
	case LogFormatText, LogFormatJSON:
	default:
		return fmt.Errorf("%w: %q", ErrInvalidLogFormat, config.Logging.Format)
	}

	if config.Telemetry.SampleRatio < 0 || config.Telemetry.SampleRatio > 1 {
		return fmt.Errorf("%w: %g", ErrInvalidSampleRatio, config.Telemetry.SampleRatio)
	}

	return nil
}

func validateDashboard(d *DashboardConfig) error {
	if d.Width <= 0 {
		return fmt.Errorf("%w: %g", ErrInvalidWidth, d.Width)
	}

	if d.NodeSpacing <= 0 {
		return fmt.Errorf("%w: %g", ErrInvalidNodeSpacing, d.NodeSpacing)
	}

	if d.MaxLeaves <= 0 {
		return fmt.Errorf("%w: %d", ErrInvalidMaxLeaves, d.MaxLeaves)
	}

	if d.MaxClients <= 0 {
		return fmt.Errorf("%w: %d", ErrInvalidMaxClients, d.MaxClients)
	}

	switch d.Theme {
	case "dark", "light":
	default:
		return fmt.Errorf("%w: %q", ErrInvalidTheme, d.Theme)
	}

	return nil
}

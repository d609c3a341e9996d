package config

import "time"

// Server defaults.
const (
	DefaultHost            = "127.0.0.1"
	DefaultPort            = 8080
	DefaultReadTimeout     = 15 * time.Second
	DefaultWriteTimeout    = 15 * time.Second
	DefaultShutdownTimeout = 5 * time.Second
)

// Backend defaults.
const (
	DefaultBackendURL     = "http://localhost:8080"
	DefaultPollInterval   = 200 * time.Millisecond
	DefaultRequestTimeout = 10 * time.Second
	DefaultFinishGrace    = 500 * time.Millisecond
)

// Dashboard defaults.
const (
	DefaultWidth             = 900
	DefaultNodeSpacing       = 15
	DefaultEqualDistance     = false
	DefaultUseTimestamps     = false
	DefaultShowLabelsOnHover = false
	DefaultMaxLeaves         = 300
	DefaultTheme             = "dark"
	DefaultMaxClients        = 16
)

// Recording defaults.
const (
	DefaultRecordingEnabled   = false
	DefaultRecordingDirectory = "recordings"
)

// Logging defaults.
const (
	DefaultLogLevel  = "info"
	DefaultLogFormat = "text"
)

// Telemetry defaults.
const (
	DefaultOTLPInsecure = false
	DefaultSampleRatio  = 1.0
	DefaultEnvironment  = "development"
)

// Log formats.
const (
	LogFormatText = "text"
	LogFormatJSON = "json"
)

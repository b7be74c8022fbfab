package config

import (
	"errors"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds the settings shared by the alarm binaries.
type Config struct {
	// ServerAddress is the gRPC address of the alarm daemon.
	ServerAddress string `yaml:"server_addr"`
	// StateFile is the path to the JSON file storing alarm definitions.
	StateFile string `yaml:"state_file"`
	// Timeout is the duration for RPC calls.
	Timeout time.Duration `yaml:"timeout"`
	// LogLevel is the minimum log level; unknown values fall back to info.
	LogLevel string `yaml:"log_level"`
	// Actuator selects the playback actuator implementation.
	Actuator string `yaml:"actuator"`
	// Engine tunes the trigger pipeline.
	Engine Engine `yaml:"engine"`
	// Wake tunes device pre-wake and health monitoring.
	Wake Wake `yaml:"wake"`
	// Notifications selects how outcomes are shown.
	Notifications Notifications `yaml:"notifications"`
	// Mock configures the built-in mock actuator.
	Mock Mock `yaml:"mock"`
}

// Engine tunes the scheduler and the trigger pipeline.
type Engine struct {
	// PollInterval is the tick of the scheduler poll loop.
	PollInterval time.Duration `yaml:"poll_interval"`
	// TriggerAttempts bounds playback attempts per firing.
	TriggerAttempts int `yaml:"trigger_attempts"`
	// RetryBaseDelay is the first backoff delay; it doubles per attempt.
	RetryBaseDelay time.Duration `yaml:"retry_base_delay"`
	// FadeStepInterval is the time between two fade-in volume steps.
	FadeStepInterval time.Duration `yaml:"fade_step_interval"`
	// FadeInSupported is the fade-in capability flag; nil means supported.
	FadeInSupported *bool `yaml:"fade_in_supported"`
	// JoinTimeout bounds how long shutdown waits for the poll loop.
	JoinTimeout time.Duration `yaml:"join_timeout"`
}

// FadeIn reports the resolved fade-in capability.
func (e Engine) FadeIn() bool {
	return e.FadeInSupported == nil || *e.FadeInSupported
}

// Wake tunes the device wake manager.
type Wake struct {
	// PreWake is how long before an alarm the device is woken.
	PreWake time.Duration `yaml:"pre_wake"`
	// HealthCheckInterval is the tick of the health monitor.
	HealthCheckInterval time.Duration `yaml:"health_check_interval"`
	// MaxRetryAttempts bounds playback restarts per monitored alarm.
	MaxRetryAttempts int `yaml:"max_retry_attempts"`
	// MonitoringWindow is how long a fired alarm stays monitored.
	MonitoringWindow time.Duration `yaml:"monitoring_window"`
	// RetryPause separates the device wake from the playback restart.
	RetryPause time.Duration `yaml:"retry_pause"`
	// JoinTimeout bounds how long shutdown waits for the monitor loop.
	JoinTimeout time.Duration `yaml:"join_timeout"`
}

// Notifications selects the notification channels. Logging is always on.
type Notifications struct {
	// Desktop enables OS desktop notifications.
	Desktop bool `yaml:"desktop"`
}

// Mock configures the built-in mock actuator.
type Mock struct {
	// Entitled controls whether playback is allowed; nil means entitled.
	Entitled *bool `yaml:"entitled"`
}

// IsEntitled reports the resolved entitlement.
func (m Mock) IsEntitled() bool {
	return m.Entitled == nil || *m.Entitled
}

const (
	// DefaultConfigFilename is the default filename for settings.
	DefaultConfigFilename = "alarmify-settings.yaml"

	// DefaultStateFilename is the default filename for alarm definitions.
	DefaultStateFilename = "alarmify-state.json"

	// DefaultServerAddress is the default gRPC address of the daemon.
	DefaultServerAddress = "127.0.0.1:50070"

	// DefaultTimeout is the default duration for RPC calls.
	DefaultTimeout = 5 * time.Second

	// ActuatorMock selects the built-in mock actuator.
	ActuatorMock = "mock"

	// DefaultFilePermissions is the default file permission for config files.
	DefaultFilePermissions = 0o600
)

// Engine defaults.
const (
	DefaultPollInterval     = time.Second
	DefaultTriggerAttempts  = 3
	DefaultRetryBaseDelay   = 2 * time.Second
	DefaultFadeStepInterval = 5 * time.Second
	DefaultEngineJoin       = 2 * time.Second
)

// Wake defaults.
const (
	DefaultPreWake             = 60 * time.Second
	DefaultHealthCheckInterval = 120 * time.Second
	DefaultMaxRetryAttempts    = 3
	DefaultMonitoringWindow    = 30 * time.Minute
	DefaultRetryPause          = 2 * time.Second
	DefaultWakeJoin            = 3 * time.Second
)

var (
	// errConfigIsNotSet is returned when a nil configuration is provided.
	errConfigIsNotSet = errors.New("configuration is not set")
	// errServerSocketRequired is returned when server address is missing.
	errServerSocketRequired = errors.New("server address must be provided")
	// errUnknownActuator is returned for an unsupported actuator name.
	errUnknownActuator = errors.New("unknown actuator")
	// errNegativeRetries is returned when max retry attempts is negative.
	errNegativeRetries = errors.New("max retry attempts must not be negative")
)

// Default returns a validated configuration with every default applied.
func Default() *Config {
	cfg := &Config{ServerAddress: DefaultServerAddress}

	// The defaults are valid by construction.
	_ = Validate(cfg)

	return cfg
}

// Load reads configuration from the provided path and validates essential fields.
func Load(path string) (*Config, error) {
	if path == "" {
		path = DefaultConfigFilename
	}

	contents, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return nil, fmt.Errorf("read settings: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(contents, &cfg); err != nil {
		return nil, fmt.Errorf("unmarshal settings: %w", err)
	}

	if err := Validate(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Save writes settings to the provided path.
func Save(path string, cfg *Config) error {
	if cfg == nil {
		return errConfigIsNotSet
	}

	if path == "" {
		path = DefaultConfigFilename
	}

	if err := Validate(cfg); err != nil {
		return err
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshal settings: %w", err)
	}

	// Restrict permissions.
	if err := os.WriteFile(filepath.Clean(path), data, DefaultFilePermissions); err != nil {
		return fmt.Errorf("write settings: %w", err)
	}

	return nil
}

// Validate checks the provided settings for required fields and formatting
// and fills in defaults for everything left unset.
func Validate(settings *Config) error {
	if settings == nil {
		return errConfigIsNotSet
	}

	if settings.ServerAddress == "" {
		return errServerSocketRequired
	}

	if _, err := net.ResolveTCPAddr("tcp", settings.ServerAddress); err != nil {
		return fmt.Errorf("invalid server socket: %w", err)
	}

	if settings.Timeout <= 0 {
		settings.Timeout = DefaultTimeout
	}

	if settings.StateFile == "" {
		settings.StateFile = DefaultStateFilename
	}

	switch settings.Actuator {
	case "":
		settings.Actuator = ActuatorMock
	case ActuatorMock:
	default:
		return fmt.Errorf("%q: %w", settings.Actuator, errUnknownActuator)
	}

	if settings.Wake.MaxRetryAttempts < 0 {
		return errNegativeRetries
	}

	applyEngineDefaults(&settings.Engine)
	applyWakeDefaults(&settings.Wake)

	return nil
}

func applyEngineDefaults(e *Engine) {
	if e.PollInterval <= 0 {
		e.PollInterval = DefaultPollInterval
	}

	if e.TriggerAttempts <= 0 {
		e.TriggerAttempts = DefaultTriggerAttempts
	}

	if e.RetryBaseDelay <= 0 {
		e.RetryBaseDelay = DefaultRetryBaseDelay
	}

	if e.FadeStepInterval <= 0 {
		e.FadeStepInterval = DefaultFadeStepInterval
	}

	if e.JoinTimeout <= 0 {
		e.JoinTimeout = DefaultEngineJoin
	}
}

func applyWakeDefaults(w *Wake) {
	if w.PreWake <= 0 {
		w.PreWake = DefaultPreWake
	}

	if w.HealthCheckInterval <= 0 {
		w.HealthCheckInterval = DefaultHealthCheckInterval
	}

	if w.MaxRetryAttempts == 0 {
		w.MaxRetryAttempts = DefaultMaxRetryAttempts
	}

	if w.MonitoringWindow <= 0 {
		w.MonitoringWindow = DefaultMonitoringWindow
	}

	if w.RetryPause <= 0 {
		w.RetryPause = DefaultRetryPause
	}

	if w.JoinTimeout <= 0 {
		w.JoinTimeout = DefaultWakeJoin
	}
}

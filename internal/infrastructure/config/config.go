package config

import (
	"fmt"
	"net/url"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Default marker strings for node classification overrides.
//
// Nodes whose folder path or name contains the ignore string are never
// imported; nodes containing the sensor string are forced into the
// sensor/binary_sensor categories regardless of their reported metadata.
const (
	DefaultIgnoreString = "{IGNORE ME}"
	DefaultSensorString = "sensor"
)

// Default on/off values for binary_sensor and switch variable mappings.
const (
	DefaultVariableOnValue  = 1
	DefaultVariableOffValue = 0
)

// Config is the root configuration structure for isy-bridge.
// All configuration is loaded from YAML and can be overridden by environment variables.
type Config struct {
	ISY      ISYConfig      `yaml:"isy"`
	Database DatabaseConfig `yaml:"database"`
	MQTT     MQTTConfig     `yaml:"mqtt"`
	API      APIConfig      `yaml:"api"`
	InfluxDB InfluxDBConfig `yaml:"influxdb"`
	Logging  LoggingConfig  `yaml:"logging"`
	Security SecurityConfig `yaml:"security"`
}

// ISYConfig contains connection and classification settings for the
// ISY-994 controller.
type ISYConfig struct {
	// URL is the controller base URL. Scheme must be http or https;
	// the default port (80/443) is derived from the scheme when omitted.
	URL      string `yaml:"url"`
	Username string `yaml:"username"`
	Password string `yaml:"password"`

	// TLSVersion optionally pins the TLS version for https connections.
	// Accepted values: 1.0, 1.1, 1.2. Older ISY firmware only speaks
	// TLS 1.0/1.1, so negotiation cannot be left to the defaults there.
	// Zero means use the Go default.
	TLSVersion float64 `yaml:"tls"`

	// IgnoreString marks nodes to exclude from classification entirely.
	IgnoreString string `yaml:"ignore_string"`

	// SensorString forces matching nodes through binary-sensor detection
	// instead of the full category cascade.
	SensorString string `yaml:"sensor_string"`

	// EnableClimate turns on weather classification when the controller
	// also reports the Weather Information module as installed.
	EnableClimate bool `yaml:"enable_climate"`

	// RequestTimeout is the per-request timeout in seconds for REST
	// calls to the controller.
	RequestTimeout int `yaml:"request_timeout"`

	Variables VariablesConfig `yaml:"variables"`
}

// VariablesConfig maps controller variables into entity categories.
// Each list keys descriptors to one target category.
type VariablesConfig struct {
	Sensors       []VariableConfig `yaml:"sensors"`
	BinarySensors []VariableConfig `yaml:"binary_sensors"`
	Switches      []VariableConfig `yaml:"switches"`
}

// VariableConfig describes one controller variable to import.
//
// ID and Type identify the variable on the controller (type 1 = integer,
// type 2 = state). The remaining fields are optional display metadata;
// DeviceClass and UnitOfMeasurement only apply to sensor mappings, and
// the on/off values only to binary_sensor and switch mappings.
type VariableConfig struct {
	ID                int    `yaml:"id"`
	Type              int    `yaml:"type"`
	Name              string `yaml:"name,omitempty"`
	Icon              string `yaml:"icon,omitempty"`
	DeviceClass       string `yaml:"device_class,omitempty"`
	UnitOfMeasurement string `yaml:"unit_of_measurement,omitempty"`
	OnValue           *int   `yaml:"on_value,omitempty"`
	OffValue          *int   `yaml:"off_value,omitempty"`
}

// On returns the variable value treated as "on" (default 1).
func (v VariableConfig) On() int {
	if v.OnValue != nil {
		return *v.OnValue
	}
	return DefaultVariableOnValue
}

// Off returns the variable value treated as "off" (default 0).
func (v VariableConfig) Off() int {
	if v.OffValue != nil {
		return *v.OffValue
	}
	return DefaultVariableOffValue
}

// DatabaseConfig contains SQLite database settings.
type DatabaseConfig struct {
	Path        string `yaml:"path"`
	WALMode     bool   `yaml:"wal_mode"`
	BusyTimeout int    `yaml:"busy_timeout"`

	// HistoryRetentionDays bounds the entity state history; older rows
	// are pruned periodically. Zero disables pruning.
	HistoryRetentionDays int `yaml:"history_retention_days"`
}

// MQTTConfig contains MQTT broker connection settings.
type MQTTConfig struct {
	Broker      MQTTBrokerConfig    `yaml:"broker"`
	Auth        MQTTAuthConfig      `yaml:"auth"`
	QoS         int                 `yaml:"qos"`
	TopicPrefix string              `yaml:"topic_prefix"`
	Reconnect   MQTTReconnectConfig `yaml:"reconnect"`
}

// MQTTBrokerConfig contains MQTT broker connection details.
type MQTTBrokerConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	TLS      bool   `yaml:"tls"`
	ClientID string `yaml:"client_id"`
}

// MQTTAuthConfig contains MQTT authentication credentials.
type MQTTAuthConfig struct {
	Username string `yaml:"username"`
	Password string `yaml:"password"`
}

// MQTTReconnectConfig contains MQTT reconnection settings.
type MQTTReconnectConfig struct {
	InitialDelay int `yaml:"initial_delay"`
	MaxDelay     int `yaml:"max_delay"`
	MaxAttempts  int `yaml:"max_attempts"`
}

// APIConfig contains HTTP API server settings.
type APIConfig struct {
	Enabled  bool             `yaml:"enabled"`
	Host     string           `yaml:"host"`
	Port     int              `yaml:"port"`
	Auth     APIAuthConfig    `yaml:"auth"`
	Timeouts APITimeoutConfig `yaml:"timeouts"`
	CORS     CORSConfig       `yaml:"cors"`
}

// APIAuthConfig contains the single API account used for token issue.
// PasswordHash is an Argon2id hash in PHC string format.
type APIAuthConfig struct {
	Username     string `yaml:"username"`
	PasswordHash string `yaml:"password_hash"`
}

// APITimeoutConfig contains HTTP timeout settings.
type APITimeoutConfig struct {
	Read  int `yaml:"read"`
	Write int `yaml:"write"`
	Idle  int `yaml:"idle"`
}

// CORSConfig contains Cross-Origin Resource Sharing settings.
type CORSConfig struct {
	AllowedOrigins []string `yaml:"allowed_origins"`
	AllowedMethods []string `yaml:"allowed_methods"`
	AllowedHeaders []string `yaml:"allowed_headers"`
}

// InfluxDBConfig contains InfluxDB connection settings.
type InfluxDBConfig struct {
	Enabled       bool   `yaml:"enabled"`
	URL           string `yaml:"url"`
	Token         string `yaml:"token"`
	Org           string `yaml:"org"`
	Bucket        string `yaml:"bucket"`
	BatchSize     int    `yaml:"batch_size"`
	FlushInterval int    `yaml:"flush_interval"`
}

// LoggingConfig contains logging settings.
type LoggingConfig struct {
	Level  string            `yaml:"level"`
	Format string            `yaml:"format"`
	Output string            `yaml:"output"`
	File   FileLoggingConfig `yaml:"file"`
}

// FileLoggingConfig contains rotating file log settings.
// Logging to a file is enabled by setting Path; rotation limits follow
// lumberjack semantics (sizes in megabytes, ages in days).
type FileLoggingConfig struct {
	Path       string `yaml:"path"`
	MaxSize    int    `yaml:"max_size"`
	MaxBackups int    `yaml:"max_backups"`
	MaxAge     int    `yaml:"max_age"`
	Compress   bool   `yaml:"compress"`
}

// SecurityConfig contains security settings.
type SecurityConfig struct {
	JWT JWTConfig `yaml:"jwt"`
}

// JWTConfig contains JWT token settings for the API.
type JWTConfig struct {
	Secret         string `yaml:"secret"`
	AccessTokenTTL int    `yaml:"access_token_ttl"`
}

// Load reads configuration from a YAML file and applies environment variable overrides.
//
// The configuration loading order is:
//  1. Default values (hardcoded)
//  2. YAML file values (override defaults)
//  3. Environment variables (override file values)
//
// Environment variables follow the pattern: ISYBRIDGE_SECTION_KEY
// For example: ISYBRIDGE_ISY_PASSWORD, ISYBRIDGE_DATABASE_PATH
//
// Parameters:
//   - path: Path to the YAML configuration file
//
// Returns:
//   - *Config: Loaded and validated configuration
//   - error: If file cannot be read, parsed, or validation fails
func Load(path string) (*Config, error) {
	// Start with defaults
	cfg := defaultConfig()

	// Read and parse YAML file
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	// Apply environment variable overrides
	applyEnvOverrides(cfg)

	// Validate configuration
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return cfg, nil
}

// defaultConfig returns a Config with sensible defaults.
func defaultConfig() *Config {
	return &Config{
		ISY: ISYConfig{
			IgnoreString:   DefaultIgnoreString,
			SensorString:   DefaultSensorString,
			EnableClimate:  true,
			RequestTimeout: 10,
		},
		Database: DatabaseConfig{
			Path:                 "./data/isybridge.db",
			WALMode:              true,
			BusyTimeout:          5,
			HistoryRetentionDays: 30,
		},
		MQTT: MQTTConfig{
			Broker: MQTTBrokerConfig{
				Host:     "localhost",
				Port:     1883,
				ClientID: "isy-bridge",
			},
			QoS:         1,
			TopicPrefix: "isy",
			Reconnect: MQTTReconnectConfig{
				InitialDelay: 1,
				MaxDelay:     60,
				MaxAttempts:  0,
			},
		},
		API: APIConfig{
			Enabled: true,
			Host:    "0.0.0.0",
			Port:    8080,
			Timeouts: APITimeoutConfig{
				Read:  30,
				Write: 30,
				Idle:  60,
			},
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
			Output: "stdout",
		},
		Security: SecurityConfig{
			JWT: JWTConfig{
				AccessTokenTTL: 15,
			},
		},
	}
}

// applyEnvOverrides applies environment variable overrides to the configuration.
// Environment variables follow the pattern: ISYBRIDGE_SECTION_KEY
func applyEnvOverrides(cfg *Config) {
	// ISY controller
	if v := os.Getenv("ISYBRIDGE_ISY_URL"); v != "" {
		cfg.ISY.URL = v
	}
	if v := os.Getenv("ISYBRIDGE_ISY_USERNAME"); v != "" {
		cfg.ISY.Username = v
	}
	if v := os.Getenv("ISYBRIDGE_ISY_PASSWORD"); v != "" {
		cfg.ISY.Password = v
	}

	// Database
	if v := os.Getenv("ISYBRIDGE_DATABASE_PATH"); v != "" {
		cfg.Database.Path = v
	}

	// MQTT
	if v := os.Getenv("ISYBRIDGE_MQTT_HOST"); v != "" {
		cfg.MQTT.Broker.Host = v
	}
	if v := os.Getenv("ISYBRIDGE_MQTT_USERNAME"); v != "" {
		cfg.MQTT.Auth.Username = v
	}
	if v := os.Getenv("ISYBRIDGE_MQTT_PASSWORD"); v != "" {
		cfg.MQTT.Auth.Password = v
	}

	// API
	if v := os.Getenv("ISYBRIDGE_API_HOST"); v != "" {
		cfg.API.Host = v
	}
	if v := os.Getenv("ISYBRIDGE_API_PASSWORD_HASH"); v != "" {
		cfg.API.Auth.PasswordHash = v
	}

	// InfluxDB
	if v := os.Getenv("ISYBRIDGE_INFLUXDB_TOKEN"); v != "" {
		cfg.InfluxDB.Token = v
	}

	// Security - JWT secret (IMPORTANT: always override in production)
	if v := os.Getenv("ISYBRIDGE_JWT_SECRET"); v != "" {
		cfg.Security.JWT.Secret = v
	}
}

// Validate checks the configuration for errors and security issues.
//
// Classification never validates configuration at runtime; everything the
// classifiers rely on (URL scheme, variable descriptors, marker strings)
// is checked here so that a malformed config fails before any controller
// I/O happens.
//
// Returns:
//   - error: Description of validation failure, or nil if valid
func (c *Config) Validate() error {
	var errs []string

	// ISY controller validation
	if c.ISY.URL == "" {
		errs = append(errs, "isy.url is required")
	} else if u, err := url.Parse(c.ISY.URL); err != nil {
		errs = append(errs, fmt.Sprintf("isy.url is not a valid URL: %v", err))
	} else if u.Scheme != "http" && u.Scheme != "https" {
		errs = append(errs, "isy.url scheme must be http or https")
	}
	if c.ISY.Username == "" {
		errs = append(errs, "isy.username is required")
	}
	if c.ISY.Password == "" {
		errs = append(errs, "isy.password is required (set ISYBRIDGE_ISY_PASSWORD environment variable)")
	}
	switch c.ISY.TLSVersion {
	case 0, 1.0, 1.1, 1.2:
	default:
		errs = append(errs, "isy.tls must be one of 1.0, 1.1, 1.2")
	}
	if c.ISY.RequestTimeout < 1 {
		errs = append(errs, "isy.request_timeout must be at least 1 second")
	}

	errs = append(errs, validateVariables("isy.variables.sensors", c.ISY.Variables.Sensors)...)
	errs = append(errs, validateVariables("isy.variables.binary_sensors", c.ISY.Variables.BinarySensors)...)
	errs = append(errs, validateVariables("isy.variables.switches", c.ISY.Variables.Switches)...)

	// Database validation
	if c.Database.Path == "" {
		errs = append(errs, "database.path is required")
	}

	// MQTT validation
	if c.MQTT.QoS < 0 || c.MQTT.QoS > 2 {
		errs = append(errs, "mqtt.qos must be 0, 1, or 2")
	}
	if c.MQTT.TopicPrefix == "" {
		errs = append(errs, "mqtt.topic_prefix is required")
	}

	// API validation (only when the API is enabled)
	if c.API.Enabled {
		if c.API.Port < 1 || c.API.Port > 65535 {
			errs = append(errs, "api.port must be between 1 and 65535")
		}
		if c.API.Auth.Username == "" {
			errs = append(errs, "api.auth.username is required when the API is enabled")
		}
		if c.API.Auth.PasswordHash == "" {
			errs = append(errs, "api.auth.password_hash is required when the API is enabled")
		}

		// JWT secret is REQUIRED for the API. The bridge exposes control
		// of physical devices; a forged token means forged commands.
		const minJWTSecretLength = 32
		if c.Security.JWT.Secret == "" {
			errs = append(errs, "security.jwt.secret is required (set ISYBRIDGE_JWT_SECRET environment variable)")
		} else if len(c.Security.JWT.Secret) < minJWTSecretLength {
			errs = append(errs, "security.jwt.secret must be at least 32 characters for adequate security")
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration errors: %s", strings.Join(errs, "; "))
	}

	return nil
}

// validateVariables checks one category's variable descriptor list.
func validateVariables(section string, vars []VariableConfig) []string {
	var errs []string
	for i, v := range vars {
		if v.ID < 1 {
			errs = append(errs, fmt.Sprintf("%s[%d].id must be a positive integer", section, i))
		}
		if v.Type != 1 && v.Type != 2 {
			errs = append(errs, fmt.Sprintf("%s[%d].type must be 1 (integer) or 2 (state)", section, i))
		}
	}
	return errs
}

// GetReadTimeout returns the API read timeout as a Duration.
func (c *Config) GetReadTimeout() time.Duration {
	return time.Duration(c.API.Timeouts.Read) * time.Second
}

// GetWriteTimeout returns the API write timeout as a Duration.
func (c *Config) GetWriteTimeout() time.Duration {
	return time.Duration(c.API.Timeouts.Write) * time.Second
}

// GetIdleTimeout returns the API idle timeout as a Duration.
func (c *Config) GetIdleTimeout() time.Duration {
	return time.Duration(c.API.Timeouts.Idle) * time.Second
}

// GetISYRequestTimeout returns the controller request timeout as a Duration.
func (c *Config) GetISYRequestTimeout() time.Duration {
	return time.Duration(c.ISY.RequestTimeout) * time.Second
}

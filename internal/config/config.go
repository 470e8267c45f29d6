// internal/config/config.go
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config represents the agent configuration
type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	API       APIConfig       `mapstructure:"api"`
	Device    DeviceConfig    `mapstructure:"device"`
	Polling   PollingConfig   `mapstructure:"polling"`
	Printer   PrinterConfig   `mapstructure:"printer"`
	Store     StoreConfig     `mapstructure:"store"`
	Discovery DiscoveryConfig `mapstructure:"discovery"`
	Update    UpdateConfig    `mapstructure:"update"`
	Logging   LoggingConfig   `mapstructure:"logging"`
	CORS      CORSConfig      `mapstructure:"cors"`
	WebSocket WebSocketConfig `mapstructure:"websocket"`
	App       AppConfig       `mapstructure:"app"`
}

// ServerConfig represents the local control API server
type ServerConfig struct {
	Host         string        `mapstructure:"host"`
	Port         string        `mapstructure:"port"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
	IdleTimeout  time.Duration `mapstructure:"idle_timeout"`
}

// APIConfig represents the ordering backend connection
type APIConfig struct {
	BaseURL string        `mapstructure:"base_url"`
	Token   string        `mapstructure:"token"`
	Timeout time.Duration `mapstructure:"timeout"`
}

// DeviceConfig represents this agent's identity at the backend
type DeviceConfig struct {
	Name       string `mapstructure:"name"`
	TokenID    string `mapstructure:"token_id"`
	BranchGUID string `mapstructure:"branch_guid"`
}

// PollingConfig represents the job poll loop
type PollingConfig struct {
	Interval     time.Duration `mapstructure:"interval"`
	BatchSize    int           `mapstructure:"batch_size"`
	SyncInterval time.Duration `mapstructure:"sync_interval"`
}

// PrinterConfig represents receipt rendering defaults
type PrinterConfig struct {
	DefaultWidth int    `mapstructure:"default_width"`
	Charset      string `mapstructure:"charset"`
	DevicePath   string `mapstructure:"device_path"`
}

// StoreConfig represents the local job ledger
type StoreConfig struct {
	Path          string `mapstructure:"path"`
	RetentionDays int    `mapstructure:"retention_days"`
}

// DiscoveryConfig represents printer discovery and hotplug
type DiscoveryConfig struct {
	Enabled      bool          `mapstructure:"enabled"`
	ScanInterval time.Duration `mapstructure:"scan_interval"`
	ScanTimeout  time.Duration `mapstructure:"scan_timeout"`
	TCPSubnet    string        `mapstructure:"tcp_subnet"`
}

// UpdateConfig represents git-based self-update
type UpdateConfig struct {
	Enabled     bool   `mapstructure:"enabled"`
	Branch      string `mapstructure:"branch"`
	RepoDir     string `mapstructure:"repo_dir"`
	ServiceName string `mapstructure:"service_name"`
}

// LoggingConfig represents logging configuration
type LoggingConfig struct {
	Level      string `mapstructure:"level"`
	Format     string `mapstructure:"format"`
	Output     string `mapstructure:"output"`
	MaxSize    int    `mapstructure:"max_size"`
	MaxBackups int    `mapstructure:"max_backups"`
	MaxAge     int    `mapstructure:"max_age"`
	Compress   bool   `mapstructure:"compress"`
}

// CORSConfig represents CORS policy for the control API
type CORSConfig struct {
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

// WebSocketConfig represents the event stream endpoint
type WebSocketConfig struct {
	SendBufferSize int           `mapstructure:"send_buffer_size"`
	PingInterval   time.Duration `mapstructure:"ping_interval"`
	PongTimeout    time.Duration `mapstructure:"pong_timeout"`
	WriteTimeout   time.Duration `mapstructure:"write_timeout"`
}

// AppConfig represents application metadata
type AppConfig struct {
	Name        string `mapstructure:"name"`
	Version     string `mapstructure:"version"`
	Environment string `mapstructure:"environment"`
	Debug       bool   `mapstructure:"debug"`
}

// Load loads configuration from file and environment variables
func Load() (*Config, error) {
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	viper.AddConfigPath("./config")
	viper.AddConfigPath("/etc/printer-agent")

	// Environment variable support
	viper.SetEnvPrefix("PRINTER_AGENT")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	setDefaults()

	// A missing config file is fine on first run; defaults and env
	// carry the agent until pairing writes one.
	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}

	if err := validate(&config); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &config, nil
}

// setDefaults sets default configuration values
func setDefaults() {
	// Server defaults
	viper.SetDefault("server.host", "0.0.0.0")
	viper.SetDefault("server.port", "8091")
	viper.SetDefault("server.read_timeout", "30s")
	viper.SetDefault("server.write_timeout", "30s")
	viper.SetDefault("server.idle_timeout", "120s")

	// Backend API defaults
	viper.SetDefault("api.base_url", "https://api.feedemy.com")
	viper.SetDefault("api.timeout", "30s")

	// Device identity defaults
	viper.SetDefault("device.name", "Raspberry Pi Printer")

	// Polling defaults
	viper.SetDefault("polling.interval", "5s")
	viper.SetDefault("polling.batch_size", 10)
	viper.SetDefault("polling.sync_interval", "60s")

	// Printer defaults
	viper.SetDefault("printer.default_width", 48)
	viper.SetDefault("printer.charset", "cp857")
	viper.SetDefault("printer.device_path", "/dev/usb/lp0")

	// Store defaults
	viper.SetDefault("store.path", "./data/jobs.db")
	viper.SetDefault("store.retention_days", 7)

	// Discovery defaults
	viper.SetDefault("discovery.enabled", true)
	viper.SetDefault("discovery.scan_interval", "30s")
	viper.SetDefault("discovery.scan_timeout", "10s")
	viper.SetDefault("discovery.tcp_subnet", "")

	// Update defaults
	viper.SetDefault("update.enabled", true)
	viper.SetDefault("update.branch", "main")
	viper.SetDefault("update.repo_dir", ".")
	viper.SetDefault("update.service_name", "printer-agent")

	// Logging defaults
	viper.SetDefault("logging.level", "info")
	viper.SetDefault("logging.format", "json")
	viper.SetDefault("logging.output", "stdout")
	viper.SetDefault("logging.max_size", 100)
	viper.SetDefault("logging.max_backups", 3)
	viper.SetDefault("logging.max_age", 28)
	viper.SetDefault("logging.compress", true)

	// CORS defaults
	viper.SetDefault("cors.allowed_origins", []string{"*"})

	// WebSocket defaults
	viper.SetDefault("websocket.send_buffer_size", 256)
	viper.SetDefault("websocket.ping_interval", "54s")
	viper.SetDefault("websocket.pong_timeout", "60s")
	viper.SetDefault("websocket.write_timeout", "10s")

	// App defaults
	viper.SetDefault("app.name", "printer-agent")
	viper.SetDefault("app.version", "1.0.0")
	viper.SetDefault("app.environment", "production")
	viper.SetDefault("app.debug", false)
}

// validate validates the configuration
func validate(config *Config) error {
	if config.Server.Port == "" {
		return fmt.Errorf("server.port is required")
	}
	if config.API.BaseURL == "" {
		return fmt.Errorf("api.base_url is required")
	}
	if config.Printer.DefaultWidth <= 0 {
		return fmt.Errorf("printer.default_width must be positive")
	}
	if config.Polling.Interval <= 0 {
		return fmt.Errorf("polling.interval must be positive")
	}

	validEnvs := []string{"development", "staging", "production", "test"}
	isValidEnv := false
	for _, env := range validEnvs {
		if config.App.Environment == env {
			isValidEnv = true
			break
		}
	}
	if !isValidEnv {
		return fmt.Errorf("app.environment must be one of: %v", validEnvs)
	}

	validLevels := []string{"debug", "info", "warn", "error", "fatal"}
	isValidLevel := false
	for _, level := range validLevels {
		if config.Logging.Level == level {
			isValidLevel = true
			break
		}
	}
	if !isValidLevel {
		return fmt.Errorf("logging.level must be one of: %v", validLevels)
	}

	return nil
}

// SavePairing persists the credentials returned by device
// registration so the agent stays paired across restarts.
func (c *Config) SavePairing(token, tokenID, branchGUID string) error {
	c.API.Token = token
	c.Device.TokenID = tokenID
	c.Device.BranchGUID = branchGUID

	viper.Set("api.token", token)
	viper.Set("device.token_id", tokenID)
	viper.Set("device.branch_guid", branchGUID)

	path := viper.ConfigFileUsed()
	if path == "" {
		path = "config.yaml"
	}
	if err := viper.WriteConfigAs(path); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	return nil
}

// IsPaired checks if the agent has registered with the backend
func (c *Config) IsPaired() bool {
	return c.API.Token != ""
}

// GetServerAddr returns the control API listen address
func (c *Config) GetServerAddr() string {
	return fmt.Sprintf("%s:%s", c.Server.Host, c.Server.Port)
}

// IsProduction checks if the environment is production
func (c *Config) IsProduction() bool {
	return c.App.Environment == "production"
}

// IsDebugEnabled checks if debug mode is enabled
func (c *Config) IsDebugEnabled() bool {
	return c.App.Debug || c.App.Environment == "development"
}

package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/viper"
)

// Config represents the application configuration
type Config struct {
	Master   MasterConfig   `mapstructure:"master"`
	Repeater RepeaterConfig `mapstructure:"repeater"`
	Logging  LoggingConfig  `mapstructure:"logging"`
	Web      WebConfig      `mapstructure:"web"`
	Metrics  MetricsConfig  `mapstructure:"metrics"`
	Database DatabaseConfig `mapstructure:"database"`
}

// MasterConfig holds the upstream master connection
type MasterConfig struct {
	Addr        string `mapstructure:"addr"`
	Port        int    `mapstructure:"port"`
	LocalAddr   string `mapstructure:"local_addr"`
	LocalPort   int    `mapstructure:"local_port"`
	Secret      string `mapstructure:"secret"`
	AuthTimeout int    `mapstructure:"auth_timeout"` // Seconds per handshake step
}

// RepeaterConfig holds the identity announced to the master
type RepeaterConfig struct {
	ID          uint32  `mapstructure:"id"`
	Callsign    string  `mapstructure:"callsign"`
	RXFreq      uint32  `mapstructure:"rx_freq"`
	TXFreq      uint32  `mapstructure:"tx_freq"`
	TXPower     uint8   `mapstructure:"tx_power"`
	ColorCode   uint8   `mapstructure:"color_code"`
	Latitude    float64 `mapstructure:"latitude"`
	Longitude   float64 `mapstructure:"longitude"`
	Height      uint16  `mapstructure:"height"`
	Location    string  `mapstructure:"location"`
	Description string  `mapstructure:"description"`
	URL         string  `mapstructure:"url"`
	SoftwareID  string  `mapstructure:"software_id"`
	PackageID   string  `mapstructure:"package_id"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level      string `mapstructure:"level"`
	Format     string `mapstructure:"format"`
	File       string `mapstructure:"file"`
	MaxSize    int    `mapstructure:"max_size"`
	MaxBackups int    `mapstructure:"max_backups"`
	MaxAge     int    `mapstructure:"max_age"`
}

// WebConfig holds the embedded status server configuration
type WebConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Host    string `mapstructure:"host"`
	Port    int    `mapstructure:"port"`
}

// MetricsConfig holds metrics configuration
type MetricsConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Port    int    `mapstructure:"port"`
	Path    string `mapstructure:"path"`
}

// DatabaseConfig holds the last-heard log configuration
type DatabaseConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Path    string `mapstructure:"path"`
}

// Load loads configuration from file and environment variables
func Load(configFile string) (*Config, error) {
	setDefaults()

	if configFile != "" {
		viper.SetConfigFile(configFile)
	} else {
		viper.SetConfigName("config")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")
		viper.AddConfigPath("./configs")
		viper.AddConfigPath("/etc/dmr-bridge")
	}

	viper.SetEnvPrefix("DMRBRIDGE")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			if _, statErr := os.Stat(configFile); configFile != "" && statErr != nil {
				return nil, fmt.Errorf("config file not found: %s", configFile)
			}
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func setDefaults() {
	viper.SetDefault("master.addr", "127.0.0.1")
	viper.SetDefault("master.port", 62030)
	viper.SetDefault("master.local_addr", "0.0.0.0")
	viper.SetDefault("master.local_port", 0)
	viper.SetDefault("master.auth_timeout", 5)

	viper.SetDefault("repeater.color_code", 1)
	viper.SetDefault("repeater.software_id", "dmr-bridge")
	viper.SetDefault("repeater.package_id", "dmr-bridge")

	viper.SetDefault("logging.level", "info")
	viper.SetDefault("logging.format", "console")
	viper.SetDefault("logging.max_size", 100)
	viper.SetDefault("logging.max_backups", 3)
	viper.SetDefault("logging.max_age", 28)

	viper.SetDefault("web.enabled", false)
	viper.SetDefault("web.host", "0.0.0.0")
	viper.SetDefault("web.port", 8042)

	viper.SetDefault("metrics.enabled", false)
	viper.SetDefault("metrics.port", 9090)
	viper.SetDefault("metrics.path", "/metrics")

	viper.SetDefault("database.enabled", false)
	viper.SetDefault("database.path", "data/dmr-bridge.db")
}

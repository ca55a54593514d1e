// Package config handles configuration management using Viper
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/spf13/viper"
)

// Config represents the application configuration
type Config struct {
	Bridge  BridgeConfig  `mapstructure:"bridge"`
	Server  ServerConfig  `mapstructure:"server"`
	Logging LoggingConfig `mapstructure:"logging"`

	// Outputs declares the global-space display layout the bridge
	// resolves coordinates against when it is not fed by a compositor.
	Outputs []OutputConfig `mapstructure:"outputs"`
}

// BridgeConfig contains the injection-core settings
type BridgeConfig struct {
	MaxConnections int    `mapstructure:"max_connections"`
	SeatName       string `mapstructure:"seat_name"`
	MaxKeycode     uint32 `mapstructure:"max_keycode"`
	MaxTouchID     uint32 `mapstructure:"max_touch_id"`
}

// ServerConfig contains transport settings
type ServerConfig struct {
	SocketPath string `mapstructure:"socket_path"` // unix socket; empty picks a runtime-dir default
	WSAddress  string `mapstructure:"ws_address"`  // websocket listen address; empty disables
}

// LoggingConfig contains logging settings
type LoggingConfig struct {
	LogLevel string `mapstructure:"log_level"` // Overrides LOG_LEVEL env var when set
}

// OutputConfig declares one display rectangle in global space
type OutputConfig struct {
	Name   string  `mapstructure:"name"`
	X      int32   `mapstructure:"x"`
	Y      int32   `mapstructure:"y"`
	Width  int32   `mapstructure:"width"`
	Height int32   `mapstructure:"height"`
	Scale  float64 `mapstructure:"scale"`
}

// DefaultConfig provides sensible defaults matching the reference system
var DefaultConfig = Config{
	Bridge: BridgeConfig{
		MaxConnections: 8,
		SeatName:       "seat0",
		MaxKeycode:     0x2FF,
		MaxTouchID:     256,
	},
	Server: ServerConfig{
		SocketPath: "",
		WSAddress:  "",
	},
	Logging: LoggingConfig{
		LogLevel: "",
	},
	Outputs: []OutputConfig{
		{Name: "OUTPUT-1", X: 0, Y: 0, Width: 1920, Height: 1080, Scale: 1.0},
	},
}

var (
	current *Config
	mu      sync.RWMutex
)

// Init loads the configuration from seatbridge.toml, falling back to the
// defaults when no file exists. Search order: $XDG_CONFIG_HOME/seatbridge,
// /etc/seatbridge, current directory.
func Init() error {
	viper.SetConfigName("seatbridge")
	viper.SetConfigType("toml")

	if dir, err := os.UserConfigDir(); err == nil {
		viper.AddConfigPath(filepath.Join(dir, "seatbridge"))
	}
	viper.AddConfigPath("/etc/seatbridge")
	viper.AddConfigPath(".")

	setDefaults()

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return fmt.Errorf("failed to read config: %w", err)
		}
	}

	cfg := &Config{}
	if err := viper.Unmarshal(cfg); err != nil {
		return fmt.Errorf("failed to unmarshal config: %w", err)
	}
	if len(cfg.Outputs) == 0 {
		cfg.Outputs = DefaultConfig.Outputs
	}

	mu.Lock()
	current = cfg
	mu.Unlock()
	return nil
}

// Get returns the loaded configuration, initializing defaults if Init was
// never called.
func Get() *Config {
	mu.RLock()
	if current != nil {
		defer mu.RUnlock()
		return current
	}
	mu.RUnlock()

	if err := Init(); err != nil {
		cfg := DefaultConfig
		mu.Lock()
		current = &cfg
		mu.Unlock()
	}
	mu.RLock()
	defer mu.RUnlock()
	return current
}

// SocketPath resolves the unix socket path, defaulting into the user's
// runtime directory.
func (c *Config) SocketPath() string {
	if c.Server.SocketPath != "" {
		return c.Server.SocketPath
	}
	if dir := os.Getenv("XDG_RUNTIME_DIR"); dir != "" {
		return filepath.Join(dir, "seatbridge", "bridge.sock")
	}
	return fmt.Sprintf("/tmp/seatbridge-%d/bridge.sock", os.Getuid())
}

func setDefaults() {
	viper.SetDefault("bridge.max_connections", DefaultConfig.Bridge.MaxConnections)
	viper.SetDefault("bridge.seat_name", DefaultConfig.Bridge.SeatName)
	viper.SetDefault("bridge.max_keycode", DefaultConfig.Bridge.MaxKeycode)
	viper.SetDefault("bridge.max_touch_id", DefaultConfig.Bridge.MaxTouchID)
	viper.SetDefault("server.socket_path", DefaultConfig.Server.SocketPath)
	viper.SetDefault("server.ws_address", DefaultConfig.Server.WSAddress)
	viper.SetDefault("logging.log_level", DefaultConfig.Logging.LogLevel)
}

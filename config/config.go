// Package config loads gateway settings from flags and a JSON file.
package config

import (
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	"os"
)

type Config struct {
	ConfigFile string
	LogLevel   slog.Level
	Insecure   bool

	ListenAddr string `json:"listen_addr"`
	RelayAddr  string `json:"relay_addr"`
	MaxClients int    `json:"max_clients"`

	CertFile string `json:"cert_file"`
	KeyFile  string `json:"key_file"`

	UsersFile string `json:"users_file"`
	AuditDB   string `json:"audit_db"`

	SerialDevice         string  `json:"serial_device"`
	SerialBaud           int     `json:"serial_baud"`
	SerialTimeoutSeconds float64 `json:"serial_timeout_seconds"`

	ModbusAddr    string `json:"modbus_addr"`
	GateCoil      uint16 `json:"gate_coil"`
	TurbineCoil   uint16 `json:"turbine_coil"`
	GateActiveLow bool   `json:"gate_active_low"`

	EnableMDNS bool `json:"enable_mdns"`
	EnableMCP  bool `json:"enable_mcp"`
}

// Default returns the settings for the reference exhibit deployment.
func Default() Config {
	return Config{
		LogLevel:             slog.LevelInfo,
		ListenAddr:           "0.0.0.0:8000",
		RelayAddr:            "0.0.0.0:8001",
		MaxClients:           16,
		CertFile:             "cert/server.crt",
		KeyFile:              "cert/server.key",
		UsersFile:            "users.json",
		AuditDB:              "command_log.db",
		SerialDevice:         "/dev/ttyUSB0",
		SerialBaud:           9600,
		SerialTimeoutSeconds: 1,
		ModbusAddr:           "192.168.56.4:502",
		GateCoil:             8195,
		TurbineCoil:          8193,
	}
}

// Load parses command line flags and merges the JSON config file on top
// of the defaults. A missing file at the default path is not an error.
func Load() (Config, error) {
	var configFile, logLevel string
	var insecure bool

	flag.StringVar(&configFile, "config-file", "config.json", "Path to gateway config file")
	flag.StringVar(&logLevel, "log-level", "info", "Log level (debug, info, warn, error)")
	flag.BoolVar(&insecure, "insecure", false, "Serve without TLS (deployment decision, never the default)")
	flag.Parse()

	cfg, err := FromFile(configFile)
	if err != nil {
		return Config{}, err
	}

	cfg.ConfigFile = configFile
	cfg.LogLevel = parseLogLevel(logLevel)
	cfg.Insecure = insecure
	return cfg, nil
}

// FromFile reads the JSON file at path over the defaults. A missing
// file yields the defaults.
func FromFile(path string) (Config, error) {
	cfg := Default()

	file, err := os.Open(path)
	if os.IsNotExist(err) {
		slog.Warn("Config file not found, using defaults", "path", path)
		return cfg, nil
	}
	if err != nil {
		return Config{}, fmt.Errorf("failed to open config file: %w", err)
	}
	defer file.Close()

	if err := json.NewDecoder(file).Decode(&cfg); err != nil {
		return Config{}, fmt.Errorf("failed to parse config file %s: %w", path, err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (cfg *Config) Validate() error {
	if cfg.ListenAddr == "" {
		return fmt.Errorf("listen_addr must not be empty")
	}
	if cfg.SerialBaud <= 0 {
		return fmt.Errorf("serial_baud must be positive, got %d", cfg.SerialBaud)
	}
	if cfg.SerialTimeoutSeconds <= 0 {
		return fmt.Errorf("serial_timeout_seconds must be positive, got %v", cfg.SerialTimeoutSeconds)
	}
	if cfg.MaxClients <= 0 {
		return fmt.Errorf("max_clients must be positive, got %d", cfg.MaxClients)
	}
	if cfg.GateCoil == cfg.TurbineCoil {
		return fmt.Errorf("gate_coil and turbine_coil both set to %d", cfg.GateCoil)
	}
	return nil
}

func parseLogLevel(level string) slog.Level {
	switch level {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

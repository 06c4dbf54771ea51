package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Store backends
const (
	BackendJSON   = "json"
	BackendSQLite = "sqlite"
)

// Config holds user preferences
type Config struct {
	DataDir       string `yaml:"data_dir" json:"data_dir"`             // Where prompts.json, settings.json and license.json live
	StoreBackend  string `yaml:"store_backend" json:"store_backend"`   // json or sqlite
	PollSeconds   int    `yaml:"poll_seconds" json:"poll_seconds"`     // Background reload interval per window
	ConfirmDelete bool   `yaml:"confirm_delete" json:"confirm_delete"` // Require confirmation for delete

	RelayURL         string `yaml:"relay_url" json:"relay_url"`                   // Change notification relay, empty = in-process only
	LicenseServerURL string `yaml:"license_server_url" json:"license_server_url"` // Empty = offline key check
	DeviceID         string `yaml:"device_id" json:"device_id"`                   // Sent when activating a license

	// Injection
	InjectMode    string `yaml:"inject_mode" json:"inject_mode"`       // clipboard or command
	InjectCommand string `yaml:"inject_command" json:"inject_command"` // Used when inject_mode is command

	AI AIConfig `yaml:"ai" json:"ai"`

	// Logging configuration
	LogLevel   string `yaml:"log_level" json:"log_level"`     // Log level: DEBUG, INFO, WARN, ERROR
	LogFile    string `yaml:"log_file" json:"log_file"`       // Path to log file
	LogConsole bool   `yaml:"log_console" json:"log_console"` // Enable console logging
}

// AIConfig points at an OpenAI compatible chat completions endpoint
type AIConfig struct {
	APIKey  string `yaml:"api_key" json:"api_key"`
	BaseURL string `yaml:"base_url" json:"base_url"`
	Model   string `yaml:"model" json:"model"`
}

// Dir returns ~/.promptpicker
func Dir() (string, error) {
	if dir := os.Getenv("PROMPTPICKER_HOME"); dir != "" {
		return dir, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".promptpicker"), nil
}

// DefaultConfig returns default settings
func DefaultConfig() *Config {
	base, _ := Dir()
	dataDir, logPath := "", ""
	if base != "" {
		dataDir = base
		logPath = filepath.Join(base, "logs", "promptpicker.log")
	}

	return &Config{
		DataDir:          getEnv("PROMPTPICKER_DATA_DIR", dataDir),
		StoreBackend:     getEnv("PROMPTPICKER_STORE", BackendJSON),
		PollSeconds:      getEnvInt("PROMPTPICKER_POLL_SECONDS", 2),
		ConfirmDelete:    true,
		RelayURL:         getEnv("PROMPTPICKER_RELAY_URL", ""),
		LicenseServerURL: getEnv("PROMPTPICKER_LICENSE_SERVER", ""),
		InjectMode:       "clipboard",
		AI: AIConfig{
			APIKey:  getEnv("OPENROUTER_API_KEY", ""),
			BaseURL: "https://openrouter.ai/api/v1",
			Model:   "moonshotai/kimi-k2:free",
		},
		LogLevel:   getEnv("PROMPTPICKER_LOG_LEVEL", "INFO"),
		LogFile:    getEnv("PROMPTPICKER_LOG_FILE", logPath),
		LogConsole: getEnv("PROMPTPICKER_LOG_CONSOLE", "false") == "true",
	}
}

// getEnv gets an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if n, err := strconv.Atoi(os.Getenv(key)); err == nil && n > 0 {
		return n
	}
	return defaultValue
}

// PollInterval returns the per-window reload interval
func (c *Config) PollInterval() time.Duration {
	if c.PollSeconds <= 0 {
		return 2 * time.Second
	}
	return time.Duration(c.PollSeconds) * time.Second
}

// Validate rejects settings the rest of the app cannot work with
func (c *Config) Validate() error {
	switch c.StoreBackend {
	case BackendJSON, BackendSQLite:
	default:
		return fmt.Errorf("unknown store_backend %q (want %s or %s)", c.StoreBackend, BackendJSON, BackendSQLite)
	}
	switch c.InjectMode {
	case "clipboard":
	case "command":
		if c.InjectCommand == "" {
			return fmt.Errorf("inject_mode command requires inject_command")
		}
	default:
		return fmt.Errorf("unknown inject_mode %q", c.InjectMode)
	}
	if c.DataDir == "" {
		return fmt.Errorf("data_dir is not set")
	}
	return nil
}

func configPath() (string, error) {
	dir, err := Dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.yaml"), nil
}

// Load loads config from ~/.promptpicker/config.yaml
func Load() (*Config, error) {
	path, err := configPath()
	if err != nil {
		return nil, err
	}

	if _, err := os.Stat(path); os.IsNotExist(err) {
		return DefaultConfig(), nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

// Save saves config to ~/.promptpicker/config.yaml
func (c *Config) Save() error {
	path, err := configPath()
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	// 0600: the file may hold an API key
	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}

	return nil
}

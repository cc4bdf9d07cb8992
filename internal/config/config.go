// Package config handles configuration for chatwidget.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/kelseyhightower/envconfig"

	"github.com/diogo/chatwidget/internal/models"
)

// EnvPrefix is the prefix of every environment override (CHATWIDGET_SERVER_URL, ...)
const EnvPrefix = "CHATWIDGET"

// MarkdownConfig configures markdown rendering options
type MarkdownConfig struct {
	Style            string `json:"style" envconfig:"STYLE"`                           // glamour style name or path to JSON theme
	EnableEmoji      bool   `json:"enable_emoji" envconfig:"ENABLE_EMOJI"`             // Convert :emoji: to unicode
	PreserveNewLines bool   `json:"preserve_newlines" envconfig:"PRESERVE_NEWLINES"`   // Preserve original line breaks
	TableWrap        bool   `json:"table_wrap" envconfig:"TABLE_WRAP"`                 // Enable word wrap in table cells
	InlineTableLinks bool   `json:"inline_table_links" envconfig:"INLINE_TABLE_LINKS"` // Render links inline in tables
}

// Config represents the user configuration
type Config struct {
	// ServerURL is the origin of the chat backend, without a trailing slash.
	ServerURL string `json:"server_url" envconfig:"SERVER_URL"`
	// Endpoint is the path of the chat endpoint on ServerURL.
	Endpoint        string `json:"endpoint" envconfig:"ENDPOINT"`
	CopyToClipboard bool   `json:"copy_to_clipboard" envconfig:"COPY_TO_CLIPBOARD"`
	TUITheme        string `json:"tui_theme,omitempty" envconfig:"TUI_THEME"`
	// LogFile receives diagnostics. The TUI owns the terminal, so nothing is logged to stderr there.
	LogFile  string `json:"log_file,omitempty" envconfig:"LOG_FILE"`
	LogLevel string `json:"log_level,omitempty" envconfig:"LOG_LEVEL"`
	// ListenAddr and StaticDir configure the development backend (serve command).
	ListenAddr string         `json:"listen_addr,omitempty" envconfig:"LISTEN_ADDR"`
	StaticDir  string         `json:"static_dir,omitempty" envconfig:"STATIC_DIR"`
	Markdown   MarkdownConfig `json:"markdown,omitempty" envconfig:"MARKDOWN"`
}

// DefaultMarkdownConfig returns the default markdown configuration
func DefaultMarkdownConfig() MarkdownConfig {
	return MarkdownConfig{
		Style:            "dark",
		EnableEmoji:      true,
		PreserveNewLines: true,
		TableWrap:        true,
		InlineTableLinks: false,
	}
}

// DefaultConfig returns the default configuration
func DefaultConfig() Config {
	logFile := ""
	if dir, err := GetConfigDir(); err == nil {
		logFile = filepath.Join(dir, "chatwidget.log")
	}
	return Config{
		ServerURL:       models.DefaultServerURL,
		Endpoint:        models.EndpointChat,
		CopyToClipboard: false,
		TUITheme:        "tokyonight",
		LogFile:         logFile,
		LogLevel:        "info",
		ListenAddr:      "127.0.0.1:3000",
		Markdown:        DefaultMarkdownConfig(),
	}
}

// ChatURL returns the full URL of the chat endpoint
func (c Config) ChatURL() string {
	return c.ServerURL + c.Endpoint
}

// GetConfigDir returns the configuration directory path
func GetConfigDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}

	return filepath.Join(home, ".chatwidget"), nil
}

// EnsureConfigDir creates the configuration directory if it doesn't exist
func EnsureConfigDir() (string, error) {
	configDir, err := GetConfigDir()
	if err != nil {
		return "", err
	}

	if err := os.MkdirAll(configDir, 0o700); err != nil {
		return "", fmt.Errorf("failed to create config directory: %w", err)
	}

	return configDir, nil
}

// GetConfigPath returns the path to the config file
func GetConfigPath() (string, error) {
	configDir, err := GetConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(configDir, "config.json"), nil
}

// LoadConfig loads the configuration: defaults, then the config file, then
// CHATWIDGET_* environment variables.
func LoadConfig() (Config, error) {
	cfg, err := loadFile()
	if err != nil {
		return cfg, err
	}

	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return cfg, fmt.Errorf("failed to read configuration from environment: %w", err)
	}

	cfg.normalize()
	return cfg, nil
}

func loadFile() (Config, error) {
	cfg := DefaultConfig()

	configPath, err := GetConfigPath()
	if err != nil {
		return cfg, err
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil // Use defaults if config doesn't exist
		}
		return cfg, fmt.Errorf("failed to read config file: %w", err)
	}

	if err := json.Unmarshal(data, &cfg); err != nil {
		return DefaultConfig(), fmt.Errorf("failed to parse config file: %w", err)
	}

	return cfg, nil
}

// normalize fills empty values with defaults and trims the server URL
func (c *Config) normalize() {
	def := DefaultConfig()
	if c.ServerURL == "" {
		c.ServerURL = def.ServerURL
	}
	for len(c.ServerURL) > 0 && c.ServerURL[len(c.ServerURL)-1] == '/' {
		c.ServerURL = c.ServerURL[:len(c.ServerURL)-1]
	}
	if c.Endpoint == "" {
		c.Endpoint = def.Endpoint
	}
	if c.Endpoint[0] != '/' {
		c.Endpoint = "/" + c.Endpoint
	}
	if c.LogLevel == "" {
		c.LogLevel = def.LogLevel
	}
	if c.ListenAddr == "" {
		c.ListenAddr = def.ListenAddr
	}
}

// SaveConfig saves the configuration to disk
func SaveConfig(cfg Config) error {
	configDir, err := EnsureConfigDir()
	if err != nil {
		return err
	}

	configPath := filepath.Join(configDir, "config.json")

	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(configPath, data, 0o600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

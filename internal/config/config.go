// Package config handles configuration and credential management for ragchat.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// DefaultAPIURL is the backend address used when neither the config file nor
// the RAGCHAT_API_URL environment variable provides one.
const DefaultAPIURL = "http://localhost:8000"

// MarkdownConfig configures markdown rendering options
type MarkdownConfig struct {
	Style            string `json:"style"`              // "dark", "light", or path to JSON theme
	Width            int    `json:"width,omitempty"`    // Fixed render width (0 = terminal width)
	EnableEmoji      bool   `json:"enable_emoji"`       // Convert :emoji: to unicode
	PreserveNewLines bool   `json:"preserve_newlines"`  // Preserve original line breaks
	TableWrap        bool   `json:"table_wrap"`         // Enable word wrap in table cells
	InlineTableLinks bool   `json:"inline_table_links"` // Render links inline in tables
}

// Config represents the user configuration
type Config struct {
	// APIURL is the base URL of the RAG backend. The RAGCHAT_API_URL
	// environment variable overrides the stored value.
	APIURL string `json:"api_url"`
	// Username is the display name shown for your side of the chat.
	// It is cosmetic; authentication uses the stored credentials.
	Username string `json:"username,omitempty"`
	// Verbose enables detailed logging output during operations.
	// When enabled, shows request timing and stream decoding details.
	Verbose         bool `json:"verbose"`
	CopyToClipboard bool `json:"copy_to_clipboard"`
	// SaveHistory controls whether finished conversations are written to disk.
	SaveHistory bool           `json:"save_history"`
	TUITheme    string         `json:"tui_theme,omitempty"`    // TUI color theme
	DownloadDir string         `json:"download_dir,omitempty"` // Directory for saving images
	Markdown    MarkdownConfig `json:"markdown,omitempty"`
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
	homeDir, _ := os.UserHomeDir()
	return Config{
		APIURL:          DefaultAPIURL,
		Verbose:         false,
		CopyToClipboard: false,
		SaveHistory:     true,
		TUITheme:        "tokyonight",
		DownloadDir:     filepath.Join(homeDir, ".ragchat", "images"),
		Markdown:        DefaultMarkdownConfig(),
	}
}

// BaseURL returns the backend URL without a trailing slash
func (c Config) BaseURL() string {
	return strings.TrimRight(c.APIURL, "/")
}

// GetConfigDir returns the configuration directory path
func GetConfigDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}

	configDir := filepath.Join(home, ".ragchat")
	return configDir, nil
}

// EnsureConfigDir creates the configuration directory if it doesn't exist
func EnsureConfigDir() (string, error) {
	configDir, err := GetConfigDir()
	if err != nil {
		return "", err
	}

	// Use 0o700 for sensitive directories (contains credentials and config)
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

// GetCredentialsPath returns the path to the credentials file
func GetCredentialsPath() (string, error) {
	configDir, err := GetConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(configDir, "credentials.json"), nil
}

// GetDownloadDir returns the download directory from config, creating it if necessary
func GetDownloadDir(cfg Config) (string, error) {
	dir := cfg.DownloadDir
	if dir == "" {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("failed to get home directory: %w", err)
		}
		dir = filepath.Join(homeDir, ".ragchat", "images")
	}

	// Ensure directory exists (0o700 for privacy - generated images may be sensitive)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return "", fmt.Errorf("failed to create download directory: %w", err)
	}

	return dir, nil
}

// LoadConfig loads the configuration from disk
func LoadConfig() (Config, error) {
	cfg := DefaultConfig()

	configPath, err := GetConfigPath()
	if err != nil {
		return cfg, err
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		if os.IsNotExist(err) {
			return applyEnvOverrides(cfg), nil // Use defaults if config doesn't exist
		}
		return cfg, fmt.Errorf("failed to read config file: %w", err)
	}

	if err := json.Unmarshal(data, &cfg); err != nil {
		return DefaultConfig(), fmt.Errorf("failed to parse config file: %w", err)
	}

	if cfg.APIURL == "" {
		cfg.APIURL = DefaultAPIURL
	}

	return applyEnvOverrides(cfg), nil
}

// applyEnvOverrides lets the environment take precedence over the config file
func applyEnvOverrides(cfg Config) Config {
	if url := os.Getenv("RAGCHAT_API_URL"); url != "" {
		cfg.APIURL = url
	}
	return cfg
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

	// Use 0o600 for sensitive files (config may contain preferences)
	if err := os.WriteFile(configPath, data, 0o600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

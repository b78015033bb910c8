package config

import (
	"encoding/json"
	"fmt"
	"os"
	"sync"
)

// Credentials represents the backend login credentials
type Credentials struct {
	mu       sync.RWMutex `json:"-"` // Not serialized
	Username string       `json:"username"`
	Password string       `json:"password"`
}

// GetUsername returns the username in a thread-safe manner
func (c *Credentials) GetUsername() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.Username
}

// GetPassword returns the password in a thread-safe manner
func (c *Credentials) GetPassword() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.Password
}

// Snapshot returns both fields atomically (for serialization or HTTP requests)
func (c *Credentials) Snapshot() (username, password string) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.Username, c.Password
}

// SetBoth updates both fields atomically
func (c *Credentials) SetBoth(username, password string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.Username = username
	c.Password = password
}

// LoadCredentials loads credentials from the credentials file
func LoadCredentials() (*Credentials, error) {
	credsPath, err := GetCredentialsPath()
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(credsPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("not logged in. Please log in first:\n  ragchat login")
		}
		return nil, fmt.Errorf("failed to read credentials file: %w", err)
	}

	return parseCredentials(data)
}

// parseCredentials parses credentials from JSON data
func parseCredentials(data []byte) (*Credentials, error) {
	var raw map[string]string
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("invalid credentials format: expected {\"username\": ..., \"password\": ...}")
	}

	username, ok := raw["username"]
	if !ok || username == "" {
		return nil, fmt.Errorf("missing required field: username")
	}
	password, ok := raw["password"]
	if !ok || password == "" {
		return nil, fmt.Errorf("missing required field: password")
	}

	return &Credentials{
		Username: username,
		Password: password,
	}, nil
}

// SaveCredentials saves credentials to the credentials file
func SaveCredentials(creds *Credentials) error {
	if err := ValidateCredentials(creds); err != nil {
		return err
	}

	configDir, err := EnsureConfigDir()
	if err != nil {
		return err
	}

	credsPath := configDir + "/credentials.json"

	username, password := creds.Snapshot()
	data, err := json.MarshalIndent(map[string]string{
		"username": username,
		"password": password,
	}, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal credentials: %w", err)
	}

	// Save with restrictive permissions (owner read/write only)
	if err := os.WriteFile(credsPath, data, 0o600); err != nil {
		return fmt.Errorf("failed to write credentials file: %w", err)
	}

	return nil
}

// DeleteCredentials removes the stored credentials. Missing file is not an error.
func DeleteCredentials() error {
	credsPath, err := GetCredentialsPath()
	if err != nil {
		return err
	}

	if err := os.Remove(credsPath); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to remove credentials file: %w", err)
	}

	return nil
}

// HasCredentials reports whether a credentials file exists
func HasCredentials() bool {
	credsPath, err := GetCredentialsPath()
	if err != nil {
		return false
	}
	_, err = os.Stat(credsPath)
	return err == nil
}

// ValidateCredentials checks if credentials are usable for Basic auth
func ValidateCredentials(creds *Credentials) error {
	if creds == nil {
		return fmt.Errorf("credentials are nil")
	}
	username, password := creds.Snapshot()
	if username == "" {
		return fmt.Errorf("missing required field: username")
	}
	if password == "" {
		return fmt.Errorf("missing required field: password")
	}
	return nil
}

package config

import (
	"encoding/json"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
)

// Profile represents a named backend connection
type Profile struct {
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	APIURL      string `json:"api_url"`
	Username    string `json:"username,omitempty"` // Preferred login for this backend (optional)
}

// ProfileConfig stores all profiles
type ProfileConfig struct {
	Profiles       []Profile `json:"profiles"`
	DefaultProfile string    `json:"default_profile,omitempty"`
}

// DefaultProfiles returns pre-configured profiles
func DefaultProfiles() []Profile {
	return []Profile{
		{
			Name:        "local",
			Description: "Backend on this machine",
			APIURL:      DefaultAPIURL,
		},
	}
}

// GetProfilesPath returns the path to the profiles file
func GetProfilesPath() (string, error) {
	configDir, err := GetConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(configDir, "profiles.json"), nil
}

// LoadProfiles loads the profile configuration
func LoadProfiles() (*ProfileConfig, error) {
	path, err := GetProfilesPath()
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			// Return defaults if file doesn't exist
			return &ProfileConfig{
				Profiles:       DefaultProfiles(),
				DefaultProfile: "local",
			}, nil
		}
		return nil, fmt.Errorf("failed to read profiles: %w", err)
	}

	var config ProfileConfig
	if err := json.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse profiles: %w", err)
	}

	// Merge with defaults (keep user customizations)
	config.Profiles = mergeProfiles(DefaultProfiles(), config.Profiles)

	return &config, nil
}

// SaveProfiles saves the profile configuration
func SaveProfiles(config *ProfileConfig) error {
	path, err := GetProfilesPath()
	if err != nil {
		return err
	}

	// Ensure config directory exists
	if _, err := EnsureConfigDir(); err != nil {
		return err
	}

	data, err := json.MarshalIndent(config, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal profiles: %w", err)
	}

	// Use 0o600 for user data (profiles may name internal hosts)
	return os.WriteFile(path, data, 0o600)
}

// GetProfile returns a profile by name
func GetProfile(name string) (*Profile, error) {
	config, err := LoadProfiles()
	if err != nil {
		return nil, err
	}

	for _, p := range config.Profiles {
		if p.Name == name {
			return &p, nil
		}
	}

	return nil, fmt.Errorf("profile '%s' not found", name)
}

// ListProfileNames returns the names of all profiles
func ListProfileNames() ([]string, error) {
	config, err := LoadProfiles()
	if err != nil {
		return nil, err
	}

	names := make([]string, len(config.Profiles))
	for i, p := range config.Profiles {
		names[i] = p.Name
	}
	return names, nil
}

// AddProfile adds a new profile
func AddProfile(profile Profile) error {
	if err := ValidateProfile(profile); err != nil {
		return err
	}

	config, err := LoadProfiles()
	if err != nil {
		return err
	}

	// Check if exists
	for _, p := range config.Profiles {
		if p.Name == profile.Name {
			return fmt.Errorf("profile '%s' already exists", profile.Name)
		}
	}

	config.Profiles = append(config.Profiles, profile)
	return SaveProfiles(config)
}

// UpdateProfile updates an existing profile
func UpdateProfile(profile Profile) error {
	if err := ValidateProfile(profile); err != nil {
		return err
	}

	config, err := LoadProfiles()
	if err != nil {
		return err
	}

	found := false
	for i, p := range config.Profiles {
		if p.Name == profile.Name {
			config.Profiles[i] = profile
			found = true
			break
		}
	}

	if !found {
		return fmt.Errorf("profile '%s' not found", profile.Name)
	}

	return SaveProfiles(config)
}

// DeleteProfile removes a profile by name
func DeleteProfile(name string) error {
	if name == "local" {
		return fmt.Errorf("cannot delete the local profile")
	}

	config, err := LoadProfiles()
	if err != nil {
		return err
	}

	newProfiles := make([]Profile, 0, len(config.Profiles))
	found := false
	for _, p := range config.Profiles {
		if p.Name == name {
			found = true
			continue
		}
		newProfiles = append(newProfiles, p)
	}

	if !found {
		return fmt.Errorf("profile '%s' not found", name)
	}

	config.Profiles = newProfiles

	// Reset default if deleted
	if config.DefaultProfile == name {
		config.DefaultProfile = "local"
	}

	return SaveProfiles(config)
}

// SetDefaultProfile sets the default profile
func SetDefaultProfile(name string) error {
	// Verify profile exists
	_, err := GetProfile(name)
	if err != nil {
		return err
	}

	config, err := LoadProfiles()
	if err != nil {
		return err
	}

	config.DefaultProfile = name
	return SaveProfiles(config)
}

// GetDefaultProfile returns the default profile
func GetDefaultProfile() (*Profile, error) {
	config, err := LoadProfiles()
	if err != nil {
		return nil, err
	}

	name := config.DefaultProfile
	if name == "" {
		name = "local"
	}

	return GetProfile(name)
}

func mergeProfiles(defaults, custom []Profile) []Profile {
	result := make([]Profile, len(defaults))
	copy(result, defaults)

	// Add or replace with custom
	for _, cp := range custom {
		found := false
		for i, dp := range result {
			if dp.Name == cp.Name {
				result[i] = cp
				found = true
				break
			}
		}
		if !found {
			result = append(result, cp)
		}
	}

	return result
}

// Validation constants
const (
	MaxNameLength        = 50
	MaxDescriptionLength = 200
	MinNameLength        = 1
)

// ValidateProfile validates a profile's fields
func ValidateProfile(p Profile) error {
	fieldErrors := make(map[string]string)

	// Validate name
	if p.Name == "" {
		fieldErrors["name"] = "name is required"
	} else if len(p.Name) > MaxNameLength {
		fieldErrors["name"] = fmt.Sprintf("name too long (max %d characters)", MaxNameLength)
	} else if !isValidProfileName(p.Name) {
		fieldErrors["name"] = "name must contain only alphanumeric characters, underscores, and hyphens"
	}

	// Validate description (optional but has max length)
	if len(p.Description) > MaxDescriptionLength {
		fieldErrors["description"] = fmt.Sprintf("description too long (max %d characters)", MaxDescriptionLength)
	}

	// Validate API URL
	if p.APIURL == "" {
		fieldErrors["api_url"] = "api_url is required"
	} else if u, err := url.Parse(p.APIURL); err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		fieldErrors["api_url"] = "api_url must be an http or https URL"
	}

	if len(fieldErrors) > 0 {
		return fmt.Errorf("validation failed: %v", fieldErrors)
	}

	return nil
}

// isValidProfileName checks if a profile name contains only valid characters
func isValidProfileName(name string) bool {
	for _, c := range name {
		if !((c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || (c >= '0' && c <= '9') || c == '_' || c == '-') {
			return false
		}
	}
	return true
}

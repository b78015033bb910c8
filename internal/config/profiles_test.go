package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefaultProfiles(t *testing.T) {
	profiles := DefaultProfiles()

	if len(profiles) == 0 {
		t.Fatal("expected at least one default profile")
	}

	// Check that 'local' profile exists and points at the default backend
	foundLocal := false
	for _, p := range profiles {
		if p.Name == "local" {
			foundLocal = true
			if p.APIURL != DefaultAPIURL {
				t.Errorf("local profile APIURL = %s, want %s", p.APIURL, DefaultAPIURL)
			}
		}
	}

	if !foundLocal {
		t.Error("local profile not found")
	}
}

func TestProfile_Fields(t *testing.T) {
	p := Profile{
		Name:        "staging",
		Description: "Staging backend",
		APIURL:      "https://rag-staging.example.com",
		Username:    "alice",
	}

	if p.Name != "staging" {
		t.Error("Name mismatch")
	}
	if p.Description != "Staging backend" {
		t.Error("Description mismatch")
	}
	if p.APIURL != "https://rag-staging.example.com" {
		t.Error("APIURL mismatch")
	}
	if p.Username != "alice" {
		t.Error("Username mismatch")
	}
}

func TestMergeProfiles(t *testing.T) {
	defaults := []Profile{
		{Name: "local", APIURL: DefaultAPIURL},
	}

	custom := []Profile{
		{Name: "local", APIURL: "http://localhost:9000"}, // Override
		{Name: "staging", APIURL: "https://rag-staging.example.com"}, // New
	}

	result := mergeProfiles(defaults, custom)

	if len(result) != 2 {
		t.Errorf("expected 2 profiles, got %d", len(result))
	}

	// Check override
	for _, p := range result {
		if p.Name == "local" && p.APIURL != "http://localhost:9000" {
			t.Error("local profile should be overridden")
		}
	}

	// Check new profile added
	foundStaging := false
	for _, p := range result {
		if p.Name == "staging" {
			foundStaging = true
		}
	}
	if !foundStaging {
		t.Error("staging profile not found")
	}
}

func TestValidateProfile(t *testing.T) {
	tests := []struct {
		name    string
		profile Profile
		wantErr bool
	}{
		{
			name:    "valid",
			profile: Profile{Name: "staging", APIURL: "https://rag.example.com"},
			wantErr: false,
		},
		{
			name:    "empty name",
			profile: Profile{APIURL: "https://rag.example.com"},
			wantErr: true,
		},
		{
			name:    "invalid characters in name",
			profile: Profile{Name: "bad name!", APIURL: "https://rag.example.com"},
			wantErr: true,
		},
		{
			name:    "missing url",
			profile: Profile{Name: "staging"},
			wantErr: true,
		},
		{
			name:    "non-http url",
			profile: Profile{Name: "staging", APIURL: "ftp://rag.example.com"},
			wantErr: true,
		},
		{
			name:    "url without host",
			profile: Profile{Name: "staging", APIURL: "http://"},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateProfile(tt.profile)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateProfile() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestLoadProfiles_FileNotExists(t *testing.T) {
	_, cleanup := setupConfigTestEnv(t)
	defer cleanup()

	config, err := LoadProfiles()
	if err != nil {
		t.Fatalf("LoadProfiles() returned error: %v", err)
	}

	if config.DefaultProfile != "local" {
		t.Errorf("DefaultProfile = %s, want local", config.DefaultProfile)
	}
	if len(config.Profiles) == 0 {
		t.Error("expected default profiles")
	}
}

func TestAddAndGetProfile(t *testing.T) {
	_, cleanup := setupConfigTestEnv(t)
	defer cleanup()

	profile := Profile{
		Name:   "staging",
		APIURL: "https://rag-staging.example.com",
	}

	if err := AddProfile(profile); err != nil {
		t.Fatalf("AddProfile() returned error: %v", err)
	}

	got, err := GetProfile("staging")
	if err != nil {
		t.Fatalf("GetProfile() returned error: %v", err)
	}
	if got.APIURL != profile.APIURL {
		t.Errorf("APIURL = %s, want %s", got.APIURL, profile.APIURL)
	}

	// Adding the same name again should fail
	if err := AddProfile(profile); err == nil {
		t.Error("AddProfile() with duplicate name should return error")
	}
}

func TestGetProfile_NotFound(t *testing.T) {
	_, cleanup := setupConfigTestEnv(t)
	defer cleanup()

	_, err := GetProfile("nonexistent")
	if err == nil {
		t.Error("GetProfile() for unknown profile should return error")
	}
}

func TestUpdateProfile(t *testing.T) {
	_, cleanup := setupConfigTestEnv(t)
	defer cleanup()

	profile := Profile{Name: "staging", APIURL: "https://old.example.com"}
	if err := AddProfile(profile); err != nil {
		t.Fatalf("AddProfile() returned error: %v", err)
	}

	profile.APIURL = "https://new.example.com"
	if err := UpdateProfile(profile); err != nil {
		t.Fatalf("UpdateProfile() returned error: %v", err)
	}

	got, err := GetProfile("staging")
	if err != nil {
		t.Fatalf("GetProfile() returned error: %v", err)
	}
	if got.APIURL != "https://new.example.com" {
		t.Errorf("APIURL = %s, want https://new.example.com", got.APIURL)
	}
}

func TestUpdateProfile_NotFound(t *testing.T) {
	_, cleanup := setupConfigTestEnv(t)
	defer cleanup()

	err := UpdateProfile(Profile{Name: "ghost", APIURL: "https://rag.example.com"})
	if err == nil {
		t.Error("UpdateProfile() for unknown profile should return error")
	}
}

func TestDeleteProfile(t *testing.T) {
	_, cleanup := setupConfigTestEnv(t)
	defer cleanup()

	profile := Profile{Name: "staging", APIURL: "https://rag-staging.example.com"}
	if err := AddProfile(profile); err != nil {
		t.Fatalf("AddProfile() returned error: %v", err)
	}

	if err := SetDefaultProfile("staging"); err != nil {
		t.Fatalf("SetDefaultProfile() returned error: %v", err)
	}

	if err := DeleteProfile("staging"); err != nil {
		t.Fatalf("DeleteProfile() returned error: %v", err)
	}

	if _, err := GetProfile("staging"); err == nil {
		t.Error("GetProfile() after delete should return error")
	}

	// Default falls back to local when the default profile is deleted
	config, err := LoadProfiles()
	if err != nil {
		t.Fatalf("LoadProfiles() returned error: %v", err)
	}
	if config.DefaultProfile != "local" {
		t.Errorf("DefaultProfile = %s, want local", config.DefaultProfile)
	}
}

func TestDeleteProfile_Local(t *testing.T) {
	_, cleanup := setupConfigTestEnv(t)
	defer cleanup()

	if err := DeleteProfile("local"); err == nil {
		t.Error("DeleteProfile() should refuse to delete the local profile")
	}
}

func TestSetDefaultProfile_NotFound(t *testing.T) {
	_, cleanup := setupConfigTestEnv(t)
	defer cleanup()

	if err := SetDefaultProfile("nonexistent"); err == nil {
		t.Error("SetDefaultProfile() for unknown profile should return error")
	}
}

func TestGetDefaultProfile(t *testing.T) {
	_, cleanup := setupConfigTestEnv(t)
	defer cleanup()

	profile, err := GetDefaultProfile()
	if err != nil {
		t.Fatalf("GetDefaultProfile() returned error: %v", err)
	}
	if profile.Name != "local" {
		t.Errorf("Name = %s, want local", profile.Name)
	}
}

func TestSaveProfiles_Persists(t *testing.T) {
	tmpDir, cleanup := setupConfigTestEnv(t)
	defer cleanup()

	config := &ProfileConfig{
		Profiles:       DefaultProfiles(),
		DefaultProfile: "local",
	}
	if err := SaveProfiles(config); err != nil {
		t.Fatalf("SaveProfiles() returned error: %v", err)
	}

	path := filepath.Join(tmpDir, ".ragchat", "profiles.json")
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("profiles file not written: %v", err)
	}
}

package models

import (
	"strings"
	"testing"
)

func TestIsAllowedSourceType(t *testing.T) {
	tests := []struct {
		filename string
		expected bool
	}{
		{"report.pdf", true},
		{"notes.txt", true},
		{"proposal.docx", true},
		{"readme.md", true},
		{"data.csv", true},
		{"config.json", true},
		{"REPORT.PDF", true},
		{"archive.tar.gz", false},
		{"photo.png", false},
		{"binary.exe", false},
		{"noextension", false},
		{"", false},
	}

	for _, tt := range tests {
		name := tt.filename
		if name == "" {
			name = "empty"
		}
		t.Run(name, func(t *testing.T) {
			if got := IsAllowedSourceType(tt.filename); got != tt.expected {
				t.Errorf("IsAllowedSourceType(%q) = %v, want %v", tt.filename, got, tt.expected)
			}
		})
	}
}

func TestSourceExtension(t *testing.T) {
	tests := []struct {
		filename string
		expected string
	}{
		{"report.pdf", "pdf"},
		{"REPORT.PDF", "pdf"},
		{"dir/nested/file.md", "md"},
		{"archive.tar.gz", "gz"},
		{"noextension", ""},
		{".hidden", "hidden"},
	}

	for _, tt := range tests {
		t.Run(tt.filename, func(t *testing.T) {
			if got := SourceExtension(tt.filename); got != tt.expected {
				t.Errorf("SourceExtension(%q) = %q, want %q", tt.filename, got, tt.expected)
			}
		})
	}
}

func TestSourceContentType(t *testing.T) {
	tests := []struct {
		filename string
		expected string
	}{
		{"report.pdf", "application/pdf"},
		{"notes.txt", "text/plain"},
		{"data.csv", "text/csv"},
		{"config.json", "application/json"},
		{"photo.png", "application/octet-stream"},
	}

	for _, tt := range tests {
		t.Run(tt.filename, func(t *testing.T) {
			if got := SourceContentType(tt.filename); got != tt.expected {
				t.Errorf("SourceContentType(%q) = %q, want %q", tt.filename, got, tt.expected)
			}
		})
	}
}

func TestAllowedSourceTypes(t *testing.T) {
	types := AllowedSourceTypes()

	if len(types) != 6 {
		t.Errorf("AllowedSourceTypes() returned %d types, want 6", len(types))
	}

	joined := strings.Join(types, ",")
	for _, required := range []string{"pdf", "txt", "docx", "md", "csv", "json"} {
		if !strings.Contains(joined, required) {
			t.Errorf("AllowedSourceTypes() is missing %q", required)
		}
	}
}

func TestMaxSources(t *testing.T) {
	if MaxSources != 10 {
		t.Errorf("MaxSources = %d, want 10", MaxSources)
	}
}

package models

import (
	"path/filepath"
	"sort"
	"strings"
)

// MaxSources is the client-side cap on documents in the backend's index,
// mirroring the backend's database limit.
const MaxSources = 10

// Source represents one document indexed by the backend for retrieval
type Source struct {
	Filename string
}

// allowedSourceExtensions are the document types the backend can ingest,
// keyed by lowercase extension without the dot.
var allowedSourceExtensions = map[string]string{
	"pdf":  "application/pdf",
	"txt":  "text/plain",
	"docx": "application/vnd.openxmlformats-officedocument.wordprocessingml.document",
	"md":   "text/markdown",
	"csv":  "text/csv",
	"json": "application/json",
}

// SourceExtension returns the lowercase extension of filename without the dot
func SourceExtension(filename string) string {
	return strings.ToLower(strings.TrimPrefix(filepath.Ext(filename), "."))
}

// IsAllowedSourceType reports whether the file's extension is accepted for upload
func IsAllowedSourceType(filename string) bool {
	_, ok := allowedSourceExtensions[SourceExtension(filename)]
	return ok
}

// SourceContentType returns the MIME type to send for an upload, or
// application/octet-stream for unknown extensions
func SourceContentType(filename string) string {
	if ct, ok := allowedSourceExtensions[SourceExtension(filename)]; ok {
		return ct
	}
	return "application/octet-stream"
}

// AllowedSourceTypes lists the accepted extensions for error messages
func AllowedSourceTypes() []string {
	return []string{"pdf", "txt", "docx", "md", "csv", "json"}
}

// SortSources orders documents by filename, case-insensitively, so listings
// stay stable across fetches.
func SortSources(sources []Source) {
	sort.Slice(sources, func(i, j int) bool {
		return strings.ToLower(sources[i].Filename) < strings.ToLower(sources[j].Filename)
	})
}

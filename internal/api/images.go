package api

import (
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/diogo/ragchat/pkg/blockstream"
)

// ImageSaveOptions configures where decoded images are written
type ImageSaveOptions struct {
	// Directory is the destination directory (default: ~/.ragchat/images)
	Directory string
	// Filename is the output filename (derived from the alt text if empty)
	Filename string
}

// DefaultImageSaveOptions returns the default save options
func DefaultImageSaveOptions() ImageSaveOptions {
	homeDir, _ := os.UserHomeDir()
	return ImageSaveOptions{
		Directory: filepath.Join(homeDir, ".ragchat", "images"),
	}
}

// SaveImage writes one decoded image block to disk and returns the absolute
// path. The image bytes arrive inline in the block, so no request is made.
func SaveImage(img blockstream.Image, opts ImageSaveOptions) (string, error) {
	if len(img.Data) == 0 {
		return "", fmt.Errorf("image block carries no data")
	}

	if opts.Directory == "" {
		opts.Directory = DefaultImageSaveOptions().Directory
	}

	if err := os.MkdirAll(opts.Directory, 0755); err != nil {
		return "", fmt.Errorf("failed to create directory: %w", err)
	}

	filename := opts.Filename
	if filename == "" {
		filename = imageFilename(img)
	}

	destPath := uniquePath(filepath.Join(opts.Directory, filename))

	if err := os.WriteFile(destPath, img.Data, 0644); err != nil {
		return "", fmt.Errorf("failed to save image: %w", err)
	}

	// Return absolute path (fallback to relative path if Abs fails)
	absPath, err := filepath.Abs(destPath)
	if err != nil {
		return destPath, nil
	}
	return absPath, nil
}

// SaveAllImages writes every image block in the list to disk. Partial
// failures skip that image; an error is returned only when nothing saved.
func SaveAllImages(blocks blockstream.Blocks, opts ImageSaveOptions) ([]string, error) {
	var paths []string
	var lastError error

	for _, img := range blocks.Images() {
		path, err := SaveImage(img, opts)
		if err != nil {
			lastError = err
			continue
		}
		paths = append(paths, path)
	}

	if len(paths) == 0 && lastError != nil {
		return nil, lastError
	}
	return paths, nil
}

// SaveSelectedImages writes specific image blocks by their indices into the
// turn's image list
func SaveSelectedImages(blocks blockstream.Blocks, indices []int, opts ImageSaveOptions) ([]string, error) {
	images := blocks.Images()

	var paths []string
	var lastError error

	for _, idx := range indices {
		if idx < 0 || idx >= len(images) {
			continue
		}

		path, err := SaveImage(images[idx], opts)
		if err != nil {
			lastError = err
			continue
		}
		paths = append(paths, path)
	}

	if len(paths) == 0 && lastError != nil {
		return nil, lastError
	}
	return paths, nil
}

// imageFilename derives a filename from the image's alt text and bytes
func imageFilename(img blockstream.Image) string {
	ext := imageExtension(img.Data)

	safe := sanitizeFilename(img.AltText)
	if len(safe) > 50 {
		safe = strings.TrimSpace(safe[:50])
	}
	if safe == "" {
		return fmt.Sprintf("image_%s%s", time.Now().Format("20060102_150405"), ext)
	}
	return safe + ext
}

// imageExtension sniffs a file extension from the image bytes
func imageExtension(data []byte) string {
	contentType := http.DetectContentType(data)
	switch {
	case strings.Contains(contentType, "png"):
		return ".png"
	case strings.Contains(contentType, "jpeg"):
		return ".jpg"
	case strings.Contains(contentType, "gif"):
		return ".gif"
	case strings.Contains(contentType, "webp"):
		return ".webp"
	default:
		return ".png"
	}
}

// sanitizeFilename removes invalid characters from filenames
func sanitizeFilename(name string) string {
	reg := regexp.MustCompile(`[<>:"/\\|?*\x00-\x1f]`)
	safe := reg.ReplaceAllString(name, "_")
	return strings.TrimSpace(safe)
}

// uniquePath returns path unchanged when free, or with a numeric suffix when
// a file with that name already exists. Alt texts repeat across a turn, so
// collisions are the common case.
func uniquePath(path string) string {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return path
	}

	ext := filepath.Ext(path)
	stem := strings.TrimSuffix(path, ext)
	for i := 2; ; i++ {
		candidate := fmt.Sprintf("%s_%d%s", stem, i, ext)
		if _, err := os.Stat(candidate); os.IsNotExist(err) {
			return candidate
		}
	}
}

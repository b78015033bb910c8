package api

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/textproto"
	"os"
	"path/filepath"
	"strings"

	http "github.com/bogdanfinn/fhttp"
	"github.com/tidwall/gjson"

	apierrors "github.com/diogo/ragchat/internal/errors"
	"github.com/diogo/ragchat/internal/models"
)

const (
	MaxSourceSize = 50 * 1024 * 1024 // 50MB
)

// UploadedSource describes a document accepted by the backend for indexing
type UploadedSource struct {
	Filename string
	Size     int64
	Message  string
}

// UploadResult pairs one upload attempt with its outcome
type UploadResult struct {
	Path   string
	Source *UploadedSource
	Err    error
}

// SourceUploader handles document uploads to the retrieval index
type SourceUploader struct {
	client *RagClient
}

// NewSourceUploader creates a new source uploader
func NewSourceUploader(client *RagClient) *SourceUploader {
	return &SourceUploader{
		client: client,
	}
}

// UploadFile uploads a document file from disk
func (u *SourceUploader) UploadFile(filePath string) (*UploadedSource, error) {
	fileName := filepath.Base(filePath)

	fileInfo, err := os.Stat(filePath)
	if err != nil {
		return nil, apierrors.NewUploadErrorWithCause(fileName, err)
	}

	if fileInfo.Size() > MaxSourceSize {
		return nil, apierrors.NewUploadError(fileName,
			fmt.Sprintf("file size exceeds maximum %d bytes", MaxSourceSize))
	}

	if !models.IsAllowedSourceType(fileName) {
		return nil, fmt.Errorf("%w: %q (accepted: %s)",
			apierrors.ErrSourceType, fileName,
			strings.Join(models.AllowedSourceTypes(), ", "))
	}

	file, err := os.Open(filePath)
	if err != nil {
		return nil, apierrors.NewUploadErrorWithCause(fileName, err)
	}
	defer file.Close()

	return u.uploadStream(file, fileName, fileInfo.Size())
}

// UploadFromReader uploads document content from an io.Reader. The file name
// decides the content type the backend sees.
func (u *SourceUploader) UploadFromReader(reader io.Reader, fileName string) (*UploadedSource, error) {
	if !models.IsAllowedSourceType(fileName) {
		return nil, fmt.Errorf("%w: %q (accepted: %s)",
			apierrors.ErrSourceType, fileName,
			strings.Join(models.AllowedSourceTypes(), ", "))
	}

	data, err := io.ReadAll(reader)
	if err != nil {
		return nil, apierrors.NewUploadErrorWithCause(fileName, err)
	}

	if int64(len(data)) > MaxSourceSize {
		return nil, apierrors.NewUploadError(fileName,
			fmt.Sprintf("data size exceeds maximum %d bytes", MaxSourceSize))
	}

	return u.uploadStream(bytes.NewReader(data), fileName, int64(len(data)))
}

// UploadAll uploads each path in order, collecting per-file outcomes instead
// of stopping at the first failure
func (u *SourceUploader) UploadAll(paths []string) []UploadResult {
	results := make([]UploadResult, 0, len(paths))
	for _, path := range paths {
		source, err := u.UploadFile(path)
		results = append(results, UploadResult{Path: path, Source: source, Err: err})
	}
	return results
}

// uploadStream executes the actual upload
func (u *SourceUploader) uploadStream(reader io.Reader, fileName string, size int64) (*UploadedSource, error) {
	// Create multipart body. The part carries an explicit content type
	// because the backend routes documents to parsers by it.
	var body bytes.Buffer
	writer := multipart.NewWriter(&body)

	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition",
		fmt.Sprintf(`form-data; name="file"; filename="%s"`, escapeQuotes(fileName)))
	header.Set("Content-Type", models.SourceContentType(fileName))

	part, err := writer.CreatePart(header)
	if err != nil {
		return nil, fmt.Errorf("failed to create form file: %w", err)
	}

	if _, err := io.Copy(part, reader); err != nil {
		return nil, fmt.Errorf("failed to write file data: %w", err)
	}

	_ = writer.Close()

	endpoint := u.client.endpoint(models.EndpointUpload)

	ctx, cancel := context.WithTimeout(context.Background(), models.TimeoutUpload)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, &body)
	if err != nil {
		return nil, fmt.Errorf("failed to create upload request: %w", err)
	}

	for key, value := range models.DefaultHeaders() {
		req.Header.Set(key, value)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())

	resp, err := u.client.httpClient.Do(req)
	if err != nil {
		return nil, wrapTransportError("upload", endpoint, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		respBody := readErrorBody(resp.Body)
		return nil, apierrors.NewUploadErrorWithCause(fileName,
			apierrors.NewAPIErrorWithBody(resp.StatusCode, endpoint, errorDetail(respBody), respBody))
	}

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, wrapTransportError("upload", endpoint, err)
	}

	return &UploadedSource{
		Filename: fileName,
		Size:     size,
		Message:  gjson.GetBytes(respBody, PathMessage).String(),
	}, nil
}

var quoteEscaper = strings.NewReplacer("\\", "\\\\", `"`, "\\\"")

func escapeQuotes(s string) string {
	return quoteEscaper.Replace(s)
}

// UploadSource is a convenience method on RagClient for uploading one document
func (c *RagClient) UploadSource(path string) (*UploadedSource, error) {
	uploader := NewSourceUploader(c)
	return uploader.UploadFile(path)
}

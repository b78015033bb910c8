package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"

	http "github.com/bogdanfinn/fhttp"
	"github.com/tidwall/gjson"

	apierrors "github.com/diogo/ragchat/internal/errors"
	"github.com/diogo/ragchat/internal/models"
)

// deleteSourceRequest is the payload for the source deletion endpoint
type deleteSourceRequest struct {
	Filename string `json:"filename"`
}

// ListSources returns the documents currently indexed for retrieval
func (c *RagClient) ListSources() ([]models.Source, error) {
	if c.IsClosed() {
		return nil, fmt.Errorf("client is closed")
	}

	endpoint := c.endpoint(models.EndpointSources)

	ctx, cancel := context.WithTimeout(context.Background(), models.TimeoutSources)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create sources request: %w", err)
	}

	for key, value := range models.DefaultHeaders() {
		req.Header.Set(key, value)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, wrapTransportError("source listing", endpoint, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body := readErrorBody(resp.Body)
		return nil, apierrors.NewAPIErrorWithBody(resp.StatusCode, endpoint, errorDetail(body), body)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, wrapTransportError("source listing", endpoint, err)
	}

	result := gjson.GetBytes(body, PathSources)
	if !result.Exists() {
		return nil, apierrors.NewParseError("sources response missing source list", PathSources)
	}

	var sources []models.Source
	result.ForEach(func(_, value gjson.Result) bool {
		sources = append(sources, models.Source{Filename: value.String()})
		return true
	})

	return sources, nil
}

// DeleteSource removes one document from the retrieval index
func (c *RagClient) DeleteSource(filename string) error {
	if c.IsClosed() {
		return fmt.Errorf("client is closed")
	}
	if filename == "" {
		return fmt.Errorf("filename cannot be empty")
	}

	endpoint := c.endpoint(models.EndpointDeleteSource)

	payload, err := json.Marshal(deleteSourceRequest{Filename: filename})
	if err != nil {
		return fmt.Errorf("failed to encode delete payload: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), models.TimeoutDeleteSource)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("failed to create delete request: %w", err)
	}

	for key, value := range models.JSONHeaders() {
		req.Header.Set(key, value)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return wrapTransportError("source deletion", endpoint, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body := readErrorBody(resp.Body)
		return apierrors.NewAPIErrorWithBody(resp.StatusCode, endpoint, errorDetail(body), body)
	}

	return nil
}

// Reindex rebuilds the backend's retrieval index from its current documents.
// Indexing is slow; this call can take minutes on a large document set.
func (c *RagClient) Reindex() (string, error) {
	if c.IsClosed() {
		return "", fmt.Errorf("client is closed")
	}

	endpoint := c.endpoint(models.EndpointReindex)

	ctx, cancel := context.WithTimeout(context.Background(), models.TimeoutReindex)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, nil)
	if err != nil {
		return "", fmt.Errorf("failed to create reindex request: %w", err)
	}

	for key, value := range models.DefaultHeaders() {
		req.Header.Set(key, value)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", wrapTransportError("reindex", endpoint, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body := readErrorBody(resp.Body)
		return "", apierrors.NewAPIErrorWithBody(resp.StatusCode, endpoint, errorDetail(body), body)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", wrapTransportError("reindex", endpoint, err)
	}

	return gjson.GetBytes(body, PathMessage).String(), nil
}

// EnsureSourceCapacity checks that the index has room for more documents,
// returning ErrSourceLimit once the backend's cap is reached
func (c *RagClient) EnsureSourceCapacity() error {
	sources, err := c.ListSources()
	if err != nil {
		return err
	}
	if len(sources) >= models.MaxSources {
		return fmt.Errorf("%w: %d/%d documents indexed",
			apierrors.ErrSourceLimit, len(sources), models.MaxSources)
	}
	return nil
}

package api

import (
	"context"
	"fmt"
	"io"

	http "github.com/bogdanfinn/fhttp"
	"github.com/tidwall/gjson"

	apierrors "github.com/diogo/ragchat/internal/errors"
	"github.com/diogo/ragchat/internal/models"
)

// RotateSession asks the backend for a brand-new session ID and swaps it in,
// abandoning the server-side conversation state tied to the old one. Used to
// start a fresh conversation without logging in again.
func (c *RagClient) RotateSession() (string, error) {
	if c.IsClosed() {
		return "", fmt.Errorf("client is closed")
	}

	endpoint := c.endpoint(models.EndpointSessionID)

	ctx, cancel := context.WithTimeout(context.Background(), models.TimeoutSessionID)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, nil)
	if err != nil {
		return "", fmt.Errorf("failed to create session request: %w", err)
	}

	for key, value := range models.DefaultHeaders() {
		req.Header.Set(key, value)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", wrapTransportError("session rotation", endpoint, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body := readErrorBody(resp.Body)
		return "", apierrors.NewAPIErrorWithBody(resp.StatusCode, endpoint, errorDetail(body), body)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", wrapTransportError("session rotation", endpoint, err)
	}

	sessionID := gjson.GetBytes(body, PathSessionID).String()
	if sessionID == "" {
		return "", apierrors.NewParseError("session response missing session ID", PathSessionID)
	}

	c.SetSessionID(sessionID)
	return sessionID, nil
}

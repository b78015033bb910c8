package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	http "github.com/bogdanfinn/fhttp"
	tls_client "github.com/bogdanfinn/tls-client"
	"github.com/tidwall/gjson"

	"github.com/diogo/ragchat/internal/config"
	apierrors "github.com/diogo/ragchat/internal/errors"
	"github.com/diogo/ragchat/internal/models"
)

// loginRequest is the credential payload for the login endpoint
type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// Login authenticates against the backend and returns a fresh session ID
func Login(client tls_client.HttpClient, creds *config.Credentials, baseURL string) (string, error) {
	endpoint := strings.TrimRight(baseURL, "/") + models.EndpointLogin

	username, password := creds.Snapshot()
	payload, err := json.Marshal(loginRequest{
		Username: username,
		Password: password,
	})
	if err != nil {
		return "", fmt.Errorf("failed to encode login payload: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), models.TimeoutLogin)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("failed to create login request: %w", err)
	}

	for key, value := range models.JSONHeaders() {
		req.Header.Set(key, value)
	}
	req.SetBasicAuth(username, password)

	resp, err := client.Do(req)
	if err != nil {
		return "", wrapTransportError("login", endpoint, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized {
		return "", apierrors.NewAuthErrorWithEndpoint("invalid username or password", endpoint)
	}
	if resp.StatusCode != http.StatusOK {
		body := readErrorBody(resp.Body)
		return "", apierrors.NewAPIErrorWithBody(resp.StatusCode, endpoint, errorDetail(body), body)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", wrapTransportError("login", endpoint, err)
	}

	sessionID := gjson.GetBytes(body, PathSessionID).String()
	if sessionID == "" {
		return "", apierrors.NewParseError("login response missing session ID", PathSessionID)
	}

	return sessionID, nil
}

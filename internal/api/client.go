package api

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"strings"
	"sync"

	tls_client "github.com/bogdanfinn/tls-client"
	"github.com/bogdanfinn/tls-client/profiles"
	"github.com/tidwall/gjson"

	"github.com/diogo/ragchat/internal/config"
	apierrors "github.com/diogo/ragchat/internal/errors"
	"github.com/diogo/ragchat/internal/models"
)

// clientTimeoutSeconds caps any single request at the HTTP client level.
// It must cover the slowest endpoint (reindexing); per-request deadlines
// from the endpoint timeout table are what callers actually hit.
const clientTimeoutSeconds = 520

// errorBodyLimit caps how much of an error response is kept for diagnostics.
const errorBodyLimit = 4096

// RagClient is the main client for the RAG chatbot backend
type RagClient struct {
	httpClient tls_client.HttpClient
	creds      *config.Credentials
	baseURL    string
	sessionID  string
	mu         sync.RWMutex
	closed     bool
}

// ClientOption is a function that configures the client
type ClientOption func(*RagClient)

// WithBaseURL overrides the backend base URL
func WithBaseURL(baseURL string) ClientOption {
	return func(c *RagClient) {
		c.baseURL = strings.TrimRight(baseURL, "/")
	}
}

// WithSessionID resumes an existing backend session instead of logging in
// for a fresh one
func WithSessionID(sessionID string) ClientOption {
	return func(c *RagClient) {
		c.sessionID = sessionID
	}
}

// WithHTTPClient substitutes the underlying HTTP client (used in tests)
func WithHTTPClient(httpClient tls_client.HttpClient) ClientOption {
	return func(c *RagClient) {
		c.httpClient = httpClient
	}
}

// NewClient creates a new RagClient
func NewClient(creds *config.Credentials, opts ...ClientOption) (*RagClient, error) {
	// Validate credentials
	if err := config.ValidateCredentials(creds); err != nil {
		return nil, err
	}

	client := &RagClient{
		creds:   creds,
		baseURL: config.DefaultAPIURL,
	}

	// Apply options
	for _, opt := range opts {
		opt(client)
	}

	if client.httpClient == nil {
		options := []tls_client.HttpClientOption{
			tls_client.WithTimeoutSeconds(clientTimeoutSeconds),
			tls_client.WithClientProfile(profiles.Chrome_120),
			tls_client.WithNotFollowRedirects(),
		}

		httpClient, err := tls_client.NewHttpClient(tls_client.NewNoopLogger(), options...)
		if err != nil {
			return nil, fmt.Errorf("failed to create HTTP client: %w", err)
		}
		client.httpClient = httpClient
	}

	return client, nil
}

// Init authenticates with the backend and stores the resulting session ID.
// A client resuming a session (WithSessionID) skips the login round trip.
func (c *RagClient) Init() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return fmt.Errorf("client is closed")
	}

	if c.sessionID != "" {
		return nil
	}

	sessionID, err := Login(c.httpClient, c.creds, c.baseURL)
	if err != nil {
		return err
	}
	c.sessionID = sessionID

	return nil
}

// Close shuts down the client
func (c *RagClient) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return
	}

	c.closed = true
	c.httpClient.CloseIdleConnections()
}

// GetSessionID returns the current backend session ID
func (c *RagClient) GetSessionID() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.sessionID
}

// SetSessionID replaces the backend session ID (for resuming conversations)
func (c *RagClient) SetSessionID(sessionID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sessionID = sessionID
}

// BaseURL returns the backend base URL
func (c *RagClient) BaseURL() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.baseURL
}

// GetCredentials returns the credentials the client authenticates with
func (c *RagClient) GetCredentials() *config.Credentials {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.creds
}

// GetHTTPClient returns the underlying HTTP client
func (c *RagClient) GetHTTPClient() tls_client.HttpClient {
	return c.httpClient
}

// IsClosed returns whether the client is closed
func (c *RagClient) IsClosed() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.closed
}

// StartChat creates a new chat session backed by this client
func (c *RagClient) StartChat() *ChatSession {
	return &ChatSession{
		client:     c,
		transcript: models.NewTranscript(),
	}
}

// StartChatWithOptions creates a chat session with extra configuration
func (c *RagClient) StartChatWithOptions(opts ...ChatOption) *ChatSession {
	s := c.StartChat()
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// relogin re-authenticates and swaps in a fresh session ID. Used to recover
// when the backend no longer recognizes the current session.
func (c *RagClient) relogin() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return fmt.Errorf("client is closed")
	}

	sessionID, err := Login(c.httpClient, c.creds, c.baseURL)
	if err != nil {
		return err
	}
	c.sessionID = sessionID

	return nil
}

// endpoint joins a backend path to the configured base URL
func (c *RagClient) endpoint(path string) string {
	return c.BaseURL() + path
}

// wrapTransportError converts a failure below the HTTP layer into the
// client's error taxonomy, separating timeouts from other network failures
func wrapTransportError(operation, endpoint string, err error) error {
	var netErr net.Error
	if errors.Is(err, context.DeadlineExceeded) || (errors.As(err, &netErr) && netErr.Timeout()) {
		timeoutErr := apierrors.NewTimeoutError(operation)
		timeoutErr.Endpoint = endpoint
		return timeoutErr
	}
	return apierrors.NewNetworkError(endpoint, err)
}

// readErrorBody reads at most errorBodyLimit bytes of an error response
func readErrorBody(r io.Reader) string {
	data, _ := io.ReadAll(io.LimitReader(r, errorBodyLimit))
	return string(data)
}

// errorDetail extracts the backend's explanation from an error response body.
// The backend wraps error messages in a "detail" field; bodies in any other
// shape are returned as-is.
func errorDetail(body string) string {
	if detail := gjson.Get(body, PathDetail); detail.Exists() {
		return detail.String()
	}
	return strings.TrimSpace(body)
}

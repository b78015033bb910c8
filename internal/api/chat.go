package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"

	http "github.com/bogdanfinn/fhttp"

	apierrors "github.com/diogo/ragchat/internal/errors"
	"github.com/diogo/ragchat/internal/models"
	"github.com/diogo/ragchat/pkg/blockstream"
)

// streamChunkSize is the read size used while draining the response stream.
// Fragment boundaries carry no meaning for the decoder, so the value only
// affects how often Feed is called.
const streamChunkSize = 4096

// chatRequest is the payload for the chat endpoint
type chatRequest struct {
	Message   string `json:"message"`
	SessionID string `json:"session_id"`
}

// ChatResponse is one assistant reply decoded from the response stream
type ChatResponse struct {
	// Blocks holds the decoded content blocks in stream order.
	Blocks blockstream.Blocks

	// Warnings collects recoverable stream conditions: individual blocks
	// that were skipped and a tail that was cut off mid-value. The blocks
	// above are complete and valid regardless.
	Warnings []error
}

// Text returns the markdown text of the reply, image blocks excluded
func (r *ChatResponse) Text() string {
	return r.Blocks.Text()
}

// Images returns the decoded image blocks in order
func (r *ChatResponse) Images() []blockstream.Image {
	return r.Blocks.Images()
}

// HasImages reports whether the reply carries at least one image
func (r *ChatResponse) HasImages() bool {
	return r.Blocks.HasImages()
}

// Truncated reports whether the stream ended mid-block
func (r *ChatResponse) Truncated() bool {
	for _, w := range r.Warnings {
		if blockstream.IsTruncated(w) {
			return true
		}
	}
	return false
}

// SendMessage posts a message and decodes the streamed reply. A session the
// backend no longer recognizes gets one transparent relogin before the
// request is retried.
func (c *RagClient) SendMessage(ctx context.Context, message string) (*ChatResponse, error) {
	if c.IsClosed() {
		return nil, fmt.Errorf("client is closed")
	}
	if message == "" {
		return nil, fmt.Errorf("message cannot be empty")
	}

	resp, err := c.doSendMessage(ctx, message)
	if err != nil && apierrors.IsAuthError(err) {
		if reloginErr := c.relogin(); reloginErr != nil {
			return nil, err
		}
		return c.doSendMessage(ctx, message)
	}
	return resp, err
}

func (c *RagClient) doSendMessage(ctx context.Context, message string) (*ChatResponse, error) {
	endpoint := c.endpoint(models.EndpointChat)

	payload, err := json.Marshal(chatRequest{
		Message:   message,
		SessionID: c.GetSessionID(),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to encode chat payload: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, models.TimeoutChat)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("failed to create chat request: %w", err)
	}

	for key, value := range models.JSONHeaders() {
		req.Header.Set(key, value)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, wrapTransportError("chat", endpoint, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized {
		body := readErrorBody(resp.Body)
		return nil, apierrors.NewAuthErrorWithEndpoint(errorDetail(body), endpoint)
	}
	if resp.StatusCode != http.StatusOK {
		body := readErrorBody(resp.Body)
		return nil, apierrors.NewAPIErrorWithBody(resp.StatusCode, endpoint, errorDetail(body), body)
	}

	return decodeBlockStream(resp.Body), nil
}

// decodeBlockStream drains a response body through the incremental block
// decoder. A connection dropped mid-stream is reported as a warning rather
// than an error: every block decoded before the drop is still delivered.
func decodeBlockStream(r io.Reader) *ChatResponse {
	response := &ChatResponse{}
	dec := blockstream.NewDecoder(blockstream.SinkFuncs{
		OnBlock: func(b blockstream.Block) {
			response.Blocks = append(response.Blocks, b)
		},
		OnWarning: func(err error) {
			response.Warnings = append(response.Warnings, err)
		},
	})

	buf := make([]byte, streamChunkSize)
	for {
		n, err := r.Read(buf)
		if n > 0 {
			// Feed only fails after Finish, which has not run yet.
			_ = dec.Feed(buf[:n])
		}
		if err == io.EOF {
			break
		}
		if err != nil {
			response.Warnings = append(response.Warnings,
				fmt.Errorf("response stream interrupted: %w", err))
			break
		}
	}

	if err := dec.Finish(); err != nil {
		response.Warnings = append(response.Warnings, err)
	}

	return response
}

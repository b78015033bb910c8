package api

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"testing"

	fhttp "github.com/bogdanfinn/fhttp"
	"github.com/tidwall/gjson"

	apierrors "github.com/diogo/ragchat/internal/errors"
	"github.com/diogo/ragchat/pkg/blockstream"
)

func TestSendMessage_TextBlocks(t *testing.T) {
	stream := `{"type": "text", "content": "Hello"}{"type": "text", "content": "World"}`
	mock := NewMockHttpClient([]byte(stream), 200)
	client := newTestClient(t, mock)

	resp, err := client.SendMessage(context.Background(), "hi there")
	if err != nil {
		t.Fatalf("SendMessage() unexpected error: %v", err)
	}

	if len(resp.Blocks) != 2 {
		t.Fatalf("got %d blocks, want 2", len(resp.Blocks))
	}
	if resp.Text() != "Hello\n\nWorld" {
		t.Errorf("Text() = %q, want %q", resp.Text(), "Hello\n\nWorld")
	}
	if len(resp.Warnings) != 0 {
		t.Errorf("got %d warnings, want 0: %v", len(resp.Warnings), resp.Warnings)
	}
	if resp.Truncated() {
		t.Error("Truncated() = true for clean stream")
	}

	req := mock.Requests[0]
	if req.URL.Path != "/chat" {
		t.Errorf("request path = %v, want /chat", req.URL.Path)
	}
	body := string(mock.RequestBodies[0])
	if got := gjson.Get(body, "message").String(); got != "hi there" {
		t.Errorf("payload message = %v, want hi there", got)
	}
	if got := gjson.Get(body, "session_id").String(); got != "sess-1" {
		t.Errorf("payload session_id = %v, want sess-1", got)
	}
}

func TestSendMessage_ImageBlock(t *testing.T) {
	pngBytes := []byte{0x89, 0x50, 0x4e, 0x47, 0x0d, 0x0a, 0x1a, 0x0a, 0x00, 0x00, 0x00, 0x0d}
	encoded := base64.StdEncoding.EncodeToString(pngBytes)
	stream := fmt.Sprintf(
		`{"type": "text", "content": "Here is the plot:"}{"type": "image", "content": "%s", "alt_text": "Revenue chart"}`,
		encoded)

	client := newTestClient(t, NewMockHttpClient([]byte(stream), 200))

	resp, err := client.SendMessage(context.Background(), "plot revenue")
	if err != nil {
		t.Fatalf("SendMessage() unexpected error: %v", err)
	}

	if len(resp.Blocks) != 2 {
		t.Fatalf("got %d blocks, want 2", len(resp.Blocks))
	}
	if !resp.HasImages() {
		t.Fatal("HasImages() = false, want true")
	}

	images := resp.Images()
	if len(images) != 1 {
		t.Fatalf("got %d images, want 1", len(images))
	}
	if string(images[0].Data) != string(pngBytes) {
		t.Error("image data does not round-trip through base64")
	}
	if images[0].AltText != "Revenue chart" {
		t.Errorf("AltText = %q, want %q", images[0].AltText, "Revenue chart")
	}

	// Text rendering skips image blocks
	if resp.Text() != "Here is the plot:" {
		t.Errorf("Text() = %q, want %q", resp.Text(), "Here is the plot:")
	}
}

func TestSendMessage_SingleByteFragments(t *testing.T) {
	stream := `{"type": "text", "content": "frag"}{"type": "text", "content": "mented"}`
	mock := &MockHttpClient{
		Response: &fhttp.Response{
			StatusCode: 200,
			Body:       NewChunkedResponseBody([]byte(stream), 1),
			Header:     make(fhttp.Header),
		},
	}
	client := newTestClient(t, mock)

	resp, err := client.SendMessage(context.Background(), "hi")
	if err != nil {
		t.Fatalf("SendMessage() unexpected error: %v", err)
	}

	if len(resp.Blocks) != 2 {
		t.Fatalf("got %d blocks, want 2", len(resp.Blocks))
	}
	if resp.Text() != "frag\n\nmented" {
		t.Errorf("Text() = %q, want %q", resp.Text(), "frag\n\nmented")
	}
	if len(resp.Warnings) != 0 {
		t.Errorf("got %d warnings, want 0", len(resp.Warnings))
	}
}

func TestSendMessage_MalformedBlockSkipped(t *testing.T) {
	stream := `{"type": "text", "content": "first"}` +
		`{"type": "video", "content": "nope"}` +
		`{"type": "text", "content": "second"}`
	client := newTestClient(t, NewMockHttpClient([]byte(stream), 200))

	resp, err := client.SendMessage(context.Background(), "hi")
	if err != nil {
		t.Fatalf("SendMessage() unexpected error: %v", err)
	}

	if len(resp.Blocks) != 2 {
		t.Fatalf("got %d blocks, want 2", len(resp.Blocks))
	}
	if resp.Text() != "first\n\nsecond" {
		t.Errorf("Text() = %q, want %q", resp.Text(), "first\n\nsecond")
	}

	if len(resp.Warnings) != 1 {
		t.Fatalf("got %d warnings, want 1", len(resp.Warnings))
	}
	if !blockstream.IsMalformedBlock(resp.Warnings[0]) {
		t.Errorf("warning = %v, want malformed block", resp.Warnings[0])
	}
	if resp.Truncated() {
		t.Error("Truncated() = true, want false for skipped block")
	}
}

func TestSendMessage_TruncatedStream(t *testing.T) {
	stream := `{"type": "text", "content": "complete"}{"type": "text", "content": "cut of`
	client := newTestClient(t, NewMockHttpClient([]byte(stream), 200))

	resp, err := client.SendMessage(context.Background(), "hi")
	if err != nil {
		t.Fatalf("SendMessage() unexpected error: %v", err)
	}

	if len(resp.Blocks) != 1 {
		t.Fatalf("got %d blocks, want 1", len(resp.Blocks))
	}
	if resp.Text() != "complete" {
		t.Errorf("Text() = %q, want %q", resp.Text(), "complete")
	}

	if !resp.Truncated() {
		t.Fatal("Truncated() = false, want true")
	}
	var truncErr *blockstream.TruncatedError
	found := false
	for _, w := range resp.Warnings {
		if errors.As(w, &truncErr) {
			found = true
		}
	}
	if !found {
		t.Fatalf("warnings %v missing TruncatedError", resp.Warnings)
	}
	if truncErr.Blocks != 1 {
		t.Errorf("TruncatedError.Blocks = %d, want 1", truncErr.Blocks)
	}
}

func TestSendMessage_StreamInterrupted(t *testing.T) {
	complete := `{"type": "text", "content": "saved"}`
	stream := complete + `{"type": "text", "content": "lost`
	mock := &MockHttpClient{
		Response: &fhttp.Response{
			StatusCode: 200,
			Body: NewFailingResponseBody([]byte(stream), len(complete)+10,
				errors.New("connection reset by peer")),
			Header: make(fhttp.Header),
		},
	}
	client := newTestClient(t, mock)

	resp, err := client.SendMessage(context.Background(), "hi")
	if err != nil {
		t.Fatalf("SendMessage() unexpected error: %v", err)
	}

	// Blocks decoded before the drop are still delivered
	if len(resp.Blocks) != 1 {
		t.Fatalf("got %d blocks, want 1", len(resp.Blocks))
	}
	if resp.Text() != "saved" {
		t.Errorf("Text() = %q, want %q", resp.Text(), "saved")
	}

	if len(resp.Warnings) == 0 {
		t.Fatal("expected warnings for interrupted stream")
	}
	if !resp.Truncated() {
		t.Error("Truncated() = false, want true: the tail never completed")
	}
}

func TestSendMessage_EmptyStream(t *testing.T) {
	client := newTestClient(t, NewMockHttpClient([]byte(""), 200))

	resp, err := client.SendMessage(context.Background(), "hi")
	if err != nil {
		t.Fatalf("SendMessage() unexpected error: %v", err)
	}

	if len(resp.Blocks) != 0 {
		t.Errorf("got %d blocks, want 0", len(resp.Blocks))
	}
	if len(resp.Warnings) != 0 {
		t.Errorf("got %d warnings, want 0", len(resp.Warnings))
	}
}

func TestSendMessage_HTTPError(t *testing.T) {
	client := newTestClient(t, NewMockHttpClient([]byte(`{"detail":"model overloaded"}`), 503))

	resp, err := client.SendMessage(context.Background(), "hi")
	if err == nil {
		t.Fatal("SendMessage() expected error but got none")
	}
	if resp != nil {
		t.Error("SendMessage() returned a partial response alongside an error")
	}

	var apiErr *apierrors.APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("error = %T, want *APIError", err)
	}
	if apiErr.StatusCode != 503 {
		t.Errorf("StatusCode = %d, want 503", apiErr.StatusCode)
	}
	if apiErr.Message != "model overloaded" {
		t.Errorf("Message = %v, want model overloaded", apiErr.Message)
	}
}

func TestSendMessage_ReloginRetry(t *testing.T) {
	mock := NewMockHttpClientWithResponses(
		NewMockResponse([]byte(`{"detail":"Invalid session ID"}`), 401),
		NewMockResponse([]byte(`{"session_id":"fresh-session"}`), 200),
		NewMockResponse([]byte(`{"type": "text", "content": "recovered"}`), 200),
	)
	client := newTestClient(t, mock)

	resp, err := client.SendMessage(context.Background(), "hi")
	if err != nil {
		t.Fatalf("SendMessage() unexpected error: %v", err)
	}
	if resp.Text() != "recovered" {
		t.Errorf("Text() = %q, want %q", resp.Text(), "recovered")
	}

	if client.GetSessionID() != "fresh-session" {
		t.Errorf("GetSessionID() = %v, want fresh-session", client.GetSessionID())
	}

	if len(mock.Requests) != 3 {
		t.Fatalf("got %d requests, want 3 (chat, login, chat)", len(mock.Requests))
	}
	wantPaths := []string{"/chat", "/login", "/chat"}
	for i, want := range wantPaths {
		if got := mock.Requests[i].URL.Path; got != want {
			t.Errorf("request %d path = %v, want %v", i, got, want)
		}
	}

	// The retried request carries the fresh session ID
	retryBody := string(mock.RequestBodies[2])
	if got := gjson.Get(retryBody, "session_id").String(); got != "fresh-session" {
		t.Errorf("retry session_id = %v, want fresh-session", got)
	}
}

func TestSendMessage_ReloginFails(t *testing.T) {
	mock := NewMockHttpClientWithResponses(
		NewMockResponse([]byte(`{"detail":"Invalid session ID"}`), 401),
		NewMockResponse([]byte(`{"detail":"Unauthorized"}`), 401),
	)
	client := newTestClient(t, mock)

	_, err := client.SendMessage(context.Background(), "hi")
	if err == nil {
		t.Fatal("SendMessage() expected error but got none")
	}
	if !apierrors.IsAuthError(err) {
		t.Errorf("error = %v, want auth error", err)
	}

	// One chat attempt, one failed login, no second chat attempt
	if len(mock.Requests) != 2 {
		t.Errorf("got %d requests, want 2", len(mock.Requests))
	}
}

func TestSendMessage_EmptyMessage(t *testing.T) {
	client := newTestClient(t, NewMockHttpClient(nil, 200))

	if _, err := client.SendMessage(context.Background(), ""); err == nil {
		t.Error("SendMessage(\"\") expected error but got none")
	}
}

func TestSendMessage_ClosedClient(t *testing.T) {
	client := newTestClient(t, NewMockHttpClient(nil, 200))
	client.Close()

	if _, err := client.SendMessage(context.Background(), "hi"); err == nil {
		t.Error("SendMessage() on closed client expected error but got none")
	}
}

func TestSendMessage_Timeout(t *testing.T) {
	client := newTestClient(t, NewMockHttpClientWithError(context.DeadlineExceeded))

	_, err := client.SendMessage(context.Background(), "hi")
	if err == nil {
		t.Fatal("SendMessage() expected error but got none")
	}
	if !apierrors.IsTimeoutError(err) {
		t.Errorf("error = %v, want timeout error", err)
	}
}

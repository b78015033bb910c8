package api

import (
	"context"

	"github.com/diogo/ragchat/internal/models"
)

// MockRagClient is a mock implementation of RagClientInterface for testing
type MockRagClient struct {
	// Mock return values
	InitErr          error
	SessionID        string
	IsClosedVal      bool
	ChatSession      *ChatSession
	SendMessageVal   *ChatResponse
	SendMessageErr   error
	RotateSessionVal string
	RotateSessionErr error
	SourcesVal       []models.Source
	SourcesErr       error
	DeleteSourceErr  error
	ReindexVal       string
	ReindexErr       error
	UploadSourceVal  *UploadedSource
	UploadSourceErr  error

	// Call counters/recorders
	InitCalled          bool
	CloseCalled         bool
	SendMessageCalled   bool
	SendMessageCount    int
	RotateSessionCalled bool
	LastMessage         string
	DeletedSources      []string
	UploadedPaths       []string
}

// Ensure MockRagClient implements RagClientInterface
var _ RagClientInterface = (*MockRagClient)(nil)

func (m *MockRagClient) Init() error {
	m.InitCalled = true
	return m.InitErr
}

func (m *MockRagClient) SendMessage(ctx context.Context, message string) (*ChatResponse, error) {
	m.SendMessageCalled = true
	m.SendMessageCount++
	m.LastMessage = message
	return m.SendMessageVal, m.SendMessageErr
}

func (m *MockRagClient) RotateSession() (string, error) {
	m.RotateSessionCalled = true
	if m.RotateSessionErr != nil {
		return "", m.RotateSessionErr
	}
	m.SessionID = m.RotateSessionVal
	return m.RotateSessionVal, nil
}

func (m *MockRagClient) StartChat() *ChatSession {
	if m.ChatSession != nil {
		return m.ChatSession
	}
	return &ChatSession{client: m, transcript: models.NewTranscript()}
}

func (m *MockRagClient) StartChatWithOptions(opts ...ChatOption) *ChatSession {
	if m.ChatSession != nil {
		return m.ChatSession
	}
	s := &ChatSession{client: m, transcript: models.NewTranscript()}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (m *MockRagClient) ListSources() ([]models.Source, error) {
	return m.SourcesVal, m.SourcesErr
}

func (m *MockRagClient) DeleteSource(filename string) error {
	if m.DeleteSourceErr != nil {
		return m.DeleteSourceErr
	}
	m.DeletedSources = append(m.DeletedSources, filename)
	return nil
}

func (m *MockRagClient) Reindex() (string, error) {
	return m.ReindexVal, m.ReindexErr
}

func (m *MockRagClient) UploadSource(path string) (*UploadedSource, error) {
	if m.UploadSourceErr != nil {
		return nil, m.UploadSourceErr
	}
	m.UploadedPaths = append(m.UploadedPaths, path)
	return m.UploadSourceVal, nil
}

func (m *MockRagClient) GetSessionID() string {
	return m.SessionID
}

func (m *MockRagClient) SetSessionID(sessionID string) {
	m.SessionID = sessionID
}

func (m *MockRagClient) Close() {
	m.CloseCalled = true
}

func (m *MockRagClient) IsClosed() bool {
	return m.IsClosedVal
}

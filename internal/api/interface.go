package api

import (
	"context"

	"github.com/diogo/ragchat/internal/models"
)

// RagClientInterface captures the client operations the chat session and the
// terminal UI depend on, so tests can substitute a mock for the real backend.
type RagClientInterface interface {
	// Init authenticates and establishes a backend session.
	Init() error

	// SendMessage posts one message and returns the decoded reply.
	SendMessage(ctx context.Context, message string) (*ChatResponse, error)

	// RotateSession swaps in a brand-new backend session ID.
	RotateSession() (string, error)

	// StartChat creates a chat session backed by this client.
	StartChat() *ChatSession

	// StartChatWithOptions creates a chat session with extra configuration.
	StartChatWithOptions(opts ...ChatOption) *ChatSession

	// ListSources returns the documents currently indexed for retrieval.
	ListSources() ([]models.Source, error)

	// DeleteSource removes one document from the retrieval index.
	DeleteSource(filename string) error

	// Reindex rebuilds the backend's retrieval index from its documents.
	Reindex() (string, error)

	// UploadSource uploads one document for indexing.
	UploadSource(path string) (*UploadedSource, error)

	// GetSessionID returns the current backend session ID.
	GetSessionID() string

	// SetSessionID replaces the backend session ID.
	SetSessionID(sessionID string)

	// Close shuts down the client.
	Close()

	// IsClosed reports whether the client is closed.
	IsClosed() bool
}

// Compile-time check that the real client satisfies the interface
var _ RagClientInterface = (*RagClient)(nil)

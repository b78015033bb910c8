package api

import (
	"context"
	"sync"

	"github.com/diogo/ragchat/internal/models"
)

// ChatOption is a function that configures a chat session
type ChatOption func(*ChatSession)

// WithTranscript seeds the session with previously saved turns, so a resumed
// conversation renders its full history
func WithTranscript(transcript *models.Transcript) ChatOption {
	return func(s *ChatSession) {
		if transcript != nil {
			s.transcript = transcript
		}
	}
}

// ChatSession tracks one conversation: the transcript of sealed turns plus
// the warnings from the latest exchange. The backend keys conversation state
// to the client's session ID, so the session itself sends no history.
type ChatSession struct {
	client RagClientInterface

	mu         sync.Mutex
	transcript *models.Transcript
	lastTurn   *models.Turn
	warnings   []error
}

// SendMessage posts a message and archives both sides of the exchange: the
// outgoing text as a sealed user turn, the decoded reply as a sealed
// assistant turn. On error the transcript is left untouched.
func (s *ChatSession) SendMessage(ctx context.Context, message string) (*models.Turn, error) {
	resp, err := s.client.SendMessage(ctx, message)
	if err != nil {
		return nil, err
	}

	turn := models.NewTurn(models.RoleAssistant)
	for _, b := range resp.Blocks {
		_ = turn.AppendBlock(b)
	}

	s.mu.Lock()
	transcript := s.transcript
	s.lastTurn = turn
	s.warnings = resp.Warnings
	s.mu.Unlock()

	transcript.Append(models.UserTurn(message))
	transcript.Append(turn)

	return turn, nil
}

// Transcript returns the session's conversation history
func (s *ChatSession) Transcript() *models.Transcript {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.transcript
}

// LastTurn returns the most recent assistant turn, or nil
func (s *ChatSession) LastTurn() *models.Turn {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastTurn
}

// Warnings returns the stream warnings from the latest exchange. Empty means
// the last reply decoded cleanly.
func (s *ChatSession) Warnings() []error {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]error, len(s.warnings))
	copy(out, s.warnings)
	return out
}

// Reset starts the conversation over: a fresh backend session ID and an
// empty transcript. The old transcript is abandoned, not saved.
func (s *ChatSession) Reset() error {
	if _, err := s.client.RotateSession(); err != nil {
		return err
	}

	s.mu.Lock()
	s.transcript = models.NewTranscript()
	s.lastTurn = nil
	s.warnings = nil
	s.mu.Unlock()

	return nil
}

// SessionID returns the backend session ID this conversation is keyed to
func (s *ChatSession) SessionID() string {
	return s.client.GetSessionID()
}

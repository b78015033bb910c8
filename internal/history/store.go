// Package history provides local conversation history storage.
package history

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/diogo/ragchat/internal/models"
)

// Conversation represents a complete chat conversation
type Conversation struct {
	ID        string         `json:"id"`
	Title     string         `json:"title"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	Turns     []*models.Turn `json:"turns"`

	// Backend session identifier for resuming
	SessionID string `json:"session_id,omitempty"`

	// Computed at list time from meta.json, not serialized
	IsFavorite bool `json:"-"`
	OrderIndex int  `json:"-"`
}

// Store manages conversation history persistence
type Store struct {
	baseDir string
	mu      sync.RWMutex
}

// NewStore creates a new history store
func NewStore(baseDir string) (*Store, error) {
	historyDir := filepath.Join(baseDir, "history")
	if err := os.MkdirAll(historyDir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create history directory: %w", err)
	}

	return &Store{
		baseDir: historyDir,
	}, nil
}

// CreateConversation creates a new conversation
func (s *Store) CreateConversation() (*Conversation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now()
	conv := &Conversation{
		ID:        generateConvID(),
		Title:     fmt.Sprintf("Chat %s", now.Format("2006-01-02 15:04")),
		CreatedAt: now,
		UpdatedAt: now,
		Turns:     []*models.Turn{},
	}

	if err := s.saveConversation(conv); err != nil {
		return nil, err
	}

	return conv, nil
}

// GetConversation retrieves a conversation by ID
func (s *Store) GetConversation(id string) (*Conversation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.loadConversation(id)
}

// ListConversations returns all conversations in display order: manually
// ordered ones first, then the rest by most recent. Takes the write lock
// because it may prune stale metadata entries.
func (s *Store) ListConversations() ([]*Conversation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	conversations, _, err := s.listLocked()
	return conversations, err
}

// listLocked loads all conversations, prunes orphaned metadata, applies the
// display order and populates the computed fields. Caller holds the write lock.
func (s *Store) listLocked() ([]*Conversation, *HistoryMeta, error) {
	entries, err := os.ReadDir(s.baseDir)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read history directory: %w", err)
	}

	existingIDs := make(map[string]bool)
	var conversations []*Conversation
	for _, entry := range entries {
		if entry.IsDir() || filepath.Ext(entry.Name()) != ".json" || entry.Name() == metaFileName {
			continue
		}

		id := entry.Name()[:len(entry.Name())-5] // Remove .json
		conv, err := s.loadConversation(id)
		if err != nil {
			continue // Skip corrupted files
		}
		existingIDs[id] = true
		conversations = append(conversations, conv)
	}

	meta, err := s.loadMeta()
	if err != nil {
		meta = newHistoryMeta()
	}

	// Drop metadata for conversations whose files are gone
	if s.cleanOrphanedMeta(meta, existingIDs) {
		_ = s.saveMeta(meta)
	}

	// Manually ordered conversations first, the rest by UpdatedAt descending
	orderIdx := make(map[string]int, len(meta.Order))
	for i, id := range meta.Order {
		orderIdx[id] = i
	}
	sort.SliceStable(conversations, func(i, j int) bool {
		oi, iOrdered := orderIdx[conversations[i].ID]
		oj, jOrdered := orderIdx[conversations[j].ID]
		switch {
		case iOrdered && jOrdered:
			return oi < oj
		case iOrdered:
			return true
		case jOrdered:
			return false
		default:
			return conversations[i].UpdatedAt.After(conversations[j].UpdatedAt)
		}
	})

	for i, conv := range conversations {
		conv.OrderIndex = i
		if m, ok := meta.Meta[conv.ID]; ok {
			conv.IsFavorite = m.IsFavorite
		}
	}

	return conversations, meta, nil
}

// AddTurn appends a turn to a conversation, sealing it first
func (s *Store) AddTurn(id string, turn *models.Turn) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	conv, err := s.loadConversation(id)
	if err != nil {
		return err
	}

	turn.Seal()
	conv.Turns = append(conv.Turns, turn)
	conv.UpdatedAt = time.Now()

	// Update title from first user turn if still default
	if turn.Role == models.RoleUser && len(conv.Turns) == 1 {
		conv.Title = titleFromText(turn.Text())
	}

	return s.saveConversation(conv)
}

// UpdateSessionID records the backend session for a conversation
func (s *Store) UpdateSessionID(id, sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	conv, err := s.loadConversation(id)
	if err != nil {
		return err
	}

	conv.SessionID = sessionID
	conv.UpdatedAt = time.Now()

	return s.saveConversation(conv)
}

// DeleteConversation removes a conversation
func (s *Store) DeleteConversation(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	path := s.conversationPath(id)
	if err := os.Remove(path); err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("conversation not found: %s", id)
		}
		return fmt.Errorf("failed to delete conversation: %w", err)
	}

	return s.removeFromMeta(id)
}

// UpdateTitle updates the title of a conversation
func (s *Store) UpdateTitle(id, title string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	conv, err := s.loadConversation(id)
	if err != nil {
		return err
	}

	conv.Title = title
	conv.UpdatedAt = time.Now()

	if err := s.saveConversation(conv); err != nil {
		return err
	}

	return s.updateTitleInMeta(id, title)
}

// ClearAll deletes all conversations
func (s *Store) ClearAll() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	entries, err := os.ReadDir(s.baseDir)
	if err != nil {
		return fmt.Errorf("failed to read history directory: %w", err)
	}

	for _, entry := range entries {
		if entry.IsDir() || filepath.Ext(entry.Name()) != ".json" {
			continue
		}

		path := filepath.Join(s.baseDir, entry.Name())
		if err := os.Remove(path); err != nil {
			return fmt.Errorf("failed to delete %s: %w", entry.Name(), err)
		}
	}

	return nil
}

// Internal methods

func (s *Store) conversationPath(id string) string {
	return filepath.Join(s.baseDir, id+".json")
}

func (s *Store) loadConversation(id string) (*Conversation, error) {
	path := s.conversationPath(id)

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("conversation not found: %s", id)
		}
		return nil, fmt.Errorf("failed to read conversation: %w", err)
	}

	var conv Conversation
	if err := json.Unmarshal(data, &conv); err != nil {
		return nil, fmt.Errorf("failed to parse conversation: %w", err)
	}

	// Archived turns are immutable; the flag is not serialized
	for _, turn := range conv.Turns {
		turn.Seal()
	}

	return &conv, nil
}

func (s *Store) saveConversation(conv *Conversation) error {
	data, err := json.MarshalIndent(conv, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal conversation: %w", err)
	}

	path := s.conversationPath(conv.ID)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write conversation: %w", err)
	}

	return nil
}

func generateConvID() string {
	return fmt.Sprintf("conv-%d", time.Now().UnixNano())
}

// titleFromText derives a list title from the first line of a prompt
func titleFromText(text string) string {
	title := strings.TrimSpace(text)
	if idx := strings.IndexByte(title, '\n'); idx >= 0 {
		title = strings.TrimSpace(title[:idx])
	}
	if len(title) > 50 {
		title = title[:50] + "..."
	}
	if title == "" {
		title = fmt.Sprintf("Chat %s", time.Now().Format("2006-01-02 15:04"))
	}
	return title
}

// GetHistoryDir returns the default history directory path
func GetHistoryDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}

	return filepath.Join(home, ".ragchat"), nil
}

// DefaultStore creates a store using the default location
func DefaultStore() (*Store, error) {
	dir, err := GetHistoryDir()
	if err != nil {
		return nil, err
	}
	return NewStore(dir)
}

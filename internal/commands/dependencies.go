package commands

import (
	"github.com/diogo/ragchat/internal/api"
	"github.com/diogo/ragchat/internal/history"
	"github.com/diogo/ragchat/internal/tui"
)

// TUIInterface defines the methods required from the TUI package.
type TUIInterface interface {
	RunSourcesTUI(client api.RagClientInterface) (tui.SourcesTUIResult, error)
	RunHistoryManager(store tui.HistoryManagerStore) (tui.HistoryManagerResult, error)
	RunHistorySelector(store tui.HistoryStore) (tui.HistorySelectorResult, error)
	RunChatWithConversation(client api.RagClientInterface, session tui.ChatSessionInterface, conv *history.Conversation, store tui.HistoryStoreInterface) error
}

// Dependencies holds the external dependencies for the commands.
// This allows for dependency injection and easier testing.
type Dependencies struct {
	// Client is the RAG backend client.
	Client api.RagClientInterface

	// TUI is the terminal user interface.
	TUI TUIInterface
}

// DefaultTUI is the production implementation of TUIInterface.
type DefaultTUI struct{}

func (d *DefaultTUI) RunSourcesTUI(client api.RagClientInterface) (tui.SourcesTUIResult, error) {
	return tui.RunSourcesTUI(client)
}

func (d *DefaultTUI) RunHistoryManager(store tui.HistoryManagerStore) (tui.HistoryManagerResult, error) {
	return tui.RunHistoryManager(store)
}

func (d *DefaultTUI) RunHistorySelector(store tui.HistoryStore) (tui.HistorySelectorResult, error) {
	return tui.RunHistorySelector(store)
}

func (d *DefaultTUI) RunChatWithConversation(client api.RagClientInterface, session tui.ChatSessionInterface, conv *history.Conversation, store tui.HistoryStoreInterface) error {
	return tui.RunChatWithConversation(client, session, conv, store)
}

// NewDependencies creates a new Dependencies struct with default implementations.
func NewDependencies() *Dependencies {
	return &Dependencies{
		TUI: &DefaultTUI{},
	}
}

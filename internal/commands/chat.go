package commands

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/diogo/ragchat/internal/api"
	"github.com/diogo/ragchat/internal/config"
	"github.com/diogo/ragchat/internal/history"
	"github.com/diogo/ragchat/internal/tui"
)

// Flags
var (
	chatContinueFlag bool
	chatResumeFlag   string
	chatNewFlag      bool
	chatPickFlag     bool
)

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Start an interactive chat session",
	Long: `Start an interactive chat session with the RAG backend.

Conversations are saved locally and can be resumed later:
  ragchat chat                  Start a new conversation
  ragchat chat --continue       Resume the most recent conversation
  ragchat chat --resume 2       Resume by reference (@last, index, title, ID)
  ragchat chat --pick           Pick a conversation from a list

Press Ctrl+C or Esc to end the session.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runChat(nil)
	},
}

func init() {
	chatCmd.Flags().BoolVarP(&chatContinueFlag, "continue", "c", false,
		"Resume the most recent conversation")
	chatCmd.Flags().StringVarP(&chatResumeFlag, "resume", "r", "",
		"Resume a conversation by reference (@last, index, title, or ID)")
	chatCmd.Flags().BoolVar(&chatNewFlag, "new", false,
		"Force a new conversation")
	chatCmd.Flags().BoolVarP(&chatPickFlag, "pick", "p", false,
		"Pick a conversation to resume from an interactive list")
}

func runChat(deps *Dependencies) error {
	cfg, _ := config.LoadConfig()

	// Determine which TUI implementation to use
	var tuiImpl TUIInterface = &DefaultTUI{}
	if deps != nil && deps.TUI != nil {
		tuiImpl = deps.TUI
	}

	// The picker runs before connecting so cancelling costs nothing
	var store *history.Store
	var picked *history.Conversation
	if chatPickFlag {
		var err error
		store, err = history.DefaultStore()
		if err != nil {
			return fmt.Errorf("failed to open history: %w", err)
		}
		sel, err := tuiImpl.RunHistorySelector(store)
		if err != nil {
			return fmt.Errorf("failed to run conversation picker: %w", err)
		}
		if !sel.Confirmed {
			return nil
		}
		picked = sel.Conversation // nil means start fresh
	}

	// Obtain client: injected for tests or built from stored credentials
	var client api.RagClientInterface
	if deps != nil && deps.Client != nil {
		client = deps.Client
	} else {
		creds, err := config.LoadCredentials()
		if err != nil {
			return err
		}

		c, err := api.NewClient(creds, api.WithBaseURL(getServerURL()))
		if err != nil {
			return fmt.Errorf("failed to create client: %w", err)
		}
		defer c.Close()

		// Initialize client with animation
		// Init() performs the login round trip and stores the session ID
		spin := newSpinner("Connecting to backend")
		spin.start()
		if err := c.Init(); err != nil {
			spin.stopWithError()
			fmt.Fprintln(os.Stderr, formatErrorMessage(err, "Failed to connect"))
			return fmt.Errorf("failed to connect: %w", err)
		}
		spin.stopWithSuccess("Connected")
		client = c
	}

	// Work out which conversation this session belongs to
	ref := chatResumeFlag
	if chatContinueFlag && ref == "" {
		ref = "@last"
	}
	if chatNewFlag {
		ref = ""
	}

	// Resuming persists regardless of the save_history setting: the
	// conversation already lives on disk.
	var conv *history.Conversation
	var histStore tui.HistoryStoreInterface
	if picked != nil {
		conv = picked
		histStore = store
	} else if ref != "" || cfg.SaveHistory {
		if store == nil {
			var err error
			store, err = history.DefaultStore()
			if err != nil {
				return fmt.Errorf("failed to open history: %w", err)
			}
		}

		var err error
		if ref != "" {
			conv, err = history.NewResolver(store).ResolveWithInfo(ref)
			if err != nil {
				return fmt.Errorf("cannot resume '%s': %w", ref, err)
			}
		} else {
			conv, err = store.CreateConversation()
			if err != nil {
				return fmt.Errorf("failed to create conversation: %w", err)
			}
		}
		histStore = store
	}

	session := createChatSession(client, conv)

	return tuiImpl.RunChatWithConversation(client, session, conv, histStore)
}

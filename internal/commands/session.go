package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/diogo/ragchat/internal/api"
	"github.com/diogo/ragchat/internal/config"
	"github.com/diogo/ragchat/internal/history"
	"github.com/diogo/ragchat/internal/models"
)

// createClientFunc is a variable that can be overridden for testing
var createClientFunc = func() (api.RagClientInterface, error) {
	return createClient()
}

// createClient builds and initializes a client from stored credentials
func createClient() (*api.RagClient, error) {
	creds, err := config.LoadCredentials()
	if err != nil {
		return nil, err
	}

	client, err := api.NewClient(creds, api.WithBaseURL(getServerURL()))
	if err != nil {
		return nil, fmt.Errorf("failed to create client: %w", err)
	}

	// Init() performs the login round trip and stores the session ID
	if err := client.Init(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect: %w", err)
	}

	return client, nil
}

// createChatSession builds a chat session, seeding it from a saved
// conversation when one is being resumed
func createChatSession(client api.RagClientInterface, conv *history.Conversation) *api.ChatSession {
	var opts []api.ChatOption
	if conv != nil {
		if len(conv.Turns) > 0 {
			opts = append(opts, api.WithTranscript(models.TranscriptFromTurns(conv.Turns)))
		}
		// Reattach to the backend session so the service keeps its
		// conversational memory for the resumed thread
		if conv.SessionID != "" {
			client.SetSessionID(conv.SessionID)
		}
	}
	return client.StartChatWithOptions(opts...)
}

var sessionCmd = &cobra.Command{
	Use:   "session",
	Short: "Show the backend session ID",
	Long: `The backend keeps per-session conversational memory keyed by a
session ID handed out at login. This command logs in and prints the
resulting ID. Saved conversations record their session ID so resuming
reattaches to the same memory.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runSessionShow(nil, args)
	},
}

var sessionNewCmd = &cobra.Command{
	Use:   "new",
	Short: "Rotate to a fresh backend session",
	Long: `Ask the backend for a brand-new session ID, dropping any
conversational memory held for the current one.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runSessionNew(nil, args)
	},
}

func init() {
	sessionCmd.AddCommand(sessionNewCmd)
}

func runSessionShow(deps *Dependencies, args []string) error {
	var client api.RagClientInterface
	var err error
	if deps != nil && deps.Client != nil {
		client = deps.Client
	} else {
		client, err = createClientFunc()
		if err != nil {
			return err
		}
		defer client.Close()
	}

	fmt.Printf("Session: %s\n", client.GetSessionID())
	fmt.Println("Start a fresh one with: ragchat session new")
	return nil
}

func runSessionNew(deps *Dependencies, args []string) error {
	var client api.RagClientInterface
	var err error
	if deps != nil && deps.Client != nil {
		client = deps.Client
	} else {
		client, err = createClientFunc()
		if err != nil {
			return err
		}
		defer client.Close()
	}

	sessionID, err := client.RotateSession()
	if err != nil {
		return fmt.Errorf("failed to rotate session: %w", err)
	}

	fmt.Printf("Session: %s\n", sessionID)
	return nil
}

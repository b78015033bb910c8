package commands

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/diogo/ragchat/internal/api"
	"github.com/diogo/ragchat/internal/config"
)

var (
	loginUsername string
	loginPassword string
	loginNoVerify bool
)

var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Store credentials for the RAG backend",
	Long: `Authenticate against the RAG backend and store the credentials locally.

The credentials are written to your config directory and reused by every
other command. By default the command verifies them with a login round
trip before saving.

Examples:
  ragchat login                     # Prompt for username and password
  ragchat login -u alice            # Prompt only for the password
  ragchat login -u alice -p secret  # Non-interactive (beware shell history)
  ragchat login --no-verify         # Save without contacting the backend`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runLogin(loginUsername, loginPassword)
	},
}

var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Delete stored credentials",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runLogout()
	},
}

func init() {
	loginCmd.Flags().StringVarP(&loginUsername, "username", "u", "",
		"Backend username")
	loginCmd.Flags().StringVarP(&loginPassword, "password", "p", "",
		"Backend password (prompted when omitted)")
	loginCmd.Flags().BoolVar(&loginNoVerify, "no-verify", false,
		"Skip the login round trip before saving")
}

func runLogin(username, password string) error {
	reader := bufio.NewReader(os.Stdin)

	if username == "" {
		fmt.Print("Username: ")
		line, err := reader.ReadString('\n')
		if err != nil {
			return fmt.Errorf("failed to read username: %w", err)
		}
		username = strings.TrimSpace(line)
	}
	if username == "" {
		return fmt.Errorf("username cannot be empty")
	}

	if password == "" {
		fmt.Print("Password: ")
		raw, err := term.ReadPassword(int(os.Stdin.Fd()))
		fmt.Println()
		if err != nil {
			return fmt.Errorf("failed to read password: %w", err)
		}
		password = string(raw)
	}
	if password == "" {
		return fmt.Errorf("password cannot be empty")
	}

	creds := &config.Credentials{
		Username: username,
		Password: password,
	}

	if !loginNoVerify {
		client, err := api.NewClient(creds, api.WithBaseURL(getServerURL()))
		if err != nil {
			return err
		}
		defer client.Close()

		spin := newSpinner("Verifying credentials")
		spin.start()
		if err := client.Init(); err != nil {
			spin.stopWithError()
			fmt.Fprintln(os.Stderr, formatErrorMessage(err, "Login failed"))
			return fmt.Errorf("login failed: %w", err)
		}
		spin.stopWithSuccess("Credentials verified")

		fmt.Printf("Session: %s...\n", truncateValue(client.GetSessionID(), 12))
	}

	if err := config.SaveCredentials(creds); err != nil {
		return fmt.Errorf("failed to save credentials: %w", err)
	}

	credsPath, _ := config.GetCredentialsPath()

	fmt.Printf("Logged in as %s\n", username)
	fmt.Printf("Credentials saved to: %s\n", credsPath)
	fmt.Println()
	fmt.Println("You can now use ragchat to query your documents!")

	return nil
}

func runLogout() error {
	if !config.HasCredentials() {
		fmt.Println("Not logged in.")
		return nil
	}

	if err := config.DeleteCredentials(); err != nil {
		return fmt.Errorf("failed to delete credentials: %w", err)
	}

	fmt.Println("Logged out. Stored credentials removed.")
	return nil
}

func truncateValue(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen]
}

// GetLoginCmd returns the login command (for testing)
func GetLoginCmd() *cobra.Command {
	return loginCmd
}

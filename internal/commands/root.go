// Package commands provides CLI commands for ragchat.
package commands

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/diogo/ragchat/internal/config"
)

var (
	// Global flags
	serverFlag     string
	profileFlag    string
	outputFlag     string
	fileFlag       string
	saveImagesFlag string

	// Version info (set at build time)
	Version   = "0.1.0"
	BuildTime = "unknown"
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "ragchat [message]",
	Short: "Terminal client for a RAG chat service",
	Long: `ragchat is a command-line client for a retrieval-augmented generation
(RAG) backend. It relays your questions to the service and renders
answers grounded in the documents you have indexed.

Examples:
  ragchat login                         Store backend credentials
  ragchat chat                          Start interactive chat
  ragchat sources                       Manage indexed documents
  ragchat "What does the contract say?" Send a single question
  ragchat -f question.md                Read question from file
  cat question.md | ragchat             Read question from stdin
  ragchat "Summarize it" -o answer.md   Save answer to file`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		// Check for version flag
		if v, _ := cmd.Flags().GetBool("version"); v {
			printVersion()
			return nil
		}

		// Check for stdin input
		stat, _ := os.Stdin.Stat()
		hasStdin := (stat.Mode() & os.ModeCharDevice) == 0

		// Decorations and spinners are suppressed when stdout is piped
		rawOutput := !isStdoutTTY()

		// Check for file input
		if fileFlag != "" {
			data, err := os.ReadFile(fileFlag)
			if err != nil {
				return fmt.Errorf("failed to read file: %w", err)
			}
			return runQuery(string(data), rawOutput)
		}

		// Check for stdin
		if hasStdin {
			data, err := io.ReadAll(os.Stdin)
			if err != nil {
				return fmt.Errorf("failed to read stdin: %w", err)
			}
			return runQuery(string(data), rawOutput)
		}

		// Check for positional argument
		if len(args) > 0 {
			return runQuery(args[0], rawOutput)
		}

		// No input - show help
		return cmd.Help()
	},
}

// Execute runs the root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show version information",
	Run: func(cmd *cobra.Command, args []string) {
		printVersion()
	},
}

func printVersion() {
	fmt.Printf("ragchat %s (built %s)\n", Version, BuildTime)
}

func init() {
	// Global flags
	rootCmd.PersistentFlags().StringVar(&serverFlag, "server", "",
		"Backend URL (overrides config and RAGCHAT_API_URL)")
	rootCmd.PersistentFlags().StringVar(&profileFlag, "profile", "",
		"Backend profile to use for this run (see 'ragchat profiles')")
	rootCmd.Flags().StringVarP(&outputFlag, "output", "o", "", "Save answer to file")
	rootCmd.Flags().StringVarP(&fileFlag, "file", "f", "", "Read question from file")
	rootCmd.Flags().StringVar(&saveImagesFlag, "save-images", "", "Save generated images to directory")
	rootCmd.Flags().BoolP("version", "v", false, "Show version and exit")

	// Add subcommands
	rootCmd.AddCommand(chatCmd)
	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(loginCmd)
	rootCmd.AddCommand(logoutCmd)
	rootCmd.AddCommand(sourcesCmd)
	rootCmd.AddCommand(historyCmd)
	rootCmd.AddCommand(sessionCmd)
	rootCmd.AddCommand(profilesCmd)
	rootCmd.AddCommand(versionCmd)
}

// getServerURL returns the backend URL to use, in precedence order:
// --server flag, --profile flag, config file (with RAGCHAT_API_URL
// override), built-in default.
func getServerURL() string {
	if serverFlag != "" {
		return strings.TrimRight(serverFlag, "/")
	}

	if profileFlag != "" {
		profile, err := config.GetProfile(profileFlag)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Warning: %v, falling back to configured backend\n", err)
		} else {
			return strings.TrimRight(profile.APIURL, "/")
		}
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		return config.DefaultAPIURL
	}

	return cfg.BaseURL()
}

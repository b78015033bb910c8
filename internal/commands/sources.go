package commands

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/diogo/ragchat/internal/api"
	"github.com/diogo/ragchat/internal/config"
	"github.com/diogo/ragchat/internal/history"
	"github.com/diogo/ragchat/internal/models"
	"github.com/diogo/ragchat/internal/tui"
)

// NewSourcesCmd creates a new sources command
func NewSourcesCmd(deps *Dependencies) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sources",
		Short: "Manage documents in the retrieval index",
		Long: `The backend answers questions from a set of uploaded documents.
This command manages that document set.

INTERACTIVE MODE (default):
  Run 'ragchat sources' to open the interactive manager where you can:
  - Browse indexed documents
  - Upload new documents
  - Delete documents
  - Rebuild the retrieval index
  - Jump straight into a chat

KEYBOARD SHORTCUTS (interactive mode):
  ↑↓       Navigate document list
  u        Upload a document
  d        Delete selected document
  i        Rebuild the retrieval index
  c        Start chatting
  r        Refresh the list
  q        Quit

QUICK START:
  ragchat sources                    # Open interactive manager
  ragchat sources upload report.pdf  # Upload from the command line
  ragchat sources reindex            # Make new uploads searchable`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSourcesInteractive(deps, args)
		},
	}

	cmd.AddCommand(NewSourcesListCmd(deps))
	cmd.AddCommand(NewSourcesUploadCmd(deps))
	cmd.AddCommand(NewSourcesDeleteCmd(deps))
	cmd.AddCommand(NewSourcesReindexCmd(deps))

	return cmd
}

// NewSourcesListCmd creates a new sources list command
func NewSourcesListCmd(deps *Dependencies) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List indexed documents",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSourcesList(deps, args)
		},
	}
}

// NewSourcesUploadCmd creates a new sources upload command
func NewSourcesUploadCmd(deps *Dependencies) *cobra.Command {
	return &cobra.Command{
		Use:     "upload <file>...",
		Aliases: []string{"add"},
		Short:   "Upload documents for indexing",
		Long: `Upload one or more documents to the backend.

Accepted types: ` + strings.Join(models.AllowedSourceTypes(), ", ") + `
Uploaded documents become searchable after the next reindex.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSourcesUpload(deps, args)
		},
	}
}

// NewSourcesDeleteCmd creates a new sources delete command
func NewSourcesDeleteCmd(deps *Dependencies) *cobra.Command {
	return &cobra.Command{
		Use:     "delete <filename>",
		Aliases: []string{"remove", "rm"},
		Short:   "Delete a document from the index",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSourcesDelete(deps, args)
		},
	}
}

// NewSourcesReindexCmd creates a new sources reindex command
func NewSourcesReindexCmd(deps *Dependencies) *cobra.Command {
	return &cobra.Command{
		Use:   "reindex",
		Short: "Rebuild the retrieval index",
		Long: `Rebuild the backend's retrieval index from its documents.

Indexing can take several minutes for large document sets. New uploads
are not searchable until this has run.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSourcesReindex(deps, args)
		},
	}
}

// Backward compatibility globals
var sourcesCmd = NewSourcesCmd(nil)
var sourcesListCmd = NewSourcesListCmd(nil)
var sourcesUploadCmd = NewSourcesUploadCmd(nil)
var sourcesDeleteCmd = NewSourcesDeleteCmd(nil)
var sourcesReindexCmd = NewSourcesReindexCmd(nil)

// runSourcesInteractive runs the interactive manager (default when no subcommand)
func runSourcesInteractive(deps *Dependencies, args []string) error {
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

	// Determine which TUI implementation to use
	var tuiImpl TUIInterface = &DefaultTUI{}
	if deps != nil && deps.TUI != nil {
		tuiImpl = deps.TUI
	}

	result, err := tuiImpl.RunSourcesTUI(client)
	if err != nil {
		return err
	}

	// Check if the user wants to start chatting over the documents
	if result.StartChat {
		conv, histStore := newSavedConversation()
		session := createChatSession(client, conv)
		return tuiImpl.RunChatWithConversation(client, session, conv, histStore)
	}

	return nil
}

func runSourcesList(deps *Dependencies, args []string) error {
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

	sources, err := client.ListSources()
	if err != nil {
		fmt.Fprintln(os.Stderr, formatErrorMessage(err, "Failed to list documents"))
		return fmt.Errorf("failed to list documents: %w", err)
	}

	if len(sources) == 0 {
		fmt.Println("No documents in the retrieval index.")
		fmt.Println()
		fmt.Println("Upload one with: ragchat sources upload <file>")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "#\tFILENAME\tTYPE")
	for i, source := range sources {
		fmt.Fprintf(w, "%d\t%s\t%s\n",
			i+1, source.Filename, models.SourceExtension(source.Filename))
	}
	w.Flush()

	fmt.Printf("\n%d of %d document slots used\n", len(sources), models.MaxSources)
	return nil
}

func runSourcesUpload(deps *Dependencies, args []string) error {
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

	// The backend caps the index size, so reject over-quota batches before
	// transferring anything.
	sources, err := client.ListSources()
	if err != nil {
		return fmt.Errorf("failed to list documents: %w", err)
	}
	if len(sources)+len(args) > models.MaxSources {
		return fmt.Errorf("cannot upload %d file(s): %d of %d document slots used",
			len(args), len(sources), models.MaxSources)
	}

	failed := 0
	for _, path := range args {
		name := filepath.Base(path)

		spin := newSpinner(fmt.Sprintf("Uploading %s", name))
		spin.start()
		source, err := client.UploadSource(path)
		if err != nil {
			spin.stopWithError()
			fmt.Fprintf(os.Stderr, "✗ %s: %v\n", name, err)
			failed++
			continue
		}
		spin.stopWithSuccess(fmt.Sprintf("%s (%s)", source.Filename, formatSize(source.Size)))
	}

	if failed > 0 {
		return fmt.Errorf("%d of %d upload(s) failed", failed, len(args))
	}

	fmt.Println()
	fmt.Println("Run 'ragchat sources reindex' to make the new documents searchable.")
	return nil
}

func runSourcesDelete(deps *Dependencies, args []string) error {
	filename := args[0]

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

	if err := client.DeleteSource(filename); err != nil {
		fmt.Fprintln(os.Stderr, formatErrorMessage(err, "Failed to delete document"))
		return fmt.Errorf("failed to delete document: %w", err)
	}

	fmt.Printf("Deleted '%s' from the index\n", filename)
	fmt.Println("Run 'ragchat sources reindex' to drop it from search results.")
	return nil
}

func runSourcesReindex(deps *Dependencies, args []string) error {
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

	spin := newSpinner("Rebuilding retrieval index (this can take a while)")
	spin.start()
	message, err := client.Reindex()
	if err != nil {
		spin.stopWithError()
		fmt.Fprintln(os.Stderr, formatErrorMessage(err, "Reindex failed"))
		return fmt.Errorf("reindex failed: %w", err)
	}
	spin.stopWithSuccess("Index rebuilt")

	if message != "" {
		fmt.Println(message)
	}
	return nil
}

// newSavedConversation creates a history record for a fresh chat when the
// save_history setting is on. Both results are nil when saving is off or
// the store is unavailable.
func newSavedConversation() (*history.Conversation, tui.HistoryStoreInterface) {
	cfg, err := config.LoadConfig()
	if err != nil || !cfg.SaveHistory {
		return nil, nil
	}
	store, err := history.DefaultStore()
	if err != nil {
		return nil, nil
	}
	conv, err := store.CreateConversation()
	if err != nil {
		return nil, nil
	}
	return conv, store
}

func formatSize(size int64) string {
	const (
		kb = 1024
		mb = 1024 * kb
	)
	switch {
	case size >= mb:
		return fmt.Sprintf("%.1f MB", float64(size)/float64(mb))
	case size >= kb:
		return fmt.Sprintf("%.1f KB", float64(size)/float64(kb))
	default:
		return fmt.Sprintf("%d B", size)
	}
}

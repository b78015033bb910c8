package commands

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/diogo/ragchat/internal/api"
	"github.com/diogo/ragchat/internal/history"
)

var (
	historyForceFlag     bool
	historyFavoritesFlag bool
	historyOutputFlag    string
	historyFormatFlag    string
	historyContentFlag   bool
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Manage saved conversations",
	Long: `Browse, search and manage conversations saved by the chat command.

Run without a subcommand to open the interactive conversation manager,
where Enter reopens a conversation in the chat TUI.

Most subcommands take a conversation reference <ref>:
  @last        Most recently updated conversation
  @first       Oldest conversation
  3            Index from 'ragchat history list'
  conv-...     Full conversation ID
  budget       Title substring (must match exactly one)

Examples:
  ragchat history
  ragchat history list
  ragchat history show @last
  ragchat history rename 2 "Quarterly report questions"
  ragchat history export @last -o chat.md
  ragchat history search budget --content`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runHistoryInteractive(nil)
	},
}

var historyListCmd = &cobra.Command{
	Use:   "list",
	Short: "List saved conversations",
	RunE:  runHistoryList,
}

var historyShowCmd = &cobra.Command{
	Use:   "show <ref>",
	Short: "Show a conversation",
	Args:  cobra.ExactArgs(1),
	RunE:  runHistoryShow,
}

var historyDeleteCmd = &cobra.Command{
	Use:   "delete <ref>",
	Short: "Delete a conversation",
	Args:  cobra.ExactArgs(1),
	RunE:  runHistoryDelete,
}

var historyClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Delete all conversations",
	RunE:  runHistoryClear,
}

var historyRenameCmd = &cobra.Command{
	Use:   "rename <ref> <title>",
	Short: "Rename a conversation",
	Args:  cobra.ExactArgs(2),
	RunE:  runHistoryRename,
}

var historyFavoriteCmd = &cobra.Command{
	Use:   "favorite <ref>",
	Short: "Toggle favorite status",
	Args:  cobra.ExactArgs(1),
	RunE:  runHistoryFavorite,
}

var historyExportCmd = &cobra.Command{
	Use:   "export <ref>",
	Short: "Export a conversation to Markdown or JSON",
	Args:  cobra.ExactArgs(1),
	RunE:  runHistoryExport,
}

var historySearchCmd = &cobra.Command{
	Use:   "search <query>",
	Short: "Search conversations",
	Args:  cobra.ExactArgs(1),
	RunE:  runHistorySearch,
}

func init() {
	historyCmd.AddCommand(historyListCmd)
	historyCmd.AddCommand(historyShowCmd)
	historyCmd.AddCommand(historyDeleteCmd)
	historyCmd.AddCommand(historyClearCmd)
	historyCmd.AddCommand(historyRenameCmd)
	historyCmd.AddCommand(historyFavoriteCmd)
	historyCmd.AddCommand(historyExportCmd)
	historyCmd.AddCommand(historySearchCmd)

	historyListCmd.Flags().BoolVar(&historyFavoritesFlag, "favorites", false,
		"Show only favorite conversations")
	historyDeleteCmd.Flags().BoolVarP(&historyForceFlag, "force", "f", false,
		"Skip confirmation")
	historyClearCmd.Flags().BoolVarP(&historyForceFlag, "force", "f", false,
		"Skip confirmation")
	historyExportCmd.Flags().StringVarP(&historyOutputFlag, "output", "o", "",
		"Write the export to a file instead of stdout")
	historyExportCmd.Flags().StringVar(&historyFormatFlag, "format", "",
		"Export format: markdown or json (default markdown, json for .json outputs)")
	historySearchCmd.Flags().BoolVar(&historyContentFlag, "content", false,
		"Search message content as well as titles")
}

// runHistoryInteractive opens the conversation manager. Picking a
// conversation reopens it in the chat TUI against a live session.
func runHistoryInteractive(deps *Dependencies) error {
	store, err := history.DefaultStore()
	if err != nil {
		return fmt.Errorf("failed to open history: %w", err)
	}

	// Determine which TUI implementation to use
	var tuiImpl TUIInterface = &DefaultTUI{}
	if deps != nil && deps.TUI != nil {
		tuiImpl = deps.TUI
	}

	result, err := tuiImpl.RunHistoryManager(store)
	if err != nil {
		return fmt.Errorf("failed to run history manager: %w", err)
	}
	if result.Conversation == nil {
		return nil
	}

	var client api.RagClientInterface
	if deps != nil && deps.Client != nil {
		client = deps.Client
	} else {
		client, err = createClientFunc()
		if err != nil {
			return err
		}
		defer client.Close()
	}

	session := createChatSession(client, result.Conversation)
	return tuiImpl.RunChatWithConversation(client, session, result.Conversation, store)
}

func runHistoryList(cmd *cobra.Command, args []string) error {
	store, err := history.DefaultStore()
	if err != nil {
		return fmt.Errorf("failed to open history: %w", err)
	}

	conversations, err := store.ListConversations()
	if err != nil {
		return fmt.Errorf("failed to list conversations: %w", err)
	}

	if historyFavoritesFlag {
		var favorites []*history.Conversation
		for _, conv := range conversations {
			if conv.IsFavorite {
				favorites = append(favorites, conv)
			}
		}
		conversations = favorites
	}

	if len(conversations) == 0 {
		if historyFavoritesFlag {
			fmt.Println("No favorite conversations.")
			return nil
		}
		fmt.Println("No conversation history found.")
		fmt.Println()
		fmt.Println("Start one with: ragchat chat")
		return nil
	}

	for _, conv := range conversations {
		star := " "
		if conv.IsFavorite {
			star = "★"
		}
		// OrderIndex keeps list positions stable under the favorites filter,
		// so a shown index always resolves to the same conversation.
		fmt.Printf("[%d] %s %s\n", conv.OrderIndex+1, star, truncate(conv.Title, 60))
		fmt.Printf("      %s • %s • %s\n",
			pluralize(len(conv.Turns), "msg", "msgs"),
			history.FormatRelativeTime(conv.UpdatedAt),
			conv.ID)
	}

	fmt.Printf("\n%d conversation(s)\n", len(conversations))
	return nil
}

func runHistoryShow(cmd *cobra.Command, args []string) error {
	store, err := history.DefaultStore()
	if err != nil {
		return fmt.Errorf("failed to open history: %w", err)
	}

	conv, err := history.NewResolver(store).ResolveWithInfo(args[0])
	if err != nil {
		return err
	}

	star := ""
	if conv.IsFavorite {
		star = " ★"
	}
	fmt.Printf("%s%s\n", conv.Title, star)
	fmt.Printf("ID:      %s\n", conv.ID)
	fmt.Printf("Created: %s\n", conv.CreatedAt.Format("2006-01-02 15:04:05"))
	fmt.Printf("Updated: %s\n", conv.UpdatedAt.Format("2006-01-02 15:04:05"))
	if conv.SessionID != "" {
		fmt.Printf("Session: %s...\n", truncateValue(conv.SessionID, 12))
	}
	fmt.Println()

	for _, turn := range conv.Turns {
		fmt.Printf("%s:\n", turn.Role.DisplayName())
		if text := turn.Text(); text != "" {
			for _, line := range strings.Split(text, "\n") {
				fmt.Printf("  %s\n", line)
			}
		}
		if n := len(turn.Images()); n > 0 {
			fmt.Printf("  [%d image(s), export with 'ragchat history export' to keep them]\n", n)
		}
		fmt.Println()
	}

	return nil
}

func runHistoryDelete(cmd *cobra.Command, args []string) error {
	store, err := history.DefaultStore()
	if err != nil {
		return fmt.Errorf("failed to open history: %w", err)
	}

	conv, err := history.NewResolver(store).ResolveWithInfo(args[0])
	if err != nil {
		return err
	}

	if !historyForceFlag {
		if !confirm(fmt.Sprintf("Delete '%s'?", conv.Title)) {
			fmt.Println("Cancelled.")
			return nil
		}
	}

	if err := store.DeleteConversation(conv.ID); err != nil {
		return fmt.Errorf("failed to delete conversation: %w", err)
	}

	fmt.Printf("✓ Deleted '%s'\n", conv.Title)
	return nil
}

func runHistoryClear(cmd *cobra.Command, args []string) error {
	store, err := history.DefaultStore()
	if err != nil {
		return fmt.Errorf("failed to open history: %w", err)
	}

	conversations, err := store.ListConversations()
	if err != nil {
		return fmt.Errorf("failed to list conversations: %w", err)
	}

	if len(conversations) == 0 {
		fmt.Println("No conversation history found.")
		return nil
	}

	if !historyForceFlag {
		if !confirm(fmt.Sprintf("Delete all %d conversation(s)?", len(conversations))) {
			fmt.Println("Cancelled.")
			return nil
		}
	}

	if err := store.ClearAll(); err != nil {
		return fmt.Errorf("failed to clear history: %w", err)
	}

	fmt.Printf("✓ Deleted %d conversation(s)\n", len(conversations))
	return nil
}

func runHistoryRename(cmd *cobra.Command, args []string) error {
	store, err := history.DefaultStore()
	if err != nil {
		return fmt.Errorf("failed to open history: %w", err)
	}

	conv, err := history.NewResolver(store).ResolveWithInfo(args[0])
	if err != nil {
		return err
	}

	title := strings.TrimSpace(args[1])
	if title == "" {
		return fmt.Errorf("title cannot be empty")
	}

	if err := store.UpdateTitle(conv.ID, title); err != nil {
		return fmt.Errorf("failed to rename conversation: %w", err)
	}

	fmt.Printf("✓ Renamed '%s' to '%s'\n", conv.Title, title)
	return nil
}

func runHistoryFavorite(cmd *cobra.Command, args []string) error {
	store, err := history.DefaultStore()
	if err != nil {
		return fmt.Errorf("failed to open history: %w", err)
	}

	conv, err := history.NewResolver(store).ResolveWithInfo(args[0])
	if err != nil {
		return err
	}

	isFavorite, err := store.ToggleFavorite(conv.ID)
	if err != nil {
		return fmt.Errorf("failed to update favorite: %w", err)
	}

	if isFavorite {
		fmt.Printf("★ '%s' added to favorites\n", conv.Title)
	} else {
		fmt.Printf("☆ '%s' removed from favorites\n", conv.Title)
	}
	return nil
}

func runHistoryExport(cmd *cobra.Command, args []string) error {
	store, err := history.DefaultStore()
	if err != nil {
		return fmt.Errorf("failed to open history: %w", err)
	}

	conv, err := history.NewResolver(store).ResolveWithInfo(args[0])
	if err != nil {
		return err
	}

	format := strings.ToLower(historyFormatFlag)
	if format == "" {
		format = "markdown"
		if strings.HasSuffix(strings.ToLower(historyOutputFlag), ".json") {
			format = "json"
		}
	}

	var data []byte
	switch format {
	case "markdown", "md":
		out, err := store.ExportToMarkdown(conv.ID)
		if err != nil {
			return fmt.Errorf("failed to export conversation: %w", err)
		}
		data = []byte(out)
	case "json":
		out, err := store.ExportToJSON(conv.ID)
		if err != nil {
			return fmt.Errorf("failed to export conversation: %w", err)
		}
		data = out
	default:
		return fmt.Errorf("unknown format %q (use markdown or json)", historyFormatFlag)
	}

	if historyOutputFlag != "" {
		if err := os.WriteFile(historyOutputFlag, data, 0o644); err != nil {
			return fmt.Errorf("failed to write export: %w", err)
		}
		fmt.Printf("✓ Exported '%s' to %s\n", conv.Title, historyOutputFlag)
		return nil
	}

	fmt.Print(string(data))
	return nil
}

func runHistorySearch(cmd *cobra.Command, args []string) error {
	store, err := history.DefaultStore()
	if err != nil {
		return fmt.Errorf("failed to open history: %w", err)
	}

	query := args[0]
	results, err := store.SearchConversations(query, historyContentFlag)
	if err != nil {
		return fmt.Errorf("search failed: %w", err)
	}

	if len(results) == 0 {
		fmt.Printf("No conversations matching '%s'\n", query)
		return nil
	}

	for _, result := range results {
		conv := result.Conversation
		star := " "
		if conv.IsFavorite {
			star = "★"
		}
		fmt.Printf("[%d] %s %s\n", conv.OrderIndex+1, star, truncate(conv.Title, 60))
		if result.MatchField == "content" {
			fmt.Printf("      %s\n", result.MatchSnippet)
		}
	}

	fmt.Printf("\n%d match(es)\n", len(results))
	return nil
}

// confirm asks a yes/no question on stdin. Anything but y/yes declines.
func confirm(prompt string) bool {
	fmt.Printf("%s [y/N]: ", prompt)
	reader := bufio.NewReader(os.Stdin)
	line, err := reader.ReadString('\n')
	if err != nil {
		return false
	}
	answer := strings.ToLower(strings.TrimSpace(line))
	return answer == "y" || answer == "yes"
}

// truncate shortens s for display, marking the cut with an ellipsis
func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}

func pluralize(n int, singular, plural string) string {
	if n == 1 {
		return fmt.Sprintf("%d %s", n, singular)
	}
	return fmt.Sprintf("%d %s", n, plural)
}

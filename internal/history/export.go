package history

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/diogo/ragchat/internal/models"
	"github.com/diogo/ragchat/pkg/blockstream"
)

// ExportFormat represents the format for exporting conversations
type ExportFormat string

const (
	ExportFormatMarkdown ExportFormat = "markdown"
	ExportFormatJSON     ExportFormat = "json"
)

// ExportOptions configures how conversations are exported
type ExportOptions struct {
	Format          ExportFormat
	IncludeMetadata bool // Include the backend session ID in JSON export
	EmbedImages     bool // Embed image blocks as data URIs in Markdown
}

// DefaultExportOptions returns sensible defaults for export
func DefaultExportOptions() ExportOptions {
	return ExportOptions{
		Format:          ExportFormatMarkdown,
		IncludeMetadata: false,
		EmbedImages:     true,
	}
}

// ExportToMarkdown exports a conversation to Markdown format
func (s *Store) ExportToMarkdown(id string) (string, error) {
	return s.ExportToMarkdownWithOptions(id, DefaultExportOptions())
}

// ExportToMarkdownWithOptions exports a conversation to Markdown with options
func (s *Store) ExportToMarkdownWithOptions(id string, opts ExportOptions) (string, error) {
	conv, err := s.GetConversation(id)
	if err != nil {
		return "", err
	}

	var sb strings.Builder

	// Header
	sb.WriteString("# ")
	sb.WriteString(conv.Title)
	sb.WriteString("\n\n")

	// Metadata
	sb.WriteString("**Created:** ")
	sb.WriteString(conv.CreatedAt.Format("2006-01-02 15:04:05"))
	sb.WriteString("\n")
	sb.WriteString("**Updated:** ")
	sb.WriteString(conv.UpdatedAt.Format("2006-01-02 15:04:05"))
	sb.WriteString("\n")
	sb.WriteString("**Turns:** ")
	sb.WriteString(fmt.Sprintf("%d", len(conv.Turns)))
	sb.WriteString("\n\n---\n\n")

	// Turns
	for i, turn := range conv.Turns {
		sb.WriteString("## ")
		sb.WriteString(turn.Role.DisplayName())
		if !turn.Timestamp.IsZero() {
			sb.WriteString(" (")
			sb.WriteString(turn.Timestamp.Format("15:04:05"))
			sb.WriteString(")")
		}
		sb.WriteString("\n\n")

		// Blocks in arrival order
		for j, block := range turn.Blocks {
			if j > 0 {
				sb.WriteString("\n\n")
			}
			switch b := block.(type) {
			case blockstream.Text:
				sb.WriteString(b.Content)
			case blockstream.Image:
				sb.WriteString(markdownImage(b, opts.EmbedImages))
			}
		}
		sb.WriteString("\n")

		// Separator between turns (except last)
		if i < len(conv.Turns)-1 {
			sb.WriteString("\n---\n\n")
		}
	}

	return sb.String(), nil
}

// markdownImage renders an image block for Markdown output
func markdownImage(img blockstream.Image, embed bool) string {
	if !embed || len(img.Data) == 0 {
		return fmt.Sprintf("*[image: %s]*", img.AltText)
	}
	mime := http.DetectContentType(img.Data)
	encoded := base64.StdEncoding.EncodeToString(img.Data)
	return fmt.Sprintf("![%s](data:%s;base64,%s)", img.AltText, mime, encoded)
}

// ExportToJSON exports a conversation to JSON format
func (s *Store) ExportToJSON(id string) ([]byte, error) {
	return s.ExportToJSONWithOptions(id, DefaultExportOptions())
}

// ExportToJSONWithOptions exports a conversation to JSON with options
func (s *Store) ExportToJSONWithOptions(id string, opts ExportOptions) ([]byte, error) {
	conv, err := s.GetConversation(id)
	if err != nil {
		return nil, err
	}

	// Create export structure
	type ExportTurn struct {
		Role      models.Role        `json:"role"`
		Blocks    blockstream.Blocks `json:"blocks"`
		Timestamp time.Time          `json:"timestamp"`
	}

	type ExportConversation struct {
		ID        string       `json:"id"`
		Title     string       `json:"title"`
		CreatedAt time.Time    `json:"created_at"`
		UpdatedAt time.Time    `json:"updated_at"`
		Turns     []ExportTurn `json:"turns"`
		// Backend metadata (optional)
		SessionID string `json:"session_id,omitempty"`
	}

	export := ExportConversation{
		ID:        conv.ID,
		Title:     conv.Title,
		CreatedAt: conv.CreatedAt,
		UpdatedAt: conv.UpdatedAt,
		Turns:     make([]ExportTurn, len(conv.Turns)),
	}

	// Include backend metadata if requested
	if opts.IncludeMetadata {
		export.SessionID = conv.SessionID
	}

	// Copy turns
	for i, turn := range conv.Turns {
		export.Turns[i] = ExportTurn{
			Role:      turn.Role,
			Blocks:    turn.Blocks,
			Timestamp: turn.Timestamp,
		}
	}

	return json.MarshalIndent(export, "", "  ")
}

// SearchResult represents a search match in conversations
type SearchResult struct {
	Conversation *Conversation
	MatchSnippet string // Snippet where the term was found
	MatchField   string // "title" or "content"
	MatchIndex   int    // Turn index if MatchField is "content", -1 for title
}

// SearchConversations searches for a query in conversation titles and optionally content
func (s *Store) SearchConversations(query string, searchContent bool) ([]*SearchResult, error) {
	conversations, err := s.ListConversations()
	if err != nil {
		return nil, err
	}

	queryLower := strings.ToLower(query)
	var results []*SearchResult

	for _, conv := range conversations {
		// Search in title
		if strings.Contains(strings.ToLower(conv.Title), queryLower) {
			results = append(results, &SearchResult{
				Conversation: conv,
				MatchSnippet: conv.Title,
				MatchField:   "title",
				MatchIndex:   -1,
			})
			continue // Don't search content if title matched
		}

		// Search in content if enabled
		if searchContent {
			for i, turn := range conv.Turns {
				content := turn.Text()
				if strings.Contains(strings.ToLower(content), queryLower) {
					// Extract snippet around match
					snippet := extractSnippet(content, query, 100)
					results = append(results, &SearchResult{
						Conversation: conv,
						MatchSnippet: snippet,
						MatchField:   "content",
						MatchIndex:   i,
					})
					break // Only one match per conversation
				}
			}
		}
	}

	return results, nil
}

// extractSnippet extracts a snippet around the first occurrence of query
func extractSnippet(content, query string, maxLen int) string {
	contentLower := strings.ToLower(content)
	queryLower := strings.ToLower(query)

	idx := strings.Index(contentLower, queryLower)
	if idx == -1 {
		// Shouldn't happen, but fallback to start
		if len(content) > maxLen {
			return content[:maxLen] + "..."
		}
		return content
	}

	// Calculate start and end positions
	half := maxLen / 2
	start := idx - half
	end := idx + len(query) + half

	if start < 0 {
		start = 0
		end = maxLen
	}
	if end > len(content) {
		end = len(content)
		start = end - maxLen
		if start < 0 {
			start = 0
		}
	}

	snippet := content[start:end]

	// Add ellipsis if truncated
	if start > 0 {
		snippet = "..." + snippet
	}
	if end < len(content) {
		snippet = snippet + "..."
	}

	return snippet
}

// FormatRelativeTime formats a time as a relative string like "há 2h" or "ontem"
func FormatRelativeTime(t time.Time) string {
	now := time.Now()
	diff := now.Sub(t)

	switch {
	case diff < time.Minute:
		return "agora"
	case diff < time.Hour:
		mins := int(diff.Minutes())
		if mins == 1 {
			return "há 1 min"
		}
		return fmt.Sprintf("há %d min", mins)
	case diff < 24*time.Hour:
		hours := int(diff.Hours())
		if hours == 1 {
			return "há 1h"
		}
		return fmt.Sprintf("há %dh", hours)
	case diff < 48*time.Hour:
		return "ontem"
	case diff < 7*24*time.Hour:
		days := int(diff.Hours() / 24)
		return fmt.Sprintf("há %d dias", days)
	case diff < 30*24*time.Hour:
		weeks := int(diff.Hours() / 24 / 7)
		if weeks == 1 {
			return "há 1 sem"
		}
		return fmt.Sprintf("há %d sem", weeks)
	default:
		months := int(diff.Hours() / 24 / 30)
		if months == 1 {
			return "há 1 mês"
		}
		if months < 12 {
			return fmt.Sprintf("há %d meses", months)
		}
		return t.Format("02/01/2006")
	}
}

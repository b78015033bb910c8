package tui

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/diogo/ragchat/internal/api"
	"github.com/diogo/ragchat/internal/models"
)

// sourcesView identifies which screen the sources manager is showing.
type sourcesView int

const (
	sourcesViewList sourcesView = iota
	sourcesViewUpload
	sourcesViewConfirmDelete
)

// sourcesLoadedMsg carries the result of fetching the document list.
type sourcesLoadedMsg struct {
	sources []models.Source
	err     error
}

// sourceUploadedMsg carries the result of an upload.
type sourceUploadedMsg struct {
	source *api.UploadedSource
	err    error
}

// sourceDeletedMsg carries the result of a delete.
type sourceDeletedMsg struct {
	filename string
	err      error
}

// reindexDoneMsg carries the result of rebuilding the retrieval index.
type reindexDoneMsg struct {
	message string
	err     error
}

// clearSourcesFeedbackMsg clears the transient feedback line.
type clearSourcesFeedbackMsg struct{}

// SourcesTUIResult reports what the user asked for when the manager exited.
type SourcesTUIResult struct {
	// StartChat is true when the user pressed 'c' to move into a chat
	// session against the current index.
	StartChat bool
}

// SourcesModel is the Bubble Tea model for the interactive document manager.
type SourcesModel struct {
	client api.RagClientInterface

	sources []models.Source
	cursor  int

	view        sourcesView
	uploadInput textinput.Model

	loading    bool
	loadingMsg string

	feedback      string
	feedbackIsErr bool

	err error

	width  int
	height int
	ready  bool

	startChat bool
}

// NewSourcesModel creates a document manager bound to the given client.
func NewSourcesModel(client api.RagClientInterface) SourcesModel {
	ti := textinput.New()
	ti.Placeholder = "/path/to/document.pdf"
	ti.CharLimit = 512
	ti.Width = 50

	return SourcesModel{
		client:      client,
		view:        sourcesViewList,
		uploadInput: ti,
		loading:     true,
		loadingMsg:  "Loading documents",
	}
}

// Init starts the initial document fetch.
func (m SourcesModel) Init() tea.Cmd {
	return m.loadSources()
}

// loadSources fetches the document list from the service.
func (m SourcesModel) loadSources() tea.Cmd {
	client := m.client
	return func() tea.Msg {
		sources, err := client.ListSources()
		return sourcesLoadedMsg{sources: sources, err: err}
	}
}

// uploadSource sends one file to the service index.
func (m SourcesModel) uploadSource(path string) tea.Cmd {
	client := m.client
	return func() tea.Msg {
		source, err := client.UploadSource(path)
		return sourceUploadedMsg{source: source, err: err}
	}
}

// deleteSource removes one document from the service index.
func (m SourcesModel) deleteSource(filename string) tea.Cmd {
	client := m.client
	return func() tea.Msg {
		err := client.DeleteSource(filename)
		return sourceDeletedMsg{filename: filename, err: err}
	}
}

// reindex rebuilds the retrieval index on the service.
func (m SourcesModel) reindex() tea.Cmd {
	client := m.client
	return func() tea.Msg {
		message, err := client.Reindex()
		return reindexDoneMsg{message: message, err: err}
	}
}

// setFeedback shows a transient status line and schedules its removal.
func (m *SourcesModel) setFeedback(text string, isErr bool) tea.Cmd {
	m.feedback = text
	m.feedbackIsErr = isErr
	return tea.Tick(2*time.Second, func(time.Time) tea.Msg {
		return clearSourcesFeedbackMsg{}
	})
}

// Update handles messages for the document manager.
func (m SourcesModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.ready = true
		return m, nil

	case sourcesLoadedMsg:
		m.loading = false
		if msg.err != nil {
			m.err = msg.err
			return m, nil
		}
		m.err = nil
		m.sources = msg.sources
		models.SortSources(m.sources)
		if m.cursor >= len(m.sources) {
			m.cursor = len(m.sources) - 1
		}
		if m.cursor < 0 {
			m.cursor = 0
		}
		return m, nil

	case sourceUploadedMsg:
		if msg.err != nil {
			m.loading = false
			return m, m.setFeedback(fmt.Sprintf("✗ Upload failed: %v", msg.err), true)
		}
		m.loadingMsg = "Refreshing documents"
		cmd := m.setFeedback(fmt.Sprintf("✓ Uploaded %s", msg.source.Filename), false)
		return m, tea.Batch(cmd, m.loadSources())

	case sourceDeletedMsg:
		if msg.err != nil {
			m.loading = false
			return m, m.setFeedback(fmt.Sprintf("✗ Delete failed: %v", msg.err), true)
		}
		m.loadingMsg = "Refreshing documents"
		cmd := m.setFeedback(fmt.Sprintf("✓ Deleted %s", msg.filename), false)
		return m, tea.Batch(cmd, m.loadSources())

	case reindexDoneMsg:
		m.loading = false
		if msg.err != nil {
			return m, m.setFeedback(fmt.Sprintf("✗ Reindex failed: %v", msg.err), true)
		}
		text := "✓ Index rebuilt"
		if msg.message != "" {
			text = "✓ " + msg.message
		}
		return m, m.setFeedback(text, false)

	case clearSourcesFeedbackMsg:
		m.feedback = ""
		m.feedbackIsErr = false
		return m, nil

	case tea.KeyMsg:
		switch m.view {
		case sourcesViewUpload:
			return m.updateUploadView(msg)
		case sourcesViewConfirmDelete:
			return m.updateConfirmDeleteView(msg)
		default:
			return m.updateListView(msg)
		}
	}

	return m, nil
}

// updateListView handles keys on the main document list.
func (m SourcesModel) updateListView(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c", "q", "esc":
		return m, tea.Quit

	case "up", "k":
		if len(m.sources) > 0 {
			m.cursor--
			if m.cursor < 0 {
				m.cursor = len(m.sources) - 1
			}
		}
		return m, nil

	case "down", "j":
		if len(m.sources) > 0 {
			m.cursor++
			if m.cursor >= len(m.sources) {
				m.cursor = 0
			}
		}
		return m, nil

	case "r":
		m.loading = true
		m.loadingMsg = "Refreshing documents"
		return m, m.loadSources()

	case "u":
		if m.loading {
			return m, nil
		}
		if len(m.sources) >= models.MaxSources {
			return m, m.setFeedback(
				fmt.Sprintf("✗ Document limit reached (%d of %d slots used)", len(m.sources), models.MaxSources), true)
		}
		m.view = sourcesViewUpload
		m.uploadInput.SetValue("")
		m.uploadInput.Focus()
		return m, textinput.Blink

	case "d":
		if m.loading || len(m.sources) == 0 {
			return m, nil
		}
		m.view = sourcesViewConfirmDelete
		return m, nil

	case "i":
		if m.loading {
			return m, nil
		}
		m.loading = true
		m.loadingMsg = "Rebuilding retrieval index (this can take a while)"
		return m, m.reindex()

	case "c":
		m.startChat = true
		return m, tea.Quit

	case "y":
		if len(m.sources) == 0 {
			return m, nil
		}
		name := m.sources[m.cursor].Filename
		if err := clipboard.WriteAll(name); err != nil {
			return m, m.setFeedback("✗ Clipboard unavailable", true)
		}
		return m, m.setFeedback(fmt.Sprintf("✓ Copied %s", name), false)
	}

	return m, nil
}

// updateUploadView handles keys while entering an upload path.
func (m SourcesModel) updateUploadView(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c":
		return m, tea.Quit

	case "esc":
		m.view = sourcesViewList
		m.uploadInput.Blur()
		return m, nil

	case "enter":
		path := strings.TrimSpace(m.uploadInput.Value())
		if path == "" {
			return m, m.setFeedback("✗ Enter a file path", true)
		}
		if !models.IsAllowedSourceType(path) {
			return m, m.setFeedback(
				fmt.Sprintf("✗ Unsupported type %q (accepted: %s)",
					filepath.Ext(path), strings.Join(models.AllowedSourceTypes(), ", ")), true)
		}
		m.view = sourcesViewList
		m.uploadInput.Blur()
		m.loading = true
		m.loadingMsg = fmt.Sprintf("Uploading %s", filepath.Base(path))
		return m, m.uploadSource(path)
	}

	var cmd tea.Cmd
	m.uploadInput, cmd = m.uploadInput.Update(msg)
	return m, cmd
}

// updateConfirmDeleteView handles the yes/no prompt before a delete.
func (m SourcesModel) updateConfirmDeleteView(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c":
		return m, tea.Quit

	case "y", "enter":
		m.view = sourcesViewList
		if len(m.sources) == 0 {
			return m, nil
		}
		name := m.sources[m.cursor].Filename
		m.loading = true
		m.loadingMsg = fmt.Sprintf("Deleting %s", name)
		return m, m.deleteSource(name)

	case "n", "esc", "q":
		m.view = sourcesViewList
		return m, nil
	}

	return m, nil
}

// View renders the document manager.
func (m SourcesModel) View() string {
	if !m.ready {
		return "Loading..."
	}

	var b strings.Builder

	b.WriteString(m.renderHeader())
	b.WriteString("\n\n")

	switch m.view {
	case sourcesViewUpload:
		b.WriteString(m.renderUploadView())
	case sourcesViewConfirmDelete:
		b.WriteString(m.renderConfirmDeleteView())
	default:
		b.WriteString(m.renderListView())
	}

	b.WriteString("\n")
	b.WriteString(m.renderStatusBar())

	return b.String()
}

// renderHeader renders the title line with the slot counter.
func (m SourcesModel) renderHeader() string {
	title := lipgloss.NewStyle().
		Foreground(colorPrimary).
		Bold(true).
		Render("✦ Documents")

	counter := lipgloss.NewStyle().
		Foreground(colorTextDim).
		Render(fmt.Sprintf("%d of %d slots used", len(m.sources), models.MaxSources))

	return "  " + title + "  " + counter
}

// renderListView renders the scrolling document list.
func (m SourcesModel) renderListView() string {
	var b strings.Builder

	if m.loading {
		b.WriteString(lipgloss.NewStyle().
			Foreground(colorSecondary).
			Render("  " + m.loadingMsg + "..."))
		b.WriteString("\n")
		return b.String()
	}

	if m.err != nil {
		b.WriteString(lipgloss.NewStyle().
			Foreground(colorError).
			Render(fmt.Sprintf("  ✗ %v", m.err)))
		b.WriteString("\n\n")
		b.WriteString(lipgloss.NewStyle().
			Foreground(colorTextDim).
			Render("  Press r to retry or q to quit"))
		b.WriteString("\n")
		return b.String()
	}

	if len(m.sources) == 0 {
		b.WriteString(lipgloss.NewStyle().
			Foreground(colorTextDim).
			Render("  No documents in the retrieval index."))
		b.WriteString("\n\n")
		b.WriteString(lipgloss.NewStyle().
			Foreground(colorTextDim).
			Render("  Press u to upload your first document."))
		b.WriteString("\n")
		return b.String()
	}

	// Scrolling window keeps the cursor visible on small terminals.
	visibleRows := m.height - 9
	if visibleRows < 3 {
		visibleRows = 3
	}
	start := 0
	if m.cursor >= visibleRows {
		start = m.cursor - visibleRows + 1
	}
	end := start + visibleRows
	if end > len(m.sources) {
		end = len(m.sources)
	}

	if start > 0 {
		b.WriteString(lipgloss.NewStyle().Foreground(colorTextMute).Render("  ↑ more"))
		b.WriteString("\n")
	}

	for i := start; i < end; i++ {
		source := m.sources[i]
		label := fmt.Sprintf("%s  %s",
			truncate(source.Filename, 48),
			lipgloss.NewStyle().Foreground(colorTextMute).Render("["+models.SourceExtension(source.Filename)+"]"))
		if i == m.cursor {
			b.WriteString(lipgloss.NewStyle().
				Foreground(colorAccent).
				Bold(true).
				Render("  ▸ " + label))
		} else {
			b.WriteString(lipgloss.NewStyle().
				Foreground(colorText).
				Render("    " + label))
		}
		b.WriteString("\n")
	}

	if end < len(m.sources) {
		b.WriteString(lipgloss.NewStyle().Foreground(colorTextMute).Render("  ↓ more"))
		b.WriteString("\n")
	}

	if m.feedback != "" {
		b.WriteString("\n")
		color := colorSecondary
		if m.feedbackIsErr {
			color = colorError
		}
		b.WriteString(lipgloss.NewStyle().Foreground(color).Render("  " + m.feedback))
		b.WriteString("\n")
	}

	return b.String()
}

// renderUploadView renders the upload path prompt.
func (m SourcesModel) renderUploadView() string {
	var b strings.Builder

	b.WriteString(lipgloss.NewStyle().
		Foreground(colorText).
		Bold(true).
		Render("  Upload a document"))
	b.WriteString("\n\n")
	b.WriteString("  " + m.uploadInput.View())
	b.WriteString("\n\n")
	b.WriteString(lipgloss.NewStyle().
		Foreground(colorTextDim).
		Render("  Accepted types: " + strings.Join(models.AllowedSourceTypes(), ", ")))
	b.WriteString("\n")

	if m.feedback != "" {
		b.WriteString("\n")
		color := colorSecondary
		if m.feedbackIsErr {
			color = colorError
		}
		b.WriteString(lipgloss.NewStyle().Foreground(color).Render("  " + m.feedback))
		b.WriteString("\n")
	}

	return b.String()
}

// renderConfirmDeleteView renders the delete confirmation prompt.
func (m SourcesModel) renderConfirmDeleteView() string {
	var b strings.Builder

	name := ""
	if m.cursor < len(m.sources) {
		name = m.sources[m.cursor].Filename
	}

	b.WriteString(lipgloss.NewStyle().
		Foreground(colorWarning).
		Bold(true).
		Render(fmt.Sprintf("  Delete %q from the index?", name)))
	b.WriteString("\n\n")
	b.WriteString(lipgloss.NewStyle().
		Foreground(colorTextDim).
		Render("  The document is removed from retrieval after the next reindex."))
	b.WriteString("\n")

	return b.String()
}

// renderStatusBar renders the shortcut bar for the current view.
func (m SourcesModel) renderStatusBar() string {
	var shortcuts []string

	switch m.view {
	case sourcesViewUpload:
		shortcuts = []string{"Enter Upload", "Esc Cancel"}
	case sourcesViewConfirmDelete:
		shortcuts = []string{"y Delete", "n Cancel"}
	default:
		shortcuts = []string{"↑↓ Navigate", "u Upload", "d Delete", "i Reindex", "c Chat", "r Refresh", "q Quit"}
	}

	return lipgloss.NewStyle().
		Foreground(colorTextMute).
		Render("  " + strings.Join(shortcuts, "  •  "))
}

// truncate shortens s to at most maxLen runes, appending "..." when cut.
func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	if maxLen <= 3 {
		return s[:maxLen]
	}
	return s[:maxLen-3] + "..."
}

// RunSourcesTUI starts the interactive document manager and reports how
// the user left it.
func RunSourcesTUI(client api.RagClientInterface) (SourcesTUIResult, error) {
	m := NewSourcesModel(client)
	p := tea.NewProgram(m, tea.WithAltScreen())

	finalModel, err := p.Run()
	if err != nil {
		return SourcesTUIResult{}, fmt.Errorf("failed to run documents TUI: %w", err)
	}

	var result SourcesTUIResult
	if sm, ok := finalModel.(SourcesModel); ok {
		result.StartChat = sm.startChat
	}
	return result, nil
}

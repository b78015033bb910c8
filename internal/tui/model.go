package tui

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/diogo/ragchat/internal/api"
	"github.com/diogo/ragchat/internal/config"
	apierrors "github.com/diogo/ragchat/internal/errors"
	"github.com/diogo/ragchat/internal/history"
	"github.com/diogo/ragchat/internal/models"
	"github.com/diogo/ragchat/internal/render"
	"github.com/diogo/ragchat/pkg/blockstream"
)

// Animation tick message
type animationTickMsg time.Time

// Message types for the TUI
type (
	responseMsg struct {
		turn     *models.Turn
		warnings []error
	}
	errMsg struct {
		err error
	}
	// imagesSavedMsg is sent when an image save attempt finishes
	imagesSavedMsg struct {
		paths []string
		err   error
	}
	// sessionResetMsg is sent when the backend session rotation finishes
	sessionResetMsg struct {
		err error
	}
)

// ChatSessionInterface defines the chat session operations needed by the TUI
type ChatSessionInterface interface {
	SendMessage(ctx context.Context, message string) (*models.Turn, error)
	Warnings() []error
	Transcript() *models.Transcript
	Reset() error
	SessionID() string
}

var _ ChatSessionInterface = (*api.ChatSession)(nil)

// HistoryStoreInterface defines the history operations needed by the TUI
type HistoryStoreInterface interface {
	CreateConversation() (*history.Conversation, error)
	AddTurn(id string, turn *models.Turn) error
	UpdateSessionID(id, sessionID string) error
	UpdateTitle(id, title string) error
}

var _ HistoryStoreInterface = (*history.Store)(nil)

// Model represents the chat TUI state
type Model struct {
	client  api.RagClientInterface
	session ChatSessionInterface

	// UI components
	viewport viewport.Model
	textarea textarea.Model
	spinner  spinner.Model

	// State
	messages       []chatMessage
	loading        bool
	ready          bool
	err            error
	animationFrame int // Frame counter for loading animation
	notice         string

	// Image selection state
	selectingImages bool
	imageSelector   ImageSelectorModel

	// History/conversation state
	conversation *history.Conversation // Current conversation (nil for unsaved)
	historyStore HistoryStoreInterface // Store for persisting turns

	// Display name for the user's side of the transcript
	username string

	// Dimensions
	width  int
	height int
}

// chatMessage represents a message in the chat
type chatMessage struct {
	role     string // "user" or "assistant"
	content  string
	blocks   blockstream.Blocks // assistant only, in arrival order
	warnings []string
}

// messageFromTurn converts a saved turn into a renderable message
func messageFromTurn(turn *models.Turn) chatMessage {
	role := "assistant"
	if turn.Role == models.RoleUser {
		role = "user"
	}
	return chatMessage{
		role:    role,
		content: turn.Text(),
		blocks:  turn.Blocks,
	}
}

// NewChatModel creates a chat TUI model with a fresh session
func NewChatModel(client api.RagClientInterface) Model {
	return NewChatModelWithConversation(client, client.StartChat(), nil, nil)
}

// NewChatModelWithConversation creates a chat TUI model bound to a saved
// conversation. Both conv and store may be nil for an unsaved chat.
func NewChatModelWithConversation(client api.RagClientInterface, session ChatSessionInterface, conv *history.Conversation, store HistoryStoreInterface) Model {
	// Create textarea for input
	ta := textarea.New()
	ta.Placeholder = "Ask about your documents..."
	ta.CharLimit = 4000
	ta.ShowLineNumbers = false
	ta.SetHeight(2)
	ta.Focus()

	// Style the textarea
	ta.FocusedStyle.CursorLine = lipgloss.NewStyle()
	ta.FocusedStyle.Base = lipgloss.NewStyle().Foreground(colorText)
	ta.FocusedStyle.Placeholder = lipgloss.NewStyle().Foreground(colorTextDim)
	ta.BlurredStyle = ta.FocusedStyle

	// Create spinner
	s := spinner.New()
	s.Spinner = spinner.Points
	s.Style = loadingStyle

	// Rebuild the message list from previously saved turns
	var messages []chatMessage
	if conv != nil {
		for _, turn := range conv.Turns {
			messages = append(messages, messageFromTurn(turn))
		}
	}

	return Model{
		client:       client,
		session:      session,
		textarea:     ta,
		spinner:      s,
		messages:     messages,
		conversation: conv,
		historyStore: store,
		username:     displayUsername(),
	}
}

// displayUsername returns the configured display name, or "You"
func displayUsername() string {
	cfg, err := config.LoadConfig()
	if err != nil || cfg.Username == "" {
		return "You"
	}
	return cfg.Username
}

// Init initializes the model
func (m Model) Init() tea.Cmd {
	return tea.Batch(
		textarea.Blink,
		m.spinner.Tick,
	)
}

// animationTick returns a command that sends animation tick messages
func animationTick() tea.Cmd {
	return tea.Tick(time.Millisecond*80, func(t time.Time) tea.Msg {
		return animationTickMsg(t)
	})
}

// Update handles messages and updates the model
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd
	var cmd tea.Cmd

	// Handle image selection mode
	if m.selectingImages {
		return m.updateImageSelection(msg)
	}

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height

		// Calculate component heights
		headerHeight := 4 // Header panel with border
		inputHeight := 6  // Input panel with border
		statusHeight := 1 // Status bar
		padding := 2      // Extra spacing

		vpHeight := m.height - headerHeight - inputHeight - statusHeight - padding
		if vpHeight < 5 {
			vpHeight = 5
		}

		contentWidth := m.width - 4

		// Initialize viewport on first size message
		if !m.ready {
			m.viewport = viewport.New(contentWidth, vpHeight)
			m.textarea.SetWidth(contentWidth - 4)
			m.ready = true
		} else {
			m.viewport.Width = contentWidth
			m.viewport.Height = vpHeight
			m.textarea.SetWidth(contentWidth - 4)
		}
		m.updateViewport()

	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c":
			return m, tea.Quit

		case "esc":
			if m.loading {
				m.loading = false
			} else {
				return m, tea.Quit
			}

		case "ctrl+y":
			if text := m.lastAssistantText(); text != "" {
				if err := clipboard.WriteAll(text); err != nil {
					m.notice = "Clipboard unavailable"
				} else {
					m.notice = "✓ Answer copied to clipboard"
				}
			}

		case "ctrl+s":
			images := m.lastAssistantBlocks().Images()
			if len(images) == 0 {
				m.notice = "No images in the last answer"
			} else {
				m.imageSelector = NewImageSelectorModel(images, imageSaveDir())
				m.selectingImages = true
			}

		case "ctrl+n":
			if !m.loading {
				m.loading = true
				m.err = nil
				m.animationFrame = 0
				return m, tea.Batch(m.resetSession(), m.spinner.Tick, animationTick())
			}

		case "enter":
			if !m.loading && strings.TrimSpace(m.textarea.Value()) != "" {
				// Check for exit commands
				input := strings.TrimSpace(m.textarea.Value())
				if input == "exit" || input == "quit" || input == "/exit" || input == "/quit" {
					return m, tea.Quit
				}

				// Check for /new command
				if input == "/new" || input == "/reset" {
					m.textarea.Reset()
					m.loading = true
					m.err = nil
					m.animationFrame = 0
					return m, tea.Batch(m.resetSession(), m.spinner.Tick, animationTick())
				}

				// Add user message
				m.messages = append(m.messages, chatMessage{
					role:    "user",
					content: input,
				})
				m.persistUserTurn(input)
				m.updateViewport()
				m.viewport.GotoBottom()

				// Start loading
				m.loading = true
				m.err = nil
				m.notice = ""
				m.animationFrame = 0
				m.textarea.Reset()

				cmd = m.sendMessage(input)

				return m, tea.Batch(
					cmd,
					m.spinner.Tick,
					animationTick(),
				)
			}
		}

	case responseMsg:
		m.loading = false
		entry := chatMessage{
			role:    "assistant",
			content: msg.turn.Text(),
			blocks:  msg.turn.Blocks,
		}
		for _, warn := range msg.warnings {
			entry.warnings = append(entry.warnings, warn.Error())
		}
		m.messages = append(m.messages, entry)
		m.persistAssistantTurn(msg.turn)
		m.updateViewport()
		m.viewport.GotoBottom()

	case errMsg:
		m.loading = false
		m.err = msg.err

	case imagesSavedMsg:
		if msg.err != nil {
			m.notice = fmt.Sprintf("✗ Failed to save images: %v", msg.err)
		} else if len(msg.paths) > 0 {
			m.notice = fmt.Sprintf("✓ Saved %d image(s) to %s", len(msg.paths), filepath.Dir(msg.paths[0]))
		}

	case sessionResetMsg:
		m.loading = false
		if msg.err != nil {
			m.err = msg.err
		} else {
			m.messages = nil
			m.err = nil
			m.notice = "✓ Started a new conversation"
			// Saved chats roll over into a fresh conversation record so the
			// finished one stays intact in history
			if m.historyStore != nil {
				if conv, err := m.historyStore.CreateConversation(); err == nil {
					m.conversation = conv
					_ = m.historyStore.UpdateSessionID(conv.ID, m.session.SessionID())
				}
			}
			m.updateViewport()
		}

	case spinner.TickMsg:
		if m.loading {
			m.spinner, cmd = m.spinner.Update(msg)
			cmds = append(cmds, cmd)
		}

	case animationTickMsg:
		if m.loading {
			m.animationFrame++
			cmds = append(cmds, animationTick())
		}
	}

	// Update child components - only pass KeyMsg to textarea to prevent escape sequence leaks
	if !m.loading {
		if _, ok := msg.(tea.KeyMsg); ok {
			m.textarea, cmd = m.textarea.Update(msg)
			cmds = append(cmds, cmd)
		}
	}

	m.viewport, cmd = m.viewport.Update(msg)
	cmds = append(cmds, cmd)

	return m, tea.Batch(cmds...)
}

// View renders the TUI
func (m Model) View() string {
	if !m.ready {
		return loadingStyle.Render("  Initializing...")
	}

	// If selecting images, show the selector overlay
	if m.selectingImages {
		return m.imageSelector.View()
	}

	var sections []string
	contentWidth := m.width - 4

	// Header
	headerParts := []string{
		titleStyle.Render("✦ ragchat"),
	}
	if m.conversation != nil {
		headerParts = append(headerParts,
			hintStyle.Render("  •  "),
			subtitleStyle.Render(m.conversation.Title),
		)
	}
	headerContent := lipgloss.JoinHorizontal(lipgloss.Center, headerParts...)
	header := headerStyle.Width(contentWidth).Render(headerContent)
	sections = append(sections, header)

	// Messages area
	var messagesContent string
	if len(m.messages) == 0 {
		// Welcome message when empty
		messagesContent = m.renderWelcome()
	} else {
		messagesContent = m.viewport.View()
	}

	messagesPanel := messagesAreaStyle.
		Width(contentWidth).
		Height(m.viewport.Height).
		Render(messagesContent)
	sections = append(sections, messagesPanel)

	// Input area
	var inputContent string
	if m.loading {
		// Use colorful animated loading indicator
		inputContent = m.renderLoadingAnimation()
	} else {
		inputContent = lipgloss.JoinVertical(
			lipgloss.Left,
			inputLabelStyle.Render(m.username),
			m.textarea.View(),
		)
	}

	inputPanel := inputPanelStyle.Width(contentWidth).Render(inputContent)
	sections = append(sections, inputPanel)

	// Status bar
	statusBar := m.renderStatusBar(contentWidth)
	sections = append(sections, statusBar)

	// Transient feedback (clipboard, saved images)
	if m.notice != "" {
		sections = append(sections, hintStyle.Render("  "+m.notice))
	}

	// Error display
	if m.err != nil {
		errorDisplay := m.formatError(m.err)
		sections = append(sections, errorDisplay)
	}

	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

// renderWelcome renders the welcome screen when no messages exist
func (m Model) renderWelcome() string {
	width := m.viewport.Width - 4
	height := m.viewport.Height

	icon := welcomeIconStyle.Width(width).Render("✦")
	title := welcomeTitleStyle.Width(width).Render("Welcome to ragchat")
	subtitle := welcomeStyle.Width(width).Render("Ask a question about your indexed documents")

	content := lipgloss.JoinVertical(
		lipgloss.Center,
		"",
		icon,
		"",
		title,
		"",
		subtitle,
		"",
	)

	// Center vertically
	contentHeight := lipgloss.Height(content)
	topPadding := (height - contentHeight) / 2
	if topPadding < 0 {
		topPadding = 0
	}

	return strings.Repeat("\n", topPadding) + content
}

// renderLoadingAnimation renders a colorful animated loading indicator
func (m Model) renderLoadingAnimation() string {
	// Animation characters
	chars := []string{"⣾", "⣽", "⣻", "⢿", "⡿", "⣟", "⣯", "⣷"}
	barChars := []string{"█", "█", "█", "█", "█", "█", "█", "█", "▓", "▒", "░"}

	// Get current animation frame
	frame := m.animationFrame

	// Render spinning character with color
	spinIdx := frame % len(chars)
	spinColor := gradientColors[frame%len(gradientColors)]
	spin := lipgloss.NewStyle().Foreground(spinColor).Bold(true).Render(chars[spinIdx])

	// Render animated bar with gradient
	barWidth := 20
	var bar strings.Builder
	for i := 0; i < barWidth; i++ {
		// Calculate which color to use based on position and frame
		colorIdx := (i + frame) % len(gradientColors)
		charIdx := (i + frame/2) % len(barChars)

		style := lipgloss.NewStyle().Foreground(gradientColors[colorIdx])
		bar.WriteString(style.Render(barChars[charIdx]))
	}

	// Animated dots
	dots := ""
	numDots := (frame / 3) % 4
	for i := 0; i < numDots; i++ {
		dotColor := gradientColors[(frame+i)%len(gradientColors)]
		dots += lipgloss.NewStyle().Foreground(dotColor).Render("●")
	}
	for i := numDots; i < 3; i++ {
		dots += lipgloss.NewStyle().Foreground(colorTextMute).Render("○")
	}

	// Combine elements
	text := lipgloss.NewStyle().Foreground(colorText).Render(" Searching your documents ")

	return fmt.Sprintf("%s %s %s %s", spin, bar.String(), text, dots)
}

// renderStatusBar renders the bottom status bar with shortcuts
func (m Model) renderStatusBar(width int) string {
	shortcuts := []struct {
		key  string
		desc string
	}{
		{"Enter", "Send"},
		{"Ctrl+N", "New"},
		{"Ctrl+Y", "Copy"},
		{"Ctrl+S", "Images"},
		{"Esc", "Quit"},
		{"↑↓", "Scroll"},
	}

	var items []string
	for _, s := range shortcuts {
		item := lipgloss.JoinHorizontal(
			lipgloss.Center,
			statusKeyStyle.Render(s.key),
			statusDescStyle.Render(" "+s.desc),
		)
		items = append(items, item)
	}

	bar := lipgloss.JoinHorizontal(lipgloss.Center, strings.Join(items, "  │  "))
	return statusBarStyle.Width(width).Align(lipgloss.Center).Render(bar)
}

// sendMessage creates a command that relays the message to the backend
func (m Model) sendMessage(prompt string) tea.Cmd {
	return func() tea.Msg {
		turn, err := m.session.SendMessage(context.Background(), prompt)
		if err != nil {
			return errMsg{err: err}
		}
		return responseMsg{turn: turn, warnings: m.session.Warnings()}
	}
}

// resetSession creates a command that rotates the backend session
func (m Model) resetSession() tea.Cmd {
	return func() tea.Msg {
		return sessionResetMsg{err: m.session.Reset()}
	}
}

// persistUserTurn saves the outgoing message when a conversation is attached
func (m Model) persistUserTurn(text string) {
	if m.conversation == nil || m.historyStore == nil {
		return
	}
	_ = m.historyStore.AddTurn(m.conversation.ID, models.UserTurn(text))
}

// persistAssistantTurn saves the decoded reply and the backend session it
// belongs to, so the conversation can be resumed later
func (m Model) persistAssistantTurn(turn *models.Turn) {
	if m.conversation == nil || m.historyStore == nil {
		return
	}
	_ = m.historyStore.AddTurn(m.conversation.ID, turn)
	_ = m.historyStore.UpdateSessionID(m.conversation.ID, m.session.SessionID())
}

// lastAssistantText returns the text of the most recent answer, or ""
func (m Model) lastAssistantText() string {
	for i := len(m.messages) - 1; i >= 0; i-- {
		if m.messages[i].role == "assistant" {
			return m.messages[i].content
		}
	}
	return ""
}

// lastAssistantBlocks returns the block list of the most recent answer
func (m Model) lastAssistantBlocks() blockstream.Blocks {
	for i := len(m.messages) - 1; i >= 0; i-- {
		if m.messages[i].role == "assistant" {
			return m.messages[i].blocks
		}
	}
	return nil
}

// imageSaveDir returns the configured download directory for images
func imageSaveDir() string {
	cfg, err := config.LoadConfig()
	if err != nil || cfg.DownloadDir == "" {
		return api.DefaultImageSaveOptions().Directory
	}
	return cfg.DownloadDir
}

// updateImageSelection handles updates while the image selector overlay is open
func (m Model) updateImageSelection(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	m.imageSelector, cmd = m.imageSelector.Update(msg)

	if m.imageSelector.IsCancelled() {
		m.selectingImages = false
		return m, nil
	}

	if m.imageSelector.IsConfirmed() {
		m.selectingImages = false
		indices := m.imageSelector.SelectedIndices()
		if len(indices) == 0 {
			return m, nil
		}
		return m, saveImages(m.lastAssistantBlocks(), indices, m.imageSelector.TargetDir())
	}

	return m, cmd
}

// saveImages creates a command that writes the chosen images to disk
func saveImages(blocks blockstream.Blocks, indices []int, dir string) tea.Cmd {
	return func() tea.Msg {
		paths, err := api.SaveSelectedImages(blocks, indices, api.ImageSaveOptions{Directory: dir})
		return imagesSavedMsg{paths: paths, err: err}
	}
}

// updateViewport refreshes the viewport content with styled messages
func (m *Model) updateViewport() {
	var content strings.Builder
	bubbleWidth := m.viewport.Width - 6

	for i, msg := range m.messages {
		if i > 0 {
			content.WriteString("\n")
		}

		if msg.role == "user" {
			// User message
			label := userLabelStyle.Render("⬤ " + m.username)
			bubble := userBubbleStyle.Width(bubbleWidth).Render(msg.content)
			content.WriteString(label + "\n" + bubble)
		} else {
			// Assistant message
			label := assistantLabelStyle.Render("✦ Assistant")
			content.WriteString(label + "\n")

			// Stream warnings mean the answer may be partial
			if len(msg.warnings) > 0 {
				var warnLines []string
				for _, w := range msg.warnings {
					warnLines = append(warnLines, "⚠ "+w)
				}
				warnPanel := warningPanelStyle.Width(bubbleWidth - 4).Render(
					strings.Join(warnLines, "\n"),
				)
				content.WriteString(warnPanel + "\n")
			}

			// Render markdown content
			rendered, err := render.MarkdownWithWidth(msg.content, bubbleWidth-4)
			if err != nil {
				rendered = msg.content
			}
			// Trim trailing newlines from glamour
			rendered = strings.TrimRight(rendered, "\n")

			bubble := assistantBubbleStyle.Width(bubbleWidth).Render(rendered)
			content.WriteString(bubble)

			// Generated images arrive inline; list them under the bubble
			if imgs := msg.blocks.Images(); len(imgs) > 0 {
				var imgLines []string
				imgLines = append(imgLines, imageSectionHeaderStyle.Render(
					fmt.Sprintf("%d generated image(s), ctrl+s to save", len(imgs))))
				for j, img := range imgs {
					title := img.AltText
					if title == "" {
						title = fmt.Sprintf("Image %d", j+1)
					}
					imgLines = append(imgLines, imageTitleStyle.Render("  • "+title))
				}
				content.WriteString("\n" + imageSectionStyle.Render(strings.Join(imgLines, "\n")))
			}
		}
		content.WriteString("\n")
	}

	m.viewport.SetContent(content.String())
}

// formatError formats an error with structured error details for display
func (m Model) formatError(err error) string {
	if err == nil {
		return ""
	}

	var sb strings.Builder

	// Main error message
	sb.WriteString(errorStyle.Render(fmt.Sprintf("⚠ Error: %v", err)))

	// Add structured error details
	detailStyle := lipgloss.NewStyle().Foreground(colorTextDim).PaddingLeft(2)

	if status := apierrors.GetHTTPStatus(err); status > 0 {
		sb.WriteString("\n")
		sb.WriteString(detailStyle.Render(fmt.Sprintf("HTTP Status: %d", status)))
	}

	if endpoint := apierrors.GetEndpoint(err); endpoint != "" {
		sb.WriteString("\n")
		sb.WriteString(detailStyle.Render(fmt.Sprintf("Endpoint: %s", endpoint)))
	}

	// Add helpful hints
	hints := lipgloss.NewStyle().Foreground(colorPrimary).PaddingLeft(2)
	switch {
	case apierrors.IsAuthError(err):
		sb.WriteString("\n")
		sb.WriteString(hints.Render("Try 'ragchat login' to refresh your credentials"))
	case apierrors.IsRateLimitError(err):
		sb.WriteString("\n")
		sb.WriteString(hints.Render("The backend is throttling requests. Try again in a moment"))
	case apierrors.IsNetworkError(err):
		sb.WriteString("\n")
		sb.WriteString(hints.Render("Check that the backend is running and reachable"))
	case apierrors.IsTimeoutError(err):
		sb.WriteString("\n")
		sb.WriteString(hints.Render("Request timed out. Try again"))
	}

	return sb.String()
}

// RunChat starts the chat TUI with a fresh session
func RunChat(client api.RagClientInterface) error {
	m := NewChatModel(client)

	p := tea.NewProgram(
		m,
		tea.WithAltScreen(),
	)

	_, err := p.Run()
	return err
}

// RunChatWithConversation starts the chat TUI bound to a saved conversation.
// conv and store may be nil, in which case nothing is persisted.
func RunChatWithConversation(client api.RagClientInterface, session ChatSessionInterface, conv *history.Conversation, store HistoryStoreInterface) error {
	m := NewChatModelWithConversation(client, session, conv, store)

	p := tea.NewProgram(
		m,
		tea.WithAltScreen(),
	)

	_, err := p.Run()
	return err
}

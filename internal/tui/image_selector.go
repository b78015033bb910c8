package tui

import (
	"fmt"
	"net/http"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/diogo/ragchat/pkg/blockstream"
)

// ImageSelectorModel represents the image selector TUI state. Images arrive
// inline in the answer stream, so selecting only decides what gets written
// to disk.
type ImageSelectorModel struct {
	// Data
	images    []blockstream.Image
	targetDir string

	// Selection state
	selected map[int]bool
	cursor   int

	// State
	confirmed bool
	cancelled bool

	// Dimensions
	width  int
	height int
	ready  bool
}

// NewImageSelectorModel creates a new image selector model
func NewImageSelectorModel(images []blockstream.Image, targetDir string) ImageSelectorModel {
	return ImageSelectorModel{
		images:    images,
		targetDir: targetDir,
		selected:  make(map[int]bool),
		cursor:    0,
	}
}

// Init initializes the model
func (m ImageSelectorModel) Init() tea.Cmd {
	return nil
}

// Update handles messages and updates the model
func (m ImageSelectorModel) Update(msg tea.Msg) (ImageSelectorModel, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.ready = true

	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "esc", "q":
			m.cancelled = true
			m.confirmed = true
			return m, nil

		case "up", "k":
			m.cursor--
			if m.cursor < 0 {
				m.cursor = len(m.images) - 1
			}

		case "down", "j":
			m.cursor++
			if m.cursor >= len(m.images) {
				m.cursor = 0
			}

		case " ": // Space - toggle selection
			if m.cursor >= 0 && m.cursor < len(m.images) {
				m.selected[m.cursor] = !m.selected[m.cursor]
			}

		case "a": // Select all
			for i := range m.images {
				m.selected[i] = true
			}

		case "n": // Select none
			m.selected = make(map[int]bool)

		case "enter":
			m.confirmed = true
			return m, nil

		case "home", "g":
			m.cursor = 0

		case "end", "G":
			m.cursor = len(m.images) - 1
		}
	}

	return m, nil
}

// View renders the TUI
func (m ImageSelectorModel) View() string {
	if !m.ready {
		return "  Initializing..."
	}

	var b strings.Builder

	// Header
	header := lipgloss.NewStyle().
		Bold(true).
		Foreground(colorPrimary).
		MarginBottom(1)

	b.WriteString(header.Render("Select images to save"))
	b.WriteString("\n\n")

	// Calculate visible area
	maxVisible := m.height - 8 // Reserve space for header and footer
	if maxVisible < 3 {
		maxVisible = 3
	}

	// Calculate scroll offset
	startIdx := 0
	if m.cursor >= maxVisible {
		startIdx = m.cursor - maxVisible + 1
	}
	endIdx := startIdx + maxVisible
	if endIdx > len(m.images) {
		endIdx = len(m.images)
	}

	// Render items
	selectedStyle := lipgloss.NewStyle().
		Foreground(colorSecondary).
		Bold(true)

	cursorStyle := lipgloss.NewStyle().
		Foreground(colorAccent).
		Bold(true)

	dimStyle := lipgloss.NewStyle().
		Foreground(colorTextDim)

	for i := startIdx; i < endIdx; i++ {
		img := m.images[i]

		// Cursor indicator
		cursor := "  "
		if i == m.cursor {
			cursor = cursorStyle.Render("> ")
		}

		// Selection checkbox
		checkbox := "[ ] "
		if m.selected[i] {
			checkbox = selectedStyle.Render("[x] ")
		}

		// Title (truncate if needed)
		title := img.AltText
		if title == "" {
			title = fmt.Sprintf("Image %d", i+1)
		}

		maxTitleLen := m.width - 10
		if maxTitleLen < 20 {
			maxTitleLen = 20
		}
		if len(title) > maxTitleLen {
			title = title[:maxTitleLen-3] + "..."
		}

		detail := imageDetail(img)

		if i == m.cursor {
			b.WriteString(cursor + checkbox + cursorStyle.Render(title) + "\n")
		} else {
			b.WriteString(cursor + checkbox + title + "\n")
		}
		b.WriteString("      " + dimStyle.Render(detail) + "\n")
	}

	// Footer with keybindings
	b.WriteString("\n")
	footerStyle := lipgloss.NewStyle().
		Foreground(colorTextMute)

	selectedCount := m.SelectedCount()
	countInfo := fmt.Sprintf("  %d of %d selected  →  %s", selectedCount, len(m.images), m.targetDir)
	b.WriteString(footerStyle.Render(countInfo))
	b.WriteString("\n\n")

	helpStyle := lipgloss.NewStyle().
		Foreground(colorTextMute)

	help := "  Space: toggle  a: all  n: none  Enter: save  Esc: cancel"
	b.WriteString(helpStyle.Render(help))

	return b.String()
}

// imageDetail describes one image for the list: content type and size
func imageDetail(img blockstream.Image) string {
	if len(img.Data) == 0 {
		return "no data"
	}
	contentType := http.DetectContentType(img.Data)
	return fmt.Sprintf("%s, %s", contentType, formatByteSize(len(img.Data)))
}

// formatByteSize renders a byte count in human units
func formatByteSize(n int) string {
	const (
		kb = 1024
		mb = 1024 * kb
	)
	switch {
	case n >= mb:
		return fmt.Sprintf("%.1f MB", float64(n)/float64(mb))
	case n >= kb:
		return fmt.Sprintf("%.1f KB", float64(n)/float64(kb))
	default:
		return fmt.Sprintf("%d B", n)
	}
}

// SelectedCount returns the number of selected images
func (m ImageSelectorModel) SelectedCount() int {
	count := 0
	for _, v := range m.selected {
		if v {
			count++
		}
	}
	return count
}

// SelectedIndices returns the indices of selected images
func (m ImageSelectorModel) SelectedIndices() []int {
	var indices []int
	for i := 0; i < len(m.images); i++ {
		if m.selected[i] {
			indices = append(indices, i)
		}
	}
	return indices
}

// IsConfirmed returns whether the user confirmed the selection
func (m ImageSelectorModel) IsConfirmed() bool {
	return m.confirmed && !m.cancelled
}

// IsCancelled returns whether the user cancelled
func (m ImageSelectorModel) IsCancelled() bool {
	return m.cancelled
}

// TargetDir returns the directory selected images are written to
func (m ImageSelectorModel) TargetDir() string {
	return m.targetDir
}

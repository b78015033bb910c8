package tui

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/diogo/ragchat/internal/history"
	"github.com/diogo/ragchat/internal/models"
	"github.com/diogo/ragchat/internal/render"
	"github.com/diogo/ragchat/pkg/blockstream"
)

// mockChatSession is a mock of *api.ChatSession for testing
type mockChatSession struct {
	sendMessageFunc   func(message string) (*models.Turn, error)
	sendMessageCalled bool
	resetCalled       bool
	resetErr          error
	warnings          []error
	sessionID         string
}

func (m *mockChatSession) SendMessage(ctx context.Context, message string) (*models.Turn, error) {
	m.sendMessageCalled = true
	if m.sendMessageFunc != nil {
		return m.sendMessageFunc(message)
	}
	return assistantTurn("ok"), nil
}

func (m *mockChatSession) Warnings() []error {
	return m.warnings
}

func (m *mockChatSession) Transcript() *models.Transcript {
	return models.NewTranscript()
}

func (m *mockChatSession) Reset() error {
	m.resetCalled = true
	return m.resetErr
}

func (m *mockChatSession) SessionID() string {
	return m.sessionID
}

// mockHistoryStore records persistence calls for testing
type mockHistoryStore struct {
	addedTurns       []*models.Turn
	addedIDs         []string
	sessionUpdates   map[string]string
	createdConv      *history.Conversation
	createErr        error
	updateTitleCalls int
}

func newMockHistoryStore() *mockHistoryStore {
	return &mockHistoryStore{sessionUpdates: make(map[string]string)}
}

func (m *mockHistoryStore) CreateConversation() (*history.Conversation, error) {
	if m.createErr != nil {
		return nil, m.createErr
	}
	if m.createdConv == nil {
		m.createdConv = &history.Conversation{ID: "conv-new"}
	}
	return m.createdConv, nil
}

func (m *mockHistoryStore) AddTurn(id string, turn *models.Turn) error {
	m.addedIDs = append(m.addedIDs, id)
	m.addedTurns = append(m.addedTurns, turn)
	return nil
}

func (m *mockHistoryStore) UpdateSessionID(id, sessionID string) error {
	m.sessionUpdates[id] = sessionID
	return nil
}

func (m *mockHistoryStore) UpdateTitle(id, title string) error {
	m.updateTitleCalls++
	return nil
}

// assistantTurn builds a sealed assistant turn with a single text block
func assistantTurn(text string) *models.Turn {
	turn := models.NewTurn(models.RoleAssistant)
	_ = turn.AppendBlock(blockstream.Text{Content: text})
	turn.Seal()
	return turn
}

func TestMessageFromTurn(t *testing.T) {
	userMsg := messageFromTurn(models.UserTurn("hello"))
	if userMsg.role != "user" {
		t.Errorf("Expected role 'user', got %s", userMsg.role)
	}
	if userMsg.content != "hello" {
		t.Errorf("Expected content 'hello', got %s", userMsg.content)
	}

	turn := models.NewTurn(models.RoleAssistant)
	_ = turn.AppendBlock(blockstream.Text{Content: "answer"})
	_ = turn.AppendBlock(blockstream.Image{Data: []byte{1, 2}, AltText: "chart"})
	turn.Seal()

	assistantMsg := messageFromTurn(turn)
	if assistantMsg.role != "assistant" {
		t.Errorf("Expected role 'assistant', got %s", assistantMsg.role)
	}
	if assistantMsg.content != "answer" {
		t.Errorf("Expected content 'answer', got %s", assistantMsg.content)
	}
	if len(assistantMsg.blocks.Images()) != 1 {
		t.Errorf("Expected 1 image block, got %d", len(assistantMsg.blocks.Images()))
	}
}

func TestNewChatModelWithConversation_RebuildsMessages(t *testing.T) {
	conv := &history.Conversation{
		ID:    "conv-1",
		Title: "Old chat",
		Turns: []*models.Turn{
			models.UserTurn("first question"),
			assistantTurn("first answer"),
		},
	}

	m := NewChatModelWithConversation(nil, &mockChatSession{}, conv, newMockHistoryStore())

	if len(m.messages) != 2 {
		t.Fatalf("Expected 2 rebuilt messages, got %d", len(m.messages))
	}
	if m.messages[0].role != "user" || m.messages[0].content != "first question" {
		t.Errorf("Unexpected first message: %+v", m.messages[0])
	}
	if m.messages[1].role != "assistant" || m.messages[1].content != "first answer" {
		t.Errorf("Unexpected second message: %+v", m.messages[1])
	}
}

func TestModel_Update_WindowSize(t *testing.T) {
	ta := textarea.New()
	ta.SetWidth(80)

	m := Model{
		textarea: ta,
	}

	msg := tea.WindowSizeMsg{Width: 100, Height: 40}
	updatedModel, _ := m.Update(msg)

	if typedModel, ok := updatedModel.(Model); ok {
		if typedModel.width != 100 {
			t.Errorf("Expected width 100, got %d", typedModel.width)
		}
		if typedModel.height != 40 {
			t.Errorf("Expected height 40, got %d", typedModel.height)
		}
		if !typedModel.ready {
			t.Error("Model should be ready after WindowSizeMsg")
		}
	} else {
		t.Error("Update should return Model type")
	}
}

func TestModel_Update_CtrlC(t *testing.T) {
	m := Model{
		ready: true,
	}

	msg := tea.KeyMsg{Type: tea.KeyCtrlC}
	_, cmd := m.Update(msg)

	if cmd == nil {
		t.Error("Expected quit command for Ctrl+C")
	}
}

func TestModel_Update_Escape(t *testing.T) {
	ta := textarea.New()
	ta.SetWidth(80)

	m := Model{
		ready:    true,
		loading:  true,
		textarea: ta,
	}

	msg := tea.KeyMsg{Type: tea.KeyEscape}
	updatedModel, _ := m.Update(msg)

	if typedModel, ok := updatedModel.(Model); ok {
		if typedModel.loading {
			t.Error("Model should not be loading after Escape")
		}
	}
}

func TestModel_Update_AnimationTick(t *testing.T) {
	m := Model{
		ready:          true,
		loading:        true,
		animationFrame: 0,
	}

	msg := animationTickMsg(time.Now())
	updatedModel, _ := m.Update(msg)

	if typedModel, ok := updatedModel.(Model); ok {
		if typedModel.animationFrame <= m.animationFrame {
			t.Error("Animation frame should increment")
		}
	}
}

func TestModel_Update_ResponseMsg(t *testing.T) {
	conv := &history.Conversation{ID: "conv-1"}
	store := newMockHistoryStore()

	m := Model{
		ready:        true,
		loading:      true,
		session:      &mockChatSession{sessionID: "sess-2"},
		viewport:     viewport.New(80, 20),
		conversation: conv,
		historyStore: store,
		messages:     []chatMessage{{role: "user", content: "question"}},
	}

	turn := assistantTurn("response text")
	msg := responseMsg{turn: turn, warnings: []error{fmt.Errorf("stream cut short")}}
	updatedModel, _ := m.Update(msg)

	typedModel, ok := updatedModel.(Model)
	if !ok {
		t.Fatal("Update should return Model type")
	}

	if typedModel.loading {
		t.Error("Model should not be loading after response")
	}
	if len(typedModel.messages) != 2 {
		t.Fatalf("Expected 2 messages, got %d", len(typedModel.messages))
	}

	last := typedModel.messages[1]
	if last.role != "assistant" {
		t.Errorf("Expected assistant role, got %s", last.role)
	}
	if last.content != "response text" {
		t.Errorf("Expected 'response text', got %s", last.content)
	}
	if len(last.warnings) != 1 || !strings.Contains(last.warnings[0], "stream cut short") {
		t.Errorf("Expected stream warning on message, got %v", last.warnings)
	}

	// The answer and the session pointer must be persisted
	if len(store.addedTurns) != 1 || store.addedTurns[0] != turn {
		t.Errorf("Expected assistant turn persisted, got %d turns", len(store.addedTurns))
	}
	if store.sessionUpdates["conv-1"] != "sess-2" {
		t.Errorf("Expected session ID persisted, got %q", store.sessionUpdates["conv-1"])
	}
}

func TestModel_Update_ResponseMsg_Unsaved(t *testing.T) {
	m := Model{
		ready:    true,
		loading:  true,
		session:  &mockChatSession{},
		viewport: viewport.New(80, 20),
	}

	msg := responseMsg{turn: assistantTurn("reply")}
	updatedModel, _ := m.Update(msg)

	if typedModel, ok := updatedModel.(Model); ok {
		if len(typedModel.messages) != 1 {
			t.Errorf("Expected 1 message, got %d", len(typedModel.messages))
		}
	}
}

func TestModel_Update_ErrMsg(t *testing.T) {
	m := Model{
		ready:   true,
		loading: true,
	}

	testErr := fmt.Errorf("test error")
	msg := errMsg{err: testErr}
	updatedModel, _ := m.Update(msg)

	if typedModel, ok := updatedModel.(Model); ok {
		if typedModel.loading {
			t.Error("Model should not be loading after error")
		}
		if typedModel.err == nil {
			t.Error("Model should have error set")
		}
	}
}

func TestModel_Update_SessionReset(t *testing.T) {
	t.Run("success rolls over the conversation", func(t *testing.T) {
		store := newMockHistoryStore()
		m := Model{
			ready:        true,
			loading:      true,
			session:      &mockChatSession{sessionID: "sess-fresh"},
			conversation: &history.Conversation{ID: "conv-old"},
			historyStore: store,
			messages:     []chatMessage{{role: "user", content: "old"}},
		}

		updatedModel, _ := m.Update(sessionResetMsg{})

		typedModel, ok := updatedModel.(Model)
		if !ok {
			t.Fatal("Update should return Model type")
		}
		if typedModel.loading {
			t.Error("Model should not be loading after reset")
		}
		if len(typedModel.messages) != 0 {
			t.Errorf("Expected cleared messages, got %d", len(typedModel.messages))
		}
		if typedModel.notice == "" {
			t.Error("Expected a notice after reset")
		}
		if typedModel.conversation == nil || typedModel.conversation.ID != "conv-new" {
			t.Error("Expected a fresh conversation record")
		}
		if store.sessionUpdates["conv-new"] != "sess-fresh" {
			t.Errorf("Expected new session ID recorded, got %q", store.sessionUpdates["conv-new"])
		}
	})

	t.Run("failure keeps messages and surfaces error", func(t *testing.T) {
		m := Model{
			ready:    true,
			loading:  true,
			messages: []chatMessage{{role: "user", content: "kept"}},
		}

		updatedModel, _ := m.Update(sessionResetMsg{err: fmt.Errorf("rotate failed")})

		if typedModel, ok := updatedModel.(Model); ok {
			if typedModel.err == nil {
				t.Error("Expected error surfaced")
			}
			if len(typedModel.messages) != 1 {
				t.Errorf("Expected messages kept, got %d", len(typedModel.messages))
			}
		}
	})
}

func TestModel_Update_ImagesSavedMsg(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		m := Model{ready: true}
		updatedModel, _ := m.Update(imagesSavedMsg{paths: []string{"/tmp/images/a.png", "/tmp/images/b.png"}})
		if typedModel, ok := updatedModel.(Model); ok {
			if !strings.Contains(typedModel.notice, "Saved 2 image(s)") {
				t.Errorf("Unexpected notice: %q", typedModel.notice)
			}
		}
	})

	t.Run("failure", func(t *testing.T) {
		m := Model{ready: true}
		updatedModel, _ := m.Update(imagesSavedMsg{err: fmt.Errorf("disk full")})
		if typedModel, ok := updatedModel.(Model); ok {
			if !strings.Contains(typedModel.notice, "Failed to save images") {
				t.Errorf("Unexpected notice: %q", typedModel.notice)
			}
		}
	})
}

func TestModel_Update_CtrlS(t *testing.T) {
	t.Run("no images in last answer", func(t *testing.T) {
		ta := textarea.New()
		m := Model{
			ready:    true,
			textarea: ta,
			messages: []chatMessage{{role: "assistant", content: "text only"}},
		}

		updatedModel, _ := m.Update(tea.KeyMsg{Type: tea.KeyCtrlS})

		if typedModel, ok := updatedModel.(Model); ok {
			if typedModel.selectingImages {
				t.Error("Should not enter selection mode without images")
			}
			if typedModel.notice != "No images in the last answer" {
				t.Errorf("Unexpected notice: %q", typedModel.notice)
			}
		}
	})

	t.Run("opens selector when images exist", func(t *testing.T) {
		ta := textarea.New()
		m := Model{
			ready:    true,
			textarea: ta,
			messages: []chatMessage{{
				role:    "assistant",
				content: "with image",
				blocks:  blockstream.Blocks{blockstream.Image{Data: []byte{1}, AltText: "plot"}},
			}},
		}

		updatedModel, _ := m.Update(tea.KeyMsg{Type: tea.KeyCtrlS})

		if typedModel, ok := updatedModel.(Model); ok {
			if !typedModel.selectingImages {
				t.Error("Should enter selection mode with images")
			}
		}
	})
}

func TestModel_Update_CtrlN(t *testing.T) {
	ta := textarea.New()
	m := Model{
		ready:    true,
		textarea: ta,
		session:  &mockChatSession{},
	}

	updatedModel, cmd := m.Update(tea.KeyMsg{Type: tea.KeyCtrlN})

	if typedModel, ok := updatedModel.(Model); ok {
		if !typedModel.loading {
			t.Error("Ctrl+N should start loading while the session rotates")
		}
	}
	if cmd == nil {
		t.Error("Ctrl+N should return a command")
	}
}

func TestModel_Update_Enter(t *testing.T) {
	t.Run("sends and persists the prompt", func(t *testing.T) {
		conv := &history.Conversation{ID: "conv-1"}
		store := newMockHistoryStore()

		ta := textarea.New()
		ta.SetValue("what is in the report?")

		m := Model{
			ready:        true,
			textarea:     ta,
			viewport:     viewport.New(80, 20),
			session:      &mockChatSession{},
			conversation: conv,
			historyStore: store,
		}

		updatedModel, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})

		typedModel, ok := updatedModel.(Model)
		if !ok {
			t.Fatal("Update should return Model type")
		}
		if !typedModel.loading {
			t.Error("Enter should start loading")
		}
		if len(typedModel.messages) != 1 || typedModel.messages[0].role != "user" {
			t.Fatalf("Expected the user message appended, got %+v", typedModel.messages)
		}
		if cmd == nil {
			t.Error("Enter should return a command")
		}

		if len(store.addedTurns) != 1 {
			t.Fatalf("Expected user turn persisted, got %d", len(store.addedTurns))
		}
		if store.addedTurns[0].Role != models.RoleUser {
			t.Errorf("Expected persisted role user, got %s", store.addedTurns[0].Role)
		}
		if store.addedIDs[0] != "conv-1" {
			t.Errorf("Expected turn saved under conv-1, got %s", store.addedIDs[0])
		}
	})

	t.Run("exit command quits without sending", func(t *testing.T) {
		session := &mockChatSession{}
		ta := textarea.New()
		ta.SetValue("exit")

		m := Model{
			ready:    true,
			textarea: ta,
			session:  session,
		}

		updatedModel, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})

		if cmd == nil {
			t.Error("Expected quit command for 'exit'")
		}
		if typedModel, ok := updatedModel.(Model); ok {
			if len(typedModel.messages) != 0 {
				t.Error("'exit' should not append a message")
			}
		}
		if session.sendMessageCalled {
			t.Error("'exit' should not reach the session")
		}
	})

	t.Run("slash new resets the session", func(t *testing.T) {
		ta := textarea.New()
		ta.SetValue("/new")

		m := Model{
			ready:    true,
			textarea: ta,
			session:  &mockChatSession{},
		}

		updatedModel, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})

		if typedModel, ok := updatedModel.(Model); ok {
			if !typedModel.loading {
				t.Error("'/new' should start loading while the session rotates")
			}
			if len(typedModel.messages) != 0 {
				t.Error("'/new' should not append a message")
			}
		}
		if cmd == nil {
			t.Error("'/new' should return a command")
		}
	})
}

func TestModel_sendMessage(t *testing.T) {
	t.Run("success response", func(t *testing.T) {
		mockSession := &mockChatSession{
			sendMessageFunc: func(message string) (*models.Turn, error) {
				return assistantTurn("success response"), nil
			},
			warnings: []error{fmt.Errorf("partial answer")},
		}

		m := Model{
			session: mockSession,
		}

		cmd := m.sendMessage("test prompt")
		if cmd == nil {
			t.Fatal("sendMessage should return a command")
		}

		msg := cmd()
		if msg == nil {
			t.Fatal("Command should return a message")
		}

		if !mockSession.sendMessageCalled {
			t.Error("SendMessage should have been called on session")
		}

		if response, ok := msg.(responseMsg); ok {
			if response.turn.Text() != "success response" {
				t.Errorf("Expected 'success response', got %q", response.turn.Text())
			}
			if len(response.warnings) != 1 {
				t.Errorf("Expected 1 warning carried, got %d", len(response.warnings))
			}
		} else {
			t.Errorf("Expected responseMsg type, got %T", msg)
		}
	})

	t.Run("error response", func(t *testing.T) {
		mockSession := &mockChatSession{
			sendMessageFunc: func(message string) (*models.Turn, error) {
				return nil, fmt.Errorf("test error")
			},
		}

		m := Model{
			session: mockSession,
		}

		cmd := m.sendMessage("test prompt")
		if cmd == nil {
			t.Fatal("sendMessage should return a command")
		}

		msg := cmd()
		if errMsg, ok := msg.(errMsg); ok {
			if errMsg.err == nil {
				t.Error("errMsg should contain an error")
			}
		} else {
			t.Errorf("Expected errMsg type, got %T", msg)
		}
	})
}

func TestModel_resetSession(t *testing.T) {
	session := &mockChatSession{resetErr: fmt.Errorf("boom")}
	m := Model{session: session}

	cmd := m.resetSession()
	if cmd == nil {
		t.Fatal("resetSession should return a command")
	}

	msg := cmd()
	if !session.resetCalled {
		t.Error("Reset should have been called on session")
	}
	if resetMsg, ok := msg.(sessionResetMsg); ok {
		if resetMsg.err == nil {
			t.Error("Expected reset error carried in message")
		}
	} else {
		t.Errorf("Expected sessionResetMsg type, got %T", msg)
	}
}

func TestLastAssistantText(t *testing.T) {
	m := Model{
		messages: []chatMessage{
			{role: "user", content: "q1"},
			{role: "assistant", content: "a1"},
			{role: "user", content: "q2"},
			{role: "assistant", content: "a2"},
		},
	}

	if got := m.lastAssistantText(); got != "a2" {
		t.Errorf("Expected 'a2', got %q", got)
	}

	empty := Model{messages: []chatMessage{{role: "user", content: "q"}}}
	if got := empty.lastAssistantText(); got != "" {
		t.Errorf("Expected empty string, got %q", got)
	}
}

func TestLastAssistantBlocks(t *testing.T) {
	blocks := blockstream.Blocks{
		blockstream.Text{Content: "hi"},
		blockstream.Image{Data: []byte{1}, AltText: "pic"},
	}
	m := Model{
		messages: []chatMessage{
			{role: "assistant", content: "old", blocks: blockstream.Blocks{blockstream.Text{Content: "old"}}},
			{role: "assistant", content: "hi", blocks: blocks},
		},
	}

	got := m.lastAssistantBlocks()
	if len(got.Images()) != 1 {
		t.Errorf("Expected 1 image from latest answer, got %d", len(got.Images()))
	}

	if none := (Model{}).lastAssistantBlocks(); none != nil {
		t.Errorf("Expected nil blocks for empty history, got %v", none)
	}
}

func TestModel_View_NotReady(t *testing.T) {
	m := Model{
		ready: false,
	}

	view := m.View()

	if !strings.Contains(view, "Initializing") {
		t.Error("View should contain initialization message")
	}
}

func TestModel_View_WithMessages(t *testing.T) {
	ta := textarea.New()
	ta.SetWidth(80)

	vp := viewport.New(80, 20)

	m := Model{
		ready:    true,
		textarea: ta,
		viewport: vp,
		width:    80,
		height:   24,
		messages: []chatMessage{
			{role: "user", content: "Hello"},
			{role: "assistant", content: "Hi there!"},
		},
	}

	m.updateViewport()

	view := m.View()

	hasUserMessage := strings.Contains(view, "Hello")
	hasAssistantMessage := strings.Contains(view, "Hi there!")

	if !hasUserMessage && !hasAssistantMessage {
		t.Error("View should contain some message content")
	}
}

func TestUpdateViewport_Warnings(t *testing.T) {
	vp := viewport.New(80, 20)

	m := Model{
		viewport: vp,
		messages: []chatMessage{
			{
				role:     "assistant",
				content:  "partial answer",
				warnings: []string{"response stream ended mid-block"},
			},
		},
	}

	m.updateViewport()

	content := m.viewport.View()
	if !strings.Contains(content, "ended mid-block") {
		t.Error("Viewport should surface stream warnings")
	}
}

func TestUpdateViewport_ImageList(t *testing.T) {
	vp := viewport.New(80, 30)

	m := Model{
		viewport: vp,
		messages: []chatMessage{
			{
				role:    "assistant",
				content: "see chart",
				blocks: blockstream.Blocks{
					blockstream.Text{Content: "see chart"},
					blockstream.Image{Data: []byte{1, 2, 3}, AltText: "revenue chart"},
				},
			},
		},
	}

	m.updateViewport()

	content := m.viewport.View()
	if !strings.Contains(content, "revenue chart") {
		t.Error("Viewport should list generated images by title")
	}
}

func TestAnimationTick(t *testing.T) {
	cmd := animationTick()

	if cmd == nil {
		t.Error("animationTick should return a command")
	}
}

func TestRenderMarkdown(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		maxWidth int
	}{
		{
			name:     "Simple markdown",
			input:    "# Header\n\nThis is **bold** text.",
			maxWidth: 80,
		},
		{
			name:     "Empty input",
			input:    "",
			maxWidth: 80,
		},
		{
			name:     "Long input",
			input:    strings.Repeat("word ", 100),
			maxWidth: 40,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			output, err := render.MarkdownWithWidth(tt.input, tt.maxWidth)
			if err != nil {
				t.Errorf("render.MarkdownWithWidth failed: %v", err)
			}

			if output == "" && tt.input != "" {
				t.Error("Expected non-empty output for non-empty input")
			}
		})
	}
}

func TestChatMessage_Struct(t *testing.T) {
	msg := chatMessage{
		role:     "assistant",
		content:  "test content",
		warnings: []string{"truncated"},
	}

	if msg.role != "assistant" {
		t.Errorf("Expected role 'assistant', got %s", msg.role)
	}
	if msg.content != "test content" {
		t.Errorf("Expected content 'test content', got %s", msg.content)
	}
	if len(msg.warnings) != 1 {
		t.Errorf("Expected 1 warning, got %d", len(msg.warnings))
	}
}

func TestModel_Init(t *testing.T) {
	m := NewChatModelWithConversation(nil, &mockChatSession{}, nil, nil)

	cmd := m.Init()
	if cmd == nil {
		t.Error("Init should return a command")
	}
}

func TestRunChat(t *testing.T) {
	// The tea program cannot run under test; verify the entry points exist
	defer func() {
		if r := recover(); r != nil {
			t.Errorf("RunChat panicked: %v", r)
		}
	}()

	_ = RunChat
	_ = RunChatWithConversation
}

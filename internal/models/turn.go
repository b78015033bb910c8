package models

import (
	"sync"
	"time"

	apierrors "github.com/diogo/ragchat/internal/errors"
	"github.com/diogo/ragchat/pkg/blockstream"
)

// Role identifies the speaker of a turn
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// DisplayName returns the capitalized role name for transcript headers
func (r Role) DisplayName() string {
	switch r {
	case RoleUser:
		return "User"
	case RoleAssistant:
		return "Assistant"
	default:
		return string(r)
	}
}

// Turn is one speaker's contribution to a conversation: an ordered list of
// content blocks populated in arrival order. A turn starts open, collects
// blocks while its response streams, and is sealed when the stream ends.
// Sealed turns are immutable.
type Turn struct {
	Role      Role               `json:"role"`
	Blocks    blockstream.Blocks `json:"blocks"`
	Timestamp time.Time          `json:"timestamp"`

	sealed bool
}

// NewTurn creates an open turn for the given speaker
func NewTurn(role Role) *Turn {
	return &Turn{
		Role:      role,
		Timestamp: time.Now(),
	}
}

// UserTurn creates a sealed single-text-block turn for an outgoing message
func UserTurn(text string) *Turn {
	t := NewTurn(RoleUser)
	t.Blocks = blockstream.Blocks{blockstream.Text{Content: text}}
	t.sealed = true
	return t
}

// AppendBlock adds one block to an open turn, preserving arrival order.
// Returns ErrTurnSealed once the turn has been sealed.
func (t *Turn) AppendBlock(b blockstream.Block) error {
	if t.sealed {
		return apierrors.ErrTurnSealed
	}
	t.Blocks = append(t.Blocks, b)
	return nil
}

// Seal freezes the turn. Sealing twice is a no-op.
func (t *Turn) Seal() {
	t.sealed = true
}

// Sealed reports whether the turn has been frozen
func (t *Turn) Sealed() bool {
	return t.sealed
}

// Text returns the concatenated text block contents
func (t *Turn) Text() string {
	return t.Blocks.Text()
}

// Images returns the turn's image blocks in order
func (t *Turn) Images() []blockstream.Image {
	return t.Blocks.Images()
}

// Transcript is the append-only ordered history of sealed turns in one
// conversation. It is never mutated once a turn is appended and never
// re-parsed; it exists for display and persistence.
//
// Reads and appends are guarded because the TUI renders the transcript while
// a background send appends to it.
type Transcript struct {
	mu    sync.RWMutex
	turns []*Turn
}

// NewTranscript creates an empty transcript
func NewTranscript() *Transcript {
	return &Transcript{}
}

// TranscriptFromTurns rebuilds a transcript from previously saved turns,
// sealing each one. Used when resuming a stored conversation.
func TranscriptFromTurns(turns []*Turn) *Transcript {
	tr := NewTranscript()
	for _, t := range turns {
		if t != nil {
			tr.Append(t)
		}
	}
	return tr
}

// Append seals the turn if still open and archives it. Once archived a turn
// is immutable.
func (tr *Transcript) Append(t *Turn) {
	t.Seal()
	tr.mu.Lock()
	defer tr.mu.Unlock()
	tr.turns = append(tr.turns, t)
}

// Turns returns a snapshot copy of the turn list
func (tr *Transcript) Turns() []*Turn {
	tr.mu.RLock()
	defer tr.mu.RUnlock()
	out := make([]*Turn, len(tr.turns))
	copy(out, tr.turns)
	return out
}

// Len returns the number of archived turns
func (tr *Transcript) Len() int {
	tr.mu.RLock()
	defer tr.mu.RUnlock()
	return len(tr.turns)
}

// LastAssistant returns the most recent assistant turn, or nil
func (tr *Transcript) LastAssistant() *Turn {
	tr.mu.RLock()
	defer tr.mu.RUnlock()
	for i := len(tr.turns) - 1; i >= 0; i-- {
		if tr.turns[i].Role == RoleAssistant {
			return tr.turns[i]
		}
	}
	return nil
}

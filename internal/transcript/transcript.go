// Package transcript holds the ordered, append-only list of chat turns shown by the widget.
package transcript

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
)

// Fixed notices shown in place of a reply
const (
	NoticeNoResponse = "Sorry, no response received."
	NoticeFailed     = "Failed to get response from server."
)

var (
	ErrUnknownEntry   = errors.New("unknown transcript entry")
	ErrAlreadySettled = errors.New("transcript entry already settled")
)

// Sender tags who an entry belongs to
type Sender string

const (
	SenderUser Sender = "user"
	SenderBot  Sender = "bot"
)

// State is the render state of an entry.
// Bot entries start Pending and move exactly once to Replied, Empty or Failed.
type State int

const (
	StateSent State = iota // user entry, never changes
	StatePending
	StateReplied
	StateEmpty
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateSent:
		return "sent"
	case StatePending:
		return "pending"
	case StateReplied:
		return "replied"
	case StateEmpty:
		return "empty"
	case StateFailed:
		return "failed"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// Entry is one rendered turn
type Entry struct {
	ID     string
	Sender Sender
	// Text is the user's input, the Markdown reply, or a fixed notice.
	Text  string
	State State
}

// Pending reports whether the entry is still waiting for a reply
func (e Entry) Pending() bool {
	return e.State == StatePending
}

// IsMarkdown reports whether Text should go through the Markdown renderer
func (e Entry) IsMarkdown() bool {
	return e.State == StateReplied
}

// Settle maps the outcome of one chat call to the final state and text of its entry.
// Every failure kind collapses to the same notice.
func Settle(reply string, err error) (State, string) {
	switch {
	case err != nil:
		return StateFailed, NoticeFailed
	case reply == "":
		return StateEmpty, NoticeNoResponse
	default:
		return StateReplied, reply
	}
}

// Transcript is append-only; the only mutation allowed is settling a pending entry.
// It is not safe for concurrent use: the widget mutates it from its update loop only.
type Transcript struct {
	entries []Entry
	index   map[string]int
	pending int
}

// New creates an empty transcript
func New() *Transcript {
	return &Transcript{index: make(map[string]int)}
}

func (t *Transcript) append(e Entry) Entry {
	if t.index == nil {
		t.index = make(map[string]int)
	}
	e.ID = uuid.NewString()
	t.index[e.ID] = len(t.entries)
	t.entries = append(t.entries, e)
	return e
}

// AppendUser adds a user entry
func (t *Transcript) AppendUser(text string) Entry {
	return t.append(Entry{Sender: SenderUser, Text: text, State: StateSent})
}

// AppendPending adds a bot placeholder awaiting a reply
func (t *Transcript) AppendPending() Entry {
	t.pending++
	return t.append(Entry{Sender: SenderBot, State: StatePending})
}

// Resolve settles the pending entry id with the outcome of its chat call
func (t *Transcript) Resolve(id, reply string, callErr error) (Entry, error) {
	i, ok := t.index[id]
	if !ok {
		return Entry{}, fmt.Errorf("%w: %s", ErrUnknownEntry, id)
	}
	e := &t.entries[i]
	if e.State != StatePending {
		return *e, fmt.Errorf("%w: %s is %s", ErrAlreadySettled, id, e.State)
	}

	e.State, e.Text = Settle(reply, callErr)
	t.pending--
	return *e, nil
}

// Entries returns a copy of all entries in display order
func (t *Transcript) Entries() []Entry {
	return append([]Entry(nil), t.entries...)
}

// Len returns the number of entries
func (t *Transcript) Len() int {
	return len(t.entries)
}

// PendingCount returns the number of unsettled bot entries
func (t *Transcript) PendingCount() int {
	return t.pending
}

// LastReply returns the newest Markdown reply, if any
func (t *Transcript) LastReply() (string, bool) {
	for i := len(t.entries) - 1; i >= 0; i-- {
		if t.entries[i].IsMarkdown() {
			return t.entries[i].Text, true
		}
	}
	return "", false
}

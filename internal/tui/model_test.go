package tui

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/charmbracelet/bubbles/cursor"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/diogo/chatwidget/internal/api"
	apierrors "github.com/diogo/chatwidget/internal/errors"
	"github.com/diogo/chatwidget/internal/models"
	"github.com/diogo/chatwidget/internal/render"
	"github.com/diogo/chatwidget/internal/transcript"
)

// newTestModel returns a sized widget with a static cursor so Focus yields no blink command
func newTestModel(t *testing.T, client *api.MockChatClient) Model {
	t.Helper()
	m := NewChatModel(context.Background(), client, render.DefaultOptions())
	m.input.Cursor.SetMode(cursor.CursorStatic)
	m.copyText = func(string) error { return nil }

	updated, _ := m.Update(tea.WindowSizeMsg{Width: 100, Height: 40})
	return updated.(Model)
}

// submit types text into the input and presses Enter
func submit(t *testing.T, m Model, text string) (Model, tea.Cmd) {
	t.Helper()
	m.input.SetValue(text)
	updated, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	return updated.(Model), cmd
}

// collect runs a command tree and returns the messages it produces
func collect(cmd tea.Cmd) []tea.Msg {
	if cmd == nil {
		return nil
	}
	msg := cmd()
	if batch, ok := msg.(tea.BatchMsg); ok {
		var msgs []tea.Msg
		for _, c := range batch {
			msgs = append(msgs, collect(c)...)
		}
		return msgs
	}
	return []tea.Msg{msg}
}

// replies extracts the reply messages from a command tree
func replies(t *testing.T, cmd tea.Cmd) []replyMsg {
	t.Helper()
	var out []replyMsg
	for _, msg := range collect(cmd) {
		if r, ok := msg.(replyMsg); ok {
			out = append(out, r)
		}
	}
	return out
}

func feed(m Model, msg tea.Msg) Model {
	updated, _ := m.Update(msg)
	return updated.(Model)
}

func TestNewChatModel(t *testing.T) {
	m := NewChatModel(context.Background(), &api.MockChatClient{}, render.DefaultOptions())

	if !m.input.Focused() {
		t.Error("expected input to be focused")
	}
	if m.transcript.Len() != 0 {
		t.Errorf("expected empty transcript, got %d entries", m.transcript.Len())
	}
	if m.ready {
		t.Error("model should not be ready before the first WindowSizeMsg")
	}
	if m.View() == "" {
		t.Error("expected an initializing view")
	}
	if m.Init() == nil {
		t.Error("expected Init to start the cursor blink")
	}
}

func TestModel_Update_WindowSize(t *testing.T) {
	m := newTestModel(t, &api.MockChatClient{})

	if !m.ready {
		t.Fatal("expected model to be ready")
	}
	if m.width != 100 || m.height != 40 {
		t.Errorf("dimensions = %dx%d, want 100x40", m.width, m.height)
	}
	wantHeight := 40 - headerHeight - inputHeight - statusHeight - transcriptInset
	if m.viewport.Height != wantHeight {
		t.Errorf("viewport height = %d, want %d", m.viewport.Height, wantHeight)
	}

	m = feed(m, tea.WindowSizeMsg{Width: 10, Height: 5})
	if m.viewport.Height != minViewport {
		t.Errorf("viewport height = %d, want clamp %d", m.viewport.Height, minViewport)
	}
	if m.viewport.Width != render.MinWidth {
		t.Errorf("viewport width = %d, want clamp %d", m.viewport.Width, render.MinWidth)
	}
}

func TestSubmit_WhitespaceIsNoop(t *testing.T) {
	inputs := []string{"", " ", "   \t ", "\n"}

	for _, in := range inputs {
		client := &api.MockChatClient{Reply: "never"}
		m := newTestModel(t, client)

		m.input.SetValue(in)
		before := m.input.Value()

		updated, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
		m = updated.(Model)
		if cmd != nil {
			t.Errorf("%q: expected no command", in)
		}
		if m.transcript.Len() != 0 {
			t.Errorf("%q: transcript changed: %d entries", in, m.transcript.Len())
		}
		if m.input.Value() != before {
			t.Errorf("%q: input changed to %q", in, m.input.Value())
		}
		if client.CallCount() != 0 {
			t.Errorf("%q: expected no network call", in)
		}
	}
}

func TestSubmit_UserEntryBeforeReply(t *testing.T) {
	client := &api.MockChatClient{Reply: "hello back"}
	m := newTestModel(t, client)

	m, cmd := submit(t, m, "  hello  ")
	if cmd == nil {
		t.Fatal("expected a request command")
	}

	entries := m.transcript.Entries()
	if len(entries) != 2 {
		t.Fatalf("expected user + pending entries, got %d", len(entries))
	}
	if entries[0].Sender != transcript.SenderUser || entries[0].Text != "hello" {
		t.Errorf("unexpected user entry %+v", entries[0])
	}
	if entries[1].Sender != transcript.SenderBot || !entries[1].Pending() {
		t.Errorf("unexpected placeholder %+v", entries[1])
	}
	if client.CallCount() != 0 {
		t.Error("request must not resolve before the command runs")
	}
	if m.input.Value() != "" {
		t.Errorf("input not cleared: %q", m.input.Value())
	}
	if !m.input.Focused() {
		t.Error("input lost focus")
	}
	if !m.spinning {
		t.Error("expected the pending indicator to be animating")
	}

	got := replies(t, cmd)
	if len(got) != 1 {
		t.Fatalf("expected 1 reply message, got %d", len(got))
	}
	if got[0].entryID != entries[1].ID {
		t.Error("reply is not addressed to the placeholder")
	}

	calls := client.Calls()
	if len(calls) != 1 || len(calls[0]) != 1 {
		t.Fatalf("expected one call with one message, got %v", calls)
	}
	if calls[0][0] != models.NewUserMessage("hello") {
		t.Errorf("unexpected payload %+v", calls[0][0])
	}
}

func TestSubmit_LongInputSentWhole(t *testing.T) {
	client := &api.MockChatClient{Reply: "ok"}
	m := newTestModel(t, client)

	long := strings.Repeat("ab", 2500) + "end"
	m = feed(m, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(long)})
	if got := m.input.Value(); got != long {
		t.Fatalf("input holds %d runes, want %d", len([]rune(got)), len([]rune(long)))
	}

	updated, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	m = updated.(Model)
	replies(t, cmd)

	calls := client.Calls()
	if len(calls) != 1 {
		t.Fatalf("expected one call, got %d", len(calls))
	}
	if got := calls[0][0].Content; got != long {
		t.Errorf("sent %d runes, want %d", len([]rune(got)), len([]rune(long)))
	}
	if entries := m.transcript.Entries(); entries[0].Text != long {
		t.Error("transcript holds a shortened user entry")
	}
}

func TestSubmit_Outcomes(t *testing.T) {
	tests := []struct {
		name      string
		reply     string
		err       error
		wantState transcript.State
		wantText  string
	}{
		{"markdown reply", "**hi**", nil, transcript.StateReplied, "**hi**"},
		{"empty result", "", nil, transcript.StateEmpty, transcript.NoticeNoResponse},
		{"http 500", "", apierrors.NewHTTPError(500, "http://localhost:3000/api/chat", "boom"), transcript.StateFailed, transcript.NoticeFailed},
		{"transport failure", "", apierrors.NewNetworkError("send chat", "http://localhost:3000/api/chat", errors.New("connection refused")), transcript.StateFailed, transcript.NoticeFailed},
		{"parse failure", "", apierrors.NewParseError("response is not valid JSON", ""), transcript.StateFailed, transcript.NoticeFailed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := newTestModel(t, &api.MockChatClient{Reply: tt.reply, Err: tt.err})

			m, cmd := submit(t, m, "question")
			for _, r := range replies(t, cmd) {
				m = feed(m, r)
			}

			entries := m.transcript.Entries()
			bot := entries[len(entries)-1]
			if bot.State != tt.wantState {
				t.Errorf("state = %s, want %s", bot.State, tt.wantState)
			}
			if bot.Text != tt.wantText {
				t.Errorf("text = %q, want %q", bot.Text, tt.wantText)
			}
			if m.transcript.PendingCount() != 0 {
				t.Error("placeholder still pending")
			}
			if !m.viewport.AtBottom() {
				t.Error("expected transcript scrolled to bottom")
			}
		})
	}
}

func TestResolve_LogsResponseBody(t *testing.T) {
	var logBuf bytes.Buffer
	prev := log.Logger
	log.Logger = zerolog.New(&logBuf)
	t.Cleanup(func() { log.Logger = prev })

	client := &api.MockChatClient{Err: apierrors.NewHTTPError(500, "http://x/api/chat", "stack trace here")}
	m := newTestModel(t, client)
	m, cmd := submit(t, m, "q")
	for _, r := range replies(t, cmd) {
		m = feed(m, r)
	}

	if !strings.Contains(logBuf.String(), `"body":"stack trace here"`) {
		t.Errorf("failure log missing response body: %s", logBuf.String())
	}
	entries := m.transcript.Entries()
	if got := entries[len(entries)-1]; got.Text != transcript.NoticeFailed {
		t.Errorf("bot entry = %q, want the fixed failure notice", got.Text)
	}
}

func TestSubmit_MarkdownRendered(t *testing.T) {
	m := newTestModel(t, &api.MockChatClient{Reply: "**hi**"})

	m, cmd := submit(t, m, "greet me")
	for _, r := range replies(t, cmd) {
		m = feed(m, r)
	}

	entries := m.transcript.Entries()
	bot := entries[1]

	cached, ok := m.rendered[bot.ID]
	if !ok {
		t.Fatal("expected the reply to be rendered")
	}
	want := render.Reply("**hi**", m.renderOpts.WithWidth(m.bubbleWidth()-4))
	if cached.out != want {
		t.Errorf("rendered reply mismatch\n got: %q\nwant: %q", cached.out, want)
	}
	if strings.Contains(m.viewport.View(), "**hi**") {
		t.Error("raw markdown leaked into the transcript")
	}
	if !strings.Contains(m.viewport.View(), "hi") {
		t.Error("reply text missing from the transcript")
	}
}

func TestSubmit_OverlappingRequestsResolveIndependently(t *testing.T) {
	client := &api.MockChatClient{
		Replies: map[string]api.MockReply{
			"first":  {Text: "one"},
			"second": {Err: apierrors.NewHTTPError(502, "x", "")},
		},
	}
	m := newTestModel(t, client)

	m, cmd1 := submit(t, m, "first")
	m, cmd2 := submit(t, m, "second")

	if m.transcript.PendingCount() != 2 {
		t.Fatalf("expected 2 outstanding placeholders, got %d", m.transcript.PendingCount())
	}

	r1 := replies(t, cmd1)
	r2 := replies(t, cmd2)
	if len(r1) != 1 || len(r2) != 1 {
		t.Fatalf("expected one reply per submission, got %d and %d", len(r1), len(r2))
	}

	// Second reply lands first
	m = feed(m, r2[0])
	entries := m.transcript.Entries()
	if !entries[1].Pending() {
		t.Error("first placeholder resolved by the second reply")
	}
	if entries[3].Text != transcript.NoticeFailed {
		t.Errorf("second placeholder = %q", entries[3].Text)
	}

	m = feed(m, r1[0])
	entries = m.transcript.Entries()
	want := []struct {
		sender transcript.Sender
		text   string
	}{
		{transcript.SenderUser, "first"},
		{transcript.SenderBot, "one"},
		{transcript.SenderUser, "second"},
		{transcript.SenderBot, transcript.NoticeFailed},
	}
	for i, w := range want {
		if entries[i].Sender != w.sender || entries[i].Text != w.text {
			t.Errorf("entry %d = %+v, want %s %q", i, entries[i], w.sender, w.text)
		}
	}
	if client.CallCount() != 2 {
		t.Errorf("expected 2 independent calls, got %d", client.CallCount())
	}
}

func TestSubmit_SpinnerStartsOnce(t *testing.T) {
	m := newTestModel(t, &api.MockChatClient{Reply: "ok"})

	m, cmd1 := submit(t, m, "a")
	m, cmd2 := submit(t, m, "b")

	countTicks := func(cmd tea.Cmd) int {
		n := 0
		for _, msg := range collect(cmd) {
			if _, ok := msg.(spinner.TickMsg); ok {
				n++
			}
		}
		return n
	}

	if countTicks(cmd1) != 1 {
		t.Error("first submission should start the indicator")
	}
	if countTicks(cmd2) != 0 {
		t.Error("second submission should reuse the running indicator")
	}
}

func TestSpinnerStopsWhenNothingPending(t *testing.T) {
	m := newTestModel(t, &api.MockChatClient{Reply: "ok"})

	m, cmd := submit(t, m, "a")
	var tick spinner.TickMsg
	for _, msg := range collect(cmd) {
		switch msg := msg.(type) {
		case replyMsg:
			m = feed(m, msg)
		case spinner.TickMsg:
			tick = msg
		}
	}

	updated, next := m.Update(tick)
	m = updated.(Model)
	if next != nil {
		t.Error("expected the tick chain to stop")
	}
	if m.spinning {
		t.Error("expected spinning=false")
	}
}

func TestStaleReplyIgnored(t *testing.T) {
	m := newTestModel(t, &api.MockChatClient{})
	m = feed(m, replyMsg{entryID: "unknown", reply: "x"})

	if m.transcript.Len() != 0 {
		t.Error("a reply for an unknown entry must not add entries")
	}
}

func TestCopyLastReply(t *testing.T) {
	var copied string
	m := newTestModel(t, &api.MockChatClient{Reply: "**copy me**"})
	m.copyText = func(s string) error {
		copied = s
		return nil
	}

	m = feed(m, tea.KeyMsg{Type: tea.KeyCtrlY})
	if m.flash != "Nothing to copy yet" {
		t.Errorf("flash = %q", m.flash)
	}

	m, cmd := submit(t, m, "q")
	for _, r := range replies(t, cmd) {
		m = feed(m, r)
	}

	m = feed(m, tea.KeyMsg{Type: tea.KeyCtrlY})
	if copied != "**copy me**" {
		t.Errorf("copied %q, want the markdown source", copied)
	}
	if m.flash != "Copied reply to clipboard" {
		t.Errorf("flash = %q", m.flash)
	}

	m.copyText = func(string) error { return errors.New("no xclip") }
	m = feed(m, tea.KeyMsg{Type: tea.KeyCtrlY})
	if m.flash != "Clipboard unavailable" {
		t.Errorf("flash = %q", m.flash)
	}

	// Typing clears the flash
	m = feed(m, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("x")})
	if m.flash != "" {
		t.Errorf("flash not cleared: %q", m.flash)
	}
	if m.input.Value() != "x" {
		t.Errorf("input = %q, want x", m.input.Value())
	}
}

func TestQuitKeys(t *testing.T) {
	for _, key := range []tea.KeyMsg{{Type: tea.KeyCtrlC}, {Type: tea.KeyEsc}} {
		m := newTestModel(t, &api.MockChatClient{})
		_, cmd := m.Update(key)
		if cmd == nil {
			t.Fatalf("%s: expected quit command", key.String())
		}
		if _, ok := cmd().(tea.QuitMsg); !ok {
			t.Errorf("%s: expected tea.QuitMsg", key.String())
		}
	}
}

func TestQuitWhilePending(t *testing.T) {
	m := newTestModel(t, &api.MockChatClient{Reply: "late"})
	m, _ = submit(t, m, "q")

	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEsc})
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Error("Esc must quit even with requests outstanding")
	}
}

func TestView(t *testing.T) {
	m := newTestModel(t, &api.MockChatClient{Endpoint: "http://chat.test/api/chat", Reply: "ok"})

	view := m.View()
	if !strings.Contains(view, "Start a conversation") {
		t.Error("expected welcome screen on empty transcript")
	}
	if !strings.Contains(view, "http://chat.test/api/chat") {
		t.Error("expected endpoint in header")
	}

	m, _ = submit(t, m, "hello there")
	view = m.View()
	if strings.Contains(view, "Start a conversation") {
		t.Error("welcome screen shown with entries present")
	}
	if !strings.Contains(view, "hello there") {
		t.Error("user entry missing from view")
	}
	if !strings.Contains(view, "1 waiting") {
		t.Error("expected outstanding request count in status bar")
	}
}

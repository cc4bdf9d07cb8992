package tui

import (
	"context"
	"fmt"
	"strings"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/rs/zerolog/log"

	"github.com/diogo/chatwidget/internal/api"
	apierrors "github.com/diogo/chatwidget/internal/errors"
	"github.com/diogo/chatwidget/internal/models"
	"github.com/diogo/chatwidget/internal/render"
	"github.com/diogo/chatwidget/internal/transcript"
)

// Layout rows taken by everything except the transcript viewport
const (
	headerHeight    = 3 // title line inside a rounded border
	inputHeight     = 3 // input line inside a rounded border
	statusHeight    = 1
	transcriptInset = 2 // transcript border, top and bottom
	minViewport     = 3
)

// replyMsg carries the outcome of one chat call back to the entry that issued it
type replyMsg struct {
	entryID string
	reply   string
	err     error
}

// renderedReply caches glamour output for one entry at one width
type renderedReply struct {
	width int
	out   string
}

// Model is the chat widget: an input line, a transcript, and one pending
// placeholder per outstanding request.
type Model struct {
	ctx        context.Context
	client     api.ChatClientInterface
	renderOpts render.Options
	copyText   func(string) error

	// UI components
	viewport viewport.Model
	input    textinput.Model
	spinner  spinner.Model

	// State
	transcript *transcript.Transcript
	rendered   map[string]renderedReply
	spinning   bool
	ready      bool
	flash      string

	// Dimensions
	width  int
	height int
}

// NewChatModel creates the widget. ctx bounds every request it issues;
// cancelling it abandons in-flight calls.
func NewChatModel(ctx context.Context, client api.ChatClientInterface, renderOpts render.Options) Model {
	ti := textinput.New()
	ti.Placeholder = "Type your message here..."
	ti.Prompt = ""
	ti.CharLimit = 0 // unlimited: the whole message is sent
	ti.TextStyle = lipgloss.NewStyle().Foreground(colorText)
	ti.PlaceholderStyle = lipgloss.NewStyle().Foreground(colorTextDim)
	ti.Focus()

	// Points is the three-dot typing indicator
	s := spinner.New()
	s.Spinner = spinner.Points
	s.Style = pendingDotStyle

	return Model{
		ctx:        ctx,
		client:     client,
		renderOpts: renderOpts,
		copyText:   clipboard.WriteAll,
		input:      ti,
		spinner:    s,
		transcript: transcript.New(),
		rendered:   make(map[string]renderedReply),
	}
}

// Init initializes the model
func (m Model) Init() tea.Cmd {
	return textinput.Blink
}

// Update handles messages and updates the model
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.resize(msg.Width, msg.Height)
		return m, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "esc":
			return m, tea.Quit

		case "enter":
			return m.handleSubmit()

		case "ctrl+y":
			m.copyLastReply()
			return m, nil

		case "up", "down", "pgup", "pgdown":
			m.viewport, cmd = m.viewport.Update(msg)
			return m, cmd
		}

		m.flash = ""
		m.input, cmd = m.input.Update(msg)
		return m, cmd

	case replyMsg:
		m.resolve(msg)
		return m, nil

	case spinner.TickMsg:
		if m.transcript.PendingCount() == 0 {
			m.spinning = false
			return m, nil
		}
		m.spinner, cmd = m.spinner.Update(msg)
		m.refreshTranscript(false)
		return m, cmd
	}

	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

// handleSubmit runs one submission: user entry, cleared input, pending
// placeholder, and a request command. Blank input is ignored entirely.
// Submissions are not serialized: each one owns its placeholder.
func (m Model) handleSubmit() (tea.Model, tea.Cmd) {
	text := strings.TrimSpace(m.input.Value())
	if text == "" {
		return m, nil
	}

	m.transcript.AppendUser(text)
	m.input.Reset()
	focus := m.input.Focus()
	pending := m.transcript.AppendPending()
	m.flash = ""
	m.refreshTranscript(true)

	log.Debug().Str("entry", pending.ID).Int("pending", m.transcript.PendingCount()).Msg("chat request issued")

	cmds := []tea.Cmd{focus, m.sendMessage(pending.ID, text)}
	if !m.spinning {
		m.spinning = true
		cmds = append(cmds, m.spinner.Tick)
	}
	return m, tea.Batch(cmds...)
}

// sendMessage creates a command that posts one user message
func (m Model) sendMessage(entryID, text string) tea.Cmd {
	ctx, client := m.ctx, m.client
	return func() tea.Msg {
		reply, err := client.Send(ctx, models.NewUserRequest(text).Messages)
		return replyMsg{entryID: entryID, reply: reply, err: err}
	}
}

// resolve settles the placeholder a reply belongs to and scrolls to the bottom
func (m *Model) resolve(msg replyMsg) {
	if msg.err != nil {
		log.Error().
			Err(msg.err).
			Str("entry", msg.entryID).
			Str("kind", apierrors.Kind(msg.err)).
			Int("status", apierrors.GetHTTPStatus(msg.err)).
			Str("endpoint", apierrors.GetEndpoint(msg.err)).
			Str("body", apierrors.GetResponseBody(msg.err)).
			Msg("failed to fetch chat response")
	}

	entry, err := m.transcript.Resolve(msg.entryID, msg.reply, msg.err)
	if err != nil {
		log.Warn().Err(err).Msg("reply for settled entry dropped")
	} else {
		log.Debug().Str("entry", entry.ID).Stringer("state", entry.State).Msg("chat entry settled")
	}

	m.refreshTranscript(true)
}

func (m *Model) copyLastReply() {
	reply, ok := m.transcript.LastReply()
	if !ok {
		m.flash = "Nothing to copy yet"
		return
	}
	if err := m.copyText(reply); err != nil {
		log.Warn().Err(err).Msg("clipboard write failed")
		m.flash = "Clipboard unavailable"
		return
	}
	m.flash = "Copied reply to clipboard"
}

func (m *Model) resize(width, height int) {
	m.width = width
	m.height = height

	vpHeight := height - headerHeight - inputHeight - statusHeight - transcriptInset
	if vpHeight < minViewport {
		vpHeight = minViewport
	}
	vpWidth := width - 4
	if vpWidth < render.MinWidth {
		vpWidth = render.MinWidth
	}

	if !m.ready {
		m.viewport = viewport.New(vpWidth, vpHeight)
		m.ready = true
	} else {
		m.viewport.Width = vpWidth
		m.viewport.Height = vpHeight
	}
	m.input.Width = vpWidth - lipgloss.Width(inputLabelStyle.Render("You"))

	m.refreshTranscript(true)
}

// refreshTranscript re-renders the transcript into the viewport
func (m *Model) refreshTranscript(toBottom bool) {
	if !m.ready {
		return
	}
	m.viewport.SetContent(m.renderTranscript())
	if toBottom {
		m.viewport.GotoBottom()
	}
}

func (m *Model) bubbleWidth() int {
	w := m.viewport.Width - 6
	if w < render.MinWidth {
		w = render.MinWidth
	}
	return w
}

func (m *Model) renderTranscript() string {
	var content strings.Builder
	width := m.bubbleWidth()

	for i, e := range m.transcript.Entries() {
		if i > 0 {
			content.WriteString("\n")
		}

		if e.Sender == transcript.SenderUser {
			label := userLabelStyle.Render("⬤ You")
			bubble := userBubbleStyle.Width(width).Render(e.Text)
			content.WriteString(label + "\n" + bubble)
		} else {
			label := botLabelStyle.Render("✦ Bot")
			bubble := botBubbleStyle.Width(width).Render(m.renderBotBody(e, width-4))
			content.WriteString(label + "\n" + bubble)
		}
		content.WriteString("\n")
	}

	return content.String()
}

func (m *Model) renderBotBody(e transcript.Entry, width int) string {
	switch {
	case e.Pending():
		return m.spinner.View()
	case e.IsMarkdown():
		if cached, ok := m.rendered[e.ID]; ok && cached.width == width {
			return cached.out
		}
		out := render.Reply(e.Text, m.renderOpts.WithWidth(width))
		m.rendered[e.ID] = renderedReply{width: width, out: out}
		return out
	case e.State == transcript.StateFailed:
		return failedStyle.Render(e.Text)
	default:
		return noticeStyle.Render(e.Text)
	}
}

// View renders the TUI
func (m Model) View() string {
	if !m.ready {
		return hintStyle.Render("  Initializing...")
	}

	contentWidth := m.width - 2
	if contentWidth < render.MinWidth {
		contentWidth = render.MinWidth
	}

	header := headerStyle.Width(contentWidth).Render(lipgloss.JoinHorizontal(
		lipgloss.Center,
		titleStyle.Render("✦ Chat"),
		hintStyle.Render("  •  "),
		subtitleStyle.Render(m.client.URL()),
	))

	var body string
	if m.transcript.Len() == 0 {
		body = m.renderWelcome()
	} else {
		body = m.viewport.View()
	}
	transcriptPanel := transcriptStyle.
		Width(contentWidth).
		Height(m.viewport.Height).
		Render(body)

	inputPanel := inputPanelStyle.Width(contentWidth).Render(lipgloss.JoinHorizontal(
		lipgloss.Left,
		inputLabelStyle.Render("You"),
		m.input.View(),
	))

	return lipgloss.JoinVertical(lipgloss.Left,
		header,
		transcriptPanel,
		inputPanel,
		m.renderStatusBar(contentWidth),
	)
}

// renderWelcome renders the empty-transcript screen
func (m Model) renderWelcome() string {
	width := m.viewport.Width

	content := lipgloss.JoinVertical(
		lipgloss.Center,
		welcomeIconStyle.Width(width).Render("✦"),
		"",
		welcomeTitleStyle.Width(width).Render("Start a conversation"),
		welcomeStyle.Width(width).Render("Type a message below and press Enter"),
	)

	topPadding := (m.viewport.Height - lipgloss.Height(content)) / 2
	if topPadding < 0 {
		topPadding = 0
	}
	return strings.Repeat("\n", topPadding) + content
}

// renderStatusBar renders shortcuts, the number of outstanding requests, and any flash message
func (m Model) renderStatusBar(width int) string {
	shortcuts := []struct {
		key  string
		desc string
	}{
		{"Enter", "Send"},
		{"Ctrl+Y", "Copy reply"},
		{"↑↓", "Scroll"},
		{"Esc", "Quit"},
	}

	items := make([]string, 0, len(shortcuts)+1)
	for _, s := range shortcuts {
		items = append(items, statusKeyStyle.Render(s.key)+statusDescStyle.Render(" "+s.desc))
	}
	if n := m.transcript.PendingCount(); n > 0 {
		items = append(items, flashStyle.Render(fmt.Sprintf("%d waiting", n)))
	}
	if m.flash != "" {
		items = append(items, flashStyle.Render(m.flash))
	}

	return statusBarStyle.Width(width).Align(lipgloss.Center).Render(strings.Join(items, "  │  "))
}

// Run starts the chat widget in the alternate screen
func Run(ctx context.Context, client api.ChatClientInterface, renderOpts render.Options) error {
	p := tea.NewProgram(
		NewChatModel(ctx, client, renderOpts),
		tea.WithAltScreen(),
		tea.WithContext(ctx),
	)

	_, err := p.Run()
	return err
}

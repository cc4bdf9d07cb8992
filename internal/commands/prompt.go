package commands

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/lipgloss"
	"github.com/rs/zerolog/log"
	"golang.org/x/term"

	"github.com/diogo/chatwidget/internal/api"
	apierrors "github.com/diogo/chatwidget/internal/errors"
	"github.com/diogo/chatwidget/internal/models"
	"github.com/diogo/chatwidget/internal/render"
	"github.com/diogo/chatwidget/internal/transcript"
)

// Gradient colors for the waiting dots
var gradientColors = []lipgloss.Color{
	lipgloss.Color("#7aa2f7"), // Blue
	lipgloss.Color("#bb9af7"), // Purple
	lipgloss.Color("#7dcfff"), // Cyan
	lipgloss.Color("#9ece6a"), // Green
}

var (
	colorText     = lipgloss.Color("#c0caf5")
	colorTextDim  = lipgloss.Color("#565f89")
	colorTextMute = lipgloss.Color("#3b4261")
	colorSuccess  = lipgloss.Color("#9ece6a")
	colorError    = lipgloss.Color("#f7768e")
	colorPrimary  = lipgloss.Color("#7aa2f7")
)

// Styles matching the chat TUI
var (
	botLabelStyle = lipgloss.NewStyle().
			Foreground(colorPrimary).
			Bold(true)

	botBubbleStyle = lipgloss.NewStyle().
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(colorPrimary).
			Foreground(colorText).
			Padding(0, 1).
			MarginBottom(1)

	noticeStyle = lipgloss.NewStyle().
			Foreground(colorTextDim).
			Italic(true)

	failureStyle = lipgloss.NewStyle().
			Foreground(colorError)
)

// copyToClipboard is replaced in tests
var copyToClipboard = clipboard.WriteAll

// spinner draws the three-dot waiting indicator on a terminal
type spinner struct {
	out     io.Writer
	message string
	stop    chan struct{}
	done    chan struct{}
	mu      sync.Mutex
	frame   int
	stopped bool // Flag to prevent double-close
}

// newSpinner creates a new spinner writing to out
func newSpinner(out io.Writer, message string) *spinner {
	return &spinner{
		out:     out,
		message: message,
		stop:    make(chan struct{}),
		done:    make(chan struct{}),
	}
}

// start begins the animation
func (s *spinner) start() {
	go func() {
		defer close(s.done)

		ticker := time.NewTicker(120 * time.Millisecond)
		defer ticker.Stop()

		// Hide cursor
		fmt.Fprint(s.out, "\033[?25l")

		for {
			select {
			case <-s.stop:
				// Clear line and show cursor
				fmt.Fprint(s.out, "\r\033[K\033[?25h")
				return
			case <-ticker.C:
				s.mu.Lock()
				s.render()
				s.frame++
				s.mu.Unlock()
			}
		}
	}()
}

// render draws the current animation frame
func (s *spinner) render() {
	var dots strings.Builder
	lit := s.frame % 4
	for i := 0; i < 3; i++ {
		if i < lit {
			dotColor := gradientColors[(s.frame+i)%len(gradientColors)]
			dots.WriteString(lipgloss.NewStyle().Foreground(dotColor).Render("●"))
		} else {
			dots.WriteString(lipgloss.NewStyle().Foreground(colorTextMute).Render("○"))
		}
	}

	msg := lipgloss.NewStyle().Foreground(colorText).Render(s.message)
	fmt.Fprintf(s.out, "\r\033[K%s %s", msg, dots.String())
}

// stopOnce safely closes the stop channel only once
func (s *spinner) stopOnce() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.stopped {
		close(s.stop)
		s.stopped = true
	}
}

// halt stops the spinner and waits for the line to be cleared
func (s *spinner) halt() {
	s.stopOnce()
	<-s.done
}

// promptOutput controls how a one-shot reply is shown
type promptOutput struct {
	out      io.Writer
	errOut   io.Writer
	decorate bool // terminal output: spinner, bubble, rendered Markdown
	width    int
	copy     bool
	render   render.Options
}

// runPromptCommand wires configuration, logging and the client for one submission
func runPromptCommand(ctx context.Context, prompt string, out, errOut io.Writer) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	var console io.Writer
	if verboseFlag {
		console = errOut
	}
	closeLog, err := setupLogging(cfg, console)
	if err != nil {
		return err
	}
	defer closeLog()

	client, err := newClient(cfg)
	if err != nil {
		return err
	}
	defer client.Close()

	return runPrompt(ctx, client, prompt, promptOutput{
		out:      out,
		errOut:   errOut,
		decorate: isStdoutTTY(),
		width:    getTerminalWidth(),
		copy:     copyFlag || cfg.CopyToClipboard,
		render:   render.LoadOptionsFromConfig(cfg),
	})
}

// runPrompt submits one message and prints the settled reply.
// A failed request prints the fixed failure notice and returns errReported.
func runPrompt(ctx context.Context, client api.ChatClientInterface, prompt string, po promptOutput) error {
	prompt = strings.TrimSpace(prompt)
	if prompt == "" {
		return fmt.Errorf("prompt cannot be empty: %w", apierrors.ErrEmptyPrompt)
	}

	var spin *spinner
	if po.decorate {
		spin = newSpinner(po.errOut, "Waiting for reply")
		spin.start()
	}

	start := time.Now()
	reply, callErr := client.Send(ctx, models.NewUserRequest(prompt).Messages)
	if spin != nil {
		spin.halt()
	}

	state, text := transcript.Settle(reply, callErr)

	log.Debug().
		Str("endpoint", client.URL()).
		Stringer("state", state).
		Dur("elapsed", time.Since(start)).
		Msg("one-shot request settled")

	switch state {
	case transcript.StateFailed:
		log.Error().
			Err(callErr).
			Str("kind", apierrors.Kind(callErr)).
			Int("status", apierrors.GetHTTPStatus(callErr)).
			Str("endpoint", apierrors.GetEndpoint(callErr)).
			Str("body", apierrors.GetResponseBody(callErr)).
			Msg("failed to fetch chat response")
		if po.decorate {
			text = failureStyle.Render("✗ " + text)
		}
		fmt.Fprintln(po.errOut, text)
		return fmt.Errorf("chat request failed: %w", errReported)

	case transcript.StateEmpty:
		if po.decorate {
			text = noticeStyle.Render(text)
		}
		fmt.Fprintln(po.out, text)
		return nil
	}

	if po.copy {
		if err := copyToClipboard(text); err != nil {
			log.Warn().Err(err).Msg("clipboard write failed")
			fmt.Fprintln(po.errOut, failureStyle.Render(fmt.Sprintf("⚠ Failed to copy to clipboard: %v", err)))
		} else if po.decorate {
			fmt.Fprintln(po.errOut, lipgloss.NewStyle().Foreground(colorSuccess).Render("✓ Copied to clipboard"))
		}
	}

	// Raw output mode: Markdown source only
	if !po.decorate {
		fmt.Fprintln(po.out, text)
		return nil
	}

	bubbleWidth := po.width - 4
	if bubbleWidth < 40 {
		bubbleWidth = 40
	}
	if bubbleWidth > 120 {
		bubbleWidth = 120
	}
	contentWidth := bubbleWidth - 4

	rendered := render.Reply(text, po.render.WithWidth(contentWidth))
	fmt.Fprintln(po.out, botLabelStyle.Render("✦ Bot"))
	fmt.Fprintln(po.out, botBubbleStyle.Width(bubbleWidth).Render(rendered))
	return nil
}

// getTerminalWidth returns the terminal width or a default value
func getTerminalWidth() int {
	width, _, err := term.GetSize(int(os.Stdout.Fd()))
	if err != nil || width <= 0 {
		return 80 // default width
	}
	return width
}

// isStdoutTTY returns true if stdout is connected to a terminal
func isStdoutTTY() bool {
	return term.IsTerminal(int(os.Stdout.Fd()))
}

package devserver

import (
	"context"
	"fmt"
	"strings"

	"github.com/diogo/chatwidget/internal/models"
)

// Responder produces the reply for one chat request.
// An empty reply is sent as {} so clients see "no result".
type Responder interface {
	Respond(ctx context.Context, req models.ChatRequest) (string, error)
}

// ResponderFunc adapts a function to Responder
type ResponderFunc func(ctx context.Context, req models.ChatRequest) (string, error)

// Respond calls f
func (f ResponderFunc) Respond(ctx context.Context, req models.ChatRequest) (string, error) {
	return f(ctx, req)
}

// EchoResponder answers with a Markdown quote of the last user message
type EchoResponder struct{}

// Respond implements Responder
func (EchoResponder) Respond(_ context.Context, req models.ChatRequest) (string, error) {
	content := strings.TrimSpace(req.LastUserMessage())
	if content == "" {
		return "", nil
	}

	quoted := "> " + strings.ReplaceAll(content, "\n", "\n> ")
	return fmt.Sprintf("**You said:**\n\n%s", quoted), nil
}

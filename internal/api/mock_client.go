package api

import (
	"context"
	"sync"

	"github.com/diogo/chatwidget/internal/models"
)

// MockReply is a canned answer for MockChatClient
type MockReply struct {
	Text string
	Err  error
}

// MockChatClient is a mock implementation of ChatClientInterface for testing
type MockChatClient struct {
	// Default answer when no per-prompt reply is registered
	Reply string
	Err   error
	// Replies keyed by the content of the last message
	Replies map[string]MockReply
	// Block, when set, is waited on before answering
	Block chan struct{}

	Endpoint string

	mu    sync.Mutex
	calls [][]models.Message
}

// Ensure MockChatClient implements ChatClientInterface
var _ ChatClientInterface = (*MockChatClient)(nil)

// Send records the call and returns the configured reply
func (m *MockChatClient) Send(ctx context.Context, messages []models.Message) (string, error) {
	m.mu.Lock()
	m.calls = append(m.calls, append([]models.Message(nil), messages...))
	m.mu.Unlock()

	if m.Block != nil {
		select {
		case <-m.Block:
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}

	if len(messages) > 0 && m.Replies != nil {
		if r, ok := m.Replies[messages[len(messages)-1].Content]; ok {
			return r.Text, r.Err
		}
	}
	return m.Reply, m.Err
}

// URL returns the configured endpoint
func (m *MockChatClient) URL() string {
	if m.Endpoint == "" {
		return models.DefaultServerURL + models.EndpointChat
	}
	return m.Endpoint
}

// Calls returns a copy of every message list passed to Send
func (m *MockChatClient) Calls() [][]models.Message {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([][]models.Message(nil), m.calls...)
}

// CallCount returns the number of Send calls
func (m *MockChatClient) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.calls)
}

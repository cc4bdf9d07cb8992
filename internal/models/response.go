package models

// ChatRequest is the body posted to the chat endpoint
type ChatRequest struct {
	Messages []Message `json:"messages"`
}

// NewUserRequest builds the request for one submission: a single user message
func NewUserRequest(content string) ChatRequest {
	return ChatRequest{
		Messages: []Message{NewUserMessage(content)},
	}
}

// LastUserMessage returns the content of the newest user message, or "" if none
func (r ChatRequest) LastUserMessage() string {
	for i := len(r.Messages) - 1; i >= 0; i-- {
		if r.Messages[i].Role == RoleUser {
			return r.Messages[i].Content
		}
	}
	return ""
}

// ChatResponse is the body returned by the chat endpoint.
// An empty Result means the server produced no content.
type ChatResponse struct {
	Result string `json:"result,omitempty"`
}

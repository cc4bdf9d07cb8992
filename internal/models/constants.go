// Package models contains the data types and constants exchanged with the chat endpoint.
package models

// Endpoint defaults for the chat backend
const (
	DefaultServerURL = "http://localhost:3000"
	EndpointChat     = "/api/chat"
)

// DefaultHeaders returns the headers sent with every chat request
func DefaultHeaders() map[string]string {
	return map[string]string{
		"Content-Type": "application/json",
	}
}

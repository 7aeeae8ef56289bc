package chat

// Role constants for chat messages. These match the roles defined by
// Ollama's chat API.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
	RoleSystem    = "system"
)

// Message represents a single chat message in the conversation.
// This structure is defined by Ollama's API and is used both for
// messages sent to the LLM and messages decoded from its stream.
type Message struct {
	Role    string `json:"role"` // "user", "assistant", "system"
	Content string `json:"content"`
}

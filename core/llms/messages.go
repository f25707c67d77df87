package llms

// MessageRole describes who a message is from.
type MessageRole string

const (
	MessageRoleSystem    MessageRole = "system"
	MessageRoleUser      MessageRole = "user"
	MessageRoleAssistant MessageRole = "assistant"
)

// Message is a single entry in a conversation transcript. Messages are
// immutable once appended; the transcript itself is append-only and owned
// by the session.
type Message struct {
	Role    MessageRole
	Content string
}

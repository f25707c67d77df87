package events

const (
	// KindUserPromptSubmitted identifies a prompt entering the conversation.
	KindUserPromptSubmitted Kind = "user_prompt.submitted"
)

// UserPromptSubmitted carries a typed or transcribed user prompt.
type UserPromptSubmitted struct {
	Base
	Prompt        string
	IsTranscribed bool
}

func (u UserPromptSubmitted) String() string {
	return u.Prompt
}

// NewUserPromptSubmitted creates a typed prompt event.
func NewUserPromptSubmitted(prompt string) UserPromptSubmitted {
	return UserPromptSubmitted{Base: NewBase(KindUserPromptSubmitted), Prompt: prompt}
}

// NewTranscribedUserPromptSubmitted creates a prompt event sourced from
// speech transcription.
func NewTranscribedUserPromptSubmitted(prompt string) UserPromptSubmitted {
	return UserPromptSubmitted{Base: NewBase(KindUserPromptSubmitted), Prompt: prompt, IsTranscribed: true}
}

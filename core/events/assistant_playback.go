package events

const (
	// KindAssistantPlaybackEnded identifies the end of a response's playback.
	KindAssistantPlaybackEnded Kind = "assistant_playback.ended"
)

// AssistantPlaybackEnded marks when every queued sentence of the current
// response finished playing; carries the response's spoken transcript.
type AssistantPlaybackEnded struct {
	Base
	Transcript string
}

// NewAssistantPlaybackEnded creates an assistant playback ended event.
func NewAssistantPlaybackEnded(transcript string) AssistantPlaybackEnded {
	return AssistantPlaybackEnded{Base: NewBase(KindAssistantPlaybackEnded), Transcript: transcript}
}

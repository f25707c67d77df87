package events

const (
	// KindAssistantResponseSegment identifies streamed assistant response text.
	KindAssistantResponseSegment Kind = "assistant_response.segment"
	// KindAssistantResponseFinal identifies assistant response stream completion.
	KindAssistantResponseFinal Kind = "assistant_response.final"
)

// AssistantResponseSegment carries a streamed assistant response text segment.
type AssistantResponseSegment struct {
	Base
	Segment string
}

// NewAssistantResponseSegment creates an assistant response segment event.
func NewAssistantResponseSegment(segment string) AssistantResponseSegment {
	return AssistantResponseSegment{Base: NewBase(KindAssistantResponseSegment), Segment: segment}
}

// AssistantResponseFinal marks assistant response stream completion and
// carries the full assembled response text.
type AssistantResponseFinal struct {
	Base
	Response string
}

// NewAssistantResponseFinal creates an assistant response final event.
func NewAssistantResponseFinal(response string) AssistantResponseFinal {
	return AssistantResponseFinal{Base: NewBase(KindAssistantResponseFinal), Response: response}
}

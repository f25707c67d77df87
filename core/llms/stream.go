package llms

import "context"

// Stream is a lazy chat response. Chunks performs the request when iterated
// and yields decoded chunks in delivery order; the stream can only be
// restarted by resubmitting the prompt.
type Stream interface {
	Chunks(context.Context) func(func(StreamChunk, error) bool)
}

type StreamChunk interface {
	FinishReason() *string
}

type StreamContentChunk interface {
	StreamChunk
	Content() string
}

package events

const (
	// KindScreenplayEnqueued identifies a sentence queued for synthesis.
	KindScreenplayEnqueued Kind = "screenplay.enqueued"
	// KindScreenplaySpeechStarted identifies start of a queued sentence's playback.
	KindScreenplaySpeechStarted Kind = "screenplay.speech_started"
	// KindScreenplaySpeechEnded identifies end of a queued sentence's playback.
	KindScreenplaySpeechEnded Kind = "screenplay.speech_ended"
)

// ScreenplayEnqueued carries a sentence that was queued for synthesis.
type ScreenplayEnqueued struct {
	Base
	Text  string
	Style string
}

// NewScreenplayEnqueued creates a screenplay enqueued event.
func NewScreenplayEnqueued(text, style string) ScreenplayEnqueued {
	return ScreenplayEnqueued{Base: NewBase(KindScreenplayEnqueued), Text: text, Style: style}
}

// ScreenplaySpeechStarted marks when a queued sentence starts playing and
// carries the style and expression the avatar should take on for it.
type ScreenplaySpeechStarted struct {
	Base
	Text       string
	Style      string
	Expression string
}

// NewScreenplaySpeechStarted creates a screenplay speech started event.
func NewScreenplaySpeechStarted(text, style, expression string) ScreenplaySpeechStarted {
	return ScreenplaySpeechStarted{
		Base:       NewBase(KindScreenplaySpeechStarted),
		Text:       text,
		Style:      style,
		Expression: expression,
	}
}

// ScreenplaySpeechEnded marks when a queued sentence finishes playing.
// Sentences whose synthesis failed still end; they are skipped silently.
type ScreenplaySpeechEnded struct {
	Base
	Text string
}

// NewScreenplaySpeechEnded creates a screenplay speech ended event.
func NewScreenplaySpeechEnded(text string) ScreenplaySpeechEnded {
	return ScreenplaySpeechEnded{Base: NewBase(KindScreenplaySpeechEnded), Text: text}
}

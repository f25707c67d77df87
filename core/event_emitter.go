package orchestration

import "github.com/kotonelabs/avatar-core/core/events"

type eventEmitter func(events.Event)

func noopEventEmitter(events.Event) {}

// newCallbackEventEmitter translates typed events into the plain callbacks
// registered through OrchestrateOptions.
func newCallbackEventEmitter(opts OrchestrateOptions) eventEmitter {
	return func(event events.Event) {
		switch typedEvent := event.(type) {
		case events.UserPromptSubmitted:
			if opts.onPrompt != nil {
				opts.onPrompt(typedEvent.Prompt, typedEvent.IsTranscribed)
			}
		case events.UserSpeechStarted:
			if opts.onSpeakingStateChanged != nil {
				opts.onSpeakingStateChanged(true)
			}
		case events.UserSpeechEnded:
			if opts.onSpeakingStateChanged != nil {
				opts.onSpeakingStateChanged(false)
			}
		case events.UserTranscriptFinal:
			if opts.onTranscription != nil {
				opts.onTranscription(typedEvent.Transcript)
			}
		case events.AssistantResponseSegment:
			if opts.onResponse != nil {
				opts.onResponse(typedEvent.Segment)
			}
		case events.AssistantResponseFinal:
			if opts.onResponseEnd != nil {
				opts.onResponseEnd(typedEvent.Response)
			}
		case events.ScreenplayEnqueued:
			if opts.onScreenplayEnqueued != nil {
				opts.onScreenplayEnqueued(typedEvent.Text, typedEvent.Style)
			}
		case events.ScreenplaySpeechStarted:
			if opts.onSpeechStarted != nil {
				opts.onSpeechStarted(typedEvent.Text, typedEvent.Style, typedEvent.Expression)
			}
		case events.ScreenplaySpeechEnded:
			if opts.onSpeechEnded != nil {
				opts.onSpeechEnded(typedEvent.Text)
			}
		case events.AssistantPlaybackEnded:
			if opts.onPlaybackEnded != nil {
				opts.onPlaybackEnded(typedEvent.Transcript)
			}
		}
	}
}

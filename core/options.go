package orchestration

import (
	"context"
	"time"

	"github.com/kotonelabs/avatar-core/core/llms"
	"github.com/kotonelabs/avatar-core/core/speechtotext"
	"github.com/kotonelabs/avatar-core/core/texttospeech"
)

type OrchestratorOption func(*Orchestrator)

// ChatStreamer produces streamed chat responses over the conversation
// transcript.
type ChatStreamer interface {
	PromptWithStream(ctx context.Context, messages []llms.Message) llms.Stream
}

func WithStreamingChat(client ChatStreamer) OrchestratorOption {
	return func(o *Orchestrator) {
		o.chat = client
	}
}

func WithSynthesizer(synthesizer texttospeech.Synthesizer) OrchestratorOption {
	return func(o *Orchestrator) {
		o.synthesizer = synthesizer
	}
}

func WithPlaybackSink(sink PlaybackSink) OrchestratorOption {
	return func(o *Orchestrator) {
		o.sink = sink
	}
}

type SpeechToText interface {
	Transcribe(ctx context.Context, opts ...speechtotext.TranscriptionOption) error
	SendAudio(audio []byte) error
}

func WithSpeechToTextClient(client SpeechToText) OrchestratorOption {
	return func(o *Orchestrator) {
		o.speechToText.set(client)
	}
}

// WithVoice places the synthesized voice on the provider's speaker map.
func WithVoice(voice VoiceParams) OrchestratorOption {
	return func(o *Orchestrator) {
		o.voice = voice
	}
}

func WithSystemPrompt(prompt string) OrchestratorOption {
	return func(o *Orchestrator) {
		o.systemPrompt = prompt
	}
}

// WithRateLimitInterval sets the minimum spacing between synthesis
// requests.
func WithRateLimitInterval(interval time.Duration) OrchestratorOption {
	return func(o *Orchestrator) {
		o.rateLimitInterval = interval
	}
}

type OrchestrateOptions struct {
	onPrompt               func(prompt string, isTranscribed bool)
	onTranscription        func(transcript string)
	onSpeakingStateChanged func(isSpeaking bool)
	onResponse             func(segment string)
	onResponseEnd          func(response string)
	onScreenplayEnqueued   func(text, style string)
	onSpeechStarted        func(text, style, expression string)
	onSpeechEnded          func(text string)
	onPlaybackEnded        func(transcript string)
}

type OrchestrateOption func(*OrchestrateOptions)

// WithPromptCallback registers a callback for prompts entering the
// conversation, whether typed or transcribed.
func WithPromptCallback(callback func(prompt string, isTranscribed bool)) OrchestrateOption {
	return func(o *OrchestrateOptions) {
		o.onPrompt = callback
	}
}

// WithTranscriptionCallback registers a callback for final transcriptions
// produced by the configured speech-to-text client.
func WithTranscriptionCallback(callback func(transcript string)) OrchestrateOption {
	return func(o *OrchestrateOptions) {
		o.onTranscription = callback
	}
}

// WithSpeakingStateChangedCallback registers a callback for speaking-state
// updates produced by the configured speech-to-text client.
func WithSpeakingStateChangedCallback(callback func(isSpeaking bool)) OrchestrateOption {
	return func(o *OrchestrateOptions) {
		o.onSpeakingStateChanged = callback
	}
}

// WithResponseCallback registers a callback for streamed response text
// segments.
func WithResponseCallback(callback func(segment string)) OrchestrateOption {
	return func(o *OrchestrateOptions) {
		o.onResponse = callback
	}
}

// WithResponseEndCallback registers a callback invoked when the response
// text stream completes, with the full assembled response.
func WithResponseEndCallback(callback func(response string)) OrchestrateOption {
	return func(o *OrchestrateOptions) {
		o.onResponseEnd = callback
	}
}

func WithScreenplayEnqueuedCallback(callback func(text, style string)) OrchestrateOption {
	return func(o *OrchestrateOptions) {
		o.onScreenplayEnqueued = callback
	}
}

// WithSpeechStartedCallback registers a callback invoked when a sentence
// starts playing; receivers typically switch the avatar's expression here.
func WithSpeechStartedCallback(callback func(text, style, expression string)) OrchestrateOption {
	return func(o *OrchestrateOptions) {
		o.onSpeechStarted = callback
	}
}

func WithSpeechEndedCallback(callback func(text string)) OrchestrateOption {
	return func(o *OrchestrateOptions) {
		o.onSpeechEnded = callback
	}
}

// WithPlaybackEndedCallback registers a callback invoked once every queued
// sentence of a response finished playing.
func WithPlaybackEndedCallback(callback func(transcript string)) OrchestrateOption {
	return func(o *OrchestrateOptions) {
		o.onPlaybackEnded = callback
	}
}

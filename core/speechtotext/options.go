package speechtotext

import "github.com/kotonelabs/avatar-core/core/audio"

type TranscriptionOptions struct {
	TranscriptionCallback        func(transcript string)
	InterimTranscriptionCallback func(transcript string)

	SpeechStartedCallback func()
	SpeechEndedCallback   func()

	EncodingInfo audio.EncodingInfo
}

type TranscriptionOption func(*TranscriptionOptions)

// WithTranscriptionCallback registers a callback for the full transcript of
// each finished utterance.
func WithTranscriptionCallback(callback func(transcript string)) TranscriptionOption {
	return func(o *TranscriptionOptions) {
		o.TranscriptionCallback = callback
	}
}

// WithInterimTranscriptionCallback registers a callback for mutable interim
// transcript snapshots while the user is still speaking.
func WithInterimTranscriptionCallback(callback func(transcript string)) TranscriptionOption {
	return func(o *TranscriptionOptions) {
		o.InterimTranscriptionCallback = callback
	}
}

func WithSpeechStartedCallback(callback func()) TranscriptionOption {
	return func(o *TranscriptionOptions) {
		o.SpeechStartedCallback = callback
	}
}

func WithSpeechEndedCallback(callback func()) TranscriptionOption {
	return func(o *TranscriptionOptions) {
		o.SpeechEndedCallback = callback
	}
}

func WithEncodingInfo(encodingInfo audio.EncodingInfo) TranscriptionOption {
	return func(o *TranscriptionOptions) {
		o.EncodingInfo = encodingInfo
	}
}

package events

const (
	// KindUserSpeechStarted identifies start of user speech activity.
	KindUserSpeechStarted Kind = "user_input.speech_started"
	// KindUserSpeechEnded identifies end of user speech activity.
	KindUserSpeechEnded Kind = "user_input.speech_ended"
	// KindUserTranscriptFinal identifies the final transcript for the utterance.
	KindUserTranscriptFinal Kind = "user_input.transcript_final"
)

// UserSpeechStarted marks when user speech activity starts.
type UserSpeechStarted struct{ Base }

// NewUserSpeechStarted creates a user speech started event.
func NewUserSpeechStarted() UserSpeechStarted {
	return UserSpeechStarted{Base: NewBase(KindUserSpeechStarted)}
}

// UserSpeechEnded marks when user speech activity ends.
type UserSpeechEnded struct{ Base }

// NewUserSpeechEnded creates a user speech ended event.
func NewUserSpeechEnded() UserSpeechEnded {
	return UserSpeechEnded{Base: NewBase(KindUserSpeechEnded)}
}

// UserTranscriptFinal carries the final transcript for the utterance.
type UserTranscriptFinal struct {
	Base
	Transcript string
}

// NewUserTranscriptFinal creates a final transcript event.
func NewUserTranscriptFinal(transcript string) UserTranscriptFinal {
	return UserTranscriptFinal{Base: NewBase(KindUserTranscriptFinal), Transcript: transcript}
}

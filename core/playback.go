package orchestration

import (
	"context"

	"github.com/kotonelabs/avatar-core/core/texttospeech"
)

// PlaybackSink consumes synthesized speech. Play blocks until the audio
// finished playing (or was delivered, for remote sinks) so the scheduler
// can keep sentences strictly ordered.
type PlaybackSink interface {
	Play(ctx context.Context, audio *texttospeech.Audio, screenplay Screenplay) error
}

// PlaybackSinkFunc adapts a function to the PlaybackSink interface.
type PlaybackSinkFunc func(ctx context.Context, audio *texttospeech.Audio, screenplay Screenplay) error

func (f PlaybackSinkFunc) Play(ctx context.Context, audio *texttospeech.Audio, screenplay Screenplay) error {
	return f(ctx, audio, screenplay)
}

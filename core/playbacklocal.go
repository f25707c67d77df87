package orchestration

import (
	"context"
	"encoding/binary"

	"github.com/kotonelabs/avatar-core/core/faults"
	"github.com/kotonelabs/avatar-core/core/texttospeech"
)

// AudioPlayer plays raw PCM on a local output device, blocking until the
// audio finished.
type AudioPlayer interface {
	Play(ctx context.Context, pcm []byte) error
}

// LocalPlaybackSink plays synthesized speech on a local audio device. WAV
// payloads are unwrapped to raw PCM before being handed to the device; an
// optional expression callback lets a renderer follow along.
type LocalPlaybackSink struct {
	player       AudioPlayer
	onExpression func(expression string)
}

type LocalPlaybackSinkOption func(*LocalPlaybackSink)

// WithExpressionCallback is invoked with the screenplay's expression just
// before its audio starts playing.
func WithExpressionCallback(callback func(expression string)) LocalPlaybackSinkOption {
	return func(s *LocalPlaybackSink) {
		s.onExpression = callback
	}
}

func NewLocalPlaybackSink(player AudioPlayer, opts ...LocalPlaybackSinkOption) *LocalPlaybackSink {
	sink := &LocalPlaybackSink{player: player}
	for _, opt := range opts {
		opt(sink)
	}
	return sink
}

func (s *LocalPlaybackSink) Play(ctx context.Context, audio *texttospeech.Audio, screenplay Screenplay) error {
	if s == nil || s.player == nil {
		return faults.New(faults.Validation, "no audio player configured")
	}

	pcm := audio.Data
	if audio.Format == "wav" {
		stripped, err := stripWAVHeader(audio.Data)
		if err != nil {
			return err
		}
		pcm = stripped
	}

	if s.onExpression != nil {
		s.onExpression(screenplay.Expression)
	}

	return s.player.Play(ctx, pcm)
}

// stripWAVHeader returns the payload of the RIFF data chunk, skipping the
// format chunk and any metadata chunks before it.
func stripWAVHeader(data []byte) ([]byte, error) {
	if len(data) < 12 || string(data[0:4]) != "RIFF" || string(data[8:12]) != "WAVE" {
		return nil, faults.New(faults.Audio, "audio is not a RIFF wave")
	}

	offset := 12
	for offset+8 <= len(data) {
		chunkID := string(data[offset : offset+4])
		chunkSize := int(binary.LittleEndian.Uint32(data[offset+4 : offset+8]))
		offset += 8

		if chunkID == "data" {
			if offset+chunkSize > len(data) {
				chunkSize = len(data) - offset
			}
			return data[offset : offset+chunkSize], nil
		}

		// Chunks are word aligned.
		offset += chunkSize + chunkSize%2
	}

	return nil, faults.New(faults.Audio, "wave has no data chunk")
}

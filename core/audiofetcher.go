package orchestration

import (
	"context"
	"fmt"

	"github.com/kotonelabs/avatar-core/core/faults"
	"github.com/kotonelabs/avatar-core/core/texttospeech"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

// AudioFetcher turns screenplays into synthesized audio through the
// configured synthesizer.
type AudioFetcher struct {
	synthesizer texttospeech.Synthesizer
}

func NewAudioFetcher(synthesizer texttospeech.Synthesizer) *AudioFetcher {
	return &AudioFetcher{synthesizer: synthesizer}
}

func (f *AudioFetcher) Fetch(ctx context.Context, screenplay Screenplay) (*texttospeech.Audio, error) {
	if f == nil || f.synthesizer == nil {
		return nil, faults.New(faults.Validation, "no synthesizer configured")
	}

	ctx, span := tracer.Start(ctx, "fetch speech audio")
	defer span.End()
	span.SetAttributes(
		attribute.String("screenplay.style", string(screenplay.Talk.Style)),
		attribute.Int("screenplay.text_length", len(screenplay.Talk.Message)),
	)

	audio, err := f.synthesizer.Synthesize(ctx, texttospeech.SynthesisRequest{
		Text:     screenplay.Talk.Message,
		SpeakerX: screenplay.Talk.SpeakerX,
		SpeakerY: screenplay.Talk.SpeakerY,
		Style:    string(screenplay.Talk.Style),
	})
	if err != nil {
		err = fmt.Errorf("failed to synthesize speech: %w", err)
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	if audio == nil || len(audio.Data) == 0 {
		err := faults.New(faults.Audio, "synthesizer returned no audio")
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	return audio, nil
}

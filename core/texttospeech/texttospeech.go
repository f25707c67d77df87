// Package texttospeech defines the contract between the orchestration
// layer and text-to-speech providers.
package texttospeech

import "context"

// SynthesisRequest carries one sentence of speech along with the voice
// placement and emotional style it should be rendered with.
type SynthesisRequest struct {
	Text     string
	SpeakerX float64
	SpeakerY float64
	Style    string
}

// Audio is a fully synthesized utterance.
type Audio struct {
	Data   []byte
	Format string
}

type Synthesizer interface {
	Synthesize(ctx context.Context, request SynthesisRequest) (*Audio, error)
}

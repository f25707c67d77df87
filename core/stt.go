package orchestration

import (
	"context"
	"fmt"

	"github.com/kotonelabs/avatar-core/core/audio"
	"github.com/kotonelabs/avatar-core/core/events"
	"github.com/kotonelabs/avatar-core/core/speechtotext"
)

// speechToText is the STT facade used to handle optional client wiring.
type speechToText struct {
	client SpeechToText

	emitEvent eventEmitter
}

func newSpeechToText(client SpeechToText) *speechToText {
	return &speechToText{
		client:    client,
		emitEvent: noopEventEmitter,
	}
}

func (s *speechToText) set(client SpeechToText) {
	if s != nil {
		s.client = client
	}
}

func (s *speechToText) Start(ctx context.Context, encodingInfo audio.EncodingInfo) error {
	if !s.isConfigured() {
		return nil
	}

	sttOptions := []speechtotext.TranscriptionOption{
		speechtotext.WithSpeechStartedCallback(s.invokeSpeechStarted),
		speechtotext.WithSpeechEndedCallback(s.invokeSpeechEnded),
		speechtotext.WithTranscriptionCallback(s.invokeTranscription),
	}
	if !encodingInfo.IsZero() {
		sttOptions = append(sttOptions, speechtotext.WithEncodingInfo(encodingInfo))
	}

	if err := s.client.Transcribe(ctx, sttOptions...); err != nil {
		return fmt.Errorf("failed to start transcribing: %w", err)
	}

	return nil
}

func (s *speechToText) SendAudio(audio []byte) error {
	if !s.isConfigured() {
		return nil
	}

	return s.client.SendAudio(audio)
}

func (s *speechToText) Close(ctx context.Context) error {
	if !s.isConfigured() {
		return nil
	}

	switch c := s.client.(type) {
	case interface{ Close(context.Context) error }:
		if err := c.Close(ctx); err != nil {
			return fmt.Errorf("failed to close speech-to-text client: %w", err)
		}
	case interface{ Close(context.Context) }:
		c.Close(ctx)
	case interface{ Close() error }:
		if err := c.Close(); err != nil {
			return fmt.Errorf("failed to close speech-to-text client: %w", err)
		}
	case interface{ Close() }:
		c.Close()
	}

	return nil
}

func (s *speechToText) SetEventEmitter(emitEvent eventEmitter) {
	if s != nil {
		if emitEvent != nil {
			s.emitEvent = emitEvent
		} else {
			s.emitEvent = noopEventEmitter
		}
	}
}

func (s *speechToText) isConfigured() bool {
	return s != nil && s.client != nil
}

func (s *speechToText) invokeSpeechStarted() {
	s.emitEvent(events.NewUserSpeechStarted())
}

func (s *speechToText) invokeSpeechEnded() {
	s.emitEvent(events.NewUserSpeechEnded())
}

func (s *speechToText) invokeTranscription(transcript string) {
	s.emitEvent(events.NewUserTranscriptFinal(transcript))
}

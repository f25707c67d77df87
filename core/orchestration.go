// Package orchestration wires the conversational avatar pipeline
// together: streamed chat responses are parsed into emotion-tagged
// sentences, synthesized under a rate limit, and played back in order
// while the avatar's expression follows along.
package orchestration

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/kotonelabs/avatar-core/core/audio"
	"github.com/kotonelabs/avatar-core/core/events"
	"github.com/kotonelabs/avatar-core/core/llms"
	"github.com/kotonelabs/avatar-core/core/texttospeech"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

type Orchestrator struct {
	chat        ChatStreamer
	synthesizer texttospeech.Synthesizer
	sink        PlaybackSink

	speechToText speechToText

	voice             VoiceParams
	systemPrompt      string
	rateLimitInterval time.Duration

	conversation *conversation
	scheduler    *SynthesisScheduler
	emitEvent    eventEmitter

	// turnMu serializes response turns; one assistant response runs at a
	// time.
	turnMu sync.Mutex

	orchestrateOptions OrchestrateOptions
	baseContext        context.Context
	closeOnce          sync.Once
}

func NewOrchestrator(opts ...OrchestratorOption) *Orchestrator {
	o := &Orchestrator{
		rateLimitInterval: defaultSynthesisInterval,
		emitEvent:         noopEventEmitter,
		baseContext:       context.Background(),
	}
	o.speechToText = *newSpeechToText(nil)

	for _, opt := range opts {
		opt(o)
	}

	o.conversation = newConversation(o.systemPrompt)

	return o
}

// Orchestrate starts the pipeline: the synthesis scheduler begins its
// workers and, when a speech-to-text client is configured, transcription
// starts feeding prompts into the conversation.
//
// Contract: call Orchestrate at most once per orchestrator instance.
func (o *Orchestrator) Orchestrate(ctx context.Context, opts ...OrchestrateOption) error {
	o.orchestrateOptions = OrchestrateOptions{}
	for _, opt := range opts {
		opt(&o.orchestrateOptions)
	}

	o.baseContext = ctx
	o.emitEvent = newCallbackEventEmitter(o.orchestrateOptions)
	o.speechToText.SetEventEmitter(func(event events.Event) {
		o.emitEvent(event)

		if transcript, ok := event.(events.UserTranscriptFinal); ok {
			go func() {
				o.emitEvent(events.NewTranscribedUserPromptSubmitted(transcript.Transcript))
				if err := o.Respond(o.baseContext, transcript.Transcript); err != nil {
					o.recordError(fmt.Errorf("failed to respond to transcription: %w", err))
				}
			}()
		}
	})

	o.scheduler = NewSynthesisScheduler(
		ctx,
		NewAudioFetcher(o.synthesizer),
		o.sink,
		WithMinimumInterval(o.rateLimitInterval),
	)

	if err := o.speechToText.Start(ctx, audio.GetDefaultEncodingInfo()); err != nil {
		return fmt.Errorf("failed to start speech-to-text: %w", err)
	}

	go func() {
		<-ctx.Done()
		o.Close()
	}()

	return nil
}

// Respond runs one assistant turn for the prompt and blocks until the
// response text stream completes; playback continues in the background.
// On stream errors the partial response is still recorded in the
// conversation so the transcript never silently loses spoken sentences.
func (o *Orchestrator) Respond(ctx context.Context, prompt string) error {
	o.turnMu.Lock()
	defer o.turnMu.Unlock()

	o.conversation.Append(llms.Message{Role: llms.MessageRoleUser, Content: prompt})

	pipeline := newResponsePipeline(o.chat, o.scheduler, o.voice, o.emitEvent)
	response, err := pipeline.Run(ctx, o.conversation.Messages())

	if response != "" {
		o.conversation.Append(llms.Message{Role: llms.MessageRoleAssistant, Content: response})
	}
	if err != nil {
		return fmt.Errorf("response turn failed: %w", err)
	}

	return nil
}

// SendPrompt submits a typed prompt and responds to it asynchronously.
func (o *Orchestrator) SendPrompt(prompt string) {
	o.emitEvent(events.NewUserPromptSubmitted(prompt))
	go func() {
		if err := o.Respond(o.baseContext, prompt); err != nil {
			o.recordError(fmt.Errorf("failed to respond to prompt: %w", err))
		}
	}()
}

// SendAudio forwards captured audio to the speech-to-text client.
func (o *Orchestrator) SendAudio(audio []byte) error {
	return o.speechToText.SendAudio(audio)
}

// Conversation returns a snapshot of the transcript so far.
func (o *Orchestrator) Conversation() []llms.Message {
	return o.conversation.Messages()
}

// Close shuts the pipeline down: transcription stops and the synthesis
// queue drains its workers. Queued sentences that never played complete
// without playing.
func (o *Orchestrator) Close() {
	o.closeOnce.Do(func() {
		if err := o.speechToText.Close(o.baseContext); err != nil {
			o.recordError(fmt.Errorf("failed to close speech-to-text client: %w", err))
		}

		if o.scheduler != nil {
			o.scheduler.Close()
		}
	})
}

func (o *Orchestrator) recordError(err error) {
	logger.Error("Orchestration error", "error", err)
	span := trace.SpanFromContext(o.baseContext)
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
}

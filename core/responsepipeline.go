package orchestration

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/kotonelabs/avatar-core/core/events"
	"github.com/kotonelabs/avatar-core/core/llms"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

// responsePipeline drives one assistant turn: it streams the chat
// response, extracts tagged sentences as they complete, and enqueues them
// for synthesis while the stream is still running.
type responsePipeline struct {
	chat      ChatStreamer
	scheduler *SynthesisScheduler
	voice     VoiceParams
	emitEvent eventEmitter
}

func newResponsePipeline(chat ChatStreamer, scheduler *SynthesisScheduler, voice VoiceParams, emitEvent eventEmitter) *responsePipeline {
	if emitEvent == nil {
		emitEvent = noopEventEmitter
	}
	return &responsePipeline{
		chat:      chat,
		scheduler: scheduler,
		voice:     voice,
		emitEvent: emitEvent,
	}
}

// Run streams a response over the passed transcript and returns the full
// response text. On stream errors it returns what was assembled so far
// along with the error; sentences already queued for synthesis keep
// playing.
func (p *responsePipeline) Run(ctx context.Context, history []llms.Message) (string, error) {
	ctx, span := tracer.Start(ctx, "run response pipeline")
	defer span.End()
	span.SetAttributes(attribute.Int("history.length", len(history)))

	if p == nil || p.chat == nil {
		return "", fmt.Errorf("no streaming chat client configured")
	}

	parser := NewStreamParser()
	var transcript strings.Builder

	var pending sync.WaitGroup
	var spokenMu sync.Mutex
	var spoken strings.Builder

	// Playback outlives the text stream; announce its end only once every
	// queued sentence finished.
	defer func() {
		go func() {
			pending.Wait()
			spokenMu.Lock()
			spokenTranscript := spoken.String()
			spokenMu.Unlock()
			p.emitEvent(events.NewAssistantPlaybackEnded(spokenTranscript))
		}()
	}()

	stream := p.chat.PromptWithStream(ctx, history)
	for chunk, err := range stream.Chunks(ctx) {
		if err != nil {
			err = fmt.Errorf("response stream failed: %w", err)
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			return transcript.String(), err
		}

		content, ok := chunk.(llms.StreamContentChunk)
		if !ok {
			continue
		}

		p.emitEvent(events.NewAssistantResponseSegment(content.Content()))

		for _, unit := range parser.Feed(content.Content()) {
			appendSegment(&transcript, renderUnit(unit))
			p.enqueueUnit(unit, &pending, &spokenMu, &spoken)
		}
	}

	// Text the stream never terminated belongs in the transcript but is
	// not spoken.
	if remainder := parser.Remainder(); remainder != "" {
		appendSegment(&transcript, remainder)
	}

	response := transcript.String()
	span.SetAttributes(attribute.Int("response.length", len(response)))
	p.emitEvent(events.NewAssistantResponseFinal(response))

	return response, nil
}

func (p *responsePipeline) enqueueUnit(unit SentenceUnit, pending *sync.WaitGroup, spokenMu *sync.Mutex, spoken *strings.Builder) {
	if p.scheduler == nil {
		return
	}
	screenplay, ok := BuildScreenplay(unit, p.voice)
	if !ok {
		return
	}

	pending.Add(1)
	p.emitEvent(events.NewScreenplayEnqueued(screenplay.Talk.Message, string(screenplay.Talk.Style)))
	p.scheduler.Enqueue(screenplay,
		WithStartedCallback(func() {
			p.emitEvent(events.NewScreenplaySpeechStarted(
				screenplay.Talk.Message,
				string(screenplay.Talk.Style),
				screenplay.Expression,
			))
		}),
		WithCompletedCallback(func() {
			p.emitEvent(events.NewScreenplaySpeechEnded(screenplay.Talk.Message))
			spokenMu.Lock()
			appendSegment(spoken, screenplay.Talk.Message)
			spokenMu.Unlock()
			pending.Done()
		}),
	)
}

// renderUnit is how a sentence unit reads in the conversation transcript:
// the tag stays visible so follow-up turns see the emotional register.
func renderUnit(unit SentenceUnit) string {
	if unit.Tag != "" {
		return unit.Tag + " " + unit.Text
	}
	return unit.Text
}

func appendSegment(builder *strings.Builder, segment string) {
	if segment == "" {
		return
	}
	if builder.Len() > 0 {
		builder.WriteString(" ")
	}
	builder.WriteString(segment)
}

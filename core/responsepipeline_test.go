package orchestration

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/kotonelabs/avatar-core/core/events"
	"github.com/kotonelabs/avatar-core/core/llms"
)

type fakeChunk struct{ content string }

func (f fakeChunk) FinishReason() *string { return nil }
func (f fakeChunk) Content() string       { return f.content }

type fakeStream struct {
	chunks []string
	err    error
}

func (f *fakeStream) Chunks(context.Context) func(func(llms.StreamChunk, error) bool) {
	return func(yield func(llms.StreamChunk, error) bool) {
		for _, content := range f.chunks {
			if !yield(fakeChunk{content: content}, nil) {
				return
			}
		}
		if f.err != nil {
			yield(nil, f.err)
		}
	}
}

type fakeChat struct {
	mu       sync.Mutex
	stream   *fakeStream
	prompted [][]llms.Message
}

func (f *fakeChat) PromptWithStream(_ context.Context, messages []llms.Message) llms.Stream {
	f.mu.Lock()
	f.prompted = append(f.prompted, messages)
	f.mu.Unlock()
	return f.stream
}

type eventRecorder struct {
	mu     sync.Mutex
	events []events.Event
}

func (r *eventRecorder) emit(event events.Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, event)
}

func (r *eventRecorder) ofKind(kind events.Kind) []events.Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	var matched []events.Event
	for _, event := range r.events {
		if event.Kind() == kind {
			matched = append(matched, event)
		}
	}
	return matched
}

func (r *eventRecorder) awaitKind(t *testing.T, kind events.Kind) events.Event {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		if matched := r.ofKind(kind); len(matched) > 0 {
			return matched[0]
		}
		time.Sleep(time.Millisecond)
	}
	t.Fatalf("timed out waiting for event kind %q", kind)
	return nil
}

func newTestPipeline(t *testing.T, stream *fakeStream) (*responsePipeline, *recordingSink, *eventRecorder) {
	t.Helper()

	sink := &recordingSink{}
	recorder := &eventRecorder{}
	scheduler := NewSynthesisScheduler(context.Background(), NewAudioFetcher(&fakeSynthesizer{}), sink, immediateClock())
	t.Cleanup(scheduler.Close)

	chat := &fakeChat{stream: stream}
	return newResponsePipeline(chat, scheduler, VoiceParams{SpeakerX: 1.5, SpeakerY: 1.5}, recorder.emit), sink, recorder
}

func TestPipelineBuildsTranscriptAndSpeaksCompletedSentences(t *testing.T) {
	pipeline, sink, recorder := newTestPipeline(t, &fakeStream{
		chunks: []string{"[happy]Hi the", "re! [sad]I'm sorry.\n", "trailing thought"},
	})

	response, err := pipeline.Run(context.Background(), nil)
	if err != nil {
		t.Fatalf("unexpected pipeline error: %v", err)
	}

	expected := "[happy] Hi there! [sad] I'm sorry. trailing thought"
	if response != expected {
		t.Fatalf("expected response %q, got %q", expected, response)
	}

	recorder.awaitKind(t, events.KindAssistantPlaybackEnded)

	played := sink.playedTexts()
	if len(played) != 2 || played[0] != "Hi there!" || played[1] != "I'm sorry." {
		t.Fatalf("expected only terminated sentences to play, got %v", played)
	}
}

func TestPipelineStreamErrorKeepsPartialResponse(t *testing.T) {
	pipeline, sink, recorder := newTestPipeline(t, &fakeStream{
		chunks: []string{"[happy]One done. And then it br"},
		err:    fmt.Errorf("connection dropped"),
	})

	response, err := pipeline.Run(context.Background(), nil)
	if err == nil {
		t.Fatalf("expected the stream error to propagate")
	}
	if response != "[happy] One done." {
		t.Fatalf("expected the completed sentence to survive, got %q", response)
	}

	// The already-queued sentence still plays out.
	recorder.awaitKind(t, events.KindAssistantPlaybackEnded)
	played := sink.playedTexts()
	if len(played) != 1 || played[0] != "One done." {
		t.Fatalf("expected queued sentence to play despite the error, got %v", played)
	}
}

func TestPipelineEmitsScreenplayLifecycleEvents(t *testing.T) {
	pipeline, _, recorder := newTestPipeline(t, &fakeStream{
		chunks: []string{"[angry]Listen up!"},
	})

	if _, err := pipeline.Run(context.Background(), nil); err != nil {
		t.Fatalf("unexpected pipeline error: %v", err)
	}

	recorder.awaitKind(t, events.KindAssistantPlaybackEnded)

	enqueued := recorder.ofKind(events.KindScreenplayEnqueued)
	if len(enqueued) != 1 {
		t.Fatalf("expected one enqueued event, got %d", len(enqueued))
	}
	if got := enqueued[0].(events.ScreenplayEnqueued); got.Text != "Listen up!" || got.Style != "angry" {
		t.Fatalf("unexpected enqueued event %+v", got)
	}

	started := recorder.ofKind(events.KindScreenplaySpeechStarted)
	if len(started) != 1 {
		t.Fatalf("expected one speech started event, got %d", len(started))
	}
	if got := started[0].(events.ScreenplaySpeechStarted); got.Expression != "angry" {
		t.Fatalf("expected angry expression, got %q", got.Expression)
	}

	if ended := recorder.ofKind(events.KindScreenplaySpeechEnded); len(ended) != 1 {
		t.Fatalf("expected one speech ended event, got %d", len(ended))
	}
}

func TestPipelinePlaybackEndedCarriesSpokenTranscript(t *testing.T) {
	pipeline, _, recorder := newTestPipeline(t, &fakeStream{
		chunks: []string{"[happy]First! Second! 「」. unterminated"},
	})

	if _, err := pipeline.Run(context.Background(), nil); err != nil {
		t.Fatalf("unexpected pipeline error: %v", err)
	}

	ended := recorder.awaitKind(t, events.KindAssistantPlaybackEnded).(events.AssistantPlaybackEnded)
	if ended.Transcript != "First! Second!" {
		t.Fatalf("expected spoken transcript to exclude unspeakable and unterminated text, got %q", ended.Transcript)
	}
}

func TestPipelineNonSpeakableSentencesStayInTranscriptOnly(t *testing.T) {
	pipeline, sink, recorder := newTestPipeline(t, &fakeStream{
		chunks: []string{"「」。Actually spoken."},
	})

	response, err := pipeline.Run(context.Background(), nil)
	if err != nil {
		t.Fatalf("unexpected pipeline error: %v", err)
	}

	if response != "「」。 Actually spoken." {
		t.Fatalf("expected transcript to keep the punctuation sentence, got %q", response)
	}

	recorder.awaitKind(t, events.KindAssistantPlaybackEnded)
	played := sink.playedTexts()
	if len(played) != 1 || played[0] != "Actually spoken." {
		t.Fatalf("expected only the speakable sentence to play, got %v", played)
	}
}

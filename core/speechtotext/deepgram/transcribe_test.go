package deepgram

import (
	"context"
	"sync/atomic"
	"testing"

	"github.com/kotonelabs/avatar-core/core/speechtotext"
)

func finalMessage(transcript string, speechFinal bool) []byte {
	msg := `{"type":"Results","is_final":true,"speech_final":` + boolJSON(speechFinal) +
		`,"channel":{"alternatives":[{"transcript":"` + transcript + `"}]}}`
	return []byte(msg)
}

func boolJSON(b bool) string {
	if b {
		return "true"
	}
	return "false"
}

func TestProcessMessageAccumulatesUntilSpeechFinal(t *testing.T) {
	var transcripts []string
	client := NewTranscriptionClient(WithAPIKey("test-key"))
	options := speechtotext.TranscriptionOptions{
		TranscriptionCallback: func(transcript string) { transcripts = append(transcripts, transcript) },
	}

	client.processMessage(context.Background(), finalMessage("hello", false), options)
	client.processMessage(context.Background(), finalMessage("there", false), options)

	if len(transcripts) != 0 {
		t.Fatalf("expected no transcript before speech final, got %v", transcripts)
	}

	client.processMessage(context.Background(), finalMessage("friend", true), options)

	if len(transcripts) != 1 || transcripts[0] != "hello there friend" {
		t.Fatalf("expected accumulated transcript %q, got %v", "hello there friend", transcripts)
	}
}

func TestProcessMessageEmptyUtteranceIsDropped(t *testing.T) {
	calls := atomic.Int32{}
	ended := atomic.Int32{}
	client := NewTranscriptionClient(WithAPIKey("test-key"))
	options := speechtotext.TranscriptionOptions{
		TranscriptionCallback: func(string) { calls.Add(1) },
		SpeechEndedCallback:   func() { ended.Add(1) },
	}

	client.processMessage(context.Background(), finalMessage("", true), options)

	if calls.Load() != 0 {
		t.Fatalf("expected no transcription callback for empty utterance, got %d", calls.Load())
	}
	if ended.Load() != 1 {
		t.Fatalf("expected speech ended callback once, got %d", ended.Load())
	}
}

func TestProcessMessageSpeechStartedTriggersCallback(t *testing.T) {
	started := atomic.Int32{}
	client := NewTranscriptionClient(WithAPIKey("test-key"))
	options := speechtotext.TranscriptionOptions{
		SpeechStartedCallback: func() { started.Add(1) },
	}

	client.processMessage(context.Background(), []byte(`{"type":"SpeechStarted"}`), options)

	if started.Load() != 1 {
		t.Fatalf("expected speech started callback once, got %d", started.Load())
	}
	if !client.unendedSegment {
		t.Fatalf("expected an unended segment after speech started")
	}
}

func TestProcessMessageUtteranceEndFlushesUnendedSegment(t *testing.T) {
	var transcripts []string
	client := NewTranscriptionClient(WithAPIKey("test-key"))
	options := speechtotext.TranscriptionOptions{
		TranscriptionCallback: func(transcript string) { transcripts = append(transcripts, transcript) },
	}

	client.processMessage(context.Background(), []byte(`{"type":"SpeechStarted"}`), options)
	client.processMessage(context.Background(), finalMessage("goodbye", false), options)
	client.processMessage(context.Background(), []byte(`{"type":"UtteranceEnd"}`), options)

	if len(transcripts) != 1 || transcripts[0] != "goodbye" {
		t.Fatalf("expected transcript flushed on utterance end, got %v", transcripts)
	}
	if client.unendedSegment {
		t.Fatalf("expected segment to be marked ended after utterance end")
	}
}

func TestConnectWebsocketMissingKeyFails(t *testing.T) {
	client := &TranscriptionClient{}

	if _, err := client.connectWebsocket(connectionOptions{sampleRate: 48000, encoding: "linear16"}); err == nil {
		t.Fatalf("expected connection to fail without an api key")
	}
}

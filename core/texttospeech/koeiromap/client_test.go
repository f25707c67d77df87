package koeiromap

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/kotonelabs/avatar-core/core/faults"
	"github.com/kotonelabs/avatar-core/core/texttospeech"
)

func TestSynthesizeRendersAndDownloadsAudio(t *testing.T) {
	audio := []byte("RIFF fake wav bytes")

	mux := http.NewServeMux()
	server := httptest.NewServer(mux)
	defer server.Close()

	mux.HandleFunc("/audio.wav", func(w http.ResponseWriter, r *http.Request) {
		w.Write(audio)
	})
	mux.HandleFunc("/infer", func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Ocp-Apim-Subscription-Key"); got != "test-key" {
			t.Errorf("expected subscription key to be passed through, got %q", got)
		}

		var body inferRequestBody
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Fatalf("failed to decode request body: %v", err)
		}
		if body.Text != "Hello there!" {
			t.Errorf("expected request text %q, got %q", "Hello there!", body.Text)
		}
		if body.Style != "happy" {
			t.Errorf("expected request style %q, got %q", "happy", body.Style)
		}

		json.NewEncoder(w).Encode(inferResponseBody{Audio: server.URL + "/audio.wav"})
	})

	client := NewClient("test-key", WithBaseURL(server.URL+"/infer"))
	got, err := client.Synthesize(context.Background(), texttospeech.SynthesisRequest{
		Text:     "Hello there!",
		SpeakerX: 1.5,
		SpeakerY: 1.5,
		Style:    "happy",
	})
	if err != nil {
		t.Fatalf("unexpected synthesis error: %v", err)
	}

	if string(got.Data) != string(audio) {
		t.Errorf("expected downloaded audio bytes, got %q", got.Data)
	}
	if got.Format != "wav" {
		t.Errorf("expected wav format, got %q", got.Format)
	}
}

func TestSynthesizeMapsUnknownStylesToTalk(t *testing.T) {
	mux := http.NewServeMux()
	server := httptest.NewServer(mux)
	defer server.Close()

	mux.HandleFunc("/audio.wav", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("audio"))
	})

	var gotStyle atomic.Value
	mux.HandleFunc("/infer", func(w http.ResponseWriter, r *http.Request) {
		var body inferRequestBody
		json.NewDecoder(r.Body).Decode(&body)
		gotStyle.Store(body.Style)
		json.NewEncoder(w).Encode(inferResponseBody{Audio: server.URL + "/audio.wav"})
	})

	client := NewClient("test-key", WithBaseURL(server.URL+"/infer"))
	for _, style := range []string{"neutral", "relaxed", "nonsense"} {
		if _, err := client.Synthesize(context.Background(), texttospeech.SynthesisRequest{Text: "hi", Style: style}); err != nil {
			t.Fatalf("unexpected synthesis error for style %q: %v", style, err)
		}
		if got := gotStyle.Load(); got != "talk" {
			t.Errorf("expected style %q to be sent as talk, got %q", style, got)
		}
	}
}

func TestSynthesizeMissingKeyFailsWithoutRequest(t *testing.T) {
	requests := atomic.Int32{}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests.Add(1)
	}))
	defer server.Close()

	client := NewClient("", WithBaseURL(server.URL))
	_, err := client.Synthesize(context.Background(), texttospeech.SynthesisRequest{Text: "hi"})

	if !faults.IsKind(err, faults.Validation) {
		t.Fatalf("expected validation fault for missing key, got %v", err)
	}
	if requests.Load() != 0 {
		t.Fatalf("expected no network attempt for missing key, got %d requests", requests.Load())
	}
}

func TestSynthesizeNonOKStatusIsAPIFault(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		fmt.Fprint(w, "unauthorized")
	}))
	defer server.Close()

	client := NewClient("test-key", WithBaseURL(server.URL))
	_, err := client.Synthesize(context.Background(), texttospeech.SynthesisRequest{Text: "hi"})

	if !faults.IsKind(err, faults.API) {
		t.Fatalf("expected api fault for non-OK status, got %v", err)
	}
}

func TestSynthesizeMissingAudioURLIsAPIFault(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(inferResponseBody{})
	}))
	defer server.Close()

	client := NewClient("test-key", WithBaseURL(server.URL))
	_, err := client.Synthesize(context.Background(), texttospeech.SynthesisRequest{Text: "hi"})

	if !faults.IsKind(err, faults.API) {
		t.Fatalf("expected api fault for missing audio url, got %v", err)
	}
}

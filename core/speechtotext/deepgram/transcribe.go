// Package deepgram streams microphone audio to Deepgram's live listen API
// over a websocket and surfaces transcripts through callbacks.
package deepgram

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"

	api "github.com/deepgram/deepgram-go-sdk/pkg/api/listen/v1/websocket/interfaces"
	"github.com/gorilla/websocket"
	"github.com/kotonelabs/avatar-core/core/audio"
	"github.com/kotonelabs/avatar-core/core/speechtotext"
)

type TranscriptionClient struct {
	apiKey string

	conn   *websocket.Conn
	connMu sync.Mutex

	lastMsgTs             time.Time
	accumulatedTranscript string
	unendedSegment        bool
}

type ClientOption func(*TranscriptionClient)

func WithAPIKey(apiKey string) ClientOption {
	return func(c *TranscriptionClient) { c.apiKey = apiKey }
}

func NewTranscriptionClient(opts ...ClientOption) *TranscriptionClient {
	client := &TranscriptionClient{apiKey: os.Getenv("DEEPGRAM_API_KEY")}
	for _, opt := range opts {
		opt(client)
	}
	return client
}

// Transcribe opens the websocket and starts processing messages. It returns
// once the connection is established; transcripts arrive through the
// callbacks until the context is cancelled or Close is called.
func (s *TranscriptionClient) Transcribe(ctx context.Context, opts ...speechtotext.TranscriptionOption) error {
	options := &speechtotext.TranscriptionOptions{EncodingInfo: audio.GetDefaultEncodingInfo()}
	for _, opt := range opts {
		opt(options)
	}

	encoding, err := convertEncoding(options.EncodingInfo)
	if err != nil {
		return fmt.Errorf("invalid encoding: %w", err)
	}

	conn, err := s.connectWebsocket(connectionOptions{
		sampleRate: encoding.SampleRate,
		encoding:   encoding.Format.Name(),

		detectSpeechStart: options.SpeechStartedCallback != nil,
		enhanceSpeechEndingDetection: options.TranscriptionCallback != nil ||
			options.SpeechEndedCallback != nil,
		interimResults: options.InterimTranscriptionCallback != nil,
	})
	if err != nil {
		return fmt.Errorf("failed to open websocket: %w", err)
	}

	s.conn = conn
	go s.readAndProcessMessages(ctx, conn, *options)

	return nil
}

type connectionOptions struct {
	sampleRate int
	encoding   string

	detectSpeechStart            bool
	enhanceSpeechEndingDetection bool
	interimResults               bool
}

func (s *TranscriptionClient) connectWebsocket(options connectionOptions) (*websocket.Conn, error) {
	if s.apiKey == "" {
		return nil, fmt.Errorf("deepgram api key not found")
	}

	listenUrl, _ := url.Parse("wss://api.deepgram.com/v1/listen")
	queryParams := listenUrl.Query()
	queryParams.Set("encoding", options.encoding)
	queryParams.Set("sample_rate", strconv.Itoa(options.sampleRate))
	queryParams.Set("channels", "1")
	queryParams.Set("model", "nova-3")
	queryParams.Set("language", "en-US")
	queryParams.Set("smart_format", "true")
	if options.enhanceSpeechEndingDetection {
		queryParams.Set("utterance_end_ms", "1000")
		queryParams.Set("interim_results", "true")
	} else if options.interimResults {
		queryParams.Set("interim_results", "true")
	}
	queryParams.Set("endpointing", "300")
	if options.detectSpeechStart || options.enhanceSpeechEndingDetection {
		queryParams.Set("vad_events", "true")
	}

	listenUrl.RawQuery = queryParams.Encode()
	conn, _, err := websocket.DefaultDialer.Dial(listenUrl.String(),
		http.Header{"Authorization": {"Token " + s.apiKey}})
	if err != nil {
		return nil, fmt.Errorf("failed to open socket connection to deepgram: %w", err)
	}

	return conn, nil
}

// SendAudio forwards a captured audio frame to the live transcription
// stream.
func (s *TranscriptionClient) SendAudio(audio []byte) error {
	s.connMu.Lock()
	defer s.connMu.Unlock()

	if s.conn == nil {
		return fmt.Errorf("transcription stream is not open")
	}

	s.lastMsgTs = time.Now()
	if err := s.conn.WriteMessage(websocket.BinaryMessage, audio); err != nil {
		return fmt.Errorf("failed to write to deepgram client: %w", err)
	}
	return nil
}

func (s *TranscriptionClient) sendKeepAlive() {
	s.connMu.Lock()
	defer s.connMu.Unlock()

	if s.conn == nil {
		return
	}
	if err := s.conn.WriteJSON(struct {
		Type string `json:"type"`
	}{Type: "KeepAlive"}); err != nil {
		logger.Error("Failed to send keepalive to deepgram", "error", err)
	}
}

// Close flushes the remote buffer and asks the server to close the stream;
// the read loop terminates when the close frame arrives.
func (s *TranscriptionClient) Close() error {
	s.connMu.Lock()
	defer s.connMu.Unlock()

	if s.conn != nil {
		if err := s.conn.WriteJSON(struct {
			Type string `json:"type"`
		}{Type: string(api.TypeCloseStreamResponse)}); err != nil {
			return fmt.Errorf("failed to close deepgram stream: %w", err)
		}
	}
	return nil
}

func (s *TranscriptionClient) readAndProcessMessages(ctx context.Context, conn *websocket.Conn, options speechtotext.TranscriptionOptions) {
	keepAliveCtx, keepAliveCancel := context.WithCancel(ctx)
	defer keepAliveCancel()

	go s.keepConnectionAlive(keepAliveCtx)

	for {
		msgType, msg, err := conn.ReadMessage()
		if err != nil {
			if err.Error() != "websocket: close 1000 (normal)" {
				logger.Error("Failed to read deepgram websocket message", "error", err)
			}

			s.connMu.Lock()
			s.conn = nil
			s.connMu.Unlock()
			conn.Close()
			return
		}
		if msgType != websocket.BinaryMessage {
			go s.processMessage(ctx, msg, options)
		}
	}
}

// keepConnectionAlive pings the server while no audio is flowing so the
// stream is not reaped between utterances.
func (s *TranscriptionClient) keepConnectionAlive(ctx context.Context) {
	ticker := time.NewTicker(5 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if time.Since(s.lastMsgTs) >= 5*time.Second {
				s.sendKeepAlive()
			}
		}
	}
}

func (s *TranscriptionClient) processMessage(_ context.Context, msg []byte, options speechtotext.TranscriptionOptions) {
	var parsedMsg struct {
		Type string `json:"type"`
	}
	if err := json.Unmarshal(msg, &parsedMsg); err != nil {
		logger.Error("Failed to unmarshal deepgram message", "error", err)
		return
	}

	switch api.TypeResponse(parsedMsg.Type) {
	case api.TypeMessageResponse:
		var msgResp api.MessageResponse
		if err := json.Unmarshal(msg, &msgResp); err != nil {
			logger.Error("Failed to unmarshal deepgram message", "error", err)
			return
		}
		if msgResp.IsFinal {
			if len(msgResp.Channel.Alternatives) > 0 {
				transcript := strings.TrimSpace(msgResp.Channel.Alternatives[0].Transcript)
				if len(transcript) > 0 && options.TranscriptionCallback != nil {
					s.accumulatedTranscript += " " + transcript
				}
			}
			if msgResp.SpeechFinal {
				s.onSpeechEnded(options)
			}
		} else if options.InterimTranscriptionCallback != nil {
			if len(msgResp.Channel.Alternatives) > 0 {
				transcript := strings.TrimSpace(msgResp.Channel.Alternatives[0].Transcript)
				if len(transcript) > 0 {
					options.InterimTranscriptionCallback(strings.TrimSpace(s.accumulatedTranscript + " " + transcript))
				}
			}
		}

	case api.TypeUtteranceEndResponse:
		var msgResp api.UtteranceEndResponse
		if err := json.Unmarshal(msg, &msgResp); err != nil {
			logger.Error("Failed to unmarshal deepgram message", "error", err)
			return
		}

		if s.unendedSegment {
			s.onSpeechEnded(options)
		}

	case api.TypeSpeechStartedResponse:
		var msgResp api.SpeechStartedResponse
		if err := json.Unmarshal(msg, &msgResp); err != nil {
			logger.Error("Failed to unmarshal deepgram message", "error", err)
			return
		}

		s.unendedSegment = true
		if options.SpeechStartedCallback != nil {
			options.SpeechStartedCallback()
		}
	}
}

func (s *TranscriptionClient) onSpeechEnded(options speechtotext.TranscriptionOptions) {
	s.unendedSegment = false
	if options.TranscriptionCallback != nil {
		fullTranscript := strings.TrimSpace(s.accumulatedTranscript)
		s.accumulatedTranscript = ""
		if len(fullTranscript) > 0 {
			options.TranscriptionCallback(fullTranscript)
		}
	}
	if options.SpeechEndedCallback != nil {
		options.SpeechEndedCallback()
	}
}

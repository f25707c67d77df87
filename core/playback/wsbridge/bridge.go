// Package wsbridge delivers synthesized speech to a remote avatar
// renderer over a websocket. Each screenplay is announced with a JSON
// header, followed by the audio as a binary frame; the renderer confirms
// with a played message once the sentence finished, which is what keeps
// remote playback ordered.
package wsbridge

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	orchestration "github.com/kotonelabs/avatar-core/core"
	"github.com/kotonelabs/avatar-core/core/faults"
	"github.com/kotonelabs/avatar-core/core/texttospeech"
)

const defaultAckTimeout = 30 * time.Second

type screenplayMessage struct {
	Type       string `json:"type"`
	ID         string `json:"id"`
	Text       string `json:"text"`
	Style      string `json:"style"`
	Expression string `json:"expression"`
	Format     string `json:"format"`
}

type rendererMessage struct {
	Type string `json:"type"`
	ID   string `json:"id"`
}

// Sink is a PlaybackSink that forwards speech to a renderer process.
type Sink struct {
	url        string
	ackTimeout time.Duration

	mu   sync.Mutex
	conn *websocket.Conn
}

type SinkOption func(*Sink)

// WithAckTimeout bounds how long Play waits for the renderer to confirm a
// sentence finished.
func WithAckTimeout(timeout time.Duration) SinkOption {
	return func(s *Sink) {
		s.ackTimeout = timeout
	}
}

func NewSink(url string, opts ...SinkOption) *Sink {
	sink := &Sink{url: url, ackTimeout: defaultAckTimeout}
	for _, opt := range opts {
		opt(sink)
	}
	return sink
}

// Connect dials the renderer. Play connects lazily, so calling Connect is
// only needed to fail fast on startup.
func (s *Sink) Connect(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.connectLocked(ctx)
}

func (s *Sink) connectLocked(ctx context.Context) error {
	if s.conn != nil {
		return nil
	}

	conn, _, err := websocket.DefaultDialer.DialContext(ctx, s.url, http.Header{})
	if err != nil {
		return faults.Wrap(faults.Network, fmt.Errorf("failed to connect to renderer: %w", err))
	}
	s.conn = conn
	return nil
}

// Play sends the screenplay header and audio, then blocks until the
// renderer reports the sentence as played.
func (s *Sink) Play(ctx context.Context, audio *texttospeech.Audio, screenplay orchestration.Screenplay) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.connectLocked(ctx); err != nil {
		return err
	}

	id := uuid.NewString()
	if err := s.conn.WriteJSON(screenplayMessage{
		Type:       "screenplay",
		ID:         id,
		Text:       screenplay.Talk.Message,
		Style:      string(screenplay.Talk.Style),
		Expression: screenplay.Expression,
		Format:     audio.Format,
	}); err != nil {
		s.dropConnection()
		return faults.Wrap(faults.Network, fmt.Errorf("failed to send screenplay header: %w", err))
	}

	if err := s.conn.WriteMessage(websocket.BinaryMessage, audio.Data); err != nil {
		s.dropConnection()
		return faults.Wrap(faults.Network, fmt.Errorf("failed to send audio: %w", err))
	}

	return s.awaitPlayed(ctx, id)
}

// awaitPlayed reads renderer messages until the played confirmation for
// the passed id arrives.
func (s *Sink) awaitPlayed(ctx context.Context, id string) error {
	deadline := time.Now().Add(s.ackTimeout)
	if ctxDeadline, ok := ctx.Deadline(); ok && ctxDeadline.Before(deadline) {
		deadline = ctxDeadline
	}
	if err := s.conn.SetReadDeadline(deadline); err != nil {
		return fmt.Errorf("failed to set read deadline: %w", err)
	}

	for {
		var message rendererMessage
		if err := s.conn.ReadJSON(&message); err != nil {
			s.dropConnection()
			return faults.Wrap(faults.Network, fmt.Errorf("failed to read renderer confirmation: %w", err))
		}

		if message.Type == "played" && (message.ID == "" || message.ID == id) {
			return nil
		}
	}
}

func (s *Sink) dropConnection() {
	if s.conn != nil {
		s.conn.Close()
		s.conn = nil
	}
}

func (s *Sink) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.conn == nil {
		return nil
	}

	err := s.conn.WriteMessage(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
	s.conn.Close()
	s.conn = nil
	if err != nil {
		return fmt.Errorf("failed to close renderer connection: %w", err)
	}
	return nil
}

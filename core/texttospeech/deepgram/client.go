// Package deepgram synthesizes speech through Deepgram's Aura REST API.
// Aura voices carry no emotional controls, so the request's style and
// speaker placement are ignored.
package deepgram

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strconv"

	"github.com/kotonelabs/avatar-core/core/faults"
	"github.com/kotonelabs/avatar-core/core/texttospeech"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

const defaultBaseURL = "https://api.deepgram.com/v1/speak"

type Voice string

const (
	VoiceAsteria Voice = "aura-asteria-en"
	VoiceLuna    Voice = "aura-luna-en"
	VoiceStella  Voice = "aura-stella-en"
	VoiceOrion   Voice = "aura-orion-en"
)

type Client struct {
	apiKey     string
	baseURL    string
	voice      Voice
	sampleRate int

	httpClient *http.Client
}

type ClientOption func(*Client)

func WithAPIKey(apiKey string) ClientOption {
	return func(c *Client) { c.apiKey = apiKey }
}

func WithBaseURL(url string) ClientOption {
	return func(c *Client) { c.baseURL = url }
}

func WithVoice(voice Voice) ClientOption {
	return func(c *Client) { c.voice = voice }
}

func NewClient(opts ...ClientOption) *Client {
	client := &Client{
		apiKey:     os.Getenv("DEEPGRAM_API_KEY"),
		baseURL:    defaultBaseURL,
		voice:      VoiceAsteria,
		sampleRate: 48000,
		httpClient: &http.Client{Transport: otelhttp.NewTransport(http.DefaultTransport,
			otelhttp.WithSpanNameFormatter(func(operationName string, request *http.Request) string {
				return operationName + " " + request.URL.Path
			}),
		)},
	}
	for _, opt := range opts {
		opt(client)
	}
	return client
}

func (c *Client) Synthesize(ctx context.Context, request texttospeech.SynthesisRequest) (*texttospeech.Audio, error) {
	if c == nil {
		return nil, faults.New(faults.Validation, "deepgram speak client is not initialized")
	}

	ctx, span := tracer.Start(ctx, "synthesize speech")
	defer span.End()
	span.SetAttributes(
		attribute.String("request.voice", string(c.voice)),
		attribute.Int("request.text_length", len(request.Text)),
	)

	if c.apiKey == "" {
		err := faults.New(faults.Validation, "deepgram api key is missing")
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	requestBodyBytes, err := json.Marshal(map[string]string{"text": request.Text})
	if err != nil {
		return nil, fmt.Errorf("error marshalling JSON: %w", err)
	}

	query := url.Values{}
	query.Set("model", string(c.voice))
	query.Set("encoding", "linear16")
	query.Set("sample_rate", strconv.Itoa(c.sampleRate))

	req, err := http.NewRequestWithContext(ctx, "POST", c.baseURL+"?"+query.Encode(), bytes.NewBuffer(requestBodyBytes))
	if err != nil {
		return nil, fmt.Errorf("error creating HTTP request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "token "+c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		err = faults.Wrap(faults.Network, fmt.Errorf("error sending request: %w", err))
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	defer resp.Body.Close()

	span.SetAttributes(attribute.Int("response.status_code", resp.StatusCode))
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		err := faults.Errorf(faults.API, "non-OK HTTP status: %s", resp.Status)
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, faults.Wrap(faults.Network, fmt.Errorf("error reading audio: %w", err))
	}

	return &texttospeech.Audio{Data: data, Format: "linear16"}, nil
}

// Package koeiromap synthesizes speech through the Koeiromap (Koemotion)
// API. The API returns a URL to the rendered audio, so every synthesis is
// two round trips: one to render, one to download.
package koeiromap

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/kotonelabs/avatar-core/core/faults"
	"github.com/kotonelabs/avatar-core/core/texttospeech"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

const defaultBaseURL = "https://api.rinna.co.jp/koemotion/infer"

type Client struct {
	apiKey  string
	baseURL string

	httpClient *http.Client
}

type ClientOption func(*Client)

func WithBaseURL(url string) ClientOption {
	return func(c *Client) { c.baseURL = url }
}

func WithHTTPClient(httpClient *http.Client) ClientOption {
	return func(c *Client) { c.httpClient = httpClient }
}

func NewClient(apiKey string, opts ...ClientOption) *Client {
	client := &Client{
		apiKey:  apiKey,
		baseURL: defaultBaseURL,
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

type inferRequestBody struct {
	Text         string  `json:"text"`
	SpeakerX     float64 `json:"speaker_x"`
	SpeakerY     float64 `json:"speaker_y"`
	Style        string  `json:"style"`
	OutputFormat string  `json:"output_format"`
}

type inferResponseBody struct {
	Audio string `json:"audio"`
}

// Synthesize renders the request into WAV audio. Styles the API does not
// understand are mapped to its plain talking voice.
func (c *Client) Synthesize(ctx context.Context, request texttospeech.SynthesisRequest) (*texttospeech.Audio, error) {
	if c == nil {
		return nil, faults.New(faults.Validation, "koeiromap client is not initialized")
	}

	ctx, span := tracer.Start(ctx, "synthesize speech")
	defer span.End()
	span.SetAttributes(
		attribute.String("request.style", request.Style),
		attribute.Int("request.text_length", len(request.Text)),
	)

	if c.apiKey == "" {
		err := faults.New(faults.Validation, "koeiromap api key is missing")
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	requestBodyBytes, err := json.Marshal(inferRequestBody{
		Text:         request.Text,
		SpeakerX:     request.SpeakerX,
		SpeakerY:     request.SpeakerY,
		Style:        apiStyle(request.Style),
		OutputFormat: "wav",
	})
	if err != nil {
		return nil, fmt.Errorf("error marshalling JSON: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", c.baseURL, bytes.NewBuffer(requestBodyBytes))
	if err != nil {
		return nil, fmt.Errorf("error creating HTTP request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Ocp-Apim-Subscription-Key", c.apiKey)

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

	var responseBody inferResponseBody
	if err := json.NewDecoder(resp.Body).Decode(&responseBody); err != nil {
		err = faults.Wrap(faults.API, fmt.Errorf("error unmarshalling JSON: %w", err))
		span.RecordError(err)
		return nil, err
	}
	if responseBody.Audio == "" {
		err := faults.New(faults.API, "response carried no audio url")
		span.RecordError(err)
		return nil, err
	}

	data, err := c.download(ctx, responseBody.Audio)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	return &texttospeech.Audio{Data: data, Format: "wav"}, nil
}

func (c *Client) download(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, "GET", url, nil)
	if err != nil {
		return nil, fmt.Errorf("error creating audio request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, faults.Wrap(faults.Network, fmt.Errorf("error downloading audio: %w", err))
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, faults.Errorf(faults.API, "non-OK HTTP status downloading audio: %s", resp.Status)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, faults.Wrap(faults.Network, fmt.Errorf("error reading audio: %w", err))
	}
	return data, nil
}

func apiStyle(style string) string {
	switch style {
	case "happy", "angry", "sad":
		return style
	default:
		return "talk"
	}
}

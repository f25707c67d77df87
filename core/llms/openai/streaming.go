package openai

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/kotonelabs/avatar-core/core/faults"
	"github.com/kotonelabs/avatar-core/core/llms"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

const (
	defaultURL = "https://api.openai.com/v1/chat/completions"

	chunkPrefix = "data:"
	endMessage  = "[DONE]"
)

// Client streams chat completions from an OpenAI-compatible endpoint.
type Client struct {
	apiKey string
	model  string
	url    string
}

type ClientOption func(*Client)

// WithBaseURL points the client at a different OpenAI-compatible endpoint.
func WithBaseURL(url string) ClientOption {
	return func(c *Client) { c.url = url }
}

func NewClient(apiKey, model string, opts ...ClientOption) *Client {
	client := &Client{apiKey: apiKey, model: model, url: defaultURL}
	for _, opt := range opts {
		opt(client)
	}
	return client
}

// PromptWithStream prepares a streaming chat request over the passed
// transcript. The request is not sent until the stream's chunks are
// iterated.
func (c *Client) PromptWithStream(_ context.Context, messages []llms.Message) llms.Stream {
	return &Stream{
		apiKey:   c.apiKey,
		model:    c.model,
		url:      c.url,
		messages: toOpenAIMessages(messages),
	}
}

type Stream struct {
	apiKey string
	model  string
	url    string

	messages []message
}

func (s *Stream) Chunks(ctx context.Context) func(func(llms.StreamChunk, error) bool) {
	return func(yield func(llms.StreamChunk, error) bool) {
		ctx, span := tracer.Start(ctx, "prompt llm stream")
		defer span.End()
		span.SetAttributes(attribute.String("request.model", s.model))

		if s.apiKey == "" {
			err := faults.New(faults.Validation, "chat api key is missing")
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			yield(nil, err)
			return
		}

		requestBodyBytes, err := json.Marshal(requestBody{
			Model:    s.model,
			Messages: s.messages,
			Stream:   true,
		})
		if err != nil {
			err = fmt.Errorf("error marshalling JSON: %w", err)
			span.RecordError(err)
			yield(nil, err)
			return
		}

		req, err := http.NewRequestWithContext(ctx, "POST", s.url, bytes.NewBuffer(requestBodyBytes))
		if err != nil {
			err = fmt.Errorf("error creating HTTP request: %w", err)
			span.RecordError(err)
			yield(nil, err)
			return
		}

		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("Authorization", "Bearer "+s.apiKey)

		client := &http.Client{Transport: otelhttp.NewTransport(http.DefaultTransport,
			otelhttp.WithSpanNameFormatter(func(operationName string, request *http.Request) string {
				return operationName + " " + request.URL.Path
			}),
		)}
		resp, err := client.Do(req)
		if err != nil {
			err = faults.Wrap(faults.Network, fmt.Errorf("error sending request: %w", err))
			span.RecordError(err)
			yield(nil, err)
			return
		}
		defer resp.Body.Close()

		span.SetAttributes(attribute.Int("response.status_code", resp.StatusCode))
		if resp.StatusCode != http.StatusOK {
			err := faults.Errorf(faults.API, "non-OK HTTP status: %s", resp.Status)
			span.RecordError(err)
			yield(nil, err)
			return
		}

		scanner := bufio.NewScanner(resp.Body)
		for scanner.Scan() {
			chunk := strings.TrimSpace(strings.TrimPrefix(scanner.Text(), chunkPrefix))

			if len(chunk) == 0 {
				continue
			}

			if chunk == endMessage {
				break
			}

			var responseBody streamingResponseBody
			if err := json.Unmarshal([]byte(chunk), &responseBody); err != nil {
				err = faults.Wrap(faults.API, fmt.Errorf("error unmarshalling JSON: %w", err))
				span.RecordError(err)
				if !yield(nil, err) {
					return
				}
				continue
			}

			if len(responseBody.Choices) == 0 {
				continue
			}
			choice := responseBody.Choices[0]

			if choice.Delta.Content != "" {
				if !yield(StreamContentChunk{
					finishReason: choice.FinishReason,
					content:      choice.Delta.Content,
				}, nil) {
					return
				}
			}
		}

		if err := scanner.Err(); err != nil {
			err = faults.Wrap(faults.Network, fmt.Errorf("error reading streamed response: %w", err))
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			yield(nil, err)
			return
		}
	}
}

type StreamContentChunk struct {
	finishReason *string
	content      string
}

func (s StreamContentChunk) FinishReason() *string {
	return s.finishReason
}

func (s StreamContentChunk) Content() string {
	return s.content
}

type requestBody struct {
	Model    string    `json:"model"`
	Messages []message `json:"messages"`
	Stream   bool      `json:"stream"`
}

type streamingResponseBody struct {
	Choices []struct {
		Delta struct {
			Content string `json:"content"`
		} `json:"delta"`
		FinishReason *string `json:"finish_reason"`
	} `json:"choices"`
}

type message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

func toOpenAIMessages(messages []llms.Message) []message {
	converted := make([]message, 0, len(messages))
	for _, m := range messages {
		converted = append(converted, message{
			Role:    string(m.Role),
			Content: m.Content,
		})
	}
	return converted
}

package miniaudio

import (
	"context"
	"fmt"

	"github.com/gen2brain/malgo"
	"github.com/kotonelabs/avatar-core/core/audio"
)

type Client struct {
	// audioContext is only saved to be able to uninitialize it, it is an
	// ownership thing
	audioContext *malgo.AllocatedContext
	playbackClient
	captureClient
}

func NewClient() (*Client, error) {
	audioCtx, err := malgo.InitContext(nil, malgo.ContextConfig{}, func(message string) {})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize audio context: %w", err)
	}

	client := Client{
		audioContext: audioCtx,
	}

	if err := client.playbackClient.Init(audioCtx); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to initialize playback client: %w", err)
	}

	if err := client.playbackClient.Start(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to start playback device: %w", err)
	}

	if err := client.captureClient.Init(audioCtx); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to initialize capture client: %w", err)
	}

	return &client, nil
}

// Play queues the PCM audio on the playback device and blocks until the
// device consumed all of it or the context is cancelled. Cancelling drops
// whatever is still buffered.
func (c *Client) Play(ctx context.Context, pcm []byte) error {
	done, err := c.playbackClient.Enqueue(pcm)
	if err != nil {
		return err
	}

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		c.playbackClient.ClearBuffer()
		return ctx.Err()
	}
}

// Stream starts microphone capture, invoking onAudio for every captured
// frame until StopCapture or Close.
func (c *Client) Stream(_ context.Context, onAudio func(audio []byte)) error {
	return c.captureClient.Start(onAudio)
}

func (c *Client) StopCapture() error {
	return c.captureClient.Stop()
}

func (c *Client) Close() {
	_ = c.captureClient.Uninit()
	_ = c.playbackClient.Uninit()
	_ = c.audioContext.Uninit()
	c.audioContext.Free()
}

func (c *Client) EncodingInfo() audio.EncodingInfo {
	return audio.GetDefaultEncodingInfo()
}

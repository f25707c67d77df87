// Package portaudio is a PortAudio-backed alternative to the miniaudio
// client. Writes are synchronous, so Play returns once the last buffer was
// handed to the device.
package portaudio

import (
	"bytes"
	"context"
	"encoding/binary"
	"fmt"

	"github.com/gordonklaus/portaudio"
	"github.com/kotonelabs/avatar-core/core/audio"
)

type Client struct {
	bufferSize int
	stream     *portaudio.Stream

	in  []int16
	out []int16
}

func NewClient(bufferSize int) (*Client, error) {
	if err := portaudio.Initialize(); err != nil {
		return nil, fmt.Errorf("failed to initialize portaudio: %w", err)
	}

	in := make([]int16, bufferSize)
	out := make([]int16, bufferSize)
	stream, err := portaudio.OpenDefaultStream(1, 1, audio.DefaultSampleRate, bufferSize, in, out)
	if err != nil {
		portaudio.Terminate()
		return nil, fmt.Errorf("failed to open portaudio stream: %w", err)
	}

	if err := stream.Start(); err != nil {
		stream.Close()
		portaudio.Terminate()
		return nil, fmt.Errorf("failed to start portaudio stream: %w", err)
	}

	return &Client{
		bufferSize: bufferSize,
		stream:     stream,
		in:         in,
		out:        out,
	}, nil
}

// Play writes the PCM audio to the device buffer by buffer, padding the
// trailing partial buffer with silence. It returns early if the context is
// cancelled between writes.
func (c *Client) Play(ctx context.Context, pcm []byte) error {
	bufferBytes := c.bufferSize * 2

	for offset := 0; offset < len(pcm); offset += bufferBytes {
		if err := ctx.Err(); err != nil {
			return err
		}

		chunk := pcm[offset:min(offset+bufferBytes, len(pcm))]
		if len(chunk) < bufferBytes {
			chunk = append(append([]byte{}, chunk...), make([]byte, bufferBytes-len(chunk))...)
		}

		if err := binary.Read(bytes.NewBuffer(chunk), binary.LittleEndian, c.out); err != nil {
			return fmt.Errorf("failed to frame audio for playback: %w", err)
		}
		if err := c.stream.Write(); err != nil {
			return fmt.Errorf("failed to write to portaudio stream: %w", err)
		}
	}

	return nil
}

// Stream reads microphone audio until the context is cancelled, invoking
// onAudio for every captured buffer.
func (c *Client) Stream(ctx context.Context, onAudio func(audio []byte)) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		default:
			if err := c.stream.Read(); err != nil {
				return fmt.Errorf("failed to read from portaudio stream: %w", err)
			}

			audioBuffer := bytes.Buffer{}
			binary.Write(&audioBuffer, binary.LittleEndian, c.in)
			onAudio(audioBuffer.Bytes())
		}
	}
}

func (c *Client) Close() {
	c.stream.Close()
	portaudio.Terminate()
}

func (c *Client) EncodingInfo() audio.EncodingInfo {
	return audio.EncodingInfo{
		SampleRate: audio.DefaultSampleRate,
		Format:     audio.EncodingLinear16,
	}
}

package miniaudio

import (
	"fmt"
	"sync"

	"github.com/gen2brain/malgo"
	"github.com/kotonelabs/avatar-core/core/audio"
)

type playbackClient struct {
	audioContext *malgo.AllocatedContext
	device       *malgo.Device
	config       malgo.DeviceConfig

	pendingAudio []byte
	marks        []playbackMark

	mu      sync.Mutex
	audioMu sync.Mutex
}

// playbackMark is a position in the pending buffer whose channel is closed
// once the device consumed everything before it.
type playbackMark struct {
	position int
	done     chan struct{}
}

func (c *playbackClient) Init(audioContext *malgo.AllocatedContext) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	encoding := audio.GetDefaultEncodingInfo()
	channels := 1
	format := malgo.FormatS16
	bytesPerFrame := malgo.SampleSizeInBytes(format) * channels

	c.config = malgo.DefaultDeviceConfig(malgo.Playback)
	c.config.SampleRate = uint32(encoding.SampleRate)
	c.config.Playback.Format = format
	c.config.Playback.Channels = uint32(channels)
	c.config.Alsa.NoMMap = 1
	c.config.PeriodSizeInFrames = uint32(encoding.SampleRate) / 10 // ~100ms of audio
	c.config.Periods = 4

	c.audioContext = audioContext

	var err error
	if c.device, err = malgo.InitDevice(
		c.audioContext.Context,
		c.config,
		malgo.DeviceCallbacks{Data: c.processAudio(bytesPerFrame)},
	); err != nil {
		return err
	}

	return nil
}

func (c *playbackClient) Start() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.device == nil {
		return fmt.Errorf("device not initialized")
	}

	if err := c.device.Start(); err != nil {
		return fmt.Errorf("failed to start playback device: %w", err)
	}

	return nil
}

func (c *playbackClient) Stop() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.device == nil {
		return fmt.Errorf("device not initialized")
	}

	if err := c.device.Stop(); err != nil {
		return fmt.Errorf("failed to stop playback device: %w", err)
	}

	c.ClearBuffer()
	return nil
}

// Enqueue appends PCM audio to the pending buffer and returns a channel
// that is closed once the device consumed all of it.
func (c *playbackClient) Enqueue(pcm []byte) (<-chan struct{}, error) {
	if c.device == nil {
		return nil, fmt.Errorf("device not initialized")
	} else if !c.device.IsStarted() {
		return nil, fmt.Errorf("device not started")
	}

	c.audioMu.Lock()
	defer c.audioMu.Unlock()
	c.pendingAudio = append(c.pendingAudio, pcm...)

	done := make(chan struct{})
	if len(c.pendingAudio) == 0 {
		close(done)
		return done, nil
	}
	c.marks = append(c.marks, playbackMark{position: len(c.pendingAudio), done: done})
	return done, nil
}

// ClearBuffer drops buffered audio and releases every waiter.
func (c *playbackClient) ClearBuffer() {
	c.audioMu.Lock()
	defer c.audioMu.Unlock()
	c.pendingAudio = nil
	for _, mark := range c.marks {
		close(mark.done)
	}
	c.marks = nil
}

func (c *playbackClient) Uninit() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.device == nil {
		return fmt.Errorf("device not initialized")
	}

	c.device.Uninit()
	c.device = nil

	c.ClearBuffer()
	return nil
}

func (c *playbackClient) processAudio(bytesPerFrame int) malgo.DataProc {
	return func(pOutput, _ []byte, frameCount uint32) {
		need := int(frameCount) * bytesPerFrame

		c.audioMu.Lock()
		if len(c.pendingAudio) == 0 {
			c.audioMu.Unlock()
			return
		}

		consumed := min(need, len(c.pendingAudio))
		_ = copy(pOutput, c.pendingAudio[:consumed])
		c.pendingAudio = c.pendingAudio[consumed:]
		passed := c.advanceMarks(consumed)
		c.audioMu.Unlock()

		for _, mark := range passed {
			close(mark.done)
		}
	}
}

// advanceMarks shifts mark positions by the consumed byte count and returns
// the marks the device played past. Callers must hold audioMu.
func (c *playbackClient) advanceMarks(consumed int) []playbackMark {
	passedMarks := 0
	for i, mark := range c.marks {
		if mark.position > consumed {
			c.marks[i].position -= consumed
		} else {
			passedMarks++
		}
	}
	if passedMarks == 0 {
		return nil
	}

	passed := c.marks[:passedMarks]
	c.marks = c.marks[passedMarks:]
	return passed
}

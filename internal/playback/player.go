package playback

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/gen2brain/malgo"
)

var (
	ErrNotInitialized = errors.New("playback: not initialized")
	ErrAlreadyRunning = errors.New("playback: already running")
	ErrNotRunning     = errors.New("playback: not running")
)

// Player feeds PCM frames to the default (or a selected) speaker
// device at 8 kHz mono 16-bit, the tone engine's one supported format.
type Player struct {
	deviceIndex int

	mu      sync.Mutex
	ctx     *malgo.AllocatedContext
	device  *malgo.Device
	running bool

	frames   chan []int16
	leftover []int16
}

// New creates a Player. deviceIndex selects a specific output device
// by its index in ListDevices; -1 means the system default.
func New(deviceIndex int) *Player {
	return &Player{
		deviceIndex: deviceIndex,
		frames:      make(chan []int16, 32),
	}
}

// Init initializes the audio backend. Must be called before Start.
func (p *Player) Init() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	ctx, err := malgo.InitContext(nil, malgo.ContextConfig{}, nil)
	if err != nil {
		return fmt.Errorf("playback: init context: %w", err)
	}
	p.ctx = ctx
	return nil
}

// ListDevices returns available playback devices.
func (p *Player) ListDevices() ([]malgo.DeviceInfo, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.ctx == nil {
		return nil, ErrNotInitialized
	}
	infos, err := p.ctx.Devices(malgo.Playback)
	if err != nil {
		return nil, fmt.Errorf("playback: enumerate devices: %w", err)
	}
	return infos, nil
}

// Start opens the output device and begins pulling frames queued via
// Write until ctx is cancelled or Stop is called.
func (p *Player) Start(ctx context.Context) error {
	p.mu.Lock()
	if p.running {
		p.mu.Unlock()
		return ErrAlreadyRunning
	}
	if p.ctx == nil {
		p.mu.Unlock()
		return ErrNotInitialized
	}
	p.mu.Unlock()

	deviceConfig := malgo.DeviceConfig{
		DeviceType:         malgo.Playback,
		SampleRate:         8000,
		PeriodSizeInFrames: 160,
		Playback: malgo.SubConfig{
			Format:   malgo.FormatS16,
			Channels: 1,
		},
	}

	var deviceID *malgo.DeviceID
	if p.deviceIndex >= 0 {
		devices, err := p.ListDevices()
		if err != nil {
			return err
		}
		if p.deviceIndex >= len(devices) {
			return fmt.Errorf("playback: device index %d out of range (have %d)", p.deviceIndex, len(devices))
		}
		deviceID = &devices[p.deviceIndex].ID
		deviceConfig.Playback.DeviceID = deviceID.Pointer()
	}

	onSendFrames := func(output, _ []byte, frameCount uint32) {
		need := int(frameCount)
		out := output
		for need > 0 {
			if len(p.leftover) == 0 {
				select {
				case f, ok := <-p.frames:
					if !ok {
						return
					}
					p.leftover = f
				default:
					return // underrun: let malgo zero-fill the rest
				}
			}
			n := len(p.leftover)
			if n > need {
				n = need
			}
			for i := 0; i < n; i++ {
				s := p.leftover[i]
				out[0] = byte(s)
				out[1] = byte(s >> 8)
				out = out[2:]
			}
			p.leftover = p.leftover[n:]
			need -= n
		}
	}

	device, err := malgo.InitDevice(p.ctx.Context, deviceConfig, malgo.DeviceCallbacks{Data: onSendFrames})
	if err != nil {
		return fmt.Errorf("playback: init device: %w", err)
	}
	if err := device.Start(); err != nil {
		device.Uninit()
		return fmt.Errorf("playback: start device: %w", err)
	}

	p.mu.Lock()
	p.device = device
	p.running = true
	p.mu.Unlock()

	go func() {
		<-ctx.Done()
		_ = p.Stop()
	}()

	return nil
}

// Write queues one PCM frame of int16 samples for playback. It blocks
// briefly if the internal queue is full rather than dropping audio
// silently, since dropped frames would desynchronize cadence timing
// audible to a listener.
func (p *Player) Write(frame []int16) {
	cp := make([]int16, len(frame))
	copy(cp, frame)
	p.frames <- cp
}

// Stop stops playback and releases the device.
func (p *Player) Stop() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.running {
		return ErrNotRunning
	}
	if p.device != nil {
		_ = p.device.Stop()
		p.device.Uninit()
		p.device = nil
	}
	p.running = false
	return nil
}

// Close releases all audio resources. Call after Stop.
func (p *Player) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.running && p.device != nil {
		_ = p.device.Stop()
		p.device.Uninit()
		p.device = nil
		p.running = false
	}
	if p.ctx != nil {
		if err := p.ctx.Uninit(); err != nil {
			return fmt.Errorf("playback: uninit context: %w", err)
		}
		p.ctx.Free()
		p.ctx = nil
	}
	return nil
}

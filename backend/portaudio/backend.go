// Package portaudio is the concrete realtime audio Backend: it owns a
// portaudio output stream and, on its own goroutine, pulls one rendered
// quantum from an audiograph.Context at a time and writes it to the
// device. Grounded on client/audio.go's AudioEngine, trimmed to the
// playback half (this package has no capture side — audiograph is a
// render engine, not a voice client).
package portaudio

import (
	"log"
	"sync"
	"sync/atomic"

	"github.com/gordonklaus/portaudio"

	"audiograph"
)

var initOnce sync.Once
var initErr error

func ensureInitialized() error {
	initOnce.Do(func() { initErr = portaudio.Initialize() })
	return initErr
}

// Backend drives an audiograph.Context's render loop from a goroutine
// that writes each rendered quantum to a blocking portaudio output stream.
type Backend struct {
	ctx *audiograph.Context

	outputDeviceID int

	mu     sync.Mutex
	stream *portaudio.Stream
	stopCh chan struct{}
	wg     sync.WaitGroup

	running atomic.Bool
}

// New returns a Backend driving ctx, defaulting to the system's default
// output device.
func New(ctx *audiograph.Context) *Backend {
	return &Backend{ctx: ctx, outputDeviceID: -1}
}

// SetOutputDevice selects a device by index from ListOutputDevices; -1
// restores the system default. Takes effect on the next Start.
func (b *Backend) SetOutputDevice(id int) {
	b.mu.Lock()
	b.outputDeviceID = id
	b.mu.Unlock()
}

// ListOutputDevices enumerates playback-capable devices.
func (b *Backend) ListOutputDevices() ([]*portaudio.DeviceInfo, error) {
	devices, err := portaudio.Devices()
	if err != nil {
		return nil, err
	}
	out := devices[:0]
	for _, d := range devices {
		if d.MaxOutputChannels > 0 {
			out = append(out, d)
		}
	}
	return out, nil
}

func resolveDevice(devices []*portaudio.DeviceInfo, idx int) (*portaudio.DeviceInfo, error) {
	if idx >= 0 && idx < len(devices) {
		return devices[idx], nil
	}
	return portaudio.DefaultOutputDevice()
}

// Start opens the output stream and begins pulling quanta from the
// Context. Calling Start while already running is a no-op.
func (b *Backend) Start() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.running.Load() {
		return nil
	}
	if err := ensureInitialized(); err != nil {
		return err
	}

	devices, err := portaudio.Devices()
	if err != nil {
		return err
	}
	dev, err := resolveDevice(devices, b.outputDeviceID)
	if err != nil {
		return err
	}

	channels := b.ctx.Destination().ChannelCount()
	frameSize := 128 // the engine's quantum length
	buf := make([]float32, frameSize*channels)

	params := portaudio.StreamParameters{
		Output: portaudio.StreamDeviceParameters{
			Device:   dev,
			Channels: channels,
			Latency:  dev.DefaultLowOutputLatency,
		},
		SampleRate:      b.ctx.SampleRate(),
		FramesPerBuffer: frameSize,
	}
	stream, err := portaudio.OpenStream(params, buf)
	if err != nil {
		return err
	}
	if err := stream.Start(); err != nil {
		stream.Close()
		return err
	}

	b.stream = stream
	b.stopCh = make(chan struct{})
	b.running.Store(true)

	b.wg.Add(1)
	go func() {
		defer b.wg.Done()
		b.playbackLoop(buf, channels)
	}()

	log.Printf("[audiograph/portaudio] started playback=%s", dev.Name)
	return nil
}

// Stop halts playback and releases the device. Sequence matters: the
// stream is stopped (unblocking any in-flight Write) before the
// goroutine is waited on, and the stream is closed only after the
// goroutine has fully exited — closing while it is still writing would
// free the native stream object out from under it.
func (b *Backend) Stop() {
	if !b.running.CompareAndSwap(true, false) {
		return
	}
	close(b.stopCh)

	b.mu.Lock()
	if b.stream != nil {
		b.stream.Stop()
	}
	b.mu.Unlock()

	b.wg.Wait()

	b.mu.Lock()
	if b.stream != nil {
		b.stream.Close()
		b.stream = nil
	}
	b.mu.Unlock()

	log.Println("[audiograph/portaudio] stopped")
}

func (b *Backend) playbackLoop(buf []float32, channels int) {
	for {
		select {
		case <-b.stopCh:
			return
		default:
		}

		b.ctx.Step()
		q, ok := b.ctx.RenderedQuantum()
		if !ok {
			zeroFloat32(buf)
		} else {
			n := q.NumberOfChannels()
			for frame := 0; frame < len(buf)/channels; frame++ {
				for ch := 0; ch < channels; ch++ {
					var v float32
					if ch < n {
						v = q.Channel(ch).View()[frame]
					}
					buf[frame*channels+ch] = v
				}
			}
		}

		if err := b.stream.Write(); err != nil {
			log.Printf("[audiograph/portaudio] write: %v", err)
		}
	}
}

func zeroFloat32(buf []float32) {
	for i := range buf {
		buf[i] = 0
	}
}

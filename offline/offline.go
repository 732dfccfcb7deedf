// Package offline renders an audiograph.Context in pull mode: instead of
// a device callback pacing playback, Render drives the graph in a tight
// loop until the requested frame count has been produced, accumulating
// samples into an in-memory buffer. Grounded on client/audio.go's
// playbackLoop pull-and-write cadence, with the portaudio Write swapped
// for an append to a result buffer.
package offline

import (
	"fmt"

	"audiograph"
	"audiograph/internal/pool"
)

// Result holds the rendered audio, one []float32 per channel.
type Result struct {
	SampleRate float64
	Channels   [][]float32
}

// Render steps ctx until at least frames samples have been produced,
// then trims to exactly frames. ctx must not be Closed; Render does not
// change its state (the caller owns its lifecycle).
func Render(ctx *audiograph.Context, frames int) (*Result, error) {
	if frames <= 0 {
		return nil, fmt.Errorf("offline: frames must be positive, got %d", frames)
	}
	if ctx.State() == audiograph.Closed {
		return nil, fmt.Errorf("offline: context is closed")
	}

	numChannels := ctx.Destination().ChannelCount()
	out := make([][]float32, numChannels)
	for i := range out {
		out[i] = make([]float32, 0, frames)
	}

	for len(out[0]) < frames {
		ctx.Step()
		q, ok := ctx.RenderedQuantum()
		if !ok {
			for ch := range out {
				out[ch] = append(out[ch], make([]float32, pool.Quantum)...)
			}
			continue
		}
		n := q.NumberOfChannels()
		for ch := 0; ch < numChannels; ch++ {
			if ch < n {
				out[ch] = append(out[ch], q.Channel(ch).View()[:]...)
			} else {
				out[ch] = append(out[ch], make([]float32, pool.Quantum)...)
			}
		}
	}

	for ch := range out {
		out[ch] = out[ch][:frames]
	}

	return &Result{SampleRate: ctx.SampleRate(), Channels: out}, nil
}

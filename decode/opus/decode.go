// Package opus decodes Opus packet streams into audiograph.DecodedBuffer
// values suitable for CreateBufferSource. Grounded on client/audio.go's
// playbackLoop decoder usage (gopkg.in/hraban/opus.v2, int16 PCM output,
// per-sample float32 conversion), trimmed to a one-shot decode instead of
// a live per-sender decoder map.
package opus

import (
	"fmt"

	"gopkg.in/hraban/opus.v2"

	"audiograph"
)

// MaxFrameSamples bounds a single Opus frame's decoded length per channel;
// 120ms at 48kHz, the largest frame duration Opus supports.
const MaxFrameSamples = 5760

// Decode decodes a sequence of Opus packets (one element per frame, as
// produced by an RTP depacketizer or an Ogg demuxer) into a single
// interleaved-then-deinterleaved DecodedBuffer at sampleRate/channels.
// Packet-loss concealment is invoked for any nil entry in packets, the
// same as client/audio.go's Decode(nil, pcm) fallback.
func Decode(packets [][]byte, sampleRate, channels int) (*audiograph.DecodedBuffer, error) {
	dec, err := opus.NewDecoder(sampleRate, channels)
	if err != nil {
		return nil, fmt.Errorf("opus: new decoder: %w", err)
	}

	out := make([][]float32, channels)
	pcm := make([]int16, MaxFrameSamples*channels)

	for i, pkt := range packets {
		n, err := dec.Decode(pkt, pcm)
		if err != nil {
			return nil, fmt.Errorf("opus: decode packet %d: %w", i, err)
		}
		for ch := 0; ch < channels; ch++ {
			for s := 0; s < n; s++ {
				out[ch] = append(out[ch], float32(pcm[s*channels+ch])/32768.0)
			}
		}
	}

	return &audiograph.DecodedBuffer{SampleRate: float64(sampleRate), Channels: out}, nil
}

// DecodeFEC recovers one lost frame using the forward-error-correction
// data embedded in the following packet, matching client/audio.go's FEC
// path; on failure it falls back to plain concealment.
func DecodeFEC(dec *opus.Decoder, fecData []byte, sampleRate, channels int) ([]float32, error) {
	pcm := make([]int16, MaxFrameSamples*channels)
	if err := dec.DecodeFEC(fecData, pcm); err != nil {
		n, decErr := dec.Decode(nil, pcm)
		if decErr != nil {
			return nil, fmt.Errorf("opus: fec fallback: %w", decErr)
		}
		return toFloat32(pcm[:n*channels]), nil
	}
	return toFloat32(pcm), nil
}

func toFloat32(pcm []int16) []float32 {
	out := make([]float32, len(pcm))
	for i, s := range pcm {
		out[i] = float32(s) / 32768.0
	}
	return out
}

package audiograph

// Options configures a new Context. Mirrors the teacher's Config/Default
// shape (plain JSON-tagged struct, a Default/DefaultOptions constructor)
// rather than functional options, since every field here is a single
// scalar the host sets once at startup.
type Options struct {
	SampleRate float64 `json:"sample_rate"`

	// MaxChannels bounds the channel count the destination and any
	// Max/ClampedMax node can grow to (spec's IndexSize error kind: a
	// channel count above this is rejected).
	MaxChannels int `json:"max_channels"`

	// PoolCapacity is the initial number of RenderQuantum blocks the
	// block pool preallocates. The pool grows past this under load; it
	// is a tuning knob, not a hard ceiling.
	PoolCapacity int `json:"pool_capacity"`

	// Offline marks a Context as driven by a pull loop (offline.Render)
	// rather than a realtime backend. An offline destination's channel
	// count is fixed at construction (NotSupported to change it later).
	Offline bool `json:"offline"`
}

// DefaultOptions returns sensible defaults: 44.1kHz, stereo destination
// headroom up to 32 channels, a modest preallocated pool, realtime mode.
func DefaultOptions() Options {
	return Options{
		SampleRate:   44100,
		MaxChannels:  32,
		PoolCapacity: 64,
		Offline:      false,
	}
}

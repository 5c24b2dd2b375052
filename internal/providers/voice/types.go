package voice

import "context"

// SynthesizeRequest describes a normalized text-to-speech request.
type SynthesizeRequest struct {
	Text      string
	VoiceID   string
	Locale    string
	RequestID string
}

// Asset represents a synthesized audio track.
type Asset struct {
	URL    string
	Format string
	Data   []byte
}

// Synthesizer is the contract implemented by all voice providers.
type Synthesizer interface {
	Synthesize(ctx context.Context, req SynthesizeRequest) (*Asset, error)
}

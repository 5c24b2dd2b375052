package video

import "context"

// GenerateRequest describes a normalized direct video generation request.
type GenerateRequest struct {
	Prompt          string
	DurationSeconds float64
	AspectRatio     string
	RequestID       string
}

// Asset represents a generated video.
type Asset struct {
	URL    string
	Format string
	Length int
	Data   []byte
}

// Generator is the contract implemented by direct video providers.
type Generator interface {
	Generate(ctx context.Context, req GenerateRequest) (*Asset, error)
}

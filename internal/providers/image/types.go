package image

import "context"

// GenerateRequest describes a normalized request passed to any image provider.
// One request produces exactly one image.
type GenerateRequest struct {
	Prompt      string
	AspectRatio string
	RequestID   string
	SceneIndex  int
}

// Asset represents a generated image.
type Asset struct {
	URL    string
	Format string
	Width  int
	Height int
	Data   []byte
}

// Generator is the contract implemented by all image providers.
type Generator interface {
	Generate(ctx context.Context, req GenerateRequest) (*Asset, error)
}

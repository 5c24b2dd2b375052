package image

import (
	"context"
	"strings"

	"reelforge/server/internal/providers/gemini"
	"reelforge/server/internal/providers/pollinations"
	"reelforge/server/internal/providers/selfhosted"
)

// GeminiGenerator adapts the Gemini client to the image contract.
type GeminiGenerator struct {
	client *gemini.Client
}

func NewGeminiGenerator(client *gemini.Client) *GeminiGenerator {
	return &GeminiGenerator{client: client}
}

func (g *GeminiGenerator) Generate(ctx context.Context, req GenerateRequest) (*Asset, error) {
	data, mime, err := g.client.GenerateImage(ctx, req.Prompt, req.AspectRatio, req.RequestID)
	if err != nil {
		return nil, err
	}
	width, height := dimensionsForAspect(req.AspectRatio)
	return &Asset{Format: mime, Width: width, Height: height, Data: data}, nil
}

// SelfHostedGenerator adapts the self-hosted client to the image contract.
type SelfHostedGenerator struct {
	client *selfhosted.Client
}

func NewSelfHostedGenerator(client *selfhosted.Client) *SelfHostedGenerator {
	return &SelfHostedGenerator{client: client}
}

func (s *SelfHostedGenerator) Generate(ctx context.Context, req GenerateRequest) (*Asset, error) {
	data, mime, err := s.client.GenerateImage(ctx, req.Prompt, req.AspectRatio)
	if err != nil {
		return nil, err
	}
	width, height := dimensionsForAspect(req.AspectRatio)
	return &Asset{Format: mime, Width: width, Height: height, Data: data}, nil
}

// PollinationsGenerator adapts the free keyless endpoint to the image contract.
type PollinationsGenerator struct {
	client *pollinations.Client
}

func NewPollinationsGenerator(client *pollinations.Client) *PollinationsGenerator {
	return &PollinationsGenerator{client: client}
}

func (p *PollinationsGenerator) Generate(ctx context.Context, req GenerateRequest) (*Asset, error) {
	width, height := dimensionsForAspect(req.AspectRatio)
	data, mime, err := p.client.GenerateImage(ctx, req.Prompt, width, height)
	if err != nil {
		return nil, err
	}
	return &Asset{Format: mime, Width: width, Height: height, Data: data}, nil
}

func dimensionsForAspect(aspect string) (int, int) {
	switch strings.TrimSpace(aspect) {
	case "9:16":
		return 1080, 1920
	case "1:1":
		return 1024, 1024
	default:
		return 1920, 1080
	}
}

var (
	_ Generator = (*GeminiGenerator)(nil)
	_ Generator = (*SelfHostedGenerator)(nil)
	_ Generator = (*PollinationsGenerator)(nil)
)

package text

import (
	"context"

	"reelforge/server/internal/providers/gemini"
	"reelforge/server/internal/providers/pollinations"
	"reelforge/server/internal/providers/selfhosted"
)

// GeminiCompleter adapts the Gemini client to the text contract.
type GeminiCompleter struct {
	client *gemini.Client
}

func NewGeminiCompleter(client *gemini.Client) *GeminiCompleter {
	return &GeminiCompleter{client: client}
}

func (g *GeminiCompleter) Complete(ctx context.Context, prompt string) (string, error) {
	return g.client.CompleteText(ctx, prompt)
}

// SelfHostedCompleter adapts the self-hosted client to the text contract.
type SelfHostedCompleter struct {
	client *selfhosted.Client
}

func NewSelfHostedCompleter(client *selfhosted.Client) *SelfHostedCompleter {
	return &SelfHostedCompleter{client: client}
}

func (s *SelfHostedCompleter) Complete(ctx context.Context, prompt string) (string, error) {
	return s.client.CompleteText(ctx, prompt)
}

// PollinationsCompleter adapts the free keyless endpoint to the text contract.
type PollinationsCompleter struct {
	client *pollinations.Client
}

func NewPollinationsCompleter(client *pollinations.Client) *PollinationsCompleter {
	return &PollinationsCompleter{client: client}
}

func (p *PollinationsCompleter) Complete(ctx context.Context, prompt string) (string, error) {
	return p.client.CompleteText(ctx, prompt)
}

var (
	_ Completer = (*GeminiCompleter)(nil)
	_ Completer = (*SelfHostedCompleter)(nil)
	_ Completer = (*PollinationsCompleter)(nil)
)

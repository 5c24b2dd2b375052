package voice

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"reelforge/server/internal/providers"
	"reelforge/server/internal/providers/selfhosted"
)

const GTTSProviderName = "gtts"

// SelfHostedSynthesizer adapts the self-hosted client to the voice contract.
type SelfHostedSynthesizer struct {
	client *selfhosted.Client
}

func NewSelfHostedSynthesizer(client *selfhosted.Client) *SelfHostedSynthesizer {
	return &SelfHostedSynthesizer{client: client}
}

func (s *SelfHostedSynthesizer) Synthesize(ctx context.Context, req SynthesizeRequest) (*Asset, error) {
	data, format, err := s.client.Synthesize(ctx, req.Text, req.VoiceID)
	if err != nil {
		return nil, err
	}
	return &Asset{Format: format, Data: data}, nil
}

// GTTSSynthesizer calls a keyless translate-TTS style endpoint. It is the
// free tier's voice provider; an empty base URL means not configured.
type GTTSSynthesizer struct {
	baseURL    string
	httpClient *http.Client
}

func NewGTTSSynthesizer(baseURL string, httpClient *http.Client) *GTTSSynthesizer {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 45 * time.Second}
	}
	return &GTTSSynthesizer{
		baseURL:    strings.TrimRight(strings.TrimSpace(baseURL), "/"),
		httpClient: httpClient,
	}
}

// Configured reports whether the free endpoint is enabled.
func (g *GTTSSynthesizer) Configured() bool {
	return g.baseURL != ""
}

func (g *GTTSSynthesizer) Synthesize(ctx context.Context, req SynthesizeRequest) (*Asset, error) {
	if !g.Configured() {
		return nil, providers.MissingCredential(GTTSProviderName)
	}
	locale := strings.TrimSpace(req.Locale)
	if locale == "" {
		locale = "en"
	}
	endpoint := fmt.Sprintf("%s/translate_tts?ie=UTF-8&client=tw-ob&tl=%s&q=%s",
		g.baseURL, url.QueryEscape(locale), url.QueryEscape(strings.TrimSpace(req.Text)))
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, providers.TransportFailure(GTTSProviderName, err)
	}
	resp, err := g.httpClient.Do(httpReq)
	if err != nil {
		return nil, providers.TransportFailure(GTTSProviderName, err)
	}
	defer resp.Body.Close()
	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, providers.TransportFailure(GTTSProviderName, err)
	}
	if resp.StatusCode >= http.StatusBadRequest {
		return nil, providers.FailureFromStatus(GTTSProviderName, resp.StatusCode, string(raw))
	}
	if len(raw) == 0 {
		return nil, providers.ShapeFailure(GTTSProviderName, "audio response is empty")
	}
	format := resp.Header.Get("Content-Type")
	if format == "" {
		format = "audio/mpeg"
	}
	return &Asset{Format: format, Data: raw}, nil
}

var (
	_ Synthesizer = (*SelfHostedSynthesizer)(nil)
	_ Synthesizer = (*GTTSSynthesizer)(nil)
)

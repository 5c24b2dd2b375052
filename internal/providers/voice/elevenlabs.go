package voice

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"reelforge/server/internal/domain"
	"reelforge/server/internal/providers"
)

const ElevenLabsProviderName = "elevenlabs"

// ElevenLabsOptions configures the ElevenLabs synthesizer.
type ElevenLabsOptions struct {
	APIKey         string
	BaseURL        string
	DefaultVoiceID string
	HTTPClient     *http.Client
}

// ElevenLabsSynthesizer calls the ElevenLabs text-to-speech API. One request,
// one audio track.
type ElevenLabsSynthesizer struct {
	apiKey         string
	baseURL        string
	defaultVoiceID string
	httpClient     *http.Client
}

func NewElevenLabsSynthesizer(opts ElevenLabsOptions) *ElevenLabsSynthesizer {
	httpClient := opts.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 60 * time.Second}
	}
	baseURL := strings.TrimRight(opts.BaseURL, "/")
	if baseURL == "" {
		baseURL = "https://api.elevenlabs.io/v1"
	}
	voiceID := strings.TrimSpace(opts.DefaultVoiceID)
	if voiceID == "" {
		voiceID = "21m00Tcm4TlvDq8ikWAM"
	}
	return &ElevenLabsSynthesizer{
		apiKey:         strings.TrimSpace(opts.APIKey),
		baseURL:        baseURL,
		defaultVoiceID: voiceID,
		httpClient:     httpClient,
	}
}

// HasCredentials reports whether the synthesizer can perform remote calls.
func (e *ElevenLabsSynthesizer) HasCredentials() bool {
	return e.apiKey != ""
}

type elevenLabsRequest struct {
	Text          string             `json:"text"`
	ModelID       string             `json:"model_id"`
	VoiceSettings map[string]float64 `json:"voice_settings,omitempty"`
}

func (e *ElevenLabsSynthesizer) Synthesize(ctx context.Context, req SynthesizeRequest) (*Asset, error) {
	if !e.HasCredentials() {
		return nil, providers.MissingCredential(ElevenLabsProviderName)
	}
	text := strings.TrimSpace(req.Text)
	if text == "" {
		return nil, domain.NewFailure(domain.FailureInvalidRequest, ElevenLabsProviderName, "text is required")
	}
	voiceID := strings.TrimSpace(req.VoiceID)
	if voiceID == "" {
		voiceID = e.defaultVoiceID
	}
	payload := elevenLabsRequest{
		Text:    text,
		ModelID: "eleven_multilingual_v2",
		VoiceSettings: map[string]float64{
			"stability":        0.5,
			"similarity_boost": 0.75,
		},
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, domain.NewFailure(domain.FailureInvalidRequest, ElevenLabsProviderName, "marshal request: %v", err)
	}
	endpoint := e.baseURL + "/text-to-speech/" + url.PathEscape(voiceID)
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, domain.NewFailure(domain.FailureInvalidRequest, ElevenLabsProviderName, "build request: %v", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "audio/mpeg")
	httpReq.Header.Set("xi-api-key", e.apiKey)

	resp, err := e.httpClient.Do(httpReq)
	if err != nil {
		return nil, providers.TransportFailure(ElevenLabsProviderName, err)
	}
	defer resp.Body.Close()
	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, providers.TransportFailure(ElevenLabsProviderName, err)
	}
	if resp.StatusCode >= http.StatusBadRequest {
		return nil, providers.FailureFromStatus(ElevenLabsProviderName, resp.StatusCode, string(raw))
	}
	if len(raw) == 0 {
		return nil, providers.ShapeFailure(ElevenLabsProviderName, "audio response is empty")
	}
	format := resp.Header.Get("Content-Type")
	if format == "" {
		format = "audio/mpeg"
	}
	return &Asset{Format: format, Data: raw}, nil
}

var _ Synthesizer = (*ElevenLabsSynthesizer)(nil)

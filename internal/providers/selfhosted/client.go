package selfhosted

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"reelforge/server/internal/domain"
	"reelforge/server/internal/infra"
	"reelforge/server/internal/providers"
)

const ProviderName = "selfhosted"

// Options configures the self-hosted inference server client.
type Options struct {
	BaseURL    string
	TextModel  string
	HTTPClient *http.Client
	Logger     *infra.Logger
}

// Client talks to an operator-run inference server that exposes an
// Ollama-compatible text endpoint, a Stable-Diffusion-WebUI-compatible image
// endpoint, and a plain TTS endpoint. One server covers all three concerns,
// which is what makes the self-hosted tier the cheapest candidate.
type Client struct {
	baseURL    string
	textModel  string
	httpClient *http.Client
	logger     *infra.Logger
}

// NewClient constructs a self-hosted client. An empty base URL yields a client
// without credentials; the capability map keeps it out of candidate lists.
func NewClient(opts Options) *Client {
	httpClient := opts.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 120 * time.Second}
	}
	textModel := strings.TrimSpace(opts.TextModel)
	if textModel == "" {
		textModel = "llama3"
	}
	var logger *infra.Logger
	if opts.Logger != nil {
		logger = opts.Logger
	} else {
		discard := zerolog.New(io.Discard)
		l := infra.Logger(discard)
		logger = &l
	}
	return &Client{
		baseURL:    strings.TrimRight(strings.TrimSpace(opts.BaseURL), "/"),
		textModel:  textModel,
		httpClient: httpClient,
		logger:     logger,
	}
}

// Configured reports whether a server base URL is set.
func (c *Client) Configured() bool {
	return c.baseURL != ""
}

type generateTextRequest struct {
	Model  string `json:"model"`
	Prompt string `json:"prompt"`
	Stream bool   `json:"stream"`
}

type generateTextResponse struct {
	Response string `json:"response"`
}

// CompleteText runs one completion against the Ollama-style endpoint.
func (c *Client) CompleteText(ctx context.Context, prompt string) (string, error) {
	if !c.Configured() {
		return "", providers.MissingCredential(ProviderName)
	}
	payload := generateTextRequest{Model: c.textModel, Prompt: prompt, Stream: false}
	raw, err := c.post(ctx, "/api/generate", payload)
	if err != nil {
		return "", err
	}
	var decoded generateTextResponse
	if err := json.Unmarshal(raw, &decoded); err != nil {
		return "", providers.ShapeFailure(ProviderName, fmt.Sprintf("decode text response: %v", err))
	}
	if strings.TrimSpace(decoded.Response) == "" {
		return "", providers.ShapeFailure(ProviderName, "text response is empty")
	}
	return decoded.Response, nil
}

type txt2imgRequest struct {
	Prompt string `json:"prompt"`
	Width  int    `json:"width"`
	Height int    `json:"height"`
	Steps  int    `json:"steps"`
}

type txt2imgResponse struct {
	Images []string `json:"images"`
}

// GenerateImage runs one txt2img call and returns the first image's bytes.
func (c *Client) GenerateImage(ctx context.Context, prompt, aspectRatio string) ([]byte, string, error) {
	if !c.Configured() {
		return nil, "", providers.MissingCredential(ProviderName)
	}
	width, height := dimensionsForAspect(aspectRatio)
	payload := txt2imgRequest{Prompt: prompt, Width: width, Height: height, Steps: 20}
	raw, err := c.post(ctx, "/sdapi/v1/txt2img", payload)
	if err != nil {
		return nil, "", err
	}
	var decoded txt2imgResponse
	if err := json.Unmarshal(raw, &decoded); err != nil {
		return nil, "", providers.ShapeFailure(ProviderName, fmt.Sprintf("decode image response: %v", err))
	}
	if len(decoded.Images) == 0 {
		return nil, "", providers.ShapeFailure(ProviderName, "image response contained no images")
	}
	data, err := base64.StdEncoding.DecodeString(decoded.Images[0])
	if err != nil {
		return nil, "", providers.ShapeFailure(ProviderName, "image payload is not base64")
	}
	return data, "image/png", nil
}

type ttsRequest struct {
	Text  string `json:"text"`
	Voice string `json:"voice,omitempty"`
}

// Synthesize runs one TTS call and returns raw audio bytes.
func (c *Client) Synthesize(ctx context.Context, text, voiceID string) ([]byte, string, error) {
	if !c.Configured() {
		return nil, "", providers.MissingCredential(ProviderName)
	}
	payload := ttsRequest{Text: text, Voice: voiceID}
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, "", domain.NewFailure(domain.FailureInvalidRequest, ProviderName, "marshal tts request: %v", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/tts", bytes.NewReader(body))
	if err != nil {
		return nil, "", domain.NewFailure(domain.FailureInvalidRequest, ProviderName, "build tts request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, "", providers.TransportFailure(ProviderName, err)
	}
	defer resp.Body.Close()
	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, "", providers.TransportFailure(ProviderName, err)
	}
	if resp.StatusCode >= http.StatusBadRequest {
		return nil, "", providers.FailureFromStatus(ProviderName, resp.StatusCode, string(raw))
	}
	if len(raw) == 0 {
		return nil, "", providers.ShapeFailure(ProviderName, "tts response is empty")
	}
	format := resp.Header.Get("Content-Type")
	if format == "" {
		format = "audio/wav"
	}
	return raw, format, nil
}

func (c *Client) post(ctx context.Context, path string, payload any) ([]byte, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, domain.NewFailure(domain.FailureInvalidRequest, ProviderName, "marshal request: %v", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return nil, domain.NewFailure(domain.FailureInvalidRequest, ProviderName, "build request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, providers.TransportFailure(ProviderName, err)
	}
	defer resp.Body.Close()
	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, providers.TransportFailure(ProviderName, err)
	}
	if resp.StatusCode >= http.StatusBadRequest {
		return nil, providers.FailureFromStatus(ProviderName, resp.StatusCode, string(raw))
	}
	return raw, nil
}

func dimensionsForAspect(aspect string) (int, int) {
	switch strings.TrimSpace(aspect) {
	case "9:16":
		return 576, 1024
	case "1:1":
		return 768, 768
	default:
		return 1024, 576
	}
}

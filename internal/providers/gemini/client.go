package gemini

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"reelforge/server/internal/domain"
	"reelforge/server/internal/infra"
	"reelforge/server/internal/providers"
)

const ProviderName = "gemini"

// Options controls how the Gemini client is configured.
type Options struct {
	APIKey     string
	BaseURL    string
	Model      string
	HTTPClient *http.Client
	Logger     *infra.Logger
}

// Client is a facade over the Gemini generateContent API used by both the
// text and image adapters.
type Client struct {
	apiKey     string
	baseURL    string
	model      string
	httpClient *http.Client
	logger     *infra.Logger
}

type geminiContent struct {
	Role  string       `json:"role,omitempty"`
	Parts []geminiPart `json:"parts,omitempty"`
}

type geminiPart struct {
	Text       string            `json:"text,omitempty"`
	InlineData *geminiInlineData `json:"inlineData,omitempty"`
}

type geminiInlineData struct {
	MimeType string `json:"mimeType,omitempty"`
	Data     string `json:"data,omitempty"`
}

type geminiGenerationConfig struct {
	Temperature      float64  `json:"temperature,omitempty"`
	CandidateCount   int      `json:"candidateCount,omitempty"`
	ResponseMimeType string   `json:"responseMimeType,omitempty"`
	ResponseModality []string `json:"responseModalities,omitempty"`
}

type generateContentRequest struct {
	Contents         []geminiContent         `json:"contents"`
	GenerationConfig *geminiGenerationConfig `json:"generationConfig,omitempty"`
}

type generateContentResponse struct {
	Candidates []struct {
		Content      geminiContent `json:"content"`
		FinishReason string        `json:"finishReason,omitempty"`
	} `json:"candidates"`
}

type geminiErrorResponse struct {
	Error struct {
		Code    int    `json:"code,omitempty"`
		Message string `json:"message,omitempty"`
	} `json:"error"`
}

// NewClient constructs a Gemini client with sane defaults. Callers may provide
// a nil HTTP client; a reusable one with sensible timeouts will be created.
func NewClient(opts Options) *Client {
	client := opts.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: 60 * time.Second}
	}
	baseURL := strings.TrimRight(opts.BaseURL, "/")
	if baseURL == "" {
		baseURL = "https://generativelanguage.googleapis.com/v1beta"
	}
	model := strings.TrimSpace(opts.Model)
	if model == "" {
		model = "gemini-2.0-flash"
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
		apiKey:     strings.TrimSpace(opts.APIKey),
		baseURL:    baseURL,
		model:      model,
		httpClient: client,
		logger:     logger,
	}
}

// Model returns the configured Gemini model identifier.
func (c *Client) Model() string {
	return c.model
}

// HasCredentials reports whether the client can perform remote calls.
func (c *Client) HasCredentials() bool {
	return c.apiKey != ""
}

// CompleteText runs one text completion and returns the first candidate text.
func (c *Client) CompleteText(ctx context.Context, prompt string) (string, error) {
	if !c.HasCredentials() {
		return "", providers.MissingCredential(ProviderName)
	}
	payload := generateContentRequest{
		Contents: []geminiContent{{
			Role:  "user",
			Parts: []geminiPart{{Text: prompt}},
		}},
		GenerationConfig: &geminiGenerationConfig{
			Temperature:    0.5,
			CandidateCount: 1,
		},
	}
	var response generateContentResponse
	if err := c.invoke(ctx, payload, &response); err != nil {
		return "", err
	}
	for _, cand := range response.Candidates {
		for _, part := range cand.Content.Parts {
			if strings.TrimSpace(part.Text) != "" {
				return part.Text, nil
			}
		}
	}
	return "", providers.ShapeFailure(ProviderName, "response contained no text candidates")
}

// GenerateImage runs one image generation and returns the decoded bytes of
// the first inline image part.
func (c *Client) GenerateImage(ctx context.Context, prompt, aspectRatio, requestID string) ([]byte, string, error) {
	if !c.HasCredentials() {
		return nil, "", providers.MissingCredential(ProviderName)
	}
	payload := generateContentRequest{
		Contents: []geminiContent{{
			Role:  "user",
			Parts: []geminiPart{{Text: buildImagePrompt(prompt, aspectRatio)}},
		}},
		GenerationConfig: &geminiGenerationConfig{
			CandidateCount:   1,
			ResponseModality: []string{"IMAGE"},
		},
	}
	var response generateContentResponse
	if err := c.invoke(ctx, payload, &response); err != nil {
		return nil, "", err
	}
	for _, cand := range response.Candidates {
		for _, part := range cand.Content.Parts {
			if part.InlineData == nil || part.InlineData.Data == "" {
				continue
			}
			data, err := base64.StdEncoding.DecodeString(part.InlineData.Data)
			if err != nil {
				return nil, "", providers.ShapeFailure(ProviderName, "inline data is not base64")
			}
			mime := part.InlineData.MimeType
			if mime == "" {
				mime = "image/png"
			}
			c.logger.Debug().
				Str("request_id", requestID).
				Str("model", c.model).
				Int("bytes", len(data)).
				Msg("gemini: generated image")
			return data, mime, nil
		}
	}
	return nil, "", providers.ShapeFailure(ProviderName, "response contained no inline image")
}

func (c *Client) invoke(ctx context.Context, payload any, out any) error {
	endpoint := fmt.Sprintf("%s/models/%s:generateContent", c.baseURL, url.PathEscape(c.model))
	body, err := json.Marshal(payload)
	if err != nil {
		return domain.NewFailure(domain.FailureInvalidRequest, ProviderName, "marshal request: %v", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return domain.NewFailure(domain.FailureInvalidRequest, ProviderName, "build request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-goog-api-key", c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return providers.TransportFailure(ProviderName, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		raw, _ := io.ReadAll(resp.Body)
		var apiErr geminiErrorResponse
		if err := json.Unmarshal(raw, &apiErr); err == nil && apiErr.Error.Message != "" {
			return providers.FailureFromStatus(ProviderName, resp.StatusCode, apiErr.Error.Message)
		}
		return providers.FailureFromStatus(ProviderName, resp.StatusCode, string(raw))
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return providers.ShapeFailure(ProviderName, fmt.Sprintf("decode response: %v", err))
	}
	return nil
}

func buildImagePrompt(prompt, aspectRatio string) string {
	var b strings.Builder
	b.WriteString(strings.TrimSpace(prompt))
	if aspect := strings.TrimSpace(aspectRatio); aspect != "" {
		if b.Len() > 0 {
			b.WriteString("\n")
		}
		b.WriteString("Aspect ratio: ")
		b.WriteString(aspect)
	}
	if b.Len() == 0 {
		b.WriteString("Create a cinematic still frame")
	}
	return b.String()
}

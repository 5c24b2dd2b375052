package pollinations

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"reelforge/server/internal/providers"
)

const ProviderName = "pollinations"

// Client talks to a Pollinations-compatible keyless endpoint. The base URL
// doubles as the capability switch: an empty URL means the free tier image
// and text providers are not configured.
type Client struct {
	imageBaseURL string
	textBaseURL  string
	httpClient   *http.Client
}

// Options configures the free-tier Pollinations client.
type Options struct {
	BaseURL    string
	HTTPClient *http.Client
}

func NewClient(opts Options) *Client {
	httpClient := opts.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 90 * time.Second}
	}
	base := strings.TrimRight(strings.TrimSpace(opts.BaseURL), "/")
	return &Client{
		imageBaseURL: base,
		textBaseURL:  base,
		httpClient:   httpClient,
	}
}

// Configured reports whether the free endpoint is enabled.
func (c *Client) Configured() bool {
	return c.imageBaseURL != ""
}

// GenerateImage fetches one image for the prompt.
func (c *Client) GenerateImage(ctx context.Context, prompt string, width, height int) ([]byte, string, error) {
	if !c.Configured() {
		return nil, "", providers.MissingCredential(ProviderName)
	}
	endpoint := fmt.Sprintf("%s/prompt/%s?width=%d&height=%d&nologo=true",
		c.imageBaseURL, url.PathEscape(strings.TrimSpace(prompt)), width, height)
	data, contentType, err := c.get(ctx, endpoint)
	if err != nil {
		return nil, "", err
	}
	if len(data) == 0 {
		return nil, "", providers.ShapeFailure(ProviderName, "image response is empty")
	}
	if contentType == "" || strings.HasPrefix(contentType, "text/") {
		return nil, "", providers.ShapeFailure(ProviderName, "image response is not binary")
	}
	return data, contentType, nil
}

// CompleteText fetches one text completion for the prompt.
func (c *Client) CompleteText(ctx context.Context, prompt string) (string, error) {
	if !c.Configured() {
		return "", providers.MissingCredential(ProviderName)
	}
	endpoint := c.textBaseURL + "/text/" + url.PathEscape(strings.TrimSpace(prompt))
	data, _, err := c.get(ctx, endpoint)
	if err != nil {
		return "", err
	}
	text := strings.TrimSpace(string(data))
	if text == "" {
		return "", providers.ShapeFailure(ProviderName, "text response is empty")
	}
	return text, nil
}

func (c *Client) get(ctx context.Context, endpoint string) ([]byte, string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, "", providers.TransportFailure(ProviderName, err)
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, "", providers.TransportFailure(ProviderName, err)
	}
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, "", providers.TransportFailure(ProviderName, err)
	}
	if resp.StatusCode >= http.StatusBadRequest {
		return nil, "", providers.FailureFromStatus(ProviderName, resp.StatusCode, string(data))
	}
	return data, resp.Header.Get("Content-Type"), nil
}

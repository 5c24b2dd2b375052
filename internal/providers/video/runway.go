package video

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"math"
	"net/http"
	"strings"
	"time"

	"reelforge/server/internal/domain"
	"reelforge/server/internal/providers"
)

const RunwayProviderName = "runway"

// Poll budget: one create call followed by at most maxPollAttempts status
// checks with at least minPollInterval between them, roughly two minutes.
const (
	maxPollAttempts = 60
	minPollInterval = 2 * time.Second
)

// RunwayOptions configures the Runway video generator.
type RunwayOptions struct {
	APIKey       string
	BaseURL      string
	Model        string
	HTTPClient   *http.Client
	PollInterval time.Duration
}

// RunwayGenerator drives the asynchronous Runway task API: one create call,
// then a bounded poll loop until the task reaches a terminal state.
type RunwayGenerator struct {
	apiKey       string
	baseURL      string
	model        string
	httpClient   *http.Client
	pollInterval time.Duration
}

func NewRunwayGenerator(opts RunwayOptions) *RunwayGenerator {
	httpClient := opts.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 60 * time.Second}
	}
	baseURL := strings.TrimRight(opts.BaseURL, "/")
	if baseURL == "" {
		baseURL = "https://api.dev.runwayml.com/v1"
	}
	model := strings.TrimSpace(opts.Model)
	if model == "" {
		model = "gen3a_turbo"
	}
	interval := opts.PollInterval
	if interval <= 0 {
		interval = minPollInterval
	}
	return &RunwayGenerator{
		apiKey:       strings.TrimSpace(opts.APIKey),
		baseURL:      baseURL,
		model:        model,
		httpClient:   httpClient,
		pollInterval: interval,
	}
}

// HasCredentials reports whether the generator can perform remote calls.
func (r *RunwayGenerator) HasCredentials() bool {
	return r.apiKey != ""
}

type runwayCreateRequest struct {
	Model      string `json:"model"`
	PromptText string `json:"promptText"`
	Duration   int    `json:"duration,omitempty"`
	Ratio      string `json:"ratio,omitempty"`
}

type runwayTaskResponse struct {
	ID      string   `json:"id"`
	Status  string   `json:"status"`
	Output  []string `json:"output"`
	Failure string   `json:"failure"`
}

func (r *RunwayGenerator) Generate(ctx context.Context, req GenerateRequest) (*Asset, error) {
	if !r.HasCredentials() {
		return nil, providers.MissingCredential(RunwayProviderName)
	}
	prompt := strings.TrimSpace(req.Prompt)
	if prompt == "" {
		return nil, domain.NewFailure(domain.FailureInvalidRequest, RunwayProviderName, "prompt is required")
	}

	task, err := r.createTask(ctx, req)
	if err != nil {
		return nil, err
	}

	for attempt := 0; attempt < maxPollAttempts; attempt++ {
		select {
		case <-time.After(r.pollInterval):
		case <-ctx.Done():
			return nil, domain.NewFailure(domain.FailureCancelled, RunwayProviderName, "cancelled while polling task %s", task.ID)
		}

		status, err := r.pollTask(ctx, task.ID)
		if err != nil {
			return nil, err
		}
		switch strings.ToUpper(status.Status) {
		case "SUCCEEDED":
			if len(status.Output) == 0 || strings.TrimSpace(status.Output[0]) == "" {
				return nil, providers.ShapeFailure(RunwayProviderName, "succeeded task has no output url")
			}
			return r.download(ctx, status.Output[0], req)
		case "FAILED":
			msg := status.Failure
			if msg == "" {
				msg = "task failed without detail"
			}
			return nil, domain.NewFailure(domain.FailureProvider, RunwayProviderName, "%s", msg)
		case "PENDING", "RUNNING", "THROTTLED":
			// keep polling
		default:
			return nil, providers.ShapeFailure(RunwayProviderName, "unknown task status "+status.Status)
		}
	}
	return nil, domain.NewFailure(domain.FailureTimeout, RunwayProviderName, "task %s did not finish within %d polls", task.ID, maxPollAttempts)
}

func (r *RunwayGenerator) createTask(ctx context.Context, req GenerateRequest) (*runwayTaskResponse, error) {
	duration := int(math.Round(req.DurationSeconds))
	if duration <= 0 {
		duration = 10
	}
	payload := runwayCreateRequest{
		Model:      r.model,
		PromptText: req.Prompt,
		Duration:   duration,
		Ratio:      ratioForAspect(req.AspectRatio),
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, domain.NewFailure(domain.FailureInvalidRequest, RunwayProviderName, "marshal request: %v", err)
	}
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, r.baseURL+"/text_to_video", bytes.NewReader(body))
	if err != nil {
		return nil, domain.NewFailure(domain.FailureInvalidRequest, RunwayProviderName, "build request: %v", err)
	}
	r.authorize(httpReq)
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := r.httpClient.Do(httpReq)
	if err != nil {
		return nil, providers.TransportFailure(RunwayProviderName, err)
	}
	defer resp.Body.Close()
	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, providers.TransportFailure(RunwayProviderName, err)
	}
	if resp.StatusCode >= http.StatusBadRequest {
		return nil, providers.FailureFromStatus(RunwayProviderName, resp.StatusCode, string(raw))
	}
	var task runwayTaskResponse
	if err := json.Unmarshal(raw, &task); err != nil {
		return nil, providers.ShapeFailure(RunwayProviderName, "decode create response: "+err.Error())
	}
	if task.ID == "" {
		return nil, providers.ShapeFailure(RunwayProviderName, "create response missing task id")
	}
	return &task, nil
}

func (r *RunwayGenerator) pollTask(ctx context.Context, taskID string) (*runwayTaskResponse, error) {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, r.baseURL+"/tasks/"+taskID, nil)
	if err != nil {
		return nil, providers.TransportFailure(RunwayProviderName, err)
	}
	r.authorize(httpReq)

	resp, err := r.httpClient.Do(httpReq)
	if err != nil {
		return nil, providers.TransportFailure(RunwayProviderName, err)
	}
	defer resp.Body.Close()
	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, providers.TransportFailure(RunwayProviderName, err)
	}
	if resp.StatusCode >= http.StatusBadRequest {
		return nil, providers.FailureFromStatus(RunwayProviderName, resp.StatusCode, string(raw))
	}
	var task runwayTaskResponse
	if err := json.Unmarshal(raw, &task); err != nil {
		return nil, providers.ShapeFailure(RunwayProviderName, "decode task response: "+err.Error())
	}
	return &task, nil
}

func (r *RunwayGenerator) download(ctx context.Context, outputURL string, req GenerateRequest) (*Asset, error) {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, outputURL, nil)
	if err != nil {
		return nil, providers.TransportFailure(RunwayProviderName, err)
	}
	resp, err := r.httpClient.Do(httpReq)
	if err != nil {
		return nil, providers.TransportFailure(RunwayProviderName, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode >= http.StatusBadRequest {
		raw, _ := io.ReadAll(resp.Body)
		return nil, providers.FailureFromStatus(RunwayProviderName, resp.StatusCode, string(raw))
	}
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, providers.TransportFailure(RunwayProviderName, err)
	}
	format := resp.Header.Get("Content-Type")
	if format == "" {
		format = "video/mp4"
	}
	return &Asset{
		URL:    outputURL,
		Format: format,
		Length: int(math.Round(req.DurationSeconds)),
		Data:   data,
	}, nil
}

func (r *RunwayGenerator) authorize(req *http.Request) {
	req.Header.Set("Authorization", "Bearer "+r.apiKey)
	req.Header.Set("X-Runway-Version", "2024-11-06")
}

func ratioForAspect(aspect string) string {
	switch strings.TrimSpace(aspect) {
	case "9:16":
		return "768:1280"
	case "1:1":
		return "960:960"
	default:
		return "1280:768"
	}
}

var _ Generator = (*RunwayGenerator)(nil)

package gemini

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"
	"testing"

	"reelforge/server/internal/domain"
)

type captureTransport struct {
	responses map[string]responseStub
	lastBody  []byte
	lastReq   *http.Request
}

type responseStub struct {
	status int
	header http.Header
	body   []byte
}

func (c *captureTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	c.lastReq = req
	if req.Body != nil {
		body, err := io.ReadAll(req.Body)
		if err != nil {
			return nil, err
		}
		req.Body.Close()
		c.lastBody = body
	}
	if stub, ok := c.responses[req.URL.Path]; ok {
		return stub.toResponse(), nil
	}
	return &http.Response{
		StatusCode: http.StatusNotFound,
		Body:       io.NopCloser(strings.NewReader("not found")),
	}, nil
}

func (c *captureTransport) setJSONResponse(path string, payload any) {
	body, _ := json.Marshal(payload)
	c.responses[path] = responseStub{
		status: http.StatusOK,
		header: http.Header{"Content-Type": []string{"application/json"}},
		body:   body,
	}
}

func (c *captureTransport) setStatusResponse(path string, status int, body string) {
	c.responses[path] = responseStub{
		status: status,
		header: http.Header{"Content-Type": []string{"application/json"}},
		body:   []byte(body),
	}
}

func (s responseStub) toResponse() *http.Response {
	header := http.Header{}
	for k, values := range s.header {
		cloned := make([]string, len(values))
		copy(cloned, values)
		header[k] = cloned
	}
	return &http.Response{
		StatusCode: s.status,
		Header:     header,
		Body:       io.NopCloser(bytes.NewReader(s.body)),
	}
}

func newTestClient(transport *captureTransport) *Client {
	return NewClient(Options{
		APIKey:     "test-key",
		BaseURL:    "https://gemini.test",
		Model:      "gemini-2.0-flash",
		HTTPClient: &http.Client{Transport: transport},
	})
}

const generatePath = "/models/gemini-2.0-flash:generateContent"

func TestCompleteTextReturnsFirstCandidate(t *testing.T) {
	transport := &captureTransport{responses: map[string]responseStub{}}
	transport.setJSONResponse(generatePath, map[string]any{
		"candidates": []any{
			map[string]any{"content": map[string]any{"parts": []any{
				map[string]any{"text": "planned scenes"},
			}}},
		},
	})
	client := newTestClient(transport)

	got, err := client.CompleteText(context.Background(), "plan a video")
	if err != nil {
		t.Fatalf("CompleteText: %v", err)
	}
	if got != "planned scenes" {
		t.Fatalf("text = %q, want %q", got, "planned scenes")
	}
	if key := transport.lastReq.Header.Get("x-goog-api-key"); key != "test-key" {
		t.Fatalf("api key header = %q", key)
	}
	if !bytes.Contains(transport.lastBody, []byte("plan a video")) {
		t.Fatalf("payload does not carry the prompt: %s", transport.lastBody)
	}
}

func TestCompleteTextWithoutCredential(t *testing.T) {
	client := NewClient(Options{HTTPClient: &http.Client{Transport: &captureTransport{responses: map[string]responseStub{}}}})
	_, err := client.CompleteText(context.Background(), "x")
	if domain.KindOf(err) != domain.FailureAuth {
		t.Fatalf("kind = %s, want %s", domain.KindOf(err), domain.FailureAuth)
	}
}

func TestCompleteTextClassifiesRateLimit(t *testing.T) {
	transport := &captureTransport{responses: map[string]responseStub{}}
	transport.setStatusResponse(generatePath, http.StatusTooManyRequests, `{"error":{"code":429,"message":"quota exhausted"}}`)
	client := newTestClient(transport)

	_, err := client.CompleteText(context.Background(), "x")
	var failure *domain.Failure
	if !errors.As(err, &failure) {
		t.Fatalf("error = %v, want *domain.Failure", err)
	}
	if failure.Kind != domain.FailureRateLimited {
		t.Fatalf("kind = %s, want %s", failure.Kind, domain.FailureRateLimited)
	}
	if !strings.Contains(failure.Message, "quota exhausted") {
		t.Fatalf("message = %q, want provider message", failure.Message)
	}
}

func TestCompleteTextEmptyCandidates(t *testing.T) {
	transport := &captureTransport{responses: map[string]responseStub{}}
	transport.setJSONResponse(generatePath, map[string]any{"candidates": []any{}})
	client := newTestClient(transport)

	_, err := client.CompleteText(context.Background(), "x")
	if domain.KindOf(err) != domain.FailureUnexpectedShape {
		t.Fatalf("kind = %s, want %s", domain.KindOf(err), domain.FailureUnexpectedShape)
	}
}

func TestGenerateImageDecodesInlineData(t *testing.T) {
	pixels := []byte{0x89, 'P', 'N', 'G', 0x0d, 0x0a}
	transport := &captureTransport{responses: map[string]responseStub{}}
	transport.setJSONResponse(generatePath, map[string]any{
		"candidates": []any{
			map[string]any{"content": map[string]any{"parts": []any{
				map[string]any{"inlineData": map[string]any{
					"mimeType": "image/png",
					"data":     base64.StdEncoding.EncodeToString(pixels),
				}},
			}}},
		},
	})
	client := newTestClient(transport)

	data, mime, err := client.GenerateImage(context.Background(), "a skyline", "16:9", "req-1")
	if err != nil {
		t.Fatalf("GenerateImage: %v", err)
	}
	if !bytes.Equal(data, pixels) {
		t.Fatalf("data = %v, want %v", data, pixels)
	}
	if mime != "image/png" {
		t.Fatalf("mime = %q, want image/png", mime)
	}
	if !bytes.Contains(transport.lastBody, []byte("IMAGE")) {
		t.Fatalf("payload missing image modality: %s", transport.lastBody)
	}
}

func TestGenerateImageRejectsBadBase64(t *testing.T) {
	transport := &captureTransport{responses: map[string]responseStub{}}
	transport.setJSONResponse(generatePath, map[string]any{
		"candidates": []any{
			map[string]any{"content": map[string]any{"parts": []any{
				map[string]any{"inlineData": map[string]any{"mimeType": "image/png", "data": "!!notbase64!!"}},
			}}},
		},
	})
	client := newTestClient(transport)

	_, _, err := client.GenerateImage(context.Background(), "x", "1:1", "req-2")
	if domain.KindOf(err) != domain.FailureUnexpectedShape {
		t.Fatalf("kind = %s, want %s", domain.KindOf(err), domain.FailureUnexpectedShape)
	}
}

package selfhosted

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"io"
	"net/http"
	"testing"

	"reelforge/server/internal/domain"
)

type captureTransport struct {
	status      int
	contentType string
	body        []byte

	lastReq  *http.Request
	lastBody []byte
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
	header := http.Header{}
	if c.contentType != "" {
		header.Set("Content-Type", c.contentType)
	}
	status := c.status
	if status == 0 {
		status = http.StatusOK
	}
	return &http.Response{
		StatusCode: status,
		Header:     header,
		Body:       io.NopCloser(bytes.NewReader(c.body)),
	}, nil
}

func newTestClient(transport *captureTransport) *Client {
	return NewClient(Options{
		BaseURL:    "http://inference.local:7860",
		HTTPClient: &http.Client{Transport: transport},
	})
}

func TestCompleteText(t *testing.T) {
	transport := &captureTransport{
		contentType: "application/json",
		body:        []byte(`{"response":"Scene one opens on a rooftop."}`),
	}
	client := newTestClient(transport)

	text, err := client.CompleteText(context.Background(), "write an opening scene")
	if err != nil {
		t.Fatalf("CompleteText: %v", err)
	}
	if text != "Scene one opens on a rooftop." {
		t.Fatalf("text = %q", text)
	}
	if transport.lastReq.URL.Path != "/api/generate" {
		t.Fatalf("path = %q", transport.lastReq.URL.Path)
	}

	var payload map[string]any
	if err := json.Unmarshal(transport.lastBody, &payload); err != nil {
		t.Fatalf("decode payload: %v", err)
	}
	if payload["model"] != "llama3" {
		t.Fatalf("model = %v", payload["model"])
	}
	if payload["stream"] != false {
		t.Fatalf("stream = %v, want false", payload["stream"])
	}
}

func TestCompleteTextEmptyResponse(t *testing.T) {
	transport := &captureTransport{contentType: "application/json", body: []byte(`{"response":"  "}`)}
	client := newTestClient(transport)

	_, err := client.CompleteText(context.Background(), "x")
	if domain.KindOf(err) != domain.FailureUnexpectedShape {
		t.Fatalf("kind = %s, want %s", domain.KindOf(err), domain.FailureUnexpectedShape)
	}
}

func TestGenerateImageDecodesBase64(t *testing.T) {
	png := []byte{0x89, 'P', 'N', 'G', '\r', '\n'}
	responseBody, _ := json.Marshal(map[string]any{
		"images": []string{base64.StdEncoding.EncodeToString(png)},
	})
	transport := &captureTransport{contentType: "application/json", body: responseBody}
	client := newTestClient(transport)

	data, format, err := client.GenerateImage(context.Background(), "a harbor at dusk", "9:16")
	if err != nil {
		t.Fatalf("GenerateImage: %v", err)
	}
	if !bytes.Equal(data, png) {
		t.Fatalf("data = %v", data)
	}
	if format != "image/png" {
		t.Fatalf("format = %q", format)
	}
	if transport.lastReq.URL.Path != "/sdapi/v1/txt2img" {
		t.Fatalf("path = %q", transport.lastReq.URL.Path)
	}

	var payload map[string]any
	if err := json.Unmarshal(transport.lastBody, &payload); err != nil {
		t.Fatalf("decode payload: %v", err)
	}
	if payload["width"] != float64(576) || payload["height"] != float64(1024) {
		t.Fatalf("dimensions = %vx%v, want 576x1024", payload["width"], payload["height"])
	}
}

func TestGenerateImageBadBase64(t *testing.T) {
	transport := &captureTransport{contentType: "application/json", body: []byte(`{"images":["not-base64!!"]}`)}
	client := newTestClient(transport)

	_, _, err := client.GenerateImage(context.Background(), "x", "16:9")
	if domain.KindOf(err) != domain.FailureUnexpectedShape {
		t.Fatalf("kind = %s, want %s", domain.KindOf(err), domain.FailureUnexpectedShape)
	}
}

func TestSynthesize(t *testing.T) {
	audio := []byte("wav-bytes")
	transport := &captureTransport{contentType: "audio/wav", body: audio}
	client := newTestClient(transport)

	data, format, err := client.Synthesize(context.Background(), "hello", "alto-2")
	if err != nil {
		t.Fatalf("Synthesize: %v", err)
	}
	if !bytes.Equal(data, audio) {
		t.Fatalf("data = %q", data)
	}
	if format != "audio/wav" {
		t.Fatalf("format = %q", format)
	}
	if transport.lastReq.URL.Path != "/api/tts" {
		t.Fatalf("path = %q", transport.lastReq.URL.Path)
	}

	var payload map[string]any
	if err := json.Unmarshal(transport.lastBody, &payload); err != nil {
		t.Fatalf("decode payload: %v", err)
	}
	if payload["voice"] != "alto-2" {
		t.Fatalf("voice = %v", payload["voice"])
	}
}

func TestUnconfiguredClient(t *testing.T) {
	client := NewClient(Options{})
	if client.Configured() {
		t.Fatal("Configured() = true for empty base URL")
	}
	_, err := client.CompleteText(context.Background(), "x")
	if domain.KindOf(err) != domain.FailureAuth {
		t.Fatalf("kind = %s, want %s", domain.KindOf(err), domain.FailureAuth)
	}
}

func TestServerErrorMapsToProviderFailure(t *testing.T) {
	transport := &captureTransport{status: http.StatusInternalServerError, body: []byte("cuda out of memory")}
	client := newTestClient(transport)

	_, _, err := client.GenerateImage(context.Background(), "x", "16:9")
	if domain.KindOf(err) != domain.FailureProvider {
		t.Fatalf("kind = %s, want %s", domain.KindOf(err), domain.FailureProvider)
	}
}

package pollinations

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"testing"

	"reelforge/server/internal/domain"
)

type captureTransport struct {
	status      int
	contentType string
	body        []byte

	lastReq *http.Request
}

func (c *captureTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	c.lastReq = req
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
		BaseURL:    "https://pollinations.test",
		HTTPClient: &http.Client{Transport: transport},
	})
}

func TestGenerateImage(t *testing.T) {
	png := []byte{0x89, 'P', 'N', 'G'}
	transport := &captureTransport{contentType: "image/png", body: png}
	client := newTestClient(transport)

	data, contentType, err := client.GenerateImage(context.Background(), "sunrise over a harbor", 1280, 720)
	if err != nil {
		t.Fatalf("GenerateImage: %v", err)
	}
	if !bytes.Equal(data, png) {
		t.Fatalf("data = %v", data)
	}
	if contentType != "image/png" {
		t.Fatalf("contentType = %q", contentType)
	}

	req := transport.lastReq
	if req.URL.Path != "/prompt/sunrise over a harbor" {
		t.Fatalf("path = %q", req.URL.Path)
	}
	query := req.URL.Query()
	if query.Get("width") != "1280" || query.Get("height") != "720" {
		t.Fatalf("dimensions = %sx%s", query.Get("width"), query.Get("height"))
	}
	if query.Get("nologo") != "true" {
		t.Fatalf("nologo = %q", query.Get("nologo"))
	}
}

func TestGenerateImageRejectsTextBody(t *testing.T) {
	transport := &captureTransport{contentType: "text/html", body: []byte("<html>rate limited page</html>")}
	client := newTestClient(transport)

	_, _, err := client.GenerateImage(context.Background(), "x", 512, 512)
	if domain.KindOf(err) != domain.FailureUnexpectedShape {
		t.Fatalf("kind = %s, want %s", domain.KindOf(err), domain.FailureUnexpectedShape)
	}
}

func TestGenerateImageUnconfigured(t *testing.T) {
	client := NewClient(Options{})
	_, _, err := client.GenerateImage(context.Background(), "x", 512, 512)
	if domain.KindOf(err) != domain.FailureAuth {
		t.Fatalf("kind = %s, want %s", domain.KindOf(err), domain.FailureAuth)
	}
}

func TestCompleteText(t *testing.T) {
	transport := &captureTransport{contentType: "text/plain", body: []byte("  a short script\n")}
	client := newTestClient(transport)

	text, err := client.CompleteText(context.Background(), "write a script")
	if err != nil {
		t.Fatalf("CompleteText: %v", err)
	}
	if text != "a short script" {
		t.Fatalf("text = %q", text)
	}
	if transport.lastReq.URL.Path != "/text/write a script" {
		t.Fatalf("path = %q", transport.lastReq.URL.Path)
	}
}

func TestCompleteTextEmptyResponse(t *testing.T) {
	transport := &captureTransport{contentType: "text/plain", body: []byte("   ")}
	client := newTestClient(transport)

	_, err := client.CompleteText(context.Background(), "x")
	if domain.KindOf(err) != domain.FailureUnexpectedShape {
		t.Fatalf("kind = %s, want %s", domain.KindOf(err), domain.FailureUnexpectedShape)
	}
}

func TestRateLimitedStatus(t *testing.T) {
	transport := &captureTransport{status: http.StatusTooManyRequests, body: []byte("slow down")}
	client := newTestClient(transport)

	_, err := client.CompleteText(context.Background(), "x")
	if domain.KindOf(err) != domain.FailureRateLimited {
		t.Fatalf("kind = %s, want %s", domain.KindOf(err), domain.FailureRateLimited)
	}
}

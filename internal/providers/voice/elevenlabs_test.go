package voice

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"
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

func TestElevenLabsSynthesizeSendsKeyAndModel(t *testing.T) {
	audio := []byte("mp3-bytes")
	transport := &captureTransport{contentType: "audio/mpeg", body: audio}
	synth := NewElevenLabsSynthesizer(ElevenLabsOptions{
		APIKey:     "el-key",
		HTTPClient: &http.Client{Transport: transport},
	})

	asset, err := synth.Synthesize(context.Background(), SynthesizeRequest{
		Text:    "Welcome to the channel.",
		VoiceID: "voice-7",
	})
	if err != nil {
		t.Fatalf("Synthesize: %v", err)
	}
	if !bytes.Equal(asset.Data, audio) {
		t.Fatalf("data = %q", asset.Data)
	}
	if asset.Format != "audio/mpeg" {
		t.Fatalf("format = %q", asset.Format)
	}
	if got := transport.lastReq.Header.Get("xi-api-key"); got != "el-key" {
		t.Fatalf("xi-api-key = %q", got)
	}
	if !strings.HasSuffix(transport.lastReq.URL.Path, "/text-to-speech/voice-7") {
		t.Fatalf("path = %q", transport.lastReq.URL.Path)
	}

	var payload map[string]any
	if err := json.Unmarshal(transport.lastBody, &payload); err != nil {
		t.Fatalf("decode payload: %v", err)
	}
	if payload["model_id"] != "eleven_multilingual_v2" {
		t.Fatalf("model_id = %v", payload["model_id"])
	}
	if payload["text"] != "Welcome to the channel." {
		t.Fatalf("text = %v", payload["text"])
	}
}

func TestElevenLabsSynthesizeDefaultVoice(t *testing.T) {
	transport := &captureTransport{contentType: "audio/mpeg", body: []byte("x")}
	synth := NewElevenLabsSynthesizer(ElevenLabsOptions{
		APIKey:         "el-key",
		DefaultVoiceID: "narrator-1",
		HTTPClient:     &http.Client{Transport: transport},
	})

	if _, err := synth.Synthesize(context.Background(), SynthesizeRequest{Text: "hi"}); err != nil {
		t.Fatalf("Synthesize: %v", err)
	}
	if !strings.HasSuffix(transport.lastReq.URL.Path, "/text-to-speech/narrator-1") {
		t.Fatalf("path = %q", transport.lastReq.URL.Path)
	}
}

func TestElevenLabsSynthesizeWithoutCredential(t *testing.T) {
	synth := NewElevenLabsSynthesizer(ElevenLabsOptions{})
	_, err := synth.Synthesize(context.Background(), SynthesizeRequest{Text: "hi"})
	if domain.KindOf(err) != domain.FailureAuth {
		t.Fatalf("kind = %s, want %s", domain.KindOf(err), domain.FailureAuth)
	}
}

func TestElevenLabsSynthesizeUnauthorized(t *testing.T) {
	transport := &captureTransport{status: http.StatusUnauthorized, body: []byte(`{"detail":"invalid key"}`)}
	synth := NewElevenLabsSynthesizer(ElevenLabsOptions{
		APIKey:     "stale",
		HTTPClient: &http.Client{Transport: transport},
	})

	_, err := synth.Synthesize(context.Background(), SynthesizeRequest{Text: "hi"})
	if domain.KindOf(err) != domain.FailureAuth {
		t.Fatalf("kind = %s, want %s", domain.KindOf(err), domain.FailureAuth)
	}
	if !strings.Contains(err.Error(), "invalid key") {
		t.Fatalf("error = %q", err)
	}
}

func TestElevenLabsSynthesizeEmptyAudio(t *testing.T) {
	transport := &captureTransport{contentType: "audio/mpeg"}
	synth := NewElevenLabsSynthesizer(ElevenLabsOptions{
		APIKey:     "el-key",
		HTTPClient: &http.Client{Transport: transport},
	})

	_, err := synth.Synthesize(context.Background(), SynthesizeRequest{Text: "hi"})
	if domain.KindOf(err) != domain.FailureUnexpectedShape {
		t.Fatalf("kind = %s, want %s", domain.KindOf(err), domain.FailureUnexpectedShape)
	}
}

package voice

import (
	"bytes"
	"context"
	"net/http"
	"testing"

	"reelforge/server/internal/domain"
)

func TestGTTSSynthesizeBuildsTranslateQuery(t *testing.T) {
	audio := []byte("gtts-audio")
	transport := &captureTransport{contentType: "audio/mpeg", body: audio}
	synth := NewGTTSSynthesizer("https://tts.test", &http.Client{Transport: transport})

	asset, err := synth.Synthesize(context.Background(), SynthesizeRequest{
		Text:   "good morning everyone",
		Locale: "de",
	})
	if err != nil {
		t.Fatalf("Synthesize: %v", err)
	}
	if !bytes.Equal(asset.Data, audio) {
		t.Fatalf("data = %q", asset.Data)
	}

	req := transport.lastReq
	if req.URL.Path != "/translate_tts" {
		t.Fatalf("path = %q", req.URL.Path)
	}
	query := req.URL.Query()
	if got := query.Get("tl"); got != "de" {
		t.Fatalf("tl = %q", got)
	}
	if got := query.Get("q"); got != "good morning everyone" {
		t.Fatalf("q = %q", got)
	}
	if got := query.Get("client"); got != "tw-ob" {
		t.Fatalf("client = %q", got)
	}
}

func TestGTTSSynthesizeDefaultsLocale(t *testing.T) {
	transport := &captureTransport{contentType: "audio/mpeg", body: []byte("x")}
	synth := NewGTTSSynthesizer("https://tts.test", &http.Client{Transport: transport})

	if _, err := synth.Synthesize(context.Background(), SynthesizeRequest{Text: "hi"}); err != nil {
		t.Fatalf("Synthesize: %v", err)
	}
	if got := transport.lastReq.URL.Query().Get("tl"); got != "en" {
		t.Fatalf("tl = %q, want en", got)
	}
}

func TestGTTSSynthesizeUnconfigured(t *testing.T) {
	synth := NewGTTSSynthesizer("", nil)
	_, err := synth.Synthesize(context.Background(), SynthesizeRequest{Text: "hi"})
	if domain.KindOf(err) != domain.FailureAuth {
		t.Fatalf("kind = %s, want %s", domain.KindOf(err), domain.FailureAuth)
	}
}

func TestGTTSSynthesizeServerError(t *testing.T) {
	transport := &captureTransport{status: http.StatusServiceUnavailable, body: []byte("busy")}
	synth := NewGTTSSynthesizer("https://tts.test", &http.Client{Transport: transport})

	_, err := synth.Synthesize(context.Background(), SynthesizeRequest{Text: "hi"})
	if domain.KindOf(err) != domain.FailureProvider {
		t.Fatalf("kind = %s, want %s", domain.KindOf(err), domain.FailureProvider)
	}
}

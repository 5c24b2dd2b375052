package domain

import (
	"math"
	"strings"
	"time"
)

// RequestKind enumerates supported generation request categories.
type RequestKind string

const (
	KindVideo          RequestKind = "VIDEO"
	KindThumbnail      RequestKind = "THUMBNAIL"
	KindVoiceover      RequestKind = "VOICEOVER"
	KindComplete       RequestKind = "COMPLETE"
	KindNicheDiscovery RequestKind = "NICHE_DISCOVERY"
)

// GenerationStatus enumerates record lifecycle states. COMPLETED, FAILED and
// CANCELLED are terminal.
type GenerationStatus string

const (
	StatusQueued    GenerationStatus = "QUEUED"
	StatusRunning   GenerationStatus = "RUNNING"
	StatusCompleted GenerationStatus = "COMPLETED"
	StatusFailed    GenerationStatus = "FAILED"
	StatusCancelled GenerationStatus = "CANCELLED"
)

// IsTerminal reports whether no further status transition is allowed.
func (s GenerationStatus) IsTerminal() bool {
	return s == StatusCompleted || s == StatusFailed || s == StatusCancelled
}

const defaultDurationSeconds = 10

// GenerationRequest is the immutable input to the coordinator.
type GenerationRequest struct {
	RequesterID      string      `json:"requester_id,omitempty"`
	Prompt           string      `json:"prompt"`
	Kind             RequestKind `json:"kind"`
	DurationSeconds  float64     `json:"duration_seconds,omitempty"`
	AspectRatio      string      `json:"aspect_ratio,omitempty"`
	VoiceID          string      `json:"voice_id,omitempty"`
	Locale           string      `json:"locale,omitempty"`
	ExplicitProvider string      `json:"provider,omitempty"`
}

// Normalize applies defaults and validates the request. A non-positive
// explicit duration is rejected rather than silently clamped.
func (r *GenerationRequest) Normalize() error {
	r.Prompt = strings.TrimSpace(r.Prompt)
	if r.Prompt == "" {
		return NewFailure(FailureInvalidRequest, "", "prompt is required")
	}
	switch r.Kind {
	case KindVideo, KindThumbnail, KindVoiceover, KindComplete, KindNicheDiscovery:
	default:
		return NewFailure(FailureInvalidRequest, "", "unsupported kind %q", r.Kind)
	}
	if r.DurationSeconds < 0 {
		return NewFailure(FailureInvalidRequest, "", "duration must be positive")
	}
	if r.DurationSeconds == 0 && (r.Kind == KindVideo || r.Kind == KindComplete) {
		r.DurationSeconds = defaultDurationSeconds
	}
	if r.AspectRatio == "" {
		r.AspectRatio = "16:9"
	}
	return nil
}

// SceneCount returns the default number of scenes for the request duration.
func (r *GenerationRequest) SceneCount() int {
	count := int(math.Ceil(r.DurationSeconds / 3))
	if count < 1 {
		count = 1
	}
	return count
}

// GenerationResult is the normalized output persisted for a finished run.
// Exactly one of PrimaryArtifactURL-present / status FAILED holds once the
// coordinator finishes.
type GenerationResult struct {
	Status             GenerationStatus `json:"status"`
	PrimaryArtifactURL string           `json:"primary_artifact_url,omitempty"`
	ThumbnailURL       string           `json:"thumbnail_url,omitempty"`
	SceneImageURLs     []string         `json:"scene_image_urls,omitempty"`
	NarrationAudioURL  string           `json:"narration_audio_url,omitempty"`
	ScriptText         string           `json:"script_text,omitempty"`
	ProviderUsed       string           `json:"provider_used,omitempty"`
	ErrorMessage       string           `json:"error_message,omitempty"`
}

// GenerationRecord is the durable row for one generation attempt.
type GenerationRecord struct {
	ID        string
	UserID    string
	Kind      RequestKind
	Status    GenerationStatus
	Request   GenerationRequest
	Result    *GenerationResult
	CreatedAt time.Time
	UpdatedAt time.Time
}

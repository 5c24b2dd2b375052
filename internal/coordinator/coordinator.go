package coordinator

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"reelforge/server/internal/domain"
	"reelforge/server/internal/infra"
	"reelforge/server/internal/planner"
	imageprovider "reelforge/server/internal/providers/image"
	videoprovider "reelforge/server/internal/providers/video"
	"reelforge/server/internal/providers/voice"
	"reelforge/server/pkg/zip"
)

// ArtifactStore is the persistence boundary for generated binaries.
type ArtifactStore interface {
	Write(ctx context.Context, key string, data []byte) (string, error)
	PublicURL(key string) string
}

const sceneImageConcurrency = 4

// Options wires the coordinator's collaborators.
type Options struct {
	Registry *Registry
	Repo     domain.GenerationRepository
	Assets   domain.AssetRepository
	Store    ArtifactStore
	Logger   infra.Logger
}

// Coordinator drives one generation record from RUNNING to a terminal state:
// tier selection, per-scene media generation, artifact assembly, persistence.
// It owns the retry-by-falling-through-tiers policy; adapters never retry.
type Coordinator struct {
	registry *Registry
	planner  *planner.Planner
	repo     domain.GenerationRepository
	assets   domain.AssetRepository
	store    ArtifactStore
	logger   infra.Logger
}

func New(opts Options) *Coordinator {
	return &Coordinator{
		registry: opts.Registry,
		planner:  planner.New(opts.Registry.FirstText()),
		repo:     opts.Repo,
		assets:   opts.Assets,
		store:    opts.Store,
		logger:   opts.Logger,
	}
}

// Run executes one generation attempt for a claimed record. Re-running for
// the same request is deliberately not idempotent: each attempt is a new
// record and may land on a different provider.
func (c *Coordinator) Run(ctx context.Context, rec *domain.GenerationRecord) error {
	req := rec.Request
	if err := req.Normalize(); err != nil {
		return c.fail(rec.ID, err.Error())
	}

	if err := c.repo.PatchStatus(ctx, rec.ID, domain.StatusRunning, nil); err != nil {
		return err
	}

	candidates, err := SelectOrder(req.Kind, c.registry.Capabilities(), req.ExplicitProvider)
	if err != nil {
		return c.fail(rec.ID, err.Error())
	}
	if len(candidates) == 0 {
		return c.fail(rec.ID, string(domain.FailureNoProvider))
	}

	// One planning pass shared across all candidate attempts; planning has no
	// provider dependency beyond the text completer it was built with.
	var scenes []domain.Scene
	if req.Kind == domain.KindVideo || req.Kind == domain.KindComplete {
		scenes = c.planner.Plan(ctx, req.Prompt, req.DurationSeconds, 0)
	}

	var lastErr error
	for _, cand := range candidates {
		if ctx.Err() != nil {
			return c.cancel(rec.ID)
		}

		result, artifacts, err := c.attempt(ctx, rec, &req, cand, scenes)
		if err != nil {
			if domain.KindOf(err) == domain.FailureCancelled {
				return c.cancel(rec.ID)
			}
			c.logger.Warn().
				Err(err).
				Str("generation_id", rec.ID).
				Str("candidate", cand.Label()).
				Msg("coordinator: candidate failed")
			lastErr = err
			var failure *domain.Failure
			if errors.As(err, &failure) && !failure.Retryable() {
				break
			}
			continue
		}

		result.Status = domain.StatusCompleted
		result.ProviderUsed = cand.Label()
		if err := c.repo.PatchStatus(ctx, rec.ID, domain.StatusCompleted, result); err != nil {
			return err
		}
		if c.assets != nil && len(artifacts) > 0 {
			if err := c.assets.SaveAll(ctx, rec.ID, artifacts); err != nil {
				c.logger.Error().Err(err).Str("generation_id", rec.ID).Msg("coordinator: save assets failed")
			}
		}
		c.logger.Info().
			Str("generation_id", rec.ID).
			Str("provider", cand.Label()).
			Msg("coordinator: generation completed")
		return nil
	}

	message := string(domain.FailureNoProvider)
	if lastErr != nil {
		message = lastErr.Error()
	}
	return c.fail(rec.ID, message)
}

// fail and cancel persist terminal states on a detached context so a
// cancelled run can still record its outcome.
func (c *Coordinator) fail(id, message string) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return c.repo.PatchStatus(ctx, id, domain.StatusFailed, &domain.GenerationResult{
		Status:       domain.StatusFailed,
		ErrorMessage: message,
	})
}

func (c *Coordinator) cancel(id string) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	// Partial artifacts are discarded: nothing is recorded as completed
	// unless the winning candidate finished every required sub-call.
	return c.repo.PatchStatus(ctx, id, domain.StatusCancelled, &domain.GenerationResult{
		Status:       domain.StatusCancelled,
		ErrorMessage: string(domain.FailureCancelled),
	})
}

func (c *Coordinator) attempt(ctx context.Context, rec *domain.GenerationRecord, req *domain.GenerationRequest, cand domain.Candidate, scenes []domain.Scene) (*domain.GenerationResult, []domain.Asset, error) {
	set := c.registry.Set(cand.Tier)
	switch req.Kind {
	case domain.KindThumbnail:
		return c.generateThumbnail(ctx, rec, req, cand, set)
	case domain.KindVoiceover:
		return c.generateVoiceover(ctx, rec, req, cand, set)
	case domain.KindNicheDiscovery:
		return c.discoverNiches(ctx, rec, req, cand, set)
	case domain.KindVideo:
		if cand.Provider == videoprovider.RunwayProviderName {
			return c.generateDirectVideo(ctx, rec, req, cand, set, scenes)
		}
		return c.generateSlideshow(ctx, rec, req, cand, set, scenes, false)
	case domain.KindComplete:
		return c.generateSlideshow(ctx, rec, req, cand, set, scenes, true)
	}
	return nil, nil, domain.NewFailure(domain.FailureInvalidRequest, cand.Label(), "unsupported kind %q", req.Kind)
}

// generateSlideshow runs the scene pipeline: per-scene images in parallel
// with order-preserving assembly, one narration track, and a zipped package
// artifact. withExtraThumbnail adds the dedicated thumbnail frame used by
// complete-package requests.
func (c *Coordinator) generateSlideshow(ctx context.Context, rec *domain.GenerationRecord, req *domain.GenerationRequest, cand domain.Candidate, set *TierSet, scenes []domain.Scene, withExtraThumbnail bool) (*domain.GenerationResult, []domain.Asset, error) {
	if set.Image == nil {
		return nil, nil, domain.NewFailure(domain.FailureAuth, cand.Label(), "no image provider configured for tier")
	}

	sceneURLs := make([]string, len(scenes))
	sceneData := make([][]byte, len(scenes))
	sceneMIMEs := make([]string, len(scenes))
	artifacts := make([]domain.Asset, len(scenes))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(sceneImageConcurrency)
	for i, scene := range scenes {
		i, scene := i, scene
		g.Go(func() error {
			asset, err := set.Image.Generate(gctx, imageprovider.GenerateRequest{
				Prompt:      scene.VisualDescription,
				AspectRatio: req.AspectRatio,
				RequestID:   rec.ID,
				SceneIndex:  i,
			})
			if err != nil {
				return err
			}
			key := fmt.Sprintf("generated/%s/scenes/scene-%02d%s", rec.ID, i+1, extensionForMIME(asset.Format))
			stored, err := c.store.Write(gctx, key, asset.Data)
			if err != nil {
				return err
			}
			url := c.store.PublicURL(stored)
			sceneURLs[i] = url
			sceneData[i] = asset.Data
			sceneMIMEs[i] = asset.Format
			artifacts[i] = domain.Asset{
				GenerationID: rec.ID,
				Kind:         domain.AssetKindImage,
				StorageKey:   stored,
				URL:          url,
				MIME:         asset.Format,
				Bytes:        int64(len(asset.Data)),
				SceneIndex:   i,
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, nil, err
	}

	script := domain.JoinNarration(scenes)
	var narrationURL string
	var narrationData []byte
	var narrationMIME string
	if script != "" {
		if ctx.Err() != nil {
			return nil, nil, domain.NewFailure(domain.FailureCancelled, cand.Label(), "cancelled before narration")
		}
		if set.Voice == nil {
			return nil, nil, domain.NewFailure(domain.FailureAuth, cand.Label(), "no voice provider configured for tier")
		}
		audio, err := set.Voice.Synthesize(ctx, voice.SynthesizeRequest{
			Text:      script,
			VoiceID:   req.VoiceID,
			Locale:    req.Locale,
			RequestID: rec.ID,
		})
		if err != nil {
			return nil, nil, err
		}
		key := fmt.Sprintf("generated/%s/narration%s", rec.ID, extensionForMIME(audio.Format))
		stored, err := c.store.Write(ctx, key, audio.Data)
		if err != nil {
			return nil, nil, err
		}
		narrationURL = c.store.PublicURL(stored)
		narrationData = audio.Data
		narrationMIME = audio.Format
		artifacts = append(artifacts, domain.Asset{
			GenerationID: rec.ID,
			Kind:         domain.AssetKindAudio,
			StorageKey:   stored,
			URL:          narrationURL,
			MIME:         audio.Format,
			Bytes:        int64(len(audio.Data)),
		})
	}

	thumbnailURL := ""
	if len(sceneURLs) > 0 {
		thumbnailURL = sceneURLs[0]
	}
	if withExtraThumbnail {
		if ctx.Err() != nil {
			return nil, nil, domain.NewFailure(domain.FailureCancelled, cand.Label(), "cancelled before thumbnail")
		}
		asset, err := set.Image.Generate(ctx, imageprovider.GenerateRequest{
			Prompt:      fmt.Sprintf("Eye-catching video thumbnail, bold composition: %s", req.Prompt),
			AspectRatio: req.AspectRatio,
			RequestID:   rec.ID,
		})
		if err != nil {
			return nil, nil, err
		}
		key := fmt.Sprintf("generated/%s/thumbnail%s", rec.ID, extensionForMIME(asset.Format))
		stored, err := c.store.Write(ctx, key, asset.Data)
		if err != nil {
			return nil, nil, err
		}
		thumbnailURL = c.store.PublicURL(stored)
		artifacts = append(artifacts, domain.Asset{
			GenerationID: rec.ID,
			Kind:         domain.AssetKindImage,
			StorageKey:   stored,
			URL:          thumbnailURL,
			MIME:         asset.Format,
			Bytes:        int64(len(asset.Data)),
		})
	}

	manifest := buildManifest(req, scenes, sceneURLs, narrationURL, script)
	entries := []zip.Asset{{Filename: "manifest.json", MIME: "application/json", Data: manifest}}
	for i := range sceneData {
		entries = append(entries, zip.Asset{
			Filename: fmt.Sprintf("scenes/scene-%02d%s", i+1, extensionForMIME(sceneMIMEs[i])),
			MIME:     sceneMIMEs[i],
			Data:     sceneData[i],
		})
	}
	if len(narrationData) > 0 {
		entries = append(entries, zip.Asset{
			Filename: "narration" + extensionForMIME(narrationMIME),
			MIME:     narrationMIME,
			Data:     narrationData,
		})
	}
	archive, err := zip.Archive(entries)
	if err != nil {
		return nil, nil, domain.NewFailure(domain.FailureProvider, cand.Label(), "assemble package: %v", err)
	}
	packageKey := fmt.Sprintf("generated/%s/package.zip", rec.ID)
	storedPackage, err := c.store.Write(ctx, packageKey, archive)
	if err != nil {
		return nil, nil, err
	}
	primaryURL := c.store.PublicURL(storedPackage)
	artifacts = append(artifacts, domain.Asset{
		GenerationID: rec.ID,
		Kind:         domain.AssetKindPackage,
		StorageKey:   storedPackage,
		URL:          primaryURL,
		MIME:         "application/zip",
	})

	return &domain.GenerationResult{
		PrimaryArtifactURL: primaryURL,
		ThumbnailURL:       thumbnailURL,
		SceneImageURLs:     sceneURLs,
		NarrationAudioURL:  narrationURL,
		ScriptText:         script,
	}, artifacts, nil
}

func (c *Coordinator) generateDirectVideo(ctx context.Context, rec *domain.GenerationRecord, req *domain.GenerationRequest, cand domain.Candidate, set *TierSet, scenes []domain.Scene) (*domain.GenerationResult, []domain.Asset, error) {
	if set.Video == nil {
		return nil, nil, domain.NewFailure(domain.FailureAuth, cand.Label(), "no video provider configured for tier")
	}
	asset, err := set.Video.Generate(ctx, videoprovider.GenerateRequest{
		Prompt:          req.Prompt,
		DurationSeconds: req.DurationSeconds,
		AspectRatio:     req.AspectRatio,
		RequestID:       rec.ID,
	})
	if err != nil {
		return nil, nil, err
	}
	key := fmt.Sprintf("generated/%s/video%s", rec.ID, extensionForMIME(asset.Format))
	stored, err := c.store.Write(ctx, key, asset.Data)
	if err != nil {
		return nil, nil, err
	}
	url := c.store.PublicURL(stored)
	return &domain.GenerationResult{
			PrimaryArtifactURL: url,
			ScriptText:         domain.JoinNarration(scenes),
		}, []domain.Asset{{
			GenerationID: rec.ID,
			Kind:         domain.AssetKindVideo,
			StorageKey:   stored,
			URL:          url,
			MIME:         asset.Format,
			Bytes:        int64(len(asset.Data)),
		}}, nil
}

func (c *Coordinator) generateThumbnail(ctx context.Context, rec *domain.GenerationRecord, req *domain.GenerationRequest, cand domain.Candidate, set *TierSet) (*domain.GenerationResult, []domain.Asset, error) {
	if set.Image == nil {
		return nil, nil, domain.NewFailure(domain.FailureAuth, cand.Label(), "no image provider configured for tier")
	}
	asset, err := set.Image.Generate(ctx, imageprovider.GenerateRequest{
		Prompt:      req.Prompt,
		AspectRatio: req.AspectRatio,
		RequestID:   rec.ID,
	})
	if err != nil {
		return nil, nil, err
	}
	key := fmt.Sprintf("generated/%s/thumbnail%s", rec.ID, extensionForMIME(asset.Format))
	stored, err := c.store.Write(ctx, key, asset.Data)
	if err != nil {
		return nil, nil, err
	}
	url := c.store.PublicURL(stored)
	return &domain.GenerationResult{
			PrimaryArtifactURL: url,
			ThumbnailURL:       url,
			SceneImageURLs:     []string{url},
		}, []domain.Asset{{
			GenerationID: rec.ID,
			Kind:         domain.AssetKindImage,
			StorageKey:   stored,
			URL:          url,
			MIME:         asset.Format,
			Bytes:        int64(len(asset.Data)),
		}}, nil
}

func (c *Coordinator) generateVoiceover(ctx context.Context, rec *domain.GenerationRecord, req *domain.GenerationRequest, cand domain.Candidate, set *TierSet) (*domain.GenerationResult, []domain.Asset, error) {
	if set.Voice == nil {
		return nil, nil, domain.NewFailure(domain.FailureAuth, cand.Label(), "no voice provider configured for tier")
	}
	audio, err := set.Voice.Synthesize(ctx, voice.SynthesizeRequest{
		Text:      req.Prompt,
		VoiceID:   req.VoiceID,
		Locale:    req.Locale,
		RequestID: rec.ID,
	})
	if err != nil {
		return nil, nil, err
	}
	key := fmt.Sprintf("generated/%s/voiceover%s", rec.ID, extensionForMIME(audio.Format))
	stored, err := c.store.Write(ctx, key, audio.Data)
	if err != nil {
		return nil, nil, err
	}
	url := c.store.PublicURL(stored)
	return &domain.GenerationResult{
			PrimaryArtifactURL: url,
			NarrationAudioURL:  url,
			ScriptText:         req.Prompt,
		}, []domain.Asset{{
			GenerationID: rec.ID,
			Kind:         domain.AssetKindAudio,
			StorageKey:   stored,
			URL:          url,
			MIME:         audio.Format,
			Bytes:        int64(len(audio.Data)),
		}}, nil
}

type manifestScene struct {
	Index     int     `json:"index"`
	Time      float64 `json:"time"`
	Visual    string  `json:"visual"`
	Narration string  `json:"narration"`
	ImageURL  string  `json:"image_url"`
}

type packageManifest struct {
	Prompt          string          `json:"prompt"`
	Kind            string          `json:"kind"`
	DurationSeconds float64         `json:"duration_seconds"`
	AspectRatio     string          `json:"aspect_ratio"`
	Scenes          []manifestScene `json:"scenes"`
	NarrationURL    string          `json:"narration_url,omitempty"`
	Script          string          `json:"script,omitempty"`
}

func buildManifest(req *domain.GenerationRequest, scenes []domain.Scene, urls []string, narrationURL, script string) []byte {
	manifest := packageManifest{
		Prompt:          req.Prompt,
		Kind:            string(req.Kind),
		DurationSeconds: req.DurationSeconds,
		AspectRatio:     req.AspectRatio,
		NarrationURL:    narrationURL,
		Script:          script,
	}
	for i, scene := range scenes {
		url := ""
		if i < len(urls) {
			url = urls[i]
		}
		manifest.Scenes = append(manifest.Scenes, manifestScene{
			Index:     scene.SequenceIndex,
			Time:      scene.StartTimeSeconds,
			Visual:    scene.VisualDescription,
			Narration: scene.NarrationText,
			ImageURL:  url,
		})
	}
	data, err := json.MarshalIndent(manifest, "", "  ")
	if err != nil {
		return []byte("{}")
	}
	return data
}

func extensionForMIME(mime string) string {
	switch mime {
	case "image/png":
		return ".png"
	case "image/jpeg", "image/jpg":
		return ".jpg"
	case "image/webp":
		return ".webp"
	case "audio/mpeg", "audio/mp3":
		return ".mp3"
	case "audio/wav":
		return ".wav"
	case "video/mp4":
		return ".mp4"
	case "application/json":
		return ".json"
	default:
		return ".bin"
	}
}

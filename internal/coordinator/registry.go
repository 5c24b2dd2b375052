package coordinator

import (
	"net/http"
	"time"

	"reelforge/server/internal/domain"
	"reelforge/server/internal/infra"
	imageprovider "reelforge/server/internal/providers/image"
	"reelforge/server/internal/providers/gemini"
	"reelforge/server/internal/providers/pollinations"
	"reelforge/server/internal/providers/selfhosted"
	"reelforge/server/internal/providers/text"
	videoprovider "reelforge/server/internal/providers/video"
	"reelforge/server/internal/providers/voice"
)

// TierSet bundles the media adapters one tier resolves sub-calls against.
// Any field may be nil when the concern has no configured provider in the
// tier; the coordinator surfaces that as an auth-class failure on the
// sub-call.
type TierSet struct {
	Text  text.Completer
	Image imageprovider.Generator
	Voice voice.Synthesizer
	Video videoprovider.Generator
}

// Registry maps tiers to adapter sets and carries the capability snapshot
// computed when the registry was built.
type Registry struct {
	sets map[domain.Tier]*TierSet
	caps domain.Capabilities
}

// NewRegistry builds a registry from explicit tier sets and capabilities.
// Used directly by tests; production wiring goes through FromConfig.
func NewRegistry(caps domain.Capabilities, sets map[domain.Tier]*TierSet) *Registry {
	if sets == nil {
		sets = map[domain.Tier]*TierSet{}
	}
	return &Registry{sets: sets, caps: caps}
}

// FromConfig wires every configured provider credential into its tier set.
// The capability map is computed once here; nothing re-reads the environment
// mid-run.
func FromConfig(cfg *infra.Config, httpClient *http.Client, logger *infra.Logger) *Registry {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 120 * time.Second}
	}
	caps := domain.Capabilities{
		Premium: map[string]bool{},
		Free:    map[string]bool{},
	}
	sets := map[domain.Tier]*TierSet{
		domain.TierSelfHosted: {},
		domain.TierPremium:    {},
		domain.TierFree:       {},
	}

	if cfg.SelfHostedBaseURL != "" {
		client := selfhosted.NewClient(selfhosted.Options{
			BaseURL:    cfg.SelfHostedBaseURL,
			HTTPClient: httpClient,
			Logger:     logger,
		})
		caps.SelfHosted = true
		sets[domain.TierSelfHosted] = &TierSet{
			Text:  text.NewSelfHostedCompleter(client),
			Image: imageprovider.NewSelfHostedGenerator(client),
			Voice: voice.NewSelfHostedSynthesizer(client),
		}
	}

	if cfg.GeminiAPIKey != "" {
		client := gemini.NewClient(gemini.Options{
			APIKey:     cfg.GeminiAPIKey,
			BaseURL:    cfg.GeminiBaseURL,
			Model:      cfg.GeminiModel,
			HTTPClient: httpClient,
			Logger:     logger,
		})
		caps.Premium[gemini.ProviderName] = true
		sets[domain.TierPremium].Text = text.NewGeminiCompleter(client)
		sets[domain.TierPremium].Image = imageprovider.NewGeminiGenerator(client)
	}
	if cfg.ElevenLabsAPIKey != "" {
		caps.Premium[voice.ElevenLabsProviderName] = true
		sets[domain.TierPremium].Voice = voice.NewElevenLabsSynthesizer(voice.ElevenLabsOptions{
			APIKey:         cfg.ElevenLabsAPIKey,
			BaseURL:        cfg.ElevenLabsBaseURL,
			DefaultVoiceID: cfg.ElevenLabsVoiceID,
			HTTPClient:     httpClient,
		})
	}
	if cfg.RunwayAPIKey != "" {
		caps.Premium[videoprovider.RunwayProviderName] = true
		sets[domain.TierPremium].Video = videoprovider.NewRunwayGenerator(videoprovider.RunwayOptions{
			APIKey:       cfg.RunwayAPIKey,
			BaseURL:      cfg.RunwayBaseURL,
			Model:        cfg.RunwayModel,
			HTTPClient:   httpClient,
			PollInterval: cfg.PollInterval,
		})
	}

	if cfg.PollinationsBaseURL != "" {
		client := pollinations.NewClient(pollinations.Options{
			BaseURL:    cfg.PollinationsBaseURL,
			HTTPClient: httpClient,
		})
		caps.Free[pollinations.ProviderName] = true
		sets[domain.TierFree].Text = text.NewPollinationsCompleter(client)
		sets[domain.TierFree].Image = imageprovider.NewPollinationsGenerator(client)
	}
	if cfg.GTTSBaseURL != "" {
		caps.Free[voice.GTTSProviderName] = true
		sets[domain.TierFree].Voice = voice.NewGTTSSynthesizer(cfg.GTTSBaseURL, httpClient)
	}

	return &Registry{sets: sets, caps: caps}
}

// Capabilities returns the snapshot computed at build time.
func (r *Registry) Capabilities() domain.Capabilities {
	return r.caps
}

// Set returns the adapter set for a tier. The result is never nil.
func (r *Registry) Set(tier domain.Tier) *TierSet {
	if set, ok := r.sets[tier]; ok && set != nil {
		return set
	}
	return &TierSet{}
}

// FirstText returns the highest-priority configured text completer, used for
// the single shared scene-planning pass.
func (r *Registry) FirstText() text.Completer {
	for _, tier := range []domain.Tier{domain.TierSelfHosted, domain.TierPremium, domain.TierFree} {
		if set := r.Set(tier); set.Text != nil {
			return set.Text
		}
	}
	return nil
}

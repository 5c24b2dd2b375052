package coordinator

import (
	"reelforge/server/internal/domain"
)

// Provider declaration order inside each tier. Selection is deterministic:
// ties within a tier are broken by this order, never randomly.
var (
	premiumDeclarationOrder = []string{"gemini", "runway", "elevenlabs"}
	freeDeclarationOrder    = []string{"pollinations", "gtts"}
)

const selfHostedProviderName = "selfhosted"

// providerServesKind reports whether the named provider can lead a candidate
// attempt for the given request kind. The self-hosted server covers every
// concern; remote providers are narrower.
func providerServesKind(provider string, kind domain.RequestKind) bool {
	switch provider {
	case selfHostedProviderName:
		return true
	case "gemini", "pollinations":
		return kind == domain.KindVideo || kind == domain.KindComplete ||
			kind == domain.KindThumbnail || kind == domain.KindNicheDiscovery
	case "runway":
		return kind == domain.KindVideo
	case "elevenlabs", "gtts":
		return kind == domain.KindVoiceover
	}
	return false
}

func tierOf(provider string, caps domain.Capabilities) (domain.Tier, bool) {
	if provider == selfHostedProviderName {
		return domain.TierSelfHosted, caps.SelfHosted
	}
	for _, name := range premiumDeclarationOrder {
		if name == provider {
			return domain.TierPremium, caps.HasPremium(provider)
		}
	}
	for _, name := range freeDeclarationOrder {
		if name == provider {
			return domain.TierFree, caps.HasFree(provider)
		}
	}
	return "", false
}

// SelectOrder returns the ordered candidate list for one request. With an
// explicit provider the result is exactly that provider or a
// ProviderUnavailable failure; tier priority never second-guesses an explicit
// request. Otherwise candidates come in fixed priority order SelfHosted,
// Premium, Free, filtered to configured capabilities that can serve the kind.
// An empty result means no provider is configured for the kind.
func SelectOrder(kind domain.RequestKind, caps domain.Capabilities, explicitProvider string) ([]domain.Candidate, error) {
	if explicitProvider != "" {
		tier, available := tierOf(explicitProvider, caps)
		if !available || !providerServesKind(explicitProvider, kind) {
			return nil, domain.NewFailure(domain.FailureProviderUnavailable, explicitProvider,
				"explicit provider not configured for %s", kind)
		}
		return []domain.Candidate{{Tier: tier, Provider: explicitProvider}}, nil
	}

	var candidates []domain.Candidate
	if caps.SelfHosted && providerServesKind(selfHostedProviderName, kind) {
		candidates = append(candidates, domain.Candidate{Tier: domain.TierSelfHosted, Provider: selfHostedProviderName})
	}
	for _, name := range premiumDeclarationOrder {
		if caps.HasPremium(name) && providerServesKind(name, kind) {
			candidates = append(candidates, domain.Candidate{Tier: domain.TierPremium, Provider: name})
		}
	}
	for _, name := range freeDeclarationOrder {
		if caps.HasFree(name) && providerServesKind(name, kind) {
			candidates = append(candidates, domain.Candidate{Tier: domain.TierFree, Provider: name})
		}
	}
	return candidates, nil
}

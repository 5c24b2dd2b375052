package coordinator

import (
	"errors"
	"reflect"
	"testing"

	"reelforge/server/internal/domain"
)

func allCapabilities() domain.Capabilities {
	return domain.Capabilities{
		SelfHosted: true,
		Premium:    map[string]bool{"gemini": true, "runway": true, "elevenlabs": true},
		Free:       map[string]bool{"pollinations": true, "gtts": true},
	}
}

func TestSelectOrderTierPriority(t *testing.T) {
	tests := []struct {
		name string
		kind domain.RequestKind
		want []domain.Candidate
	}{
		{
			name: "video walks all tiers",
			kind: domain.KindVideo,
			want: []domain.Candidate{
				{Tier: domain.TierSelfHosted, Provider: "selfhosted"},
				{Tier: domain.TierPremium, Provider: "gemini"},
				{Tier: domain.TierPremium, Provider: "runway"},
				{Tier: domain.TierFree, Provider: "pollinations"},
			},
		},
		{
			name: "voiceover filters to speech providers",
			kind: domain.KindVoiceover,
			want: []domain.Candidate{
				{Tier: domain.TierSelfHosted, Provider: "selfhosted"},
				{Tier: domain.TierPremium, Provider: "elevenlabs"},
				{Tier: domain.TierFree, Provider: "gtts"},
			},
		},
		{
			name: "niche discovery skips media-only providers",
			kind: domain.KindNicheDiscovery,
			want: []domain.Candidate{
				{Tier: domain.TierSelfHosted, Provider: "selfhosted"},
				{Tier: domain.TierPremium, Provider: "gemini"},
				{Tier: domain.TierFree, Provider: "pollinations"},
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := SelectOrder(tt.kind, allCapabilities(), "")
			if err != nil {
				t.Fatalf("SelectOrder: %v", err)
			}
			if !reflect.DeepEqual(got, tt.want) {
				t.Fatalf("order = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestSelectOrderDeterministic(t *testing.T) {
	caps := allCapabilities()
	first, err := SelectOrder(domain.KindVideo, caps, "")
	if err != nil {
		t.Fatalf("SelectOrder: %v", err)
	}
	for i := 0; i < 10; i++ {
		again, err := SelectOrder(domain.KindVideo, caps, "")
		if err != nil {
			t.Fatalf("SelectOrder: %v", err)
		}
		if !reflect.DeepEqual(again, first) {
			t.Fatalf("run %d produced %v, want %v", i, again, first)
		}
	}
}

func TestSelectOrderExplicitProvider(t *testing.T) {
	caps := allCapabilities()

	got, err := SelectOrder(domain.KindVideo, caps, "runway")
	if err != nil {
		t.Fatalf("SelectOrder: %v", err)
	}
	want := []domain.Candidate{{Tier: domain.TierPremium, Provider: "runway"}}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("explicit order = %v, want %v", got, want)
	}
}

func TestSelectOrderExplicitProviderUnavailable(t *testing.T) {
	tests := []struct {
		name     string
		caps     domain.Capabilities
		kind     domain.RequestKind
		provider string
	}{
		{
			name:     "not configured",
			caps:     domain.Capabilities{Premium: map[string]bool{"gemini": true}},
			kind:     domain.KindVideo,
			provider: "runway",
		},
		{
			name:     "wrong kind",
			caps:     allCapabilities(),
			kind:     domain.KindVoiceover,
			provider: "runway",
		},
		{
			name:     "unknown name",
			caps:     allCapabilities(),
			kind:     domain.KindVideo,
			provider: "dalle",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := SelectOrder(tt.kind, tt.caps, tt.provider)
			var failure *domain.Failure
			if !errors.As(err, &failure) {
				t.Fatalf("error = %v, want *domain.Failure", err)
			}
			if failure.Kind != domain.FailureProviderUnavailable {
				t.Fatalf("kind = %s, want %s", failure.Kind, domain.FailureProviderUnavailable)
			}
		})
	}
}

func TestSelectOrderNoCapabilities(t *testing.T) {
	got, err := SelectOrder(domain.KindVideo, domain.Capabilities{}, "")
	if err != nil {
		t.Fatalf("SelectOrder: %v", err)
	}
	if len(got) != 0 {
		t.Fatalf("order = %v, want empty", got)
	}
}

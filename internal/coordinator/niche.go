package coordinator

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"reelforge/server/internal/domain"
	"reelforge/server/internal/planner"
)

// Niche is one discovered content angle for a topic.
type Niche struct {
	Title     string `json:"title"`
	Angle     string `json:"angle"`
	Audience  string `json:"audience"`
	SampleCTA string `json:"sample_cta"`
}

const nicheCount = 5

func nicheInstruction(topic string) string {
	return fmt.Sprintf(`You are a short-form video strategist. For the topic %q, propose exactly %d content niches.
Respond with ONLY a JSON array, no prose, where each element is an object with keys:
"title" (string), "angle" (string), "audience" (string), "sample_cta" (string).`, topic, nicheCount)
}

func parseNiches(raw string) ([]Niche, bool) {
	fragment := planner.ExtractJSONArray(raw)
	if fragment == "" {
		return nil, false
	}
	var niches []Niche
	if err := json.Unmarshal([]byte(fragment), &niches); err != nil {
		return nil, false
	}
	if len(niches) == 0 {
		return nil, false
	}
	for _, n := range niches {
		if strings.TrimSpace(n.Title) == "" {
			return nil, false
		}
	}
	return niches, true
}

// fallbackNiches builds a deterministic niche list from the topic alone,
// used when no text provider yields a parseable array.
func fallbackNiches(topic string) []Niche {
	title := cases.Title(language.English).String(strings.TrimSpace(topic))
	angles := [nicheCount]struct {
		suffix   string
		angle    string
		audience string
	}{
		{"For Beginners", "step-by-step introductions with zero assumed knowledge", "newcomers researching the topic"},
		{"Myths Debunked", "contrarian takes on widely repeated advice", "skeptical intermediate followers"},
		{"In 60 Seconds", "single-idea rapid explainers", "short-attention scrollers"},
		{"Behind The Scenes", "process and tooling walkthroughs", "practitioners comparing workflows"},
		{"Case Studies", "concrete before-and-after stories with numbers", "decision makers evaluating results"},
	}
	niches := make([]Niche, nicheCount)
	for i, a := range angles {
		niches[i] = Niche{
			Title:     fmt.Sprintf("%s %s", title, a.suffix),
			Angle:     a.angle,
			Audience:  a.audience,
			SampleCTA: fmt.Sprintf("Follow for more %s content", strings.ToLower(title)),
		}
	}
	return niches
}

func (c *Coordinator) discoverNiches(ctx context.Context, rec *domain.GenerationRecord, req *domain.GenerationRequest, cand domain.Candidate, set *TierSet) (*domain.GenerationResult, []domain.Asset, error) {
	if set.Text == nil {
		return nil, nil, domain.NewFailure(domain.FailureAuth, cand.Label(), "no text provider configured for tier")
	}
	raw, err := set.Text.Complete(ctx, nicheInstruction(req.Prompt))
	if err != nil {
		return nil, nil, err
	}
	niches, ok := parseNiches(raw)
	if !ok {
		niches = fallbackNiches(req.Prompt)
	}
	data, err := json.MarshalIndent(niches, "", "  ")
	if err != nil {
		return nil, nil, domain.NewFailure(domain.FailureUnexpectedShape, cand.Label(), "encode niches: %v", err)
	}
	key := fmt.Sprintf("generated/%s/niches.json", rec.ID)
	stored, err := c.store.Write(ctx, key, data)
	if err != nil {
		return nil, nil, err
	}
	url := c.store.PublicURL(stored)
	return &domain.GenerationResult{
			PrimaryArtifactURL: url,
			ScriptText:         string(data),
		}, []domain.Asset{{
			GenerationID: rec.ID,
			Kind:         domain.AssetKindData,
			StorageKey:   stored,
			URL:          url,
			MIME:         "application/json",
			Bytes:        int64(len(data)),
		}}, nil
}

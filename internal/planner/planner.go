package planner

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"strings"

	"reelforge/server/internal/domain"
)

// Completer is the text-completion contract the planner depends on. Any text
// provider adapter satisfies it.
type Completer interface {
	Complete(ctx context.Context, prompt string) (string, error)
}

// Planner decomposes a prompt and duration into an ordered scene sequence.
// Planning never fails: when the provider response cannot be parsed into the
// required JSON array, a deterministic synthetic plan is returned instead.
type Planner struct {
	completer Completer
}

func New(completer Completer) *Planner {
	return &Planner{completer: completer}
}

type rawScene struct {
	Time      float64 `json:"time"`
	Visual    string  `json:"visual"`
	Narration string  `json:"narration"`
}

// DefaultSceneCount returns ceil(duration/3) with a floor of one scene.
func DefaultSceneCount(durationSeconds float64) int {
	count := int(math.Ceil(durationSeconds / 3))
	if count < 1 {
		count = 1
	}
	return count
}

// Plan produces exactly sceneCount scenes ordered by SequenceIndex and evenly
// partitioning durationSeconds. A sceneCount of zero or less selects the
// default for the duration.
func (p *Planner) Plan(ctx context.Context, prompt string, durationSeconds float64, sceneCount int) []domain.Scene {
	if sceneCount <= 0 {
		sceneCount = DefaultSceneCount(durationSeconds)
	}
	if p == nil || p.completer == nil {
		return Fallback(prompt, durationSeconds, sceneCount)
	}

	raw, err := p.completer.Complete(ctx, buildPlanInstruction(prompt, durationSeconds, sceneCount))
	if err != nil {
		return Fallback(prompt, durationSeconds, sceneCount)
	}
	scenes, ok := parseScenes(raw, durationSeconds, sceneCount)
	if !ok {
		return Fallback(prompt, durationSeconds, sceneCount)
	}
	return scenes
}

// Fallback builds the deterministic synthetic plan used when the provider
// output cannot be parsed. Scenes carry empty narration and evenly spaced
// start times.
func Fallback(prompt string, durationSeconds float64, sceneCount int) []domain.Scene {
	if sceneCount < 1 {
		sceneCount = 1
	}
	sliceLen := durationSeconds / float64(sceneCount)
	scenes := make([]domain.Scene, sceneCount)
	for i := range scenes {
		scenes[i] = domain.Scene{
			SequenceIndex:     i,
			StartTimeSeconds:  float64(i) * sliceLen,
			VisualDescription: fmt.Sprintf("%s - scene %d", prompt, i+1),
			NarrationText:     "",
		}
	}
	return scenes
}

func buildPlanInstruction(prompt string, durationSeconds float64, sceneCount int) string {
	sb := &strings.Builder{}
	fmt.Fprintf(sb, "You are a video script planner. Split the following concept into exactly %d scenes covering %.0f seconds total. ", sceneCount, durationSeconds)
	sb.WriteString(`Respond strictly with a JSON array matching [{"time": number, "visual": string, "narration": string}] and nothing else. `)
	fmt.Fprintf(sb, "Concept: %s", strings.TrimSpace(prompt))
	return sb.String()
}

func parseScenes(raw string, durationSeconds float64, sceneCount int) ([]domain.Scene, bool) {
	fragment := ExtractJSONArray(raw)
	if fragment == "" {
		return nil, false
	}
	var parsed []rawScene
	if err := json.Unmarshal([]byte(fragment), &parsed); err != nil {
		return nil, false
	}
	if len(parsed) == 0 {
		return nil, false
	}

	sliceLen := durationSeconds / float64(len(parsed))
	scenes := make([]domain.Scene, len(parsed))
	for i, rs := range parsed {
		start := rs.Time
		if start < 0 || start > durationSeconds {
			start = float64(i) * sliceLen
		}
		scenes[i] = domain.Scene{
			SequenceIndex:     i,
			StartTimeSeconds:  start,
			VisualDescription: strings.TrimSpace(rs.Visual),
			NarrationText:     strings.TrimSpace(rs.Narration),
		}
		if scenes[i].VisualDescription == "" {
			return nil, false
		}
	}
	return scenes, true
}

// ExtractJSONArray returns the first balanced top-level [...] substring of the
// text, skipping brackets inside JSON string literals. Code fences around the
// payload are tolerated.
func ExtractJSONArray(raw string) string {
	text := trimCodeFence(strings.TrimSpace(raw))
	start := strings.IndexByte(text, '[')
	if start < 0 {
		return ""
	}
	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(text); i++ {
		ch := text[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case ch == '\\':
				escaped = true
			case ch == '"':
				inString = false
			}
			continue
		}
		switch ch {
		case '"':
			inString = true
		case '[':
			depth++
		case ']':
			depth--
			if depth == 0 {
				return text[start : i+1]
			}
		}
	}
	return ""
}

func trimCodeFence(text string) string {
	trimmed := strings.TrimSpace(text)
	if !strings.HasPrefix(trimmed, "```") {
		return trimmed
	}
	trimmed = strings.TrimPrefix(trimmed, "```json")
	trimmed = strings.TrimPrefix(trimmed, "```JSON")
	trimmed = strings.TrimPrefix(trimmed, "```")
	trimmed = strings.TrimSpace(trimmed)
	if idx := strings.LastIndex(trimmed, "```"); idx >= 0 {
		trimmed = trimmed[:idx]
	}
	return strings.TrimSpace(trimmed)
}

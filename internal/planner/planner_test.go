package planner

import (
	"context"
	"errors"
	"reflect"
	"testing"
)

type scriptedCompleter struct {
	response string
	err      error
	calls    int
}

func (s *scriptedCompleter) Complete(ctx context.Context, prompt string) (string, error) {
	s.calls++
	return s.response, s.err
}

func TestPlanParsesStrictJSONArray(t *testing.T) {
	completer := &scriptedCompleter{response: `[
		{"time": 0, "visual": "a ninja on a rooftop", "narration": "Meet the ninja."},
		{"time": 3, "visual": "the ninja leaps", "narration": ""},
		{"time": 6, "visual": "landing in an alley", "narration": "Silent landing."}
	]`}
	p := New(completer)

	scenes := p.Plan(context.Background(), "ninja parkour", 9, 0)
	if len(scenes) != 3 {
		t.Fatalf("scenes len = %d, want 3", len(scenes))
	}
	if scenes[1].SequenceIndex != 1 {
		t.Fatalf("scene 1 index = %d, want 1", scenes[1].SequenceIndex)
	}
	if scenes[0].VisualDescription != "a ninja on a rooftop" {
		t.Fatalf("scene 0 visual = %q", scenes[0].VisualDescription)
	}
	if scenes[2].NarrationText != "Silent landing." {
		t.Fatalf("scene 2 narration = %q", scenes[2].NarrationText)
	}
	if scenes[1].StartTimeSeconds != 3 {
		t.Fatalf("scene 1 start = %v, want 3", scenes[1].StartTimeSeconds)
	}
}

func TestPlanExtractsArrayFromChatter(t *testing.T) {
	completer := &scriptedCompleter{response: "Sure! Here is your plan:\n```json\n" +
		`[{"time": 0, "visual": "sunrise [wide shot]", "narration": "Day one."}]` +
		"\n```\nLet me know if you need edits."}
	p := New(completer)

	scenes := p.Plan(context.Background(), "travel vlog", 3, 0)
	if len(scenes) != 1 {
		t.Fatalf("scenes len = %d, want 1", len(scenes))
	}
	if scenes[0].VisualDescription != "sunrise [wide shot]" {
		t.Fatalf("visual = %q, brackets inside strings must survive extraction", scenes[0].VisualDescription)
	}
}

func TestPlanFallsBackOnMalformedResponses(t *testing.T) {
	cases := []struct {
		name     string
		response string
	}{
		{"empty", ""},
		{"non-json", "I cannot help with that."},
		{"object instead of array", `{"time": 0, "visual": "x", "narration": "y"}`},
		{"unbalanced", `[{"time": 0, "visual": "x"`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			p := New(&scriptedCompleter{response: tc.response})
			scenes := p.Plan(context.Background(), "ninja parkour", 9, 0)
			if len(scenes) != 3 {
				t.Fatalf("scenes len = %d, want ceil(9/3) = 3", len(scenes))
			}
			for i, s := range scenes {
				if s.SequenceIndex != i {
					t.Fatalf("scene %d index = %d", i, s.SequenceIndex)
				}
				if s.NarrationText != "" {
					t.Fatalf("fallback narration must be empty, got %q", s.NarrationText)
				}
				if want := float64(i) * 3; s.StartTimeSeconds != want {
					t.Fatalf("scene %d start = %v, want %v", i, s.StartTimeSeconds, want)
				}
			}
			if scenes[1].VisualDescription != "ninja parkour - scene 2" {
				t.Fatalf("fallback visual = %q", scenes[1].VisualDescription)
			}
		})
	}
}

func TestPlanFallbackIsDeterministic(t *testing.T) {
	p := New(&scriptedCompleter{err: errors.New("boom")})
	first := p.Plan(context.Background(), "cooking tips", 10, 0)
	second := p.Plan(context.Background(), "cooking tips", 10, 0)
	if !reflect.DeepEqual(first, second) {
		t.Fatalf("fallback plans differ across identical calls:\n%v\n%v", first, second)
	}
	if len(first) != 4 {
		t.Fatalf("scenes len = %d, want ceil(10/3) = 4", len(first))
	}
}

func TestPlanHonorsExplicitSceneCount(t *testing.T) {
	p := New(&scriptedCompleter{response: "not json"})
	scenes := p.Plan(context.Background(), "demo", 10, 5)
	if len(scenes) != 5 {
		t.Fatalf("scenes len = %d, want 5", len(scenes))
	}
	if scenes[4].StartTimeSeconds != 8 {
		t.Fatalf("last start = %v, want 8", scenes[4].StartTimeSeconds)
	}
}

func TestDefaultSceneCountFloor(t *testing.T) {
	if got := DefaultSceneCount(0); got != 1 {
		t.Fatalf("DefaultSceneCount(0) = %d, want 1", got)
	}
	if got := DefaultSceneCount(6); got != 2 {
		t.Fatalf("DefaultSceneCount(6) = %d, want 2", got)
	}
	if got := DefaultSceneCount(7); got != 3 {
		t.Fatalf("DefaultSceneCount(7) = %d, want 3", got)
	}
}

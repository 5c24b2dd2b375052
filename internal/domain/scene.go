package domain

import "strings"

// Scene is one time-sliced unit of a video request. Scenes are produced in
// bulk by the planner, totally ordered by SequenceIndex, and live only within
// one generation attempt.
type Scene struct {
	SequenceIndex     int     `json:"index"`
	StartTimeSeconds  float64 `json:"time"`
	VisualDescription string  `json:"visual"`
	NarrationText     string  `json:"narration"`
}

// JoinNarration concatenates the non-empty narration fragments of the scenes
// in sequence order. An empty result means the request is purely visual.
func JoinNarration(scenes []Scene) string {
	parts := make([]string, 0, len(scenes))
	for _, s := range scenes {
		if text := strings.TrimSpace(s.NarrationText); text != "" {
			parts = append(parts, text)
		}
	}
	return strings.Join(parts, " ")
}

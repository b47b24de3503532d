package common

import (
	"encoding/json"
	"strings"

	"github.com/atlaswatch/api/pkg/config"
)

// MissionBriefingRequest for POST /api/mission-briefing
type MissionBriefingRequest struct {
	// Required: the full prompt, live data already embedded
	Prompt string `json:"prompt" validate:"required"`
	// Required: JSON schema the model output must follow
	ResponseSchema json.RawMessage `json:"responseSchema" validate:"required"`
	RealData       json.RawMessage `json:"realData,omitempty"`
}

// Candidates returns the designations to try for a requested name. A name
// that refers to the tracked object expands to that object's candidates;
// anything else is tried as given.
func Candidates(requested string, object config.TrackedObject, candidates []string) []string {
	requested = strings.TrimSpace(requested)
	if strings.EqualFold(requested, object.Name) {
		return candidates
	}
	for _, known := range [][]string{object.HorizonsCandidates, object.MPCDesignations} {
		for _, c := range known {
			if strings.EqualFold(requested, c) {
				return candidates
			}
		}
	}
	return []string{requested}
}

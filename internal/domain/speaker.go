package domain

import "time"

// SpeakerIdentity is the canonical, deduplicated representation of a speaker
// across all their name variants. Key is stable; aliases grow over time.
type SpeakerIdentity struct {
	Key           string    `json:"key"`
	CanonicalName string    `json:"canonical_name"`
	Aliases       []string  `json:"aliases"`
	Provisional   bool      `json:"provisional,omitempty"`
	CreatedAt     time.Time `json:"created_at,omitempty"`
	UpdatedAt     time.Time `json:"updated_at,omitempty"`
}

func (s *SpeakerIdentity) HasAlias(alias string) bool {
	for _, a := range s.Aliases {
		if a == alias {
			return true
		}
	}
	return false
}

type ResolutionStatus string

const (
	ResolutionResolved  ResolutionStatus = "resolved"
	ResolutionAmbiguous ResolutionStatus = "ambiguous"
	ResolutionNoMatch   ResolutionStatus = "no_match"
)

// ScoredIdentity is one identity with its best-alias similarity to an input
// name.
type ScoredIdentity struct {
	Identity SpeakerIdentity `json:"identity"`
	Alias    string          `json:"alias"`
	Score    float64         `json:"score"`
}

// Resolution is the tagged outcome of resolving a free-text name. Exactly one
// payload is meaningful per status: Identity for resolved, Candidates for
// ambiguous, neither for no_match. Callers must branch on Status.
type Resolution struct {
	Status     ResolutionStatus `json:"status"`
	Input      string           `json:"input"`
	Identity   *SpeakerIdentity `json:"identity,omitempty"`
	Score      float64          `json:"score,omitempty"`
	Candidates []ScoredIdentity `json:"candidates,omitempty"`
}

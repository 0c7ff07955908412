package domain

import "time"

type ContradictionKind string

const (
	ContradictionReversal      ContradictionKind = "reversal"
	ContradictionBrokenPromise ContradictionKind = "broken_promise"
	ContradictionInconsistency ContradictionKind = "inconsistency"
	ContradictionNone          ContradictionKind = "none"
)

func ValidContradictionKind(k string) bool {
	switch ContradictionKind(k) {
	case ContradictionReversal, ContradictionBrokenPromise, ContradictionInconsistency, ContradictionNone:
		return true
	}
	return false
}

// PairContext is the metadata handed to the judgment capability alongside the
// two statement texts.
type PairContext struct {
	Speaker      string
	CurrentDate  time.Time
	PriorDate    time.Time
	PriorLocator string
}

// PairJudgment is the structured answer of the external judgment capability
// for one (current, prior) statement pair.
type PairJudgment struct {
	Likelihood     float64           `json:"likelihood"`
	Kind           ContradictionKind `json:"kind"`
	Rationale      string            `json:"rationale"`
	ConflictPoints []string          `json:"conflict_points,omitempty"`
}

// JudgedPair is one candidate after judgment. Degraded marks entries whose
// external call failed; their Likelihood carries no meaning and is excluded
// from verdict aggregation.
type JudgedPair struct {
	Candidate
	Likelihood     float64           `json:"likelihood"`
	Kind           ContradictionKind `json:"kind"`
	Rationale      string            `json:"rationale"`
	ConflictPoints []string          `json:"conflict_points,omitempty"`
	Degraded       bool              `json:"degraded"`
}

type DetectionStage string

const (
	StageResolving  DetectionStage = "resolving"
	StageRetrieving DetectionStage = "retrieving"
	StageJudging    DetectionStage = "judging"
	StageDone       DetectionStage = "done"
	StageFailed     DetectionStage = "failed"
)

type DetectionStatus string

const (
	DetectionOK               DetectionStatus = "ok"
	DetectionAmbiguousSpeaker DetectionStatus = "ambiguous_speaker"
)

// DetectionResult is the immutable outcome of one detect query.
//
// Confidence is the maximum likelihood among non-degraded pairs.
// Indeterminate is set when no pair could be judged (all degraded, or no
// candidates survived retrieval); it distinguishes "we could not tell" from
// a confident zero.
type DetectionResult struct {
	Status              DetectionStatus  `json:"status"`
	Statement           string           `json:"statement"`
	Speaker             *SpeakerIdentity `json:"speaker,omitempty"`
	AmbiguousCandidates []ScoredIdentity `json:"ambiguous_candidates,omitempty"`
	Pairs               []JudgedPair     `json:"pairs"`
	Contradiction       bool             `json:"contradiction"`
	Confidence          float64          `json:"confidence"`
	Indeterminate       bool             `json:"indeterminate"`
	Stage               DetectionStage   `json:"stage"`
	AnalyzedAt          time.Time        `json:"analyzed_at"`
}

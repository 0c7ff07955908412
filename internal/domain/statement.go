package domain

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

type SessionKind string

const (
	SessionCommission      SessionKind = "commission"
	SessionGeneralAssembly SessionKind = "general_assembly"
	SessionInterview       SessionKind = "interview"
	SessionSocial          SessionKind = "social"
	SessionUnknown         SessionKind = "unknown"
)

func ValidSessionKind(k string) bool {
	switch SessionKind(k) {
	case SessionCommission, SessionGeneralAssembly, SessionInterview, SessionSocial, SessionUnknown:
		return true
	}
	return false
}

// statementNamespace seeds deterministic statement ids. Never change it:
// re-ingestion idempotence depends on the same (source, seq) pair always
// producing the same id.
var statementNamespace = uuid.MustParse("9c18f5a2-43b1-4c57-8e0d-7a26d1f0b3ce")

// StatementID derives the id of the seq-th statement of a source document.
func StatementID(sourceID string, seq int) uuid.UUID {
	return uuid.NewSHA1(statementNamespace, fmt.Appendf(nil, "%s#%d", sourceID, seq))
}

// SourcePage is one page of proceeding text as supplied by the acquisition
// collaborator. Text is plain extracted text, one line per transcript line.
type SourcePage struct {
	Number int    `json:"number"`
	Text   string `json:"text"`
}

// SourceDocument is a full proceeding document handed to the parser.
type SourceDocument struct {
	ID    string       `json:"id"`
	Date  time.Time    `json:"date,omitempty"`
	Kind  SessionKind  `json:"kind,omitempty"`
	Pages []SourcePage `json:"pages"`
}

// StatementRecord is one contiguous utterance attributed to a single speaker.
// ID is deterministic over (SourceID, Seq), so storing the same document twice
// overwrites rather than duplicates.
type StatementRecord struct {
	ID         uuid.UUID   `json:"id"`
	SpeakerKey string      `json:"speaker_key"`
	RawSpeaker string      `json:"raw_speaker"`
	Text       string      `json:"text"`
	Date       time.Time   `json:"date,omitempty"`
	Kind       SessionKind `json:"kind"`
	SourceID   string      `json:"source_id"`
	Page       int         `json:"page"` // 0 when the page could not be recovered
	Seq        int         `json:"seq"`
	Embedding  []float32   `json:"-"`
	IngestedAt time.Time   `json:"ingested_at,omitempty"`
}

// Locator renders the citation reference for reports. The page part degrades
// explicitly rather than being omitted.
func (r *StatementRecord) Locator() string {
	if r.Page <= 0 {
		return fmt.Sprintf("%s (page unknown)", r.SourceID)
	}
	return fmt.Sprintf("%s p.%d", r.SourceID, r.Page)
}

// Candidate pairs a retrieved historical statement with its similarity to the
// query embedding. Candidates are per-query and never persisted.
type Candidate struct {
	StatementRecord
	Similarity float64 `json:"similarity"`
}

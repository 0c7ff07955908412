package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// RetrieveOpts filters a similarity retrieval. SpeakerKey is mandatory:
// contradiction lookups are only meaningful against the same speaker, so the
// store never exposes an unfiltered default.
type RetrieveOpts struct {
	SpeakerKey string
	From       *time.Time
	To         *time.Time
	Kind       *SessionKind
	ExcludeID  uuid.UUID
	TopK       int
}

// StatementStore owns StatementRecord persistence and is its sole writer.
// Upsert is idempotent under the deterministic id (last writer wins).
type StatementStore interface {
	Upsert(ctx context.Context, r *StatementRecord) error
	GetByID(ctx context.Context, id uuid.UUID) (*StatementRecord, error)
	Retrieve(ctx context.Context, embedding []float32, opts RetrieveOpts) ([]Candidate, error)
	CountBySpeaker(ctx context.Context, speakerKey string) (int, error)
	DeleteBySource(ctx context.Context, sourceID string) (int64, error)
}

// IdentityStore owns the speaker identity catalog.
type IdentityStore interface {
	Upsert(ctx context.Context, s *SpeakerIdentity) error
	GetByKey(ctx context.Context, key string) (*SpeakerIdentity, error)
	List(ctx context.Context) ([]SpeakerIdentity, error)
}

// EmbeddingClient is the external embedding capability. Repeated calls on
// identical text must yield near-identical vectors.
type EmbeddingClient interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

// JudgeClient is the external semantic-judgment capability. It is treated as
// fallible: callers isolate failures per pair.
type JudgeClient interface {
	JudgePair(ctx context.Context, current, prior string, pc PairContext) (*PairJudgment, error)
}

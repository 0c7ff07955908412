package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/tutanak-ai/tutanak/internal/domain"
)

var (
	ErrSpeakerUnresolved  = errors.New("speaker could not be resolved")
	ErrDetectTextEmpty    = errors.New("statement text is required")
	ErrDetectSpeakerEmpty = errors.New("speaker is required")
)

// VerdictThreshold is the minimum confidence for an affirmative verdict.
const VerdictThreshold = 0.7

// SpeakerResolver is the name-resolution capability the detection flow needs.
type SpeakerResolver interface {
	Resolve(ctx context.Context, raw string) (*domain.Resolution, error)
}

// DetectRequest is one contradiction query: does this statement, attributed
// to this speaker, contradict anything the speaker said before.
type DetectRequest struct {
	Speaker string              `json:"speaker"`
	Text    string              `json:"text"`
	Date    time.Time           `json:"date,omitempty"`
	From    *time.Time          `json:"from,omitempty"`
	To      *time.Time          `json:"to,omitempty"`
	Kind    *domain.SessionKind `json:"kind,omitempty"`

	// TopK caps retrieved candidates. Zero or anything above MaxCandidates
	// falls back to MaxCandidates.
	TopK int `json:"top_k,omitempty"`

	// ExcludeID keeps an already stored statement from matching itself when
	// it is re-checked after ingestion.
	ExcludeID uuid.UUID `json:"exclude_id,omitempty"`
}

type DetectionService struct {
	statements domain.StatementStore
	resolver   SpeakerResolver
	embedder   domain.EmbeddingClient
	judge      *JudgeService
	logger     *zap.Logger
}

func NewDetectionService(ss domain.StatementStore, sr SpeakerResolver, ec domain.EmbeddingClient, js *JudgeService, logger *zap.Logger) *DetectionService {
	return &DetectionService{
		statements: ss,
		resolver:   sr,
		embedder:   ec,
		judge:      js,
		logger:     logger,
	}
}

// Detect runs the full pipeline: resolve, retrieve, judge, aggregate.
//
// An ambiguous speaker is a result, not an error: the caller gets the
// candidate identities and decides. An unresolvable speaker is
// ErrSpeakerUnresolved.
func (s *DetectionService) Detect(ctx context.Context, req DetectRequest) (*domain.DetectionResult, error) {
	if req.Text == "" {
		return nil, ErrDetectTextEmpty
	}
	if req.Speaker == "" {
		return nil, ErrDetectSpeakerEmpty
	}

	result := &domain.DetectionResult{
		Status:    domain.DetectionOK,
		Statement: req.Text,
		Pairs:     []domain.JudgedPair{},
		Stage:     domain.StageResolving,
	}

	resolution, err := s.resolver.Resolve(ctx, req.Speaker)
	if err != nil {
		result.Stage = domain.StageFailed
		return nil, fmt.Errorf("resolve speaker: %w", err)
	}
	switch resolution.Status {
	case domain.ResolutionNoMatch:
		return nil, fmt.Errorf("%w: %s", ErrSpeakerUnresolved, req.Speaker)
	case domain.ResolutionAmbiguous:
		result.Status = domain.DetectionAmbiguousSpeaker
		result.AmbiguousCandidates = resolution.Candidates
		result.Indeterminate = true
		result.Stage = domain.StageDone
		result.AnalyzedAt = time.Now().UTC()
		return result, nil
	}
	result.Speaker = resolution.Identity

	result.Stage = domain.StageRetrieving
	embedding, err := s.embedder.Embed(ctx, req.Text)
	if err != nil {
		result.Stage = domain.StageFailed
		return nil, fmt.Errorf("embed statement: %w", err)
	}

	topK := req.TopK
	if topK <= 0 || topK > MaxCandidates {
		topK = MaxCandidates
	}
	candidates, err := s.statements.Retrieve(ctx, embedding, domain.RetrieveOpts{
		SpeakerKey: resolution.Identity.Key,
		From:       req.From,
		To:         req.To,
		Kind:       req.Kind,
		ExcludeID:  req.ExcludeID,
		TopK:       topK,
	})
	if err != nil {
		result.Stage = domain.StageFailed
		return nil, fmt.Errorf("retrieve prior statements: %w", err)
	}

	if len(candidates) == 0 {
		result.Indeterminate = true
		result.Stage = domain.StageDone
		result.AnalyzedAt = time.Now().UTC()
		return result, nil
	}

	result.Stage = domain.StageJudging
	current := &domain.StatementRecord{
		SpeakerKey: resolution.Identity.Key,
		Text:       req.Text,
		Date:       req.Date,
	}
	result.Pairs = s.judge.JudgeCandidates(ctx, current, resolution.Identity.CanonicalName, candidates)

	judged := 0
	for _, p := range result.Pairs {
		if p.Degraded {
			continue
		}
		judged++
		if p.Likelihood > result.Confidence {
			result.Confidence = p.Likelihood
		}
	}
	if judged == 0 {
		result.Indeterminate = true
		result.Confidence = 0
	} else {
		result.Contradiction = result.Confidence >= VerdictThreshold
	}

	result.Stage = domain.StageDone
	result.AnalyzedAt = time.Now().UTC()

	s.logger.Info("detection completed",
		zap.String("speaker_key", resolution.Identity.Key),
		zap.Int("pairs", len(result.Pairs)),
		zap.Int("judged", judged),
		zap.Float64("confidence", result.Confidence),
		zap.Bool("contradiction", result.Contradiction))

	return result, nil
}

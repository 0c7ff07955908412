package service

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/tutanak-ai/tutanak/internal/domain"
	"github.com/tutanak-ai/tutanak/internal/llm"
)

func TestJudgeCandidates_FiltersAndTruncates(t *testing.T) {
	judge := llm.NewMockClient()
	svc := NewJudgeService(judge, zap.NewNop())

	var candidates []domain.Candidate
	for i, sim := range []float64{0.95, 0.9, 0.85, 0.8, 0.75, 0.7, 0.4, 0.3} {
		candidates = append(candidates, candidate(fmt.Sprintf("önceki açıklama %d", i), sim, time.Time{}))
	}

	current := &domain.StatementRecord{Text: "güncel açıklama"}
	pairs := svc.JudgeCandidates(context.Background(), current, "METİN ERGUN", candidates)

	if len(pairs) != MaxCandidates {
		t.Fatalf("expected %d pairs, got %d", MaxCandidates, len(pairs))
	}
	if len(judge.JudgePairCalls) != MaxCandidates {
		t.Errorf("expected %d judgment calls, got %d", MaxCandidates, len(judge.JudgePairCalls))
	}
	for _, p := range pairs {
		if p.Similarity < MinSimilarity {
			t.Errorf("candidate below similarity floor was judged: %v", p.Similarity)
		}
	}
}

func TestJudgeCandidates_DegradesFailedPairs(t *testing.T) {
	judge := llm.NewMockClient()
	judge.JudgePairFunc = func(_, prior string, _ domain.PairContext) (*domain.PairJudgment, error) {
		if prior == "ikinci açıklama" {
			return nil, errors.New("rate limited")
		}
		return &domain.PairJudgment{Likelihood: 0.6, Kind: domain.ContradictionInconsistency}, nil
	}
	svc := NewJudgeService(judge, zap.NewNop())

	candidates := []domain.Candidate{
		candidate("ilk açıklama", 0.9, time.Time{}),
		candidate("ikinci açıklama", 0.8, time.Time{}),
	}

	pairs := svc.JudgeCandidates(context.Background(), &domain.StatementRecord{Text: "güncel"}, "METİN ERGUN", candidates)
	if len(pairs) != 2 {
		t.Fatalf("expected 2 pairs, got %d", len(pairs))
	}
	// Degraded pairs sort last.
	if pairs[0].Degraded {
		t.Error("judged pair should sort before the degraded one")
	}
	if !pairs[1].Degraded {
		t.Error("failed judgment should mark the pair degraded")
	}
	if pairs[1].Likelihood != 0 {
		t.Errorf("degraded likelihood = %v, want 0", pairs[1].Likelihood)
	}
}

func TestJudgeCandidates_SortsByLikelihood(t *testing.T) {
	likelihoods := map[string]float64{
		"alfa":  0.2,
		"beta":  0.9,
		"gamma": 0.55,
	}
	judge := llm.NewMockClient()
	judge.JudgePairFunc = func(_, prior string, _ domain.PairContext) (*domain.PairJudgment, error) {
		return &domain.PairJudgment{Likelihood: likelihoods[prior], Kind: domain.ContradictionInconsistency}, nil
	}
	svc := NewJudgeService(judge, zap.NewNop())

	candidates := []domain.Candidate{
		candidate("alfa", 0.9, time.Time{}),
		candidate("beta", 0.8, time.Time{}),
		candidate("gamma", 0.7, time.Time{}),
	}

	pairs := svc.JudgeCandidates(context.Background(), &domain.StatementRecord{Text: "güncel"}, "METİN ERGUN", candidates)
	want := []string{"beta", "gamma", "alfa"}
	for i, text := range want {
		if pairs[i].Text != text {
			t.Errorf("pairs[%d].Text = %s, want %s", i, pairs[i].Text, text)
		}
	}
}

func TestJudgeCandidates_PassesPairContext(t *testing.T) {
	judge := llm.NewMockClient()
	svc := NewJudgeService(judge, zap.NewNop())

	prior := candidate("önceki açıklama", 0.9, time.Date(2023, 6, 1, 0, 0, 0, 0, time.UTC))
	current := &domain.StatementRecord{
		Text: "güncel açıklama",
		Date: time.Date(2024, 3, 12, 0, 0, 0, 0, time.UTC),
	}

	svc.JudgeCandidates(context.Background(), current, "METİN ERGUN", []domain.Candidate{prior})

	if len(judge.JudgePairCalls) != 1 {
		t.Fatalf("expected 1 call, got %d", len(judge.JudgePairCalls))
	}
	pc := judge.JudgePairCalls[0].Context
	if pc.Speaker != "METİN ERGUN" {
		t.Errorf("speaker = %s", pc.Speaker)
	}
	if !pc.PriorDate.Equal(prior.Date) {
		t.Errorf("prior date = %v", pc.PriorDate)
	}
	if pc.PriorLocator != "komisyon_2641_20240312.pdf p.4" {
		t.Errorf("prior locator = %s", pc.PriorLocator)
	}
}

func TestJudgeCandidates_EmptyAfterFilter(t *testing.T) {
	judge := llm.NewMockClient()
	svc := NewJudgeService(judge, zap.NewNop())

	pairs := svc.JudgeCandidates(context.Background(), &domain.StatementRecord{Text: "güncel"}, "X",
		[]domain.Candidate{candidate("zayıf eşleşme", 0.2, time.Time{})})
	if len(pairs) != 0 {
		t.Fatalf("expected no pairs, got %d", len(pairs))
	}
	if len(judge.JudgePairCalls) != 0 {
		t.Errorf("judge should not be called for filtered candidates")
	}
}

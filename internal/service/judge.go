package service

import (
	"context"
	"sort"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/tutanak-ai/tutanak/internal/domain"
)

const (
	// MaxCandidates caps how many prior statements are judged per query.
	MaxCandidates = 5
	// MinSimilarity is the retrieval floor; weaker matches are noise.
	MinSimilarity = 0.5
	// DefaultJudgeWorkers bounds concurrent judgment calls.
	DefaultJudgeWorkers = 4
	// DefaultJudgeTimeout is the per-candidate deadline for the external call.
	DefaultJudgeTimeout = 20 * time.Second
)

// JudgeService fans candidate pairs out to the judgment capability. A failed
// call degrades that one pair instead of failing the query.
type JudgeService struct {
	judge   domain.JudgeClient
	workers int
	timeout time.Duration
	logger  *zap.Logger
}

func NewJudgeService(jc domain.JudgeClient, logger *zap.Logger) *JudgeService {
	return &JudgeService{
		judge:   jc,
		workers: DefaultJudgeWorkers,
		timeout: DefaultJudgeTimeout,
		logger:  logger,
	}
}

func (s *JudgeService) SetWorkers(n int) {
	if n > 0 {
		s.workers = n
	}
}

func (s *JudgeService) SetTimeout(d time.Duration) {
	if d > 0 {
		s.timeout = d
	}
}

// JudgeCandidates filters, truncates, and judges the candidate set. The
// returned pairs are sorted with judged pairs first (likelihood descending,
// similarity as tie-break) and degraded pairs last.
func (s *JudgeService) JudgeCandidates(ctx context.Context, current *domain.StatementRecord, speaker string, candidates []domain.Candidate) []domain.JudgedPair {
	eligible := candidates[:0:0]
	for _, c := range candidates {
		if c.Similarity >= MinSimilarity {
			eligible = append(eligible, c)
		}
	}
	sort.SliceStable(eligible, func(i, j int) bool {
		return eligible[i].Similarity > eligible[j].Similarity
	})
	if len(eligible) > MaxCandidates {
		eligible = eligible[:MaxCandidates]
	}
	if len(eligible) == 0 {
		return []domain.JudgedPair{}
	}

	results := make([]domain.JudgedPair, len(eligible))
	var wg sync.WaitGroup

	semaphore := make(chan struct{}, s.workers)

	for i, c := range eligible {
		wg.Add(1)
		go func(idx int, cand domain.Candidate) {
			defer wg.Done()

			select {
			case <-ctx.Done():
				results[idx] = degradedPair(cand)
				return
			case semaphore <- struct{}{}:
			}
			defer func() { <-semaphore }()

			results[idx] = s.judgeOne(ctx, current, speaker, cand)
		}(i, c)
	}

	wg.Wait()

	sort.SliceStable(results, func(i, j int) bool {
		if results[i].Degraded != results[j].Degraded {
			return !results[i].Degraded
		}
		if results[i].Likelihood != results[j].Likelihood {
			return results[i].Likelihood > results[j].Likelihood
		}
		return results[i].Similarity > results[j].Similarity
	})
	return results
}

func (s *JudgeService) judgeOne(ctx context.Context, current *domain.StatementRecord, speaker string, cand domain.Candidate) domain.JudgedPair {
	callCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	judgment, err := s.judge.JudgePair(callCtx, current.Text, cand.Text, domain.PairContext{
		Speaker:      speaker,
		CurrentDate:  current.Date,
		PriorDate:    cand.Date,
		PriorLocator: cand.Locator(),
	})
	if err != nil {
		s.logger.Warn("pair judgment failed",
			zap.String("prior_id", cand.ID.String()),
			zap.Error(err))
		return degradedPair(cand)
	}

	return domain.JudgedPair{
		Candidate:      cand,
		Likelihood:     judgment.Likelihood,
		Kind:           judgment.Kind,
		Rationale:      judgment.Rationale,
		ConflictPoints: judgment.ConflictPoints,
	}
}

func degradedPair(cand domain.Candidate) domain.JudgedPair {
	return domain.JudgedPair{
		Candidate: cand,
		Kind:      domain.ContradictionNone,
		Degraded:  true,
	}
}

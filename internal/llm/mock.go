package llm

import (
	"context"

	"github.com/tutanak-ai/tutanak/internal/domain"
)

// MockClient is a configurable judgment client for testing.
// Set the response fields to control what each call returns.
type MockClient struct {
	JudgePairResponse *domain.PairJudgment
	JudgePairError    error

	// JudgePairFunc, when set, overrides the static response per call.
	JudgePairFunc func(current, prior string, pc domain.PairContext) (*domain.PairJudgment, error)

	// Call tracking for assertions
	JudgePairCalls []struct {
		Current, Prior string
		Context        domain.PairContext
	}
}

func NewMockClient() *MockClient {
	return &MockClient{
		JudgePairResponse: &domain.PairJudgment{
			Likelihood: 0,
			Kind:       domain.ContradictionNone,
			Rationale:  "Mock judgment",
		},
	}
}

func (m *MockClient) JudgePair(ctx context.Context, current, prior string, pc domain.PairContext) (*domain.PairJudgment, error) {
	m.JudgePairCalls = append(m.JudgePairCalls, struct {
		Current, Prior string
		Context        domain.PairContext
	}{current, prior, pc})

	if m.JudgePairFunc != nil {
		return m.JudgePairFunc(current, prior, pc)
	}
	if m.JudgePairError != nil {
		return nil, m.JudgePairError
	}
	j := *m.JudgePairResponse
	return &j, nil
}

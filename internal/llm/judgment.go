package llm

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/tutanak-ai/tutanak/internal/domain"
)

func buildJudgePrompt(current, prior string, pc domain.PairContext) string {
	return fmt.Sprintf(judgePairPrompt,
		pc.Speaker,
		formatDate(pc.CurrentDate), current,
		formatDate(pc.PriorDate), pc.PriorLocator, prior,
	)
}

func formatDate(t time.Time) string {
	if t.IsZero() {
		return "date unknown"
	}
	return t.Format("2006-01-02")
}

type judgeResponse struct {
	Score          float64  `json:"score"`
	Kind           string   `json:"kind"`
	Rationale      string   `json:"rationale"`
	ConflictPoints []string `json:"conflict_points"`
}

// parseJudgment decodes the model's JSON answer into a normalized judgment.
// Scores are clamped to [0,100] and carried as a [0,1] likelihood; an
// unrecognized kind degrades to "none".
func parseJudgment(raw string) (*domain.PairJudgment, error) {
	raw = strings.TrimPrefix(raw, "```json")
	raw = strings.TrimPrefix(raw, "```")
	raw = strings.TrimSuffix(raw, "```")
	raw = strings.TrimSpace(raw)

	var resp judgeResponse
	if err := json.Unmarshal([]byte(raw), &resp); err != nil {
		return nil, fmt.Errorf("parse judgment result: %w (raw: %s)", err, raw)
	}

	if resp.Score < 0 {
		resp.Score = 0
	}
	if resp.Score > 100 {
		resp.Score = 100
	}

	kind := domain.ContradictionKind(resp.Kind)
	if !domain.ValidContradictionKind(resp.Kind) {
		kind = domain.ContradictionNone
	}

	return &domain.PairJudgment{
		Likelihood:     resp.Score / 100,
		Kind:           kind,
		Rationale:      resp.Rationale,
		ConflictPoints: resp.ConflictPoints,
	}, nil
}

package llm

import (
	"strings"
	"testing"
	"time"

	"github.com/tutanak-ai/tutanak/internal/domain"
)

func TestParseJudgment(t *testing.T) {
	j, err := parseJudgment(`{"score":85,"kind":"reversal","rationale":"position flipped","conflict_points":["tax rate"]}`)
	if err != nil {
		t.Fatalf("parseJudgment failed: %v", err)
	}
	if j.Likelihood != 0.85 {
		t.Errorf("likelihood = %v, want 0.85", j.Likelihood)
	}
	if j.Kind != domain.ContradictionReversal {
		t.Errorf("kind = %s", j.Kind)
	}
	if len(j.ConflictPoints) != 1 || j.ConflictPoints[0] != "tax rate" {
		t.Errorf("conflict points = %v", j.ConflictPoints)
	}
}

func TestParseJudgment_StripsMarkdownFences(t *testing.T) {
	j, err := parseJudgment("```json\n{\"score\":10,\"kind\":\"none\",\"rationale\":\"different topics\"}\n```")
	if err != nil {
		t.Fatalf("parseJudgment failed: %v", err)
	}
	if j.Likelihood != 0.1 {
		t.Errorf("likelihood = %v, want 0.1", j.Likelihood)
	}
}

func TestParseJudgment_ClampsAndDefaults(t *testing.T) {
	j, err := parseJudgment(`{"score":140,"kind":"paradox","rationale":"x"}`)
	if err != nil {
		t.Fatalf("parseJudgment failed: %v", err)
	}
	if j.Likelihood != 1 {
		t.Errorf("likelihood = %v, want 1", j.Likelihood)
	}
	if j.Kind != domain.ContradictionNone {
		t.Errorf("unknown kind should fall back to none, got %s", j.Kind)
	}
}

func TestParseJudgment_MalformedEchoesRaw(t *testing.T) {
	_, err := parseJudgment("the statements clearly contradict")
	if err == nil {
		t.Fatal("expected an error")
	}
	if !strings.Contains(err.Error(), "the statements clearly contradict") {
		t.Errorf("error should carry the raw response: %v", err)
	}
}

func TestBuildJudgePrompt(t *testing.T) {
	pc := domain.PairContext{
		Speaker:      "MAHİNUR ÖZDEMİR GÖKTAŞ",
		CurrentDate:  time.Date(2024, 3, 12, 0, 0, 0, 0, time.UTC),
		PriorLocator: "genel_kurul_055_20230601.pdf p.12",
	}
	prompt := buildJudgePrompt("current text", "prior text", pc)
	for _, want := range []string{"MAHİNUR ÖZDEMİR GÖKTAŞ", "2024-03-12", "date unknown", "genel_kurul_055_20230601.pdf p.12"} {
		if !strings.Contains(prompt, want) {
			t.Errorf("prompt missing %q", want)
		}
	}
}

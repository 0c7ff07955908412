package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/tutanak-ai/tutanak/internal/domain"
)

const (
	cerebrasAPIURL    = "https://api.cerebras.ai/v1/chat/completions"
	cerebrasModel     = "llama-3.3-70b"
	cerebrasMaxTokens = 1024
)

// CerebrasClient speaks the OpenAI-compatible chat API. It does not support
// response_format, so the prompt's JSON-only instruction carries the weight
// and parseJudgment strips any markdown fencing.
type CerebrasClient struct {
	apiKey     string
	httpClient *http.Client
}

func NewCerebrasClient(apiKey string) *CerebrasClient {
	return &CerebrasClient{
		apiKey:     apiKey,
		httpClient: &http.Client{Timeout: 60 * time.Second},
	}
}

type cerebrasRequest struct {
	Model               string          `json:"model"`
	Messages            []openAIMessage `json:"messages"`
	Temperature         float32         `json:"temperature"`
	MaxCompletionTokens int             `json:"max_completion_tokens"`
}

func (c *CerebrasClient) complete(ctx context.Context, prompt string) (string, error) {
	body, err := json.Marshal(cerebrasRequest{
		Model:               cerebrasModel,
		Messages:            []openAIMessage{{Role: "user", Content: prompt}},
		Temperature:         judgeTemperature,
		MaxCompletionTokens: cerebrasMaxTokens,
	})
	if err != nil {
		return "", fmt.Errorf("marshal cerebras request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, cerebrasAPIURL, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("create cerebras request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("cerebras request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read cerebras response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("cerebras API returned status %d: %s", resp.StatusCode, string(respBody))
	}

	var result openAIResponse
	if err := json.Unmarshal(respBody, &result); err != nil {
		return "", fmt.Errorf("unmarshal cerebras response: %w", err)
	}

	if result.Error != nil {
		return "", fmt.Errorf("cerebras API error: %s", result.Error.Message)
	}

	if len(result.Choices) == 0 {
		return "", fmt.Errorf("cerebras API returned no choices")
	}

	return strings.TrimSpace(result.Choices[0].Message.Content), nil
}

func (c *CerebrasClient) JudgePair(ctx context.Context, current, prior string, pc domain.PairContext) (*domain.PairJudgment, error) {
	raw, err := c.complete(ctx, buildJudgePrompt(current, prior, pc))
	if err != nil {
		return nil, fmt.Errorf("judge pair: %w", err)
	}
	return parseJudgment(raw)
}

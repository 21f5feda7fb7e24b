package zeroshot

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"net/http"
	"strings"
	"time"

	"github.com/Veraticus/dear-diary/internal/common"
	"github.com/Veraticus/dear-diary/internal/model"
	"github.com/Veraticus/dear-diary/internal/service"
)

const (
	defaultLLMBaseURL = "https://api.openai.com/v1"
	defaultLLMModel   = "gpt-4o-mini"
	llmSystemPrompt   = "You are a zero-shot text classifier. You MUST respond with ONLY a valid JSON object of the form {\"scores\": {\"<label>\": <number between 0 and 1>}} with one entry per candidate label, copied exactly. Do not include any explanatory text or markdown."
)

// llmPipeline asks a chat model to score the labels.
type llmPipeline struct {
	httpClient  *http.Client
	cache       *scoreCache
	baseURL     string
	apiKey      string
	model       string
	retry       service.RetryOptions
	temperature float64
}

func newLLMPipeline(cfg LLMConfig) (*llmPipeline, error) {
	if cfg.APIKey == "" {
		return nil, errors.New("LLM API key is required")
	}

	baseURL := strings.TrimRight(cfg.BaseURL, "/")
	if baseURL == "" {
		baseURL = defaultLLMBaseURL
	}
	modelName := cfg.Model
	if modelName == "" {
		modelName = defaultLLMModel
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	return &llmPipeline{
		baseURL:     baseURL,
		apiKey:      cfg.APIKey,
		model:       modelName,
		temperature: cfg.Temperature,
		cache:       newScoreCache(cfg.CacheTTL),
		retry: service.RetryOptions{
			MaxAttempts:  cfg.MaxAttempts,
			InitialDelay: 500 * time.Millisecond,
			MaxDelay:     10 * time.Second,
			Multiplier:   2.0,
		},
		httpClient: &http.Client{
			Timeout: timeout,
			Transport: &http.Transport{
				MaxIdleConns:        10,
				MaxIdleConnsPerHost: 10,
				IdleConnTimeout:     90 * time.Second,
			},
		},
	}, nil
}

// Classify implements Pipeline.
func (p *llmPipeline) Classify(ctx context.Context, text string, labels []string) (model.LabelScores, error) {
	if len(labels) == 0 {
		return model.LabelScores{}, nil
	}

	key := cacheKey(text, labels)
	if cached, ok := p.cache.get(key); ok {
		return cached, nil
	}

	var raw map[string]float64
	err := common.WithRetry(ctx, func() error {
		var reqErr error
		raw, reqErr = p.request(ctx, text, labels)
		return reqErr
	}, p.retry)
	if err != nil {
		return nil, err
	}

	scores := normalizeScores(raw, labels)
	p.cache.set(key, scores)
	return scores, nil
}

func (p *llmPipeline) request(ctx context.Context, text string, labels []string) (map[string]float64, error) {
	labelJSON, err := json.Marshal(labels)
	if err != nil {
		return nil, &common.RetryableError{Err: fmt.Errorf("failed to marshal labels: %w", err)}
	}

	requestBody := map[string]any{
		"model": p.model,
		"messages": []map[string]string{
			{"role": "system", "content": llmSystemPrompt},
			{"role": "user", "content": fmt.Sprintf("Candidate labels: %s\n\nText:\n%s", labelJSON, text)},
		},
		"temperature": p.temperature,
	}

	jsonBody, err := json.Marshal(requestBody)
	if err != nil {
		return nil, &common.RetryableError{Err: fmt.Errorf("failed to marshal request: %w", err)}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.baseURL+"/chat/completions", bytes.NewReader(jsonBody))
	if err != nil {
		return nil, &common.RetryableError{Err: fmt.Errorf("failed to create request: %w", err)}
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+p.apiKey)

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return nil, &common.RetryableError{Err: fmt.Errorf("request failed: %w", err), Retryable: true}
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &common.RetryableError{Err: fmt.Errorf("failed to read response: %w", err), Retryable: true}
	}

	switch {
	case resp.StatusCode == http.StatusTooManyRequests:
		return nil, fmt.Errorf("%w: %s", common.ErrRateLimit, string(body))
	case resp.StatusCode >= http.StatusInternalServerError:
		return nil, &common.RetryableError{
			Err:       fmt.Errorf("LLM API error (status %d): %s", resp.StatusCode, string(body)),
			Retryable: true,
		}
	case resp.StatusCode != http.StatusOK:
		return nil, &common.RetryableError{
			Err: fmt.Errorf("LLM API error (status %d): %s", resp.StatusCode, string(body)),
		}
	}

	var response chatResponse
	if err := json.Unmarshal(body, &response); err != nil {
		return nil, &common.RetryableError{Err: fmt.Errorf("failed to parse response: %w", err)}
	}
	if len(response.Choices) == 0 {
		return nil, &common.RetryableError{Err: errors.New("no completion choices returned"), Retryable: true}
	}

	var parsed struct {
		Scores map[string]float64 `json:"scores"`
	}
	content := stripCodeFence(response.Choices[0].Message.Content)
	if err := json.Unmarshal([]byte(content), &parsed); err != nil {
		return nil, &common.RetryableError{Err: fmt.Errorf("failed to parse JSON scores: %w", err), Retryable: true}
	}
	if len(parsed.Scores) == 0 {
		return nil, &common.RetryableError{Err: errors.New("no scores found in response"), Retryable: true}
	}
	return parsed.Scores, nil
}

// chatResponse is the subset of the chat completions response we read.
type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

// normalizeScores keeps only the requested labels, clamps each score into
// [0,1] and rescales so the scores sum to one when any is positive.
func normalizeScores(raw map[string]float64, labels []string) model.LabelScores {
	out := make(model.LabelScores, len(labels))
	var sum float64
	for i, label := range labels {
		v := raw[label]
		if math.IsNaN(v) || v < 0 {
			v = 0
		}
		if v > 1 {
			v = 1
		}
		out[i] = model.LabelScore{Label: label, Score: v}
		sum += v
	}
	if sum > 0 {
		for i := range out {
			out[i].Score /= sum
		}
	}
	out.Sort()
	return out
}

func stripCodeFence(content string) string {
	content = strings.TrimSpace(content)
	if !strings.HasPrefix(content, "```") {
		return content
	}
	content = strings.TrimPrefix(content, "```json")
	content = strings.TrimPrefix(content, "```")
	content = strings.TrimSuffix(content, "```")
	return strings.TrimSpace(content)
}

// Close stops the cache janitor.
func (p *llmPipeline) Close() error {
	p.cache.Close()
	return nil
}

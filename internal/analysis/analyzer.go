// Package analysis generates AI commentary on an owner's finances
// through the Gemini API.
package analysis

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"log/slog"
	"strings"

	"google.golang.org/genai"

	"finanzas/internal/cache"
	"finanzas/internal/core"
)

// Analyzer runs prompts against Gemini and caches responses keyed by
// owner and prompt fingerprint, so a repeated request over unchanged
// data does not hit the model twice.
type Analyzer struct {
	model  string
	cache  *cache.LRUCache[string]
	logger *slog.Logger

	// generate is swapped out in tests.
	generate func(ctx context.Context, prompt string) (string, error)
}

type Config struct {
	APIKey string
	Model  string
	Logger *slog.Logger
}

func NewAnalyzer(ctx context.Context, cfg Config) (*Analyzer, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:      cfg.APIKey,
		HTTPOptions: genai.HTTPOptions{APIVersion: "v1"},
	})
	if err != nil {
		return nil, fmt.Errorf("create genai client: %w", err)
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	a := &Analyzer{
		model:  cfg.Model,
		logger: logger,
	}
	a.generate = func(ctx context.Context, prompt string) (string, error) {
		contents := []*genai.Content{
			{
				Role:  "user",
				Parts: []*genai.Part{{Text: prompt}},
			},
		}
		resp, err := client.Models.GenerateContent(ctx, a.model, contents, nil)
		if err != nil {
			return "", fmt.Errorf("generate content: %w", err)
		}
		text := resp.Text()
		if text == "" {
			return "", fmt.Errorf("empty response from model")
		}
		return text, nil
	}

	return a, nil
}

// WithCache attaches a response cache.
func (a *Analyzer) WithCache(c *cache.LRUCache[string]) *Analyzer {
	a.cache = c
	return a
}

// Analyze produces the text for one analysis request. The transaction
// slice is expected to already be limited to the most recent entries.
func (a *Analyzer) Analyze(ctx context.Context, req core.Analysis, txs []core.Transaction, summary core.FinancialSummary, rate float64) (string, error) {
	prompt := BuildPrompt(req, txs, summary, rate)
	key := cacheKey(req.OwnerID, req.Type, prompt)

	if a.cache != nil {
		if cached, ok := a.cache.Get(key); ok {
			a.logger.DebugContext(ctx, "Analysis served from cache",
				"owner_id", req.OwnerID,
				"analysis_type", req.Type)
			return cached, nil
		}
	}

	raw, err := a.generate(ctx, prompt)
	if err != nil {
		return "", err
	}

	text := cleanModelResponse(raw)
	if a.cache != nil {
		a.cache.Set(key, text)
	}

	a.logger.InfoContext(ctx, "Analysis generated",
		"owner_id", req.OwnerID,
		"analysis_type", req.Type,
		"model", a.model,
		"response_chars", len(text))

	return text, nil
}

func cacheKey(ownerID string, analysisType core.AnalysisType, prompt string) string {
	sum := sha256.Sum256([]byte(prompt))
	return ownerID + ":" + string(analysisType) + ":" + hex.EncodeToString(sum[:8])
}

// cleanModelResponse strips Markdown code fences the model sometimes
// wraps its output in despite instructions.
func cleanModelResponse(raw string) string {
	s := strings.TrimSpace(raw)

	if strings.HasPrefix(s, "```") {
		if idx := strings.Index(s, "\n"); idx != -1 {
			s = s[idx+1:]
		} else {
			return s
		}
		s = strings.TrimSpace(s)
	}

	if strings.HasSuffix(s, "```") {
		s = s[:len(s)-3]
		s = strings.TrimSpace(s)
	}

	return s
}

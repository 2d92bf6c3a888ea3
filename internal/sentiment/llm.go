package sentiment

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/newthinker/polyedge/internal/llm"
)

const scorerSystemPrompt = `You rate news headlines for a prediction market analyst.
For each numbered headline, output a sentiment score between -1 (clearly negative for the event described) and 1 (clearly positive).
Return JSON of the form {"scores": [s1, s2, ...]} with exactly one score per headline, in order.`

// LLMScorer asks a language model to score texts in one batch.
// Any failure to produce a well-formed answer falls back to the lexicon.
type LLMScorer struct {
	llm      llm.Provider
	fallback *Lexicon
	logger   *zap.Logger
}

// NewLLMScorer creates an LLM-backed scorer.
func NewLLMScorer(provider llm.Provider, logger *zap.Logger) *LLMScorer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LLMScorer{llm: provider, fallback: NewLexicon(), logger: logger}
}

func (s *LLMScorer) Name() string { return "llm:" + s.llm.Name() }

type scoreResponse struct {
	Scores []float64 `json:"scores"`
}

// Score returns one score per text. It only returns an error if ctx is done.
func (s *LLMScorer) Score(ctx context.Context, texts []string) ([]float64, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	resp, err := s.llm.Chat(ctx, llm.ChatRequest{
		SystemPrompt: scorerSystemPrompt,
		Messages:     []llm.Message{{Role: "user", Content: buildPrompt(texts)}},
		MaxTokens:    16 + 8*len(texts),
		Temperature:  0,
		JSONMode:     true,
	})
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		s.logger.Warn("llm scoring failed, using lexicon", zap.Error(err))
		return s.fallback.Score(ctx, texts)
	}

	scores, err := parseScores(resp.Content, len(texts))
	if err != nil {
		s.logger.Warn("unparseable llm scores, using lexicon", zap.Error(err))
		return s.fallback.Score(ctx, texts)
	}
	return scores, nil
}

func buildPrompt(texts []string) string {
	var sb strings.Builder
	sb.WriteString("## Headlines:\n")
	for i, t := range texts {
		sb.WriteString(fmt.Sprintf("%d. %s\n", i+1, strings.TrimSpace(t)))
	}
	return sb.String()
}

func parseScores(content string, want int) ([]float64, error) {
	var out scoreResponse
	if err := json.Unmarshal([]byte(llm.ExtractJSON(content)), &out); err != nil {
		return nil, fmt.Errorf("decoding scores: %w", err)
	}
	if len(out.Scores) != want {
		return nil, fmt.Errorf("expected %d scores, got %d", want, len(out.Scores))
	}
	for i, v := range out.Scores {
		out.Scores[i] = clamp(v)
	}
	return out.Scores, nil
}

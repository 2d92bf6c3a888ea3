// Package sentiment scores short texts such as headlines and posts on a -1..1 scale.
package sentiment

import (
	"context"
	"strings"
	"unicode"
)

// Scorer assigns a score in [-1, 1] to each text, preserving order.
type Scorer interface {
	Name() string
	Score(ctx context.Context, texts []string) ([]float64, error)
}

// Lexicon scores texts by counting weighted polarity words.
type Lexicon struct {
	words map[string]float64
}

// NewLexicon returns a Lexicon seeded with the built-in word list.
func NewLexicon() *Lexicon {
	words := make(map[string]float64, len(positiveWords)+len(negativeWords))
	for _, w := range positiveWords {
		words[w] = 1
	}
	for _, w := range negativeWords {
		words[w] = -1
	}
	return &Lexicon{words: words}
}

// Add sets the polarity of a single word, overriding the built-in list.
func (l *Lexicon) Add(word string, weight float64) {
	l.words[strings.ToLower(word)] = weight
}

func (l *Lexicon) Name() string { return "lexicon" }

// Score never fails; texts with no polarity words score 0.
func (l *Lexicon) Score(_ context.Context, texts []string) ([]float64, error) {
	out := make([]float64, len(texts))
	for i, t := range texts {
		out[i] = l.ScoreText(t)
	}
	return out, nil
}

// ScoreText returns the mean polarity of the matched words, flipped after a negator.
func (l *Lexicon) ScoreText(text string) float64 {
	tokens := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && r != '\''
	})

	var sum float64
	var hits int
	negate := false
	for _, tok := range tokens {
		if negators[tok] {
			negate = true
			continue
		}
		w, ok := l.words[tok]
		if !ok {
			continue
		}
		if negate {
			w = -w
			negate = false
		}
		sum += w
		hits++
	}
	if hits == 0 {
		return 0
	}
	return clamp(sum / float64(hits))
}

func clamp(v float64) float64 {
	if v > 1 {
		return 1
	}
	if v < -1 {
		return -1
	}
	return v
}

var negators = map[string]bool{
	"not": true, "no": true, "never": true, "without": true, "isn't": true, "won't": true, "don't": true,
}

var positiveWords = []string{
	"win", "wins", "winning", "won", "lead", "leads", "leading", "surge", "surges", "soar", "soars",
	"gain", "gains", "rally", "rallies", "boost", "boosts", "strong", "strength", "record", "approve",
	"approved", "approval", "pass", "passes", "passed", "success", "successful", "victory", "favored",
	"likely", "confident", "optimism", "optimistic", "rise", "rises", "rising", "beat", "beats", "support",
	"momentum", "breakthrough", "agree", "agreement", "deal", "endorse", "endorsed", "up", "bullish",
}

var negativeWords = []string{
	"lose", "loses", "losing", "lost", "trail", "trails", "trailing", "plunge", "plunges", "drop", "drops",
	"fall", "falls", "falling", "crash", "crashes", "weak", "weakness", "reject", "rejected", "fail",
	"fails", "failed", "failure", "defeat", "defeated", "unlikely", "doubt", "doubts", "concern", "concerns",
	"pessimism", "pessimistic", "slump", "slumps", "scandal", "crisis", "delay", "delayed", "block",
	"blocked", "oppose", "opposed", "collapse", "down", "bearish", "threat", "risk", "shutdown",
}

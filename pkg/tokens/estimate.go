// Package tokens approximates LLM token counts without a tokenizer.
package tokens

import (
	"math"
	"strings"
	"unicode/utf8"
)

const (
	charsPerToken = 4.0
	tokensPerWord = 0.75
)

// Counter counts tokens in a text span.
type Counter interface {
	Count(text string) int
}

// Estimator is the heuristic Counter used by the context pipeline.
type Estimator struct{}

func (Estimator) Count(text string) int {
	return Estimate(text)
}

// Estimate returns the larger of a character based and a word based
// approximation, so it errs on the side of overcounting.
func Estimate(text string) int {
	if text == "" {
		return 0
	}

	byChars := int(math.Ceil(float64(utf8.RuneCountInString(text)) / charsPerToken))
	byWords := int(math.Ceil(float64(len(strings.Fields(text))) * tokensPerWord))

	return max(byChars, byWords)
}

// EstimateMultiple sums Estimate over texts. No per-item overhead is added.
func EstimateMultiple(texts []string) int {
	total := 0
	for _, t := range texts {
		total += Estimate(t)
	}
	return total
}

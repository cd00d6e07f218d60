package tokens

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"pgregory.net/rapid"
)

func TestEstimate(t *testing.T) {
	tests := []struct {
		name string
		text string
		want int
	}{
		{name: "empty", text: "", want: 0},
		{name: "single char", text: "a", want: 1},
		{name: "four chars", text: "abcd", want: 1},
		{name: "five chars", text: "abcde", want: 2},
		// 11 runes -> 3, 2 words -> 2
		{name: "chars dominate", text: "hello world", want: 3},
		// 8 runes -> 2, 4 words -> 3
		{name: "words dominate", text: "a b c de", want: 3},
		{name: "whitespace only", text: "        ", want: 2},
		{name: "multibyte counted as runes", text: "привет", want: 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Estimate(tt.text))
		})
	}
}

func TestEstimateMultiple(t *testing.T) {
	assert.Equal(t, 0, EstimateMultiple(nil))
	assert.Equal(t, 0, EstimateMultiple([]string{"", ""}))
	assert.Equal(t, Estimate("hello world")+Estimate("abcde"), EstimateMultiple([]string{"hello world", "abcde"}))
}

func TestEstimator_Count(t *testing.T) {
	var c Counter = Estimator{}
	assert.Equal(t, Estimate("some text here"), c.Count("some text here"))
}

func TestProperty_Estimate_NonNegative(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		text := rapid.String().Draw(rt, "text")
		assert.GreaterOrEqual(t, Estimate(text), Estimate(""))
	})
}

func TestProperty_Estimate_MonotonicInLength(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		n := rapid.IntRange(0, 500).Draw(rt, "n")
		extra := rapid.IntRange(0, 50).Draw(rt, "extra")
		short := strings.Repeat("ab ", n)
		long := strings.Repeat("ab ", n+extra)
		assert.LessOrEqual(t, Estimate(short), Estimate(long))
	})
}

func TestProperty_EstimateMultiple_IsSum(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		texts := rapid.SliceOf(rapid.String()).Draw(rt, "texts")
		sum := 0
		for _, s := range texts {
			sum += Estimate(s)
		}
		assert.Equal(t, sum, EstimateMultiple(texts))
	})
}

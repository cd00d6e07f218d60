// Package textsim scores lexical overlap between short texts.
package textsim

import "strings"

// Similarity returns the Jaccard index of the lower-cased word sets of a and b.
// Texts equal after trimming and case folding score 1; an empty text scores 0
// against anything else.
func Similarity(a, b string) float64 {
	na := strings.ToLower(strings.TrimSpace(a))
	nb := strings.ToLower(strings.TrimSpace(b))

	if na == nb {
		return 1.0
	}
	if na == "" || nb == "" {
		return 0.0
	}

	setA := wordSet(na)
	setB := wordSet(nb)

	intersection := 0
	for w := range setA {
		if _, ok := setB[w]; ok {
			intersection++
		}
	}

	union := len(setA) + len(setB) - intersection
	if union == 0 {
		return 0.0
	}
	return float64(intersection) / float64(union)
}

// Coverage returns the share of distinct query words that also occur in text.
func Coverage(query, text string) float64 {
	q := wordSet(strings.ToLower(query))
	if len(q) == 0 {
		return 0.0
	}
	t := wordSet(strings.ToLower(text))

	hits := 0
	for w := range q {
		if _, ok := t[w]; ok {
			hits++
		}
	}
	return float64(hits) / float64(len(q))
}

func wordSet(s string) map[string]struct{} {
	fields := strings.Fields(s)
	set := make(map[string]struct{}, len(fields))
	for _, f := range fields {
		set[f] = struct{}{}
	}
	return set
}

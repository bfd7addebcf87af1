package main

import (
	"strings"

	"github.com/pmezard/go-difflib/difflib"
)

const suggestCutoff = 0.6

// closestMatch returns the candidate most similar to word, if any is similar enough.
func closestMatch(word string, candidates []string) (string, bool) {
	word = strings.ToLower(strings.TrimSpace(word))
	if word == "" {
		return "", false
	}

	var (
		best      string
		bestRatio float64
	)
	m := difflib.NewMatcher(nil, strings.Split(word, ""))
	for _, c := range candidates {
		m.SetSeq1(strings.Split(strings.ToLower(c), ""))
		if m.QuickRatio() < suggestCutoff {
			continue
		}
		if r := m.Ratio(); r > bestRatio {
			best, bestRatio = c, r
		}
	}
	return best, bestRatio >= suggestCutoff
}

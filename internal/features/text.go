package features

import (
	"strings"

	"golang.org/x/text/cases"
)

// fold returns the case folded form of s. A Caser is stateful, so one is
// created per call to keep extraction safe for concurrent use.
func fold(s string) string {
	return cases.Fold().String(s)
}

// countMatches counts how many words of list occur in folded text
func countMatches(folded string, list []string) int {
	count := 0
	for _, word := range list {
		if strings.Contains(folded, fold(word)) {
			count++
		}
	}
	return count
}

// matchedWords returns the words of list found in folded text, in list order
func matchedWords(folded string, list []string) []string {
	found := make([]string, 0)
	seen := make(map[string]struct{}, len(list))
	for _, word := range list {
		if _, dup := seen[word]; dup {
			continue
		}
		if strings.Contains(folded, fold(word)) {
			seen[word] = struct{}{}
			found = append(found, word)
		}
	}
	return found
}

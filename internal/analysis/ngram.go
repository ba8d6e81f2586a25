package analysis

import "strings"

// NGrams slides a window of size n over tokens and joins each window with a
// single space. Windows made only of stop words are skipped; duplicates are
// kept so that callers can rank by frequency.
func NGrams(tokens []string, n int) []string {
	if n < 1 || len(tokens) < n {
		return nil
	}
	grams := make([]string, 0, len(tokens)-n+1)
	for i := 0; i+n <= len(tokens); i++ {
		window := tokens[i : i+n]
		if allStopWords(window) {
			continue
		}
		grams = append(grams, strings.Join(window, " "))
	}
	return grams
}

func allStopWords(window []string) bool {
	for _, tok := range window {
		if !IsStopWord(tok) {
			return false
		}
	}
	return true
}

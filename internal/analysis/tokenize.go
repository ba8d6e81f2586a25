package analysis

import (
	"strings"
	"unicode"
)

const (
	markupChars = ",;:\"()[]{}<>*_~#|/\\=+^`@&%$"
	edgeChars   = ".!?'\"…-–—‘’“”"
	minTokenLen = 2
)

// Tokenize lowercases text and splits it into word tokens. Markup is
// replaced with whitespace, edge punctuation is stripped, and pieces that
// are too short, purely numeric or carry no letters are dropped.
func Tokenize(text string) []string {
	if text == "" {
		return nil
	}
	cleaned := strings.Map(func(r rune) rune {
		switch {
		case unicode.IsControl(r) || strings.ContainsRune(markupChars, r):
			return ' '
		case r == '’':
			return '\''
		}
		return r
	}, strings.ToLower(text))

	fields := strings.Fields(cleaned)
	tokens := make([]string, 0, len(fields))
	for _, field := range fields {
		piece := strings.Trim(field, edgeChars)
		if !isWordToken(piece) {
			continue
		}
		tokens = append(tokens, piece)
	}
	return tokens
}

// Words splits text on whitespace without any normalization.
func Words(text string) []string {
	return strings.Fields(text)
}

func isWordToken(piece string) bool {
	if len([]rune(piece)) < minTokenLen || isNumeric(piece) {
		return false
	}
	for _, r := range piece {
		if unicode.IsLetter(r) {
			return true
		}
	}
	return false
}

func isNumeric(piece string) bool {
	digits := 0
	for _, r := range piece {
		switch {
		case unicode.IsDigit(r):
			digits++
		case r == '.' || r == ',' || r == '-' || r == ':':
		default:
			return false
		}
	}
	return digits > 0
}

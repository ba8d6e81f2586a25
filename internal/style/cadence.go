package style

import (
	"math"
	"slices"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/xxxsen/mreply/internal/model"
)

func measureCadence(drafts []string, sentences int) model.Cadence {
	var (
		emojis     int
		emojiMsgs  int
		exclaims   int
		questions  int
		upperWords int
		totalWords int
	)
	wordCounts := make([]int, 0, len(drafts))
	charCounts := make([]int, 0, len(drafts))
	for _, draft := range drafts {
		n := countEmoji(draft)
		emojis += n
		if n > 0 {
			emojiMsgs++
		}
		exclaims += strings.Count(draft, "!")
		questions += strings.Count(draft, "?")
		words := strings.Fields(draft)
		totalWords += len(words)
		for _, w := range words {
			if isShouted(w) {
				upperWords++
			}
		}
		wordCounts = append(wordCounts, len(words))
		charCounts = append(charCounts, utf8.RuneCountInString(strings.TrimSpace(draft)))
	}
	msgs := float64(len(drafts))
	return model.Cadence{
		EmojiRate:               ratio(float64(emojis), msgs),
		EmojiMessageShare:       ratio(float64(emojiMsgs), msgs),
		ExclamationsPerSentence: ratio(float64(exclaims), float64(sentences)),
		QuestionsPerSentence:    ratio(float64(questions), float64(sentences)),
		UppercaseRatio:          ratio(float64(upperWords), float64(totalWords)),
		TypicalWordCount:        median(wordCounts),
		TypicalCharCount:        median(charCounts),
	}
}

// isShouted reports whether a word is written fully in upper case, ignoring
// surrounding punctuation. Single letters such as "I" do not count.
func isShouted(word string) bool {
	core := strings.TrimFunc(word, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	if utf8.RuneCountInString(core) < 2 {
		return false
	}
	letters := 0
	for _, r := range core {
		if !unicode.IsLetter(r) {
			continue
		}
		if !unicode.IsUpper(r) {
			return false
		}
		letters++
	}
	return letters > 0
}

func countEmoji(text string) int {
	n := 0
	for _, r := range text {
		if isEmoji(r) {
			n++
		}
	}
	return n
}

func isEmoji(r rune) bool {
	switch {
	case r >= 0x1F3FB && r <= 0x1F3FF: // skin tone modifiers
		return false
	case r >= 0x1F300 && r <= 0x1FAFF:
		return true
	case r >= 0x1F000 && r <= 0x1F2FF:
		return true
	case r >= 0x2600 && r <= 0x27BF:
		return true
	case r >= 0x2300 && r <= 0x23FF:
		return true
	case r == 0x2B50 || r == 0x2B55 || r == 0x2764:
		return true
	}
	return false
}

func ratio(num, den float64) float64 {
	if den == 0 {
		return 0
	}
	return math.Round(num/den*10000) / 10000
}

func median(values []int) int {
	if len(values) == 0 {
		return 0
	}
	sorted := slices.Clone(values)
	slices.Sort(sorted)
	mid := len(sorted) / 2
	if len(sorted)%2 == 1 {
		return sorted[mid]
	}
	return int(math.Round(float64(sorted[mid-1]+sorted[mid]) / 2))
}

package style

import (
	"math"
	"regexp"
	"strings"

	"github.com/xxxsen/mreply/internal/analysis"
	"github.com/xxxsen/mreply/internal/model"
	appErr "github.com/xxxsen/mreply/internal/pkg/errors"
)

const (
	DefaultDraftWindow   = 200
	defaultTopTopics     = 10
	defaultTopPhrases    = 20
	defaultTopVocabulary = 5
	defaultMinRecurring  = 2
)

var sentenceSplitter = regexp.MustCompile(`[.?!]+`)

type Options struct {
	TopTopics     int
	TopPhrases    int
	TopVocabulary int
	MinRecurring  int
}

type Builder struct {
	opts Options
}

func NewBuilder(opts Options) *Builder {
	if opts.TopTopics <= 0 {
		opts.TopTopics = defaultTopTopics
	}
	if opts.TopPhrases <= 0 {
		opts.TopPhrases = defaultTopPhrases
	}
	if opts.TopVocabulary <= 0 {
		opts.TopVocabulary = defaultTopVocabulary
	}
	if opts.MinRecurring <= 0 {
		opts.MinRecurring = defaultMinRecurring
	}
	return &Builder{opts: opts}
}

// Analysis is a candidate fingerprint together with the raw counts it was
// derived from. It is never persisted as is.
type Analysis struct {
	Fingerprint   *model.StyleFingerprint `json:"fingerprint"`
	SentenceCount int                     `json:"sentence_count"`
	WordCount     int                     `json:"word_count"`
	Diff          *FingerprintDiff        `json:"diff,omitempty"`
}

// Build mines drafts into a candidate fingerprint. Blank drafts are ignored;
// if nothing is left ErrNothingToAnalyze is returned.
func (b *Builder) Build(ownerID string, drafts []string) (*Analysis, error) {
	samples := make([]string, 0, len(drafts))
	for _, d := range drafts {
		if strings.TrimSpace(d) != "" {
			samples = append(samples, d)
		}
	}
	if len(samples) == 0 {
		return nil, appErr.ErrNothingToAnalyze
	}

	var (
		sentences int
		words     int
		topics    []string
		bigrams   []string
		trigrams  []string
		openers   []string
		closers   []string
		slang     []string
	)
	for _, draft := range samples {
		sentences += countSentences(draft)
		words += len(analysis.Words(draft))

		tokens := analysis.Tokenize(draft)
		topics = append(topics, analysis.RemoveStopWords(tokens)...)
		bigrams = append(bigrams, analysis.NGrams(tokens, 2)...)
		trigrams = append(trigrams, analysis.NGrams(tokens, 3)...)
		slang = append(slang, slangTokens(tokens)...)
		if len(tokens) == 0 {
			continue
		}
		if first := tokens[0]; !analysis.IsStopWord(first) {
			openers = append(openers, first)
		}
		if last := tokens[len(tokens)-1]; !analysis.IsStopWord(last) {
			closers = append(closers, last)
		}
	}

	fp := &model.StyleFingerprint{
		OwnerID:           ownerID,
		SampleSize:        len(samples),
		AvgSentenceLength: averageSentenceLength(words, sentences),
		Topics:            orEmpty(analysis.TopK(topics, b.opts.TopTopics)),
		Bigrams:           orEmpty(analysis.TopK(bigrams, b.opts.TopPhrases)),
		Trigrams:          orEmpty(analysis.TopK(trigrams, b.opts.TopPhrases)),
		Cadence:           measureCadence(samples, sentences),
		Greetings:         orEmpty(analysis.TopKMin(openers, b.opts.TopVocabulary, b.opts.MinRecurring)),
		Closings:          orEmpty(analysis.TopKMin(closers, b.opts.TopVocabulary, b.opts.MinRecurring)),
		Slang:             orEmpty(analysis.TopKMin(slang, b.opts.TopVocabulary, b.opts.MinRecurring)),
	}
	return &Analysis{
		Fingerprint:   fp,
		SentenceCount: sentences,
		WordCount:     words,
	}, nil
}

func countSentences(draft string) int {
	n := 0
	for _, piece := range sentenceSplitter.Split(draft, -1) {
		if strings.TrimSpace(piece) != "" {
			n++
		}
	}
	return n
}

func averageSentenceLength(words, sentences int) int {
	if sentences == 0 {
		return 0
	}
	return int(math.Round(float64(words) / float64(sentences)))
}

func orEmpty(items []string) []string {
	if items == nil {
		return []string{}
	}
	return items
}

package service

import (
	"unicode/utf8"

	"github.com/xxxsen/mreply/internal/model"
)

const DefaultMaxExcerptRunes = 1000

type Limits struct {
	Exchanges       int
	Documents       int
	MaxExcerptRunes int
}

func (l Limits) withDefaults() Limits {
	if l.Exchanges <= 0 {
		l.Exchanges = DefaultExchangeLimit
	}
	if l.Documents <= 0 {
		l.Documents = DefaultDocumentLimit
	}
	if l.MaxExcerptRunes <= 0 {
		l.MaxExcerptRunes = DefaultMaxExcerptRunes
	}
	return l
}

// Assemble builds the context handed to the generator. It has no side
// effects: the inputs are copied, re-ordered and capped, and empty
// sections are left nil.
func Assemble(fp *model.StyleFingerprint, exchanges []model.ExchangeMatch, documents []model.ChunkMatch, limits Limits) *model.AssembledContext {
	limits = limits.withDefaults()
	out := &model.AssembledContext{
		Exchanges: rankMatches(exchanges, exchangeCtime, limits.Exchanges),
		Documents: rankMatches(documents, chunkCtime, limits.Documents),
	}
	if fp != nil {
		out.Style = fp.Clone()
	}
	for i := range out.Documents {
		out.Documents[i].Record.Content = truncateRunes(out.Documents[i].Record.Content, limits.MaxExcerptRunes)
	}
	return out
}

func truncateRunes(s string, max int) string {
	if utf8.RuneCountInString(s) <= max {
		return s
	}
	return string([]rune(s)[:max])
}

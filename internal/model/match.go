package model

import "strings"

// RetrievedMatch pairs a stored record with its similarity to a query.
type RetrievedMatch[T any] struct {
	Record     T       `json:"record"`
	Similarity float64 `json:"similarity"`
}

type (
	ExchangeMatch = RetrievedMatch[Exchange]
	ChunkMatch    = RetrievedMatch[DocumentChunk]
)

type AssembledContext struct {
	Style     *StyleFingerprint `json:"style,omitempty"`
	Exchanges []ExchangeMatch   `json:"exchanges,omitempty"`
	Documents []ChunkMatch      `json:"documents,omitempty"`
}

func (c *AssembledContext) IsEmpty() bool {
	return c == nil || (c.Style == nil && len(c.Exchanges) == 0 && len(c.Documents) == 0)
}

// JoinQuery builds the text used to embed a screenshot and draft pair.
func JoinQuery(screenshot, draft string) string {
	screenshot = strings.TrimSpace(screenshot)
	draft = strings.TrimSpace(draft)
	switch {
	case screenshot == "":
		return draft
	case draft == "":
		return screenshot
	}
	return screenshot + "\n" + draft
}

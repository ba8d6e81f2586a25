package model

import (
	"fmt"
	"math"
	"strings"

	appErr "github.com/xxxsen/mreply/internal/pkg/errors"
)

type Cadence struct {
	EmojiRate               float64 `json:"emoji_rate"`
	EmojiMessageShare       float64 `json:"emoji_message_share"`
	ExclamationsPerSentence float64 `json:"exclamations_per_sentence"`
	QuestionsPerSentence    float64 `json:"questions_per_sentence"`
	UppercaseRatio          float64 `json:"uppercase_ratio"`
	TypicalWordCount        int     `json:"typical_word_count"`
	TypicalCharCount        int     `json:"typical_char_count"`
}

type Profile struct {
	DisplayName string `json:"display_name,omitempty"`
	Occupation  string `json:"occupation,omitempty"`
	About       string `json:"about,omitempty"`
	Notes       string `json:"notes,omitempty"`
}

type StyleFingerprint struct {
	OwnerID           string   `json:"owner_id"`
	SampleSize        int      `json:"sample_size"`
	AvgSentenceLength int      `json:"avg_sentence_length"`
	Topics            []string `json:"topics"`
	Bigrams           []string `json:"bigrams"`
	Trigrams          []string `json:"trigrams"`
	Cadence           Cadence  `json:"cadence"`
	Greetings         []string `json:"greetings"`
	Closings          []string `json:"closings"`
	Slang             []string `json:"slang"`
	Profile           Profile  `json:"profile"`
	Ctime             int64    `json:"ctime"`
	Mtime             int64    `json:"mtime"`
}

// PhraseCount is the number of bigrams and trigrams combined.
func (f *StyleFingerprint) PhraseCount() int {
	return len(f.Bigrams) + len(f.Trigrams)
}

// Validate checks the invariants every persisted fingerprint must hold.
func (f *StyleFingerprint) Validate() error {
	if f == nil {
		return fmt.Errorf("nil fingerprint: %w", appErr.ErrInvalid)
	}
	if strings.TrimSpace(f.OwnerID) == "" {
		return fmt.Errorf("fingerprint owner is required: %w", appErr.ErrInvalid)
	}
	if f.SampleSize < 0 || f.AvgSentenceLength < 0 {
		return fmt.Errorf("fingerprint counters must be non-negative: %w", appErr.ErrInvalid)
	}
	for _, field := range f.ListFields() {
		if err := validateList(*field.Items); err != nil {
			return fmt.Errorf("fingerprint %s: %w", field.Name, err)
		}
	}
	c := f.Cadence
	for _, v := range []float64{c.EmojiRate, c.EmojiMessageShare, c.ExclamationsPerSentence, c.QuestionsPerSentence, c.UppercaseRatio} {
		if v < 0 || math.IsNaN(v) || math.IsInf(v, 0) {
			return fmt.Errorf("fingerprint cadence out of range: %w", appErr.ErrInvalid)
		}
	}
	if c.EmojiMessageShare > 1 || c.UppercaseRatio > 1 || c.TypicalWordCount < 0 || c.TypicalCharCount < 0 {
		return fmt.Errorf("fingerprint cadence out of range: %w", appErr.ErrInvalid)
	}
	return nil
}

type ListField struct {
	Name  string
	Items *[]string
}

// ListFields exposes the editable vocabulary lists by name.
func (f *StyleFingerprint) ListFields() []ListField {
	return []ListField{
		{Name: "topics", Items: &f.Topics},
		{Name: "bigrams", Items: &f.Bigrams},
		{Name: "trigrams", Items: &f.Trigrams},
		{Name: "greetings", Items: &f.Greetings},
		{Name: "closings", Items: &f.Closings},
		{Name: "slang", Items: &f.Slang},
	}
}

// Clone returns a deep copy so callers can edit lists freely.
func (f *StyleFingerprint) Clone() *StyleFingerprint {
	if f == nil {
		return nil
	}
	out := *f
	for i, field := range out.ListFields() {
		src := *f.ListFields()[i].Items
		if src != nil {
			*field.Items = append([]string(nil), src...)
		}
	}
	return &out
}

func validateList(items []string) error {
	seen := make(map[string]struct{}, len(items))
	for _, item := range items {
		if item == "" || item != strings.TrimSpace(item) {
			return fmt.Errorf("blank or untrimmed item %q: %w", item, appErr.ErrInvalid)
		}
		key := strings.ToLower(item)
		if _, ok := seen[key]; ok {
			return fmt.Errorf("duplicate item %q: %w", item, appErr.ErrInvalid)
		}
		seen[key] = struct{}{}
	}
	return nil
}

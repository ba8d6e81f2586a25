package style

import (
	"strings"

	"github.com/xxxsen/mreply/internal/model"
)

type ListDiff struct {
	Added   []string `json:"added,omitempty"`
	Removed []string `json:"removed,omitempty"`
}

func (d ListDiff) Empty() bool {
	return len(d.Added) == 0 && len(d.Removed) == 0
}

type FingerprintDiff struct {
	Topics          ListDiff `json:"topics"`
	Bigrams         ListDiff `json:"bigrams"`
	Trigrams        ListDiff `json:"trigrams"`
	SampleSizeDelta int      `json:"sample_size_delta"`
}

func (d *FingerprintDiff) Empty() bool {
	return d.Topics.Empty() && d.Bigrams.Empty() && d.Trigrams.Empty() && d.SampleSizeDelta == 0
}

// Diff compares a candidate against the stored fingerprint. A nil prev
// reports every item of next as added.
func Diff(prev, next *model.StyleFingerprint) *FingerprintDiff {
	if next == nil {
		return nil
	}
	if prev == nil {
		prev = &model.StyleFingerprint{}
	}
	return &FingerprintDiff{
		Topics:          diffList(prev.Topics, next.Topics),
		Bigrams:         diffList(prev.Bigrams, next.Bigrams),
		Trigrams:        diffList(prev.Trigrams, next.Trigrams),
		SampleSizeDelta: next.SampleSize - prev.SampleSize,
	}
}

func diffList(prev, next []string) ListDiff {
	var d ListDiff
	d.Added = missingFrom(next, prev)
	d.Removed = missingFrom(prev, next)
	return d
}

// missingFrom returns the items of a that b does not contain, in a's order.
func missingFrom(a, b []string) []string {
	set := make(map[string]struct{}, len(b))
	for _, item := range b {
		set[strings.ToLower(item)] = struct{}{}
	}
	var out []string
	for _, item := range a {
		if _, ok := set[strings.ToLower(item)]; !ok {
			out = append(out, item)
		}
	}
	return out
}

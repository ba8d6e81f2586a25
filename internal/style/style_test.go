package style

import (
	"testing"

	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"github.com/xxxsen/mreply/internal/model"
	appErr "github.com/xxxsen/mreply/internal/pkg/errors"
)

func TestBuildThanksScenario(t *testing.T) {
	drafts := []string{
		"thanks so much for reaching out",
		"thanks for reaching out, appreciate it",
		"thanks a lot, appreciate it",
	}
	res, err := NewBuilder(Options{}).Build("u1", drafts)
	require.NoError(t, err)
	fp := res.Fingerprint

	require.Equal(t, 3, res.SentenceCount)
	require.Equal(t, 17, res.WordCount)
	require.Equal(t, 6, fp.AvgSentenceLength)
	require.Equal(t, 3, fp.SampleSize)
	require.Equal(t, "u1", fp.OwnerID)
	require.Equal(t, []string{"thanks", "appreciate", "reaching", "lot"}, fp.Topics)
	require.Contains(t, fp.Bigrams, "thanks for")
	require.Contains(t, fp.Bigrams, "appreciate it")
	require.NotContains(t, fp.Bigrams, "so much")
	require.NotContains(t, fp.Bigrams, "out thanks")
	require.Equal(t, []string{"thanks"}, fp.Greetings)
	require.Empty(t, fp.Closings)
	require.NoError(t, fp.Validate())
}

func TestBuildNothingToAnalyze(t *testing.T) {
	b := NewBuilder(Options{})
	for _, drafts := range [][]string{nil, {}, {"  ", "\n"}} {
		res, err := b.Build("u1", drafts)
		require.Nil(t, res)
		require.ErrorIs(t, err, appErr.ErrNothingToAnalyze)
	}
}

func TestBuildFoundNothingInteresting(t *testing.T) {
	res, err := NewBuilder(Options{}).Build("u1", []string{"ok", "the"})
	require.NoError(t, err)
	require.Equal(t, 2, res.Fingerprint.SampleSize)
	require.Empty(t, res.Fingerprint.Topics)
	require.NotNil(t, res.Fingerprint.Topics)
	_, err = Confirm(res.Fingerprint)
	require.ErrorIs(t, err, appErr.ErrInsufficientSignal)
}

func TestMeasureCadence(t *testing.T) {
	drafts := []string{"Hi there! 😀", "WHAT is this?", "ok."}
	res, err := NewBuilder(Options{}).Build("u1", drafts)
	require.NoError(t, err)
	require.Equal(t, 4, res.SentenceCount)
	require.Equal(t, model.Cadence{
		EmojiRate:               0.3333,
		EmojiMessageShare:       0.3333,
		ExclamationsPerSentence: 0.25,
		QuestionsPerSentence:    0.25,
		UppercaseRatio:          0.1429,
		TypicalWordCount:        3,
		TypicalCharCount:        11,
	}, res.Fingerprint.Cadence)
}

func TestVocabularyNeedsRecurrence(t *testing.T) {
	drafts := []string{
		"hey lol see you at noon, cheers",
		"hey gonna be late lol, cheers",
		"sorry gonna skip today",
	}
	res, err := NewBuilder(Options{}).Build("u1", drafts)
	require.NoError(t, err)
	require.Equal(t, []string{"hey"}, res.Fingerprint.Greetings)
	require.Equal(t, []string{"cheers"}, res.Fingerprint.Closings)
	require.Equal(t, []string{"gonna", "lol"}, res.Fingerprint.Slang)
}

func TestBuildIsIdempotent(t *testing.T) {
	words := []string{"thanks", "meeting", "the", "for", "coffee", "lol", "Great", "!", "?", "😀", "tomorrow."}
	rapid.Check(t, func(rt *rapid.T) {
		drafts := rapid.SliceOfN(
			rapid.Custom(func(rt *rapid.T) string {
				parts := rapid.SliceOfN(rapid.SampledFrom(words), 1, 8).Draw(rt, "parts")
				out := ""
				for i, p := range parts {
					if i > 0 {
						out += " "
					}
					out += p
				}
				return out
			}), 1, 12).Draw(rt, "drafts")
		b := NewBuilder(Options{})
		first, err := b.Build("u1", drafts)
		require.NoError(rt, err)
		second, err := b.Build("u1", drafts)
		require.NoError(rt, err)
		require.Equal(rt, first, second)
	})
}

func TestConfirmGate(t *testing.T) {
	tests := []struct {
		name    string
		fp      model.StyleFingerprint
		wantErr error
	}{
		{name: "three topics", fp: model.StyleFingerprint{OwnerID: "u1", Topics: []string{"a1", "b1", "c1"}}},
		{name: "two phrases", fp: model.StyleFingerprint{OwnerID: "u1", Bigrams: []string{"thanks for"}, Trigrams: []string{"see you soon"}}},
		{name: "two topics one phrase", fp: model.StyleFingerprint{OwnerID: "u1", Topics: []string{"a1", "b1"}, Bigrams: []string{"thanks for"}}, wantErr: appErr.ErrInsufficientSignal},
		{name: "duplicates collapse below gate", fp: model.StyleFingerprint{OwnerID: "u1", Topics: []string{"a1", " A1 ", "b1"}}, wantErr: appErr.ErrInsufficientSignal},
		{name: "missing owner", fp: model.StyleFingerprint{Topics: []string{"a1", "b1", "c1"}}, wantErr: appErr.ErrInvalid},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Confirm(&tt.fp)
			if tt.wantErr == nil {
				require.NoError(t, err)
				return
			}
			require.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestApplyEdits(t *testing.T) {
	fp := &model.StyleFingerprint{
		OwnerID: "u1",
		Topics:  []string{"thanks", "meeting", "coffee"},
		Bigrams: []string{"thanks for"},
	}
	out, err := ApplyEdits(fp, []Edit{
		{Field: "topics", Action: EditRemove, Value: "MEETING"},
		{Field: "topics", Action: EditAdd, Value: "  lunch  "},
		{Field: "topics", Action: EditAdd, Value: "thanks"},
		{Field: "topics", Action: EditReplace, Value: "coffee", NewValue: "tea"},
		{Field: "slang", Action: EditAdd, Value: "lol"},
	})
	require.NoError(t, err)
	require.Equal(t, []string{"thanks", "tea", "lunch"}, out.Topics)
	require.Equal(t, []string{"lol"}, out.Slang)
	require.Equal(t, []string{"thanks", "meeting", "coffee"}, fp.Topics)

	_, err = ApplyEdits(fp, []Edit{{Field: "moods", Action: EditAdd, Value: "x"}})
	require.ErrorIs(t, err, appErr.ErrInvalid)
	_, err = ApplyEdits(fp, []Edit{{Field: "topics", Action: "rename", Value: "x"}})
	require.ErrorIs(t, err, appErr.ErrInvalid)
	_, err = ApplyEdits(fp, []Edit{{Field: "topics", Action: EditReplace, Value: "absent", NewValue: "x"}})
	require.ErrorIs(t, err, appErr.ErrInvalid)
}

func TestNormalizeIdempotent(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		items := rapid.SliceOf(rapid.StringMatching(` ?[a-cA-C]{0,3}( [a-c]{1,2})? ?`)).Draw(rt, "items")
		fp := &model.StyleFingerprint{OwnerID: "u1", Topics: items}
		once := Normalize(fp)
		twice := Normalize(once)
		require.Equal(rt, once, twice)
		require.NoError(rt, once.Validate())
		require.LessOrEqual(rt, len(once.Topics), len(items))
	})
}

func TestDiff(t *testing.T) {
	prev := &model.StyleFingerprint{SampleSize: 4, Topics: []string{"thanks", "coffee"}, Bigrams: []string{"thanks for"}}
	next := &model.StyleFingerprint{SampleSize: 6, Topics: []string{"thanks", "lunch"}, Bigrams: []string{"thanks for"}}
	d := Diff(prev, next)
	require.Equal(t, []string{"lunch"}, d.Topics.Added)
	require.Equal(t, []string{"coffee"}, d.Topics.Removed)
	require.True(t, d.Bigrams.Empty())
	require.Equal(t, 2, d.SampleSizeDelta)
	require.False(t, d.Empty())

	fresh := Diff(nil, next)
	require.Equal(t, []string{"thanks", "lunch"}, fresh.Topics.Added)
	require.Nil(t, Diff(prev, nil))
}

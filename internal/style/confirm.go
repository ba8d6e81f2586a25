package style

import (
	"fmt"
	"strings"

	"github.com/xxxsen/mreply/internal/model"
	appErr "github.com/xxxsen/mreply/internal/pkg/errors"
)

const (
	minConfirmTopics  = 3
	minConfirmPhrases = 2
)

type EditAction string

const (
	EditAdd     EditAction = "add"
	EditRemove  EditAction = "remove"
	EditReplace EditAction = "replace"
)

type Edit struct {
	Field    string     `json:"field"`
	Action   EditAction `json:"action"`
	Value    string     `json:"value"`
	NewValue string     `json:"new_value,omitempty"`
}

// ApplyEdits applies per-item edits to a copy of fp and returns the
// normalized result. fp itself is left untouched.
func ApplyEdits(fp *model.StyleFingerprint, edits []Edit) (*model.StyleFingerprint, error) {
	if fp == nil {
		return nil, fmt.Errorf("no fingerprint to edit: %w", appErr.ErrInvalid)
	}
	out := fp.Clone()
	for i, edit := range edits {
		items := findList(out, edit.Field)
		if items == nil {
			return nil, fmt.Errorf("edit %d: unknown field %q: %w", i, edit.Field, appErr.ErrInvalid)
		}
		value := strings.TrimSpace(edit.Value)
		if value == "" {
			return nil, fmt.Errorf("edit %d: empty value: %w", i, appErr.ErrInvalid)
		}
		switch edit.Action {
		case EditAdd:
			*items = append(*items, value)
		case EditRemove:
			*items = removeItem(*items, value)
		case EditReplace:
			next := strings.TrimSpace(edit.NewValue)
			if next == "" {
				return nil, fmt.Errorf("edit %d: empty replacement: %w", i, appErr.ErrInvalid)
			}
			idx := indexOf(*items, value)
			if idx < 0 {
				return nil, fmt.Errorf("edit %d: %q not in %s: %w", i, value, edit.Field, appErr.ErrInvalid)
			}
			(*items)[idx] = next
		default:
			return nil, fmt.Errorf("edit %d: unknown action %q: %w", i, edit.Action, appErr.ErrInvalid)
		}
	}
	return Normalize(out), nil
}

// Normalize returns a copy of fp with every list trimmed and deduplicated.
// The first occurrence of an item wins and the order is kept.
func Normalize(fp *model.StyleFingerprint) *model.StyleFingerprint {
	if fp == nil {
		return nil
	}
	out := fp.Clone()
	for _, field := range out.ListFields() {
		*field.Items = normalizeList(*field.Items)
	}
	out.OwnerID = strings.TrimSpace(out.OwnerID)
	out.Profile = model.Profile{
		DisplayName: strings.TrimSpace(out.Profile.DisplayName),
		Occupation:  strings.TrimSpace(out.Profile.Occupation),
		About:       strings.TrimSpace(out.Profile.About),
		Notes:       strings.TrimSpace(out.Profile.Notes),
	}
	return out
}

// CheckSignal rejects fingerprints too sparse to be worth keeping.
func CheckSignal(fp *model.StyleFingerprint) error {
	if len(fp.Topics) >= minConfirmTopics || fp.PhraseCount() >= minConfirmPhrases {
		return nil
	}
	return fmt.Errorf("%d topics and %d phrases: %w", len(fp.Topics), fp.PhraseCount(), appErr.ErrInsufficientSignal)
}

// Confirm normalizes an owner-reviewed fingerprint and checks that it is
// both valid and carries enough signal to be stored.
func Confirm(fp *model.StyleFingerprint) (*model.StyleFingerprint, error) {
	if fp == nil {
		return nil, fmt.Errorf("no fingerprint to confirm: %w", appErr.ErrInvalid)
	}
	out := Normalize(fp)
	if err := CheckSignal(out); err != nil {
		return nil, err
	}
	if err := out.Validate(); err != nil {
		return nil, err
	}
	return out, nil
}

func normalizeList(items []string) []string {
	out := make([]string, 0, len(items))
	seen := make(map[string]struct{}, len(items))
	for _, item := range items {
		item = strings.Join(strings.Fields(item), " ")
		if item == "" {
			continue
		}
		key := strings.ToLower(item)
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, item)
	}
	return out
}

func findList(fp *model.StyleFingerprint, name string) *[]string {
	name = strings.ToLower(strings.TrimSpace(name))
	for _, field := range fp.ListFields() {
		if field.Name == name {
			return field.Items
		}
	}
	return nil
}

func indexOf(items []string, value string) int {
	for i, item := range items {
		if strings.EqualFold(strings.TrimSpace(item), value) {
			return i
		}
	}
	return -1
}

func removeItem(items []string, value string) []string {
	out := items[:0:0]
	for _, item := range items {
		if strings.EqualFold(strings.TrimSpace(item), value) {
			continue
		}
		out = append(out, item)
	}
	return out
}

package service

import (
	"context"
	"fmt"
	"time"

	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"github.com/xxxsen/mreply/internal/model"
	appErr "github.com/xxxsen/mreply/internal/pkg/errors"
	"github.com/xxxsen/mreply/internal/style"
)

type StyleService struct {
	exchanges    ExchangeStore
	fingerprints FingerprintStore
	builder      *style.Builder
	window       int
	now          func() time.Time
}

func NewStyleService(exchanges ExchangeStore, fingerprints FingerprintStore, builder *style.Builder, window int) *StyleService {
	if window <= 0 {
		window = style.DefaultDraftWindow
	}
	return &StyleService{exchanges: exchanges, fingerprints: fingerprints, builder: builder, window: window, now: time.Now}
}

// Analyze mines the owner's recent drafts into a candidate and diffs it
// against the stored fingerprint. Nothing is persisted.
func (s *StyleService) Analyze(ctx context.Context, ownerID string) (*style.Analysis, error) {
	drafts, err := s.exchanges.ListRecentDrafts(ctx, ownerID, uint(s.window))
	if err != nil {
		return nil, fmt.Errorf("load drafts: %w", err)
	}
	analysis, err := s.builder.Build(ownerID, drafts)
	if err != nil {
		return nil, err
	}
	prev, err := s.fingerprints.Get(ctx, ownerID)
	switch {
	case err == nil:
		analysis.Fingerprint.Profile = prev.Profile
	case appErr.IsNotFound(err):
		prev = nil
	default:
		return nil, fmt.Errorf("load fingerprint: %w", err)
	}
	analysis.Diff = style.Diff(prev, analysis.Fingerprint)
	logutil.GetLogger(ctx).Info("style analyzed",
		zap.String("owner_id", ownerID),
		zap.Int("drafts", len(drafts)),
		zap.Int("topics", len(analysis.Fingerprint.Topics)),
		zap.Int("phrases", analysis.Fingerprint.PhraseCount()),
	)
	return analysis, nil
}

// Confirm applies the owner's edits to a candidate and stores the result
// when it passes the minimum-signal gate. A rejected candidate leaves the
// stored fingerprint untouched.
func (s *StyleService) Confirm(ctx context.Context, ownerID string, candidate *model.StyleFingerprint, edits []style.Edit) (*model.StyleFingerprint, error) {
	if candidate == nil {
		return nil, fmt.Errorf("candidate is required: %w", appErr.ErrInvalid)
	}
	draft := candidate.Clone()
	draft.OwnerID = ownerID
	edited, err := style.ApplyEdits(draft, edits)
	if err != nil {
		return nil, err
	}
	confirmed, err := style.Confirm(edited)
	if err != nil {
		return nil, err
	}
	now := s.now().Unix()
	confirmed.Ctime, confirmed.Mtime = now, now
	if err := s.fingerprints.Upsert(ctx, confirmed); err != nil {
		return nil, fmt.Errorf("save fingerprint: %w: %w", appErr.ErrPersistence, err)
	}
	return s.fingerprints.Get(ctx, ownerID)
}

func (s *StyleService) Get(ctx context.Context, ownerID string) (*model.StyleFingerprint, error) {
	return s.fingerprints.Get(ctx, ownerID)
}

func (s *StyleService) Delete(ctx context.Context, ownerID string) error {
	return s.fingerprints.Delete(ctx, ownerID)
}

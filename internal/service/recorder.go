package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"github.com/xxxsen/mreply/internal/ai"
	"github.com/xxxsen/mreply/internal/model"
	appErr "github.com/xxxsen/mreply/internal/pkg/errors"
)

const (
	DefaultMinWords      = 3
	DefaultRecordTimeout = 15 * time.Second
)

var errRecorderClosed = errors.New("recorder closed")

// PassesQualityGate reports whether a draft carries enough words to be
// worth keeping for future retrieval.
func PassesQualityGate(draft string) bool {
	return meetsWordCount(draft, DefaultMinWords)
}

func meetsWordCount(draft string, min int) bool {
	return len(strings.Fields(draft)) >= min
}

type CompletedExchange struct {
	OwnerID        string
	ScreenshotText string
	DraftText      string
	GeneratedReply string
	Tone           string
	// Embedding is reused when set; otherwise the recorder embeds the
	// screenshot and draft itself.
	Embedding []float32
}

type RecorderConfig struct {
	Timeout  time.Duration
	MinWords int
	// Dimensions must match RetrievalConfig.Dimensions. Zero skips the check.
	Dimensions int
}

// PendingRecord is the handle of one background write.
type PendingRecord struct {
	done    chan struct{}
	skipped bool
	item    *model.Exchange
	err     error
}

func resolvedRecord(skipped bool, err error) *PendingRecord {
	p := &PendingRecord{done: make(chan struct{}), skipped: skipped, err: err}
	close(p.done)
	return p
}

func (p *PendingRecord) Skipped() bool {
	return p.skipped
}

func (p *PendingRecord) Done() <-chan struct{} {
	return p.done
}

// Wait blocks until the write finishes or ctx ends. A skipped record
// returns nil, nil.
func (p *PendingRecord) Wait(ctx context.Context) (*model.Exchange, error) {
	select {
	case <-p.done:
		return p.item, p.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Recorder persists completed exchanges off the request path. Writes run
// on a context detached from the caller so a finished request does not
// cancel them.
type Recorder struct {
	exchanges ExchangeStore
	embedder  ai.IEmbedder
	cfg       RecorderConfig
	now       func() time.Time

	mu     sync.Mutex
	closed bool
	wg     sync.WaitGroup
}

func NewRecorder(exchanges ExchangeStore, embedder ai.IEmbedder, cfg RecorderConfig) *Recorder {
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultRecordTimeout
	}
	if cfg.MinWords <= 0 {
		cfg.MinWords = DefaultMinWords
	}
	return &Recorder{exchanges: exchanges, embedder: embedder, cfg: cfg, now: time.Now}
}

func (r *Recorder) Record(ctx context.Context, ex CompletedExchange) *PendingRecord {
	if !meetsWordCount(ex.DraftText, r.cfg.MinWords) {
		return resolvedRecord(true, nil)
	}
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return resolvedRecord(false, fmt.Errorf("record exchange: %w: %w", appErr.ErrPersistence, errRecorderClosed))
	}
	r.wg.Add(1)
	r.mu.Unlock()

	p := &PendingRecord{done: make(chan struct{})}
	bg, cancel := context.WithTimeout(context.WithoutCancel(ctx), r.cfg.Timeout)
	go func() {
		defer r.wg.Done()
		defer cancel()
		defer close(p.done)
		p.item, p.err = r.persist(bg, ex)
		if p.err != nil {
			logutil.GetLogger(bg).Error("record exchange failed",
				zap.String("owner_id", ex.OwnerID), zap.Error(p.err))
		}
	}()
	return p
}

func (r *Recorder) persist(ctx context.Context, ex CompletedExchange) (*model.Exchange, error) {
	item := &model.Exchange{
		ID:             newID(),
		OwnerID:        ex.OwnerID,
		ScreenshotText: strings.TrimSpace(ex.ScreenshotText),
		DraftText:      strings.TrimSpace(ex.DraftText),
		GeneratedReply: ex.GeneratedReply,
		Tone:           ex.Tone,
		Embedding:      ex.Embedding,
	}
	if len(item.Embedding) == 0 {
		if r.embedder == nil {
			return nil, fmt.Errorf("record exchange: %w: no embedder", appErr.ErrPersistence)
		}
		vec, err := r.embedder.Embed(ctx, item.QueryText(), ai.TaskQuery)
		if err != nil {
			return nil, fmt.Errorf("embed exchange: %w: %w", appErr.ErrPersistence, err)
		}
		item.Embedding = vec
	}
	if err := checkDimensions(item.Embedding, r.cfg.Dimensions); err != nil {
		return nil, fmt.Errorf("embed exchange: %w: %w", appErr.ErrPersistence, err)
	}
	now := r.now().Unix()
	item.Ctime, item.Mtime = now, now
	if err := r.exchanges.Insert(ctx, item); err != nil {
		return nil, fmt.Errorf("insert exchange: %w: %w", appErr.ErrPersistence, err)
	}
	return item, nil
}

// Close stops accepting records and waits for in-flight writes, giving up
// when ctx ends.
func (r *Recorder) Close(ctx context.Context) error {
	r.mu.Lock()
	r.closed = true
	r.mu.Unlock()

	done := make(chan struct{})
	go func() {
		r.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

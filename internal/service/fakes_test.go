package service

import (
	"context"
	"errors"
	"math"
	"sync"

	"github.com/xxxsen/mreply/internal/ai"
	"github.com/xxxsen/mreply/internal/model"
	"github.com/xxxsen/mreply/internal/repo/memstore"
)

var errBoom = errors.New("boom")

// stubEmbedder maps known texts onto fixed vectors and everything else
// onto fallback.
type stubEmbedder struct {
	mu       sync.Mutex
	vectors  map[string][]float32
	fallback []float32
	err      error
	calls    int
	tasks    []string
}

func (s *stubEmbedder) Embed(_ context.Context, text string, taskType string) ([]float32, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	s.tasks = append(s.tasks, taskType)
	if s.err != nil {
		return nil, s.err
	}
	if v, ok := s.vectors[text]; ok {
		return v, nil
	}
	return s.fallback, nil
}

func (s *stubEmbedder) ModelName() string {
	return "stub:v1"
}

func (s *stubEmbedder) callCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}

type stubWriter struct {
	mu      sync.Mutex
	reply   string
	err     error
	lastReq ai.ReplyRequest
}

func (w *stubWriter) DraftReply(_ context.Context, req ai.ReplyRequest) (string, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.lastReq = req
	return w.reply, w.err
}

func (w *stubWriter) Retone(_ context.Context, reply string, tone string) (string, error) {
	if w.err != nil {
		return "", w.err
	}
	return "[" + tone + "] " + reply, nil
}

type failingChunkStore struct {
	*memstore.ChunkStore
}

func (failingChunkStore) QueryNearest(context.Context, string, []float32, float64, int) ([]model.ChunkMatch, error) {
	return nil, errBoom
}

type failingExchangeStore struct {
	*memstore.ExchangeStore
}

func (failingExchangeStore) Insert(context.Context, *model.Exchange) error {
	return errBoom
}

type failingFingerprintStore struct {
	*memstore.FingerprintStore
}

func (failingFingerprintStore) Get(context.Context, string) (*model.StyleFingerprint, error) {
	return nil, errBoom
}

// unitAt returns a 2-d unit vector whose cosine with (1, 0) is sim.
func unitAt(sim float64) []float32 {
	return []float32{float32(sim), float32(math.Sqrt(1 - sim*sim))}
}

var queryVec = []float32{1, 0}

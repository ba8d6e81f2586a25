package ai

import (
	"context"
	"fmt"
	"strings"

	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"
)

type GeneratorEntry struct {
	Name      string
	Generator IGenerator
}

type EmbedderEntry struct {
	Name     string
	Embedder IEmbedder
}

// firstSuccess calls each candidate in order and returns the first result
// that does not fail. Failures are logged and the last error is returned.
func firstSuccess[T any, R any](ctx context.Context, kind string, names []string, items []T, call func(T) (R, error)) (R, error) {
	var (
		zero    R
		lastErr error
	)
	for i, item := range items {
		res, err := call(item)
		if err == nil {
			return res, nil
		}
		lastErr = err
		if ctx.Err() != nil {
			break
		}
		logutil.GetLogger(ctx).Warn(kind+" failed, trying next",
			zap.Int("index", i), zap.String("name", names[i]), zap.Error(err))
	}
	if lastErr == nil {
		return zero, fmt.Errorf("%s not configured: %w", kind, ErrUnavailable)
	}
	return zero, lastErr
}

type groupGenerator struct {
	names []string
	items []IGenerator
}

func NewGroupGenerator(entries []GeneratorEntry) IGenerator {
	g := &groupGenerator{}
	for _, e := range entries {
		if e.Generator == nil {
			continue
		}
		g.names = append(g.names, e.Name)
		g.items = append(g.items, e.Generator)
	}
	if len(g.items) == 0 {
		return nil
	}
	return g
}

func (g *groupGenerator) Generate(ctx context.Context, prompt string) (string, error) {
	return firstSuccess(ctx, "generator", g.names, g.items, func(gen IGenerator) (string, error) {
		return gen.Generate(ctx, prompt)
	})
}

// groupEmbedder falls back across embedders. All members must produce
// vectors of the same dimensionality since results share one index.
type groupEmbedder struct {
	names []string
	items []IEmbedder
}

func NewGroupEmbedder(entries []EmbedderEntry) IEmbedder {
	g := &groupEmbedder{}
	for _, e := range entries {
		if e.Embedder == nil {
			continue
		}
		g.names = append(g.names, e.Name)
		g.items = append(g.items, e.Embedder)
	}
	if len(g.items) == 0 {
		return nil
	}
	return g
}

func (g *groupEmbedder) Embed(ctx context.Context, text string, taskType string) ([]float32, error) {
	return firstSuccess(ctx, "embedder", g.names, g.items, func(e IEmbedder) ([]float32, error) {
		return e.Embed(ctx, text, taskType)
	})
}

func (g *groupEmbedder) ModelName() string {
	names := make([]string, 0, len(g.items))
	for _, e := range g.items {
		names = append(names, e.ModelName())
	}
	return strings.Join(names, "|")
}

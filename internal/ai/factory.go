package ai

import (
	"fmt"

	"github.com/xxxsen/mreply/internal/config"
)

// BuildGenerator creates a fallback generator from the configured model list,
// in order. It returns nil when nothing is configured.
func BuildGenerator(cfg config.AIConfig) (IGenerator, error) {
	entries := make([]GeneratorEntry, 0, len(cfg.Generate))
	for _, ref := range cfg.Generate {
		p, err := NewGenerateProvider(ref.Provider, cfg.Providers[ref.Provider])
		if err != nil {
			return nil, fmt.Errorf("init generate provider %s: %w", ref.Provider, err)
		}
		entries = append(entries, GeneratorEntry{
			Name:      ref.Provider + ":" + ref.Model,
			Generator: NewGenerator(p, ref.Model),
		})
	}
	return NewGroupGenerator(entries), nil
}

func BuildEmbedder(cfg config.AIConfig) (IEmbedder, error) {
	entries := make([]EmbedderEntry, 0, len(cfg.Embed))
	for _, ref := range cfg.Embed {
		p, err := NewEmbedProvider(ref.Provider, cfg.Providers[ref.Provider])
		if err != nil {
			return nil, fmt.Errorf("init embed provider %s: %w", ref.Provider, err)
		}
		entries = append(entries, EmbedderEntry{
			Name:     ref.Provider + ":" + ref.Model,
			Embedder: NewEmbedder(p, ref.Model),
		})
	}
	return NewGroupEmbedder(entries), nil
}

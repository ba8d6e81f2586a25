package ai

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/xxxsen/mreply/internal/model"
)

type ManagerConfig struct {
	Timeout int
}

// Manager turns an assembled context into reply text. It owns the prompt
// layout; callers only hand it structured data.
type Manager struct {
	generator IGenerator
	cfg       ManagerConfig
}

func NewManager(generator IGenerator, cfg ManagerConfig) *Manager {
	return &Manager{generator: generator, cfg: cfg}
}

type ReplyRequest struct {
	Context        *model.AssembledContext
	ScreenshotText string
	DraftText      string
	Tone           string
}

func (m *Manager) DraftReply(ctx context.Context, req ReplyRequest) (string, error) {
	return m.generateText(ctx, buildReplyPrompt(req))
}

func (m *Manager) Retone(ctx context.Context, reply string, tone string) (string, error) {
	prompt := fmt.Sprintf(`Rewrite the message below in a %s tone.
- Keep the meaning and the language of the original.
- Output ONLY the rewritten message.

MESSAGE:
%s`, tone, reply)
	return m.generateText(ctx, prompt)
}

func (m *Manager) generateText(ctx context.Context, prompt string) (string, error) {
	if m.generator == nil {
		return "", fmt.Errorf("generator not configured: %w", ErrUnavailable)
	}
	if m.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, time.Duration(m.cfg.Timeout)*time.Second)
		defer cancel()
	}
	resp, err := m.generator.Generate(ctx, prompt)
	if err != nil {
		return "", err
	}
	text := strings.TrimSpace(resp)
	if text == "" {
		return "", fmt.Errorf("empty ai response")
	}
	return text, nil
}

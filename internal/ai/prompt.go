package ai

import (
	"fmt"
	"strings"

	"github.com/xxxsen/mreply/internal/model"
)

func buildReplyPrompt(req ReplyRequest) string {
	var sb strings.Builder
	c := req.Context
	sb.WriteString("You draft short chat replies on behalf of the user.\n")
	if c.IsEmpty() {
		sb.WriteString("- Nothing is known about the user yet. Keep the reply brief and neutral.\n")
	} else {
		sb.WriteString("- Match the user's writing style described below.\n")
		sb.WriteString("- Use the reference material only when it is relevant.\n")
	}
	sb.WriteString("- Output ONLY the reply text.\n")
	if tone := strings.TrimSpace(req.Tone); tone != "" {
		fmt.Fprintf(&sb, "- Use a %s tone.\n", tone)
	}

	if c != nil && c.Style != nil {
		writeStyle(&sb, c.Style)
	}
	if c != nil && len(c.Exchanges) > 0 {
		sb.WriteString("\nPAST REPLIES THE USER SENT IN SIMILAR SITUATIONS:\n")
		for i, m := range c.Exchanges {
			reply := m.Record.FinalReply
			if reply == "" {
				reply = m.Record.GeneratedReply
			}
			fmt.Fprintf(&sb, "%d. intent: %s\n   reply: %s\n", i+1, m.Record.DraftText, reply)
		}
	}
	if c != nil && len(c.Documents) > 0 {
		sb.WriteString("\nREFERENCE:\n")
		for _, m := range c.Documents {
			fmt.Fprintf(&sb, "[%s #%d]\n%s\n", m.Record.DocumentName, m.Record.ChunkIndex, m.Record.Content)
		}
	}
	if s := strings.TrimSpace(req.ScreenshotText); s != "" {
		fmt.Fprintf(&sb, "\nCONVERSATION:\n%s\n", s)
	}
	fmt.Fprintf(&sb, "\nWHAT THE USER WANTS TO SAY:\n%s\n", strings.TrimSpace(req.DraftText))
	return sb.String()
}

func writeStyle(sb *strings.Builder, fp *model.StyleFingerprint) {
	sb.WriteString("\nUSER STYLE:\n")
	if fp.AvgSentenceLength > 0 {
		fmt.Fprintf(sb, "- about %d words per sentence, typically %d words per message\n", fp.AvgSentenceLength, fp.Cadence.TypicalWordCount)
	}
	writeList(sb, "common topics", fp.Topics)
	writeList(sb, "favourite phrases", append(append([]string{}, fp.Bigrams...), fp.Trigrams...))
	writeList(sb, "greetings", fp.Greetings)
	writeList(sb, "sign-offs", fp.Closings)
	writeList(sb, "slang", fp.Slang)
	cad := fp.Cadence
	fmt.Fprintf(sb, "- emoji per message %.2f, exclamations per sentence %.2f, questions per sentence %.2f\n",
		cad.EmojiRate, cad.ExclamationsPerSentence, cad.QuestionsPerSentence)
	p := fp.Profile
	for _, kv := range [][2]string{{"name", p.DisplayName}, {"occupation", p.Occupation}, {"about", p.About}, {"notes", p.Notes}} {
		if kv[1] != "" {
			fmt.Fprintf(sb, "- %s: %s\n", kv[0], kv[1])
		}
	}
}

func writeList(sb *strings.Builder, label string, items []string) {
	if len(items) == 0 {
		return
	}
	fmt.Fprintf(sb, "- %s: %s\n", label, strings.Join(items, ", "))
}

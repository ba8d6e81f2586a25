package ai

import (
	"context"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/xxxsen/common/logutil"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"
	"go.uber.org/zap"
)

const (
	ContentTypeMarkdown = "text/markdown"
	ContentTypePlain    = "text/plain"

	DefaultChunkRunes = 1000
)

var htmlTagPattern = regexp.MustCompile(`<[^>]*>`)

type Chunk struct {
	Index   int
	Content string
	Heading string
}

// Chunker splits reference documents into pieces of at most maxRunes runes.
// Markdown is split at headings and block boundaries; plain text at blank
// lines. Blocks that are still too long are cut on whitespace.
type Chunker struct {
	maxRunes int
}

func NewChunker(maxRunes int) *Chunker {
	if maxRunes <= 0 {
		maxRunes = DefaultChunkRunes
	}
	return &Chunker{maxRunes: maxRunes}
}

func (c *Chunker) Chunk(ctx context.Context, content string, contentType string) []Chunk {
	var blocks []block
	if contentType == ContentTypePlain {
		blocks = plainBlocks(content)
	} else {
		blocks = markdownBlocks(content)
	}
	acc := &accumulator{maxRunes: c.maxRunes}
	for _, b := range blocks {
		if b.heading {
			acc.flush()
			acc.heading = b.text
			continue
		}
		for _, piece := range splitRunes(b.text, c.maxRunes) {
			acc.add(piece)
		}
	}
	acc.flush()
	logutil.GetLogger(ctx).Debug("document chunked",
		zap.String("content_type", contentType),
		zap.Int("size", len(content)),
		zap.Int("chunks", len(acc.out)),
	)
	return acc.out
}

type block struct {
	text    string
	heading bool
}

type accumulator struct {
	maxRunes int
	heading  string
	parts    []string
	runes    int
	out      []Chunk
}

const blockSep = "\n\n"

func (a *accumulator) add(piece string) {
	n := utf8.RuneCountInString(piece)
	if len(a.parts) > 0 && a.runes+utf8.RuneCountInString(blockSep)+n > a.maxRunes {
		a.flush()
	}
	if len(a.parts) > 0 {
		a.runes += utf8.RuneCountInString(blockSep)
	}
	a.parts = append(a.parts, piece)
	a.runes += n
}

func (a *accumulator) flush() {
	if len(a.parts) == 0 {
		return
	}
	a.out = append(a.out, Chunk{
		Index:   len(a.out),
		Content: strings.Join(a.parts, blockSep),
		Heading: a.heading,
	})
	a.parts = nil
	a.runes = 0
}

func markdownBlocks(markdown string) []block {
	source := []byte(markdown)
	doc := goldmark.New().Parser().Parse(text.NewReader(source))
	var blocks []block
	for node := doc.FirstChild(); node != nil; node = node.NextSibling() {
		switch n := node.(type) {
		case *ast.Heading:
			if h := strings.TrimSpace(extractText(n, source)); h != "" {
				blocks = append(blocks, block{text: h, heading: true})
			}
		case *ast.FencedCodeBlock, *ast.CodeBlock:
			if code := strings.TrimSpace(rawLines(n, source)); code != "" {
				blocks = append(blocks, block{text: code})
			}
		case *ast.HTMLBlock:
			if txt := htmlBlockText(n, source); txt != "" {
				blocks = append(blocks, block{text: txt})
			}
		case *ast.ThematicBreak:
		default:
			if txt := extractText(n, source); txt != "" {
				blocks = append(blocks, block{text: txt})
			}
		}
	}
	return blocks
}

func plainBlocks(content string) []block {
	content = strings.ReplaceAll(content, "\r\n", "\n")
	var blocks []block
	for _, para := range strings.Split(content, "\n\n") {
		if para = strings.TrimSpace(para); para != "" {
			blocks = append(blocks, block{text: para})
		}
	}
	return blocks
}

func rawLines(n ast.Node, source []byte) string {
	var sb strings.Builder
	lines := n.Lines()
	for i := 0; i < lines.Len(); i++ {
		line := lines.At(i)
		sb.Write(line.Value(source))
	}
	return sb.String()
}

// htmlBlockText keeps the text a raw HTML block carries and drops its tags.
func htmlBlockText(n *ast.HTMLBlock, source []byte) string {
	raw := rawLines(n, source)
	if n.HasClosure() {
		raw += string(n.ClosureLine.Value(source))
	}
	var lines []string
	for _, line := range strings.Split(htmlTagPattern.ReplaceAllString(raw, " "), "\n") {
		if line = strings.Join(strings.Fields(line), " "); line != "" {
			lines = append(lines, line)
		}
	}
	return strings.Join(lines, "\n")
}

func extractText(n ast.Node, source []byte) string {
	var sb strings.Builder
	_ = ast.Walk(n, func(node ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		switch t := node.(type) {
		case *ast.Text:
			sb.Write(t.Segment.Value(source))
			if t.SoftLineBreak() || t.HardLineBreak() {
				sb.WriteByte('\n')
			}
		case *ast.String:
			sb.Write(t.Value)
		case *ast.CodeSpan:
			sb.WriteString(extractCodeSpan(t, source))
			return ast.WalkSkipChildren, nil
		case *ast.ListItem:
			if sb.Len() > 0 {
				sb.WriteByte('\n')
			}
		}
		return ast.WalkContinue, nil
	})
	return strings.TrimSpace(sb.String())
}

func extractCodeSpan(n *ast.CodeSpan, source []byte) string {
	var sb strings.Builder
	for c := n.FirstChild(); c != nil; c = c.NextSibling() {
		if t, ok := c.(*ast.Text); ok {
			sb.Write(t.Segment.Value(source))
		}
	}
	return sb.String()
}

// splitRunes cuts s into pieces of at most max runes, preferring the last
// whitespace inside each window.
func splitRunes(s string, max int) []string {
	runes := []rune(s)
	if len(runes) <= max {
		return []string{s}
	}
	var out []string
	for len(runes) > max {
		cut := max
		for i := max; i > max/2; i-- {
			if runes[i] == ' ' || runes[i] == '\n' || runes[i] == '\t' {
				cut = i
				break
			}
		}
		if piece := strings.TrimSpace(string(runes[:cut])); piece != "" {
			out = append(out, piece)
		}
		runes = []rune(strings.TrimLeft(string(runes[cut:]), " \n\t"))
	}
	if piece := strings.TrimSpace(string(runes)); piece != "" {
		out = append(out, piece)
	}
	return out
}

package parser

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"
)

// MarkdownParser flattens a markdown document into plain text blocks
// separated by newlines. The first heading becomes the title.
type MarkdownParser struct {
	md goldmark.Markdown
}

func NewMarkdownParser() *MarkdownParser {
	return &MarkdownParser{md: goldmark.New()}
}

func (p *MarkdownParser) Parse(ctx context.Context, r io.Reader) (*Document, error) {
	src, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read markdown: %w", err)
	}
	return p.parse(src, ""), nil
}

func (p *MarkdownParser) ParseFile(ctx context.Context, filePath string) (*Document, error) {
	src, err := os.ReadFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("read file: %w", err)
	}
	return p.parse(src, filePath), nil
}

func (p *MarkdownParser) parse(src []byte, filePath string) *Document {
	root := p.md.Parser().Parse(text.NewReader(src))

	var (
		blocks   []string
		title    string
		headings int
	)
	for n := root.FirstChild(); n != nil; n = n.NextSibling() {
		t := blockText(n, src)
		if t == "" {
			continue
		}
		if _, ok := n.(*ast.Heading); ok {
			headings++
			if title == "" {
				title = t
			}
		}
		blocks = append(blocks, t)
	}
	if title == "" {
		title = baseName(filePath)
	}

	return &Document{
		Content: strings.Join(blocks, "\n"),
		Title:   title,
		Metadata: map[string]interface{}{
			"file_size":     len(src),
			"heading_count": headings,
		},
	}
}

// blockText collects the literal text under n. Code blocks keep their lines,
// inline markup is dropped.
func blockText(n ast.Node, src []byte) string {
	var buf bytes.Buffer
	switch n.Kind() {
	case ast.KindFencedCodeBlock, ast.KindCodeBlock, ast.KindHTMLBlock:
		lines := n.Lines()
		for i := 0; i < lines.Len(); i++ {
			seg := lines.At(i)
			buf.Write(seg.Value(src))
		}
		return strings.TrimSpace(buf.String())
	}

	for c := n.FirstChild(); c != nil; c = c.NextSibling() {
		switch t := c.(type) {
		case *ast.Text:
			buf.Write(t.Segment.Value(src))
			if t.SoftLineBreak() || t.HardLineBreak() {
				buf.WriteByte('\n')
			}
		case *ast.String:
			buf.Write(t.Value)
		default:
			if inner := blockText(c, src); inner != "" {
				if c.Type() == ast.TypeBlock && buf.Len() > 0 {
					buf.WriteByte('\n')
				}
				buf.WriteString(inner)
			}
		}
	}
	return strings.TrimSpace(buf.String())
}

func (p *MarkdownParser) FileType() FileType {
	return FileTypeMD
}

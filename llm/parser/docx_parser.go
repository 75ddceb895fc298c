package parser

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/fumiama/go-docx"
)

// DocxParser extracts paragraph text from Word documents, one paragraph per
// line. Tables and drawings are ignored.
type DocxParser struct{}

func NewDocxParser() *DocxParser {
	return &DocxParser{}
}

func (p *DocxParser) Parse(ctx context.Context, r io.Reader) (*Document, error) {
	tmp, size, cleanup, err := spool(r, "legisqa-*.docx")
	if err != nil {
		return nil, err
	}
	defer cleanup()
	return p.parse(tmp, size, "")
}

func (p *DocxParser) ParseFile(ctx context.Context, filePath string) (*Document, error) {
	f, err := os.Open(filePath)
	if err != nil {
		return nil, fmt.Errorf("open file: %w", err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return nil, fmt.Errorf("stat file: %w", err)
	}
	return p.parse(f, info.Size(), filePath)
}

func (p *DocxParser) parse(r io.ReaderAt, size int64, filePath string) (*Document, error) {
	doc, err := docx.Parse(r, size)
	if err != nil {
		return nil, fmt.Errorf("parse docx: %w", err)
	}

	var lines []string
	for _, item := range doc.Document.Body.Items {
		para, ok := item.(*docx.Paragraph)
		if !ok {
			continue
		}
		if t := paragraphText(para); t != "" {
			lines = append(lines, t)
		}
	}

	content := strings.Join(lines, "\n")
	return &Document{
		Content: content,
		Title:   ExtractTitle(content, filePath),
		Metadata: map[string]interface{}{
			"paragraph_count": len(lines),
		},
	}, nil
}

func paragraphText(para *docx.Paragraph) string {
	var buf strings.Builder
	for _, child := range para.Children {
		run, ok := child.(*docx.Run)
		if !ok {
			continue
		}
		for _, rc := range run.Children {
			if t, ok := rc.(*docx.Text); ok {
				buf.WriteString(t.Text)
			}
		}
	}
	return strings.TrimSpace(buf.String())
}

func (p *DocxParser) FileType() FileType {
	return FileTypeDocx
}

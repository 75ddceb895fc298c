package parser

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
)

// TxtParser passes plain text through unchanged.
type TxtParser struct{}

func NewTxtParser() *TxtParser {
	return &TxtParser{}
}

func (p *TxtParser) Parse(ctx context.Context, r io.Reader) (*Document, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read text: %w", err)
	}
	return p.build(string(data), ""), nil
}

func (p *TxtParser) ParseFile(ctx context.Context, filePath string) (*Document, error) {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("read file: %w", err)
	}
	return p.build(string(data), filePath), nil
}

func (p *TxtParser) build(content, filePath string) *Document {
	return &Document{
		Content: content,
		Title:   ExtractTitle(content, filePath),
		Metadata: map[string]interface{}{
			"file_size":  len(content),
			"line_count": strings.Count(content, "\n") + 1,
		},
	}
}

func (p *TxtParser) FileType() FileType {
	return FileTypeTXT
}

package parser

import (
	"context"
	"fmt"
	"io"
	"strings"

	pdflib "github.com/ledongthuc/pdf"
)

// PDFParser extracts the plain text of every page and joins the pages with
// no separator. Pages without a content stream or whose text cannot be
// decoded are skipped.
type PDFParser struct{}

func NewPDFParser() *PDFParser {
	return &PDFParser{}
}

func (p *PDFParser) Parse(ctx context.Context, r io.Reader) (*Document, error) {
	tmp, _, cleanup, err := spool(r, "legisqa-*.pdf")
	if err != nil {
		return nil, err
	}
	defer cleanup()
	return p.ParseFile(ctx, tmp.Name())
}

func (p *PDFParser) ParseFile(ctx context.Context, filePath string) (*Document, error) {
	f, reader, err := pdflib.Open(filePath)
	if err != nil {
		return nil, fmt.Errorf("open pdf %s: %w", filePath, err)
	}
	defer f.Close()

	var buf strings.Builder
	numPages := reader.NumPage()
	extracted := 0
	for i := 1; i <= numPages; i++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}
		text, err := page.GetPlainText(nil)
		if err != nil || text == "" {
			continue
		}
		buf.WriteString(text)
		extracted++
	}

	content := buf.String()
	return &Document{
		Content: content,
		Title:   baseName(filePath),
		Metadata: map[string]interface{}{
			"page_count":      numPages,
			"pages_extracted": extracted,
		},
	}, nil
}

func (p *PDFParser) FileType() FileType {
	return FileTypePDF
}

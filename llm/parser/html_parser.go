package parser

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	md "github.com/JohannesKaufmann/html-to-markdown"
	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html/charset"
)

// HTMLParser converts the page body to markdown text. Legislation portals
// often serve ISO-8859-1 pages, so the input is decoded according to its
// <meta charset> before parsing.
type HTMLParser struct {
	converter *md.Converter
}

func NewHTMLParser() *HTMLParser {
	return &HTMLParser{converter: md.NewConverter("", true, nil)}
}

func (p *HTMLParser) Parse(ctx context.Context, r io.Reader) (*Document, error) {
	return p.parse(r, "")
}

func (p *HTMLParser) ParseFile(ctx context.Context, filePath string) (*Document, error) {
	f, err := os.Open(filePath)
	if err != nil {
		return nil, fmt.Errorf("open file: %w", err)
	}
	defer f.Close()
	return p.parse(f, filePath)
}

func (p *HTMLParser) parse(r io.Reader, filePath string) (*Document, error) {
	utf8Reader, err := charset.NewReader(r, "text/html")
	if err != nil {
		return nil, fmt.Errorf("detect charset: %w", err)
	}
	doc, err := goquery.NewDocumentFromReader(utf8Reader)
	if err != nil {
		return nil, fmt.Errorf("parse html: %w", err)
	}

	doc.Find("script, style, noscript, nav").Remove()

	title := strings.TrimSpace(doc.Find("title").First().Text())
	if title == "" {
		title = strings.TrimSpace(doc.Find("h1").First().Text())
	}
	if title == "" {
		title = baseName(filePath)
	}

	body := doc.Find("body")
	bodyHTML, err := body.Html()
	if err != nil {
		return nil, fmt.Errorf("render body: %w", err)
	}
	markdown, err := p.converter.ConvertString(bodyHTML)
	if err != nil {
		return nil, fmt.Errorf("convert to markdown: %w", err)
	}

	return &Document{
		Content: collapseBlankLines(markdown),
		Title:   title,
		Metadata: map[string]interface{}{
			"link_count": doc.Find("a[href]").Length(),
		},
	}, nil
}

func collapseBlankLines(s string) string {
	var out []string
	for _, line := range strings.Split(s, "\n") {
		if trimmed := strings.TrimSpace(line); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return strings.Join(out, "\n")
}

func (p *HTMLParser) FileType() FileType {
	return FileTypeHTML
}

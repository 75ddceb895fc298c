package parser

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// FileType identifies a source document format.
type FileType string

const (
	FileTypePDF     FileType = "pdf"
	FileTypeDocx    FileType = "docx"
	FileTypeMD      FileType = "md"
	FileTypeHTML    FileType = "html"
	FileTypeTXT     FileType = "txt"
	FileTypeUnknown FileType = "unknown"
)

// Document is the extracted text of one source file.
type Document struct {
	Content  string
	Title    string
	Metadata map[string]interface{}
}

// Parser extracts plain text from one document format.
type Parser interface {
	// Parse reads a whole document from r.
	Parse(ctx context.Context, r io.Reader) (*Document, error)

	// ParseFile reads the document stored at filePath.
	ParseFile(ctx context.Context, filePath string) (*Document, error)

	FileType() FileType
}

// Registry maps file types to parsers.
type Registry struct {
	parsers map[FileType]Parser
}

func NewRegistry() *Registry {
	return &Registry{parsers: make(map[FileType]Parser)}
}

// Register adds p, replacing any parser for the same type.
func (r *Registry) Register(p Parser) {
	r.parsers[p.FileType()] = p
}

func (r *Registry) GetParser(ft FileType) (Parser, bool) {
	p, ok := r.parsers[ft]
	return p, ok
}

// GetParserForPath picks a parser by file extension.
func (r *Registry) GetParserForPath(filePath string) (Parser, bool) {
	return r.GetParser(FileTypeFromPath(filePath))
}

// ParseFile parses filePath with the parser registered for its extension.
func (r *Registry) ParseFile(ctx context.Context, filePath string) (*Document, error) {
	p, ok := r.GetParserForPath(filePath)
	if !ok {
		return nil, fmt.Errorf("no parser for file %s", filePath)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return p.ParseFile(ctx, filePath)
}

// FileTypeFromPath maps a file extension to its FileType.
func FileTypeFromPath(filePath string) FileType {
	switch strings.ToLower(strings.TrimPrefix(filepath.Ext(filePath), ".")) {
	case "pdf":
		return FileTypePDF
	case "docx":
		return FileTypeDocx
	case "md", "markdown":
		return FileTypeMD
	case "html", "htm":
		return FileTypeHTML
	case "txt":
		return FileTypeTXT
	default:
		return FileTypeUnknown
	}
}

func (ft FileType) String() string {
	return string(ft)
}

// DefaultRegistry returns a registry with every built-in parser.
func DefaultRegistry() *Registry {
	reg := NewRegistry()
	reg.Register(NewPDFParser())
	reg.Register(NewTxtParser())
	reg.Register(NewMarkdownParser())
	reg.Register(NewHTMLParser())
	reg.Register(NewDocxParser())
	return reg
}

// ExtractTitle returns the first short non-empty line of content, or the
// file's base name without extension.
func ExtractTitle(content, filePath string) string {
	for _, line := range strings.Split(content, "\n") {
		line = strings.TrimSpace(strings.TrimLeft(strings.TrimSpace(line), "#"))
		if line == "" {
			continue
		}
		if len(line) < 100 {
			return line
		}
		break
	}
	return baseName(filePath)
}

func baseName(filePath string) string {
	if filePath == "" {
		return "Untitled"
	}
	name := filepath.Base(filePath)
	return strings.TrimSuffix(name, filepath.Ext(name))
}

// spool copies r into a temporary file for libraries that need random access.
// The caller must run the returned cleanup.
func spool(r io.Reader, pattern string) (*os.File, int64, func(), error) {
	tmp, err := os.CreateTemp("", pattern)
	if err != nil {
		return nil, 0, nil, fmt.Errorf("create temp file: %w", err)
	}
	cleanup := func() {
		tmp.Close()
		os.Remove(tmp.Name())
	}

	size, err := io.Copy(tmp, r)
	if err != nil {
		cleanup()
		return nil, 0, nil, fmt.Errorf("write temp file: %w", err)
	}
	if _, err := tmp.Seek(0, io.SeekStart); err != nil {
		cleanup()
		return nil, 0, nil, fmt.Errorf("seek temp file: %w", err)
	}
	return tmp, size, cleanup, nil
}

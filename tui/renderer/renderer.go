// Package renderer formats answers and console messages.
package renderer

import (
	"io"
	"strings"

	"github.com/charmbracelet/glamour"
)

// Renderer styles console output. Answers are rendered as markdown only when
// a markdown style is configured.
type Renderer struct {
	markdown *glamour.TermRenderer
	styles   *Styles
}

// New returns a renderer. An empty markdownStyle prints answers verbatim;
// otherwise it names a glamour style such as "dracula" or "notty".
func New(styles *Styles, markdownStyle string) (*Renderer, error) {
	if styles == nil {
		styles = PlainStyles()
	}
	r := &Renderer{styles: styles}
	if markdownStyle == "" {
		return r, nil
	}

	md, err := glamour.NewTermRenderer(
		glamour.WithStylePath(markdownStyle),
		glamour.WithWordWrap(0),
	)
	if err != nil {
		return nil, err
	}
	r.markdown = md
	return r, nil
}

// Plain returns a renderer that changes nothing.
func Plain() *Renderer {
	return &Renderer{styles: PlainStyles()}
}

// Answer renders a model answer. Markdown failures fall back to raw text.
func (r *Renderer) Answer(text string) string {
	if r.markdown == nil {
		return text
	}
	out, err := r.markdown.Render(text)
	if err != nil {
		return text
	}
	return strings.Trim(out, "\n")
}

func (r *Renderer) Heading(s string) string {
	return r.styles.Heading.Render(s)
}

func (r *Renderer) Error(s string) string {
	return r.styles.Error.Render(s)
}

// DiagnosticWriter wraps w so every line written through it is styled as a
// diagnostic.
func (r *Renderer) DiagnosticWriter(w io.Writer) io.Writer {
	return &styledWriter{w: w, render: r.styles.Diagnostic.Render}
}

type styledWriter struct {
	w      io.Writer
	render func(...string) string
}

func (s *styledWriter) Write(p []byte) (int, error) {
	lines := strings.SplitAfter(string(p), "\n")
	var b strings.Builder
	for _, line := range lines {
		body := strings.TrimSuffix(line, "\n")
		if body != "" {
			b.WriteString(s.render(body))
		}
		if len(body) != len(line) {
			b.WriteByte('\n')
		}
	}
	if _, err := io.WriteString(s.w, b.String()); err != nil {
		return 0, err
	}
	return len(p), nil
}

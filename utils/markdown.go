package utils

import (
	"bytes"
	"fmt"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/text"
)

// MarkdownRenderer converts answer markdown into HTML for the editor.
type MarkdownRenderer struct {
	md        goldmark.Markdown
	sanitizer *Sanitizer
}

func NewMarkdownRenderer(sanitizer *Sanitizer) *MarkdownRenderer {
	return &MarkdownRenderer{
		md:        goldmark.New(goldmark.WithExtensions(extension.GFM)),
		sanitizer: sanitizer,
	}
}

func (r *MarkdownRenderer) Render(markdown string) (string, error) {
	var buf bytes.Buffer
	if err := r.md.Convert([]byte(markdown), &buf); err != nil {
		return "", fmt.Errorf("failed to render markdown: %w", err)
	}
	if r.sanitizer == nil {
		return buf.String(), nil
	}
	return r.sanitizer.HTML(buf.String()), nil
}

// PlainText strips markdown syntax, keeping paragraph and heading text.
func PlainText(markdown string) string {
	source := []byte(markdown)
	document := goldmark.DefaultParser().Parse(text.NewReader(source))

	var out bytes.Buffer
	_ = ast.Walk(document, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		switch v := n.(type) {
		case *ast.Heading, *ast.Paragraph, *ast.TextBlock:
			if out.Len() > 0 {
				out.WriteString("\n")
			}
			out.Write(v.Text(source))
			return ast.WalkSkipChildren, nil
		case *ast.FencedCodeBlock:
			if out.Len() > 0 {
				out.WriteString("\n")
			}
			lines := v.Lines()
			for i := 0; i < lines.Len(); i++ {
				seg := lines.At(i)
				out.Write(seg.Value(source))
			}
			return ast.WalkSkipChildren, nil
		}
		return ast.WalkContinue, nil
	})
	return out.String()
}

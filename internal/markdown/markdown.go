// Package markdown renders Markdown sources to plain text so that language
// detection sees prose rather than markup.
package markdown

import (
	"bytes"
	"path/filepath"
	"strings"

	"github.com/gomarkdown/markdown"
	"github.com/gomarkdown/markdown/html"
	"github.com/gomarkdown/markdown/parser"
)

// Extensions lists file extensions treated as Markdown.
var Extensions = []string{".md", ".markdown"}

// IsMarkdown reports whether path has a Markdown extension.
func IsMarkdown(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	for _, e := range Extensions {
		if ext == e {
			return true
		}
	}
	return false
}

func ToHTML(md []byte) string {
	renderer := html.NewRenderer(html.RendererOptions{Flags: html.CommonFlags})
	p := parser.NewWithExtensions(parser.CommonExtensions)
	doc := p.Parse(md)
	return string(markdown.Render(doc, renderer))
}

// ToPlainText renders md and drops every tag, leaving text content only.
func ToPlainText(md []byte) string {
	return StripHTMLTags(ToHTML(md))
}

func StripHTMLTags(htmlContent string) string {
	var result bytes.Buffer
	inTag := false

	for _, ch := range htmlContent {
		switch ch {
		case '<':
			inTag = true
		case '>':
			inTag = false
		default:
			if !inTag {
				result.WriteRune(ch)
			}
		}
	}

	return strings.TrimSpace(result.String())
}

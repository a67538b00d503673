package docengine

import (
	"strings"

	"github.com/valpere/booktran/internal/engine"
	"github.com/valpere/booktran/internal/submit"
)

type blockKind int

const (
	textBlock blockKind = iota
	codeBlock
)

// block is a run of non-blank lines, or a fenced code block including its
// fences. line is 1-based.
type block struct {
	kind blockKind
	text string
	line int
	// open is set on a code block whose closing fence never appears.
	open bool
}

type document struct {
	blocks          []block
	trailingNewline bool
}

// parse splits content into blocks separated by blank lines. Fenced code is
// one block regardless of blank lines inside it.
func parse(content string) document {
	content = strings.ReplaceAll(content, "\r\n", "\n")
	doc := document{trailingNewline: strings.HasSuffix(content, "\n")}
	lines := strings.Split(strings.TrimSuffix(content, "\n"), "\n")

	var cur []string
	start := 0
	flush := func() {
		if len(cur) > 0 {
			doc.blocks = append(doc.blocks, block{kind: textBlock, text: strings.Join(cur, "\n"), line: start})
			cur = nil
		}
	}

	for i := 0; i < len(lines); i++ {
		line := lines[i]
		if marker, ok := fenceMarker(line); ok {
			flush()
			b := block{kind: codeBlock, line: i + 1, open: true}
			end := len(lines) - 1
			for j := i + 1; j < len(lines); j++ {
				if closesFence(lines[j], marker) {
					end, b.open = j, false
					break
				}
			}
			b.text = strings.Join(lines[i:end+1], "\n")
			doc.blocks = append(doc.blocks, b)
			i = end
			continue
		}
		if strings.TrimSpace(line) == "" {
			flush()
			continue
		}
		if len(cur) == 0 {
			start = i + 1
		}
		cur = append(cur, line)
	}
	flush()
	return doc
}

func fenceMarker(line string) (string, bool) {
	t := strings.TrimLeft(line, " ")
	if len(line)-len(t) > 3 {
		return "", false
	}
	for _, m := range []string{"```", "~~~"} {
		if strings.HasPrefix(t, m) {
			n := len(t) - len(strings.TrimLeft(t, m[:1]))
			return t[:n], true
		}
	}
	return "", false
}

func closesFence(line, marker string) bool {
	t := strings.TrimSpace(line)
	return strings.HasPrefix(t, marker) && strings.Trim(t, marker[:1]) == ""
}

// texts returns the text blocks and their indices in doc.blocks.
func (d document) texts() ([]string, []int) {
	var texts []string
	var idx []int
	for i, b := range d.blocks {
		if b.kind == textBlock {
			texts = append(texts, b.text)
			idx = append(idx, i)
		}
	}
	return texts, idx
}

// check reports whether mode can place translations into d.
func (d document) check(mode submit.Mode) error {
	if mode == submit.ReplaceOriginal {
		return nil
	}
	for _, b := range d.blocks {
		if b.kind == codeBlock && b.open {
			return &engine.StructuralError{Mode: mode, Line: b.line, Reason: "code fence is never closed"}
		}
		if mode == submit.AppendInline && b.kind == textBlock && strings.Contains(b.text, "\n") {
			return &engine.StructuralError{Mode: mode, Line: b.line, Reason: "block spans several lines"}
		}
	}
	return nil
}

// render assembles the output. translated maps block index to translation;
// blocks without an entry are written unchanged.
func (d document) render(mode submit.Mode, translated map[int]string) string {
	out := make([]string, 0, len(d.blocks))
	for i, b := range d.blocks {
		tr, ok := translated[i]
		if !ok {
			out = append(out, b.text)
			continue
		}
		switch mode {
		case submit.AppendAsBlock:
			out = append(out, b.text+"\n\n"+tr)
		case submit.AppendInline:
			out = append(out, b.text+" "+strings.ReplaceAll(tr, "\n", " "))
		default:
			out = append(out, tr)
		}
	}
	s := strings.Join(out, "\n\n")
	if d.trailingNewline && s != "" {
		s += "\n"
	}
	return s
}

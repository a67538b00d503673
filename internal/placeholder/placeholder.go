// Package placeholder shields inline markup inside a segment (code spans,
// HTML tags, link targets) from the translator by swapping it for numbered
// markers ([PH0], [PH1], ...) and putting it back afterwards.
package placeholder

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

var (
	// inline code spans: `...`
	reInlineCode = regexp.MustCompile("`[^`\n]+`")

	// HTML/XML tags: opening, closing, and self-closing
	reHTMLTag = regexp.MustCompile(`<[^<>\n]+>`)

	// Markdown link and image targets: the "(url)" after "]"
	reLinkTarget = regexp.MustCompile(`\]\([^()\s]+(?:\s+"[^"]*")?\)`)

	// placeholder reference in translated text
	rePlaceholder = regexp.MustCompile(`\[PH(\d+)\]`)
)

// Protected is a segment with its markup replaced by markers.
type Protected struct {
	Text      string
	originals []string
}

// Protect replaces inline code, link targets and HTML tags, in that order, with
// markers numbered by appearance.
func Protect(text string) *Protected {
	p := &Protected{}

	replace := func(match string) string {
		id := fmt.Sprintf("[PH%d]", len(p.originals))
		p.originals = append(p.originals, match)
		return id
	}

	text = reInlineCode.ReplaceAllStringFunc(text, replace)
	text = reLinkTarget.ReplaceAllStringFunc(text, func(match string) string {
		// keep the "]" so the link text stays attached to its marker
		return "]" + replace(match[1:])
	})
	text = reHTMLTag.ReplaceAllStringFunc(text, replace)

	p.Text = text
	return p
}

// Len returns the number of markers.
func (p *Protected) Len() int {
	return len(p.originals)
}

// Restore substitutes markers in translated with the captured originals.
// Unknown indices are left as they are.
func (p *Protected) Restore(translated string) string {
	if len(p.originals) == 0 {
		return translated
	}
	return rePlaceholder.ReplaceAllStringFunc(translated, func(match string) string {
		sub := rePlaceholder.FindStringSubmatch(match)
		idx, err := strconv.Atoi(sub[1])
		if err != nil || idx >= len(p.originals) {
			return match
		}
		return p.originals[idx]
	})
}

// Missing lists the indices of markers absent from translated.
func (p *Protected) Missing(translated string) []int {
	var missing []int
	for i := range p.originals {
		if !strings.Contains(translated, fmt.Sprintf("[PH%d]", i)) {
			missing = append(missing, i)
		}
	}
	return missing
}

// InstructionHint tells an LLM to leave markers intact.
func InstructionHint() string {
	return "Preserve all [PHn] markers exactly as they appear. Do not translate, move, or remove them."
}

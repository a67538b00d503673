// Package postprocess removes common LLM artifacts from translated segments
// before they are written back into a document.
package postprocess

import (
	"regexp"
	"strings"
)

// cleaners run in order; each receives the output of the previous one.
var cleaners = []func(string) string{
	removeThinkingBlocks,
	removeInstructionEchoes,
	removeFenceWrapping,
	removeQuoteWrapping,
}

// Clean strips reasoning blocks, echoed instructions, a code fence or a pair
// of quotes wrapping the whole answer, and surrounding whitespace.
func Clean(text string) string {
	for _, clean := range cleaners {
		text = clean(text)
	}
	return strings.TrimSpace(text)
}

// thinkingBlockRe matches complete <thinking>…</thinking> style blocks.
// Go's RE2 engine has no backreferences, so each tag variant is listed.
var thinkingBlockRe = regexp.MustCompile(
	`(?is)<thinking>.*?</thinking>|<think>.*?</think>|<reasoning>.*?</reasoning>|<reflection>.*?</reflection>`,
)

// truncatedThinkingRe matches an opened thinking tag whose closing tag is
// missing (the model was cut off mid-thought).
var truncatedThinkingRe = regexp.MustCompile(
	`(?is)(?:<thinking>|<think>|<reasoning>|<reflection>).*$`,
)

func removeThinkingBlocks(text string) string {
	text = thinkingBlockRe.ReplaceAllString(text, "")
	text = truncatedThinkingRe.ReplaceAllString(text, "")
	return strings.TrimSpace(text)
}

// echoPatterns match introductory phrases that LLMs prepend even when told
// not to. Each is anchored at the start and requires a colon.
var echoPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)^here(?:'s| is)(?: the| your)? (?:translated |final )?(?:translation|text)(?: in [a-z]+)?\s*:`),
	regexp.MustCompile(`(?i)^(?:the )?(?:translation|translated text)(?: in [a-z]+)?\s*:`),
	regexp.MustCompile(`(?i)^(?:certainly|sure|of course)[,.!]? here(?:'s| is)(?: the| your)? (?:translated )?(?:translation|text)\s*:`),
}

func removeInstructionEchoes(text string) string {
	for _, re := range echoPatterns {
		if loc := re.FindStringIndex(text); loc != nil {
			text = strings.TrimSpace(text[loc[1]:])
		}
	}
	return text
}

// fenceWrapRe matches an answer wrapped entirely in one Markdown code fence.
var fenceWrapRe = regexp.MustCompile("(?s)^```[a-zA-Z]*\\n(.*?)\\n?```$")

func removeFenceWrapping(text string) string {
	if m := fenceWrapRe.FindStringSubmatch(text); m != nil {
		return strings.TrimSpace(m[1])
	}
	return text
}

// removeQuoteWrapping strips one matching pair of outer quotes:
//
//	"…"  '…'  «…»  “…”  ‘…’  「…」
func removeQuoteWrapping(text string) string {
	runes := []rune(text)
	n := len(runes)
	if n < 2 {
		return text
	}
	first, last := runes[0], runes[n-1]
	inner := string(runes[1 : n-1])
	if strings.ContainsRune(inner, first) || strings.ContainsRune(inner, last) {
		// "a" and "b" is quoted speech, not a wrapper
		return text
	}
	switch {
	case first == '"' && last == '"',
		first == '\'' && last == '\'',
		first == '«' && last == '»',
		first == '“' && last == '”',
		first == '‘' && last == '’',
		first == '「' && last == '」':
		return strings.TrimSpace(inner)
	}
	return text
}

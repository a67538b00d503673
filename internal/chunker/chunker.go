// Package chunker groups document blocks into translation segments bounded by
// an approximate token budget, splitting single blocks that exceed it at
// sentence or word boundaries.
package chunker

import (
	"strings"
	"unicode"
)

// RunesPerToken approximates how many characters one LLM token covers.
const RunesPerToken = 4

// EstimateTokens returns a rough token count for text (at least 1 for
// non-empty text).
func EstimateTokens(text string) int {
	n := len([]rune(text))
	if n == 0 {
		return 0
	}
	return (n + RunesPerToken - 1) / RunesPerToken
}

// Group packs consecutive blocks into groups whose estimated token total stays
// within maxTokens. A block larger than maxTokens gets a group of its own.
// The result holds block indices. maxTokens ≤ 0 puts everything in one group.
func Group(blocks []string, maxTokens int) [][]int {
	var groups [][]int
	var current []int
	used := 0

	for i, b := range blocks {
		cost := EstimateTokens(b)
		if maxTokens > 0 && len(current) > 0 && used+cost > maxTokens {
			groups = append(groups, current)
			current, used = nil, 0
		}
		current = append(current, i)
		used += cost
	}
	if len(current) > 0 {
		groups = append(groups, current)
	}
	return groups
}

// Split cuts text into pieces of at most maxTokens estimated tokens.
// Splits are attempted (in order of preference) at:
//  1. Sentence-ending punctuation (. ! ? and their CJK forms) followed by space
//  2. Whitespace (word boundary)
//  3. Hard cut if no suitable boundary is found
//
// maxTokens ≤ 0 returns the whole text.
func Split(text string, maxTokens int) []string {
	if maxTokens <= 0 || EstimateTokens(text) <= maxTokens {
		return []string{text}
	}
	limit := maxTokens * RunesPerToken

	var pieces []string
	remaining := []rune(text)
	for len(remaining) > limit {
		cut := findSplit(remaining[:limit])
		if piece := strings.TrimSpace(string(remaining[:cut])); piece != "" {
			pieces = append(pieces, piece)
		}
		remaining = []rune(strings.TrimLeftFunc(string(remaining[cut:]), unicode.IsSpace))
	}
	if rest := strings.TrimSpace(string(remaining)); rest != "" {
		pieces = append(pieces, rest)
	}
	return pieces
}

// findSplit returns the rune index within candidate at which to cut.
func findSplit(candidate []rune) int {
	for i := len(candidate) - 1; i > 0; i-- {
		if isCJKStop(candidate[i]) || (isSentenceEnd(candidate[i]) && i+1 < len(candidate) && unicode.IsSpace(candidate[i+1])) {
			return i + 1
		}
	}

	for i := len(candidate) - 1; i > 0; i-- {
		if unicode.IsSpace(candidate[i]) {
			return i
		}
	}

	return len(candidate)
}

func isSentenceEnd(r rune) bool {
	return r == '.' || r == '!' || r == '?' || isCJKStop(r)
}

func isCJKStop(r rune) bool {
	return r == '。' || r == '！' || r == '？'
}

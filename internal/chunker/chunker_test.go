package chunker_test

import (
	"strings"
	"testing"

	"github.com/valpere/booktran/internal/chunker"
)

func TestEstimateTokens(t *testing.T) {
	if got := chunker.EstimateTokens(""); got != 0 {
		t.Errorf("expected 0 for empty text, got %d", got)
	}
	if got := chunker.EstimateTokens("abc"); got != 1 {
		t.Errorf("expected 1, got %d", got)
	}
	if got := chunker.EstimateTokens("abcdefgh"); got != 2 {
		t.Errorf("expected 2, got %d", got)
	}
	// runes, not bytes
	if got := chunker.EstimateTokens("привіт!!"); got != 2 {
		t.Errorf("expected 2 for 8 runes, got %d", got)
	}
}

func TestGroup_PacksWithinBudget(t *testing.T) {
	blocks := []string{
		strings.Repeat("a", 20), // 5 tokens
		strings.Repeat("b", 20), // 5 tokens
		strings.Repeat("c", 20), // 5 tokens
	}
	groups := chunker.Group(blocks, 10)
	if len(groups) != 2 {
		t.Fatalf("expected 2 groups, got %v", groups)
	}
	if len(groups[0]) != 2 || groups[0][0] != 0 || groups[0][1] != 1 {
		t.Errorf("unexpected first group %v", groups[0])
	}
	if len(groups[1]) != 1 || groups[1][0] != 2 {
		t.Errorf("unexpected second group %v", groups[1])
	}
}

func TestGroup_OversizedBlockAlone(t *testing.T) {
	blocks := []string{"short", strings.Repeat("x", 400), "tail"}
	groups := chunker.Group(blocks, 10)
	if len(groups) != 3 {
		t.Fatalf("expected 3 groups, got %v", groups)
	}
}

func TestGroup_Unlimited(t *testing.T) {
	groups := chunker.Group([]string{"a", "b", "c"}, 0)
	if len(groups) != 1 || len(groups[0]) != 3 {
		t.Errorf("expected a single group, got %v", groups)
	}
}

func TestGroup_Empty(t *testing.T) {
	if groups := chunker.Group(nil, 10); len(groups) != 0 {
		t.Errorf("expected no groups, got %v", groups)
	}
}

func TestSplit_ShortText(t *testing.T) {
	text := "Hello, world!"
	pieces := chunker.Split(text, 100)
	if len(pieces) != 1 || pieces[0] != text {
		t.Errorf("expected text unchanged, got %v", pieces)
	}
}

func TestSplit_SentenceBoundary(t *testing.T) {
	text := "First sentence ends here. Second sentence follows. Third sentence."
	pieces := chunker.Split(text, 10) // 40 runes
	if len(pieces) < 2 {
		t.Fatalf("expected ≥2 pieces, got %v", pieces)
	}
	if !strings.HasSuffix(pieces[0], ".") {
		t.Errorf("first piece should end at a sentence: %q", pieces[0])
	}
	if strings.Join(pieces, " ") != text {
		t.Errorf("pieces do not reassemble the text: %v", pieces)
	}
}

func TestSplit_WordBoundary(t *testing.T) {
	text := strings.Repeat("word ", 30)
	pieces := chunker.Split(text, 5) // 20 runes
	for i, p := range pieces {
		if len([]rune(p)) > 20 {
			t.Errorf("piece %d too long: %q", i, p)
		}
		if strings.HasPrefix(p, " ") || strings.HasSuffix(p, " ") {
			t.Errorf("piece %d not trimmed: %q", i, p)
		}
	}
}

func TestSplit_HardCut(t *testing.T) {
	text := strings.Repeat("x", 50)
	pieces := chunker.Split(text, 5)
	if len(pieces) != 3 {
		t.Fatalf("expected 3 pieces, got %d", len(pieces))
	}
	if strings.Join(pieces, "") != text {
		t.Error("hard cut lost characters")
	}
}

func TestSplit_CJK(t *testing.T) {
	text := strings.Repeat("这是一个句子。", 10)
	pieces := chunker.Split(text, 5) // 20 runes
	for i, p := range pieces {
		if !strings.HasSuffix(p, "。") {
			t.Errorf("piece %d should end at a full stop: %q", i, p)
		}
	}
	if strings.Join(pieces, "") != text {
		t.Error("pieces do not reassemble the text")
	}
}

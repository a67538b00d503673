package detector

import (
	"os"
	"path/filepath"
	"sync"
	"testing"
)

var (
	sharedOnce sync.Once
	shared     *Detector
)

// detector building is expensive; share one instance across tests.
func testDetector() *Detector {
	sharedOnce.Do(func() { shared = New() })
	return shared
}

func TestDetector_DetectName(t *testing.T) {
	d := testDetector()

	tests := []struct {
		text string
		want string
	}{
		{"Hello, this is a test in English.", "English"},
		{"Привіт, це тест українською мовою.", "Ukrainian"},
		{"Hallo, das ist ein Test auf Deutsch.", "German"},
		{"Bonjour, ceci est un test en français.", "French"},
	}
	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			got, ok := d.DetectName(tt.text)
			if !ok {
				t.Fatalf("DetectName(%q): no language detected", tt.text)
			}
			if got != tt.want {
				t.Errorf("DetectName(%q) = %q, want %q", tt.text, got, tt.want)
			}
		})
	}
}

func TestDetector_DetectISO(t *testing.T) {
	d := testDetector()

	code, ok := d.DetectISO("Hola, esto es una prueba en español.")
	if !ok {
		t.Fatal("expected a detected language")
	}
	if code != "ES" {
		t.Errorf("DetectISO = %q, want ES", code)
	}

	if _, ok := d.DetectISO(""); ok {
		t.Error("expected no detection for empty text")
	}
}

func TestDetector_SourceLanguage_Markdown(t *testing.T) {
	path := filepath.Join(t.TempDir(), "chapter.md")
	content := "# Kapitel eins\n\nEs war einmal ein kleines Mädchen, das mit seiner Großmutter am Rande des Waldes lebte.\n"
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write fixture: %v", err)
	}

	if got := testDetector().SourceLanguage(path); got != "German" {
		t.Errorf("SourceLanguage = %q, want German", got)
	}
}

func TestDetector_SourceLanguage_Missing(t *testing.T) {
	if got := testDetector().SourceLanguage(filepath.Join(t.TempDir(), "missing.txt")); got != "auto" {
		t.Errorf("SourceLanguage = %q, want auto", got)
	}
}

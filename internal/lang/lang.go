// Package lang defines the fixed set of target languages a document can be
// translated into.
package lang

import (
	"fmt"
	"strings"

	"golang.org/x/text/language"
)

// Language is a supported target language, identified by its English name.
type Language string

const (
	English    Language = "English"
	Chinese    Language = "Chinese"
	Spanish    Language = "Spanish"
	French     Language = "French"
	German     Language = "German"
	Japanese   Language = "Japanese"
	Korean     Language = "Korean"
	Portuguese Language = "Portuguese"
	Russian    Language = "Russian"
	Italian    Language = "Italian"
	Arabic     Language = "Arabic"
	Hindi      Language = "Hindi"
)

var tags = map[Language]language.Tag{
	English:    language.English,
	Chinese:    language.Chinese,
	Spanish:    language.Spanish,
	French:     language.French,
	German:     language.German,
	Japanese:   language.Japanese,
	Korean:     language.Korean,
	Portuguese: language.Portuguese,
	Russian:    language.Russian,
	Italian:    language.Italian,
	Arabic:     language.Arabic,
	Hindi:      language.Hindi,
}

// All lists the supported languages in display order.
var All = []Language{
	English, Chinese, Spanish, French, German, Japanese,
	Korean, Portuguese, Russian, Italian, Arabic, Hindi,
}

// UnsupportedError reports a language name outside the supported set.
type UnsupportedError struct {
	Name string
}

func (e *UnsupportedError) Error() string {
	return fmt.Sprintf("unsupported target language %q", e.Name)
}

// Parse resolves a language name case-insensitively. ISO 639-1 codes of the
// supported languages ("zh", "de", ...) are accepted as well.
func Parse(name string) (Language, error) {
	trimmed := strings.TrimSpace(name)
	for _, l := range All {
		if strings.EqualFold(string(l), trimmed) || strings.EqualFold(l.Code(), trimmed) {
			return l, nil
		}
	}
	return "", &UnsupportedError{Name: name}
}

// Tag returns the BCP 47 tag of the language.
func (l Language) Tag() language.Tag {
	if t, ok := tags[l]; ok {
		return t
	}
	return language.Und
}

// Code returns the ISO 639-1 code, e.g. "zh" for Chinese.
func (l Language) Code() string {
	base, _ := l.Tag().Base()
	return base.String()
}

func (l Language) String() string {
	return string(l)
}

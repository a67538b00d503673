// Package submit defines the strategies for injecting translated content into
// a document and builds the ordered fallback sequence tried for one job.
package submit

import (
	"fmt"
	"strings"
)

// Mode is a canonical content-submission strategy.
type Mode int

const (
	// ReplaceOriginal substitutes the translation for the source text.
	ReplaceOriginal Mode = iota + 1
	// AppendAsBlock keeps the source and adds the translation as a new block after it.
	AppendAsBlock
	// AppendInline keeps the source and appends the translation on the same line.
	AppendInline
)

type modeInfo struct {
	id    string
	label string
}

var modes = map[Mode]modeInfo{
	ReplaceOriginal: {id: "REPLACE", label: "Replace original"},
	AppendAsBlock:   {id: "APPEND_BLOCK", label: "Append as block"},
	AppendInline:    {id: "APPEND_INLINE", label: "Append inline"},
}

// Priority is the fallback order, most structurally permissive first.
var Priority = []Mode{ReplaceOriginal, AppendAsBlock, AppendInline}

// ID returns the canonical identifier, e.g. "APPEND_BLOCK".
func (m Mode) ID() string {
	if info, ok := modes[m]; ok {
		return info.id
	}
	return fmt.Sprintf("MODE(%d)", int(m))
}

// Label returns the user-facing display label.
func (m Mode) Label() string {
	if info, ok := modes[m]; ok {
		return info.label
	}
	return m.ID()
}

func (m Mode) String() string {
	return m.ID()
}

// Valid reports whether m is one of the canonical modes.
func (m Mode) Valid() bool {
	_, ok := modes[m]
	return ok
}

// InvalidModeError is returned for an unrecognized submission-mode label.
type InvalidModeError struct {
	Label string
}

func (e *InvalidModeError) Error() string {
	known := make([]string, 0, len(Priority))
	for _, m := range Priority {
		known = append(known, m.ID())
	}
	return fmt.Sprintf("invalid submit mode %q (known: %s)", e.Label, strings.Join(known, ", "))
}

// ParseLabel maps a display label or a canonical identifier to its Mode.
// Matching ignores case, surrounding spaces, and treats '-', '_' and ' ' alike.
func ParseLabel(label string) (Mode, error) {
	key := normalize(label)
	if key != "" {
		for _, m := range Priority {
			info := modes[m]
			if key == normalize(info.id) || key == normalize(info.label) {
				return m, nil
			}
		}
	}
	return 0, &InvalidModeError{Label: label}
}

func normalize(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	return strings.NewReplacer("-", " ", "_", " ").Replace(s)
}

package submit

import "strings"

// Step is one entry of a fallback sequence.
type Step struct {
	Mode  Mode
	Label string
}

// Sequence is the ordered list of modes tried for one job. Each mode appears
// at most once and the first step is always the user's selection. A Sequence
// is never mutated after BuildSequence returns it.
type Sequence struct {
	steps []Step
}

// BuildSequence places the mode selected by label first and appends the
// remaining canonical modes in Priority order.
func BuildSequence(label string) (Sequence, error) {
	first, err := ParseLabel(label)
	if err != nil {
		return Sequence{}, err
	}
	return SequenceFrom(first), nil
}

// SequenceFrom builds the fallback sequence for an already parsed mode.
func SequenceFrom(first Mode) Sequence {
	steps := make([]Step, 0, len(Priority))
	seen := make(map[Mode]bool, len(Priority))

	add := func(m Mode) {
		if seen[m] || !m.Valid() {
			return
		}
		seen[m] = true
		steps = append(steps, Step{Mode: m, Label: m.Label()})
	}

	add(first)
	for _, m := range Priority {
		add(m)
	}
	return Sequence{steps: steps}
}

// Len returns the number of steps.
func (s Sequence) Len() int {
	return len(s.steps)
}

// At returns step i.
func (s Sequence) At(i int) Step {
	return s.steps[i]
}

// Steps returns a copy of the steps.
func (s Sequence) Steps() []Step {
	out := make([]Step, len(s.steps))
	copy(out, s.steps)
	return out
}

// Modes returns the modes in order.
func (s Sequence) Modes() []Mode {
	out := make([]Mode, len(s.steps))
	for i, st := range s.steps {
		out[i] = st.Mode
	}
	return out
}

func (s Sequence) String() string {
	ids := make([]string, len(s.steps))
	for i, st := range s.steps {
		ids[i] = st.Mode.ID()
	}
	return strings.Join(ids, " -> ")
}

package msr

type SyllableKind int

const (
	SyllableSingle SyllableKind = iota + 1
	SyllableBegin
	SyllableMiddle
	SyllableEnd
	SyllableSkip
	SyllableBarCheck
)

func (k SyllableKind) String() string {
	switch k {
	case SyllableSingle:
		return "single"
	case SyllableBegin:
		return "begin"
	case SyllableMiddle:
		return "middle"
	case SyllableEnd:
		return "end"
	case SyllableSkip:
		return "skip"
	case SyllableBarCheck:
		return "bar-check"
	default:
		return "unknown"
	}
}

type Syllable struct {
	Kind          SyllableKind
	Text          string
	Line          int
	MeasureNumber string
}

// Stanza is one verse of lyrics kept in step with the voice's bars: each bar
// boundary appends a bar-check syllable.
type Stanza struct {
	Number    string
	Syllables []Syllable
}

func (s *Stanza) clone() *Stanza {
	out := &Stanza{Number: s.Number, Syllables: make([]Syllable, len(s.Syllables))}
	copy(out.Syllables, s.Syllables)
	return out
}

// BarChecks counts the bar boundaries recorded so far.
func (s *Stanza) BarChecks() int {
	n := 0
	for _, syl := range s.Syllables {
		if syl.Kind == SyllableBarCheck {
			n++
		}
	}
	return n
}

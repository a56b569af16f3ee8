package msr

import (
	"fmt"
	"strconv"
	"strings"
)

// BuildPhase only moves forward.
type BuildPhase int

const (
	PhaseJustCreated BuildPhase = iota + 1
	PhaseInCommonPart
	PhaseInEndings
	PhaseCompleted
)

func (p BuildPhase) String() string {
	switch p {
	case PhaseJustCreated:
		return "just-created"
	case PhaseInCommonPart:
		return "in-common-part"
	case PhaseInEndings:
		return "in-endings"
	case PhaseCompleted:
		return "completed"
	default:
		return "unknown"
	}
}

type EndingKind int

const (
	EndingHooked EndingKind = iota + 1
	EndingHookless
)

func (k EndingKind) String() string {
	if k == EndingHookless {
		return "hookless"
	}
	return "hooked"
}

type RepeatCommonPart struct {
	Elements []VoiceElement
}

type RepeatEnding struct {
	Number  string
	Kind    EndingKind
	Line    int
	Ordinal int

	Elements []VoiceElement
}

// Passes decodes the ending label ("1", "1,2", "1, 2", "1-3") into pass numbers.
func (e *RepeatEnding) Passes() []int {
	var out []int
	for _, tok := range strings.FieldsFunc(e.Number, func(r rune) bool { return r == ',' || r == ' ' || r == '.' }) {
		if lo, hi, ok := strings.Cut(tok, "-"); ok {
			a, errA := strconv.Atoi(lo)
			b, errB := strconv.Atoi(hi)
			if errA == nil && errB == nil && a <= b {
				for n := a; n <= b; n++ {
					out = append(out, n)
				}
			}
			continue
		}
		if n, err := strconv.Atoi(tok); err == nil {
			out = append(out, n)
		}
	}
	if len(out) == 0 {
		out = []int{e.Ordinal}
	}
	return out
}

type Repeat struct {
	Line          int
	EndLine       int
	ExplicitStart bool
	Times         int
	// EndMeasureNumber is the source number of the bar carrying the backward repeat.
	EndMeasureNumber string
	CommonPart       *RepeatCommonPart
	Endings          []*RepeatEnding

	phase BuildPhase
	// endingOpen is set between an ending start and its end; pendingEnding
	// collects elements closed while it is open.
	endingOpen    bool
	pendingEnding []VoiceElement
	// awaitingEnding follows a hooked ending; endingRepeated records a
	// backward repeat seen after it.
	awaitingEnding bool
	endingRepeated bool
}

func newRepeat(line int, explicit bool) *Repeat {
	return &Repeat{
		Line:          line,
		ExplicitStart: explicit,
		Times:         2,
		CommonPart:    &RepeatCommonPart{},
		phase:         PhaseJustCreated,
	}
}

func (r *Repeat) Kind() VoiceElementKind { return KindRepeat }
func (*Repeat) voiceElement()            {}

func (r *Repeat) Phase() BuildPhase { return r.phase }

// advance moves the build phase forward; it never moves backwards.
func (r *Repeat) advance(p BuildPhase) bool {
	if p < r.phase {
		return false
	}
	r.phase = p
	return true
}

// Passes is how many times the common part is played.
func (r *Repeat) Passes() int {
	n := r.Times
	for _, e := range r.Endings {
		for _, p := range e.Passes() {
			if p > n {
				n = p
			}
		}
	}
	if n < 1 {
		n = 1
	}
	return n
}

func (r *Repeat) endingForPass(pass int) *RepeatEnding {
	for _, e := range r.Endings {
		for _, p := range e.Passes() {
			if p == pass {
				return e
			}
		}
	}
	return nil
}

func (r *Repeat) String() string {
	return fmt.Sprintf("repeat line %d explicit=%t x%d %s, %d endings", r.Line, r.ExplicitStart, r.Times, r.phase, len(r.Endings))
}

// RepeatDescriptor binds an open repeat to the line where it began.
type RepeatDescriptor struct {
	Repeat    *Repeat
	StartLine int
}

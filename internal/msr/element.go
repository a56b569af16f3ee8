package msr

import (
	"fmt"
	"math/big"
)

// ElementKind is the closed set of payload kinds a measure can carry.
type ElementKind int

const (
	ElementNote ElementKind = iota + 1
	ElementRest
	ElementSkip
	ElementChord
	ElementTuplet
	ElementHarmony
	ElementFiguredBass
	ElementClef
	ElementKey
	ElementTime
	ElementDirection
)

func (k ElementKind) String() string {
	switch k {
	case ElementNote:
		return "note"
	case ElementRest:
		return "rest"
	case ElementSkip:
		return "skip"
	case ElementChord:
		return "chord"
	case ElementTuplet:
		return "tuplet"
	case ElementHarmony:
		return "harmony"
	case ElementFiguredBass:
		return "figured-bass"
	case ElementClef:
		return "clef"
	case ElementKey:
		return "key"
	case ElementTime:
		return "time"
	case ElementDirection:
		return "direction"
	default:
		return fmt.Sprintf("element(%d)", int(k))
	}
}

// timed reports whether elements of this kind advance the measure position.
func (k ElementKind) timed() bool {
	switch k {
	case ElementNote, ElementRest, ElementSkip, ElementChord, ElementTuplet, ElementHarmony, ElementFiguredBass:
		return true
	case ElementClef, ElementKey, ElementTime, ElementDirection:
		return false
	default:
		panic(fmt.Sprintf("msr: unhandled element kind %d", int(k)))
	}
}

// Element is an opaque payload item riding inside a measure. Only its kind
// and duration matter to the structural engine.
type Element struct {
	Kind     ElementKind
	Line     int
	Duration *big.Rat
	Text     string
	// Members is the note count of a chord or tuplet.
	Members int
	// BarDuration is set on ElementTime.
	BarDuration *big.Rat
}

func (e Element) clone() Element {
	out := e
	out.Duration = cloneRat(e.Duration)
	out.BarDuration = cloneRat(e.BarDuration)
	return out
}

func (e Element) sounding() *big.Rat {
	if !e.Kind.timed() {
		return new(big.Rat)
	}
	return ratOrZero(e.Duration)
}

package msr

import (
	"fmt"
	"math/big"
)

type MeasureClass int

const (
	MeasureClassUnknown MeasureClass = iota
	MeasureRegular
	MeasureFirstInVoice
	MeasureCreatedForRepeat
)

func (c MeasureClass) String() string {
	switch c {
	case MeasureRegular:
		return "regular"
	case MeasureFirstInVoice:
		return "first-in-voice"
	case MeasureCreatedForRepeat:
		return "created-for-repeat"
	default:
		return "unknown"
	}
}

type MeasureFill int

const (
	FillEmpty MeasureFill = iota + 1
	FillIncomplete
	FillFull
)

func (f MeasureFill) String() string {
	switch f {
	case FillEmpty:
		return "empty"
	case FillIncomplete:
		return "incomplete"
	case FillFull:
		return "full"
	default:
		return "unknown"
	}
}

// Measure is one notated bar. It is owned by exactly one Segment at a time;
// SegmentID names that owner.
type Measure struct {
	Number       string
	PuristNumber int
	Line         int
	Implicit     bool
	SegmentID    int

	elements         []Element
	full             *big.Rat
	filled           *big.Rat
	timedElements    int
	createdForRepeat bool
	class            MeasureClass
	finalized        bool
}

func newMeasure(line int, number string, purist int, implicit bool, full *big.Rat) *Measure {
	return &Measure{
		Number:       number,
		PuristNumber: purist,
		Line:         line,
		Implicit:     implicit,
		full:         cloneRat(ratOrZero(full)),
		filled:       new(big.Rat),
	}
}

func (m *Measure) Elements() []Element {
	out := make([]Element, len(m.elements))
	copy(out, m.elements)
	return out
}

func (m *Measure) FullDuration() *big.Rat   { return cloneRat(m.full) }
func (m *Measure) FilledDuration() *big.Rat { return cloneRat(m.filled) }
func (m *Measure) Class() MeasureClass      { return m.class }
func (m *Measure) Finalized() bool          { return m.finalized }

// IsEmpty reports whether no timed content reached the bar yet.
func (m *Measure) IsEmpty() bool { return m.timedElements == 0 && m.filled.Sign() == 0 }

func (m *Measure) IsFull() bool { return m.timedElements > 0 && m.filled.Cmp(m.full) >= 0 }

func (m *Measure) Fill() MeasureFill {
	switch {
	case m.IsEmpty():
		return FillEmpty
	case m.IsFull():
		return FillFull
	default:
		return FillIncomplete
	}
}

// remaining is the part of the bar not filled yet.
func (m *Measure) remaining() *big.Rat {
	r := new(big.Rat).Sub(m.full, m.filled)
	if r.Sign() < 0 {
		return new(big.Rat)
	}
	return r
}

// append adds e and reports whether the bar had to be stretched to hold it.
func (m *Measure) append(e Element) bool {
	m.elements = append(m.elements, e)
	if e.Kind == ElementTime && m.IsEmpty() && e.BarDuration != nil {
		m.full = cloneRat(e.BarDuration)
	}
	if !e.Kind.timed() {
		return false
	}
	m.timedElements++
	m.filled.Add(m.filled, e.sounding())
	if m.filled.Cmp(m.full) > 0 {
		m.full = cloneRat(m.filled)
		return true
	}
	return false
}

// finalize classifies the bar; it returns a warning message for unusual first bars.
func (m *Measure) finalize() string {
	if m.finalized {
		return ""
	}
	m.finalized = true
	switch {
	case m.PuristNumber == 1 && !m.createdForRepeat:
		m.class = MeasureFirstInVoice
		if !m.Implicit && m.Fill() == FillIncomplete {
			return fmt.Sprintf("first measure %s holds %s of %s whole notes", m.Number, m.filled.RatString(), m.full.RatString())
		}
	case m.createdForRepeat:
		m.class = MeasureCreatedForRepeat
	default:
		m.class = MeasureRegular
	}
	return ""
}

func (m *Measure) clone(segmentID int) *Measure {
	out := *m
	out.SegmentID = segmentID
	out.full = cloneRat(m.full)
	out.filled = cloneRat(m.filled)
	out.elements = make([]Element, len(m.elements))
	for i, e := range m.elements {
		out.elements[i] = e.clone()
	}
	return &out
}

func (m *Measure) String() string {
	return fmt.Sprintf("measure %s (%d) %s/%s", m.Number, m.PuristNumber, m.filled.RatString(), m.full.RatString())
}

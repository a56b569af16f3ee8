package msr

import (
	"fmt"
	"math/big"

	"github.com/cbegin/mxlstruct-go/internal/diag"
)

type VoiceKind int

const (
	VoiceRegular VoiceKind = iota + 1
	VoiceHarmony
	VoiceFiguredBass
)

func (k VoiceKind) String() string {
	switch k {
	case VoiceRegular:
		return "regular"
	case VoiceHarmony:
		return "harmony"
	case VoiceFiguredBass:
		return "figured-bass"
	default:
		return "unknown"
	}
}

type Counters struct {
	Notes         int
	Rests         int
	Skips         int
	Chords        int
	Tuplets       int
	Harmonies     int
	FiguredBasses int
}

// Voice turns the flat, document-order marker stream of one notated line
// into the nested tree of segments, repeats, rest measures and measures
// repeats. Every handler runs to completion; there is no lookahead.
type Voice struct {
	Kind        VoiceKind
	Number      int
	Name        string
	StaffNumber int
	PartID      string

	ids   *IDSource
	trace diag.Trace

	lastSegment    *Segment
	firstSegmentID int
	initial        []VoiceElement
	stack          []RepeatDescriptor

	pendingRest           *RestMeasures
	pendingMeasuresRepeat *MeasuresRepeat

	barDuration          *big.Rat
	currentMeasure       *Measure
	puristCounter        int
	openedMeasures       int
	continuationMeasures int
	nextMeasureNumber    string

	counters Counters
	stanzas  []*Stanza
	warnings []diag.Warning

	pushes    int
	pops      int
	finalized bool
}

func NewVoice(ids *IDSource, trace diag.Trace, kind VoiceKind, partID string, staff, number int) *Voice {
	if ids == nil {
		ids = NewIDSource()
	}
	v := &Voice{
		Kind:        kind,
		Number:      number,
		Name:        voiceName(partID, staff, kind, number),
		StaffNumber: staff,
		PartID:      partID,
		ids:         ids,
		trace:       trace,
		barDuration: big.NewRat(1, 1),
	}
	v.createNewLastSegment(0)
	v.trace.Log(diag.CategoryVoices, "create voice", "voice", v.Name, "kind", kind.String())
	return v
}

func (v *Voice) Finalized() bool           { return v.finalized }
func (v *Voice) Counters() Counters        { return v.counters }
func (v *Voice) LastSegment() *Segment     { return v.lastSegment }
func (v *Voice) FirstSegmentID() int       { return v.firstSegmentID }
func (v *Voice) StackDepth() int           { return len(v.stack) }
func (v *Voice) OpenedMeasures() int       { return v.openedMeasures }
func (v *Voice) ContinuationMeasures() int { return v.continuationMeasures }

// NextMeasureNumber is the number announced for the bar after a rest
// measures run; it stays empty until that run has been fully consumed.
func (v *Voice) NextMeasureNumber() string { return v.nextMeasureNumber }

func (v *Voice) PendingRestMeasures() *RestMeasures     { return v.pendingRest }
func (v *Voice) PendingMeasuresRepeat() *MeasuresRepeat { return v.pendingMeasuresRepeat }
func (v *Voice) Stack() []RepeatDescriptor              { return append([]RepeatDescriptor(nil), v.stack...) }
func (v *Voice) InitialElements() []VoiceElement        { return append([]VoiceElement(nil), v.initial...) }
func (v *Voice) Warnings() []diag.Warning               { return append([]diag.Warning(nil), v.warnings...) }
func (v *Voice) Stanzas() []*Stanza                     { return append([]*Stanza(nil), v.stanzas...) }

func (v *Voice) SetBarDuration(d *big.Rat) { v.barDuration = cloneRat(ratOrZero(d)) }

func (v *Voice) stackTop() *Repeat { return v.stack[len(v.stack)-1].Repeat }

func (v *Voice) checkLive(line int, event string) error {
	if v.finalized {
		return v.internalf(line, "%s after the voice was finalized", event)
	}
	return nil
}

func (v *Voice) warn(line int, msg string) {
	w := diag.Warning{Voice: v.Name, Line: line, Message: msg}
	v.warnings = append(v.warnings, w)
	v.trace.Warn(w)
}

func (v *Voice) warnf(line int, format string, args ...any) {
	v.warn(line, fmt.Sprintf(format, args...))
}

// OpenMeasure starts a new bar; the previous one is finalized.
func (v *Voice) OpenMeasure(line int, number string, implicit bool) error {
	if err := v.checkLive(line, "open measure"); err != nil {
		return err
	}
	v.finalizeCurrentMeasure()
	if r := v.pendingRest; r != nil && r.remaining == 0 {
		if err := v.RestMeasuresEnd(line); err != nil {
			return err
		}
	}
	if r := v.pendingRest; r != nil {
		r.remaining--
		if r.remaining == 0 && r.NextMeasureNumber != "" {
			v.nextMeasureNumber = r.NextMeasureNumber
		}
	} else if v.nextMeasureNumber != "" {
		if v.nextMeasureNumber != number {
			v.warnf(line, "measure %s follows rest measures announcing %s", number, v.nextMeasureNumber)
		}
		v.nextMeasureNumber = ""
	}
	v.puristCounter++
	m := newMeasure(line, number, v.puristCounter, implicit, v.barDuration)
	v.appendMeasureToLastSegment(m)
	v.currentMeasure = m
	v.openedMeasures++
	for _, st := range v.stanzas {
		st.Syllables = append(st.Syllables, Syllable{Kind: SyllableBarCheck, Line: line, MeasureNumber: number})
	}
	v.trace.Log(diag.CategoryMeasures, "open measure", "voice", v.Name, "number", number, "purist", m.PuristNumber, "line", line)
	return nil
}

// AppendElement adds payload to the bar at hand.
func (v *Voice) AppendElement(line int, e Element) error {
	if err := v.checkLive(line, "append "+e.Kind.String()); err != nil {
		return err
	}
	// attributes ahead of the bar's ending-start must not close the repeat
	if e.Kind.timed() {
		if err := v.closeRepeatAwaitingFinalEnding(line); err != nil {
			return err
		}
	}
	if e.Line == 0 {
		e.Line = line
	}
	m := v.lastSegment.LastMeasure()
	if m == nil {
		var err error
		if m, err = v.createContinuationMeasure(line, e.Kind); err != nil {
			return err
		}
	}
	if e.Kind == ElementTime && e.BarDuration != nil {
		v.barDuration = cloneRat(e.BarDuration)
	}
	if m.append(e) {
		v.warnf(line, "measure %s overflows its bar, stretched to %s", m.Number, m.full.RatString())
	}
	switch e.Kind {
	case ElementNote:
		v.counters.Notes++
	case ElementRest:
		v.counters.Rests++
	case ElementSkip:
		v.counters.Skips++
	case ElementChord:
		v.counters.Chords++
	case ElementTuplet:
		v.counters.Tuplets++
	case ElementHarmony:
		v.counters.Harmonies++
	case ElementFiguredBass:
		v.counters.FiguredBasses++
	case ElementClef, ElementKey, ElementTime, ElementDirection:
	}
	return nil
}

// createContinuationMeasure reopens the remainder of a bar that a
// structural marker moved away before it was full.
func (v *Voice) createContinuationMeasure(line int, kind ElementKind) (*Measure, error) {
	prev := v.currentMeasure
	if prev == nil || prev.IsFull() {
		return nil, v.internalf(line, "%s appended with no open measure", kind)
	}
	v.finalizeCurrentMeasure()
	v.puristCounter++
	m := newMeasure(line, prev.Number, v.puristCounter, true, prev.remaining())
	m.createdForRepeat = true
	v.appendMeasureToLastSegment(m)
	v.currentMeasure = m
	v.continuationMeasures++
	v.trace.Log(diag.CategoryMeasures, "continue measure after structure", "voice", v.Name, "number", m.Number, "line", line)
	return m, nil
}

func (v *Voice) AppendSyllable(line int, stanza string, s Syllable) error {
	if err := v.checkLive(line, "append syllable"); err != nil {
		return err
	}
	if s.Line == 0 {
		s.Line = line
	}
	if s.MeasureNumber == "" && v.currentMeasure != nil {
		s.MeasureNumber = v.currentMeasure.Number
	}
	st := v.stanza(stanza)
	st.Syllables = append(st.Syllables, s)
	return nil
}

// stanza returns the named stanza, creating it already in step with the
// bars seen so far.
func (v *Voice) stanza(number string) *Stanza {
	for _, st := range v.stanzas {
		if st.Number == number {
			return st
		}
	}
	st := &Stanza{Number: number}
	for _, m := range v.Measures() {
		if m.createdForRepeat {
			continue
		}
		st.Syllables = append(st.Syllables, Syllable{Kind: SyllableBarCheck, Line: m.Line, MeasureNumber: m.Number})
	}
	v.stanzas = append(v.stanzas, st)
	return st
}

func (v *Voice) finalizeCurrentMeasure() {
	if v.currentMeasure == nil {
		return
	}
	if msg := v.currentMeasure.finalize(); msg != "" {
		v.warn(v.currentMeasure.Line, msg)
	}
}

func (v *Voice) createNewLastSegment(line int) {
	v.lastSegment = newSegment(v.ids.NextSegmentID(), v.Number)
	v.trace.Log(diag.CategorySegments, "create last segment", "voice", v.Name, "segment", v.lastSegment.ID, "line", line)
}

// createNewLastSegmentFromFirstMeasure opens a segment already holding m.
func (v *Voice) createNewLastSegmentFromFirstMeasure(line int, m *Measure) {
	v.createNewLastSegment(line)
	v.appendMeasureToLastSegment(m)
}

func (v *Voice) appendMeasureToLastSegment(m *Measure) {
	v.lastSegment.appendMeasure(m)
	v.trackFirstMeasure(m, v.lastSegment)
}

// trackFirstMeasure keeps firstSegmentID on the segment owning bar one.
func (v *Voice) trackFirstMeasure(m *Measure, s *Segment) {
	if m.PuristNumber == 1 {
		v.firstSegmentID = s.ID
	}
}

// moveLastSegmentToInitialElements hands the last segment to the current
// sink and leaves the voice without one. Segments holding no measure are
// dropped.
func (v *Voice) moveLastSegmentToInitialElements(line int) error {
	seg := v.lastSegment
	v.lastSegment = nil
	if seg == nil || seg.Len() == 0 {
		if seg != nil {
			v.trace.Log(diag.CategorySegments, "drop empty segment", "voice", v.Name, "segment", seg.ID, "line", line)
		}
		return nil
	}
	v.trace.Log(diag.CategorySegments, "move last segment", "voice", v.Name, "segment", seg.ID, "depth", len(v.stack), "line", line)
	return v.appendToSink(line, seg)
}

// takeLastSegment detaches the last segment, nil when it holds no measure.
func (v *Voice) takeLastSegment() *Segment {
	seg := v.lastSegment
	v.lastSegment = nil
	if seg == nil || seg.Len() == 0 {
		return nil
	}
	return seg
}

// appendToSink places a finished element where the voice is currently
// building: its initial elements at depth 0, otherwise the part of the
// innermost open repeat under construction.
func (v *Voice) appendToSink(line int, e VoiceElement) error {
	if len(v.stack) == 0 {
		v.initial = append(v.initial, e)
		return nil
	}
	r := v.stackTop()
	switch r.phase {
	case PhaseJustCreated, PhaseInCommonPart:
		r.CommonPart.Elements = append(r.CommonPart.Elements, e)
		r.advance(PhaseInCommonPart)
	case PhaseInEndings:
		switch {
		case r.endingOpen:
			r.pendingEnding = append(r.pendingEnding, e)
		case len(r.Endings) > 0:
			last := r.Endings[len(r.Endings)-1]
			v.warnf(line, "%s between repeat endings attached to ending %q", e.Kind(), last.Number)
			last.Elements = append(last.Elements, e)
		default:
			return v.internalf(line, "repeat in endings phase with no ending to receive a %s", e.Kind())
		}
	case PhaseCompleted:
		return v.internalf(line, "completed repeat from line %d left on the repeat descriptor stack", r.Line)
	}
	return nil
}

// popLastInitialRepeat detaches a trailing completed repeat from the
// voice-level elements.
func (v *Voice) popLastInitialRepeat() *Repeat {
	if len(v.stack) != 0 || len(v.initial) == 0 {
		return nil
	}
	r, ok := v.initial[len(v.initial)-1].(*Repeat)
	if !ok || r.phase != PhaseCompleted {
		return nil
	}
	v.initial = v.initial[:len(v.initial)-1]
	return r
}

// Finalize closes the voice. It is not idempotent.
func (v *Voice) Finalize(line int) error {
	if v.finalized {
		return v.internalf(line, "voice finalized twice")
	}
	if err := v.closeRepeatAwaitingFinalEnding(line); err != nil {
		return err
	}
	if err := v.flushPending(line); err != nil {
		return err
	}
	if n := len(v.stack); n > 0 {
		v.warnf(line, "%d repeat(s) still open at the end of the voice", n)
		for len(v.stack) > 0 {
			if err := v.forceCloseTopRepeat(line); err != nil {
				return err
			}
		}
	}
	if err := v.moveLastSegmentToInitialElements(line); err != nil {
		return err
	}
	v.finalizeCurrentMeasure()
	for _, m := range v.Measures() {
		if msg := m.finalize(); msg != "" {
			v.warn(m.Line, msg)
		}
	}
	if v.openedMeasures == 0 {
		v.warn(line, "voice has no contents")
	}
	v.finalized = true
	v.trace.Log(diag.CategoryVoices, "finalize voice", "voice", v.Name, "elements", len(v.initial), "measures", v.openedMeasures, "line", line)
	return nil
}

// flushPending closes a rest measures or measures repeat still under
// construction when another structure interrupts it.
func (v *Voice) flushPending(line int) error {
	if v.pendingRest != nil {
		if err := v.RestMeasuresEnd(line); err != nil {
			return err
		}
	}
	if v.pendingMeasuresRepeat != nil {
		v.warnf(line, "measures repeat from line %d closed implicitly", v.pendingMeasuresRepeat.Line)
		if err := v.MeasuresRepeatEnd(line); err != nil {
			return err
		}
	}
	return nil
}

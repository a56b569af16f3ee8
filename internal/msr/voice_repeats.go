package msr

import "github.com/cbegin/mxlstruct-go/internal/diag"

func (v *Voice) pushRepeat(line int, r *Repeat) {
	v.stack = append(v.stack, RepeatDescriptor{Repeat: r, StartLine: line})
	v.pushes++
	v.trace.Log(diag.CategoryRepeats, "push repeat descriptor", "voice", v.Name, "depth", len(v.stack), "explicit", r.ExplicitStart, "line", line)
}

func (v *Voice) popRepeat(line int) (*Repeat, error) {
	if len(v.stack) == 0 {
		return nil, v.internalf(line, "pop from an empty repeat descriptor stack")
	}
	d := v.stack[len(v.stack)-1]
	v.stack[len(v.stack)-1] = RepeatDescriptor{}
	v.stack = v.stack[:len(v.stack)-1]
	v.pops++
	v.trace.Log(diag.CategoryRepeats, "pop repeat descriptor", "voice", v.Name, "depth", len(v.stack), "started", d.StartLine, "line", line)
	return d.Repeat, nil
}

// completeTopRepeat pops the innermost repeat, marks it completed and hands
// it to the enclosing sink.
func (v *Voice) completeTopRepeat(line int) error {
	r, err := v.popRepeat(line)
	if err != nil {
		return err
	}
	if !r.advance(PhaseCompleted) {
		return v.internalf(line, "repeat from line %d cannot complete from phase %s", r.Line, r.phase)
	}
	r.EndLine = line
	r.awaitingEnding = false
	return v.appendToSink(line, r)
}

// detachOpenBar removes the bar at hand from the last segment when it is not
// full yet, so it can seed the segment that follows a marker. A full bar is
// left where it is.
func (v *Voice) detachOpenBar() *Measure {
	m := v.lastSegment.LastMeasure()
	if m == nil || m.IsFull() {
		return nil
	}
	return v.lastSegment.removeLastMeasure()
}

// detachEmptyBar removes the bar at hand only if it carries no content yet.
func (v *Voice) detachEmptyBar() *Measure {
	m := v.lastSegment.LastMeasure()
	if m == nil || !m.IsEmpty() {
		return nil
	}
	return v.lastSegment.removeLastMeasure()
}

// reopenAfter starts the segment following a marker, seeded with bar if any.
func (v *Voice) reopenAfter(line int, bar *Measure) {
	if bar != nil {
		v.createNewLastSegmentFromFirstMeasure(line, bar)
		return
	}
	v.createNewLastSegment(line)
}

// RepeatStart handles a forward repeat barline. Nested starts simply push
// another descriptor; what precedes them goes to the enclosing repeat.
func (v *Voice) RepeatStart(line int) error {
	if err := v.checkLive(line, "repeat start"); err != nil {
		return err
	}
	if err := v.closeRepeatAwaitingFinalEnding(line); err != nil {
		return err
	}
	if err := v.flushPending(line); err != nil {
		return err
	}
	bar := v.detachOpenBar()
	if err := v.moveLastSegmentToInitialElements(line); err != nil {
		return err
	}
	v.reopenAfter(line, bar)
	v.pushRepeat(line, newRepeat(line, true))
	return nil
}

// RepeatEnd handles a backward repeat barline.
//
// With no open repeat, the segment built since the last structure becomes
// the common part of a synthesized repeat. When that segment is empty and
// the voice's last element is a completed repeat, that repeat is nested in
// a synthesized containing repeat instead.
func (v *Voice) RepeatEnd(line int, measureNumber string, times int) error {
	if err := v.checkLive(line, "repeat end"); err != nil {
		return err
	}
	if times <= 0 {
		times = 2
	}
	if err := v.flushPending(line); err != nil {
		return err
	}
	if len(v.stack) == 0 {
		return v.handleRepeatEndWithoutStart(line, measureNumber, times)
	}
	top := v.stackTop()
	switch top.phase {
	case PhaseJustCreated, PhaseInCommonPart:
		// a nested end pops too, so the inner repeat lands in the outer one's current part
		top.Times = times
		top.EndMeasureNumber = measureNumber
		seg := v.takeLastSegment()
		if seg != nil {
			top.CommonPart.Elements = append(top.CommonPart.Elements, seg)
		}
		top.advance(PhaseInCommonPart)
		if len(top.CommonPart.Elements) == 0 {
			v.warnf(line, "repeat from line %d has an empty common part", top.Line)
		}
		if err := v.completeTopRepeat(line); err != nil {
			return err
		}
		v.createNewLastSegment(line)
		v.trace.Log(diag.CategoryRepeats, "repeat end", "voice", v.Name, "times", times, "depth", len(v.stack), "line", line)
		return nil
	case PhaseInEndings:
		// the backward repeat belongs to the ending just closed or in progress
		top.Times = times
		top.EndMeasureNumber = measureNumber
		top.endingRepeated = true
		v.trace.Log(diag.CategoryRepeats, "repeat end inside endings", "voice", v.Name, "times", times, "line", line)
		return nil
	case PhaseCompleted:
		return v.internalf(line, "repeat end with a completed repeat from line %d on the stack", top.Line)
	default:
		return v.internalf(line, "repeat end with repeat in unknown phase %d", int(top.phase))
	}
}

func (v *Voice) handleRepeatEndWithoutStart(line int, measureNumber string, times int) error {
	if seg := v.takeLastSegment(); seg != nil {
		r := newRepeat(line, false)
		r.Times = times
		r.EndMeasureNumber = measureNumber
		v.pushRepeat(line, r)
		r.CommonPart.Elements = append(r.CommonPart.Elements, seg)
		r.advance(PhaseInCommonPart)
		if err := v.completeTopRepeat(line); err != nil {
			return err
		}
		v.createNewLastSegment(line)
		v.trace.Log(diag.CategoryRepeats, "stand-alone repeat end", "voice", v.Name, "segment", seg.ID, "line", line)
		return nil
	}
	v.createNewLastSegment(line)
	if inner := v.popLastInitialRepeat(); inner != nil {
		r := newRepeat(line, false)
		r.Times = times
		r.EndMeasureNumber = measureNumber
		v.pushRepeat(line, r)
		r.CommonPart.Elements = append(r.CommonPart.Elements, inner)
		r.advance(PhaseInCommonPart)
		v.trace.Log(diag.CategoryRepeats, "containing repeat end", "voice", v.Name, "inner", inner.Line, "line", line)
		return v.completeTopRepeat(line)
	}
	v.warnf(line, "repeat end in measure %s has nothing to repeat", measureNumber)
	return nil
}

// RepeatEndingStart opens an alternative ending, synthesizing a repeat when
// none is open.
func (v *Voice) RepeatEndingStart(line int) error {
	if err := v.checkLive(line, "repeat ending start"); err != nil {
		return err
	}
	if err := v.flushPending(line); err != nil {
		return err
	}
	bar := v.detachEmptyBar()
	var r *Repeat
	if len(v.stack) == 0 {
		r = newRepeat(line, false)
		seg := v.takeLastSegment()
		v.pushRepeat(line, r)
		if seg != nil {
			r.CommonPart.Elements = append(r.CommonPart.Elements, seg)
			r.advance(PhaseInCommonPart)
		} else {
			v.warnf(line, "repeat ending without a common part")
		}
	} else {
		r = v.stackTop()
		switch r.phase {
		case PhaseJustCreated, PhaseInCommonPart:
			if err := v.moveLastSegmentToInitialElements(line); err != nil {
				return err
			}
		case PhaseInEndings:
			if r.endingOpen {
				return v.internalf(line, "repeat ending start while ending %d is still open", len(r.Endings)+1)
			}
			if err := v.moveLastSegmentToInitialElements(line); err != nil {
				return err
			}
		case PhaseCompleted:
			return v.internalf(line, "repeat ending start with a completed repeat from line %d on the stack", r.Line)
		}
	}
	r.advance(PhaseInEndings)
	r.endingOpen = true
	r.awaitingEnding = false
	r.endingRepeated = false
	v.reopenAfter(line, bar)
	v.trace.Log(diag.CategoryRepeats, "repeat ending start", "voice", v.Name, "ending", len(r.Endings)+1, "line", line)
	return nil
}

// RepeatEndingEnd closes the ending in progress. A hookless ending also
// closes its repeat; a hooked one leaves it open for more endings.
func (v *Voice) RepeatEndingEnd(line int, number string, kind EndingKind) error {
	if err := v.checkLive(line, "repeat ending end"); err != nil {
		return err
	}
	if err := v.flushPending(line); err != nil {
		return err
	}
	if len(v.stack) == 0 {
		return v.internalf(line, "repeat ending end %q with an empty repeat descriptor stack", number)
	}
	r := v.stackTop()
	if r.phase != PhaseInEndings || !r.endingOpen {
		return v.internalf(line, "repeat ending end %q without an ending in progress (repeat phase %s)", number, r.phase)
	}
	ending := &RepeatEnding{
		Number:   number,
		Kind:     kind,
		Line:     line,
		Ordinal:  len(r.Endings) + 1,
		Elements: r.pendingEnding,
	}
	r.pendingEnding = nil
	r.endingOpen = false
	v.moveLastSegmentToRepeatEnding(line, ending)
	r.Endings = append(r.Endings, ending)
	v.trace.Log(diag.CategoryRepeats, "repeat ending end", "voice", v.Name, "number", number, "kind", kind.String(), "line", line)
	if kind == EndingHookless {
		if err := v.completeTopRepeat(line); err != nil {
			return err
		}
	} else {
		r.awaitingEnding = true
	}
	v.createNewLastSegment(line)
	return nil
}

// moveLastSegmentToRepeatEnding moves the last segment into ending.
func (v *Voice) moveLastSegmentToRepeatEnding(line int, ending *RepeatEnding) {
	seg := v.takeLastSegment()
	if seg == nil {
		if len(ending.Elements) == 0 {
			v.warnf(line, "repeat ending %q is empty", ending.Number)
		}
		return
	}
	ending.Elements = append(ending.Elements, seg)
}

// closeRepeatAwaitingFinalEnding completes a repeat whose last ending was
// hooked once content shows that no further ending follows.
func (v *Voice) closeRepeatAwaitingFinalEnding(line int) error {
	for len(v.stack) > 0 {
		r := v.stackTop()
		if r.phase != PhaseInEndings || r.endingOpen || !r.awaitingEnding {
			return nil
		}
		if r.endingRepeated {
			v.warnf(line, "repeat from line %d expected another ending", r.Line)
		}
		if err := v.completeTopRepeat(line); err != nil {
			return err
		}
	}
	return nil
}

// forceCloseTopRepeat completes an open repeat at the end of the voice.
func (v *Voice) forceCloseTopRepeat(line int) error {
	r := v.stackTop()
	switch r.phase {
	case PhaseJustCreated, PhaseInCommonPart:
		if seg := v.takeLastSegment(); seg != nil {
			r.CommonPart.Elements = append(r.CommonPart.Elements, seg)
		}
		r.advance(PhaseInCommonPart)
	case PhaseInEndings:
		if r.endingOpen {
			ending := &RepeatEnding{
				Number:   "",
				Kind:     EndingHookless,
				Line:     line,
				Ordinal:  len(r.Endings) + 1,
				Elements: r.pendingEnding,
			}
			r.pendingEnding = nil
			r.endingOpen = false
			v.moveLastSegmentToRepeatEnding(line, ending)
			r.Endings = append(r.Endings, ending)
		}
	case PhaseCompleted:
		return v.internalf(line, "completed repeat from line %d left on the repeat descriptor stack", r.Line)
	}
	if err := v.completeTopRepeat(line); err != nil {
		return err
	}
	if v.lastSegment == nil {
		v.createNewLastSegment(line)
	}
	return nil
}

package msr

import "github.com/cbegin/mxlstruct-go/internal/diag"

// NewbornClone returns an empty voice with the same identity, to be fed the
// same structural markers again. No content is copied.
func (v *Voice) NewbornClone(staffNumber int) *Voice {
	out := NewVoice(v.ids, v.trace, v.Kind, v.PartID, staffNumber, v.Number)
	out.barDuration = cloneRat(v.barDuration)
	v.trace.Log(diag.CategoryClone, "newborn clone", "voice", v.Name, "staff", staffNumber)
	return out
}

// DeepClone copies the whole tree. Segments get fresh ids; every measure and
// segment upLink is re-derived for the copy.
func (v *Voice) DeepClone(staffNumber int) *Voice {
	c := &cloner{
		ids:      v.ids,
		voice:    v.Number,
		measures: make(map[*Measure]*Measure),
		segments: make(map[*Segment]*Segment),
	}
	out := &Voice{
		Kind:                 v.Kind,
		Number:               v.Number,
		Name:                 voiceName(v.PartID, staffNumber, v.Kind, v.Number),
		StaffNumber:          staffNumber,
		PartID:               v.PartID,
		ids:                  v.ids,
		trace:                v.trace,
		barDuration:          cloneRat(v.barDuration),
		puristCounter:        v.puristCounter,
		openedMeasures:       v.openedMeasures,
		continuationMeasures: v.continuationMeasures,
		nextMeasureNumber:    v.nextMeasureNumber,
		counters:             v.counters,
		warnings:             append([]diag.Warning(nil), v.warnings...),
		pushes:               v.pushes,
		pops:                 v.pops,
		finalized:            v.finalized,
	}
	for _, e := range v.initial {
		out.initial = append(out.initial, c.element(e))
	}
	for _, d := range v.stack {
		out.stack = append(out.stack, RepeatDescriptor{Repeat: c.repeat(d.Repeat), StartLine: d.StartLine})
	}
	if v.lastSegment != nil {
		out.lastSegment = c.segment(v.lastSegment)
	}
	if v.pendingRest != nil {
		out.pendingRest = c.restMeasures(v.pendingRest)
	}
	if v.pendingMeasuresRepeat != nil {
		out.pendingMeasuresRepeat = c.measuresRepeat(v.pendingMeasuresRepeat)
	}
	if v.currentMeasure != nil {
		if m, ok := c.measures[v.currentMeasure]; ok {
			out.currentMeasure = m
		} else {
			out.currentMeasure = v.currentMeasure.clone(0)
		}
	}
	if v.firstSegmentID != 0 {
		out.firstSegmentID = c.firstSegmentID(v.firstSegmentID)
	}
	for _, st := range v.stanzas {
		out.stanzas = append(out.stanzas, st.clone())
	}
	v.trace.Log(diag.CategoryClone, "deep clone", "voice", v.Name, "staff", staffNumber, "segments", len(c.segments))
	return out
}

type cloner struct {
	ids      *IDSource
	voice    int
	measures map[*Measure]*Measure
	segments map[*Segment]*Segment
}

func (c *cloner) element(e VoiceElement) VoiceElement {
	switch x := e.(type) {
	case *Segment:
		return c.segment(x)
	case *Repeat:
		return c.repeat(x)
	case *RestMeasures:
		return c.restMeasures(x)
	case *MeasuresRepeat:
		return c.measuresRepeat(x)
	default:
		panic("msr: unhandled voice element in clone")
	}
}

func (c *cloner) elements(in []VoiceElement) []VoiceElement {
	if in == nil {
		return nil
	}
	out := make([]VoiceElement, len(in))
	for i, e := range in {
		out[i] = c.element(e)
	}
	return out
}

func (c *cloner) segment(s *Segment) *Segment {
	if s == nil {
		return nil
	}
	if done, ok := c.segments[s]; ok {
		return done
	}
	out := newSegment(c.ids.NextSegmentID(), c.voice)
	c.segments[s] = out
	for _, m := range s.measures {
		cm := m.clone(out.ID)
		c.measures[m] = cm
		out.measures = append(out.measures, cm)
	}
	return out
}

func (c *cloner) repeat(r *Repeat) *Repeat {
	out := *r
	out.CommonPart = &RepeatCommonPart{Elements: c.elements(r.CommonPart.Elements)}
	out.Endings = make([]*RepeatEnding, len(r.Endings))
	for i, e := range r.Endings {
		ce := *e
		ce.Elements = c.elements(e.Elements)
		out.Endings[i] = &ce
	}
	out.pendingEnding = c.elements(r.pendingEnding)
	return &out
}

func (c *cloner) restMeasures(r *RestMeasures) *RestMeasures {
	out := *r
	out.BarDuration = cloneRat(r.BarDuration)
	if r.Contents != nil {
		out.Contents = &RestMeasuresContents{Segment: c.segment(r.Contents.Segment)}
	}
	return &out
}

func (c *cloner) measuresRepeat(r *MeasuresRepeat) *MeasuresRepeat {
	out := *r
	if r.Pattern != nil {
		out.Pattern = &MeasuresRepeatPattern{Segment: c.segment(r.Pattern.Segment)}
	}
	if r.Replicas != nil {
		out.Replicas = &MeasuresRepeatReplicas{Segment: c.segment(r.Replicas.Segment)}
	}
	return &out
}

// firstSegmentID maps an original segment id onto its copy.
func (c *cloner) firstSegmentID(id int) int {
	for from, to := range c.segments {
		if from.ID == id {
			return to.ID
		}
	}
	return 0
}

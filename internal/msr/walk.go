package msr

import (
	"strconv"
	"strings"
)

// Measures lists every bar of the voice in document order, including those
// still held by open structures.
func (v *Voice) Measures() []*Measure {
	var out []*Measure
	out = appendElementMeasures(out, v.initial)
	for _, d := range v.stack {
		out = appendRepeatMeasures(out, d.Repeat)
	}
	if mr := v.pendingMeasuresRepeat; mr != nil && mr.Pattern != nil {
		out = append(out, mr.Pattern.Segment.measures...)
	}
	if v.lastSegment != nil {
		out = append(out, v.lastSegment.measures...)
	}
	return out
}

func appendElementMeasures(out []*Measure, elems []VoiceElement) []*Measure {
	for _, e := range elems {
		switch x := e.(type) {
		case *Segment:
			out = append(out, x.measures...)
		case *Repeat:
			out = appendRepeatMeasures(out, x)
		case *RestMeasures:
			if x.Contents != nil && x.Contents.Segment != nil {
				out = append(out, x.Contents.Segment.measures...)
			}
		case *MeasuresRepeat:
			if x.Pattern != nil {
				out = append(out, x.Pattern.Segment.measures...)
			}
			if x.Replicas != nil {
				out = append(out, x.Replicas.Segment.measures...)
			}
		}
	}
	return out
}

func appendRepeatMeasures(out []*Measure, r *Repeat) []*Measure {
	out = appendElementMeasures(out, r.CommonPart.Elements)
	for _, e := range r.Endings {
		out = appendElementMeasures(out, e.Elements)
	}
	return appendElementMeasures(out, r.pendingEnding)
}

// Unfold lists the bars in performance order: repeats are played out with
// the ending chosen for each pass, and a measures repeat plays its pattern
// once more per replica.
func (v *Voice) Unfold() []*Measure {
	return unfoldElements(nil, v.initial)
}

func unfoldElements(out []*Measure, elems []VoiceElement) []*Measure {
	for _, e := range elems {
		switch x := e.(type) {
		case *Segment:
			out = append(out, x.measures...)
		case *Repeat:
			for pass := 1; pass <= x.Passes(); pass++ {
				out = unfoldElements(out, x.CommonPart.Elements)
				if ending := x.endingForPass(pass); ending != nil {
					out = unfoldElements(out, ending.Elements)
				}
			}
		case *RestMeasures:
			if x.Contents != nil && x.Contents.Segment != nil {
				out = append(out, x.Contents.Segment.measures...)
			}
		case *MeasuresRepeat:
			if x.Pattern == nil {
				continue
			}
			for i := 0; i <= x.ReplicasCount(); i++ {
				out = append(out, x.Pattern.Segment.measures...)
			}
		}
	}
	return out
}

// Shape is a compact signature of the voice structure, independent of
// segment ids:
//
//	S[1 2]                  segment holding measures 1 and 2
//	R+x2{...}               repeat, + for an explicit start, then its common part
//	|1h{...} |2l{...}       hooked and hookless endings
//	Rest3{...}              rest measures over three bars
//	MR1{...}{...}           measures repeat, pattern then replicas
func (v *Voice) Shape() string {
	var b strings.Builder
	writeShape(&b, v.initial)
	return b.String()
}

func writeShape(b *strings.Builder, elems []VoiceElement) {
	for i, e := range elems {
		if i > 0 {
			b.WriteByte(' ')
		}
		switch x := e.(type) {
		case *Segment:
			writeSegmentShape(b, x)
		case *Repeat:
			b.WriteByte('R')
			if x.ExplicitStart {
				b.WriteByte('+')
			}
			b.WriteString("x" + strconv.Itoa(x.Times) + "{")
			writeShape(b, x.CommonPart.Elements)
			b.WriteByte('}')
			for _, end := range x.Endings {
				b.WriteString(" |" + end.Number)
				if end.Kind == EndingHooked {
					b.WriteByte('h')
				} else {
					b.WriteByte('l')
				}
				b.WriteByte('{')
				writeShape(b, end.Elements)
				b.WriteByte('}')
			}
		case *RestMeasures:
			b.WriteString("Rest" + strconv.Itoa(x.MeasureCount) + "{")
			if x.Contents != nil {
				writeSegmentShape(b, x.Contents.Segment)
			}
			b.WriteByte('}')
		case *MeasuresRepeat:
			b.WriteString("MR" + strconv.Itoa(x.MeasuresPerPattern) + "{")
			if x.Pattern != nil {
				writeSegmentShape(b, x.Pattern.Segment)
			}
			b.WriteString("}{")
			if x.Replicas != nil {
				writeSegmentShape(b, x.Replicas.Segment)
			}
			b.WriteByte('}')
		}
	}
}

func writeSegmentShape(b *strings.Builder, s *Segment) {
	b.WriteString("S[")
	for i, m := range s.measures {
		if i > 0 {
			b.WriteByte(' ')
		}
		b.WriteString(m.Number)
	}
	b.WriteByte(']')
}

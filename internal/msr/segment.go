package msr

import "fmt"

// Segment is an ordered run of measures, the unit of re-parenting.
type Segment struct {
	ID          int
	VoiceNumber int

	measures []*Measure
}

func newSegment(id, voiceNumber int) *Segment {
	return &Segment{ID: id, VoiceNumber: voiceNumber}
}

func (s *Segment) Kind() VoiceElementKind { return KindSegment }
func (*Segment) voiceElement()            {}

func (s *Segment) Len() int { return len(s.measures) }

func (s *Segment) Measures() []*Measure {
	out := make([]*Measure, len(s.measures))
	copy(out, s.measures)
	return out
}

func (s *Segment) LastMeasure() *Measure {
	if len(s.measures) == 0 {
		return nil
	}
	return s.measures[len(s.measures)-1]
}

func (s *Segment) appendMeasure(m *Measure) {
	m.SegmentID = s.ID
	s.measures = append(s.measures, m)
}

func (s *Segment) removeLastMeasure() *Measure {
	m := s.LastMeasure()
	if m == nil {
		return nil
	}
	s.measures[len(s.measures)-1] = nil
	s.measures = s.measures[:len(s.measures)-1]
	m.SegmentID = 0
	return m
}

// removeLastMeasures detaches the trailing n measures, keeping their order.
func (s *Segment) removeLastMeasures(n int) []*Measure {
	if n > len(s.measures) {
		n = len(s.measures)
	}
	cut := len(s.measures) - n
	out := make([]*Measure, n)
	copy(out, s.measures[cut:])
	for i := cut; i < len(s.measures); i++ {
		s.measures[i] = nil
	}
	s.measures = s.measures[:cut]
	for _, m := range out {
		m.SegmentID = 0
	}
	return out
}

func (s *Segment) prependMeasures(ms []*Measure) {
	for _, m := range ms {
		m.SegmentID = s.ID
	}
	s.measures = append(append(make([]*Measure, 0, len(ms)+len(s.measures)), ms...), s.measures...)
}

func (s *Segment) String() string {
	return fmt.Sprintf("segment %d (%d measures)", s.ID, len(s.measures))
}

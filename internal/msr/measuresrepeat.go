package msr

type MeasuresRepeatPattern struct {
	Segment *Segment
}

type MeasuresRepeatReplicas struct {
	Segment *Segment
}

// MeasuresRepeat is a beat/measure repeat shorthand: the pattern supplies
// the content, the replicas only the shorthand marks.
type MeasuresRepeat struct {
	Line               int
	MeasuresPerPattern int
	Slashes            int
	Pattern            *MeasuresRepeatPattern
	Replicas           *MeasuresRepeatReplicas
}

func (r *MeasuresRepeat) Kind() VoiceElementKind { return KindMeasuresRepeat }
func (*MeasuresRepeat) voiceElement()            {}

func (r *MeasuresRepeat) ReplicasCount() int {
	if r.Replicas == nil || r.Replicas.Segment == nil || r.MeasuresPerPattern <= 0 {
		return 0
	}
	return r.Replicas.Segment.Len() / r.MeasuresPerPattern
}

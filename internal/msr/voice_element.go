package msr

// VoiceElementKind enumerates what may sit in a voice's initial elements,
// a repeat part, or an ending.
type VoiceElementKind int

const (
	KindSegment VoiceElementKind = iota + 1
	KindRepeat
	KindRestMeasures
	KindMeasuresRepeat
)

func (k VoiceElementKind) String() string {
	switch k {
	case KindSegment:
		return "segment"
	case KindRepeat:
		return "repeat"
	case KindRestMeasures:
		return "rest-measures"
	case KindMeasuresRepeat:
		return "measures-repeat"
	default:
		return "unknown"
	}
}

// VoiceElement is sealed: *Segment, *Repeat, *RestMeasures and *MeasuresRepeat.
type VoiceElement interface {
	Kind() VoiceElementKind
	voiceElement()
}

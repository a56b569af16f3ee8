package msr

import "math/big"

type RestMeasuresContents struct {
	Segment *Segment
}

// RestMeasures is a multi-measure rest replacing the bars it absorbed.
type RestMeasures struct {
	Line              int
	BarDuration       *big.Rat
	MeasureCount      int
	NextMeasureNumber string
	Contents          *RestMeasuresContents

	remaining int
}

func (r *RestMeasures) Kind() VoiceElementKind { return KindRestMeasures }
func (*RestMeasures) voiceElement()            {}

// Remaining is the number of announced measures not seen yet.
func (r *RestMeasures) Remaining() int { return r.remaining }

package msr

import "github.com/cbegin/mxlstruct-go/internal/diag"

// RestMeasuresStart is received once the placeholder bar carrying the
// multiple rest has been opened. The placeholder seeds the contents segment.
func (v *Voice) RestMeasuresStart(line int, count int) error {
	if err := v.checkLive(line, "rest measures start"); err != nil {
		return err
	}
	if err := v.closeRepeatAwaitingFinalEnding(line); err != nil {
		return err
	}
	if v.pendingRest != nil {
		return v.internalf(line, "rest measures start while rest measures from line %d are pending", v.pendingRest.Line)
	}
	if v.pendingMeasuresRepeat != nil {
		return v.internalf(line, "rest measures start while a measures repeat from line %d is pending", v.pendingMeasuresRepeat.Line)
	}
	if count < 1 {
		return v.internalf(line, "rest measures start with count %d", count)
	}
	placeholder := v.lastSegment.removeLastMeasure()
	if placeholder == nil {
		return v.internalf(line, "rest measures start with no placeholder measure")
	}
	if err := v.moveLastSegmentToInitialElements(line); err != nil {
		return err
	}
	v.pendingRest = &RestMeasures{
		Line:         line,
		BarDuration:  placeholder.FullDuration(),
		MeasureCount: count,
		remaining:    count - 1,
	}
	v.createNewLastSegmentFromFirstMeasure(line, placeholder)
	v.trace.Log(diag.CategoryRestMeasures, "rest measures start", "voice", v.Name, "count", count, "line", line)
	return nil
}

// RestMeasuresNextMeasureNumber records the number of the bar following the
// pending rest measures. The voice only exposes it once the run is consumed.
func (v *Voice) RestMeasuresNextMeasureNumber(line int, number string) error {
	if err := v.checkLive(line, "rest measures next measure number"); err != nil {
		return err
	}
	r := v.pendingRest
	if r == nil {
		return v.internalf(line, "rest measures next measure number %q with no pending rest measures", number)
	}
	r.NextMeasureNumber = number
	if r.remaining == 0 {
		v.nextMeasureNumber = number
	}
	return nil
}

func (v *Voice) RestMeasuresEnd(line int) error {
	if err := v.checkLive(line, "rest measures end"); err != nil {
		return err
	}
	r := v.pendingRest
	if r == nil {
		return v.internalf(line, "rest measures end with no pending rest measures")
	}
	v.pendingRest = nil
	seg := v.takeLastSegment()
	if seg == nil {
		return v.internalf(line, "rest measures from line %d lost their contents", r.Line)
	}
	if r.remaining > 0 || seg.Len() != r.MeasureCount {
		v.warnf(line, "rest measures from line %d announced %d measures, absorbed %d", r.Line, r.MeasureCount, seg.Len())
		r.MeasureCount = seg.Len()
		r.remaining = 0
	}
	if r.NextMeasureNumber != "" {
		v.nextMeasureNumber = r.NextMeasureNumber
	}
	r.Contents = &RestMeasuresContents{Segment: seg}
	if err := v.appendToSink(line, r); err != nil {
		return err
	}
	v.createNewLastSegment(line)
	v.trace.Log(diag.CategoryRestMeasures, "rest measures end", "voice", v.Name, "count", r.MeasureCount, "line", line)
	return nil
}

// MeasuresRepeatStart is received in the first replica bar. That bar seeds
// the replicas; the measuresPerPattern bars before it become the pattern.
func (v *Voice) MeasuresRepeatStart(line int, measuresPerPattern, slashes int) error {
	if err := v.checkLive(line, "measures repeat start"); err != nil {
		return err
	}
	if err := v.closeRepeatAwaitingFinalEnding(line); err != nil {
		return err
	}
	if v.pendingMeasuresRepeat != nil {
		return v.internalf(line, "measures repeat start while a measures repeat from line %d is pending", v.pendingMeasuresRepeat.Line)
	}
	if v.pendingRest != nil {
		return v.internalf(line, "measures repeat start while rest measures from line %d are pending", v.pendingRest.Line)
	}
	if measuresPerPattern < 1 {
		return v.internalf(line, "measures repeat start with %d measures per pattern", measuresPerPattern)
	}
	placeholder := v.lastSegment.removeLastMeasure()
	if placeholder == nil {
		return v.internalf(line, "measures repeat start with no placeholder measure")
	}
	n := measuresPerPattern
	if avail := v.lastSegment.Len(); avail < n {
		if avail == 0 {
			v.warnf(line, "measures repeat in measure %s has no pattern to repeat, ignored", placeholder.Number)
			v.lastSegment.appendMeasure(placeholder)
			return nil
		}
		v.warnf(line, "measures repeat wants %d pattern measures, only %d available", n, avail)
		n = avail
	}
	patternMeasures := v.lastSegment.removeLastMeasures(n)
	if err := v.moveLastSegmentToInitialElements(line); err != nil {
		return err
	}
	pattern := newSegment(v.ids.NextSegmentID(), v.Number)
	pattern.prependMeasures(patternMeasures)
	for _, m := range patternMeasures {
		v.trackFirstMeasure(m, pattern)
	}
	v.pendingMeasuresRepeat = &MeasuresRepeat{
		Line:               line,
		MeasuresPerPattern: n,
		Slashes:            slashes,
		Pattern:            &MeasuresRepeatPattern{Segment: pattern},
	}
	v.createNewLastSegmentFromFirstMeasure(line, placeholder)
	v.trace.Log(diag.CategoryMeasuresRepeats, "measures repeat start", "voice", v.Name, "pattern", n, "slashes", slashes, "line", line)
	return nil
}

func (v *Voice) MeasuresRepeatEnd(line int) error {
	if err := v.checkLive(line, "measures repeat end"); err != nil {
		return err
	}
	mr := v.pendingMeasuresRepeat
	if mr == nil {
		return v.internalf(line, "measures repeat end with no pending measures repeat")
	}
	v.pendingMeasuresRepeat = nil
	seg := v.takeLastSegment()
	if seg == nil {
		return v.internalf(line, "measures repeat from line %d lost its replicas", mr.Line)
	}
	if seg.Len()%mr.MeasuresPerPattern != 0 {
		v.warnf(line, "measures repeat from line %d has %d replica measures for a %d-measure pattern", mr.Line, seg.Len(), mr.MeasuresPerPattern)
	}
	mr.Replicas = &MeasuresRepeatReplicas{Segment: seg}
	if err := v.appendToSink(line, mr); err != nil {
		return err
	}
	v.createNewLastSegment(line)
	v.trace.Log(diag.CategoryMeasuresRepeats, "measures repeat end", "voice", v.Name, "replicas", mr.ReplicasCount(), "line", line)
	return nil
}

package msr

import (
	"fmt"
	"strings"
)

// CheckError lists every structural invariant a voice breaks.
type CheckError struct {
	Voice    string
	Problems []string
}

func (e *CheckError) Error() string {
	return fmt.Sprintf("msr: voice %s: %s", e.Voice, strings.Join(e.Problems, "; "))
}

// Check re-verifies a finalized voice: no empty segment, every opened bar
// present exactly once, a balanced descriptor stack, and one class per bar.
func (v *Voice) Check() error {
	var problems []string
	add := func(format string, args ...any) { problems = append(problems, fmt.Sprintf(format, args...)) }

	if !v.finalized {
		add("not finalized")
	}
	if v.lastSegment != nil && v.finalized {
		add("finalized voice still has a last segment")
	}
	if len(v.stack) != 0 || v.pushes != v.pops {
		add("descriptor stack unbalanced: depth %d, %d pushes, %d pops", len(v.stack), v.pushes, v.pops)
	}
	if v.pendingRest != nil || v.pendingMeasuresRepeat != nil {
		add("pending structure left open")
	}

	seen := make(map[*Measure]bool)
	var walk func(elems []VoiceElement)
	segment := func(s *Segment, where string) {
		if s == nil || s.Len() == 0 {
			add("empty segment in %s", where)
			return
		}
		for _, m := range s.measures {
			if seen[m] {
				add("measure %s (%d) reachable twice", m.Number, m.PuristNumber)
			}
			seen[m] = true
			if m.SegmentID != s.ID {
				add("measure %s (%d) points to segment %d, owned by %d", m.Number, m.PuristNumber, m.SegmentID, s.ID)
			}
			if m.class == MeasureClassUnknown {
				add("measure %s (%d) not classified", m.Number, m.PuristNumber)
			}
		}
	}
	walk = func(elems []VoiceElement) {
		for _, e := range elems {
			switch x := e.(type) {
			case *Segment:
				segment(x, "voice elements")
			case *Repeat:
				if x.phase != PhaseCompleted {
					add("repeat from line %d left in phase %s", x.Line, x.phase)
				}
				walk(x.CommonPart.Elements)
				for _, end := range x.Endings {
					walk(end.Elements)
				}
			case *RestMeasures:
				if x.Contents == nil {
					add("rest measures from line %d without contents", x.Line)
					continue
				}
				segment(x.Contents.Segment, "rest measures contents")
			case *MeasuresRepeat:
				if x.Pattern == nil || x.Replicas == nil {
					add("measures repeat from line %d incomplete", x.Line)
					continue
				}
				segment(x.Pattern.Segment, "measures repeat pattern")
				segment(x.Replicas.Segment, "measures repeat replicas")
			}
		}
	}
	walk(v.initial)

	if want := v.openedMeasures + v.continuationMeasures; len(seen) != want {
		add("%d measures in the tree, %d opened", len(seen), want)
	}
	for _, st := range v.stanzas {
		if n := st.BarChecks(); n != v.openedMeasures {
			add("stanza %s has %d bar checks for %d measures", st.Number, n, v.openedMeasures)
		}
	}
	if len(problems) == 0 {
		return nil
	}
	return &CheckError{Voice: v.Name, Problems: problems}
}

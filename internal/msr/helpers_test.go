package msr

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/cbegin/mxlstruct-go/internal/diag"
)

type step func(v *Voice) error

func newTestVoice() *Voice {
	return NewVoice(NewIDSource(), diag.Nop(), VoiceRegular, "P1", 1, 1)
}

func open(number string) step {
	return func(v *Voice) error { return v.OpenMeasure(10, number, false) }
}

func note(num, den int64) step {
	return func(v *Voice) error {
		return v.AppendElement(11, Element{Kind: ElementNote, Duration: WholeNotes(num, den)})
	}
}

func timeChange(beats, beatType int) step {
	return func(v *Voice) error {
		return v.AppendElement(12, Element{Kind: ElementTime, BarDuration: TimeSignature(beats, beatType)})
	}
}

// bar opens a measure and fills it with a whole note.
func bar(number string) []step {
	return []step{open(number), note(1, 1)}
}

func repeatStart() step { return func(v *Voice) error { return v.RepeatStart(20) } }

func repeatEnd(number string, times int) step {
	return func(v *Voice) error { return v.RepeatEnd(21, number, times) }
}

func endingStart() step { return func(v *Voice) error { return v.RepeatEndingStart(22) } }

func endingEnd(number string, kind EndingKind) step {
	return func(v *Voice) error { return v.RepeatEndingEnd(23, number, kind) }
}

func restStart(count int) step {
	return func(v *Voice) error { return v.RestMeasuresStart(30, count) }
}

func restEnd() step { return func(v *Voice) error { return v.RestMeasuresEnd(31) } }

func measuresRepeatStart(measures int) step {
	return func(v *Voice) error { return v.MeasuresRepeatStart(40, measures, 1) }
}

func measuresRepeatEnd() step { return func(v *Voice) error { return v.MeasuresRepeatEnd(41) } }

func finalize() step { return func(v *Voice) error { return v.Finalize(99) } }

func seq(parts ...any) []step {
	var out []step
	for _, p := range parts {
		switch x := p.(type) {
		case step:
			out = append(out, x)
		case []step:
			out = append(out, x...)
		default:
			panic("seq: unexpected part")
		}
	}
	return out
}

func drive(t *testing.T, v *Voice, steps []step) {
	t.Helper()
	for i, s := range steps {
		require.NoError(t, s(v), "step %d", i)
	}
}

func measureNumbers(ms []*Measure) []string {
	out := make([]string, len(ms))
	for i, m := range ms {
		out[i] = m.Number
	}
	return out
}

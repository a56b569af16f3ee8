package msr

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cbegin/mxlstruct-go/internal/diag"
)

func richVoiceSteps() []step {
	return seq(
		bar("1"),
		repeatStart(), bar("2"),
		open("3"), endingStart(), note(1, 1), endingEnd("1", EndingHooked),
		open("4"), endingStart(), note(1, 1), endingEnd("2", EndingHookless),
		open("5"), restStart(2), note(1, 1), bar("6"), restEnd(),
		bar("7"), open("8"), measuresRepeatStart(1), note(1, 1), measuresRepeatEnd(),
		bar("9"),
		finalize(),
	)
}

type census struct {
	segments, repeats, endings, rests, measuresRepeats int
	order                                              []VoiceElementKind
}

func takeCensus(elems []VoiceElement, c *census) {
	for _, e := range elems {
		c.order = append(c.order, e.Kind())
		switch x := e.(type) {
		case *Segment:
			c.segments++
		case *Repeat:
			c.repeats++
			c.endings += len(x.Endings)
			takeCensus(x.CommonPart.Elements, c)
			for _, end := range x.Endings {
				takeCensus(end.Elements, c)
			}
		case *RestMeasures:
			c.rests++
			c.segments++
		case *MeasuresRepeat:
			c.measuresRepeats++
			c.segments += 2
		}
	}
}

func collectSegments(v *Voice) []*Segment {
	var out []*Segment
	var walk func([]VoiceElement)
	walk = func(elems []VoiceElement) {
		for _, e := range elems {
			switch x := e.(type) {
			case *Segment:
				out = append(out, x)
			case *Repeat:
				walk(x.CommonPart.Elements)
				for _, end := range x.Endings {
					walk(end.Elements)
				}
			case *RestMeasures:
				out = append(out, x.Contents.Segment)
			case *MeasuresRepeat:
				out = append(out, x.Pattern.Segment, x.Replicas.Segment)
			}
		}
	}
	walk(v.InitialElements())
	return out
}

func TestDeepCloneIsIsomorphic(t *testing.T) {
	src := newTestVoice()
	drive(t, src, richVoiceSteps())
	require.NoError(t, src.Check())

	dst := src.DeepClone(2)
	assert.Equal(t, src.Shape(), dst.Shape())
	assert.Equal(t, 2, dst.StaffNumber)
	assert.Equal(t, "P1_Staff2_Voice1", dst.Name)
	assert.True(t, dst.Finalized())
	assert.NoError(t, dst.Check())

	var a, b census
	takeCensus(src.InitialElements(), &a)
	takeCensus(dst.InitialElements(), &b)
	assert.Equal(t, a, b)

	srcSegs := collectSegments(src)
	dstSegs := collectSegments(dst)
	require.Len(t, dstSegs, len(srcSegs))
	srcMeasures := make(map[*Measure]bool)
	for _, m := range src.Measures() {
		srcMeasures[m] = true
	}
	for i := range srcSegs {
		assert.NotSame(t, srcSegs[i], dstSegs[i])
		assert.NotEqual(t, srcSegs[i].ID, dstSegs[i].ID)
		for _, m := range dstSegs[i].Measures() {
			assert.False(t, srcMeasures[m], "measure %s shared with the source", m.Number)
			assert.Equal(t, dstSegs[i].ID, m.SegmentID)
		}
	}
	assert.Equal(t, measureNumbers(src.Unfold()), measureNumbers(dst.Unfold()))
}

func TestDeepCloneMidConstruction(t *testing.T) {
	src := newTestVoice()
	drive(t, src, seq(bar("1"), repeatStart(), bar("2"), open("3"), endingStart(), note(1, 1)))

	dst := src.DeepClone(1)
	require.Equal(t, 1, dst.StackDepth())
	assert.NotSame(t, src.Stack()[0].Repeat, dst.Stack()[0].Repeat)

	require.NoError(t, dst.RepeatEndingEnd(50, "1", EndingHookless))
	require.NoError(t, dst.Finalize(51))
	assert.Equal(t, "S[1] R+x2{S[2]} |1l{S[3]}", dst.Shape())

	// the source is untouched by the clone's progress
	assert.Equal(t, 1, src.StackDepth())
	assert.False(t, src.Finalized())
}

func TestNewbornCloneReplaysToSameShape(t *testing.T) {
	src := newTestVoice()
	clone := src.NewbornClone(1)
	assert.Equal(t, src.Name, clone.Name)
	assert.Equal(t, src.Kind, clone.Kind)
	assert.Empty(t, clone.InitialElements())
	assert.NotNil(t, clone.LastSegment())

	drive(t, src, richVoiceSteps())
	drive(t, clone, richVoiceSteps())
	assert.Equal(t, src.Shape(), clone.Shape())
	assert.Equal(t, src.Counters(), clone.Counters())
	assert.NotEqual(t, src.FirstSegmentID(), clone.FirstSegmentID())
	assert.NoError(t, clone.Check())
}

func TestPartDeepCloneAndImplicitVoices(t *testing.T) {
	score := NewScore(nil, "demo")
	part := score.AddPart("P1", "Piano")
	st := part.Staff(1)
	v := st.AddVoice(score.IDs(), diag.Nop(), 1)
	h, err := st.AddImplicitVoice(v, VoiceHarmony, 11)
	require.NoError(t, err)
	assert.Equal(t, "P1_Staff1_HarmonyVoice11", h.Name)
	assert.Equal(t, VoiceHarmony, h.Kind)

	_, err = st.AddImplicitVoice(v, VoiceRegular, 2)
	assert.ErrorIs(t, err, ErrInternal)

	drive(t, v, richVoiceSteps())
	drive(t, h, seq(bar("1"), repeatStart(), bar("2"), repeatEnd("2", 2), finalize()))
	assert.Len(t, score.Voices(), 2)

	cp := part.DeepClone()
	require.Len(t, cp.Staves, 1)
	require.Len(t, cp.Staves[0].Voices, 2)
	assert.Equal(t, v.Shape(), cp.Staves[0].Voices[0].Shape())
	assert.Equal(t, "S[1] R+x2{S[2]}", cp.Staves[0].Voices[1].Shape())
	assert.Same(t, st, part.Staff(1))
}

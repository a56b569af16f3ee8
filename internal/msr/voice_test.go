package msr

import (
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExplicitRepeatAfterFirstMeasure(t *testing.T) {
	v := newTestVoice()
	drive(t, v, seq(bar("1"), repeatStart(), bar("2"), bar("3"), repeatEnd("3", 2), finalize()))

	elems := v.InitialElements()
	require.Len(t, elems, 2)
	first, ok := elems[0].(*Segment)
	require.True(t, ok)
	assert.Equal(t, []string{"1"}, measureNumbers(first.Measures()))

	r, ok := elems[1].(*Repeat)
	require.True(t, ok)
	assert.True(t, r.ExplicitStart)
	assert.Equal(t, 2, r.Times)
	assert.Equal(t, PhaseCompleted, r.Phase())
	require.Len(t, r.CommonPart.Elements, 1)
	body := r.CommonPart.Elements[0].(*Segment)
	assert.Equal(t, []string{"2", "3"}, measureNumbers(body.Measures()))

	assert.Equal(t, "S[1] R+x2{S[2 3]}", v.Shape())
	assert.NoError(t, v.Check())
}

func TestStandAloneRepeatEnd(t *testing.T) {
	v := newTestVoice()
	drive(t, v, seq(bar("1"), bar("2"), repeatEnd("2", 3), finalize()))

	elems := v.InitialElements()
	require.Len(t, elems, 1)
	r := elems[0].(*Repeat)
	assert.False(t, r.ExplicitStart)
	assert.Equal(t, 3, r.Times)
	assert.Equal(t, "Rx3{S[1 2]}", v.Shape())
	assert.Equal(t, []string{"1", "2", "1", "2", "1", "2"}, measureNumbers(v.Unfold()))
	assert.NoError(t, v.Check())
}

func TestRepeatWithHookedAndHooklessEndings(t *testing.T) {
	v := newTestVoice()
	drive(t, v, seq(
		bar("0"),
		repeatStart(), bar("1"),
		open("2"), endingStart(), note(1, 1), endingEnd("1", EndingHooked),
		open("3"), endingStart(), note(1, 1), endingEnd("2", EndingHookless),
		finalize(),
	))

	elems := v.InitialElements()
	require.Len(t, elems, 2)
	r := elems[1].(*Repeat)
	require.Len(t, r.Endings, 2)
	assert.Equal(t, "1", r.Endings[0].Number)
	assert.Equal(t, EndingHooked, r.Endings[0].Kind)
	assert.Equal(t, "2", r.Endings[1].Number)
	assert.Equal(t, EndingHookless, r.Endings[1].Kind)

	assert.Equal(t, "S[0] R+x2{S[1]} |1h{S[2]} |2l{S[3]}", v.Shape())
	assert.Equal(t, []string{"0", "1", "2", "1", "3"}, measureNumbers(v.Unfold()))
	assert.Equal(t, 0, v.StackDepth())
	assert.NoError(t, v.Check())
}

func TestTimeChangeInLaterEndingKeepsRepeatOpen(t *testing.T) {
	v := newTestVoice()
	drive(t, v, seq(
		bar("0"),
		repeatStart(), bar("1"),
		open("2"), endingStart(), note(1, 1), endingEnd("1", EndingHooked), repeatEnd("2", 2),
		open("3"), timeChange(3, 4), endingStart(), note(3, 4), endingEnd("2", EndingHookless),
		finalize(),
	))
	assert.Equal(t, "S[0] R+x2{S[1]} |1h{S[2]} |2l{S[3]}", v.Shape())
	r := v.InitialElements()[1].(*Repeat)
	require.Len(t, r.Endings, 2)
	assert.Equal(t, 0, r.Endings[1].Elements[0].(*Segment).Measures()[0].FullDuration().Cmp(WholeNotes(3, 4)))
	assert.Empty(t, v.Warnings())
	assert.NoError(t, v.Check())
}

func TestEndingMarkersBetweenBars(t *testing.T) {
	v := newTestVoice()
	drive(t, v, seq(
		repeatStart(), bar("1"),
		endingStart(), bar("2"), endingEnd("1", EndingHooked),
		endingStart(), bar("3"), endingEnd("2", EndingHookless),
		finalize(),
	))
	assert.Equal(t, "R+x2{S[1]} |1h{S[2]} |2l{S[3]}", v.Shape())
	assert.NoError(t, v.Check())
}

func TestHookedFinalEndingClosesOnNextContent(t *testing.T) {
	v := newTestVoice()
	drive(t, v, seq(
		repeatStart(), bar("1"),
		endingStart(), bar("2"), endingEnd("1", EndingHooked),
		endingStart(), bar("3"), endingEnd("2", EndingHooked),
		bar("4"),
		finalize(),
	))
	assert.Equal(t, "R+x2{S[1]} |1h{S[2]} |2h{S[3]} S[4]", v.Shape())
	assert.Empty(t, v.Warnings())
	assert.NoError(t, v.Check())
}

func TestRestMeasures(t *testing.T) {
	v := newTestVoice()
	drive(t, v, seq(bar("1"), open("2"), restStart(4), note(1, 1)))
	require.NotNil(t, v.PendingRestMeasures())
	require.NoError(t, v.RestMeasuresNextMeasureNumber(32, "6"))

	for _, n := range []string{"3", "4"} {
		drive(t, v, seq(bar(n)))
		assert.Empty(t, v.NextMeasureNumber(), "deferred while measure %s is absorbed", n)
	}
	drive(t, v, seq(bar("5")))
	assert.Equal(t, "6", v.NextMeasureNumber())

	drive(t, v, seq(restEnd(), bar("6"), finalize()))
	assert.Empty(t, v.NextMeasureNumber())

	elems := v.InitialElements()
	require.Len(t, elems, 3)
	rest := elems[1].(*RestMeasures)
	assert.Equal(t, 4, rest.MeasureCount)
	assert.Equal(t, "6", rest.NextMeasureNumber)
	assert.Equal(t, 4, rest.Contents.Segment.Len())
	assert.Equal(t, "S[1] Rest4{S[2 3 4 5]} S[6]", v.Shape())
	assert.Empty(t, v.Warnings())
	assert.NoError(t, v.Check())
}

func TestRestMeasuresCloseImplicitly(t *testing.T) {
	v := newTestVoice()
	drive(t, v, seq(open("1"), restStart(2), note(1, 1), bar("2"), bar("3"), finalize()))
	assert.Equal(t, "Rest2{S[1 2]} S[3]", v.Shape())
	assert.NoError(t, v.Check())
}

func TestRestMeasuresImplicitCloseClearsNextNumber(t *testing.T) {
	v := newTestVoice()
	drive(t, v, seq(bar("1"), open("2"), restStart(2), note(1, 1)))
	require.NoError(t, v.RestMeasuresNextMeasureNumber(32, "4"))
	drive(t, v, seq(bar("3"), bar("4")))
	assert.Nil(t, v.PendingRestMeasures())
	assert.Empty(t, v.NextMeasureNumber())

	drive(t, v, seq(bar("5"), finalize()))
	assert.Equal(t, "S[1] Rest2{S[2 3]} S[4 5]", v.Shape())
	assert.Empty(t, v.Warnings())
	assert.NoError(t, v.Check())
}

func TestRestMeasuresShortRunWarns(t *testing.T) {
	v := newTestVoice()
	drive(t, v, seq(open("1"), restStart(3), note(1, 1), bar("2"), restEnd(), finalize()))
	rest := v.InitialElements()[0].(*RestMeasures)
	assert.Equal(t, 2, rest.MeasureCount)
	require.Len(t, v.Warnings(), 1)
	assert.Contains(t, v.Warnings()[0].Message, "announced 3 measures, absorbed 2")
}

func TestMeasuresRepeat(t *testing.T) {
	v := newTestVoice()
	drive(t, v, seq(
		bar("1"), bar("2"),
		open("3"), measuresRepeatStart(1), note(1, 1),
		bar("4"),
		measuresRepeatEnd(), bar("5"),
		finalize(),
	))
	assert.Equal(t, "S[1] MR1{S[2]}{S[3 4]} S[5]", v.Shape())
	mr := v.InitialElements()[1].(*MeasuresRepeat)
	assert.Equal(t, 2, mr.ReplicasCount())
	assert.Equal(t, []string{"1", "2", "3", "4", "5"}, measureNumbers(v.Measures()))
	assert.Equal(t, []string{"1", "2", "2", "2", "5"}, measureNumbers(v.Unfold()))
	assert.NoError(t, v.Check())
}

func TestMeasuresRepeatWithoutPatternIsIgnored(t *testing.T) {
	v := newTestVoice()
	drive(t, v, seq(open("1"), measuresRepeatStart(1), note(1, 1), finalize()))
	assert.Equal(t, "S[1]", v.Shape())
	assert.Len(t, v.Warnings(), 1)
}

func TestNestedRepeats(t *testing.T) {
	v := newTestVoice()
	drive(t, v, seq(
		repeatStart(), bar("1"),
		repeatStart(), bar("2"), repeatEnd("2", 2),
		bar("3"), repeatEnd("3", 2),
		finalize(),
	))
	assert.Equal(t, "R+x2{S[1] R+x2{S[2]} S[3]}", v.Shape())
	assert.Equal(t, []string{"1", "2", "2", "3", "1", "2", "2", "3"}, measureNumbers(v.Unfold()))
	assert.NoError(t, v.Check())
}

func TestContainingRepeatEnd(t *testing.T) {
	v := newTestVoice()
	drive(t, v, seq(repeatStart(), bar("1"), repeatEnd("1", 2), repeatEnd("1", 2), finalize()))
	assert.Equal(t, "Rx2{R+x2{S[1]}}", v.Shape())
	assert.NoError(t, v.Check())
}

// An ending start with no open repeat always synthesizes a new repeat, even
// when a completed repeat precedes it; the completed one is never reopened.
func TestEndingStartAfterCompletedRepeatSynthesizes(t *testing.T) {
	v := newTestVoice()
	drive(t, v, seq(
		repeatStart(), bar("1"), repeatEnd("1", 2),
		open("2"), endingStart(), note(1, 1), endingEnd("2", EndingHookless),
		finalize(),
	))
	assert.Equal(t, "R+x2{S[1]} Rx2{} |2l{S[2]}", v.Shape())
	require.Len(t, v.Warnings(), 1)
	assert.Contains(t, v.Warnings()[0].Message, "without a common part")
}

func TestRepeatEndWithNothingToRepeatWarns(t *testing.T) {
	v := newTestVoice()
	drive(t, v, seq(repeatEnd("0", 2), bar("1"), finalize()))
	assert.Equal(t, "S[1]", v.Shape())
	require.Len(t, v.Warnings(), 1)
	assert.Contains(t, v.Warnings()[0].Message, "nothing to repeat")
}

func TestOpenRepeatAtFinalizeWarns(t *testing.T) {
	v := newTestVoice()
	drive(t, v, seq(bar("1"), repeatStart(), bar("2"), finalize()))
	assert.Equal(t, "S[1] R+x2{S[2]}", v.Shape())
	require.Len(t, v.Warnings(), 1)
	assert.Contains(t, v.Warnings()[0].Message, "still open")
	assert.NoError(t, v.Check())
}

func TestEmptyVoiceWarns(t *testing.T) {
	v := newTestVoice()
	require.NoError(t, v.Finalize(1))
	assert.Empty(t, v.InitialElements())
	require.Len(t, v.Warnings(), 1)
	assert.Contains(t, v.Warnings()[0].Message, "no contents")
	assert.Nil(t, v.LastSegment())
}

func TestContinuationMeasureAfterMidBarRepeatEnd(t *testing.T) {
	v := newTestVoice()
	drive(t, v, seq(open("1"), note(1, 2), repeatEnd("1", 2), note(1, 2), finalize()))

	assert.Equal(t, "Rx2{S[1]} S[1]", v.Shape())
	assert.Equal(t, 1, v.ContinuationMeasures())
	ms := v.Measures()
	require.Len(t, ms, 2)
	assert.Equal(t, MeasureFirstInVoice, ms[0].Class())
	assert.Equal(t, MeasureCreatedForRepeat, ms[1].Class())
	assert.Equal(t, 0, ms[1].FullDuration().Cmp(WholeNotes(1, 2)))
	assert.NoError(t, v.Check())
}

func TestOverflowStretchesBar(t *testing.T) {
	v := newTestVoice()
	drive(t, v, seq(open("1"), note(1, 1), note(1, 2), finalize()))
	m := v.Measures()[0]
	assert.Equal(t, 0, m.FullDuration().Cmp(WholeNotes(3, 2)))
	require.Len(t, v.Warnings(), 1)
	assert.Contains(t, v.Warnings()[0].Message, "overflows")
}

func TestTimeElementSetsBarDuration(t *testing.T) {
	v := newTestVoice()
	require.NoError(t, v.OpenMeasure(1, "1", false))
	require.NoError(t, v.AppendElement(1, Element{Kind: ElementTime, BarDuration: TimeSignature(3, 4)}))
	drive(t, v, seq(note(3, 4), bar("2")[0], note(3, 4), finalize()))
	for _, m := range v.Measures() {
		assert.True(t, m.IsFull(), "measure %s", m.Number)
		assert.Equal(t, 0, m.FullDuration().Cmp(WholeNotes(3, 4)))
	}
	assert.Empty(t, v.Warnings())
}

func TestFinalizeTwiceIsInternalError(t *testing.T) {
	v := newTestVoice()
	drive(t, v, seq(bar("1"), finalize()))
	err := v.Finalize(100)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrInternal))

	var ie *InternalError
	require.True(t, errors.As(err, &ie))
	assert.Equal(t, v.Name, ie.Voice)
	assert.Equal(t, 100, ie.Line)
}

func TestEventsAfterFinalizeAreRejected(t *testing.T) {
	v := newTestVoice()
	drive(t, v, seq(bar("1"), finalize()))
	assert.ErrorIs(t, v.OpenMeasure(5, "2", false), ErrInternal)
	assert.ErrorIs(t, v.RepeatStart(5), ErrInternal)
}

func TestEndingEndWithEmptyStackIsInternalError(t *testing.T) {
	v := newTestVoice()
	drive(t, v, seq(bar("1")))
	err := v.RepeatEndingEnd(7, "1", EndingHooked)
	assert.ErrorIs(t, err, ErrInternal)
	assert.Contains(t, err.Error(), "line 7")
	assert.Contains(t, err.Error(), v.Name)
}

func TestMeasuresRepeatEndWithoutStartIsInternalError(t *testing.T) {
	v := newTestVoice()
	drive(t, v, seq(bar("1")))
	assert.ErrorIs(t, v.MeasuresRepeatEnd(8), ErrInternal)
}

func TestRestMeasuresNextNumberWithoutRestIsInternalError(t *testing.T) {
	v := newTestVoice()
	assert.ErrorIs(t, v.RestMeasuresNextMeasureNumber(3, "4"), ErrInternal)
}

func TestStanzasFollowBars(t *testing.T) {
	v := newTestVoice()
	drive(t, v, seq(bar("1"), bar("2")))
	require.NoError(t, v.AppendSyllable(12, "1", Syllable{Kind: SyllableSingle, Text: "la"}))
	drive(t, v, seq(bar("3"), finalize()))

	stanzas := v.Stanzas()
	require.Len(t, stanzas, 1)
	assert.Equal(t, 3, stanzas[0].BarChecks())
	assert.Equal(t, "2", stanzas[0].Syllables[2].MeasureNumber)
	assert.NoError(t, v.Check())
}

func TestFirstSegmentFollowsFirstMeasure(t *testing.T) {
	v := newTestVoice()
	drive(t, v, seq(open("1"), repeatStart(), note(1, 1), repeatEnd("1", 2), finalize()))
	r := v.InitialElements()[0].(*Repeat)
	assert.Equal(t, r.CommonPart.Elements[0].(*Segment).ID, v.FirstSegmentID())
}

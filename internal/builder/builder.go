package builder

import (
	"github.com/pkg/errors"

	"github.com/cbegin/mxlstruct-go/internal/diag"
	"github.com/cbegin/mxlstruct-go/internal/msr"
	"github.com/cbegin/mxlstruct-go/internal/mxl"
)

// Builder drives msr voices from decoded event streams.
type Builder struct {
	ids   *msr.IDSource
	trace diag.Trace
}

func New(ids *msr.IDSource, trace diag.Trace) *Builder {
	if ids == nil {
		ids = msr.NewIDSource()
	}
	return &Builder{ids: ids, trace: trace}
}

type boundStream struct {
	stream *mxl.VoiceStream
	voice  *msr.Voice
}

// Build structures every voice of the score. It stops at the first internal
// error; domain warnings stay on the voices.
func (b *Builder) Build(score *mxl.Score) (*msr.Score, error) {
	out := msr.NewScore(b.ids, score.Title)
	for pi := range score.Parts {
		src := &score.Parts[pi]
		part := out.AddPart(src.ID, src.Name)
		bound, err := b.createVoices(part, src)
		if err != nil {
			return nil, errors.Wrapf(err, "part %s", src.ID)
		}
		for _, bs := range bound {
			if err := b.drive(bs); err != nil {
				return nil, errors.Wrapf(err, "part %s", src.ID)
			}
		}
		b.trace.Info("part structured", "part", src.ID, "voices", len(bound))
	}
	return out, nil
}

// createVoices makes every voice before any event is applied, so implicit
// voices start as newborn clones of an untouched regular voice.
func (b *Builder) createVoices(part *msr.Part, src *mxl.Part) ([]boundStream, error) {
	bound := make([]boundStream, 0, len(src.Voices))
	firstRegular := make(map[int]*msr.Voice)
	for i := range src.Voices {
		vs := &src.Voices[i]
		if vs.Kind != mxl.VoiceRegular {
			continue
		}
		staff := part.Staff(vs.Staff)
		v := staff.AddVoice(b.ids, b.trace, vs.Voice)
		if _, ok := firstRegular[vs.Staff]; !ok {
			firstRegular[vs.Staff] = v
		}
		bound = append(bound, boundStream{stream: vs, voice: v})
	}
	for i := range src.Voices {
		vs := &src.Voices[i]
		if vs.Kind == mxl.VoiceRegular {
			continue
		}
		from, ok := firstRegular[vs.Staff]
		if !ok {
			return nil, errors.Errorf("staff %d has a %s stream but no regular voice", vs.Staff, kindName(vs.Kind))
		}
		kind := msr.VoiceHarmony
		if vs.Kind == mxl.VoiceFiguredBass {
			kind = msr.VoiceFiguredBass
		}
		v, err := part.Staff(vs.Staff).AddImplicitVoice(from, kind, vs.Voice)
		if err != nil {
			return nil, err
		}
		bound = append(bound, boundStream{stream: vs, voice: v})
	}
	return bound, nil
}

func (b *Builder) drive(bs boundStream) error {
	last := 0
	for i, ev := range bs.stream.Events {
		if err := applyEvent(bs.voice, ev); err != nil {
			return errors.Wrapf(err, "voice %s event %d (%s)", bs.voice.Name, i, ev.Type)
		}
		last = ev.Line
	}
	if err := bs.voice.Finalize(last); err != nil {
		return errors.Wrapf(err, "voice %s", bs.voice.Name)
	}
	return nil
}

func applyEvent(v *msr.Voice, ev mxl.Event) error {
	switch ev.Type {
	case mxl.EventOpenMeasure:
		return v.OpenMeasure(ev.Line, ev.Measure, ev.Implicit)
	case mxl.EventNote:
		if err := v.AppendElement(ev.Line, noteElement(ev)); err != nil {
			return err
		}
		for _, l := range ev.Lyrics {
			s := msr.Syllable{Kind: syllableKind(l.Syllabic), Text: l.Text, MeasureNumber: ev.Measure}
			if err := v.AppendSyllable(ev.Line, l.Stanza, s); err != nil {
				return err
			}
		}
		return nil
	case mxl.EventTime:
		return v.AppendElement(ev.Line, msr.Element{Kind: msr.ElementTime, BarDuration: msr.TimeSignature(ev.Beats, ev.BeatType)})
	case mxl.EventClef:
		return v.AppendElement(ev.Line, msr.Element{Kind: msr.ElementClef, Text: ev.Text})
	case mxl.EventKey:
		return v.AppendElement(ev.Line, msr.Element{Kind: msr.ElementKey, Text: ev.Text})
	case mxl.EventDirection:
		return v.AppendElement(ev.Line, msr.Element{Kind: msr.ElementDirection, Text: ev.Text})
	case mxl.EventHarmony:
		return v.AppendElement(ev.Line, msr.Element{Kind: msr.ElementHarmony, Duration: ev.Duration, Text: ev.Text})
	case mxl.EventFiguredBass:
		return v.AppendElement(ev.Line, msr.Element{Kind: msr.ElementFiguredBass, Duration: ev.Duration, Text: ev.Text})
	case mxl.EventRepeatStart:
		return v.RepeatStart(ev.Line)
	case mxl.EventRepeatEnd:
		return v.RepeatEnd(ev.Line, ev.Measure, ev.Times)
	case mxl.EventEndingStart:
		return v.RepeatEndingStart(ev.Line)
	case mxl.EventEndingEnd:
		kind := msr.EndingHookless
		if ev.Hooked {
			kind = msr.EndingHooked
		}
		return v.RepeatEndingEnd(ev.Line, ev.Number, kind)
	case mxl.EventRestMeasuresStart:
		return v.RestMeasuresStart(ev.Line, ev.Count)
	case mxl.EventRestMeasuresNextNumber:
		return v.RestMeasuresNextMeasureNumber(ev.Line, ev.Number)
	case mxl.EventRestMeasuresEnd:
		return v.RestMeasuresEnd(ev.Line)
	case mxl.EventMeasuresRepeatStart:
		return v.MeasuresRepeatStart(ev.Line, ev.Count, ev.Slashes)
	case mxl.EventMeasuresRepeatEnd:
		return v.MeasuresRepeatEnd(ev.Line)
	default:
		return errors.Errorf("unhandled event type %d", int(ev.Type))
	}
}

func noteElement(ev mxl.Event) msr.Element {
	e := msr.Element{Kind: msr.ElementNote, Duration: ev.Duration, Members: ev.Members}
	switch {
	case ev.Skip:
		e.Kind = msr.ElementSkip
	case ev.Rest:
		e.Kind = msr.ElementRest
	case ev.Members > 1:
		e.Kind = msr.ElementChord
	case ev.Tuplet > 0:
		e.Kind = msr.ElementTuplet
		e.Members = ev.Tuplet
	}
	return e
}

func syllableKind(s string) msr.SyllableKind {
	switch s {
	case "begin":
		return msr.SyllableBegin
	case "middle":
		return msr.SyllableMiddle
	case "end":
		return msr.SyllableEnd
	default:
		return msr.SyllableSingle
	}
}

func kindName(k mxl.VoiceKind) string {
	switch k {
	case mxl.VoiceHarmony:
		return "harmony"
	case mxl.VoiceFiguredBass:
		return "figured-bass"
	default:
		return "regular"
	}
}

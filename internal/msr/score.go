package msr

import (
	"fmt"

	"github.com/cbegin/mxlstruct-go/internal/diag"
)

// IDSource hands out absolute segment ids, unique within one score.
type IDSource struct{ next int }

func NewIDSource() *IDSource { return &IDSource{} }

func (s *IDSource) NextSegmentID() int {
	s.next++
	return s.next
}

type Score struct {
	Title string
	Parts []*Part

	ids *IDSource
}

func NewScore(ids *IDSource, title string) *Score {
	if ids == nil {
		ids = NewIDSource()
	}
	return &Score{Title: title, ids: ids}
}

func (s *Score) IDs() *IDSource { return s.ids }

func (s *Score) AddPart(id, name string) *Part {
	p := &Part{ID: id, Name: name, ids: s.ids}
	s.Parts = append(s.Parts, p)
	return p
}

func (s *Score) Voices() []*Voice {
	var out []*Voice
	for _, p := range s.Parts {
		out = append(out, p.Voices()...)
	}
	return out
}

func (s *Score) Warnings() []diag.Warning {
	var out []diag.Warning
	for _, v := range s.Voices() {
		out = append(out, v.Warnings()...)
	}
	return out
}

type Part struct {
	ID     string
	Name   string
	Staves []*Staff

	ids *IDSource
}

func (p *Part) Staff(number int) *Staff {
	for _, st := range p.Staves {
		if st.Number == number {
			return st
		}
	}
	st := &Staff{Number: number, PartID: p.ID}
	p.Staves = append(p.Staves, st)
	return st
}

func (p *Part) Voices() []*Voice {
	var out []*Voice
	for _, st := range p.Staves {
		out = append(out, st.Voices...)
	}
	return out
}

// DeepClone extracts the part as an independent tree.
func (p *Part) DeepClone() *Part {
	out := &Part{ID: p.ID, Name: p.Name, ids: p.ids}
	for _, st := range p.Staves {
		cs := &Staff{Number: st.Number, PartID: st.PartID}
		for _, v := range st.Voices {
			cs.Voices = append(cs.Voices, v.DeepClone(st.Number))
		}
		out.Staves = append(out.Staves, cs)
	}
	return out
}

type Staff struct {
	Number int
	PartID string
	Voices []*Voice
}

func (st *Staff) Voice(number int) *Voice {
	for _, v := range st.Voices {
		if v.Number == number {
			return v
		}
	}
	return nil
}

// AddVoice creates a regular voice on the staff.
func (st *Staff) AddVoice(ids *IDSource, trace diag.Trace, number int) *Voice {
	v := NewVoice(ids, trace, VoiceRegular, st.PartID, st.Number, number)
	st.Voices = append(st.Voices, v)
	return v
}

// AddImplicitVoice creates a harmony or figured-bass voice as a newborn
// clone of from, so it can be driven through the same structural markers.
func (st *Staff) AddImplicitVoice(from *Voice, kind VoiceKind, number int) (*Voice, error) {
	if kind == VoiceRegular {
		return nil, from.internalf(0, "implicit voice requested with regular kind")
	}
	v := from.NewbornClone(st.Number)
	v.Kind = kind
	v.Number = number
	v.Name = voiceName(st.PartID, st.Number, kind, number)
	st.Voices = append(st.Voices, v)
	return v, nil
}

func voiceName(partID string, staff int, kind VoiceKind, number int) string {
	switch kind {
	case VoiceHarmony:
		return fmt.Sprintf("%s_Staff%d_HarmonyVoice%d", partID, staff, number)
	case VoiceFiguredBass:
		return fmt.Sprintf("%s_Staff%d_FiguredBassVoice%d", partID, staff, number)
	default:
		return fmt.Sprintf("%s_Staff%d_Voice%d", partID, staff, number)
	}
}

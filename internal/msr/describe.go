package msr

import "strconv"

// Node is a serialisable view of the structure tree.
type Node struct {
	Kind     string            `yaml:"kind"`
	ID       int               `yaml:"id,omitempty"`
	Line     int               `yaml:"line,omitempty"`
	Attrs    map[string]string `yaml:"attrs,omitempty"`
	Children []*Node           `yaml:"children,omitempty"`
}

func (s *Score) Describe() *Node {
	n := &Node{Kind: "score", Attrs: map[string]string{"title": s.Title}}
	for _, p := range s.Parts {
		pn := &Node{Kind: "part", Attrs: map[string]string{"id": p.ID, "name": p.Name}}
		for _, st := range p.Staves {
			sn := &Node{Kind: "staff", Attrs: map[string]string{"number": strconv.Itoa(st.Number)}}
			for _, v := range st.Voices {
				sn.Children = append(sn.Children, v.Describe())
			}
			pn.Children = append(pn.Children, sn)
		}
		n.Children = append(n.Children, pn)
	}
	return n
}

func (v *Voice) Describe() *Node {
	n := &Node{
		Kind: "voice",
		Attrs: map[string]string{
			"name":     v.Name,
			"kind":     v.Kind.String(),
			"measures": strconv.Itoa(v.openedMeasures),
			"shape":    v.Shape(),
		},
		Children: describeElements(v.initial),
	}
	if v.lastSegment != nil {
		n.Children = append(n.Children, describeSegment("last-segment", v.lastSegment))
	}
	return n
}

func describeElements(elems []VoiceElement) []*Node {
	out := make([]*Node, 0, len(elems))
	for _, e := range elems {
		switch x := e.(type) {
		case *Segment:
			out = append(out, describeSegment("segment", x))
		case *Repeat:
			out = append(out, describeRepeat(x))
		case *RestMeasures:
			n := &Node{Kind: "rest-measures", Line: x.Line, Attrs: map[string]string{
				"count": strconv.Itoa(x.MeasureCount),
				"bar":   x.BarDuration.RatString(),
			}}
			if x.NextMeasureNumber != "" {
				n.Attrs["next"] = x.NextMeasureNumber
			}
			if x.Contents != nil {
				n.Children = append(n.Children, describeSegment("contents", x.Contents.Segment))
			}
			out = append(out, n)
		case *MeasuresRepeat:
			n := &Node{Kind: "measures-repeat", Line: x.Line, Attrs: map[string]string{
				"measures": strconv.Itoa(x.MeasuresPerPattern),
				"slashes":  strconv.Itoa(x.Slashes),
				"replicas": strconv.Itoa(x.ReplicasCount()),
			}}
			if x.Pattern != nil {
				n.Children = append(n.Children, describeSegment("pattern", x.Pattern.Segment))
			}
			if x.Replicas != nil {
				n.Children = append(n.Children, describeSegment("replicas", x.Replicas.Segment))
			}
			out = append(out, n)
		}
	}
	return out
}

func describeRepeat(r *Repeat) *Node {
	n := &Node{Kind: "repeat", Line: r.Line, Attrs: map[string]string{
		"explicit": strconv.FormatBool(r.ExplicitStart),
		"times":    strconv.Itoa(r.Times),
		"phase":    r.phase.String(),
	}}
	n.Children = append(n.Children, &Node{Kind: "common-part", Children: describeElements(r.CommonPart.Elements)})
	for _, e := range r.Endings {
		n.Children = append(n.Children, &Node{
			Kind:     "ending",
			Line:     e.Line,
			Attrs:    map[string]string{"number": e.Number, "kind": e.Kind.String()},
			Children: describeElements(e.Elements),
		})
	}
	return n
}

func describeSegment(kind string, s *Segment) *Node {
	n := &Node{Kind: kind, ID: s.ID}
	for _, m := range s.measures {
		n.Children = append(n.Children, &Node{Kind: "measure", Line: m.Line, Attrs: map[string]string{
			"number": m.Number,
			"purist": strconv.Itoa(m.PuristNumber),
			"filled": m.filled.RatString() + "/" + m.full.RatString(),
			"class":  m.class.String(),
		}})
	}
	return n
}

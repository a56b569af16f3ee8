package mxl

import "encoding/xml"

type rawScore struct {
	XMLName       xml.Name
	WorkTitle     string         `xml:"work>work-title"`
	MovementTitle string         `xml:"movement-title"`
	PartList      []rawScorePart `xml:"part-list>score-part"`
	Parts         []rawPart      `xml:"part"`
}

type rawScorePart struct {
	ID   string `xml:"id,attr"`
	Name string `xml:"part-name"`
}

type rawPart struct {
	ID       string       `xml:"id,attr"`
	Measures []rawMeasure `xml:"measure"`
}

// rawMeasure keeps the children of a measure in document order, each with
// the input line it was read from.
type rawMeasure struct {
	Number   string
	Implicit bool
	Line     int
	Items    []rawItem
}

type rawItem struct {
	Line        int
	Note        *rawNote
	Forward     *rawForward
	Attributes  *rawAttributes
	Barline     *rawBarline
	Harmony     *rawHarmony
	FiguredBass *rawFiguredBass
	Direction   *rawDirection
}

func (m *rawMeasure) UnmarshalXML(d *xml.Decoder, start xml.StartElement) error {
	for _, attr := range start.Attr {
		switch attr.Name.Local {
		case "number":
			m.Number = attr.Value
		case "implicit":
			m.Implicit = attr.Value == "yes"
		}
	}
	m.Line, _ = d.InputPos()
	for {
		token, err := d.Token()
		if err != nil {
			return err
		}
		switch t := token.(type) {
		case xml.EndElement:
			return nil
		case xml.StartElement:
			line, _ := d.InputPos()
			item := rawItem{Line: line}
			var target any
			switch t.Name.Local {
			case "note":
				item.Note = &rawNote{}
				target = item.Note
			case "forward":
				item.Forward = &rawForward{}
				target = item.Forward
			case "attributes":
				item.Attributes = &rawAttributes{}
				target = item.Attributes
			case "barline":
				item.Barline = &rawBarline{}
				target = item.Barline
			case "harmony":
				item.Harmony = &rawHarmony{}
				target = item.Harmony
			case "figured-bass":
				item.FiguredBass = &rawFiguredBass{}
				target = item.FiguredBass
			case "direction":
				item.Direction = &rawDirection{}
				target = item.Direction
			default:
				if err := d.Skip(); err != nil {
					return err
				}
				continue
			}
			if err := d.DecodeElement(target, &t); err != nil {
				return err
			}
			m.Items = append(m.Items, item)
		}
	}
}

type rawNote struct {
	Chord            *struct{}            `xml:"chord"`
	Grace            *struct{}            `xml:"grace"`
	Cue              *struct{}            `xml:"cue"`
	Rest             *rawRest             `xml:"rest"`
	Pitch            *rawPitch            `xml:"pitch"`
	Duration         int                  `xml:"duration"`
	Voice            string               `xml:"voice"`
	Staff            int                  `xml:"staff"`
	TimeModification *rawTimeModification `xml:"time-modification"`
	Lyrics           []rawLyric           `xml:"lyric"`
}

type rawRest struct {
	Measure string `xml:"measure,attr"`
}

type rawPitch struct {
	Step   string  `xml:"step"`
	Alter  float64 `xml:"alter"`
	Octave int     `xml:"octave"`
}

type rawTimeModification struct {
	Actual int `xml:"actual-notes"`
	Normal int `xml:"normal-notes"`
}

type rawLyric struct {
	Number   string `xml:"number,attr"`
	Syllabic string `xml:"syllabic"`
	Text     string `xml:"text"`
}

type rawForward struct {
	Duration int    `xml:"duration"`
	Voice    string `xml:"voice"`
	Staff    int    `xml:"staff"`
}

type rawAttributes struct {
	Divisions     int               `xml:"divisions"`
	Key           *rawKey           `xml:"key"`
	Time          *rawTime          `xml:"time"`
	Clefs         []rawClef         `xml:"clef"`
	MeasureStyles []rawMeasureStyle `xml:"measure-style"`
}

type rawKey struct {
	Fifths int    `xml:"fifths"`
	Mode   string `xml:"mode"`
}

type rawTime struct {
	Beats    string `xml:"beats"`
	BeatType string `xml:"beat-type"`
}

type rawClef struct {
	Number int    `xml:"number,attr"`
	Sign   string `xml:"sign"`
	Line   int    `xml:"line"`
}

type rawMeasureStyle struct {
	MultipleRest  int               `xml:"multiple-rest"`
	MeasureRepeat *rawMeasureRepeat `xml:"measure-repeat"`
}

type rawMeasureRepeat struct {
	Type    string `xml:"type,attr"`
	Slashes int    `xml:"slashes,attr"`
	Value   string `xml:",chardata"`
}

type rawBarline struct {
	Location string     `xml:"location,attr"`
	Repeat   *rawRepeat `xml:"repeat"`
	Ending   *rawEnding `xml:"ending"`
}

type rawRepeat struct {
	Direction string `xml:"direction,attr"`
	Times     string `xml:"times,attr"`
}

type rawEnding struct {
	Number string `xml:"number,attr"`
	Type   string `xml:"type,attr"`
}

type rawHarmony struct {
	RootStep  string `xml:"root>root-step"`
	RootAlter int    `xml:"root>root-alter"`
	Kind      struct {
		Value string `xml:",chardata"`
		Text  string `xml:"text,attr"`
	} `xml:"kind"`
	Staff int `xml:"staff"`
}

type rawFiguredBass struct {
	Figures []struct {
		Prefix string `xml:"prefix"`
		Number string `xml:"figure-number"`
		Suffix string `xml:"suffix"`
	} `xml:"figure"`
	Duration int `xml:"duration"`
}

type rawDirection struct {
	Words []string `xml:"direction-type>words"`
	Voice string   `xml:"voice"`
	Staff int      `xml:"staff"`
}

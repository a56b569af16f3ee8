package mxl

import "math/big"

type EventType int

const (
	EventOpenMeasure EventType = iota + 1
	EventNote
	EventTime
	EventClef
	EventKey
	EventDirection
	EventRepeatStart
	EventRepeatEnd
	EventEndingStart
	EventEndingEnd
	EventRestMeasuresStart
	EventRestMeasuresNextNumber
	EventRestMeasuresEnd
	EventMeasuresRepeatStart
	EventMeasuresRepeatEnd
	EventHarmony
	EventFiguredBass
)

func (t EventType) String() string {
	switch t {
	case EventOpenMeasure:
		return "open-measure"
	case EventNote:
		return "note"
	case EventTime:
		return "time"
	case EventClef:
		return "clef"
	case EventKey:
		return "key"
	case EventDirection:
		return "direction"
	case EventRepeatStart:
		return "repeat-start"
	case EventRepeatEnd:
		return "repeat-end"
	case EventEndingStart:
		return "ending-start"
	case EventEndingEnd:
		return "ending-end"
	case EventRestMeasuresStart:
		return "rest-measures-start"
	case EventRestMeasuresNextNumber:
		return "rest-measures-next-number"
	case EventRestMeasuresEnd:
		return "rest-measures-end"
	case EventMeasuresRepeatStart:
		return "measures-repeat-start"
	case EventMeasuresRepeatEnd:
		return "measures-repeat-end"
	case EventHarmony:
		return "harmony"
	case EventFiguredBass:
		return "figured-bass"
	default:
		return "unknown"
	}
}

type VoiceKind int

const (
	VoiceRegular VoiceKind = iota + 1
	VoiceHarmony
	VoiceFiguredBass
)

type Lyric struct {
	Stanza   string
	Syllabic string
	Text     string
}

type Event struct {
	Type     EventType
	Line     int
	Measure  string
	Implicit bool
	// Duration is in whole notes.
	Duration *big.Rat
	Rest     bool
	Skip     bool
	Grace    bool
	Cue      bool
	Members  int
	Tuplet   int
	Times    int
	Count    int
	Slashes  int
	Number   string
	Hooked   bool
	Beats    int
	BeatType int
	Text     string
	Lyrics   []Lyric
}

type VoiceStream struct {
	Staff  int
	Voice  int
	Kind   VoiceKind
	Events []Event
}

type Part struct {
	ID     string
	Name   string
	Voices []VoiceStream
}

type Score struct {
	Title string
	Parts []Part
}

type ParserConfig struct {
	DefaultDivisions int
	Harmonies        bool
	FiguredBass      bool
	Lyrics           bool
}

func DefaultParserConfig() ParserConfig {
	return ParserConfig{
		DefaultDivisions: 1,
		Harmonies:        true,
		FiguredBass:      true,
		Lyrics:           true,
	}
}

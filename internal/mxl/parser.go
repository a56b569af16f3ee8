package mxl

import (
	"encoding/xml"
	"fmt"
	"io"
	"math/big"
	"sort"
	"strconv"
	"strings"

	"github.com/pkg/errors"
	"golang.org/x/net/html/charset"
)

// ErrMalformed marks input that cannot be read as a partwise MusicXML score.
var ErrMalformed = errors.New("mxl: malformed score")

type MalformedError struct {
	Line int
	Err  error
}

func (e *MalformedError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("%s: line %d: %v", ErrMalformed, e.Line, e.Err)
	}
	return fmt.Sprintf("%s: %v", ErrMalformed, e.Err)
}

func (e *MalformedError) Unwrap() error        { return e.Err }
func (e *MalformedError) Is(target error) bool { return target == ErrMalformed }

type Parser struct{ cfg ParserConfig }

func NewParser(cfg ParserConfig) *Parser {
	if cfg.DefaultDivisions <= 0 {
		cfg.DefaultDivisions = 1
	}
	return &Parser{cfg: cfg}
}

// Parse decodes a score-partwise document into one flat event stream per
// voice. Structural markers are copied to every voice of their part.
func (p *Parser) Parse(r io.Reader) (*Score, error) {
	dec := xml.NewDecoder(r)
	dec.CharsetReader = charset.NewReaderLabel
	var raw rawScore
	if err := dec.Decode(&raw); err != nil {
		line, _ := dec.InputPos()
		return nil, errors.WithStack(&MalformedError{Line: line, Err: err})
	}
	if raw.XMLName.Local != "score-partwise" {
		return nil, errors.WithStack(&MalformedError{Err: fmt.Errorf("root element %q, want score-partwise", raw.XMLName.Local)})
	}
	title := raw.WorkTitle
	if title == "" {
		title = raw.MovementTitle
	}
	names := make(map[string]string, len(raw.PartList))
	for _, sp := range raw.PartList {
		names[sp.ID] = strings.TrimSpace(sp.Name)
	}
	score := &Score{Title: strings.TrimSpace(title)}
	for _, rp := range raw.Parts {
		part, err := p.parsePart(rp)
		if err != nil {
			return nil, err
		}
		part.Name = names[rp.ID]
		score.Parts = append(score.Parts, part)
	}
	return score, nil
}

type voiceKey struct {
	staff int
	voice int
	kind  VoiceKind
}

type partState struct {
	cfg     ParserConfig
	streams []*VoiceStream
	index   map[voiceKey]*VoiceStream

	divisions int
	measure   string

	restActive    bool
	restRemaining int
	repeatActive  bool

	pendingHarmony []pendingFill
}

// pendingFill is a harmony or figured bass waiting for the duration of the
// note it precedes.
type pendingFill struct {
	stream *VoiceStream
	event  Event
}

func (p *Parser) parsePart(rp rawPart) (Part, error) {
	if rp.ID == "" {
		line := 0
		if len(rp.Measures) > 0 {
			line = rp.Measures[0].Line
		}
		return Part{}, errors.WithStack(&MalformedError{Line: line, Err: errors.New("part without id")})
	}
	st := &partState{
		cfg:       p.cfg,
		index:     make(map[voiceKey]*VoiceStream),
		divisions: p.cfg.DefaultDivisions,
	}
	st.discoverVoices(rp)
	for i, m := range rp.Measures {
		st.emitMeasure(m, func(count int) string {
			if j := i + count; j < len(rp.Measures) {
				return rp.Measures[j].Number
			}
			return ""
		})
	}
	if n := len(rp.Measures); n > 0 {
		last := rp.Measures[n-1]
		if st.repeatActive {
			st.broadcast(Event{Type: EventMeasuresRepeatEnd, Line: last.Line, Measure: last.Number})
		}
		if st.restActive {
			st.broadcast(Event{Type: EventRestMeasuresEnd, Line: last.Line, Measure: last.Number})
		}
	}
	part := Part{ID: rp.ID}
	for _, s := range st.streams {
		part.Voices = append(part.Voices, *s)
	}
	return part, nil
}

// discoverVoices creates the streams up front so that every voice sees the
// structural markers of the whole part.
func (st *partState) discoverVoices(rp rawPart) {
	regular := make(map[voiceKey]bool)
	harmonyStaves := make(map[int]bool)
	figured := false
	for _, m := range rp.Measures {
		for _, it := range m.Items {
			switch {
			case it.Note != nil:
				regular[voiceKey{staffOf(it.Note.Staff), voiceOf(it.Note.Voice), VoiceRegular}] = true
			case it.Forward != nil && it.Forward.Voice != "":
				regular[voiceKey{staffOf(it.Forward.Staff), voiceOf(it.Forward.Voice), VoiceRegular}] = true
			case it.Harmony != nil:
				harmonyStaves[staffOf(it.Harmony.Staff)] = true
			case it.FiguredBass != nil:
				figured = true
			}
		}
	}
	if len(regular) == 0 {
		regular[voiceKey{1, 1, VoiceRegular}] = true
	}
	keys := make([]voiceKey, 0, len(regular))
	for k := range regular {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].staff != keys[j].staff {
			return keys[i].staff < keys[j].staff
		}
		return keys[i].voice < keys[j].voice
	})
	for _, k := range keys {
		st.addStream(k)
	}
	if st.cfg.Harmonies {
		for _, k := range keys {
			if harmonyStaves[k.staff] {
				delete(harmonyStaves, k.staff)
				st.addStream(voiceKey{k.staff, k.voice, VoiceHarmony})
			}
		}
	}
	if st.cfg.FiguredBass && figured {
		st.addStream(voiceKey{keys[0].staff, keys[0].voice, VoiceFiguredBass})
	}
}

func (st *partState) addStream(k voiceKey) {
	s := &VoiceStream{Staff: k.staff, Voice: k.voice, Kind: k.kind}
	st.streams = append(st.streams, s)
	st.index[k] = s
}

func (st *partState) broadcast(ev Event) {
	for _, s := range st.streams {
		s.Events = append(s.Events, ev)
	}
}

// stream returns the regular stream for a staff/voice, falling back to the
// first voice of the staff and then to the first voice of the part.
func (st *partState) stream(staff int, voice string) *VoiceStream {
	if s, ok := st.index[voiceKey{staffOf(staff), voiceOf(voice), VoiceRegular}]; ok {
		return s
	}
	for _, s := range st.streams {
		if s.Kind == VoiceRegular && s.Staff == staffOf(staff) {
			return s
		}
	}
	return st.streams[0]
}

func (st *partState) implicitStream(kind VoiceKind, staff int) *VoiceStream {
	for _, s := range st.streams {
		if s.Kind == kind && (kind == VoiceFiguredBass || s.Staff == staffOf(staff)) {
			return s
		}
	}
	return nil
}

func (st *partState) emitMeasure(m rawMeasure, nextNumber func(count int) string) {
	st.measure = m.Number
	base := Event{Line: m.Line, Measure: m.Number}
	at := func(t EventType, line int) Event {
		ev := base
		ev.Type = t
		if line > 0 {
			ev.Line = line
		}
		return ev
	}

	var (
		timeItem            *rawItem
		leftBar, rightBar   *rawBarline
		leftLine, rightLine int
		multiRest           int
		multiRestLine       int
		repeatStart         *rawMeasureRepeat
		repeatStop          bool
		styleLine           int
	)
	for i := range m.Items {
		it := &m.Items[i]
		if a := it.Attributes; a != nil {
			if a.Time != nil && timeItem == nil {
				timeItem = it
			}
			for _, ms := range a.MeasureStyles {
				if ms.MultipleRest > 0 {
					multiRest, multiRestLine = ms.MultipleRest, it.Line
				}
				if mr := ms.MeasureRepeat; mr != nil {
					styleLine = it.Line
					switch mr.Type {
					case "start":
						repeatStart = mr
					case "stop":
						repeatStop = true
					}
				}
			}
		}
		if b := it.Barline; b != nil {
			if b.Location == "left" {
				leftBar, leftLine = b, it.Line
			} else {
				rightBar, rightLine = b, it.Line
			}
		}
	}

	if st.repeatActive && (repeatStop || repeatStart != nil) {
		st.broadcast(at(EventMeasuresRepeatEnd, styleLine))
		st.repeatActive = false
	}
	if st.restActive && st.restRemaining <= 0 {
		st.broadcast(at(EventRestMeasuresEnd, 0))
		st.restActive = false
	}

	open := at(EventOpenMeasure, 0)
	open.Implicit = m.Implicit
	st.broadcast(open)

	if timeItem != nil {
		ev := at(EventTime, timeItem.Line)
		ev.Beats = sumBeats(timeItem.Attributes.Time.Beats)
		ev.BeatType, _ = strconv.Atoi(strings.TrimSpace(timeItem.Attributes.Time.BeatType))
		if ev.Beats > 0 && ev.BeatType > 0 {
			st.broadcast(ev)
		}
	}

	if leftBar != nil {
		if leftBar.Repeat != nil && leftBar.Repeat.Direction == "forward" {
			st.broadcast(at(EventRepeatStart, leftLine))
		}
		if e := leftBar.Ending; e != nil && e.Type == "start" {
			ev := at(EventEndingStart, leftLine)
			ev.Number = e.Number
			st.broadcast(ev)
		}
	}

	if multiRest > 0 && !st.restActive {
		ev := at(EventRestMeasuresStart, multiRestLine)
		ev.Count = multiRest
		st.broadcast(ev)
		if next := nextNumber(multiRest); next != "" {
			ev := at(EventRestMeasuresNextNumber, multiRestLine)
			ev.Number = next
			st.broadcast(ev)
		}
		st.restActive = true
		st.restRemaining = multiRest
	}

	if repeatStart != nil {
		ev := at(EventMeasuresRepeatStart, styleLine)
		ev.Count = 1
		if n, err := strconv.Atoi(strings.TrimSpace(repeatStart.Value)); err == nil && n > 0 {
			ev.Count = n
		}
		ev.Slashes = repeatStart.Slashes
		st.broadcast(ev)
		st.repeatActive = true
	}

	st.emitPayload(m)

	if rightBar != nil {
		if e := rightBar.Ending; e != nil && (e.Type == "stop" || e.Type == "discontinue") {
			ev := at(EventEndingEnd, rightLine)
			ev.Number = e.Number
			ev.Hooked = e.Type == "stop"
			st.broadcast(ev)
		}
		if rightBar.Repeat != nil && rightBar.Repeat.Direction == "backward" {
			ev := at(EventRepeatEnd, rightLine)
			ev.Times = 2
			if n, err := strconv.Atoi(rightBar.Repeat.Times); err == nil && n > 0 {
				ev.Times = n
			}
			st.broadcast(ev)
		}
	}

	if st.restActive {
		st.restRemaining--
	}
}

func (st *partState) emitPayload(m rawMeasure) {
	for _, it := range m.Items {
		switch {
		case it.Attributes != nil:
			st.emitAttributes(it)
		case it.Note != nil:
			st.emitNote(it.Line, it.Note)
		case it.Forward != nil && it.Forward.Voice != "":
			s := st.stream(it.Forward.Staff, it.Forward.Voice)
			s.Events = append(s.Events, Event{
				Type:     EventNote,
				Line:     it.Line,
				Measure:  st.measure,
				Skip:     true,
				Members:  1,
				Duration: st.whole(it.Forward.Duration),
			})
		case it.Harmony != nil:
			if !st.cfg.Harmonies {
				continue
			}
			if s := st.implicitStream(VoiceHarmony, it.Harmony.Staff); s != nil {
				st.pendingHarmony = append(st.pendingHarmony, pendingFill{s, Event{
					Type:    EventHarmony,
					Line:    it.Line,
					Measure: st.measure,
					Text:    harmonyText(it.Harmony),
				}})
			}
		case it.FiguredBass != nil:
			if !st.cfg.FiguredBass {
				continue
			}
			s := st.implicitStream(VoiceFiguredBass, 0)
			if s == nil {
				continue
			}
			ev := Event{Type: EventFiguredBass, Line: it.Line, Measure: st.measure, Text: figuresText(it.FiguredBass)}
			if it.FiguredBass.Duration > 0 {
				ev.Duration = st.whole(it.FiguredBass.Duration)
				s.Events = append(s.Events, ev)
				continue
			}
			st.pendingHarmony = append(st.pendingHarmony, pendingFill{s, ev})
		case it.Direction != nil:
			if len(it.Direction.Words) == 0 {
				continue
			}
			s := st.stream(it.Direction.Staff, it.Direction.Voice)
			s.Events = append(s.Events, Event{
				Type:    EventDirection,
				Line:    it.Line,
				Measure: st.measure,
				Text:    strings.Join(it.Direction.Words, " "),
			})
		}
	}
	// nothing followed them in this bar
	st.flushPendingFills(new(big.Rat))
}

func (st *partState) emitAttributes(it rawItem) {
	a := it.Attributes
	if a.Divisions > 0 {
		st.divisions = a.Divisions
	}
	if a.Key != nil {
		st.broadcastRegular(Event{Type: EventKey, Line: it.Line, Measure: st.measure, Text: fmt.Sprintf("%d %s", a.Key.Fifths, a.Key.Mode)})
	}
	for _, c := range a.Clefs {
		ev := Event{Type: EventClef, Line: it.Line, Measure: st.measure, Text: fmt.Sprintf("%s%d", c.Sign, c.Line)}
		staff := c.Number
		for _, s := range st.streams {
			if s.Kind == VoiceRegular && (staff == 0 || s.Staff == staff) {
				s.Events = append(s.Events, ev)
			}
		}
	}
}

func (st *partState) broadcastRegular(ev Event) {
	for _, s := range st.streams {
		if s.Kind == VoiceRegular {
			s.Events = append(s.Events, ev)
		}
	}
}

func (st *partState) emitNote(line int, n *rawNote) {
	s := st.stream(n.Staff, n.Voice)
	if n.Chord != nil {
		for i := len(s.Events) - 1; i >= 0; i-- {
			if prev := &s.Events[i]; prev.Type == EventNote {
				prev.Members++
				if st.cfg.Lyrics {
					prev.Lyrics = append(prev.Lyrics, lyricsOf(n)...)
				}
				return
			}
		}
	}
	ev := Event{
		Type:    EventNote,
		Line:    line,
		Measure: st.measure,
		Rest:    n.Rest != nil,
		Grace:   n.Grace != nil,
		Cue:     n.Cue != nil,
		Members: 1,
	}
	if ev.Grace {
		ev.Duration = new(big.Rat)
	} else {
		ev.Duration = st.whole(n.Duration)
		st.flushPendingFills(ev.Duration)
	}
	if tm := n.TimeModification; tm != nil && tm.Actual > 0 && tm.Actual != tm.Normal {
		ev.Tuplet = tm.Actual
	}
	if st.cfg.Lyrics {
		ev.Lyrics = lyricsOf(n)
	}
	s.Events = append(s.Events, ev)
}

func (st *partState) flushPendingFills(d *big.Rat) {
	for _, pf := range st.pendingHarmony {
		ev := pf.event
		ev.Duration = new(big.Rat).Set(d)
		pf.stream.Events = append(pf.stream.Events, ev)
	}
	st.pendingHarmony = st.pendingHarmony[:0]
}

// whole converts a duration in divisions to whole notes.
func (st *partState) whole(divisions int) *big.Rat {
	if divisions <= 0 {
		return new(big.Rat)
	}
	return big.NewRat(int64(divisions), int64(4*st.divisions))
}

func lyricsOf(n *rawNote) []Lyric {
	var out []Lyric
	for _, l := range n.Lyrics {
		stanza := l.Number
		if stanza == "" {
			stanza = "1"
		}
		out = append(out, Lyric{Stanza: stanza, Syllabic: l.Syllabic, Text: l.Text})
	}
	return out
}

func harmonyText(h *rawHarmony) string {
	root := h.RootStep
	switch {
	case h.RootAlter > 0:
		root += strings.Repeat("#", h.RootAlter)
	case h.RootAlter < 0:
		root += strings.Repeat("b", -h.RootAlter)
	}
	kind := h.Kind.Text
	if kind == "" {
		kind = h.Kind.Value
	}
	return strings.TrimSpace(root + " " + kind)
}

func figuresText(fb *rawFiguredBass) string {
	parts := make([]string, 0, len(fb.Figures))
	for _, f := range fb.Figures {
		parts = append(parts, f.Prefix+f.Number+f.Suffix)
	}
	return strings.Join(parts, " ")
}

// sumBeats reads composite signatures such as "3+2".
func sumBeats(s string) int {
	total := 0
	for _, part := range strings.Split(s, "+") {
		n, err := strconv.Atoi(strings.TrimSpace(part))
		if err != nil {
			return 0
		}
		total += n
	}
	return total
}

func staffOf(n int) int {
	if n <= 0 {
		return 1
	}
	return n
}

func voiceOf(s string) int {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil || n <= 0 {
		return 1
	}
	return n
}

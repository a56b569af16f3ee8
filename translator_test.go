package mxlstruct

import (
	"bytes"
	"path/filepath"
	"strings"
	"testing"

	"github.com/pkg/errors"

	intdiag "github.com/cbegin/mxlstruct-go/internal/diag"
	intmxl "github.com/cbegin/mxlstruct-go/internal/mxl"
)

func TestTranslateFile(t *testing.T) {
	res, err := NewTranslator(WithCheck(true)).TranslateFile(filepath.Join("testdata", "endings.musicxml"))
	if err != nil {
		t.Fatalf("translate failed: %v", err)
	}
	if res.Score.Title != "Endings" {
		t.Fatalf("title = %q", res.Score.Title)
	}
	voices := res.Score.Voices()
	if len(voices) != 1 {
		t.Fatalf("expected 1 voice, got %d", len(voices))
	}
	want := "S[1] R+x2{S[2]} |1h{S[3]} |2l{S[4]} Rest2{S[5 6]} S[7]"
	if got := voices[0].Shape(); got != want {
		t.Fatalf("shape = %q, want %q", got, want)
	}
	if len(res.Warnings) != 0 {
		t.Fatalf("unexpected warnings: %v", res.Warnings)
	}
}

func TestTranslateTimeChangeInSecondEnding(t *testing.T) {
	res, err := NewTranslator(WithCheck(true)).TranslateFile(filepath.Join("testdata", "endings_time_change.musicxml"))
	if err != nil {
		t.Fatalf("translate failed: %v", err)
	}
	want := "S[1] R+x2{S[2]} |1h{S[3]} |2l{S[4]} Rest2{S[5 6]} S[7]"
	if got := res.Score.Voices()[0].Shape(); got != want {
		t.Fatalf("shape = %q, want %q", got, want)
	}
	if len(res.Warnings) != 0 {
		t.Fatalf("unexpected warnings: %v", res.Warnings)
	}
}

func TestTranslateTracesWithRunID(t *testing.T) {
	var logs bytes.Buffer
	trace := intdiag.New(&logs, "debug", intdiag.CategoryRepeats)
	_, err := NewTranslator(WithTrace(trace)).TranslateFile(filepath.Join("testdata", "endings.musicxml"))
	if err != nil {
		t.Fatalf("translate failed: %v", err)
	}
	out := logs.String()
	if !strings.Contains(out, "run="+trace.RunID()) || !strings.Contains(out, "push repeat descriptor") {
		t.Fatalf("expected repeat trace records, got:\n%s", out)
	}
	if strings.Contains(out, "open measure") {
		t.Fatalf("measure category should be disabled")
	}
}

func TestTranslateMalformed(t *testing.T) {
	_, err := NewTranslator().Translate(strings.NewReader("<score-partwise><part"))
	if !errors.Is(err, intmxl.ErrMalformed) {
		t.Fatalf("expected ErrMalformed, got %v", err)
	}
}

func TestTranslateWithoutHarmonies(t *testing.T) {
	src := `<score-partwise><part id="P1"><measure number="1">
<harmony><root><root-step>C</root-step></root><kind>major</kind></harmony>
<note><pitch><step>C</step><octave>4</octave></pitch><duration>4</duration></note>
</measure></part></score-partwise>`
	res, err := NewTranslator().Translate(strings.NewReader(src))
	if err != nil {
		t.Fatalf("translate failed: %v", err)
	}
	if n := len(res.Score.Voices()); n != 2 {
		t.Fatalf("expected regular and harmony voices, got %d", n)
	}
	cfg := intmxl.DefaultParserConfig()
	cfg.Harmonies = false
	res, err = NewTranslator(WithParserConfig(cfg)).Translate(strings.NewReader(src))
	if err != nil {
		t.Fatalf("translate failed: %v", err)
	}
	if n := len(res.Score.Voices()); n != 1 {
		t.Fatalf("expected only the regular voice, got %d", n)
	}
}

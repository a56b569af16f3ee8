package mxlstruct

import (
	"fmt"
	"io"
	"strings"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	intdiag "github.com/cbegin/mxlstruct-go/internal/diag"
	intmsr "github.com/cbegin/mxlstruct-go/internal/msr"
)

// WriteTree dumps the structure tree of every voice as YAML.
func WriteTree(w io.Writer, score *intmsr.Score) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(score.Describe()); err != nil {
		return errors.Wrap(err, "encode tree")
	}
	return errors.WithStack(enc.Close())
}

type MeasureRow struct {
	Voice   string `yaml:"voice"`
	Number  string `yaml:"number"`
	Purist  int    `yaml:"purist"`
	Segment int    `yaml:"segment"`
	Fill    string `yaml:"fill"`
	Class   string `yaml:"class"`
}

// MeasureRows flattens every voice into document-order bar rows.
func MeasureRows(score *intmsr.Score) []MeasureRow {
	var rows []MeasureRow
	for _, v := range score.Voices() {
		for _, m := range v.Measures() {
			rows = append(rows, MeasureRow{
				Voice:   v.Name,
				Number:  m.Number,
				Purist:  m.PuristNumber,
				Segment: m.SegmentID,
				Fill:    m.Fill().String(),
				Class:   m.Class().String(),
			})
		}
	}
	return rows
}

func WriteMeasures(w io.Writer, score *intmsr.Score, format string) error {
	rows := MeasureRows(score)
	if format == "yaml" {
		return writeYAML(w, rows)
	}
	for _, r := range rows {
		if _, err := fmt.Fprintf(w, "%s\t%s\t%d\t%d\t%s\t%s\n", r.Voice, r.Number, r.Purist, r.Segment, r.Fill, r.Class); err != nil {
			return errors.WithStack(err)
		}
	}
	return nil
}

// Unfolded maps each voice name to its bar numbers in performance order.
func Unfolded(score *intmsr.Score) map[string][]string {
	out := make(map[string][]string)
	for _, v := range score.Voices() {
		nums := []string{}
		for _, m := range v.Unfold() {
			nums = append(nums, m.Number)
		}
		out[v.Name] = nums
	}
	return out
}

func WriteUnfolded(w io.Writer, score *intmsr.Score, format string) error {
	if format == "yaml" {
		return writeYAML(w, Unfolded(score))
	}
	unfolded := Unfolded(score)
	for _, v := range score.Voices() {
		if _, err := fmt.Fprintf(w, "%s: %s\n", v.Name, strings.Join(unfolded[v.Name], " ")); err != nil {
			return errors.WithStack(err)
		}
	}
	return nil
}

func WriteWarnings(w io.Writer, warnings []intdiag.Warning) error {
	for _, wn := range warnings {
		if _, err := fmt.Fprintf(w, "warning: %s\n", wn); err != nil {
			return errors.WithStack(err)
		}
	}
	return nil
}

// WriteCheck reports each voice's invariant check and returns an error if
// any voice fails. Bar conservation counts opened bars plus the
// continuation bars created after mid-bar structure markers.
func WriteCheck(w io.Writer, score *intmsr.Score) error {
	failed := 0
	for _, v := range score.Voices() {
		status := "ok"
		if err := v.Check(); err != nil {
			failed++
			status = err.Error()
		}
		if _, err := fmt.Fprintf(w, "%s\t%s\topened=%d continuations=%d\t%s\n",
			v.Name, v.Shape(), v.OpenedMeasures(), v.ContinuationMeasures(), status); err != nil {
			return errors.WithStack(err)
		}
	}
	if failed > 0 {
		return errors.Errorf("%d voice(s) failed the structure check", failed)
	}
	return nil
}

func writeYAML(w io.Writer, v any) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(v); err != nil {
		return errors.Wrap(err, "encode yaml")
	}
	return errors.WithStack(enc.Close())
}

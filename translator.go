package mxlstruct

import (
	"io"
	"os"

	"github.com/pkg/errors"

	intbuild "github.com/cbegin/mxlstruct-go/internal/builder"
	intcfg "github.com/cbegin/mxlstruct-go/internal/config"
	intdiag "github.com/cbegin/mxlstruct-go/internal/diag"
	intmsr "github.com/cbegin/mxlstruct-go/internal/msr"
	intmxl "github.com/cbegin/mxlstruct-go/internal/mxl"
)

type TranslatorOption func(*translatorConfig)

type translatorConfig struct {
	trace  intdiag.Trace
	parser intmxl.ParserConfig
	check  bool
}

func defaultTranslatorConfig() translatorConfig {
	return translatorConfig{trace: intdiag.Nop(), parser: intmxl.DefaultParserConfig()}
}

func WithTrace(trace intdiag.Trace) TranslatorOption {
	return func(cfg *translatorConfig) {
		cfg.trace = trace
	}
}

func WithParserConfig(parser intmxl.ParserConfig) TranslatorOption {
	return func(cfg *translatorConfig) {
		cfg.parser = parser
	}
}

// WithConfig applies a loaded configuration, logging to w.
func WithConfig(c *intcfg.Config, w io.Writer) TranslatorOption {
	return func(cfg *translatorConfig) {
		cats, _ := c.Categories()
		cfg.trace = intdiag.New(w, c.Log.Level, cats...)
		cfg.parser = c.MXL()
	}
}

// WithCheck re-verifies every voice once the score is built.
func WithCheck(enabled bool) TranslatorOption {
	return func(cfg *translatorConfig) {
		cfg.check = enabled
	}
}

// Result is a structured score plus the domain warnings raised building it.
type Result struct {
	Score    *intmsr.Score
	Warnings []intdiag.Warning
}

type Translator struct {
	cfg    translatorConfig
	parser *intmxl.Parser
}

func NewTranslator(opts ...TranslatorOption) *Translator {
	cfg := defaultTranslatorConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	return &Translator{cfg: cfg, parser: intmxl.NewParser(cfg.parser)}
}

func (t *Translator) Translate(r io.Reader) (*Result, error) {
	parsed, err := t.parser.Parse(r)
	if err != nil {
		return nil, errors.Wrap(err, "decode")
	}
	score, err := intbuild.New(intmsr.NewIDSource(), t.cfg.trace).Build(parsed)
	if err != nil {
		t.cfg.trace.Error("structure failed", err)
		return nil, errors.Wrap(err, "structure")
	}
	if t.cfg.check {
		for _, v := range score.Voices() {
			if err := v.Check(); err != nil {
				return nil, errors.WithStack(err)
			}
		}
	}
	res := &Result{Score: score, Warnings: score.Warnings()}
	t.cfg.trace.Info("score structured", "title", score.Title, "parts", len(score.Parts), "warnings", len(res.Warnings))
	return res, nil
}

func (t *Translator) TranslateFile(path string) (*Result, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.WithStack(err)
	}
	defer f.Close()
	res, err := t.Translate(f)
	if err != nil {
		return nil, errors.Wrapf(err, "%s", path)
	}
	return res, nil
}

package diag

import (
	"context"
	"io"
	"log/slog"
	"strings"

	"github.com/google/uuid"
)

// Category selects one family of trace records.
type Category int

const (
	CategoryVoices Category = iota + 1
	CategorySegments
	CategoryMeasures
	CategoryRepeats
	CategoryRestMeasures
	CategoryMeasuresRepeats
	CategoryClone
)

func (c Category) String() string {
	switch c {
	case CategoryVoices:
		return "voices"
	case CategorySegments:
		return "segments"
	case CategoryMeasures:
		return "measures"
	case CategoryRepeats:
		return "repeats"
	case CategoryRestMeasures:
		return "rest-measures"
	case CategoryMeasuresRepeats:
		return "measures-repeats"
	case CategoryClone:
		return "clone"
	default:
		return "unknown"
	}
}

// ParseCategory maps a config/flag name to a Category.
func ParseCategory(name string) (Category, bool) {
	for c := CategoryVoices; c <= CategoryClone; c++ {
		if strings.EqualFold(strings.TrimSpace(name), c.String()) {
			return c, true
		}
	}
	return 0, false
}

// Trace is the explicit diagnostics context threaded through the engine.
// The zero value discards everything.
type Trace struct {
	logger  *slog.Logger
	enabled map[Category]bool
	runID   string
}

// Nop returns a Trace that records nothing.
func Nop() Trace { return Trace{} }

// New builds a Trace writing text records to w at the given level.
func New(w io.Writer, level string, categories ...Category) Trace {
	runID := uuid.NewString()
	h := slog.NewTextHandler(w, &slog.HandlerOptions{Level: ParseLevel(level)})
	enabled := make(map[Category]bool, len(categories))
	for _, c := range categories {
		enabled[c] = true
	}
	return Trace{
		logger:  slog.New(h).With("run", runID),
		enabled: enabled,
		runID:   runID,
	}
}

func ParseLevel(s string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func (t Trace) RunID() string { return t.runID }

func (t Trace) Enabled(c Category) bool { return t.logger != nil && t.enabled[c] }

// Log emits a debug record for an enabled category.
func (t Trace) Log(c Category, msg string, args ...any) {
	if !t.Enabled(c) {
		return
	}
	t.logger.Log(context.Background(), slog.LevelDebug, msg, append([]any{"cat", c.String()}, args...)...)
}

func (t Trace) Info(msg string, args ...any) {
	if t.logger == nil {
		return
	}
	t.logger.Info(msg, args...)
}

func (t Trace) Warn(w Warning) {
	if t.logger == nil {
		return
	}
	t.logger.Warn(w.Message, "voice", w.Voice, "line", w.Line)
}

func (t Trace) Error(msg string, err error) {
	if t.logger == nil {
		return
	}
	t.logger.Error(msg, "err", err)
}

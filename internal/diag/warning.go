package diag

import "fmt"

// Warning is a non-fatal anomaly found while structuring a voice.
type Warning struct {
	Voice   string
	Line    int
	Message string
}

func (w Warning) String() string {
	return fmt.Sprintf("%s, line %d: %s", w.Voice, w.Line, w.Message)
}

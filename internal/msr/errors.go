package msr

import (
	"fmt"

	"github.com/pkg/errors"
)

// ErrInternal marks a caller contract violation: an impossible transition
// that signals a bug in the front end or in this package, not bad input.
var ErrInternal = errors.New("msr: internal error")

type InternalError struct {
	Voice      string
	Line       int
	Transition string
}

func (e *InternalError) Error() string {
	return fmt.Sprintf("%s: %s, line %d: %s", ErrInternal, e.Voice, e.Line, e.Transition)
}

func (e *InternalError) Is(target error) bool { return target == ErrInternal }

func (v *Voice) internalf(line int, format string, args ...any) error {
	return errors.WithStack(&InternalError{
		Voice:      v.Name,
		Line:       line,
		Transition: fmt.Sprintf(format, args...),
	})
}

package strategy

import (
	"errors"
	"fmt"
)

// ErrorKind classifies a backtest failure.
type ErrorKind string

const (
	KindInvalidStrategy  ErrorKind = "InvalidStrategy"
	KindInsufficientData ErrorKind = "InsufficientData"
	KindNoDataAvailable  ErrorKind = "NoDataAvailable"
	KindInvalidInput     ErrorKind = "InvalidInput"
)

// Error is the structured failure returned by the backtest pipeline. Match a
// kind with errors.Is against one of the Err* sentinels.
type Error struct {
	Kind ErrorKind
	Msg  string
	Err  error
}

// Sentinels for errors.Is.
var (
	ErrInvalidStrategy  = &Error{Kind: KindInvalidStrategy}
	ErrInsufficientData = &Error{Kind: KindInsufficientData}
	ErrNoDataAvailable  = &Error{Kind: KindNoDataAvailable}
	ErrInvalidInput     = &Error{Kind: KindInvalidInput}
)

func newError(kind ErrorKind, format string, args ...any) *Error {
	return &Error{Kind: kind, Msg: fmt.Sprintf(format, args...)}
}

func (e *Error) Error() string {
	if e.Msg == "" {
		return string(e.Kind)
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Msg, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Msg)
}

// Is reports whether target is an *Error of the same kind.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Kind == e.Kind
}

func (e *Error) Unwrap() error { return e.Err }

// KindOf returns the kind of the first *Error in err's chain.
func KindOf(err error) (ErrorKind, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind, true
	}
	return "", false
}

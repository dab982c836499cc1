// internal/types/errors.go
package types

import (
	"errors"
	"fmt"
)

// Kind classifies a failure of the data lake layer.
type Kind string

const (
	KindTranslation Kind = "translation"
	KindValidation  Kind = "validation"
	KindExecution   Kind = "execution"
	KindAdapter     Kind = "adapter"
	KindAggregate   Kind = "aggregate"
	KindWrite       Kind = "write"
	KindConfig      Kind = "config"
)

// Error tags an underlying error with its Kind and the operation that failed.
type Error struct {
	Kind Kind
	Op   string
	Err  error
}

func (e *Error) Error() string {
	if e.Op == "" {
		return fmt.Sprintf("%s: %v", e.Kind, e.Err)
	}
	return fmt.Sprintf("%s: %s: %v", e.Kind, e.Op, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Errorf builds a tagged error.
func Errorf(kind Kind, op, format string, args ...any) error {
	return &Error{Kind: kind, Op: op, Err: fmt.Errorf(format, args...)}
}

// Wrap tags err with kind. A nil err stays nil.
func Wrap(kind Kind, op string, err error) error {
	if err == nil {
		return nil
	}
	return &Error{Kind: kind, Op: op, Err: err}
}

// KindOf returns the Kind of the outermost tagged error in err's chain, or
// "" if none.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}

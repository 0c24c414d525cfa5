// Package scrapeerr defines the error kinds shared by the extraction core
// and the services built on top of it.
package scrapeerr

import (
	"errors"
	"fmt"
)

type Kind int

const (
	KindGrammar Kind = iota + 1
	KindConfiguration
	KindExtraction
	KindInput
	KindFetch
)

func (k Kind) String() string {
	switch k {
	case KindGrammar:
		return "grammar error"
	case KindConfiguration:
		return "configuration error"
	case KindExtraction:
		return "extraction error"
	case KindInput:
		return "input error"
	case KindFetch:
		return "fetch error"
	default:
		return "unknown error"
	}
}

// Sentinels for errors.Is. Any *Error matches the sentinel of its kind.
var (
	ErrGrammar       = &Error{Kind: KindGrammar}
	ErrConfiguration = &Error{Kind: KindConfiguration}
	ErrExtraction    = &Error{Kind: KindExtraction}
	ErrInput         = &Error{Kind: KindInput}
	ErrFetch         = &Error{Kind: KindFetch}
)

type Error struct {
	Kind  Kind
	Msg   string
	Cause error
}

func (e *Error) Error() string {
	msg := e.Kind.String()
	if e.Msg != "" {
		msg += ": " + e.Msg
	}
	if e.Cause != nil {
		msg += ": " + e.Cause.Error()
	}

	return msg
}

func (e *Error) Unwrap() error {
	return e.Cause
}

func (e *Error) Is(target error) bool {
	var t *Error
	if !errors.As(target, &t) {
		return false
	}
	if t.Msg == "" && t.Cause == nil {
		return e.Kind == t.Kind
	}

	return e.Kind == t.Kind && e.Msg == t.Msg
}

func Grammar(format string, args ...any) error {
	return &Error{Kind: KindGrammar, Msg: fmt.Sprintf(format, args...)}
}

func Configuration(format string, args ...any) error {
	return &Error{Kind: KindConfiguration, Msg: fmt.Sprintf(format, args...)}
}

func Extraction(format string, args ...any) error {
	return &Error{Kind: KindExtraction, Msg: fmt.Sprintf(format, args...)}
}

func Input(format string, args ...any) error {
	return &Error{Kind: KindInput, Msg: fmt.Sprintf(format, args...)}
}

// Wrap attaches a cause to a new error of the given kind.
func Wrap(kind Kind, cause error, msg string) error {
	return &Error{Kind: kind, Msg: msg, Cause: cause}
}

// KindOf reports the kind of the first *Error in err's chain, or 0.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}

	return 0
}

// Message returns the bare message of the first *Error in err's chain.
func Message(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Msg
	}

	return ""
}

package models

import (
	"errors"
	"fmt"
)

// Kind classifies domain errors for the HTTP boundary.
type Kind int

const (
	KindInvalid  Kind = iota + 1 // missing or malformed input
	KindNotFound                 // unknown event, ticket or wallet
	KindRejected                 // authenticity and lifecycle failures
)

// Error is a domain error whose message is safe to show to the caller.
type Error struct {
	Kind Kind
	Msg  string
}

func (e *Error) Error() string { return e.Msg }

func Invalidf(format string, args ...any) error {
	return &Error{Kind: KindInvalid, Msg: fmt.Sprintf(format, args...)}
}

func NotFoundf(format string, args ...any) error {
	return &Error{Kind: KindNotFound, Msg: fmt.Sprintf(format, args...)}
}

func Rejectedf(format string, args ...any) error {
	return &Error{Kind: KindRejected, Msg: fmt.Sprintf(format, args...)}
}

// KindOf reports the domain kind of err, or 0 for unexpected errors.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return 0
}

func IsNotFound(err error) bool { return KindOf(err) == KindNotFound }
func IsRejected(err error) bool { return KindOf(err) == KindRejected }
func IsInvalid(err error) bool  { return KindOf(err) == KindInvalid }

// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import (
	"errors"
	"fmt"
)

// ErrorKind classifies a pipeline failure.
type ErrorKind string

const (
	KindValidation        ErrorKind = "validation"
	KindNetwork           ErrorKind = "network"
	KindTimeout           ErrorKind = "timeout"
	KindRedirectLimit     ErrorKind = "redirect_limit"
	KindProtocol          ErrorKind = "protocol"
	KindContentType       ErrorKind = "content_type"
	KindSourceUnavailable ErrorKind = "source_unavailable"
	KindArchive           ErrorKind = "archive"
	KindNoRootDocument    ErrorKind = "no_root_document"
	KindIO                ErrorKind = "io"
)

// Sentinel errors, one per kind. An *Error matches the sentinel of its kind
// under errors.Is.
var (
	ErrValidation        = errors.New("invalid reference")
	ErrNetwork           = errors.New("network error")
	ErrTimeout           = errors.New("timeout")
	ErrRedirectLimit     = errors.New("too many redirects")
	ErrProtocol          = errors.New("unexpected HTTP status")
	ErrContentType       = errors.New("unexpected content type")
	ErrSourceUnavailable = errors.New("TeX source not available")
	ErrArchive           = errors.New("unreadable archive")
	ErrNoRootDocument    = errors.New("no root document")
	ErrIO                = errors.New("i/o error")
)

var sentinels = map[ErrorKind]error{
	KindValidation:        ErrValidation,
	KindNetwork:           ErrNetwork,
	KindTimeout:           ErrTimeout,
	KindRedirectLimit:     ErrRedirectLimit,
	KindProtocol:          ErrProtocol,
	KindContentType:       ErrContentType,
	KindSourceUnavailable: ErrSourceUnavailable,
	KindArchive:           ErrArchive,
	KindNoRootDocument:    ErrNoRootDocument,
	KindIO:                ErrIO,
}

// Error is a classified failure with a human-readable cause.
type Error struct {
	Kind    ErrorKind
	Op      string // stage that failed, e.g. "fetch" or "unpack"
	Message string

	// StatusCode is the HTTP status for protocol and source errors.
	StatusCode int
	// ContentType is the observed media type for content-type errors.
	ContentType string

	Err error
}

// NewError creates an Error of the given kind.
func NewError(kind ErrorKind, op, message string, err error) *Error {
	return &Error{Kind: kind, Op: op, Message: message, Err: err}
}

func (e *Error) Error() string {
	msg := e.Message
	if msg == "" {
		msg = sentinels[e.Kind].Error()
	}
	if e.Op != "" {
		msg = e.Op + ": " + msg
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return msg
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is reports whether target is the sentinel for e's kind.
func (e *Error) Is(target error) bool {
	s, ok := sentinels[e.Kind]
	return ok && s == target
}

// KindOf returns the kind of the first *Error in err's chain, or "" if none.
func KindOf(err error) ErrorKind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}

// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package mongorpc

import (
	"github.com/pkg/errors"
)

// ErrorKind classifies failures delivered through completion callbacks.
type ErrorKind int

const (
	// KindService is an opaque upstream failure: authentication, remote
	// execution fault, network fault. Constructed by the transports and
	// passed through this layer untouched.
	KindService ErrorKind = iota

	// KindMalformedJSON is a locally detected failure: a caller-supplied
	// document or a remote reply failed to parse, or the reply lacked an
	// expected field.
	KindMalformedJSON
)

func (k ErrorKind) String() string {
	switch k {
	case KindService:
		return "service error"
	case KindMalformedJSON:
		return "malformed json"
	default:
		return "unknown error"
	}
}

// Error is the tagged error carrier for every failed operation. Exactly one
// of {result, error} is meaningful per completion; on error the result is
// always the operation's zero value.
type Error struct {
	Kind    ErrorKind
	Message string
}

func (e *Error) Error() string {
	return e.Kind.String() + ": " + e.Message
}

func newMalformedJSON(cause error, context string) *Error {
	return &Error{
		Kind:    KindMalformedJSON,
		Message: errors.Wrap(cause, context).Error(),
	}
}

func newServiceError(message string) *Error {
	return &Error{
		Kind:    KindService,
		Message: message,
	}
}

// IsMalformedJSON reports whether err was caused by unparseable input or an
// unparseable reply, as opposed to an upstream service failure.
func IsMalformedJSON(err error) bool {
	var e *Error
	return errors.As(err, &e) && e.Kind == KindMalformedJSON
}

// IsServiceError reports whether err is an upstream failure relayed from the
// RPC channel.
func IsServiceError(err error) bool {
	var e *Error
	return errors.As(err, &e) && e.Kind == KindService
}

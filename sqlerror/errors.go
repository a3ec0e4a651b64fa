// Copyright 2021 MatrixOrigin.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// See the License for the specific language governing permissions and
// limitations under the License.

package sqlerror

import (
	"context"
	"fmt"

	"github.com/cockroachdb/errors"
)

// Kind is the outward error kind. Callers must not depend on anything except
// the kind of an error returned by the dispatcher.
type Kind int

const (
	// KindBackendExecution any failure raised by a backend port
	KindBackendExecution Kind = iota
	// KindRejection the worker pool refused admission
	KindRejection
	// KindUnsupportedPath the statement resolves to a not yet implemented path
	KindUnsupportedPath
	// KindMalformedStatement the statement failed during parsing or classification
	KindMalformedStatement
)

var kindNames = map[Kind]string{
	KindBackendExecution:   "backend-execution",
	KindRejection:          "rejection",
	KindUnsupportedPath:    "unsupported-path",
	KindMalformedStatement: "malformed-statement",
}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

var (
	// ErrRejected marks errors caused by a saturated or closed worker pool
	ErrRejected = errors.New("rejected execution")
	// ErrMalformed marks errors raised while parsing or analyzing a statement
	ErrMalformed = errors.New("malformed statement")
	// ErrUnsupported marks statements routed to a path that is not implemented
	ErrUnsupported = errors.New("unsupported execution path")
)

// Backend failure markers. Backends mark their native errors with these so
// the translation can name the failure without knowing the backend type.
var (
	ErrTableUnknown    = errors.New("table unknown")
	ErrTableExists     = errors.New("table already exists")
	ErrDuplicateKey    = errors.New("duplicate key")
	ErrVersionConflict = errors.New("version conflict")
	ErrDocumentMissing = errors.New("document missing")
	ErrPathMissing     = errors.New("path missing")
)

const (
	// ReasonUnknown is used when no marker matches
	ReasonUnknown = "unknown"
	// ReasonCanceled is used for context cancellation and deadlines
	ReasonCanceled = "canceled"
)

var reasons = []struct {
	marker error
	reason string
}{
	{ErrTableUnknown, "table unknown"},
	{ErrTableExists, "table already exists"},
	{ErrDuplicateKey, "duplicate key"},
	{ErrVersionConflict, "version conflict"},
	{ErrDocumentMissing, "document missing"},
	{ErrPathMissing, "path missing"},
}

// Error is the uniform outward error.
type Error struct {
	Kind   Kind
	Reason string
	cause  error
}

// New returns an outward error of the given kind
func New(kind Kind, reason string, cause error) *Error {
	if reason == "" {
		reason = ReasonUnknown
	}
	return &Error{Kind: kind, Reason: reason, cause: cause}
}

func (e *Error) Error() string {
	if e.cause == nil {
		return fmt.Sprintf("%s: %s", e.Kind, e.Reason)
	}
	return fmt.Sprintf("%s: %s: %s", e.Kind, e.Reason, e.cause.Error())
}

// Unwrap returns the original cause, for diagnostics only.
func (e *Error) Unwrap() error {
	return e.cause
}

// Cause returns the original cause
func (e *Error) Cause() error {
	return e.cause
}

// Translate converts any error into the outward error. Errors that are already
// outward errors are returned unchanged.
func Translate(err error) *Error {
	if err == nil {
		return nil
	}

	var e *Error
	if errors.As(err, &e) {
		return e
	}

	switch {
	case errors.Is(err, ErrRejected):
		return New(KindRejection, "worker pool saturated", err)
	case errors.Is(err, ErrMalformed):
		return New(KindMalformedStatement, "invalid statement", err)
	case errors.Is(err, ErrUnsupported):
		return New(KindUnsupportedPath, "not implemented", err)
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return New(KindBackendExecution, ReasonCanceled, err)
	}

	for _, r := range reasons {
		if errors.Is(err, r.marker) {
			return New(KindBackendExecution, r.reason, err)
		}
	}
	return New(KindBackendExecution, ReasonUnknown, err)
}

// IsKind returns true if err translates to the given kind
func IsKind(err error, kind Kind) bool {
	if err == nil {
		return false
	}
	return Translate(err).Kind == kind
}

// Rejected marks the error as a pool rejection
func Rejected(err error) error {
	if err == nil {
		err = ErrRejected
	}
	return errors.Mark(err, ErrRejected)
}

// Malformedf returns a malformed statement error
func Malformedf(format string, args ...interface{}) error {
	return errors.Mark(errors.Newf(format, args...), ErrMalformed)
}

// MalformedWrap marks a parse failure as a malformed statement error
func MalformedWrap(err error, msg string) error {
	return errors.Mark(errors.Wrap(err, msg), ErrMalformed)
}

// Unsupportedf returns an unsupported path error
func Unsupportedf(format string, args ...interface{}) error {
	return errors.Mark(errors.Newf(format, args...), ErrUnsupported)
}

// IsRejected returns true if the error is a pool rejection
func IsRejected(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, ErrRejected) {
		return true
	}
	var e *Error
	return errors.As(err, &e) && e.Kind == KindRejection
}

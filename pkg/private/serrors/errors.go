// Copyright 2025 The OpenFIB Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//   http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package serrors provides errors that carry additional context in the form
// of key-value pairs. Errors created by this package support the standard
// errors.Is and errors.As unwrapping: an error that wraps a cause reports
// the cause through Unwrap.
package serrors

import (
	"bytes"
	"fmt"
)

type ctxPair struct {
	Key   string
	Value any
}

type basicError struct {
	msg   string
	cause error
	ctx   []ctxPair
}

func (e *basicError) Error() string {
	var buf bytes.Buffer
	buf.WriteString(e.msg)
	if len(e.ctx) != 0 {
		buf.WriteString(" {")
		for i, p := range e.ctx {
			if i != 0 {
				buf.WriteString("; ")
			}
			fmt.Fprintf(&buf, "%s=%v", p.Key, p.Value)
		}
		buf.WriteString("}")
	}
	if e.cause != nil {
		fmt.Fprintf(&buf, ": %s", e.cause)
	}
	return buf.String()
}

func (e *basicError) Unwrap() error {
	return e.cause
}

// New creates a new error with the given message and context, where the
// context consists of alternating keys and values. An odd trailing element
// is recorded under the key "unknown".
func New(msg string, errCtx ...any) error {
	return &basicError{msg: msg, ctx: toCtx(errCtx)}
}

// Wrap creates a new error with the given message that wraps cause. The
// returned error matches cause with errors.Is.
func Wrap(msg string, cause error, errCtx ...any) error {
	return &basicError{msg: msg, cause: cause, ctx: toCtx(errCtx)}
}

func toCtx(errCtx []any) []ctxPair {
	if len(errCtx)%2 != 0 {
		errCtx = append(errCtx, "unknown")
	}
	pairs := make([]ctxPair, 0, len(errCtx)/2)
	for i := 0; i < len(errCtx)-1; i += 2 {
		pairs = append(pairs, ctxPair{Key: fmt.Sprint(errCtx[i]), Value: errCtx[i+1]})
	}
	return pairs
}

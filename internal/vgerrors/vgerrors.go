// Copyright 2026 The VeGen Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package vgerrors defines the structured error type shared by every VeGen
// compile phase.
//
// Every error is a single record carrying a main span plus zero or more
// labeled secondary spans (Error.Labels), following the record shape set
// out by the language spec rather than CUE's richer Error interface — a
// template compiler does not need CUE's import-path/value-path tracking.
// The list aggregation and sorting behavior (List, Add, AddAll, Sort) is
// adapted from cue/errors, because parse-time errors accumulate per file
// while loader/inference/solver errors fail fast.
package vgerrors

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"vegen.dev/compiler/internal/srcmap"
)

// Label is a secondary span annotated with a short human-readable note.
type Label struct {
	Span srcmap.Span
	Text string
}

// Error is the structured diagnostic record produced by every compile
// phase: parser, loader, inference, solver, and compile driver.
type Error struct {
	Message  string
	MainSpan srcmap.Span
	Labels   []Label
}

func (e *Error) Error() string {
	return e.Message
}

// Newf creates an Error with a formatted message and no labels.
func Newf(span srcmap.Span, format string, args ...any) *Error {
	return &Error{Message: fmt.Sprintf(format, args...), MainSpan: span}
}

// WithLabel returns a copy of e with an additional label appended.
func (e *Error) WithLabel(span srcmap.Span, text string) *Error {
	n := *e
	n.Labels = append(append([]Label{}, e.Labels...), Label{Span: span, Text: text})
	return &n
}

// List is an ordered collection of Errors, used wherever a phase accumulates
// more than one diagnostic (principally the template parser, which keeps
// parsing past a bad token to report as many problems as it can in one
// pass).
type List []*Error

// Add appends err to the list, ignoring a nil error.
func (l *List) Add(err *Error) {
	if err == nil {
		return
	}
	*l = append(*l, err)
}

// AddAll appends every error in errs.
func (l *List) AddAll(errs List) {
	*l = append(*l, errs...)
}

// Err returns l as an error, or nil if l is empty. This lets a function
// return a List through a plain `error` return value the way a single
// *Error already does.
func (l List) Err() error {
	if len(l) == 0 {
		return nil
	}
	return l
}

func (l List) Error() string {
	switch len(l) {
	case 0:
		return ""
	case 1:
		return l[0].Error()
	default:
		parts := make([]string, len(l))
		for i, e := range l {
			parts[i] = e.Error()
		}
		return strings.Join(parts, "\n")
	}
}

// Sort orders a List by main span position using positions resolved from m,
// matching the spec's ordering guarantee that parse errors are reported in
// source order (line, column).
func (l List) Sort(m *srcmap.Map) {
	sort.SliceStable(l, func(i, j int) bool {
		return srcmap.Less(m.Position(l[i].MainSpan), m.Position(l[j].MainSpan))
	})
}

// Single wraps a single *Error in a one-element List, for a fail-fast call
// site that must return the same List type as the parser's accumulated
// errors.
func Single(err *Error) List {
	if err == nil {
		return nil
	}
	return List{err}
}

// Print writes err's message plus every span's resolved (file, line, col)
// position to w, one error per line followed by its labels indented
// underneath, the way cue/errors.Print renders a list against a Cwd-relative
// position. m resolves MainSpan/Labels spans; a nil err prints nothing.
func Print(w io.Writer, err error, m *srcmap.Map) {
	var list List
	switch e := err.(type) {
	case nil:
		return
	case List:
		list = e
	case *Error:
		list = List{e}
	default:
		fmt.Fprintln(w, e.Error())
		return
	}
	for _, e := range list {
		pos := m.Position(e.MainSpan)
		fmt.Fprintf(w, "%s: %s\n", pos, e.Message)
		for _, lbl := range e.Labels {
			lp := m.Position(lbl.Span)
			fmt.Fprintf(w, "    %s: %s\n", lp, lbl.Text)
		}
	}
}

// Details is a convenience wrapper around Print that returns the rendered
// text instead of writing it to a writer.
func Details(err error, m *srcmap.Map) string {
	var b strings.Builder
	Print(&b, err, m)
	return b.String()
}

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

// Package types defines the type domain that the solver unifies over: the
// primitive/function/array/variable/record/discriminated-union shapes a
// view's attributes and expressions can take, plus the row machinery
// (RowDescriptor, FlexMark) that gives records and unions their row
// polymorphism.
//
// Type itself is an interface, following the teacher's internal/core/adt
// pattern of one small concrete struct per node kind rather than a single
// tagged struct — a type switch over Type picks the unification rule the
// same way a type switch over adt.Expr picks an evaluation rule.
package types

import (
	"fmt"
	"sort"
	"strings"

	"vegen.dev/compiler/internal/srcmap"
	"vegen.dev/compiler/internal/uf"
)

// Type is any node in the type domain. Prim compares by value; Fun holds a
// slice and DiscriminatedUnion a map, so neither is comparable with ==; a
// Var's or Record's identity lives in the uf.Point it wraps.
type Type interface {
	isType()
	fmt.Stringer
}

// Prim is a primitive type such as "string", "number", or "boolean", or a
// string-literal singleton such as `"ok"` used as a discriminated-union tag.
type Prim struct {
	Name string
}

func (Prim) isType()        {}
func (p Prim) String() string { return p.Name }

// Fun is a function type with a fixed argument list and single return type.
type Fun struct {
	Args []Type
	Ret  Type
}

func (Fun) isType() {}
func (f Fun) String() string {
	parts := make([]string, len(f.Args))
	for i, a := range f.Args {
		parts[i] = a.String()
	}
	return fmt.Sprintf("(%s) -> %s", strings.Join(parts, ", "), f.Ret)
}

// Array is a homogeneous array type.
type Array struct {
	Elem Type
}

func (Array) isType()          {}
func (a Array) String() string { return fmt.Sprintf("Array<%s>", a.Elem) }

// Var is a type variable: either still unbound (flexible, possibly named)
// or already bound to a concrete Type, per the descriptor stored at its
// union-find point.
type Var struct {
	Point uf.Point[Descriptor]
}

func (Var) isType()        {}
func (v Var) String() string { return uf.Get(v.Point).String() }

// Record is a row-polymorphic record type: a point to a RowDescriptor chain
// describing its known fields and an open or closed tail.
type Record struct {
	Point uf.Point[RowDescriptor]
}

func (Record) isType()        {}
func (r Record) String() string { return fmt.Sprintf("{%s}", uf.Get(r.Point)) }

// DiscriminatedUnion is a closed set of named variants, each variant a row
// (always including its own `type: "<name>"` literal field per the
// compiler's switch/case lowering).
type DiscriminatedUnion struct {
	Variants map[string]uf.Point[RowDescriptor]
}

func (DiscriminatedUnion) isType() {}
func (d DiscriminatedUnion) String() string {
	names := make([]string, 0, len(d.Variants))
	for k := range d.Variants {
		names = append(names, k)
	}
	sort.Strings(names)
	arms := make([]string, len(names))
	for i, k := range names {
		arms[i] = fmt.Sprintf("{ type: %q, ...%s }", k, uf.Get(d.Variants[k]))
	}
	return strings.Join(arms, " | ")
}

// Descriptor is the payload of a type variable's union-find point: either
// still unbound (flexible) or resolved to a concrete Type.
type Descriptor interface {
	isDescriptor()
	fmt.Stringer
}

// Unbound marks a type variable that has not yet been unified with a
// concrete type.
type Unbound struct {
	Mark FlexMark
}

func (Unbound) isDescriptor()      {}
func (u Unbound) String() string { return u.Mark.String() }

// Bound marks a type variable that has been unified down to a concrete
// Type.
type Bound struct {
	Type Type
}

func (Bound) isDescriptor()      {}
func (b Bound) String() string { return b.Type.String() }

// RowDescriptor is the payload of a record/union-variant row's union-find
// point: either more known fields extending a further row, or a flexible
// (possibly closed) tail.
type RowDescriptor interface {
	isRowDescriptor()
	fmt.Stringer
}

// RowExtend adds Fields on top of Rest, which is itself a row.
type RowExtend struct {
	Fields map[string]Type
	Rest   uf.Point[RowDescriptor]
}

func (RowExtend) isRowDescriptor() {}
func (e RowExtend) String() string {
	names := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		names = append(names, k)
	}
	sort.Strings(names)
	parts := make([]string, 0, len(names)+1)
	for _, k := range names {
		parts = append(parts, fmt.Sprintf("%s: %s", k, e.Fields[k]))
	}
	parts = append(parts, fmt.Sprintf("...%s", uf.Get(e.Rest)))
	return strings.Join(parts, ", ")
}

// RowFlex is an open row tail (more fields may be added later) carrying a
// Fresh or Named FlexMark.
type RowFlex struct {
	Mark FlexMark
}

func (RowFlex) isRowDescriptor() {}
func (f RowFlex) String() string { return "R" + f.Mark.String() }

// FlexMark distinguishes an anonymously generated flexible variable (Fresh)
// from one a view explicitly bound a name to (Named), which the solver's
// merge rule prefers to keep on union (Named beats Fresh) so diagnostics
// and emitted TS types read with the attribute's declared name rather than
// an internal counter.
type FlexMark interface {
	isFlexMark()
	fmt.Stringer
}

type Fresh struct {
	ID int
}

func (Fresh) isFlexMark()      {}
func (f Fresh) String() string { return fmt.Sprintf("'%d", f.ID) }

type Named struct {
	Name string
}

func (Named) isFlexMark()      {}
func (n Named) String() string { return "'" + n.Name }

// Constraint is a deferred equality obligation collected during inference
// and discharged by the solver.
type Constraint struct {
	Span srcmap.Span
	T1   Type
	T2   Type
}

func (c Constraint) String() string {
	return fmt.Sprintf("%s == %s", c.T1, c.T2)
}

// Expected is an inference-time hint: either no expectation (infer freely)
// or a specific type the expression must unify with.
type Expected struct {
	Type Type // nil means no expectation
}

func NoExpect() Expected        { return Expected{} }
func Expect(t Type) Expected     { return Expected{Type: t} }
func (e Expected) HasExpect() bool { return e.Type != nil }

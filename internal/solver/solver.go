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

// Package solver discharges the Constraints infer.Infer accumulates: it
// unifies types and rows through the shared union-find store, mutating
// Points in place, and reports the first inconsistency it finds as a
// TypeError. Solving runs to completion or stops at the first error —
// there is no partial-success/keep-going mode, since one bad constraint
// usually poisons everything downstream of it in the same view.
package solver

import (
	"fmt"
	"sort"
	"strings"

	"vegen.dev/compiler/internal/srcmap"
	"vegen.dev/compiler/internal/types"
	"vegen.dev/compiler/internal/typeenv"
	"vegen.dev/compiler/internal/uf"
	"vegen.dev/compiler/internal/vgerrors"
)

// TypeError is one of the six ways unification can fail. Each variant
// renders itself to the structured vgerrors.Error shape every other
// compile phase already uses, so the compile driver can treat a failed
// Solve exactly like any other phase's diagnostic.
type TypeError interface {
	isTypeError()
	ToError() *vgerrors.Error
}

// PrimMismatch is two different primitive names (e.g. "string" vs
// "number") required to be equal.
type PrimMismatch struct {
	Span     srcmap.Span
	Expected string
	Actual   string
}

func (PrimMismatch) isTypeError() {}

func (e PrimMismatch) ToError() *vgerrors.Error {
	return vgerrors.Newf(e.Span, "type mismatch: expected %s, got %s", e.Expected, e.Actual).
		WithLabel(e.Span, fmt.Sprintf("this has type %s", e.Actual))
}

// ArityMismatch is two function types with a different number of arguments.
type ArityMismatch struct {
	Span     srcmap.Span
	Expected int
	Actual   int
}

func (ArityMismatch) isTypeError() {}

func (e ArityMismatch) ToError() *vgerrors.Error {
	return vgerrors.Newf(e.Span, "function arity mismatch: expected %d arguments, got %d", e.Expected, e.Actual).
		WithLabel(e.Span, fmt.Sprintf("expected %d arguments", e.Expected))
}

// StructMismatch is two types of fundamentally different shape (e.g. a
// Prim required to equal an Array).
type StructMismatch struct {
	Span     srcmap.Span
	Expected types.Type
	Actual   types.Type
}

func (StructMismatch) isTypeError() {}

func (e StructMismatch) ToError() *vgerrors.Error {
	return vgerrors.Newf(e.Span, "type structure mismatch: expected %s, got %s", e.Expected, e.Actual).
		WithLabel(e.Span, fmt.Sprintf("this has type %s", e.Actual))
}

// OccursCheck is a variable required to unify with a type that contains
// the variable itself, which would produce an infinite type.
type OccursCheck struct {
	Span srcmap.Span
	Type types.Type
}

func (OccursCheck) isTypeError() {}

func (e OccursCheck) ToError() *vgerrors.Error {
	return vgerrors.Newf(e.Span, "infinite type detected: %s", e.Type).
		WithLabel(e.Span, "this creates an infinite type")
}

// RowMismatch is a row-level occurs-check failure: a row tail required to
// unify with a structure that already contains that same tail.
type RowMismatch struct {
	Span    srcmap.Span
	Message string
}

func (RowMismatch) isTypeError() {}

func (e RowMismatch) ToError() *vgerrors.Error {
	return vgerrors.Newf(e.Span, "record type error: %s", e.Message).
		WithLabel(e.Span, e.Message)
}

// UnionKeyMismatch is two discriminated unions required to be equal but
// naming different sets of variants.
type UnionKeyMismatch struct {
	Span     srcmap.Span
	Expected []string
	Actual   []string
}

func (UnionKeyMismatch) isTypeError() {}

func (e UnionKeyMismatch) ToError() *vgerrors.Error {
	return vgerrors.Newf(e.Span, "discriminated union key mismatch: expected {%s}, got {%s}",
		strings.Join(e.Expected, ", "), strings.Join(e.Actual, ", ")).
		WithLabel(e.Span, "union variants do not align")
}

// Solve discharges every constraint in order, stopping at the first
// unification failure.
func Solve(ctx *typeenv.InferContext, constraints []types.Constraint) TypeError {
	for _, c := range constraints {
		if err := unify(ctx, c.Span, c.T1, c.T2); err != nil {
			return err
		}
	}
	return nil
}

// CanonicalType exposes canonicalType to callers outside the package (the
// emitter, converting a solved view's attributes to their rendered TS
// shape) that need the fully-resolved structural type rather than a Var
// still pointing at a Bound descriptor.
func CanonicalType(ty types.Type) types.Type {
	return canonicalType(ty)
}

// canonicalType resolves ty all the way down through bound variables and
// bound row tails to its current structural shape, without mutating
// anything: an unbound Var is returned unchanged (same Point), but every
// Record/union row is rebuilt as a fresh Point carrying the canonicalized
// field types, since a row's tail may itself have become bound since the
// row was first built.
func canonicalType(ty types.Type) types.Type {
	switch t := ty.(type) {
	case types.Prim:
		return t
	case types.Fun:
		args := make([]types.Type, len(t.Args))
		for i, a := range t.Args {
			args[i] = canonicalType(a)
		}
		return types.Fun{Args: args, Ret: canonicalType(t.Ret)}
	case types.Array:
		return types.Array{Elem: canonicalType(t.Elem)}
	case types.Var:
		if bound, ok := uf.Get(t.Point).(types.Bound); ok {
			return canonicalType(bound.Type)
		}
		return t
	case types.Record:
		return types.Record{Point: canonicalRowPoint(t.Point)}
	case types.DiscriminatedUnion:
		variants := make(map[string]uf.Point[types.RowDescriptor], len(t.Variants))
		for k, rp := range t.Variants {
			variants[k] = canonicalRowPoint(rp)
		}
		return types.DiscriminatedUnion{Variants: variants}
	default:
		panic("solver: unhandled types.Type case in canonicalType")
	}
}

func canonicalRowPoint(rp uf.Point[types.RowDescriptor]) uf.Point[types.RowDescriptor] {
	switch d := uf.Get(rp).(type) {
	case types.RowFlex:
		return rp
	case types.RowExtend:
		fields := make(map[string]types.Type, len(d.Fields))
		for name, ty := range d.Fields {
			fields[name] = canonicalType(ty)
		}
		tail := canonicalRowPoint(d.Rest)
		return uf.Fresh[types.RowDescriptor](rp.ID(), types.RowExtend{Fields: fields, Rest: tail})
	default:
		panic("solver: unhandled types.RowDescriptor case in canonicalRowPoint")
	}
}

func unify(ctx *typeenv.InferContext, span srcmap.Span, t1, t2 types.Type) TypeError {
	c1 := canonicalType(t1)
	c2 := canonicalType(t2)

	v1, isVar1 := c1.(types.Var)
	v2, isVar2 := c2.(types.Var)
	switch {
	case isVar1 && isVar2:
		return unifyPoints(ctx, span, v1.Point, v2.Point)
	case isVar1:
		return bindVariable(span, v1.Point, c2)
	case isVar2:
		return bindVariable(span, v2.Point, c1)
	}

	switch a := c1.(type) {
	case types.Fun:
		b, ok := c2.(types.Fun)
		if !ok {
			return StructMismatch{Span: span, Expected: c2, Actual: c1}
		}
		if len(a.Args) != len(b.Args) {
			return ArityMismatch{Span: span, Expected: len(b.Args), Actual: len(a.Args)}
		}
		for i := range a.Args {
			if err := unify(ctx, span, a.Args[i], b.Args[i]); err != nil {
				return err
			}
		}
		return unify(ctx, span, a.Ret, b.Ret)
	case types.Array:
		b, ok := c2.(types.Array)
		if !ok {
			return StructMismatch{Span: span, Expected: c2, Actual: c1}
		}
		return unify(ctx, span, a.Elem, b.Elem)
	case types.Prim:
		b, ok := c2.(types.Prim)
		if !ok {
			return StructMismatch{Span: span, Expected: c2, Actual: c1}
		}
		if a.Name == b.Name {
			return nil
		}
		return PrimMismatch{Span: span, Expected: b.Name, Actual: a.Name}
	case types.Record:
		b, ok := c2.(types.Record)
		if !ok {
			return StructMismatch{Span: span, Expected: c2, Actual: c1}
		}
		return unifyRows(ctx, span, a.Point, b.Point)
	case types.DiscriminatedUnion:
		b, ok := c2.(types.DiscriminatedUnion)
		if !ok {
			return StructMismatch{Span: span, Expected: c2, Actual: c1}
		}
		keys1 := sortedRowKeys(a.Variants)
		keys2 := sortedRowKeys(b.Variants)
		if !equalStrings(keys1, keys2) {
			return UnionKeyMismatch{Span: span, Expected: keys2, Actual: keys1}
		}
		for _, k := range keys1 {
			if err := unifyRows(ctx, span, a.Variants[k], b.Variants[k]); err != nil {
				return err
			}
		}
		return nil
	default:
		return StructMismatch{Span: span, Expected: c2, Actual: c1}
	}
}

func unifyPoints(ctx *typeenv.InferContext, span srcmap.Span, p1, p2 uf.Point[types.Descriptor]) TypeError {
	if uf.Same(p1, p2) {
		return nil
	}

	d1 := uf.Get(p1)
	d2 := uf.Get(p2)

	if b1, ok := d1.(types.Bound); ok {
		return unify(ctx, span, b1.Type, types.Var{Point: p2})
	}
	if b2, ok := d2.(types.Bound); ok {
		return unify(ctx, span, types.Var{Point: p1}, b2.Type)
	}

	m1 := d1.(types.Unbound).Mark
	m2 := d2.(types.Unbound).Mark
	uf.Union(p1, p2, types.Unbound{Mark: mergeMarks(m1, m2)})
	return nil
}

// mergeMarks keeps a Named mark over a Fresh one on either side, so a view
// attribute's declared name survives unification with an internal
// temporary variable (language spec §9's FlexMark merge rule).
func mergeMarks(m1, m2 types.FlexMark) types.FlexMark {
	if n, ok := m1.(types.Named); ok {
		return n
	}
	if n, ok := m2.(types.Named); ok {
		return n
	}
	return m1
}

func bindVariable(span srcmap.Span, point uf.Point[types.Descriptor], ty types.Type) TypeError {
	c := canonicalType(ty)
	if occurs(point, c) {
		return OccursCheck{Span: span, Type: c}
	}
	uf.Set(point, types.Bound{Type: c})
	return nil
}

func occurs(point uf.Point[types.Descriptor], ty types.Type) bool {
	switch t := canonicalType(ty).(type) {
	case types.Var:
		return uf.Same(t.Point, point)
	case types.Prim:
		return false
	case types.Fun:
		for _, a := range t.Args {
			if occurs(point, a) {
				return true
			}
		}
		return occurs(point, t.Ret)
	case types.Array:
		return occurs(point, t.Elem)
	case types.Record:
		return occursInRow(point, t.Point)
	case types.DiscriminatedUnion:
		for _, rp := range t.Variants {
			if occursInRow(point, rp) {
				return true
			}
		}
		return false
	default:
		panic("solver: unhandled types.Type case in occurs")
	}
}

func occursInRow(point uf.Point[types.Descriptor], rp uf.Point[types.RowDescriptor]) bool {
	switch d := uf.Get(rp).(type) {
	case types.RowFlex:
		return false
	case types.RowExtend:
		for _, ty := range d.Fields {
			if occurs(point, ty) {
				return true
			}
		}
		return occursInRow(point, d.Rest)
	default:
		panic("solver: unhandled types.RowDescriptor case in occursInRow")
	}
}

// gatherFields flattens a RowExtend chain starting at rp into a single
// field map (fields already present in the accumulator take precedence,
// mirroring BTreeMap::entry().or_insert) plus the first non-RowExtend tail
// reached.
func gatherFields(fields map[string]types.Type, rp uf.Point[types.RowDescriptor]) (map[string]types.Type, uf.Point[types.RowDescriptor]) {
	current := rp
	for {
		ext, ok := uf.Get(current).(types.RowExtend)
		if !ok {
			return fields, current
		}
		for name, ty := range ext.Fields {
			if _, exists := fields[name]; !exists {
				fields[name] = ty
			}
		}
		current = ext.Rest
	}
}

func unifyRows(ctx *typeenv.InferContext, span srcmap.Span, r1, r2 uf.Point[types.RowDescriptor]) TypeError {
	if uf.Same(r1, r2) {
		return nil
	}

	d1 := uf.Get(r1)
	d2 := uf.Get(r2)
	flex1, isFlex1 := d1.(types.RowFlex)
	flex2, isFlex2 := d2.(types.RowFlex)

	switch {
	case isFlex1 && isFlex2:
		uf.Union(r1, r2, types.RowFlex{Mark: mergeMarks(flex1.Mark, flex2.Mark)})
		return nil
	case isFlex1:
		if occursRowCheck(r1, d2) || occursRowCheck(r2, d2) {
			return RowMismatch{Span: span, Message: "occurs check failed"}
		}
		uf.Union(r1, r2, d2)
		return nil
	case isFlex2:
		if occursRowCheck(r1, d1) || occursRowCheck(r2, d1) {
			return RowMismatch{Span: span, Message: "occurs check failed"}
		}
		uf.Union(r1, r2, d1)
		return nil
	default:
		fields1, ext1 := gatherFields(map[string]types.Type{}, r1)
		fields2, ext2 := gatherFields(map[string]types.Type{}, r2)
		return unifyRecordStructure(ctx, span, fields1, ext1, fields2, ext2)
	}
}

// unifyRecordStructure implements the three-way split: fields shared by
// both rows unify pairwise; a field unique to one side gets folded into a
// fresh sub-record unified against the other side's tail. When both sides
// have unique fields, a single fresh shared tail is threaded through both
// sub-records so that whichever extra fields either side supplies later
// end up visible to both.
func unifyRecordStructure(ctx *typeenv.InferContext, span srcmap.Span, fields1 map[string]types.Type, ext1 uf.Point[types.RowDescriptor], fields2 map[string]types.Type, ext2 uf.Point[types.RowDescriptor]) TypeError {
	unique1 := map[string]types.Type{}
	unique2 := make(map[string]types.Type, len(fields2))
	for k, v := range fields2 {
		unique2[k] = v
	}

	for name, ty1 := range fields1 {
		if ty2, ok := unique2[name]; ok {
			delete(unique2, name)
			if err := unify(ctx, span, ty1, ty2); err != nil {
				return err
			}
		} else {
			unique1[name] = ty1
		}
	}

	switch {
	case len(unique1) == 0 && len(unique2) == 0:
		return unifyRows(ctx, span, ext1, ext2)
	case len(unique1) == 0:
		subRecord := ctx.FreshRowExtend(unique2, ext2)
		return unifyRows(ctx, span, ext1, subRecord)
	case len(unique2) == 0:
		subRecord := ctx.FreshRowExtend(unique1, ext1)
		return unifyRows(ctx, span, subRecord, ext2)
	default:
		ext := ctx.FreshRowPoint()
		sub1 := ctx.FreshRowExtend(unique1, ext)
		sub2 := ctx.FreshRowExtend(unique2, ext)
		if err := unifyRows(ctx, span, ext1, sub2); err != nil {
			return err
		}
		return unifyRows(ctx, span, sub1, ext2)
	}
}

func occursRowCheck(rowPoint uf.Point[types.RowDescriptor], desc types.RowDescriptor) bool {
	switch d := desc.(type) {
	case types.RowFlex:
		return false
	case types.RowExtend:
		for _, ty := range d.Fields {
			if occursInRowType(rowPoint, ty) {
				return true
			}
		}
		if uf.Same(d.Rest, rowPoint) {
			return true
		}
		return occursRowCheck(rowPoint, uf.Get(d.Rest))
	default:
		panic("solver: unhandled types.RowDescriptor case in occursRowCheck")
	}
}

func occursInRowType(rowPoint uf.Point[types.RowDescriptor], ty types.Type) bool {
	switch t := ty.(type) {
	case types.Var:
		return false
	case types.Prim:
		return false
	case types.Fun:
		for _, a := range t.Args {
			if occursInRowType(rowPoint, a) {
				return true
			}
		}
		return occursInRowType(rowPoint, t.Ret)
	case types.Array:
		return occursInRowType(rowPoint, t.Elem)
	case types.Record:
		if uf.Same(t.Point, rowPoint) {
			return true
		}
		return occursRowCheck(rowPoint, uf.Get(t.Point))
	case types.DiscriminatedUnion:
		for _, rp := range t.Variants {
			if uf.Same(rp, rowPoint) {
				return true
			}
			if occursRowCheck(rowPoint, uf.Get(rp)) {
				return true
			}
		}
		return false
	default:
		panic("solver: unhandled types.Type case in occursInRowType")
	}
}

func sortedRowKeys(m map[string]uf.Point[types.RowDescriptor]) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func equalStrings(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

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

// Package emit renders a compiled view (internal/compiler.ViewDefinition)
// into the generated TypeScript module: one `export type <View>Input = ...`
// per view's solved attributes, and one `export function <View>(input) {...}`
// per view's build/update IR.
package emit

import (
	"fmt"
	"sort"
	"strings"

	"vegen.dev/compiler/internal/solver"
	"vegen.dev/compiler/internal/types"
	"vegen.dev/compiler/internal/uf"
)

// TsType is a rendered TypeScript type shape, built from a solved view's
// canonical attribute types.
type TsType interface{ isTsType() }

// SimpleTsType is any type spelled out verbatim: "string", "number",
// "boolean", "any", or a quoted string-literal tag such as `"ok"`.
type SimpleTsType struct{ Name string }

func (SimpleTsType) isTsType() {}

// ObjectTsType is `{ k1: T1, k2: T2 }`, rendered with its keys sorted so
// output is stable across runs.
type ObjectTsType struct{ Fields map[string]TsType }

func (ObjectTsType) isTsType() {}

// ArrayTsType is `T[]`.
type ArrayTsType struct{ Elem TsType }

func (ArrayTsType) isTsType() {}

// FunctionTsType is `(v0: P0, v1: P1) => R`.
type FunctionTsType struct {
	Params []TsType
	Ret    TsType
}

func (FunctionTsType) isTsType() {}

// UnionTsType is `T1 | T2 | ...`.
type UnionTsType struct{ Variants []TsType }

func (UnionTsType) isTsType() {}

// String renders t as TypeScript source.
func (t SimpleTsType) String() string { return t.Name }

func (t ObjectTsType) String() string {
	if len(t.Fields) == 0 {
		return "{}"
	}
	keys := make([]string, 0, len(t.Fields))
	for k := range t.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, len(keys))
	for i, k := range keys {
		parts[i] = fmt.Sprintf("%s: %s", renderKey(k), tsTypeString(t.Fields[k]))
	}
	return "{ " + strings.Join(parts, ", ") + " }"
}

func (t ArrayTsType) String() string { return tsTypeString(t.Elem) + "[]" }

func (t FunctionTsType) String() string {
	parts := make([]string, len(t.Params))
	for i, p := range t.Params {
		parts[i] = fmt.Sprintf("v%d: %s", i, tsTypeString(p))
	}
	return fmt.Sprintf("(%s) => %s", strings.Join(parts, ", "), tsTypeString(t.Ret))
}

func (t UnionTsType) String() string {
	parts := make([]string, len(t.Variants))
	for i, v := range t.Variants {
		parts[i] = tsTypeString(v)
	}
	return strings.Join(parts, " | ")
}

// tsTypeString dispatches to the concrete type's own String method; TsType
// itself carries no String method since it is an interface of value types,
// not pointer receivers, so a type switch is simpler than embedding
// fmt.Stringer in the interface.
func tsTypeString(t TsType) string {
	switch v := t.(type) {
	case SimpleTsType:
		return v.String()
	case ObjectTsType:
		return v.String()
	case ArrayTsType:
		return v.String()
	case FunctionTsType:
		return v.String()
	case UnionTsType:
		return v.String()
	default:
		panic("emit: unhandled TsType case")
	}
}

// EnvToTsType converts a solved view's attribute map (name -> Type) to the
// TsType rendered as that view's input object type.
func EnvToTsType(attrs map[string]types.Type) TsType {
	fields := make(map[string]TsType, len(attrs))
	for name, ty := range attrs {
		fields[name] = typeToTsType(solver.CanonicalType(ty))
	}
	return ObjectTsType{Fields: fields}
}

// typeToTsType converts an already-canonical Type (every bound variable
// resolved) to its TsType. An unbound Var surviving canonicalization means
// nothing ever constrained it; it renders as "any" rather than failing, the
// same as the original.
func typeToTsType(ty types.Type) TsType {
	switch t := ty.(type) {
	case types.Prim:
		return SimpleTsType{Name: t.Name}
	case types.Fun:
		params := make([]TsType, len(t.Args))
		for i, a := range t.Args {
			params[i] = typeToTsType(a)
		}
		return FunctionTsType{Params: params, Ret: typeToTsType(t.Ret)}
	case types.Array:
		return ArrayTsType{Elem: typeToTsType(t.Elem)}
	case types.Var:
		return SimpleTsType{Name: "any"}
	case types.Record:
		return ObjectTsType{Fields: rowToFields(t.Point)}
	case types.DiscriminatedUnion:
		names := make([]string, 0, len(t.Variants))
		for k := range t.Variants {
			names = append(names, k)
		}
		sort.Strings(names)
		variants := make([]TsType, len(names))
		for i, k := range names {
			fields := rowToFields(t.Variants[k])
			fields["type"] = SimpleTsType{Name: fmt.Sprintf("%q", k)}
			variants[i] = ObjectTsType{Fields: fields}
		}
		return UnionTsType{Variants: variants}
	default:
		panic("emit: unhandled types.Type case in typeToTsType")
	}
}

// rowToFields walks a row descriptor chain, collecting every RowExtend's
// fields; a RowFlex tail (open or still-unresolved) contributes nothing
// further.
func rowToFields(row uf.Point[types.RowDescriptor]) map[string]TsType {
	fields := map[string]TsType{}
	switch d := uf.Get(row).(type) {
	case types.RowExtend:
		for name, ty := range d.Fields {
			fields[name] = typeToTsType(solver.CanonicalType(ty))
		}
		for name, ty := range rowToFields(d.Rest) {
			fields[name] = ty
		}
	case types.RowFlex:
		// open row, no additional fields
	default:
		panic("emit: unhandled types.RowDescriptor case in rowToFields")
	}
	return fields
}

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

// Package typeenv mints fresh type/row variables, tracks the lexical
// environment a view's expressions resolve names against, and instantiates
// a previously solved view's attribute types for a new component-call site
// so that two calls to the same component get independent type variables
// (the polymorphism-on-reuse behavior the language spec requires).
package typeenv

import (
	"vegen.dev/compiler/internal/builtins"
	"vegen.dev/compiler/internal/types"
	"vegen.dev/compiler/internal/uf"
)

// InferContext allocates fresh ids for type and row variables, shared
// across the whole compile of one input set so variable ids never collide
// across views.
type InferContext struct {
	nextID    int
	nextRowID int
}

func NewInferContext() *InferContext {
	return &InferContext{}
}

func (c *InferContext) allocateID() int {
	id := c.nextID
	c.nextID++
	return id
}

func (c *InferContext) allocateRowID() int {
	id := c.nextRowID
	c.nextRowID++
	return id
}

// FreshVar allocates an unbound, anonymously-marked type variable.
func (c *InferContext) FreshVar() types.Type {
	return types.Var{Point: c.freshPoint()}
}

func (c *InferContext) freshPoint() uf.Point[types.Descriptor] {
	id := c.allocateID()
	return uf.Fresh[types.Descriptor](id, types.Unbound{Mark: types.Fresh{ID: id}})
}

// FreshDescriptor allocates a type variable pre-seeded with descriptor,
// used to build an already-bound variable such as a builtin's function type.
func (c *InferContext) FreshDescriptor(descriptor types.Descriptor) uf.Point[types.Descriptor] {
	return uf.Fresh(c.allocateID(), descriptor)
}

// FreshNamed allocates an unbound type variable explicitly marked with
// name, so the solver's merge rule (Named beats Fresh) keeps this name
// visible through later unification.
func (c *InferContext) FreshNamed(name string) uf.Point[types.Descriptor] {
	return uf.Fresh[types.Descriptor](c.allocateID(), types.Unbound{Mark: types.Named{Name: name}})
}

// FreshRowPoint allocates an open row tail with a fresh anonymous mark.
func (c *InferContext) FreshRowPoint() uf.Point[types.RowDescriptor] {
	id := c.allocateRowID()
	return uf.Fresh[types.RowDescriptor](id, types.RowFlex{Mark: types.Fresh{ID: id}})
}

// FreshRowExtend allocates a row point holding fields extending ext.
func (c *InferContext) FreshRowExtend(fields map[string]types.Type, ext uf.Point[types.RowDescriptor]) uf.Point[types.RowDescriptor] {
	return uf.Fresh[types.RowDescriptor](c.allocateRowID(), types.RowExtend{Fields: fields, Rest: ext})
}

// Instantiate produces a fresh copy of ty: every unbound type variable and
// open row tail reachable from ty gets a brand-new uf.Point, while sharing
// is preserved within this one instantiation (two occurrences of the same
// source variable become the same fresh variable, not two different ones).
// Already-bound variables are expanded in place ("cut tail" scheme
// instantiation) so the result carries no reference back to ty's points.
func (c *InferContext) Instantiate(ty types.Type) types.Type {
	seenVars := map[int]uf.Point[types.Descriptor]{}
	seenRows := map[int]uf.Point[types.RowDescriptor]{}
	return c.instantiateType(ty, seenVars, seenRows)
}

func (c *InferContext) instantiateType(ty types.Type, seenVars map[int]uf.Point[types.Descriptor], seenRows map[int]uf.Point[types.RowDescriptor]) types.Type {
	switch t := ty.(type) {
	case types.Prim:
		return t
	case types.Fun:
		args := make([]types.Type, len(t.Args))
		for i, a := range t.Args {
			args[i] = c.instantiateType(a, seenVars, seenRows)
		}
		return types.Fun{Args: args, Ret: c.instantiateType(t.Ret, seenVars, seenRows)}
	case types.Array:
		return types.Array{Elem: c.instantiateType(t.Elem, seenVars, seenRows)}
	case types.Var:
		return c.instantiateVar(t.Point, seenVars, seenRows)
	case types.Record:
		return types.Record{Point: c.instantiateRow(t.Point, seenVars, seenRows, true)}
	case types.DiscriminatedUnion:
		variants := make(map[string]uf.Point[types.RowDescriptor], len(t.Variants))
		for k, p := range t.Variants {
			variants[k] = c.instantiateRow(p, seenVars, seenRows, false)
		}
		return types.DiscriminatedUnion{Variants: variants}
	default:
		panic("typeenv: unhandled Type case in instantiateType")
	}
}

func (c *InferContext) instantiateVar(p uf.Point[types.Descriptor], seenVars map[int]uf.Point[types.Descriptor], seenRows map[int]uf.Point[types.RowDescriptor]) types.Type {
	id := p.ID()
	if repl, ok := seenVars[id]; ok {
		return types.Var{Point: repl}
	}
	switch d := uf.Get(p).(type) {
	case types.Unbound:
		fresh := c.freshPoint()
		seenVars[id] = fresh
		return types.Var{Point: fresh}
	case types.Bound:
		return c.instantiateType(d.Type, seenVars, seenRows)
	default:
		panic("typeenv: unhandled Descriptor case")
	}
}

func (c *InferContext) instantiateRow(p uf.Point[types.RowDescriptor], seenVars map[int]uf.Point[types.Descriptor], seenRows map[int]uf.Point[types.RowDescriptor], collectFields bool) uf.Point[types.RowDescriptor] {
	id := p.ID()
	if repl, ok := seenRows[id]; ok {
		return repl
	}

	var fresh uf.Point[types.RowDescriptor]
	switch d := uf.Get(p).(type) {
	case types.RowFlex:
		fresh = c.FreshRowPoint()
	case types.RowExtend:
		if collectFields {
			fields, tail := c.collectRowFields(p, seenVars, seenRows)
			fresh = c.FreshRowExtend(fields, tail)
		} else {
			newFields := make(map[string]types.Type, len(d.Fields))
			for k, v := range d.Fields {
				newFields[k] = c.instantiateType(v, seenVars, seenRows)
			}
			fresh = c.FreshRowExtend(newFields, c.FreshRowPoint())
		}
	default:
		panic("typeenv: unhandled RowDescriptor case")
	}

	seenRows[id] = fresh
	return fresh
}

// collectRowFields flattens a RowExtend chain into one field map plus the
// final open/closed tail, instantiating every field type along the way.
func (c *InferContext) collectRowFields(p uf.Point[types.RowDescriptor], seenVars map[int]uf.Point[types.Descriptor], seenRows map[int]uf.Point[types.RowDescriptor]) (map[string]types.Type, uf.Point[types.RowDescriptor]) {
	switch d := uf.Get(p).(type) {
	case types.RowFlex:
		return map[string]types.Type{}, c.FreshRowPoint()
	case types.RowExtend:
		all := make(map[string]types.Type, len(d.Fields))
		for k, v := range d.Fields {
			all[k] = c.instantiateType(v, seenVars, seenRows)
		}
		more, tail := c.collectRowFields(d.Rest, seenVars, seenRows)
		for k, v := range more {
			all[k] = v
		}
		return all, tail
	default:
		panic("typeenv: unhandled RowDescriptor case")
	}
}

// Env is the lexical environment expressions resolve variable names
// against: a stack of block scopes (innermost last, used by <for> loop
// bodies and <switch> case bodies) above a single flat globals map (a
// view's free variables — its inferred input attributes).
type Env struct {
	scopes  []map[string]types.Type
	globals map[string]types.Type
}

func NewEnv() *Env {
	return &Env{globals: map[string]types.Type{}}
}

// PushScope opens a new lexical scope (e.g. entering a <for> body) binding
// the given names.
func (e *Env) PushScope(scope map[string]types.Type) {
	e.scopes = append(e.scopes, scope)
}

// PopScope closes the innermost scope.
func (e *Env) PopScope() {
	e.scopes = e.scopes[:len(e.scopes)-1]
}

// Get resolves name: innermost scope first, then the view's globals
// (treated as the view's free variables / input attributes), then the
// builtin table (instantiated fresh on every lookup so two calls to the
// same builtin never share a variable), and finally falls back to
// allocating a brand-new named global — first use of any identifier in a
// view is what establishes it as an input attribute.
func (e *Env) Get(ctx *InferContext, name string) types.Type {
	for i := len(e.scopes) - 1; i >= 0; i-- {
		if t, ok := e.scopes[i][name]; ok {
			return t
		}
	}
	if t, ok := e.globals[name]; ok {
		return t
	}
	if scheme, ok := builtins.Lookup(name); ok {
		args, ret := builtins.Instantiate(scheme, ctx)
		point := ctx.FreshDescriptor(types.Bound{Type: types.Fun{Args: args, Ret: ret}})
		return types.Var{Point: point}
	}
	point := ctx.FreshNamed(name)
	t := types.Var{Point: point}
	e.globals[name] = t
	return t
}

// Globals returns the view's accumulated free-variable map, snapshotted
// after solving so the compile driver can remember this view's input
// attribute types for instantiation at each of its component-call sites.
func (e *Env) Globals() map[string]types.Type {
	out := make(map[string]types.Type, len(e.globals))
	for k, v := range e.globals {
		out[k] = v
	}
	return out
}

// ResetGlobals clears the accumulated free-variable map, called between
// views since each view's attributes are inferred independently.
func (e *Env) ResetGlobals() {
	e.globals = map[string]types.Type{}
}

// InstantiateAttrs instantiates every entry of attrs as one instantiation
// (sharing seenVars/seenRows across all of them), giving one component-call
// site its own fresh copy of the target view's attribute types while still
// preserving any sharing between attributes the original view's inference
// established — two call sites to the same component get independent
// variables from each other, but within one call site attrs that were
// unified together stay unified.
func (c *InferContext) InstantiateAttrs(attrs map[string]types.Type) map[string]types.Type {
	seenVars := map[int]uf.Point[types.Descriptor]{}
	seenRows := map[int]uf.Point[types.RowDescriptor]{}
	out := make(map[string]types.Type, len(attrs))
	for k, t := range attrs {
		out[k] = c.instantiateType(t, seenVars, seenRows)
	}
	return out
}

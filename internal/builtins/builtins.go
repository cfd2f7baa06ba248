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

// Package builtins holds the fixed table of polymorphic built-in function
// schemes every view's expressions can call without a `<require>` or
// `<view>` declaration.
//
// numberToString and boolean are grounded directly on the original
// implementation's BUILTINS table; lookup is licensed by the language spec
// itself ("at least numberToString, boolean, lookup") and is not present in
// the original, so it is defined here from the spec's own type scheme
// rather than attributed to the original.
package builtins

import "vegen.dev/compiler/internal/types"

// Scheme is an uninstantiated builtin type, built from Prim leaves and
// numbered type variables that must be instantiated to the same fresh
// uf.Point wherever the same number recurs within one scheme — this is what
// gives `boolean`'s two branches and its result the shared polymorphic type
// α, and `lookup`'s key/value types their independent polymorphism.
type Scheme struct {
	Args []Node
	Ret  Node
}

// Node is either a concrete primitive leaf or a numbered type variable
// within a Scheme.
type Node struct {
	Prim  string // non-empty for a primitive leaf
	VarID int    // meaningful when Prim == ""
	IsVar bool
}

func prim(name string) Node    { return Node{Prim: name} }
func v(id int) Node            { return Node{IsVar: true, VarID: id} }

// table is the builtin scheme set keyed by name; it is looked up by name
// only, so its (map) iteration order carries no meaning.
var table = map[string]Scheme{
	"numberToString": {
		Args: []Node{prim("number")},
		Ret:  prim("string"),
	},
	"boolean": {
		Args: []Node{prim("boolean"), v(0), v(0)},
		Ret:  v(0),
	},
	"lookup": {
		Args: []Node{v(0), prim("string"), v(1)},
		Ret:  v(1),
	},
}

// Lookup returns the scheme registered for name, if any.
func Lookup(name string) (Scheme, bool) {
	s, ok := table[name]
	return s, ok
}

// Names returns every builtin name, in no particular order. The expression
// parser's dependency extraction excludes builtins through IsBuiltin.
func Names() []string {
	names := make([]string, 0, len(table))
	for k := range table {
		names = append(names, k)
	}
	return names
}

// IsBuiltin reports whether name is a registered builtin.
func IsBuiltin(name string) bool {
	_, ok := table[name]
	return ok
}

// VarAllocator mints fresh type variables; instantiating a Scheme needs a
// fresh uf.Point per distinct VarID, supplied by the caller (internal/typeenv)
// which owns the id counter shared with the rest of inference.
type VarAllocator interface {
	FreshVar() types.Type
}

// Instantiate builds a concrete, freshly-variabled Type scheme (args, ret)
// from s, sharing one fresh variable across every Node with the same VarID.
func Instantiate(s Scheme, alloc VarAllocator) (args []types.Type, ret types.Type) {
	vars := map[int]types.Type{}
	resolve := func(n Node) types.Type {
		if !n.IsVar {
			return types.Prim{Name: n.Prim}
		}
		if t, ok := vars[n.VarID]; ok {
			return t
		}
		t := alloc.FreshVar()
		vars[n.VarID] = t
		return t
	}
	args = make([]types.Type, len(s.Args))
	for i, a := range s.Args {
		args[i] = resolve(a)
	}
	ret = resolve(s.Ret)
	return args, ret
}

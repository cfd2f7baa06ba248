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

package builtins

import (
	"testing"

	"vegen.dev/compiler/internal/types"
)

type counterAlloc struct{ n int }

func (c *counterAlloc) FreshVar() types.Type {
	c.n++
	return types.Prim{Name: "var"}
}

func TestLookupKnownBuiltins(t *testing.T) {
	for _, name := range []string{"numberToString", "boolean", "lookup"} {
		if _, ok := Lookup(name); !ok {
			t.Fatalf("expected builtin %q to be registered", name)
		}
	}
}

func TestIsBuiltinRejectsUnknownNames(t *testing.T) {
	if IsBuiltin("notARealBuiltin") {
		t.Fatalf("notARealBuiltin should not be a builtin")
	}
}

func TestInstantiateBooleanSharesVariable(t *testing.T) {
	s, ok := Lookup("boolean")
	if !ok {
		t.Fatal("boolean missing")
	}
	alloc := &counterAlloc{}
	args, _ := Instantiate(s, alloc)
	if len(args) != 3 {
		t.Fatalf("boolean should have 3 args, got %d", len(args))
	}
	// args[0] is the fixed boolean prim; args[1] and args[2] and the
	// return type share one allocated variable, so only one FreshVar call
	// should occur.
	if alloc.n != 1 {
		t.Fatalf("expected exactly one fresh variable allocated for shared alpha, got %d", alloc.n)
	}
}

func TestInstantiateLookupAllocatesTwoVars(t *testing.T) {
	s, ok := Lookup("lookup")
	if !ok {
		t.Fatal("lookup missing")
	}
	alloc := &counterAlloc{}
	_, _ = Instantiate(s, alloc)
	if alloc.n != 2 {
		t.Fatalf("lookup has two independent type variables, got %d fresh allocations", alloc.n)
	}
}

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

package infer

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	"vegen.dev/compiler/internal/exprparser"
	"vegen.dev/compiler/internal/types"
	"vegen.dev/compiler/internal/typeenv"
	"vegen.dev/compiler/internal/vgast"
)

func mustParseExpr(t *testing.T, src string) vgast.Expr {
	t.Helper()
	e, err := exprparser.ParseAll(src, 1)
	if err != nil {
		t.Fatalf("ParseAll(%q) failed: %v", src, err)
	}
	return e
}

func TestInferVariableAllocatesNamedGlobal(t *testing.T) {
	ctx := typeenv.NewInferContext()
	env := typeenv.NewEnv()
	var constraints []types.Constraint

	ty := Infer(ctx, env, &constraints, mustParseExpr(t, "count"), types.NoExpect())

	if _, ok := ty.(types.Var); !ok {
		t.Fatalf("expected a Var, got %#v", ty)
	}
	if len(constraints) != 0 {
		t.Fatalf("expected no constraints with NoExpect, got %v", constraints)
	}
	if _, ok := env.Globals()["count"]; !ok {
		t.Fatalf("expected 'count' to be recorded as a global input field")
	}
}

func TestInferNumberIsPrimNumber(t *testing.T) {
	ctx := typeenv.NewInferContext()
	env := typeenv.NewEnv()
	var constraints []types.Constraint

	ty := Infer(ctx, env, &constraints, mustParseExpr(t, "42"), types.NoExpect())

	if diff := cmp.Diff(types.Prim{Name: "number"}, ty); diff != "" {
		t.Fatalf("inferred type mismatch (-want +got):\n%s", diff)
	}
}

func TestInferExpectedAppendsConstraint(t *testing.T) {
	ctx := typeenv.NewInferContext()
	env := typeenv.NewEnv()
	var constraints []types.Constraint

	Infer(ctx, env, &constraints, mustParseExpr(t, "42"), types.Expect(types.Prim{Name: "number"}))

	if len(constraints) != 1 {
		t.Fatalf("expected 1 constraint, got %d", len(constraints))
	}
}

func TestInferStringTemplateConstrainsInterpolationToString(t *testing.T) {
	ctx := typeenv.NewInferContext()
	env := typeenv.NewEnv()
	var constraints []types.Constraint

	ty := Infer(ctx, env, &constraints, mustParseExpr(t, `"hi {x}"`), types.NoExpect())

	if diff := cmp.Diff(types.Prim{Name: "string"}, ty); diff != "" {
		t.Fatalf("inferred type mismatch (-want +got):\n%s", diff)
	}
	if len(constraints) != 1 {
		t.Fatalf("expected 1 constraint from the interpolation, got %d", len(constraints))
	}
	if _, ok := env.Globals()["x"]; !ok {
		t.Fatalf("expected 'x' to be recorded as a global input field")
	}
}

func TestInferFieldConstrainsBaseToRecord(t *testing.T) {
	ctx := typeenv.NewInferContext()
	env := typeenv.NewEnv()
	var constraints []types.Constraint

	ty := Infer(ctx, env, &constraints, mustParseExpr(t, "a.b"), types.NoExpect())

	if _, ok := ty.(types.Var); !ok {
		t.Fatalf("expected field access to yield a Var, got %#v", ty)
	}
	if len(constraints) != 1 {
		t.Fatalf("expected 1 constraint (base unified with a record), got %d", len(constraints))
	}
	if _, ok := constraints[0].T2.(types.Record); !ok {
		t.Fatalf("expected the constraint's expected side to be a Record, got %#v", constraints[0].T2)
	}
}

func TestInferFunctionCallConstrainsCalleeAndArgs(t *testing.T) {
	ctx := typeenv.NewInferContext()
	env := typeenv.NewEnv()
	var constraints []types.Constraint

	Infer(ctx, env, &constraints, mustParseExpr(t, "f(a)"), types.NoExpect())

	// One constraint unifying the callee's inferred type with the expected
	// (args -> fresh ret) function shape, one unifying the argument's type
	// with the fresh argument variable.
	if len(constraints) != 2 {
		t.Fatalf("expected 2 constraints, got %d", len(constraints))
	}
}

func TestInferPipeDesugarsCallRightToPrependedArg(t *testing.T) {
	ctx := typeenv.NewInferContext()
	env := typeenv.NewEnv()
	var constraints []types.Constraint

	Infer(ctx, env, &constraints, mustParseExpr(t, "a | f(b)"), types.NoExpect())

	if _, ok := env.Globals()["a"]; !ok {
		t.Fatalf("expected 'a' to have been inferred as part of the desugared call")
	}
	if _, ok := env.Globals()["b"]; !ok {
		t.Fatalf("expected 'b' to have been inferred as part of the desugared call")
	}
}

func TestInferPipeNonCallRightDesugarsToSingleArgCall(t *testing.T) {
	ctx := typeenv.NewInferContext()
	env := typeenv.NewEnv()
	var constraints []types.Constraint

	Infer(ctx, env, &constraints, mustParseExpr(t, "a | f"), types.NoExpect())

	if _, ok := env.Globals()["a"]; !ok {
		t.Fatalf("expected 'a' to have been inferred as the call's sole argument")
	}
	if _, ok := env.Globals()["f"]; !ok {
		t.Fatalf("expected 'f' to have been inferred as the callee")
	}
}

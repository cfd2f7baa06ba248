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

// Package infer walks an expression tree once, producing its Type and
// appending Constraints the solver will later discharge. It never unifies
// anything itself: every obligation becomes a types.Constraint, so
// inference can run greedily, left to right, in a single pass.
package infer

import (
	"vegen.dev/compiler/internal/srcmap"
	"vegen.dev/compiler/internal/types"
	"vegen.dev/compiler/internal/typeenv"
	"vegen.dev/compiler/internal/vgast"
)

// Infer computes expr's type under env, seeding ctx for any fresh variable
// it needs and appending to constraints every equality expr's type and
// (if present) expected's type must satisfy. The returned Type is expr's
// own inferred type, independent of whether expected was given — callers
// that only care about the constraint can discard it.
func Infer(ctx *typeenv.InferContext, env *typeenv.Env, constraints *[]types.Constraint, expr vgast.Expr, expected types.Expected) types.Type {
	switch e := expr.(type) {
	case vgast.Variable:
		ty := env.Get(ctx, e.Name)
		expectEqual(e.Sp, ty, expected, constraints)
		return ty

	case vgast.Number:
		var ty types.Type = types.Prim{Name: "number"}
		expectEqual(e.Sp, ty, expected, constraints)
		return ty

	case vgast.StringTemplate:
		for _, seg := range e.Segments {
			if interp, ok := seg.(vgast.InterpolationSegment); ok {
				Infer(ctx, env, constraints, interp.Expr, types.Expect(types.Prim{Name: "string"}))
			}
		}
		var ty types.Type = types.Prim{Name: "string"}
		expectEqual(e.Sp, ty, expected, constraints)
		return ty

	case vgast.FunctionCall:
		freshRet := ctx.FreshVar()
		argTypes := make([]types.Type, len(e.Args))
		for i := range e.Args {
			argTypes[i] = ctx.FreshVar()
		}
		expectedFn := types.Fun{Args: argTypes, Ret: freshRet}

		Infer(ctx, env, constraints, e.Callee, types.Expect(expectedFn))
		for i, arg := range e.Args {
			Infer(ctx, env, constraints, arg, types.Expect(argTypes[i]))
		}

		expectEqual(e.Sp, freshRet, expected, constraints)
		return freshRet

	case vgast.Field:
		fieldType := ctx.FreshVar()
		tailPoint := ctx.FreshRowPoint()
		rowPoint := ctx.FreshRowExtend(map[string]types.Type{e.Name: fieldType}, tailPoint)
		wantedRow := types.Record{Point: rowPoint}

		Infer(ctx, env, constraints, e.Base, types.Expect(wantedRow))

		expectEqual(e.Sp, fieldType, expected, constraints)
		return fieldType

	case vgast.Pipe:
		// Desugar `left | right` into a call: if right is itself a call,
		// left becomes its first argument; otherwise right is applied to
		// left as a single argument. Either way we re-enter Infer on the
		// desugared FunctionCall so the two forms share one code path.
		switch right := e.Right.(type) {
		case vgast.FunctionCall:
			allArgs := make([]vgast.Expr, 0, len(right.Args)+1)
			allArgs = append(allArgs, e.Left)
			allArgs = append(allArgs, right.Args...)
			desugared := vgast.FunctionCall{Callee: right.Callee, Args: allArgs, Sp: e.Sp}
			return Infer(ctx, env, constraints, desugared, expected)
		default:
			desugared := vgast.FunctionCall{Callee: e.Right, Args: []vgast.Expr{e.Left}, Sp: e.Sp}
			return Infer(ctx, env, constraints, desugared, expected)
		}

	default:
		panic("infer: unhandled vgast.Expr case")
	}
}

func expectEqual(span srcmap.Span, actual types.Type, expected types.Expected, constraints *[]types.Constraint) {
	if !expected.HasExpect() {
		return
	}
	*constraints = append(*constraints, types.Constraint{Span: span, T1: actual, T2: expected.Type})
}

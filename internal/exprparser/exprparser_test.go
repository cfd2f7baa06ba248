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

package exprparser

import (
	"sort"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"

	"vegen.dev/compiler/internal/srcmap"
	"vegen.dev/compiler/internal/vgast"
)

// exprDiffOpts ignores spans (these tests assert shape, not byte offsets)
// and treats a nil segment/arg slice the same as an empty one.
var exprDiffOpts = cmp.Options{cmpopts.IgnoreTypes(srcmap.Span{}), cmpopts.EquateEmpty()}

func diffExpr(t *testing.T, want, got vgast.Expr) {
	t.Helper()
	if diff := cmp.Diff(want, got, exprDiffOpts); diff != "" {
		t.Fatalf("Parse() mismatch (-want +got):\n%s", diff)
	}
}

func mustParse(t *testing.T, src string) vgast.Expr {
	t.Helper()
	e, err := ParseAll(src, 1)
	if err != nil {
		t.Fatalf("ParseAll(%q) failed: %v", src, err)
	}
	return e
}

func depsOf(t *testing.T, src string) []string {
	t.Helper()
	e := mustParse(t, src)
	set := Dependencies(e)
	out := make([]string, 0, len(set))
	for k := range set {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

func strSlice(ss ...string) []string {
	sort.Strings(ss)
	return ss
}

func TestParseSimpleVariable(t *testing.T) {
	e := mustParse(t, "a")
	diffExpr(t, vgast.Variable{Name: "a"}, e)
}

func TestParseVariablePath(t *testing.T) {
	e := mustParse(t, "a.b.c")
	want := vgast.Field{
		Name: "c",
		Base: vgast.Field{Name: "b", Base: vgast.Variable{Name: "a"}},
	}
	diffExpr(t, want, e)
}

func TestParseFunctionCallNoArgs(t *testing.T) {
	e := mustParse(t, "fn()")
	diffExpr(t, vgast.FunctionCall{Callee: vgast.Variable{Name: "fn"}}, e)
}

func TestParseFunctionCallWithArgs(t *testing.T) {
	e := mustParse(t, "add(a, b)")
	want := vgast.FunctionCall{
		Callee: vgast.Variable{Name: "add"},
		Args:   []vgast.Expr{vgast.Variable{Name: "a"}, vgast.Variable{Name: "b"}},
	}
	diffExpr(t, want, e)
}

func TestParseStringTemplateLiteralOnly(t *testing.T) {
	e := mustParse(t, `"hello world"`)
	want := vgast.StringTemplate{Segments: []vgast.StringTemplateSegment{
		vgast.LiteralSegment{Text: "hello world"},
	}}
	diffExpr(t, want, e)
}

func TestParseStringTemplateWithInterpolation(t *testing.T) {
	e := mustParse(t, `"hello {name}"`)
	want := vgast.StringTemplate{Segments: []vgast.StringTemplateSegment{
		vgast.LiteralSegment{Text: "hello "},
		vgast.InterpolationSegment{Expr: vgast.Variable{Name: "name"}},
	}}
	diffExpr(t, want, e)
}

func TestParsePipeExpression(t *testing.T) {
	e := mustParse(t, "a | fn(b)")
	want := vgast.Pipe{
		Left:  vgast.Variable{Name: "a"},
		Right: vgast.FunctionCall{Callee: vgast.Variable{Name: "fn"}, Args: []vgast.Expr{vgast.Variable{Name: "b"}}},
	}
	diffExpr(t, want, e)
}

func TestParseChainedPipeIsLeftAssociative(t *testing.T) {
	e := mustParse(t, "a | f1(b) | f2(c)")
	want := vgast.Pipe{
		Left: vgast.Pipe{
			Left:  vgast.Variable{Name: "a"},
			Right: vgast.FunctionCall{Callee: vgast.Variable{Name: "f1"}, Args: []vgast.Expr{vgast.Variable{Name: "b"}}},
		},
		Right: vgast.FunctionCall{Callee: vgast.Variable{Name: "f2"}, Args: []vgast.Expr{vgast.Variable{Name: "c"}}},
	}
	diffExpr(t, want, e)
}

func TestParseNestedFunctionCall(t *testing.T) {
	e := mustParse(t, "outer(inner(a))")
	want := vgast.FunctionCall{
		Callee: vgast.Variable{Name: "outer"},
		Args: []vgast.Expr{vgast.FunctionCall{
			Callee: vgast.Variable{Name: "inner"},
			Args:   []vgast.Expr{vgast.Variable{Name: "a"}},
		}},
	}
	diffExpr(t, want, e)
}

func TestParseParenthesizedExpression(t *testing.T) {
	e := mustParse(t, "(a)")
	diffExpr(t, vgast.Variable{Name: "a"}, e)
}

func TestParseNumberIntegerAndFloat(t *testing.T) {
	diffExpr(t, vgast.Number{Text: "42"}, mustParse(t, "42"))
	diffExpr(t, vgast.Number{Text: "3.14"}, mustParse(t, "3.14"))
}

func TestParseErrorOnUnterminatedInterpolation(t *testing.T) {
	if _, err := ParseAll(`"invalid{`, 1); err == nil {
		t.Fatalf("expected a parse error for unterminated interpolation")
	}
}

func TestParseMethodCallChain(t *testing.T) {
	e := mustParse(t, "obj.method1().method2()")
	want := vgast.FunctionCall{
		Callee: vgast.Field{
			Name: "method2",
			Base: vgast.FunctionCall{Callee: vgast.Field{Name: "method1", Base: vgast.Variable{Name: "obj"}}},
		},
	}
	diffExpr(t, want, e)
}

// Dependency extraction tests, ported from the original's expr_dependencies
// test suite.

func TestDependenciesSimpleVariable(t *testing.T) {
	got := depsOf(t, "a")
	want := strSlice("a")
	assertEqualSlices(t, got, want)
}

func TestDependenciesFieldAccess(t *testing.T) {
	got := depsOf(t, "a.b.c")
	want := strSlice("a.b.c")
	assertEqualSlices(t, got, want)
}

func TestDependenciesFunctionCallWithFieldArgs(t *testing.T) {
	got := depsOf(t, "f(a.x, a.y)")
	want := strSlice("f", "a.x", "a.y")
	assertEqualSlices(t, got, want)
}

func TestDependenciesPathBeforeCall(t *testing.T) {
	got := depsOf(t, "a.b.c().d.e")
	want := strSlice("a.b.c")
	assertEqualSlices(t, got, want)
}

func TestDependenciesMultipleCallsInChain(t *testing.T) {
	got := depsOf(t, "a.b().c().d")
	want := strSlice("a.b")
	assertEqualSlices(t, got, want)
}

func TestDependenciesNestedCallsWithArgs(t *testing.T) {
	got := depsOf(t, "outer(inner(a.b), c.d)")
	want := strSlice("outer", "inner", "a.b", "c.d")
	assertEqualSlices(t, got, want)
}

func TestDependenciesMethodCall(t *testing.T) {
	got := depsOf(t, "obj.method(arg)")
	want := strSlice("obj.method", "arg")
	assertEqualSlices(t, got, want)
}

func TestDependenciesChainedMethodCallArg(t *testing.T) {
	got := depsOf(t, "obj.method(arg).extra")
	want := strSlice("obj.method", "arg")
	assertEqualSlices(t, got, want)
}

func TestDependenciesChainedMethodCalls(t *testing.T) {
	got := depsOf(t, "obj.method1().method2()")
	want := strSlice("obj.method1")
	assertEqualSlices(t, got, want)
}

func TestDependenciesInStringTemplate(t *testing.T) {
	got := depsOf(t, `"hello {user.name}"`)
	want := strSlice("user.name")
	assertEqualSlices(t, got, want)
}

func TestDependenciesInPipe(t *testing.T) {
	got := depsOf(t, "a.b | f(c.d)")
	want := strSlice("a.b", "f", "c.d")
	assertEqualSlices(t, got, want)
}

func TestDependenciesExcludeBuiltins(t *testing.T) {
	got := depsOf(t, "numberToString(a)")
	want := strSlice("a")
	assertEqualSlices(t, got, want)
}

func assertEqualSlices(t *testing.T, got, want []string) {
	t.Helper()
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("dependency set mismatch (-want +got):\n%s", diff)
	}
}

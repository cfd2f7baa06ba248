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

package emit

import (
	_ "embed"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"vegen.dev/compiler/internal/builtins"
	"vegen.dev/compiler/internal/compiler"
	"vegen.dev/compiler/internal/vgast"
)

//go:embed runtime.ts
var runtime string

// isTsIdentifier reports whether s is a valid bare TypeScript object-key /
// identifier: a leading letter, `_`, or `$`, followed by any number of
// alphanumerics, `_`, or `$`.
func isTsIdentifier(s string) bool {
	if s == "" {
		return false
	}
	for i, r := range s {
		switch {
		case r == '_' || r == '$':
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z':
		case r >= '0' && r <= '9':
			if i == 0 {
				return false
			}
		default:
			return false
		}
	}
	return true
}

// renderKey quotes k only when it is not already a valid bare identifier.
func renderKey(k string) string {
	if isTsIdentifier(k) {
		return k
	}
	return strconv.Quote(k)
}

// EmitViews renders every compiled view into one generated TypeScript
// module: a header, the embedded runtime helpers, then each view's input
// type alias and build/update function.
func EmitViews(defs []compiler.ViewDefinition) string {
	var out strings.Builder
	out.WriteString("// Generated by VeGen. Do not edit.\n")
	out.WriteString("// @ts-nocheck\n\n")
	out.WriteString(runtime)

	for _, def := range defs {
		inputTypeName := ViewInputTypeName(def.ViewName)
		tsType := EnvToTsType(def.Attrs)
		fmt.Fprintf(&out, "export type %s = %s;\n", inputTypeName, tsTypeString(tsType))
		jsCode := render(def.Body, "")
		fmt.Fprintf(&out, "export function %s(input: %s): ViewState<%s> {\n%s\n}\n",
			def.ViewName, inputTypeName, inputTypeName, jsCode)
	}
	return out.String()
}

// ViewInputTypeName is the name of a view's generated input type.
func ViewInputTypeName(viewName string) string {
	return viewName + "Input"
}

// render lowers one CompiledView to its generated function body: a build
// phase constructing every node in order, and an update phase patching
// dependency-gated changes, indented one level below indent.
func render(view compiler.CompiledView, indent string) string {
	var build []string

	for i, v := range view.ChildViews {
		childCode := render(v, indent+"  ")
		build = append(build, fmt.Sprintf("const child%d: View<any> = (input) => {\n%s\n%s  };", i, childCode, indent))
	}

	for i, fl := range view.ForLoops {
		build = append(build,
			fmt.Sprintf("const anchor%d = document.createComment(\"for-loop-%d\");", i, i),
			fmt.Sprintf("const loopElements%d = [];", i),
			fmt.Sprintf("let childState%d: any[] = [];", fl.ChildViewIdx),
			fmt.Sprintf("for (const item of %s) {", renderExpr(fl.Sequence)),
			fmt.Sprintf("  const itemState = child%d({ ...input, %s: item });", fl.ChildViewIdx, fl.VarName),
			fmt.Sprintf("  loopElements%d.push(itemState.root);", i),
			fmt.Sprintf("  childState%d.push(itemState);", fl.ChildViewIdx),
			"}",
			fmt.Sprintf("loopElements%d.push(anchor%d);", i, i),
		)
	}

	for i, ifi := range view.Ifs {
		build = append(build, fmt.Sprintf("let currentState%d: ViewState<any>;", i))
		build = append(build, fmt.Sprintf("if (%s) {", renderExpr(ifi.Condition)))
		build = append(build, "  "+branchConstructLine(fmt.Sprintf("currentState%d", i), ifi.ThenViewIdx))
		build = append(build, "} else {")
		build = append(build, "  "+branchConstructLine(fmt.Sprintf("currentState%d", i), ifi.ElseViewIdx))
		build = append(build, "}")
		build = append(build, fmt.Sprintf("const conditionalElement%d = currentState%d.root;", i, i))
	}

	for i, sw := range view.Switches {
		build = append(build, fmt.Sprintf("let currentSwitchState%d: ViewState<any>;", i))
		build = append(build, fmt.Sprintf("const switchElement%d = (() => {", i))
		build = append(build, fmt.Sprintf("  const onValue = %s.type;", renderExpr(sw.On)))
		build = append(build, "  switch (onValue) {")
		for j, name := range sw.CaseNames {
			caseIdx := sw.CaseViewIdxs[j]
			build = append(build,
				fmt.Sprintf("    case %q: {", name),
				fmt.Sprintf("      const caseInput = { ...input, %s: %s };", name, renderExpr(sw.On)),
				fmt.Sprintf("      const st = child%d(caseInput);", caseIdx),
				fmt.Sprintf("      currentSwitchState%d = st;", i),
				"      return st.root;",
				"    }",
			)
		}
		build = append(build,
			"    default: {",
			"      const st = { root: document.createComment(\"switch-empty\"), update: (_: any) => {} };",
			fmt.Sprintf("      currentSwitchState%d = st;", i),
			"      return st.root;",
			"    }",
			"  }",
			"})();",
		)
	}

	for i, m := range view.Mounts {
		build = append(build, fmt.Sprintf("let mountRoot%d = (%s)();", i, renderExpr(m.UseExpr)))
	}

	for i, cc := range view.ComponentCalls {
		build = append(build, fmt.Sprintf("const componentState%d = %s(%s);", i, cc.TargetViewName, renderObject(cc.InputAttrs)))
	}

	for i, expr := range view.Constructors {
		build = append(build, fmt.Sprintf("const node%d = %s;", i, serializeJsExpr(expr)))
	}

	build = append(build, fmt.Sprintf("const root = %s;", serializeJsExpr(view.Root)))
	build = append(build, "let currentInput = input;")

	var update []string

	grouped := map[string][]compiler.JsUpdater{}
	for _, u := range view.Updaters {
		deps := append([]string(nil), u.Dependencies...)
		sort.Strings(deps)
		key := strings.Join(deps, "\x1f")
		grouped[key] = append(grouped[key], u)
	}
	keys := make([]string, 0, len(grouped))
	for k := range grouped {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, key := range keys {
		updaters := grouped[key]
		var deps []string
		if key != "" {
			deps = strings.Split(key, "\x1f")
		}
		cond := depsChangedCond(deps)
		update = append(update, fmt.Sprintf("if (%s) {", cond))
		for _, u := range updaters {
			update = append(update, "  "+serializeUpdate(u.Kind)+";")
		}
		update = append(update, "}")
	}

	for i, fl := range view.ForLoops {
		update = append(update,
			fmt.Sprintf("childState%d = updateForLoop({", fl.ChildViewIdx),
			fmt.Sprintf("  anchor: anchor%d,", i),
			fmt.Sprintf("  prevStates: childState%d,", fl.ChildViewIdx),
			fmt.Sprintf("  nextInputs: %s.map((%s: any) => ({ ...input, %s })),", renderExpr(fl.Sequence), fl.VarName, fl.VarName),
			fmt.Sprintf("  subView: child%d", fl.ChildViewIdx),
			"});",
		)
	}

	for i, m := range view.Mounts {
		if len(m.Dependencies) == 0 {
			continue
		}
		cond := depsChangedCond(m.Dependencies)
		update = append(update,
			fmt.Sprintf("if (%s) {", cond),
			fmt.Sprintf("  const newMountRoot%d = (%s)();", i, renderExpr(m.UseExpr)),
			fmt.Sprintf("  mountRoot%d.replaceWith(newMountRoot%d);", i, i),
			fmt.Sprintf("  mountRoot%d = newMountRoot%d;", i, i),
			"}",
		)
	}

	for i, cc := range view.ComponentCalls {
		update = append(update, fmt.Sprintf("componentState%d.update(%s);", i, renderObject(cc.InputAttrs)))
	}

	for i, ifi := range view.Ifs {
		update = append(update, fmt.Sprintf("if (%s !== %s) {", renderExpr(ifi.Condition), renderExprWithGlobalObject(ifi.Condition, "currentInput")))
		update = append(update, fmt.Sprintf("  let newState%d: ViewState<any>;", i))
		update = append(update, fmt.Sprintf("  if (%s) {", renderExpr(ifi.Condition)))
		update = append(update, "    "+branchConstructLine(fmt.Sprintf("newState%d", i), ifi.ThenViewIdx))
		update = append(update, "  } else {")
		update = append(update, "    "+branchConstructLine(fmt.Sprintf("newState%d", i), ifi.ElseViewIdx))
		update = append(update, "  }")
		update = append(update, fmt.Sprintf("  const newRoot%d = newState%d.root;", i, i))
		update = append(update, fmt.Sprintf("  currentState%d.root.replaceWith(newRoot%d);", i, i))
		update = append(update, fmt.Sprintf("  currentState%d = newState%d;", i, i))
		update = append(update, "} else {")
		update = append(update, fmt.Sprintf("  currentState%d.update(input);", i))
		update = append(update, "}")
	}

	for i, sw := range view.Switches {
		update = append(update, fmt.Sprintf("const newOnValue%d = %s.type;", i, renderExpr(sw.On)))
		update = append(update, fmt.Sprintf("const prevOnValue%d = %s.type;", i, renderExprWithGlobalObject(sw.On, "currentInput")))
		update = append(update, fmt.Sprintf("if (newOnValue%d !== prevOnValue%d) {", i, i))
		update = append(update, fmt.Sprintf("  let newState%d: ViewState<any>;", i))
		update = append(update, fmt.Sprintf("  let newRoot%d: any;", i))
		update = append(update, fmt.Sprintf("  switch (newOnValue%d) {", i))
		for j, name := range sw.CaseNames {
			caseIdx := sw.CaseViewIdxs[j]
			update = append(update,
				fmt.Sprintf("    case %q: {", name),
				fmt.Sprintf("      const caseInput = { ...input, %s: %s };", name, renderExpr(sw.On)),
				fmt.Sprintf("      newState%d = child%d(caseInput);", i, caseIdx),
				fmt.Sprintf("      newRoot%d = newState%d.root;", i, i),
				"      break;",
				"    }",
			)
		}
		update = append(update,
			"    default: {",
			fmt.Sprintf("      newState%d = { root: document.createComment(\"switch-empty\"), update: (_: any) => {} };", i),
			fmt.Sprintf("      newRoot%d = newState%d.root;", i, i),
			"    }",
			"  }",
			fmt.Sprintf("  currentSwitchState%d.root.replaceWith(newRoot%d);", i, i),
			fmt.Sprintf("  currentSwitchState%d = newState%d;", i, i),
			"} else {",
			fmt.Sprintf("  switch (newOnValue%d) {", i),
		)
		for _, name := range sw.CaseNames {
			update = append(update,
				fmt.Sprintf("    case %q: {", name),
				fmt.Sprintf("      const caseInput = { ...input, %s: %s };", name, renderExpr(sw.On)),
				fmt.Sprintf("      currentSwitchState%d.update(caseInput);", i),
				"      break;",
				"    }",
			)
		}
		update = append(update,
			"    default: {",
			"      // no-op",
			"    }",
			"  }",
			"}",
		)
	}

	update = append(update, "currentInput = input;")

	indentedBuild := applyIndent(build, indent, "  ")
	indentedUpdate := applyIndent(update, indent, "      ")

	return fmt.Sprintf("%s\n%s  return {\n%s    root,\n%s    update(input) {\n%s\n%s    }\n  %s};",
		strings.Join(indentedBuild, "\n"), indent, indent, indent, strings.Join(indentedUpdate, "\n"), indent, indent)
}

// branchConstructLine renders the single statement that initializes
// target (`currentStateN` / `newStateN`) from either a present branch's
// child view or the fixed empty-comment placeholder for an absent one.
func branchConstructLine(target string, branchIdx *int) string {
	if branchIdx == nil {
		return fmt.Sprintf("%s = { root: document.createComment(\"empty\"), update: (_: any) => {} };", target)
	}
	return fmt.Sprintf("%s = child%d(input);", target, *branchIdx)
}

// depsChangedCond builds the `input.a !== currentInput.a || ...` guard for a
// dependency set; an empty set (nothing to react to) always evaluates false.
func depsChangedCond(deps []string) string {
	if len(deps) == 0 {
		return "false"
	}
	parts := make([]string, len(deps))
	for i, d := range deps {
		parts[i] = fmt.Sprintf("input.%s !== currentInput.%s", d, d)
	}
	return strings.Join(parts, " || ")
}

func applyIndent(lines []string, baseIndent, extraIndent string) []string {
	out := make([]string, len(lines))
	for i, l := range lines {
		out[i] = baseIndent + extraIndent + l
	}
	return out
}

func serializeJsExpr(expr compiler.JsExpr) string {
	switch e := expr.(type) {
	case compiler.ElementExpr:
		propsStr := renderPropsOrDataset(e.Props)
		childrenStr := make([]string, len(e.Children))
		for i, c := range e.Children {
			childrenStr[i] = serializeJsExpr(c)
		}
		children := strings.Join(childrenStr, ", ")
		if len(e.Dataset) == 0 {
			return fmt.Sprintf("h(%q, %s, [%s])", e.Tag, propsStr, children)
		}
		datasetStr := renderPropsOrDataset(e.Dataset)
		return fmt.Sprintf("h(%q, %s, [%s], %s)", e.Tag, propsStr, children, datasetStr)
	case compiler.TextExpr:
		return fmt.Sprintf("t(%s)", strconv.Quote(e.Content))
	case compiler.ExprExpr:
		return fmt.Sprintf("t(%s)", renderExpr(e.Value))
	case compiler.RefExpr:
		return fmt.Sprintf("node%d", e.NodeIdx)
	case compiler.LoopElementsExpr:
		return fmt.Sprintf("...loopElements%d", e.ForLoopIdx)
	case compiler.ConditionalElementExpr:
		return fmt.Sprintf("conditionalElement%d", e.IfIdx)
	case compiler.SwitchElementExpr:
		return fmt.Sprintf("switchElement%d", e.SwitchIdx)
	case compiler.MountExpr:
		return fmt.Sprintf("mountRoot%d", e.MountIdx)
	case compiler.ComponentCallExpr:
		return fmt.Sprintf("componentState%d.root", e.CallIdx)
	default:
		panic("emit: unhandled compiler.JsExpr case")
	}
}

func renderPropsOrDataset(fields map[string]vgast.Expr) string {
	if len(fields) == 0 {
		return "{}"
	}
	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, len(keys))
	for i, k := range keys {
		parts[i] = fmt.Sprintf("%s: %s", renderKey(k), renderAttrExpr(fields[k]))
	}
	return "{" + strings.Join(parts, ", ") + "}"
}

func serializeUpdate(kind compiler.UpdateKind) string {
	switch k := kind.(type) {
	case compiler.TextUpdate:
		return fmt.Sprintf("node%d.textContent = %s", k.NodeIdx, renderExpr(k.Value))
	case compiler.PropUpdate:
		return fmt.Sprintf("node%d[%q] = %s", k.NodeIdx, k.Prop, renderAttrExpr(k.Value))
	case compiler.DatasetUpdate:
		return fmt.Sprintf("node%d.dataset[%q] = %s", k.NodeIdx, k.Key, renderAttrExpr(k.Value))
	default:
		panic("emit: unhandled compiler.UpdateKind case")
	}
}

// renderObject renders a name->expr map (a component call's input
// attributes) as a JS object literal, sorted so output is deterministic.
func renderObject(obj map[string]vgast.Expr) string {
	if len(obj) == 0 {
		return "{}"
	}
	keys := make([]string, 0, len(obj))
	for k := range obj {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, len(keys))
	for i, k := range keys {
		parts[i] = fmt.Sprintf("%s: %s", renderKey(k), renderExpr(obj[k]))
	}
	return "{" + strings.Join(parts, ", ") + "}"
}

// renderExpr renders expr against the current view's own `input` object.
func renderExpr(expr vgast.Expr) string {
	return renderExprWithGlobalObject(expr, "input")
}

// renderAttrExpr renders an attribute/content value (already collapsed to a
// single vgast.Expr by internal/compiler's attrValueExpr): a single-literal
// StringTemplate becomes a quoted JS string, a single-interpolation one
// collapses straight to the interpolated value with no template-literal
// wrapper, and anything else falls through to the ordinary expression
// renderer (multi-segment templates still get backticks via that path).
func renderAttrExpr(expr vgast.Expr) string {
	if tmpl, ok := expr.(vgast.StringTemplate); ok && len(tmpl.Segments) == 1 {
		switch seg := tmpl.Segments[0].(type) {
		case vgast.LiteralSegment:
			return strconv.Quote(seg.Text)
		case vgast.InterpolationSegment:
			return renderExpr(seg.Expr)
		}
	}
	return renderExpr(expr)
}

func renderExprWithGlobalObject(expr vgast.Expr, globalObject string) string {
	switch e := expr.(type) {
	case vgast.Variable:
		if builtins.IsBuiltin(e.Name) {
			return e.Name
		}
		return globalObject + "." + e.Name
	case vgast.Number:
		return e.Text
	case vgast.Field:
		return renderExprWithGlobalObject(e.Base, globalObject) + "." + e.Name
	case vgast.StringTemplate:
		var b strings.Builder
		for _, seg := range e.Segments {
			switch s := seg.(type) {
			case vgast.LiteralSegment:
				b.WriteString(s.Text)
			case vgast.InterpolationSegment:
				b.WriteString("${")
				b.WriteString(renderExprWithGlobalObject(s.Expr, globalObject))
				b.WriteString("}")
			}
		}
		return "`" + b.String() + "`"
	case vgast.FunctionCall:
		args := make([]string, len(e.Args))
		for i, a := range e.Args {
			args[i] = renderExprWithGlobalObject(a, globalObject)
		}
		return fmt.Sprintf("%s(%s)", renderExprWithGlobalObject(e.Callee, globalObject), strings.Join(args, ", "))
	case vgast.Pipe:
		if call, ok := e.Right.(vgast.FunctionCall); ok {
			arg1 := renderExprWithGlobalObject(e.Left, globalObject)
			args := make([]string, len(call.Args))
			for i, a := range call.Args {
				args[i] = renderExprWithGlobalObject(a, globalObject)
			}
			rest := strings.Join(args, ", ")
			if rest == "" {
				return fmt.Sprintf("%s(%s)", renderExprWithGlobalObject(call.Callee, globalObject), arg1)
			}
			return fmt.Sprintf("%s(%s, %s)", renderExprWithGlobalObject(call.Callee, globalObject), arg1, rest)
		}
		return fmt.Sprintf("%s(%s)", renderExprWithGlobalObject(e.Right, globalObject), renderExprWithGlobalObject(e.Left, globalObject))
	default:
		panic("emit: unhandled vgast.Expr case")
	}
}

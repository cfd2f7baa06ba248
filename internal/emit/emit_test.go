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
	"strings"
	"testing"

	"github.com/rogpeppe/go-internal/txtar"

	"vegen.dev/compiler/internal/compiler"
	"vegen.dev/compiler/internal/loader"
	"vegen.dev/compiler/internal/srcmap"
)

func compileArchive(t *testing.T, entry, archiveText string) []compiler.ViewDefinition {
	t.Helper()
	resolver := loader.NewTxtarResolver(txtar.Parse([]byte(archiveText)))
	ordered, err := loader.LoadOrderedViews(entry, resolver, srcmap.NewMap())
	if err != nil {
		t.Fatalf("unexpected load error: %v", err)
	}
	defs, cerr := compiler.Compile(ordered)
	if cerr != nil {
		t.Fatalf("unexpected compile error: %v", cerr)
	}
	return defs
}

func TestEmitViewsIncludesRuntimeAndHeader(t *testing.T) {
	defs := compileArchive(t, "main.vg", `
-- main.vg --
<view name="Greet"><p>Hello {name}</p></view>
`)
	out := EmitViews(defs)
	if !strings.HasPrefix(out, "// Generated by VeGen. Do not edit.\n// @ts-nocheck\n\n") {
		t.Fatalf("missing generated header, got:\n%s", out[:80])
	}
	if !strings.Contains(out, "export function h(") {
		t.Fatalf("expected embedded runtime's h() helper in output")
	}
	if !strings.Contains(out, "export function updateForLoop") {
		t.Fatalf("expected embedded runtime's updateForLoop() helper in output")
	}
}

func TestEmitViewsTextBinding(t *testing.T) {
	defs := compileArchive(t, "main.vg", `
-- main.vg --
<view name="Greet"><p>Hello {name}</p></view>
`)
	out := EmitViews(defs)
	if !strings.Contains(out, "export type GreetInput = { name: string };") {
		t.Fatalf("expected GreetInput type alias, got:\n%s", out)
	}
	if !strings.Contains(out, "export function Greet(input: GreetInput): ViewState<GreetInput> {") {
		t.Fatalf("expected Greet function signature, got:\n%s", out)
	}
	if !strings.Contains(out, `t(input.name)`) {
		t.Fatalf("expected a text-node constructor reading input.name, got:\n%s", out)
	}
	if !strings.Contains(out, "node0.textContent = input.name") {
		t.Fatalf("expected a textContent updater, got:\n%s", out)
	}
}

func TestEmitViewsDynamicAttributeWrapsElement(t *testing.T) {
	defs := compileArchive(t, "main.vg", `
-- main.vg --
<view name="Check"><input checked={done}/></view>
`)
	out := EmitViews(defs)
	if !strings.Contains(out, `h("input", {checked: input.done}, [])`) {
		t.Fatalf("expected input element constructor with checked prop, got:\n%s", out)
	}
	if !strings.Contains(out, `node0["checked"] = input.done`) {
		t.Fatalf("expected a checked prop updater, got:\n%s", out)
	}
}

func TestEmitViewsStaticAttributeInlinesElement(t *testing.T) {
	defs := compileArchive(t, "main.vg", `
-- main.vg --
<view name="Static"><input value="hello"/></view>
`)
	out := EmitViews(defs)
	if !strings.Contains(out, `const root = h("input", {value: "hello"}, []);`) {
		t.Fatalf("expected a single inline root constructor, got:\n%s", out)
	}
	if strings.Contains(out, "const node0") {
		t.Fatalf("static-only element should not get its own constructor, got:\n%s", out)
	}
}

func TestEmitViewsDataAttributeRoutesToDataset(t *testing.T) {
	defs := compileArchive(t, "main.vg", `
-- main.vg --
<view name="Item"><div data-id={itemId}></div></view>
`)
	out := EmitViews(defs)
	if !strings.Contains(out, `h("div", {}, [], {id: input.itemId})`) {
		t.Fatalf("expected a dataset entry on the div constructor, got:\n%s", out)
	}
	if !strings.Contains(out, `node0.dataset["id"] = input.itemId`) {
		t.Fatalf("expected a dataset updater, got:\n%s", out)
	}
}

func TestEmitViewsForLoop(t *testing.T) {
	defs := compileArchive(t, "main.vg", `
-- main.vg --
<view name="List"><ul><for seq={items} as="item"><li>{item}</li></for></ul></view>
`)
	out := EmitViews(defs)
	for _, want := range []string{
		"const anchor0 = document.createComment(\"for-loop-0\");",
		"const loopElements0 = [];",
		"for (const item of input.items) {",
		"const itemState = child0({ ...input, item: item });",
		"childState0 = updateForLoop({",
		"nextInputs: input.items.map((item: any) => ({ ...input, item })),",
	} {
		if !strings.Contains(out, want) {
			t.Fatalf("expected to find %q in output:\n%s", want, out)
		}
	}
}

func TestEmitViewsIfBothBranches(t *testing.T) {
	defs := compileArchive(t, "main.vg", `
-- main.vg --
<view name="Toggle"><if condition={on}><then><p>yes</p></then><else><p>no</p></else></if></view>
`)
	out := EmitViews(defs)
	for _, want := range []string{
		"let currentState0: ViewState<any>;",
		"if (input.on) {",
		"currentState0 = child0(input);",
		"currentState0 = child1(input);",
		"const conditionalElement0 = currentState0.root;",
		"if (input.on !== currentInput.on) {",
	} {
		if !strings.Contains(out, want) {
			t.Fatalf("expected to find %q in output:\n%s", want, out)
		}
	}
}

func TestEmitViewsSwitch(t *testing.T) {
	defs := compileArchive(t, "main.vg", `
-- main.vg --
<view name="Status"><switch on={status}><case name="ok"><p>all good</p></case><case name="err"><p>{status.message}</p></case></switch></view>
`)
	out := EmitViews(defs)
	for _, want := range []string{
		"const onValue = input.status.type;",
		`case "ok": {`,
		`case "err": {`,
		"const caseInput = { ...input, ok: input.status };",
		"switch (newOnValue0) {",
	} {
		if !strings.Contains(out, want) {
			t.Fatalf("expected to find %q in output:\n%s", want, out)
		}
	}
}

func TestEmitViewsMountCallsZeroArgCallback(t *testing.T) {
	defs := compileArchive(t, "main.vg", `
-- main.vg --
<view name="Host"><div><mount use={renderChild}/></div></view>
`)
	out := EmitViews(defs)
	if !strings.Contains(out, "let mountRoot0 = (input.renderChild)();") {
		t.Fatalf("expected a zero-arg mount callback invocation, got:\n%s", out)
	}
	if strings.Contains(out, "useViewState") {
		t.Fatalf("mount rendering must not use the stale useViewState naming, got:\n%s", out)
	}
}

func TestEmitViewsComponentCall(t *testing.T) {
	defs := compileArchive(t, "main.vg", `
-- main.vg --
<view name="Greeting"><p>Hi {name}</p></view>
<view name="Page"><Greeting name={who}/></view>
`)
	out := EmitViews(defs)
	if !strings.Contains(out, "const componentState0 = Greeting({name: input.who});") {
		t.Fatalf("expected a component-call constructor, got:\n%s", out)
	}
	if !strings.Contains(out, "componentState0.update({name: input.who});") {
		t.Fatalf("expected a component-call update, got:\n%s", out)
	}
}

func TestRenderKeyQuotesNonIdentifiers(t *testing.T) {
	if got := renderKey("className"); got != "className" {
		t.Fatalf("expected bare identifier unchanged, got %q", got)
	}
	if got := renderKey("data-id"); got != `"data-id"` {
		t.Fatalf("expected quoted key for non-identifier, got %q", got)
	}
	if got := renderKey("aria-label"); got != `"aria-label"` {
		t.Fatalf("expected quoted key for hyphenated name, got %q", got)
	}
}

func TestIsTsIdentifier(t *testing.T) {
	cases := map[string]bool{
		"name":     true,
		"_private": true,
		"$scope":   true,
		"a1":       true,
		"1a":       false,
		"data-id":  false,
		"":         false,
	}
	for in, want := range cases {
		if got := isTsIdentifier(in); got != want {
			t.Fatalf("isTsIdentifier(%q) = %v, want %v", in, got, want)
		}
	}
}

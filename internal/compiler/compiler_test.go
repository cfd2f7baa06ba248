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

package compiler

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/rogpeppe/go-internal/txtar"

	"vegen.dev/compiler/internal/loader"
	"vegen.dev/compiler/internal/srcmap"
	"vegen.dev/compiler/internal/types"
	"vegen.dev/compiler/internal/vgast"
)

// irDiffOpts ignores spans (these tests assert IR shape, not source byte
// offsets) and treats a nil map/slice the same as an empty one, matching
// how compileElement always allocates Props/Dataset/Children but a zero
// CompiledView literal built here won't.
var irDiffOpts = cmp.Options{cmpopts.IgnoreTypes(srcmap.Span{}), cmpopts.EquateEmpty()}

func diffIR(t *testing.T, want, got any) {
	t.Helper()
	if diff := cmp.Diff(want, got, irDiffOpts); diff != "" {
		t.Fatalf("compiled IR mismatch (-want +got):\n%s", diff)
	}
}

func compileArchive(t *testing.T, entry, archiveText string) []ViewDefinition {
	t.Helper()
	resolver := loader.NewTxtarResolver(txtar.Parse([]byte(archiveText)))
	ordered, err := loader.LoadOrderedViews(entry, resolver, srcmap.NewMap())
	if err != nil {
		t.Fatalf("unexpected load error: %v", err)
	}
	defs, cerr := Compile(ordered)
	if cerr != nil {
		t.Fatalf("unexpected compile error: %v", cerr)
	}
	return defs
}

func findView(t *testing.T, defs []ViewDefinition, name string) ViewDefinition {
	t.Helper()
	for _, d := range defs {
		if d.ViewName == name {
			return d
		}
	}
	t.Fatalf("view %q not found among %v", name, defs)
	return ViewDefinition{}
}

func TestCompileSimpleElementWithTextBinding(t *testing.T) {
	defs := compileArchive(t, "main.vg", `
-- main.vg --
<view name="Greet"><p>Hello {name}</p></view>
`)
	g := findView(t, defs, "Greet")
	if _, ok := g.Attrs["name"]; !ok {
		t.Fatalf("expected 'name' to be inferred as an input attribute, got %v", g.Attrs)
	}
	want := ElementExpr{
		Tag:      "p",
		Children: []JsExpr{TextExpr{Content: "Hello "}, RefExpr{NodeIdx: 0}},
	}
	diffIR(t, want, g.Body.Root)
	if len(g.Body.Updaters) != 1 {
		t.Fatalf("expected 1 updater for the {name} binding, got %d", len(g.Body.Updaters))
	}
}

func TestCompileDynamicAttributeWrapsElementInConstructor(t *testing.T) {
	defs := compileArchive(t, "main.vg", `
-- main.vg --
<view name="Box"><input checked={done}/></view>
`)
	b := findView(t, defs, "Box")
	if len(b.Body.Constructors) != 1 {
		t.Fatalf("expected the dynamic <input> to be pushed as a constructor, got %d", len(b.Body.Constructors))
	}
	diffIR(t, RefExpr{NodeIdx: 0}, b.Body.Root)
	if len(b.Body.Updaters) != 1 {
		t.Fatalf("expected 1 updater for the checked binding, got %d", len(b.Body.Updaters))
	}
	wantUpdater := JsUpdater{
		Dependencies: []string{"done"},
		Kind:         PropUpdate{NodeIdx: 0, Prop: "checked", Value: vgast.Variable{Name: "done"}},
	}
	diffIR(t, wantUpdater, b.Body.Updaters[0])
	diffIR(t, types.Prim{Name: "boolean"}, b.Attrs["done"])
}

func TestCompileStaticAttributeDoesNotWrapElement(t *testing.T) {
	defs := compileArchive(t, "main.vg", `
-- main.vg --
<view name="Box"><input value="hello"/></view>
`)
	b := findView(t, defs, "Box")
	if len(b.Body.Constructors) != 0 {
		t.Fatalf("expected no constructors for an all-static element, got %d", len(b.Body.Constructors))
	}
	want := ElementExpr{
		Tag: "input",
		Props: map[string]vgast.Expr{
			"value": vgast.StringTemplate{Segments: []vgast.StringTemplateSegment{vgast.LiteralSegment{Text: "hello"}}},
		},
	}
	diffIR(t, want, b.Body.Root)
}

func TestCompileDataAttributeRoutesToDataset(t *testing.T) {
	defs := compileArchive(t, "main.vg", `
-- main.vg --
<view name="Box"><div data-id={itemId}></div></view>
`)
	b := findView(t, defs, "Box")
	if len(b.Body.Updaters) != 1 {
		t.Fatalf("expected 1 dataset updater, got %d", len(b.Body.Updaters))
	}
	wantUpdater := JsUpdater{
		Dependencies: []string{"itemId"},
		Kind:         DatasetUpdate{NodeIdx: 0, Key: "id", Value: vgast.Variable{Name: "itemId"}},
	}
	diffIR(t, wantUpdater, b.Body.Updaters[0])
	diffIR(t, types.Prim{Name: "string"}, b.Attrs["itemId"])
}

func TestCompileClassAttributeRenamesToClassName(t *testing.T) {
	defs := compileArchive(t, "main.vg", `
-- main.vg --
<view name="Box"><div class="card"></div></view>
`)
	b := findView(t, defs, "Box")
	want := ElementExpr{
		Tag: "div",
		Props: map[string]vgast.Expr{
			"className": vgast.StringTemplate{Segments: []vgast.StringTemplateSegment{vgast.LiteralSegment{Text: "card"}}},
		},
	}
	diffIR(t, want, b.Body.Root)
}

func TestCompileForLoopBindsElementVariable(t *testing.T) {
	defs := compileArchive(t, "main.vg", `
-- main.vg --
<view name="List"><ul><for seq={items} as="item"><li>{item}</li></for></ul></view>
`)
	l := findView(t, defs, "List")
	if len(l.Body.ForLoops) != 1 {
		t.Fatalf("expected 1 for loop recorded, got %d", len(l.Body.ForLoops))
	}
	diffIR(t, ForLoopInfo{ChildViewIdx: 0, Sequence: vgast.Variable{Name: "items"}, VarName: "item"}, l.Body.ForLoops[0])
	if _, ok := l.Attrs["items"].(types.Array); !ok {
		t.Fatalf("expected 'items' to be inferred as an Array, got %#v", l.Attrs["items"])
	}
	if len(l.Body.ChildViews) != 1 {
		t.Fatalf("expected the loop body to compile as 1 child view, got %d", len(l.Body.ChildViews))
	}
	wantChild := CompiledView{
		Constructors: []JsExpr{ExprExpr{Value: vgast.Variable{Name: "item"}}},
		Updaters: []JsUpdater{{
			Dependencies: []string{"item"},
			Kind:         TextUpdate{NodeIdx: 0, Value: vgast.Variable{Name: "item"}},
		}},
		Root: ElementExpr{Tag: "li", Children: []JsExpr{RefExpr{NodeIdx: 0}}},
	}
	diffIR(t, wantChild, l.Body.ChildViews[0])
}

func TestCompileForLoopAsRootIsRejected(t *testing.T) {
	resolver := loader.NewTxtarResolver(txtar.Parse([]byte(`
-- main.vg --
<view name="List"><for seq={items} as="item"><li>{item}</li></for></view>
`)))
	ordered, err := loader.LoadOrderedViews("main.vg", resolver, srcmap.NewMap())
	if err != nil {
		t.Fatalf("unexpected load error: %v", err)
	}
	if _, err := Compile(ordered); err == nil {
		t.Fatalf("expected an error rejecting <for> as the view root")
	}
}

func TestCompileIfWithBothBranches(t *testing.T) {
	defs := compileArchive(t, "main.vg", `
-- main.vg --
<view name="Toggle"><div><if condition={on}><then><p>yes</p></then><else><p>no</p></else></if></div></view>
`)
	v := findView(t, defs, "Toggle")
	if len(v.Body.Ifs) != 1 {
		t.Fatalf("expected 1 if recorded, got %d", len(v.Body.Ifs))
	}
	thenIdx, elseIdx := 0, 1
	wantIf := IfInfo{ThenViewIdx: &thenIdx, ElseViewIdx: &elseIdx, Condition: vgast.Variable{Name: "on"}}
	diffIR(t, wantIf, v.Body.Ifs[0])
	diffIR(t, types.Prim{Name: "boolean"}, v.Attrs["on"])
	diffIR(t, CompiledView{Root: ElementExpr{Tag: "p", Children: []JsExpr{TextExpr{Content: "yes"}}}}, v.Body.ChildViews[0])
	diffIR(t, CompiledView{Root: ElementExpr{Tag: "p", Children: []JsExpr{TextExpr{Content: "no"}}}}, v.Body.ChildViews[1])
}

func TestCompileIfRequiresAtLeastOneBranch(t *testing.T) {
	resolver := loader.NewTxtarResolver(txtar.Parse([]byte(`
-- main.vg --
<view name="Toggle"><if condition={on}></if></view>
`)))
	ordered, err := loader.LoadOrderedViews("main.vg", resolver, srcmap.NewMap())
	if err != nil {
		t.Fatalf("unexpected load error: %v", err)
	}
	if _, err := Compile(ordered); err == nil {
		t.Fatalf("expected an error for an <if> with neither branch")
	}
}

func TestCompileSwitchNarrowsDiscriminant(t *testing.T) {
	defs := compileArchive(t, "main.vg", `
-- main.vg --
<view name="Status"><switch on={status}><case name="ok"><p>ok</p></case><case name="err"><p>err</p></case></switch></view>
`)
	v := findView(t, defs, "Status")
	if len(v.Body.Switches) != 1 {
		t.Fatalf("expected 1 switch recorded, got %d", len(v.Body.Switches))
	}
	sw := v.Body.Switches[0]
	if diff := cmp.Diff([]string{"ok", "err"}, sw.CaseNames); diff != "" {
		t.Fatalf("case names mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]int{0, 1}, sw.CaseViewIdxs); diff != "" {
		t.Fatalf("case view indices mismatch (-want +got):\n%s", diff)
	}
	if _, ok := v.Attrs["status"].(types.DiscriminatedUnion); !ok {
		t.Fatalf("expected 'status' to be inferred as a DiscriminatedUnion, got %#v", v.Attrs["status"])
	}
}

func TestCompileSwitchRejectsDuplicateCaseNames(t *testing.T) {
	resolver := loader.NewTxtarResolver(txtar.Parse([]byte(`
-- main.vg --
<view name="Status"><switch on={status}><case name="ok"><p>1</p></case><case name="ok"><p>2</p></case></switch></view>
`)))
	ordered, err := loader.LoadOrderedViews("main.vg", resolver, srcmap.NewMap())
	if err != nil {
		t.Fatalf("unexpected load error: %v", err)
	}
	if _, err := Compile(ordered); err == nil {
		t.Fatalf("expected an error for duplicate <case> names")
	}
}

func TestCompileMountSplicesExternalView(t *testing.T) {
	defs := compileArchive(t, "main.vg", `
-- main.vg --
<view name="Host"><div><mount use={renderChild}/></div></view>
`)
	v := findView(t, defs, "Host")
	if len(v.Body.Mounts) != 1 {
		t.Fatalf("expected 1 mount recorded, got %d", len(v.Body.Mounts))
	}
	wantMount := MountInfo{UseExpr: vgast.Variable{Name: "renderChild"}, Dependencies: []string{"renderChild"}}
	diffIR(t, wantMount, v.Body.Mounts[0])
}

func TestCompileMountRejectsChildren(t *testing.T) {
	resolver := loader.NewTxtarResolver(txtar.Parse([]byte(`
-- main.vg --
<view name="Host"><mount use={renderChild}><p>nope</p></mount></view>
`)))
	ordered, err := loader.LoadOrderedViews("main.vg", resolver, srcmap.NewMap())
	if err != nil {
		t.Fatalf("unexpected load error: %v", err)
	}
	if _, err := Compile(ordered); err == nil {
		t.Fatalf("expected an error for a <mount> with children")
	}
}

func TestCompileComponentCallInstantiatesIndependently(t *testing.T) {
	defs := compileArchive(t, "main.vg", `
-- main.vg --
<require src="shared.vg"/>
<view name="Page"><div><Greeting name="{a}"/><Greeting name="{b}"/></div></view>
-- shared.vg --
<view name="Greeting"><p>Hi {name}</p></view>
`)
	page := findView(t, defs, "Page")
	if len(page.Body.ComponentCalls) != 2 {
		t.Fatalf("expected 2 component calls recorded, got %d", len(page.Body.ComponentCalls))
	}
	wantCallA := ComponentCallInfo{
		TargetViewName: "Greeting",
		InputAttrs: map[string]vgast.Expr{
			"name": vgast.StringTemplate{Segments: []vgast.StringTemplateSegment{vgast.InterpolationSegment{Expr: vgast.Variable{Name: "a"}}}},
		},
	}
	wantCallB := ComponentCallInfo{
		TargetViewName: "Greeting",
		InputAttrs: map[string]vgast.Expr{
			"name": vgast.StringTemplate{Segments: []vgast.StringTemplateSegment{vgast.InterpolationSegment{Expr: vgast.Variable{Name: "b"}}}},
		},
	}
	diffIR(t, wantCallA, page.Body.ComponentCalls[0])
	diffIR(t, wantCallB, page.Body.ComponentCalls[1])
	if _, ok := page.Attrs["a"]; !ok {
		t.Fatalf("expected 'a' to be recorded as an input attribute of Page")
	}
	if _, ok := page.Attrs["b"]; !ok {
		t.Fatalf("expected 'b' to be recorded as an input attribute of Page")
	}
}

func TestCompileComponentCallRejectsMissingAttribute(t *testing.T) {
	resolver := loader.NewTxtarResolver(txtar.Parse([]byte(`
-- main.vg --
<require src="shared.vg"/>
<view name="Page"><Greeting/></view>
-- shared.vg --
<view name="Greeting"><p>Hi {name}</p></view>
`)))
	ordered, err := loader.LoadOrderedViews("main.vg", resolver, srcmap.NewMap())
	if err != nil {
		t.Fatalf("unexpected load error: %v", err)
	}
	if _, err := Compile(ordered); err == nil {
		t.Fatalf("expected an error for a missing required attribute")
	}
}

func TestCompileComponentCallRejectsExtraAttribute(t *testing.T) {
	resolver := loader.NewTxtarResolver(txtar.Parse([]byte(`
-- main.vg --
<require src="shared.vg"/>
<view name="Page"><Greeting name="{a}" extra="{b}"/></view>
-- shared.vg --
<view name="Greeting"><p>Hi {name}</p></view>
`)))
	ordered, err := loader.LoadOrderedViews("main.vg", resolver, srcmap.NewMap())
	if err != nil {
		t.Fatalf("unexpected load error: %v", err)
	}
	if _, err := Compile(ordered); err == nil {
		t.Fatalf("expected an error for an unexpected attribute")
	}
}

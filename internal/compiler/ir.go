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

// Package compiler lowers one view's parsed template body into the
// constructor/updater IR the emitter renders into JS: a flat list of DOM
// node constructors in evaluation order, plus a separate list of dependency-
// gated updaters that patch those nodes when an input attribute changes.
// Control flow (<for>, <if>, <switch>) compiles its body as an
// independent child CompiledView rather than inlining nodes into the
// parent, so each can be rebuilt or torn down as a unit at runtime.
// <mount> has no body: it records only the `use` callback it invokes.
package compiler

import (
	"vegen.dev/compiler/internal/types"
	"vegen.dev/compiler/internal/vgast"
)

// JsExpr is one constructed value in a view's build phase: a DOM element, a
// text node, a reference to an earlier constructor, or one of the dynamic
// constructs (loop/conditional/switch/mount/component-call) whose actual
// DOM node is produced by runtime helpers rather than inline JS.
type JsExpr interface{ isJsExpr() }

// ElementExpr builds a DOM element. Prop and Dataset values are the
// attribute's source expression (a literal StringTemplate collapses to a
// single Expr the same way a `{binding}` does); dynamic ones additionally
// get a JsUpdater pointing back at this element's constructor index.
type ElementExpr struct {
	Tag      string
	Props    map[string]vgast.Expr
	Dataset  map[string]vgast.Expr
	Children []JsExpr
}

func (ElementExpr) isJsExpr() {}

// TextExpr is a literal run of markup text.
type TextExpr struct {
	Content string
}

func (TextExpr) isJsExpr() {}

// ExprExpr is a `{expr}` used directly as element content, rendered through
// the runtime's text-node helper.
type ExprExpr struct {
	Value vgast.Expr
}

func (ExprExpr) isJsExpr() {}

// RefExpr refers back to a constructor already pushed onto the enclosing
// CompiledView's Constructors, by its index.
type RefExpr struct {
	NodeIdx int
}

func (RefExpr) isJsExpr() {}

// LoopElementsExpr is a `<for>` element; ForLoopIdx indexes the enclosing
// CompiledView's ForLoops.
type LoopElementsExpr struct {
	ForLoopIdx int
}

func (LoopElementsExpr) isJsExpr() {}

// ConditionalElementExpr is an `<if>` element; IfIdx indexes Ifs.
type ConditionalElementExpr struct {
	IfIdx int
}

func (ConditionalElementExpr) isJsExpr() {}

// SwitchElementExpr is a `<switch>` element; SwitchIdx indexes Switches.
type SwitchElementExpr struct {
	SwitchIdx int
}

func (SwitchElementExpr) isJsExpr() {}

// MountExpr is a `<mount>` element; MountIdx indexes Mounts.
type MountExpr struct {
	MountIdx int
}

func (MountExpr) isJsExpr() {}

// ComponentCallExpr is a call to another view; CallIdx indexes
// ComponentCalls.
type ComponentCallExpr struct {
	CallIdx int
}

func (ComponentCallExpr) isJsExpr() {}

// UpdateKind is what a JsUpdater patches when its dependencies change.
type UpdateKind interface{ isUpdateKind() }

// TextUpdate replaces a text node's content.
type TextUpdate struct {
	NodeIdx int
	Value   vgast.Expr
}

func (TextUpdate) isUpdateKind() {}

// PropUpdate assigns a DOM property on an element.
type PropUpdate struct {
	NodeIdx int
	Prop    string
	Value   vgast.Expr
}

func (PropUpdate) isUpdateKind() {}

// DatasetUpdate assigns one `dataset[key]` entry on an element.
type DatasetUpdate struct {
	NodeIdx int
	Key     string
	Value   vgast.Expr
}

func (DatasetUpdate) isUpdateKind() {}

// JsUpdater is one dependency-gated patch: Dependencies is the sorted,
// deduplicated set of dotted input paths that must change before Kind's
// statement runs again.
type JsUpdater struct {
	Dependencies []string
	Kind         UpdateKind
}

// ForLoopInfo describes a compiled `<for seq="…" as="item">` element.
type ForLoopInfo struct {
	ChildViewIdx int
	Sequence     vgast.Expr
	VarName      string
}

// IfInfo describes a compiled `<if condition="…">`. A nil branch index means
// that branch (then/else) was absent from the source.
type IfInfo struct {
	ThenViewIdx *int
	ElseViewIdx *int
	Condition   vgast.Expr
}

// SwitchInfo describes a compiled `<switch on="…">`; CaseViewIdxs and
// CaseNames are parallel slices, one entry per `<case name="…">`.
type SwitchInfo struct {
	CaseViewIdxs []int
	CaseNames    []string
	On           vgast.Expr
}

// MountInfo describes a compiled `<mount use="…">`: an externally supplied
// view-returning expression spliced directly into this view's DOM.
type MountInfo struct {
	UseExpr      vgast.Expr
	Dependencies []string
}

// ComponentCallInfo describes a call to another view by name, with the
// attribute expressions provided at this call site.
type ComponentCallInfo struct {
	TargetViewName string
	InputAttrs     map[string]vgast.Expr
}

// CompiledView is the complete, flat IR for one view body (a top-level view
// or a control-flow branch compiled as a sub-view): every node constructor
// in build order, every dependency-gated updater, and every nested
// control-flow branch's own CompiledView. Mounts and component calls are
// recorded as MountInfo/ComponentCallInfo entries, not as child views.
type CompiledView struct {
	Constructors   []JsExpr
	Updaters       []JsUpdater
	ChildViews     []CompiledView
	ForLoops       []ForLoopInfo
	Ifs            []IfInfo
	Switches       []SwitchInfo
	Mounts         []MountInfo
	ComponentCalls []ComponentCallInfo
	Root           JsExpr
}

// ViewDefinition is one top-level view's compiled body plus its solved
// input attribute types, ready for the emitter.
type ViewDefinition struct {
	ViewName string
	Body     CompiledView
	Attrs    map[string]types.Type
}

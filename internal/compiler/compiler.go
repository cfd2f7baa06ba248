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
	"sort"
	"strings"

	"vegen.dev/compiler/internal/attrtable"
	"vegen.dev/compiler/internal/infer"
	"vegen.dev/compiler/internal/loader"
	"vegen.dev/compiler/internal/solver"
	"vegen.dev/compiler/internal/types"
	"vegen.dev/compiler/internal/typeenv"
	"vegen.dev/compiler/internal/uf"
	"vegen.dev/compiler/internal/vgast"
	"vegen.dev/compiler/internal/vgerrors"
)

// TypeEnv carries the inference state shared across one view's compile:
// the variable/row allocator, the lexical environment expressions resolve
// names against, the constraints accumulated since the last solve, and
// every already-solved view's attribute types (consulted at component-call
// sites, instantiated fresh per call so two calls never share a variable).
type TypeEnv struct {
	InferCtx    *typeenv.InferContext
	env         *typeenv.Env
	constraints []types.Constraint
	views       map[string]map[string]types.Type
}

// NewTypeEnv returns an empty TypeEnv, shared across every view in one
// compile so variable ids never collide across views.
func NewTypeEnv() *TypeEnv {
	return &TypeEnv{
		InferCtx: typeenv.NewInferContext(),
		env:      typeenv.NewEnv(),
		views:    map[string]map[string]types.Type{},
	}
}

func (te *TypeEnv) infer(expr vgast.Expr, expected types.Expected) types.Type {
	return infer.Infer(te.InferCtx, te.env, &te.constraints, expr, expected)
}

// solveView discharges every constraint accumulated for the current view,
// snapshots its resolved free-variable map (the view's input attributes)
// under name for later component-call instantiation, and resets the
// environment/constraint list for the next view.
func (te *TypeEnv) solveView(name string) (map[string]types.Type, *vgerrors.Error) {
	if tErr := solver.Solve(te.InferCtx, te.constraints); tErr != nil {
		return nil, tErr.ToError()
	}
	attrs := te.env.Globals()
	for k, t := range attrs {
		attrs[k] = solver.CanonicalType(t)
	}
	te.views[name] = attrs
	te.env.ResetGlobals()
	te.constraints = nil
	return attrs, nil
}

// Compile lowers every view in views (already ordered by component
// dependency, see internal/loader.LoadOrderedViews) into its IR and solved
// attribute types, one view at a time so a later view's component-call
// sites can instantiate an earlier view's already-solved attributes.
func Compile(views []loader.OrderedView) ([]ViewDefinition, *vgerrors.Error) {
	te := NewTypeEnv()
	defs := make([]ViewDefinition, 0, len(views))
	for _, v := range views {
		body, err := compileView(te, v.View.Root)
		if err != nil {
			return nil, err
		}
		attrs, err := te.solveView(v.Name)
		if err != nil {
			return nil, err
		}
		defs = append(defs, ViewDefinition{ViewName: v.Name, Body: body, Attrs: attrs})
	}
	return defs, nil
}

// compileContext accumulates one view's (or control-flow branch's) IR as
// its body is walked.
type compileContext struct {
	te             *TypeEnv
	constructors   []JsExpr
	updaters       []JsUpdater
	childViews     []CompiledView
	forLoops       []ForLoopInfo
	ifs            []IfInfo
	switches       []SwitchInfo
	mounts         []MountInfo
	componentCalls []ComponentCallInfo
}

func (c *compileContext) pushConstructor(e JsExpr) int {
	c.constructors = append(c.constructors, e)
	return len(c.constructors) - 1
}

func (c *compileContext) pushChildView(v CompiledView) int {
	c.childViews = append(c.childViews, v)
	return len(c.childViews) - 1
}

func (c *compileContext) pushForLoop(f ForLoopInfo) int {
	c.forLoops = append(c.forLoops, f)
	return len(c.forLoops) - 1
}

func (c *compileContext) pushIf(i IfInfo) int {
	c.ifs = append(c.ifs, i)
	return len(c.ifs) - 1
}

func (c *compileContext) pushSwitch(s SwitchInfo) int {
	c.switches = append(c.switches, s)
	return len(c.switches) - 1
}

func (c *compileContext) pushMount(m MountInfo) int {
	c.mounts = append(c.mounts, m)
	return len(c.mounts) - 1
}

func (c *compileContext) pushComponentCall(cc ComponentCallInfo) int {
	c.componentCalls = append(c.componentCalls, cc)
	return len(c.componentCalls) - 1
}

// compileView compiles node as the root of its own CompiledView: a
// top-level view body, or a <for>/<if>/<switch> branch's single child.
func compileView(te *TypeEnv, node vgast.Node) (CompiledView, *vgerrors.Error) {
	ctx := &compileContext{te: te}
	root, err := compileNode(ctx, node)
	if err != nil {
		return CompiledView{}, err
	}
	if _, ok := root.(LoopElementsExpr); ok {
		return CompiledView{}, vgerrors.Newf(node.Span(), "<for> elements cannot be root elements; wrap them in a container").
			WithLabel(node.Span(), "wrap this in a container element")
	}
	return CompiledView{
		Constructors:   ctx.constructors,
		Updaters:       ctx.updaters,
		ChildViews:     ctx.childViews,
		ForLoops:       ctx.forLoops,
		Ifs:            ctx.ifs,
		Switches:       ctx.switches,
		Mounts:         ctx.mounts,
		ComponentCalls: ctx.componentCalls,
		Root:           root,
	}, nil
}

func compileNode(ctx *compileContext, node vgast.Node) (JsExpr, *vgerrors.Error) {
	switch n := node.(type) {
	case vgast.Element:
		switch n.Name {
		case "for":
			return compileForLoop(ctx, n)
		case "if":
			return compileIf(ctx, n)
		case "switch":
			return compileSwitch(ctx, n)
		case "mount":
			return compileMount(ctx, n)
		default:
			return compileElement(ctx, n)
		}
	case vgast.ComponentCall:
		return compileComponentCall(ctx, n)
	case vgast.Text:
		return TextExpr{Content: n.Content}, nil
	case vgast.ExprNode:
		ctx.te.infer(n.Expr, types.Expect(types.Prim{Name: "string"}))
		idx := ctx.pushConstructor(ExprExpr{Value: n.Expr})
		ctx.updaters = append(ctx.updaters, JsUpdater{
			Dependencies: sortedDependencies(n.Expr),
			Kind:         TextUpdate{NodeIdx: idx, Value: n.Expr},
		})
		return RefExpr{NodeIdx: idx}, nil
	default:
		panic("compiler: unhandled vgast.Node case")
	}
}

type dynamicProp struct {
	prop  string
	value vgast.Expr
	deps  []string
}

type dynamicDatasetEntry struct {
	key   string
	value vgast.Expr
	deps  []string
}

// compileElement builds a plain DOM element. Static attributes are
// embedded directly in the constructor; dynamic ones (a `{binding}` value,
// or a string template containing an interpolation) additionally get a
// JsUpdater, which forces the element into its own constructor+RefExpr so
// later updates can find it by index.
func compileElement(ctx *compileContext, el vgast.Element) (JsExpr, *vgerrors.Error) {
	props := map[string]vgast.Expr{}
	dataset := map[string]vgast.Expr{}
	var dynProps []dynamicProp
	var dynDataset []dynamicDatasetEntry

	for _, attr := range el.Attrs {
		valueExpr := attrValueExpr(attr)
		dynamic := hasBindings(attr.Value)

		if key, isData := splitDataAttribute(attr.Name); isData {
			inferAttrValue(ctx.te, attr.Value, types.Prim{Name: "string"})
			dataset[key] = valueExpr
			if dynamic {
				dynDataset = append(dynDataset, dynamicDatasetEntry{key: key, value: valueExpr, deps: sortedDependencies(valueExpr)})
			}
			continue
		}

		domName := attr.Name
		if domName == "class" {
			domName = "className"
		}

		expectedName, ok := attrtable.Lookup(el.Name, attr.Name)
		if !ok {
			expectedName = "string"
		}
		inferAttrValue(ctx.te, attr.Value, types.Prim{Name: expectedName})

		props[domName] = valueExpr
		if dynamic {
			dynProps = append(dynProps, dynamicProp{prop: domName, value: valueExpr, deps: sortedDependencies(valueExpr)})
		}
	}

	children := make([]JsExpr, 0, len(el.Children))
	for _, c := range el.Children {
		je, err := compileNode(ctx, c)
		if err != nil {
			return nil, err
		}
		children = append(children, je)
	}

	elem := ElementExpr{Tag: el.Name, Props: props, Dataset: dataset, Children: children}

	if len(dynProps) == 0 && len(dynDataset) == 0 {
		return elem, nil
	}

	idx := ctx.pushConstructor(elem)
	for _, dp := range dynProps {
		ctx.updaters = append(ctx.updaters, JsUpdater{Dependencies: dp.deps, Kind: PropUpdate{NodeIdx: idx, Prop: dp.prop, Value: dp.value}})
	}
	for _, dd := range dynDataset {
		ctx.updaters = append(ctx.updaters, JsUpdater{Dependencies: dd.deps, Kind: DatasetUpdate{NodeIdx: idx, Key: dd.key, Value: dd.value}})
	}
	return RefExpr{NodeIdx: idx}, nil
}

// inferAttrValue infers every dynamic part of an attribute's value: each
// interpolation segment of a string template is always a string, while a
// bare `{binding}` is checked against the attribute's table-derived
// expected type.
func inferAttrValue(te *TypeEnv, value vgast.AttrValue, expected types.Type) {
	switch v := value.(type) {
	case vgast.TemplateAttrValue:
		for _, seg := range v.Segments {
			if interp, ok := seg.(vgast.InterpolationSegment); ok {
				te.infer(interp.Expr, types.Expect(types.Prim{Name: "string"}))
			}
		}
	case vgast.ExprAttrValue:
		te.infer(v.Expr, types.Expect(expected))
	}
}

// compileForLoop compiles `<for seq="{…}" as="item"><body/></for>`: the
// body compiles as its own CompiledView with `item` bound in scope to a
// fresh element type, and seq is checked against Array<that element type>.
func compileForLoop(ctx *compileContext, el vgast.Element) (JsExpr, *vgerrors.Error) {
	seqExpr, err := findBindingAttr(el, "seq")
	if err != nil {
		return nil, err
	}
	varName, _, err := findLiteralAttr(el, "as")
	if err != nil {
		return nil, err
	}
	child, err := validateSingleChild(el)
	if err != nil {
		return nil, err
	}

	elemVar := ctx.te.InferCtx.FreshVar()
	ctx.te.env.PushScope(map[string]types.Type{varName: elemVar})
	childView, err := compileView(ctx.te, child)
	ctx.te.env.PopScope()
	if err != nil {
		return nil, err
	}

	ctx.te.infer(seqExpr, types.Expect(types.Array{Elem: elemVar}))

	childIdx := ctx.pushChildView(childView)
	forIdx := ctx.pushForLoop(ForLoopInfo{ChildViewIdx: childIdx, Sequence: seqExpr, VarName: varName})
	return LoopElementsExpr{ForLoopIdx: forIdx}, nil
}

// compileIf compiles `<if condition="{…}"><then>…</then><else>…</else></if>`,
// requiring at least one of <then>/<else> and compiling each present branch
// as its own CompiledView.
func compileIf(ctx *compileContext, el vgast.Element) (JsExpr, *vgerrors.Error) {
	condExpr, err := findBindingAttr(el, "condition")
	if err != nil {
		return nil, err
	}
	children, err := validateChildElementNames(el, "then", "else")
	if err != nil {
		return nil, err
	}
	thenEl, hasThen, err := findUniqueChildByName(children, "then")
	if err != nil {
		return nil, err
	}
	elseEl, hasElse, err := findUniqueChildByName(children, "else")
	if err != nil {
		return nil, err
	}
	if !hasThen && !hasElse {
		return nil, vgerrors.Newf(el.Sp, "<if> must contain a <then> or <else>").
			WithLabel(el.Sp, "add at least one branch")
	}

	var thenIdx, elseIdx *int
	if hasThen {
		body, err := validateSingleChild(thenEl)
		if err != nil {
			return nil, err
		}
		cv, err := compileView(ctx.te, body)
		if err != nil {
			return nil, err
		}
		i := ctx.pushChildView(cv)
		thenIdx = &i
	}
	if hasElse {
		body, err := validateSingleChild(elseEl)
		if err != nil {
			return nil, err
		}
		cv, err := compileView(ctx.te, body)
		if err != nil {
			return nil, err
		}
		i := ctx.pushChildView(cv)
		elseIdx = &i
	}

	ctx.te.infer(condExpr, types.Expect(types.Prim{Name: "boolean"}))

	idx := ctx.pushIf(IfInfo{ThenViewIdx: thenIdx, ElseViewIdx: elseIdx, Condition: condExpr})
	return ConditionalElementExpr{IfIdx: idx}, nil
}

// compileSwitch compiles `<switch on="{…}"><case name="…">…</case>…</switch>`.
// Each case narrows the union's discriminant to a fresh row tail; when the
// discriminant expression is a bare variable, that variable is rebound in
// the case body's scope to the narrowed record so field accesses inside the
// branch resolve against it directly rather than the unnarrowed union.
func compileSwitch(ctx *compileContext, el vgast.Element) (JsExpr, *vgerrors.Error) {
	onExpr, err := findBindingAttr(el, "on")
	if err != nil {
		return nil, err
	}
	caseEls, err := validateChildElementNames(el, "case")
	if err != nil {
		return nil, err
	}
	if len(caseEls) == 0 {
		return nil, vgerrors.Newf(el.Sp, "<switch> must contain at least one <case>").
			WithLabel(el.Sp, "add a <case name=\"…\">")
	}

	unionMap := map[string]uf.Point[types.RowDescriptor]{}
	var caseNames []string
	var caseViewIdxs []int

	for _, caseEl := range caseEls {
		name, nameSpan, err := findLiteralAttr(caseEl, "name")
		if err != nil {
			return nil, err
		}
		if containsString(caseNames, name) {
			return nil, vgerrors.Newf(nameSpan, "duplicate <case name=%q>", name).
				WithLabel(nameSpan, "case names must be unique within a <switch>")
		}
		body, err := validateSingleChild(caseEl)
		if err != nil {
			return nil, err
		}

		tail := ctx.te.InferCtx.FreshRowPoint()
		unionMap[name] = tail
		narrowed := types.Record{Point: tail}

		discriminant, bind := onExpr.(vgast.Variable)
		if bind {
			ctx.te.env.PushScope(map[string]types.Type{discriminant.Name: narrowed})
		}
		childView, err := compileView(ctx.te, body)
		if bind {
			ctx.te.env.PopScope()
		}
		if err != nil {
			return nil, err
		}

		caseNames = append(caseNames, name)
		caseViewIdxs = append(caseViewIdxs, ctx.pushChildView(childView))
	}

	ctx.te.infer(onExpr, types.Expect(types.DiscriminatedUnion{Variants: unionMap}))

	idx := ctx.pushSwitch(SwitchInfo{CaseViewIdxs: caseViewIdxs, CaseNames: caseNames, On: onExpr})
	return SwitchElementExpr{SwitchIdx: idx}, nil
}

// compileMount compiles `<mount use="{…}"/>`: use must evaluate to a
// view-returning function, spliced directly into the DOM. The "() =>
// Element" expected type is a fixed opaque Prim rather than a real Fun,
// matching how the type domain has no first-class function-value syntax of
// its own to express "a function returning a mounted element".
func compileMount(ctx *compileContext, el vgast.Element) (JsExpr, *vgerrors.Error) {
	if len(el.Children) != 0 {
		return nil, vgerrors.Newf(el.Sp, "<mount> must not have children").
			WithLabel(el.Sp, "remove the nested content; <mount> is self-closing")
	}
	useExpr, err := findBindingAttr(el, "use")
	if err != nil {
		return nil, err
	}
	ctx.te.infer(useExpr, types.Expect(types.Prim{Name: "() => Element"}))

	idx := ctx.pushMount(MountInfo{UseExpr: useExpr, Dependencies: sortedDependencies(useExpr)})
	return MountExpr{MountIdx: idx}, nil
}

// compileComponentCall compiles a call to another view by name. The
// target's attribute types must already be solved (guaranteed by
// internal/loader's dependency ordering); every provided attribute is
// checked for presence/extras against the target's attribute set, then
// inferred against a fresh instantiation of the target's attribute types so
// each call site gets independent polymorphism.
func compileComponentCall(ctx *compileContext, cc vgast.ComponentCall) (JsExpr, *vgerrors.Error) {
	targetAttrs, ok := ctx.te.views[cc.Name]
	if !ok {
		return nil, vgerrors.Newf(cc.NameSpan, "component '%s' has not been compiled yet", cc.Name).
			WithLabel(cc.NameSpan, "views must be compiled in dependency order")
	}

	provided := make(map[string]vgast.Expr, len(cc.Attrs))
	for _, attr := range cc.Attrs {
		provided[attr.Name] = attrValueExpr(attr)
	}

	var missing []string
	for name := range targetAttrs {
		if _, ok := provided[name]; !ok {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		sort.Strings(missing)
		return nil, vgerrors.Newf(cc.Sp, "missing required attribute(s) for <%s>: %s", cc.Name, strings.Join(missing, ", ")).
			WithLabel(cc.Sp, "add the missing attribute(s)")
	}

	var extra []string
	for name := range provided {
		if _, ok := targetAttrs[name]; !ok {
			extra = append(extra, name)
		}
	}
	if len(extra) > 0 {
		sort.Strings(extra)
		return nil, vgerrors.Newf(cc.Sp, "unexpected attribute(s) for <%s>: %s", cc.Name, strings.Join(extra, ", ")).
			WithLabel(cc.Sp, "remove the unexpected attribute(s)")
	}

	instantiated := ctx.te.InferCtx.InstantiateAttrs(targetAttrs)
	for name, expr := range provided {
		ctx.te.infer(expr, types.Expect(instantiated[name]))
	}

	idx := ctx.pushComponentCall(ComponentCallInfo{TargetViewName: cc.Name, InputAttrs: provided})
	return ComponentCallExpr{CallIdx: idx}, nil
}

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

// Package loader resolves <require> edges across template files into a set
// of TemplateModules, then orders every view across the whole compilation
// set by component dependency. It owns the only cross-file state in the
// compiler: everything downstream (inference, solving, compilation) works
// one view at a time, in the order this package produces.
package loader

import (
	"fmt"
	"path"
	"sort"
	"strings"

	"github.com/google/uuid"

	"vegen.dev/compiler/internal/source"
	"vegen.dev/compiler/internal/srcmap"
	"vegen.dev/compiler/internal/tmplparser"
	"vegen.dev/compiler/internal/vgast"
	"vegen.dev/compiler/internal/vgerrors"
)

// TemplateResolver isolates the loader from where template text actually
// comes from: disk, an editor's open-document buffer, or a test fixture.
type TemplateResolver interface {
	Resolve(path string) (string, error)
}

// FileResolver resolves template paths against the local filesystem,
// through internal/source so byte retrieval stays an ambient concern
// separate from the loader's own logic.
type FileResolver struct{}

func (FileResolver) Resolve(p string) (string, error) {
	data, err := source.NewFileSource(p).Read()
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// NormalizePath collapses '.' and '..' segments without touching the
// filesystem, so a missing template still gets a stable, comparable key
// and symlinks are never silently resolved.
func NormalizePath(p string) string {
	if p == "" {
		return "."
	}
	return path.Clean(p)
}

// ResolveRequiredPath resolves a <require src="…"/> value against the file
// that contains it: absolute paths pass through unchanged, relative paths
// are joined against basePath's directory.
func ResolveRequiredPath(basePath, rawSrc string) string {
	if path.IsAbs(rawSrc) {
		return rawSrc
	}
	return path.Join(path.Dir(basePath), rawSrc)
}

func wrapResolveError(err error, triggerSpan srcmap.Span, p string) *vgerrors.Error {
	return vgerrors.Newf(triggerSpan, "failed to load %q: %v", p, err).
		WithLabel(triggerSpan, "unable to read required template")
}

// RequiredTemplate is a parsed <require src="…"/> directive.
type RequiredTemplate struct {
	Span   srcmap.Span
	RawSrc string
}

// ComponentRef is a use of another view's name as a tag, found anywhere in
// a view's subtree.
type ComponentRef struct {
	Name string
	Span srcmap.Span
}

// ViewStub is one <view> definition: its declared name, the single root
// node of its body, and every component reference found in that body.
type ViewStub struct {
	Name          string
	NameSpan      srcmap.Span
	ViewSpan      srcmap.Span
	Root          vgast.Node
	ComponentRefs []ComponentRef

	// ID identifies this parse of the view, stamped fresh every time its
	// file is loaded. The -w watch loop logs it alongside a view's name so
	// two consecutive recompiles of the same view are distinguishable in a
	// log stream even when the name repeats.
	ID uuid.UUID
}

// Module is everything one template file contributes: its <require>
// directives and its <view> definitions.
type Module struct {
	Path     string
	Requires []RequiredTemplate
	Views    []ViewStub

	// ID identifies this parse of the file, stamped fresh every time
	// fromNodes runs; a cache keyed on file path plus modification time
	// would survive a reload; this is a finer-grained "did this exact
	// parse happen" marker.
	ID uuid.UUID
}

// isComponentName reports whether a tag name denotes a component call
// rather than a plain markup element: the template parser produces
// Element uniformly, so reclassification into ComponentCall happens here,
// the first place the loader walks a fully-parsed tree.
func isComponentName(name string) bool {
	return len(name) > 0 && name[0] >= 'A' && name[0] <= 'Z'
}

func reclassify(node vgast.Node) vgast.Node {
	switch n := node.(type) {
	case vgast.Element:
		children := reclassifyAll(n.Children)
		if isComponentName(n.Name) {
			return vgast.ComponentCall{
				Name:     n.Name,
				NameSpan: n.NameSpan,
				Attrs:    n.Attrs,
				Children: children,
				Sp:       n.Sp,
			}
		}
		n.Children = children
		return n
	case vgast.ComponentCall:
		n.Children = reclassifyAll(n.Children)
		return n
	default:
		return node
	}
}

func reclassifyAll(nodes []vgast.Node) []vgast.Node {
	if nodes == nil {
		return nil
	}
	out := make([]vgast.Node, len(nodes))
	for i, n := range nodes {
		out[i] = reclassify(n)
	}
	return out
}

// findLiteralAttr finds the attribute named name among attrs and requires
// its value to be a plain literal with no interpolation (a <require src>
// or <view name> must name a fixed path/identifier, not a binding).
func findLiteralAttr(attrs []vgast.SpannedAttribute, name string, elemSpan srcmap.Span) (string, srcmap.Span, *vgerrors.Error) {
	for _, attr := range attrs {
		if attr.Name != name {
			continue
		}
		tmpl, ok := attr.Value.(vgast.TemplateAttrValue)
		if !ok || len(tmpl.Segments) != 1 {
			return "", srcmap.Span{}, vgerrors.Newf(attr.Sp, "'%s' must be a literal string, not a binding or interpolation", name).
				WithLabel(attr.Sp, "use a plain quoted value with no {…} interpolation")
		}
		lit, ok := tmpl.Segments[0].(vgast.LiteralSegment)
		if !ok {
			return "", srcmap.Span{}, vgerrors.Newf(attr.Sp, "'%s' must be a literal string, not a binding or interpolation", name).
				WithLabel(attr.Sp, "use a plain quoted value with no {…} interpolation")
		}
		return lit.Text, attr.NameSpan, nil
	}
	return "", srcmap.Span{}, vgerrors.Newf(elemSpan, "missing required '%s' attribute", name).
		WithLabel(elemSpan, "add this attribute")
}

func parseRequire(el vgast.Element) (RequiredTemplate, *vgerrors.Error) {
	if len(el.Children) != 0 {
		return RequiredTemplate{}, vgerrors.Newf(el.Sp, "<require> must not have children").
			WithLabel(el.Sp, "remove nested content; <require> is self-closing")
	}
	for _, attr := range el.Attrs {
		if attr.Name != "src" {
			return RequiredTemplate{}, vgerrors.Newf(attr.NameSpan, "unexpected '%s' attribute on <require>", attr.Name).
				WithLabel(attr.NameSpan, "only the 'src' attribute is supported")
		}
	}
	rawSrc, _, err := findLiteralAttr(el.Attrs, "src", el.Sp)
	if err != nil {
		return RequiredTemplate{}, err
	}
	return RequiredTemplate{Span: el.Sp, RawSrc: rawSrc}, nil
}

func parseView(el vgast.Element) (ViewStub, *vgerrors.Error) {
	name, nameSpan, err := findLiteralAttr(el.Attrs, "name", el.Sp)
	if err != nil {
		return ViewStub{}, err
	}
	if !isComponentName(name) {
		return ViewStub{}, vgerrors.Newf(nameSpan, "view names must start with an uppercase letter").
			WithLabel(nameSpan, "rename this view to begin with an uppercase letter")
	}
	if len(el.Children) != 1 {
		return ViewStub{}, vgerrors.Newf(el.Sp, "a <view> must have exactly one child").
			WithLabel(el.Sp, "wrap multiple children in a single element")
	}
	root := el.Children[0]
	if _, ok := root.(vgast.ExprNode); ok {
		return ViewStub{}, vgerrors.Newf(el.Sp, "expressions cannot be the root of a view").
			WithLabel(el.Sp, "wrap this expression inside an element or fragment")
	}

	var refs []ComponentRef
	collectComponentRefs(root, &refs)

	return ViewStub{
		Name:          name,
		NameSpan:      nameSpan,
		ViewSpan:      el.Sp,
		Root:          root,
		ComponentRefs: refs,
		ID:            uuid.New(),
	}, nil
}

func collectComponentRefs(node vgast.Node, refs *[]ComponentRef) {
	switch n := node.(type) {
	case vgast.ComponentCall:
		*refs = append(*refs, ComponentRef{Name: n.Name, Span: n.NameSpan})
		for _, c := range n.Children {
			collectComponentRefs(c, refs)
		}
	case vgast.Element:
		for _, c := range n.Children {
			collectComponentRefs(c, refs)
		}
	}
}

// fromNodes splits a file's already-reclassified top-level nodes into its
// <require> and <view> elements; anything else at the top level is an
// error.
func fromNodes(modPath string, nodes []vgast.Node) (Module, *vgerrors.Error) {
	mod := Module{Path: modPath, ID: uuid.New()}
	for _, raw := range nodes {
		node := reclassify(raw)
		el, ok := node.(vgast.Element)
		if !ok {
			return Module{}, vgerrors.Newf(node.Span(), "only <require> and <view> elements are allowed at the top level").
				WithLabel(node.Span(), "remove or wrap this node inside a <view> element")
		}
		switch el.Name {
		case "require":
			req, err := parseRequire(el)
			if err != nil {
				return Module{}, err
			}
			mod.Requires = append(mod.Requires, req)
		case "view":
			view, err := parseView(el)
			if err != nil {
				return Module{}, err
			}
			mod.Views = append(mod.Views, view)
		default:
			return Module{}, vgerrors.Newf(el.Sp, "only <require> and <view> elements are allowed at the top level").
				WithLabel(el.Sp, "remove or wrap this node inside a <view> element")
		}
	}
	return mod, nil
}

// state is the cross-call bookkeeping `visit` needs: modules already fully
// loaded, the resolved <require> graph, and the visiting-stack used to
// detect cycles as they're introduced rather than after the fact.
type state struct {
	modules       map[string]Module
	requiresGraph map[string][]string
	visiting      map[string]bool
	stack         []string
}

func newState() *state {
	return &state{
		modules:       map[string]Module{},
		requiresGraph: map[string][]string{},
		visiting:      map[string]bool{},
	}
}

// visit loads modPath (if not already loaded), recursively visiting every
// path it <require>s. triggerSpan is the span of the <require> directive
// that caused this visit, or srcmap.NoSpan for the entry file; it becomes
// the main span of a require-cycle error discovered here, per the language
// spec's defaulted-main-span allowance for a cycle whose closing edge is
// the entry point itself.
func visit(modPath string, triggerSpan srcmap.Span, resolver TemplateResolver, srcMap *srcmap.Map, st *state) *vgerrors.Error {
	if _, ok := st.modules[modPath]; ok {
		return nil
	}
	if st.visiting[modPath] {
		cyc := cycleFromStack(st.stack, modPath)
		msg := fmt.Sprintf("circular <require> dependency detected: %s", strings.Join(cyc, " -> "))
		return vgerrors.Newf(triggerSpan, "%s", msg).WithLabel(triggerSpan, "cycle introduced here")
	}

	st.visiting[modPath] = true
	st.stack = append(st.stack, modPath)

	text, err := resolver.Resolve(modPath)
	if err != nil {
		return wrapResolveError(err, triggerSpan, modPath)
	}

	sourceID := srcMap.Add(modPath, text)
	nodes, parseErrs := tmplparser.Parse(text, sourceID)
	if len(parseErrs) != 0 {
		// The loader fails the whole compilation on the first problem in
		// any file, the entry file included: only the first of the parse
		// errors the template parser accumulated is returned, and the rest
		// are dropped.
		return parseErrs[0]
	}

	mod, modErr := fromNodes(modPath, nodes)
	if modErr != nil {
		return modErr
	}

	seenChildren := map[string]bool{}
	var resolvedChildren []string
	for _, req := range mod.Requires {
		childPath := NormalizePath(ResolveRequiredPath(modPath, req.RawSrc))
		if seenChildren[childPath] {
			continue
		}
		seenChildren[childPath] = true
		if err := visit(childPath, req.Span, resolver, srcMap, st); err != nil {
			return err
		}
		resolvedChildren = append(resolvedChildren, childPath)
	}

	st.requiresGraph[modPath] = resolvedChildren
	st.visiting[modPath] = false
	st.stack = st.stack[:len(st.stack)-1]
	st.modules[modPath] = mod
	return nil
}

// OrderedView is one view, along with the module that defines it, placed
// in the compile order LoadOrderedViews produces.
type OrderedView struct {
	Name   string
	Module Module
	View   ViewStub
}

func containsString(ss []string, s string) bool {
	for _, x := range ss {
		if x == s {
			return true
		}
	}
	return false
}

// LoadOrderedViews resolves every <require> reachable from entryPath,
// checks the resulting view registry for duplicates and unreachable
// component references, and returns every view in the compilation set in
// topological order by component dependency (a view never appears before
// something it calls), ties broken lexicographically by name.
func LoadOrderedViews(entryPath string, resolver TemplateResolver, srcMap *srcmap.Map) ([]OrderedView, *vgerrors.Error) {
	entry := NormalizePath(entryPath)
	st := newState()
	if err := visit(entry, srcmap.NoSpan, resolver, srcMap, st); err != nil {
		return nil, err
	}

	modPaths := make([]string, 0, len(st.modules))
	for p := range st.modules {
		modPaths = append(modPaths, p)
	}
	sort.Strings(modPaths)

	viewLookup := map[string]OrderedView{}
	viewSpans := map[string]srcmap.Span{}
	for _, modPath := range modPaths {
		mod := st.modules[modPath]
		for _, v := range mod.Views {
			if existing, ok := viewSpans[v.Name]; ok {
				return nil, vgerrors.Newf(v.NameSpan, "view '%s' is defined more than once", v.Name).
					WithLabel(v.NameSpan, "second definition occurs here").
					WithLabel(existing, "first definition was here")
			}
			viewSpans[v.Name] = v.NameSpan
			viewLookup[v.Name] = OrderedView{Name: v.Name, Module: mod, View: v}
		}
	}

	viewDeps := make(map[string][]string, len(viewLookup))
	for _, modPath := range modPaths {
		mod := st.modules[modPath]
		for _, v := range mod.Views {
			var deps []string
			for _, ref := range v.ComponentRefs {
				target, ok := viewLookup[ref.Name]
				if !ok {
					return nil, vgerrors.Newf(ref.Span, "component '%s' is not defined in this compilation set", ref.Name).
						WithLabel(ref.Span, "add a matching <view> definition or correct the name")
				}
				if target.Module.Path != modPath && !containsString(st.requiresGraph[modPath], target.Module.Path) {
					return nil, vgerrors.Newf(ref.Span, "component '%s' is defined in '%s', but this template does not <require> it directly", ref.Name, target.Module.Path).
						WithLabel(ref.Span, "add or fix a <require src=\"…\"> directive")
				}
				deps = append(deps, ref.Name)
			}
			viewDeps[v.Name] = deps
		}
	}

	order, cyc := topoSort(viewDeps)
	if cyc != nil {
		primary := cyc.nodes[len(cyc.nodes)-1]
		mainSpan := viewSpans[primary]
		e := vgerrors.Newf(mainSpan, "circular component dependency: %s", strings.Join(cyc.nodes, " -> "))
		seen := map[string]bool{}
		for _, n := range cyc.nodes {
			if seen[n] {
				continue
			}
			seen[n] = true
			if sp, ok := viewSpans[n]; ok {
				e = e.WithLabel(sp, fmt.Sprintf("%s participates in the cycle.", n))
			}
		}
		return nil, e
	}

	ordered := make([]OrderedView, 0, len(order))
	for _, name := range order {
		ordered = append(ordered, viewLookup[name])
	}
	return ordered, nil
}

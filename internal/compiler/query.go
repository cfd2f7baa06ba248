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

	"vegen.dev/compiler/internal/exprparser"
	"vegen.dev/compiler/internal/srcmap"
	"vegen.dev/compiler/internal/vgast"
	"vegen.dev/compiler/internal/vgerrors"
)

// validateSingleChild requires el to have exactly one child, labeling every
// extraneous one.
func validateSingleChild(el vgast.Element) (vgast.Node, *vgerrors.Error) {
	if len(el.Children) == 1 {
		return el.Children[0], nil
	}
	err := vgerrors.Newf(el.Sp, "<%s> must have exactly one child", el.Name)
	for _, c := range el.Children {
		err = err.WithLabel(c.Span(), "extraneous child")
	}
	return nil, err
}

// validateAllChildrenAreElements requires every child of el to be a plain
// Element (not Text, ExprNode, or ComponentCall), as control-flow elements
// only nest their own named sub-elements (`<then>`, `<else>`, `<case>`).
func validateAllChildrenAreElements(el vgast.Element) ([]vgast.Element, *vgerrors.Error) {
	out := make([]vgast.Element, 0, len(el.Children))
	for _, c := range el.Children {
		child, ok := c.(vgast.Element)
		if !ok {
			return nil, vgerrors.Newf(c.Span(), "only element children are allowed inside <%s>", el.Name).
				WithLabel(c.Span(), "remove this")
		}
		out = append(out, child)
	}
	return out, nil
}

// validateChildElementNames requires every child of el to be an Element
// whose name is in allowed.
func validateChildElementNames(el vgast.Element, allowed ...string) ([]vgast.Element, *vgerrors.Error) {
	children, err := validateAllChildrenAreElements(el)
	if err != nil {
		return nil, err
	}
	for _, c := range children {
		if !containsString(allowed, c.Name) {
			return nil, vgerrors.Newf(c.Sp, "unexpected <%s> inside <%s>", c.Name, el.Name).
				WithLabel(c.Sp, "expected one of: "+strings.Join(allowed, ", "))
		}
	}
	return children, nil
}

func containsString(ss []string, s string) bool {
	for _, x := range ss {
		if x == s {
			return true
		}
	}
	return false
}

// findBindingAttr finds attr name among el's attributes, requiring it to be
// a `{expr}` binding rather than a quoted string template.
func findBindingAttr(el vgast.Element, name string) (vgast.Expr, *vgerrors.Error) {
	for _, attr := range el.Attrs {
		if attr.Name != name {
			continue
		}
		exprVal, ok := attr.Value.(vgast.ExprAttrValue)
		if !ok {
			return nil, vgerrors.Newf(attr.Sp, "'%s' must be a binding, not a quoted string", name).
				WithLabel(attr.Sp, "write this as {…}")
		}
		return exprVal.Expr, nil
	}
	return nil, vgerrors.Newf(el.Sp, "<%s> is missing required '%s' attribute", el.Name, name).
		WithLabel(el.Sp, "add this attribute")
}

// findLiteralAttr finds attr name among el's attributes, requiring it to be
// a plain quoted string with no interpolation.
func findLiteralAttr(el vgast.Element, name string) (string, srcmap.Span, *vgerrors.Error) {
	for _, attr := range el.Attrs {
		if attr.Name != name {
			continue
		}
		tmpl, ok := attr.Value.(vgast.TemplateAttrValue)
		if !ok {
			return "", srcmap.Span{}, vgerrors.Newf(attr.Sp, "'%s' must be a literal string, not a binding", name).
				WithLabel(attr.Sp, "remove the {…} and use a plain quoted value")
		}
		if len(tmpl.Segments) != 1 {
			return "", srcmap.Span{}, vgerrors.Newf(attr.Sp, "'%s' must not contain interpolation", name).
				WithLabel(attr.Sp, "use a plain quoted value with no {…}")
		}
		lit, ok := tmpl.Segments[0].(vgast.LiteralSegment)
		if !ok {
			return "", srcmap.Span{}, vgerrors.Newf(attr.Sp, "'%s' must not contain interpolation", name).
				WithLabel(attr.Sp, "use a plain quoted value with no {…}")
		}
		return lit.Text, attr.NameSpan, nil
	}
	return "", srcmap.Span{}, vgerrors.Newf(el.Sp, "<%s> is missing required '%s' attribute", el.Name, name).
		WithLabel(el.Sp, "add this attribute")
}

// findUniqueChildByName returns the single child of el named name, erroring
// if more than one match, or ok=false if none.
func findUniqueChildByName(children []vgast.Element, name string) (vgast.Element, bool, *vgerrors.Error) {
	var found *vgast.Element
	for i := range children {
		if children[i].Name != name {
			continue
		}
		if found != nil {
			return vgast.Element{}, false, vgerrors.Newf(children[i].Sp, "<%s> must appear at most once", name).
				WithLabel(found.Sp, "first occurrence here").
				WithLabel(children[i].Sp, "second occurrence here")
		}
		found = &children[i]
	}
	if found == nil {
		return vgast.Element{}, false, nil
	}
	return *found, true, nil
}

// splitDataAttribute strips a "data-" prefix from name, reporting whether
// it was present.
func splitDataAttribute(name string) (string, bool) {
	const prefix = "data-"
	if strings.HasPrefix(name, prefix) {
		return name[len(prefix):], true
	}
	return "", false
}

// hasBindings reports whether value is dynamic: a template is dynamic if
// any segment is an interpolation, a bare binding always is.
func hasBindings(value vgast.AttrValue) bool {
	switch v := value.(type) {
	case vgast.TemplateAttrValue:
		for _, seg := range v.Segments {
			if _, ok := seg.(vgast.InterpolationSegment); ok {
				return true
			}
		}
		return false
	case vgast.ExprAttrValue:
		return true
	default:
		return false
	}
}

// attrValueExpr collapses an AttrValue down to the single vgast.Expr the
// compiled IR stores as its build-time/update-time value: a literal or
// interpolated string template becomes a StringTemplate expression (built
// fresh so it carries the attribute's own span), a binding passes its expr
// through unchanged.
func attrValueExpr(attr vgast.SpannedAttribute) vgast.Expr {
	switch v := attr.Value.(type) {
	case vgast.TemplateAttrValue:
		return vgast.StringTemplate{Segments: v.Segments, Sp: attr.Sp}
	case vgast.ExprAttrValue:
		return v.Expr
	default:
		panic("compiler: unhandled vgast.AttrValue case")
	}
}

// sortedDependencies returns expr's dependency set (internal/exprparser's
// Dependencies) as a sorted slice, giving updaters a deterministic
// dependency-group key downstream in the emitter.
func sortedDependencies(expr vgast.Expr) []string {
	deps := exprparser.Dependencies(expr)
	out := make([]string, 0, len(deps))
	for d := range deps {
		out = append(out, d)
	}
	sort.Strings(out)
	return out
}

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

// Package vgast defines the two syntax trees VeGen parses: Expr, the small
// expression language usable inside `{...}` bindings and string template
// interpolations, and Node, the XML-like template markup tree. Both carry
// srcmap.Span on every node for diagnostics.
package vgast

import "vegen.dev/compiler/internal/srcmap"

// Expr is a node in the expression language. Every concrete type below
// also satisfies this interface; a type switch on Expr is how infer and
// exprparser dispatch.
type Expr interface {
	Span() srcmap.Span
	isExpr()
}

// StringTemplateSegment is one piece of a quoted string template: either a
// literal run of text or a `{expr}` interpolation.
type StringTemplateSegment interface {
	isSegment()
}

type LiteralSegment struct {
	Text string
}

func (LiteralSegment) isSegment() {}

type InterpolationSegment struct {
	Expr Expr
}

func (InterpolationSegment) isSegment() {}

// StringTemplate is a double-quoted string made of literal and
// interpolation segments, e.g. `"hello {name}"`.
type StringTemplate struct {
	Segments []StringTemplateSegment
	Sp       srcmap.Span
}

func (e StringTemplate) Span() srcmap.Span { return e.Sp }
func (StringTemplate) isExpr()             {}

// Variable is a bare identifier reference, e.g. `name`.
type Variable struct {
	Name string
	Sp   srcmap.Span
}

func (e Variable) Span() srcmap.Span { return e.Sp }
func (Variable) isExpr()             {}

// Number is a numeric literal, kept as its original source text (no base
// type narrowing happens until inference assigns it Prim("number")).
type Number struct {
	Text string
	Sp   srcmap.Span
}

func (e Number) Span() srcmap.Span { return e.Sp }
func (Number) isExpr()             {}

// Field is a `.name` projection off Base, e.g. `user.name`.
type Field struct {
	Base Expr
	Name string
	Sp   srcmap.Span
}

func (e Field) Span() srcmap.Span { return e.Sp }
func (Field) isExpr()             {}

// FunctionCall is a call `callee(args...)`.
type FunctionCall struct {
	Callee Expr
	Args   []Expr
	Sp     srcmap.Span
}

func (e FunctionCall) Span() srcmap.Span { return e.Sp }
func (FunctionCall) isExpr()             {}

// Pipe is `left | right`, left-associative; the emitter desugars it to
// either `right(left, ...)` when right is itself a call, or `right(left)`
// otherwise.
type Pipe struct {
	Left, Right Expr
	Sp          srcmap.Span
}

func (e Pipe) Span() srcmap.Span { return e.Sp }
func (Pipe) isExpr()             {}

// Node is a node in the template markup tree.
type Node interface {
	Span() srcmap.Span
	isNode()
}

// SpannedAttribute is one `name="value"` or `name={expr}` attribute on an
// Element or ComponentCall.
type SpannedAttribute struct {
	Name     string
	NameSpan srcmap.Span
	Value    AttrValue
	Sp       srcmap.Span
}

// AttrValue is an attribute's right-hand side: either a quoted string
// template (possibly with interpolations) or a bare `{expr}` binding.
type AttrValue interface {
	isAttrValue()
}

type TemplateAttrValue struct {
	Segments []StringTemplateSegment
}

func (TemplateAttrValue) isAttrValue() {}

type ExprAttrValue struct {
	Expr Expr
}

func (ExprAttrValue) isAttrValue() {}

// Element is a tag, either a plain DOM element or (after the loader's
// uppercase-first-letter reclassification) a ComponentCall — the template
// parser itself never distinguishes the two, producing Element uniformly.
type Element struct {
	Name     string
	NameSpan srcmap.Span
	Attrs    []SpannedAttribute
	Children []Node
	Sp       srcmap.Span
}

func (n Element) Span() srcmap.Span { return n.Sp }
func (Element) isNode()             {}

// ComponentCall is an Element reclassified by the loader because its tag
// name starts with an uppercase letter.
type ComponentCall struct {
	Name     string
	NameSpan srcmap.Span
	Attrs    []SpannedAttribute
	Children []Node
	Sp       srcmap.Span
}

func (n ComponentCall) Span() srcmap.Span { return n.Sp }
func (ComponentCall) isNode()             {}

// Text is a literal run of markup text between tags.
type Text struct {
	Content string
	Sp      srcmap.Span
}

func (n Text) Span() srcmap.Span { return n.Sp }
func (Text) isNode()             {}

// ExprNode wraps an Expr used directly as template content, e.g. `{count}`
// appearing as a child rather than inside a quoted string.
type ExprNode struct {
	Expr Expr
}

func (n ExprNode) Span() srcmap.Span { return n.Expr.Span() }
func (ExprNode) isNode()             {}

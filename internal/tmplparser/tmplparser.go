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

// Package tmplparser parses the XML-like template markup language into a
// flat list of top-level vgast.Node values, delegating to exprparser for
// every `{...}` binding it encounters. It is whitespace-preserving for
// text content: only the whitespace following a fully-parsed element is
// trimmed (mirroring the original's combinator-level `.padded()` calls),
// text runs and expression nodes keep whatever whitespace borders them, so
// whitespace before an element is kept as a Text node of its own.
package tmplparser

import (
	"strings"

	"vegen.dev/compiler/internal/exprparser"
	"vegen.dev/compiler/internal/srcmap"
	"vegen.dev/compiler/internal/vgast"
	"vegen.dev/compiler/internal/vgerrors"
)

// Parse parses the complete contents of a template file into its top-level
// nodes. Parsing does not stop at the first recoverable problem (a
// mismatched closing tag is recorded but does not prevent the rest of the
// file parsing); an unrecoverable problem (EOF mid-tag, a dangling closing
// tag with no matching open) stops the parse and is appended to the
// returned list as well.
func Parse(src string, sourceID srcmap.ID) ([]vgast.Node, vgerrors.List) {
	p := &parser{src: src, sourceID: sourceID}
	nodes := p.parseNodes()
	p.skipNothingButCheckEOF()
	return nodes, p.errs
}

type parser struct {
	src      string
	pos      int
	sourceID srcmap.ID
	errs     vgerrors.List
}

func (p *parser) span(start int) srcmap.Span {
	return srcmap.Span{Start: start, End: p.pos, SourceID: p.sourceID}
}

func (p *parser) eof() bool { return p.pos >= len(p.src) }

func (p *parser) peek() byte {
	if p.eof() {
		return 0
	}
	return p.src[p.pos]
}

func (p *parser) hasPrefix(s string) bool {
	return strings.HasPrefix(p.src[p.pos:], s)
}

func isAlpha(c byte) bool {
	return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || c == '_'
}

func isAlphaNum(c byte) bool {
	return isAlpha(c) || (c >= '0' && c <= '9') || c == '-'
}

func (p *parser) skipSpace() {
	for !p.eof() {
		switch p.src[p.pos] {
		case ' ', '\t', '\n', '\r':
			p.pos++
		default:
			return
		}
	}
}

func (p *parser) addErrf(start int, format string, args ...any) {
	p.errs.Add(vgerrors.Newf(p.span(start), format, args...))
}

func (p *parser) skipNothingButCheckEOF() {
	p.skipSpace()
	if !p.eof() {
		p.addErrf(p.pos, "unexpected closing tag or trailing content at top level")
	}
}

// parseIdentifier consumes a tag/attribute name and trailing whitespace,
// using the same identifier grammar as the expression language (§4.2).
func (p *parser) parseIdentifier() (string, srcmap.Span, bool) {
	start := p.pos
	if p.eof() || !isAlpha(p.src[p.pos]) {
		return "", srcmap.Span{}, false
	}
	p.pos++
	for !p.eof() && isAlphaNum(p.src[p.pos]) {
		p.pos++
	}
	name := p.src[start:p.pos]
	sp := p.span(start)
	p.skipSpace()
	return name, sp, true
}

// parseNodes parses siblings until EOF or until the next token is a
// closing tag "</", which the caller (either the top level, after which it
// is an error, or an element body, which consumes it itself) handles.
func (p *parser) parseNodes() []vgast.Node {
	var nodes []vgast.Node
	for {
		if p.eof() || p.hasPrefix("</") {
			return nodes
		}
		switch {
		case p.hasPrefix("<!--"):
			p.parseComment()
		case p.peek() == '<':
			nodes = append(nodes, p.parseElement())
		case p.peek() == '{':
			nodes = append(nodes, p.parseExprNode())
		default:
			nodes = append(nodes, p.parseText())
		}
	}
}

func (p *parser) parseComment() {
	start := p.pos
	p.pos += len("<!--")
	end := strings.Index(p.src[p.pos:], "-->")
	if end < 0 {
		p.addErrf(start, "unterminated comment")
		p.pos = len(p.src)
		return
	}
	p.pos += end + len("-->")
}

func (p *parser) parseText() vgast.Node {
	start := p.pos
	for !p.eof() && p.src[p.pos] != '<' && p.src[p.pos] != '{' {
		p.pos++
	}
	return vgast.Text{Content: p.src[start:p.pos], Sp: p.span(start)}
}

func (p *parser) parseExprNode() vgast.Node {
	start := p.pos
	p.pos++ // consume '{'
	expr, n, err := exprparser.Parse(p.src[p.pos:], p.pos, p.sourceID)
	if err != nil {
		p.errs.Add(err)
		p.pos = len(p.src)
		return vgast.Text{Content: "", Sp: p.span(start)}
	}
	p.pos += n
	if p.peek() != '}' {
		p.addErrf(p.pos, "expected '}' to close binding")
	} else {
		p.pos++
	}
	return vgast.ExprNode{Expr: expr}
}

// parseAttrValue parses a quoted string template or an unquoted `{expr}`
// binding.
func (p *parser) parseAttrValue() vgast.AttrValue {
	if p.peek() == '"' {
		return p.parseQuotedTemplate()
	}
	if p.peek() == '{' {
		p.pos++
		expr, n, err := exprparser.Parse(p.src[p.pos:], p.pos, p.sourceID)
		if err != nil {
			p.errs.Add(err)
			return vgast.ExprAttrValue{}
		}
		p.pos += n
		if p.peek() != '}' {
			p.addErrf(p.pos, "expected '}' to close binding")
		} else {
			p.pos++
		}
		return vgast.ExprAttrValue{Expr: expr}
	}
	p.addErrf(p.pos, "expected an attribute value (quoted string or {binding})")
	return vgast.TemplateAttrValue{}
}

func (p *parser) parseQuotedTemplate() vgast.AttrValue {
	start := p.pos
	p.pos++ // consume opening '"'
	var segments []vgast.StringTemplateSegment
	for {
		if p.eof() {
			p.addErrf(start, "unterminated string template")
			return vgast.TemplateAttrValue{Segments: segments}
		}
		switch p.src[p.pos] {
		case '"':
			p.pos++
			return vgast.TemplateAttrValue{Segments: segments}
		case '{':
			p.pos++
			expr, n, err := exprparser.Parse(p.src[p.pos:], p.pos, p.sourceID)
			if err != nil {
				p.errs.Add(err)
				p.pos = len(p.src)
				return vgast.TemplateAttrValue{Segments: segments}
			}
			p.pos += n
			if p.peek() != '}' {
				p.addErrf(p.pos, "expected '}' to close interpolation")
			} else {
				p.pos++
			}
			segments = append(segments, vgast.InterpolationSegment{Expr: expr})
		default:
			litStart := p.pos
			for !p.eof() && p.src[p.pos] != '{' && p.src[p.pos] != '"' {
				p.pos++
			}
			segments = append(segments, vgast.LiteralSegment{Text: p.src[litStart:p.pos]})
		}
	}
}

// parseAttributes parses zero or more `name=value` attributes.
func (p *parser) parseAttributes() []vgast.SpannedAttribute {
	var attrs []vgast.SpannedAttribute
	for {
		p.skipSpace()
		if p.eof() || !isAlpha(p.peek()) {
			return attrs
		}
		start := p.pos
		name, nameSpan, ok := p.parseIdentifier()
		if !ok {
			return attrs
		}
		p.skipSpace()
		if p.peek() != '=' {
			p.addErrf(p.pos, "expected '=' after attribute name %q", name)
			return attrs
		}
		p.pos++
		p.skipSpace()
		value := p.parseAttrValue()
		attrs = append(attrs, vgast.SpannedAttribute{
			Name:     name,
			NameSpan: nameSpan,
			Value:    value,
			Sp:       p.span(start),
		})
		p.skipSpace()
	}
}

// parseElement parses `<name attrs.../>` or `<name attrs...>children</name>`.
func (p *parser) parseElement() vgast.Node {
	start := p.pos
	p.pos++ // consume '<'
	name, nameSpan, ok := p.parseIdentifier()
	if !ok {
		p.addErrf(start, "expected a tag name after '<'")
		p.pos = len(p.src)
		return vgast.Element{Sp: p.span(start)}
	}
	attrs := p.parseAttributes()

	var children []vgast.Node
	switch {
	case p.hasPrefix("/>"):
		p.pos += 2
	case p.peek() == '>':
		p.pos++
		children = p.parseNodes()
		if !p.hasPrefix("</") {
			p.addErrf(p.pos, "expected closing tag '</%s>'", name)
			break
		}
		p.pos += 2
		closeStart := p.pos
		closeName, closeSpan, ok := p.parseIdentifier()
		if ok && closeName != name {
			p.errs.Add(vgerrors.Newf(closeSpan, "closing tag '%s' does not match opening tag '%s'", closeName, name).
				WithLabel(nameSpan, "opening tag was here"))
		}
		if !ok {
			p.addErrf(closeStart, "expected a closing tag name")
		}
		p.skipSpace()
		if p.peek() != '>' {
			p.addErrf(p.pos, "expected '>' to close '</%s'", name)
		} else {
			p.pos++
		}
	default:
		p.addErrf(p.pos, "expected '/>' or '>' after attributes of '<%s'", name)
	}

	node := vgast.Element{
		Name:     name,
		NameSpan: nameSpan,
		Attrs:    attrs,
		Children: children,
		Sp:       p.span(start),
	}
	p.skipSpace() // mirrors the original's element-level .padded()
	return node
}

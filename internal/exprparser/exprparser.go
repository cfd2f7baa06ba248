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

// Package exprparser implements the expression sub-language used inside
// `{...}` bindings and string-template interpolations: a hand-written
// recursive-descent parser (in the scan-by-byte-offset style of the
// teacher's cue/scanner, rather than the original's chumsky combinators,
// since Go has no parser-combinator library in the retrieved pack) plus
// expr_dependencies, the dotted-path dependency extraction the compile
// driver uses to compute updater dependency sets.
package exprparser

import (
	"strings"

	"vegen.dev/compiler/internal/builtins"
	"vegen.dev/compiler/internal/srcmap"
	"vegen.dev/compiler/internal/vgast"
	"vegen.dev/compiler/internal/vgerrors"
)

// Parse parses a complete expression from src, offset by base within the
// file identified by sourceID (base lets a caller parse an interpolation
// or attribute binding that starts partway through a larger file's text).
// It returns the parsed expression and how many bytes of src were
// consumed, or a parse error.
func Parse(src string, base int, sourceID srcmap.ID) (vgast.Expr, int, *vgerrors.Error) {
	p := &parser{src: src, sourceID: sourceID, base: base}
	p.skipSpace()
	e, err := p.parsePipe()
	if err != nil {
		return nil, 0, err
	}
	p.skipSpace()
	return e, p.pos, nil
}

// ParseAll parses src as a single expression and requires it to consume the
// entire string (used for attribute bindings `{expr}` where the braces have
// already been stripped by the template parser).
func ParseAll(src string, sourceID srcmap.ID) (vgast.Expr, *vgerrors.Error) {
	e, n, err := Parse(src, 0, sourceID)
	if err != nil {
		return nil, err
	}
	if n != len(src) {
		return nil, vgerrors.Newf(spanAt(sourceID, n, n+1), "unexpected trailing input %q after expression", src[n:])
	}
	return e, nil
}

type parser struct {
	src      string
	pos      int
	base     int
	sourceID srcmap.ID
}

func spanAt(sourceID srcmap.ID, start, end int) srcmap.Span {
	return srcmap.Span{Start: start, End: end, SourceID: sourceID}
}

func (p *parser) span(start int) srcmap.Span {
	return spanAt(p.sourceID, p.base+start, p.base+p.pos)
}

func (p *parser) eof() bool { return p.pos >= len(p.src) }

func (p *parser) peek() byte {
	if p.eof() {
		return 0
	}
	return p.src[p.pos]
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

func isAlpha(c byte) bool {
	return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || c == '_'
}

func isAlphaNum(c byte) bool {
	return isAlpha(c) || (c >= '0' && c <= '9') || c == '-'
}

func isDigit(c byte) bool { return c >= '0' && c <= '9' }

func (p *parser) errf(start int, format string, args ...any) *vgerrors.Error {
	return vgerrors.Newf(p.span(start), format, args...)
}

// parseIdentifier consumes `[A-Za-z_][A-Za-z0-9_-]*` padded by trailing
// whitespace, per §4.2's grammar.
func (p *parser) parseIdentifier() (string, srcmap.Span, *vgerrors.Error) {
	start := p.pos
	if p.eof() || !isAlpha(p.src[p.pos]) {
		return "", srcmap.Span{}, p.errf(start, "expected identifier")
	}
	p.pos++
	for !p.eof() && isAlphaNum(p.src[p.pos]) {
		p.pos++
	}
	name := p.src[start:p.pos]
	sp := p.span(start)
	p.skipSpace()
	return name, sp, nil
}

// parseNumber consumes `digits ('.' digits)?` padded by trailing whitespace.
func (p *parser) parseNumber() (string, srcmap.Span, *vgerrors.Error) {
	start := p.pos
	if p.eof() || !isDigit(p.src[p.pos]) {
		return "", srcmap.Span{}, p.errf(start, "expected number")
	}
	for !p.eof() && isDigit(p.src[p.pos]) {
		p.pos++
	}
	if !p.eof() && p.src[p.pos] == '.' {
		save := p.pos
		p.pos++
		if !p.eof() && isDigit(p.src[p.pos]) {
			for !p.eof() && isDigit(p.src[p.pos]) {
				p.pos++
			}
		} else {
			p.pos = save
		}
	}
	text := p.src[start:p.pos]
	sp := p.span(start)
	p.skipSpace()
	return text, sp, nil
}

// parseStringTemplate consumes a double-quoted template: `literal_chars+ |
// '{' expr '}'` segments until the closing quote.
func (p *parser) parseStringTemplate() (vgast.Expr, *vgerrors.Error) {
	start := p.pos
	if p.peek() != '"' {
		return nil, p.errf(start, "expected '\"'")
	}
	p.pos++

	var segments []vgast.StringTemplateSegment
	for {
		if p.eof() {
			return nil, p.errf(start, "unterminated string template")
		}
		switch p.src[p.pos] {
		case '"':
			p.pos++
			p.skipSpace()
			return vgast.StringTemplate{Segments: segments, Sp: p.span(start)}, nil
		case '{':
			p.pos++
			inner, err := p.parsePipe()
			if err != nil {
				return nil, err
			}
			if p.peek() != '}' {
				return nil, p.errf(p.pos, "expected '}' to close interpolation")
			}
			p.pos++
			segments = append(segments, vgast.InterpolationSegment{Expr: inner})
		default:
			litStart := p.pos
			for !p.eof() && p.src[p.pos] != '{' && p.src[p.pos] != '"' {
				p.pos++
			}
			segments = append(segments, vgast.LiteralSegment{Text: p.src[litStart:p.pos]})
		}
	}
}

// parseAtom parses `number | string_template | identifier | '(' expr ')'`.
func (p *parser) parseAtom() (vgast.Expr, *vgerrors.Error) {
	p.skipSpace()
	start := p.pos
	switch {
	case p.eof():
		return nil, p.errf(start, "unexpected end of expression")
	case isDigit(p.peek()):
		text, sp, err := p.parseNumber()
		if err != nil {
			return nil, err
		}
		return vgast.Number{Text: text, Sp: sp}, nil
	case p.peek() == '"':
		return p.parseStringTemplate()
	case isAlpha(p.peek()):
		name, sp, err := p.parseIdentifier()
		if err != nil {
			return nil, err
		}
		return vgast.Variable{Name: name, Sp: sp}, nil
	case p.peek() == '(':
		p.pos++
		inner, err := p.parsePipe()
		if err != nil {
			return nil, err
		}
		p.skipSpace()
		if p.peek() != ')' {
			return nil, p.errf(p.pos, "expected ')'")
		}
		p.pos++
		p.skipSpace()
		return inner, nil
	default:
		return nil, p.errf(start, "unexpected character %q", p.src[p.pos])
	}
}

// parsePostfix parses `atom ( '.' identifier | '(' args? ')' )*`, chaining
// left-associatively into Field and FunctionCall nodes.
func (p *parser) parsePostfix() (vgast.Expr, *vgerrors.Error) {
	start := p.pos
	current, err := p.parseAtom()
	if err != nil {
		return nil, err
	}
	for {
		p.skipSpace()
		switch p.peek() {
		case '.':
			p.pos++
			name, _, err := p.parseIdentifier()
			if err != nil {
				return nil, err
			}
			current = vgast.Field{Base: current, Name: name, Sp: p.span(start)}
		case '(':
			p.pos++
			args, err := p.parseArgs()
			if err != nil {
				return nil, err
			}
			p.skipSpace()
			if p.peek() != ')' {
				return nil, p.errf(p.pos, "expected ')' to close call")
			}
			p.pos++
			current = vgast.FunctionCall{Callee: current, Args: args, Sp: p.span(start)}
		default:
			return current, nil
		}
	}
}

// parseArgs parses a comma-separated, optionally-trailing-comma argument
// list up to (but not consuming) the closing ')'.
func (p *parser) parseArgs() ([]vgast.Expr, *vgerrors.Error) {
	var args []vgast.Expr
	p.skipSpace()
	if p.peek() == ')' {
		return args, nil
	}
	for {
		p.skipSpace()
		if p.peek() == ')' {
			// trailing comma
			return args, nil
		}
		arg, err := p.parsePipe()
		if err != nil {
			return nil, err
		}
		args = append(args, arg)
		p.skipSpace()
		if p.peek() == ',' {
			p.pos++
			continue
		}
		return args, nil
	}
}

// parsePipe parses `postfix ('|' postfix)*`, left-associative.
func (p *parser) parsePipe() (vgast.Expr, *vgerrors.Error) {
	start := p.pos
	left, err := p.parsePostfix()
	if err != nil {
		return nil, err
	}
	for {
		p.skipSpace()
		if p.peek() != '|' {
			return left, nil
		}
		p.pos++
		p.skipSpace()
		right, err := p.parsePostfix()
		if err != nil {
			return nil, err
		}
		left = vgast.Pipe{Left: left, Right: right, Sp: p.span(start)}
	}
}

// Dependencies computes expr_dependencies(expr): the minimal set of dotted
// input paths whose change requires re-evaluating expr. See §4.2's rules;
// ported field-for-field from the original's collect_path.
func Dependencies(expr vgast.Expr) map[string]struct{} {
	deps := map[string]struct{}{}
	collectPath(expr, deps)
	return deps
}

func collectPath(expr vgast.Expr, deps map[string]struct{}) {
	var path []string
	node := expr
	for {
		switch n := node.(type) {
		case vgast.Variable:
			path = append(path, n.Name)
			dep := joinReversed(path)
			if !builtins.IsBuiltin(dep) {
				deps[dep] = struct{}{}
			}
			return
		case vgast.Number:
			return
		case vgast.Field:
			path = append(path, n.Name)
			node = n.Base
		case vgast.FunctionCall:
			path = nil
			node = n.Callee
			for _, arg := range n.Args {
				collectPath(arg, deps)
			}
		case vgast.Pipe:
			path = nil
			collectPath(n.Left, deps)
			node = n.Right
		case vgast.StringTemplate:
			for _, seg := range n.Segments {
				if interp, ok := seg.(vgast.InterpolationSegment); ok {
					collectPath(interp.Expr, deps)
				}
			}
			return
		default:
			return
		}
	}
}

// joinReversed reverses path (which was built innermost-field-first, i.e.
// base variable last) and joins it with '.', matching the original's
// `current_path.into_iter().rev().join(".")`.
func joinReversed(path []string) string {
	parts := make([]string, len(path))
	for i, s := range path {
		parts[len(path)-1-i] = s
	}
	return strings.Join(parts, ".")
}

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

// Package attrtable is the static tag -> attribute -> DOM property type
// table the compiler consults to infer the expected type of a bound
// element attribute (e.g. `checked="{done}"` expects boolean, `value`
// expects string). Anything not listed defaults to string at the call
// site, matching ordinary DOM attribute string coercion.
package attrtable

import "strings"

var table = map[string]map[string]string{
	"input": {
		"checked":     "boolean",
		"disabled":    "boolean",
		"readOnly":    "boolean",
		"required":    "boolean",
		"value":       "string",
		"placeholder": "string",
		"min":         "number",
		"max":         "number",
		"step":        "number",
		"maxLength":   "number",
	},
	"textarea": {
		"disabled":    "boolean",
		"readOnly":    "boolean",
		"required":    "boolean",
		"value":       "string",
		"placeholder": "string",
	},
	"select": {
		"disabled": "boolean",
		"required": "boolean",
		"multiple": "boolean",
		"value":    "string",
	},
	"option": {
		"selected": "boolean",
		"disabled": "boolean",
		"value":    "string",
	},
	"button": {
		"disabled": "boolean",
	},
	"fieldset": {
		"disabled": "boolean",
	},
	"optgroup": {
		"disabled": "boolean",
	},
	"img": {
		"src":    "string",
		"alt":    "string",
		"width":  "number",
		"height": "number",
	},
	"a": {
		"href":   "string",
		"target": "string",
	},
	"progress": {
		"value": "number",
		"max":   "number",
	},
	"meter": {
		"value": "number",
		"min":   "number",
		"max":   "number",
	},
	"details": {
		"open": "boolean",
	},
	"video": {
		"src":      "string",
		"controls": "boolean",
		"autoplay": "boolean",
		"loop":     "boolean",
		"muted":    "boolean",
	},
	"audio": {
		"src":      "string",
		"controls": "boolean",
		"autoplay": "boolean",
		"loop":     "boolean",
		"muted":    "boolean",
	},
}

// Lookup returns the DOM property type expected for attr on a tag element,
// if known. The tag is always matched case-insensitively (HTML tag names
// are conventionally lowercase in templates), but attr is tried verbatim
// before falling back to its lowercased form — so a future camelCase DOM
// property name (e.g. an SVG attribute) added to the table is not shadowed
// by an earlier, differently-cased entry.
func Lookup(tag, attr string) (string, bool) {
	attrs, ok := table[strings.ToLower(tag)]
	if !ok {
		return "", false
	}
	if ty, ok := attrs[attr]; ok {
		return ty, true
	}
	ty, ok := attrs[strings.ToLower(attr)]
	return ty, ok
}

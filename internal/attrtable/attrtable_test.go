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

package attrtable

import "testing"

func TestLookupKnownAttribute(t *testing.T) {
	ty, ok := Lookup("input", "checked")
	if !ok || ty != "boolean" {
		t.Fatalf("Lookup(input, checked) = %q, %v; want boolean, true", ty, ok)
	}
}

func TestLookupUnknownTagMisses(t *testing.T) {
	if _, ok := Lookup("marquee", "checked"); ok {
		t.Fatalf("expected a miss for an unlisted tag")
	}
}

func TestLookupUnknownAttributeMisses(t *testing.T) {
	if _, ok := Lookup("input", "frobnicate"); ok {
		t.Fatalf("expected a miss for an unlisted attribute")
	}
}

func TestLookupTagIsCaseInsensitive(t *testing.T) {
	ty, ok := Lookup("INPUT", "value")
	if !ok || ty != "string" {
		t.Fatalf("Lookup(INPUT, value) = %q, %v; want string, true", ty, ok)
	}
}

func TestLookupTriesAttrVerbatimBeforeLowercasing(t *testing.T) {
	ty, ok := Lookup("input", "readOnly")
	if !ok || ty != "boolean" {
		t.Fatalf("Lookup(input, readOnly) = %q, %v; want boolean, true", ty, ok)
	}
}

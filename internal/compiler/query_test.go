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

	"vegen.dev/compiler/internal/exprparser"
)

func TestSortedDependenciesDedupesAndSorts(t *testing.T) {
	tests := []struct {
		name string
		expr string
		want []string
	}{
		{
			name: "single variable",
			expr: "count",
			want: []string{"count"},
		},
		{
			name: "dotted field path",
			expr: "user.name",
			want: []string{"user.name"},
		},
		{
			name: "sorted and deduped across a call",
			expr: `f(zebra, apple, zebra)`,
			want: []string{"apple", "f", "zebra"},
		},
		{
			name: "string template interpolations",
			expr: `"{b} and {a}"`,
			want: []string{"a", "b"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e, err := exprparser.ParseAll(tt.expr, 1)
			if err != nil {
				t.Fatalf("ParseAll(%q) failed: %v", tt.expr, err)
			}
			got := sortedDependencies(e)
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Fatalf("sortedDependencies(%q) mismatch (-want +got):\n%s", tt.expr, diff)
			}
		})
	}
}

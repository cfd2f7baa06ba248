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

package loader

import "testing"

func TestTopoSortOrdersNodesWithoutCycles(t *testing.T) {
	deps := map[string][]string{
		"A": nil,
		"B": {"A"},
		"C": {"B"},
	}
	order, cyc := topoSort(deps)
	if cyc != nil {
		t.Fatalf("unexpected cycle: %v", cyc.nodes)
	}
	want := []string{"A", "B", "C"}
	if len(order) != len(want) {
		t.Fatalf("got %v, want %v", order, want)
	}
	for i := range want {
		if order[i] != want[i] {
			t.Fatalf("got %v, want %v", order, want)
		}
	}
}

func TestTopoSortDetectsCycles(t *testing.T) {
	deps := map[string][]string{
		"A": {"B"},
		"B": {"A"},
	}
	_, cyc := topoSort(deps)
	if cyc == nil {
		t.Fatalf("expected a cycle")
	}
	if len(cyc.nodes) < 2 {
		t.Fatalf("expected at least 2 nodes, got %v", cyc.nodes)
	}
	if cyc.nodes[0] != cyc.nodes[len(cyc.nodes)-1] {
		t.Fatalf("expected cycle to start and end at the same node, got %v", cyc.nodes)
	}
	var sawA, sawB bool
	for _, n := range cyc.nodes {
		sawA = sawA || n == "A"
		sawB = sawB || n == "B"
	}
	if !sawA || !sawB {
		t.Fatalf("expected cycle to contain A and B, got %v", cyc.nodes)
	}
}

func TestCycleFromStackReturnsSuffixStartingAtRepeat(t *testing.T) {
	stack := []string{"root", "a", "b"}
	got := cycleFromStack(stack, "a")
	want := []string{"a", "b", "a"}
	if len(got) != len(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("got %v, want %v", got, want)
		}
	}
}

func TestTopoSortIncludesDependencyOnlyNodes(t *testing.T) {
	deps := map[string][]string{
		"A": {"B"},
	}
	order, cyc := topoSort(deps)
	if cyc != nil {
		t.Fatalf("unexpected cycle: %v", cyc.nodes)
	}
	if len(order) != 2 {
		t.Fatalf("expected B to be included even though it has no deps entry, got %v", order)
	}
	if order[0] != "B" || order[1] != "A" {
		t.Fatalf("expected [B A], got %v", order)
	}
}

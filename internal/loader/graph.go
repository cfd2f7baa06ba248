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

import "sort"

// cycle is the ordered list of nodes forming a dependency cycle, starting
// and ending at the repeated node.
type cycle struct {
	nodes []string
}

// cycleFromStack builds a cycle from the suffix of stack starting at the
// first occurrence of repeated, with repeated appended again to close the
// loop. If repeated does not appear on stack, the whole stack is used.
func cycleFromStack(stack []string, repeated string) []string {
	c := append(append([]string{}, stack...), repeated)
	for i, n := range stack {
		if n == repeated {
			return c[i:]
		}
	}
	return c
}

type visitState int

const (
	unvisited visitState = iota
	visiting
	visited
)

// topoSort orders the keys of deps so that every node appears after all of
// the nodes it depends on, breaking ties lexicographically so the result is
// deterministic across runs (language spec ordering guarantee #2). A node
// referenced only as a dependency, and not itself a key of deps, is still
// included in the result.
func topoSort(deps map[string][]string) ([]string, *cycle) {
	order := make([]string, 0, len(deps))
	state := make(map[string]visitState, len(deps))
	var stack []string

	nodes := make([]string, 0, len(deps))
	for k := range deps {
		nodes = append(nodes, k)
	}
	sort.Strings(nodes)

	for _, n := range nodes {
		if c := topoVisit(n, deps, state, &stack, &order); c != nil {
			return nil, c
		}
	}
	return order, nil
}

func topoVisit(node string, deps map[string][]string, state map[string]visitState, stack *[]string, order *[]string) *cycle {
	switch state[node] {
	case visited:
		return nil
	case visiting:
		start := 0
		for i, n := range *stack {
			if n == node {
				start = i
				break
			}
		}
		nodes := append(append([]string{}, (*stack)[start:]...), node)
		return &cycle{nodes: nodes}
	}

	state[node] = visiting
	*stack = append(*stack, node)

	children := append([]string{}, deps[node]...)
	sort.Strings(children)
	for _, c := range children {
		if cyc := topoVisit(c, deps, state, stack, order); cyc != nil {
			return cyc
		}
	}

	state[node] = visited
	*stack = (*stack)[:len(*stack)-1]
	*order = append(*order, node)
	return nil
}

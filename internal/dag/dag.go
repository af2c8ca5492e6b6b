// Package dag builds and validates the dependency graph over prompts: one
// node per prompt, edges from each prompt to the imports it declares, and a
// deterministic topological order used by the pipeline.
package dag

import (
	"fmt"
	"sort"
	"strings"

	"github.com/clintonboys/lit/internal/errs"
	"github.com/clintonboys/lit/internal/prompt"
)

// Node is a single prompt's position in the graph.
type Node struct {
	Path       string
	Imports    []string
	Dependents []string
	Outputs    []string
}

// Dag is the validated, topologically ordered dependency graph.
type Dag struct {
	nodes map[string]*Node
	order []string
}

// Build indexes prompts, validates import closure and output uniqueness,
// and computes a deterministic topological order.
func Build(prompts []*prompt.Prompt) (*Dag, error) {
	nodes := make(map[string]*Node, len(prompts))
	for _, p := range prompts {
		nodes[p.Path] = &Node{
			Path:    p.Path,
			Imports: append([]string(nil), p.Imports...),
			Outputs: append([]string(nil), p.Outputs...),
		}
	}

	// Reverse edges.
	for path, n := range nodes {
		for _, imp := range n.Imports {
			if target, ok := nodes[imp]; ok {
				target.Dependents = append(target.Dependents, path)
			}
		}
	}
	for _, n := range nodes {
		sort.Strings(n.Dependents)
	}

	if missing := findMissingImports(nodes); len(missing) > 0 {
		return nil, &errs.MissingImports{Pairs: missing}
	}

	if conflicts := findOutputConflicts(nodes); len(conflicts) > 0 {
		return nil, &errs.OutputConflicts{Conflicts: conflicts}
	}

	order, err := topologicalSort(nodes)
	if err != nil {
		return nil, err
	}

	return &Dag{nodes: nodes, order: order}, nil
}

func findMissingImports(nodes map[string]*Node) []string {
	var pairs []string
	for path, n := range nodes {
		for _, imp := range n.Imports {
			if _, ok := nodes[imp]; !ok {
				pairs = append(pairs, fmt.Sprintf("%s imports %s (not found)", path, imp))
			}
		}
	}
	sort.Strings(pairs)
	return pairs
}

func findOutputConflicts(nodes map[string]*Node) map[string][]string {
	claimants := make(map[string][]string)
	for path, n := range nodes {
		for _, out := range n.Outputs {
			claimants[out] = append(claimants[out], path)
		}
	}
	conflicts := make(map[string][]string)
	for out, paths := range claimants {
		if len(paths) > 1 {
			sort.Strings(paths)
			conflicts[out] = paths
		}
	}
	if len(conflicts) == 0 {
		return nil
	}
	return conflicts
}

// topologicalSort runs Kahn's algorithm with lexicographic tie-breaking
// among nodes of equal in-degree, for determinism across runs.
func topologicalSort(nodes map[string]*Node) ([]string, error) {
	inDegree := make(map[string]int, len(nodes))
	for path, n := range nodes {
		count := 0
		for _, imp := range n.Imports {
			if _, ok := nodes[imp]; ok {
				count++
			}
		}
		inDegree[path] = count
	}

	var queue []string
	for path, deg := range inDegree {
		if deg == 0 {
			queue = append(queue, path)
		}
	}
	sort.Strings(queue)

	var order []string
	for len(queue) > 0 {
		path := queue[0]
		queue = queue[1:]
		order = append(order, path)

		var newlyZero []string
		for _, dep := range nodes[path].Dependents {
			inDegree[dep]--
			if inDegree[dep] == 0 {
				newlyZero = append(newlyZero, dep)
			}
		}
		sort.Strings(newlyZero)
		queue = append(queue, newlyZero...)
		sort.Strings(queue)
	}

	if len(order) != len(nodes) {
		cycle := findCycle(nodes, order)
		return nil, &errs.Cycle{Path: cycle}
	}

	return order, nil
}

// findCycle does a DFS from the first unresolved node (in sorted order),
// tracking the current path stack, and returns the stack suffix starting
// at the first revisited node, with that node repeated at the end to close
// the loop.
func findCycle(nodes map[string]*Node, resolved []string) []string {
	resolvedSet := make(map[string]bool, len(resolved))
	for _, p := range resolved {
		resolvedSet[p] = true
	}

	var remaining []string
	for path := range nodes {
		if !resolvedSet[path] {
			remaining = append(remaining, path)
		}
	}
	sort.Strings(remaining)

	visited := make(map[string]bool)
	onStack := make(map[string]bool)
	var stack []string

	var visit func(path string) []string
	visit = func(path string) []string {
		visited[path] = true
		onStack[path] = true
		stack = append(stack, path)

		imports := append([]string(nil), nodes[path].Imports...)
		sort.Strings(imports)
		for _, imp := range imports {
			if _, ok := nodes[imp]; !ok || resolvedSet[imp] {
				continue
			}
			if onStack[imp] {
				// Found the cycle: the stack suffix from imp's position.
				for i, p := range stack {
					if p == imp {
						return append(append([]string(nil), stack[i:]...), imp)
					}
				}
			}
			if !visited[imp] {
				if found := visit(imp); found != nil {
					return found
				}
			}
		}

		stack = stack[:len(stack)-1]
		onStack[path] = false
		return nil
	}

	for _, path := range remaining {
		if !visited[path] {
			if found := visit(path); found != nil {
				return found
			}
		}
	}
	return remaining
}

// Order returns the topologically sorted sequence of prompt paths.
func (d *Dag) Order() []string {
	return append([]string(nil), d.order...)
}

// Get returns the node for path, or nil if absent.
func (d *Dag) Get(path string) *Node {
	return d.nodes[path]
}

// Nodes returns the full node map (not copied; callers must not mutate it).
func (d *Dag) Nodes() map[string]*Node {
	return d.nodes
}

// Len returns the number of nodes.
func (d *Dag) Len() int {
	return len(d.nodes)
}

// IsEmpty reports whether the DAG has zero nodes.
func (d *Dag) IsEmpty() bool {
	return len(d.nodes) == 0
}

// Roots returns every node with no imports, sorted.
func (d *Dag) Roots() []string {
	var roots []string
	for path, n := range d.nodes {
		if len(n.Imports) == 0 {
			roots = append(roots, path)
		}
	}
	sort.Strings(roots)
	return roots
}

// Leaves returns every node with no dependents, sorted.
func (d *Dag) Leaves() []string {
	var leaves []string
	for path, n := range d.nodes {
		if len(n.Dependents) == 0 {
			leaves = append(leaves, path)
		}
	}
	sort.Strings(leaves)
	return leaves
}

// RegenerationSet computes the transitive closure of dependents of changed,
// including changed paths that exist in the graph, returned in topological
// order. Paths in changed that are not in the graph are silently ignored.
func (d *Dag) RegenerationSet(changed []string) []string {
	inSet := make(map[string]bool)
	var queue []string
	for _, c := range changed {
		if _, ok := d.nodes[c]; ok && !inSet[c] {
			inSet[c] = true
			queue = append(queue, c)
		}
	}

	for len(queue) > 0 {
		path := queue[0]
		queue = queue[1:]
		deps := append([]string(nil), d.nodes[path].Dependents...)
		sort.Strings(deps)
		for _, dep := range deps {
			if !inSet[dep] {
				inSet[dep] = true
				queue = append(queue, dep)
			}
		}
	}

	var result []string
	for _, path := range d.order {
		if inSet[path] {
			result = append(result, path)
		}
	}
	return result
}

// String renders the DAG in generation order, matching the original
// implementation's display format.
func (d *Dag) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "DAG (%d nodes)\nGeneration order:\n", len(d.nodes))
	for i, path := range d.order {
		fmt.Fprintf(&b, "  %d. %s\n", i+1, path)
	}
	return b.String()
}

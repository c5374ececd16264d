package model

import (
	"fmt"
	"sort"
	"strings"
)

// color represents the state of a node during DFS cycle detection.
type color int

const (
	white color = iota // unvisited
	gray               // in current DFS path (cycle if revisited)
	black              // fully processed
)

// DetectCycles checks the belongsTo relation graph for cycles across models.
// Nodes are model names; an edge A -> B means A belongsTo B.
//
// Self-references (a model belonging to itself, e.g. a Category with a
// parent Category) are valid hierarchical patterns and are exempt. Only
// cycles spanning two or more distinct models are rejected.
//
// Example cyclic snapshot that would be detected:
//
//	model Invoice  { order: belongsTo Order }
//	model Order    { invoice: belongsTo Invoice }  // CYCLE: Invoice <-> Order
func DetectCycles(models []Definition) error {
	graph := make(map[string][]string)
	for i := range models {
		m := &models[i]
		for _, rel := range m.Relations {
			if rel.Kind != BelongsTo {
				continue
			}
			if rel.Target == m.Name {
				continue // self-reference, hierarchical by design
			}
			graph[m.Name] = append(graph[m.Name], rel.Target)
		}
	}

	if cycle := detectCycleInGraph(graph); cycle != nil {
		return fmt.Errorf("%w: %s", ErrCyclicRelations, formatCycle(cycle))
	}
	return nil
}

// detectCycleInGraph uses DFS with three-color marking to detect cycles.
// Returns the cycle path if found, nil otherwise. Roots are visited in
// sorted order so the reported cycle is deterministic.
func detectCycleInGraph(graph map[string][]string) []string {
	colors := make(map[string]color)
	parent := make(map[string]string)

	var dfs func(n string) []string
	dfs = func(n string) []string {
		colors[n] = gray

		for _, neighbor := range graph[n] {
			switch colors[neighbor] {
			case gray:
				// Found cycle - reconstruct path
				return reconstructCycle(n, neighbor, parent)
			case white:
				parent[neighbor] = n
				if cycle := dfs(neighbor); cycle != nil {
					return cycle
				}
			}
		}

		colors[n] = black
		return nil
	}

	roots := make([]string, 0, len(graph))
	for n := range graph {
		roots = append(roots, n)
	}
	sort.Strings(roots)

	for _, n := range roots {
		if colors[n] == white {
			if cycle := dfs(n); cycle != nil {
				return cycle
			}
		}
	}

	return nil
}

// reconstructCycle builds the cycle path from parent pointers.
// from is the node where we detected the back-edge, to is the node we're
// returning to.
func reconstructCycle(from, to string, parent map[string]string) []string {
	cycle := []string{to}
	for n := from; n != to; n = parent[n] {
		cycle = append([]string{n}, cycle...)
	}
	cycle = append([]string{to}, cycle...)
	return cycle
}

// formatCycle renders a cycle path, e.g. "Invoice -> Order -> Invoice".
func formatCycle(cycle []string) string {
	return strings.Join(cycle, " -> ")
}

package pipeline

import (
	"fmt"

	"github.com/kbukum/mediagraph/element"
)

// edge is a data flow dependency: To consumes what From produces.
type edge struct {
	From element.ID
	To   element.ID
}

// buildLevels groups nodes by distance from the sources using Kahn's
// algorithm. Level 0 holds the elements nothing flows into. Within a level
// nodes keep the order of the input slice. A cycle is an error.
func buildLevels(nodes []element.ID, edges []edge) ([][]element.ID, error) {
	index := make(map[element.ID]int, len(nodes))
	for i, id := range nodes {
		index[id] = i
	}

	inDegree := make(map[element.ID]int, len(nodes))
	dependents := make(map[element.ID][]element.ID)
	for _, e := range edges {
		if _, ok := index[e.From]; !ok {
			return nil, fmt.Errorf("pipeline: edge references unknown element %d", e.From)
		}
		if _, ok := index[e.To]; !ok {
			return nil, fmt.Errorf("pipeline: edge references unknown element %d", e.To)
		}
		inDegree[e.To]++
		dependents[e.From] = append(dependents[e.From], e.To)
	}

	var queue []element.ID
	for _, id := range nodes {
		if inDegree[id] == 0 {
			queue = append(queue, id)
		}
	}

	var levels [][]element.ID
	visited := 0
	for len(queue) > 0 {
		levels = append(levels, queue)
		visited += len(queue)

		ready := make(map[element.ID]bool)
		for _, id := range queue {
			for _, dep := range dependents[id] {
				inDegree[dep]--
				if inDegree[dep] == 0 {
					ready[dep] = true
				}
			}
		}
		var next []element.ID
		for _, id := range nodes {
			if ready[id] {
				next = append(next, id)
			}
		}
		queue = next
	}

	if visited != len(nodes) {
		return nil, fmt.Errorf("pipeline: cycle detected, ordered %d of %d elements", visited, len(nodes))
	}
	return levels, nil
}

// sinksFirst flattens the levels from the most downstream one up.
func sinksFirst(levels [][]element.ID) []element.ID {
	var order []element.ID
	for i := len(levels) - 1; i >= 0; i-- {
		order = append(order, levels[i]...)
	}
	return order
}

// reaches reports whether to is downstream of from.
func reaches(edges []edge, from, to element.ID) bool {
	next := make(map[element.ID][]element.ID)
	for _, e := range edges {
		next[e.From] = append(next[e.From], e.To)
	}
	seen := map[element.ID]bool{from: true}
	stack := []element.ID{from}
	for len(stack) > 0 {
		id := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if id == to {
			return true
		}
		for _, n := range next[id] {
			if !seen[n] {
				seen[n] = true
				stack = append(stack, n)
			}
		}
	}
	return false
}

package graph

import (
	"github.com/oleiade/lane"

	W "github.com/cs-au-dk/dfa/utils/worklist"
)

type traversalFunc[T any] func(node T) (stop bool)

// Performs a breadth-first search from the provided start nodes, calling the
// provided function (f) for every reachable node, stopping early if f returns
// true.
// Returns whether the search stopped early (as a result of f returning true).
func (G Graph[T]) BFSV(f traversalFunc[T], starts ...T) bool {
	visited := G.mapFactory()
	for _, start := range starts {
		visited.Set(start, true)
	}

	done := false
	W.StartV(starts, func(node T, add func(T)) {
		if done || f(node) {
			done = true
			return
		}

		for _, next := range G.Edges(node) {
			if _, found := visited.Get(next); !found {
				visited.Set(next, true)
				add(next)
			}
		}
	})

	return done
}

// Performs a breadth-first search from the provided start node, calling the
// provided function (f) for every reachable node, stopping early if f returns
// true.
// Returns whether the search stopped early (as a result of f returning true).
func (G Graph[T]) BFS(start T, f traversalFunc[T]) bool {
	return G.BFSV(f, start)
}

// PostOrder lists the nodes reachable from root in depth-first post-order.
// Edges are explored in the order they are provided, so the result is
// deterministic.
func (G Graph[T]) PostOrder(root T) (order []T) {
	visited := G.mapFactory()
	visited.Set(root, true)

	st := lane.NewStack()
	st.Push(root)

	/* scan until the stack is empty */
	for !st.Empty() {
		tail := true
		node := st.Head().(T)

		/* descend into the first unvisited successor */
		for _, next := range G.Edges(node) {
			if _, seen := visited.Get(next); !seen {
				tail = false
				visited.Set(next, true)
				st.Push(next)
				break
			}
		}

		/* all the successors are visited, pop the current node */
		if tail {
			order = append(order, st.Pop().(T))
		}
	}

	return
}

// ReversePostOrder lists the nodes reachable from root in reverse post-order.
func (G Graph[T]) ReversePostOrder(root T) []T {
	order := G.PostOrder(root)
	for i, j := 0, len(order)-1; i < j; i, j = i+1, j-1 {
		order[i], order[j] = order[j], order[i]
	}
	return order
}

package graph

import "fmt"

// DominatorTree is the dominator tree of the nodes reachable from a root.
type DominatorTree[T any] struct {
	order []T
	// postorderTime maps nodes to their index in order.
	postorderTime Mapper[T]
	// doms[i] is the post-order index of the immediate dominator of order[i].
	doms []int
}

// Source: https://www.cs.rice.edu/~keith/EMBED/dom.pdf

func (G Graph[T]) DominatorTree(root T) DominatorTree[T] {
	postorderTime := G.mapFactory()
	pred := G.mapFactory()

	// Compute DFS post-order ordering
	order := G.PostOrder(root)
	for i, node := range order {
		postorderTime.Set(node, i)
	}
	for _, node := range order {
		for _, e := range G.Edges(node) {
			var preds []T
			if predsItf, found := pred.Get(e); found {
				preds = predsItf.([]T)
			}

			pred.Set(e, append(preds, node))
		}
	}

	time := len(order)

	// Initialize doms to "Undefined"
	doms := make([]int, time)
	for i := 0; i < time; i++ {
		doms[i] = -1
	}
	doms[time-1] = time - 1

	dt := DominatorTree[T]{order, postorderTime, doms}

	for {
		changed := false

		// Process nodes in reverse post-order (except for root)
		for i := time - 2; i >= 0; i-- {
			node := order[i]

			newIdom := -1
			predsItf, _ := pred.Get(node)

			for _, predecessor := range predsItf.([]T) {
				jItf, _ := postorderTime.Get(predecessor)
				j := jItf.(int)

				if doms[j] != -1 {
					if newIdom == -1 {
						newIdom = j
					} else {
						newIdom = dt.intersect(j, newIdom)
					}
				}
			}

			if newIdom != doms[i] {
				doms[i] = newIdom
				changed = true
			}
		}

		if !changed {
			break
		}
	}

	return dt
}

func (dt DominatorTree[T]) intersect(a, b int) int {
	for a != b {
		if a < b {
			a = dt.doms[a]
		} else {
			b = dt.doms[b]
		}
	}
	return a
}

func (dt DominatorTree[T]) index(node T) int {
	iItf, found := dt.postorderTime.Get(node)
	if !found {
		panic(fmt.Errorf("%v was not reachable when computing the dominator tree", node))
	}
	return iItf.(int)
}

// Reachable holds if the node was reachable from the root.
func (dt DominatorTree[T]) Reachable(node T) bool {
	_, found := dt.postorderTime.Get(node)
	return found
}

// Idom retrieves the immediate dominator of a node. The root has none.
func (dt DominatorTree[T]) Idom(node T) (idom T, ok bool) {
	i := dt.index(node)
	if i == len(dt.order)-1 {
		return
	}
	return dt.order[dt.doms[i]], true
}

// Dominates holds if a dominates b. Every node dominates itself.
func (dt DominatorTree[T]) Dominates(a, b T) bool {
	i, j := dt.index(a), dt.index(b)
	return dt.intersect(i, j) == i
}

// Common computes the nearest common dominator of the given nodes.
func (dt DominatorTree[T]) Common(nodes ...T) T {
	if len(nodes) == 0 {
		panic("Empty list of nodes for dominator computation")
	}

	dom := -1
	for _, node := range nodes {
		i := dt.index(node)
		if dom == -1 {
			dom = i
		} else {
			dom = dt.intersect(i, dom)
		}
	}

	return dt.order[dom]
}

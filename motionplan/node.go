package motionplan

import (
	"github.com/switchyard-robotics/geoplan/statespace"
)

// noParent marks the root node's parent handle.
const noParent = -1

// treeNode wraps a state stored in the tree arena. Ownership flows root-down
// through parent handles; the children set is only a back-reference used to
// propagate cost updates after rewiring.
type treeNode struct {
	state    statespace.State
	parent   int
	cost     float64
	children map[int]struct{}
}

// nodeArena owns every node of a planner's tree, indexed by integer handle.
// Handles stay valid until clear; parent links are rewritten in place during
// rewiring so no node is ever moved or destroyed mid-solve.
type nodeArena struct {
	nodes []*treeNode
}

func newNodeArena() *nodeArena {
	return &nodeArena{}
}

// add appends a node and links it under parent. The root is added with noParent.
func (a *nodeArena) add(state statespace.State, parent int, cost float64) int {
	id := len(a.nodes)
	a.nodes = append(a.nodes, &treeNode{
		state:    state,
		parent:   parent,
		cost:     cost,
		children: map[int]struct{}{},
	})
	if parent != noParent {
		a.nodes[parent].children[id] = struct{}{}
	}
	return id
}

func (a *nodeArena) node(id int) *treeNode {
	return a.nodes[id]
}

func (a *nodeArena) len() int {
	return len(a.nodes)
}

// rewire re-parents id under newParent with the given new cost-from-root,
// propagating the cost change through id's whole subtree. Detach and attach
// happen as one step; the strictly-lower-cost requirement enforced by callers,
// together with non-negative edge costs, means newParent can never lie inside
// id's subtree, so no cycle can form.
func (a *nodeArena) rewire(id, newParent int, newCost float64) {
	n := a.nodes[id]
	if n.parent != noParent {
		delete(a.nodes[n.parent].children, id)
	}
	n.parent = newParent
	a.nodes[newParent].children[id] = struct{}{}

	delta := newCost - n.cost
	a.propagateCostDelta(id, delta)
}

// propagateCostDelta adds delta to the cost of id and every node below it.
func (a *nodeArena) propagateCostDelta(id int, delta float64) {
	stack := []int{id}
	for len(stack) > 0 {
		cur := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		a.nodes[cur].cost += delta
		for child := range a.nodes[cur].children {
			stack = append(stack, child)
		}
	}
}

// pathToRoot returns the states from the root down to id, in root-first order.
func (a *nodeArena) pathToRoot(id int) []statespace.State {
	var states []statespace.State
	for cur := id; cur != noParent; cur = a.nodes[cur].parent {
		states = append(states, a.nodes[cur].state)
	}
	for i, j := 0, len(states)-1; i < j; i, j = i+1, j-1 {
		states[i], states[j] = states[j], states[i]
	}
	return states
}

func (a *nodeArena) clear() {
	a.nodes = nil
}

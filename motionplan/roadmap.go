package motionplan

import (
	"container/heap"
	"math"

	"github.com/switchyard-robotics/geoplan/statespace"
)

// roadmapEdge is a weighted connection to another roadmap vertex.
type roadmapEdge struct {
	to   int
	cost float64
}

// roadmap is an undirected weighted graph over sampled states. Vertices are
// only ever added, so vertex IDs are stable across Solve calls.
type roadmap struct {
	vertices  []statespace.State
	adjacency [][]roadmapEdge
}

func newRoadmap() *roadmap {
	return &roadmap{}
}

func (g *roadmap) len() int {
	return len(g.vertices)
}

func (g *roadmap) vertex(id int) statespace.State {
	return g.vertices[id]
}

func (g *roadmap) addVertex(s statespace.State) int {
	g.vertices = append(g.vertices, s)
	g.adjacency = append(g.adjacency, nil)
	return len(g.vertices) - 1
}

func (g *roadmap) addEdge(a, b int, cost float64) {
	if a == b || g.hasEdge(a, b) {
		return
	}
	g.adjacency[a] = append(g.adjacency[a], roadmapEdge{to: b, cost: cost})
	g.adjacency[b] = append(g.adjacency[b], roadmapEdge{to: a, cost: cost})
}

func (g *roadmap) hasEdge(a, b int) bool {
	for _, e := range g.adjacency[a] {
		if e.to == b {
			return true
		}
	}
	return false
}

func (g *roadmap) clear() {
	g.vertices = nil
	g.adjacency = nil
}

// searchItem is a frontier entry in the A* priority queue.
type searchItem struct {
	vertex   int
	priority float64
	index    int
}

type searchQueue []*searchItem

func (q searchQueue) Len() int            { return len(q) }
func (q searchQueue) Less(i, j int) bool  { return q[i].priority < q[j].priority }
func (q searchQueue) Swap(i, j int)       { q[i], q[j] = q[j], q[i]; q[i].index = i; q[j].index = j }
func (q *searchQueue) Push(x interface{}) {
	item := x.(*searchItem)
	item.index = len(*q)
	*q = append(*q, item)
}
func (q *searchQueue) Pop() interface{} {
	old := *q
	n := len(old)
	item := old[n-1]
	old[n-1] = nil
	*q = old[:n-1]
	return item
}

// shortestPath runs A* from one vertex to another using the given heuristic to
// the goal state. It returns the vertex sequence and its cost, or false when
// the vertices are disconnected.
func (g *roadmap) shortestPath(from, to int, heuristic func(statespace.State) float64) ([]int, float64, bool) {
	costSoFar := make(map[int]float64, g.len())
	cameFrom := make(map[int]int, g.len())
	costSoFar[from] = 0

	frontier := &searchQueue{}
	heap.Init(frontier)
	heap.Push(frontier, &searchItem{vertex: from, priority: heuristic(g.vertex(from))})

	for frontier.Len() > 0 {
		current := heap.Pop(frontier).(*searchItem).vertex
		if current == to {
			return g.reconstruct(cameFrom, from, to), costSoFar[to], true
		}
		for _, edge := range g.adjacency[current] {
			next := costSoFar[current] + edge.cost
			if prev, seen := costSoFar[edge.to]; !seen || next < prev {
				costSoFar[edge.to] = next
				cameFrom[edge.to] = current
				heap.Push(frontier, &searchItem{vertex: edge.to, priority: next + heuristic(g.vertex(edge.to))})
			}
		}
	}
	return nil, math.Inf(1), false
}

func (g *roadmap) reconstruct(cameFrom map[int]int, from, to int) []int {
	path := []int{to}
	for path[len(path)-1] != from {
		path = append(path, cameFrom[path[len(path)-1]])
	}
	for i, j := 0, len(path)-1; i < j; i, j = i+1, j-1 {
		path[i], path[j] = path[j], path[i]
	}
	return path
}

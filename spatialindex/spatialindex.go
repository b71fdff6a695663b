// Package spatialindex provides an incremental nearest-neighbor index over
// configuration-space states, backed by an R-tree.
package spatialindex

import (
	"math"
	"sort"

	"github.com/dhconnelly/rtreego"
	"github.com/pkg/errors"

	"github.com/switchyard-robotics/geoplan/statespace"
)

const (
	// R-tree branching factors.
	minBranch = 25
	maxBranch = 50

	// States are stored as near-degenerate rectangles.
	pointTolerance = 1e-9
)

// Neighbor is a state returned from a proximity query, along with the caller-assigned
// id it was inserted under and its distance to the query state.
type Neighbor struct {
	ID    int
	State statespace.State
	Dist  float64
}

type entry struct {
	id     int
	state  statespace.State
	bounds rtreego.Rect
}

func (e *entry) Bounds() rtreego.Rect {
	return e.bounds
}

// Index answers nearest and near queries over a growing set of states. Insertion is
// incremental; the tree is never rebuilt.
type Index struct {
	space statespace.Space
	tree  *rtreego.Rtree
	count int
}

// NewIndex creates an empty index over the given space.
func NewIndex(space statespace.Space) *Index {
	return &Index{
		space: space,
		tree:  rtreego.NewTree(space.Dimension(), minBranch, maxBranch),
	}
}

// Insert adds a state under the given id. The id is opaque to the index and returned
// verbatim from queries so callers can map states back to their own structures.
func (ix *Index) Insert(id int, s statespace.State) error {
	if len(s) != ix.space.Dimension() {
		return errors.Errorf("state has dimension %d, index expects %d", len(s), ix.space.Dimension())
	}
	ix.tree.Insert(&entry{
		id:     id,
		state:  s,
		bounds: rtreego.Point(s).ToRect(pointTolerance),
	})
	ix.count++
	return nil
}

// Nearest returns the stored state closest to the query, if any. Distance ties may
// return any of the tied states.
func (ix *Index) Nearest(q statespace.State) (Neighbor, bool) {
	if ix.count == 0 {
		return Neighbor{}, false
	}
	found := ix.tree.NearestNeighbor(rtreego.Point(q))
	if found == nil {
		return Neighbor{}, false
	}
	e := found.(*entry)
	return Neighbor{ID: e.id, State: e.state, Dist: ix.space.Distance(q, e.state)}, true
}

// Near returns all stored states within radius of the query, sorted by increasing
// distance so iteration order is deterministic.
func (ix *Index) Near(q statespace.State, radius float64) []Neighbor {
	if ix.count == 0 || radius <= 0 {
		return nil
	}
	// The R-tree prunes by bounding box; filter the candidates by true metric distance.
	candidates := ix.tree.SearchIntersect(rtreego.Point(q).ToRect(radius))
	neighbors := make([]Neighbor, 0, len(candidates))
	for _, c := range candidates {
		e := c.(*entry)
		if d := ix.space.Distance(q, e.state); d <= radius {
			neighbors = append(neighbors, Neighbor{ID: e.id, State: e.state, Dist: d})
		}
	}
	sort.Slice(neighbors, func(i, j int) bool {
		if neighbors[i].Dist != neighbors[j].Dist {
			return neighbors[i].Dist < neighbors[j].Dist
		}
		return neighbors[i].ID < neighbors[j].ID
	})
	return neighbors
}

// Len returns the number of stored states.
func (ix *Index) Len() int {
	return ix.count
}

// Clear discards all stored states.
func (ix *Index) Clear() {
	ix.tree = rtreego.NewTree(ix.space.Dimension(), minBranch, maxBranch)
	ix.count = 0
}

// StarRadius computes the shrinking connection radius guaranteeing asymptotic
// optimality for RRT*/PRM*-family planners: gamma * (log(n)/n)^(1/d), with gamma
// derived from the measure of the free space. A positive maxRadius caps the result,
// which tree planners use to keep connections within steering range.
func StarRadius(measure float64, dimension, count int, maxRadius float64) float64 {
	if count < 2 {
		if maxRadius > 0 {
			return maxRadius
		}
		return math.Inf(1)
	}
	d := float64(dimension)
	gamma := 2 * math.Pow(1+1/d, 1/d) * math.Pow(measure/unitBallMeasure(dimension), 1/d)
	n := float64(count)
	r := gamma * math.Pow(math.Log(n)/n, 1/d)
	if maxRadius > 0 && r > maxRadius {
		return maxRadius
	}
	return r
}

// unitBallMeasure returns the Lebesgue measure of the unit ball in d dimensions.
func unitBallMeasure(d int) float64 {
	return math.Pow(math.Pi, float64(d)/2) / math.Gamma(float64(d)/2+1)
}

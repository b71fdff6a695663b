package motionplan

import (
	"math"

	"go.uber.org/atomic"

	"github.com/switchyard-robotics/geoplan/statespace"
)

// Objective scores motions and decides when a solution is good enough to stop
// refining. Implementations must return non-negative motion costs and combine
// them associatively and monotonically.
type Objective interface {
	// MotionCost returns the cost of the local motion between two states.
	MotionCost(a, b statespace.State) float64

	// CombineCosts accumulates two costs into one.
	CombineCosts(c1, c2 float64) float64

	// IsSatisfied reports whether a solution of the given cost has met the
	// configured bound, at which point the planner stops refining. With the bound
	// at +Inf nothing ever satisfies, so the planner optimizes for its whole
	// budget; with the bound at the smallest positive value any solution
	// satisfies, which is how "stop at the first solution" mode is expressed.
	IsSatisfied(cost float64) bool

	// SetCostBound replaces the bound. Safe to call between solves on the same
	// problem without resetting the planner.
	SetCostBound(bound float64)

	// CostBound returns the current bound.
	CostBound() float64
}

// pathLengthObjective measures paths by metric length in the space.
type pathLengthObjective struct {
	space statespace.Space
	bound *atomic.Float64
}

// NewPathLengthObjective returns an objective whose motion cost is the space's
// distance metric and whose costs combine by addition. The cost bound starts at
// +Inf, i.e. optimize indefinitely.
func NewPathLengthObjective(space statespace.Space) Objective {
	return &pathLengthObjective{
		space: space,
		bound: atomic.NewFloat64(math.Inf(1)),
	}
}

func (o *pathLengthObjective) MotionCost(a, b statespace.State) float64 {
	return o.space.Distance(a, b)
}

func (o *pathLengthObjective) CombineCosts(c1, c2 float64) float64 {
	return c1 + c2
}

func (o *pathLengthObjective) IsSatisfied(cost float64) bool {
	return cost >= o.bound.Load()
}

func (o *pathLengthObjective) SetCostBound(bound float64) {
	o.bound.Store(bound)
}

func (o *pathLengthObjective) CostBound() float64 {
	return o.bound.Load()
}

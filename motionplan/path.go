package motionplan

import (
	"github.com/switchyard-robotics/geoplan/statespace"
)

// Path is an ordered sequence of states from start to goal with its total cost
// under the objective that produced it. Paths are immutable once built; a better
// solution replaces the whole Path rather than editing it.
type Path struct {
	states []statespace.State
	cost   float64
}

func newPath(states []statespace.State, cost float64) *Path {
	owned := make([]statespace.State, len(states))
	copy(owned, states)
	return &Path{states: owned, cost: cost}
}

// States returns the path's waypoints in order.
func (p *Path) States() []statespace.State {
	out := make([]statespace.State, len(p.states))
	copy(out, p.states)
	return out
}

// Cost returns the total path cost.
func (p *Path) Cost() float64 {
	return p.cost
}

// Len returns the number of waypoints.
func (p *Path) Len() int {
	return len(p.states)
}

// evaluatePath accumulates the cost of consecutive motions under the objective.
func evaluatePath(objective Objective, states []statespace.State) float64 {
	cost := 0.
	for i := 1; i < len(states); i++ {
		cost = objective.CombineCosts(cost, objective.MotionCost(states[i-1], states[i]))
	}
	return cost
}

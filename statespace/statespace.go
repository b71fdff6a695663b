// Package statespace describes bounded continuous configuration spaces for planning.
package statespace

import (
	"math"
	"math/rand"

	"github.com/pkg/errors"
	"go.uber.org/multierr"
	"gonum.org/v1/gonum/floats"
)

// State is a point in a configuration space. States are treated as immutable once
// created; structures that store a State own it and never write through it.
type State []float64

// NewState wraps raw configuration values in a State.
func NewState(values ...float64) State {
	s := make(State, len(values))
	copy(s, values)
	return s
}

// Clone returns a copy of the state that the caller may retain.
func (s State) Clone() State {
	c := make(State, len(s))
	copy(c, s)
	return c
}

// Limit represents the bounds of a single configuration-space dimension.
type Limit struct {
	Min float64
	Max float64
}

// Space defines the domain a planner operates over: its bounds, metric, sampling
// distribution, and local interpolation.
type Space interface {
	// Dimension returns the number of configuration dimensions.
	Dimension() int

	// Limits returns the per-dimension bounds of the space.
	Limits() []Limit

	// Measure returns the Lebesgue measure of the bounded domain. It feeds the
	// shrinking connection-radius rule used by optimal planners.
	Measure() float64

	// Sample draws a state from the space's distribution using the given source.
	Sample(r *rand.Rand) State

	// Distance is a metric over the space: symmetric and obeying the triangle inequality.
	Distance(a, b State) float64

	// Interpolate returns the state the fraction by in [0,1] along the local path
	// from one state to the other. Values outside [0,1] are clamped.
	Interpolate(from, to State, by float64) State

	// Contains reports whether the state lies within the space's bounds.
	Contains(s State) bool
}

// realVectorSpace is a Euclidean box with uniform sampling.
type realVectorSpace struct {
	limits  []Limit
	measure float64
}

// NewRealVectorSpace returns a bounded Euclidean space with the given per-dimension limits.
func NewRealVectorSpace(limits []Limit) (Space, error) {
	if len(limits) == 0 {
		return nil, errors.New("state space must have at least one dimension")
	}
	var err error
	measure := 1.
	for i, l := range limits {
		if l.Max <= l.Min {
			err = multierr.Append(err, errors.Errorf("limit %d is degenerate: [%f, %f]", i, l.Min, l.Max))
			continue
		}
		measure *= l.Max - l.Min
	}
	if err != nil {
		return nil, err
	}
	bounds := make([]Limit, len(limits))
	copy(bounds, limits)
	return &realVectorSpace{limits: bounds, measure: measure}, nil
}

func (space *realVectorSpace) Dimension() int {
	return len(space.limits)
}

func (space *realVectorSpace) Limits() []Limit {
	bounds := make([]Limit, len(space.limits))
	copy(bounds, space.limits)
	return bounds
}

func (space *realVectorSpace) Measure() float64 {
	return space.measure
}

func (space *realVectorSpace) Sample(r *rand.Rand) State {
	s := make(State, len(space.limits))
	for i, l := range space.limits {
		s[i] = l.Min + r.Float64()*(l.Max-l.Min)
	}
	return s
}

func (space *realVectorSpace) Distance(a, b State) float64 {
	if len(a) != len(b) {
		return math.Inf(1)
	}
	return floats.Distance(a, b, 2)
}

func (space *realVectorSpace) Interpolate(from, to State, by float64) State {
	if by < 0 {
		by = 0
	} else if by > 1 {
		by = 1
	}
	s := make(State, len(from))
	for i, f := range from {
		s[i] = f + (to[i]-f)*by
	}
	return s
}

func (space *realVectorSpace) Contains(s State) bool {
	if len(s) != len(space.limits) {
		return false
	}
	for i, v := range s {
		if v < space.limits[i].Min || v > space.limits[i].Max {
			return false
		}
	}
	return true
}

// Package collision provides validity checking for motion planning: the Checker
// interface consumed by planners, a discretized motion validator, and a planar
// circle-field environment.
package collision

import (
	"github.com/pkg/errors"

	"github.com/switchyard-robotics/geoplan/statespace"
)

// Checker decides whether states and local motions are collision-free. Planners
// call these heavily and treat them as side-effect-free, possibly expensive
// predicates; implementations must not retain the states passed in.
type Checker interface {
	IsValid(s statespace.State) bool
	IsMotionValid(from, to statespace.State) bool
}

// discretizedChecker derives motion validity from a point predicate by checking
// interpolated states at a fixed resolution along the motion.
type discretizedChecker struct {
	space      statespace.Space
	valid      func(statespace.State) bool
	resolution float64
}

// NewDiscretizedChecker wraps a point-validity predicate in a Checker whose motion
// checks sample every resolution units of distance along the local path.
func NewDiscretizedChecker(space statespace.Space, valid func(statespace.State) bool, resolution float64) (Checker, error) {
	if space == nil || valid == nil {
		return nil, errors.New("discretized checker requires a space and a validity predicate")
	}
	if resolution <= 0 {
		return nil, errors.Errorf("resolution must be positive, got %f", resolution)
	}
	return &discretizedChecker{space: space, valid: valid, resolution: resolution}, nil
}

func (c *discretizedChecker) IsValid(s statespace.State) bool {
	return c.valid(s)
}

func (c *discretizedChecker) IsMotionValid(from, to statespace.State) bool {
	steps := int(c.space.Distance(from, to)/c.resolution) + 1
	for i := 0; i <= steps; i++ {
		if !c.valid(c.space.Interpolate(from, to, float64(i)/float64(steps))) {
			return false
		}
	}
	return true
}

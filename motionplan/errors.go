package motionplan

import (
	"github.com/pkg/errors"
)

var (
	// ErrSetupIncomplete is returned when Solve is called before the planner has
	// been configured with Setup. This is a programming error, not a recoverable
	// planning failure.
	ErrSetupIncomplete = errors.New("planner setup incomplete: call Setup before Solve")

	// ErrInvalidStartOrGoal is returned when the start or goal state fails the
	// validity check or lies outside the space. The query is unplannable; the
	// caller must choose a different one.
	ErrInvalidStartOrGoal = errors.New("start or goal state is invalid")
)

// Package motionplan is an anytime, asymptotically-optimal sampling-based motion
// planning library. It grows trees (RRT*) or roadmaps (PRM*) over a bounded
// configuration space, refining the best known path for as long as computation
// time is granted.
package motionplan

import (
	"context"
	"time"

	"github.com/benbjohnson/clock"
)

// Status describes the outcome of a solve attempt.
type Status int

const (
	// Invalid means the planner was not in a state where solving is possible.
	Invalid Status = iota
	// Unsolved means the budget ran out before any path was found; the planner's
	// structures are preserved and a later solve may still succeed.
	Unsolved
	// Solved means a path between start and goal is known.
	Solved
)

func (s Status) String() string {
	switch s {
	case Invalid:
		return "Invalid"
	case Unsolved:
		return "Unsolved"
	case Solved:
		return "Solved"
	default:
		return "Unknown"
	}
}

// Planner is the contract shared by the tree and roadmap planners. A planner is
// constructed around a problem definition, validated with Setup, and then driven
// by repeated Solve calls, each of which resumes from the structures the previous
// call left behind. Clear discards those structures entirely; Setup must be called
// again before the next Solve.
type Planner interface {
	// Setup validates the configuration and start/goal states and initializes the
	// planner's internal structures.
	Setup() error

	// Solve runs the planner until the wall-clock budget elapses, the context is
	// cancelled, or the problem's objective declares the best known solution
	// satisfactory. All internal state survives the return.
	Solve(ctx context.Context, budget time.Duration) (Status, error)

	// Clear atomically discards the planner's tree or roadmap and returns it to
	// the uninitialized state. The problem definition is untouched.
	Clear()

	// BestPath returns the best solution recorded so far, or nil.
	BestPath() *Path
}

type solveResult struct {
	status Status
	err    error
}

// solveLoop drives a planner's per-iteration step until the budget elapses, the
// context is cancelled, the iteration cap is hit, or the best known solution
// satisfies the objective. The step callback must leave the planner's structures
// consistent every time it returns; this is the suspension boundary cancellation
// is allowed to observe.
func solveLoop(
	ctx context.Context,
	clk clock.Clock,
	budget time.Duration,
	maxIterations int,
	problem *ProblemDef,
	step func(),
) *solveResult {
	deadline := clk.Now().Add(budget)
	for iteration := 0; ; iteration++ {
		if err := ctx.Err(); err != nil {
			return &solveResult{status: solutionStatus(problem), err: err}
		}
		if best := problem.BestPath(); best != nil && problem.Objective().IsSatisfied(best.Cost()) {
			return &solveResult{status: Solved}
		}
		if !clk.Now().Before(deadline) {
			break
		}
		if maxIterations > 0 && iteration >= maxIterations {
			break
		}
		step()
	}
	return &solveResult{status: solutionStatus(problem)}
}

func solutionStatus(problem *ProblemDef) Status {
	if problem.BestPath() != nil {
		return Solved
	}
	return Unsolved
}

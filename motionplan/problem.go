package motionplan

import (
	"sync"

	"github.com/pkg/errors"
	"go.uber.org/multierr"

	"github.com/switchyard-robotics/geoplan/statespace"
)

// ProblemDef holds a planning query - start, goal, goal tolerance, and the
// optimization objective - together with the best solution found so far. A single
// planner reports candidate solutions into it; the best path only ever improves
// for the lifetime of the query.
type ProblemDef struct {
	objective Objective

	mu        sync.Mutex
	start     statespace.State
	goal      statespace.State
	tolerance float64
	best      *Path
}

// NewProblemDef creates a problem definition around an objective. Start and goal
// are set separately with SetStartAndGoal.
func NewProblemDef(objective Objective) (*ProblemDef, error) {
	if objective == nil {
		return nil, errors.New("problem definition requires an objective")
	}
	return &ProblemDef{objective: objective}, nil
}

// SetStartAndGoal replaces the query. Any recorded solution belongs to the old
// query and is discarded; the planner's own structures are not touched, so a
// planner that is Clear()ed and Setup()ed again may reuse this problem.
func (pd *ProblemDef) SetStartAndGoal(start, goal statespace.State, tolerance float64) error {
	var err error
	if len(start) == 0 || len(goal) == 0 {
		err = multierr.Append(err, errors.New("start and goal must be non-empty"))
	}
	if len(start) != len(goal) {
		err = multierr.Append(err, errors.Errorf("start dimension %d does not match goal dimension %d", len(start), len(goal)))
	}
	if tolerance <= 0 {
		err = multierr.Append(err, errors.Errorf("goal tolerance must be positive, got %f", tolerance))
	}
	if err != nil {
		return err
	}
	pd.mu.Lock()
	defer pd.mu.Unlock()
	pd.start = start.Clone()
	pd.goal = goal.Clone()
	pd.tolerance = tolerance
	pd.best = nil
	return nil
}

// Start returns a copy of the query's start state.
func (pd *ProblemDef) Start() statespace.State {
	pd.mu.Lock()
	defer pd.mu.Unlock()
	return pd.start.Clone()
}

// Goal returns a copy of the query's goal state.
func (pd *ProblemDef) Goal() statespace.State {
	pd.mu.Lock()
	defer pd.mu.Unlock()
	return pd.goal.Clone()
}

// GoalTolerance returns how close to the goal a path must end.
func (pd *ProblemDef) GoalTolerance() float64 {
	pd.mu.Lock()
	defer pd.mu.Unlock()
	return pd.tolerance
}

// Objective returns the optimization objective for this problem.
func (pd *ProblemDef) Objective() Objective {
	return pd.objective
}

// SetCostBound forwards to the objective's bound. See Objective.IsSatisfied for
// the first-solution-only and keep-optimizing modes this selects between.
func (pd *ProblemDef) SetCostBound(bound float64) {
	pd.objective.SetCostBound(bound)
}

// ReportCandidate offers a solution path. It is kept only when strictly cheaper
// than the current best; anything else is a no-op, never an error. The path is
// replaced whole so a concurrent BestPath call can never observe a partial update.
func (pd *ProblemDef) ReportCandidate(p *Path) bool {
	if p == nil || p.Len() == 0 {
		return false
	}
	pd.mu.Lock()
	defer pd.mu.Unlock()
	if pd.best != nil && p.Cost() >= pd.best.Cost() {
		return false
	}
	pd.best = p
	return true
}

// BestPath returns the best recorded solution, or nil when none exists yet.
func (pd *ProblemDef) BestPath() *Path {
	pd.mu.Lock()
	defer pd.mu.Unlock()
	return pd.best
}

// ClearSolutionPaths discards the recorded best path without touching any
// planner's tree or roadmap, so a subsequent solve on already-grown structures is
// expected to re-report a solution immediately.
func (pd *ProblemDef) ClearSolutionPaths() {
	pd.mu.Lock()
	defer pd.mu.Unlock()
	pd.best = nil
}

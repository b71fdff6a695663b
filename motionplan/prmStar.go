package motionplan

import (
	"context"
	"math"
	"math/rand"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/edaniels/golog"
	"github.com/pkg/errors"
	"go.uber.org/atomic"
	"go.viam.com/utils"

	"github.com/switchyard-robotics/geoplan/collision"
	"github.com/switchyard-robotics/geoplan/spatialindex"
	"github.com/switchyard-robotics/geoplan/statespace"
)

// prmStarPlanner builds a roadmap of valid samples connected within the
// shrinking star radius and answers the query by graph search. The roadmap only
// ever grows, so successive Solve calls refine the same graph.
type prmStarPlanner struct {
	space    statespace.Space
	checker  collision.Checker
	problem  *ProblemDef
	opts     *PlannerOptions
	logger   golog.Logger
	randseed *rand.Rand
	clk      clock.Clock

	graph         *roadmap
	index         *spatialindex.Index
	startID       int
	goalID        int
	milestones    int
	pendingSearch bool
	iterations    *atomic.Int64
	ready         bool
}

// NewPRMStarPlanner creates a PRM* planner over the given space, validity
// checker, and problem definition.
func NewPRMStarPlanner(
	space statespace.Space,
	checker collision.Checker,
	problem *ProblemDef,
	opts *PlannerOptions,
	logger golog.Logger,
) (Planner, error) {
	if space == nil || checker == nil || problem == nil {
		return nil, errors.New("prm* planner requires a space, a checker, and a problem definition")
	}
	if opts == nil {
		opts = NewBasicPlannerOptions()
	}
	if err := opts.applyExtra(); err != nil {
		return nil, err
	}
	clk := opts.Clock
	if clk == nil {
		clk = clock.New()
	}
	//nolint:gosec
	return &prmStarPlanner{
		space:      space,
		checker:    checker,
		problem:    problem,
		opts:       opts,
		logger:     logger,
		randseed:   rand.New(rand.NewSource(opts.RandomSeed)),
		clk:        clk,
		graph:      newRoadmap(),
		index:      spatialindex.NewIndex(space),
		iterations: atomic.NewInt64(0),
	}, nil
}

// Setup validates start and goal and seeds the roadmap with both as vertices,
// connecting them directly when the straight-line motion is valid.
func (mp *prmStarPlanner) Setup() error {
	start, goal := mp.problem.Start(), mp.problem.Goal()
	if err := validateQuery(mp.space, mp.checker, start, goal); err != nil {
		return err
	}

	mp.graph.clear()
	mp.index.Clear()
	mp.milestones = 0
	mp.pendingSearch = false

	mp.startID = mp.graph.addVertex(start)
	mp.goalID = mp.graph.addVertex(goal)
	if err := mp.index.Insert(mp.startID, start); err != nil {
		return err
	}
	if err := mp.index.Insert(mp.goalID, goal); err != nil {
		return err
	}
	if mp.checker.IsMotionValid(start, goal) {
		mp.graph.addEdge(mp.startID, mp.goalID, mp.problem.Objective().MotionCost(start, goal))
		mp.pendingSearch = true
	}
	mp.ready = true
	return nil
}

// Clear discards the roadmap and restores the random source to its seed, so a
// cleared planner replays exactly like a fresh one.
func (mp *prmStarPlanner) Clear() {
	mp.graph.clear()
	mp.index.Clear()
	mp.milestones = 0
	mp.pendingSearch = false
	//nolint:gosec
	mp.randseed = rand.New(rand.NewSource(mp.opts.RandomSeed))
	mp.iterations.Store(0)
	mp.ready = false
}

// BestPath returns the best solution recorded on the problem definition.
func (mp *prmStarPlanner) BestPath() *Path {
	return mp.problem.BestPath()
}

// Iterations returns the number of samples processed since construction or Clear.
func (mp *prmStarPlanner) Iterations() int64 {
	return mp.iterations.Load()
}

// Solve grows the roadmap until the budget elapses, searching it once per batch
// of milestones and once more before returning so no connection found late in
// the budget is lost.
func (mp *prmStarPlanner) Solve(ctx context.Context, budget time.Duration) (Status, error) {
	if !mp.ready {
		return Invalid, ErrSetupIncomplete
	}
	solutionChan := make(chan *solveResult, 1)
	utils.PanicCapturingGo(func() {
		result := solveLoop(ctx, mp.clk, budget, mp.opts.MaxIterations, mp.problem, func() {
			mp.iterate()
			if mp.opts.LoggingInterval > 0 && int(mp.iterations.Load())%mp.opts.LoggingInterval == 0 {
				mp.logger.Debugf("PRM* progress: %d vertices\tbest cost: %s", mp.graph.len(), costString(mp.problem.BestPath()))
			}
		})
		if mp.pendingSearch {
			mp.runSearch()
			// the trailing search can turn up a solution even when the loop
			// was cancelled, so the status is recomputed either way
			result.status = solutionStatus(mp.problem)
		}
		solutionChan <- result
	})
	result := <-solutionChan
	return result.status, result.err
}

// iterate draws one sample and, when valid, adds it as a milestone connected to
// every star-radius neighbor it can reach.
func (mp *prmStarPlanner) iterate() {
	mp.iterations.Inc()

	sample := mp.space.Sample(mp.randseed)
	if !mp.checker.IsValid(sample) {
		return
	}

	neighbors := mp.index.Near(sample, spatialindex.StarRadius(
		mp.space.Measure(), mp.space.Dimension(), mp.graph.len()+1, math.Inf(1)))

	id := mp.graph.addVertex(sample)
	if err := mp.index.Insert(id, sample); err != nil {
		return
	}

	objective := mp.problem.Objective()
	for _, neighbor := range neighbors {
		if mp.checker.IsMotionValid(neighbor.State, sample) {
			mp.graph.addEdge(neighbor.ID, id, objective.MotionCost(neighbor.State, sample))
			mp.pendingSearch = true
		}
	}

	mp.milestones++
	if mp.milestones%mp.opts.BatchSize == 0 {
		mp.runSearch()
	}
}

// runSearch answers the query on the current roadmap and offers the result as a
// solution candidate.
func (mp *prmStarPlanner) runSearch() {
	mp.pendingSearch = false
	objective := mp.problem.Objective()
	goal := mp.problem.Goal()
	vertexPath, cost, found := mp.graph.shortestPath(mp.startID, mp.goalID, func(s statespace.State) float64 {
		return objective.MotionCost(s, goal)
	})
	if !found {
		return
	}
	states := make([]statespace.State, 0, len(vertexPath))
	for _, id := range vertexPath {
		states = append(states, mp.graph.vertex(id))
	}
	mp.problem.ReportCandidate(newPath(states, cost))
}

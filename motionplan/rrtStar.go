package motionplan

import (
	"context"
	"math"
	"math/rand"
	"strconv"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/edaniels/golog"
	"github.com/pkg/errors"
	"go.uber.org/atomic"
	"go.viam.com/utils"
	"gonum.org/v1/gonum/mat"

	"github.com/switchyard-robotics/geoplan/collision"
	"github.com/switchyard-robotics/geoplan/spatialindex"
	"github.com/switchyard-robotics/geoplan/statespace"
)

// rrtStarPlanner grows a tree rooted at the start state, rewiring it toward
// optimality as samples accumulate. The tree, its arena, and the neighbor index
// survive across Solve calls until Clear.
type rrtStarPlanner struct {
	space    statespace.Space
	checker  collision.Checker
	problem  *ProblemDef
	opts     *PlannerOptions
	logger   golog.Logger
	randseed *rand.Rand
	clk      clock.Clock

	arena        *nodeArena
	index        *spatialindex.Index
	goalNodes    []int
	maxExtension float64
	iterations   *atomic.Int64
	ready        bool
}

// NewRRTStarPlanner creates an RRT* planner over the given space, validity
// checker, and problem definition.
func NewRRTStarPlanner(
	space statespace.Space,
	checker collision.Checker,
	problem *ProblemDef,
	opts *PlannerOptions,
	logger golog.Logger,
) (Planner, error) {
	if space == nil || checker == nil || problem == nil {
		return nil, errors.New("rrt* planner requires a space, a checker, and a problem definition")
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
	return &rrtStarPlanner{
		space:      space,
		checker:    checker,
		problem:    problem,
		opts:       opts,
		logger:     logger,
		randseed:   rand.New(rand.NewSource(opts.RandomSeed)),
		clk:        clk,
		arena:      newNodeArena(),
		index:      spatialindex.NewIndex(space),
		iterations: atomic.NewInt64(0),
	}, nil
}

// Setup validates start and goal and roots the tree at the start state.
func (mp *rrtStarPlanner) Setup() error {
	start, goal := mp.problem.Start(), mp.problem.Goal()
	if err := validateQuery(mp.space, mp.checker, start, goal); err != nil {
		return err
	}

	mp.maxExtension = mp.opts.MaxExtension
	if mp.maxExtension <= 0 {
		mp.maxExtension = defaultExtensionFraction * maxExtent(mp.space)
	}

	mp.arena.clear()
	mp.index.Clear()
	mp.goalNodes = nil

	root := mp.arena.add(start, noParent, 0)
	if err := mp.index.Insert(root, start); err != nil {
		return err
	}
	mp.ready = true
	return nil
}

// Clear discards the tree and neighbor index and restores the random source to
// its seed, so a cleared planner replays exactly like a fresh one.
func (mp *rrtStarPlanner) Clear() {
	mp.arena.clear()
	mp.index.Clear()
	mp.goalNodes = nil
	//nolint:gosec
	mp.randseed = rand.New(rand.NewSource(mp.opts.RandomSeed))
	mp.iterations.Store(0)
	mp.ready = false
}

// BestPath returns the best solution recorded on the problem definition.
func (mp *rrtStarPlanner) BestPath() *Path {
	return mp.problem.BestPath()
}

// Iterations returns the number of samples processed since construction or Clear.
func (mp *rrtStarPlanner) Iterations() int64 {
	return mp.iterations.Load()
}

// Solve grows the tree until the budget elapses. The runner goroutine observes
// cancellation only at iteration boundaries, so the tree is always consistent
// and resumable when Solve returns.
func (mp *rrtStarPlanner) Solve(ctx context.Context, budget time.Duration) (Status, error) {
	if !mp.ready {
		return Invalid, ErrSetupIncomplete
	}
	solutionChan := make(chan *solveResult, 1)
	utils.PanicCapturingGo(func() {
		logged := 0
		solutionChan <- solveLoop(ctx, mp.clk, budget, mp.opts.MaxIterations, mp.problem, func() {
			mp.iterate()
			logged++
			if mp.opts.LoggingInterval > 0 && logged%mp.opts.LoggingInterval == 0 {
				mp.logger.Debugf("RRT* progress: %d nodes\tbest cost: %s", mp.arena.len(), costString(mp.problem.BestPath()))
			}
		})
	})
	result := <-solutionChan
	return result.status, result.err
}

// iterate performs one sample-extend-rewire step.
func (mp *rrtStarPlanner) iterate() {
	mp.iterations.Inc()

	target := mp.sampleTarget()
	nearest, ok := mp.index.Nearest(target)
	if !ok {
		return
	}

	// steer toward the sample, bounded by the extension range
	dist := mp.space.Distance(nearest.State, target)
	if dist == 0 {
		return
	}
	if dist > mp.maxExtension {
		target = mp.space.Interpolate(nearest.State, target, mp.maxExtension/dist)
	}
	if !mp.checker.IsValid(target) {
		return
	}

	neighbors := mp.index.Near(target, spatialindex.StarRadius(
		mp.space.Measure(), mp.space.Dimension(), mp.arena.len()+1, mp.maxExtension))
	if len(neighbors) == 0 {
		neighbors = []spatialindex.Neighbor{nearest}
	}

	// choose the parent minimizing cost-from-root, not merely the nearest node
	objective := mp.problem.Objective()
	bestParent, bestCost := noParent, math.Inf(1)
	for _, neighbor := range neighbors {
		cost := objective.CombineCosts(mp.arena.node(neighbor.ID).cost, objective.MotionCost(neighbor.State, target))
		if cost < bestCost && mp.checker.IsMotionValid(neighbor.State, target) {
			bestParent, bestCost = neighbor.ID, cost
		}
	}
	if bestParent == noParent {
		return
	}

	id := mp.arena.add(target, bestParent, bestCost)
	if err := mp.index.Insert(id, target); err != nil {
		return
	}

	// rewire: reconnect any neighbor through the new node when strictly cheaper
	for _, neighbor := range neighbors {
		if neighbor.ID == bestParent {
			continue
		}
		cost := objective.CombineCosts(bestCost, objective.MotionCost(target, neighbor.State))
		if cost < mp.arena.node(neighbor.ID).cost && mp.checker.IsMotionValid(target, neighbor.State) {
			mp.arena.rewire(neighbor.ID, id, cost)
		}
	}

	if mp.space.Distance(target, mp.problem.Goal()) <= mp.problem.GoalTolerance() {
		mp.goalNodes = append(mp.goalNodes, id)
	}
	mp.publishBestSolution()
}

// publishBestSolution offers the cheapest goal-reaching branch to the problem
// definition. Rewiring can improve goal nodes without touching them directly, so
// this runs every iteration rather than only when a goal node is added.
func (mp *rrtStarPlanner) publishBestSolution() {
	bestNode, bestCost := noParent, math.Inf(1)
	for _, id := range mp.goalNodes {
		if cost := mp.arena.node(id).cost; cost < bestCost {
			bestNode, bestCost = id, cost
		}
	}
	if bestNode == noParent {
		return
	}
	if current := mp.problem.BestPath(); current != nil && bestCost >= current.Cost() {
		return
	}
	mp.problem.ReportCandidate(newPath(mp.arena.pathToRoot(bestNode), bestCost))
}

// sampleTarget draws the next target state: the goal with the configured bias,
// an informed-ellipsoid sample when enabled and a solution exists, or a uniform
// sample otherwise.
func (mp *rrtStarPlanner) sampleTarget() statespace.State {
	if mp.randseed.Float64() < mp.opts.GoalBias {
		return mp.problem.Goal()
	}
	if mp.opts.InformedSampling {
		if best := mp.problem.BestPath(); best != nil {
			if s, ok := mp.informedSample(best.Cost()); ok {
				return s
			}
		}
	}
	return mp.space.Sample(mp.randseed)
}

// informedSample draws a state from the prolate hyperspheroid whose foci are the
// start and goal and whose transverse diameter is the best known cost. Samples
// outside it cannot improve the solution, so once a path exists this focuses the
// search. Falls back to uniform sampling when the ellipsoid is degenerate.
func (mp *rrtStarPlanner) informedSample(bestCost float64) (statespace.State, bool) {
	n := mp.space.Dimension()
	start := mat.NewVecDense(n, mp.problem.Start())
	goal := mat.NewVecDense(n, mp.problem.Goal())

	difference := mat.NewVecDense(n, nil)
	difference.SubVec(goal, start)
	minCost := mat.Norm(difference, 2)
	if minCost == 0 || bestCost <= minCost || math.IsInf(bestCost, 1) {
		return nil, false
	}

	center := mat.NewVecDense(n, nil)
	center.AddScaledVec(start, 0.5, difference)

	// ellipse radii
	r1 := bestCost / 2
	r2 := math.Sqrt(bestCost*bestCost-minCost*minCost) / 2

	// rotation aligning the first axis with the start-goal direction, via SVD
	a := mat.NewVecDense(n, nil)
	a.ScaleVec(1/minCost, difference)
	m := mat.NewDense(n, n, nil)
	m.SetCol(0, a.RawVector().Data)
	var svd mat.SVD
	if !svd.Factorize(m, mat.SVDFull) {
		return nil, false
	}
	u, v := &mat.Dense{}, &mat.Dense{}
	svd.UTo(u)
	svd.VTo(v)

	lDiag := make([]float64, n)
	lDiag[0] = r1
	for i := 1; i < n; i++ {
		lDiag[i] = r2
	}
	l := mat.NewDiagDense(n, lDiag)

	sigDiag := make([]float64, n)
	for i := 0; i < n-1; i++ {
		sigDiag[i] = 1
	}
	sigDiag[n-1] = mat.Det(u) * mat.Det(v)
	sigma := mat.NewDiagDense(n, sigDiag)

	rotation, scaled := &mat.Dense{}, &mat.Dense{}
	rotation.Mul(u, sigma)
	scaled.Mul(rotation, v.T())
	scaled.Mul(scaled, l)

	sample := mat.NewVecDense(n, nil)
	sample.MulVec(scaled, mp.sampleBall(n))
	sample.AddVec(sample, center)

	// clamp to the space bounds
	s := make(statespace.State, n)
	limits := mp.space.Limits()
	for i := 0; i < n; i++ {
		s[i] = math.Min(math.Max(sample.AtVec(i), limits[i].Min), limits[i].Max)
	}
	return s, true
}

// sampleBall draws a point uniformly from the unit n-ball.
func (mp *rrtStarPlanner) sampleBall(n int) *mat.VecDense {
	rands := make([]float64, n)
	for j := 0; j < n; j++ {
		rands[j] = mp.randseed.NormFloat64()
	}
	u := mat.NewVecDense(n, rands)
	r := math.Pow(mp.randseed.Float64(), 1/float64(n))
	sample := mat.NewVecDense(n, nil)
	sample.ScaleVec(r/mat.Norm(u, 2), u)
	return sample
}

// validateQuery fails fast with ErrInvalidStartOrGoal when a query cannot be
// planned at all.
func validateQuery(space statespace.Space, checker collision.Checker, start, goal statespace.State) error {
	if len(start) == 0 || len(goal) == 0 {
		return errors.Wrap(ErrSetupIncomplete, "no start and goal set on the problem")
	}
	if len(start) != space.Dimension() || len(goal) != space.Dimension() {
		return errors.Wrapf(ErrInvalidStartOrGoal, "query dimension does not match the %d-dimensional space", space.Dimension())
	}
	if !space.Contains(start) || !checker.IsValid(start) {
		return errors.Wrapf(ErrInvalidStartOrGoal, "start %v", start)
	}
	if !space.Contains(goal) || !checker.IsValid(goal) {
		return errors.Wrapf(ErrInvalidStartOrGoal, "goal %v", goal)
	}
	return nil
}

// maxExtent returns the longest distance the space's bounds admit.
func maxExtent(space statespace.Space) float64 {
	sum := 0.
	for _, l := range space.Limits() {
		span := l.Max - l.Min
		sum += span * span
	}
	return math.Sqrt(sum)
}

func costString(p *Path) string {
	if p == nil {
		return "none"
	}
	return strconv.FormatFloat(p.Cost(), 'f', 4, 64)
}

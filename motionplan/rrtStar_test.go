package motionplan

import (
	"context"
	"math"
	"testing"
	"time"

	"github.com/edaniels/golog"
	"go.viam.com/test"

	"github.com/switchyard-robotics/geoplan/collision"
	"github.com/switchyard-robotics/geoplan/statespace"
)

func TestNewRRTStarPlannerValidation(t *testing.T) {
	logger := golog.NewTestLogger(t)
	space, checker, problem := unitSquareQuery(t)

	_, err := NewRRTStarPlanner(nil, checker, problem, nil, logger)
	test.That(t, err, test.ShouldNotBeNil)
	_, err = NewRRTStarPlanner(space, nil, problem, nil, logger)
	test.That(t, err, test.ShouldNotBeNil)
	_, err = NewRRTStarPlanner(space, checker, nil, nil, logger)
	test.That(t, err, test.ShouldNotBeNil)
}

func TestRRTStarExtraOptions(t *testing.T) {
	logger := golog.NewTestLogger(t)
	space, checker, problem := unitSquareQuery(t)

	opts := NewBasicPlannerOptions()
	opts.SetExtra(map[string]interface{}{"max_iterations": 25, "goal_bias": 0.5})
	planner, err := NewRRTStarPlanner(space, checker, problem, opts, logger)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, opts.MaxIterations, test.ShouldEqual, 25)
	test.That(t, opts.GoalBias, test.ShouldEqual, 0.5)

	test.That(t, planner.Setup(), test.ShouldBeNil)
	_, err = planner.Solve(context.Background(), 30*time.Second)
	test.That(t, err, test.ShouldBeNil)
	counter := planner.(interface{ Iterations() int64 })
	test.That(t, counter.Iterations(), test.ShouldEqual, 25)
}

func TestRRTStarDerivedExtension(t *testing.T) {
	logger := golog.NewTestLogger(t)
	space, checker, problem := unitSquareQuery(t)

	planner, err := NewRRTStarPlanner(space, checker, problem, nil, logger)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, planner.Setup(), test.ShouldBeNil)

	mp := planner.(*rrtStarPlanner)
	test.That(t, mp.maxExtension, test.ShouldAlmostEqual, defaultExtensionFraction*math.Sqrt2)
}

func TestRRTStarTreePersistsAcrossSolves(t *testing.T) {
	logger := golog.NewTestLogger(t)
	space, checker, problem := unitSquareQuery(t)

	planner, err := NewRRTStarPlanner(space, checker, problem, iterationOptions(500), logger)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, planner.Setup(), test.ShouldBeNil)

	mp := planner.(*rrtStarPlanner)
	_, err = planner.Solve(context.Background(), 30*time.Second)
	test.That(t, err, test.ShouldBeNil)
	grown := mp.arena.len()
	test.That(t, grown, test.ShouldBeGreaterThan, 1)

	_, err = planner.Solve(context.Background(), 30*time.Second)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, mp.arena.len(), test.ShouldBeGreaterThanOrEqualTo, grown)

	planner.Clear()
	test.That(t, mp.arena.len(), test.ShouldEqual, 0)
}

func TestRRTStarInformedSampling(t *testing.T) {
	logger := golog.NewTestLogger(t)

	// bounds wide enough that the informed ellipsoid never needs clamping
	space, err := statespace.NewRealVectorSpace([]statespace.Limit{{Min: -2, Max: 3}, {Min: -2, Max: 3}})
	test.That(t, err, test.ShouldBeNil)
	field, err := collision.NewCircleField(nil)
	test.That(t, err, test.ShouldBeNil)
	problem, err := NewProblemDef(NewPathLengthObjective(space))
	test.That(t, err, test.ShouldBeNil)
	err = problem.SetStartAndGoal(statespace.State{0, 0}, statespace.State{1, 1}, 1e-3)
	test.That(t, err, test.ShouldBeNil)

	opts := NewBasicPlannerOptions()
	opts.InformedSampling = true
	planner, err := NewRRTStarPlanner(space, field, problem, opts, logger)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, planner.Setup(), test.ShouldBeNil)
	mp := planner.(*rrtStarPlanner)

	// degenerate ellipsoids fall back to uniform sampling
	_, ok := mp.informedSample(math.Inf(1))
	test.That(t, ok, test.ShouldBeFalse)
	_, ok = mp.informedSample(1.0)
	test.That(t, ok, test.ShouldBeFalse)

	// every sample lies inside the hyperspheroid whose foci are start and goal
	bestCost := 1.6
	for i := 0; i < 100; i++ {
		s, ok := mp.informedSample(bestCost)
		test.That(t, ok, test.ShouldBeTrue)
		test.That(t, space.Contains(s), test.ShouldBeTrue)
		focal := space.Distance(s, problem.Start()) + space.Distance(s, problem.Goal())
		test.That(t, focal, test.ShouldBeLessThanOrEqualTo, bestCost+1e-9)
	}
}

func TestRRTStarSolvesWithInformedSampling(t *testing.T) {
	logger := golog.NewTestLogger(t)
	space, checker, problem := unitSquareQuery(t)

	opts := iterationOptions(4000)
	opts.InformedSampling = true
	planner, err := NewRRTStarPlanner(space, checker, problem, opts, logger)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, planner.Setup(), test.ShouldBeNil)

	status, err := planner.Solve(context.Background(), 30*time.Second)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, status, test.ShouldEqual, Solved)
	test.That(t, planner.BestPath().Cost(), test.ShouldBeGreaterThan, math.Sqrt2)
	test.That(t, planner.BestPath().Cost(), test.ShouldBeLessThan, 2*math.Sqrt2)
}

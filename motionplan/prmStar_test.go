package motionplan

import (
	"context"
	"math"
	"testing"
	"time"

	"github.com/edaniels/golog"
	"github.com/pkg/errors"
	"go.viam.com/test"

	"github.com/switchyard-robotics/geoplan/collision"
	"github.com/switchyard-robotics/geoplan/statespace"
)

func TestNewPRMStarPlannerValidation(t *testing.T) {
	logger := golog.NewTestLogger(t)
	space, checker, problem := unitSquareQuery(t)

	_, err := NewPRMStarPlanner(nil, checker, problem, nil, logger)
	test.That(t, err, test.ShouldNotBeNil)
	_, err = NewPRMStarPlanner(space, nil, problem, nil, logger)
	test.That(t, err, test.ShouldNotBeNil)
	_, err = NewPRMStarPlanner(space, checker, nil, nil, logger)
	test.That(t, err, test.ShouldNotBeNil)
}

func TestPRMStarDirectConnection(t *testing.T) {
	logger := golog.NewTestLogger(t)

	// no obstacles: start and goal connect directly during Setup, so even a
	// single-iteration solve returns the straight-line optimum
	space, err := statespace.NewRealVectorSpace([]statespace.Limit{{Min: 0, Max: 1}, {Min: 0, Max: 1}})
	test.That(t, err, test.ShouldBeNil)
	field, err := collision.NewCircleField(nil)
	test.That(t, err, test.ShouldBeNil)
	problem, err := NewProblemDef(NewPathLengthObjective(space))
	test.That(t, err, test.ShouldBeNil)
	err = problem.SetStartAndGoal(statespace.State{0, 0}, statespace.State{1, 1}, 1e-3)
	test.That(t, err, test.ShouldBeNil)

	planner, err := NewPRMStarPlanner(space, field, problem, iterationOptions(1), logger)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, planner.Setup(), test.ShouldBeNil)

	status, err := planner.Solve(context.Background(), 30*time.Second)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, status, test.ShouldEqual, Solved)
	test.That(t, planner.BestPath().Cost(), test.ShouldAlmostEqual, math.Sqrt2)
	test.That(t, planner.BestPath().Len(), test.ShouldEqual, 2)
}

func TestPRMStarCancelledSolveReportsLateSolution(t *testing.T) {
	logger := golog.NewTestLogger(t)

	// no obstacles: Setup connects start and goal directly, leaving a search
	// pending; a solve cancelled before any iteration still runs that search,
	// so the returned status must reflect the solution it finds
	space, err := statespace.NewRealVectorSpace([]statespace.Limit{{Min: 0, Max: 1}, {Min: 0, Max: 1}})
	test.That(t, err, test.ShouldBeNil)
	field, err := collision.NewCircleField(nil)
	test.That(t, err, test.ShouldBeNil)
	problem, err := NewProblemDef(NewPathLengthObjective(space))
	test.That(t, err, test.ShouldBeNil)
	err = problem.SetStartAndGoal(statespace.State{0, 0}, statespace.State{1, 1}, 1e-3)
	test.That(t, err, test.ShouldBeNil)

	planner, err := NewPRMStarPlanner(space, field, problem, nil, logger)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, planner.Setup(), test.ShouldBeNil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	status, err := planner.Solve(ctx, 30*time.Second)
	test.That(t, errors.Is(err, context.Canceled), test.ShouldBeTrue)
	test.That(t, status, test.ShouldEqual, Solved)
	test.That(t, planner.BestPath(), test.ShouldNotBeNil)
	test.That(t, planner.BestPath().Cost(), test.ShouldAlmostEqual, math.Sqrt2)
}

func TestPRMStarRoadmapGrowsAdditively(t *testing.T) {
	logger := golog.NewTestLogger(t)
	space, checker, problem := unitSquareQuery(t)

	planner, err := NewPRMStarPlanner(space, checker, problem, iterationOptions(500), logger)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, planner.Setup(), test.ShouldBeNil)
	mp := planner.(*prmStarPlanner)

	// start and goal are the roadmap's first two vertices and stay put
	test.That(t, mp.graph.len(), test.ShouldEqual, 2)
	test.That(t, space.Distance(mp.graph.vertex(mp.startID), problem.Start()), test.ShouldEqual, 0.)
	test.That(t, space.Distance(mp.graph.vertex(mp.goalID), problem.Goal()), test.ShouldEqual, 0.)

	_, err = planner.Solve(context.Background(), 30*time.Second)
	test.That(t, err, test.ShouldBeNil)
	grown := mp.graph.len()
	test.That(t, grown, test.ShouldBeGreaterThan, 2)

	_, err = planner.Solve(context.Background(), 30*time.Second)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, mp.graph.len(), test.ShouldBeGreaterThanOrEqualTo, grown)
	test.That(t, space.Distance(mp.graph.vertex(mp.startID), problem.Start()), test.ShouldEqual, 0.)
	test.That(t, space.Distance(mp.graph.vertex(mp.goalID), problem.Goal()), test.ShouldEqual, 0.)

	planner.Clear()
	test.That(t, mp.graph.len(), test.ShouldEqual, 0)
}

func TestPRMStarSearchesFinalBatch(t *testing.T) {
	logger := golog.NewTestLogger(t)
	space, checker, problem := unitSquareQuery(t)

	// an iteration cap that is not a multiple of the batch size still ends
	// with a search, so connections found in the last partial batch count
	opts := iterationOptions(defaultBatchSize*3 + 7)
	planner, err := NewPRMStarPlanner(space, checker, problem, opts, logger)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, planner.Setup(), test.ShouldBeNil)

	status, err := planner.Solve(context.Background(), 30*time.Second)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, status, test.ShouldEqual, Solved)
	mp := planner.(*prmStarPlanner)
	test.That(t, mp.pendingSearch, test.ShouldBeFalse)
}

// Command plan solves the queries of a scenario file and reports how the best
// path cost improves as the planner is granted additional refinement budgets.
package main

import (
	"context"
	"fmt"
	"math"
	"os"
	"time"

	"github.com/edaniels/golog"
	"github.com/montanaflynn/stats"
	"github.com/pkg/errors"
	"github.com/urfave/cli/v2"

	"github.com/switchyard-robotics/geoplan/collision"
	"github.com/switchyard-robotics/geoplan/motionplan"
	"github.com/switchyard-robotics/geoplan/statespace"
)

var app = &cli.App{
	Name:            "plan",
	Usage:           "solve motion planning scenarios",
	HideHelpCommand: true,
	Flags: []cli.Flag{
		&cli.StringFlag{
			Name:     "scenario",
			Aliases:  []string{"s"},
			Usage:    "load the planning scenario from `FILE`",
			Required: true,
		},
		&cli.StringFlag{
			Name:  "planner",
			Value: "rrtstar",
			Usage: "planner to use (rrtstar or prmstar)",
		},
		&cli.DurationFlag{
			Name:  "budget",
			Value: time.Second,
			Usage: "wall-clock budget for the initial solve",
		},
		&cli.DurationFlag{
			Name:  "refine-budget",
			Value: 100 * time.Millisecond,
			Usage: "wall-clock budget for each refinement solve",
		},
		&cli.IntFlag{
			Name:  "refine",
			Value: 10,
			Usage: "number of refinement solves after the initial one",
		},
		&cli.Int64Flag{
			Name:  "seed",
			Value: 1,
			Usage: "random seed for the planner",
		},
		&cli.BoolFlag{
			Name:  "informed",
			Usage: "focus tree sampling inside the informed ellipsoid once a solution exists",
		},
		&cli.BoolFlag{
			Name:  "first-solution",
			Usage: "stop at the first solution instead of refining",
		},
		&cli.BoolFlag{
			Name:    "debug",
			Aliases: []string{"vvv"},
			Usage:   "enable debug logging",
		},
	},
	Action: planAction,
}

func main() {
	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func planAction(c *cli.Context) error {
	logger := golog.NewLogger("plan")
	if c.Bool("debug") {
		logger = golog.NewDebugLogger("plan")
	}

	scenario, err := collision.LoadScenario(c.String("scenario"))
	if err != nil {
		return err
	}
	space, err := scenario.Space()
	if err != nil {
		return err
	}
	field, err := scenario.Field()
	if err != nil {
		return err
	}
	if len(scenario.Queries) == 0 {
		return errors.New("scenario has no queries")
	}

	for i, query := range scenario.Queries {
		logger.Infow("planning query", "index", i, "start", query.Start, "goal", query.Goal)
		if err := solveQuery(c, logger, space, field, query); err != nil {
			return errors.Wrapf(err, "query %d", i)
		}
	}
	return nil
}

func solveQuery(
	c *cli.Context,
	logger golog.Logger,
	space statespace.Space,
	field *collision.CircleField,
	query collision.Query,
) error {
	problem, err := motionplan.NewProblemDef(motionplan.NewPathLengthObjective(space))
	if err != nil {
		return err
	}
	if err := problem.SetStartAndGoal(query.Start, query.Goal, query.Tolerance); err != nil {
		return err
	}
	if c.Bool("first-solution") {
		problem.SetCostBound(math.SmallestNonzeroFloat64)
	}

	opts := motionplan.NewBasicPlannerOptions()
	opts.RandomSeed = c.Int64("seed")
	opts.InformedSampling = c.Bool("informed")

	var planner motionplan.Planner
	switch name := c.String("planner"); name {
	case "rrtstar":
		planner, err = motionplan.NewRRTStarPlanner(space, field, problem, opts, logger)
	case "prmstar":
		planner, err = motionplan.NewPRMStarPlanner(space, field, problem, opts, logger)
	default:
		return errors.Errorf("unknown planner %q", name)
	}
	if err != nil {
		return err
	}
	if err := planner.Setup(); err != nil {
		return err
	}

	ctx := context.Background()
	status, err := planner.Solve(ctx, c.Duration("budget"))
	if err != nil {
		return err
	}
	if status != motionplan.Solved {
		return errors.Errorf("no solution within the initial budget (status %s)", status)
	}

	costs := []float64{planner.BestPath().Cost()}
	logger.Infow("initial solution", "cost", costs[0], "waypoints", planner.BestPath().Len())

	for i := 0; i < c.Int("refine"); i++ {
		if _, err := planner.Solve(ctx, c.Duration("refine-budget")); err != nil {
			return err
		}
		costs = append(costs, planner.BestPath().Cost())
	}

	final := costs[len(costs)-1]
	improvement, err := stats.Min(costs)
	if err != nil {
		return err
	}
	mean, err := stats.Mean(costs)
	if err != nil {
		return err
	}
	logger.Infow("refinement finished",
		"final_cost", final,
		"best_cost", improvement,
		"mean_cost", mean,
		"rounds", len(costs),
	)
	return nil
}

package motionplan

import (
	"encoding/json"

	"github.com/benbjohnson/clock"
)

// default values for planning options.
const (
	// Probability of sampling the goal state directly instead of uniformly.
	defaultGoalBias = 0.05

	// Fraction of the space's maximum extent used as the steering range when no
	// explicit MaxExtension is configured.
	defaultExtensionFraction = 0.2

	// Number of vertices a roadmap planner adds between graph searches.
	defaultBatchSize = 64

	// Number of iterations between progress log lines.
	defaultLoggingInterval = 1000

	// random seed.
	defaultRandomSeed = 1
)

// PlannerOptions configure how a planner solves. Zero values fall back to the
// defaults set by NewBasicPlannerOptions.
type PlannerOptions struct {
	// Probability in [0,1) of sampling the goal directly (tree planners only).
	GoalBias float64 `json:"goal_bias"`

	// Maximum length of a single tree extension. 0 means derive it from the
	// space's extent.
	MaxExtension float64 `json:"max_extension"`

	// Hard cap on iterations per Solve call. 0 means budget-bounded only.
	MaxIterations int `json:"max_iterations"`

	// Number of vertices added per roadmap growth batch.
	BatchSize int `json:"batch_size"`

	// Focus sampling inside the informed ellipsoid once a solution exists
	// (tree planners only).
	InformedSampling bool `json:"informed_sampling"`

	// Seed for the planner-owned random source. Clear() restores the source to
	// this seed so a cleared planner replays like a fresh one.
	RandomSeed int64 `json:"random_seed"`

	// Iterations between progress log lines.
	LoggingInterval int `json:"logging_interval"`

	// Clock used for solve budgets; swapped for a mock in tests.
	Clock clock.Clock `json:"-"`

	extra map[string]interface{}
}

// NewBasicPlannerOptions returns options with reasonable defaults for all values.
func NewBasicPlannerOptions() *PlannerOptions {
	return &PlannerOptions{
		GoalBias:        defaultGoalBias,
		BatchSize:       defaultBatchSize,
		RandomSeed:      defaultRandomSeed,
		LoggingInterval: defaultLoggingInterval,
		Clock:           clock.New(),
	}
}

// SetExtra attaches untyped overrides that are applied onto the options via a
// JSON round trip, so callers can tweak individual fields from loosely typed
// configuration.
func (po *PlannerOptions) SetExtra(extra map[string]interface{}) {
	po.extra = extra
}

// applyExtra overlays the extra map onto the options.
func (po *PlannerOptions) applyExtra() error {
	if len(po.extra) == 0 {
		return nil
	}
	raw, err := json.Marshal(po.extra)
	if err != nil {
		return err
	}
	return json.Unmarshal(raw, po)
}

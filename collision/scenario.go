package collision

import (
	"os"

	"github.com/golang/geo/r2"
	"github.com/pkg/errors"
	"github.com/yosuke-furukawa/json5/encoding/json5"
	"go.uber.org/multierr"

	"github.com/switchyard-robotics/geoplan/statespace"
)

// Query is a single start/goal planning request within a scenario.
type Query struct {
	Start     []float64 `json:"start"`
	Goal      []float64 `json:"goal"`
	Tolerance float64   `json:"tolerance"`
}

// Scenario describes a planar planning environment: the bounded domain, its
// circular obstacles, and the queries to plan for. Scenario files are JSON5 so
// hand-maintained fixtures can carry comments and trailing commas.
type Scenario struct {
	Bounds []statespace.Limit `json:"bounds"`
	Circles []struct {
		X      float64 `json:"x"`
		Y      float64 `json:"y"`
		Radius float64 `json:"radius"`
	} `json:"circles"`
	Queries []Query `json:"queries"`
}

// LoadScenario reads and validates a JSON5 scenario file.
func LoadScenario(path string) (*Scenario, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "cannot read scenario")
	}
	var scenario Scenario
	if err := json5.Unmarshal(raw, &scenario); err != nil {
		return nil, errors.Wrapf(err, "cannot parse scenario %q", path)
	}
	if err := scenario.validate(); err != nil {
		return nil, errors.Wrapf(err, "invalid scenario %q", path)
	}
	return &scenario, nil
}

func (s *Scenario) validate() error {
	var err error
	if len(s.Bounds) == 0 {
		err = multierr.Append(err, errors.New("no bounds"))
	}
	for i, c := range s.Circles {
		if c.Radius <= 0 {
			err = multierr.Append(err, errors.Errorf("circle %d has non-positive radius", i))
		}
	}
	for i, q := range s.Queries {
		if len(q.Start) != len(s.Bounds) || len(q.Goal) != len(s.Bounds) {
			err = multierr.Append(err, errors.Errorf("query %d does not match the scenario dimension", i))
		}
		if q.Tolerance <= 0 {
			err = multierr.Append(err, errors.Errorf("query %d has non-positive tolerance", i))
		}
	}
	return err
}

// Space builds the state space described by the scenario bounds.
func (s *Scenario) Space() (statespace.Space, error) {
	return statespace.NewRealVectorSpace(s.Bounds)
}

// Field builds the circle-field checker described by the scenario obstacles.
func (s *Scenario) Field() (*CircleField, error) {
	circles := make([]Circle, 0, len(s.Circles))
	for _, c := range s.Circles {
		circles = append(circles, Circle{Center: r2.Point{X: c.X, Y: c.Y}, Radius: c.Radius})
	}
	return NewCircleField(circles)
}

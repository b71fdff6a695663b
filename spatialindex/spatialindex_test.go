package spatialindex

import (
	"math"
	"math/rand"
	"testing"

	"go.viam.com/test"

	"github.com/switchyard-robotics/geoplan/statespace"
)

func makeSpace(t *testing.T) statespace.Space {
	t.Helper()
	space, err := statespace.NewRealVectorSpace([]statespace.Limit{{Min: 0, Max: 1}, {Min: 0, Max: 1}})
	test.That(t, err, test.ShouldBeNil)
	return space
}

func TestNearestAgainstBruteForce(t *testing.T) {
	space := makeSpace(t)
	ix := NewIndex(space)

	_, ok := ix.Nearest(statespace.NewState(0.5, 0.5))
	test.That(t, ok, test.ShouldBeFalse)

	//nolint:gosec
	r := rand.New(rand.NewSource(42))
	states := make([]statespace.State, 0, 200)
	for i := 0; i < 200; i++ {
		s := space.Sample(r)
		test.That(t, ix.Insert(i, s), test.ShouldBeNil)
		states = append(states, s)
	}
	test.That(t, ix.Len(), test.ShouldEqual, 200)

	for i := 0; i < 50; i++ {
		q := space.Sample(r)
		bestDist := math.Inf(1)
		for _, s := range states {
			if d := space.Distance(q, s); d < bestDist {
				bestDist = d
			}
		}
		got, ok := ix.Nearest(q)
		test.That(t, ok, test.ShouldBeTrue)
		test.That(t, got.Dist, test.ShouldAlmostEqual, bestDist)
	}
}

func TestNearAgainstBruteForce(t *testing.T) {
	space := makeSpace(t)
	ix := NewIndex(space)

	//nolint:gosec
	r := rand.New(rand.NewSource(7))
	states := make([]statespace.State, 0, 300)
	for i := 0; i < 300; i++ {
		s := space.Sample(r)
		test.That(t, ix.Insert(i, s), test.ShouldBeNil)
		states = append(states, s)
	}

	const radius = 0.15
	for i := 0; i < 20; i++ {
		q := space.Sample(r)
		want := 0
		for _, s := range states {
			if space.Distance(q, s) <= radius {
				want++
			}
		}
		got := ix.Near(q, radius)
		test.That(t, got, test.ShouldHaveLength, want)
		for j, n := range got {
			test.That(t, n.Dist, test.ShouldBeLessThanOrEqualTo, radius)
			test.That(t, space.Distance(q, n.State), test.ShouldAlmostEqual, n.Dist)
			if j > 0 {
				test.That(t, got[j-1].Dist, test.ShouldBeLessThanOrEqualTo, n.Dist)
			}
		}
	}
}

func TestInsertRejectsWrongDimension(t *testing.T) {
	space := makeSpace(t)
	ix := NewIndex(space)
	test.That(t, ix.Insert(0, statespace.NewState(0.5)), test.ShouldNotBeNil)
}

func TestClear(t *testing.T) {
	space := makeSpace(t)
	ix := NewIndex(space)
	test.That(t, ix.Insert(0, statespace.NewState(0.1, 0.1)), test.ShouldBeNil)
	ix.Clear()
	test.That(t, ix.Len(), test.ShouldEqual, 0)
	_, ok := ix.Nearest(statespace.NewState(0.1, 0.1))
	test.That(t, ok, test.ShouldBeFalse)

	// a cleared index accepts new states
	test.That(t, ix.Insert(1, statespace.NewState(0.2, 0.2)), test.ShouldBeNil)
	n, ok := ix.Nearest(statespace.NewState(0.2, 0.2))
	test.That(t, ok, test.ShouldBeTrue)
	test.That(t, n.ID, test.ShouldEqual, 1)
}

func TestStarRadiusShrinks(t *testing.T) {
	prev := math.Inf(1)
	for _, n := range []int{10, 100, 1000, 10000} {
		r := StarRadius(1.0, 2, n, 0)
		test.That(t, r, test.ShouldBeGreaterThan, 0.)
		test.That(t, r, test.ShouldBeLessThan, prev)
		prev = r
	}

	// caps at the max radius when one is given
	test.That(t, StarRadius(1.0, 2, 10, 0.05), test.ShouldAlmostEqual, 0.05)
	test.That(t, StarRadius(1.0, 2, 1, 0.3), test.ShouldAlmostEqual, 0.3)
}

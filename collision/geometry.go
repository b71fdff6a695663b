package collision

import (
	"math"

	"github.com/dhconnelly/rtreego"
	"github.com/golang/geo/r2"
	"github.com/pkg/errors"

	"github.com/switchyard-robotics/geoplan/statespace"
)

// padding added to degenerate bounding boxes so the R-tree accepts them.
const rectPadding = 1e-9

// Circle is a circular obstacle in the plane.
type Circle struct {
	Center r2.Point
	Radius float64
}

type circleEntry struct {
	circle Circle
	bounds rtreego.Rect
}

func (e *circleEntry) Bounds() rtreego.Rect {
	return e.bounds
}

// CircleField is a planar environment of circular obstacles. A state is valid when
// it lies outside every circle; a motion is valid when the segment between its
// endpoints clears every circle. An R-tree over the circle bounding boxes culls
// candidates so checks stay cheap in dense fields.
type CircleField struct {
	circles []Circle
	index   *rtreego.Rtree
}

// NewCircleField builds a checker over the given obstacles. Circles must have
// positive radius.
func NewCircleField(circles []Circle) (*CircleField, error) {
	index := rtreego.NewTree(2, 2, 16)
	kept := make([]Circle, 0, len(circles))
	for i, c := range circles {
		if c.Radius <= 0 {
			return nil, errors.Errorf("circle %d has non-positive radius %f", i, c.Radius)
		}
		bounds, err := rtreego.NewRect(
			rtreego.Point{c.Center.X - c.Radius, c.Center.Y - c.Radius},
			[]float64{2 * c.Radius, 2 * c.Radius},
		)
		if err != nil {
			return nil, errors.Wrapf(err, "circle %d", i)
		}
		index.Insert(&circleEntry{circle: c, bounds: bounds})
		kept = append(kept, c)
	}
	return &CircleField{circles: kept, index: index}, nil
}

// Circles returns the obstacles in the field.
func (f *CircleField) Circles() []Circle {
	out := make([]Circle, len(f.circles))
	copy(out, f.circles)
	return out
}

// IsValid reports whether the state lies outside every circle.
func (f *CircleField) IsValid(s statespace.State) bool {
	if len(s) != 2 {
		return false
	}
	p := r2.Point{X: s[0], Y: s[1]}
	for _, item := range f.index.SearchIntersect(rtreego.Point{p.X, p.Y}.ToRect(rectPadding)) {
		c := item.(*circleEntry).circle
		if p.Sub(c.Center).Norm() <= c.Radius {
			return false
		}
	}
	return true
}

// IsMotionValid reports whether the straight segment between the states clears every
// circle. This is an exact check, not a discretized one.
func (f *CircleField) IsMotionValid(from, to statespace.State) bool {
	if len(from) != 2 || len(to) != 2 {
		return false
	}
	a := r2.Point{X: from[0], Y: from[1]}
	b := r2.Point{X: to[0], Y: to[1]}
	bounds, err := segmentRect(a, b)
	if err != nil {
		return false
	}
	for _, item := range f.index.SearchIntersect(bounds) {
		c := item.(*circleEntry).circle
		if segmentDistance(a, b, c.Center) <= c.Radius {
			return false
		}
	}
	return true
}

// segmentRect returns the axis-aligned bounding box of the segment ab, padded so
// degenerate (axis-parallel or zero-length) segments still form a valid rectangle.
func segmentRect(a, b r2.Point) (rtreego.Rect, error) {
	minX, maxX := math.Min(a.X, b.X), math.Max(a.X, b.X)
	minY, maxY := math.Min(a.Y, b.Y), math.Max(a.Y, b.Y)
	return rtreego.NewRect(
		rtreego.Point{minX - rectPadding, minY - rectPadding},
		[]float64{maxX - minX + 2*rectPadding, maxY - minY + 2*rectPadding},
	)
}

// segmentDistance returns the distance from point p to the segment ab.
func segmentDistance(a, b, p r2.Point) float64 {
	ab := b.Sub(a)
	lenSq := ab.Dot(ab)
	if lenSq == 0 {
		return p.Sub(a).Norm()
	}
	t := p.Sub(a).Dot(ab) / lenSq
	if t < 0 {
		t = 0
	} else if t > 1 {
		t = 1
	}
	closest := a.Add(ab.Mul(t))
	return p.Sub(closest).Norm()
}

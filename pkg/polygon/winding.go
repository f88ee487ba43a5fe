package polygon

import "github.com/go-gl/mathgl/mgl64"

// WindingOrder is the orientation of a 2D ring.
type WindingOrder int

const (
	CounterClockwise WindingOrder = iota
	Clockwise
)

func (w WindingOrder) String() string {
	if w == Clockwise {
		return "clockwise"
	}
	return "counter-clockwise"
}

// SignedArea returns the shoelace area of the ring; positive for
// counter-clockwise rings.
func SignedArea(points []mgl64.Vec2) float64 {
	var area float64
	n := len(points)
	for i := 0; i < n; i++ {
		a := points[i]
		b := points[(i+1)%n]
		area += a[0]*b[1] - b[0]*a[1]
	}
	return area * 0.5
}

// ComputeWindingOrder2D classifies a ring. Rings with zero area are reported
// as counter-clockwise so that normalization leaves them untouched.
func ComputeWindingOrder2D(points []mgl64.Vec2) WindingOrder {
	if SignedArea(points) < 0 {
		return Clockwise
	}
	return CounterClockwise
}

// Reverse reverses a ring in place.
func Reverse[T any](ring []T) {
	for i, j := 0, len(ring)-1; i < j; i, j = i+1, j-1 {
		ring[i], ring[j] = ring[j], ring[i]
	}
}

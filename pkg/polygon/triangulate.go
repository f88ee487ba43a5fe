package polygon

import (
	"fmt"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/rclancey/earcut"
)

// Triangulate ear-clips a simple 2D ring and returns triangle indices into
// points. Degenerate rings (collinear or self-overlapping) may produce fewer
// than three indices; callers decide how to recover.
func Triangulate(points []mgl64.Vec2) ([]int, error) {
	if len(points) < 3 {
		return nil, nil
	}

	coords := make([]float64, len(points)*2)
	for i, p := range points {
		coords[i*2] = p[0]
		coords[i*2+1] = p[1]
	}

	indices, err := earcut.Earcut(coords, nil, 2)
	if err != nil {
		return nil, fmt.Errorf("earcut %d points: %w", len(points), err)
	}
	if len(indices)%3 != 0 {
		return nil, fmt.Errorf("earcut returned %d indices, not a triangle list", len(indices))
	}
	return indices, nil
}

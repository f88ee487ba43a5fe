package config

import (
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/vmora/cesium/pkg/ellipsoid"
	"github.com/vmora/cesium/pkg/polygon"
)

var (
	ErrUnknownEllipsoid = errors.New("config: unknown ellipsoid")
	ErrBadPoint         = errors.New("config: point needs finite [lon, lat] or [lon, lat, height]")
	ErrBadColor         = errors.New("config: color needs 4 components in [0, 1]")
	ErrBadGranularity   = errors.New("config: granularity must be in (0, 180) degrees")
)

// Surface returns the configured ellipsoid.
func (v VolumeConfig) Surface() (*ellipsoid.Ellipsoid, error) {
	switch strings.ToLower(v.Ellipsoid) {
	case "", "wgs84":
		return ellipsoid.WGS84, nil
	case "sphere":
		if v.Radius <= 0 {
			return nil, fmt.Errorf("%w: sphere radius %v", ErrUnknownEllipsoid, v.Radius)
		}
		return ellipsoid.Sphere(v.Radius), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownEllipsoid, v.Ellipsoid)
	}
}

// Granularity returns the granularity in radians.
func (v VolumeConfig) Granularity() (float64, error) {
	g := v.GranularityDegrees
	if !(g > 0 && g < 180) {
		return 0, fmt.Errorf("%w: got %v", ErrBadGranularity, g)
	}
	return mgl64.DegToRad(g), nil
}

// ParseColor validates an RGBA color. An empty slice returns nil.
func ParseColor(c []float32) (*[4]float32, error) {
	if len(c) == 0 {
		return nil, nil
	}
	if len(c) != 4 {
		return nil, fmt.Errorf("%w: got %d components", ErrBadColor, len(c))
	}
	var out [4]float32
	for i, v := range c {
		if v < 0 || v > 1 || math.IsNaN(float64(v)) {
			return nil, fmt.Errorf("%w: component %d is %v", ErrBadColor, i, v)
		}
		out[i] = v
	}
	return &out, nil
}

// Hierarchy converts the polygon to cartesian rings on e.
func (p PolygonConfig) Hierarchy(e *ellipsoid.Ellipsoid) (polygon.Hierarchy, error) {
	outer, err := ringToCartesian(p.Outer, e)
	if err != nil {
		return polygon.Hierarchy{}, fmt.Errorf("polygon %q outer: %w", p.Name, err)
	}

	h := polygon.Hierarchy{Outer: outer}
	for i, hole := range p.Holes {
		ring, err := ringToCartesian(hole, e)
		if err != nil {
			return polygon.Hierarchy{}, fmt.Errorf("polygon %q hole %d: %w", p.Name, i, err)
		}
		h.Holes = append(h.Holes, ring)
	}
	return h, nil
}

func ringToCartesian(points [][]float64, e *ellipsoid.Ellipsoid) ([]mgl64.Vec3, error) {
	out := make([]mgl64.Vec3, 0, len(points))
	for i, pt := range points {
		if err := checkPoint(pt); err != nil {
			return nil, fmt.Errorf("point %d: %w", i, err)
		}
		var height float64
		if len(pt) == 3 {
			height = pt[2]
		}
		out = append(out, e.CartographicToCartesian(ellipsoid.FromDegrees(pt[0], pt[1], height)))
	}
	return out, nil
}

// checkPoint accepts [lon, lat] or [lon, lat, height] with finite values.
func checkPoint(pt []float64) error {
	if len(pt) != 2 && len(pt) != 3 {
		return fmt.Errorf("%w: has %d values", ErrBadPoint, len(pt))
	}
	for _, v := range pt {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return fmt.Errorf("%w: %v is not finite", ErrBadPoint, pt)
		}
	}
	return nil
}

// Validate checks values that would otherwise fail at first render.
func (c *Config) Validate() error {
	if _, err := c.Volume.Surface(); err != nil {
		return err
	}
	if _, err := c.Volume.Granularity(); err != nil {
		return err
	}
	if _, err := ParseColor(c.Render.FillColor); err != nil {
		return fmt.Errorf("render fill color: %w", err)
	}
	switch strings.ToLower(c.Render.Strategy) {
	case "", "simple", "stencil":
	default:
		return fmt.Errorf("config: unknown strategy %q", c.Render.Strategy)
	}
	for _, p := range c.Polygons {
		if _, err := ParseColor(p.Color); err != nil {
			return fmt.Errorf("polygon %q color: %w", p.Name, err)
		}
		for i, pt := range p.Outer {
			if err := checkPoint(pt); err != nil {
				return fmt.Errorf("polygon %q outer point %d: %w", p.Name, i, err)
			}
		}
		for h, hole := range p.Holes {
			for i, pt := range hole {
				if err := checkPoint(pt); err != nil {
					return fmt.Errorf("polygon %q hole %d point %d: %w", p.Name, h, i, err)
				}
			}
		}
	}
	return nil
}

package viewer

import (
	"fmt"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/vmora/cesium/internal/config"
	"github.com/vmora/cesium/internal/engine/groundpolygon"
	"github.com/vmora/cesium/pkg/ellipsoid"
)

// InsideMode decides how the camera-inside-volume flag is set per frame.
type InsideMode int

const (
	// InsideAuto estimates containment from the camera position.
	InsideAuto InsideMode = iota
	InsideForced
	OutsideForced
)

func (m InsideMode) String() string {
	switch m {
	case InsideForced:
		return "inside"
	case OutsideForced:
		return "outside"
	default:
		return "auto"
	}
}

// Next cycles auto, inside, outside.
func (m InsideMode) Next() InsideMode {
	return (m + 1) % 3
}

// resolve applies m to an estimated containment.
func (m InsideMode) resolve(estimated bool) bool {
	switch m {
	case InsideForced:
		return true
	case OutsideForced:
		return false
	default:
		return estimated
	}
}

// Layer is one configured polygon in the scene.
type Layer struct {
	Name    string
	Polygon *groundpolygon.Polygon
}

// BuildLayers creates a polygon per configured entry. Nothing is allocated
// on the GPU until the first frame.
func BuildLayers(cfg *config.Config, e *ellipsoid.Ellipsoid) ([]Layer, error) {
	strategy, err := groundpolygon.ParseStrategy(cfg.Render.Strategy)
	if err != nil {
		return nil, err
	}
	granularity, err := cfg.Volume.Granularity()
	if err != nil {
		return nil, err
	}
	fill, err := config.ParseColor(cfg.Render.FillColor)
	if err != nil {
		return nil, err
	}

	layers := make([]Layer, 0, len(cfg.Polygons))
	for i, pc := range cfg.Polygons {
		h, err := pc.Hierarchy(e)
		if err != nil {
			return nil, err
		}

		opts := groundpolygon.Options{
			Ellipsoid:          e,
			Granularity:        granularity,
			MaxTerrainAltitude: cfg.Volume.MaxTerrainAltitude,
			Strategy:           strategy,
			Color:              fill,
			AltitudeThreshold:  cfg.Render.AltitudeThreshold,
			RampCoefficient:    cfg.Render.RampCoefficient,
		}
		if c, err := config.ParseColor(pc.Color); err != nil {
			return nil, fmt.Errorf("polygon %q: %w", pc.Name, err)
		} else if c != nil {
			opts.Color = c
		}

		name := pc.Name
		if name == "" {
			name = fmt.Sprintf("polygon-%d", i)
		}
		layers = append(layers, Layer{Name: name, Polygon: groundpolygon.New(h, opts)})
	}
	return layers, nil
}

// cameraInside estimates whether eye is inside the volume of p: above the
// footprint and below the top cap. Before the mesh exists the camera is
// treated as outside.
func cameraInside(p *groundpolygon.Polygon, eye mgl64.Vec3, e *ellipsoid.Ellipsoid) bool {
	mesh := p.Mesh()
	if mesh == nil {
		return false
	}
	carto, ok := e.CartesianToCartographic(eye)
	if !ok || carto.Height > mesh.UpDelta {
		return false
	}
	return p.Hierarchy().Contains(eye, e)
}

// footprint returns every outer ring point of layers.
func footprint(layers []Layer) []mgl64.Vec3 {
	var points []mgl64.Vec3
	for _, l := range layers {
		points = append(points, l.Polygon.Hierarchy().Outer...)
	}
	return points
}

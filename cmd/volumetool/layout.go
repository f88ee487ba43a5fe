package main

import (
	"errors"
	"fmt"

	"gopkg.in/yaml.v3"

	"github.com/vmora/cesium/internal/config"
	"github.com/vmora/cesium/internal/engine/groundpolygon"
	"github.com/vmora/cesium/internal/engine/shadowvolume"
	"github.com/vmora/cesium/pkg/tin"
)

// rangeLayout is the YAML form of one draw range.
type rangeLayout struct {
	Offset    int    `yaml:"offset"`
	Count     int    `yaml:"count"`
	Primitive string `yaml:"primitive"`
}

func newRangeLayout(r shadowvolume.DrawRange) rangeLayout {
	return rangeLayout{Offset: r.Offset, Count: r.Count, Primitive: r.Primitive.String()}
}

// layout summarizes the mesh of one configured polygon.
type layout struct {
	Name          string        `yaml:"name"`
	Vertices      int           `yaml:"vertices"`
	Indices       int           `yaml:"indices"`
	IndexWidth    int           `yaml:"index_width"` // bytes
	UpDelta       float64       `yaml:"up_delta"`
	CapFallback   bool          `yaml:"cap_fallback,omitempty"`
	TopCap        rangeLayout   `yaml:"top_cap"`
	BottomCap     rangeLayout   `yaml:"bottom_cap"`
	Wall          rangeLayout   `yaml:"wall"`
	InteriorWalls rangeLayout   `yaml:"interior_walls"`
	CapsAndWalls  []rangeLayout `yaml:"caps_and_walls"`
	TopAndWalls   []rangeLayout `yaml:"top_cap_and_walls"`
}

// buildLayouts builds the volume mesh of every polygon in cfg.
func buildLayouts(cfg *config.Config) ([]layout, error) {
	e, err := cfg.Volume.Surface()
	if err != nil {
		return nil, err
	}
	granularity, err := cfg.Volume.Granularity()
	if err != nil {
		return nil, err
	}
	opts := groundpolygon.Options{
		Ellipsoid:          e,
		Granularity:        granularity,
		MaxTerrainAltitude: cfg.Volume.MaxTerrainAltitude,
	}

	layouts := make([]layout, 0, len(cfg.Polygons))
	for i, pc := range cfg.Polygons {
		name := pc.Name
		if name == "" {
			name = fmt.Sprintf("polygon-%d", i)
		}
		h, err := pc.Hierarchy(e)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", name, err)
		}
		mesh, err := groundpolygon.BuildMesh(h, opts)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", name, err)
		}

		l := layout{
			Name:          name,
			Vertices:      mesh.VertexCount(),
			Indices:       len(mesh.Indices),
			IndexWidth:    int(mesh.IndexWidth),
			UpDelta:       mesh.UpDelta,
			CapFallback:   mesh.CapFallback,
			TopCap:        newRangeLayout(mesh.TopCap),
			BottomCap:     newRangeLayout(mesh.BottomCap),
			Wall:          newRangeLayout(mesh.Wall),
			InteriorWalls: newRangeLayout(mesh.InteriorWalls),
		}
		for _, r := range mesh.CapsAndWalls {
			l.CapsAndWalls = append(l.CapsAndWalls, newRangeLayout(r))
		}
		for _, r := range mesh.TopCapAndWalls {
			l.TopAndWalls = append(l.TopAndWalls, newRangeLayout(r))
		}
		layouts = append(layouts, l)
	}
	return layouts, nil
}

// tinFile is the YAML input of the tin command.
type tinFile struct {
	Ellipsoid string         `yaml:"ellipsoid"` // wgs84 or sphere
	Radius    float64        `yaml:"radius"`
	Triangles []tin.Triangle `yaml:"triangles"`
	ST        [][2]float64   `yaml:"st"`
	Normals   bool           `yaml:"normals"`
}

// tinStats is what the tin command reports.
type tinStats struct {
	Triangles    int
	Vertices     int
	PackedLength int
	Indices      int
	HasNormals   bool
	Center       [3]float64
	Radius       float64
}

var errTINMismatch = errors.New("unpacked TIN differs from the input")

// inspectTIN parses a TIN file, round-trips it through the packed form and
// expands the result.
func inspectTIN(data []byte) (*tinStats, error) {
	var f tinFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse TIN: %w", err)
	}

	e, err := config.VolumeConfig{Ellipsoid: f.Ellipsoid, Radius: f.Radius}.Surface()
	if err != nil {
		return nil, err
	}

	format := tin.VertexFormat{Position: true, ST: true, Normal: f.Normals}
	g, err := tin.FromDegrees(e, f.Triangles, f.ST, format)
	if err != nil {
		return nil, err
	}

	packed := make([]float64, g.PackedLength())
	if err := g.Pack(packed, 0); err != nil {
		return nil, err
	}
	back, err := tin.Unpack(packed, 0)
	if err != nil {
		return nil, err
	}
	if back.VertexCount() != g.VertexCount() {
		return nil, fmt.Errorf("%w: %d vertices, want %d", errTINMismatch, back.VertexCount(), g.VertexCount())
	}

	m := back.CreateGeometry()
	return &tinStats{
		Triangles:    len(f.Triangles),
		Vertices:     back.VertexCount(),
		PackedLength: len(packed),
		Indices:      len(m.Indices),
		HasNormals:   m.Normals != nil,
		Center:       m.BoundingSphere.Center,
		Radius:       m.BoundingSphere.Radius,
	}, nil
}

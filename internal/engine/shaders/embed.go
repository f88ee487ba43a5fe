// Package shaders provides embedded GLSL shader sources.
package shaders

import _ "embed"

// ShadowVolumeVertexShader extrudes the bottom of a shadow volume below the
// surface and renders positions relative to the eye.
//
//go:embed shadowvolume.vert
var ShadowVolumeVertexShader string

// ShadowVolumeFragmentShader fills with the uniform color.
//
//go:embed shadowvolume.frag
var ShadowVolumeFragmentShader string

// GlobeVertexShader is the vertex shader for the globe surface.
//
//go:embed globe.vert
var GlobeVertexShader string

// GlobeFragmentShader is the fragment shader for the globe surface.
//
//go:embed globe.frag
var GlobeFragmentShader string

// Attribute locations shared by every program that takes encoded positions.
const (
	LocationPositionHigh = 0
	LocationPositionLow  = 1
	LocationNormal       = 2
)

// AttributeLocations maps attribute names to their fixed locations.
func AttributeLocations() map[string]uint32 {
	return map[string]uint32{
		"aPositionHigh": LocationPositionHigh,
		"aPositionLow":  LocationPositionLow,
		"aNormal":       LocationNormal,
	}
}

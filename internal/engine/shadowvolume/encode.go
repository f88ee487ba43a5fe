package shadowvolume

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// encodeSplit is the granularity of the high component.
const encodeSplit = 65536.0

// EncodeFloat splits v into a high part, a multiple of 65536, and the
// remainder. Both fit a float32 with far less error than float32(v), which
// lets the vertex shader subtract the eye position in two steps.
func EncodeFloat(v float64) (high, low float32) {
	if v >= 0 {
		h := math.Floor(v/encodeSplit) * encodeSplit
		return float32(h), float32(v - h)
	}
	h := math.Floor(-v/encodeSplit) * encodeSplit
	return float32(-h), float32(v + h)
}

// EncodeVec3 encodes each component of v.
func EncodeVec3(v mgl64.Vec3) (high, low [3]float32) {
	for i := 0; i < 3; i++ {
		high[i], low[i] = EncodeFloat(v[i])
	}
	return high, low
}

// writeEncoded stores high xyz then low xyz at dst[0:6].
func writeEncoded(dst []float32, v mgl64.Vec3) {
	high, low := EncodeVec3(v)
	copy(dst[0:3], high[:])
	copy(dst[3:6], low[:])
}

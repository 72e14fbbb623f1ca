package render

import (
	"math"

	"github.com/go-gl/mathgl/mgl32"
)

// plane is a normalized frustum plane ax + by + cz + d = 0.
type plane struct {
	a, b, c, d float32
}

// Frustum is the six planes (left, right, bottom, top, near, far)
// extracted from a combined projection*view matrix, used to cull
// sub-chunk AABBs before they're added to a draw command buffer.
type Frustum struct {
	planes [6]plane
}

// NewFrustum extracts a Frustum from clip, the camera's
// projection*view matrix.
func NewFrustum(clip mgl32.Mat4) Frustum {
	m00, m01, m02, m03 := clip[0], clip[4], clip[8], clip[12]
	m10, m11, m12, m13 := clip[1], clip[5], clip[9], clip[13]
	m20, m21, m22, m23 := clip[2], clip[6], clip[10], clip[14]
	m30, m31, m32, m33 := clip[3], clip[7], clip[11], clip[15]

	var f Frustum
	f.planes[0] = normalizePlane(plane{m30 + m00, m31 + m01, m32 + m02, m33 + m03}) // left
	f.planes[1] = normalizePlane(plane{m30 - m00, m31 - m01, m32 - m02, m33 - m03}) // right
	f.planes[2] = normalizePlane(plane{m30 + m10, m31 + m11, m32 + m12, m33 + m13}) // bottom
	f.planes[3] = normalizePlane(plane{m30 - m10, m31 - m11, m32 - m12, m33 - m13}) // top
	f.planes[4] = normalizePlane(plane{m30 + m20, m31 + m21, m32 + m22, m33 + m23}) // near
	f.planes[5] = normalizePlane(plane{m30 - m20, m31 - m21, m32 - m22, m33 - m23}) // far
	return f
}

func normalizePlane(p plane) plane {
	l := float32(math.Sqrt(float64(p.a*p.a + p.b*p.b + p.c*p.c)))
	if l == 0 {
		return p
	}
	return plane{p.a / l, p.b / l, p.c / l, p.d / l}
}

// IntersectsAABB reports whether the axis-aligned box [min, max]
// intersects or lies inside the frustum. Tests the positive vertex per
// plane; a single plane fully excluding it culls the box.
func (f Frustum) IntersectsAABB(min, max mgl32.Vec3) bool {
	for _, p := range f.planes {
		px := max.X()
		if p.a < 0 {
			px = min.X()
		}
		py := max.Y()
		if p.b < 0 {
			py = min.Y()
		}
		pz := max.Z()
		if p.c < 0 {
			pz = min.Z()
		}
		if p.a*px+p.b*py+p.c*pz+p.d < 0 {
			return false
		}
	}
	return true
}

// SubChunkAABB returns the world-space min/max corners of the 16x16x16
// sub-chunk at (coord, level).
func SubChunkAABB(coordX, coordZ int32, level int) (min, max mgl32.Vec3) {
	const size = 16
	minX := float32(coordX) * size
	minZ := float32(coordZ) * size
	minY := float32(level) * size
	return mgl32.Vec3{minX, minY, minZ}, mgl32.Vec3{minX + size, minY + size, minZ + size}
}

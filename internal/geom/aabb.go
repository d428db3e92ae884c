package geom

import "math"

// AABB is an axis-aligned bounding box described by its center and half extents.
type AABB struct {
	Center   Vec2
	HalfSize Vec2
}

// NewAABB builds a box, folding negative half sizes to their magnitude.
func NewAABB(center, halfSize Vec2) AABB {
	return AABB{
		Center:   center,
		HalfSize: Vec2{math.Abs(halfSize[0]), math.Abs(halfSize[1])},
	}
}

// Min returns the top-left corner.
func (a AABB) Min() Vec2 {
	return a.Center.Sub(a.HalfSize)
}

// Max returns the bottom-right corner.
func (a AABB) Max() Vec2 {
	return a.Center.Add(a.HalfSize)
}

// Size returns the full extents.
func (a AABB) Size() Vec2 {
	return a.HalfSize.Mul(2)
}

// Degenerate reports whether either axis has no extent.
func (a AABB) Degenerate() bool {
	return a.HalfSize[0] == 0 || a.HalfSize[1] == 0
}

// Overlaps runs the separating-axis test. Touching edges count as overlap.
func (a AABB) Overlaps(other AABB) bool {
	if math.Abs(a.Center[0]-other.Center[0]) > a.HalfSize[0]+other.HalfSize[0] {
		return false
	}
	if math.Abs(a.Center[1]-other.Center[1]) > a.HalfSize[1]+other.HalfSize[1] {
		return false
	}
	return true
}

// OverlapsSigned reports the overlap together with the per-axis penetration,
// signed toward other. The vector is not a minimum translation: callers pick
// the axis to resolve along. Degenerate boxes never overlap.
func (a AABB) OverlapsSigned(other AABB) (bool, Vec2) {
	if a.Degenerate() || other.Degenerate() || !a.Overlaps(other) {
		return false, Vec2{}
	}

	delta := other.Center.Sub(a.Center)
	sum := a.HalfSize.Add(other.HalfSize)
	return true, Vec2{
		Sign(delta[0]) * (sum[0] - math.Abs(delta[0])),
		Sign(delta[1]) * (sum[1] - math.Abs(delta[1])),
	}
}

package math

import (
	stdmath "math"
	"testing"
)

func TestQuatIdentity(t *testing.T) {
	q := QuatIdentity()
	if q.W != 1 || q.X != 0 || q.Y != 0 || q.Z != 0 {
		t.Errorf("QuatIdentity: got %+v", q)
	}
}

func TestQuatFromAxisAngle(t *testing.T) {
	// 90 degrees around Y
	q := QuatFromAxisAngle(Vec3{0, 1, 0}, float32(stdmath.Pi/2))
	m := q.ToMat4()
	result := m.TransformPoint(Vec3{1, 0, 0})

	// (1,0,0) rotated 90 degrees around Y lands on (0,0,-1)
	if abs(result.X) > 0.001 || abs(result.Y) > 0.001 || abs(result.Z+1) > 0.001 {
		t.Errorf("rotate 90 around Y: got %v, want (0, 0, -1)", result)
	}
}

func TestQuatNormalizeZero(t *testing.T) {
	q := Quat{}
	if q.Normalize() != QuatIdentity() {
		t.Error("normalizing a zero quaternion should return identity")
	}
}

func abs(x float32) float32 {
	if x < 0 {
		return -x
	}
	return x
}

package math

import "testing"

func TestIdentity(t *testing.T) {
	m := Identity()
	// Diagonal should be 1
	if m[0] != 1 || m[5] != 1 || m[10] != 1 || m[15] != 1 {
		t.Error("Identity diagonal should be 1")
	}
	// Off-diagonal should be 0
	if m[1] != 0 || m[4] != 0 {
		t.Error("Identity off-diagonal should be 0")
	}
}

func TestMulIdentity(t *testing.T) {
	m := Translate(1, 2, 3)
	id := Identity()
	result := m.Mul(id)

	for i := 0; i < 16; i++ {
		if result[i] != m[i] {
			t.Errorf("M * I should equal M, element %d: got %f, want %f", i, result[i], m[i])
		}
	}
}

func TestTranslate(t *testing.T) {
	m := Translate(5, 10, 15)

	// Translation should be in column 4 (indices 12, 13, 14)
	if m[12] != 5 || m[13] != 10 || m[14] != 15 {
		t.Errorf("Translate: got (%f, %f, %f), want (5, 10, 15)", m[12], m[13], m[14])
	}
}

func TestTransformPoint(t *testing.T) {
	m := Translate(10, 20, 30)
	p := Vec3{1, 2, 3}
	result := m.TransformPoint(p)

	expected := Vec3{11, 22, 33}
	if result != expected {
		t.Errorf("TransformPoint: got %v, want %v", result, expected)
	}
}

func TestCompose(t *testing.T) {
	// Translation and scale only: point should scale first, then translate.
	m := Compose(Vec3{10, 0, 0}, Vec3{2, 2, 2}, QuatIdentity())
	result := m.TransformPoint(Vec3{1, 1, 1})

	expected := Vec3{12, 2, 2}
	if result != expected {
		t.Errorf("Compose transform: got %v, want %v", result, expected)
	}
}

func TestComposeDefaults(t *testing.T) {
	m := Compose(Vec3{}, Vec3{1, 1, 1}, QuatIdentity())
	id := Identity()
	for i := 0; i < 16; i++ {
		if m[i] != id[i] {
			t.Fatalf("Compose with identity components should be identity, element %d: got %f", i, m[i])
		}
	}
}

func TestSetBasis(t *testing.T) {
	m := Identity()
	m.SetBasis(1, Vec3{4, 5, 6})
	if m[4] != 4 || m[5] != 5 || m[6] != 6 {
		t.Errorf("SetBasis column 1: got (%f, %f, %f), want (4, 5, 6)", m[4], m[5], m[6])
	}
}

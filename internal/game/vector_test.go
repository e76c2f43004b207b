package game

import (
	"math"
	"testing"
)

func TestVectorOps(t *testing.T) {
	x, y := NewVec3(1, 0, 0), NewVec3(0, 1, 0)

	if got := x.Cross(y); got != NewVec3(0, 0, 1) {
		t.Errorf("x cross y = %+v, want z", got)
	}
	if got := x.Rotate(math.Pi / 2); got != y {
		t.Errorf("rotated x = %+v, want y", got)
	}
	if got := NewVec3(3, 4, 0).Normalize().Magnitude(); got != 1 {
		t.Errorf("normalized magnitude = %v", got)
	}
	if !(Vec3{}).Normalize().IsZero() {
		t.Error("zero vector should normalize to zero")
	}
}

func TestFixRoundsForDeterminism(t *testing.T) {
	a := NewVec3(0.1, 0.2, 0).Plus(NewVec3(0.2, 0.1, 0))
	b := NewVec3(0.3, 0.3, 0)
	if a != b {
		t.Errorf("%+v != %+v after rounding", a, b)
	}
	if (Vec3{X: math.Inf(1)}).IsFinite() {
		t.Error("infinite component reported finite")
	}
}

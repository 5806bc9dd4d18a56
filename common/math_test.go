package common

import (
	"math"
	"testing"

	"github.com/chewxy/math32"
)

func almostEqual(a, b, tolerance float32) bool {
	return math32.Abs(a-b) <= tolerance
}

func TestLerp(t *testing.T) {
	if got := Lerp(0, 10, 0); got != 0 {
		t.Errorf("Lerp(0,10,0) = %v, want 0", got)
	}
	if got := Lerp(0, 10, 1); got != 10 {
		t.Errorf("Lerp(0,10,1) = %v, want 10", got)
	}
	if got := Lerp(0, 10, 0.5); got != 5 {
		t.Errorf("Lerp(0,10,0.5) = %v, want 5", got)
	}
	if got := Lerp(5, -5, 0.5); got != 0 {
		t.Errorf("Lerp(5,-5,0.5) = %v, want 0", got)
	}
}

func TestLerp3(t *testing.T) {
	a := [3]float32{0, 10, -4}
	b := [3]float32{2, 20, 4}
	got := Lerp3(a, b, 0.5)
	want := [3]float32{1, 15, 0}
	if got != want {
		t.Errorf("Lerp3 = %v, want %v", got, want)
	}
}

func TestLerpAngleShortestPath(t *testing.T) {
	// Quarter turn, no seam involved.
	if got := LerpAngle(0, math32.Pi/2, 0.5); !almostEqual(got, math32.Pi/4, 1e-5) {
		t.Errorf("LerpAngle(0, π/2, 0.5) = %v, want %v", got, math32.Pi/4)
	}

	// 3.0 → -3.0 crosses the ±π seam: the short arc is ~0.283 rad forward,
	// not ~6 rad backward. The midpoint lands on the seam itself.
	got := LerpAngle(3.0, -3.0, 0.5)
	if !almostEqual(math32.Abs(got), math32.Pi, 1e-4) {
		t.Errorf("LerpAngle(3, -3, 0.5) = %v, want ±π", got)
	}

	// Interpolation must stay on the short arc throughout, never sweeping
	// through zero.
	for _, tt := range []float32{0.1, 0.25, 0.5, 0.75, 0.9} {
		v := LerpAngle(3.0, -3.0, tt)
		if math32.Abs(v) < 2.9 {
			t.Errorf("LerpAngle(3, -3, %v) = %v took the long way around", tt, v)
		}
	}
}

func TestLerpAngleEndpoints(t *testing.T) {
	if got := LerpAngle(-3.0, 3.0, 0); got != -3.0 {
		t.Errorf("LerpAngle at t=0 = %v, want -3", got)
	}
	got := LerpAngle(-3.0, 3.0, 1)
	// Endpoint may be expressed as a coterminal angle after seam
	// normalization; compare on the circle.
	diff := math32.Mod(got-3.0, 2*math32.Pi)
	if !almostEqual(diff, 0, 1e-4) && !almostEqual(math32.Abs(diff), 2*math32.Pi, 1e-4) {
		t.Errorf("LerpAngle at t=1 = %v, want coterminal with 3", got)
	}
}

func TestClamp(t *testing.T) {
	if got := Clamp(5, 0, 1); got != 1 {
		t.Errorf("Clamp(5,0,1) = %v, want 1", got)
	}
	if got := Clamp(-5, 0, 1); got != 0 {
		t.Errorf("Clamp(-5,0,1) = %v, want 0", got)
	}
	if got := Clamp(0.5, 0, 1); got != 0.5 {
		t.Errorf("Clamp(0.5,0,1) = %v, want 0.5", got)
	}
	if got := Clamp01(float32(math.Inf(1))); got != 1 {
		t.Errorf("Clamp01(+Inf) = %v, want 1", got)
	}
}

func TestPerspectiveAndLookAtFinite(t *testing.T) {
	var view, proj, vp [16]float32
	LookAt(view[:], 0, 4, 15, 0, 1, 0, 0, 1, 0)
	Perspective(proj[:], math32.Pi/4, 16.0/9.0, 0.1, 100)
	Mul4(vp[:], proj[:], view[:])
	for i, v := range vp {
		if math.IsNaN(float64(v)) || math.IsInf(float64(v), 0) {
			t.Fatalf("view-projection[%d] = %v", i, v)
		}
	}
}

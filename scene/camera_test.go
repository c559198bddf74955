package scene

import (
	"math"
	"testing"

	"github.com/guanlun/psan1-rendering-engine/types"
)

func TestFocalScale(t *testing.T) {
	type spec struct {
		w       types.Vec3
		offset  float32
		epsilon float32
		exp     float32
	}
	specs := []spec{
		{types.Vec3{0, 0, 2}, -1.5, 1e-3, 0.25},
		{types.Vec3{0, 0, 2}, 0, 1e-3, 1},
		{types.Vec3{0, 4, 0}, 2, 1e-3, 1.5},
		// focal distance is floored at epsilon
		{types.Vec3{0, 0, 1}, -5, 1e-3, 1e-3},
		// degenerate W
		{types.Vec3{0, 0, 0}, -1.5, 1e-3, 1},
		{types.Vec3{0, 0, 0}, 0, 0, 1},
		{types.Vec3{0, 1e-4, 0}, -1.5, 1e-3, 1},
	}

	for index, s := range specs {
		got := FocalScale(s.w, s.offset, s.epsilon)
		if math.IsNaN(float64(got)) || math.IsInf(float64(got), 0) {
			t.Fatalf("[spec %d] expected a finite focal scale; got %f", index, got)
		}
		if math.Abs(float64(got-s.exp)) > 1e-6 {
			t.Fatalf("[spec %d] expected focal scale to be %f; got %f", index, s.exp, got)
		}
	}
}

func TestCameraBasis(t *testing.T) {
	cam := InitialCamera{
		Eye:    types.Vec3{0, 0, 10},
		LookAt: types.Vec3{0, 0, 0},
		Up:     types.Vec3{0, 1, 0},
		VFov:   90,
	}

	data := cam.Basis(2)
	if data.Eye != cam.Eye {
		t.Fatalf("expected eye to be %v; got %v", cam.Eye, data.Eye)
	}
	if !data.W.ApproxEqual(types.Vec3{0, 0, -10}, 1e-5) {
		t.Fatalf("expected W to be (0, 0, -10); got %v", data.W)
	}
	// tan(45deg) * 10 = 10
	if !data.V.ApproxEqual(types.Vec3{0, 10, 0}, 1e-4) {
		t.Fatalf("expected V to be (0, 10, 0); got %v", data.V)
	}
	if !data.U.ApproxEqual(types.Vec3{20, 0, 0}, 1e-4) {
		t.Fatalf("expected U to be (20, 0, 0); got %v", data.U)
	}
	if data.Changed {
		t.Fatal("expected a fresh basis to not be flagged as changed")
	}
}

func TestCameraOrbit(t *testing.T) {
	cam := DefaultCamera()
	dist := cam.Eye.Sub(cam.LookAt).Len()

	orbited := cam.Orbit(math.Pi / 2)
	if orbited.LookAt != cam.LookAt {
		t.Fatal("expected orbit to keep the look-at point")
	}
	if d := orbited.Eye.Sub(orbited.LookAt).Len(); math.Abs(float64(d-dist)) > 1e-4 {
		t.Fatalf("expected orbit to keep eye distance %f; got %f", dist, d)
	}
	if math.Abs(float64(orbited.Eye[1]-cam.Eye[1])) > 1e-4 {
		t.Fatalf("expected orbit about the up axis to keep eye height %f; got %f", cam.Eye[1], orbited.Eye[1])
	}
}

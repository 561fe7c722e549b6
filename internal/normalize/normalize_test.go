package normalize

import (
	"errors"
	gomath "math"
	"testing"

	"github.com/DmitriyRudenskiy/360ModelSpinner/internal/engine/scene"
	"github.com/DmitriyRudenskiy/360ModelSpinner/pkg/math"
)

func abs(x float32) float32 {
	if x < 0 {
		return -x
	}
	return x
}

func box(min, max math.Vec3) *scene.Mesh {
	return &scene.Mesh{Positions: []math.Vec3{min, max, {X: min.X, Y: max.Y, Z: min.Z}}}
}

func TestMeasure(t *testing.T) {
	g := scene.New()
	a := g.NewMesh("a", box(math.Vec3{X: 1, Y: 2, Z: 3}, math.Vec3{X: 2, Y: 4, Z: 4}))
	a.Location = math.Vec3{X: 10}
	g.NewMesh("b", box(math.Vec3{X: 12, Y: 0, Z: 0}, math.Vec3{X: 13, Y: 1, Z: 1}))

	ext, err := Measure(g)
	if err != nil {
		t.Fatalf("Measure: %v", err)
	}

	if ext.Min != (math.Vec3{X: 11, Y: 0, Z: 0}) || ext.Max != (math.Vec3{X: 13, Y: 4, Z: 4}) {
		t.Errorf("bounds = %v..%v", ext.Min, ext.Max)
	}
	if ext.Center != (math.Vec3{X: 12, Y: 2, Z: 2}) {
		t.Errorf("center = %v", ext.Center)
	}
	if ext.MaxDimension != 4 {
		t.Errorf("MaxDimension = %v, want 4", ext.MaxDimension)
	}
}

func TestMeasure_Errors(t *testing.T) {
	g := scene.New()
	g.NewEmpty("lonely")
	if _, err := Measure(g); !errors.Is(err, ErrNoMeshObjects) {
		t.Errorf("expected ErrNoMeshObjects, got %v", err)
	}

	g.NewMesh("hollow", &scene.Mesh{})
	if _, err := Measure(g); !errors.Is(err, ErrEmptyGeometry) {
		t.Errorf("expected ErrEmptyGeometry, got %v", err)
	}
}

func TestMeasure_NonFinite(t *testing.T) {
	nan := float32(gomath.NaN())
	inf := float32(gomath.Inf(1))
	for _, bad := range []math.Vec3{{X: nan, Y: 1}, {Z: inf}, {Y: -inf}} {
		g := scene.New()
		g.NewMesh("ok", box(math.Vec3{}, math.Vec3{X: 1, Y: 1, Z: 1}))
		g.NewMesh("bad", &scene.Mesh{Positions: []math.Vec3{{}, bad, {X: 1}}})

		if _, err := Measure(g); !errors.Is(err, ErrEmptyGeometry) {
			t.Errorf("vertex %v: expected ErrEmptyGeometry, got %v", bad, err)
		}
		if _, err := Normalize(g, Policy{Name: PolicyExact, Target: 2}); !errors.Is(err, ErrEmptyGeometry) {
			t.Errorf("vertex %v: Normalize should fail, got %v", bad, err)
		}
		if len(g.Nodes()) != 2 {
			t.Errorf("vertex %v: scene modified on failure", bad)
		}
	}
}

func TestNormalize_CentersAndScales(t *testing.T) {
	tests := []struct {
		name  string
		parts [][2]math.Vec3
	}{
		{"single offset box", [][2]math.Vec3{{{X: 5, Y: 5, Z: 5}, {X: 9, Y: 6, Z: 7}}}},
		{"two parts", [][2]math.Vec3{{{X: -3}, {X: -1, Y: 1, Z: 1}}, {{X: 4, Y: 2}, {X: 8, Y: 3, Z: 0.5}}}},
		{"tiny", [][2]math.Vec3{{{X: 0.001}, {X: 0.002, Y: 0.003, Z: 0.0015}}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := scene.New()
			for _, p := range tt.parts {
				g.NewMesh("part", box(p[0], p[1]))
			}
			before, err := Measure(g)
			if err != nil {
				t.Fatal(err)
			}
			if !(math.Bounds{Min: before.Min, Max: before.Max}).Contains(before.Center, 0) {
				t.Errorf("center %v outside box", before.Center)
			}

			res, err := Normalize(g, DefaultPolicy())
			if err != nil {
				t.Fatalf("Normalize: %v", err)
			}
			if res.Pivot.Name != PivotName || res.Meshes != len(tt.parts) {
				t.Errorf("result = %+v", res)
			}
			for _, m := range g.Meshes() {
				if m.Parent != res.Pivot {
					t.Errorf("mesh %s not under pivot", m.Name)
				}
			}

			after, err := Measure(g)
			if err != nil {
				t.Fatal(err)
			}
			tol := after.MaxDimension * 1e-4
			for _, axis := range [][2]float32{
				{after.Min.X, after.Max.X},
				{after.Min.Y, after.Max.Y},
				{after.Min.Z, after.Max.Z},
			} {
				if abs(axis[0]+axis[1]) > tol {
					t.Errorf("min/max not symmetric: %v", axis)
				}
			}
			if abs(after.MaxDimension-2) > 1e-3 {
				t.Errorf("scaled MaxDimension = %v, want 2", after.MaxDimension)
			}
			if abs(res.ScaledMaxDimension()-after.MaxDimension) > 1e-3 {
				t.Errorf("ScaledMaxDimension = %v, measured %v", res.ScaledMaxDimension(), after.MaxDimension)
			}
		})
	}
}

func TestNormalize_ScaleOnPivotOnly(t *testing.T) {
	g := scene.New()
	part := g.NewMesh("part", box(math.Vec3{}, math.Vec3{X: 4, Y: 4, Z: 4}))

	res, err := Normalize(g, DefaultPolicy())
	if err != nil {
		t.Fatal(err)
	}
	if part.Scale != (math.Vec3{X: 1, Y: 1, Z: 1}) {
		t.Errorf("part scale = %v, want unit", part.Scale)
	}
	if res.Pivot.Scale != (math.Vec3{X: 0.5, Y: 0.5, Z: 0.5}) {
		t.Errorf("pivot scale = %v, want 0.5", res.Pivot.Scale)
	}
}

func TestPolicy_Factor(t *testing.T) {
	tests := []struct {
		name   string
		policy Policy
		maxDim float32
		want   float32
	}{
		{"exact shrinks", Policy{Name: PolicyExact, Target: 2}, 8, 0.25},
		{"exact grows", Policy{Name: PolicyExact, Target: 2}, 0.5, 4},
		{"zero extent", Policy{Name: PolicyExact, Target: 2}, 0, 1},
		{"clamped large model hits lower", Policy{Name: PolicyClamped, Bound: 1.2, Lower: 0.9}, 10, 0.9},
		{"clamped small model unbounded", Policy{Name: PolicyClamped, Bound: 1.2, Lower: 0.9}, 0.1, 12},
		{"clamped upper", Policy{Name: PolicyClamped, Bound: 1.2, Lower: 0.9, Upper: 3}, 0.1, 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.policy.Factor(tt.maxDim); abs(got-tt.want) > 1e-5 {
				t.Errorf("Factor(%v) = %v, want %v", tt.maxDim, got, tt.want)
			}
		})
	}
}

func TestPolicy_Validate(t *testing.T) {
	tests := []struct {
		name    string
		policy  Policy
		wantErr bool
	}{
		{"default", DefaultPolicy(), false},
		{"clamped", Policy{Name: PolicyClamped, Bound: 1.2, Lower: 0.9}, false},
		{"unknown", Policy{Name: "fit"}, true},
		{"exact zero", Policy{Name: PolicyExact}, true},
		{"clamped inverted", Policy{Name: PolicyClamped, Bound: 1, Lower: 2, Upper: 1}, true},
		{"clamped zero lower", Policy{Name: PolicyClamped, Bound: 1}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.policy.Validate(); (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

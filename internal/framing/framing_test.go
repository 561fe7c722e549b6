package framing

import (
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

func near(a, b math.Vec3) bool {
	const eps = 1e-3
	return abs(a.X-b.X) < eps && abs(a.Y-b.Y) < eps && abs(a.Z-b.Z) < eps
}

func policies() []Settings {
	fov := DefaultSettings()
	mult := DefaultSettings()
	mult.Policy = PolicyMultiple
	return []Settings{fov, mult}
}

func TestDistance_StrictlyIncreasing(t *testing.T) {
	for _, s := range policies() {
		t.Run(s.Policy, func(t *testing.T) {
			prev := s.Distance(1e-4, 2048, 2048)
			for dim := float32(2e-4); dim < 1000; dim *= 1.5 {
				d := s.Distance(dim, 2048, 2048)
				if d <= prev {
					t.Fatalf("distance not increasing at %v: %v <= %v", dim, d, prev)
				}
				if d < s.MinDistance {
					t.Fatalf("distance %v below minimum %v", d, s.MinDistance)
				}
				prev = d
			}
		})
	}
}

func TestDistance_FloorForDegenerateModels(t *testing.T) {
	s := DefaultSettings()
	if got := s.Distance(0, 2048, 2048); abs(got-s.MinDistance) > 1e-6 {
		t.Errorf("Distance(0) = %v, want %v", got, s.MinDistance)
	}
}

func TestDistance_TinyModelsStayAboveFloor(t *testing.T) {
	for _, s := range policies() {
		floor := s.Distance(0, 2048, 2048)
		if got := s.Distance(1e-4, 2048, 2048); got <= floor {
			t.Errorf("%s: Distance(1e-4) = %v, want above %v", s.Policy, got, floor)
		}
	}
}

// TestFrame_NeverClips projects the corners of a centered cube of the given
// extent, rotated like the turntable does, and checks they stay on screen.
func TestFrame_NeverClips(t *testing.T) {
	sizes := [][2]int{{2048, 2048}, {1920, 1080}, {1080, 1920}}

	for _, s := range policies() {
		for _, size := range sizes {
			w, h := size[0], size[1]
			if s.Validate(w, h) != nil {
				continue // Rejected up front; nothing to render.
			}
			for _, dim := range []float32{0.001, 0.5, 2, 37, 900} {
				g := scene.New()
				res, err := Frame(g, dim, w, h, s)
				if err != nil {
					t.Fatal(err)
				}
				cam := res.Camera
				viewProj := cam.Camera.Projection(w, h).Mul(g.WorldMatrix(cam).Inverse())

				half := dim / 2
				for angle := 0; angle < 360; angle += 15 {
					rot := math.RotateZ(float32(-angle) * gomath.Pi / 180)
					for _, c := range [8]math.Vec3{
						{X: -half, Y: -half, Z: -half}, {X: half, Y: -half, Z: -half},
						{X: -half, Y: half, Z: -half}, {X: half, Y: half, Z: -half},
						{X: -half, Y: -half, Z: half}, {X: half, Y: -half, Z: half},
						{X: -half, Y: half, Z: half}, {X: half, Y: half, Z: half},
					} {
						ndc := viewProj.TransformVec3(rot.TransformVec3(c))
						if abs(ndc.X) >= 1 || abs(ndc.Y) >= 1 || abs(ndc.Z) >= 1 {
							t.Fatalf("%s %dx%d dim %v angle %d: corner %v projects to %v",
								s.Policy, w, h, dim, angle, c, ndc)
						}
					}
				}
			}
		}
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Settings)
		w, h    int
		wantErr bool
	}{
		{"defaults square", func(*Settings) {}, 2048, 2048, false},
		{"defaults wide", func(*Settings) {}, 1920, 1080, false},
		{"margin too small", func(s *Settings) { s.Margin = 0.9 }, 2048, 2048, true},
		{"multiple square", func(s *Settings) { s.Policy = PolicyMultiple }, 2048, 2048, false},
		{"multiple 1.8 clips", func(s *Settings) { s.Policy = PolicyMultiple; s.Multiple = 1.8 }, 2048, 2048, true},
		{"multiple wide clips", func(s *Settings) { s.Policy = PolicyMultiple }, 1920, 1080, true},
		{"unknown policy", func(s *Settings) { s.Policy = "auto" }, 2048, 2048, true},
		{"unknown rig", func(s *Settings) { s.Rig = "studio" }, 2048, 2048, true},
		{"zero lens", func(s *Settings) { s.Lens = 0 }, 2048, 2048, true},
		{"zero min distance", func(s *Settings) { s.MinDistance = 0 }, 2048, 2048, true},
		{"zero size", func(*Settings) {}, 0, 2048, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := DefaultSettings()
			tt.mutate(&s)
			if err := s.Validate(tt.w, tt.h); (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestFrame_ReplacesLights(t *testing.T) {
	g := scene.New()
	g.NewLight("imported_sun", scene.Light{Type: scene.LightSun})
	g.NewLight("imported_point", scene.Light{Type: scene.LightPoint})

	res, err := Frame(g, 2, 2048, 2048, DefaultSettings())
	if err != nil {
		t.Fatalf("Frame: %v", err)
	}

	if res.RemovedLights != 2 {
		t.Errorf("RemovedLights = %d, want 2", res.RemovedLights)
	}
	lights := g.Lights()
	if len(lights) != 3 {
		t.Fatalf("expected 3 rig lights, got %d", len(lights))
	}
	for _, l := range lights {
		if l.Light.Type != scene.LightArea {
			t.Errorf("light %s has type %v", l.Name, l.Light.Type)
		}
		want := l.Location.Neg().Normalize()
		if got := l.Rotation.Forward(); !near(got, want) {
			t.Errorf("light %s faces %v, want %v", l.Name, got, want)
		}
	}
}

func TestFrame_Camera(t *testing.T) {
	g := scene.New()
	res, err := Frame(g, 2, 2048, 2048, DefaultSettings())
	if err != nil {
		t.Fatal(err)
	}

	cam := res.Camera
	if g.ActiveCamera() != cam {
		t.Error("camera is not active")
	}
	if cam.Location != (math.Vec3{Y: -res.Distance}) {
		t.Errorf("camera at %v, want (0, %v, 0)", cam.Location, -res.Distance)
	}
	if got := cam.Rotation.Forward(); !near(got, math.AxisY) {
		t.Errorf("camera forward = %v, want +Y", got)
	}
	if got := cam.Rotation.Up(); !near(got, math.AxisZ) {
		t.Errorf("camera up = %v, want +Z", got)
	}
	if cam.Camera.Lens != 50 || cam.Camera.SensorWidth != 36 {
		t.Errorf("lens = %+v", cam.Camera)
	}
}

func TestFrame_EnergyFollowsDistance(t *testing.T) {
	s := DefaultSettings()

	small, _ := Frame(scene.New(), 1, 2048, 2048, s)
	large, _ := Frame(scene.New(), 10, 2048, 2048, s)

	ratio := large.Lights[0].Light.Energy / small.Lights[0].Light.Energy
	want := (large.Distance / small.Distance) * (large.Distance / small.Distance)
	if abs(ratio-want)/want > 1e-4 {
		t.Errorf("energy ratio %v, want %v", ratio, want)
	}
}

func TestFrame_ThreePointRig(t *testing.T) {
	s := DefaultSettings()
	s.Rig = RigThreePoint
	g := scene.New()

	res, err := Frame(g, 2, 2048, 2048, s)
	if err != nil {
		t.Fatal(err)
	}
	names := map[string]bool{}
	for _, l := range res.Lights {
		names[l.Name] = true
	}
	for _, want := range []string{"Light_Key", "Light_Fill", "Light_Rim"} {
		if !names[want] {
			t.Errorf("missing %s", want)
		}
	}

	s.Rig = "nope"
	if _, err := Frame(scene.New(), 2, 2048, 2048, s); err == nil {
		t.Error("expected error for unknown rig")
	}
}

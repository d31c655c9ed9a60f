package gamemath

import (
	"testing"

	"github.com/go-gl/mathgl/mgl64"
)

func TestStepBodyFallsAndBounces(t *testing.T) {
	params := CubeParams()
	s := BodyState{Position: mgl64.Vec3{0, 5, 0}, Rotation: mgl64.QuatIdent()}

	bounced := false
	for i := 0; i < 120; i++ {
		StepBody(&s, params, frame)
		if s.Position.Y() < params.GroundLevel {
			t.Fatalf("step %d: sank below ground: %v", i, s.Position.Y())
		}
		if s.Position.Y() == params.GroundLevel && s.Velocity.Y() > 0 {
			bounced = true
		}
	}
	if !bounced {
		t.Error("cube never bounced")
	}
}

func TestStepBodySettles(t *testing.T) {
	params := CubeParams()
	s := BodyState{Position: mgl64.Vec3{0, 5, 0}, Rotation: mgl64.QuatIdent()}

	for i := 0; i < 60*30; i++ {
		StepBody(&s, params, frame)
	}
	if s.Position.Y() != params.GroundLevel {
		t.Errorf("y = %v, want rest at %v", s.Position.Y(), params.GroundLevel)
	}
	if s.Velocity.Y() != 0 {
		t.Errorf("vy = %v, want settled", s.Velocity.Y())
	}
}

func TestStepBodyRestitution(t *testing.T) {
	params := CubeParams()
	s := BodyState{Position: mgl64.Vec3{0, params.GroundLevel + 0.001, 0}, Velocity: mgl64.Vec3{0, -10, 0}}

	StepBody(&s, params, frame)

	want := -(-10 + params.Gravity*frame) * params.Restitution
	if s.Velocity.Y() != want {
		t.Errorf("vy = %v, want %v", s.Velocity.Y(), want)
	}
}

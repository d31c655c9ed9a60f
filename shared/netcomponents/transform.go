package netcomponents

import (
	"github.com/go-gl/mathgl/mgl64"
	"github.com/yohamta/donburi"
)

// TransformData is the last replicated pose of an entity the client does not
// simulate.
type TransformData struct {
	Position mgl64.Vec3
	Rotation mgl64.Quat
	Velocity mgl64.Vec3
}

var Transform = donburi.NewComponentType[TransformData]()

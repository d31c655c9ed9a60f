package components

import (
	"github.com/automoto/voxelfront/shared/netconfig"
	"github.com/yohamta/donburi"
)

type LookData struct {
	Yaw         float64
	Pitch       float64
	Sensitivity float64
}

// Apply turns the view by a pointer delta. Pitch is clamped so the camera
// never flips over.
func (l *LookData) Apply(dx, dy float64) {
	l.Yaw -= dx * l.Sensitivity
	l.Pitch -= dy * l.Sensitivity
	if l.Pitch > netconfig.PitchLimit {
		l.Pitch = netconfig.PitchLimit
	}
	if l.Pitch < -netconfig.PitchLimit {
		l.Pitch = -netconfig.PitchLimit
	}
}

var Look = donburi.NewComponentType[LookData]()

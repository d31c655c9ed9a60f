package systems

import (
	"github.com/automoto/voxelfront/components"
	"github.com/yohamta/donburi/ecs"
)

// NewLookSystem turns the local camera by the frame's pointer motion.
func NewLookSystem(s *Session) func(*ecs.ECS) {
	return func(e *ecs.ECS) {
		entry, ok := s.LocalPlayer(e.World)
		if !ok {
			return
		}
		components.Look.Get(entry).Apply(s.Input.PointerDX, s.Input.PointerDY)
	}
}

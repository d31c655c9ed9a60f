package core

import (
	"github.com/automoto/voxelfront/shared/gamemath"
	"github.com/automoto/voxelfront/shared/netcomponents"
	"github.com/yohamta/donburi"
	"github.com/yohamta/donburi/ecs"
)

func (s *Server) stepBodies(_ *ecs.ECS) {
	params := gamemath.CubeParams()
	bodies.Each(s.world, func(e *donburi.Entry) {
		gamemath.StepBody(netcomponents.Body.Get(e), params, s.dt)
	})
}

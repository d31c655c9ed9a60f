package netcomponents

import (
	"github.com/automoto/voxelfront/shared/gamemath"
	"github.com/yohamta/donburi"
)

// Kinematic is a simulated player body: authoritative on the server,
// predicted for the local player on the client.
var Kinematic = donburi.NewComponentType[gamemath.KinematicState]()

// Body is a server-simulated rigid body.
var Body = donburi.NewComponentType[gamemath.BodyState]()

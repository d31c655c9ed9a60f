package netcomponents

import (
	"github.com/automoto/voxelfront/shared/messages"
	"github.com/yohamta/donburi"
)

// NetID is the network identifier the server assigned to an entity.
var NetID = donburi.NewComponentType[messages.EntityID]()

package tags

import "github.com/yohamta/donburi"

var (
	Player      = donburi.NewTag().SetName("Player")
	Body        = donburi.NewTag().SetName("Body")
	LocalPlayer = donburi.NewTag().SetName("LocalPlayer")
	Remote      = donburi.NewTag().SetName("Remote")
)

// Resolv tags for the hit-scan broadphase
const (
	ResolvPlayer = "player"
	ResolvProbe  = "probe"
)

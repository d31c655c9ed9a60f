package messages

import "fmt"

// WeaponType selects the stats used to resolve a shot.
type WeaponType uint8

const (
	Pistol WeaponType = iota
	Rifle
	Shotgun
)

// WeaponStats describes how a weapon resolves on the server.
type WeaponStats struct {
	Damage   float64
	FireRate float64 // seconds between shots
	Range    float64
	Accuracy float64
}

var weaponStats = map[WeaponType]WeaponStats{
	Pistol:  {Damage: 25, FireRate: 0.3, Range: 30, Accuracy: 0.9},
	Rifle:   {Damage: 35, FireRate: 0.15, Range: 50, Accuracy: 0.95},
	Shotgun: {Damage: 60, FireRate: 0.8, Range: 15, Accuracy: 0.6},
}

// Stats returns the stats for w. Unknown weapons report ok=false.
func (w WeaponType) Stats() (WeaponStats, bool) {
	s, ok := weaponStats[w]
	return s, ok
}

func (w WeaponType) String() string {
	switch w {
	case Pistol:
		return "pistol"
	case Rifle:
		return "rifle"
	case Shotgun:
		return "shotgun"
	}
	return fmt.Sprintf("weapon(%d)", uint8(w))
}

// ParseWeapon maps a config name to a WeaponType.
func ParseWeapon(name string) (WeaponType, error) {
	switch name {
	case "pistol":
		return Pistol, nil
	case "rifle", "":
		return Rifle, nil
	case "shotgun":
		return Shotgun, nil
	}
	return 0, fmt.Errorf("unknown weapon %q", name)
}

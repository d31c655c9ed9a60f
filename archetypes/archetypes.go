package archetypes

import (
	"github.com/automoto/voxelfront/components"
	"github.com/automoto/voxelfront/shared/netcomponents"
	"github.com/automoto/voxelfront/tags"
	"github.com/yohamta/donburi"
	"github.com/yohamta/donburi/ecs"
)

// DefaultLayer is the only ECS layer; nothing here is drawn.
const DefaultLayer ecs.LayerID = 0

var (
	// Server-side authoritative entities.
	ServerPlayer = newArchetype(
		tags.Player,
		netcomponents.NetID,
		netcomponents.Kinematic,
		components.Health,
		components.Shooter,
		components.Connection,
	)
	ServerBody = newArchetype(
		tags.Body,
		netcomponents.NetID,
		netcomponents.Body,
	)

	// Client-side mirrors.
	LocalPlayer = newArchetype(
		tags.Player,
		tags.LocalPlayer,
		netcomponents.NetID,
		netcomponents.Kinematic,
		components.Health,
		components.Shooter,
		components.Look,
	)
	RemotePlayer = newArchetype(
		tags.Player,
		tags.Remote,
		netcomponents.NetID,
		netcomponents.Transform,
		components.Health,
	)
	RemoteBody = newArchetype(
		tags.Body,
		tags.Remote,
		netcomponents.NetID,
		netcomponents.Transform,
	)
)

type archetype struct {
	components []donburi.IComponentType
}

func newArchetype(cs ...donburi.IComponentType) *archetype {
	return &archetype{
		components: cs,
	}
}

func (a *archetype) Spawn(ecs *ecs.ECS, cs ...donburi.IComponentType) *donburi.Entry {
	e := ecs.World.Entry(ecs.Create(
		DefaultLayer,
		append(a.components, cs...)...,
	))
	return e
}

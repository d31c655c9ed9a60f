package core

import (
	"github.com/automoto/voxelfront/shared/gamemath"
	"github.com/automoto/voxelfront/shared/messages"
	"github.com/automoto/voxelfront/shared/netconfig"
	"github.com/automoto/voxelfront/tags"
	"github.com/go-gl/mathgl/mgl64"
	"github.com/solarlune/resolv"
)

// Arena extent on X and Z covered by the broadphase grid, centred on the
// origin. Players outside it are always hit-scan candidates.
const (
	arenaExtent = 1024
	arenaCell   = 8
)

// hitGrid is a broadphase over the XZ plane that narrows hit-scan candidates
// to players near the shot segment.
type hitGrid struct {
	space   *resolv.Space
	objects map[messages.EntityID]*resolv.Object
	outside map[messages.EntityID]struct{}
}

func newHitGrid() *hitGrid {
	return &hitGrid{
		space:   resolv.NewSpace(arenaExtent, arenaExtent, arenaCell, arenaCell),
		objects: make(map[messages.EntityID]*resolv.Object),
		outside: make(map[messages.EntityID]struct{}),
	}
}

func toGrid(p mgl64.Vec3) (float64, float64) {
	return p.X() + arenaExtent/2, p.Z() + arenaExtent/2
}

func inArena(x, y float64) bool {
	return x >= 0 && y >= 0 && x < arenaExtent && y < arenaExtent
}

// place moves (or adds) a player's footprint to pos.
func (g *hitGrid) place(id messages.EntityID, pos mgl64.Vec3) {
	x, y := toGrid(pos)
	x -= netconfig.PlayerRadius
	y -= netconfig.PlayerRadius

	obj, ok := g.objects[id]
	if !ok {
		size := netconfig.PlayerRadius * 2
		obj = resolv.NewObject(x, y, size, size, tags.ResolvPlayer)
		obj.Data = id
		g.space.Add(obj)
		g.objects[id] = obj
	} else {
		obj.X, obj.Y = x, y
		obj.Update()
	}

	if inArena(x, y) {
		delete(g.outside, id)
	} else {
		g.outside[id] = struct{}{}
	}
}

func (g *hitGrid) remove(id messages.EntityID) {
	if obj, ok := g.objects[id]; ok {
		g.space.Remove(obj)
		delete(g.objects, id)
	}
	delete(g.outside, id)
}

// candidates returns the players whose footprint shares a cell with the
// padded bounding box of the shot segment. resolv maps an object to cells
// [X, X+W-1], so the pad carries an extra cell on top of the hit offset and
// the footprint radius.
func (g *hitGrid) candidates(q gamemath.HitQuery) []messages.EntityID {
	if !q.Valid() {
		return nil
	}
	end := q.Origin.Add(q.Direction.Normalize().Mul(q.Range))
	ox, oy := toGrid(q.Origin)
	ex, ey := toGrid(end)

	pad := q.MaxOffset + netconfig.PlayerRadius + arenaCell
	minX, maxX := min(ox, ex)-pad, max(ox, ex)+pad
	minY, maxY := min(oy, ey)-pad, max(oy, ey)+pad

	seen := make(map[messages.EntityID]struct{})
	var out []messages.EntityID
	add := func(id messages.EntityID) {
		if _, dup := seen[id]; !dup {
			seen[id] = struct{}{}
			out = append(out, id)
		}
	}

	probe := resolv.NewObject(minX, minY, maxX-minX, maxY-minY, tags.ResolvProbe)
	g.space.Add(probe)
	if col := probe.Check(0, 0, tags.ResolvPlayer); col != nil {
		for _, obj := range col.Objects {
			if id, ok := obj.Data.(messages.EntityID); ok {
				add(id)
			}
		}
	}
	g.space.Remove(probe)

	for id := range g.outside {
		add(id)
	}
	return out
}

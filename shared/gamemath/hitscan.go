package gamemath

import (
	"math"

	"github.com/automoto/voxelfront/shared/netconfig"
	"github.com/go-gl/mathgl/mgl64"
)

// HitCandidate is a potential target of a hit-scan.
type HitCandidate struct {
	ID       uint64
	Position mgl64.Vec3
}

// HitQuery describes one shot.
type HitQuery struct {
	Origin    mgl64.Vec3
	Direction mgl64.Vec3
	Range     float64
	MinCosine float64 // targets must lie inside this cone around Direction
	MaxOffset float64 // max perpendicular distance from the ray
}

// NewHitQuery returns a query with the default cone and player-height offset.
func NewHitQuery(origin, dir mgl64.Vec3, rng float64) HitQuery {
	return HitQuery{
		Origin:    origin,
		Direction: dir,
		Range:     rng,
		MinCosine: netconfig.HitConeCosine,
		MaxOffset: netconfig.PlayerHeight,
	}
}

// Valid reports whether the shot has a finite origin, a finite non-zero
// direction and a positive range.
func (q HitQuery) Valid() bool {
	if !finite(q.Origin) || !finite(q.Direction) {
		return false
	}
	l := q.Direction.Len()
	return l > 0 && !math.IsInf(l, 0) && q.Range > 0
}

func finite(v mgl64.Vec3) bool {
	for _, c := range v {
		if math.IsNaN(c) || math.IsInf(c, 0) {
			return false
		}
	}
	return true
}

// Hit is the result of a successful hit-scan.
type Hit struct {
	ID       uint64
	Position mgl64.Vec3
	Along    float64 // distance along the ray
	Distance float64 // straight-line distance from the origin
}

// HitScan picks the candidate nearest along the ray that lies within range,
// inside the cone and close enough to the ray. Ties on ray distance go to
// the smaller straight-line distance, then the smaller ID. Invalid queries
// never hit.
func HitScan(q HitQuery, candidates []HitCandidate) (Hit, bool) {
	if !q.Valid() {
		return Hit{}, false
	}
	dir := q.Direction.Normalize()

	var best Hit
	found := false
	for _, c := range candidates {
		offset := c.Position.Sub(q.Origin)
		distance := offset.Len()
		if !(distance > 0 && distance <= q.Range) {
			continue
		}
		if !(dir.Dot(offset.Mul(1/distance)) >= q.MinCosine) {
			continue
		}
		along := offset.Dot(dir)
		perpendicular := offset.Sub(dir.Mul(along)).Len()
		if !(perpendicular < q.MaxOffset) {
			continue
		}

		hit := Hit{ID: c.ID, Position: c.Position, Along: along, Distance: distance}
		if !found || closer(hit, best) {
			best = hit
			found = true
		}
	}
	return best, found
}

func closer(a, b Hit) bool {
	if a.Along != b.Along {
		return a.Along < b.Along
	}
	if a.Distance != b.Distance {
		return a.Distance < b.Distance
	}
	return a.ID < b.ID
}

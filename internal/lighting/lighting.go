// Package lighting implements the two independent 5-bit flood-fill
// light channels (block light and sky light) that the chunk thread
// worker runs as part of CalculateLighting and RecalculateLighting.
package lighting

import (
	"github.com/dantero/voxelcore/internal/registry"
	"github.com/dantero/voxelcore/internal/world"
)

// Kind selects which of the two light channels an operation affects.
type Kind int

const (
	Block Kind = iota
	Sky
)

// Pos is a block position addressed through a chunk pointer plus local
// coordinates, so propagation can walk the neighbour-pointer graph
// directly instead of re-resolving through the chunk map on every hop.
type Pos struct {
	Chunk   *world.Chunk
	X, Y, Z int
}

var steps = [6][3]int{
	{-1, 0, 0}, {1, 0, 0},
	{0, -1, 0}, {0, 1, 0},
	{0, 0, -1}, {0, 0, 1},
}

// step resolves the neighbour of p along direction d (0..5), crossing
// into an adjacent chunk through its neighbour pointers when the local
// coordinate leaves [0,16) on X or Z. Returns ok=false at the world's Y
// ceiling/floor or when the adjacent chunk isn't loaded (a missing
// neighbour behaves like a hard boundary: propagation simply stops).
func step(p Pos, d int) (Pos, bool) {
	dx, dy, dz := steps[d][0], steps[d][1], steps[d][2]
	nx, ny, nz := p.X+dx, p.Y+dy, p.Z+dz

	if ny < 0 || ny >= world.ChunkHeight {
		return Pos{}, false
	}

	chunk := p.Chunk
	switch {
	case nx < 0:
		chunk = chunk.Neighbour(world.NeighbourLeft)
		nx = world.ChunkWidth - 1
	case nx >= world.ChunkWidth:
		chunk = chunk.Neighbour(world.NeighbourRight)
		nx = 0
	}
	if chunk == nil {
		return Pos{}, false
	}
	switch {
	case nz < 0:
		chunk = chunk.Neighbour(world.NeighbourBottom)
		nz = world.ChunkDepth - 1
	case nz >= world.ChunkDepth:
		chunk = chunk.Neighbour(world.NeighbourTop)
		nz = 0
	}
	if chunk == nil {
		return Pos{}, false
	}
	return Pos{Chunk: chunk, X: nx, Y: ny, Z: nz}, true
}

func valueOf(kind Kind, b world.Block) uint8 {
	if kind == Block {
		return b.LightLevel
	}
	return b.SkyLightLevel
}

func setValue(p Pos, kind Kind, v uint8) {
	if kind == Block {
		p.Chunk.SetBlockLightAt(p.X, p.Y, p.Z, v)
	} else {
		p.Chunk.SetSkyLightAt(p.X, p.Y, p.Z, v)
	}
}

// DirtySet collects every chunk a lighting operation wrote into, so the
// caller (the chunk thread worker) knows which chunks need
// re-tesselation — per §4.4, "every chunk it touches is added to a
// 'needs retesselate' set returned to the caller."
type DirtySet map[*world.Chunk]struct{}

func (d DirtySet) add(c *world.Chunk) { d[c] = struct{}{} }

// Chunks returns the dirty set as a slice.
func (d DirtySet) Chunks() []*world.Chunk {
	out := make([]*world.Chunk, 0, len(d))
	for c := range d {
		out = append(out, c)
	}
	return out
}

// Propagate runs the BFS described in §4.4: pop a block with value v,
// for each of its six neighbours that is transparent and whose current
// value is ≤ v-2, raise it to v-1 and enqueue it. Returns the set of
// chunks written into.
func Propagate(seeds []Pos, kind Kind) DirtySet {
	dirty := make(DirtySet)
	queue := append([]Pos(nil), seeds...)

	for len(queue) > 0 {
		p := queue[0]
		queue = queue[1:]

		v := valueOf(kind, p.Chunk.BlockAt(p.X, p.Y, p.Z))
		for d := 0; d < 6; d++ {
			np, ok := step(p, d)
			if !ok {
				continue
			}
			nb := np.Chunk.BlockAt(np.X, np.Y, np.Z)
			if !nb.Transparent {
				continue
			}
			nv := valueOf(kind, nb)
			if int(nv) <= int(v)-2 {
				setValue(np, kind, v-1)
				dirty.add(np.Chunk)
				queue = append(queue, np)
			}
		}
	}
	return dirty
}

// SeedColumnSkyLight walks every (x,z) column of chunk top-down, setting
// sky_light_level = 31 for each transparent block until the first
// opaque block, per §4.4's "Initial sky seeding per chunk."
func SeedColumnSkyLight(chunk *world.Chunk) {
	for x := 0; x < world.ChunkWidth; x++ {
		for z := 0; z < world.ChunkDepth; z++ {
			for y := world.ChunkHeight - 1; y >= 0; y-- {
				b := chunk.BlockAt(x, y, z)
				if !b.Transparent {
					break
				}
				chunk.SetSkyLightAt(x, y, z, world.MaxLight)
			}
		}
	}
}

// HorizontalReseedSources scans chunk for sky-lit blocks with a
// horizontal transparent neighbour whose sky light is still below
// maximum, and returns them as BFS seeds — the "sky-lit block that has
// a non-sky-lit horizontal neighbour must act as a propagation source"
// rule in §4.4.
func HorizontalReseedSources(chunk *world.Chunk) []Pos {
	var seeds []Pos
	for x := 0; x < world.ChunkWidth; x++ {
		for y := 0; y < world.ChunkHeight; y++ {
			for z := 0; z < world.ChunkDepth; z++ {
				b := chunk.BlockAt(x, y, z)
				if b.SkyLightLevel != world.MaxLight {
					continue
				}
				p := Pos{Chunk: chunk, X: x, Y: y, Z: z}
				for d := 0; d < 4; d++ { // horizontal only: indices 0,1,4,5 are ±X/±Z
					dir := [4]int{0, 1, 4, 5}[d]
					np, ok := step(p, dir)
					if !ok {
						continue
					}
					nb := np.Chunk.BlockAt(np.X, np.Y, np.Z)
					if nb.Transparent && nb.SkyLightLevel < world.MaxLight {
						seeds = append(seeds, p)
						break
					}
				}
			}
		}
	}
	return seeds
}

// LightSourceSeeds scans chunk for registered light-source blocks, sets
// their current light_level to the registry's emission level, and
// returns them as BFS seeds.
func LightSourceSeeds(chunk *world.Chunk) []Pos {
	var seeds []Pos
	for x := 0; x < world.ChunkWidth; x++ {
		for y := 0; y < world.ChunkHeight; y++ {
			for z := 0; z < world.ChunkDepth; z++ {
				b := chunk.BlockAt(x, y, z)
				if !b.IsLightSource {
					continue
				}
				def := registry.Get(b.ID)
				chunk.SetBlockLightAt(x, y, z, def.LightLevel)
				seeds = append(seeds, Pos{Chunk: chunk, X: x, Y: y, Z: z})
			}
		}
	}
	return seeds
}

// CalculateLighting runs the full per-chunk lighting pass described in
// §4.6's CalculateLighting command: column sky seed, horizontal-sky
// re-seed pass, light-source flood. Returns the set of chunks that need
// re-tesselation as a result (always including chunk itself).
func CalculateLighting(chunk *world.Chunk) DirtySet {
	SeedColumnSkyLight(chunk)

	dirty := make(DirtySet)
	dirty.add(chunk)

	skySeeds := HorizontalReseedSources(chunk)
	for c := range Propagate(skySeeds, Sky) {
		dirty.add(c)
	}

	lightSeeds := LightSourceSeeds(chunk)
	for c := range Propagate(lightSeeds, Block) {
		dirty.add(c)
	}

	chunk.NeedsLighting.Store(false)
	return dirty
}

// RecalculateBlock runs the single-block lighting update described in
// Chunk.cpp's calculateLightingUpdate: given the block that just
// changed at pos and whether the change was a light source removal, it
// picks one of four update paths and returns the chunks that need
// re-tesselation as a result.
func RecalculateBlock(pos Pos, removedLightSource bool) DirtySet {
	dirty := make(DirtySet)
	b := pos.Chunk.BlockAt(pos.X, pos.Y, pos.Z)

	switch {
	case !b.Transparent && !b.IsLightSource && !removedLightSource:
		// A solid, non-emitting block was just placed: darken both
		// channels outward from here, then reflood from whatever
		// brighter sources the darkening pass turned up.
		for _, kind := range [2]Kind{Block, Sky} {
			res := Remove(pos, kind)
			for c := range res.Dirty {
				dirty.add(c)
			}
			for c := range Propagate(res.ReseedFrom, kind) {
				dirty.add(c)
			}
		}

	case removedLightSource:
		res := Remove(pos, Block)
		for c := range res.Dirty {
			dirty.add(c)
		}
		for c := range Propagate(res.ReseedFrom, Block) {
			dirty.add(c)
		}

	case b.IsLightSource:
		def := registry.Get(b.ID)
		setValue(pos, Block, def.LightLevel)
		dirty.add(pos.Chunk)
		for c := range Propagate([]Pos{pos}, Block) {
			dirty.add(c)
		}

	default:
		// A block was removed (now transparent, not a source): this
		// cell's own light is the max of its neighbours minus one,
		// flooding out from there; if a neighbour directly above is
		// fully sky-lit, this cell (and the transparent column below
		// it) becomes sky-lit too.
		var lightMax, skyMax uint8
		skyExposed := false
		for d := 0; d < 6; d++ {
			np, ok := step(pos, d)
			if !ok {
				continue
			}
			nb := np.Chunk.BlockAt(np.X, np.Y, np.Z)
			if nb.LightLevel > 0 && nb.LightLevel-1 > lightMax {
				lightMax = nb.LightLevel - 1
			}
			if nb.SkyLightLevel > 0 && nb.SkyLightLevel-1 > skyMax {
				skyMax = nb.SkyLightLevel - 1
			}
			if d == 3 && nb.SkyLightLevel == world.MaxLight { // +Y
				skyExposed = true
			}
		}
		if skyExposed {
			skyMax = world.MaxLight
		}

		setValue(pos, Block, lightMax)
		dirty.add(pos.Chunk)
		for c := range Propagate([]Pos{pos}, Block) {
			dirty.add(c)
		}

		setValue(pos, Sky, skyMax)
		if skyMax == world.MaxLight {
			cur := pos
			for {
				np, ok := step(cur, 2) // -Y
				if !ok {
					break
				}
				nb := np.Chunk.BlockAt(np.X, np.Y, np.Z)
				if !nb.Transparent {
					break
				}
				setValue(np, Sky, world.MaxLight)
				dirty.add(np.Chunk)
				cur = np
			}
		}
		for c := range Propagate([]Pos{pos}, Sky) {
			dirty.add(c)
		}
	}

	return dirty
}

// RemovalResult is what Remove returns: the re-flood seeds it collected
// plus the chunks it already darkened, so the caller can chain a
// Propagate pass and merge the dirty sets.
type RemovalResult struct {
	ReseedFrom []Pos
	Dirty      DirtySet
}

// Remove runs the two-pass darkening algorithm from §4.4/SPEC_FULL §3:
// a removal BFS that zeroes every lit neighbour whose light is strictly
// lower than the prior value of the darkened block it was reached from,
// collecting into a second queue any lit neighbour whose light is
// greater than or equal to that prior value — an unaffected source to
// re-flood from. Block-light sources are never zeroed; they go to the
// re-flood queue. If origin's stored value is already zero (its block
// was replaced before the call), its prior value is taken as one more
// than its brightest neighbour's.
// Call Propagate(result.ReseedFrom, kind) afterward to restore the
// correct steady state.
func Remove(origin Pos, kind Kind) RemovalResult {
	dirty := make(DirtySet)
	var reseed []Pos

	type entry struct {
		pos Pos
		old uint8
	}
	old := valueOf(kind, origin.Chunk.BlockAt(origin.X, origin.Y, origin.Z))
	if old == 0 {
		for d := 0; d < 6; d++ {
			if np, ok := step(origin, d); ok {
				if nv := valueOf(kind, np.Chunk.BlockAt(np.X, np.Y, np.Z)); nv > 0 && int(nv)+1 > int(old) {
					old = world.ClampLight(int(nv) + 1)
				}
			}
		}
	}
	queue := []entry{{origin, old}}
	setValue(origin, kind, 0)
	dirty.add(origin.Chunk)

	for len(queue) > 0 {
		e := queue[0]
		queue = queue[1:]

		for d := 0; d < 6; d++ {
			np, ok := step(e.pos, d)
			if !ok {
				continue
			}
			nb := np.Chunk.BlockAt(np.X, np.Y, np.Z)
			nv := valueOf(kind, nb)

			if kind == Block && nb.IsLightSource && nv > 0 {
				reseed = append(reseed, np)
				continue
			}
			if nv != 0 && nv < e.old {
				setValue(np, kind, 0)
				dirty.add(np.Chunk)
				queue = append(queue, entry{np, nv})
			} else if nv >= e.old && nv > 0 {
				reseed = append(reseed, np)
			}
		}
	}

	return RemovalResult{ReseedFrom: reseed, Dirty: dirty}
}

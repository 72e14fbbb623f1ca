// Package meshing turns a chunk's block array into packed GPU vertices,
// split across the sub-chunk vertex pool's opaque and blendable slots.
package meshing

import (
	"github.com/dantero/voxelcore/internal/pool"
	"github.com/dantero/voxelcore/internal/profiling"
	"github.com/dantero/voxelcore/internal/registry"
	"github.com/dantero/voxelcore/internal/world"
)

// face describes one of the six cube directions: its normal, the two
// in-plane (tangent) axes used for corner sampling, and the UV-corner
// rotation §4.5 assigns it.
type face struct {
	index      uint8
	dx, dy, dz int // normal
	ux, uy, uz int // tangent axis 1
	vx, vy, vz int // tangent axis 2
	uvRotation uint8
}

var faces = [6]face{
	{index: uint8(world.FaceNorth), dx: 0, dy: 0, dz: 1, ux: 1, vy: 1, uvRotation: 0},
	{index: uint8(world.FaceSouth), dx: 0, dy: 0, dz: -1, ux: 1, vy: 1, uvRotation: 2},
	{index: uint8(world.FaceEast), dx: 1, dy: 0, dz: 0, uy: 1, vz: 1, uvRotation: 3},
	{index: uint8(world.FaceWest), dx: -1, dy: 0, dz: 0, uy: 1, vz: 1, uvRotation: 3},
	{index: uint8(world.FaceTop), dx: 0, dy: 1, dz: 0, ux: 1, vz: 1, uvRotation: 0},
	{index: uint8(world.FaceBottom), dx: 0, dy: -1, dz: 0, ux: 1, vz: 1, uvRotation: 0},
}

// blockPos addresses a block through a chunk pointer plus local
// coordinates, the same neighbour-pointer-walking scheme the lighting
// engine uses, so face visibility and corner sampling can cross chunk
// borders without going back through the chunk map.
type blockPos struct {
	chunk   *world.Chunk
	x, y, z int
}

func step(p blockPos, dx, dy, dz int) (blockPos, bool) {
	nx, ny, nz := p.x+dx, p.y+dy, p.z+dz
	if ny < 0 || ny >= world.ChunkHeight {
		return blockPos{}, false
	}
	chunk := p.chunk
	switch {
	case nx < 0:
		chunk = chunk.Neighbour(world.NeighbourLeft)
		nx = world.ChunkWidth - 1
	case nx >= world.ChunkWidth:
		chunk = chunk.Neighbour(world.NeighbourRight)
		nx = 0
	}
	if chunk == nil {
		return blockPos{}, false
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
		return blockPos{}, false
	}
	return blockPos{chunk: chunk, x: nx, y: ny, z: nz}, true
}

func blockOf(p blockPos, ok bool) world.Block {
	if !ok {
		return world.NullBlock
	}
	return p.chunk.BlockAt(p.x, p.y, p.z)
}

// seeThrough reports whether neighbour n is see-through for a face
// emitted by a block of id `from`, per §4.5's face emission rule: a NULL
// neighbour (outside the loaded world, or a cell not yet filled) never
// culls; otherwise water only shows a face against AIR (oceans are hollow
// internally), and every other opaque/blendable block shows a face
// against any transparent, non-water neighbour.
func seeThrough(from world.BlockID, n world.Block) bool {
	if n.IsNull() {
		return true
	}
	if !n.Transparent {
		return false
	}
	if from == registry.WaterID() {
		return n.IsAir()
	}
	if n.ID == registry.WaterID() {
		return false
	}
	return true
}

// Mesher runs the sub-chunk tesselation pass described in §4.5 against
// one target Pool.
type Mesher struct {
	Pool *pool.Pool
}

// New creates a Mesher writing into p.
func New(p *pool.Pool) *Mesher {
	return &Mesher{Pool: p}
}

// MeshResult reports, by sub-chunk level, the last opaque and blendable
// pool slot a chunk's mesh pass claimed, so the caller can observe what
// was produced. A level whose faces overflow one slot claims more; only
// the last of them is recorded here.
type MeshResult struct {
	OpaqueSlots    [world.NumSubChunks]*pool.Slot
	BlendableSlots [world.NumSubChunks]*pool.Slot
}

// MeshChunk visits chunk's 16x256x16 block array top-to-bottom in
// 16-block slabs, emitting packed vertices for every visible face into
// slots acquired from the pool. A new slot is taken whenever the
// current one would exceed MaxVertsPerSubChunk-6 (§4.5).
func (m *Mesher) MeshChunk(chunk *world.Chunk) MeshResult {
	defer profiling.Track("meshing.MeshChunk")()

	var result MeshResult

	for level := world.NumSubChunks - 1; level >= 0; level-- {
		yStart := level * world.SubChunkHeight
		yEnd := yStart + world.SubChunkHeight

		var opaque, blendable *pool.Slot

		// A rebuild of an already-meshed level must not leave the
		// previously uploaded slot behind as a stale duplicate (§4.3,
		// §4.5: "any slot previously flagged RetesselateVertices for
		// this chunk+level moves to DoneRetesselating"). Flag the live
		// slot for each bucket now, before writing any new data into a
		// fresh one, so the renderer keeps drawing the old geometry
		// until the new slot is ready.
		oldOpaque, hasOldOpaque := m.Pool.FindSlot(chunk.Coords, level, false)
		if hasOldOpaque && oldOpaque.State() == pool.Uploaded {
			oldOpaque.SetState(pool.RetesselateVertices)
		}
		oldBlendable, hasOldBlendable := m.Pool.FindSlot(chunk.Coords, level, true)
		if hasOldBlendable && oldBlendable.State() == pool.Uploaded {
			oldBlendable.SetState(pool.RetesselateVertices)
		}

		ensure := func(blendableFace bool) *pool.Slot {
			budget := uint32(m.Pool.MaxVertsPerSubChunk() - 6)
			if blendableFace {
				if blendable == nil || blendable.VertsUsed() > budget {
					slot, ok := m.Pool.AcquireForMesh(chunk.Coords, level, true, chunk)
					if !ok {
						return nil
					}
					finishSlot(blendable)
					blendable = slot
				}
				return blendable
			}
			if opaque == nil || opaque.VertsUsed() > budget {
				slot, ok := m.Pool.AcquireForMesh(chunk.Coords, level, false, chunk)
				if !ok {
					return nil
				}
				finishSlot(opaque)
				opaque = slot
			}
			return opaque
		}

		for x := 0; x < world.ChunkWidth; x++ {
			for y := yStart; y < yEnd; y++ {
				for z := 0; z < world.ChunkDepth; z++ {
					b := chunk.BlockAt(x, y, z)
					if b.IsAir() || b.IsNull() {
						continue
					}
					for _, f := range faces {
						np, ok := step(blockPos{chunk, x, y, z}, f.dx, f.dy, f.dz)
						nb := blockOf(np, ok)
						if !seeThrough(b.ID, nb) {
							continue
						}
						slot := ensure(b.IsBlendable)
						if slot == nil {
							continue // SlotExhausted: drop remaining faces for this chunk
						}
						emitFace(slot, x, y, z, f, b)
					}
				}
			}
		}

		finishSlot(opaque)
		finishSlot(blendable)
		retireOldSlot(oldOpaque, hasOldOpaque)
		retireOldSlot(oldBlendable, hasOldBlendable)
		result.OpaqueSlots[level] = opaque
		result.BlendableSlots[level] = blendable
	}

	return result
}

// finishSlot marks a freshly-acquired slot ready for upload. A slot
// reaching here was always just claimed from the free list this pass
// (TesselatingVertices), never the pre-existing slot a rebuild is
// replacing — that one is handled by retireOldSlot.
func finishSlot(s *pool.Slot) {
	if s == nil {
		return
	}
	s.SetState(pool.UploadVerticesToGpu)
}

// retireOldSlot transitions a slot flagged RetesselateVertices at the
// top of this level's pass to DoneRetesselating, so the renderer
// retires it next frame — whether or not a replacement slot ended up
// being acquired (a level that lost all its faces this pass still
// needs its old geometry cleared, not left on screen).
func retireOldSlot(s *pool.Slot, found bool) {
	if found && s.State() == pool.RetesselateVertices {
		s.SetState(pool.DoneRetesselating)
	}
}

// emitFace writes the two triangles (six vertices) for one visible
// face into slot, bumping VertsUsed atomically once the face is fully
// written.
func emitFace(slot *pool.Slot, x, y, z int, f face, b world.Block) {
	texID := uint32(registry.GetTextureLayer(b.ID, world.BlockFace(f.index)))
	def := registry.Get(b.ID)
	biome := def.TintFaces != nil && def.TintFaces[world.BlockFace(f.index)]
	r, g, bl := tintRGB(def.TintColor)

	// Corner order in the face's (u, v) tangent axes: two triangles
	// forming a quad. Every face uses the same order, so the winding
	// seen from the outward normal is CCW for north, east and bottom
	// faces and CW for south, west and top faces.
	type corner struct{ cu, cv int }
	corners := [6]corner{{0, 0}, {1, 0}, {1, 1}, {0, 0}, {1, 1}, {0, 1}}

	base := uint32(slot.VertsUsed())
	for i, c := range corners {
		light, sky := smoothLight(x, y, z, f, c.cu, c.cv, slot)
		posIdx := encodePosition(x, y, z, f, c.cu, c.cv)
		uvIdx := rotateUV(uint8(i%4), f.uvRotation)
		v := pool.PackVertex(posIdx, texID, f.index, uvIdx, biome, light, sky, r, g, bl)
		if int(base)+i < len(slot.Data) {
			slot.Data[int(base)+i] = v
		}
	}
	slot.AddVertsUsed(6)
}

// encodePosition packs the face's vertex position into the sub-chunk's
// base-17 corner grid index, per §3's "compressed into a base-17 index
// over the sub-chunk's 17^3 grid of corners".
func encodePosition(x, y, z int, f face, cu, cv int) uint32 {
	lx, ly, lz := x, y%world.SubChunkHeight, z
	switch {
	case f.dx != 0:
		if f.dx > 0 {
			lx++
		}
		ly += cu
		lz += cv
	case f.dy != 0:
		if f.dy > 0 {
			ly++
		}
		lx += cu
		lz += cv
	default:
		if f.dz > 0 {
			lz++
		}
		lx += cu
		ly += cv
	}
	const grid = 17
	return uint32(lx) + uint32(ly)*grid + uint32(lz)*grid*grid
}

// rotateUV rotates the uv-corner index per §4.5: back +2, left/right
// +3, others unchanged.
func rotateUV(uv uint8, rotation uint8) uint8 {
	return (uv + rotation) % 4
}

// tintRGB unpacks a 0xRRGGBB colour into 3-bit-per-channel values for
// the packed vertex's colour field.
func tintRGB(rgb uint32) (r, g, b uint8) {
	r = uint8((rgb>>16)&0xFF) >> 5
	g = uint8((rgb>>8)&0xFF) >> 5
	b = uint8(rgb&0xFF) >> 5
	return
}

// smoothLight averages light_level and sky_light_level over the four
// blocks sharing this face-corner on the air side, counting only those
// that are AIR or NULL, per §4.5.
func smoothLight(x, y, z int, f face, cu, cv int, slot *pool.Slot) (uint8, uint8) {
	chunk := slot.Chunk()
	if chunk == nil {
		return 0, 0
	}
	origin := blockPos{chunk, x, y, z}
	neighbour, ok := step(origin, f.dx, f.dy, f.dz)
	if !ok {
		return 0, 0
	}

	var lightSum, skySum, count int
	for _, du := range [2]int{cu - 1, cu} {
		for _, dv := range [2]int{cv - 1, cv} {
			p, ok := step(neighbour, du*f.ux+dv*f.vx, du*f.uy+dv*f.vy, du*f.uz+dv*f.vz)
			b := blockOf(p, ok)
			if b.IsAir() || b.IsNull() {
				lightSum += int(b.LightLevel)
				skySum += int(b.SkyLightLevel)
				count++
			}
		}
	}
	if count == 0 {
		b := blockOf(neighbour, true)
		return b.LightLevel, b.SkyLightLevel
	}
	return uint8(lightSum / count), uint8(skySum / count)
}

// Package render implements the renderer bridge: the main-thread step
// that turns sub-chunk pool state into a sorted pair of indirect draw
// command lists, retiring slots whose chunk has left the world along
// the way. It never touches GPU handles directly — internal/openglhelper
// owns buffer upload and the actual multi-draw-indirect calls, driven
// by the lists this package produces.
package render

import (
	"sort"

	"github.com/dantero/voxelcore/internal/pool"
	"github.com/dantero/voxelcore/internal/profiling"
	"github.com/dantero/voxelcore/internal/world"
)

// DrawCommand is one sub-chunk's contribution to a frame: everything
// openglhelper needs to fill a DrawElementsIndirectCommand plus the
// per-instance chunk-coord/biome attributes.
type DrawCommand struct {
	Coord     world.ChunkCoord
	Level     int
	First     uint32
	VertCount uint32
	BiomeID   int32
	distSq    int64
}

// FrameCommands is the renderer bridge's per-frame output: two
// independently sorted command lists, one per GL pass.
type FrameCommands struct {
	Opaque    []DrawCommand
	Blendable []DrawCommand
}

// Bridge builds FrameCommands from pool slot state each frame.
type Bridge struct {
	pool  *pool.Pool
	store *world.ChunkStore
}

// New builds a renderer bridge over p's slots, using store to decide
// whether a slot's chunk is still resident.
func New(p *pool.Pool, store *world.ChunkStore) *Bridge {
	return &Bridge{pool: p, store: store}
}

// Update runs one frame's renderer-bridge procedure: frees orphaned and
// DoneRetesselating slots, promotes finished uploads, then builds the
// sorted opaque/blendable command lists for everything currently visible from playerCoord
// through frustum.
func (b *Bridge) Update(playerCoord world.ChunkCoord, frustum Frustum) FrameCommands {
	defer profiling.Track("render.Update")()

	var opaque, blendable []DrawCommand

	for i := 0; i < b.pool.Cap(); i++ {
		slot := b.pool.Slot(i)

		// Step 1: a slot whose chunk has left the map, and that isn't
		// currently being written by the worker, is freed outright.
		state := slot.State()
		if state == pool.Uploaded && b.isOrphaned(slot) {
			b.pool.Release(i)
			continue
		}

		// Step 2: a finished upload becomes visible next frame.
		if state == pool.UploadVerticesToGpu && slot.VertsUsed() > 0 {
			slot.SetState(pool.Uploaded)
			state = pool.Uploaded
		}

		// Step 6: a retired retesselation is freed once observed.
		if state == pool.DoneRetesselating {
			b.pool.Release(i)
			continue
		}

		// Steps 3-4: collect a draw command from anything visible.
		if state != pool.Uploaded && state != pool.RetesselateVertices {
			continue
		}
		verts := slot.VertsUsed()
		if verts == 0 {
			continue
		}
		min, max := SubChunkAABB(slot.ChunkCoords.X, slot.ChunkCoords.Z, slot.Level)
		if !frustum.IntersectsAABB(min, max) {
			continue
		}
		cmd := DrawCommand{
			Coord:     slot.ChunkCoords,
			Level:     slot.Level,
			First:     slot.First,
			VertCount: verts,
			BiomeID:   0, // single-biome world; kept for the wire/GPU contract's shape
			distSq:    manhattanSq(slot.ChunkCoords, playerCoord),
		}
		if slot.IsBlendable {
			blendable = append(blendable, cmd)
		} else {
			opaque = append(opaque, cmd)
		}
	}

	sort.Slice(opaque, func(i, j int) bool { return opaque[i].distSq < opaque[j].distSq })
	sort.Slice(blendable, func(i, j int) bool { return blendable[i].distSq > blendable[j].distSq })

	return FrameCommands{Opaque: opaque, Blendable: blendable}
}

// isOrphaned reports whether a slot has no chunk or its chunk has left
// the chunk store map; Update checks the slot's state separately.
func (b *Bridge) isOrphaned(slot *pool.Slot) bool {
	c := slot.Chunk()
	return c == nil || !b.store.HasChunk(slot.ChunkCoords)
}

func manhattanSq(a, b world.ChunkCoord) int64 {
	dx := int64(a.X - b.X)
	dz := int64(a.Z - b.Z)
	return dx*dx + dz*dz
}

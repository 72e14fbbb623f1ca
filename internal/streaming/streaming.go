// Package streaming drives the per-frame chunk load/unload/retesselate
// cycle around the player's current chunk. It runs on the main thread:
// it never touches block data or vertex slots itself, only enqueues
// commands against the chunk thread worker and mutates the chunk store's
// structural map (insert/evict/patch neighbours).
package streaming

import (
	"github.com/dantero/voxelcore/internal/config"
	"github.com/dantero/voxelcore/internal/worker"
	"github.com/dantero/voxelcore/internal/world"
)

// Controller holds the streaming state that must persist across frames:
// which chunk coordinate was the player's last frame, so newly-visible
// ring chunks can be told to retesselate once their neighbours exist.
type Controller struct {
	store  *world.ChunkStore
	worker *worker.Worker

	havePrev   bool
	prevCoord  world.ChunkCoord
	prevRadius int32
}

// New builds a streaming controller over store, enqueuing commands
// against w.
func New(store *world.ChunkStore, w *worker.Worker) *Controller {
	return &Controller{store: store, worker: w}
}

// Update runs one frame's worth of streaming work around playerCoord,
// the chunk coordinate currently containing the player. Steps run in a
// fixed order because later steps depend on earlier ones: neighbour
// pointers must be patched only after every new chunk for this frame
// has been inserted, and before decoration/lighting commands run that
// assume those pointers are already valid.
func (c *Controller) Update(playerCoord world.ChunkCoord) {
	loadRadius := int32(config.GetChunkLoadRadius())
	evictRadius := int32(config.GetChunkEvictRadius())

	c.enqueueSavesOutsideRadius(playerCoord, evictRadius)
	c.store.RemoveUnloadingChunks()
	c.scanLoadRadius(playerCoord, loadRadius)

	c.store.PatchNeighbours()

	c.worker.Enqueue(&worker.Command{Kind: worker.GenerateDecorations, PlayerChunkCoord: playerCoord})
	c.worker.Enqueue(&worker.Command{Kind: worker.CalculateLighting, PlayerChunkCoord: playerCoord})

	c.prevCoord = playerCoord
	c.prevRadius = loadRadius
	c.havePrev = true
}

// enqueueSavesOutsideRadius walks every resident chunk and enqueues
// SaveBlockData for any that have drifted beyond evictRadius and aren't
// already mid-save — the first step of the eviction pipeline. The
// worker transitions these to Unloading once the save completes;
// RemoveUnloadingChunks then reclaims them on a later frame.
func (c *Controller) enqueueSavesOutsideRadius(playerCoord world.ChunkCoord, evictRadius int32) {
	r2 := evictRadius * evictRadius
	for _, cc := range c.store.GetAllChunks() {
		dx := int64(cc.Coord.X - playerCoord.X)
		dz := int64(cc.Coord.Z - playerCoord.Z)
		if dx*dx+dz*dz <= int64(r2) {
			continue
		}
		if cc.Chunk.State() == world.Saving || cc.Chunk.State() == world.Unloading {
			continue
		}
		c.worker.Enqueue(&worker.Command{Kind: worker.SaveBlockData, Chunk: cc.Chunk, PlayerChunkCoord: playerCoord})
	}
}

// scanLoadRadius walks the inclusive disk of radius loadRadius around
// playerCoord: absent positions get a fresh chunk and a GenerateTerrain
// command, present ones that sat on the previous frame's outer ring get
// a retesselate (their border neighbours may have just appeared).
func (c *Controller) scanLoadRadius(playerCoord world.ChunkCoord, loadRadius int32) {
	r2 := loadRadius * loadRadius
	for dx := -loadRadius; dx <= loadRadius; dx++ {
		for dz := -loadRadius; dz <= loadRadius; dz++ {
			if dx*dx+dz*dz > r2 {
				continue
			}
			coord := world.ChunkCoord{X: playerCoord.X + dx, Z: playerCoord.Z + dz}
			if c.store.HasChunk(coord) {
				if c.wasOnPreviousOuterRing(coord) {
					chunk := c.store.GetChunk(coord, false)
					c.worker.Enqueue(&worker.Command{Kind: worker.TesselateVertices, Chunk: chunk, PlayerChunkCoord: playerCoord})
				}
				continue
			}
			chunk := c.store.GetChunk(coord, true)
			c.worker.Enqueue(&worker.Command{Kind: worker.GenerateTerrain, Chunk: chunk, PlayerChunkCoord: playerCoord})
		}
	}
}

// wasOnPreviousOuterRing reports whether coord sat at or beyond the
// edge of the load disk as seen from the previous frame's player
// position — meaning at least one of its cardinal neighbours may not
// have existed yet back then, and could have just been created this
// frame, requiring coord to retesselate to pick up the new border.
func (c *Controller) wasOnPreviousOuterRing(coord world.ChunkCoord) bool {
	if !c.havePrev {
		return false
	}
	dx := int64(coord.X - c.prevCoord.X)
	dz := int64(coord.Z - c.prevCoord.Z)
	edge := int64(c.prevRadius) * int64(c.prevRadius)
	inner := int64(c.prevRadius-1) * int64(c.prevRadius-1)
	d2 := dx*dx + dz*dz
	return d2 > inner && d2 <= edge+2*int64(c.prevRadius)
}

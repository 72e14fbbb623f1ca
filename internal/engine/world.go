// Package engine is the composition root: it owns every subsystem
// package as a value (no process-wide singletons) and exposes the
// narrow API an application embeds — get/set/remove a block, advance
// one frame of streaming and rendering, and a clean shutdown.
package engine

import (
	"github.com/dantero/voxelcore/internal/config"
	"github.com/dantero/voxelcore/internal/meshing"
	"github.com/dantero/voxelcore/internal/pool"
	"github.com/dantero/voxelcore/internal/registry"
	"github.com/dantero/voxelcore/internal/render"
	"github.com/dantero/voxelcore/internal/streaming"
	"github.com/dantero/voxelcore/internal/worker"
	"github.com/dantero/voxelcore/internal/world"
)

// World owns the chunked world subsystem end to end: the chunk store,
// the chunk thread worker, the streaming controller, the vertex pool,
// and the renderer bridge. The application constructs exactly one of
// these and passes it around explicitly.
type World struct {
	store    *world.ChunkStore
	pool     *pool.Pool
	worker   *worker.Worker
	streamer *streaming.Controller
	renderer *render.Bridge

	playerCoord world.ChunkCoord
}

// Options configures a new World.
type Options struct {
	Seed                int64
	VertexBacking       []pool.Vertex // len must be ChunkCapacity*NumSubChunks*MaxVertsPerSubChunk
	ChunkCapacity       int
	MaxVertsPerSubChunk int
}

// New builds a World and starts its chunk thread worker. registry.InitRegistry
// must have been called already (once, at process startup).
func New(opts Options) *World {
	store := world.NewChunkStore()
	gen := world.NewGenerator(opts.Seed)
	p := pool.New(opts.VertexBacking, opts.ChunkCapacity, opts.MaxVertsPerSubChunk)
	m := meshing.New(p)
	w := worker.New(store, gen, m)
	w.Start()

	return &World{
		store:    store,
		pool:     p,
		worker:   w,
		streamer: streaming.New(store, w),
		renderer: render.New(p, store),
	}
}

// GetBlock resolves world position (x, y, z) to a block, or the NULL
// block per §7 if its chunk isn't loaded or y is out of range.
func (w *World) GetBlock(x, y, z int) world.Block {
	return w.store.GetBlock(x, y, z)
}

// SetBlock writes b at world position (x, y, z) and enqueues a
// RecalculateLighting command against the worker so the change's
// lighting and mesh catch up. Returns false if the position's chunk
// isn't loaded (BadCommand-equivalent: silently a no-op per §7).
func (w *World) SetBlock(x, y, z int, b world.Block) bool {
	return w.mutate(x, y, z, b, false)
}

// RemoveBlock sets AIR at world position (x, y, z), treated as a
// light-source removal if the replaced block was one.
func (w *World) RemoveBlock(x, y, z int) bool {
	was := w.store.GetBlock(x, y, z)
	return w.mutate(x, y, z, world.Block{ID: world.AirBlockID, Transparent: true}, was.IsLightSource)
}

func (w *World) mutate(x, y, z int, b world.Block, removedLightSource bool) bool {
	coord := world.ChunkCoordOf(x, z)
	chunk := w.store.GetChunk(coord, false)
	if chunk == nil {
		return false
	}
	if !w.store.SetBlock(x, y, z, b) {
		return false
	}
	lx, lz := world.LocalXZ(x, z)
	w.worker.Enqueue(&worker.Command{
		Kind:               worker.RecalculateLighting,
		Chunk:              chunk,
		PlayerChunkCoord:   w.playerCoord,
		LocalX:             lx,
		LocalY:             y,
		LocalZ:             lz,
		RemovedLightSource: removedLightSource,
	})
	return true
}

// Update advances streaming around playerCoord and returns this
// frame's sorted draw commands from the renderer bridge. Call once per
// frame, between reading input and issuing GPU draw calls.
func (w *World) Update(playerCoord world.ChunkCoord, frustum render.Frustum) render.FrameCommands {
	w.playerCoord = playerCoord
	w.streamer.Update(playerCoord)
	return w.renderer.Update(playerCoord, frustum)
}

// StoreChunkOrGenerate returns coord's chunk, generating it
// synchronously first if it isn't resident yet. Used by the server's
// connection handler to assemble an initial chunk-stream frame without
// racing the background worker.
func (w *World) StoreChunkOrGenerate(coord world.ChunkCoord) *world.Chunk {
	chunk := w.store.GetChunk(coord, false)
	if chunk != nil {
		return chunk
	}
	chunk = w.store.GetChunk(coord, true)
	done := make(chan struct{})
	w.worker.Enqueue(&worker.Command{Kind: worker.GenerateTerrain, Chunk: chunk, PlayerChunkCoord: coord, Done: done})
	<-done
	return chunk
}

// Pool exposes the vertex pool so the GL wiring layer can bind its
// backing buffer and read slot offsets directly.
func (w *World) Pool() *pool.Pool { return w.pool }

// Close queues SaveBlockData for every resident chunk and blocks until
// the worker has drained them and exited — "queue save-all, join the
// worker thread."
func (w *World) Close() {
	for _, cc := range w.store.GetAllChunks() {
		if cc.Chunk.State() != world.Saving && cc.Chunk.State() != world.Unloading {
			w.worker.Enqueue(&worker.Command{Kind: worker.SaveBlockData, Chunk: cc.Chunk, PlayerChunkCoord: w.playerCoord})
		}
	}
	w.worker.Shutdown()
}

// EnsureRegistryLoaded is a convenience wrapper so cmd/ entrypoints
// don't need to import internal/registry directly just to call init.
func EnsureRegistryLoaded() {
	registry.InitRegistry()
}

// DefaultVertexBackingLen returns the vertex count a plain (non-GPU)
// backing slice needs for config's current chunk capacity and vertex
// budget — used by tests and by cmd/voxelserver, which has no GPU.
func DefaultVertexBackingLen() int {
	return config.GetChunkCapacity() * world.NumSubChunks * config.GetMaxVertsPerSubChunk()
}

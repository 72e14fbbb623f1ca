package worker

import (
	"log"
	"sync"
	"sync/atomic"

	"github.com/dantero/voxelcore/internal/lighting"
	"github.com/dantero/voxelcore/internal/meshing"
	"github.com/dantero/voxelcore/internal/profiling"
	"github.com/dantero/voxelcore/internal/world"
)

// Worker is the single background chunk thread: it owns exclusive write
// access to chunk block arrays and to sub-chunk slots while they are in
// non-Uploaded states. The main thread only ever reads, enqueues
// commands, and retires slot indices it observes in terminal states.
type Worker struct {
	store  *world.ChunkStore
	gen    world.TerrainGenerator
	mesher *meshing.Mesher

	mu    sync.Mutex
	cond  *sync.Cond
	queue *commandQueue

	doWork  atomic.Bool
	started atomic.Bool
	wg      sync.WaitGroup
}

// New builds a worker over store, using gen for GenerateTerrain and
// mesher for TesselateVertices. Call Start to spawn its goroutine.
func New(store *world.ChunkStore, gen world.TerrainGenerator, mesher *meshing.Mesher) *Worker {
	w := &Worker{store: store, gen: gen, mesher: mesher, queue: newCommandQueue()}
	w.cond = sync.NewCond(&w.mu)
	w.doWork.Store(true)
	return w
}

// Start spawns the worker's single goroutine. Calling Start more than
// once is a no-op.
func (w *Worker) Start() {
	if !w.started.CompareAndSwap(false, true) {
		return
	}
	w.wg.Add(1)
	go w.run()
}

// Enqueue adds cmd to the priority queue and wakes the worker. cmd's
// PlayerChunkCoord should already be stamped by the caller (mirrors the
// original's queueCommand snapshotting the player position at enqueue
// time, not at dequeue time).
func (w *Worker) Enqueue(cmd *Command) {
	w.mu.Lock()
	w.queue.push(cmd)
	w.mu.Unlock()
	w.cond.Signal()
}

// Shutdown stops accepting new priority ordering guarantees and blocks
// until the worker goroutine has drained every SaveBlockData command
// still in the queue and exited — "queue save-all, join the thread."
func (w *Worker) Shutdown() {
	w.mu.Lock()
	w.doWork.Store(false)
	w.mu.Unlock()
	w.cond.Broadcast()
	w.wg.Wait()
}

func (w *Worker) run() {
	defer w.wg.Done()
	for {
		cmd, ok := w.nextCommand()
		if !ok {
			return
		}
		w.process(cmd)
		if cmd.Done != nil {
			close(cmd.Done)
		}
	}
}

// nextCommand blocks until a command is available or shutdown has
// finished draining saves. While shutting down, every popped command
// whose Kind isn't SaveBlockData is dropped rather than processed —
// the exact "drain only SaveBlockData" loop from the source worker.
func (w *Worker) nextCommand() (*Command, bool) {
	w.mu.Lock()
	defer w.mu.Unlock()

	for {
		working := w.doWork.Load()
		for w.queue.len() == 0 {
			if !working {
				return nil, false
			}
			w.cond.Wait()
			working = w.doWork.Load()
		}

		cmd, _ := w.queue.pop()
		if working || cmd.Kind == SaveBlockData {
			return cmd, true
		}
		// shutting down and this wasn't a save: drop it and keep
		// draining until only saves (or nothing) remain.
	}
}

func (w *Worker) process(cmd *Command) {
	defer profiling.Track("worker." + cmd.Kind.String())()

	switch cmd.Kind {
	case GenerateTerrain:
		w.handleGenerateTerrain(cmd)
	case ClientLoadChunk:
		w.handleClientLoadChunk(cmd)
	case GenerateDecorations:
		w.handleGenerateDecorations(cmd)
	case CalculateLighting:
		w.handleCalculateLighting(cmd)
	case RecalculateLighting:
		w.handleRecalculateLighting(cmd)
	case TesselateVertices:
		w.handleTesselateVertices(cmd)
	case SaveBlockData:
		w.handleSaveBlockData(cmd)
	}
}

func (w *Worker) handleGenerateTerrain(cmd *Command) {
	chunk := cmd.Chunk
	if chunkFileExists(chunk.Coords) {
		loaded, err := loadChunkFile(chunk.Coords)
		if err != nil {
			log.Printf("worker: corrupt chunk file at %v, regenerating: %v", chunk.Coords, err)
			w.gen.PopulateChunk(chunk)
		} else {
			chunk.AdoptBlocksFrom(loaded)
			chunk.NeedsDecorations.Store(false)
		}
	} else {
		w.gen.PopulateChunk(chunk)
	}
	chunk.NeedsLighting.Store(true)
	chunk.SetState(world.Loaded)
}

func (w *Worker) handleClientLoadChunk(cmd *Command) {
	chunk := cmd.Chunk
	if cmd.ClientBlocks != nil {
		chunk.ReplaceBlocks(cmd.ClientBlocks)
	}
	chunk.NeedsDecorations.Store(false)
	chunk.NeedsLighting.Store(true)
	chunk.SetState(world.Loaded)
}

func (w *Worker) handleGenerateDecorations(cmd *Command) {
	const radius = 8
	chunks := w.store.AppendChunksInRadiusXZ(cmd.PlayerChunkCoord.X, cmd.PlayerChunkCoord.Z, radius, nil)
	for _, cc := range chunks {
		if cc.Chunk.NeedsDecorations.Load() {
			decorate(cc.Chunk)
			cc.Chunk.NeedsDecorations.Store(false)
		}
	}
}

func (w *Worker) handleCalculateLighting(cmd *Command) {
	const radius = 8
	chunks := w.store.AppendChunksInRadiusXZ(cmd.PlayerChunkCoord.X, cmd.PlayerChunkCoord.Z, radius, nil)
	for _, cc := range chunks {
		if !cc.Chunk.NeedsLighting.Load() {
			continue
		}
		dirty := lighting.CalculateLighting(cc.Chunk)
		for _, c := range dirty.Chunks() {
			w.Enqueue(&Command{Kind: TesselateVertices, Chunk: c, PlayerChunkCoord: cmd.PlayerChunkCoord})
		}
	}
}

func (w *Worker) handleRecalculateLighting(cmd *Command) {
	pos := lighting.Pos{Chunk: cmd.Chunk, X: cmd.LocalX, Y: cmd.LocalY, Z: cmd.LocalZ}
	dirty := lighting.RecalculateBlock(pos, cmd.RemovedLightSource)
	for c := range dirty {
		w.Enqueue(&Command{Kind: TesselateVertices, Chunk: c, PlayerChunkCoord: cmd.PlayerChunkCoord})
	}
}

func (w *Worker) handleTesselateVertices(cmd *Command) {
	w.mesher.MeshChunk(cmd.Chunk)
}

func (w *Worker) handleSaveBlockData(cmd *Command) {
	chunk := cmd.Chunk
	chunk.SetState(world.Saving)
	if err := saveChunkFile(chunk); err != nil {
		log.Printf("worker: failed to save chunk %v: %v", chunk.Coords, err)
	}
	chunk.SetState(world.Unloading)
}

// decorate applies simple flora placement above the terrain surface; a
// stand-in for the original's tree/crown generator, scoped to what this
// subsystem's registry actually defines (no leaves/log placement logic
// beyond a single trunk+canopy, since tree shape fidelity is out of
// scope here).
func decorate(chunk *world.Chunk) {
	const logID world.BlockID = 11
	const leavesID world.BlockID = 10

	for lx := 2; lx < world.ChunkWidth-2; lx += 7 {
		for lz := 2; lz < world.ChunkDepth-2; lz += 7 {
			top := surfaceHeight(chunk, lx, lz)
			if top <= 0 || top+5 >= world.ChunkHeight {
				continue
			}
			if chunk.BlockAt(lx, top, lz).ID != 2 { // only plant on grass
				continue
			}
			for dy := 1; dy <= 3; dy++ {
				chunk.SetBlockAt(lx, top+dy, lz, world.Block{ID: logID})
			}
			for dx := -1; dx <= 1; dx++ {
				for dz := -1; dz <= 1; dz++ {
					if dx == 0 && dz == 0 {
						continue
					}
					x, z := lx+dx, lz+dz
					if x < 0 || x >= world.ChunkWidth || z < 0 || z >= world.ChunkDepth {
						continue
					}
					chunk.SetBlockAt(x, top+4, z, world.Block{ID: leavesID, Transparent: true, IsBlendable: true})
				}
			}
			chunk.SetBlockAt(lx, top+5, lz, world.Block{ID: leavesID, Transparent: true, IsBlendable: true})
		}
	}
}

func surfaceHeight(chunk *world.Chunk, lx, lz int) int {
	for y := world.ChunkHeight - 1; y > 0; y-- {
		if !chunk.BlockAt(lx, y, lz).IsAir() {
			return y
		}
	}
	return 0
}

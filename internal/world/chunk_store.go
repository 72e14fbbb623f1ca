package world

import (
	"sync"

	"github.com/dantero/voxelcore/internal/profiling"
)

// ChunkStore owns the chunk map: the only structural mutations (insert,
// erase) happen on the main thread (streaming controller), so the
// worker's reads are safe once an insert completes. A single mutex
// guards the map against concurrent iteration.
type ChunkStore struct {
	mu       sync.RWMutex
	chunks   map[ChunkCoord]*Chunk
	modCount uint64
}

// NewChunkStore creates an empty chunk store.
func NewChunkStore() *ChunkStore {
	return &ChunkStore{chunks: make(map[ChunkCoord]*Chunk)}
}

// GetChunk returns the chunk at coord, creating it (state Loading,
// empty blocks) if create is true and it's absent.
func (cs *ChunkStore) GetChunk(coord ChunkCoord, create bool) *Chunk {
	cs.mu.RLock()
	chunk, exists := cs.chunks[coord]
	cs.mu.RUnlock()
	if exists || !create {
		return chunk
	}

	cs.mu.Lock()
	defer cs.mu.Unlock()
	if existing, ok := cs.chunks[coord]; ok {
		return existing
	}
	chunk = NewChunk(coord)
	cs.chunks[coord] = chunk
	cs.modCount++
	return chunk
}

// HasChunk reports whether coord is present without creating it.
func (cs *ChunkStore) HasChunk(coord ChunkCoord) bool {
	cs.mu.RLock()
	defer cs.mu.RUnlock()
	_, ok := cs.chunks[coord]
	return ok
}

// AddChunk inserts a pre-built chunk (e.g. deserialized from disk) if
// coord is not already present.
func (cs *ChunkStore) AddChunk(coord ChunkCoord, chunk *Chunk) {
	cs.mu.Lock()
	defer cs.mu.Unlock()
	if _, ok := cs.chunks[coord]; ok {
		return
	}
	cs.chunks[coord] = chunk
	cs.modCount++
}

// RemoveChunk deletes coord from the map, e.g. once its state reaches
// Unloading.
func (cs *ChunkStore) RemoveChunk(coord ChunkCoord) {
	cs.mu.Lock()
	defer cs.mu.Unlock()
	if _, ok := cs.chunks[coord]; !ok {
		return
	}
	delete(cs.chunks, coord)
	cs.modCount++
}

func chunkCoordOf(x, z int) ChunkCoord {
	return ChunkCoord{X: int32(floorDiv(x, ChunkWidth)), Z: int32(floorDiv(z, ChunkDepth))}
}

// ChunkCoordOf returns the chunk coordinate containing world (x, z).
func ChunkCoordOf(x, z int) ChunkCoord { return chunkCoordOf(x, z) }

// LocalXZ returns (x, z) reduced to chunk-local coordinates, [0, ChunkWidth)
// and [0, ChunkDepth) respectively.
func LocalXZ(x, z int) (int, int) { return mod(x, ChunkWidth), mod(z, ChunkDepth) }

// GetBlock resolves the chunk containing world position (x,y,z) and
// returns its block, or world.NullBlock if the chunk isn't loaded or y
// is outside [0, ChunkHeight) — per spec §4.2/§7 (NullChunk, OutOfRangeY).
func (cs *ChunkStore) GetBlock(x, y, z int) Block {
	if y < 0 || y >= ChunkHeight {
		return NullBlock
	}
	chunk := cs.GetChunk(chunkCoordOf(x, z), false)
	if chunk == nil {
		return NullBlock
	}
	lx, lz := mod(x, ChunkWidth), mod(z, ChunkDepth)
	return chunk.blockAt(lx, y, lz)
}

// SetBlock writes b whole (id, cached flags and light fields as given)
// at world position (x,y,z). Returns false if y is out of range or the
// containing chunk is not in the map (it does not implicitly create a
// chunk; GetChunk with create=true does that). It runs no lighting pass;
// the caller is responsible for scheduling a lighting recompute.
func (cs *ChunkStore) SetBlock(x, y, z int, b Block) bool {
	if y < 0 || y >= ChunkHeight {
		return false
	}
	chunk := cs.GetChunk(chunkCoordOf(x, z), false)
	if chunk == nil {
		return false
	}
	lx, lz := mod(x, ChunkWidth), mod(z, ChunkDepth)
	chunk.setBlockAt(lx, y, lz, b)
	cs.markBorderNeighbourDirty(chunk, lx, lz)
	return true
}

// RemoveBlock sets AIR with cleared light fields at world position
// (x,y,z). Equivalent to SetBlock(x,y,z, air-with-zero-light) per §4.2.
func (cs *ChunkStore) RemoveBlock(x, y, z int) bool {
	return cs.SetBlock(x, y, z, Block{ID: AirBlockID, Transparent: true})
}

// markBorderNeighbourDirty bumps the modCount-equivalent retesselate
// flag on a cardinal neighbour when a write touches the chunk's edge,
// since the neighbour's mesh depends on this chunk's border blocks too.
func (cs *ChunkStore) markBorderNeighbourDirty(chunk *Chunk, lx, lz int) {
	if lx == 0 {
		if nb := chunk.Neighbour(NeighbourLeft); nb != nil {
			nb.modCount.Add(1)
		}
	} else if lx == ChunkWidth-1 {
		if nb := chunk.Neighbour(NeighbourRight); nb != nil {
			nb.modCount.Add(1)
		}
	}
	if lz == 0 {
		if nb := chunk.Neighbour(NeighbourBottom); nb != nil {
			nb.modCount.Add(1)
		}
	} else if lz == ChunkDepth-1 {
		if nb := chunk.Neighbour(NeighbourTop); nb != nil {
			nb.modCount.Add(1)
		}
	}
}

// ChunkWithCoord pairs a chunk with its coordinate for bulk iteration
// APIs that would otherwise force callers back through the map.
type ChunkWithCoord struct {
	Chunk *Chunk
	Coord ChunkCoord
}

// GetAllChunks returns every chunk currently in the map.
func (cs *ChunkStore) GetAllChunks() []ChunkWithCoord {
	cs.mu.RLock()
	defer cs.mu.RUnlock()
	out := make([]ChunkWithCoord, 0, len(cs.chunks))
	for coord, chunk := range cs.chunks {
		out = append(out, ChunkWithCoord{Chunk: chunk, Coord: coord})
	}
	return out
}

// AppendChunksInRadiusXZ appends every chunk within radius (inclusive
// disk, dx²+dz² ≤ radius²) of (cx, cz) into dst and returns the result.
func (cs *ChunkStore) AppendChunksInRadiusXZ(cx, cz, radius int32, dst []ChunkWithCoord) []ChunkWithCoord {
	defer profiling.Track("world.AppendChunksInRadiusXZ")()
	cs.mu.RLock()
	defer cs.mu.RUnlock()
	r2 := radius * radius
	for coord, chunk := range cs.chunks {
		dx, dz := coord.X-cx, coord.Z-cz
		if dx*dx+dz*dz <= r2 {
			dst = append(dst, ChunkWithCoord{Chunk: chunk, Coord: coord})
		}
	}
	return dst
}

// EvictFarChunks removes every chunk outside radius of (cx, cz) whose
// state is Unloading, deleting it from the map. Chunks still Loaded or
// Saving are left for the streaming controller to enqueue SaveBlockData
// against first — eviction from the map only happens once a chunk has
// actually finished saving.
func (cs *ChunkStore) EvictFarChunks(cx, cz, radius int32) int {
	defer profiling.Track("world.EvictFarChunks")()
	cs.mu.Lock()
	defer cs.mu.Unlock()
	r2 := radius * radius
	removed := 0
	for coord, chunk := range cs.chunks {
		dx, dz := coord.X-cx, coord.Z-cz
		if dx*dx+dz*dz > r2 && chunk.State() == Unloading {
			delete(cs.chunks, coord)
			cs.modCount++
			removed++
		}
	}
	return removed
}

// RemoveUnloadingChunks deletes every chunk currently in state Unloading,
// regardless of its distance from any radius — the streaming
// controller's per-frame "return finished saves to the chunk pool" step.
func (cs *ChunkStore) RemoveUnloadingChunks() int {
	cs.mu.Lock()
	defer cs.mu.Unlock()
	removed := 0
	for coord, chunk := range cs.chunks {
		if chunk.State() == Unloading {
			delete(cs.chunks, coord)
			cs.modCount++
			removed++
		}
	}
	return removed
}

// GetModCount returns the chunk map's structural modification counter
// (bumped on insert/remove, not on in-place block writes).
func (cs *ChunkStore) GetModCount() uint64 {
	cs.mu.RLock()
	defer cs.mu.RUnlock()
	return cs.modCount
}

// PatchNeighbours links every chunk in the map to its four cardinal
// neighbours, where present. Must run after all new chunks for a frame
// have been inserted and before GenerateDecorations/CalculateLighting
// are enqueued, so cross-chunk writes during those commands are legal.
func (cs *ChunkStore) PatchNeighbours() {
	cs.mu.RLock()
	defer cs.mu.RUnlock()
	for coord, chunk := range cs.chunks {
		if left, ok := cs.chunks[ChunkCoord{X: coord.X - 1, Z: coord.Z}]; ok {
			chunk.SetNeighbour(NeighbourLeft, left)
			left.SetNeighbour(NeighbourRight, chunk)
		}
		if bottom, ok := cs.chunks[ChunkCoord{X: coord.X, Z: coord.Z - 1}]; ok {
			chunk.SetNeighbour(NeighbourBottom, bottom)
			bottom.SetNeighbour(NeighbourTop, chunk)
		}
	}
}

func floorDiv(a, b int) int {
	q := a / b
	if (a%b != 0) && ((a < 0) != (b < 0)) {
		q--
	}
	return q
}

func mod(a, b int) int {
	m := a % b
	if m < 0 {
		m += b
	}
	return m
}

package world

import (
	"sync"
	"sync/atomic"
)

const (
	ChunkWidth  = 16
	ChunkHeight = 256
	ChunkDepth  = 16

	// SubChunkHeight is the Y-extent of one tesselation/draw unit; 16
	// sub-chunks stack to span ChunkHeight.
	SubChunkHeight = 16
	NumSubChunks   = ChunkHeight / SubChunkHeight

	blockCount = ChunkWidth * ChunkHeight * ChunkDepth
)

// BlockIndex computes the flat offset of (x, y, z) within a chunk's block
// array. This exact mapping — x*16 + y*256 + z — is load-bearing: the
// mesher and the lighting engine both depend on it to walk neighbours by
// fixed strides, not just to read a single cell.
func BlockIndex(x, y, z int) int {
	return x*ChunkWidth + y*ChunkHeight + z
}

// ChunkState is the lifecycle stage of a Chunk as tracked by the chunk
// thread worker. Only the worker transitions a chunk between states;
// the streaming controller only ever reads state to decide what to
// enqueue next.
type ChunkState int32

const (
	Unloaded ChunkState = iota
	Loading
	Loaded
	Saving
	Unloading
)

func (s ChunkState) String() string {
	switch s {
	case Unloaded:
		return "Unloaded"
	case Loading:
		return "Loading"
	case Loaded:
		return "Loaded"
	case Saving:
		return "Saving"
	case Unloading:
		return "Unloading"
	default:
		return "Unknown"
	}
}

// NeighbourDir indexes the four cardinal neighbour slots on a Chunk.
type NeighbourDir int

const (
	NeighbourLeft NeighbourDir = iota
	NeighbourRight
	NeighbourTop
	NeighbourBottom
)

// ChunkCoord is a chunk-grid coordinate. World block origin of a chunk
// is (X*ChunkWidth, 0, Z*ChunkDepth).
type ChunkCoord struct {
	X, Z int32
}

// Chunk owns one 16x256x16 column of blocks plus its lighting/mesh
// bookkeeping. A Chunk is only ever mutated by the chunk thread worker;
// the main thread reads it, enqueues commands against it, and retires
// terminal-state sub-chunk slots it observes.
type Chunk struct {
	Coords ChunkCoord

	blocksMu sync.RWMutex
	blocks   [blockCount]Block

	state atomic.Int32 // ChunkState

	// neighbours are weak references resolved through the owning
	// ChunkStore, never owning pointers kept alive by the Chunk itself.
	// Go's GC makes a direct atomic pointer safe here — there's no need
	// for the arena-plus-id indirection a non-GC'd implementation would
	// require to avoid dangling aliases.
	neighbours [4]atomic.Pointer[Chunk]

	NeedsDecorations atomic.Bool
	NeedsLighting    atomic.Bool

	// modCount is bumped on every SetBlock/RemoveBlock and exposed via
	// ModCount; neither the streaming controller nor the render bridge
	// reads it.
	modCount atomic.Uint64
}

// NewChunk allocates a chunk at the given coordinate in state Loading.
// Its block array starts zero-valued, i.e. every cell is BlockID(0)
// (NULL) until a GenerateTerrain or ClientLoadChunk command fills it.
func NewChunk(coords ChunkCoord) *Chunk {
	c := &Chunk{Coords: coords}
	c.state.Store(int32(Loading))
	return c
}

// State returns the chunk's current lifecycle state.
func (c *Chunk) State() ChunkState {
	return ChunkState(c.state.Load())
}

// SetState transitions the chunk to a new lifecycle state. Callers are
// expected to respect the state machine in spec §3/§4.6; this does not
// itself validate transitions — an illegal transition is a caller bug,
// not a runtime error.
func (c *Chunk) SetState(s ChunkState) {
	c.state.Store(int32(s))
}

// Neighbour returns the chunk linked in direction d, or nil if unset.
func (c *Chunk) Neighbour(d NeighbourDir) *Chunk {
	return c.neighbours[d].Load()
}

// SetNeighbour links the chunk in direction d. Called only by the
// streaming controller's neighbour-patching pass.
func (c *Chunk) SetNeighbour(d NeighbourDir, n *Chunk) {
	c.neighbours[d].Store(n)
}

// ModCount returns the current modification counter.
func (c *Chunk) ModCount() uint64 {
	return c.modCount.Load()
}

// blockAt returns a copy of the block at local (x, y, z). Callers must
// have validated bounds; out-of-range coordinates are a caller bug here
// (bounds checks against the NULL/OutOfRangeY behavior live one layer up,
// in ChunkStore, where cross-chunk hops and Y-ceiling checks happen).
func (c *Chunk) blockAt(x, y, z int) Block {
	c.blocksMu.RLock()
	defer c.blocksMu.RUnlock()
	return c.blocks[BlockIndex(x, y, z)]
}

// setBlockAt writes b at local (x, y, z) and bumps modCount.
func (c *Chunk) setBlockAt(x, y, z int, b Block) {
	c.blocksMu.Lock()
	c.blocks[BlockIndex(x, y, z)] = b
	c.blocksMu.Unlock()
	c.modCount.Add(1)
}

// withBlocks calls fn with the full backing array under a read lock,
// for bulk consumers (mesher, lighting engine, serializer) that want to
// walk the array without per-cell locking overhead. fn must not retain
// the slice past the call.
func (c *Chunk) withBlocks(fn func(blocks *[blockCount]Block)) {
	c.blocksMu.RLock()
	defer c.blocksMu.RUnlock()
	fn(&c.blocks)
}

// withBlocksMut calls fn with the full backing array under a write
// lock, for bulk producers (terrain generation, deserialize, client
// load) that replace large spans at once.
func (c *Chunk) withBlocksMut(fn func(blocks *[blockCount]Block)) {
	c.blocksMu.Lock()
	defer c.blocksMu.Unlock()
	fn(&c.blocks)
	c.modCount.Add(1)
}

// BlockAt returns a copy of the block at local (x, y, z). Exported for
// other components in the subsystem (lighting, meshing, serialization)
// that walk the neighbour-pointer graph directly rather than going
// through ChunkStore's world-coordinate API.
func (c *Chunk) BlockAt(x, y, z int) Block {
	return c.blockAt(x, y, z)
}

// SetBlockAt writes b at local (x, y, z), as BlockAt's write counterpart.
func (c *Chunk) SetBlockAt(x, y, z int, b Block) {
	c.setBlockAt(x, y, z, b)
}

// SetLightAt updates both the block-light and sky-light fields of the
// block at local (x, y, z), leaving id and cached flags untouched. This
// is the lighting engine's write path: it never changes what a block
// is, only how lit it currently is.
func (c *Chunk) SetLightAt(x, y, z int, blockLight, skyLight uint8) {
	c.blocksMu.Lock()
	idx := BlockIndex(x, y, z)
	c.blocks[idx].LightLevel = blockLight
	c.blocks[idx].SkyLightLevel = skyLight
	c.blocksMu.Unlock()
	c.modCount.Add(1)
}

// SetBlockLightAt updates only the block-light field, leaving sky light
// and everything else untouched.
func (c *Chunk) SetBlockLightAt(x, y, z int, blockLight uint8) {
	c.blocksMu.Lock()
	c.blocks[BlockIndex(x, y, z)].LightLevel = blockLight
	c.blocksMu.Unlock()
	c.modCount.Add(1)
}

// SetSkyLightAt updates only the sky-light field, leaving block light
// and everything else untouched.
func (c *Chunk) SetSkyLightAt(x, y, z int, skyLight uint8) {
	c.blocksMu.Lock()
	c.blocks[BlockIndex(x, y, z)].SkyLightLevel = skyLight
	c.blocksMu.Unlock()
	c.modCount.Add(1)
}

// ReplaceBlocks overwrites the chunk's entire block array from blocks,
// used by the ClientLoadChunk command to copy a server-supplied
// decompressed payload into a freshly-allocated chunk. len(blocks) must
// equal blockCount.
func (c *Chunk) ReplaceBlocks(blocks []Block) {
	c.blocksMu.Lock()
	copy(c.blocks[:], blocks)
	c.blocksMu.Unlock()
	c.modCount.Add(1)
}

// AdoptBlocksFrom copies another chunk's block array into c, used by
// GenerateTerrain when a saved chunk is deserialized into a separate
// Chunk value and then adopted in place (so the caller's *Chunk pointer
// and its already-linked neighbours stay valid).
func (c *Chunk) AdoptBlocksFrom(src *Chunk) {
	src.blocksMu.RLock()
	blocks := src.blocks
	src.blocksMu.RUnlock()

	c.blocksMu.Lock()
	c.blocks = blocks
	c.blocksMu.Unlock()
	c.modCount.Add(1)
}

// InBounds reports whether local coordinates fall within one chunk
// column. Y spans the full world height; X and Z span one chunk.
func InBounds(x, y, z int) bool {
	return x >= 0 && x < ChunkWidth && y >= 0 && y < ChunkHeight && z >= 0 && z < ChunkDepth
}

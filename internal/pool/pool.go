package pool

import (
	"log"
	"sync"
	"sync/atomic"

	"github.com/dantero/voxelcore/internal/world"
)

// SlotState is the per-slot lifecycle described in §4.3. Only the
// worker drives Unloaded -> TesselatingVertices -> Upload*/Done*; only
// the renderer bridge drives the Upload*/Done* -> Uploaded/Unloaded
// transitions it observes each frame.
type SlotState int32

const (
	Unloaded SlotState = iota
	TesselatingVertices
	RetesselateVertices
	UploadVerticesToGpu
	Uploaded
	DoneRetesselating
)

// Slot is one fixed-size vertex bucket. Index doubles as the GPU
// offset: slot i's vertex range starts at i*MaxVertsPerSubChunk in the
// pool's backing buffer.
type Slot struct {
	ChunkCoords world.ChunkCoord
	Level       int // which 16-block Y slab, 0..15
	IsBlendable bool

	First uint32 // vertex offset into the global buffer
	Data  []Vertex

	vertsUsed atomic.Uint32
	state     atomic.Int32

	// chunk is a back-reference used only to check "is this slot's
	// chunk still in the map" during renderer bridge sweeps; it is not
	// used for block access.
	chunk atomic.Pointer[world.Chunk]
}

// VertsUsed returns the slot's current vertex count.
func (s *Slot) VertsUsed() uint32 { return s.vertsUsed.Load() }

// SetVertsUsed atomically sets the slot's vertex count. Called by the
// pool to reset it to 0 when a slot is claimed for meshing or freed; the
// mesher bumps it by 6 per face with AddVertsUsed.
func (s *Slot) SetVertsUsed(n uint32) { s.vertsUsed.Store(n) }

// AddVertsUsed atomically adds n to the slot's vertex count.
func (s *Slot) AddVertsUsed(n uint32) uint32 { return s.vertsUsed.Add(n) }

// State returns the slot's current lifecycle state.
func (s *Slot) State() SlotState { return SlotState(s.state.Load()) }

// SetState transitions the slot to a new lifecycle state.
func (s *Slot) SetState(st SlotState) { s.state.Store(int32(st)) }

// Chunk returns the chunk this slot currently belongs to, or nil.
func (s *Slot) Chunk() *world.Chunk { return s.chunk.Load() }

// SetChunk associates the slot with chunk c.
func (s *Slot) SetChunk(c *world.Chunk) { s.chunk.Store(c) }

// Pool is the fixed allocation of N = ChunkCapacity*16 slots, backed by
// one contiguous vertex buffer. In production the buffer is a
// persistently-mapped GPU buffer (see internal/openglhelper); Backing
// can also be a plain Go slice for tests, since the pool itself only
// ever deals in Vertex values and slot offsets.
type Pool struct {
	slots               []Slot
	maxVertsPerSubChunk int

	freeMu sync.Mutex
	free   []int // stack of free slot indices
}

// New creates a pool of capacity*16 slots, each MaxVertsPerSubChunk
// vertices wide, carved out of backing (len(backing) must be
// capacity*16*maxVertsPerSubChunk).
func New(backing []Vertex, capacity, maxVertsPerSubChunk int) *Pool {
	n := capacity * world.NumSubChunks
	p := &Pool{
		slots:               make([]Slot, n),
		maxVertsPerSubChunk: maxVertsPerSubChunk,
		free:                make([]int, n),
	}
	for i := 0; i < n; i++ {
		off := i * maxVertsPerSubChunk
		p.slots[i].First = uint32(off)
		p.slots[i].Data = backing[off : off+maxVertsPerSubChunk]
		p.free[i] = n - 1 - i // push in reverse so Acquire pops index 0 first
	}
	return p
}

// Cap returns the total slot count.
func (p *Pool) Cap() int { return len(p.slots) }

// MaxVertsPerSubChunk returns the fixed per-slot vertex budget.
func (p *Pool) MaxVertsPerSubChunk() int { return p.maxVertsPerSubChunk }

// Slot returns a pointer to slot i.
func (p *Pool) Slot(i int) *Slot { return &p.slots[i] }

// Acquire pops a free slot index, treated as a plain stack per the
// Open Questions note in §9 ("treat the free list as a plain stack
// unless deliberately round-robining") rather than the source's
// ring-buffer indexing, which risks dropping slots on a full cycle.
// Returns (-1, false) — SlotExhausted — if none are free.
func (p *Pool) Acquire() (int, bool) {
	p.freeMu.Lock()
	defer p.freeMu.Unlock()
	if len(p.free) == 0 {
		return -1, false
	}
	last := len(p.free) - 1
	idx := p.free[last]
	p.free = p.free[:last]
	return idx, true
}

// Release returns slot i to the free list and resets its bookkeeping.
// Called by the renderer bridge to free an orphaned or retired slot; the
// slot is left in state Unloaded.
func (p *Pool) Release(i int) {
	s := &p.slots[i]
	s.SetVertsUsed(0)
	s.SetChunk(nil)
	s.SetState(Unloaded)

	p.freeMu.Lock()
	p.free = append(p.free, i)
	p.freeMu.Unlock()
}

// FindSlot returns the slot currently holding (coords, level, blendable),
// if any — a slot whose key matches and whose state isn't Unloaded (an
// Unloaded slot carries no live key, it's just sitting on the free
// list). Used by the mesher to find the live slot a rebuild must
// retire instead of leaving a stale duplicate behind.
func (p *Pool) FindSlot(coords world.ChunkCoord, level int, blendable bool) (*Slot, bool) {
	for i := range p.slots {
		s := &p.slots[i]
		if s.State() == Unloaded {
			continue
		}
		if s.ChunkCoords == coords && s.Level == level && s.IsBlendable == blendable {
			return s, true
		}
	}
	return nil, false
}

// AcquireForMesh acquires a slot and stamps it with the chunk/level it
// will hold, transitioning it to TesselatingVertices. Logs and returns
// (nil, false) on SlotExhausted — never fatal, per §7.
func (p *Pool) AcquireForMesh(coords world.ChunkCoord, level int, blendable bool, chunk *world.Chunk) (*Slot, bool) {
	idx, ok := p.Acquire()
	if !ok {
		log.Printf("pool: slot exhausted for chunk=%v level=%d blendable=%v", coords, level, blendable)
		return nil, false
	}
	s := &p.slots[idx]
	s.ChunkCoords = coords
	s.Level = level
	s.IsBlendable = blendable
	s.SetChunk(chunk)
	s.SetVertsUsed(0)
	s.SetState(TesselatingVertices)
	return s, true
}

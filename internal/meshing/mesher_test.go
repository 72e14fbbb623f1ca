package meshing

import (
	"testing"

	"github.com/dantero/voxelcore/internal/pool"
	"github.com/dantero/voxelcore/internal/registry"
	"github.com/dantero/voxelcore/internal/world"
)

func init() {
	registry.InitRegistry()
}

func newTestPool() *pool.Pool {
	backing := make([]pool.Vertex, 2*world.NumSubChunks*512)
	return pool.New(backing, 2, 512)
}

func TestMeshChunkEmitsTopFaceForExposedBlock(t *testing.T) {
	c := world.NewChunk(world.ChunkCoord{})
	c.SetBlockAt(0, 0, 0, world.Block{ID: registry.IDOf("stone"), Transparent: false})

	m := New(newTestPool())
	result := m.MeshChunk(c)

	slot := result.OpaqueSlots[0]
	if slot == nil {
		t.Fatal("expected an opaque slot at sub-chunk level 0")
	}
	// Every neighbour of the lone block is NULL (unfilled or outside the
	// world), so none of its six faces is culled, the top face included.
	if slot.VertsUsed() != 6*6 {
		t.Fatalf("expected 36 verts for a lone block with all six faces exposed, got %d", slot.VertsUsed())
	}
}

func TestMeshChunkSkipsFullyBuriedBlock(t *testing.T) {
	c := world.NewChunk(world.ChunkCoord{})
	stone := world.Block{ID: registry.IDOf("stone"), Transparent: false}
	// Fill a 3x3x3 cube so the centre block has no exposed faces.
	for x := 0; x < 3; x++ {
		for y := 0; y < 3; y++ {
			for z := 0; z < 3; z++ {
				c.SetBlockAt(x, y, z, stone)
			}
		}
	}

	m := New(newTestPool())
	result := m.MeshChunk(c)

	slot := result.OpaqueSlots[0]
	// The cube's outer faces still emit geometry; what we're checking is
	// that the centre block (1,1,1) didn't also contribute six more
	// faces on top of its neighbours' shared faces. 9 exposed faces
	// (one per block on a 3x3 cube side) * 6 sides = 54 faces * 6 verts.
	want := uint32(9 * 6 * 6)
	if slot == nil || slot.VertsUsed() != want {
		t.Fatalf("expected %d verts for the solid cube's outer shell, got %v", want, slot)
	}
}

func TestMeshChunkRoutesBlendableBlockToBlendableSlot(t *testing.T) {
	c := world.NewChunk(world.ChunkCoord{})
	water := registry.Get(registry.WaterID())
	c.SetBlockAt(5, 10, 5, world.Block{ID: registry.WaterID(), Transparent: water.IsTransparent, IsBlendable: true})

	m := New(newTestPool())
	result := m.MeshChunk(c)

	level := 10 / world.SubChunkHeight
	if result.BlendableSlots[level] == nil {
		t.Fatal("expected a blendable slot for the water block's sub-chunk level")
	}
	if result.OpaqueSlots[level] != nil {
		t.Fatalf("did not expect an opaque slot for a sub-chunk containing only water")
	}
}

func TestMeshChunkRebuildRetiresThePreviousSlotInstead(t *testing.T) {
	c := world.NewChunk(world.ChunkCoord{})
	stone := world.Block{ID: registry.IDOf("stone"), Transparent: false}
	c.SetBlockAt(0, 0, 0, stone)

	p := newTestPool()
	m := New(p)

	first := m.MeshChunk(c)
	firstSlot := first.OpaqueSlots[0]
	if firstSlot == nil {
		t.Fatal("expected an opaque slot from the first mesh pass")
	}
	// Simulate the renderer bridge having promoted it to Uploaded, the
	// state a rebuild actually needs to retire.
	firstSlot.SetState(pool.Uploaded)

	c.SetBlockAt(0, 0, 0, world.Block{ID: registry.IDOf("dirt"), Transparent: false})
	second := m.MeshChunk(c)
	secondSlot := second.OpaqueSlots[0]
	if secondSlot == nil {
		t.Fatal("expected an opaque slot from the rebuild")
	}
	if secondSlot == firstSlot {
		t.Fatal("rebuild must claim a different slot than the one still on screen")
	}
	if firstSlot.State() != pool.DoneRetesselating {
		t.Fatalf("expected the retired slot to reach DoneRetesselating, got %v", firstSlot.State())
	}
	if secondSlot.State() != pool.UploadVerticesToGpu {
		t.Fatalf("expected the new slot to reach UploadVerticesToGpu, got %v", secondSlot.State())
	}

	live := 0
	for i := 0; i < p.Cap(); i++ {
		s := p.Slot(i)
		if s.State() == pool.Unloaded || s.State() == pool.DoneRetesselating {
			continue
		}
		if s.ChunkCoords == c.Coords && s.Level == 0 && !s.IsBlendable {
			live++
		}
	}
	if live != 1 {
		t.Fatalf("expected exactly one live (non-retired) slot for (chunk, level 0, opaque), got %d", live)
	}
}

func TestMeshChunkAcrossNeighbourBorderHidesSharedFace(t *testing.T) {
	left := world.NewChunk(world.ChunkCoord{X: 0, Z: 0})
	right := world.NewChunk(world.ChunkCoord{X: 1, Z: 0})
	left.SetNeighbour(world.NeighbourRight, right)
	right.SetNeighbour(world.NeighbourLeft, left)

	stone := world.Block{ID: registry.IDOf("stone"), Transparent: false}
	left.SetBlockAt(world.ChunkWidth-1, 0, 0, stone)
	right.SetBlockAt(0, 0, 0, stone)

	m := New(newTestPool())
	resultLeft := m.MeshChunk(left)

	slot := resultLeft.OpaqueSlots[0]
	if slot == nil {
		t.Fatal("expected an opaque slot")
	}
	// The east face of left's block is shared with right's block and
	// must not be emitted; only the five other faces of the lone block
	// should appear (west/top/bottom/north/south).
	if slot.VertsUsed() != 5*6 {
		t.Fatalf("expected the shared east face to be culled, got %d verts", slot.VertsUsed())
	}
}

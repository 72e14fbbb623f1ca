package pool_test

import (
	"testing"

	"github.com/dantero/voxelcore/internal/pool"
	"github.com/dantero/voxelcore/internal/world"
	"github.com/stretchr/testify/require"
)

func newTestPool(capacity, maxVerts int) *pool.Pool {
	backing := make([]pool.Vertex, capacity*world.NumSubChunks*maxVerts)
	return pool.New(backing, capacity, maxVerts)
}

func TestAcquireReleaseRoundTrip(t *testing.T) {
	p := newTestPool(2, 4500)
	require.Equal(t, 2*world.NumSubChunks, p.Cap())

	idx, ok := p.Acquire()
	require.True(t, ok)
	require.GreaterOrEqual(t, idx, 0)

	p.Release(idx)
	idx2, ok := p.Acquire()
	require.True(t, ok)
	require.Equal(t, idx, idx2, "a released slot should be reusable")
}

func TestAcquireExhaustion(t *testing.T) {
	p := newTestPool(1, 16) // 16 slots total
	for i := 0; i < world.NumSubChunks; i++ {
		_, ok := p.Acquire()
		require.True(t, ok)
	}
	_, ok := p.Acquire()
	require.False(t, ok, "pool should report exhaustion once every slot is taken")
}

func TestSlotOffsetsAreDisjoint(t *testing.T) {
	p := newTestPool(4, 100)
	seen := make(map[uint32]bool)
	for i := 0; i < p.Cap(); i++ {
		s := p.Slot(i)
		require.False(t, seen[s.First], "slot offset %d reused", s.First)
		seen[s.First] = true
	}
}

func TestAcquireForMeshStampsSlotAndSetsState(t *testing.T) {
	p := newTestPool(1, 4500)
	coords := world.ChunkCoord{X: 2, Z: -3}
	c := world.NewChunk(coords)

	s, ok := p.AcquireForMesh(coords, 4, false, c)
	require.True(t, ok)
	require.Equal(t, coords, s.ChunkCoords)
	require.Equal(t, 4, s.Level)
	require.Equal(t, pool.TesselatingVertices, s.State())
	require.Same(t, c, s.Chunk())
}

func TestReleaseResetsSlot(t *testing.T) {
	p := newTestPool(1, 4500)
	idx, _ := p.Acquire()
	s := p.Slot(idx)
	s.SetVertsUsed(42)
	s.SetState(pool.Uploaded)

	p.Release(idx)
	require.Equal(t, uint32(0), s.VertsUsed())
	require.Equal(t, pool.Unloaded, s.State())
	require.Nil(t, s.Chunk())
}

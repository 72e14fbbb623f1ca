package render_test

import (
	"testing"

	"github.com/dantero/voxelcore/internal/pool"
	"github.com/dantero/voxelcore/internal/render"
	"github.com/dantero/voxelcore/internal/world"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/require"
)

// wideOpenFrustum looks at the origin from 500 blocks out along +Z with
// a 120-degree field of view, so every sub-chunk these tests place (all
// within a few chunks of the origin) is inside it and nothing is culled.
func wideOpenFrustum() render.Frustum {
	proj := mgl32.Perspective(mgl32.DegToRad(120), 1, 0.1, 100000)
	view := mgl32.LookAtV(mgl32.Vec3{0, 0, 500}, mgl32.Vec3{0, 0, 0}, mgl32.Vec3{0, 1, 0})
	return render.NewFrustum(proj.Mul4(view))
}

func TestUpdateCollectsUploadedSlotsSortedByDistance(t *testing.T) {
	store := world.NewChunkStore()
	near := world.ChunkCoord{X: 0, Z: 0}
	far := world.ChunkCoord{X: 3, Z: 0}
	store.AddChunk(near, world.NewChunk(near))
	store.AddChunk(far, world.NewChunk(far))

	backing := make([]pool.Vertex, world.NumSubChunks*4500)
	p := pool.New(backing, 1, 4500)

	nearSlot, ok := p.AcquireForMesh(near, 0, false, store.GetChunk(near, false))
	require.True(t, ok)
	nearSlot.SetVertsUsed(6)
	nearSlot.SetState(pool.Uploaded)

	farSlot, ok := p.AcquireForMesh(far, 0, false, store.GetChunk(far, false))
	require.True(t, ok)
	farSlot.SetVertsUsed(6)
	farSlot.SetState(pool.Uploaded)

	bridge := render.New(p, store)
	frame := bridge.Update(world.ChunkCoord{X: 0, Z: 0}, wideOpenFrustum())

	require.Len(t, frame.Opaque, 2)
	require.Equal(t, near, frame.Opaque[0].Coord)
	require.Equal(t, far, frame.Opaque[1].Coord)
}

func TestUpdateReleasesOrphanedSlot(t *testing.T) {
	store := world.NewChunkStore()
	coord := world.ChunkCoord{X: 0, Z: 0}
	chunk := store.GetChunk(coord, true)

	backing := make([]pool.Vertex, world.NumSubChunks*4500)
	p := pool.New(backing, 1, 4500)
	slot, ok := p.AcquireForMesh(coord, 0, false, chunk)
	require.True(t, ok)
	slot.SetVertsUsed(6)
	slot.SetState(pool.Uploaded)

	store.RemoveChunk(coord)

	bridge := render.New(p, store)
	frame := bridge.Update(coord, wideOpenFrustum())

	require.Empty(t, frame.Opaque)
	require.Equal(t, pool.Unloaded, slot.State())
}

func TestUpdateSortsBlendableBackToFront(t *testing.T) {
	store := world.NewChunkStore()
	near := world.ChunkCoord{X: 0, Z: 0}
	far := world.ChunkCoord{X: 5, Z: 0}
	store.AddChunk(near, world.NewChunk(near))
	store.AddChunk(far, world.NewChunk(far))

	backing := make([]pool.Vertex, world.NumSubChunks*4500)
	p := pool.New(backing, 1, 4500)

	nearSlot, _ := p.AcquireForMesh(near, 0, true, store.GetChunk(near, false))
	nearSlot.SetVertsUsed(6)
	nearSlot.SetState(pool.Uploaded)

	farSlot, _ := p.AcquireForMesh(far, 0, true, store.GetChunk(far, false))
	farSlot.SetVertsUsed(6)
	farSlot.SetState(pool.Uploaded)

	bridge := render.New(p, store)
	frame := bridge.Update(world.ChunkCoord{X: 0, Z: 0}, wideOpenFrustum())

	require.Len(t, frame.Blendable, 2)
	require.Equal(t, far, frame.Blendable[0].Coord)
	require.Equal(t, near, frame.Blendable[1].Coord)
}

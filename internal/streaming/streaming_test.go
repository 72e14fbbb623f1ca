package streaming_test

import (
	"testing"
	"time"

	"github.com/dantero/voxelcore/internal/config"
	"github.com/dantero/voxelcore/internal/meshing"
	"github.com/dantero/voxelcore/internal/pool"
	"github.com/dantero/voxelcore/internal/registry"
	"github.com/dantero/voxelcore/internal/streaming"
	"github.com/dantero/voxelcore/internal/worker"
	"github.com/dantero/voxelcore/internal/world"
	"github.com/stretchr/testify/require"
)

func init() {
	registry.InitRegistry()
}

func newTestController(t *testing.T) (*streaming.Controller, *world.ChunkStore, *worker.Worker) {
	t.Helper()
	config.SetChunkSavePath(t.TempDir())
	store := world.NewChunkStore()
	gen := world.NewGenerator(1)
	backing := make([]pool.Vertex, 2*world.NumSubChunks*4500)
	p := pool.New(backing, 2, 4500)
	m := meshing.New(p)
	w := worker.New(store, gen, m)
	w.Start()
	t.Cleanup(w.Shutdown)
	return streaming.New(store, w), store, w
}

// drain gives the worker goroutine a moment to process everything
// enqueued so far, since Update's commands have no Done channel to
// block on (the streaming controller fires-and-forgets by design).
func drain() {
	time.Sleep(50 * time.Millisecond)
}

func TestUpdatePopulatesLoadRadius(t *testing.T) {
	ctrl, store, _ := newTestController(t)
	config.SetRenderDistance(5)

	ctrl.Update(world.ChunkCoord{X: 0, Z: 0})
	drain()

	require.True(t, store.HasChunk(world.ChunkCoord{X: 0, Z: 0}))
	require.True(t, store.HasChunk(world.ChunkCoord{X: 3, Z: 0}))
	require.False(t, store.HasChunk(world.ChunkCoord{X: 9, Z: 9}))
}

func TestUpdateEvictsFarChunksAfterMove(t *testing.T) {
	ctrl, store, _ := newTestController(t)
	config.SetRenderDistance(5)

	ctrl.Update(world.ChunkCoord{X: 0, Z: 0})
	drain()
	require.True(t, store.HasChunk(world.ChunkCoord{X: 0, Z: 0}))

	far := world.ChunkCoord{X: 500, Z: 500}
	ctrl.Update(far)
	drain()
	ctrl.Update(far)
	drain()

	require.False(t, store.HasChunk(world.ChunkCoord{X: 0, Z: 0}))
	require.True(t, store.HasChunk(far))
}

func TestUpdatePatchesNeighbours(t *testing.T) {
	ctrl, store, _ := newTestController(t)
	config.SetRenderDistance(5)

	ctrl.Update(world.ChunkCoord{X: 0, Z: 0})
	drain()

	origin := store.GetChunk(world.ChunkCoord{X: 0, Z: 0}, false)
	require.NotNil(t, origin.Neighbour(world.NeighbourRight))
}

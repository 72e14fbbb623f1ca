package network_test

import (
	"bytes"
	"testing"

	"github.com/dantero/voxelcore/internal/network"
	"github.com/dantero/voxelcore/internal/registry"
	"github.com/dantero/voxelcore/internal/world"
	"github.com/stretchr/testify/require"
)

func init() {
	registry.InitRegistry()
}

func flagsOf(id world.BlockID) (bool, bool, bool) {
	def := registry.Get(id)
	return def.IsTransparent, def.IsLightSource, def.IsBlendable
}

func TestChunkStreamRoundTrip(t *testing.T) {
	a := world.NewChunk(world.ChunkCoord{X: 1, Z: -2})
	a.SetBlockAt(0, 0, 0, world.Block{ID: 1})
	b := world.NewChunk(world.ChunkCoord{X: 5, Z: 5})

	var buf bytes.Buffer
	err := network.WriteChunkStream(&buf, []network.ChunkStreamEntry{
		{Chunk: a, State: world.Loaded},
		{Chunk: b, State: world.Saving},
	})
	require.NoError(t, err)

	entries, err := network.ReadChunkStream(&buf, flagsOf)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	require.Equal(t, world.ChunkCoord{X: 1, Z: -2}, entries[0].Chunk.Coords)
	require.Equal(t, world.Loaded, entries[0].State)
	require.Equal(t, world.BlockID(1), entries[0].Chunk.BlockAt(0, 0, 0).ID)
	require.Equal(t, world.ChunkCoord{X: 5, Z: 5}, entries[1].Chunk.Coords)
	require.Equal(t, world.Saving, entries[1].State)
}

func TestSetBlockRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	in := network.SetBlockFrame{X: 1.5, Y: 64, Z: -3.25, Block: world.Block{ID: 7, Transparent: true, IsBlendable: true}}
	require.NoError(t, network.WriteSetBlock(&buf, in))

	out, err := network.ReadSetBlock(&buf)
	require.NoError(t, err)
	require.Equal(t, in.X, out.X)
	require.Equal(t, in.Y, out.Y)
	require.Equal(t, in.Z, out.Z)
	require.Equal(t, in.Block.ID, out.Block.ID)
	require.True(t, out.Block.Transparent)
	require.True(t, out.Block.IsBlendable)
	require.False(t, out.Block.IsLightSource)
}

func TestRemoveBlockRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	in := network.RemoveBlockFrame{X: 10, Y: 20, Z: 30}
	require.NoError(t, network.WriteRemoveBlock(&buf, in))

	out, err := network.ReadRemoveBlock(&buf)
	require.NoError(t, err)
	require.Equal(t, in, out)
}

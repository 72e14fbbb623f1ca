package lighting_test

import (
	"testing"

	"github.com/dantero/voxelcore/internal/lighting"
	"github.com/dantero/voxelcore/internal/registry"
	"github.com/dantero/voxelcore/internal/world"
	"github.com/stretchr/testify/require"
)

func init() {
	registry.InitRegistry()
}

func solidChunk() *world.Chunk {
	c := world.NewChunk(world.ChunkCoord{})
	c.SetState(world.Loaded)
	stone := world.Block{ID: 4}
	for x := 0; x < world.ChunkWidth; x++ {
		for y := 0; y < world.ChunkHeight; y++ {
			for z := 0; z < world.ChunkDepth; z++ {
				c.SetBlockAt(x, y, z, stone)
			}
		}
	}
	return c
}

func carveAirPocket(c *world.Chunk, cx, cy, cz, radius int) {
	air := world.Block{ID: world.AirBlockID, Transparent: true}
	for x := cx - radius; x <= cx+radius; x++ {
		for y := cy - radius; y <= cy+radius; y++ {
			for z := cz - radius; z <= cz+radius; z++ {
				c.SetBlockAt(x, y, z, air)
			}
		}
	}
}

// TestFloodFillTorchInDarkRoom is scenario S1: an all-stone chunk with a
// 9x9x9 air pocket (x 4..12) and a torch (light_level=15) at its centre.
func TestFloodFillTorchInDarkRoom(t *testing.T) {
	c := solidChunk()
	carveAirPocket(c, 8, 64, 8, 4)

	torch := registry.Get(8) // glowstone, light_level 15
	require.True(t, torch.IsLightSource)
	c.SetBlockAt(8, 64, 8, world.Block{ID: 8, IsLightSource: true})

	seeds := lighting.LightSourceSeeds(c)
	require.Len(t, seeds, 1)
	lighting.Propagate(seeds, lighting.Block)

	require.EqualValues(t, 13, c.BlockAt(10, 64, 8).LightLevel, "2 hops from a 15-emitter should read 13")
	require.EqualValues(t, 11, c.BlockAt(12, 64, 8).LightLevel, "4 hops from a 15-emitter should read 11")
	require.EqualValues(t, 0, c.BlockAt(13, 64, 8).LightLevel, "stone past the air pocket boundary stays dark")
}

// TestRemoveTorchDarkensRoom is scenario S2: continuing from S1, removing
// the light source should darken the whole pocket back to zero.
func TestRemoveTorchDarkensRoom(t *testing.T) {
	c := solidChunk()
	carveAirPocket(c, 8, 64, 8, 2)
	c.SetBlockAt(8, 64, 8, world.Block{ID: 8, IsLightSource: true})

	seeds := lighting.LightSourceSeeds(c)
	lighting.Propagate(seeds, lighting.Block)
	require.NotZero(t, c.BlockAt(10, 64, 8).LightLevel)

	c.SetBlockAt(8, 64, 8, world.Block{ID: world.AirBlockID, Transparent: true})
	origin := lighting.Pos{Chunk: c, X: 8, Y: 64, Z: 8}
	result := lighting.Remove(origin, lighting.Block)
	require.Empty(t, result.ReseedFrom, "no other source remains to re-flood from")

	for x := 6; x <= 10; x++ {
		for y := 62; y <= 66; y++ {
			for z := 6; z <= 10; z++ {
				require.EqualValues(t, 0, c.BlockAt(x, y, z).LightLevel, "(%d,%d,%d) should be dark", x, y, z)
			}
		}
	}
}

// TestSkySeedingThroughShaft is scenario S3, reduced: an all-stone chunk
// with a 1x1 shaft open from the top of the world down to y=60; sky
// light should read 31 all the way down the shaft.
func TestSkySeedingThroughShaft(t *testing.T) {
	c := solidChunk()
	air := world.Block{ID: world.AirBlockID, Transparent: true}
	for y := 60; y < world.ChunkHeight; y++ {
		c.SetBlockAt(8, y, 8, air)
	}
	// thin floor slab at y=60 around the shaft stays solid except the shaft itself
	for x := 0; x < world.ChunkWidth; x++ {
		for z := 0; z < world.ChunkDepth; z++ {
			if x == 8 && z == 8 {
				continue
			}
			c.SetBlockAt(x, 60, z, world.Block{ID: 4})
		}
	}

	lighting.SeedColumnSkyLight(c)
	seeds := lighting.HorizontalReseedSources(c)
	lighting.Propagate(seeds, lighting.Sky)

	require.EqualValues(t, world.MaxLight, c.BlockAt(8, 60, 8).SkyLightLevel)
	require.EqualValues(t, world.MaxLight, c.BlockAt(8, 200, 8).SkyLightLevel)
}

package world

import (
	"math"

	"github.com/dantero/voxelcore/internal/config"
)

// TerrainGenerator is the interface the chunk thread worker's
// GenerateTerrain command uses to fill a freshly-allocated chunk.
type TerrainGenerator interface {
	HeightAt(worldX, worldZ int) int
	PopulateChunk(c *Chunk)
}

// Block ids used directly by terrain generation. These mirror the
// registry's fixed ids (see internal/registry.InitRegistry); kept as
// local constants so this package doesn't import registry and create a
// cycle (registry imports world for BlockID/BlockFace).
const (
	bedrockID BlockID = 5
	stoneID   BlockID = 4
	dirtID    BlockID = 3
	grassID   BlockID = 2
	waterID   BlockID = 9
)

// Generator produces deterministic fractal-value-noise terrain. Height
// quality is explicitly out of scope; this exists to produce varied,
// reproducible columns for the lighting/meshing/streaming pipeline to
// exercise.
type Generator struct {
	seed        int64
	scale       float64
	baseHeight  int
	amp         float64
	octaves     int
	persistence float64
	lacunarity  float64
}

// NewGenerator creates a generator for the given world seed.
func NewGenerator(seed int64) *Generator {
	return &Generator{
		seed:        seed,
		scale:       1.0 / 64.0,
		baseHeight:  64,
		amp:         24,
		octaves:     4,
		persistence: 0.5,
		lacunarity:  2.0,
	}
}

// HeightAt computes the terrain surface height (world Y) at (worldX, worldZ).
func (g *Generator) HeightAt(worldX, worldZ int) int {
	x := float64(worldX) * g.scale
	z := float64(worldZ) * g.scale
	n := octaveNoise2D(x, z, g.seed, g.octaves, g.persistence, g.lacunarity)
	height := float64(g.baseHeight) + n*g.amp
	if height < 1 {
		height = 1
	}
	if height > ChunkHeight-1 {
		height = ChunkHeight - 1
	}
	return int(math.Floor(height))
}

// PopulateChunk fills every column of c from the noise heightmap: a
// single bedrock floor, stone up to a few blocks below the surface,
// dirt to the surface minus one, grass on top, water up to sea level
// where the surface dips below it, air above. When caves are enabled,
// a second noise field carves pockets from just above bedrock up to
// three blocks below the surface (the stone layer and the lowest dirt
// block). Marks
// NeedsDecorations and NeedsLighting per §4.6's GenerateTerrain kind.
func (g *Generator) PopulateChunk(c *Chunk) {
	seaLevel := config.GetSeaLevel()
	caves := config.GetCaves()

	c.withBlocksMut(func(blocks *[blockCount]Block) {
		for lx := 0; lx < ChunkWidth; lx++ {
			for lz := 0; lz < ChunkDepth; lz++ {
				worldX := int(c.Coords.X)*ChunkWidth + lx
				worldZ := int(c.Coords.Z)*ChunkDepth + lz
				top := g.HeightAt(worldX, worldZ)
				surface := top
				if surface < seaLevel {
					surface = seaLevel
				}

				for y := 0; y <= top; y++ {
					var id BlockID
					switch {
					case y == 0:
						id = bedrockID
					case y == top && top >= seaLevel:
						id = grassID
					case y >= top-3:
						id = dirtID
					default:
						id = stoneID
					}
					if caves && y > 0 && y < top-2 && g.isCave(worldX, y, worldZ) {
						blocks[BlockIndex(lx, y, lz)] = Block{ID: AirBlockID, Transparent: true}
						continue
					}
					blocks[BlockIndex(lx, y, lz)] = Block{ID: id}
				}
				for y := top + 1; y <= surface; y++ {
					blocks[BlockIndex(lx, y, lz)] = Block{ID: waterID, Transparent: true, IsBlendable: true}
				}
				for y := surface + 1; y < ChunkHeight; y++ {
					blocks[BlockIndex(lx, y, lz)] = Block{ID: AirBlockID, Transparent: true}
				}
			}
		}
	})

	c.NeedsDecorations.Store(true)
	c.NeedsLighting.Store(true)
}

// isCave reports whether (worldX,y,worldZ) falls inside a carved cave
// pocket, sampled from a noise field distinct from the surface
// heightmap (offset seed) so caves don't correlate with terrain shape.
func (g *Generator) isCave(worldX, y, worldZ int) bool {
	x := float64(worldX) * g.scale * 2
	yy := float64(y) * g.scale * 2
	z := float64(worldZ) * g.scale * 2
	n := octaveNoise2D(x+yy, z-yy, g.seed+1, 3, 0.5, 2.0)
	return n > 0.55
}
